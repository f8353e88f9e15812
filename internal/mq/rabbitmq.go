package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/shiroonigami23-ui/supply-disruption-engine/internal/contracts"
)

// Notifier publishes escalation notices to a durable RabbitMQ queue that the
// on-call tooling consumes.
type Notifier struct {
	url    string
	queue  string
	logger *zap.Logger

	mu      sync.Mutex
	conn    *amqp.Connection
	channel *amqp.Channel
}

func NewNotifier(url, queue string, logger *zap.Logger) *Notifier {
	return &Notifier{url: url, queue: queue, logger: logger}
}

// Connect dials the broker with exponential backoff and declares the queue.
func (n *Notifier) Connect(ctx context.Context) error {
	backoff := time.Second
	maxBackoff := 30 * time.Second
	const maxAttempts = 10

	for attempt := 1; ; attempt++ {
		err := n.connect()
		if err == nil {
			n.logger.Info("connected to rabbitmq", zap.String("queue", n.queue), zap.Int("attempt", attempt))
			return nil
		}
		if attempt >= maxAttempts {
			return fmt.Errorf("connect rabbitmq after %d attempts: %w", attempt, err)
		}
		n.logger.Warn("rabbitmq connect failed, retrying",
			zap.Error(err),
			zap.Int("attempt", attempt),
			zap.Duration("backoff", backoff),
		)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
}

func (n *Notifier) connect() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.closeLocked()

	conn, err := amqp.DialConfig(n.url, amqp.Config{
		Heartbeat:  10 * time.Second,
		Locale:     "en_US",
		Properties: amqp.Table{"connection_name": "alert-service"},
	})
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("open channel: %w", err)
	}
	if _, err := ch.QueueDeclare(n.queue, true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return fmt.Errorf("declare queue %s: %w", n.queue, err)
	}

	n.conn = conn
	n.channel = ch
	return nil
}

// Notify publishes one notice, reconnecting once if the channel was lost.
func (n *Notifier) Notify(ctx context.Context, notice contracts.EscalationNotice) error {
	body, err := json.Marshal(notice)
	if err != nil {
		return fmt.Errorf("marshal escalation notice: %w", err)
	}

	for attempt := 0; attempt < 2; attempt++ {
		n.mu.Lock()
		ch := n.channel
		n.mu.Unlock()

		if ch == nil || ch.IsClosed() {
			if err := n.connect(); err != nil {
				return fmt.Errorf("reconnect rabbitmq: %w", err)
			}
			continue
		}

		err = ch.PublishWithContext(ctx, "", n.queue, false, false, amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    notice.AlertID,
			Timestamp:    time.Now().UTC(),
			Body:         body,
		})
		if err == nil {
			return nil
		}
		n.logger.Warn("publish escalation failed", zap.String("alert_id", notice.AlertID), zap.Error(err))
	}
	return fmt.Errorf("publish escalation %s: %w", notice.AlertID, err)
}

func (n *Notifier) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.closeLocked()
}

func (n *Notifier) closeLocked() {
	if n.channel != nil {
		_ = n.channel.Close()
		n.channel = nil
	}
	if n.conn != nil {
		_ = n.conn.Close()
		n.conn = nil
	}
}
