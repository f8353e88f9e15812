// Package mq carries disruption events and risk reports over Kafka and hands
// escalations to the human-ops queue on RabbitMQ.
package mq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/shiroonigami23-ui/supply-disruption-engine/internal/contracts"
)

func NewWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		BatchTimeout:           250 * time.Millisecond,
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}
}

func NewReader(brokers []string, topic, groupID string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       1,
		MaxBytes:       10e6,
		CommitInterval: time.Second,
		MaxWait:        time.Second,
	})
}

// MessageWriter is the subset of *kafka.Writer used by publishers.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

func PublishJSON(ctx context.Context, writer MessageWriter, key string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	return writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(key),
		Value: body,
		Time:  time.Now().UTC(),
	})
}

func ParseMessageJSON[T any](msg kafka.Message) (T, error) {
	var payload T
	err := json.Unmarshal(msg.Value, &payload)
	return payload, err
}

// DisruptionPublisher writes events keyed by event type and location so the
// same disruption always lands on the same partition.
type DisruptionPublisher struct {
	writer MessageWriter
}

func NewDisruptionPublisher(writer MessageWriter) *DisruptionPublisher {
	return &DisruptionPublisher{writer: writer}
}

func (p *DisruptionPublisher) Publish(ctx context.Context, e contracts.DisruptionEvent) error {
	if err := PublishJSON(ctx, p.writer, e.Key(), e); err != nil {
		return fmt.Errorf("publish disruption %s: %w", e.Key(), err)
	}
	return nil
}

// ReportPublisher writes risk reports keyed by product.
type ReportPublisher struct {
	writer MessageWriter
}

func NewReportPublisher(writer MessageWriter) *ReportPublisher {
	return &ReportPublisher{writer: writer}
}

func (p *ReportPublisher) PublishReports(ctx context.Context, reports []contracts.RiskReport) error {
	if len(reports) == 0 {
		return nil
	}
	msgs := make([]kafka.Message, 0, len(reports))
	now := time.Now().UTC()
	for _, r := range reports {
		body, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("marshal report %s: %w", r.ID, err)
		}
		msgs = append(msgs, kafka.Message{Key: []byte(r.ProductID), Value: body, Time: now})
	}
	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish %d reports: %w", len(reports), err)
	}
	return nil
}

// MessageReader is the subset of *kafka.Reader used by Consume.
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

// Consume decodes each message as T and hands it to handle until ctx is
// cancelled. Undecodable messages and handler errors are logged and skipped.
func Consume[T any](ctx context.Context, reader MessageReader, logger *zap.Logger, handle func(context.Context, T) error) {
	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				logger.Info("consumer shutting down")
				return
			}
			logger.Warn("read message failed", zap.Error(err))
			select {
			case <-ctx.Done():
				return
			case <-time.After(500 * time.Millisecond):
			}
			continue
		}

		payload, err := ParseMessageJSON[T](msg)
		if err != nil {
			logger.Warn("decode message failed",
				zap.String("topic", msg.Topic),
				zap.Int64("offset", msg.Offset),
				zap.Error(err),
			)
			continue
		}

		if err := handle(ctx, payload); err != nil {
			logger.Error("handle message failed",
				zap.String("topic", msg.Topic),
				zap.Int64("offset", msg.Offset),
				zap.Error(err),
			)
		}
	}
}
