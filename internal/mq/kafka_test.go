package mq

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/shiroonigami23-ui/supply-disruption-engine/internal/contracts"
)

type captureWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *captureWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func TestDisruptionPublisherKeysByEvent(t *testing.T) {
	w := &captureWriter{}
	e := contracts.DisruptionEvent{Location: "Chennai", EventType: "Strike", Severity: contracts.SeverityHigh}

	require.NoError(t, NewDisruptionPublisher(w).Publish(context.Background(), e))
	require.Len(t, w.msgs, 1)
	assert.Equal(t, "Strike|Chennai", string(w.msgs[0].Key))

	got, err := ParseMessageJSON[contracts.DisruptionEvent](w.msgs[0])
	require.NoError(t, err)
	assert.Equal(t, e, got)
}

func TestReportPublisher(t *testing.T) {
	w := &captureWriter{}
	p := NewReportPublisher(w)

	require.NoError(t, p.PublishReports(context.Background(), nil))
	assert.Empty(t, w.msgs)

	reports := []contracts.RiskReport{
		{ID: "r1", ProductID: "P1", RiskScore: 94},
		{ID: "r2", ProductID: "P2", RiskScore: 40},
	}
	require.NoError(t, p.PublishReports(context.Background(), reports))
	require.Len(t, w.msgs, 2)
	assert.Equal(t, "P2", string(w.msgs[1].Key))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &decoded))
	assert.EqualValues(t, 94, decoded["risk_score"])
}

func TestReportPublisherWrapsWriteError(t *testing.T) {
	boom := errors.New("broker down")
	err := NewReportPublisher(&captureWriter{err: boom}).PublishReports(context.Background(), []contracts.RiskReport{{ProductID: "P1"}})
	assert.ErrorIs(t, err, boom)
}

type scriptedReader struct {
	mu     sync.Mutex
	msgs   []kafka.Message
	cancel context.CancelFunc
}

func (r *scriptedReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.msgs) == 0 {
		r.cancel()
		return kafka.Message{}, context.Canceled
	}
	msg := r.msgs[0]
	r.msgs = r.msgs[1:]
	return msg, nil
}

func TestConsumeSkipsBadMessagesAndStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reader := &scriptedReader{
		cancel: cancel,
		msgs: []kafka.Message{
			{Value: []byte(`{"location":"Chennai","event_type":"Strike"}`)},
			{Value: []byte(`not json`)},
			{Value: []byte(`{"location":"Colombo","event_type":"Flood"}`)},
		},
	}

	var seen []string
	Consume(ctx, reader, zap.NewNop(), func(_ context.Context, e contracts.DisruptionEvent) error {
		seen = append(seen, e.Location)
		if e.Location == "Chennai" {
			return errors.New("handler failure is logged, not fatal")
		}
		return nil
	})

	assert.Equal(t, []string{"Chennai", "Colombo"}, seen)
}
