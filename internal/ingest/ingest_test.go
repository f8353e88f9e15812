package ingest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/shiroonigami23-ui/supply-disruption-engine/internal/contracts"
)

var fixedNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func TestEnrichFillsDefaults(t *testing.T) {
	e := contracts.DisruptionEvent{
		Location:  "  Chennai ",
		EventType: " Strike",
		Severity:  "high",
		Mode:      "SEA",
	}
	Enrich(&e, fixedNow)

	assert.Equal(t, "Chennai", e.Location)
	assert.Equal(t, "Strike", e.EventType)
	assert.Equal(t, contracts.SeverityHigh, e.Severity)
	assert.Equal(t, contracts.ModeSea, e.Mode)
	assert.Equal(t, "2025-03-01T12:00:00Z", e.Timestamp)
	assert.Equal(t, defaultSource, e.Source)
	assert.Equal(t, contracts.DataSourceReal, e.DataSource)
}

func TestEnrichKeepsProducerValues(t *testing.T) {
	e := contracts.DisruptionEvent{
		Location:   "Chennai",
		EventType:  "Strike",
		Severity:   "Low",
		Timestamp:  "2025-02-01T00:00:00Z",
		Source:     "newsapi",
		DataSource: contracts.DataSourceSimulated,
	}
	Enrich(&e, fixedNow)

	assert.Equal(t, "2025-02-01T00:00:00Z", e.Timestamp)
	assert.Equal(t, "newsapi", e.Source)
	assert.Equal(t, contracts.DataSourceSimulated, e.DataSource)
}

func TestPrepare(t *testing.T) {
	tests := []struct {
		name    string
		event   contracts.DisruptionEvent
		wantErr string
	}{
		{
			name:  "valid",
			event: contracts.DisruptionEvent{Location: "Chennai", EventType: "Strike", Severity: "medium"},
		},
		{
			name:    "missing location",
			event:   contracts.DisruptionEvent{Location: "   ", EventType: "Strike", Severity: "High"},
			wantErr: "location is required",
		},
		{
			name:    "missing event type",
			event:   contracts.DisruptionEvent{Location: "Chennai", Severity: "High"},
			wantErr: "event_type is required",
		},
		{
			name:    "unknown severity",
			event:   contracts.DisruptionEvent{Location: "Chennai", EventType: "Strike", Severity: "Severe"},
			wantErr: "severity must be one of [High Medium Low]",
		},
		{
			name:    "unknown mode",
			event:   contracts.DisruptionEvent{Location: "Chennai", EventType: "Strike", Severity: "Low", Mode: "rail"},
			wantErr: "mode must be one of",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := tt.event
			err := Prepare(&e, fixedNow)
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidEvent)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSimulatorUsesInventoryLocations(t *testing.T) {
	sim := NewSimulator([]string{"Chennai", "Colombo"}, 7)

	for _, e := range sim.Batch(50) {
		assert.Contains(t, []string{"Chennai", "Colombo"}, e.Location)
		assert.Contains(t, simulatedEventTypes, e.EventType)
		assert.Equal(t, contracts.DataSourceSimulated, e.DataSource)
		assert.Equal(t, "simulator", e.Source)
		assert.NoError(t, Validate(e))
	}
}

func TestSimulatorIsDeterministicPerSeed(t *testing.T) {
	a := NewSimulator(nil, 42)
	b := NewSimulator(nil, 42)
	a.now = func() time.Time { return fixedNow }
	b.now = func() time.Time { return fixedNow }

	assert.Equal(t, a.Batch(10), b.Batch(10))
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []contracts.DisruptionEvent
}

func (p *recordingPublisher) Publish(_ context.Context, e contracts.DisruptionEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

func TestSimulatorRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	pub := &recordingPublisher{}
	done := make(chan struct{})

	go func() {
		NewSimulator(nil, 1).Run(ctx, pub, time.Millisecond, zap.NewNop())
		close(done)
	}()

	require.Eventually(t, func() bool { return pub.count() >= 3 }, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("simulator did not stop")
	}
}
