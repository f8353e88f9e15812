package ingest

import (
	"context"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"

	"github.com/shiroonigami23-ui/supply-disruption-engine/internal/contracts"
)

var simulatedEventTypes = []string{
	"Strike",
	"Flood",
	"Protest",
	"Port Congestion",
	"Political Unrest",
	"Weather",
}

var simulatedSeverities = []contracts.Severity{
	contracts.SeverityHigh,
	contracts.SeverityMedium,
	contracts.SeverityLow,
}

var fallbackLocations = []string{"Chennai", "Mumbai", "Singapore", "Rotterdam", "Shanghai", "Dubai"}

// Publisher is satisfied by the Kafka-backed publisher in cmd/ingest.
type Publisher interface {
	Publish(ctx context.Context, e contracts.DisruptionEvent) error
}

// Simulator generates synthetic disruptions at places the current inventory
// actually passes through so generated events have a chance of matching.
type Simulator struct {
	locations []string
	rnd       *rand.Rand
	now       func() time.Time
}

func NewSimulator(locations []string, seed uint64) *Simulator {
	if len(locations) == 0 {
		locations = fallbackLocations
	}
	return &Simulator{
		locations: locations,
		rnd:       rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		now:       time.Now,
	}
}

func (s *Simulator) Next() contracts.DisruptionEvent {
	e := contracts.DisruptionEvent{
		Location:   s.locations[s.rnd.IntN(len(s.locations))],
		EventType:  simulatedEventTypes[s.rnd.IntN(len(simulatedEventTypes))],
		Severity:   simulatedSeverities[s.rnd.IntN(len(simulatedSeverities))],
		Source:     "simulator",
		DataSource: contracts.DataSourceSimulated,
	}
	Enrich(&e, s.now())
	return e
}

func (s *Simulator) Batch(n int) []contracts.DisruptionEvent {
	out := make([]contracts.DisruptionEvent, 0, n)
	for range n {
		out = append(out, s.Next())
	}
	return out
}

// Run publishes one event per tick until ctx is cancelled.
func (s *Simulator) Run(ctx context.Context, pub Publisher, tick time.Duration, logger *zap.Logger) {
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e := s.Next()
			if err := pub.Publish(ctx, e); err != nil {
				logger.Warn("simulator publish failed", zap.String("location", e.Location), zap.Error(err))
			}
		}
	}
}
