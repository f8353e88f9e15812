package risk

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/shiroonigami23-ui/supply-disruption-engine/internal/contracts"
)

const (
	etaLayout        = "2006-01-02"
	LegStatusDelayed = "delayed"
)

// AffectedLeg returns the index of the first leg whose origin, destination or
// current location equals location, or -1.
func AffectedLeg(legs []contracts.Leg, location string) int {
	for i, leg := range legs {
		if sameLocation(location, leg.Origin) || sameLocation(location, leg.Destination) || sameLocation(location, leg.CurrentLocation) {
			return i
		}
	}
	return -1
}

// PropagateDelay pushes the ETA of the affected leg and of every leg after it
// by days. The affected leg is marked delayed. Legs whose ETA cannot be parsed
// are left as they are and counted in the returned failure total. The input
// slice is never modified.
func PropagateDelay(legs []contracts.Leg, affected, days int, logger *zap.Logger) ([]contracts.Leg, int) {
	out := append([]contracts.Leg(nil), legs...)
	if days <= 0 || affected < 0 || affected >= len(out) {
		return out, 0
	}

	failures := 0
	for i := affected; i < len(out); i++ {
		eta, err := shiftETA(out[i].ETA, days)
		if err != nil {
			failures++
			logger.Warn("skipping leg eta update",
				zap.Int("leg_index", i),
				zap.String("eta", out[i].ETA),
				zap.Error(err),
			)
			continue
		}
		out[i].ETA = eta
		if i == affected {
			out[i].Status = LegStatusDelayed
		}
	}
	return out, failures
}

func shiftETA(eta string, days int) (string, error) {
	t, err := time.Parse(etaLayout, eta)
	if err != nil {
		return "", fmt.Errorf("parse eta %q: %w", eta, err)
	}
	return t.AddDate(0, 0, days).Format(etaLayout), nil
}
