package risk

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/shiroonigami23-ui/supply-disruption-engine/internal/contracts"
)

const (
	maxScore         = 100
	defaultBaseScore = 30

	// genericDelayEstimate is reported when the severity carries no fixed delay.
	genericDelayEstimate = "2-5 days"
)

var baseScores = map[contracts.Severity]int{
	contracts.SeverityHigh:   80,
	contracts.SeverityMedium: 50,
	contracts.SeverityLow:    20,
}

// Score combines disruption severity and shipment criticality into a value in
// [0, 100]: min(100, floor(base + 0.2*criticality)).
func Score(severity contracts.Severity, criticality int) int {
	base, ok := baseScores[contracts.ParseSeverity(string(severity))]
	if !ok {
		base = defaultBaseScore
	}
	c := clamp(criticality, 0, maxScore)
	// c is non-negative so integer division floors 0.2*c exactly.
	return clamp(base+c/5, 0, maxScore)
}

// Delay is the fixed severity-derived delay and cost model.
type Delay struct {
	Days int
	Cost decimal.Decimal
}

func DelayFor(severity contracts.Severity) Delay {
	switch contracts.ParseSeverity(string(severity)) {
	case contracts.SeverityHigh:
		return Delay{Days: 3, Cost: decimal.NewFromInt(2000)}
	case contracts.SeverityMedium:
		return Delay{Days: 1, Cost: decimal.NewFromInt(500)}
	default:
		return Delay{Days: 0, Cost: decimal.Zero}
	}
}

func (d Delay) Estimate() string {
	switch {
	case d.Days <= 0:
		return genericDelayEstimate
	case d.Days == 1:
		return "1 day"
	default:
		return fmt.Sprintf("%d days", d.Days)
	}
}

// Recommendation maps a score to the operator guidance attached to alerts.
func Recommendation(score int) string {
	switch {
	case score >= 90:
		return "Immediate intervention: reroute or expedite affected legs and notify the consignee."
	case score >= 70:
		return "High risk: confirm alternate carriers and notify downstream distribution within 2 hours."
	case score >= 50:
		return "Moderate risk: monitor hourly and prepare route alternatives."
	default:
		return "Low risk: continue monitoring with standard cadence."
	}
}

func clamp(value, min, max int) int {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
