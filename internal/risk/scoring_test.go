package risk

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/shiroonigami23-ui/supply-disruption-engine/internal/contracts"
)

func TestScore(t *testing.T) {
	tests := []struct {
		name        string
		severity    contracts.Severity
		criticality int
		want        int
	}{
		{"high max criticality caps at 100", contracts.SeverityHigh, 100, 100},
		{"low zero criticality", contracts.SeverityLow, 0, 20},
		{"high seventy", contracts.SeverityHigh, 70, 94},
		{"medium fifty", contracts.SeverityMedium, 50, 60},
		{"floors fractional part", contracts.SeverityLow, 37, 27},
		{"unknown severity uses default base", contracts.Severity("Extreme"), 10, 32},
		{"lower-case severity is normalised", contracts.Severity("high"), 0, 80},
		{"negative criticality clamps to zero", contracts.SeverityMedium, -40, 50},
		{"criticality above range clamps", contracts.SeverityMedium, 400, 70},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Score(tc.severity, tc.criticality))
		})
	}
}

func TestScoreAlwaysInRange(t *testing.T) {
	severities := []contracts.Severity{contracts.SeverityHigh, contracts.SeverityMedium, contracts.SeverityLow, "", "weird"}
	for _, s := range severities {
		for c := -10; c <= 110; c++ {
			got := Score(s, c)
			assert.GreaterOrEqual(t, got, 0)
			assert.LessOrEqual(t, got, 100)
		}
	}
}

func TestDelayFor(t *testing.T) {
	high := DelayFor(contracts.SeverityHigh)
	assert.Equal(t, 3, high.Days)
	assert.True(t, high.Cost.Equal(decimal.NewFromInt(2000)))
	assert.Equal(t, "3 days", high.Estimate())

	medium := DelayFor(contracts.SeverityMedium)
	assert.Equal(t, 1, medium.Days)
	assert.True(t, medium.Cost.Equal(decimal.NewFromInt(500)))
	assert.Equal(t, "1 day", medium.Estimate())

	low := DelayFor(contracts.SeverityLow)
	assert.Equal(t, 0, low.Days)
	assert.True(t, low.Cost.IsZero())
	assert.Equal(t, "2-5 days", low.Estimate())
}

func TestRecommendationTiers(t *testing.T) {
	assert.Contains(t, Recommendation(100), "Immediate")
	assert.Contains(t, Recommendation(75), "High risk")
	assert.Contains(t, Recommendation(55), "Moderate")
	assert.Contains(t, Recommendation(10), "Low risk")
}
