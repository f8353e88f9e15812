package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/shiroonigami23-ui/supply-disruption-engine/internal/contracts"
	"github.com/shiroonigami23-ui/supply-disruption-engine/internal/risk"
)

func TestObserveRun(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveRun(risk.Result{
		Reports: []contracts.RiskReport{
			{ProductID: "P1", ImpactLevel: contracts.SeverityHigh, RiskScore: 94},
			{ProductID: "P2", ImpactLevel: contracts.SeverityCritical, RiskScore: 100},
			{ProductID: "P3", ImpactLevel: contracts.SeverityHigh, RiskScore: 80},
		},
		Stats: risk.Stats{Duplicates: 2, Escalations: 1, LegParseFailures: 3},
	}, 5*time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.RunsTotal))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.ReportsTotal.WithLabelValues("High")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ReportsTotal.WithLabelValues("Critical")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.DuplicatesTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EscalationsTotal))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.LegParseFailures))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.FailedShipments))
}
