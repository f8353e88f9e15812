// Package metrics defines the Prometheus collectors for correlation runs and
// the services around them.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shiroonigami23-ui/supply-disruption-engine/internal/risk"
)

type Metrics struct {
	RunsTotal           prometheus.Counter
	RunDuration         prometheus.Histogram
	ReportsTotal        *prometheus.CounterVec
	DuplicatesTotal     prometheus.Counter
	EscalationsTotal    prometheus.Counter
	LegParseFailures    prometheus.Counter
	FailedShipments     prometheus.Counter
	RiskScore           prometheus.Histogram
	DisruptionsIngested *prometheus.CounterVec
	AlertsCreated       *prometheus.CounterVec
}

// New registers all collectors on reg. Pass prometheus.DefaultRegisterer in
// services and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		RunsTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "correlation_runs_total",
			Help: "Total correlation runs executed.",
		}),
		RunDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "correlation_run_duration_seconds",
			Help:    "Correlation run latency in seconds.",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}),
		ReportsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "risk_reports_total",
			Help: "Risk reports emitted by impact level.",
		}, []string{"impact_level"}),
		DuplicatesTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "correlation_duplicates_total",
			Help: "Disruption/shipment pairs skipped by deduplication.",
		}),
		EscalationsTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "correlation_escalations_total",
			Help: "Reports flagged for human escalation.",
		}),
		LegParseFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "leg_eta_parse_failures_total",
			Help: "Leg ETAs that could not be parsed during delay propagation.",
		}),
		FailedShipments: f.NewCounter(prometheus.CounterOpts{
			Name: "correlation_failed_shipments_total",
			Help: "Shipments whose correlation was aborted by an unexpected failure.",
		}),
		RiskScore: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "risk_score",
			Help:    "Distribution of emitted risk scores.",
			Buckets: []float64{20, 30, 40, 50, 60, 70, 80, 90, 100},
		}),
		DisruptionsIngested: f.NewCounterVec(prometheus.CounterOpts{
			Name: "disruptions_ingested_total",
			Help: "Disruption events accepted by ingest, by data source.",
		}, []string{"data_source"}),
		AlertsCreated: f.NewCounterVec(prometheus.CounterOpts{
			Name: "alerts_created_total",
			Help: "Alerts created by severity.",
		}, []string{"severity"}),
	}
}

// ObserveRun records the outcome of one correlation run.
func (m *Metrics) ObserveRun(result risk.Result, elapsed time.Duration) {
	m.RunsTotal.Inc()
	m.RunDuration.Observe(elapsed.Seconds())
	for _, r := range result.Reports {
		m.ReportsTotal.WithLabelValues(string(r.ImpactLevel)).Inc()
		m.RiskScore.Observe(float64(r.RiskScore))
	}
	m.DuplicatesTotal.Add(float64(result.Stats.Duplicates))
	m.EscalationsTotal.Add(float64(result.Stats.Escalations))
	m.LegParseFailures.Add(float64(result.Stats.LegParseFailures))
	m.FailedShipments.Add(float64(result.Stats.FailedShipments))
}

func Handler() http.Handler {
	return promhttp.Handler()
}
