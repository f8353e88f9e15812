package risk

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/shiroonigami23-ui/supply-disruption-engine/internal/contracts"
)

// History answers whether a dedup key was already reported by an earlier run.
type History interface {
	Contains(key contracts.DedupKey) bool
}

type RunOption func(*CorrelationRun)

// WithHistory skips disruption/shipment pairs already present in h.
func WithHistory(h History) RunOption {
	return func(r *CorrelationRun) {
		r.history = h
	}
}

type Stats struct {
	Shipments        int `json:"shipments"`
	Disruptions      int `json:"disruptions"`
	Matches          int `json:"matches"`
	Duplicates       int `json:"duplicates"`
	VendorFailures   int `json:"vendor_failures"`
	Escalations      int `json:"escalations"`
	LegParseFailures int `json:"leg_parse_failures"`
	FailedShipments  int `json:"failed_shipments"`
}

type Result struct {
	Reports []contracts.RiskReport    `json:"risk_report"`
	Patches []contracts.ShipmentPatch `json:"patches"`
	Stats   Stats                     `json:"stats"`
}

// Keys returns the dedup keys of the disruption-driven reports in r.
func (r Result) Keys() []contracts.DedupKey {
	keys := make([]contracts.DedupKey, 0, len(r.Reports))
	for _, rep := range r.Reports {
		if rep.EventType == "" && rep.EventLocation == "" {
			continue
		}
		keys = append(keys, rep.Key())
	}
	return keys
}

// Engine runs correlation over immutable snapshots. It holds no per-run state
// and is safe for concurrent use.
type Engine struct {
	logger *zap.Logger
}

func NewEngine(logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{logger: logger}
}

// Analyze correlates disruptions against the inventory and returns one report
// per affected (disruption, shipment) pair plus one per shipment whose vendor
// has failed. An empty disruption batch or inventory yields an empty result.
func (e *Engine) Analyze(disruptions []contracts.DisruptionEvent, inventory []contracts.ShipmentRecord, vendors []contracts.VendorRecord, opts ...RunOption) Result {
	run := NewCorrelationRun(e.logger, vendors, opts...)
	return run.Execute(disruptions, inventory)
}

// CorrelationRun is the state of a single invocation: the dedup set and the
// working copy of each shipment's legs.
type CorrelationRun struct {
	logger  *zap.Logger
	vendors VendorDirectory
	history History
	seen    map[contracts.DedupKey]struct{}
	result  Result
}

func NewCorrelationRun(logger *zap.Logger, vendors []contracts.VendorRecord, opts ...RunOption) *CorrelationRun {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &CorrelationRun{
		logger:  logger,
		vendors: NewVendorDirectory(vendors),
		seen:    make(map[contracts.DedupKey]struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *CorrelationRun) Execute(disruptions []contracts.DisruptionEvent, inventory []contracts.ShipmentRecord) Result {
	r.result = Result{
		Reports: []contracts.RiskReport{},
		Patches: []contracts.ShipmentPatch{},
	}
	if len(disruptions) == 0 || len(inventory) == 0 {
		return r.result
	}
	r.result.Stats.Disruptions = len(disruptions)

	for _, ev := range disruptions {
		if strings.TrimSpace(ev.Location) == "" {
			r.logger.Warn("disruption has empty location and will match every shipment",
				zap.String("event_type", ev.EventType),
				zap.String("source", ev.Source),
			)
		}
	}

	for _, shipment := range inventory {
		reports, patch, err := r.processShipment(shipment, disruptions)
		if err != nil {
			r.result.Stats.FailedShipments++
			r.logger.Error("shipment correlation failed",
				zap.String("product_id", shipment.ProductID),
				zap.Error(err),
			)
			continue
		}
		r.result.Reports = append(r.result.Reports, reports...)
		if patch != nil {
			r.result.Patches = append(r.result.Patches, *patch)
		}
	}

	r.logger.Debug("correlation run complete",
		zap.Int("shipments", r.result.Stats.Shipments),
		zap.Int("disruptions", r.result.Stats.Disruptions),
		zap.Int("reports", len(r.result.Reports)),
		zap.Int("duplicates", r.result.Stats.Duplicates),
	)
	return r.result
}

func (r *CorrelationRun) processShipment(shipment contracts.ShipmentRecord, disruptions []contracts.DisruptionEvent) (reports []contracts.RiskReport, patch *contracts.ShipmentPatch, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			reports, patch = nil, nil
			err = fmt.Errorf("recovered: %v", rec)
		}
	}()

	stats := &r.result.Stats
	stats.Shipments++
	logger := r.logger.With(zap.String("product_id", shipment.ProductID))

	vendor, ok := r.vendors.Resolve(shipment.VendorID)
	if !ok && shipment.VendorID != "" {
		logger.Debug("vendor not found, continuing without vendor context", zap.String("vendor_id", shipment.VendorID))
	}
	if ok && IsFailed(vendor) {
		stats.VendorFailures++
		stats.Escalations++
		logger.Info("vendor failure", zap.String("vendor_id", vendor.VendorID), zap.String("vendor_status", vendor.Status))
		return []contracts.RiskReport{vendorFailureReport(shipment, vendor)}, nil, nil
	}

	legs := append([]contracts.Leg(nil), shipment.Legs...)
	delayed := false

	for _, ev := range disruptions {
		key := ev.DedupKey(shipment.ProductID)
		if _, dup := r.seen[key]; dup || (r.history != nil && r.history.Contains(key)) {
			stats.Duplicates++
			continue
		}
		r.seen[key] = struct{}{}

		reason := MatchShipment(ev, shipment, vendor)
		if reason == MatchNone {
			continue
		}
		stats.Matches++

		delay := DelayFor(ev.Severity)
		if idx := AffectedLeg(legs, ev.Location); idx >= 0 && delay.Days > 0 {
			var failures int
			legs, failures = PropagateDelay(legs, idx, delay.Days, logger)
			stats.LegParseFailures += failures
			delayed = true
		}

		report := contracts.RiskReport{
			ProductID:      shipment.ProductID,
			Vendor:         shipment.VendorID,
			DelayEstimate:  delay.Estimate(),
			ImpactLevel:    ev.Severity,
			RiskScore:      Score(ev.Severity, shipment.CriticalityScore),
			CostImpact:     delay.Cost,
			EventType:      ev.EventType,
			EventLocation:  ev.Location,
			EventTimestamp: ev.Timestamp,
		}
		if ok {
			report.Vendor = vendor.VendorID
		}
		copyShipment(&report, shipment, legs)
		if esc := RequiresEscalation(shipment, ev); esc != "" {
			report.Escalation = esc
			stats.Escalations++
		}

		logger.Debug("shipment affected",
			zap.String("event_type", ev.EventType),
			zap.String("location", ev.Location),
			zap.String("match", string(reason)),
			zap.Int("risk_score", report.RiskScore),
		)
		reports = append(reports, report)
	}

	if delayed {
		patch = &contracts.ShipmentPatch{
			ProductID: shipment.ProductID,
			Status:    LegStatusDelayed,
			Legs:      legs,
			Version:   shipment.Version,
		}
	}
	return reports, patch, nil
}
