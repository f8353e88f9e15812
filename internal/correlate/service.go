// Package correlate wires a correlation run to its surroundings: it loads the
// snapshot, consults the dedup history, persists the outcome and fans the
// reports out to downstream consumers.
package correlate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/shiroonigami23-ui/supply-disruption-engine/internal/contracts"
	"github.com/shiroonigami23-ui/supply-disruption-engine/internal/dedup"
	"github.com/shiroonigami23-ui/supply-disruption-engine/internal/metrics"
	"github.com/shiroonigami23-ui/supply-disruption-engine/internal/risk"
	"github.com/shiroonigami23-ui/supply-disruption-engine/internal/snapshot"
)

type HistoryStore interface {
	Snapshot(ctx context.Context, candidates []contracts.DedupKey) (dedup.Snapshot, error)
	Remember(ctx context.Context, keys []contracts.DedupKey) error
}

type Persister interface {
	PersistRun(ctx context.Context, reports []contracts.RiskReport, patches []contracts.ShipmentPatch) ([]contracts.RiskReport, error)
}

type ReportPublisher interface {
	PublishReports(ctx context.Context, reports []contracts.RiskReport) error
}

type Options struct {
	Inventory       snapshot.InventoryProvider
	Vendors         snapshot.VendorProvider
	History         HistoryStore
	Persister       Persister
	Publisher       ReportPublisher
	Metrics         *metrics.Metrics
	SnapshotTimeout time.Duration
}

type Service struct {
	engine *risk.Engine
	opts   Options
	logger *zap.Logger
}

func NewService(opts Options, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.SnapshotTimeout <= 0 {
		opts.SnapshotTimeout = 15 * time.Second
	}
	return &Service{
		engine: risk.NewEngine(logger.Named("engine")),
		opts:   opts,
		logger: logger,
	}
}

// maxAttempts bounds how often a run is recomputed when the inventory moves
// underneath it.
const maxAttempts = 3

// Run correlates disruptions against the current snapshot. With dryRun the
// result is computed but nothing is persisted, remembered or published.
//
// Shipment patches are pinned to the snapshot version they were computed
// from. When another writer got there first the whole run is recomputed on a
// fresh snapshot, so a concurrent delay is built upon instead of overwritten.
func (s *Service) Run(ctx context.Context, disruptions []contracts.DisruptionEvent, dryRun bool) (risk.Result, error) {
	for attempt := 1; ; attempt++ {
		result, err := s.analyze(ctx, disruptions)
		if err != nil {
			return risk.Result{}, err
		}
		if dryRun {
			return result, nil
		}

		if s.opts.Persister != nil && (len(result.Reports) > 0 || len(result.Patches) > 0) {
			stored, err := s.opts.Persister.PersistRun(ctx, result.Reports, result.Patches)
			if errors.Is(err, contracts.ErrStaleSnapshot) && attempt < maxAttempts {
				s.logger.Warn("inventory changed during run, correlating again", zap.Int("attempt", attempt), zap.Error(err))
				continue
			}
			if err != nil {
				return result, err
			}
			result.Reports = stored
		}

		s.fanOut(ctx, result)
		return result, nil
	}
}

func (s *Service) analyze(ctx context.Context, disruptions []contracts.DisruptionEvent) (risk.Result, error) {
	loadCtx, cancel := context.WithTimeout(ctx, s.opts.SnapshotTimeout)
	snap, err := snapshot.Load(loadCtx, s.opts.Inventory, s.opts.Vendors)
	cancel()
	if err != nil {
		return risk.Result{}, fmt.Errorf("load snapshot: %w", err)
	}

	var runOpts []risk.RunOption
	if s.opts.History != nil {
		history, err := s.opts.History.Snapshot(ctx, dedup.Candidates(disruptions, snap.Inventory))
		if err != nil {
			s.logger.Warn("dedup history unavailable, correlating without it", zap.Error(err))
		} else {
			runOpts = append(runOpts, risk.WithHistory(history))
		}
	}

	started := time.Now()
	result := s.engine.Analyze(disruptions, snap.Inventory, snap.Vendors, runOpts...)
	if s.opts.Metrics != nil {
		s.opts.Metrics.ObserveRun(result, time.Since(started))
	}
	return result, nil
}

// fanOut runs after the reports are stored. Its failures are logged only.
func (s *Service) fanOut(ctx context.Context, result risk.Result) {
	if s.opts.History != nil {
		if err := s.opts.History.Remember(ctx, result.Keys()); err != nil {
			s.logger.Warn("remember dedup keys failed", zap.Error(err))
		}
	}

	if s.opts.Publisher != nil {
		if err := s.opts.Publisher.PublishReports(ctx, result.Reports); err != nil {
			s.logger.Error("publish reports failed", zap.Int("reports", len(result.Reports)), zap.Error(err))
		}
	}

	s.logger.Info("correlation run complete",
		zap.Int("disruptions", result.Stats.Disruptions),
		zap.Int("shipments", result.Stats.Shipments),
		zap.Int("reports", len(result.Reports)),
		zap.Int("duplicates", result.Stats.Duplicates),
		zap.Int("escalations", result.Stats.Escalations),
	)
}
