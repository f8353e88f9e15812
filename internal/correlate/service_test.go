package correlate

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/shiroonigami23-ui/supply-disruption-engine/internal/contracts"
	"github.com/shiroonigami23-ui/supply-disruption-engine/internal/dedup"
	"github.com/shiroonigami23-ui/supply-disruption-engine/internal/metrics"
)

type staticSource struct {
	inventory []contracts.ShipmentRecord
	vendors   []contracts.VendorRecord
	err       error
}

func (s staticSource) ListShipments(context.Context) ([]contracts.ShipmentRecord, error) {
	return s.inventory, s.err
}

func (s staticSource) ListVendors(context.Context) ([]contracts.VendorRecord, error) {
	return s.vendors, nil
}

type memoryHistory struct {
	keys        dedup.Snapshot
	snapshotErr error
}

func (h *memoryHistory) Snapshot(_ context.Context, candidates []contracts.DedupKey) (dedup.Snapshot, error) {
	if h.snapshotErr != nil {
		return nil, h.snapshotErr
	}
	out := make(dedup.Snapshot)
	for _, k := range candidates {
		if h.keys.Contains(k) {
			out[k] = struct{}{}
		}
	}
	return out, nil
}

func (h *memoryHistory) Remember(_ context.Context, keys []contracts.DedupKey) error {
	for _, k := range keys {
		h.keys[k] = struct{}{}
	}
	return nil
}

type recordingPersister struct {
	patches []contracts.ShipmentPatch
	err     error
}

func (p *recordingPersister) PersistRun(_ context.Context, reports []contracts.RiskReport, patches []contracts.ShipmentPatch) ([]contracts.RiskReport, error) {
	if p.err != nil {
		return nil, p.err
	}
	p.patches = append(p.patches, patches...)
	stored := make([]contracts.RiskReport, len(reports))
	for i, r := range reports {
		r.ID = fmt.Sprintf("report-%d", i+1)
		stored[i] = r
	}
	return stored, nil
}

type recordingPublisher struct {
	reports []contracts.RiskReport
}

func (p *recordingPublisher) PublishReports(_ context.Context, reports []contracts.RiskReport) error {
	p.reports = append(p.reports, reports...)
	return nil
}

func fixture() staticSource {
	return staticSource{
		inventory: []contracts.ShipmentRecord{{
			ProductID:        "P1001",
			VendorID:         "V1",
			CriticalityScore: 70,
			Route:            []string{"Bangalore", "Chennai", "Singapore"},
			Destination:      "Singapore",
			Legs: []contracts.Leg{
				{Origin: "Bangalore", Destination: "Chennai", ETA: "2024-03-01"},
				{Origin: "Chennai", Destination: "Singapore", ETA: "2024-03-05"},
			},
		}},
		vendors: []contracts.VendorRecord{{VendorID: "V1", Status: "active", Location: "Hyderabad"}},
	}
}

func strike() []contracts.DisruptionEvent {
	return []contracts.DisruptionEvent{{Location: "Bangalore", EventType: "Strike", Severity: contracts.SeverityHigh}}
}

func TestRunPersistsRemembersAndPublishes(t *testing.T) {
	src := fixture()
	history := &memoryHistory{keys: dedup.Snapshot{}}
	persister := &recordingPersister{}
	publisher := &recordingPublisher{}
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	svc := NewService(Options{
		Inventory: src,
		Vendors:   src,
		History:   history,
		Persister: persister,
		Publisher: publisher,
		Metrics:   m,
	}, zap.NewNop())

	result, err := svc.Run(context.Background(), strike(), false)
	require.NoError(t, err)
	require.Len(t, result.Reports, 1)
	assert.Equal(t, "report-1", result.Reports[0].ID)
	assert.Equal(t, 94, result.Reports[0].RiskScore)
	require.Len(t, persister.patches, 1)
	assert.Equal(t, "2024-03-04", persister.patches[0].Legs[0].ETA)
	require.Len(t, publisher.reports, 1)
	assert.Equal(t, "report-1", publisher.reports[0].ID)
	assert.True(t, history.keys.Contains(contracts.DedupKey{EventType: "Strike", Location: "Bangalore", ProductID: "P1001"}))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RunsTotal))

	second, err := svc.Run(context.Background(), strike(), false)
	require.NoError(t, err)
	assert.Empty(t, second.Reports)
	assert.Equal(t, 1, second.Stats.Duplicates)
	assert.Len(t, publisher.reports, 1)
}

func TestRunDryRunHasNoSideEffects(t *testing.T) {
	src := fixture()
	history := &memoryHistory{keys: dedup.Snapshot{}}
	persister := &recordingPersister{}
	publisher := &recordingPublisher{}

	svc := NewService(Options{Inventory: src, Vendors: src, History: history, Persister: persister, Publisher: publisher}, nil)

	result, err := svc.Run(context.Background(), strike(), true)
	require.NoError(t, err)
	require.Len(t, result.Reports, 1)
	assert.Empty(t, result.Reports[0].ID)
	assert.Empty(t, persister.patches)
	assert.Empty(t, publisher.reports)
	assert.Empty(t, history.keys)
}

func TestRunContinuesWithoutHistory(t *testing.T) {
	src := fixture()
	svc := NewService(Options{
		Inventory: src,
		Vendors:   src,
		History:   &memoryHistory{keys: dedup.Snapshot{}, snapshotErr: errors.New("redis down")},
	}, zap.NewNop())

	result, err := svc.Run(context.Background(), strike(), true)
	require.NoError(t, err)
	assert.Len(t, result.Reports, 1)
}

func TestRunErrors(t *testing.T) {
	boom := errors.New("db down")

	src := fixture()
	src.err = boom
	_, err := NewService(Options{Inventory: src, Vendors: src}, nil).Run(context.Background(), strike(), false)
	assert.ErrorIs(t, err, boom)

	ok := fixture()
	_, err = NewService(Options{Inventory: ok, Vendors: ok, Persister: &recordingPersister{err: boom}}, nil).Run(context.Background(), strike(), false)
	assert.ErrorIs(t, err, boom)
}

// movingSource bumps the shipment version on every load, as if another writer
// committed between snapshots.
type movingSource struct {
	staticSource
	loads int
}

func (s *movingSource) ListShipments(context.Context) ([]contracts.ShipmentRecord, error) {
	s.loads++
	inventory := make([]contracts.ShipmentRecord, len(s.inventory))
	for i, rec := range s.inventory {
		rec.Version = int64(s.loads)
		inventory[i] = rec
	}
	return inventory, nil
}

// versionedPersister accepts a patch only at the version it currently holds.
type versionedPersister struct {
	recordingPersister
	current int64
	calls   int
}

func (p *versionedPersister) PersistRun(ctx context.Context, reports []contracts.RiskReport, patches []contracts.ShipmentPatch) ([]contracts.RiskReport, error) {
	p.calls++
	for _, patch := range patches {
		if patch.Version != p.current {
			return nil, fmt.Errorf("apply patch to %s: %w", patch.ProductID, contracts.ErrStaleSnapshot)
		}
	}
	return p.recordingPersister.PersistRun(ctx, reports, patches)
}

func TestRunRecomputesOnStaleSnapshot(t *testing.T) {
	src := &movingSource{staticSource: fixture()}
	persister := &versionedPersister{current: 2}
	publisher := &recordingPublisher{}

	svc := NewService(Options{Inventory: src, Vendors: src, Persister: persister, Publisher: publisher}, zap.NewNop())

	result, err := svc.Run(context.Background(), strike(), false)
	require.NoError(t, err)
	assert.Equal(t, 2, persister.calls)
	assert.Equal(t, 2, src.loads)
	require.Len(t, persister.patches, 1)
	assert.Equal(t, int64(2), persister.patches[0].Version)
	require.Len(t, result.Reports, 1)
	assert.Equal(t, "report-1", result.Reports[0].ID)
	assert.Len(t, publisher.reports, 1, "only the stored attempt is published")
}

func TestRunGivesUpWhenInventoryKeepsMoving(t *testing.T) {
	src := &movingSource{staticSource: fixture()}
	persister := &versionedPersister{current: -1}
	publisher := &recordingPublisher{}

	svc := NewService(Options{Inventory: src, Vendors: src, Persister: persister, Publisher: publisher}, nil)

	_, err := svc.Run(context.Background(), strike(), false)
	require.ErrorIs(t, err, contracts.ErrStaleSnapshot)
	assert.Equal(t, maxAttempts, persister.calls)
	assert.Empty(t, persister.patches)
	assert.Empty(t, publisher.reports)
}
