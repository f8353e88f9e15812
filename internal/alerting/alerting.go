// Package alerting turns risk reports into operator alerts and hands
// escalations to the human-ops queue.
package alerting

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/shiroonigami23-ui/supply-disruption-engine/internal/contracts"
	"github.com/shiroonigami23-ui/supply-disruption-engine/internal/metrics"
	"github.com/shiroonigami23-ui/supply-disruption-engine/internal/risk"
)

type Store interface {
	HasOpenAlertInCooldown(ctx context.Context, productID, location string, cooldown time.Duration) (bool, error)
	InsertAlert(ctx context.Context, alert contracts.AlertRecord) (contracts.AlertRecord, error)
}

type Notifier interface {
	Notify(ctx context.Context, notice contracts.EscalationNotice) error
}

const (
	notifyAttempts = 4
	notifyBackoff  = 500 * time.Millisecond
)

type Service struct {
	store     Store
	notifier  Notifier
	threshold int
	cooldown  time.Duration
	metrics   *metrics.Metrics
	logger    *zap.Logger
	backoff   time.Duration
	now       func() time.Time
}

func NewService(store Store, notifier Notifier, threshold int, cooldown time.Duration, m *metrics.Metrics, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:     store,
		notifier:  notifier,
		threshold: threshold,
		cooldown:  cooldown,
		metrics:   m,
		logger:    logger,
		backoff:   notifyBackoff,
		now:       time.Now,
	}
}

// ShouldAlert is true for escalated reports and for reports at or above the
// score threshold.
func (s *Service) ShouldAlert(report contracts.RiskReport) bool {
	return report.Escalated() || report.RiskScore >= s.threshold
}

// Handle creates at most one alert for report. It returns the zero alert and
// false when the report is below threshold or an alert for the same product
// and location is still open within the cooldown.
func (s *Service) Handle(ctx context.Context, report contracts.RiskReport) (contracts.AlertRecord, bool, error) {
	if !s.ShouldAlert(report) {
		return contracts.AlertRecord{}, false, nil
	}

	location := alertLocation(report)
	exists, err := s.store.HasOpenAlertInCooldown(ctx, report.ProductID, location, s.cooldown)
	if err != nil {
		return contracts.AlertRecord{}, false, err
	}
	if exists {
		s.logger.Debug("alert suppressed by cooldown", zap.String("product_id", report.ProductID), zap.String("location", location))
		return contracts.AlertRecord{}, false, nil
	}

	// The escalation goes out before the alert row exists: a stored alert
	// suppresses later copies of the report, so it must only be written once
	// ops has been told.
	alert := BuildAlert(report)
	alert.ID = uuid.NewString()
	if alert.Escalation != "" && s.notifier != nil {
		notice := contracts.EscalationNotice{
			AlertID:    alert.ID,
			ProductID:  alert.ProductID,
			Location:   alert.Location,
			Status:     report.Status,
			Reason:     alert.Escalation,
			RiskScore:  alert.RiskScore,
			ReportedAt: s.now().UTC(),
		}
		if err := s.notify(ctx, notice); err != nil {
			return contracts.AlertRecord{}, false, fmt.Errorf("notify escalation for %s: %w", alert.ProductID, err)
		}
	}

	alert, err = s.store.InsertAlert(ctx, alert)
	if err != nil {
		return contracts.AlertRecord{}, false, err
	}
	if s.metrics != nil {
		s.metrics.AlertsCreated.WithLabelValues(alert.Severity).Inc()
	}
	s.logger.Info("alert created",
		zap.String("alert_id", alert.ID),
		zap.String("product_id", alert.ProductID),
		zap.String("location", alert.Location),
		zap.Int("risk_score", alert.RiskScore),
	)
	return alert, true, nil
}

// notify retries with exponential backoff. The notice keeps its alert ID
// across attempts so consumers can drop repeats.
func (s *Service) notify(ctx context.Context, notice contracts.EscalationNotice) error {
	backoff := s.backoff
	for attempt := 1; ; attempt++ {
		err := s.notifier.Notify(ctx, notice)
		if err == nil {
			return nil
		}
		if attempt >= notifyAttempts {
			return fmt.Errorf("after %d attempts: %w", attempt, err)
		}
		s.logger.Warn("escalation notify failed, retrying",
			zap.String("alert_id", notice.AlertID),
			zap.Int("attempt", attempt),
			zap.Duration("backoff", backoff),
			zap.Error(err),
		)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
}

func BuildAlert(report contracts.RiskReport) contracts.AlertRecord {
	location := alertLocation(report)
	title := fmt.Sprintf("%s disruption risk for %s", report.ImpactLevel, report.ProductID)
	if report.EventType == "" {
		title = fmt.Sprintf("Vendor failure for %s", report.ProductID)
	}

	description := fmt.Sprintf("%s scored %d, delay %s, cost impact %s. %s",
		report.ProductID, report.RiskScore, report.DelayEstimate, report.CostImpact.StringFixed(2), risk.Recommendation(report.RiskScore))
	if report.EventType != "" {
		description = fmt.Sprintf("%s at %s: %s", report.EventType, location, description)
	}

	return contracts.AlertRecord{
		RiskReportID: report.ID,
		ProductID:    report.ProductID,
		Location:     location,
		Title:        title,
		Description:  description,
		RiskScore:    report.RiskScore,
		Severity:     SeverityFromScore(report.RiskScore),
		Escalation:   report.Escalation,
		Status:       contracts.AlertStatusOpen,
	}
}

func SeverityFromScore(score int) string {
	switch {
	case score >= 90:
		return "critical"
	case score >= 75:
		return "high"
	case score >= 60:
		return "medium"
	default:
		return "low"
	}
}

// alertLocation falls back to the shipment position for vendor-failure
// reports, which carry no event location.
func alertLocation(report contracts.RiskReport) string {
	if report.EventLocation != "" {
		return report.EventLocation
	}
	if report.CurrentLocation != "" {
		return report.CurrentLocation
	}
	return report.Vendor
}
