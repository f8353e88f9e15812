package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/shiroonigami23-ui/supply-disruption-engine/internal/contracts"
)

var ErrNotFound = errors.New("not found")

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) ListShipments(ctx context.Context) ([]contracts.ShipmentRecord, error) {
	rows, err := r.pool.Query(ctx, `
        SELECT product_id, vendor_id, criticality_score, route, legs, current_location,
               shipping_origin, destination, status, container_id, ship_name, flight_number, version
        FROM shipments
        ORDER BY product_id
    `)
	if err != nil {
		return nil, fmt.Errorf("query shipments: %w", err)
	}
	defer rows.Close()

	shipments := make([]contracts.ShipmentRecord, 0, 64)
	for rows.Next() {
		var s contracts.ShipmentRecord
		var routeRaw, legsRaw []byte
		if err := rows.Scan(
			&s.ProductID,
			&s.VendorID,
			&s.CriticalityScore,
			&routeRaw,
			&legsRaw,
			&s.CurrentLocation,
			&s.ShippingOrigin,
			&s.Destination,
			&s.Status,
			&s.ContainerID,
			&s.ShipName,
			&s.FlightNumber,
			&s.Version,
		); err != nil {
			return nil, fmt.Errorf("scan shipment: %w", err)
		}
		if err := decodeShipmentLists(&s, routeRaw, legsRaw); err != nil {
			return nil, err
		}
		shipments = append(shipments, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate shipments: %w", err)
	}

	return shipments, nil
}

// GetShipment returns ErrNotFound for unknown products.
func (r *Repository) GetShipment(ctx context.Context, productID string) (contracts.ShipmentRecord, error) {
	var s contracts.ShipmentRecord
	var routeRaw, legsRaw []byte
	err := r.pool.QueryRow(ctx, `
        SELECT product_id, vendor_id, criticality_score, route, legs, current_location,
               shipping_origin, destination, status, container_id, ship_name, flight_number, version
        FROM shipments
        WHERE product_id = $1
    `, productID).Scan(
		&s.ProductID,
		&s.VendorID,
		&s.CriticalityScore,
		&routeRaw,
		&legsRaw,
		&s.CurrentLocation,
		&s.ShippingOrigin,
		&s.Destination,
		&s.Status,
		&s.ContainerID,
		&s.ShipName,
		&s.FlightNumber,
		&s.Version,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return contracts.ShipmentRecord{}, fmt.Errorf("shipment %s: %w", productID, ErrNotFound)
	}
	if err != nil {
		return contracts.ShipmentRecord{}, fmt.Errorf("get shipment %s: %w", productID, err)
	}
	if err := decodeShipmentLists(&s, routeRaw, legsRaw); err != nil {
		return contracts.ShipmentRecord{}, err
	}
	return s, nil
}

// decodeShipmentLists leaves Route nil when the column is NULL.
func decodeShipmentLists(s *contracts.ShipmentRecord, routeRaw, legsRaw []byte) error {
	if routeRaw != nil {
		if err := json.Unmarshal(routeRaw, &s.Route); err != nil {
			return fmt.Errorf("decode route of %s: %w", s.ProductID, err)
		}
	}
	if err := json.Unmarshal(legsRaw, &s.Legs); err != nil {
		return fmt.Errorf("decode legs of %s: %w", s.ProductID, err)
	}
	return nil
}

func (r *Repository) UpsertShipment(ctx context.Context, s contracts.ShipmentRecord) error {
	route, err := nullableList(s.Route)
	if err != nil {
		return fmt.Errorf("marshal route: %w", err)
	}
	legs, err := marshalList(s.Legs)
	if err != nil {
		return fmt.Errorf("marshal legs: %w", err)
	}

	_, err = r.pool.Exec(ctx, `
        INSERT INTO shipments
            (product_id, vendor_id, criticality_score, route, legs, current_location,
             shipping_origin, destination, status, container_id, ship_name, flight_number)
        VALUES
            ($1, $2, $3, $4::jsonb, $5::jsonb, $6, $7, $8, $9, $10, $11, $12)
        ON CONFLICT (product_id) DO UPDATE SET
            vendor_id = EXCLUDED.vendor_id,
            criticality_score = EXCLUDED.criticality_score,
            route = EXCLUDED.route,
            legs = EXCLUDED.legs,
            current_location = EXCLUDED.current_location,
            shipping_origin = EXCLUDED.shipping_origin,
            destination = EXCLUDED.destination,
            status = EXCLUDED.status,
            container_id = EXCLUDED.container_id,
            ship_name = EXCLUDED.ship_name,
            flight_number = EXCLUDED.flight_number,
            version = shipments.version + 1,
            updated_at = NOW()
    `, s.ProductID, s.VendorID, s.CriticalityScore, route, legs, s.CurrentLocation,
		s.ShippingOrigin, s.Destination, s.Status, s.ContainerID, s.ShipName, s.FlightNumber)
	if err != nil {
		return fmt.Errorf("upsert shipment %s: %w", s.ProductID, err)
	}
	return nil
}

// UpdateShipment overwrites a shipment read at s.Version. It returns
// ErrNotFound for unknown products and contracts.ErrStaleSnapshot when the row
// moved on since it was read.
func (r *Repository) UpdateShipment(ctx context.Context, s contracts.ShipmentRecord) (contracts.ShipmentRecord, error) {
	route, err := nullableList(s.Route)
	if err != nil {
		return contracts.ShipmentRecord{}, fmt.Errorf("marshal route: %w", err)
	}
	legs, err := marshalList(s.Legs)
	if err != nil {
		return contracts.ShipmentRecord{}, fmt.Errorf("marshal legs: %w", err)
	}

	err = r.pool.QueryRow(ctx, `
        UPDATE shipments
        SET vendor_id = $2,
            criticality_score = $3,
            route = $4::jsonb,
            legs = $5::jsonb,
            current_location = $6,
            shipping_origin = $7,
            destination = $8,
            status = $9,
            container_id = $10,
            ship_name = $11,
            flight_number = $12,
            version = version + 1,
            updated_at = NOW()
        WHERE product_id = $1 AND version = $13
        RETURNING version
    `, s.ProductID, s.VendorID, s.CriticalityScore, route, legs, s.CurrentLocation, s.ShippingOrigin,
		s.Destination, s.Status, s.ContainerID, s.ShipName, s.FlightNumber, s.Version).Scan(&s.Version)
	if errors.Is(err, pgx.ErrNoRows) {
		if _, getErr := r.GetShipment(ctx, s.ProductID); getErr != nil {
			return contracts.ShipmentRecord{}, getErr
		}
		return contracts.ShipmentRecord{}, fmt.Errorf("update shipment %s: %w", s.ProductID, contracts.ErrStaleSnapshot)
	}
	if err != nil {
		return contracts.ShipmentRecord{}, fmt.Errorf("update shipment %s: %w", s.ProductID, err)
	}
	return s, nil
}

func (r *Repository) ListVendors(ctx context.Context) ([]contracts.VendorRecord, error) {
	rows, err := r.pool.Query(ctx, `SELECT vendor_id, status, location FROM vendors ORDER BY vendor_id`)
	if err != nil {
		return nil, fmt.Errorf("query vendors: %w", err)
	}
	defer rows.Close()

	vendors := make([]contracts.VendorRecord, 0, 32)
	for rows.Next() {
		var v contracts.VendorRecord
		if err := rows.Scan(&v.VendorID, &v.Status, &v.Location); err != nil {
			return nil, fmt.Errorf("scan vendor: %w", err)
		}
		vendors = append(vendors, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate vendors: %w", err)
	}
	return vendors, nil
}

func (r *Repository) UpsertVendor(ctx context.Context, v contracts.VendorRecord) error {
	_, err := r.pool.Exec(ctx, `
        INSERT INTO vendors (vendor_id, status, location)
        VALUES ($1, $2, $3)
        ON CONFLICT (vendor_id) DO UPDATE SET
            status = EXCLUDED.status,
            location = EXCLUDED.location,
            updated_at = NOW()
    `, v.VendorID, v.Status, v.Location)
	if err != nil {
		return fmt.Errorf("upsert vendor %s: %w", v.VendorID, err)
	}
	return nil
}

// PersistRun stores the reports of one correlation run and applies its
// shipment patches in a single transaction. The returned reports carry the
// assigned IDs and creation times.
func (r *Repository) PersistRun(ctx context.Context, reports []contracts.RiskReport, patches []contracts.ShipmentPatch) ([]contracts.RiskReport, error) {
	stored := make([]contracts.RiskReport, 0, len(reports))
	now := time.Now().UTC()

	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		for _, report := range reports {
			if report.ID == "" {
				report.ID = uuid.NewString()
			}
			if report.CreatedAt.IsZero() {
				report.CreatedAt = now
			}
			if err := insertRiskReport(ctx, tx, report); err != nil {
				return err
			}
			stored = append(stored, report)
		}
		for _, patch := range patches {
			if err := applyShipmentPatch(ctx, tx, patch); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("persist run: %w", err)
	}
	return stored, nil
}

func insertRiskReport(ctx context.Context, tx pgx.Tx, report contracts.RiskReport) error {
	route, err := marshalList(report.Route)
	if err != nil {
		return fmt.Errorf("marshal report route: %w", err)
	}
	legs, err := marshalList(report.Legs)
	if err != nil {
		return fmt.Errorf("marshal report legs: %w", err)
	}

	_, err = tx.Exec(ctx, `
        INSERT INTO risk_reports
            (id, product_id, vendor, delay_estimate, impact_level, risk_score, cost_impact, escalation,
             event_type, event_location, event_timestamp, route, legs, current_location, shipping_origin,
             destination, status, container_id, ship_name, flight_number, created_at)
        VALUES
            ($1, $2, $3, $4, $5, $6, $7::numeric, $8, $9, $10, $11, $12::jsonb, $13::jsonb, $14, $15,
             $16, $17, $18, $19, $20, $21)
        ON CONFLICT (id) DO NOTHING
    `, report.ID, report.ProductID, report.Vendor, report.DelayEstimate, string(report.ImpactLevel),
		report.RiskScore, report.CostImpact.String(), report.Escalation, report.EventType, report.EventLocation,
		report.EventTimestamp, route, legs, report.CurrentLocation, report.ShippingOrigin, report.Destination,
		report.Status, report.ContainerID, report.ShipName, report.FlightNumber, report.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert risk report for %s: %w", report.ProductID, err)
	}
	return nil
}

func applyShipmentPatch(ctx context.Context, tx pgx.Tx, patch contracts.ShipmentPatch) error {
	legs, err := marshalList(patch.Legs)
	if err != nil {
		return fmt.Errorf("marshal patch legs: %w", err)
	}

	tag, err := tx.Exec(ctx, `
        UPDATE shipments
        SET status = $2,
            legs = $3::jsonb,
            version = version + 1,
            updated_at = NOW()
        WHERE product_id = $1 AND version = $4
    `, patch.ProductID, patch.Status, legs, patch.Version)
	if err != nil {
		return fmt.Errorf("apply patch to %s: %w", patch.ProductID, err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	var exists bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM shipments WHERE product_id = $1)`, patch.ProductID).Scan(&exists); err != nil {
		return fmt.Errorf("apply patch to %s: %w", patch.ProductID, err)
	}
	if !exists {
		return fmt.Errorf("apply patch to %s: %w", patch.ProductID, ErrNotFound)
	}
	return fmt.Errorf("apply patch to %s at version %d: %w", patch.ProductID, patch.Version, contracts.ErrStaleSnapshot)
}

type ReportFilter struct {
	ProductID   string
	Location    string
	ImpactLevel string
	Limit       int
}

func (r *Repository) ListRiskReports(ctx context.Context, f ReportFilter) ([]contracts.RiskReport, error) {
	limit := f.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	rows, err := r.pool.Query(ctx, `
        SELECT id::text, product_id, vendor, delay_estimate, impact_level, risk_score, cost_impact::text,
               escalation, event_type, event_location, event_timestamp, route, legs, current_location,
               shipping_origin, destination, status, container_id, ship_name, flight_number, created_at
        FROM risk_reports
        WHERE ($1 = '' OR product_id = $1)
          AND ($2 = '' OR lower(event_location) = lower($2))
          AND ($3 = '' OR impact_level = $3)
        ORDER BY created_at DESC
        LIMIT $4
    `, f.ProductID, f.Location, f.ImpactLevel, limit)
	if err != nil {
		return nil, fmt.Errorf("query risk reports: %w", err)
	}
	defer rows.Close()

	reports := make([]contracts.RiskReport, 0, limit)
	for rows.Next() {
		var report contracts.RiskReport
		var impact, cost string
		var routeRaw, legsRaw []byte
		if err := rows.Scan(
			&report.ID,
			&report.ProductID,
			&report.Vendor,
			&report.DelayEstimate,
			&impact,
			&report.RiskScore,
			&cost,
			&report.Escalation,
			&report.EventType,
			&report.EventLocation,
			&report.EventTimestamp,
			&routeRaw,
			&legsRaw,
			&report.CurrentLocation,
			&report.ShippingOrigin,
			&report.Destination,
			&report.Status,
			&report.ContainerID,
			&report.ShipName,
			&report.FlightNumber,
			&report.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan risk report: %w", err)
		}
		report.ImpactLevel = contracts.Severity(impact)
		if report.CostImpact, err = decimal.NewFromString(cost); err != nil {
			return nil, fmt.Errorf("parse cost impact %q: %w", cost, err)
		}
		if err := decodeReportLists(&report, routeRaw, legsRaw); err != nil {
			return nil, err
		}
		reports = append(reports, report)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate risk reports: %w", err)
	}

	return reports, nil
}

func decodeReportLists(report *contracts.RiskReport, routeRaw, legsRaw []byte) error {
	if err := json.Unmarshal(routeRaw, &report.Route); err != nil {
		return fmt.Errorf("decode route of report %s: %w", report.ID, err)
	}
	if err := json.Unmarshal(legsRaw, &report.Legs); err != nil {
		return fmt.Errorf("decode legs of report %s: %w", report.ID, err)
	}
	return nil
}

func (r *Repository) HasOpenAlertInCooldown(ctx context.Context, productID, location string, cooldown time.Duration) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
        SELECT EXISTS (
            SELECT 1
            FROM alerts
            WHERE status IN ('open', 'acknowledged')
              AND product_id = $1
              AND lower(location) = lower($2)
              AND created_at >= NOW() - $3::interval
        )
    `, productID, location, fmt.Sprintf("%f seconds", cooldown.Seconds())).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check cooldown alert: %w", err)
	}
	return exists, nil
}

func (r *Repository) InsertAlert(ctx context.Context, alert contracts.AlertRecord) (contracts.AlertRecord, error) {
	if alert.ID == "" {
		alert.ID = uuid.NewString()
	}
	if alert.Status == "" {
		alert.Status = contracts.AlertStatusOpen
	}

	err := r.pool.QueryRow(ctx, `
        INSERT INTO alerts
            (id, risk_report_id, product_id, location, title, description, risk_score, severity, escalation, status)
        VALUES
            ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
        RETURNING created_at, updated_at
    `, alert.ID, nullableUUID(alert.RiskReportID), alert.ProductID, alert.Location, alert.Title, alert.Description,
		alert.RiskScore, alert.Severity, alert.Escalation, alert.Status).Scan(&alert.CreatedAt, &alert.UpdatedAt)
	if err != nil {
		return contracts.AlertRecord{}, fmt.Errorf("insert alert: %w", err)
	}

	return alert, nil
}

func (r *Repository) ListAlerts(ctx context.Context, status string, limit int) ([]contracts.AlertRecord, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	rows, err := r.pool.Query(ctx, `
        SELECT id::text, COALESCE(risk_report_id::text,''), product_id, location, title, description,
               risk_score, severity, escalation, status, created_at, updated_at
        FROM alerts
        WHERE ($1 = '' OR status = $1)
        ORDER BY created_at DESC
        LIMIT $2
    `, status, limit)
	if err != nil {
		return nil, fmt.Errorf("query alerts: %w", err)
	}
	defer rows.Close()

	alerts := make([]contracts.AlertRecord, 0, limit)
	for rows.Next() {
		var alert contracts.AlertRecord
		if err := rows.Scan(
			&alert.ID,
			&alert.RiskReportID,
			&alert.ProductID,
			&alert.Location,
			&alert.Title,
			&alert.Description,
			&alert.RiskScore,
			&alert.Severity,
			&alert.Escalation,
			&alert.Status,
			&alert.CreatedAt,
			&alert.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan alert: %w", err)
		}
		alerts = append(alerts, alert)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate alerts: %w", err)
	}

	return alerts, nil
}

func (r *Repository) UpdateAlertStatus(ctx context.Context, id, status string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("alert %s: %w", id, ErrNotFound)
	}

	cmd, err := r.pool.Exec(ctx, `
        UPDATE alerts
        SET status = $2,
            updated_at = NOW(),
            acknowledged_at = CASE WHEN $2 = 'acknowledged' THEN NOW() ELSE acknowledged_at END,
            resolved_at = CASE WHEN $2 = 'resolved' THEN NOW() ELSE resolved_at END
        WHERE id = $1
    `, id, status)
	if err != nil {
		return fmt.Errorf("update alert status: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("alert %s: %w", id, ErrNotFound)
	}
	return nil
}

type DashboardSummary struct {
	OpenAlerts       int     `json:"open_alerts"`
	Acknowledged     int     `json:"acknowledged_alerts"`
	Resolved24h      int     `json:"resolved_last_24h"`
	Reports24h       int     `json:"reports_last_24h"`
	Escalations24h   int     `json:"escalations_last_24h"`
	AvgRiskScore24h  float64 `json:"avg_risk_score_24h"`
	CostImpact24h    string  `json:"cost_impact_24h"`
	DelayedShipments int     `json:"delayed_shipments"`
}

type DashboardSeriesPoint struct {
	BucketStart      time.Time `json:"bucket_start"`
	AvgRiskScore     float64   `json:"avg_risk_score"`
	Reports          int       `json:"reports"`
	OpenAlertsOpened int       `json:"open_alerts_opened"`
}

type Hotspot struct {
	Location       string    `json:"location"`
	AffectedItems  int       `json:"affected_items"`
	AvgRiskScore   float64   `json:"avg_risk_score"`
	MaxRiskScore   int       `json:"max_risk_score"`
	CostImpact     string    `json:"cost_impact"`
	ActiveAlerts   int       `json:"active_alerts"`
	LastReportedAt time.Time `json:"last_reported_at"`
}

func (r *Repository) DashboardSummary(ctx context.Context) (DashboardSummary, error) {
	var summary DashboardSummary
	err := r.pool.QueryRow(ctx, `
        SELECT
            (SELECT COUNT(*) FROM alerts WHERE status = 'open'),
            (SELECT COUNT(*) FROM alerts WHERE status = 'acknowledged'),
            (SELECT COUNT(*) FROM alerts WHERE status = 'resolved' AND resolved_at >= NOW() - INTERVAL '24 hours'),
            COUNT(*),
            COUNT(*) FILTER (WHERE escalation <> ''),
            COALESCE(AVG(risk_score), 0)::float8,
            COALESCE(SUM(cost_impact), 0)::text,
            (SELECT COUNT(*) FROM shipments WHERE status = 'delayed')
        FROM risk_reports
        WHERE created_at >= NOW() - INTERVAL '24 hours'
    `).Scan(
		&summary.OpenAlerts,
		&summary.Acknowledged,
		&summary.Resolved24h,
		&summary.Reports24h,
		&summary.Escalations24h,
		&summary.AvgRiskScore24h,
		&summary.CostImpact24h,
		&summary.DelayedShipments,
	)
	if err != nil {
		return DashboardSummary{}, fmt.Errorf("dashboard summary: %w", err)
	}
	return summary, nil
}

func (r *Repository) DashboardTimeSeries(ctx context.Context, hours int) ([]DashboardSeriesPoint, error) {
	if hours <= 0 || hours > 168 {
		hours = 24
	}
	interval := fmt.Sprintf("%d hours", hours)

	rows, err := r.pool.Query(ctx, `
        WITH buckets AS (
            SELECT generate_series(
                date_trunc('hour', NOW() - $1::interval),
                date_trunc('hour', NOW()),
                interval '1 hour'
            ) AS bucket_start
        )
        SELECT
            b.bucket_start,
            COALESCE((
                SELECT AVG(rr.risk_score)
                FROM risk_reports rr
                WHERE rr.created_at >= b.bucket_start
                  AND rr.created_at < b.bucket_start + interval '1 hour'
            ), 0)::float8 AS avg_risk_score,
            (
                SELECT COUNT(*)
                FROM risk_reports rr
                WHERE rr.created_at >= b.bucket_start
                  AND rr.created_at < b.bucket_start + interval '1 hour'
            ) AS reports,
            (
                SELECT COUNT(*)
                FROM alerts a
                WHERE a.created_at >= b.bucket_start
                  AND a.created_at < b.bucket_start + interval '1 hour'
                  AND a.status = 'open'
            ) AS open_alerts_opened
        FROM buckets b
        ORDER BY b.bucket_start ASC
    `, interval)
	if err != nil {
		return nil, fmt.Errorf("dashboard timeseries query: %w", err)
	}
	defer rows.Close()

	points := make([]DashboardSeriesPoint, 0, hours+1)
	for rows.Next() {
		var point DashboardSeriesPoint
		if err := rows.Scan(&point.BucketStart, &point.AvgRiskScore, &point.Reports, &point.OpenAlertsOpened); err != nil {
			return nil, fmt.Errorf("dashboard timeseries scan: %w", err)
		}
		points = append(points, point)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("dashboard timeseries iterate: %w", err)
	}

	return points, nil
}

// Hotspots ranks disruption locations by the risk they put on inventory over
// the trailing window.
func (r *Repository) Hotspots(ctx context.Context, hours, limit int) ([]Hotspot, error) {
	if hours <= 0 || hours > 168 {
		hours = 24
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	interval := fmt.Sprintf("%d hours", hours)
	rows, err := r.pool.Query(ctx, `
        SELECT
            rr.event_location,
            COUNT(DISTINCT rr.product_id) AS affected_items,
            ROUND(AVG(rr.risk_score)::numeric, 2)::float8 AS avg_risk_score,
            MAX(rr.risk_score) AS max_risk_score,
            SUM(rr.cost_impact)::text AS cost_impact,
            MAX(rr.created_at) AS last_reported_at,
            (
                SELECT COUNT(*)
                FROM alerts a
                WHERE lower(a.location) = lower(rr.event_location)
                  AND a.status IN ('open', 'acknowledged')
            ) AS active_alerts
        FROM risk_reports rr
        WHERE rr.created_at >= NOW() - $1::interval
          AND rr.event_location <> ''
        GROUP BY rr.event_location
        ORDER BY avg_risk_score DESC, active_alerts DESC, last_reported_at DESC
        LIMIT $2
    `, interval, limit)
	if err != nil {
		return nil, fmt.Errorf("hotspots query: %w", err)
	}
	defer rows.Close()

	hotspots := make([]Hotspot, 0, limit)
	for rows.Next() {
		var hotspot Hotspot
		if err := rows.Scan(
			&hotspot.Location,
			&hotspot.AffectedItems,
			&hotspot.AvgRiskScore,
			&hotspot.MaxRiskScore,
			&hotspot.CostImpact,
			&hotspot.LastReportedAt,
			&hotspot.ActiveAlerts,
		); err != nil {
			return nil, fmt.Errorf("hotspots scan: %w", err)
		}
		hotspots = append(hotspots, hotspot)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("hotspots iterate: %w", err)
	}

	return hotspots, nil
}

func marshalList[T any](items []T) (string, error) {
	if items == nil {
		items = []T{}
	}
	body, err := json.Marshal(items)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

func nullableList[T any](items []T) (any, error) {
	if items == nil {
		return nil, nil
	}
	return marshalList(items)
}

func nullableUUID(v string) any {
	if v == "" {
		return nil
	}
	return v
}
