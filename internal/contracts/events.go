package contracts

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Severity string

const (
	SeverityHigh     Severity = "High"
	SeverityMedium   Severity = "Medium"
	SeverityLow      Severity = "Low"
	SeverityCritical Severity = "Critical"
)

// ParseSeverity normalises the casing of known severities. Unknown values are
// returned trimmed but otherwise untouched.
func ParseSeverity(raw string) Severity {
	v := strings.TrimSpace(raw)
	for _, s := range []Severity{SeverityHigh, SeverityMedium, SeverityLow, SeverityCritical} {
		if strings.EqualFold(v, string(s)) {
			return s
		}
	}
	return Severity(v)
}

type TransportMode string

const (
	ModeAir  TransportMode = "air"
	ModeSea  TransportMode = "sea"
	ModeRoad TransportMode = "road"
)

const (
	DataSourceReal      = "real"
	DataSourceSimulated = "simulated"
)

type DisruptionEvent struct {
	Location     string        `json:"location" validate:"required"`
	EventType    string        `json:"event_type" validate:"required"`
	Severity     Severity      `json:"severity" validate:"required,oneof=High Medium Low"`
	Timestamp    string        `json:"timestamp" validate:"required"`
	Source       string        `json:"source" validate:"required"`
	Mode         TransportMode `json:"mode,omitempty" validate:"omitempty,oneof=air sea road"`
	ContainerID  string        `json:"container_id,omitempty"`
	ShipName     string        `json:"ship_name,omitempty"`
	FlightNumber string        `json:"flight_number,omitempty"`
	DataSource   string        `json:"data_source,omitempty"`
}

type DedupKey struct {
	EventType string `json:"event_type"`
	Location  string `json:"location"`
	ProductID string `json:"product_id"`
}

// String encodes the fields as a JSON array so a separator inside one field
// cannot collide with another key.
func (k DedupKey) String() string {
	body, _ := json.Marshal([3]string{k.EventType, k.Location, k.ProductID})
	return string(body)
}

func (e DisruptionEvent) DedupKey(productID string) DedupKey {
	return DedupKey{EventType: e.EventType, Location: e.Location, ProductID: productID}
}

// Key is the Kafka partition key for an event.
func (e DisruptionEvent) Key() string {
	return e.EventType + "|" + e.Location
}

type Leg struct {
	Origin          string `json:"origin"`
	Destination     string `json:"destination"`
	CurrentLocation string `json:"current_location,omitempty"`
	Status          string `json:"status,omitempty"`
	ETA             string `json:"eta,omitempty"`
}

type ShipmentRecord struct {
	ProductID        string   `json:"product_id"`
	VendorID         string   `json:"vendor_id,omitempty"`
	CriticalityScore int      `json:"criticality_score"`
	Route            []string `json:"route"`
	CurrentLocation  string   `json:"current_location,omitempty"`
	ShippingOrigin   string   `json:"shipping_origin,omitempty"`
	Destination      string   `json:"destination,omitempty"`
	Status           string   `json:"status,omitempty"`
	Legs             []Leg    `json:"legs,omitempty"`
	ContainerID      string   `json:"container_id,omitempty"`
	ShipName         string   `json:"ship_name,omitempty"`
	FlightNumber     string   `json:"flight_number,omitempty"`
	Version          int64    `json:"version,omitempty"`
}

type VendorRecord struct {
	VendorID string `json:"vendor_id"`
	Status   string `json:"status"`
	Location string `json:"location"`
}

type RiskReport struct {
	ID             string          `json:"id,omitempty"`
	ProductID      string          `json:"product_id"`
	Vendor         string          `json:"vendor"`
	DelayEstimate  string          `json:"delay_estimate"`
	ImpactLevel    Severity        `json:"impact_level"`
	RiskScore      int             `json:"risk_score"`
	CostImpact     decimal.Decimal `json:"cost_impact"`
	Escalation     string          `json:"escalation,omitempty"`
	EventType      string          `json:"event_type,omitempty"`
	EventLocation  string          `json:"event_location,omitempty"`
	EventTimestamp string          `json:"event_timestamp,omitempty"`
	CreatedAt      time.Time       `json:"created_at,omitzero"`

	Route           []string `json:"route,omitempty"`
	Legs            []Leg    `json:"legs,omitempty"`
	CurrentLocation string   `json:"current_location,omitempty"`
	ShippingOrigin  string   `json:"shipping_origin,omitempty"`
	Destination     string   `json:"destination,omitempty"`
	Status          string   `json:"status,omitempty"`
	ContainerID     string   `json:"container_id,omitempty"`
	ShipName        string   `json:"ship_name,omitempty"`
	FlightNumber    string   `json:"flight_number,omitempty"`
}

// Key re-derives the dedup key of a stored report. Vendor-failure reports
// carry no event identity and yield a key with empty event fields.
func (r RiskReport) Key() DedupKey {
	return DedupKey{EventType: r.EventType, Location: r.EventLocation, ProductID: r.ProductID}
}

func (r RiskReport) Escalated() bool {
	return r.Escalation != ""
}

// ErrStaleSnapshot reports that a shipment was written after the snapshot a
// patch was computed from.
var ErrStaleSnapshot = errors.New("shipment changed since snapshot")

// ShipmentPatch carries the snapshot version it was computed against.
type ShipmentPatch struct {
	ProductID string `json:"product_id"`
	Status    string `json:"status"`
	Legs      []Leg  `json:"legs"`
	Version   int64  `json:"version"`
}

type AlertRecord struct {
	ID           string    `json:"id"`
	RiskReportID string    `json:"risk_report_id"`
	ProductID    string    `json:"product_id"`
	Location     string    `json:"location"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	RiskScore    int       `json:"risk_score"`
	Severity     string    `json:"severity"`
	Escalation   string    `json:"escalation,omitempty"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

const (
	AlertStatusOpen         = "open"
	AlertStatusAcknowledged = "acknowledged"
	AlertStatusResolved     = "resolved"
)

func ValidAlertStatus(status string) bool {
	switch status {
	case AlertStatusOpen, AlertStatusAcknowledged, AlertStatusResolved:
		return true
	}
	return false
}

// EscalationNotice is the payload handed to the human-ops queue.
type EscalationNotice struct {
	AlertID    string    `json:"alert_id"`
	ProductID  string    `json:"product_id"`
	Location   string    `json:"location"`
	Status     string    `json:"status"`
	Reason     string    `json:"reason"`
	RiskScore  int       `json:"risk_score"`
	ReportedAt time.Time `json:"reported_at"`
}
