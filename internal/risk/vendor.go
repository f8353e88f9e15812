package risk

import (
	"github.com/shopspring/decimal"

	"github.com/shiroonigami23-ui/supply-disruption-engine/internal/contracts"
)

const (
	VendorFailureEscalation = "Vendor failure - escalate to human ops"
	vendorFailureDelay      = "Unknown"
)

// VendorFailureCost is the fixed cost impact booked against a failed vendor.
var VendorFailureCost = decimal.NewFromInt(10000)

var failedVendorStatuses = map[string]struct{}{
	"bankrupt": {},
	"failed":   {},
	"inactive": {},
}

// VendorDirectory is a read-only index over the vendor snapshot.
type VendorDirectory struct {
	byID map[string]contracts.VendorRecord
}

// NewVendorDirectory indexes vendors by ID. When an ID repeats, the first
// record wins.
func NewVendorDirectory(vendors []contracts.VendorRecord) VendorDirectory {
	byID := make(map[string]contracts.VendorRecord, len(vendors))
	for _, v := range vendors {
		if _, ok := byID[v.VendorID]; ok {
			continue
		}
		byID[v.VendorID] = v
	}
	return VendorDirectory{byID: byID}
}

func (d VendorDirectory) Resolve(vendorID string) (contracts.VendorRecord, bool) {
	if vendorID == "" {
		return contracts.VendorRecord{}, false
	}
	v, ok := d.byID[vendorID]
	return v, ok
}

func IsFailed(vendor contracts.VendorRecord) bool {
	_, failed := failedVendorStatuses[normalize(vendor.Status)]
	return failed
}

func vendorFailureReport(shipment contracts.ShipmentRecord, vendor contracts.VendorRecord) contracts.RiskReport {
	report := contracts.RiskReport{
		ProductID:     shipment.ProductID,
		Vendor:        vendor.VendorID,
		DelayEstimate: vendorFailureDelay,
		ImpactLevel:   contracts.SeverityCritical,
		RiskScore:     maxScore,
		CostImpact:    VendorFailureCost,
		Escalation:    VendorFailureEscalation,
	}
	copyShipment(&report, shipment, shipment.Legs)
	return report
}

func copyShipment(report *contracts.RiskReport, shipment contracts.ShipmentRecord, legs []contracts.Leg) {
	report.Route = append([]string(nil), shipment.Route...)
	report.Legs = append([]contracts.Leg(nil), legs...)
	report.CurrentLocation = shipment.CurrentLocation
	report.ShippingOrigin = shipment.ShippingOrigin
	report.Destination = shipment.Destination
	report.Status = shipment.Status
	report.ContainerID = shipment.ContainerID
	report.ShipName = shipment.ShipName
	report.FlightNumber = shipment.FlightNumber
}
