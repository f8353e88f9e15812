package risk

import "github.com/shiroonigami23-ui/supply-disruption-engine/internal/contracts"

const (
	NoAlternateRouteEscalation = "No alternate route available - escalate to human ops"

	// maxRemainingWaypoints is the route length at or below which rerouting
	// before final delivery is no longer possible.
	maxRemainingWaypoints = 2
)

// RequiresEscalation returns a reason when automated mitigation cannot help,
// or "" otherwise. The rule needs a route to be present; an empty route counts
// as nothing left to reroute through, while a missing one never escalates.
// Vendor failure is handled before matching.
func RequiresEscalation(shipment contracts.ShipmentRecord, event contracts.DisruptionEvent) string {
	if shipment.Route != nil && len(shipment.Route) <= maxRemainingWaypoints && sameLocation(event.Location, shipment.Destination) {
		return NoAlternateRouteEscalation
	}
	return ""
}
