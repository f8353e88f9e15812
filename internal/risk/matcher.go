package risk

import (
	"strings"

	"github.com/shiroonigami23-ui/supply-disruption-engine/internal/contracts"
)

// MatchReason records which rule tied a disruption to a shipment.
type MatchReason string

const (
	MatchNone            MatchReason = ""
	MatchIdentifier      MatchReason = "identifier"
	MatchRoute           MatchReason = "route"
	MatchCurrentLocation MatchReason = "current_location"
	MatchLeg             MatchReason = "leg"
	MatchVendorLocation  MatchReason = "vendor_location"
)

// Matches reports whether the disruption affects the shipment.
func Matches(event contracts.DisruptionEvent, shipment contracts.ShipmentRecord, vendor contracts.VendorRecord) bool {
	return MatchShipment(event, shipment, vendor) != MatchNone
}

// MatchShipment applies the matching rules in precedence order and returns the
// first one that hits. Location comparisons are case-insensitive and
// bidirectional so "Bangalore" and "Bangalore Port" match each other.
func MatchShipment(event contracts.DisruptionEvent, shipment contracts.ShipmentRecord, vendor contracts.VendorRecord) MatchReason {
	if identifierMatch(event, shipment) {
		return MatchIdentifier
	}

	loc := normalize(event.Location)
	for _, wp := range shipment.Route {
		if containsEither(loc, wp) {
			return MatchRoute
		}
	}
	if containsEither(loc, shipment.CurrentLocation) {
		return MatchCurrentLocation
	}
	for _, leg := range shipment.Legs {
		if containsEither(loc, leg.Origin) || containsEither(loc, leg.Destination) || containsEither(loc, leg.CurrentLocation) {
			return MatchLeg
		}
	}
	if containsEither(loc, vendor.Location) {
		return MatchVendorLocation
	}
	return MatchNone
}

func identifierMatch(event contracts.DisruptionEvent, shipment contracts.ShipmentRecord) bool {
	pairs := [][2]string{
		{event.ContainerID, shipment.ContainerID},
		{event.ShipName, shipment.ShipName},
		{event.FlightNumber, shipment.FlightNumber},
	}
	for _, p := range pairs {
		a, b := normalize(p[0]), normalize(p[1])
		if a != "" && b != "" && a == b {
			return true
		}
	}
	return false
}

// containsEither expects loc already normalised. Empty candidates never match.
func containsEither(loc, candidate string) bool {
	c := normalize(candidate)
	if c == "" {
		return false
	}
	return strings.Contains(c, loc) || strings.Contains(loc, c)
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func sameLocation(a, b string) bool {
	na := normalize(a)
	return na != "" && na == normalize(b)
}
