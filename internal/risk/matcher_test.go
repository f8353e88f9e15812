package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shiroonigami23-ui/supply-disruption-engine/internal/contracts"
)

func TestMatchShipment(t *testing.T) {
	shipment := contracts.ShipmentRecord{
		ProductID:       "P1",
		Route:           []string{"Bangalore Port", "Chennai"},
		CurrentLocation: "Hosur Depot",
		ContainerID:     "MSCU1234567",
		Legs: []contracts.Leg{
			{Origin: "Pune", Destination: "Mumbai Harbour", CurrentLocation: "Lonavala"},
		},
	}
	vendor := contracts.VendorRecord{VendorID: "V1", Status: "active", Location: "Coimbatore"}

	tests := []struct {
		name  string
		event contracts.DisruptionEvent
		want  MatchReason
	}{
		{"event location inside waypoint", contracts.DisruptionEvent{Location: "Bangalore"}, MatchRoute},
		{"waypoint inside event location", contracts.DisruptionEvent{Location: "Chennai Port Trust"}, MatchRoute},
		{"case insensitive", contracts.DisruptionEvent{Location: "BANGALORE"}, MatchRoute},
		{"current location", contracts.DisruptionEvent{Location: "hosur"}, MatchCurrentLocation},
		{"leg destination", contracts.DisruptionEvent{Location: "Mumbai"}, MatchLeg},
		{"leg current location", contracts.DisruptionEvent{Location: "Lonavala"}, MatchLeg},
		{"vendor location", contracts.DisruptionEvent{Location: "Coimbatore"}, MatchVendorLocation},
		{"no match", contracts.DisruptionEvent{Location: "Nagpur"}, MatchNone},
		{"identifier wins over location", contracts.DisruptionEvent{Location: "Nagpur", ContainerID: "mscu1234567"}, MatchIdentifier},
		{"different identifier falls through", contracts.DisruptionEvent{Location: "Nagpur", ContainerID: "OTHER"}, MatchNone},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, MatchShipment(tc.event, shipment, vendor))
			assert.Equal(t, tc.want != MatchNone, Matches(tc.event, shipment, vendor))
		})
	}
}

func TestMatchesRouteExamples(t *testing.T) {
	shipment := contracts.ShipmentRecord{Route: []string{"Bangalore Port", "Chennai"}}

	assert.True(t, Matches(contracts.DisruptionEvent{Location: "Bangalore"}, shipment, contracts.VendorRecord{}))
	assert.False(t, Matches(contracts.DisruptionEvent{Location: "Nagpur"}, shipment, contracts.VendorRecord{}))
}

func TestMatchesIgnoresEmptyCandidates(t *testing.T) {
	shipment := contracts.ShipmentRecord{
		Route: []string{""},
		Legs:  []contracts.Leg{{Origin: "", Destination: ""}},
	}
	assert.False(t, Matches(contracts.DisruptionEvent{Location: "Delhi"}, shipment, contracts.VendorRecord{}))
}

func TestMatchesFlightAndShipIdentifiers(t *testing.T) {
	shipment := contracts.ShipmentRecord{ShipName: "Ever Given", FlightNumber: "AI101"}

	assert.True(t, Matches(contracts.DisruptionEvent{Location: "Suez", ShipName: "ever given"}, shipment, contracts.VendorRecord{}))
	assert.True(t, Matches(contracts.DisruptionEvent{Location: "Delhi", FlightNumber: "AI101"}, shipment, contracts.VendorRecord{}))
	assert.False(t, Matches(contracts.DisruptionEvent{Location: "Delhi", FlightNumber: "AI102"}, shipment, contracts.VendorRecord{}))
}
