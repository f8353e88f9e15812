package api

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shiroonigami23-ui/supply-disruption-engine/internal/contracts"
)

func seededStore() *fakeStore {
	return &fakeStore{shipments: map[string]contracts.ShipmentRecord{
		"P1001": {
			ProductID:        "P1001",
			VendorID:         "V1",
			CriticalityScore: 70,
			Route:            []string{"Bangalore", "Chennai"},
			CurrentLocation:  "Bangalore",
			Destination:      "Chennai",
			Status:           "in_transit",
			Version:          3,
		},
	}}
}

func TestListAndGetShipments(t *testing.T) {
	h := newTestHandler(seededStore(), &engineCorrelator{})

	rec := do(t, h, http.MethodGet, "/v1/shipments", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"product_id":"P1001"`)

	rec = do(t, h, http.MethodGet, "/v1/shipments/P1001", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"route":["Bangalore","Chennai"]`)

	rec = do(t, h, http.MethodGet, "/v1/shipments/P404", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateShipmentMergesPresentFields(t *testing.T) {
	store := seededStore()
	h := newTestHandler(store, &engineCorrelator{})

	rec := do(t, h, http.MethodPut, "/v1/shipments/P1001", `{"current_location":" Chennai ","status":"arrived","route":[]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body struct {
		Updated contracts.ShipmentRecord `json:"updated_shipment"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Chennai", body.Updated.CurrentLocation)
	assert.Equal(t, "arrived", body.Updated.Status)
	assert.Equal(t, int64(4), body.Updated.Version)

	stored := store.shipments["P1001"]
	assert.Equal(t, "V1", stored.VendorID, "absent fields are kept")
	assert.Equal(t, 70, stored.CriticalityScore)
	assert.NotNil(t, stored.Route)
	assert.Empty(t, stored.Route)
}

func TestUpdateShipmentRejects(t *testing.T) {
	store := seededStore()
	h := newTestHandler(store, &engineCorrelator{})

	rec := do(t, h, http.MethodPut, "/v1/shipments/P404", `{"status":"arrived"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "shipment not found")

	rec = do(t, h, http.MethodPut, "/v1/shipments/P1001", `{"product_id":"P2002","status":"arrived"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPut, "/v1/shipments/P1001", `{"criticality_score":140}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPut, "/v1/shipments/P1001", `{"eta":"tomorrow"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	assert.Equal(t, "in_transit", store.shipments["P1001"].Status)
}

func TestCreateShipment(t *testing.T) {
	store := &fakeStore{}
	h := newTestHandler(store, &engineCorrelator{})

	rec := do(t, h, http.MethodPost, "/v1/shipments", `{"criticality_score":50,"route":["Delhi"]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "product_id is required")

	rec = do(t, h, http.MethodPost, "/v1/shipments", `{"product_id":"P9","criticality_score":101}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, store.shipments)

	rec = do(t, h, http.MethodPost, "/v1/shipments", `{"product_id":" P9 ","criticality_score":50,"route":["Delhi"]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Contains(t, store.shipments, "P9")
	assert.Equal(t, []string{"Delhi"}, store.shipments["P9"].Route)
}
