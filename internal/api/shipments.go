package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/shiroonigami23-ui/supply-disruption-engine/internal/contracts"
	"github.com/shiroonigami23-ui/supply-disruption-engine/internal/httpx"
	"github.com/shiroonigami23-ui/supply-disruption-engine/internal/storage"
)

var (
	validate = validator.New(validator.WithRequiredStructEnabled())

	errMissingProductID = errors.New("product_id is required")
	errShipmentNotFound = errors.New("shipment not found")
)

// shipmentUpdate applies only the fields present in the body. A product_id in
// the body must agree with the path.
type shipmentUpdate struct {
	ProductID        string           `json:"product_id"`
	VendorID         *string          `json:"vendor_id"`
	CriticalityScore *int             `json:"criticality_score" validate:"omitempty,gte=0,lte=100"`
	Route            *[]string        `json:"route"`
	CurrentLocation  *string          `json:"current_location"`
	ShippingOrigin   *string          `json:"shipping_origin"`
	Destination      *string          `json:"destination"`
	Status           *string          `json:"status"`
	Legs             *[]contracts.Leg `json:"legs"`
	ContainerID      *string          `json:"container_id"`
	ShipName         *string          `json:"ship_name"`
	FlightNumber     *string          `json:"flight_number"`
}

func (u shipmentUpdate) apply(s *contracts.ShipmentRecord) {
	setString := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}
	setString(&s.VendorID, u.VendorID)
	setString(&s.CurrentLocation, u.CurrentLocation)
	setString(&s.ShippingOrigin, u.ShippingOrigin)
	setString(&s.Destination, u.Destination)
	setString(&s.Status, u.Status)
	setString(&s.ContainerID, u.ContainerID)
	setString(&s.ShipName, u.ShipName)
	setString(&s.FlightNumber, u.FlightNumber)
	if u.CriticalityScore != nil {
		s.CriticalityScore = *u.CriticalityScore
	}
	if u.Route != nil {
		s.Route = *u.Route
	}
	if u.Legs != nil {
		s.Legs = *u.Legs
	}
}

func (h *Handler) listShipments(w http.ResponseWriter, r *http.Request) {
	shipments, err := h.store.ListShipments(r.Context())
	if err != nil {
		httpx.WriteError(w, http.StatusInternalServerError, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"items": shipments})
}

func (h *Handler) getShipment(w http.ResponseWriter, r *http.Request) {
	shipment, err := h.store.GetShipment(r.Context(), chi.URLParam(r, "product_id"))
	if err != nil {
		h.writeShipmentError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, shipment)
}

func (h *Handler) createShipment(w http.ResponseWriter, r *http.Request) {
	var shipment contracts.ShipmentRecord
	if err := httpx.DecodeJSON(r, &shipment); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err)
		return
	}
	shipment.ProductID = strings.TrimSpace(shipment.ProductID)
	if shipment.ProductID == "" {
		httpx.WriteError(w, http.StatusBadRequest, errMissingProductID)
		return
	}
	if err := validate.Var(shipment.CriticalityScore, "gte=0,lte=100"); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, errors.New("criticality_score must be between 0 and 100"))
		return
	}
	shipment.Version = 0

	if err := h.store.UpsertShipment(r.Context(), shipment); err != nil {
		h.writeShipmentError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"updated_shipment": shipment})
}

func (h *Handler) updateShipment(w http.ResponseWriter, r *http.Request) {
	productID := strings.TrimSpace(chi.URLParam(r, "product_id"))

	var update shipmentUpdate
	if err := httpx.DecodeJSON(r, &update); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err)
		return
	}
	if bodyID := strings.TrimSpace(update.ProductID); bodyID != "" && bodyID != productID {
		httpx.WriteError(w, http.StatusBadRequest, fmt.Errorf("product_id %q does not match path %q", bodyID, productID))
		return
	}
	if productID == "" {
		httpx.WriteError(w, http.StatusBadRequest, errMissingProductID)
		return
	}
	if err := validate.Struct(update); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, errors.New("criticality_score must be between 0 and 100"))
		return
	}

	current, err := h.store.GetShipment(r.Context(), productID)
	if err != nil {
		h.writeShipmentError(w, err)
		return
	}
	update.apply(&current)

	updated, err := h.store.UpdateShipment(r.Context(), current)
	if err != nil {
		h.writeShipmentError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"updated_shipment": updated})
}

func (h *Handler) writeShipmentError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		httpx.WriteError(w, http.StatusNotFound, errShipmentNotFound)
	case errors.Is(err, contracts.ErrStaleSnapshot):
		httpx.WriteError(w, http.StatusConflict, err)
	default:
		h.logger.Error("shipment store failed", zap.Error(err))
		httpx.WriteError(w, http.StatusInternalServerError, err)
	}
}
