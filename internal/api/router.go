// Package api serves correlation, reports, alerts and dashboard reads over
// HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/shiroonigami23-ui/supply-disruption-engine/internal/contracts"
	"github.com/shiroonigami23-ui/supply-disruption-engine/internal/httpx"
	"github.com/shiroonigami23-ui/supply-disruption-engine/internal/ingest"
	"github.com/shiroonigami23-ui/supply-disruption-engine/internal/risk"
	"github.com/shiroonigami23-ui/supply-disruption-engine/internal/storage"
)

const maxCorrelateBatch = 1000

var errInvalidStatus = errors.New("status must be one of open, acknowledged, resolved")

type Store interface {
	ListShipments(ctx context.Context) ([]contracts.ShipmentRecord, error)
	GetShipment(ctx context.Context, productID string) (contracts.ShipmentRecord, error)
	UpsertShipment(ctx context.Context, s contracts.ShipmentRecord) error
	UpdateShipment(ctx context.Context, s contracts.ShipmentRecord) (contracts.ShipmentRecord, error)
	ListRiskReports(ctx context.Context, f storage.ReportFilter) ([]contracts.RiskReport, error)
	ListAlerts(ctx context.Context, status string, limit int) ([]contracts.AlertRecord, error)
	UpdateAlertStatus(ctx context.Context, id, status string) error
	DashboardSummary(ctx context.Context) (storage.DashboardSummary, error)
	DashboardTimeSeries(ctx context.Context, hours int) ([]storage.DashboardSeriesPoint, error)
	Hotspots(ctx context.Context, hours, limit int) ([]storage.Hotspot, error)
}

type Correlator interface {
	Run(ctx context.Context, disruptions []contracts.DisruptionEvent, dryRun bool) (risk.Result, error)
}

type Handler struct {
	store      Store
	correlator Correlator
	metrics    http.Handler
	logger     *zap.Logger
	now        func() time.Time
}

func NewHandler(store Store, correlator Correlator, metricsHandler http.Handler, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		store:      store,
		correlator: correlator,
		metrics:    metricsHandler,
		logger:     logger,
		now:        time.Now,
	}
}

func (h *Handler) Routes() http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(15 * time.Second))

	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, map[string]any{"ok": true, "service": "query-api"})
	})
	if h.metrics != nil {
		router.Method(http.MethodGet, "/metrics", h.metrics)
	}

	router.Route("/v1", func(r chi.Router) {
		r.Post("/correlate", h.correlate)
		r.Get("/shipments", h.listShipments)
		r.Post("/shipments", h.createShipment)
		r.Get("/shipments/{product_id}", h.getShipment)
		r.Put("/shipments/{product_id}", h.updateShipment)
		r.Get("/reports", h.listReports)
		r.Get("/alerts", h.listAlerts)
		r.Patch("/alerts/{id}", h.updateAlert)
		r.Patch("/alerts/{id}/ack", h.setAlertStatus(contracts.AlertStatusAcknowledged))
		r.Patch("/alerts/{id}/resolve", h.setAlertStatus(contracts.AlertStatusResolved))
		r.Get("/dashboard/summary", h.summary)
		r.Get("/dashboard/timeseries", h.timeSeries)
		r.Get("/dashboard/hotspots", h.hotspots)
	})

	return router
}

type correlateRequest struct {
	Disruptions []contracts.DisruptionEvent `json:"disruptions"`
	DryRun      bool                        `json:"dry_run"`
}

func (h *Handler) correlate(w http.ResponseWriter, r *http.Request) {
	var req correlateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err)
		return
	}
	if len(req.Disruptions) > maxCorrelateBatch {
		httpx.WriteError(w, http.StatusRequestEntityTooLarge, fmt.Errorf("at most %d disruptions per request", maxCorrelateBatch))
		return
	}

	now := h.now()
	for i := range req.Disruptions {
		if err := ingest.Prepare(&req.Disruptions[i], now); err != nil {
			httpx.WriteError(w, http.StatusBadRequest, fmt.Errorf("disruptions[%d]: %w", i, err))
			return
		}
	}

	result, err := h.correlator.Run(r.Context(), req.Disruptions, req.DryRun)
	if err != nil {
		h.logger.Error("correlate failed", zap.Error(err))
		httpx.WriteError(w, http.StatusInternalServerError, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) listReports(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	reports, err := h.store.ListRiskReports(r.Context(), storage.ReportFilter{
		ProductID:   q.Get("product_id"),
		Location:    q.Get("location"),
		ImpactLevel: string(contracts.ParseSeverity(q.Get("impact_level"))),
		Limit:       httpx.QueryInt(r, "limit", 100),
	})
	if err != nil {
		httpx.WriteError(w, http.StatusInternalServerError, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"items": reports})
}

func (h *Handler) listAlerts(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	if status != "" && !contracts.ValidAlertStatus(status) {
		httpx.WriteError(w, http.StatusBadRequest, errInvalidStatus)
		return
	}

	alerts, err := h.store.ListAlerts(r.Context(), status, httpx.QueryInt(r, "limit", 100))
	if err != nil {
		httpx.WriteError(w, http.StatusInternalServerError, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"items": alerts})
}

func (h *Handler) updateAlert(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Status string `json:"status"`
	}
	if err := httpx.DecodeJSON(r, &body); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err)
		return
	}
	h.applyAlertStatus(w, r, body.Status)
}

func (h *Handler) setAlertStatus(status string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.applyAlertStatus(w, r, status)
	}
}

func (h *Handler) applyAlertStatus(w http.ResponseWriter, r *http.Request, status string) {
	if !contracts.ValidAlertStatus(status) {
		httpx.WriteError(w, http.StatusBadRequest, errInvalidStatus)
		return
	}

	id := chi.URLParam(r, "id")
	if err := h.store.UpdateAlertStatus(r.Context(), id, status); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			httpx.WriteError(w, http.StatusNotFound, errors.New("alert not found"))
			return
		}
		httpx.WriteError(w, http.StatusInternalServerError, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"id": id, "status": status})
}

func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.store.DashboardSummary(r.Context())
	if err != nil {
		httpx.WriteError(w, http.StatusInternalServerError, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, summary)
}

func (h *Handler) timeSeries(w http.ResponseWriter, r *http.Request) {
	points, err := h.store.DashboardTimeSeries(r.Context(), httpx.QueryInt(r, "hours", 24))
	if err != nil {
		httpx.WriteError(w, http.StatusInternalServerError, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"items": points})
}

func (h *Handler) hotspots(w http.ResponseWriter, r *http.Request) {
	hotspots, err := h.store.Hotspots(r.Context(), httpx.QueryInt(r, "hours", 24), httpx.QueryInt(r, "limit", 20))
	if err != nil {
		httpx.WriteError(w, http.StatusInternalServerError, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"items": hotspots})
}
