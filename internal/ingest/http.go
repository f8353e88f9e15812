package ingest

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/shiroonigami23-ui/supply-disruption-engine/internal/contracts"
	"github.com/shiroonigami23-ui/supply-disruption-engine/internal/httpx"
	"github.com/shiroonigami23-ui/supply-disruption-engine/internal/metrics"
)

const (
	defaultSimulateCount = 10
	maxSimulateCount     = 500
)

type Handler struct {
	publisher Publisher
	simulator *Simulator
	metrics   *metrics.Metrics
	logger    *zap.Logger
	now       func() time.Time
}

func NewHandler(pub Publisher, sim *Simulator, m *metrics.Metrics, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{publisher: pub, simulator: sim, metrics: m, logger: logger, now: time.Now}
}

func (h *Handler) Routes() http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)

	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, map[string]any{"ok": true, "service": "ingest"})
	})
	router.Post("/v1/disruptions", h.postDisruption)
	router.Post("/v1/simulate", h.simulate)
	return router
}

func (h *Handler) postDisruption(w http.ResponseWriter, r *http.Request) {
	var payload contracts.DisruptionEvent
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err)
		return
	}

	if err := Prepare(&payload, h.now()); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, ErrInvalidEvent) {
			status = http.StatusBadRequest
		}
		httpx.WriteError(w, status, err)
		return
	}

	if err := h.publisher.Publish(r.Context(), payload); err != nil {
		h.logger.Error("publish disruption failed", zap.String("key", payload.Key()), zap.Error(err))
		httpx.WriteError(w, http.StatusInternalServerError, err)
		return
	}
	h.observe(payload)

	httpx.WriteJSON(w, http.StatusAccepted, payload)
}

func (h *Handler) simulate(w http.ResponseWriter, r *http.Request) {
	body := struct {
		Count int `json:"count"`
	}{Count: defaultSimulateCount}
	_ = httpx.DecodeJSON(r, &body)

	if body.Count <= 0 {
		body.Count = defaultSimulateCount
	}
	if body.Count > maxSimulateCount {
		body.Count = maxSimulateCount
	}

	sent := 0
	for _, e := range h.simulator.Batch(body.Count) {
		if err := h.publisher.Publish(r.Context(), e); err != nil {
			h.logger.Warn("simulate publish failed", zap.Error(err))
			break
		}
		h.observe(e)
		sent++
	}

	httpx.WriteJSON(w, http.StatusAccepted, map[string]any{"requested": body.Count, "published": sent})
}

func (h *Handler) observe(e contracts.DisruptionEvent) {
	if h.metrics != nil {
		h.metrics.DisruptionsIngested.WithLabelValues(e.DataSource).Inc()
	}
}
