package handler

import (
	"net/http"
)

// MetricsExposer serves collected metrics in an exposition format.
type MetricsExposer interface {
	Handler() http.Handler
}

// MetricsHandler exposes application metrics for scraping.
type MetricsHandler struct {
	exposer MetricsExposer
}

// NewMetricsHandler creates a new MetricsHandler. exposer may be nil.
func NewMetricsHandler(exposer MetricsExposer) *MetricsHandler {
	return &MetricsHandler{exposer: exposer}
}

// Metrics serves GET /metrics, or 503 when no exposer is configured.
func (h *MetricsHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	if h.exposer == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	h.exposer.Handler().ServeHTTP(w, r)
}
