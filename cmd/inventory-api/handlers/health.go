package handlers

import (
	"net/http"

	"github.com/spherical-ai/spherical/libs/inventory-engine/internal/observability"
)

// HealthHandler serves liveness, readiness and the reference catalog.
type HealthHandler struct {
	logger  *observability.Logger
	service InventoryService
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(logger *observability.Logger, service InventoryService) *HealthHandler {
	return &HealthHandler{logger: logger, service: service}
}

// Health handles GET /health.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": observability.ServiceName,
	})
}

// Ready handles GET /ready. It reports 503 until the catalog is loaded.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	if !h.service.Ready() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":  "not_ready",
			"catalog": false,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ready",
		"catalog": true,
	})
}

// Catalog handles GET /api/v1/catalog.
func (h *HealthHandler) Catalog(w http.ResponseWriter, r *http.Request) {
	view := h.service.Catalog()
	status := http.StatusOK
	if !view.Ready {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, view)
}
