package handlers

import (
	"errors"
	"net/http"

	"github.com/slideshow/server/internal/observability"
	"github.com/slideshow/server/internal/services"
)

// MaintenanceHandler exposes the reference reconciler
type MaintenanceHandler struct {
	maintenance *services.MaintenanceService
}

// NewMaintenanceHandler creates a new MaintenanceHandler
func NewMaintenanceHandler(maintenance *services.MaintenanceService) *MaintenanceHandler {
	return &MaintenanceHandler{maintenance: maintenance}
}

// GetStatus returns the reconciler status
func (h *MaintenanceHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.maintenance.GetStatus())
}

// RunNow runs a reconciliation pass and returns the resulting status
func (h *MaintenanceHandler) RunNow(w http.ResponseWriter, r *http.Request) {
	status, err := h.maintenance.RunNow(r.Context())
	if err != nil {
		if errors.Is(err, services.ErrMaintenanceRunning) {
			writeError(w, http.StatusConflict, "Maintenance already running")
			return
		}
		observability.WithContext(r.Context()).WithError(err).Error("Maintenance run failed")
		writeError(w, http.StatusInternalServerError, "Maintenance run failed")
		return
	}

	writeJSON(w, http.StatusOK, status)
}
