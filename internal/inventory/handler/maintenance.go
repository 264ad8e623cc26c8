package handler

import (
	"net/http"

	"github.com/medflow/pharmacy-inventory/internal/inventory/service"
	"github.com/medflow/pharmacy-inventory/pkg/httputil"
	"github.com/medflow/pharmacy-inventory/pkg/logger"
)

// MaintenanceHandler exposes the maintenance sweep for operators
type MaintenanceHandler struct {
	service *service.InventoryService
	logger  *logger.Logger
}

// NewMaintenanceHandler creates a new maintenance handler
func NewMaintenanceHandler(svc *service.InventoryService, log *logger.Logger) *MaintenanceHandler {
	return &MaintenanceHandler{
		service: svc,
		logger:  log,
	}
}

// Sweep quarantines expired batches and prunes the audit log
// POST /maintenance/sweep
func (h *MaintenanceHandler) Sweep(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.RunMaintenanceSweep(r.Context())
	if err != nil {
		httputil.Error(w, mapError(err))
		return
	}

	h.logger.Info().
		Int("quarantined", report.Quarantined).
		Int("failed", report.Failed).
		Int64("pruned", report.Pruned).
		Msg("manual maintenance sweep")

	httputil.JSON(w, http.StatusOK, report)
}
