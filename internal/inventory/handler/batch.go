package handler

import (
	"net/http"

	"github.com/medflow/pharmacy-inventory/internal/inventory/service"
	"github.com/medflow/pharmacy-inventory/pkg/actor"
	"github.com/medflow/pharmacy-inventory/pkg/httputil"
	"github.com/medflow/pharmacy-inventory/pkg/logger"
)

// BatchHandler handles batch endpoints
type BatchHandler struct {
	service *service.InventoryService
	logger  *logger.Logger
}

// NewBatchHandler creates a new batch handler
func NewBatchHandler(svc *service.InventoryService, log *logger.Logger) *BatchHandler {
	return &BatchHandler{
		service: svc,
		logger:  log,
	}
}

// Get gets a batch by ID
func (h *BatchHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	batch, err := h.service.GetBatch(r.Context(), id)
	if err != nil {
		httputil.Error(w, mapError(err))
		return
	}

	httputil.JSON(w, http.StatusOK, batch)
}

type adjustBatchRequest struct {
	Quantity *int   `json:"quantity" validate:"required"`
	Reason   string `json:"reason" validate:"max=500"`
}

// Adjust sets a batch's remaining quantity after a physical count
// POST /batches/{id}/adjust
func (h *BatchHandler) Adjust(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	var req adjustBatchRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(req); err != nil {
		httputil.Error(w, err)
		return
	}

	result, err := h.service.AdjustBatch(r.Context(), id, *req.Quantity, req.Reason, actor.IDFromContext(r.Context()))
	if err != nil {
		httputil.Error(w, mapError(err))
		return
	}

	httputil.JSON(w, http.StatusOK, result)
}
