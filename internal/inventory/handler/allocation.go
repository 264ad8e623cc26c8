package handler

import (
	"net/http"

	"github.com/medflow/pharmacy-inventory/internal/inventory/domain"
	"github.com/medflow/pharmacy-inventory/internal/inventory/service"
	"github.com/medflow/pharmacy-inventory/pkg/actor"
	"github.com/medflow/pharmacy-inventory/pkg/httputil"
	"github.com/medflow/pharmacy-inventory/pkg/logger"
)

// AllocationHandler handles FEFO planning and sale deduction endpoints
type AllocationHandler struct {
	service *service.InventoryService
	logger  *logger.Logger
}

// NewAllocationHandler creates a new allocation handler
func NewAllocationHandler(svc *service.InventoryService, log *logger.Logger) *AllocationHandler {
	return &AllocationHandler{
		service: svc,
		logger:  log,
	}
}

type planRequest struct {
	Quantity int `json:"quantity"`
}

// Plan computes a FEFO allocation without changing stock
// POST /products/{id}/allocations/plan
func (h *AllocationHandler) Plan(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	var req planRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}

	plan, err := h.service.PlanAllocation(r.Context(), id, req.Quantity)
	if err != nil {
		httputil.Error(w, mapError(err))
		return
	}

	httputil.JSON(w, http.StatusOK, plan)
}

type applyRequest struct {
	Plan        *domain.AllocationPlan `json:"plan" validate:"required"`
	ReferenceID string                 `json:"reference_id" validate:"required,max=128"`
}

// Apply commits a previously computed plan
// POST /allocations/apply
func (h *AllocationHandler) Apply(w http.ResponseWriter, r *http.Request) {
	var req applyRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(req); err != nil {
		httputil.Error(w, err)
		return
	}

	result, err := h.service.ApplySaleAllocation(r.Context(), req.Plan, req.ReferenceID, actor.IDFromContext(r.Context()))
	if err != nil {
		httputil.Error(w, mapError(err))
		return
	}

	httputil.JSON(w, http.StatusOK, result)
}

type sellRequest struct {
	Quantity    int    `json:"quantity"`
	ReferenceID string `json:"reference_id" validate:"required,max=128"`
}

// Sell plans and applies a FEFO deduction in one call
// POST /products/{id}/sales
func (h *AllocationHandler) Sell(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	var req sellRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(req); err != nil {
		httputil.Error(w, err)
		return
	}

	result, err := h.service.Sell(r.Context(), id, req.Quantity, req.ReferenceID, actor.IDFromContext(r.Context()))
	if err != nil {
		httputil.Error(w, mapError(err))
		return
	}

	httputil.JSON(w, http.StatusOK, result)
}
