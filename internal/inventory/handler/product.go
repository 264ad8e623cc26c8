package handler

import (
	"net/http"
	"time"

	"github.com/medflow/pharmacy-inventory/internal/inventory/domain"
	"github.com/medflow/pharmacy-inventory/internal/inventory/service"
	"github.com/medflow/pharmacy-inventory/pkg/actor"
	"github.com/medflow/pharmacy-inventory/pkg/errors"
	"github.com/medflow/pharmacy-inventory/pkg/httputil"
	"github.com/medflow/pharmacy-inventory/pkg/logger"
	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

// ProductHandler handles product stock endpoints
type ProductHandler struct {
	service *service.InventoryService
	logger  *logger.Logger
}

// NewProductHandler creates a new product handler
func NewProductHandler(svc *service.InventoryService, log *logger.Logger) *ProductHandler {
	return &ProductHandler{
		service: svc,
		logger:  log,
	}
}

// Get returns a product with its current total stock
// GET /products/{id}
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	product, err := h.service.GetProduct(r.Context(), id)
	if err != nil {
		httputil.Error(w, mapError(err))
		return
	}

	httputil.JSON(w, http.StatusOK, product)
}

// ListBatches lists a product's batches in FEFO order, optionally filtered by status
// GET /products/{id}/batches?status=
func (h *ProductHandler) ListBatches(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	var status domain.Status
	if raw := r.URL.Query().Get("status"); raw != "" {
		status, err = domain.ParseStatus(raw)
		if err != nil {
			httputil.Error(w, errors.Validation(map[string]string{"status": err.Error()}))
			return
		}
	}

	batches, err := h.service.ListBatches(r.Context(), id, status)
	if err != nil {
		httputil.Error(w, mapError(err))
		return
	}

	httputil.JSON(w, http.StatusOK, batches)
}

type receiveBatchRequest struct {
	Quantity     int              `json:"quantity"`
	ExpiryDate   string           `json:"expiry_date" validate:"omitempty,datetime=2006-01-02"`
	BatchNumber  string           `json:"batch_number" validate:"max=64"`
	CostPerUnit  *decimal.Decimal `json:"cost_per_unit"`
	Supplier     *string          `json:"supplier" validate:"omitempty,max=255"`
	ReceivedDate string           `json:"received_date" validate:"omitempty,datetime=2006-01-02"`
}

// ReceiveBatch records a goods receipt as a new batch
// POST /products/{id}/batches
func (h *ProductHandler) ReceiveBatch(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	var req receiveBatchRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(req); err != nil {
		httputil.Error(w, err)
		return
	}

	expiry, err := parseDate("expiry_date", req.ExpiryDate)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	received, err := parseDate("received_date", req.ReceivedDate)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	batch, err := h.service.ReceiveBatch(r.Context(), service.ReceiveBatchInput{
		ProductID:    id,
		Quantity:     req.Quantity,
		ExpiryDate:   expiry,
		BatchNumber:  req.BatchNumber,
		CostPerUnit:  req.CostPerUnit,
		Supplier:     req.Supplier,
		ReceivedDate: received,
	}, actor.IDFromContext(r.Context()))
	if err != nil {
		httputil.Error(w, mapError(err))
		return
	}

	httputil.Created(w, batch)
}

// parseDate reads an optional YYYY-MM-DD field
func parseDate(field, raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return nil, errors.Validation(map[string]string{field: "must be a date in YYYY-MM-DD format"})
	}
	return &t, nil
}
