package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/medflow/pharmacy-inventory/internal/inventory/domain"
	"github.com/medflow/pharmacy-inventory/pkg/errors"
)

// Error codes returned by the inventory API
const (
	CodeInvalidQuantity   = "INVALID_QUANTITY"
	CodeNegativeQuantity  = "NEGATIVE_QUANTITY"
	CodeInvalidCost       = "INVALID_COST"
	CodeInvalidPlan       = "INVALID_PLAN"
	CodeReasonRequired    = "REASON_REQUIRED"
	CodeProductNotFound   = "PRODUCT_NOT_FOUND"
	CodeBatchNotFound     = "BATCH_NOT_FOUND"
	CodeInsufficientStock = "INSUFFICIENT_STOCK"
	CodeStockChanged      = "STOCK_CHANGED"
)

// mapError converts stock engine errors into API errors. Unknown errors are
// returned unchanged and rendered as 500.
func mapError(err error) error {
	var appErr *errors.AppError
	if errors.As(err, &appErr) {
		return err
	}

	var insufficient *domain.InsufficientStockError
	if errors.As(err, &insufficient) {
		return errors.Wrap(err, CodeInsufficientStock, "insufficient stock", http.StatusConflict).
			WithDetails(map[string]string{
				"available": strconv.Itoa(insufficient.Available),
				"requested": strconv.Itoa(insufficient.Requested),
			})
	}

	var changed *domain.ConcurrentModificationError
	if errors.As(err, &changed) {
		return errors.Wrap(err, CodeStockChanged, domain.ErrConcurrentModification.Error(), http.StatusConflict).
			WithDetails(map[string]string{"batch_id": changed.BatchID})
	}

	switch {
	case errors.Is(err, domain.ErrInvalidQuantity):
		return errors.Wrap(err, CodeInvalidQuantity, "quantity is not valid", http.StatusBadRequest)
	case errors.Is(err, domain.ErrNegativeQuantity):
		return errors.Wrap(err, CodeNegativeQuantity, "quantity must not be negative", http.StatusBadRequest)
	case errors.Is(err, domain.ErrInvalidCost):
		return errors.Wrap(err, CodeInvalidCost, domain.ErrInvalidCost.Error(), http.StatusBadRequest)
	case errors.Is(err, domain.ErrInvalidPlan):
		return errors.Wrap(err, CodeInvalidPlan, domain.ErrInvalidPlan.Error(), http.StatusBadRequest)
	case errors.Is(err, domain.ErrReasonRequired):
		return errors.Wrap(err, CodeReasonRequired, domain.ErrReasonRequired.Error(), http.StatusBadRequest)
	case errors.Is(err, domain.ErrProductNotFound):
		return errors.Wrap(err, CodeProductNotFound, domain.ErrProductNotFound.Error(), http.StatusNotFound)
	case errors.Is(err, domain.ErrBatchNotFound):
		return errors.Wrap(err, CodeBatchNotFound, domain.ErrBatchNotFound.Error(), http.StatusNotFound)
	case errors.Is(err, domain.ErrDuplicateBatchNumber):
		return errors.Wrap(err, "CONFLICT", domain.ErrDuplicateBatchNumber.Error(), http.StatusConflict)
	}

	return err
}

// pathID reads a UUID path parameter
func pathID(r *http.Request, name string) (string, error) {
	raw := chi.URLParam(r, name)
	id, err := uuid.Parse(raw)
	if err != nil {
		return "", errors.BadRequest("invalid " + name)
	}
	return id.String(), nil
}
