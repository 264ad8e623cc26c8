package handler

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/medflow/pharmacy-inventory/internal/inventory/domain"
	"github.com/medflow/pharmacy-inventory/internal/inventory/service"
	"github.com/medflow/pharmacy-inventory/pkg/errors"
	"github.com/medflow/pharmacy-inventory/pkg/httputil"
	"github.com/medflow/pharmacy-inventory/pkg/logger"
)

// AuditHandler handles audit log HTTP endpoints
type AuditHandler struct {
	service *service.InventoryService
	logger  *logger.Logger
}

// NewAuditHandler creates a new audit handler
func NewAuditHandler(svc *service.InventoryService, log *logger.Logger) *AuditHandler {
	return &AuditHandler{
		service: svc,
		logger:  log,
	}
}

// List returns audit entries oldest first
// GET /audit?product_id=&batch_id=&reference_id=&action=&page=&per_page=
func (h *AuditHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := domain.AuditFilter{
		ReferenceID: q.Get("reference_id"),
	}
	filter.Page, _ = strconv.Atoi(q.Get("page"))
	filter.PerPage, _ = strconv.Atoi(q.Get("per_page"))

	details := map[string]string{}
	for field, dst := range map[string]*string{
		"product_id": &filter.ProductID,
		"batch_id":   &filter.BatchID,
	} {
		raw := q.Get(field)
		if raw == "" {
			continue
		}
		if _, err := uuid.Parse(raw); err != nil {
			details[field] = "must be a valid UUID"
			continue
		}
		*dst = raw
	}
	if raw := q.Get("action"); raw != "" {
		action, err := domain.ParseAuditAction(raw)
		if err != nil {
			details["action"] = err.Error()
		}
		filter.Action = action
	}
	if len(details) > 0 {
		httputil.Error(w, errors.Validation(details))
		return
	}

	filter.Normalize()
	entries, err := h.service.ListAudit(r.Context(), filter)
	if err != nil {
		httputil.Error(w, mapError(err))
		return
	}

	httputil.JSONWithMeta(w, http.StatusOK, entries, &httputil.Meta{
		Page:    filter.Page,
		PerPage: filter.PerPage,
	})
}
