package handler

import (
	"github.com/go-chi/chi/v5"
	"github.com/medflow/pharmacy-inventory/internal/inventory/service"
	"github.com/medflow/pharmacy-inventory/pkg/logger"
)

// Routes mounts the inventory API on r. Callers install middleware and the
// /api/v1/inventory prefix.
func Routes(r chi.Router, svc *service.InventoryService, log *logger.Logger) {
	products := NewProductHandler(svc, log)
	batches := NewBatchHandler(svc, log)
	allocations := NewAllocationHandler(svc, log)
	audit := NewAuditHandler(svc, log)
	maintenance := NewMaintenanceHandler(svc, log)

	r.Route("/products/{id}", func(r chi.Router) {
		r.Get("/", products.Get)
		r.Get("/batches", products.ListBatches)
		r.Post("/batches", products.ReceiveBatch)
		r.Post("/allocations/plan", allocations.Plan)
		r.Post("/sales", allocations.Sell)
	})

	r.Get("/batches/{id}", batches.Get)
	r.Post("/batches/{id}/adjust", batches.Adjust)

	r.Post("/allocations/apply", allocations.Apply)

	r.Get("/audit", audit.List)

	r.Post("/maintenance/sweep", maintenance.Sweep)
}
