package service

import (
	"context"

	"github.com/medflow/pharmacy-inventory/internal/inventory/domain"
	"github.com/medflow/pharmacy-inventory/internal/inventory/repository"
)

// AuditLog serves traceability reads over the append-only audit log
type AuditLog struct {
	store repository.Store
}

// NewAuditLog creates a new audit log reader
func NewAuditLog(store repository.Store) *AuditLog {
	return &AuditLog{store: store}
}

// List lists audit entries matching filter, oldest first
func (a *AuditLog) List(ctx context.Context, filter domain.AuditFilter) ([]*domain.AuditEntry, error) {
	filter.Normalize()
	entries, err := a.store.ListAudit(ctx, filter)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []*domain.AuditEntry{}
	}
	return entries, nil
}
