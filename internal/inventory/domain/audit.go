package domain

import (
	"fmt"
	"time"
)

// AuditAction is the kind of quantity-changing event recorded in the audit log
type AuditAction string

const (
	ActionReceipt          AuditAction = "receipt"
	ActionSaleDeduction    AuditAction = "sale_deduction"
	ActionManualAdjustment AuditAction = "manual_adjustment"
	ActionQuarantine       AuditAction = "quarantine"
)

// ParseAuditAction converts user input into an AuditAction
func ParseAuditAction(s string) (AuditAction, error) {
	switch a := AuditAction(s); a {
	case ActionReceipt, ActionSaleDeduction, ActionManualAdjustment, ActionQuarantine:
		return a, nil
	}
	return "", fmt.Errorf("unknown audit action %q", s)
}

// AuditEntry is an immutable record of one quantity change. BatchID is nil for
// product-level summary rows.
type AuditEntry struct {
	ID             string      `db:"id" json:"id"`
	ProductID      string      `db:"product_id" json:"product_id"`
	BatchID        *string     `db:"batch_id" json:"batch_id,omitempty"`
	Delta          int         `db:"delta" json:"delta"`
	QuantityBefore int         `db:"quantity_before" json:"quantity_before"`
	QuantityAfter  int         `db:"quantity_after" json:"quantity_after"`
	Action         AuditAction `db:"action" json:"action"`
	Reason         *string     `db:"reason" json:"reason,omitempty"`
	ActorID        string      `db:"actor_id" json:"actor_id"`
	ReferenceID    *string     `db:"reference_id" json:"reference_id,omitempty"`
	CreatedAt      time.Time   `db:"created_at" json:"created_at"`
}

// NewAuditEntry builds an entry whose delta is derived from before/after, so the
// after = before + delta invariant holds by construction.
func NewAuditEntry(productID string, batchID *string, before, after int, action AuditAction, actorID string) *AuditEntry {
	return &AuditEntry{
		ProductID:      productID,
		BatchID:        batchID,
		Delta:          after - before,
		QuantityBefore: before,
		QuantityAfter:  after,
		Action:         action,
		ActorID:        actorID,
	}
}

// WithReason sets the free-text reason
func (e *AuditEntry) WithReason(reason string) *AuditEntry {
	if reason != "" {
		e.Reason = &reason
	}
	return e
}

// WithReference sets the external reference id
func (e *AuditEntry) WithReference(referenceID string) *AuditEntry {
	if referenceID != "" {
		e.ReferenceID = &referenceID
	}
	return e
}

// AuditFilter narrows audit log reads. Zero values mean "any".
type AuditFilter struct {
	ProductID   string
	BatchID     string
	ReferenceID string
	Action      AuditAction
	Page        int
	PerPage     int
}

// Normalize clamps paging to sane bounds
func (f *AuditFilter) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PerPage < 1 || f.PerPage > 500 {
		f.PerPage = 100
	}
}
