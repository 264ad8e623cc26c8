package domain

import (
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// MaxBatchQuantity is the largest quantity a batch column can hold
const MaxBatchQuantity = math.MaxInt32

// Batch is a discrete received lot of a product
type Batch struct {
	ID                string           `db:"id" json:"id"`
	ProductID         string           `db:"product_id" json:"product_id"`
	BatchNumber       string           `db:"batch_number" json:"batch_number"`
	QuantityRemaining int              `db:"quantity_remaining" json:"quantity_remaining"`
	QuantityOriginal  int              `db:"quantity_original" json:"quantity_original"`
	ExpiryDate        *time.Time       `db:"expiry_date" json:"expiry_date,omitempty"`
	ReceivedDate      time.Time        `db:"received_date" json:"received_date"`
	UnitCost          *decimal.Decimal `db:"unit_cost" json:"unit_cost,omitempty"`
	Supplier          *string          `db:"supplier" json:"supplier,omitempty"`
	Status            Status           `db:"status" json:"status"`
	CreatedAt         time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time        `db:"updated_at" json:"updated_at"`
}

// IsQuarantined reports whether the batch was explicitly quarantined
func (b *Batch) IsQuarantined() bool {
	return b.Status == StatusQuarantined
}

// EffectiveStatus returns the status shown to callers: the stored quarantine flag
// wins, everything else is derived from quantity and expiry.
func (b *Batch) EffectiveStatus(today time.Time) Status {
	if b.IsQuarantined() {
		return StatusQuarantined
	}
	return Classify(b.QuantityRemaining, b.ExpiryDate, today)
}

// Allocatable reports whether FEFO may draw from the batch
func (b *Batch) Allocatable() bool {
	return b.QuantityRemaining > 0 && !b.IsQuarantined()
}

// StoredStatusFor returns the status to persist after a quantity change.
// Quarantine is sticky; otherwise only depleted/active are cached.
func StoredStatusFor(current Status, remaining int) Status {
	if current == StatusQuarantined {
		return StatusQuarantined
	}
	if remaining == 0 {
		return StatusDepleted
	}
	return StatusActive
}

// FEFOLess orders batches by expiry ascending with undated batches last, then by
// creation time, then by id so the order is total and stable.
func FEFOLess(a, b *Batch) bool {
	switch {
	case a.ExpiryDate == nil && b.ExpiryDate != nil:
		return false
	case a.ExpiryDate != nil && b.ExpiryDate == nil:
		return true
	case a.ExpiryDate != nil && b.ExpiryDate != nil:
		ea, eb := DateOf(*a.ExpiryDate), DateOf(*b.ExpiryDate)
		if !ea.Equal(eb) {
			return ea.Before(eb)
		}
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.ID < b.ID
}

// SortFEFO sorts batches in place in FEFO order
func SortFEFO(batches []*Batch) {
	sort.SliceStable(batches, func(i, j int) bool {
		return FEFOLess(batches[i], batches[j])
	})
}
