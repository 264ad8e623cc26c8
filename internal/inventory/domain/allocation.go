package domain

import "time"

// AllocationLine is one (batch, amount) pair of a plan
type AllocationLine struct {
	BatchID     string     `json:"batch_id"`
	BatchNumber string     `json:"batch_number"`
	Quantity    int        `json:"quantity"`
	ExpiryDate  *time.Time `json:"expiry_date,omitempty"`
}

// AllocationPlan is the transient result of FEFO planning. It is never persisted;
// applying it re-validates every line against current batch quantities.
type AllocationPlan struct {
	ProductID         string           `json:"product_id"`
	RequestedQuantity int              `json:"requested_quantity"`
	Lines             []AllocationLine `json:"lines"`
}

// Total sums the quantities of all lines
func (p *AllocationPlan) Total() int {
	total := 0
	for _, l := range p.Lines {
		total += l.Quantity
	}
	return total
}

// Validate checks the plan is internally consistent before it is applied
func (p *AllocationPlan) Validate() error {
	if p == nil || p.ProductID == "" || p.RequestedQuantity <= 0 || len(p.Lines) == 0 {
		return ErrInvalidPlan
	}
	seen := make(map[string]struct{}, len(p.Lines))
	total := 0
	for _, l := range p.Lines {
		if l.BatchID == "" || l.Quantity <= 0 {
			return ErrInvalidPlan
		}
		// compared against what is left so the running total cannot overflow
		if l.Quantity > p.RequestedQuantity-total {
			return ErrInvalidPlan
		}
		if _, dup := seen[l.BatchID]; dup {
			return ErrInvalidPlan
		}
		seen[l.BatchID] = struct{}{}
		total += l.Quantity
	}
	if total != p.RequestedQuantity {
		return ErrInvalidPlan
	}
	return nil
}

// BatchDeduction is the per-batch breakdown returned for receipts and traceability
type BatchDeduction struct {
	BatchID        string     `json:"batch_id"`
	BatchNumber    string     `json:"batch_number"`
	Quantity       int        `json:"quantity"`
	ExpiryDate     *time.Time `json:"expiry_date,omitempty"`
	RemainingAfter int        `json:"remaining_after"`
}

// AllocationResult is returned after a plan has been applied
type AllocationResult struct {
	ProductID       string           `json:"product_id"`
	ReferenceID     string           `json:"reference_id"`
	TotalDeducted   int              `json:"total_deducted"`
	NewProductTotal int              `json:"new_product_total"`
	Batches         []BatchDeduction `json:"batches"`
}

// AdjustmentResult is returned after a manual adjustment
type AdjustmentResult struct {
	Batch           *Batch      `json:"batch"`
	Delta           int         `json:"delta"`
	NewProductTotal int         `json:"new_product_total"`
	Audit           *AuditEntry `json:"audit"`
}

// SweepReport summarises one maintenance sweep
type SweepReport struct {
	Quarantined int   `json:"quarantined"`
	Failed      int   `json:"failed"`
	Pruned      int64 `json:"pruned"`
}
