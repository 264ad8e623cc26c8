package domain

import "time"

// Product is the local projection of a catalog item. The catalog owns every field
// except TotalStock, which this service maintains as the sum of batch quantities.
type Product struct {
	ID               string    `db:"id" json:"id"`
	Name             string    `db:"name" json:"name"`
	ReorderThreshold int       `db:"reorder_threshold" json:"reorder_threshold"`
	TotalStock       int       `db:"total_stock" json:"total_stock"`
	IsActive         bool      `db:"is_active" json:"is_active"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

// BelowReorderThreshold reports whether total stock has dropped under the threshold
func (p *Product) BelowReorderThreshold() bool {
	return p.ReorderThreshold > 0 && p.TotalStock < p.ReorderThreshold
}
