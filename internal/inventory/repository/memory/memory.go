// Package memory is an in-process implementation of repository.Store used by tests
// and local development. Transactions are serialised by a single mutex and work
// on a copy of the state that replaces the committed state only on success.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/medflow/pharmacy-inventory/internal/inventory/domain"
	"github.com/medflow/pharmacy-inventory/internal/inventory/repository"
)

type state struct {
	products  map[string]domain.Product
	batches   map[string]domain.Batch
	audit     []domain.AuditEntry
	sequences map[string]int
}

func newState() *state {
	return &state{
		products:  make(map[string]domain.Product),
		batches:   make(map[string]domain.Batch),
		sequences: make(map[string]int),
	}
}

// clone copies the maps and slices. Pointer fields inside values are never
// mutated in place, so sharing them is safe.
func (st *state) clone() *state {
	c := &state{
		products:  make(map[string]domain.Product, len(st.products)),
		batches:   make(map[string]domain.Batch, len(st.batches)),
		audit:     make([]domain.AuditEntry, len(st.audit)),
		sequences: make(map[string]int, len(st.sequences)),
	}
	for k, v := range st.products {
		c.products[k] = v
	}
	for k, v := range st.batches {
		c.batches[k] = v
	}
	copy(c.audit, st.audit)
	for k, v := range st.sequences {
		c.sequences[k] = v
	}
	return c
}

// Store implements repository.Store in memory
type Store struct {
	writeMu sync.Mutex // held for the whole of every write, tx or not
	mu      sync.RWMutex
	state   *state

	clockMu sync.Mutex
	now     func() time.Time
	last    time.Time
}

// Option configures a Store
type Option func(*Store)

// WithClock overrides the time source used for created_at/updated_at
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New creates an empty store
func New(opts ...Option) *Store {
	s := &Store{
		state: newState(),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ repository.Store = (*Store)(nil)

// timestamp returns strictly increasing times so creation order is observable
func (s *Store) timestamp() time.Time {
	s.clockMu.Lock()
	defer s.clockMu.Unlock()

	t := s.now().UTC()
	if !t.After(s.last) {
		t = s.last.Add(time.Microsecond)
	}
	s.last = t
	return t
}

func (s *Store) GetProduct(_ context.Context, id string) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getProduct(s.state, id)
}

func (s *Store) UpsertProduct(_ context.Context, p *domain.Product) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.state.products[p.ID]; ok {
		p.TotalStock = existing.TotalStock
	} else {
		p.TotalStock = 0
	}
	p.UpdatedAt = s.timestamp()
	s.state.products[p.ID] = *p
	return nil
}

func (s *Store) DeactivateProduct(_ context.Context, id string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.state.products[id]
	if !ok {
		return nil
	}
	p.IsActive = false
	p.UpdatedAt = s.timestamp()
	s.state.products[id] = p
	return nil
}

func (s *Store) GetBatch(_ context.Context, id string) (*domain.Batch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getBatch(s.state, id)
}

func (s *Store) ListBatches(_ context.Context, productID string) ([]*domain.Batch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.Batch
	for _, b := range s.state.batches {
		if b.ProductID == productID {
			b := b
			out = append(out, &b)
		}
	}
	domain.SortFEFO(out)
	return out, nil
}

func (s *Store) ListExpiredCandidates(_ context.Context, today time.Time) ([]*domain.Batch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	day := domain.DateOf(today)
	var out []*domain.Batch
	for _, b := range s.state.batches {
		if b.ExpiryDate == nil || b.IsQuarantined() || b.QuantityRemaining == 0 {
			continue
		}
		if domain.DateOf(*b.ExpiryDate).Before(day) {
			b := b
			out = append(out, &b)
		}
	}
	domain.SortFEFO(out)
	return out, nil
}

func (s *Store) ListAudit(_ context.Context, filter domain.AuditFilter) ([]*domain.AuditEntry, error) {
	filter.Normalize()

	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []*domain.AuditEntry
	for _, e := range s.state.audit {
		if filter.ProductID != "" && e.ProductID != filter.ProductID {
			continue
		}
		if filter.BatchID != "" && (e.BatchID == nil || *e.BatchID != filter.BatchID) {
			continue
		}
		if filter.ReferenceID != "" && (e.ReferenceID == nil || *e.ReferenceID != filter.ReferenceID) {
			continue
		}
		if filter.Action != "" && e.Action != filter.Action {
			continue
		}
		e := e
		matched = append(matched, &e)
	}

	start := (filter.Page - 1) * filter.PerPage
	if start >= len(matched) {
		return nil, nil
	}
	end := start + filter.PerPage
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], nil
}

func (s *Store) PruneAudit(_ context.Context, cutoff time.Time) (int64, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.state.audit[:0:0]
	var pruned int64
	for _, e := range s.state.audit {
		if e.CreatedAt.Before(cutoff) {
			pruned++
			continue
		}
		kept = append(kept, e)
	}
	s.state.audit = kept
	return pruned, nil
}

func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.RLock()
	work := s.state.clone()
	s.mu.RUnlock()

	if err := fn(ctx, &tx{store: s, state: work}); err != nil {
		return err
	}

	s.mu.Lock()
	s.state = work
	s.mu.Unlock()
	return nil
}

// Audit returns a copy of every committed audit entry in insertion order
func (s *Store) Audit() []domain.AuditEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.AuditEntry, len(s.state.audit))
	copy(out, s.state.audit)
	return out
}

func getProduct(st *state, id string) (*domain.Product, error) {
	p, ok := st.products[id]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	return &p, nil
}

func getBatch(st *state, id string) (*domain.Batch, error) {
	b, ok := st.batches[id]
	if !ok {
		return nil, domain.ErrBatchNotFound
	}
	return &b, nil
}

// tx operates on a private copy of the state. The store's write mutex is held for
// its whole lifetime, which stands in for row locks.
type tx struct {
	store *Store
	state *state
}

func (t *tx) GetProductForUpdate(_ context.Context, id string) (*domain.Product, error) {
	return getProduct(t.state, id)
}

func (t *tx) SetProductTotalStock(_ context.Context, id string, total int) error {
	p, ok := t.state.products[id]
	if !ok {
		return domain.ErrProductNotFound
	}
	if total < 0 {
		return domain.ErrNegativeQuantity
	}
	p.TotalStock = total
	p.UpdatedAt = t.store.timestamp()
	t.state.products[id] = p
	return nil
}

func (t *tx) SumProductStock(_ context.Context, productID string) (int, error) {
	total := 0
	for _, b := range t.state.batches {
		if b.ProductID == productID {
			total += b.QuantityRemaining
		}
	}
	return total, nil
}

func (t *tx) LockBatch(_ context.Context, id string) (*domain.Batch, error) {
	return getBatch(t.state, id)
}

func (t *tx) InsertBatch(_ context.Context, b *domain.Batch) error {
	if _, ok := t.state.products[b.ProductID]; !ok {
		return domain.ErrProductNotFound
	}
	for _, existing := range t.state.batches {
		if existing.ProductID == b.ProductID && existing.BatchNumber == b.BatchNumber {
			return domain.ErrDuplicateBatchNumber
		}
	}
	if b.QuantityRemaining < 0 || b.QuantityRemaining > b.QuantityOriginal {
		return domain.ErrInvalidQuantity
	}
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	now := t.store.timestamp()
	b.CreatedAt = now
	b.UpdatedAt = now
	t.state.batches[b.ID] = *b
	return nil
}

func (t *tx) SetBatchQuantity(_ context.Context, id string, quantity int) (*domain.Batch, error) {
	if quantity < 0 {
		return nil, domain.ErrNegativeQuantity
	}
	b, ok := t.state.batches[id]
	if !ok {
		return nil, domain.ErrBatchNotFound
	}
	if quantity > b.QuantityOriginal {
		return nil, domain.ErrInvalidQuantity
	}
	b.QuantityRemaining = quantity
	b.Status = domain.StoredStatusFor(b.Status, quantity)
	b.UpdatedAt = t.store.timestamp()
	t.state.batches[id] = b
	return &b, nil
}

func (t *tx) SetBatchStatus(_ context.Context, id string, status domain.Status) error {
	b, ok := t.state.batches[id]
	if !ok {
		return domain.ErrBatchNotFound
	}
	b.Status = status
	b.UpdatedAt = t.store.timestamp()
	t.state.batches[id] = b
	return nil
}

func (t *tx) InsertAudit(_ context.Context, e *domain.AuditEntry) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	e.CreatedAt = t.store.timestamp()
	t.state.audit = append(t.state.audit, *e)
	return nil
}

func (t *tx) NextBatchSequence(_ context.Context, day time.Time) (int, error) {
	key := day.Format("2006-01-02")
	t.state.sequences[key]++
	return t.state.sequences[key], nil
}
