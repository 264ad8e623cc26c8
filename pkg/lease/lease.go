// Package lease provides short-lived mutual exclusion between service replicas.
package lease

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrNotHeld is returned by Release when the token no longer owns the key
var ErrNotHeld = errors.New("lease not held")

// Lease grants exclusive ownership of a key for at most ttl.
// Acquire returns ok=false without error when another holder owns the key.
type Lease interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (token string, ok bool, err error)
	Release(ctx context.Context, key, token string) error
}

type localEntry struct {
	token   string
	expires time.Time
}

// LocalLease is an in-process Lease for single-replica deployments and tests
type LocalLease struct {
	mu      sync.Mutex
	entries map[string]localEntry
	now     func() time.Time
}

// NewLocalLease creates a new in-process lease
func NewLocalLease() *LocalLease {
	return &LocalLease{
		entries: make(map[string]localEntry),
		now:     time.Now,
	}
}

func (l *LocalLease) Acquire(_ context.Context, key string, ttl time.Duration) (string, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if e, ok := l.entries[key]; ok && now.Before(e.expires) {
		return "", false, nil
	}

	token := uuid.New().String()
	l.entries[key] = localEntry{token: token, expires: now.Add(ttl)}
	return token, true, nil
}

func (l *LocalLease) Release(_ context.Context, key, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[key]
	if !ok || e.token != token {
		return ErrNotHeld
	}
	delete(l.entries, key)
	return nil
}
