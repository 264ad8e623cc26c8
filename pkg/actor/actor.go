// Package actor identifies who performs a stock mutation. The identity is supplied
// by the upstream gateway in request headers and is opaque to the stock engine; it
// is only recorded in the audit log.
package actor

import (
	"context"
	"net/http"
	"strings"
)

// Headers set by the gateway after authentication
const (
	HeaderUserID    = "X-User-ID"
	HeaderUserEmail = "X-User-Email"
	HeaderUserRole  = "X-User-Role"
)

// SystemID is the actor id recorded for scheduled and system-initiated work
const SystemID = "00000000-0000-0000-0000-000000000000"

// Actor represents the entity performing an action in the system
type Actor struct {
	ID       string `json:"id"`
	Email    string `json:"email,omitempty"`
	RoleName string `json:"role_name,omitempty"`
}

// String returns a string representation of the actor for logging
func (a *Actor) String() string {
	if a == nil || a.IsSystem() {
		return "system"
	}
	if a.Email == "" {
		return a.ID
	}
	return a.ID + " (" + a.Email + ")"
}

// IsSystem returns true if the actor represents the system
func (a *Actor) IsSystem() bool {
	return a == nil || a.ID == SystemID
}

type contextKey string

const actorContextKey contextKey = "actor"

// FromContext retrieves the Actor from the context.
// Returns nil if no actor is present.
func FromContext(ctx context.Context) *Actor {
	if ctx == nil {
		return nil
	}
	a, ok := ctx.Value(actorContextKey).(*Actor)
	if !ok {
		return nil
	}
	return a
}

// WithActor returns a new context with the Actor attached
func WithActor(ctx context.Context, a *Actor) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, actorContextKey, a)
}

// IDFromContext returns the actor id from ctx, falling back to SystemID
func IDFromContext(ctx context.Context) string {
	if a := FromContext(ctx); a != nil && a.ID != "" {
		return a.ID
	}
	return SystemID
}

// System returns an Actor representing the system itself.
// Use this for background jobs and scheduled tasks.
func System() *Actor {
	return &Actor{ID: SystemID, Email: "system@pharmacy.local"}
}

// FromRequest reads the gateway identity headers. It returns nil when no user id
// header is present.
func FromRequest(r *http.Request) *Actor {
	id := strings.TrimSpace(r.Header.Get(HeaderUserID))
	if id == "" {
		return nil
	}
	return &Actor{
		ID:       id,
		Email:    strings.TrimSpace(r.Header.Get(HeaderUserEmail)),
		RoleName: strings.TrimSpace(r.Header.Get(HeaderUserRole)),
	}
}
