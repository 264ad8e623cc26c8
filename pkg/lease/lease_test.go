package lease

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalLease(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	l := NewLocalLease()
	l.now = func() time.Time { return now }

	token, ok, err := l.Acquire(ctx, "sweep", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = l.Acquire(ctx, "sweep", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "second holder must be refused while the lease is live")

	_, ok, err = l.Acquire(ctx, "other", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok, "keys are independent")

	assert.ErrorIs(t, l.Release(ctx, "sweep", "wrong-token"), ErrNotHeld)
	require.NoError(t, l.Release(ctx, "sweep", token))

	_, ok, err = l.Acquire(ctx, "sweep", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLocalLease_Expires(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	l := NewLocalLease()
	l.now = func() time.Time { return now }

	stale, ok, err := l.Acquire(ctx, "sweep", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	now = now.Add(2 * time.Minute)
	_, ok, err = l.Acquire(ctx, "sweep", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	// the expired holder must not release the new holder's lease
	assert.ErrorIs(t, l.Release(ctx, "sweep", stale), ErrNotHeld)
}
