package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func TestClassify(t *testing.T) {
	today := time.Date(2025, 1, 15, 14, 30, 0, 0, time.UTC)

	tests := []struct {
		name      string
		remaining int
		expiry    *time.Time
		want      Status
	}{
		{"zero quantity is depleted even if expired", 0, date(2024, 1, 1), StatusDepleted},
		{"zero quantity without expiry", 0, nil, StatusDepleted},
		{"no expiry never expires", 5, nil, StatusActive},
		{"expired yesterday", 5, date(2025, 1, 14), StatusExpired},
		{"expiring today is not yet expired", 5, date(2025, 1, 15), StatusExpiringSoon},
		{"expiring on day 30", 5, date(2025, 2, 14), StatusExpiringSoon},
		{"expiring on day 31 is active", 5, date(2025, 2, 15), StatusActive},
		{"far future", 5, date(2027, 6, 1), StatusActive},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.remaining, tt.expiry, today))
		})
	}
}

func TestClassify_IgnoresTimeOfDay(t *testing.T) {
	expiry := time.Date(2025, 1, 15, 23, 59, 0, 0, time.UTC)
	justAfterMidnight := time.Date(2025, 1, 16, 0, 1, 0, 0, time.UTC)

	assert.Equal(t, StatusExpired, Classify(1, &expiry, justAfterMidnight))
}

func TestToday_UsesLocation(t *testing.T) {
	berlin, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)

	// 23:30 UTC on Jan 14 is already Jan 15 in Berlin
	now := time.Date(2025, 1, 14, 23, 30, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC), Today(now, berlin))
	assert.Equal(t, time.Date(2025, 1, 14, 0, 0, 0, 0, time.UTC), Today(now, nil))
}

func TestParseStatus(t *testing.T) {
	for _, st := range AllStatuses {
		got, err := ParseStatus(string(st))
		require.NoError(t, err)
		assert.Equal(t, st, got)
	}

	_, err := ParseStatus("Active")
	assert.Error(t, err)
	_, err = ParseStatus("")
	assert.Error(t, err)
}

func TestBatch_EffectiveStatus(t *testing.T) {
	today := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)

	quarantined := &Batch{QuantityRemaining: 10, ExpiryDate: date(2030, 1, 1), Status: StatusQuarantined}
	assert.Equal(t, StatusQuarantined, quarantined.EffectiveStatus(today))
	assert.False(t, quarantined.Allocatable())

	expired := &Batch{QuantityRemaining: 10, ExpiryDate: date(2025, 1, 1), Status: StatusActive}
	assert.Equal(t, StatusExpired, expired.EffectiveStatus(today))
	assert.True(t, expired.Allocatable())

	depleted := &Batch{QuantityRemaining: 0, Status: StatusDepleted}
	assert.Equal(t, StatusDepleted, depleted.EffectiveStatus(today))
	assert.False(t, depleted.Allocatable())
}

func TestStoredStatusFor(t *testing.T) {
	assert.Equal(t, StatusQuarantined, StoredStatusFor(StatusQuarantined, 0))
	assert.Equal(t, StatusDepleted, StoredStatusFor(StatusActive, 0))
	assert.Equal(t, StatusActive, StoredStatusFor(StatusDepleted, 3))
}
