package domain

import (
	"fmt"
	"time"
)

// Status is the lifecycle state of a batch
type Status string

const (
	StatusActive       Status = "active"
	StatusExpiringSoon Status = "expiring_soon"
	StatusExpired      Status = "expired"
	StatusDepleted     Status = "depleted"
	StatusQuarantined  Status = "quarantined"
)

// ExpiringSoonDays is the look-ahead window for StatusExpiringSoon
const ExpiringSoonDays = 30

// AllStatuses lists every status in display order
var AllStatuses = []Status{StatusActive, StatusExpiringSoon, StatusExpired, StatusDepleted, StatusQuarantined}

// ParseStatus converts user input into a Status. Matching is exact: statuses are
// lower-case snake_case everywhere.
func ParseStatus(s string) (Status, error) {
	for _, st := range AllStatuses {
		if string(st) == s {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown batch status %q", s)
}

// Classify derives the status of a batch from its remaining quantity and expiry.
// Rules apply in order: depleted, expired, expiring soon, active. A nil expiry
// never expires. Quarantine is never derived here.
func Classify(remaining int, expiry *time.Time, today time.Time) Status {
	if remaining == 0 {
		return StatusDepleted
	}
	if expiry == nil {
		return StatusActive
	}

	exp := DateOf(*expiry)
	day := DateOf(today)
	switch {
	case exp.Before(day):
		return StatusExpired
	case !exp.After(day.AddDate(0, 0, ExpiringSoonDays)):
		return StatusExpiringSoon
	default:
		return StatusActive
	}
}

// DateOf truncates t to midnight UTC of its calendar date in t's own location.
// Expiry dates are calendar dates, so all comparisons happen on this form.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Today returns the calendar date of now in loc
func Today(now time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return DateOf(now.In(loc))
}
