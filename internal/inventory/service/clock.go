package service

import (
	"time"

	"github.com/medflow/pharmacy-inventory/internal/inventory/domain"
)

// Clock decides what "now" and "today" are for expiry checks
type Clock struct {
	Now      func() time.Time
	Location *time.Location
}

// SystemClock uses the wall clock in loc
func SystemClock(loc *time.Location) Clock {
	return Clock{Now: time.Now, Location: loc}
}

// Today returns the current calendar date in the clock's location
func (c Clock) Today() time.Time {
	return domain.Today(c.now(), c.Location)
}

func (c Clock) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}
