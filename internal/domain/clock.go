package domain

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// clock is a package-level time source so tests can freeze time via SetClock.
var clock = clockwork.NewRealClock()

// location is the wall-clock zone opening hours are expressed in.
var location = time.UTC

// SetClock swaps the time source for status evaluation. Pass nil to reset to real time.
func SetClock(c clockwork.Clock) {
	if c == nil {
		clock = clockwork.NewRealClock()
		return
	}
	clock = c
}

// SetLocation sets the time zone clinic hours are evaluated in. Pass nil to reset to UTC.
func SetLocation(loc *time.Location) {
	if loc == nil {
		location = time.UTC
		return
	}
	location = loc
}

// Now returns the current time in the configured clinic time zone.
func Now() time.Time {
	return clock.Now().In(location)
}
