package clock

import "time"

// Clock reads the current time in a testable manner.
type Clock interface {
	Now() time.Time
}

type RealtimeClock struct{}

func NewRealtimeClock() RealtimeClock {
	return RealtimeClock{}
}

func (RealtimeClock) Now() time.Time { return time.Now() }

// FixedClock always returns the same instant. It is used by the time source
// when serving a pinned time, and by tests.
type FixedClock struct {
	T time.Time
}

func (c FixedClock) Now() time.Time { return c.T }
