package clock

import (
	"time"
)

// Clock is the time source used for state timestamps.
type Clock interface {
	Now() time.Time
}

// RealClock implements Clock using the time package
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }
