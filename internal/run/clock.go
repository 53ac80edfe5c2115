package run

import "time"

// Clock supplies timestamps for scenario and suite bookkeeping. The seam
// keeps run reports deterministic in tests.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns the wall clock.
func SystemClock() Clock { return systemClock{} }
