// Package clock supplies the current instant to the engine.
package clock

import "time"

// Clock returns the current instant. The engine never calls time.Now
// directly so that tests can drive time explicitly.
type Clock interface {
	Now() time.Time
}

// System is the wall clock.
type System struct{}

func (System) Now() time.Time {
	return time.Now()
}

// Func adapts a function to Clock.
type Func func() time.Time

func (f Func) Now() time.Time {
	return f()
}
