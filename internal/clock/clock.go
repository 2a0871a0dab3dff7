// Package clock provides the time source used for every expiry comparison
// in the gallery subsystem, so tests can substitute a fixed instant.
package clock

import "time"

// Clock returns the current time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// System returns a Clock backed by time.Now.
func System() Clock { return systemClock{} }
