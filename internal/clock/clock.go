// Package clock abstracts the time source so the tick loop and session
// expiry can be driven deterministically in tests
package clock

import "time"

// Clock is the time source used by the tick loop and the session table
type Clock interface {
	// Now returns the current time
	Now() time.Time

	// After returns a channel that receives the current time once d has
	// elapsed. If d <= 0 the channel receives immediately
	After(d time.Duration) <-chan time.Time
}

// Real returns a Clock backed by the time package
func Real() Clock { return realClock{} }

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }
