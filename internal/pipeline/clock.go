package pipeline

import "github.com/jonboulle/clockwork"

// clock stamps readings and drives the refresh ticker.
var clock clockwork.Clock = clockwork.NewRealClock()

// SetClock replaces the refresh clock, e.g. with a clockwork.FakeClock in
// tests. nil restores wall time.
func SetClock(c clockwork.Clock) {
	if c == nil {
		c = clockwork.NewRealClock()
	}
	clock = c
}
