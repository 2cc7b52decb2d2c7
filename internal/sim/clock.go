package sim

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// Clock is the time source used by the scheduler and simulator. Tests drive
// it with clockwork.NewFakeClockAt.
type Clock = clockwork.Clock

type utcClock struct {
	clockwork.Clock
}

func (c utcClock) Now() time.Time { return c.Clock.Now().UTC() }

// RealClock returns the wall clock in UTC.
func RealClock() Clock { return utcClock{clockwork.NewRealClock()} }
