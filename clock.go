package flushz

import "github.com/zoobzio/clockz"

// Clock is the scheduler driving the burst and silence timers.
// Any clockz.Clock works, including clockz.NewFakeClock for tests.
type Clock = clockz.Clock

// Timer is a cancellable one-shot handle returned by Clock.AfterFunc.
type Timer = clockz.Timer

// RealClock is the default Clock using standard time.
var RealClock Clock = clockz.RealClock
