package flushz

import "time"

type timerKind uint8

const (
	burstTimer timerKind = iota
	silenceTimer
)

func (k timerKind) String() string {
	if k == burstTimer {
		return "burst"
	}
	return "silence"
}

func (k timerKind) trigger() FlushTrigger {
	if k == burstTimer {
		return TriggerBurst
	}
	return TriggerSilence
}

// timerFire is posted by a timer callback to the goroutine owning the batch.
type timerFire struct {
	kind timerKind
	gen  uint64
}

// flushTimer holds at most one outstanding one-shot handle. Every arm and
// cancel advances gen, so a fire posted by a superseded handle never matches.
type flushTimer struct {
	timer Timer
	gen   uint64
	kind  timerKind
}

// arm cancels the outstanding handle and schedules a new fire after d.
// The callback gives up once done is closed.
func (t *flushTimer) arm(clock Clock, d time.Duration, fires chan<- timerFire, done <-chan struct{}) {
	t.cancel()

	fire := timerFire{kind: t.kind, gen: t.gen}
	t.timer = clock.AfterFunc(d, func() {
		select {
		case fires <- fire:
		case <-done:
		}
	})
}

// cancel is idempotent.
func (t *flushTimer) cancel() {
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	t.gen++
}

func (t *flushTimer) armed() bool {
	return t.timer != nil
}

// current reports whether f came from the outstanding handle.
func (t *flushTimer) current(f timerFire) bool {
	return t.timer != nil && f.kind == t.kind && f.gen == t.gen
}
