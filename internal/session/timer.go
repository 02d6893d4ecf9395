package session

import (
	"sync"
	"time"
)

// Ticker abstracts the tick source so countdowns can be driven
// deterministically in tests.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type realTicker struct {
	t *time.Ticker
}

func (r realTicker) C() <-chan time.Time { return r.t.C }
func (r realTicker) Stop()               { r.t.Stop() }

func newRealTicker(d time.Duration) Ticker {
	return realTicker{t: time.NewTicker(d)}
}

// Timer is a single countdown clock. At most one countdown is active per
// Timer at any time; Start stops any previous countdown first, and Stop is
// idempotent.
type Timer struct {
	newTicker func(d time.Duration) Ticker

	mu   sync.Mutex
	stop chan struct{}
}

func NewTimer() *Timer {
	return &Timer{newTicker: newRealTicker}
}

// NewTimerWithTicker is for tests that drive ticks by hand.
func NewTimerWithTicker(newTicker func(d time.Duration) Ticker) *Timer {
	return &Timer{newTicker: newTicker}
}

// Start begins a one-second countdown from initialSeconds. onTick fires
// once with the initial value for immediate display, then once per elapsed
// second with the decremented remainder. When the remainder reaches zero
// the countdown stops itself and onExpire fires exactly once; no further
// ticks follow.
func (t *Timer) Start(initialSeconds int, onTick func(remaining int), onExpire func()) {
	t.Stop()

	if onTick != nil {
		onTick(initialSeconds)
	}
	if initialSeconds <= 0 {
		if onExpire != nil {
			onExpire()
		}
		return
	}

	t.mu.Lock()
	stop := make(chan struct{})
	t.stop = stop
	t.mu.Unlock()

	ticker := t.newTicker(time.Second)
	go func() {
		defer ticker.Stop()
		remaining := initialSeconds
		for {
			select {
			case <-stop:
				return
			case <-ticker.C():
				// A tick racing Stop is dropped.
				select {
				case <-stop:
					return
				default:
				}
				remaining--
				if onTick != nil {
					onTick(remaining)
				}
				if remaining <= 0 {
					if t.expire(stop) && onExpire != nil {
						onExpire()
					}
					return
				}
			}
		}
	}()
}

// Stop cancels a running countdown. Safe to call on an already-stopped
// timer.
func (t *Timer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stop != nil {
		close(t.stop)
		t.stop = nil
	}
}

// expire marks the countdown stopped from inside the tick loop. It reports
// false when Stop (or a newer Start) already won the race, in which case
// onExpire must not fire.
func (t *Timer) expire(stop chan struct{}) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stop != stop {
		return false
	}
	close(t.stop)
	t.stop = nil
	return true
}
