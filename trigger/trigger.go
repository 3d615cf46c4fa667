// Package trigger provides pacing for a pipeline's Run loop: a fixed
// interval and a directory watcher. Both satisfy the slotfeed.Trigger
// interface.
package trigger

import (
	"sync"
	"time"
)

// Interval fires immediately and then once per period. Fires that arrive
// while the consumer is busy coalesce instead of queueing, so a cycle that
// outlasts the period is followed by one cycle, not a burst.
type Interval struct {
	ch   chan time.Time
	stop chan struct{}
	once sync.Once
}

// NewInterval starts an interval trigger. Periods below one second are
// raised to one second.
func NewInterval(every time.Duration) *Interval {
	if every < time.Second {
		every = time.Second
	}
	t := &Interval{
		ch:   make(chan time.Time, 1),
		stop: make(chan struct{}),
	}
	go t.run(every)
	return t
}

func (t *Interval) run(every time.Duration) {
	defer close(t.ch)

	// Immediate first fire so a fresh pipeline does not idle a full
	// period before its first cycle.
	select {
	case t.ch <- time.Now():
	case <-t.stop:
		return
	}

	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case now := <-ticker.C:
			select {
			case t.ch <- now:
			case <-t.stop:
				return
			}
		case <-t.stop:
			return
		}
	}
}

// Fire returns the channel that paces the run loop.
func (t *Interval) Fire() <-chan time.Time { return t.ch }

// Stop ends the trigger and closes the fire channel. Safe to call more
// than once.
func (t *Interval) Stop() {
	t.once.Do(func() { close(t.stop) })
}
