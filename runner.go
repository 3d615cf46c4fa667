package slotfeed

import (
	"context"
	"time"
)

// Trigger paces a pipeline's Run loop: one cycle starts per value received
// from Fire. A fire arriving while a cycle is still running is not queued
// beyond the channel's own buffering; cycles never overlap.
//
// Closing the Fire channel ends the run cleanly. Stop must be safe to call
// more than once.
//
// The trigger package provides interval and directory-watch triggers.
type Trigger interface {
	// Fire returns the channel whose receives start cycles.
	Fire() <-chan time.Time

	// Stop ends the trigger and eventually closes the Fire channel.
	Stop()
}

// Run drives one cycle per trigger fire until the context is cancelled,
// the trigger's channel closes, or a cycle aborts. Cancellation and a
// closed trigger are clean stops and return nil; an abort stops the run
// and returns the cycle's error. The cursor always reflects the last
// committed cycle, so a stopped run resumes exactly where it left off.
//
// Run does not own the trigger; the caller stops it. Starter hooks run
// before the first cycle, Stopper hooks after the last, both detected on
// the connector and the sink at construction.
func (p *Pipeline) Run(ctx context.Context, trig Trigger) error {
	for _, s := range p.starters {
		ctx = s.Start(ctx)
	}

	err := p.runLoop(ctx, trig)

	for _, s := range p.stoppers {
		s.Stop(ctx, p.stats, err)
	}
	return err
}

func (p *Pipeline) runLoop(ctx context.Context, trig Trigger) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-trig.Fire():
			if !ok {
				return nil
			}
			if _, err := p.RunCycle(ctx); err != nil {
				if ctx.Err() != nil {
					// A stop request surfaces as an aborted cycle; the
					// cursor already reflects the last commit.
					return nil
				}
				return err
			}
		}
	}
}
