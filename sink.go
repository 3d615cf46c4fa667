package slotfeed

import "context"

// Sink receives the decoded slots of a committing cycle, one call per
// slot, in listing order. Deliver is only reached after every slot in the
// cycle has been fetched and decoded successfully; a Deliver error aborts
// the cycle before the cursor moves.
//
// Delivery is at-least-once across process crashes: a cycle that fails
// after partial delivery is redone from scratch next time. Sinks that
// cannot tolerate duplicates should deduplicate on (slot name, line
// number) or write idempotently.
//
// A sink may additionally implement [ProgressReporter], [Starter] or
// [Stopper].
type Sink interface {
	Deliver(ctx context.Context, res FetchResult) error
}

// SinkFunc adapts an ordinary function to the Sink interface.
type SinkFunc func(ctx context.Context, res FetchResult) error

// Deliver implements Sink by calling f.
func (f SinkFunc) Deliver(ctx context.Context, res FetchResult) error {
	return f(ctx, res)
}
