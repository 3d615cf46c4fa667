package slotfeed

import "context"

// Starter is called once before Run begins driving cycles. Implement this
// interface on a connector or sink when you need setup work or an enriched
// context before the first listing.
//
// Use Starter for:
//   - Adding values to the context (request IDs, trace spans, logger fields)
//   - Recording the start time for elapsed-time metrics
//   - Acquiring resources that must be held for the run's lifetime
//
// The context returned by Start is the one every cycle of that run sees,
// and the one eventually passed to Stopper.Stop. When both the connector
// and the sink implement Starter, the connector's Start runs first and the
// sink's Start receives its returned context.
//
// Connectors that hold network sessions usually prefer lazy dialing inside
// List and Fetch over a Starter: dialing under the retry budget means a
// flaky remote end is retried like any other failure.
//
// Start is not called by RunCycle, only by Run.
type Starter interface {
	Start(ctx context.Context) context.Context
}

// Stopper is called once after Run returns, whether the run ended by
// cancellation, by a closed trigger, or by an aborted cycle. Implement
// this interface for cleanup, final logging, or metrics reporting.
//
// Use Stopper for:
//   - Closing network sessions or files opened during the run
//   - Logging final stats
//   - Reporting success/failure to an observability system
//
// The err parameter is the same value Run returns: nil for a clean stop,
// or the abort error of the cycle that ended the run.
//
// Example:
//
//	func (s *mySink) Stop(ctx context.Context, stats *slotfeed.Stats, err error) {
//	    if err != nil {
//	        slog.ErrorContext(ctx, "ingestion failed", "error", err, "stats", stats)
//	        return
//	    }
//	    slog.InfoContext(ctx, "ingestion stopped", "stats", stats)
//	}
type Stopper interface {
	Stop(ctx context.Context, stats *Stats, err error)
}
