package slotfeed

import (
	"context"
	"io"
)

// Connector exposes a remote collection of dated content. This is the only
// required interface to implement; the pipeline drives everything else.
//
// Both operations must be read-only and idempotent: the pipeline retries
// them on failure, and after an aborted cycle the same slots are listed
// and fetched again. List should return every visible slot on every call,
// including ones already consumed — the cursor does the filtering.
//
// The order List returns slots in is the order the pipeline delivers them
// in, so connectors backed by sorted listings (object keys, directory
// entries) get deterministic delivery for free.
//
// A connector may additionally implement any of the optional interfaces,
// which the pipeline detects automatically:
//   - [MaxRetries], [RetryBackoff], [FetchWorkers], [Charset]: tuning
//     knobs, when the connector knows its source better than the caller
//   - [Starter], [Stopper]: lifecycle hooks around Run
type Connector interface {
	// List returns the currently visible slots. It is called once per
	// cycle, before any filtering.
	List(ctx context.Context) ([]Slot, error)

	// Fetch opens the content of one slot. The pipeline closes the
	// returned reader on every exit path. The stream may be gzip-framed;
	// the decoder handles that transparently.
	Fetch(ctx context.Context, s Slot) (io.ReadCloser, error)
}

// FetchResult is the decoded content of one slot, handed to the sink
// during commit.
//
// Bytes counts raw connector bytes, so a gzip slot reports its compressed
// size. Records equals len(Lines).
type FetchResult struct {
	Slot    Slot
	Lines   []string
	Bytes   int64
	Records int64
}
