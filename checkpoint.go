package slotfeed

import "context"

// CheckpointStore persists cursors across process restarts.
//
// The pipeline calls Save once per committing cycle, after every slot has
// been delivered and before the in-memory cursor moves. A Save error
// aborts the cycle: the pipeline keeps its previous cursor and the next
// cycle redoes the same slots. That ordering makes delivery at-least-once
// across crashes, never at-most-once; sinks that cannot tolerate replays
// should write idempotently.
//
// Load is called once, before the first cycle of a pipeline's life. It
// returns ok=false for a fresh start, in which case the pipeline begins
// from the cursor given to WithCursor (or the zero cursor, which admits
// everything).
//
// instanceID namespaces cursors so several pipelines can share one store.
// It defaults to DefaultInstanceID and is set per pipeline with
// WithInstanceID.
//
// Implementations must persist the watermark and the complete name set;
// dropping names silently re-admits their slots after a restart. The
// store must be durable by the time Save returns — buffer-and-flush-later
// breaks crash recovery.
//
// [checkpoint/filestore] and [checkpoint/pebblestore] provide ready-made
// implementations. Cursor's JSON form exists for stores like pebblestore
// that persist opaque values.
type CheckpointStore interface {
	// Save durably replaces the cursor for instanceID.
	Save(ctx context.Context, instanceID string, cur Cursor) error

	// Load retrieves the cursor for instanceID. ok is false when no
	// cursor has ever been saved.
	Load(ctx context.Context, instanceID string) (cur Cursor, ok bool, err error)

	// Delete removes the cursor for instanceID, so the next run starts
	// fresh. Deleting an absent cursor is not an error.
	Delete(ctx context.Context, instanceID string) error
}
