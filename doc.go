// Package slotfeed provides an incremental batch-ingestion pipeline for
// dated remote content.
//
// A connector exposes "slots" — named units of content such as daily dump
// files — and slotfeed repeatedly syncs the new ones into a sink. Each
// sync cycle lists the connector, filters the listing through a resumable
// cursor, fetches and decodes the eligible slots (gzip handled
// transparently), and commits them all or not at all. Restarts pick up
// exactly where the last committed cycle left off.
//
// # Quick Start
//
// Implement the required Connector interface:
//
//	type dumps struct{ base string }
//
//	func (d *dumps) List(ctx context.Context) ([]slotfeed.Slot, error) {
//	    // One slot per visible file, every call, already-consumed ones
//	    // included. Names carry dates: transactions-2024-03-01.csv.gz
//	    return d.listFiles(ctx)
//	}
//
//	func (d *dumps) Fetch(ctx context.Context, s slotfeed.Slot) (io.ReadCloser, error) {
//	    return d.open(ctx, s.Name)
//	}
//
// Hand it to a pipeline together with a sink and run cycles:
//
//	pipe := slotfeed.New(&dumps{base: base}, slotfeed.SinkFunc(
//	    func(ctx context.Context, res slotfeed.FetchResult) error {
//	        return warehouse.Append(ctx, res.Slot.Name, res.Lines)
//	    },
//	))
//
//	res, err := pipe.RunCycle(ctx)
//
// Or let a trigger pace it:
//
//	trig := trigger.NewInterval(15 * time.Minute)
//	defer trig.Stop()
//	err := pipe.Run(ctx, trig)
//
// Ready-made connectors live in the connector subpackages (local
// directories, HTTP manifests, S3 buckets, SFTP servers).
//
// # Cursor Semantics
//
// The cursor is a watermark plus the names already consumed at exactly
// that watermark. A slot is eligible when its timestamp is after the
// watermark, or equal to it with an unseen name. The name set is what lets
// several slots share one date: consuming region-a-2024-03-01.csv does not
// block region-b-2024-03-01.csv, and neither is ever consumed twice.
//
// Committing a cycle advances the watermark to the latest processed
// timestamp and records the names processed at it. Slots that later appear
// with older timestamps are skipped silently — backfills behind the
// watermark need a cursor reset.
//
// # Checkpointing
//
// Give the pipeline a CheckpointStore and the cursor survives restarts:
//
//	store, err := filestore.New("/var/lib/myjob")
//	...
//	pipe := slotfeed.New(conn, sink).
//	    WithStore(store).
//	    WithInstanceID("transactions")
//
// The store is written once per committing cycle, after delivery and
// before the in-memory cursor moves, which makes delivery at-least-once
// across crashes. Sinks that cannot tolerate a replayed cycle should write
// idempotently. The checkpoint subpackages provide a YAML file store and
// an embedded Pebble store.
//
// # Failure Model
//
// Listing and fetching are retried with a configurable budget; everything
// else fails fast. A cycle either commits completely or aborts with no
// delivered output and no cursor movement:
//
//   - a listing failure aborts before any fetch
//   - one slot failing to fetch (budget spent) or decode aborts the cycle,
//     discarding its sibling slots' fetched content
//   - a sink or checkpoint error during commit aborts the cycle
//
// Aborted work is redone on the next cycle. Errors carry their context:
//
//	var slotErr *slotfeed.SlotError
//	if errors.As(err, &slotErr) {
//	    slog.Error("bad slot", "slot", slotErr.Slot, "stage", slotErr.Stage)
//	}
//
// # Configuration
//
// Every knob follows the same pattern: a WithXxx builder method and a
// matching interface the connector (or sink) can implement. The builder
// always takes priority, defaults apply when neither is present.
//
//	pipe := slotfeed.New(conn, sink).
//	    WithMaxRetries(5).                 // retry budget per list/fetch
//	    WithRetryBackoff(2 * time.Second). // pause between attempts
//	    WithFetchWorkers(8).               // concurrent fetches per cycle
//	    WithCharset("utf-8").              // content encoding (IANA name)
//	    WithLogger(logger)
//
// Or implement the corresponding interfaces on the connector:
//
//	func (d *dumps) MaxRetries() int             { return 5 }
//	func (d *dumps) RetryBackoff() time.Duration { return 2 * time.Second }
//	func (d *dumps) FetchWorkers() int           { return 8 }
//	func (d *dumps) Charset() string             { return "utf-8" }
//
// Configuration priority (highest to lowest):
//  1. WithXxx() method overrides
//  2. Interface implementations
//  3. Default values
//
// # Content Decoding
//
// Fetched streams are sniffed for the gzip magic bytes and unwrapped when
// present, decoded from the configured charset (ISO-8859-1 unless told
// otherwise), and split into lines. A final line without a newline still
// counts. Decode failures are permanent: the cycle aborts without retrying
// the slot.
//
// # Lifecycle Hooks
//
// Connectors and sinks may implement Starter and Stopper for setup and
// cleanup around Run, and sinks may implement ProgressReporter for
// periodic throughput reporting during long backfills. All are detected
// automatically at construction.
//
// # Best Practices
//
// Sinks should write idempotently, keyed on slot name, because an aborted
// commit replays the whole cycle.
//
// Connector listings should be deterministic and ordered; delivery order
// follows listing order even with concurrent fetch workers.
//
// For graceful shutdown on SIGINT/SIGTERM, set up signal handling before
// calling Run:
//
//	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
//	defer cancel()
//	err := pipe.Run(ctx, trig)
package slotfeed
