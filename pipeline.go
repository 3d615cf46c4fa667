package slotfeed

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Pipeline orchestrates incremental ingestion from one connector into one
// sink. Each cycle lists the connector, filters the listing through the
// cursor, fetches and decodes the eligible slots, and commits: delivery to
// the sink, a checkpoint write, then the in-memory cursor swap. A cycle is
// all or nothing — any permanent failure aborts it with no partial output
// and no cursor movement.
//
// Cycles never overlap. RunCycle runs one on the caller's schedule; Run
// drives one per trigger fire until stopped. Both serialize on the same
// internal mutex, so a Pipeline is safe to share.
type Pipeline struct {
	connector Connector
	sink      Sink

	// Configuration overrides (nil means use interface value or default)
	maxRetries     *int
	retryBackoff   *time.Duration
	fetchWorkers   *int
	charset        *string
	maxLineBytes   *int
	reportInterval *int

	// Optional capabilities (detected from connector and sink interfaces)
	maxRetriesIface     MaxRetries
	retryBackoffIface   RetryBackoff
	fetchWorkersIface   FetchWorkers
	charsetIface        Charset
	reportIntervalIface ReportInterval
	progress            ProgressReporter
	starters            []Starter
	stoppers            []Stopper

	logger     *slog.Logger
	store      CheckpointStore
	instanceID string
	stats      *Stats

	// runMu serializes cycles: a new cycle may not start until the
	// previous one has committed or aborted. It also guards cursor, dec
	// and loaded.
	runMu  sync.Mutex
	cursor Cursor
	dec    *Decoder
	loaded bool
}

// New creates a Pipeline over the given connector and sink. Optional
// interfaces are auto-detected: tuning knobs ([MaxRetries], [RetryBackoff],
// [FetchWorkers], [Charset]) on the connector, progress reporting on the
// sink, and [Starter]/[Stopper] on both.
//
// Panics if connector or sink is nil.
func New(connector Connector, sink Sink) *Pipeline {
	if connector == nil {
		panic("slotfeed: connector is required")
	}
	if sink == nil {
		panic("slotfeed: sink is required")
	}

	p := &Pipeline{
		connector:  connector,
		sink:       sink,
		logger:     slog.Default(),
		instanceID: DefaultInstanceID,
		stats:      &Stats{},
	}

	// Auto-detect optional interfaces
	if m, ok := connector.(MaxRetries); ok {
		p.maxRetriesIface = m
	}
	if b, ok := connector.(RetryBackoff); ok {
		p.retryBackoffIface = b
	}
	if w, ok := connector.(FetchWorkers); ok {
		p.fetchWorkersIface = w
	}
	if c, ok := connector.(Charset); ok {
		p.charsetIface = c
	}
	if r, ok := sink.(ProgressReporter); ok {
		p.progress = r
		p.reportIntervalIface = r
	} else if r, ok := sink.(ReportInterval); ok {
		p.reportIntervalIface = r
	}
	for _, v := range []any{connector, sink} {
		if s, ok := v.(Starter); ok {
			p.starters = append(p.starters, s)
		}
		if s, ok := v.(Stopper); ok {
			p.stoppers = append(p.stoppers, s)
		}
	}

	return p
}

// WithMaxRetries overrides the retry budget for listing and fetching.
// Priority: this method > MaxRetries interface > DefaultMaxRetries.
// Negative values are ignored; zero means fail on the first error.
func (p *Pipeline) WithMaxRetries(n int) *Pipeline {
	if n >= 0 {
		p.maxRetries = &n
	}
	return p
}

// WithRetryBackoff overrides the pause between retry attempts.
// Priority: this method > RetryBackoff interface > DefaultRetryBackoff.
// Negative values are ignored.
func (p *Pipeline) WithRetryBackoff(d time.Duration) *Pipeline {
	if d >= 0 {
		p.retryBackoff = &d
	}
	return p
}

// WithFetchWorkers overrides the number of concurrent fetch workers.
// Priority: this method > FetchWorkers interface > DefaultFetchWorkers.
// Values less than 1 are ignored.
func (p *Pipeline) WithFetchWorkers(n int) *Pipeline {
	if n >= 1 {
		p.fetchWorkers = &n
	}
	return p
}

// WithCharset overrides the content charset (an IANA name).
// Priority: this method > Charset interface > DefaultCharset.
// The empty string is ignored. An unknown name surfaces as an error on the
// next cycle, not here.
func (p *Pipeline) WithCharset(name string) *Pipeline {
	if name != "" {
		p.charset = &name
		p.dec = nil
	}
	return p
}

// WithMaxLineBytes overrides the length cap for a single decoded line.
// Priority: this method > DefaultMaxLineBytes.
// Values less than 1 are ignored.
func (p *Pipeline) WithMaxLineBytes(n int) *Pipeline {
	if n >= 1 {
		p.maxLineBytes = &n
		p.dec = nil
	}
	return p
}

// WithReportInterval overrides how often to report progress (in lines).
// Priority: this method > ReportInterval interface > DefaultReportInterval.
// Values less than 1 are ignored.
func (p *Pipeline) WithReportInterval(n int) *Pipeline {
	if n >= 1 {
		p.reportInterval = &n
	}
	return p
}

// WithLogger sets the structured logger. Nil is ignored; the default is
// slog.Default().
func (p *Pipeline) WithLogger(logger *slog.Logger) *Pipeline {
	if logger != nil {
		p.logger = logger
	}
	return p
}

// WithCursor sets the cursor to start from when the checkpoint store has
// no saved cursor (or no store is configured). A cursor recovered from the
// store always wins over this value. Call before the first cycle.
func (p *Pipeline) WithCursor(c Cursor) *Pipeline {
	p.cursor = c
	return p
}

// WithStore sets the checkpoint store used to recover the cursor at boot
// and persist it after every committing cycle. Without a store the cursor
// lives only in memory.
func (p *Pipeline) WithStore(store CheckpointStore) *Pipeline {
	p.store = store
	return p
}

// WithInstanceID sets the key this pipeline's cursor is stored under,
// letting several pipelines share one store. The empty string is ignored;
// the default is DefaultInstanceID.
func (p *Pipeline) WithInstanceID(id string) *Pipeline {
	if id != "" {
		p.instanceID = id
	}
	return p
}

// Stats returns the pipeline's live counters.
func (p *Pipeline) Stats() *Stats { return p.stats }

// Cursor returns the current cursor. It waits for a running cycle to
// finish, so the value always reflects a committed position.
func (p *Pipeline) Cursor() Cursor {
	p.runMu.Lock()
	defer p.runMu.Unlock()
	return p.cursor
}

// CycleResult summarizes one committed cycle.
type CycleResult struct {
	// ID is the cycle's unique identifier, also attached to its log lines.
	ID string
	// Slots holds the slots processed this cycle, in delivery order.
	Slots []Slot
	// Lines and Bytes total the delivered output.
	Lines int64
	Bytes int64
	// Cursor is the position committed by this cycle.
	Cursor Cursor
}

// RunCycle executes exactly one cycle: list, filter, fetch, commit. An
// empty cycle (nothing eligible) commits immediately and returns with no
// slots.
//
// On abort the returned error identifies the failing stage, and for slot
// failures the slot, via *RetryExhaustedError and *SlotError in the chain.
// The cursor is untouched and the same slots are eligible again next
// cycle.
//
// RunCycle blocks while another cycle is running on this Pipeline.
func (p *Pipeline) RunCycle(ctx context.Context) (CycleResult, error) {
	p.runMu.Lock()
	defer p.runMu.Unlock()
	return p.runCycle(ctx)
}

func (p *Pipeline) runCycle(ctx context.Context) (CycleResult, error) {
	if err := p.prepare(ctx); err != nil {
		return CycleResult{}, err
	}

	cycleID := uuid.NewString()
	logger := p.logger.With("instance", p.instanceID, "cycle", cycleID)

	slots, err := retry(ctx, StageList, p.resolveMaxRetries(), p.resolveRetryBackoff(), p.onRetry, func(ctx context.Context) ([]Slot, error) {
		return p.connector.List(ctx)
	})
	if err != nil {
		p.stats.incErrors(1)
		logger.Error("listing failed", "error", err)
		return CycleResult{}, err
	}
	p.stats.incListed(int64(len(slots)))

	eligible := p.cursor.Filter(slots)
	p.stats.incSkipped(int64(len(slots) - len(eligible)))
	logger.Debug("listing filtered", "listed", len(slots), "eligible", len(eligible), "cursor", p.cursor)

	results, err := p.fetchAll(ctx, eligible)
	if err != nil {
		p.stats.incErrors(1)
		logger.Error("cycle aborted", "error", err)
		return CycleResult{}, err
	}

	// Commit: deliver in listing order, persist the advanced cursor, and
	// only then swap it in. A failure anywhere leaves the cursor at its
	// pre-cycle value so the next cycle redoes this one.
	res := CycleResult{ID: cycleID, Slots: eligible}
	for _, fr := range results {
		if err := p.deliver(ctx, fr); err != nil {
			p.stats.incErrors(1)
			slotErr := &SlotError{Slot: fr.Slot, Stage: StageDeliver, Err: err}
			logger.Error("cycle aborted", "error", slotErr)
			return CycleResult{}, slotErr
		}
		res.Lines += fr.Records
		res.Bytes += fr.Bytes
	}

	next := p.cursor.Advance(eligible)
	if p.store != nil && !next.Equal(p.cursor) {
		if err := p.store.Save(ctx, p.instanceID, next); err != nil {
			p.stats.incErrors(1)
			saveErr := fmt.Errorf("%s: saving cursor: %w", StageCheckpoint, err)
			logger.Error("cycle aborted", "error", saveErr)
			return CycleResult{}, saveErr
		}
	}
	p.cursor = next
	p.stats.incCycles(1)
	res.Cursor = next

	logger.Info("cycle committed", "slots", len(eligible), "lines", res.Lines, "bytes", res.Bytes, "cursor", next)
	return res, nil
}

// prepare builds the decoder and recovers the cursor from the store. Both
// happen once; prepare is a no-op afterwards.
func (p *Pipeline) prepare(ctx context.Context) error {
	if p.dec == nil {
		dec, err := NewDecoder(p.resolveCharset(), p.resolveMaxLineBytes())
		if err != nil {
			return fmt.Errorf("%s: %w", StageDecode, err)
		}
		p.dec = dec
	}
	if p.store != nil && !p.loaded {
		cur, ok, err := p.store.Load(ctx, p.instanceID)
		if err != nil {
			return fmt.Errorf("%s: loading cursor: %w", StageCheckpoint, err)
		}
		if ok {
			p.cursor = cur
			p.logger.Info("cursor recovered", "instance", p.instanceID, "cursor", cur)
		}
		p.loaded = true
	}
	return nil
}

// deliver hands one fetched slot to the sink and accounts for it.
func (p *Pipeline) deliver(ctx context.Context, fr FetchResult) error {
	if err := p.sink.Deliver(ctx, fr); err != nil {
		return err
	}

	// Use the returned value from incRecords for race-free progress
	// tracking: the atomic Add returns the new total, so both the previous
	// and current values are known without a separate Load call.
	newRecords := p.stats.incRecords(fr.Records)
	prevRecords := newRecords - fr.Records
	p.stats.incBytes(fr.Bytes)

	reportEvery := int64(p.resolveReportInterval())
	if p.progress != nil && newRecords/reportEvery > prevRecords/reportEvery {
		p.progress.OnProgress(ctx, p.stats)
	}
	return nil
}

// onRetry is handed to the retry helper so spent attempts show up in stats.
func (p *Pipeline) onRetry() { p.stats.incRetries(1) }
