package slotfeed

import (
	"encoding/json"
	"log/slog"
	"sync/atomic"
)

// Stats provides pipeline statistics with thread-safe access.
// Counter fields use atomic operations for safe concurrent access from
// fetch worker goroutines.
//
// Records and Bytes count delivered output only; work belonging to an
// aborted cycle never reaches them. Bytes counts raw connector bytes, so a
// gzip slot contributes its compressed size.
type Stats struct {
	cycles  atomic.Int64
	listed  atomic.Int64
	skipped atomic.Int64
	fetched atomic.Int64
	records atomic.Int64
	bytes   atomic.Int64
	retries atomic.Int64
	errors  atomic.Int64
}

// Cycles returns the number of cycles committed end to end.
func (s *Stats) Cycles() int64 { return s.cycles.Load() }

// Listed returns the number of slots returned by listings, eligible or not.
func (s *Stats) Listed() int64 { return s.listed.Load() }

// Skipped returns the number of listed slots the cursor filtered out.
func (s *Stats) Skipped() int64 { return s.skipped.Load() }

// Fetched returns the number of slots fetched and decoded without error.
func (s *Stats) Fetched() int64 { return s.fetched.Load() }

// Records returns the number of lines delivered to the sink.
func (s *Stats) Records() int64 { return s.records.Load() }

// Bytes returns the raw connector bytes behind the delivered lines.
func (s *Stats) Bytes() int64 { return s.bytes.Load() }

// Retries returns the number of extra attempts spent on listing and
// fetching.
func (s *Stats) Retries() int64 { return s.retries.Load() }

// Errors returns the number of aborted cycles.
func (s *Stats) Errors() int64 { return s.errors.Load() }

// LogValue implements slog.LogValuer for structured logging.
func (s *Stats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int64("cycles", s.Cycles()),
		slog.Int64("listed", s.Listed()),
		slog.Int64("skipped", s.Skipped()),
		slog.Int64("fetched", s.Fetched()),
		slog.Int64("records", s.Records()),
		slog.Int64("bytes", s.Bytes()),
		slog.Int64("retries", s.Retries()),
		slog.Int64("errors", s.Errors()),
	)
}

// statsJSON is the JSON representation for marshaling/unmarshaling Stats.
type statsJSON struct {
	Cycles  int64 `json:"cycles"`
	Listed  int64 `json:"listed"`
	Skipped int64 `json:"skipped"`
	Fetched int64 `json:"fetched"`
	Records int64 `json:"records"`
	Bytes   int64 `json:"bytes"`
	Retries int64 `json:"retries"`
	Errors  int64 `json:"errors"`
}

// MarshalJSON implements json.Marshaler for Stats serialization.
func (s *Stats) MarshalJSON() ([]byte, error) {
	return json.Marshal(statsJSON{
		Cycles:  s.cycles.Load(),
		Listed:  s.listed.Load(),
		Skipped: s.skipped.Load(),
		Fetched: s.fetched.Load(),
		Records: s.records.Load(),
		Bytes:   s.bytes.Load(),
		Retries: s.retries.Load(),
		Errors:  s.errors.Load(),
	})
}

// UnmarshalJSON implements json.Unmarshaler for Stats deserialization.
func (s *Stats) UnmarshalJSON(data []byte) error {
	var v statsJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	s.cycles.Store(v.Cycles)
	s.listed.Store(v.Listed)
	s.skipped.Store(v.Skipped)
	s.fetched.Store(v.Fetched)
	s.records.Store(v.Records)
	s.bytes.Store(v.Bytes)
	s.retries.Store(v.Retries)
	s.errors.Store(v.Errors)
	return nil
}

// Internal increment methods. These return the new value after incrementing,
// which is essential for race-free progress tracking across concurrent workers.
func (s *Stats) incCycles(n int64) int64  { return s.cycles.Add(n) }
func (s *Stats) incListed(n int64) int64  { return s.listed.Add(n) }
func (s *Stats) incSkipped(n int64) int64 { return s.skipped.Add(n) }
func (s *Stats) incFetched(n int64) int64 { return s.fetched.Add(n) }
func (s *Stats) incRecords(n int64) int64 { return s.records.Add(n) }
func (s *Stats) incBytes(n int64) int64   { return s.bytes.Add(n) }
func (s *Stats) incRetries(n int64) int64 { return s.retries.Add(n) }
func (s *Stats) incErrors(n int64) int64  { return s.errors.Add(n) }
