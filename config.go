package slotfeed

import "time"

// Default configuration values.
const (
	DefaultMaxRetries     = 3
	DefaultRetryBackoff   = 0 * time.Second
	DefaultFetchWorkers   = 1
	DefaultCharset        = "iso-8859-1"
	DefaultMaxLineBytes   = 1 << 20
	DefaultReportInterval = 10000
	DefaultInstanceID     = "default"
)

// MaxRetries controls the retry budget for listing and fetching: a value
// of k means one attempt plus up to k retries. Implement this interface to
// set the budget from the connector struct rather than the pipeline
// builder.
//
// The value can be overridden at runtime via WithMaxRetries, which takes
// precedence. If neither is set, DefaultMaxRetries (3) is used.
//
// Tuning guidance:
//   - Flaky networks or rate-limited APIs: raise the budget and pair it
//     with a RetryBackoff
//   - Local filesystems: 0 is fine, a missing file will not appear on the
//     second attempt
//
// Example:
//
//	func (c *MyConnector) MaxRetries() int { return 5 }
type MaxRetries interface {
	// MaxRetries returns the number of retries after the first attempt.
	// Zero means fail on the first error.
	MaxRetries() int
}

// RetryBackoff controls the pause between retry attempts. Implement this
// interface to set the pause from the connector struct rather than the
// pipeline builder.
//
// The value can be overridden at runtime via WithRetryBackoff, which takes
// precedence. If neither is set, DefaultRetryBackoff (no pause) is used.
//
// Example:
//
//	func (c *MyConnector) RetryBackoff() time.Duration { return 2 * time.Second }
type RetryBackoff interface {
	// RetryBackoff returns the pause between attempts.
	RetryBackoff() time.Duration
}

// FetchWorkers controls how many slots are fetched concurrently within one
// cycle. Implement this interface to set the concurrency level from the
// connector struct rather than the pipeline builder.
//
// The value can be overridden at runtime via WithFetchWorkers, which takes
// precedence. If neither is set, DefaultFetchWorkers (1) is used.
//
// Delivery order is unaffected by the worker count: slots are handed to
// the sink in listing order no matter which worker fetched them first.
//
// Tuning guidance:
//   - Object stores and HTTP servers: 4-16 workers usually help
//   - Single SFTP sessions serialize reads anyway; keep 1
//
// Example:
//
//	func (c *MyConnector) FetchWorkers() int { return 8 }
type FetchWorkers interface {
	// FetchWorkers returns the number of concurrent fetch workers.
	// Values below 1 are treated as 1.
	FetchWorkers() int
}

// Charset names the text encoding of the connector's content. Implement
// this interface when the connector knows its source encoding, for example
// a feed documented as windows-1252.
//
// The name is resolved through the IANA registry. The value can be
// overridden at runtime via WithCharset, which takes precedence. If
// neither is set, DefaultCharset (ISO-8859-1) is used: every byte decodes
// to something, so unknown inputs degrade to mojibake instead of errors.
//
// Example:
//
//	func (c *MyConnector) Charset() string { return "utf-8" }
type Charset interface {
	// Charset returns the IANA name of the content encoding.
	Charset() string
}

// resolveMaxRetries returns the effective retry budget.
// Priority: WithMaxRetries > MaxRetries interface > DefaultMaxRetries.
func (p *Pipeline) resolveMaxRetries() int {
	if p.maxRetries != nil {
		return *p.maxRetries
	}
	if p.maxRetriesIface != nil {
		return p.maxRetriesIface.MaxRetries()
	}
	return DefaultMaxRetries
}

// resolveRetryBackoff returns the effective pause between attempts.
// Priority: WithRetryBackoff > RetryBackoff interface > DefaultRetryBackoff.
func (p *Pipeline) resolveRetryBackoff() time.Duration {
	if p.retryBackoff != nil {
		return *p.retryBackoff
	}
	if p.retryBackoffIface != nil {
		return p.retryBackoffIface.RetryBackoff()
	}
	return DefaultRetryBackoff
}

// resolveFetchWorkers returns the effective fetch worker count.
// Priority: WithFetchWorkers > FetchWorkers interface > DefaultFetchWorkers.
// Interface values below 1 are clamped: zero workers would commit a cycle
// without fetching anything.
func (p *Pipeline) resolveFetchWorkers() int {
	if p.fetchWorkers != nil {
		return *p.fetchWorkers
	}
	if p.fetchWorkersIface != nil {
		return max(1, p.fetchWorkersIface.FetchWorkers())
	}
	return DefaultFetchWorkers
}

// resolveCharset returns the effective content charset.
// Priority: WithCharset > Charset interface > DefaultCharset.
func (p *Pipeline) resolveCharset() string {
	if p.charset != nil {
		return *p.charset
	}
	if p.charsetIface != nil {
		return p.charsetIface.Charset()
	}
	return DefaultCharset
}

// resolveMaxLineBytes returns the effective line length cap.
// Priority: WithMaxLineBytes > DefaultMaxLineBytes.
func (p *Pipeline) resolveMaxLineBytes() int {
	if p.maxLineBytes != nil {
		return *p.maxLineBytes
	}
	return DefaultMaxLineBytes
}

// resolveReportInterval returns the effective report interval.
// Priority: WithReportInterval > ReportInterval interface > DefaultReportInterval.
// Interface values below 1 are clamped; the interval is a divisor.
func (p *Pipeline) resolveReportInterval() int {
	if p.reportInterval != nil {
		return *p.reportInterval
	}
	if p.reportIntervalIface != nil {
		return max(1, p.reportIntervalIface.ReportInterval())
	}
	return DefaultReportInterval
}
