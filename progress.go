package slotfeed

import "context"

// ReportInterval controls how often progress is reported, measured in
// lines delivered. This interface can be implemented independently of
// ProgressReporter when you want to set the interval on the sink struct
// rather than via WithReportInterval.
//
// The value can be overridden at runtime via WithReportInterval, which
// takes precedence over this interface. If neither is set,
// DefaultReportInterval (10,000 lines) is used.
//
// This interface is embedded in ProgressReporter, so implementing
// ProgressReporter automatically satisfies ReportInterval.
type ReportInterval interface {
	// ReportInterval returns how often to call OnProgress (in lines
	// delivered). Values below 1 are treated as 1.
	ReportInterval() int
}

// ProgressReporter receives periodic progress updates while cycles run.
// Implement this interface on the sink when you want to log throughput,
// emit metrics, or update a dashboard during long backfills.
//
// OnProgress is called each time the cumulative delivered line count
// crosses a ReportInterval boundary, from inside the commit loop. The
// Stats passed in is live and safe to read concurrently. Avoid blocking
// I/O inside OnProgress; it delays the commit.
//
// Example:
//
//	func (s *mySink) ReportInterval() int { return 10000 }
//
//	func (s *mySink) OnProgress(ctx context.Context, stats *slotfeed.Stats) {
//	    slog.InfoContext(ctx, "progress",
//	        "fetched", stats.Fetched(),
//	        "records", stats.Records(),
//	        "bytes", stats.Bytes(),
//	    )
//	}
type ProgressReporter interface {
	ReportInterval

	// OnProgress is called periodically during delivery.
	OnProgress(ctx context.Context, stats *Stats)
}
