package main

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/meridian-data/slotfeed"
)

// lineSink appends delivered lines to one output stream, newline per line.
// It flushes after each slot so a committed cycle is on disk when the
// checkpoint is written.
type lineSink struct {
	w      *bufio.Writer
	closer io.Closer
	logger *slog.Logger
}

func newLineSink(path string, logger *slog.Logger) (*lineSink, error) {
	if path == "" || path == "-" {
		return &lineSink{w: bufio.NewWriter(os.Stdout), logger: logger}, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	return &lineSink{w: bufio.NewWriter(f), closer: f, logger: logger}, nil
}

func (s *lineSink) Deliver(_ context.Context, res slotfeed.FetchResult) error {
	for _, line := range res.Lines {
		if _, err := s.w.WriteString(line); err != nil {
			return err
		}
		if err := s.w.WriteByte('\n'); err != nil {
			return err
		}
	}
	return s.w.Flush()
}

func (s *lineSink) ReportInterval() int { return 50000 }

func (s *lineSink) OnProgress(ctx context.Context, stats *slotfeed.Stats) {
	s.logger.InfoContext(ctx, "progress", "stats", stats)
}

// Stop flushes and closes the output once Run ends.
func (s *lineSink) Stop(ctx context.Context, stats *slotfeed.Stats, err error) {
	s.w.Flush()
	if s.closer != nil {
		s.closer.Close()
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "ingestion failed", "error", err, "stats", stats)
		return
	}
	s.logger.InfoContext(ctx, "ingestion stopped", "stats", stats)
}
