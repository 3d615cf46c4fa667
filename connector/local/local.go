// Package local provides a slotfeed connector over a local directory: one
// slot per regular file.
package local

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/meridian-data/slotfeed"
	"github.com/meridian-data/slotfeed/connector"
)

// Options configures a Dir connector.
type Options struct {
	// Dir is the directory to list. Required.
	Dir string

	// Glob filters file names (filepath.Match syntax). Empty matches
	// everything.
	Glob string

	// TimePattern and TimeLayout extract slot timestamps from file names;
	// empty values select the connector defaults (ISO dates). Files whose
	// name carries no timestamp use their modification time.
	TimePattern string
	TimeLayout  string
}

// Dir lists the regular files of one directory as slots and fetches them
// by opening the file. Pair it with trigger.DirWatch for drop-directory
// ingestion.
type Dir struct {
	dir   string
	glob  string
	namet *connector.NameTimer
}

// New builds a Dir connector. The directory does not have to exist yet;
// listing a missing directory fails and gets retried like any other
// listing error.
func New(opts Options) (*Dir, error) {
	if opts.Dir == "" {
		return nil, fmt.Errorf("local: Options.Dir is required")
	}
	namet, err := connector.NewNameTimer(opts.TimePattern, opts.TimeLayout)
	if err != nil {
		return nil, fmt.Errorf("local: time pattern: %w", err)
	}
	return &Dir{dir: opts.Dir, glob: opts.Glob, namet: namet}, nil
}

// List returns the directory's matching regular files in name order
// (os.ReadDir already sorts).
func (d *Dir) List(ctx context.Context) ([]slotfeed.Slot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(d.dir)
	if err != nil {
		return nil, err
	}

	var slots []slotfeed.Slot
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if d.glob != "" {
			ok, err := filepath.Match(d.glob, e.Name())
			if err != nil {
				return nil, fmt.Errorf("local: glob %q: %w", d.glob, err)
			}
			if !ok {
				continue
			}
		}
		info, err := e.Info()
		if err != nil {
			return nil, err
		}
		if !info.Mode().IsRegular() {
			continue
		}
		t, ok := d.namet.Time(e.Name())
		if !ok {
			t = info.ModTime()
		}
		slots = append(slots, slotfeed.Slot{Name: e.Name(), Time: t})
	}
	return slots, nil
}

// Fetch opens one file by name. Names must stay inside the directory;
// anything with path separators or traversal is rejected since cursor and
// checkpoint contents should never reach the filesystem as paths.
func (d *Dir) Fetch(ctx context.Context, s slotfeed.Slot) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.Name != filepath.Base(s.Name) || !filepath.IsLocal(s.Name) {
		return nil, fmt.Errorf("local: invalid slot name %q", s.Name)
	}
	return os.Open(filepath.Join(d.dir, s.Name))
}
