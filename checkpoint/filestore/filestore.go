// Package filestore persists pipeline cursors as YAML files, one per
// instance. The files are small and hand-editable, which makes resetting a
// watermark in production a text edit instead of a tooling exercise.
package filestore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/meridian-data/slotfeed"
)

// Store writes <dir>/<instanceID>.yaml per pipeline instance. Saves go
// through a temp file and rename, so a crash mid-write leaves the previous
// cursor intact rather than a truncated file.
type Store struct {
	dir string
}

// New creates the directory if needed and returns a Store over it.
func New(dir string) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("filestore: dir is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("filestore: creating %s: %w", dir, err)
	}
	return &Store{dir: dir}, nil
}

// stateYAML is the on-disk form. The watermark is an RFC 3339 string so
// the file stays readable and the parse unambiguous.
type stateYAML struct {
	Watermark string   `yaml:"watermark"`
	Seen      []string `yaml:"seen,omitempty"`
}

func (s *Store) path(instanceID string) string {
	return filepath.Join(s.dir, instanceID+".yaml")
}

// Save durably replaces the cursor for instanceID.
func (s *Store) Save(_ context.Context, instanceID string, cur slotfeed.Cursor) error {
	data, err := yaml.Marshal(stateYAML{
		Watermark: cur.Watermark().UTC().Format(time.RFC3339Nano),
		Seen:      cur.Seen(),
	})
	if err != nil {
		return fmt.Errorf("filestore: encoding cursor: %w", err)
	}

	target := s.path(instanceID)
	tmp := target + "~"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("filestore: writing %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, target); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("filestore: replacing %s: %w", target, err)
	}
	return nil
}

// Load retrieves the cursor for instanceID; ok is false when no state file
// exists.
func (s *Store) Load(_ context.Context, instanceID string) (slotfeed.Cursor, bool, error) {
	target := s.path(instanceID)
	data, err := os.ReadFile(target)
	if os.IsNotExist(err) {
		return slotfeed.Cursor{}, false, nil
	}
	if err != nil {
		return slotfeed.Cursor{}, false, fmt.Errorf("filestore: reading %s: %w", target, err)
	}

	var state stateYAML
	if err := yaml.Unmarshal(data, &state); err != nil {
		return slotfeed.Cursor{}, false, fmt.Errorf("filestore: decoding %s: %w", target, err)
	}
	watermark, err := time.Parse(time.RFC3339Nano, state.Watermark)
	if err != nil {
		return slotfeed.Cursor{}, false, fmt.Errorf("filestore: watermark in %s: %w", target, err)
	}
	return slotfeed.NewCursor(watermark, state.Seen...), true, nil
}

// Delete removes the state file for instanceID. Deleting an absent cursor
// is not an error.
func (s *Store) Delete(_ context.Context, instanceID string) error {
	err := os.Remove(s.path(instanceID))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("filestore: removing %s: %w", s.path(instanceID), err)
	}
	return nil
}
