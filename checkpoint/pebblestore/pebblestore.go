// Package pebblestore persists pipeline cursors in an embedded Pebble
// database. Use it when the process already carries Pebble or when many
// instances share one store; for a handful of instances the filestore is
// simpler.
package pebblestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/cockroachdb/pebble"

	"github.com/meridian-data/slotfeed"
)

// Store keeps one cursor per pipeline instance under the key
// "cursor/<instanceID>", as JSON. Saves use synced writes so a committed
// cycle survives a crash.
type Store struct {
	db *pebble.DB
}

// Open opens (or creates) the database at dir. The caller owns the Store
// and must Close it.
func Open(dir string) (*Store, error) {
	if dir == "" {
		return nil, errors.New("pebblestore: dir is required")
	}
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("pebblestore: opening %s: %w", dir, err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

func key(instanceID string) []byte {
	return []byte("cursor/" + instanceID)
}

// Save durably replaces the cursor for instanceID.
func (s *Store) Save(_ context.Context, instanceID string, cur slotfeed.Cursor) error {
	data, err := json.Marshal(cur)
	if err != nil {
		return fmt.Errorf("pebblestore: encoding cursor: %w", err)
	}
	if err := s.db.Set(key(instanceID), data, pebble.Sync); err != nil {
		return fmt.Errorf("pebblestore: writing cursor: %w", err)
	}
	return nil
}

// Load retrieves the cursor for instanceID; ok is false when none was ever
// saved.
func (s *Store) Load(_ context.Context, instanceID string) (slotfeed.Cursor, bool, error) {
	val, closer, err := s.db.Get(key(instanceID))
	if errors.Is(err, pebble.ErrNotFound) {
		return slotfeed.Cursor{}, false, nil
	}
	if err != nil {
		return slotfeed.Cursor{}, false, fmt.Errorf("pebblestore: reading cursor: %w", err)
	}
	defer closer.Close()

	var cur slotfeed.Cursor
	if err := json.Unmarshal(val, &cur); err != nil {
		return slotfeed.Cursor{}, false, fmt.Errorf("pebblestore: decoding cursor: %w", err)
	}
	return cur, true, nil
}

// Delete removes the cursor for instanceID. Deleting an absent cursor is
// not an error.
func (s *Store) Delete(_ context.Context, instanceID string) error {
	if err := s.db.Delete(key(instanceID), pebble.Sync); err != nil {
		return fmt.Errorf("pebblestore: deleting cursor: %w", err)
	}
	return nil
}
