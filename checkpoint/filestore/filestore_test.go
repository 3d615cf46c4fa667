package filestore_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/meridian-data/slotfeed"
	"github.com/meridian-data/slotfeed/checkpoint/filestore"
)

var _ slotfeed.CheckpointStore = (*filestore.Store)(nil)

func TestStore_SaveLoadRoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "state", "checkpoints")
	store, err := filestore.New(dir)
	require.NoError(t, err, "New creates missing directories")

	watermark := time.Date(2016, 12, 1, 23, 30, 0, 123456789, time.FixedZone("EST", -5*3600))
	saved := slotfeed.NewCursor(watermark, "trades-2016-12-01.csv", "rates-2016-12-01.csv")

	ctx := context.Background()
	require.NoError(t, store.Save(ctx, "daily", saved))

	data, err := os.ReadFile(filepath.Join(dir, "daily.yaml"))
	require.NoError(t, err)
	require.Contains(t, string(data), "watermark:", "state files stay hand-editable YAML")

	loaded, ok, err := store.Load(ctx, "daily")
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, loaded.Equal(saved), "the zone may change on disk but the instant must not")
	require.Equal(t, saved.Seen(), loaded.Seen())
}

func TestStore_LoadMissing(t *testing.T) {
	store, err := filestore.New(t.TempDir())
	require.NoError(t, err)

	cur, ok, err := store.Load(context.Background(), "daily")
	require.NoError(t, err)
	require.False(t, ok)
	require.True(t, cur.Equal(slotfeed.Cursor{}))
}

func TestStore_OverwriteReplacesCursor(t *testing.T) {
	store, err := filestore.New(t.TempDir())
	require.NoError(t, err)

	ctx := context.Background()
	first := slotfeed.NewCursor(time.Date(2016, 12, 1, 0, 0, 0, 0, time.UTC), "a.csv")
	second := slotfeed.NewCursor(time.Date(2016, 12, 2, 0, 0, 0, 0, time.UTC), "b.csv")

	require.NoError(t, store.Save(ctx, "daily", first))
	require.NoError(t, store.Save(ctx, "daily", second))

	loaded, ok, err := store.Load(ctx, "daily")
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, loaded.Equal(second))
}

func TestStore_Delete(t *testing.T) {
	store, err := filestore.New(t.TempDir())
	require.NoError(t, err)

	ctx := context.Background()
	cur := slotfeed.NewCursor(time.Date(2016, 12, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, store.Save(ctx, "daily", cur))

	require.NoError(t, store.Delete(ctx, "daily"))

	_, ok, err := store.Load(ctx, "daily")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, store.Delete(ctx, "daily"), "deleting an absent cursor is not an error")
}

func TestStore_InstancesAreIsolated(t *testing.T) {
	store, err := filestore.New(t.TempDir())
	require.NoError(t, err)

	ctx := context.Background()
	eu := slotfeed.NewCursor(time.Date(2016, 12, 1, 0, 0, 0, 0, time.UTC), "eu.csv")
	us := slotfeed.NewCursor(time.Date(2016, 12, 2, 0, 0, 0, 0, time.UTC), "us.csv")

	require.NoError(t, store.Save(ctx, "eu-feed", eu))
	require.NoError(t, store.Save(ctx, "us-feed", us))

	loaded, ok, err := store.Load(ctx, "eu-feed")
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, loaded.Equal(eu))

	loaded, ok, err = store.Load(ctx, "us-feed")
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, loaded.Equal(us))
}

func TestStore_CorruptWatermark(t *testing.T) {
	dir := t.TempDir()
	store, err := filestore.New(dir)
	require.NoError(t, err)

	err = os.WriteFile(filepath.Join(dir, "daily.yaml"), []byte("watermark: not-a-timestamp\n"), 0o644)
	require.NoError(t, err)

	_, _, err = store.Load(context.Background(), "daily")
	require.ErrorContains(t, err, "watermark")
}

func TestNew_RequiresDir(t *testing.T) {
	_, err := filestore.New("")
	require.ErrorContains(t, err, "dir is required")
}
