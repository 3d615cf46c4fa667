package pebblestore_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/meridian-data/slotfeed"
	"github.com/meridian-data/slotfeed/checkpoint/pebblestore"
)

var _ slotfeed.CheckpointStore = (*pebblestore.Store)(nil)

func openStore(t *testing.T, dir string) *pebblestore.Store {
	t.Helper()
	store, err := pebblestore.Open(dir)
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, store.Close()) })
	return store
}

func TestStore_SaveLoadRoundTrip(t *testing.T) {
	store := openStore(t, t.TempDir())

	ctx := context.Background()
	saved := slotfeed.NewCursor(
		time.Date(2016, 12, 1, 0, 0, 0, 0, time.UTC),
		"trades-2016-12-01.csv", "rates-2016-12-01.csv",
	)
	require.NoError(t, store.Save(ctx, "daily", saved))

	loaded, ok, err := store.Load(ctx, "daily")
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, loaded.Equal(saved))
	require.Equal(t, saved.Seen(), loaded.Seen())
}

func TestStore_LoadMissing(t *testing.T) {
	store := openStore(t, t.TempDir())

	cur, ok, err := store.Load(context.Background(), "daily")
	require.NoError(t, err)
	require.False(t, ok)
	require.True(t, cur.Equal(slotfeed.Cursor{}))
}

func TestStore_Delete(t *testing.T) {
	store := openStore(t, t.TempDir())

	ctx := context.Background()
	cur := slotfeed.NewCursor(time.Date(2016, 12, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, store.Save(ctx, "daily", cur))

	require.NoError(t, store.Delete(ctx, "daily"))

	_, ok, err := store.Load(ctx, "daily")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, store.Delete(ctx, "daily"), "deleting an absent cursor is not an error")
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	saved := slotfeed.NewCursor(time.Date(2016, 12, 2, 0, 0, 0, 0, time.UTC), "b.csv")

	store, err := pebblestore.Open(dir)
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, "daily", saved))
	require.NoError(t, store.Close())

	store = openStore(t, dir)
	loaded, ok, err := store.Load(ctx, "daily")
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, loaded.Equal(saved))
}

func TestStore_InstancesAreIsolated(t *testing.T) {
	store := openStore(t, t.TempDir())

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

func TestOpen_RequiresDir(t *testing.T) {
	_, err := pebblestore.Open("")
	require.ErrorContains(t, err, "dir is required")
}
