package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/meridian-data/slotfeed"
	"github.com/meridian-data/slotfeed/checkpoint/filestore"
	"github.com/meridian-data/slotfeed/checkpoint/pebblestore"
	"github.com/meridian-data/slotfeed/connector/httpindex"
	"github.com/meridian-data/slotfeed/connector/local"
	sftpconn "github.com/meridian-data/slotfeed/connector/sftp"
	"github.com/meridian-data/slotfeed/trigger"
)

// =============================================================================
// Config File Tests
// =============================================================================

func TestDefault(t *testing.T) {
	cfg := Default()

	require.Equal(t, "local", cfg.Connector.Type)
	require.Equal(t, ".", cfg.Connector.Params["dir"])
	require.Equal(t, "1m", cfg.Interval)
	require.Equal(t, "file", cfg.Checkpoint.Backend)
	require.NotEmpty(t, cfg.Checkpoint.Dir)
	require.Equal(t, slotfeed.DefaultInstanceID, cfg.Instance)
	require.Equal(t, "-", cfg.Output)
	require.Nil(t, cfg.MaxRetries)
}

func TestLoad_OverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "slotfeed.yaml")
	doc := `
connector:
  type: http
  params:
    url: https://feeds.example.com/daily/
interval: 15m
maxRetries: 0
workers: 4
charset: windows-1252
checkpoint:
  backend: pebble
  dir: /var/lib/slotfeed
instance: eu-feed
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, "http", cfg.Connector.Type)
	require.Equal(t, "https://feeds.example.com/daily/", cfg.Connector.Params["url"])
	require.Equal(t, "15m", cfg.Interval)
	require.Equal(t, 4, cfg.Workers)
	require.Equal(t, "windows-1252", cfg.Charset)
	require.Equal(t, "pebble", cfg.Checkpoint.Backend)
	require.Equal(t, "/var/lib/slotfeed", cfg.Checkpoint.Dir)
	require.Equal(t, "eu-feed", cfg.Instance)

	require.NotNil(t, cfg.MaxRetries, "an explicit zero is distinct from an absent key")
	require.Equal(t, 0, *cfg.MaxRetries)

	require.Equal(t, "-", cfg.Output, "absent keys keep their defaults")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestLoad_BadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "slotfeed.yaml")
	require.NoError(t, os.WriteFile(path, []byte("interval: [oops"), 0o644))

	_, err := Load(path)
	require.ErrorContains(t, err, "parsing")
}

// =============================================================================
// Connector Building Tests
// =============================================================================

func TestBuildConnector_Local(t *testing.T) {
	conn, err := buildConnector(context.Background(), ConnectorConfig{
		Type:   "local",
		Params: map[string]string{"dir": t.TempDir(), "glob": "*.csv"},
	})
	require.NoError(t, err)
	require.IsType(t, (*local.Dir)(nil), conn)
}

func TestBuildConnector_EmptyTypeIsLocal(t *testing.T) {
	conn, err := buildConnector(context.Background(), ConnectorConfig{
		Params: map[string]string{"dir": t.TempDir()},
	})
	require.NoError(t, err)
	require.IsType(t, (*local.Dir)(nil), conn)
}

func TestBuildConnector_HTTP(t *testing.T) {
	conn, err := buildConnector(context.Background(), ConnectorConfig{
		Type: "http",
		Params: map[string]string{
			"url":     "https://feeds.example.com/daily/",
			"timeout": "30s",
		},
	})
	require.NoError(t, err)
	require.IsType(t, (*httpindex.Index)(nil), conn)
}

func TestBuildConnector_HTTPBadTimeout(t *testing.T) {
	_, err := buildConnector(context.Background(), ConnectorConfig{
		Type:   "http",
		Params: map[string]string{"url": "https://feeds.example.com/", "timeout": "soon"},
	})
	require.ErrorContains(t, err, "timeout")
}

func TestBuildConnector_SFTP(t *testing.T) {
	conn, err := buildConnector(context.Background(), ConnectorConfig{
		Type: "sftp",
		Params: map[string]string{
			"addr":            "feeds.example.com:22",
			"user":            "ingest",
			"password":        "hunter2",
			"dir":             "/outgoing",
			"insecureHostKey": "true",
			"dialTimeout":     "10s",
		},
	})
	require.NoError(t, err)
	require.IsType(t, (*sftpconn.Remote)(nil), conn)
}

func TestBuildConnector_SFTPBadInsecureFlag(t *testing.T) {
	_, err := buildConnector(context.Background(), ConnectorConfig{
		Type: "sftp",
		Params: map[string]string{
			"addr":            "feeds.example.com:22",
			"password":        "hunter2",
			"dir":             "/outgoing",
			"insecureHostKey": "maybe",
		},
	})
	require.ErrorContains(t, err, "insecureHostKey")
}

func TestBuildConnector_Unknown(t *testing.T) {
	_, err := buildConnector(context.Background(), ConnectorConfig{Type: "ftp"})
	require.ErrorContains(t, err, `unknown connector type "ftp"`)
}

// =============================================================================
// Checkpoint Store Building Tests
// =============================================================================

func TestBuildStore_None(t *testing.T) {
	store, closer, err := buildStore(CheckpointConfig{Backend: "none"})
	require.NoError(t, err)
	require.Nil(t, store)
	require.Nil(t, closer)
}

func TestBuildStore_File(t *testing.T) {
	store, closer, err := buildStore(CheckpointConfig{Backend: "file", Dir: t.TempDir()})
	require.NoError(t, err)
	require.IsType(t, (*filestore.Store)(nil), store)
	require.Nil(t, closer, "the file backend holds no open resources")
}

func TestBuildStore_EmptyBackendIsFile(t *testing.T) {
	store, _, err := buildStore(CheckpointConfig{Dir: t.TempDir()})
	require.NoError(t, err)
	require.IsType(t, (*filestore.Store)(nil), store)
}

func TestBuildStore_Pebble(t *testing.T) {
	store, closer, err := buildStore(CheckpointConfig{Backend: "pebble", Dir: t.TempDir()})
	require.NoError(t, err)
	require.IsType(t, (*pebblestore.Store)(nil), store)
	require.NotNil(t, closer)
	require.NoError(t, closer.Close())
}

func TestBuildStore_Unknown(t *testing.T) {
	_, _, err := buildStore(CheckpointConfig{Backend: "redis"})
	require.ErrorContains(t, err, `unknown checkpoint backend "redis"`)
}

// =============================================================================
// Trigger Building Tests
// =============================================================================

func TestBuildTrigger_Interval(t *testing.T) {
	cfg := Default()
	cfg.Interval = "5m"

	trig, err := buildTrigger(cfg)
	require.NoError(t, err)
	require.IsType(t, (*trigger.Interval)(nil), trig)
	trig.Stop()
}

func TestBuildTrigger_Watch(t *testing.T) {
	cfg := Default()
	cfg.Watch = true
	cfg.Connector.Params["dir"] = t.TempDir()

	trig, err := buildTrigger(cfg)
	require.NoError(t, err)
	require.IsType(t, (*trigger.DirWatch)(nil), trig)
	trig.Stop()
}

func TestBuildTrigger_WatchNeedsLocalConnector(t *testing.T) {
	cfg := Default()
	cfg.Watch = true
	cfg.Connector.Type = "http"

	_, err := buildTrigger(cfg)
	require.ErrorContains(t, err, "watch requires the local connector")
}

func TestBuildTrigger_BadInterval(t *testing.T) {
	cfg := Default()
	cfg.Interval = "soon"

	_, err := buildTrigger(cfg)
	require.ErrorContains(t, err, "interval")
}

// =============================================================================
// Duration Parsing Tests
// =============================================================================

func TestParseDuration(t *testing.T) {
	d, err := parseDuration("")
	require.NoError(t, err)
	require.Equal(t, time.Duration(0), d)

	d, err = parseDuration("15m")
	require.NoError(t, err)
	require.Equal(t, 15*time.Minute, d)

	_, err = parseDuration("soon")
	require.Error(t, err)
}
