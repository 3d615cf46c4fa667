package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"golang.org/x/crypto/ssh"
	"gopkg.in/yaml.v2"

	"github.com/meridian-data/slotfeed"
	"github.com/meridian-data/slotfeed/checkpoint/filestore"
	"github.com/meridian-data/slotfeed/checkpoint/pebblestore"
	"github.com/meridian-data/slotfeed/connector/httpindex"
	"github.com/meridian-data/slotfeed/connector/local"
	s3conn "github.com/meridian-data/slotfeed/connector/s3"
	sftpconn "github.com/meridian-data/slotfeed/connector/sftp"
)

// Config is the YAML file format consumed by slotfeed run. Durations are
// strings in time.ParseDuration syntax. Connector params are opaque here
// and interpreted per connector type in buildConnector.
type Config struct {
	Connector    ConnectorConfig  `yaml:"connector"`
	Interval     string           `yaml:"interval"`
	Watch        bool             `yaml:"watch"`
	MaxRetries   *int             `yaml:"maxRetries"`
	RetryBackoff string           `yaml:"retryBackoff"`
	Workers      int              `yaml:"workers"`
	Charset      string           `yaml:"charset"`
	Checkpoint   CheckpointConfig `yaml:"checkpoint"`
	Instance     string           `yaml:"instance"`
	Output       string           `yaml:"output"`
}

// ConnectorConfig selects and parameterizes the connector.
//
// Types and their params:
//
//	local: dir, glob, timePattern, timeLayout
//	http:  url, manifest, timeout, timePattern, timeLayout
//	s3:    bucket, prefix, region, timePattern, timeLayout
//	sftp:  addr, user, password, keyFile, hostKeyFile, insecureHostKey,
//	       dir, dialTimeout, timePattern, timeLayout
type ConnectorConfig struct {
	Type   string            `yaml:"type"`
	Params map[string]string `yaml:"params"`
}

// CheckpointConfig selects where cursors are persisted: file (YAML state
// files), pebble (embedded database), or none.
type CheckpointConfig struct {
	Backend string `yaml:"backend"`
	Dir     string `yaml:"dir"`
}

// Default returns the configuration used when no file is given: a local
// connector over the current directory, checkpoints in the user cache dir,
// lines to stdout.
func Default() Config {
	return Config{
		Connector:  ConnectorConfig{Type: "local", Params: map[string]string{"dir": "."}},
		Interval:   "1m",
		Checkpoint: CheckpointConfig{Backend: "file", Dir: defaultStateDir()},
		Instance:   slotfeed.DefaultInstanceID,
		Output:     "-",
	}
}

func defaultStateDir() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "slotfeed")
	}
	return ".slotfeed"
}

// Load reads a YAML config file over the defaults. Absent keys keep their
// default values.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing %s: %w", path, err)
	}
	return cfg, nil
}

// buildConnector constructs the connector the config names. ctx is only
// used by connectors that dial during construction (s3 credential
// resolution).
func buildConnector(ctx context.Context, cfg ConnectorConfig) (slotfeed.Connector, error) {
	get := func(key string) string { return cfg.Params[key] }

	switch cfg.Type {
	case "local", "":
		return local.New(local.Options{
			Dir:         get("dir"),
			Glob:        get("glob"),
			TimePattern: get("timePattern"),
			TimeLayout:  get("timeLayout"),
		})

	case "http":
		timeout, err := parseDuration(get("timeout"))
		if err != nil {
			return nil, fmt.Errorf("connector timeout: %w", err)
		}
		return httpindex.New(httpindex.Options{
			BaseURL:     get("url"),
			Manifest:    get("manifest"),
			TimePattern: get("timePattern"),
			TimeLayout:  get("timeLayout"),
			Timeout:     timeout,
		})

	case "s3":
		return s3conn.Open(ctx, s3conn.Options{
			Bucket:      get("bucket"),
			Prefix:      get("prefix"),
			Region:      get("region"),
			TimePattern: get("timePattern"),
			TimeLayout:  get("timeLayout"),
		})

	case "sftp":
		opts := sftpconn.Options{
			Addr:        get("addr"),
			User:        get("user"),
			Password:    get("password"),
			Dir:         get("dir"),
			TimePattern: get("timePattern"),
			TimeLayout:  get("timeLayout"),
		}
		// Secrets are better passed through the environment than written
		// into config files.
		if env := os.Getenv("SLOTFEED_SFTP_PASSWORD"); env != "" {
			opts.Password = env
		}
		if keyFile := get("keyFile"); keyFile != "" {
			pem, err := os.ReadFile(keyFile)
			if err != nil {
				return nil, fmt.Errorf("connector keyFile: %w", err)
			}
			opts.KeyPEM = pem
		}
		if hostKeyFile := get("hostKeyFile"); hostKeyFile != "" {
			data, err := os.ReadFile(hostKeyFile)
			if err != nil {
				return nil, fmt.Errorf("connector hostKeyFile: %w", err)
			}
			hostKey, _, _, _, err := ssh.ParseAuthorizedKey(data)
			if err != nil {
				return nil, fmt.Errorf("connector hostKeyFile: %w", err)
			}
			opts.HostKey = hostKey
		}
		if v := get("insecureHostKey"); v != "" {
			insecure, err := strconv.ParseBool(v)
			if err != nil {
				return nil, fmt.Errorf("connector insecureHostKey: %w", err)
			}
			opts.InsecureSkipVerify = insecure
		}
		if v := get("dialTimeout"); v != "" {
			d, err := parseDuration(v)
			if err != nil {
				return nil, fmt.Errorf("connector dialTimeout: %w", err)
			}
			opts.DialTimeout = d
		}
		return sftpconn.New(opts)

	default:
		return nil, fmt.Errorf("unknown connector type %q", cfg.Type)
	}
}

// buildStore constructs the checkpoint store, plus a closer when the
// backend holds resources. A nil store means cursors stay in memory.
func buildStore(cfg CheckpointConfig) (slotfeed.CheckpointStore, io.Closer, error) {
	switch cfg.Backend {
	case "none":
		return nil, nil, nil
	case "file", "":
		store, err := filestore.New(cfg.Dir)
		return store, nil, err
	case "pebble":
		store, err := pebblestore.Open(cfg.Dir)
		if err != nil {
			return nil, nil, err
		}
		return store, store, nil
	default:
		return nil, nil, fmt.Errorf("unknown checkpoint backend %q", cfg.Backend)
	}
}

// parseDuration parses a duration string, treating empty as zero.
func parseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	return time.ParseDuration(s)
}
