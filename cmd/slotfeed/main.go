// Command slotfeed syncs dated remote content into line-oriented output.
// It wires a connector, a checkpoint store and a trigger from a YAML
// config file and runs ingestion cycles until interrupted.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/meridian-data/slotfeed"
	"github.com/meridian-data/slotfeed/trigger"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "slotfeed",
		Short: "Incremental ingestion of dated remote content",
		Long: "slotfeed lists dated slots from a connector (local directory, HTTP manifest,\n" +
			"S3 prefix or SFTP directory), fetches the ones a resumable cursor has not seen,\n" +
			"and appends their decoded lines to an output. Cycles commit all or nothing, so\n" +
			"restarts resume exactly at the last committed cursor.",
	}
	rootCmd.PersistentFlags().String("log-level", os.Getenv("SLOTFEED_LOG_LEVEL"), "Log level: debug|info|warn|error")
	rootCmd.PersistentFlags().String("log-format", os.Getenv("SLOTFEED_LOG_FORMAT"), "Log format: text|json (default text)")

	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newCheckpointCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run ingestion cycles until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger(cmd)
			if err != nil {
				return err
			}

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if instance, _ := cmd.Flags().GetString("instance"); instance != "" {
				cfg.Instance = instance
			}
			if interval, _ := cmd.Flags().GetString("interval"); interval != "" {
				cfg.Interval = interval
			}
			if watch, _ := cmd.Flags().GetBool("watch"); watch {
				cfg.Watch = true
			}
			if output, _ := cmd.Flags().GetString("output"); output != "" {
				cfg.Output = output
			}
			once, _ := cmd.Flags().GetBool("once")

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			conn, err := buildConnector(ctx, cfg.Connector)
			if err != nil {
				return err
			}
			store, storeCloser, err := buildStore(cfg.Checkpoint)
			if err != nil {
				return err
			}
			if storeCloser != nil {
				defer storeCloser.Close()
			}
			sink, err := newLineSink(cfg.Output, logger)
			if err != nil {
				return err
			}

			pipe := slotfeed.New(conn, sink).
				WithLogger(logger).
				WithInstanceID(cfg.Instance).
				WithStore(store)
			if cfg.MaxRetries != nil {
				pipe.WithMaxRetries(*cfg.MaxRetries)
			}
			if cfg.RetryBackoff != "" {
				backoff, err := parseDuration(cfg.RetryBackoff)
				if err != nil {
					return fmt.Errorf("retryBackoff: %w", err)
				}
				pipe.WithRetryBackoff(backoff)
			}
			if cfg.Workers > 0 {
				pipe.WithFetchWorkers(cfg.Workers)
			}
			if cfg.Charset != "" {
				pipe.WithCharset(cfg.Charset)
			}

			if once {
				res, err := pipe.RunCycle(ctx)
				if err != nil {
					return err
				}
				logger.Info("cycle complete", "slots", len(res.Slots), "lines", res.Lines, "cursor", res.Cursor)
				return nil
			}

			trig, err := buildTrigger(cfg)
			if err != nil {
				return err
			}
			defer trig.Stop()

			logger.Info("starting", "connector", cfg.Connector.Type, "instance", cfg.Instance)
			return pipe.Run(ctx, trig)
		},
	}
	cmd.Flags().String("config", "", "Path to YAML config file")
	cmd.Flags().Bool("once", false, "Run exactly one cycle and exit")
	cmd.Flags().String("instance", "", "Checkpoint instance ID override")
	cmd.Flags().String("interval", "", "Cycle interval override (e.g. 15m)")
	cmd.Flags().Bool("watch", false, "Trigger cycles from filesystem events (local connector)")
	cmd.Flags().String("output", "", "Output path override (- for stdout)")
	return cmd
}

func newCheckpointCmd() *cobra.Command {
	checkpointCmd := &cobra.Command{Use: "checkpoint", Short: "Inspect and reset saved cursors"}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the saved cursor",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, store, closer, err := openStore(cmd)
			if err != nil {
				return err
			}
			if closer != nil {
				defer closer.Close()
			}
			if store == nil {
				return fmt.Errorf("checkpoint backend is none")
			}
			cur, ok, err := store.Load(cmd.Context(), cfg.Instance)
			if err != nil {
				return err
			}
			if !ok {
				fmt.Printf("no cursor for instance %q\n", cfg.Instance)
				return nil
			}
			fmt.Printf("instance:  %s\n", cfg.Instance)
			fmt.Printf("watermark: %s\n", cur.Watermark().UTC().Format(time.RFC3339))
			if seen := cur.Seen(); len(seen) > 0 {
				fmt.Printf("seen:      %s\n", strings.Join(seen, ", "))
			}
			return nil
		},
	}

	resetCmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete the saved cursor so the next run starts fresh",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, store, closer, err := openStore(cmd)
			if err != nil {
				return err
			}
			if closer != nil {
				defer closer.Close()
			}
			if store == nil {
				return fmt.Errorf("checkpoint backend is none")
			}
			if err := store.Delete(cmd.Context(), cfg.Instance); err != nil {
				return err
			}
			fmt.Printf("cursor for instance %q deleted\n", cfg.Instance)
			return nil
		},
	}

	for _, c := range []*cobra.Command{showCmd, resetCmd} {
		c.Flags().String("config", "", "Path to YAML config file")
		c.Flags().String("instance", "", "Checkpoint instance ID override")
		checkpointCmd.AddCommand(c)
	}
	return checkpointCmd
}

func loadConfig(cmd *cobra.Command) (Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		return Default(), nil
	}
	return Load(path)
}

func openStore(cmd *cobra.Command) (Config, slotfeed.CheckpointStore, io.Closer, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return cfg, nil, nil, err
	}
	if instance, _ := cmd.Flags().GetString("instance"); instance != "" {
		cfg.Instance = instance
	}
	store, closer, err := buildStore(cfg.Checkpoint)
	return cfg, store, closer, err
}

func buildTrigger(cfg Config) (slotfeed.Trigger, error) {
	if cfg.Watch {
		if cfg.Connector.Type != "local" && cfg.Connector.Type != "" {
			return nil, fmt.Errorf("watch requires the local connector")
		}
		return trigger.NewDirWatch(cfg.Connector.Params["dir"], 0)
	}
	every, err := parseDuration(cfg.Interval)
	if err != nil {
		return nil, fmt.Errorf("interval: %w", err)
	}
	return trigger.NewInterval(every), nil
}

func newLogger(cmd *cobra.Command) (*slog.Logger, error) {
	levelName, _ := cmd.Flags().GetString("log-level")
	format, _ := cmd.Flags().GetString("log-format")

	var level slog.Level
	switch strings.ToLower(levelName) {
	case "debug":
		level = slog.LevelDebug
	case "info", "":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return nil, fmt.Errorf("invalid --log-level %q; use debug|info|warn|error", levelName)
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	switch strings.ToLower(format) {
	case "json":
		handler = slog.NewJSONHandler(os.Stderr, opts)
	case "text", "":
		handler = slog.NewTextHandler(os.Stderr, opts)
	default:
		return nil, fmt.Errorf("invalid --log-format %q; use text|json", format)
	}
	return slog.New(handler), nil
}
