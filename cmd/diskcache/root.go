package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/richardartoul/diskcache"
	"github.com/richardartoul/diskcache/internal/config"
	"github.com/richardartoul/diskcache/metrics"
)

// app carries what every subcommand needs once flags are parsed.
type app struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	configFile string
	cfg        *config.Config
	logger     *slog.Logger
	tracker    *metrics.LatencyTracker
	cache      *diskcache.Cache
}

// run executes the CLI with args. Stats are printed even when the command
// fails, since a miss from `get` still did measured work.
func run(stdin io.Reader, stdout, stderr io.Writer, args []string) error {
	a := &app{stdin: stdin, stdout: stdout, stderr: stderr}
	defer a.printStats()

	rootCmd := newRootCmd(a)
	rootCmd.SetArgs(args)
	return rootCmd.Execute()
}

func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "diskcache",
		Short: "Inspect and maintain a diskcache directory",
		Long: `diskcache manages a directory of cached values, one file per key,
named by the MD5 of the key.

Settings come from flags, DISKCACHE_* environment variables and an optional
config file, in that order of precedence.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}
	rootCmd.SetIn(a.stdin)
	rootCmd.SetOut(a.stdout)
	rootCmd.SetErr(a.stderr)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.configFile, "config", "", "config file (yaml, toml or json)")
	flags.String("root", "", "cache directory (default "+config.DefaultRoot()+")")
	flags.String("log-level", "", "log level: debug, info, warn or error (default info)")
	flags.Bool("debug", false, "log every storage operation")
	flags.Bool("stats", false, "print operation latency stats to stderr on exit")

	rootCmd.AddCommand(
		newHashCmd(a),
		newGetCmd(a),
		newPutCmd(a),
		newInvalidateCmd(a),
		newFlushCmd(a),
		newServeCmd(a),
		newVersionCmd(a),
	)

	return rootCmd
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configFile, cmd.Root().PersistentFlags())
	if err != nil {
		return err
	}
	level, err := cfg.SlogLevel()
	if err != nil {
		return err
	}
	if cfg.Debug && level > slog.LevelDebug {
		level = slog.LevelDebug
	}

	a.cfg = cfg
	a.logger = slog.New(slog.NewTextHandler(a.stderr, &slog.HandlerOptions{Level: level}))
	if cfg.Stats {
		a.tracker = metrics.NewLatencyTracker(0.01)
	}
	return nil
}

// openCache opens the configured cache. Only commands that touch the
// filesystem call it, so `hash` works without a writable root.
func (a *app) openCache() (*diskcache.Cache, error) {
	if a.cache != nil {
		return a.cache, nil
	}

	c, err := diskcache.New(a.cfg.Root, diskcache.Options{
		Logger:  a.logger,
		Debug:   a.cfg.Debug,
		Tracker: a.tracker,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}
	a.logger.Debug("opened cache", "root", c.Root())

	a.cache = c
	return c, nil
}

func (a *app) printStats() {
	if a.tracker == nil {
		return
	}
	stats := a.tracker.GetAllStats()
	if len(stats) == 0 {
		return
	}
	fmt.Fprintln(a.stderr, "diskcache stats:")
	for _, s := range stats {
		fmt.Fprintln(a.stderr, s.String())
	}
}
