package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/dzakyzahy/AQUA-FLOQ-MAGNA/internal/config"
	"github.com/dzakyzahy/AQUA-FLOQ-MAGNA/internal/economics"
	"github.com/dzakyzahy/AQUA-FLOQ-MAGNA/internal/metrics"
	"github.com/dzakyzahy/AQUA-FLOQ-MAGNA/internal/sim"
	"github.com/dzakyzahy/AQUA-FLOQ-MAGNA/internal/viz"
)

var (
	dataDir    string
	configFile string
	preset     string
	seed       int64
	interval   time.Duration
	logLevel   string
	theme      string
)

// main registers the commands and runs the dashboard when no subcommand is
// given. It exits with status 1 if the command returns an error.
func main() {
	rootCmd := &cobra.Command{
		Use:           "aquafloc",
		Short:         "magnetic adsorbent water treatment simulator",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runDashboard,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&dataDir, "data", config.DefaultDataDir, "data directory")
	pf.StringVar(&configFile, "config", "", "config file path (yaml)")
	pf.StringVar(&preset, "preset", "", "use preset configuration")
	pf.Int64Var(&seed, "seed", 0, "random seed (0 picks one from the clock)")
	pf.DurationVar(&interval, "interval", config.DefaultInterval, "sensor update interval")
	pf.StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.Flags().StringVar(&theme, "theme", "lab", "dashboard theme ("+strings.Join(viz.ThemeNames(), ", ")+")")

	rootCmd.AddCommand(
		newRunCmd(),
		newServeCmd(),
		newListCmd(),
		newPlotCmd(),
		newExportCmd(),
		newAnalyzeCmd(),
		newKineticsCmd(),
		newPresetsCmd(),
		newTuneCmd(),
		newSweepCmd(),
		newScenarioCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// resolveConfig layers defaults, the preset, the config file and finally any
// flag the user set explicitly.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		if preset != "" {
			loaded.InitState = cfg.InitState
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("seed") || cfg.Seed == 0 {
		cfg.Seed = seed
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}
	if flags.Changed("interval") {
		cfg.Interval = interval
	}
	if flags.Changed("data") || cfg.DataDir == "" {
		cfg.DataDir = dataDir
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(w io.Writer) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(logLevel)); err != nil {
		return nil, fmt.Errorf("invalid log level %q", logLevel)
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})), nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// line bundles a live updater with the panels that observe it.
type line struct {
	updater   *sim.Updater
	ledger    *economics.Ledger
	collector *metrics.Collector
}

func newLine(cfg *config.Config, logger *slog.Logger) *line {
	u := sim.New(cfg.GetInitState(),
		sim.WithModel(cfg.GetModel()),
		sim.WithInterval(cfg.Interval),
		sim.WithSeed(cfg.Seed),
		sim.WithLogger(logger),
	)
	l := &line{
		updater:   u,
		ledger:    economics.NewLedger(cfg.LedgerParams(), rand.New(rand.NewSource(cfg.Seed+1))),
		collector: metrics.NewCollector(metrics.Defaults()...),
	}
	u.Subscribe(l.ledger)
	u.Subscribe(l.collector)
	return l
}

func runDashboard(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return err
	}

	// The dashboard owns the terminal, so logs go to a file.
	logFile, err := os.OpenFile(filepath.Join(cfg.DataDir, "aquafloc.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer logFile.Close()
	logger, err := newLogger(logFile)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	l := newLine(cfg, logger)
	dash := viz.NewDashboard(l.updater, viz.Options{
		Ledger:    l.ledger,
		Collector: l.collector,
		ExportDir: cfg.DataDir,
		Theme:     theme,
	})
	defer dash.Close()

	if err := l.updater.Start(ctx); err != nil {
		return err
	}
	defer l.updater.Stop()

	_, err = tea.NewProgram(dash, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}
