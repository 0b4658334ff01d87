package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dzakyzahy/AQUA-FLOQ-MAGNA/internal/config"
	"github.com/dzakyzahy/AQUA-FLOQ-MAGNA/internal/experiment"
	"github.com/dzakyzahy/AQUA-FLOQ-MAGNA/internal/process"
	"github.com/dzakyzahy/AQUA-FLOQ-MAGNA/internal/sim"
	"github.com/dzakyzahy/AQUA-FLOQ-MAGNA/internal/storage"
	"github.com/dzakyzahy/AQUA-FLOQ-MAGNA/internal/store"
	"github.com/dzakyzahy/AQUA-FLOQ-MAGNA/internal/tui"
	"github.com/dzakyzahy/AQUA-FLOQ-MAGNA/internal/viz"
)

var (
	ticks      int
	every      int
	save       bool
	live       bool
	frameRate  int
	reportPath string
	asJSON     bool
)

func newRunCmd() *cobra.Command {
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run the line headless for a number of ticks",
		Args:  cobra.NoArgs,
		RunE:  runSimulation,
	}
	runCmd.Flags().IntVar(&ticks, "ticks", 60, "number of ticks")
	runCmd.Flags().IntVar(&every, "every", 10, "print every n-th tick")
	runCmd.Flags().BoolVar(&save, "save", false, "record the session to the data directory")
	runCmd.Flags().BoolVar(&live, "live", false, "tick in real time with a live view")
	runCmd.Flags().IntVar(&frameRate, "fps", 10, "live view frame rate")
	runCmd.Flags().StringVar(&reportPath, "report", "", "write a final report (json) to this path, - for stdout")
	runCmd.Flags().BoolVar(&asJSON, "json", false, "print the samples as json lines")
	return runCmd
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	logger, err := newLogger(os.Stderr)
	if err != nil {
		return err
	}
	if ticks <= 0 {
		return fmt.Errorf("--ticks must be positive, got %d", ticks)
	}

	ctx, cancel := signalContext()
	defer cancel()

	var res *experiment.Result
	var meta storage.RunMetadata
	if live {
		res, meta, err = runLive(ctx, cfg)
	} else {
		exp := experiment.New(experiment.Config{Sim: cfg, Ticks: ticks, Preset: preset, Logger: logger})
		res, err = exp.Run(ctx)
		if err == nil {
			meta = exp.Metadata(res)
		}
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if asJSON {
		if err := printSamplesJSON(out, res.Samples); err != nil {
			return err
		}
	} else if !live {
		if err := printSamples(out, res.Samples, every); err != nil {
			return err
		}
	}
	printSummary(out, res)

	if save {
		st := storage.New(cfg.DataDir)
		if err := st.Init(); err != nil {
			return err
		}
		id, err := st.Save(meta, res.Samples)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "\nrun saved: %s\n", id)
	}

	switch reportPath {
	case "":
	case "-":
		return store.Write(out, store.NewReport(res.Final, res.Economics, res.Metrics))
	default:
		if err := store.ExportJSON(reportPath, store.NewReport(res.Final, res.Economics, res.Metrics)); err != nil {
			return err
		}
		fmt.Fprintf(out, "report written: %s\n", reportPath)
	}
	return nil
}

// runLive ticks on the wall clock until the tick budget is spent or the user
// interrupts.
func runLive(ctx context.Context, cfg *config.Config) (*experiment.Result, storage.RunMetadata, error) {
	// Frames own the terminal.
	logger, err := newLogger(io.Discard)
	if err != nil {
		return nil, storage.RunMetadata{}, err
	}
	l := newLine(cfg, logger)
	recorder := storage.NewRecorder()
	renderer := tui.NewLiveRenderer(os.Stdout, "AQUA-FLOC MAGNA", frameRate)

	done := make(chan struct{})
	var once sync.Once
	l.updater.Subscribe(recorder)
	l.updater.Subscribe(renderer)
	l.updater.Subscribe(sim.ObserverFunc(func(s sim.Snapshot) {
		if s.Tick >= uint64(ticks) {
			once.Do(func() { close(done) })
		}
	}))

	renderer.Start()
	defer renderer.Stop()

	if err := l.updater.Start(ctx); err != nil {
		return nil, storage.RunMetadata{}, err
	}
	select {
	case <-done:
	case <-ctx.Done():
	}
	l.updater.Stop()

	res := &experiment.Result{
		Final:     l.updater.Snapshot(),
		Metrics:   l.collector.Values(),
		Economics: l.ledger.Summary(),
		Samples:   recorder.Samples(),
	}
	meta := storage.RunMetadata{
		Preset:     preset,
		Seed:       cfg.Seed,
		Interval:   cfg.Interval,
		Ticks:      len(res.Samples),
		Savings:    res.Economics.Savings.StringFixed(0),
		Metrics:    res.Metrics,
		FinalState: res.Final.State,
	}
	return res, meta, nil
}

func printSamples(out io.Writer, samples []storage.Sample, every int) error {
	if every < 1 {
		every = 1
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TICK\tLOAD\tDOSAGE\tTURBIDITY\tDO\tRECOVERY\tMODE\tALERTS")
	for i, s := range samples {
		if (i+1)%every != 0 && i != len(samples)-1 {
			continue
		}
		st := s.State
		alert := "-"
		if len(st.Alerts) > 0 {
			alert = st.Alerts[0]
		}
		fmt.Fprintf(w, "%d\t%.0f%%\t%.2f\t%.2f\t%.2f\t%.2f%%\t%s\t%s\n",
			s.Tick, st.PollutantLoad, st.Dosage, st.Turbidity, st.DissolvedOxygen, st.RecoveryRate, st.Mode(), alert)
	}
	return w.Flush()
}

func printSamplesJSON(out io.Writer, samples []storage.Sample) error {
	enc := json.NewEncoder(out)
	for _, s := range samples {
		row := struct {
			Tick      uint64        `json:"tick"`
			ElapsedMS int64         `json:"elapsedMs"`
			State     process.State `json:"state"`
		}{s.Tick, s.Elapsed.Milliseconds(), s.State}
		if err := enc.Encode(row); err != nil {
			return err
		}
	}
	return nil
}

func printSummary(out io.Writer, res *experiment.Result) {
	fmt.Fprintln(out)
	fmt.Fprintf(out, "ticks:           %d\n", res.Final.Tick)
	fmt.Fprintf(out, "final turbidity: %.2f NTU\n", res.Final.State.Turbidity)
	fmt.Fprintf(out, "final dosage:    %.2f g/L (%s)\n", res.Final.State.Dosage, res.Final.State.Mode())
	fmt.Fprintf(out, "opex savings:    IDR %s\n", viz.FormatIDR(res.Economics.Savings))
	fmt.Fprintf(out, "magna cost:      IDR %s/m³ (conventional %s)\n",
		viz.FormatIDR(res.Economics.MagnaCost), viz.FormatIDR(res.Economics.ConventionalCost))
	fmt.Fprintln(out, "\nmetrics:")
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, name := range sortedKeys(res.Metrics) {
		fmt.Fprintf(w, "  %s\t%.4f\n", name, res.Metrics[name])
	}
	w.Flush()
}
