package main

import (
	"fmt"
	"io"
	"math/rand"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/dzakyzahy/AQUA-FLOQ-MAGNA/internal/analysis"
	"github.com/dzakyzahy/AQUA-FLOQ-MAGNA/internal/config"
	"github.com/dzakyzahy/AQUA-FLOQ-MAGNA/internal/experiment"
	"github.com/dzakyzahy/AQUA-FLOQ-MAGNA/internal/kinetics"
	"github.com/dzakyzahy/AQUA-FLOQ-MAGNA/internal/optim"
	"github.com/dzakyzahy/AQUA-FLOQ-MAGNA/internal/process"
)

var (
	kinLoad   float64
	kinDosage float64

	tuneGains     string
	tuneDeadbands string
	tuneTicks     int
	tuneMetric    string
	tuneTop       int

	sweepMin       float64
	sweepMax       float64
	sweepSteps     int
	sweepTransient int
	sweepRecord    int
)

func newKineticsCmd() *cobra.Command {
	kinCmd := &cobra.Command{
		Use:   "kinetics",
		Short: "print the adsorption curve for a load and dose",
		Args:  cobra.NoArgs,
		RunE:  printKinetics,
	}
	kinCmd.Flags().Float64Var(&kinLoad, "load", 0, "pollutant load % (default from config)")
	kinCmd.Flags().Float64Var(&kinDosage, "dosage", 0, "adsorbent dosage g/L (default from config)")
	return kinCmd
}

func printKinetics(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	s := cfg.GetInitState()
	if cmd.Flags().Changed("load") {
		if s, err = process.ApplyUserEdit(s, process.FieldPollutantLoad, kinLoad); err != nil {
			return err
		}
	}
	if cmd.Flags().Changed("dosage") {
		if s, err = process.ApplyUserEdit(s, process.FieldDosage, kinDosage); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	pts := kinetics.Curve(s.PollutantLoad, s.Dosage)
	fmt.Fprintf(out, "load %.0f%%  dosage %.2f g/L  k %.3f  half-life %.1f min\n\n",
		s.PollutantLoad, s.Dosage, kinetics.Rate(s.Dosage), kinetics.HalfLife(s.Dosage))

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "T (MIN)\tC (%)")
	for _, p := range pts {
		fmt.Fprintf(w, "%.0f\t%.2f\n", p.Time, p.Concentration)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, asciigraph.Plot(kinetics.Concentrations(pts),
		asciigraph.Height(10),
		asciigraph.Width(60),
		asciigraph.Caption("residual contaminant, 0-60 min"),
	))
	return nil
}

func newPresetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			names := config.ListPresets()
			sort.Strings(names)
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "PRESET\tLOAD\tDOSAGE\tFLOW\tPH\tDOSING")
			for _, name := range names {
				p := config.Presets[name]
				mode := "auto"
				if !p.AutoDosing {
					mode = "manual"
				}
				fmt.Fprintf(w, "%s\t%.0f%%\t%.1f\t%.0f\t%.1f\t%s\n", name, p.PollutantLoad, p.Dosage, p.FlowRate, p.PH, mode)
			}
			return w.Flush()
		},
	}
}

func newTuneCmd() *cobra.Command {
	tuneCmd := &cobra.Command{
		Use:   "tune",
		Short: "grid-search the dosing controller",
		Args:  cobra.NoArgs,
		RunE:  tuneController,
	}
	tuneCmd.Flags().StringVar(&tuneGains, "gains", "0.05,0.1,0.2,0.4", "comma separated gains to try")
	tuneCmd.Flags().StringVar(&tuneDeadbands, "deadbands", "0.05,0.1,0.2", "comma separated deadbands to try")
	tuneCmd.Flags().IntVar(&tuneTicks, "ticks", 120, "ticks per candidate run")
	tuneCmd.Flags().StringVar(&tuneMetric, "metric", "mean_turbidity", "metric to minimize")
	tuneCmd.Flags().IntVar(&tuneTop, "top", 5, "candidates to print")
	return tuneCmd
}

func tuneController(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	logger, err := newLogger(io.Discard)
	if err != nil {
		return err
	}
	gains, err := parseFloats(tuneGains)
	if err != nil {
		return fmt.Errorf("--gains: %w", err)
	}
	deadbands, err := parseFloats(tuneDeadbands)
	if err != nil {
		return fmt.Errorf("--deadbands: %w", err)
	}

	gs, err := optim.NewGridSearch([]string{"Gain", "Deadband"}, [][]float64{gains, deadbands})
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()
	results, err := gs.Search(ctx, experiment.Config{Sim: cfg, Ticks: tuneTicks, Logger: logger}, tuneMetric)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%d candidates, %d ticks each, seed %d\n\n", len(results), tuneTicks, cfg.Seed)
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "RANK\tGAIN\tDEADBAND\t%s\n", strings.ToUpper(tuneMetric))
	for i, c := range results {
		if i >= tuneTop {
			break
		}
		fmt.Fprintf(w, "%d\t%.3f\t%.3f\t%.4f\n", i+1, c.Params["Gain"], c.Params["Deadband"], c.Score)
	}
	return w.Flush()
}

func parseFloats(list string) ([]float64, error) {
	var out []float64
	for _, field := range strings.Split(list, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		v, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func newSweepCmd() *cobra.Command {
	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "steady-state dose response across pollutant loads",
		Args:  cobra.NoArgs,
		RunE:  sweepLoads,
	}
	sweepCmd.Flags().Float64Var(&sweepMin, "min", 0, "lowest pollutant load %")
	sweepCmd.Flags().Float64Var(&sweepMax, "max", 100, "highest pollutant load %")
	sweepCmd.Flags().IntVar(&sweepSteps, "steps", 11, "number of loads")
	sweepCmd.Flags().IntVar(&sweepTransient, "transient", 60, "ticks discarded before recording")
	sweepCmd.Flags().IntVar(&sweepRecord, "record", 30, "ticks averaged per load")
	return sweepCmd
}

func sweepLoads(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	if sweepMin > sweepMax {
		return fmt.Errorf("--min %.1f exceeds --max %.1f", sweepMin, sweepMax)
	}

	pts := analysis.Sweep(cfg.GetModel(), cfg.GetInitState(), sweepMin, sweepMax,
		sweepSteps, sweepTransient, sweepRecord, rand.New(rand.NewSource(cfg.Seed)))

	out := cmd.OutOrStdout()
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "LOAD\tDOSAGE\tTURBIDITY\tRECOVERY\tALERT TICKS")
	turb := make([]float64, len(pts))
	for i, p := range pts {
		turb[i] = p.Turbidity
		fmt.Fprintf(w, "%.0f%%\t%.2f\t%.2f\t%.2f%%\t%d\n", p.Load, p.Dosage, p.Turbidity, p.Recovery, p.Alerts)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if len(turb) > 1 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, asciigraph.Plot(turb,
			asciigraph.Height(8),
			asciigraph.Width(60),
			asciigraph.Caption("steady-state turbidity vs load"),
		))
	}
	return nil
}
