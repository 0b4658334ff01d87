package main

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/dzakyzahy/AQUA-FLOQ-MAGNA/internal/analysis"
	"github.com/dzakyzahy/AQUA-FLOQ-MAGNA/internal/storage"
)

// plotColumns are drawn by plot unless --column is given.
var plotColumns = []string{"turbidity", "dosage", "recovery_rate", "dissolved_oxygen"}

var plotColumn string

func openStore(cmd *cobra.Command) (*storage.Store, error) {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return nil, err
	}
	return storage.New(cfg.DataDir), nil
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "list recorded runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}
}

func listRuns(cmd *cobra.Command, args []string) error {
	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	runs, err := st.List()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(runs) == 0 {
		fmt.Fprintln(out, "no runs found")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPRESET\tTIME\tTICKS\tINTERVAL\tSAVINGS\tMEAN TURB")
	for _, run := range runs {
		p := run.Preset
		if p == "" {
			p = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\t%.2f\n",
			run.ID,
			p,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Ticks,
			run.Interval,
			run.Savings,
			run.Metrics["mean_turbidity"],
		)
	}
	return w.Flush()
}

func newPlotCmd() *cobra.Command {
	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot recorded sensor series",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&plotColumn, "column", "", "plot a single column ("+strings.Join(storage.Columns[2:10], ", ")+")")
	return plotCmd
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	cols, err := st.LoadColumns(runID)
	if err != nil {
		return err
	}

	names := plotColumns
	if plotColumn != "" {
		if _, ok := cols[plotColumn]; !ok {
			return fmt.Errorf("unknown column: %s", plotColumn)
		}
		names = []string{plotColumn}
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "run: %s\n", meta.ID)
	fmt.Fprintf(out, "samples: %d\n\n", len(cols["tick"]))
	if len(cols["tick"]) == 0 {
		return fmt.Errorf("no data to plot")
	}

	for _, name := range names {
		graph := asciigraph.Plot(cols[name],
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(name+" vs tick"),
		)
		fmt.Fprintln(out, graph)
		fmt.Fprintln(out)
	}
	return nil
}

func newExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export [run_id]",
		Short: "print run metadata as json",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(cmd)
			if err != nil {
				return err
			}
			meta, err := st.Load(args[0])
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(meta)
		},
	}
}

func newAnalyzeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "summarize a recorded run",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	st := storage.New(cfg.DataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	cols, err := st.LoadColumns(args[0])
	if err != nil {
		return err
	}
	if len(cols["tick"]) == 0 {
		return fmt.Errorf("no data")
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "analysis: %s\n\n", meta.ID)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "COLUMN\tMEAN\tSTDDEV\tMIN\tMAX")
	for _, name := range storage.Columns[2:9] {
		s := analysis.Describe(cols[name])
		fmt.Fprintf(w, "%s\t%.3f\t%.3f\t%.3f\t%.3f\n", name, s.Mean, s.StdDev, s.Min, s.Max)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	resp, err := analysis.ControllerResponse(cols["pollutant_load"], cols["dosage"], cfg.DosingController())
	if err != nil {
		return err
	}
	fmt.Fprintln(out)
	if resp.SettlingTick < 0 {
		fmt.Fprintln(out, "dosage settled: never")
	} else {
		fmt.Fprintf(out, "dosage settled: tick %d\n", int(cols["tick"][resp.SettlingTick]))
	}
	fmt.Fprintf(out, "final error:    %+.3f g/L\n", resp.FinalError)
	fmt.Fprintf(out, "peak error:     %.3f g/L\n", resp.PeakError)
	fmt.Fprintf(out, "adjustments:    %d\n", resp.Adjustments)

	if p := analysis.DominantPeriod(cols["turbidity"]); p > 0 && !math.IsInf(p, 0) {
		fmt.Fprintf(out, "turbidity period: %.1f ticks\n", p)
	}

	if len(meta.Metrics) > 0 {
		fmt.Fprintln(out, "\nrecorded metrics:")
		for _, name := range sortedKeys(meta.Metrics) {
			fmt.Fprintf(out, "  %-22s %.4f\n", name, meta.Metrics[name])
		}
	}
	return nil
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
