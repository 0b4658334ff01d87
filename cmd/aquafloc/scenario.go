package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dzakyzahy/AQUA-FLOQ-MAGNA/internal/automation"
	"github.com/dzakyzahy/AQUA-FLOQ-MAGNA/internal/storage"
)

func newScenarioCmd() *cobra.Command {
	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run a scripted operator scenario (yaml)",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}
	scenarioCmd.Flags().IntVar(&every, "every", 10, "print every n-th tick")
	return scenarioCmd
}

func runScenario(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	logger, err := newLogger(os.Stderr)
	if err != nil {
		return err
	}
	sc, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()
	exp, res, err := automation.RunScenario(ctx, sc, cfg, logger)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "scenario: %s\n", sc.Name)
	if sc.Description != "" {
		fmt.Fprintf(out, "%s\n", sc.Description)
	}
	fmt.Fprintln(out)
	if err := printSamples(out, res.Samples, every); err != nil {
		return err
	}
	printSummary(out, res)

	if sc.SaveAs == "" {
		return nil
	}
	st := storage.New(cfg.DataDir)
	if err := st.Init(); err != nil {
		return err
	}
	meta := exp.Metadata(res)
	if meta.Preset == "" {
		meta.Preset = sc.SaveAs
	}
	id, err := st.Save(meta, res.Samples)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "\nrun saved: %s\n", id)
	return nil
}
