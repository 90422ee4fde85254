package main

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/theapemachine/bitflip"
	"github.com/theapemachine/bitflip/store"
)

var (
	goodMark = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	badMark  = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	heading  = lipgloss.NewStyle().Bold(true).Underline(true)
)

var runCmd = &cobra.Command{
	Use:   "run [scenario...]",
	Short: "Run fault-injection scenarios and narrate each diagnosis",
	Long: `Runs the named scenarios (all of them when none are given), prints one
sentence per scenario describing the syndrome and correction, followed by
the accuracy table.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runExperiment(cmd, args, true)
	},
}

var tableCmd = &cobra.Command{
	Use:   "table",
	Short: "Run every scenario and print only the accuracy table",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runExperiment(cmd, nil, false)
	},
}

func runExperiment(cmd *cobra.Command, args []string, narrate bool) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	scenarios, err := parseScenarios(args)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	harness := bitflip.NewHarness(ctx, cfg.Sampler(), cfg)
	defer harness.Close()

	inaccurate := harness.Subscribe("cli", bitflip.Inaccurate())
	go func() {
		for res := range inaccurate {
			a := res.Report.Assessment
			log.Debug("inaccurate diagnosis",
				"scenario", res.Report.Scenario,
				"verdict", a.Verdict,
				"residual", a.Residual,
			)
		}
	}()

	exp, err := harness.Run(ctx, scenarios...)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if narrate {
		for _, r := range exp.Reports {
			fmt.Fprintln(out, heading.Render(r.Scenario.Title()))
			fmt.Fprintln(out, formatCounts(r.Counts))
			fmt.Fprintln(out, bitflip.Narrate(r))
			fmt.Fprintln(out)
		}
	}

	writeTable(out, exp.Reports)
	fmt.Fprintf(out, "\nexperiment %s: %d scenarios, accuracy %.0f%%\n",
		exp.ID, len(exp.Reports), 100*harness.Metrics().Accuracy())

	if dbPath != "" {
		ledger, err := store.Open(dbPath)
		if err != nil {
			return err
		}
		defer ledger.Close()

		if err := ledger.SaveExperiment(ctx, exp); err != nil {
			return err
		}
		log.Info("experiment saved", "db", dbPath, "experiment", exp.ID)
	}

	return nil
}

func parseScenarios(args []string) ([]bitflip.Scenario, error) {
	scenarios := make([]bitflip.Scenario, 0, len(args))
	for _, arg := range args {
		s, err := bitflip.ParseScenario(arg)
		if err != nil {
			return nil, err
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

// writeTable prints the accuracy table with colored marks.
func writeTable(w io.Writer, reports []bitflip.Report) {
	rows := bitflip.Summarize(reports)

	fmt.Fprintf(w, "%-24s %-9s %-16s %-9s %-20s %s\n",
		"ERROR", "SYNDROME", "CORRECTION", "RESIDUAL", "VERDICT", "ACCURATE")

	for _, row := range rows {
		mark := badMark.Render(row.Mark())
		if row.Accurate {
			mark = goodMark.Render(row.Mark())
		}
		fmt.Fprintf(w, "%-24s %-9s %-16s %-9s %-20s %s\n",
			row.Scenario, row.Syndrome, row.Correction, row.Residual, row.Verdict, mark)
	}
}

// formatCounts renders a histogram the way a results dictionary prints.
func formatCounts(c bitflip.Counts) string {
	s := "{"
	for i, k := range c.Keys() {
		if i > 0 {
			s += ", "
		}
		s += fmt.Sprintf("'%s': %d", k, c[k])
	}
	return s + "}"
}
