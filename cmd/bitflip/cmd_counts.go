package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/theapemachine/bitflip"
)

var countsScenario string

var countsCmd = &cobra.Command{
	Use:   "counts <file>",
	Short: "Decode a counts histogram produced by an external simulator",
	Long: `Reads a YAML or JSON object mapping measured bit strings to shot counts,
decodes every outcome and prints the syndrome tally. With --scenario the
dominant diagnosis is also assessed against that scenario's injected fault.`,
	Args: cobra.ExactArgs(1),
	RunE: runCounts,
}

func init() {
	countsCmd.Flags().StringVar(&countsScenario, "scenario", "", "scenario the histogram was produced for")
}

func runCounts(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	counts, err := bitflip.ReadCounts(f)
	if err != nil {
		return fmt.Errorf("%s: %w", args[0], err)
	}

	tally, err := bitflip.Interpret(counts)
	if err != nil {
		return err
	}
	if cfg.Strict {
		if err := tally.Strict(); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	for _, s := range bitflip.Syndromes {
		if n := tally.Count(s); n > 0 {
			d := bitflip.Decode(s)
			fmt.Fprintf(out, "%s  %6d shots  %5.1f%%  %-9s  %s\n",
				s.Ket(), n, 100*tally.Fraction(s), d, d.Correction())
		}
	}

	if countsScenario == "" {
		return nil
	}

	scenario, err := bitflip.ParseScenario(countsScenario)
	if err != nil {
		return err
	}
	report, err := bitflip.Evaluate(scenario, counts)
	if err != nil {
		return err
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, bitflip.Narrate(report))
	writeTable(out, []bitflip.Report{report})
	return nil
}
