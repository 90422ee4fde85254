package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/theapemachine/bitflip/store"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history [run-id]",
	Short: "List stored experiments, or show the accuracy table of one",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "number of runs to list")
}

func runHistory(cmd *cobra.Command, args []string) error {
	if dbPath == "" {
		return errors.New("history needs --db")
	}

	ledger, err := store.Open(dbPath)
	if err != nil {
		return err
	}
	defer ledger.Close()

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	if len(args) == 1 {
		exp, err := ledger.Experiment(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "experiment %s  %s\n\n", exp.ID, exp.StartedAt.Local().Format(time.DateTime))
		writeTable(out, exp.Reports)
		return nil
	}

	runs, err := ledger.Runs(ctx, historyLimit)
	if err != nil {
		return err
	}
	for _, r := range runs {
		fmt.Fprintf(out, "%s  %s  %2d/%2d accurate  %s\n",
			r.RunID, r.StartedAt.Local().Format(time.DateTime), r.Accurate, r.Scenarios, r.Duration.Round(time.Millisecond))
	}
	return nil
}
