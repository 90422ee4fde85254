package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/theapemachine/bitflip"
)

var qasmCmd = &cobra.Command{
	Use:   "qasm <scenario>",
	Short: "Print the OpenQASM 2.0 program for a scenario",
	Long: `Prints the encode / inject / parity-check circuit so it can be run on an
external simulator. Its counts can then be fed back through "bitflip counts".`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := bitflip.ParseScenario(args[0])
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), bitflip.BuildCircuit(s).QASM())
		return nil
	},
}
