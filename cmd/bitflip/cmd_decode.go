package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/theapemachine/bitflip"
)

var decodeCmd = &cobra.Command{
	Use:   "decode [syndrome...]",
	Short: "Decode two-bit syndromes (s0s1); with no arguments print the whole table",
	RunE:  runDecode,
}

func runDecode(cmd *cobra.Command, args []string) error {
	syndromes := bitflip.Syndromes[:]

	if len(args) > 0 {
		syndromes = make([]bitflip.Syndrome, 0, len(args))
		for _, arg := range args {
			s, err := bitflip.ParseSyndrome(arg)
			if err != nil {
				return err
			}
			syndromes = append(syndromes, s)
		}
	}

	out := cmd.OutOrStdout()
	for _, s := range syndromes {
		d := bitflip.Decode(s)
		fmt.Fprintf(out, "%s  %-9s  %s\n", s.Ket(), d, d.Correction())
	}
	return nil
}
