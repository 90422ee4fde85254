// Command bitflip runs fault-injection experiments against the 3-qubit
// bit-flip code and decodes syndrome histograms.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/theapemachine/bitflip"
)

var (
	configPath   string
	logLevel     string
	shots        int
	workers      int
	readoutError float64
	logicalInput float64
	seed         uint64
	strict       bool
	interval     time.Duration
	dbPath       string
)

var rootCmd = &cobra.Command{
	Use:   "bitflip",
	Short: "3-qubit bit-flip code: syndrome decoding and fault-injection experiments",
	Long: `bitflip injects Pauli faults into the 3-qubit repetition code, samples
the two parity-check ancillas, decodes the syndrome and reports whether the
correction repaired, missed or worsened the fault.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "YAML config file")
	flags.StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	flags.IntVar(&shots, "shots", 0, "shots per scenario")
	flags.IntVar(&workers, "workers", 0, "concurrent trial workers")
	flags.Float64Var(&readoutError, "readout-error", 0, "per-bit readout flip probability")
	flags.Float64Var(&logicalInput, "logical-input", 0, "probability of preparing logical |1⟩")
	flags.Uint64Var(&seed, "seed", 0, "sampler seed (0 picks one from the clock)")
	flags.BoolVar(&strict, "strict", false, "fail on histograms that disagree on the syndrome")
	flags.DurationVar(&interval, "sample-interval", 0, "minimum spacing between sampler calls")
	flags.StringVar(&dbPath, "db", "", "SQLite ledger for experiment runs")

	rootCmd.AddCommand(decodeCmd, runCmd, tableCmd, qasmCmd, countsCmd, historyCmd)
}

// loadConfig merges file, environment and explicitly set flags.
func loadConfig(cmd *cobra.Command) (*bitflip.Config, error) {
	cfg, err := bitflip.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.LogLevel = logLevel
	}
	if flags.Changed("shots") {
		cfg.Shots = shots
	}
	if flags.Changed("workers") {
		cfg.Workers = workers
	}
	if flags.Changed("readout-error") {
		cfg.ReadoutError = readoutError
	}
	if flags.Changed("logical-input") {
		cfg.LogicalInput = logicalInput
	}
	if flags.Changed("seed") {
		cfg.Seed = seed
	}
	if flags.Changed("strict") {
		cfg.Strict = strict
	}
	if flags.Changed("sample-interval") {
		cfg.SampleInterval = interval
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.ApplyLogLevel(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log.Error("command failed", "err", err)
		os.Exit(1)
	}
}
