package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// resetFlags undoes earlier invocations; flag values live in package state.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.PersistentFlags().VisitAll(reset)
	cmd.Flags().VisitAll(reset)

	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}

func execute(args ...string) (string, error) {
	resetFlags(rootCmd)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)

	err := rootCmd.Execute()
	return out.String(), err
}

func TestCommands(t *testing.T) {
	Convey("Given the decode command", t, func() {
		Convey("Without arguments it prints the whole table", func() {
			out, err := execute("decode")
			So(err, ShouldBeNil)
			So(strings.Count(out, "\n"), ShouldEqual, 4)
			So(out, ShouldContainSubstring, "|11⟩  qubit 1")
		})

		Convey("Invalid syndromes are rejected", func() {
			_, err := execute("decode", "2")
			So(err, ShouldNotBeNil)
		})
	})

	Convey("Given the qasm command", t, func() {
		out, err := execute("qasm", "XError3")

		So(err, ShouldBeNil)
		So(out, ShouldContainSubstring, "x q[2];")
		So(out, ShouldContainSubstring, "measure q[4] -> c[1];")
	})

	Convey("Given a counts file", t, func() {
		path := filepath.Join(t.TempDir(), "counts.yaml")
		So(os.WriteFile(path, []byte(`{"01": 1000, "00": 24}`), 0o600), ShouldBeNil)

		Convey("The tally and assessment are printed", func() {
			out, err := execute("counts", path, "--scenario", "XError2")
			So(err, ShouldBeNil)
			So(out, ShouldContainSubstring, "|10⟩")
			So(out, ShouldContainSubstring, "restores the code word")
		})
	})

	Convey("Given a ledger file", t, func() {
		db := filepath.Join(t.TempDir(), "ledger.db")

		Convey("A run is narrated, saved and listed", func() {
			out, err := execute("run", "--db", db, "--shots", "16", "--seed", "5", "NoError", "XError12")
			So(err, ShouldBeNil)
			So(out, ShouldContainSubstring, "{'00': 16}")
			So(out, ShouldContainSubstring, "No errors detected, no correction needed.")
			So(out, ShouldContainSubstring, "misdiagnosis")

			_, rest, found := strings.Cut(out, "\nexperiment ")
			So(found, ShouldBeTrue)
			runID, _, _ := strings.Cut(rest, ":")
			So(runID, ShouldNotBeEmpty)

			listed, err := execute("history", "--db", db)
			So(err, ShouldBeNil)
			So(listed, ShouldContainSubstring, runID)
			So(listed, ShouldContainSubstring, " 1/ 2 accurate")

			shown, err := execute("history", "--db", db, runID)
			So(err, ShouldBeNil)
			So(shown, ShouldContainSubstring, "σx on qubits 1 & 2")
			So(shown, ShouldContainSubstring, "misdiagnosed")
		})

		Convey("History needs a ledger", func() {
			_, err := execute("history")
			So(err, ShouldNotBeNil)
		})
	})

	Convey("Given the table command", t, func() {
		out, err := execute("table", "--shots", "8", "--workers", "2")

		Convey("Every scenario gets a row", func() {
			So(err, ShouldBeNil)
			So(out, ShouldContainSubstring, "σy on qubit 3")
			So(out, ShouldNotContainSubstring, "Ancilla qubits")
			So(out, ShouldContainSubstring, "14 scenarios")
		})
	})

	Convey("Given flags that override the configuration", t, func() {
		Convey("Out-of-range values are rejected", func() {
			_, err := execute("table", "--readout-error", "2")
			So(err, ShouldNotBeNil)
		})

		Convey("Unchanged flags keep the configured defaults", func() {
			cmd, _, err := rootCmd.Find([]string{"table"})
			So(err, ShouldBeNil)
			resetFlags(rootCmd)

			cfg, err := loadConfig(cmd)
			So(err, ShouldBeNil)
			So(cfg.Shots, ShouldEqual, 1024)
			So(cfg.Workers, ShouldEqual, 4)
		})

		Convey("Changed flags win over the defaults", func() {
			resetFlags(rootCmd)
			So(rootCmd.ParseFlags([]string{"--shots", "32", "--strict"}), ShouldBeNil)

			cfg, err := loadConfig(rootCmd)
			So(err, ShouldBeNil)
			So(cfg.Shots, ShouldEqual, 32)
			So(cfg.Strict, ShouldBeTrue)
		})
	})
}
