package bitflip

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

// Narrate describes a report in one or two sentences.
func Narrate(r Report) string {
	var b strings.Builder
	a := r.Assessment

	fmt.Fprintf(&b, "Ancilla qubits are in the state %s. ", r.Syndrome.Ket())

	switch a.Verdict {
	case Corrected:
		if a.Correction.IsIdentity() {
			b.WriteString("No errors detected, no correction needed.")
		} else {
			fmt.Fprintf(&b, "Bit-flip error detected on qubit %d; σx on qubit %d restores the code word.",
				a.Diagnosis.Qubit(), a.Correction.Qubit())
		}
	case Misdiagnosed:
		fmt.Fprintf(&b, "Bit-flip error detected on qubit %d. This is a misdiagnosis: "+
			"correcting for it induces a logical bit flip.", a.Diagnosis.Qubit())
	case Undetected:
		switch {
		case a.Injected.HasPhase() && a.Injected.BitFlips() == 0:
			b.WriteString("No errors detected even though a phase-flip error is present.")
		case a.Injected.IsLogicalFlip():
			b.WriteString("No errors detected even though every data qubit flipped; " +
				"the code word is now its logical complement.")
		default:
			fmt.Fprintf(&b, "No errors detected even though %s was applied.", a.Injected)
		}
	case PartiallyCorrected:
		fmt.Fprintf(&b, "Only the bit-flip error on qubit %d was detected, not the phase-flip error.",
			a.Diagnosis.Qubit())
	}

	if !r.Tally.Unanimous() && r.Tally.Shots() > 0 {
		fmt.Fprintf(&b, " (syndrome %s seen in %.1f%% of %d shots)",
			r.Syndrome, 100*r.Tally.Fraction(r.Syndrome), r.Tally.Shots())
	}

	return b.String()
}

// SummaryRow is one line of the accuracy table.
type SummaryRow struct {
	Scenario   string
	Syndrome   string
	Correction string
	Residual   string
	Verdict    string
	Accurate   bool
}

// Summarize turns reports into accuracy table rows.
func Summarize(reports []Report) []SummaryRow {
	rows := make([]SummaryRow, 0, len(reports))
	for _, r := range reports {
		a := r.Assessment
		correction := "none"
		if !a.Correction.IsIdentity() {
			correction = fmt.Sprintf("σx on qubit %d", a.Correction.Qubit())
		}

		rows = append(rows, SummaryRow{
			Scenario:   r.Scenario.Title(),
			Syndrome:   r.Syndrome.Ket(),
			Correction: correction,
			Residual:   a.Residual.String(),
			Verdict:    a.Verdict.String(),
			Accurate:   a.Accurate(),
		})
	}
	return rows
}

// Mark renders the accuracy checkbox.
func (row SummaryRow) Mark() string {
	if row.Accurate {
		return "☑"
	}
	return "☒"
}

// WriteSummary prints the accuracy table as aligned plain text.
func WriteSummary(w io.Writer, reports []Report) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ERROR\tSYNDROME\tCORRECTION\tRESIDUAL\tVERDICT\tACCURATE")

	for _, row := range Summarize(reports) {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			row.Scenario, row.Syndrome, row.Correction, row.Residual, row.Verdict, row.Mark())
	}

	return tw.Flush()
}
