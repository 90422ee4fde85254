package bitflip

// Verdict classifies what the correction did to the injected error.
type Verdict uint8

const (
	// Corrected: the residual error is the identity.
	Corrected Verdict = iota
	// Misdiagnosed: the correction completed a logical bit-flip.
	Misdiagnosed
	// Undetected: the syndrome was zero while an error was present.
	Undetected
	// PartiallyCorrected: the bit component was removed, a phase remains.
	PartiallyCorrected
)

func (v Verdict) String() string {
	switch v {
	case Corrected:
		return "corrected"
	case Misdiagnosed:
		return "misdiagnosed"
	case Undetected:
		return "undetected"
	case PartiallyCorrected:
		return "partially corrected"
	default:
		return "unknown"
	}
}

// Assessment compares a diagnosis against the ground-truth error.
type Assessment struct {
	Injected   ErrorOperator
	Diagnosis  Diagnosis
	Correction Correction
	Residual   ErrorOperator
	Verdict    Verdict
}

// Accurate reports whether the diagnosis left the code word untouched.
func (a Assessment) Accurate() bool {
	return a.Verdict == Corrected
}

/*
LogicalFailure reports whether the residual acts as a logical operator on
the code space: XXX, or an odd number of Z components (ZZ on two qubits is
a stabilizer of the code and acts trivially).
*/
func (a Assessment) LogicalFailure() bool {
	return a.Residual.IsLogicalFlip() || a.Residual.PhasePart().Weight()%2 == 1
}

/*
Assess applies the correction implied by diagnosis to the injected error.
The decoder never sees injected; this is the post-hoc comparison only.
*/
func Assess(injected ErrorOperator, diagnosis Diagnosis) Assessment {
	correction := diagnosis.Correction()
	residual := injected.Mul(correction.Operator())

	a := Assessment{
		Injected:   injected,
		Diagnosis:  diagnosis,
		Correction: correction,
		Residual:   residual,
	}

	switch {
	case residual.IsIdentity():
		a.Verdict = Corrected
	case correction.IsIdentity():
		a.Verdict = Undetected
	case residual.BitFlips() > 0:
		a.Verdict = Misdiagnosed
	default:
		a.Verdict = PartiallyCorrected
	}

	return a
}
