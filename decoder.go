package bitflip

import "fmt"

// Diagnosis is the decoder's belief about which data qubit suffered a bit-flip.
type Diagnosis uint8

const (
	NoFault Diagnosis = iota
	Qubit1
	Qubit2
	Qubit3
)

// decodeTable is indexed by Syndrome.index(), i.e. s0<<1 | s1.
var decodeTable = [4]Diagnosis{
	0b00: NoFault,
	0b01: Qubit3,
	0b10: Qubit2,
	0b11: Qubit1,
}

/*
Decode maps a syndrome to the diagnosed faulty qubit. It is a fixed total
function over the four syndromes and never depends on which error actually
occurred, so two simultaneous flips alias to a single flip on the third
qubit and phase faults read as NoFault.
*/
func Decode(s Syndrome) Diagnosis {
	return decodeTable[s.index()]
}

// Qubit returns the 1-based data qubit index, or 0 for NoFault.
func (d Diagnosis) Qubit() int {
	return int(d)
}

// Correction returns the recovery operation for the diagnosis.
func (d Diagnosis) Correction() Correction {
	return Correction{qubit: d.Qubit()}
}

func (d Diagnosis) String() string {
	if d == NoFault {
		return "no fault"
	}
	return fmt.Sprintf("qubit %d", d.Qubit())
}

// Correction is either the identity or a bit-flip on one data qubit.
type Correction struct {
	qubit int
}

// IsIdentity reports whether no recovery gate is applied.
func (c Correction) IsIdentity() bool {
	return c.qubit == 0
}

// Qubit returns the 1-based data qubit the correction flips, or 0.
func (c Correction) Qubit() int {
	return c.qubit
}

// Operator expresses the correction as a Pauli string on the data qubits.
func (c Correction) Operator() ErrorOperator {
	if c.IsIdentity() {
		return ErrorOperator{}
	}
	return BitFlip(c.qubit)
}

func (c Correction) String() string {
	if c.IsIdentity() {
		return "identity"
	}
	return fmt.Sprintf("flip qubit %d", c.qubit)
}
