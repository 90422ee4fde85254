package bitflip

import (
	"errors"
	"fmt"
	"strings"
)

// DataQubits is the number of physical qubits carrying the logical qubit.
const DataQubits = 3

// ErrInvalidOperator is returned for malformed Pauli strings.
var ErrInvalidOperator = errors.New("invalid error operator")

// Pauli is a single-qubit Pauli operator, ignoring global phase.
type Pauli uint8

const (
	I Pauli = iota
	X
	Y
	Z
)

func (p Pauli) String() string {
	return [...]string{"I", "X", "Y", "Z"}[p&3]
}

/*
ErrorOperator is a Pauli string over the three data qubits, stored as
X and Z masks where bit i belongs to qubit i+1. Y sets both masks.
Products are taken modulo phase, which is all the repetition code can see.
*/
type ErrorOperator struct {
	x uint8
	z uint8
}

// NewErrorOperator builds an operator from per-qubit Paulis, qubit 1 first.
func NewErrorOperator(paulis ...Pauli) ErrorOperator {
	var op ErrorOperator
	for i, p := range paulis {
		if i >= DataQubits {
			break
		}
		op = op.Mul(single(i+1, p))
	}
	return op
}

// BitFlip is an X on the given 1-based qubit.
func BitFlip(qubit int) ErrorOperator {
	return single(qubit, X)
}

// PhaseFlip is a Z on the given 1-based qubit.
func PhaseFlip(qubit int) ErrorOperator {
	return single(qubit, Z)
}

/*
ParseErrorOperator reads strings such as "XIX" or "iyi", one letter per
data qubit.
*/
func ParseErrorOperator(text string) (ErrorOperator, error) {
	if len(text) != DataQubits {
		return ErrorOperator{}, fmt.Errorf("%w: %q", ErrInvalidOperator, text)
	}

	paulis := make([]Pauli, 0, DataQubits)
	for _, r := range strings.ToUpper(text) {
		switch r {
		case 'I':
			paulis = append(paulis, I)
		case 'X':
			paulis = append(paulis, X)
		case 'Y':
			paulis = append(paulis, Y)
		case 'Z':
			paulis = append(paulis, Z)
		default:
			return ErrorOperator{}, fmt.Errorf("%w: %q", ErrInvalidOperator, text)
		}
	}

	return NewErrorOperator(paulis...), nil
}

func single(qubit int, p Pauli) ErrorOperator {
	if qubit < 1 || qubit > DataQubits {
		return ErrorOperator{}
	}

	bit := uint8(1) << (qubit - 1)
	switch p {
	case X:
		return ErrorOperator{x: bit}
	case Y:
		return ErrorOperator{x: bit, z: bit}
	case Z:
		return ErrorOperator{z: bit}
	default:
		return ErrorOperator{}
	}
}

// On returns the Pauli acting on the 1-based qubit.
func (e ErrorOperator) On(qubit int) Pauli {
	if qubit < 1 || qubit > DataQubits {
		return I
	}

	bit := uint8(1) << (qubit - 1)
	hasX, hasZ := e.x&bit != 0, e.z&bit != 0

	switch {
	case hasX && hasZ:
		return Y
	case hasX:
		return X
	case hasZ:
		return Z
	default:
		return I
	}
}

// Mul composes two operators modulo phase.
func (e ErrorOperator) Mul(other ErrorOperator) ErrorOperator {
	return ErrorOperator{x: e.x ^ other.x, z: e.z ^ other.z}
}

func (e ErrorOperator) IsIdentity() bool {
	return e.x == 0 && e.z == 0
}

// BitPart keeps only the X component of every qubit.
func (e ErrorOperator) BitPart() ErrorOperator {
	return ErrorOperator{x: e.x}
}

// PhasePart keeps only the Z component of every qubit.
func (e ErrorOperator) PhasePart() ErrorOperator {
	return ErrorOperator{z: e.z}
}

// Flipped reports whether the 1-based qubit has its computational value flipped.
func (e ErrorOperator) Flipped(qubit int) bool {
	if qubit < 1 || qubit > DataQubits {
		return false
	}
	return e.x&(uint8(1)<<(qubit-1)) != 0
}

// BitFlips counts the qubits with an X component.
func (e ErrorOperator) BitFlips() int {
	return popcount(e.x)
}

// Weight counts the qubits with a non-identity Pauli.
func (e ErrorOperator) Weight() int {
	return popcount(e.x | e.z)
}

// HasPhase reports whether any qubit carries a Z component.
func (e ErrorOperator) HasPhase() bool {
	return e.z != 0
}

// IsLogicalFlip reports whether the X component is X on every data qubit.
func (e ErrorOperator) IsLogicalFlip() bool {
	return e.x == 1<<DataQubits-1
}

/*
Syndrome returns the parity checks this operator triggers on an encoded
state. Only X components flip computational-basis parities.
*/
func (e ErrorOperator) Syndrome() Syndrome {
	return Syndrome{
		s0: e.Flipped(1) != e.Flipped(2),
		s1: e.Flipped(1) != e.Flipped(3),
	}
}

func (e ErrorOperator) String() string {
	var b strings.Builder
	for q := 1; q <= DataQubits; q++ {
		b.WriteString(e.On(q).String())
	}
	return b.String()
}

func popcount(v uint8) int {
	n := 0
	for ; v != 0; v &= v - 1 {
		n++
	}
	return n
}
