package bitflip

import (
	"errors"
	"fmt"
)

// ErrInvalidSyndrome is returned when a textual syndrome is not two binary digits.
var ErrInvalidSyndrome = errors.New("invalid syndrome")

/*
Syndrome is the outcome of the two parity checks of the bit-flip code.
S0 compares data qubits 1 and 2 (ancilla a0), S1 compares data qubits
1 and 3 (ancilla a1). The zero value is the all-zero syndrome.
*/
type Syndrome struct {
	s0 bool
	s1 bool
}

// Syndromes lists the whole domain in table order.
var Syndromes = [4]Syndrome{
	{false, false},
	{true, true},
	{true, false},
	{false, true},
}

func NewSyndrome(s0, s1 bool) Syndrome {
	return Syndrome{s0: s0, s1: s1}
}

// ParseSyndrome reads the "s0s1" form, e.g. "10" for a flipped second qubit.
func ParseSyndrome(text string) (Syndrome, error) {
	if len(text) != 2 {
		return Syndrome{}, fmt.Errorf("%w: %q", ErrInvalidSyndrome, text)
	}

	s0, ok0 := parseBit(text[0])
	s1, ok1 := parseBit(text[1])
	if !ok0 || !ok1 {
		return Syndrome{}, fmt.Errorf("%w: %q", ErrInvalidSyndrome, text)
	}

	return Syndrome{s0: s0, s1: s1}, nil
}

func (s Syndrome) S0() bool { return s.s0 }
func (s Syndrome) S1() bool { return s.s1 }

// IsZero reports whether neither parity check fired.
func (s Syndrome) IsZero() bool {
	return !s.s0 && !s.s1
}

func (s Syndrome) String() string {
	return string([]byte{bitChar(s.s0), bitChar(s.s1)})
}

// Ket renders the syndrome as an ancilla basis state, e.g. |10⟩.
func (s Syndrome) Ket() string {
	return "|" + s.String() + "⟩"
}

func (s Syndrome) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Syndrome) UnmarshalText(text []byte) error {
	parsed, err := ParseSyndrome(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// index packs the syndrome as s0<<1 | s1.
func (s Syndrome) index() int {
	i := 0
	if s.s0 {
		i |= 2
	}
	if s.s1 {
		i |= 1
	}
	return i
}

func parseBit(c byte) (bool, bool) {
	switch c {
	case '0':
		return false, true
	case '1':
		return true, true
	default:
		return false, false
	}
}

func bitChar(b bool) byte {
	if b {
		return '1'
	}
	return '0'
}
