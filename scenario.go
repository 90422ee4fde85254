package bitflip

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownScenario is returned by ParseScenario for unrecognized names.
var ErrUnknownScenario = errors.New("unknown scenario")

// Scenario enumerates the fault injection experiments.
type Scenario uint8

const (
	NoError Scenario = iota
	XError1
	XError2
	XError3
	XError12
	XError13
	XError23
	XError123
	ZError1
	ZError2
	ZError3
	YError1
	YError2
	YError3
)

type scenarioDef struct {
	name       string
	title      string
	op         ErrorOperator
	measureAll bool
}

// Phase-type scenarios measure every qubit so the data register is visible.
var scenarios = [...]scenarioDef{
	NoError:   {"NoError", "No error", ErrorOperator{}, false},
	XError1:   {"XError1", "σx on qubit 1", BitFlip(1), false},
	XError2:   {"XError2", "σx on qubit 2", BitFlip(2), false},
	XError3:   {"XError3", "σx on qubit 3", BitFlip(3), false},
	XError12:  {"XError12", "σx on qubits 1 & 2", BitFlip(1).Mul(BitFlip(2)), false},
	XError13:  {"XError13", "σx on qubits 1 & 3", BitFlip(1).Mul(BitFlip(3)), false},
	XError23:  {"XError23", "σx on qubits 2 & 3", BitFlip(2).Mul(BitFlip(3)), false},
	XError123: {"XError123", "σx on qubits 1 & 2 & 3", NewErrorOperator(X, X, X), false},
	ZError1:   {"ZError1", "σz on qubit 1", PhaseFlip(1), true},
	ZError2:   {"ZError2", "σz on qubit 2", PhaseFlip(2), true},
	ZError3:   {"ZError3", "σz on qubit 3", PhaseFlip(3), true},
	YError1:   {"YError1", "σy on qubit 1", single(1, Y), true},
	YError2:   {"YError2", "σy on qubit 2", single(2, Y), true},
	YError3:   {"YError3", "σy on qubit 3", single(3, Y), true},
}

// Scenarios returns every scenario in catalogue order.
func Scenarios() []Scenario {
	out := make([]Scenario, len(scenarios))
	for i := range scenarios {
		out[i] = Scenario(i)
	}
	return out
}

// ParseScenario matches a scenario name case-insensitively.
func ParseScenario(name string) (Scenario, error) {
	for i, def := range scenarios {
		if strings.EqualFold(def.name, name) {
			return Scenario(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownScenario, name)
}

func (s Scenario) valid() bool {
	return int(s) < len(scenarios)
}

func (s Scenario) String() string {
	if !s.valid() {
		return fmt.Sprintf("Scenario(%d)", s)
	}
	return scenarios[s].name
}

// Title is the human label used in summaries.
func (s Scenario) Title() string {
	if !s.valid() {
		return s.String()
	}
	return scenarios[s].title
}

// Fault is the ground-truth operator injected between encoding and correction.
func (s Scenario) Fault() ErrorOperator {
	if !s.valid() {
		return ErrorOperator{}
	}
	return scenarios[s].op
}

// MeasureAll reports whether the circuit measures data qubits as well as ancillas.
func (s Scenario) MeasureAll() bool {
	return s.valid() && scenarios[s].measureAll
}

func (s Scenario) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Scenario) UnmarshalText(text []byte) error {
	parsed, err := ParseScenario(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
