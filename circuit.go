package bitflip

import (
	"fmt"
	"strings"
)

// Register layout of the syndrome extraction circuit.
const (
	DataQubit    = 0 // q: the qubit carrying the logical state
	Redundancy1  = 1 // d[0]
	Redundancy2  = 2 // d[1]
	AncillaS0    = 3 // a[0]: parity of qubits 1 and 2
	AncillaS1    = 4 // a[1]: parity of qubits 1 and 3
	TotalQubits  = 5
	SyndromeBits = 2
)

// Gate is one instruction on the circuit timeline.
type Gate struct {
	Name   string
	Qubits []int
}

/*
Circuit is the encode, inject, check, measure sequence for one scenario.
Measured maps classical bit i to the qubit it reads.
*/
type Circuit struct {
	Scenario Scenario
	Gates    []Gate
	Measured []int
}

// BuildCircuit lays out the five-qubit circuit for a scenario.
func BuildCircuit(s Scenario) Circuit {
	c := Circuit{Scenario: s}

	c.add("cx", DataQubit, Redundancy1)
	c.add("cx", Redundancy1, Redundancy2)
	c.add("barrier")

	fault := s.Fault()
	for q := 1; q <= DataQubits; q++ {
		c.add(gateName(fault.On(q)), q-1)
	}
	c.add("barrier")

	c.add("cx", DataQubit, AncillaS0)
	c.add("cx", Redundancy1, AncillaS0)
	c.add("cx", DataQubit, AncillaS1)
	c.add("cx", Redundancy2, AncillaS1)
	c.add("barrier")

	if s.MeasureAll() {
		for q := 0; q < TotalQubits; q++ {
			c.Measured = append(c.Measured, q)
		}
	} else {
		c.Measured = []int{AncillaS0, AncillaS1}
	}

	return c
}

func gateName(p Pauli) string {
	if p == I {
		return "id"
	}
	return strings.ToLower(p.String())
}

func (c *Circuit) add(name string, qubits ...int) {
	c.Gates = append(c.Gates, Gate{Name: name, Qubits: qubits})
}

// ClassicalBits is the width of the measurement register.
func (c Circuit) ClassicalBits() int {
	return len(c.Measured)
}

// QASM renders the circuit as an OpenQASM 2.0 program.
func (c Circuit) QASM() string {
	var b strings.Builder

	b.WriteString("OPENQASM 2.0;\n")
	b.WriteString("include \"qelib1.inc\";\n\n")
	fmt.Fprintf(&b, "qreg q[%d];\n", TotalQubits)
	fmt.Fprintf(&b, "creg c[%d];\n\n", c.ClassicalBits())

	for _, g := range c.Gates {
		if g.Name == "barrier" {
			b.WriteString("barrier q;\n")
			continue
		}
		operands := make([]string, len(g.Qubits))
		for i, q := range g.Qubits {
			operands[i] = fmt.Sprintf("q[%d]", q)
		}
		fmt.Fprintf(&b, "%s %s;\n", g.Name, strings.Join(operands, ","))
	}
	b.WriteString("\n")

	for clbit, q := range c.Measured {
		fmt.Fprintf(&b, "measure q[%d] -> c[%d];\n", q, clbit)
	}

	return b.String()
}
