package bitflip

import (
	"errors"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestScenario(t *testing.T) {
	Convey("Given the scenario catalogue", t, func() {
		all := Scenarios()

		Convey("It holds fourteen experiments in order", func() {
			So(len(all), ShouldEqual, 14)
			So(all[0], ShouldEqual, NoError)
			So(all[len(all)-1], ShouldEqual, YError3)
		})

		Convey("Names parse back case-insensitively", func() {
			for _, s := range all {
				parsed, err := ParseScenario(strings.ToLower(s.String()))
				So(err, ShouldBeNil)
				So(parsed, ShouldEqual, s)
			}

			_, err := ParseScenario("WError1")
			So(errors.Is(err, ErrUnknownScenario), ShouldBeTrue)
		})

		Convey("Only phase-type scenarios measure every qubit", func() {
			for _, s := range all {
				So(s.MeasureAll(), ShouldEqual, s.Fault().HasPhase())
			}
		})

		Convey("Titles follow the fault", func() {
			So(XError13.Title(), ShouldEqual, "σx on qubits 1 & 3")
			So(YError2.Title(), ShouldEqual, "σy on qubit 2")
			So(YError2.Fault().String(), ShouldEqual, "IYI")
		})
	})
}

func TestBuildCircuit(t *testing.T) {
	Convey("Given the circuit for a single bit-flip", t, func() {
		c := BuildCircuit(XError2)
		qasm := c.QASM()

		Convey("It declares five qubits and two classical bits", func() {
			So(qasm, ShouldStartWith, "OPENQASM 2.0;\ninclude \"qelib1.inc\";")
			So(qasm, ShouldContainSubstring, "qreg q[5];")
			So(qasm, ShouldContainSubstring, "creg c[2];")
			So(c.ClassicalBits(), ShouldEqual, SyndromeBits)
		})

		Convey("It encodes, injects and checks parity in order", func() {
			encode := strings.Index(qasm, "cx q[1],q[2];")
			inject := strings.Index(qasm, "x q[1];")
			check := strings.Index(qasm, "cx q[2],q[4];")

			So(encode, ShouldBeGreaterThan, 0)
			So(inject, ShouldBeGreaterThan, encode)
			So(check, ShouldBeGreaterThan, inject)
			So(qasm, ShouldContainSubstring, "id q[0];")
			So(qasm, ShouldContainSubstring, "id q[2];")
		})

		Convey("It measures only the ancillas", func() {
			So(qasm, ShouldContainSubstring, "measure q[3] -> c[0];")
			So(qasm, ShouldContainSubstring, "measure q[4] -> c[1];")
			So(qasm, ShouldNotContainSubstring, "measure q[0]")
		})
	})

	Convey("Given the circuit for a phase-flip", t, func() {
		c := BuildCircuit(ZError3)
		qasm := c.QASM()

		Convey("Every qubit is measured", func() {
			So(c.Measured, ShouldResemble, []int{0, 1, 2, 3, 4})
			So(qasm, ShouldContainSubstring, "creg c[5];")
			So(qasm, ShouldContainSubstring, "z q[2];")
			So(qasm, ShouldContainSubstring, "measure q[0] -> c[0];")
		})
	})
}
