package bitflip

import (
	"sync"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestDecode(t *testing.T) {
	Convey("Given the four possible syndromes", t, func() {
		table := []struct {
			syndrome   string
			diagnosis  Diagnosis
			correction int
		}{
			{"00", NoFault, 0},
			{"11", Qubit1, 1},
			{"10", Qubit2, 2},
			{"01", Qubit3, 3},
		}

		Convey("Each decodes to its table entry", func() {
			for _, row := range table {
				s, err := ParseSyndrome(row.syndrome)
				So(err, ShouldBeNil)

				d := Decode(s)
				So(d, ShouldEqual, row.diagnosis)
				So(d.Correction().Qubit(), ShouldEqual, row.correction)
				So(d.Correction().IsIdentity(), ShouldEqual, row.correction == 0)
			}
		})

		Convey("Decoding is pure", func() {
			for _, s := range Syndromes {
				So(Decode(s), ShouldEqual, Decode(s))
			}
		})

		Convey("Decoding is safe from many goroutines", func() {
			var wg sync.WaitGroup
			results := make([][4]Diagnosis, 32)

			for g := range results {
				wg.Add(1)
				go func() {
					defer wg.Done()
					for i, s := range Syndromes {
						results[g][i] = Decode(s)
					}
				}()
			}
			wg.Wait()

			for _, r := range results {
				So(r, ShouldResemble, [4]Diagnosis{NoFault, Qubit1, Qubit2, Qubit3})
			}
		})
	})

	Convey("Given single bit-flip faults", t, func() {
		Convey("The diagnosis names the faulted qubit", func() {
			for q := 1; q <= DataQubits; q++ {
				So(Decode(BitFlip(q).Syndrome()).Qubit(), ShouldEqual, q)
			}
		})
	})

	Convey("Given two simultaneous bit-flips", t, func() {
		pairs := [][3]int{{1, 2, 3}, {1, 3, 2}, {2, 3, 1}}

		Convey("The diagnosis names the unaffected third qubit", func() {
			for _, p := range pairs {
				fault := BitFlip(p[0]).Mul(BitFlip(p[1]))
				So(Decode(fault.Syndrome()).Qubit(), ShouldEqual, p[2])
			}
		})
	})

	Convey("Given a phase-flip on any qubit", t, func() {
		Convey("The syndrome is zero and no fault is reported", func() {
			for q := 1; q <= DataQubits; q++ {
				s := PhaseFlip(q).Syndrome()
				So(s.IsZero(), ShouldBeTrue)
				So(Decode(s), ShouldEqual, NoFault)
			}
		})
	})

	Convey("Given bit-flips on all three qubits", t, func() {
		s := NewErrorOperator(X, X, X).Syndrome()

		Convey("The syndrome matches the no-fault case", func() {
			So(s, ShouldEqual, ErrorOperator{}.Syndrome())
			So(Decode(s), ShouldEqual, NoFault)
		})
	})
}

func TestDiagnosisString(t *testing.T) {
	Convey("Diagnoses and corrections render readably", t, func() {
		So(NoFault.String(), ShouldEqual, "no fault")
		So(Qubit2.String(), ShouldEqual, "qubit 2")
		So(NoFault.Correction().String(), ShouldEqual, "identity")
		So(Qubit3.Correction().String(), ShouldEqual, "flip qubit 3")
		So(Qubit1.Correction().Operator().String(), ShouldEqual, "XII")
		So(NoFault.Correction().Operator().IsIdentity(), ShouldBeTrue)
	})
}
