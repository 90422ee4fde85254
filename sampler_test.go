package bitflip

import (
	"context"
	"errors"
	"testing"

	"github.com/davecgh/go-spew/spew"
	. "github.com/smartystreets/goconvey/convey"
)

func TestPropagate(t *testing.T) {
	Convey("Given every scenario circuit", t, func() {
		Convey("The measured ancillas carry the fault's syndrome for either logical input", func() {
			for _, s := range Scenarios() {
				c := BuildCircuit(s)

				for _, logical := range []bool{false, true} {
					clbits, err := Propagate(c, logical)
					So(err, ShouldBeNil)

					got, err := SyndromeFromKey(FormatKey(clbits))
					So(err, ShouldBeNil)
					So(got, ShouldEqual, s.Fault().Syndrome())
				}
			}
		})
	})

	Convey("Given a gate outside the supported set", t, func() {
		c := BuildCircuit(NoError)
		c.Gates = append(c.Gates, Gate{Name: "h", Qubits: []int{0}})

		_, err := Propagate(c, false)
		So(errors.Is(err, ErrUnsupportedGate), ShouldBeTrue)
	})
}

func TestFrameSampler(t *testing.T) {
	ctx := context.Background()

	Convey("Given a noiseless sampler with a |0⟩ input", t, func() {
		fs := NewFrameSampler(WithSeed(1))

		Convey("Each syndrome-only circuit yields one outcome", func() {
			cases := map[Scenario]string{
				NoError:   "00",
				XError1:   "11",
				XError2:   "01",
				XError3:   "10",
				XError12:  "10",
				XError123: "00",
			}

			for s, key := range cases {
				counts, err := fs.Sample(ctx, BuildCircuit(s), 100)
				So(err, ShouldBeNil)
				So(counts, ShouldResemble, Counts{key: 100})
			}
		})

		Convey("Measure-all circuits show the data register", func() {
			counts, err := fs.Sample(ctx, BuildCircuit(YError1), 10)
			So(err, ShouldBeNil)
			So(counts, ShouldResemble, Counts{"11001": 10})
		})
	})

	Convey("Given an equal superposition input", t, func() {
		fs := NewFrameSampler(WithSeed(7), WithAmplitudes(complex(1, 0), complex(1, 0)))
		counts, err := fs.Sample(ctx, BuildCircuit(ZError1), 2000)
		So(err, ShouldBeNil)

		Convey("Data outcomes split while the syndrome stays unanimous", func() {
			So(len(counts), ShouldEqual, 2)
			So(counts["00000"], ShouldBeGreaterThan, 0)
			So(counts["00111"], ShouldBeGreaterThan, 0)

			tally, err := Interpret(counts)
			So(err, ShouldBeNil)
			So(tally.Unanimous(), ShouldBeTrue)
			So(tally.Dominant().IsZero(), ShouldBeTrue)
		})
	})

	Convey("Given readout noise", t, func() {
		fs := NewFrameSampler(WithSeed(3), WithReadoutError(0.05))
		counts, err := fs.Sample(ctx, BuildCircuit(XError1), 4000)
		So(err, ShouldBeNil)
		t.Log(spew.Sdump(counts))

		Convey("The histogram spreads but the true syndrome dominates", func() {
			So(len(counts), ShouldBeGreaterThan, 1)
			So(counts.Shots(), ShouldEqual, 4000)

			tally, err := Interpret(counts)
			So(err, ShouldBeNil)
			So(tally.Unanimous(), ShouldBeFalse)
			So(tally.Dominant().String(), ShouldEqual, "11")
		})
	})

	Convey("Given the same seed", t, func() {
		a, err := NewFrameSampler(WithSeed(42), WithReadoutError(0.2)).Sample(ctx, BuildCircuit(XError3), 500)
		So(err, ShouldBeNil)
		b, err := NewFrameSampler(WithSeed(42), WithReadoutError(0.2)).Sample(ctx, BuildCircuit(XError3), 500)
		So(err, ShouldBeNil)

		Convey("Sampling is reproducible", func() {
			So(a, ShouldResemble, b)
		})
	})

	Convey("Given bad arguments", t, func() {
		fs := NewFrameSampler()

		Convey("Non-positive shot counts are rejected", func() {
			_, err := fs.Sample(ctx, BuildCircuit(NoError), 0)
			So(errors.Is(err, ErrInvalidShots), ShouldBeTrue)
		})

		Convey("A cancelled context stops sampling", func() {
			cancelled, cancel := context.WithCancel(ctx)
			cancel()

			_, err := fs.Sample(cancelled, BuildCircuit(NoError), 10)
			So(errors.Is(err, context.Canceled), ShouldBeTrue)
		})
	})
}
