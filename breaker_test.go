package bitflip

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestCircuitBreaker(t *testing.T) {
	Convey("Given a circuit breaker", t, func() {
		cb := NewCircuitBreaker("sampler", BreakerConfig{
			MaxFailures:  3,
			ResetTimeout: 50 * time.Millisecond,
			HalfOpenMax:  2,
		})

		So(cb.State(), ShouldEqual, BreakerClosed)
		So(cb.Allow(), ShouldBeTrue)

		Convey("A success resets the failure streak", func() {
			cb.RecordFailure()
			cb.RecordFailure()
			cb.RecordSuccess()
			cb.RecordFailure()
			So(cb.State(), ShouldEqual, BreakerClosed)
		})

		Convey("Consecutive failures open it", func() {
			for i := 0; i < 3; i++ {
				cb.RecordFailure()
			}
			So(cb.State(), ShouldEqual, BreakerOpen)
			So(cb.Allow(), ShouldBeFalse)

			Convey("After the reset timeout it lets trial calls through", func() {
				time.Sleep(80 * time.Millisecond)
				So(cb.Allow(), ShouldBeTrue)
				So(cb.State(), ShouldEqual, BreakerHalfOpen)

				Convey("Enough successful trial calls close it", func() {
					cb.RecordSuccess()
					So(cb.State(), ShouldEqual, BreakerHalfOpen)
					cb.RecordSuccess()
					So(cb.State(), ShouldEqual, BreakerClosed)
				})

				Convey("A failed trial call reopens it", func() {
					cb.RecordFailure()
					So(cb.State(), ShouldEqual, BreakerOpen)
					So(cb.Allow(), ShouldBeFalse)
				})
			})
		})
	})

	Convey("Given a breaker that has just gone half-open", t, func() {
		cb := NewCircuitBreaker("sampler", BreakerConfig{
			MaxFailures:  1,
			ResetTimeout: 10 * time.Millisecond,
			HalfOpenMax:  1,
		})
		cb.RecordFailure()
		time.Sleep(30 * time.Millisecond)

		Convey("Ready does not take the half-open slot", func() {
			So(cb.Ready(), ShouldBeTrue)
			So(cb.Ready(), ShouldBeTrue)
			So(cb.Allow(), ShouldBeTrue)
			So(cb.Ready(), ShouldBeFalse)
		})

		Convey("Concurrent callers share the half-open slots", func() {
			var admitted atomic.Int32
			var wg sync.WaitGroup

			for i := 0; i < 16; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					if cb.Allow() {
						admitted.Add(1)
					}
				}()
			}
			wg.Wait()

			So(admitted.Load(), ShouldEqual, 1)
			So(cb.State(), ShouldEqual, BreakerHalfOpen)
		})

		Convey("A released slot can be taken again", func() {
			So(cb.Allow(), ShouldBeTrue)
			So(cb.Allow(), ShouldBeFalse)

			cb.Release()
			So(cb.Allow(), ShouldBeTrue)
		})
	})

	Convey("Given a zero config", t, func() {
		cb := NewCircuitBreaker("zero", BreakerConfig{})

		Convey("A single failure trips it", func() {
			cb.RecordFailure()
			So(cb.State().String(), ShouldEqual, "open")
		})
	})
}

func TestExponentialBackoff(t *testing.T) {
	Convey("Given an exponential backoff", t, func() {
		eb := &ExponentialBackoff{Initial: 10 * time.Millisecond, Max: 50 * time.Millisecond}

		Convey("Delays double and stop at the cap", func() {
			So(eb.NextDelay(1), ShouldEqual, 10*time.Millisecond)
			So(eb.NextDelay(2), ShouldEqual, 20*time.Millisecond)
			So(eb.NextDelay(3), ShouldEqual, 40*time.Millisecond)
			So(eb.NextDelay(4), ShouldEqual, 50*time.Millisecond)
		})
	})
}
