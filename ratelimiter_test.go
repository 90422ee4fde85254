package bitflip

import (
	"context"
	"errors"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestRateLimiter(t *testing.T) {
	Convey("Given a rate limiter with a burst of two", t, func() {
		limiter := NewRateLimiter(2, 50*time.Millisecond)

		Convey("The burst is available at once and then exhausted", func() {
			So(limiter.Allow(), ShouldBeTrue)
			So(limiter.Allow(), ShouldBeTrue)
			So(limiter.Allow(), ShouldBeFalse)
		})

		Convey("Tokens come back one period at a time", func() {
			limiter.Allow()
			limiter.Allow()

			time.Sleep(70 * time.Millisecond)
			So(limiter.Allow(), ShouldBeTrue)
			So(limiter.Allow(), ShouldBeFalse)
		})

		Convey("Wait blocks until the next token", func() {
			limiter.Allow()
			limiter.Allow()

			start := time.Now()
			So(limiter.Wait(context.Background()), ShouldBeNil)
			So(time.Since(start), ShouldBeGreaterThanOrEqualTo, 30*time.Millisecond)
		})

		Convey("Wait gives up when the context ends", func() {
			limiter.Allow()
			limiter.Allow()

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
			defer cancel()
			So(errors.Is(limiter.Wait(ctx), context.DeadlineExceeded), ShouldBeTrue)
		})
	})

	Convey("Given a zero refill rate", t, func() {
		limiter := NewRateLimiter(1, 0)

		Convey("It never throttles", func() {
			for i := 0; i < 5; i++ {
				So(limiter.Allow(), ShouldBeTrue)
			}
		})
	})
}
