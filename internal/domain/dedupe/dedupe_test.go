package dedupe_test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	dedupe "github.com/tgsai/aiops-console/internal/domain/dedupe"
)

func TestInMemoryDeduper(t *testing.T) {
	ctx := context.Background()

	Convey("Given a new deduper", t, func() {
		d := dedupe.NewInMemoryDeduper()
		So(d.Size(), ShouldEqual, 0)

		Convey("When a token is recorded for the first time", func() {
			seen := d.SeenAndRecord(ctx, "tok-1")

			Convey("Then it should be reported as new", func() {
				So(seen, ShouldBeFalse)
				So(d.Size(), ShouldEqual, 1)
			})

			Convey("And a repeat should be reported as seen", func() {
				So(d.SeenAndRecord(ctx, "tok-1"), ShouldBeTrue)
				So(d.Size(), ShouldEqual, 1)
			})
		})

		Convey("When a result is attached", func() {
			d.SeenAndRecord(ctx, "tok-1")
			_, ok := d.Result(ctx, "tok-1")
			So(ok, ShouldBeFalse)

			d.Complete(ctx, "tok-1", "stack-arn")

			Convey("Then it should be returned for the token", func() {
				res, ok := d.Result(ctx, "tok-1")
				So(ok, ShouldBeTrue)
				So(res, ShouldEqual, "stack-arn")
			})

			Convey("And completing an unknown token should be a no-op", func() {
				d.Complete(ctx, "tok-2", "x")
				_, ok := d.Result(ctx, "tok-2")
				So(ok, ShouldBeFalse)
			})
		})

		Convey("When a token is unrecorded", func() {
			d.SeenAndRecord(ctx, "tok-1")
			d.Unrecord(ctx, "tok-1")
			d.Unrecord(ctx, "missing")

			Convey("Then it can be recorded again", func() {
				So(d.Size(), ShouldEqual, 0)
				So(d.SeenAndRecord(ctx, "tok-1"), ShouldBeFalse)
			})
		})
	})

	Convey("Given a bounded deduper", t, func() {
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(3))
		for i := 1; i <= 4; i++ {
			d.SeenAndRecord(ctx, fmt.Sprintf("tok-%d", i))
		}

		Convey("Then the oldest token should be evicted", func() {
			So(d.Size(), ShouldEqual, 3)
			So(d.SeenAndRecord(ctx, "tok-4"), ShouldBeTrue)
			So(d.SeenAndRecord(ctx, "tok-1"), ShouldBeFalse)
		})
	})

	Convey("Given a deduper with a TTL", t, func() {
		now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
		d := dedupe.NewInMemoryDeduper(
			dedupe.WithTTL(time.Hour),
			dedupe.WithClock(func() time.Time { return now }),
		)
		d.SeenAndRecord(ctx, "tok-1")
		d.Complete(ctx, "tok-1", "done")

		Convey("When the TTL has passed", func() {
			now = now.Add(time.Hour)

			Convey("Then the token should be forgotten", func() {
				_, ok := d.Result(ctx, "tok-1")
				So(ok, ShouldBeFalse)
				So(d.SeenAndRecord(ctx, "tok-1"), ShouldBeFalse)
			})
		})
	})
}

func TestInMemoryDeduperConcurrency(t *testing.T) {
	Convey("Given concurrent submissions of one token", t, func() {
		d := dedupe.NewInMemoryDeduper()
		var fresh atomic.Int32
		var wg sync.WaitGroup
		for i := 0; i < 64; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if !d.SeenAndRecord(context.Background(), "same") {
					fresh.Add(1)
				}
			}()
		}
		wg.Wait()

		Convey("Then exactly one should win", func() {
			So(fresh.Load(), ShouldEqual, 1)
		})
	})
}
