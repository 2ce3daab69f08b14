package queue_test

import (
	"context"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/neurorace/refinery/internal/adapters/mq/queue"
)

func TestInMemoryQueue(t *testing.T) {
	Convey("Given a bounded trigger queue", t, func() {
		ctx := context.Background()

		Convey("When enqueuing within capacity", func() {
			q := queue.NewInMemoryQueue(queue.WithCapacity(2))
			defer q.Close()

			Convey("Then enqueues succeed and the length grows", func() {
				So(q.Enqueue(ctx, queue.Trigger{SessionID: "s1"}), ShouldBeTrue)
				So(q.Enqueue(ctx, queue.Trigger{SessionID: "s2"}), ShouldBeTrue)
				So(q.Len(ctx), ShouldEqual, 2)
			})
		})

		Convey("When the queue is full", func() {
			q := queue.NewInMemoryQueue(queue.WithCapacity(1))
			defer q.Close()
			So(q.Enqueue(ctx, queue.Trigger{SessionID: "s1"}), ShouldBeTrue)

			Convey("Then further enqueues report backpressure", func() {
				So(q.Enqueue(ctx, queue.Trigger{SessionID: "s2"}), ShouldBeFalse)
				So(q.Len(ctx), ShouldEqual, 1)
			})
		})

		Convey("When dequeuing", func() {
			q := queue.NewInMemoryQueue(queue.WithCapacity(4))
			So(q.Enqueue(ctx, queue.Trigger{SessionID: "s1"}), ShouldBeTrue)
			So(q.Enqueue(ctx, queue.Trigger{SessionID: "s2"}), ShouldBeTrue)

			out := q.Dequeue(ctx)

			Convey("Then triggers arrive in order", func() {
				first := <-out
				second := <-out
				So(first.SessionID, ShouldEqual, "s1")
				So(second.SessionID, ShouldEqual, "s2")
			})

			Convey("Then closing the queue drains and closes the channel", func() {
				So(q.Close(), ShouldBeNil)
				var received []string
				for tr := range out {
					received = append(received, tr.SessionID)
				}
				So(received, ShouldResemble, []string{"s1", "s2"})
			})
		})

		Convey("When the queue is closed", func() {
			q := queue.NewInMemoryQueue(queue.WithCapacity(1))
			So(q.Close(), ShouldBeNil)

			Convey("Then enqueues are rejected", func() {
				So(q.Enqueue(ctx, queue.Trigger{SessionID: "s1"}), ShouldBeFalse)
			})

			Convey("Then closing again is harmless", func() {
				So(q.Close(), ShouldBeNil)
			})
		})

		Convey("When the consumer context is canceled", func() {
			q := queue.NewInMemoryQueue(queue.WithCapacity(1))
			defer q.Close()

			consumerCtx, cancel := context.WithCancel(ctx)
			out := q.Dequeue(consumerCtx)
			cancel()
			So(q.Enqueue(ctx, queue.Trigger{SessionID: "s1"}), ShouldBeTrue)

			Convey("Then the dequeue channel eventually closes", func() {
				select {
				case _, ok := <-out:
					if ok {
						// The trigger raced ahead of the cancel; closing
						// the queue must still end the stream.
						So(q.Close(), ShouldBeNil)
						_, ok = <-out
						So(ok, ShouldBeFalse)
					}
				case <-time.After(time.Second):
					t.Fatal("dequeue channel did not close")
				}
			})
		})
	})
}
