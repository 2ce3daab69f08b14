package worker_test

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/neurorace/refinery/internal/adapters/mq/queue"
	"github.com/neurorace/refinery/internal/adapters/mq/worker"
	"github.com/neurorace/refinery/pkg/logger"
)

func TestMain(m *testing.M) {
	if err := logger.Init(); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

// recordingRunner counts the sessions it has run.
type recordingRunner struct {
	mu       sync.Mutex
	sessions []string
	err      error
}

func (r *recordingRunner) RunSession(_ context.Context, t worker.Trigger) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions = append(r.sessions, t.SessionID)
	return r.err
}

func (r *recordingRunner) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		if cond() {
			return
		}
		select {
		case <-deadline:
			t.Fatal("condition never met")
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestPool(t *testing.T) {
	Convey("Given a worker pool over a trigger queue", t, func() {
		ctx := context.Background()

		Convey("When triggers flow through the pool", func() {
			q := queue.NewInMemoryQueue(queue.WithCapacity(8))
			runner := &recordingRunner{}
			pool := worker.NewPool(2, q, runner)
			pool.Start(ctx)

			So(q.Enqueue(ctx, worker.Trigger{SessionID: "s1"}), ShouldBeTrue)
			So(q.Enqueue(ctx, worker.Trigger{SessionID: "s2"}), ShouldBeTrue)
			So(q.Enqueue(ctx, worker.Trigger{SessionID: "s3"}), ShouldBeTrue)

			waitFor(t, func() bool { return runner.count() == 3 })

			Convey("Then every trigger runs exactly once", func() {
				So(runner.count(), ShouldEqual, 3)
				So(pool.Shutdown(ctx), ShouldBeNil)
			})
		})

		Convey("When the runner fails", func() {
			q := queue.NewInMemoryQueue(queue.WithCapacity(8))
			runner := &recordingRunner{err: context.DeadlineExceeded}
			pool := worker.NewPool(1, q, runner)
			pool.Start(ctx)

			So(q.Enqueue(ctx, worker.Trigger{SessionID: "s1"}), ShouldBeTrue)
			So(q.Enqueue(ctx, worker.Trigger{SessionID: "s2"}), ShouldBeTrue)

			waitFor(t, func() bool { return runner.count() == 2 })

			Convey("Then the pool keeps consuming later triggers", func() {
				So(runner.count(), ShouldEqual, 2)
				So(pool.Shutdown(ctx), ShouldBeNil)
			})
		})

		Convey("When the pool shuts down with queued work", func() {
			q := queue.NewInMemoryQueue(queue.WithCapacity(8))
			runner := &recordingRunner{}
			pool := worker.NewPool(1, q, runner)
			pool.Start(ctx)

			for _, id := range []string{"s1", "s2", "s3", "s4"} {
				So(q.Enqueue(ctx, worker.Trigger{SessionID: id}), ShouldBeTrue)
			}

			Convey("Then shutdown returns cleanly", func() {
				So(pool.Shutdown(ctx), ShouldBeNil)
			})
		})
	})
}
