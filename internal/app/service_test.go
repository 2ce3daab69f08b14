package service_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/neurorace/refinery/internal/adapters/docstore"
	"github.com/neurorace/refinery/internal/adapters/lake"
	app "github.com/neurorace/refinery/internal/app"
	"github.com/neurorace/refinery/internal/domain/model"
	"github.com/neurorace/refinery/internal/simdata"
	"github.com/neurorace/refinery/pkg/logger"
)

func TestMain(m *testing.M) {
	if err := logger.Init(); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

type harness struct {
	svc     *app.Service
	store   *docstore.MemoryStore
	rawPath string
	refined string
}

func newHarness(t *testing.T, ctx context.Context) *harness {
	t.Helper()
	root := t.TempDir()
	h := &harness{
		store:   docstore.NewMemoryStore(),
		rawPath: filepath.Join(root, "raw"),
		refined: filepath.Join(root, "refined"),
	}
	h.svc = app.New(
		app.WithLake(lake.New(h.rawPath, filepath.Join(root, "trusted"), h.refined)),
		app.WithStore(h.store),
		app.WithWorkerCount(1),
		app.WithQueueSize(4),
	)
	if err := h.svc.Start(ctx); err != nil {
		t.Fatalf("starting service: %v", err)
	}
	t.Cleanup(func() { h.svc.Stop(context.Background()) })
	return h
}

func (h *harness) writeSession(t *testing.T, sessionID string) {
	t.Helper()
	session := simdata.Generate(simdata.Config{
		SessionID:       sessionID,
		Players:         2,
		DurationSeconds: 60,
		Seed:            42,
	})
	if _, err := simdata.WriteSession(h.rawPath, session); err != nil {
		t.Fatalf("writing session: %v", err)
	}
}

func TestRunSession(t *testing.T) {
	Convey("Given a running service over a synthetic session", t, func() {
		ctx := context.Background()
		h := newHarness(t, ctx)
		h.writeSession(t, "race-1")

		Convey("When the pipeline runs", func() {
			err := h.svc.RunSession(ctx, model.Trigger{SessionID: "race-1"})
			So(err, ShouldBeNil)

			Convey("Then the refined summary lands on disk with feedback", func() {
				data, err := os.ReadFile(filepath.Join(h.refined, "race-1_summary.json"))
				So(err, ShouldBeNil)

				var summary model.SessionSummary
				So(json.Unmarshal(data, &summary), ShouldBeNil)
				So(summary, ShouldContainKey, "player_1")
				So(summary, ShouldContainKey, "player_2")
				So(summary["player_1"].CoachFeedback, ShouldNotBeEmpty)
				So(summary["player_1"].CVFLabel, ShouldNotBeEmpty)
			})

			Convey("Then the session document mirrors into the store", func() {
				data, err := h.store.Get(ctx, docstore.SessionKey("race-1"))
				So(err, ShouldBeNil)

				var summary model.SessionSummary
				So(json.Unmarshal(data, &summary), ShouldBeNil)
				So(summary, ShouldContainKey, "player_2")
			})

			Convey("Then both players contribute to the global stats", func() {
				data, err := h.store.Get(ctx, docstore.GlobalStatsKey)
				So(err, ShouldBeNil)

				var gs model.GlobalStats
				So(json.Unmarshal(data, &gs), ShouldBeNil)
				So(gs.TZF.Count, ShouldEqual, 2)
				So(gs.UpdatedAtMS, ShouldBeGreaterThan, 0)
			})

			Convey("Then user profiles are created through the email index", func() {
				id, err := h.store.Get(ctx, docstore.UserIndexKey("player1@neurorace.io"))
				So(err, ShouldBeNil)
				So(string(id), ShouldNotBeEmpty)

				data, err := h.store.Get(ctx, docstore.UserKey(string(id)))
				So(err, ShouldBeNil)

				var p model.UserProfile
				So(json.Unmarshal(data, &p), ShouldBeNil)
				So(p.Email, ShouldEqual, "player1@neurorace.io")
				So(p.TotalRaces, ShouldEqual, 1)
				So(p.RaceHistory, ShouldHaveLength, 1)
				So(p.EvolutionFeedback, ShouldNotBeEmpty)
			})

			Convey("Then exactly one player won the race", func() {
				wins := 0
				for _, email := range []string{"player1@neurorace.io", "player2@neurorace.io"} {
					id, err := h.store.Get(ctx, docstore.UserIndexKey(email))
					So(err, ShouldBeNil)
					data, err := h.store.Get(ctx, docstore.UserKey(string(id)))
					So(err, ShouldBeNil)
					var p model.UserProfile
					So(json.Unmarshal(data, &p), ShouldBeNil)
					wins += p.TotalWins
				}
				So(wins, ShouldEqual, 1)
			})
		})

		Convey("When the same session runs twice", func() {
			So(h.svc.RunSession(ctx, model.Trigger{SessionID: "race-1"}), ShouldBeNil)
			So(h.svc.RunSession(ctx, model.Trigger{SessionID: "race-1"}), ShouldBeNil)

			Convey("Then the global series reflects both runs", func() {
				// Replay protection lives at the trigger boundary, not in
				// the pipeline itself.
				data, err := h.store.Get(ctx, docstore.GlobalStatsKey)
				So(err, ShouldBeNil)
				var gs model.GlobalStats
				So(json.Unmarshal(data, &gs), ShouldBeNil)
				So(gs.TZF.Count, ShouldEqual, 4)
			})
		})
	})
}

func TestRunSessionFailures(t *testing.T) {
	Convey("Given a running service", t, func() {
		ctx := context.Background()
		h := newHarness(t, ctx)

		Convey("When the session directory does not exist", func() {
			err := h.svc.RunSession(ctx, model.Trigger{SessionID: "ghost"})

			Convey("Then the pipeline fails without store writes", func() {
				So(err, ShouldNotBeNil)
				_, gerr := h.store.Get(ctx, docstore.GlobalStatsKey)
				So(gerr, ShouldWrap, docstore.ErrNotFound)
			})
		})
	})
}

func TestTriggerDeduplication(t *testing.T) {
	Convey("Given a running service", t, func() {
		ctx := context.Background()
		h := newHarness(t, ctx)

		Convey("When a session id is recorded twice", func() {
			first := h.svc.SeenAndRecord(ctx, "race-9")
			second := h.svc.SeenAndRecord(ctx, "race-9")

			Convey("Then only the first is new", func() {
				So(first, ShouldBeFalse)
				So(second, ShouldBeTrue)
			})

			Convey("Then unrecording opens the id for retries", func() {
				h.svc.Unrecord(ctx, "race-9")
				So(h.svc.SeenAndRecord(ctx, "race-9"), ShouldBeFalse)
			})
		})
	})
}

func TestGetStats(t *testing.T) {
	Convey("Given a running service", t, func() {
		ctx := context.Background()
		h := newHarness(t, ctx)

		Convey("When asking for service stats", func() {
			stats := h.svc.GetStats()

			Convey("Then the lifecycle and sizing fields are filled in", func() {
				So(stats.Started, ShouldBeTrue)
				So(stats.WorkerCount, ShouldEqual, 1)
				So(stats.QueueSize, ShouldEqual, 4)
				So(stats.QueueLength, ShouldEqual, 0)
				So(stats.SeenSessions, ShouldEqual, 0)
			})
		})
	})
}
