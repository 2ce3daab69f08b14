package feedback_test

import (
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/neurorace/refinery/internal/domain/feedback"
	"github.com/neurorace/refinery/internal/domain/model"
)

func lfoPtr(v float64) *float64 { return &v }

func TestCoach(t *testing.T) {
	Convey("Given a populated global stats snapshot", t, func() {
		gs := model.GlobalStats{
			TZF: model.SeriesSummary{Count: 100, P50: 50, P75: 70, P90: 85},
			LFO: model.SeriesSummary{Count: 40, P10: 1, P25: 2},
		}

		Convey("When the player beats the 90th focus percentile", func() {
			msg := feedback.Coach(model.PlayerKPIs{TZFPct: 90}, gs)

			Convey("Then the elite message is chosen", func() {
				So(msg, ShouldContainSubstring, "Elite focus")
			})
		})

		Convey("When the player sits between the 75th and 90th percentiles", func() {
			msg := feedback.Coach(model.PlayerKPIs{TZFPct: 80}, gs)

			Convey("Then the strong message is chosen", func() {
				So(msg, ShouldContainSubstring, "Strong focus")
			})
		})

		Convey("When the player sits between the 50th and 75th percentiles", func() {
			msg := feedback.Coach(model.PlayerKPIs{TZFPct: 60}, gs)

			Convey("Then the above-average message is chosen", func() {
				So(msg, ShouldContainSubstring, "Above-average focus")
			})
		})

		Convey("When the player is at or below the median", func() {
			msg := feedback.Coach(model.PlayerKPIs{TZFPct: 50}, gs)

			Convey("Then the generic message is chosen", func() {
				So(msg, ShouldContainSubstring, "Keep training your focus")
			})
		})

		Convey("When the player has a fast recovery latency", func() {
			kpis := model.PlayerKPIs{TZFPct: 90, LFOAvgRecoverySeconds: lfoPtr(0.5)}
			msg := feedback.Coach(kpis, gs)

			Convey("Then the latency fragment is appended", func() {
				So(msg, ShouldContainSubstring, "Elite focus")
				So(msg, ShouldContainSubstring, "Exceptional resilience")
			})
		})

		Convey("When the latency beats only the 25th percentile", func() {
			kpis := model.PlayerKPIs{TZFPct: 40, LFOAvgRecoverySeconds: lfoPtr(1.5)}
			msg := feedback.Coach(kpis, gs)

			Convey("Then the resilient fragment is appended", func() {
				So(msg, ShouldContainSubstring, "Resilient under pressure")
			})
		})

		Convey("When the latency is slow", func() {
			kpis := model.PlayerKPIs{TZFPct: 40, LFOAvgRecoverySeconds: lfoPtr(9)}
			msg := feedback.Coach(kpis, gs)

			Convey("Then the improvement fragment is appended", func() {
				So(msg, ShouldContainSubstring, "bouncing back after collisions")
			})
		})

		Convey("When the player has no measured recovery", func() {
			msg := feedback.Coach(model.PlayerKPIs{TZFPct: 90}, gs)

			Convey("Then no latency fragment appears", func() {
				So(msg, ShouldNotContainSubstring, "resilience")
				So(msg, ShouldNotContainSubstring, "recovery")
			})
		})
	})

	Convey("Given an empty global stats snapshot", t, func() {
		Convey("When any player is tiered", func() {
			kpis := model.PlayerKPIs{TZFPct: 99, LFOAvgRecoverySeconds: lfoPtr(0.1)}
			msg := feedback.Coach(kpis, model.GlobalStats{})

			Convey("Then only the generic focus message comes back", func() {
				So(msg, ShouldContainSubstring, "Keep training your focus")
				So(strings.Contains(msg, "resilience"), ShouldBeFalse)
			})
		})
	})
}

func history(tzf ...float64) []model.RaceSummary {
	out := make([]model.RaceSummary, len(tzf))
	for i, v := range tzf {
		out[i] = model.RaceSummary{TZFPct: v}
	}
	return out
}

func TestEvolution(t *testing.T) {
	Convey("Given a user's race history", t, func() {
		Convey("When fewer than three races exist", func() {
			msg := feedback.Evolution(history(50, 60))

			Convey("Then the history-building message comes back", func() {
				So(msg, ShouldContainSubstring, "Keep playing")
			})
		})

		Convey("When the recent mean clears the early mean by over 10%", func() {
			msg := feedback.Evolution(history(50, 50, 50, 60, 60, 60))

			Convey("Then the trend is improving", func() {
				So(msg, ShouldContainSubstring, "trending up")
			})
		})

		Convey("When the recent mean falls below the early mean by over 10%", func() {
			msg := feedback.Evolution(history(50, 50, 50, 40, 40, 40))

			Convey("Then the trend is declining", func() {
				So(msg, ShouldContainSubstring, "dipped")
			})
		})

		Convey("When the change stays inside the band", func() {
			msg := feedback.Evolution(history(50, 50, 50, 52, 52, 52))

			Convey("Then the trend is a plateau", func() {
				So(msg, ShouldContainSubstring, "steady")
			})
		})

		Convey("When exactly three races exist", func() {
			msg := feedback.Evolution(history(50, 50, 50))

			Convey("Then the windows overlap and report a plateau", func() {
				So(msg, ShouldContainSubstring, "steady")
			})
		})
	})
}
