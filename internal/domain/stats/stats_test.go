package stats_test

import (
	"math"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/neurorace/refinery/internal/domain/model"
	"github.com/neurorace/refinery/internal/domain/stats"
)

func TestQuantile(t *testing.T) {
	Convey("Given a series", t, func() {
		xs := []float64{10, 20, 30, 40}

		Convey("When computing the median of an even-length series", func() {
			Convey("Then it interpolates between the middle ranks", func() {
				So(stats.Quantile(xs, 0.5), ShouldEqual, 25)
			})
		})

		Convey("When computing intermediate quantiles", func() {
			Convey("Then they interpolate linearly", func() {
				So(stats.Quantile(xs, 0.25), ShouldEqual, 17.5)
				So(stats.Quantile(xs, 0.75), ShouldEqual, 32.5)
				So(stats.Quantile(xs, 0.9), ShouldAlmostEqual, 37, 0.0001)
			})
		})

		Convey("When p is at the extremes", func() {
			Convey("Then the min and max are returned", func() {
				So(stats.Quantile(xs, 0), ShouldEqual, 10)
				So(stats.Quantile(xs, 1), ShouldEqual, 40)
			})
		})

		Convey("When the series is unsorted", func() {
			shuffled := []float64{30, 10, 40, 20}

			Convey("Then the input is not mutated", func() {
				So(stats.Quantile(shuffled, 0.5), ShouldEqual, 25)
				So(shuffled, ShouldResemble, []float64{30, 10, 40, 20})
			})
		})

		Convey("When the series is empty", func() {
			Convey("Then the result is NaN", func() {
				So(math.IsNaN(stats.Quantile(nil, 0.5)), ShouldBeTrue)
			})
		})

		Convey("When the series has one element", func() {
			Convey("Then every quantile is that element", func() {
				So(stats.Quantile([]float64{42}, 0.1), ShouldEqual, 42)
				So(stats.Quantile([]float64{42}, 0.9), ShouldEqual, 42)
			})
		})
	})
}

func TestSummarize(t *testing.T) {
	Convey("Given series to summarize", t, func() {
		Convey("When the series is empty", func() {
			Convey("Then the zero summary comes back", func() {
				So(stats.Summarize(nil), ShouldResemble, model.SeriesSummary{})
			})
		})

		Convey("When the series has values", func() {
			s := stats.Summarize([]float64{10, 20, 30, 40})

			Convey("Then count, mean and percentiles are populated", func() {
				So(s.Count, ShouldEqual, 4)
				So(s.Mean, ShouldEqual, 25)
				So(s.P50, ShouldEqual, 25)
				So(s.P25, ShouldEqual, 17.5)
				So(s.P75, ShouldEqual, 32.5)
			})
		})
	})
}

func TestAppendSession(t *testing.T) {
	Convey("Given an existing global stats snapshot", t, func() {
		gs := model.GlobalStats{
			AllTZF: []float64{10, 20},
			AllLFO: []float64{1.5},
		}
		gs.TZF = stats.Summarize(gs.AllTZF)
		gs.LFO = stats.Summarize(gs.AllLFO)

		Convey("When a session contributes new values", func() {
			next := stats.AppendSession(gs, []float64{30, 40}, []float64{2.5}, 1234)

			Convey("Then both series grow and the summaries recompute", func() {
				So(next.AllTZF, ShouldResemble, []float64{10, 20, 30, 40})
				So(next.AllLFO, ShouldResemble, []float64{1.5, 2.5})
				So(next.TZF.Count, ShouldEqual, 4)
				So(next.TZF.P50, ShouldEqual, 25)
				So(next.LFO.Count, ShouldEqual, 2)
				So(next.UpdatedAtMS, ShouldEqual, 1234)
			})

			Convey("Then the input snapshot is untouched", func() {
				So(gs.AllTZF, ShouldResemble, []float64{10, 20})
				So(gs.TZF.Count, ShouldEqual, 2)
			})
		})

		Convey("When a session has no recovery latencies", func() {
			next := stats.AppendSession(gs, []float64{50}, nil, 1234)

			Convey("Then only the focus series grows", func() {
				So(next.AllTZF, ShouldHaveLength, 3)
				So(next.AllLFO, ShouldResemble, []float64{1.5})
			})
		})

		Convey("When the snapshot starts empty", func() {
			next := stats.AppendSession(model.GlobalStats{}, []float64{60}, []float64{3}, 1)

			Convey("Then the first contribution seeds both series", func() {
				So(next.TZF.Count, ShouldEqual, 1)
				So(next.TZF.Mean, ShouldEqual, 60)
				So(next.LFO.Count, ShouldEqual, 1)
			})
		})
	})
}
