// Package stats maintains the cross-session series and their summaries.
package stats

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/neurorace/refinery/internal/domain/model"
)

// Quantile returns the p-quantile (p in [0,1]) of xs using linear
// interpolation between closest ranks: h = p*(n-1), result interpolated
// between xs[floor(h)] and xs[floor(h)+1]. This is the Hyndman-Fan type 7
// method, chosen for reproducibility: p50 of [10,20,30,40] is exactly 25.
// Returns NaN for an empty series.
func Quantile(xs []float64, p float64) float64 {
	if len(xs) == 0 {
		return math.NaN()
	}
	sorted := make([]float64, len(xs))
	copy(sorted, xs)
	sort.Float64s(sorted)

	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[len(sorted)-1]
	}
	h := p * float64(len(sorted)-1)
	lo := int(math.Floor(h))
	frac := h - float64(lo)
	if lo+1 >= len(sorted) {
		return sorted[lo]
	}
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}

// Summarize recomputes the derived statistics of one series. An empty
// series yields the zero summary.
func Summarize(xs []float64) model.SeriesSummary {
	if len(xs) == 0 {
		return model.SeriesSummary{}
	}
	return model.SeriesSummary{
		Count: len(xs),
		Mean:  stat.Mean(xs, nil),
		P10:   Quantile(xs, 0.10),
		P25:   Quantile(xs, 0.25),
		P50:   Quantile(xs, 0.50),
		P75:   Quantile(xs, 0.75),
		P90:   Quantile(xs, 0.90),
	}
}

// AppendSession folds one session's contribution into a global stats
// snapshot and recomputes both summaries. Pure: the input snapshot is not
// mutated, so the caller can retry the surrounding transaction with a fresh
// read.
func AppendSession(gs model.GlobalStats, tzf, lfo []float64, nowMS int64) model.GlobalStats {
	out := model.GlobalStats{
		AllTZF:      append(append([]float64{}, gs.AllTZF...), tzf...),
		AllLFO:      append(append([]float64{}, gs.AllLFO...), lfo...),
		UpdatedAtMS: nowMS,
	}
	out.TZF = Summarize(out.AllTZF)
	out.LFO = Summarize(out.AllLFO)
	return out
}
