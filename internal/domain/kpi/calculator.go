// Package kpi computes per-player session KPIs from the trusted dataset.
package kpi

import (
	"math"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/neurorace/refinery/internal/domain/model"
)

// Analysis constants. The epsilon guards the theta/highBeta ratio against
// division by zero.
const (
	defaultFocusThreshold = 70.0
	defaultCalmThreshold  = 60.0
	defaultEventWindow    = 5 * time.Second
	fatigueEpsilon        = 1e-6
)

// CVF label boundaries. Boundary values belong to the upper bucket.
const (
	stableStdDevLimit      = 15.0
	oscillatingStdDevLimit = 25.0
)

// Calculator derives the refined-layer KPI sets.
type Calculator struct {
	focusThreshold float64
	calmThreshold  float64
	window         time.Duration
}

// Option applies a configuration option to the Calculator.
type Option func(*Calculator)

// WithFocusThreshold sets the attention level that counts as "in focus".
func WithFocusThreshold(t float64) Option {
	return func(c *Calculator) {
		if t > 0 {
			c.focusThreshold = t
		}
	}
}

// WithCalmThreshold sets the meditation level that counts as "calm".
func WithCalmThreshold(t float64) Option {
	return func(c *Calculator) {
		if t > 0 {
			c.calmThreshold = t
		}
	}
}

// WithEventWindow sets the before/after window around game events.
func WithEventWindow(w time.Duration) Option {
	return func(c *Calculator) {
		if w > 0 {
			c.window = w
		}
	}
}

// NewCalculator creates a Calculator with the default thresholds.
func NewCalculator(opts ...Option) *Calculator {
	c := &Calculator{
		focusThreshold: defaultFocusThreshold,
		calmThreshold:  defaultCalmThreshold,
		window:         defaultEventWindow,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// signalRow is a valid-signal reading projected out of a trusted record.
type signalRow struct {
	ts         time.Time
	attention  float64
	meditation float64
	theta      float64
	highBeta   float64
}

// ComputeSession computes KPI sets for every player present in the trusted
// dataset, keyed by player id. Players without a single valid-signal reading
// are skipped, not errored: other players in the session still produce KPIs.
// Records must be in timestamp order, as produced by the merger.
func (c *Calculator) ComputeSession(records []model.TrustedRecord) map[int]model.PlayerKPIs {
	out := make(map[int]model.PlayerKPIs)
	for _, player := range distinctPlayers(records) {
		if kpis, ok := c.computePlayer(records, player); ok {
			out[player] = kpis
		}
	}
	return out
}

// computePlayer computes one player's KPI set. The bool is false when the
// player has no valid-signal rows.
func (c *Calculator) computePlayer(records []model.TrustedRecord, player int) (model.PlayerKPIs, bool) {
	var (
		total  int
		valid  []signalRow
		events []model.TrustedRecord
	)
	for _, r := range records {
		if r.Player == nil || int(*r.Player) != player {
			continue
		}
		if r.GameEventType != nil {
			events = append(events, r)
		}
		total++
		if !r.IsSignalValid || r.Attention == nil || r.Meditation == nil {
			continue
		}
		row := signalRow{ts: r.Timestamp, attention: *r.Attention, meditation: *r.Meditation}
		if r.Theta != nil {
			row.theta = *r.Theta
		}
		if r.HighBeta != nil {
			row.highBeta = *r.HighBeta
		}
		valid = append(valid, row)
	}
	if len(valid) == 0 {
		return model.PlayerKPIs{}, false
	}

	var inFocus, inCalm, inBoth int
	attentions := make([]float64, len(valid))
	for i, row := range valid {
		attentions[i] = row.attention
		focused := row.attention > c.focusThreshold
		calm := row.meditation > c.calmThreshold
		if focused {
			inFocus++
		}
		if calm {
			inCalm++
		}
		if focused && calm {
			inBoth++
		}
	}

	n := float64(len(valid))
	stdDev := attentionStdDev(attentions)
	focusVar, calmVar, avgLFO := c.analyzeEventWindows(valid, events)

	kpis := model.PlayerKPIs{
		ValidSessionPct:         round2(n / float64(total) * 100),
		TZFPct:                  round2(float64(inFocus) / n * 100),
		TZCPct:                  round2(float64(inCalm) / n * 100),
		CalmFocusPct:            round2(float64(inBoth) / n * 100),
		CVFLabel:                CVFLabel(stdDev),
		AttentionStdDev:         round2(stdDev),
		FatigueSlope:            round5(fatigueSlope(valid)),
		PostEventFocusVariation: focusVar,
		PostEventCalmVariation:  calmVar,
	}
	if avgLFO != nil {
		rounded := round2(*avgLFO)
		kpis.LFOAvgRecoverySeconds = &rounded
	}
	return kpis, true
}

// distinctPlayers returns the non-null player ids in first-seen order.
func distinctPlayers(records []model.TrustedRecord) []int {
	seen := make(map[int]bool)
	var players []int
	for _, r := range records {
		if r.Player == nil {
			continue
		}
		id := int(*r.Player)
		if !seen[id] {
			seen[id] = true
			players = append(players, id)
		}
	}
	return players
}

// attentionStdDev returns the sample standard deviation of the attention
// series. Fewer than 2 readings default to 0 rather than NaN, which keeps
// the CVF label well defined.
func attentionStdDev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	return stat.StdDev(xs, nil)
}

// CVFLabel maps an attention standard deviation to the consistency-of-focus
// label. Boundary values belong to the upper bucket: 15.0 is already
// Oscillating and 25.0 already Highly Oscillating.
func CVFLabel(stdDev float64) string {
	switch {
	case stdDev < stableStdDevLimit:
		return "Stable"
	case stdDev < oscillatingStdDevLimit:
		return "Oscillating"
	default:
		return "Highly Oscillating"
	}
}

// fatigueSlope fits a line to the theta/highBeta ratio against the reading
// index over the chronologically-ordered valid-signal rows and returns its
// slope. Undefined ratios are dropped; fewer than 2 remaining points
// default to a slope of 0.
func fatigueSlope(valid []signalRow) float64 {
	var idx, ratios []float64
	for _, row := range valid {
		ratio := row.theta / (row.highBeta + fatigueEpsilon)
		if math.IsNaN(ratio) || math.IsInf(ratio, 0) {
			continue
		}
		idx = append(idx, float64(len(idx)))
		ratios = append(ratios, ratio)
	}
	if len(ratios) < 2 {
		return 0
	}
	_, slope := stat.LinearRegression(idx, ratios, nil, false)
	return slope
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
func round5(v float64) float64 { return math.Round(v*100000) / 100000 }
