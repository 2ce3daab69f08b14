// Package feedback turns KPI sets and population statistics into the
// natural-language commentary shown to players.
package feedback

import (
	"gonum.org/v1/gonum/stat"

	"github.com/neurorace/refinery/internal/domain/model"
)

// Coach feedback fragments, tiered against the global percentiles.
const (
	tzfEliteMsg   = "Elite focus: your time in the focus zone beats 90% of all recorded races."
	tzfStrongMsg  = "Strong focus: you held the focus zone longer than three quarters of the field."
	tzfAboveMsg   = "Above-average focus: you spent more time in the zone than most racers."
	tzfGenericMsg = "Keep training your focus: every race in the zone counts."

	lfoExceptionalMsg = " Exceptional resilience: you refocus after collisions faster than nearly everyone."
	lfoResilientMsg   = " Resilient under pressure: your focus recovery is quicker than most."
	lfoGenericMsg     = " Work on bouncing back after collisions to shorten your recovery time."
)

// Evolution feedback fragments, derived from a user's rolling history.
const (
	evolutionKeepPlayingMsg = "Keep playing to build up your focus history."
	evolutionImprovingMsg   = "Your focus is trending up across recent races. Keep it going!"
	evolutionDecliningMsg   = "Your recent focus dipped compared to your earlier races. Time to reset."
	evolutionPlateauMsg     = "Your focus has been steady across races. Push for a new personal best."
)

// evolutionMinHistory is the number of races needed on each end of the
// history before a trend is called.
const evolutionMinHistory = 3

// evolutionDelta is the relative change in mean TZF that separates
// improvement and decline from a plateau.
const evolutionDelta = 0.10

// Coach builds one player's session feedback from their KPI set and the
// global stats snapshot taken after this session's own contribution was
// merged. The latency fragment is omitted entirely when the player has no
// measured recovery.
func Coach(kpis model.PlayerKPIs, gs model.GlobalStats) string {
	msg := tzfFragment(kpis.TZFPct, gs.TZF)
	if kpis.LFOAvgRecoverySeconds != nil && gs.LFO.Count > 0 {
		msg += lfoFragment(*kpis.LFOAvgRecoverySeconds, gs.LFO)
	}
	return msg
}

func tzfFragment(tzf float64, s model.SeriesSummary) string {
	if s.Count == 0 {
		return tzfGenericMsg
	}
	switch {
	case tzf > s.P90:
		return tzfEliteMsg
	case tzf > s.P75:
		return tzfStrongMsg
	case tzf > s.P50:
		return tzfAboveMsg
	default:
		return tzfGenericMsg
	}
}

// lfoFragment tiers in the inverse direction: lower latency is better.
func lfoFragment(lfo float64, s model.SeriesSummary) string {
	switch {
	case lfo < s.P10:
		return lfoExceptionalMsg
	case lfo < s.P25:
		return lfoResilientMsg
	default:
		return lfoGenericMsg
	}
}

// Evolution derives the trend message for a user's race history. Fewer than
// 3 races yield the generic message; otherwise the mean TZF of the earliest
// 3 entries is compared against the mean of the latest 3, with a 10%
// relative band separating improvement, decline and plateau.
func Evolution(history []model.RaceSummary) string {
	if len(history) < evolutionMinHistory {
		return evolutionKeepPlayingMsg
	}
	early := meanTZF(history[:evolutionMinHistory])
	recent := meanTZF(history[len(history)-evolutionMinHistory:])
	switch {
	case recent > early*(1+evolutionDelta):
		return evolutionImprovingMsg
	case recent < early*(1-evolutionDelta):
		return evolutionDecliningMsg
	default:
		return evolutionPlateauMsg
	}
}

func meanTZF(entries []model.RaceSummary) float64 {
	xs := make([]float64, len(entries))
	for i, e := range entries {
		xs[i] = e.TZFPct
	}
	return stat.Mean(xs, nil)
}
