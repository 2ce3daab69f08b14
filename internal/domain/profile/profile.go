// Package profile maintains per-user aggregates across sessions.
package profile

import (
	"math"

	"github.com/neurorace/refinery/internal/domain/feedback"
	"github.com/neurorace/refinery/internal/domain/model"
)

// DefaultHistoryLimit caps the rolling race history.
const DefaultHistoryLimit = 10

// RaceResult is one player's contribution to their profile for a session.
type RaceResult struct {
	SessionID       string
	TimestampMS     int64
	RaceTimeSeconds *float64 // nil when the player never finished
	Won             bool
	KPIs            model.PlayerKPIs
}

// DetermineWinner picks the race winner among hasFinished events: the
// player with the minimum race time. Ties resolve to the earlier finish
// event, then to the lower player id, so the result is deterministic.
// Returns false when no finish event carries a race time.
func DetermineWinner(events []model.GameEvent) (int, bool) {
	var (
		winner   int
		bestTime float64
		bestTS   int64
		found    bool
	)
	for _, e := range events {
		t, ok := e.RaceTime()
		if !ok || e.Player == 0 {
			continue
		}
		better := !found ||
			t < bestTime ||
			(t == bestTime && e.TimestampMS < bestTS) ||
			(t == bestTime && e.TimestampMS == bestTS && e.Player < winner)
		if better {
			winner = e.Player
			bestTime = t
			bestTS = e.TimestampMS
			found = true
		}
	}
	return winner, found
}

// Apply folds one race into a profile and returns the updated value. The
// input profile is not mutated, so a failed store transaction can retry the
// fold on a fresh read. historyLimit caps the rolling history; values
// below 1 fall back to the default.
func Apply(p model.UserProfile, r RaceResult, historyLimit int) model.UserProfile {
	if historyLimit < 1 {
		historyLimit = DefaultHistoryLimit
	}

	out := p
	out.TotalRaces++
	if r.Won {
		out.TotalWins++
	}
	out.WinPercentage = round2(float64(out.TotalWins) / float64(out.TotalRaces) * 100)

	if r.RaceTimeSeconds != nil {
		if out.BestRaceTimeSeconds == nil || *r.RaceTimeSeconds < *out.BestRaceTimeSeconds {
			t := *r.RaceTimeSeconds
			out.BestRaceTimeSeconds = &t
		}
	}
	if out.PersonalBestTZF == nil || r.KPIs.TZFPct > *out.PersonalBestTZF {
		tzf := r.KPIs.TZFPct
		out.PersonalBestTZF = &tzf
	}

	summary := model.RaceSummary{
		SessionID:    r.SessionID,
		TimestampMS:  r.TimestampMS,
		TZFPct:       r.KPIs.TZFPct,
		TZCPct:       r.KPIs.TZCPct,
		FatigueSlope: r.KPIs.FatigueSlope,
		LFOSeconds:   r.KPIs.LFOAvgRecoverySeconds,
	}
	history := append(append([]model.RaceSummary{}, p.RaceHistory...), summary)
	if len(history) > historyLimit {
		history = history[len(history)-historyLimit:]
	}
	out.RaceHistory = history
	out.EvolutionFeedback = feedback.Evolution(history)
	return out
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
