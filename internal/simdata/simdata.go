// Package simdata generates synthetic race sessions: per-player EEG logs
// and a game event log shaped like the acquisition path writes them. It
// backs the simulate-session tool and keeps integration runs independent of
// real headset hardware.
package simdata

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/neurorace/refinery/internal/domain/model"
)

// Signal generation parameters.
const (
	sampleIntervalMS = 1000
	maxESense        = 100.0
	walkStep         = 12.0

	// Roughly one reading in ten arrives with a degraded signal.
	poorSignalChance = 0.1
	poorSignalLevel  = 55

	thetaBase    = 120000.0
	thetaDriftUp = 400.0
	highBetaBase = 90000.0
	bandJitter   = 0.25
)

// Event generation parameters.
const (
	collisionChance = 0.04
	overtakeChance  = 0.03
	gestureChance   = 0.02
)

// Config controls one synthetic session.
type Config struct {
	SessionID       string
	Players         int
	DurationSeconds int
	Seed            int64

	// StartMS anchors the session's first reading. Zero means "duration
	// seconds ago", which places the session just behind wall clock.
	StartMS int64
}

// Session is a fully generated synthetic session.
type Session struct {
	SessionID string
	Samples   map[int][]model.RawSignalSample
	Events    []model.GameEvent
}

// Generate builds a deterministic synthetic session from the config. The
// same seed always yields the same session.
func Generate(cfg Config) Session {
	rng := rand.New(rand.NewSource(cfg.Seed))
	startMS := cfg.StartMS
	if startMS == 0 {
		startMS = time.Now().Add(-time.Duration(cfg.DurationSeconds) * time.Second).UnixMilli()
	}

	s := Session{
		SessionID: cfg.SessionID,
		Samples:   make(map[int][]model.RawSignalSample, cfg.Players),
	}

	users := make([]model.UserRef, cfg.Players)
	for p := 1; p <= cfg.Players; p++ {
		users[p-1] = model.UserRef{
			PlayerID: p,
			Email:    fmt.Sprintf("player%d@neurorace.io", p),
		}
		s.Samples[p] = generateSignal(rng, p, startMS, cfg.DurationSeconds)
	}

	s.Events = generateEvents(rng, cfg, users, startMS)
	return s
}

// generateSignal produces one player's reading series as a clamped random
// walk, with theta drifting upward so fatigue analysis has something to see.
func generateSignal(rng *rand.Rand, player int, startMS int64, seconds int) []model.RawSignalSample {
	attention := 40 + rng.Float64()*30
	meditation := 40 + rng.Float64()*30

	samples := make([]model.RawSignalSample, 0, seconds)
	for i := 0; i < seconds; i++ {
		attention = clamp(attention + (rng.Float64()-0.5)*walkStep)
		meditation = clamp(meditation + (rng.Float64()-0.5)*walkStep)

		signalLevel := 0
		if rng.Float64() < poorSignalChance {
			signalLevel = poorSignalLevel
		}

		theta := jitter(rng, thetaBase+float64(i)*thetaDriftUp)
		samples = append(samples, model.RawSignalSample{
			Player:          player,
			TimestampMS:     startMS + int64(i)*sampleIntervalMS,
			ESense:          model.ESense{Attention: attention, Meditation: meditation},
			PoorSignalLevel: signalLevel,
			EEGPower: model.BandPowers{
				Delta:     jitter(rng, 500000),
				Theta:     theta,
				LowAlpha:  jitter(rng, 60000),
				HighAlpha: jitter(rng, 50000),
				LowBeta:   jitter(rng, 40000),
				HighBeta:  jitter(rng, highBetaBase),
				LowGamma:  jitter(rng, 20000),
				HighGamma: jitter(rng, 10000),
			},
		})
	}
	return samples
}

// generateEvents produces the session's event log: configure and start at
// the head, random mid-race incidents, and one finish per player.
func generateEvents(rng *rand.Rand, cfg Config, users []model.UserRef, startMS int64) []model.GameEvent {
	events := []model.GameEvent{
		model.NewPlayerEvent(cfg.SessionID, model.EventRaceConfigure, startMS, 0),
		model.NewRaceStarted(cfg.SessionID, startMS+sampleIntervalMS, users),
	}

	for i := 2; i < cfg.DurationSeconds-2; i++ {
		tsMS := startMS + int64(i)*sampleIntervalMS
		player := 1 + rng.Intn(cfg.Players)
		switch {
		case rng.Float64() < collisionChance:
			events = append(events, model.NewPlayerEvent(cfg.SessionID, model.EventCollision, tsMS, player))
		case rng.Float64() < overtakeChance:
			events = append(events, model.NewPlayerEvent(cfg.SessionID, model.EventOvertake, tsMS, player))
		case rng.Float64() < gestureChance:
			events = append(events, model.NewPlayerEvent(cfg.SessionID, model.EventHandGesture, tsMS, player))
		}
	}

	endMS := startMS + int64(cfg.DurationSeconds)*sampleIntervalMS
	for p := 1; p <= cfg.Players; p++ {
		raceTime := float64(cfg.DurationSeconds) - 4 + rng.Float64()*8
		events = append(events, model.NewHasFinished(cfg.SessionID, endMS+int64(p), p, raceTime))
	}
	return events
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > maxESense {
		return maxESense
	}
	return v
}

func jitter(rng *rand.Rand, base float64) float64 {
	return base * (1 + (rng.Float64()-0.5)*bandJitter)
}
