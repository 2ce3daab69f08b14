// Package merge builds the trusted-layer dataset from raw session streams.
//
// The merger flattens per-player signal samples, normalizes timestamps to
// UTC instants, folds game events into the same timeline and stable-sorts
// the result, so downstream consumers see one schema-stable, time-ordered
// sequence per session.
package merge

import (
	"sort"

	"github.com/neurorace/refinery/internal/domain/model"
)

// BuildTrusted merges all players' signal samples and the session's game
// events into one trusted record sequence sorted ascending by timestamp,
// ties broken by original insertion order (samples before events).
//
// Returns ErrMissingInput when no signal samples exist: KPIs are meaningless
// without signal data, so event-only sessions abort the merge.
func BuildTrusted(samples []model.RawSignalSample, events []model.GameEvent) ([]model.TrustedRecord, error) {
	if len(samples) == 0 {
		return nil, ErrMissingInput
	}

	records := make([]model.TrustedRecord, 0, len(samples)+len(events))
	for _, s := range samples {
		records = append(records, signalRecord(s))
	}
	for _, e := range events {
		records = append(records, eventRecord(e))
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Timestamp.Before(records[j].Timestamp)
	})
	return records, nil
}

func signalRecord(s model.RawSignalSample) model.TrustedRecord {
	player := int32(s.Player)
	psl := int32(s.PoorSignalLevel)
	return model.TrustedRecord{
		Timestamp:       s.Timestamp(),
		Player:          &player,
		Attention:       ptr(s.ESense.Attention),
		Meditation:      ptr(s.ESense.Meditation),
		PoorSignalLevel: &psl,
		IsSignalValid:   s.PoorSignalLevel == 0,
		Delta:           ptr(s.EEGPower.Delta),
		Theta:           ptr(s.EEGPower.Theta),
		LowAlpha:        ptr(s.EEGPower.LowAlpha),
		HighAlpha:       ptr(s.EEGPower.HighAlpha),
		LowBeta:         ptr(s.EEGPower.LowBeta),
		HighBeta:        ptr(s.EEGPower.HighBeta),
		LowGamma:        ptr(s.EEGPower.LowGamma),
		HighGamma:       ptr(s.EEGPower.HighGamma),
	}
}

func eventRecord(e model.GameEvent) model.TrustedRecord {
	rec := model.TrustedRecord{
		Timestamp:     e.Timestamp(),
		GameEventType: ptr(string(e.Type)),
		// Event rows carry no signal quality reading, so they are never
		// valid signal.
		IsSignalValid: false,
	}
	if e.Player > 0 {
		player := int32(e.Player)
		rec.Player = &player
	}
	return rec
}

func ptr[T any](v T) *T { return &v }
