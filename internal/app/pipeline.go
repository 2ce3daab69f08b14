package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/neurorace/refinery/internal/adapters/docstore"
	"github.com/neurorace/refinery/internal/domain/feedback"
	"github.com/neurorace/refinery/internal/domain/kpi"
	"github.com/neurorace/refinery/internal/domain/merge"
	"github.com/neurorace/refinery/internal/domain/model"
	"github.com/neurorace/refinery/internal/domain/profile"
	"github.com/neurorace/refinery/internal/domain/stats"
	"github.com/neurorace/refinery/pkg/logger"
	"github.com/neurorace/refinery/pkg/metrics"
)

// RunSession executes the full reconciliation pipeline for one session:
// raw ingest, trusted merge, KPI computation, global stats contribution,
// feedback, refined summary, and user profile updates.
//
// Failures split in two classes. Anything up to and including the KPI
// computation fails the whole session. Shared-store failures after that
// point degrade the session to partial: the local refined summary is still
// written, which is the durability floor every processed session must hit.
func (s *Service) RunSession(ctx context.Context, t model.Trigger) error {
	ctx, cancel := context.WithTimeout(ctx, s.sessionTimeout)
	defer cancel()

	start := time.Now()
	defer func() {
		metrics.RecordPipelineDuration(time.Since(start).Seconds())
	}()

	log := s.logger.Named("pipeline")
	log.Info(ctx, "session pipeline started", logger.String("sessionID", t.SessionID))

	samples, events, err := s.lake.ReadRawSession(ctx, t.SessionID)
	if err != nil {
		metrics.RecordSessionFailed()
		return fmt.Errorf("read raw session: %w", err)
	}

	records, err := merge.BuildTrusted(samples, events)
	if err != nil {
		metrics.RecordSessionFailed()
		return fmt.Errorf("build trusted dataset: %w", err)
	}
	if _, err := s.lake.WriteTrusted(ctx, t.SessionID, records); err != nil {
		metrics.RecordSessionFailed()
		return fmt.Errorf("write trusted dataset: %w", err)
	}

	kpisByPlayer := s.calculator.ComputeSession(records)
	if len(kpisByPlayer) == 0 {
		metrics.RecordSessionFailed()
		return fmt.Errorf("session %s: %w", t.SessionID, kpi.ErrNoValidSignal)
	}

	partial := false

	gs, err := s.contributeGlobalStats(ctx, kpisByPlayer)
	if err != nil {
		partial = true
		log.Error(ctx, "global stats update failed",
			logger.String("sessionID", t.SessionID), logger.Error(err))
		gs = s.globalStatsSnapshot(ctx)
	}

	summary := make(model.SessionSummary, len(kpisByPlayer))
	for player, kpis := range kpisByPlayer {
		kpis.CoachFeedback = feedback.Coach(kpis, gs)
		summary["player_"+strconv.Itoa(player)] = kpis
	}

	// The local write happens regardless of how the shared store fared.
	if _, err := s.lake.WriteSummary(ctx, t.SessionID, summary); err != nil {
		metrics.RecordSessionFailed()
		return fmt.Errorf("write refined summary: %w", err)
	}

	if err := s.putSessionDoc(ctx, t.SessionID, summary); err != nil {
		partial = true
		log.Error(ctx, "session document write failed",
			logger.String("sessionID", t.SessionID), logger.Error(err))
	}

	if err := s.updateProfiles(ctx, t.SessionID, events, kpisByPlayer); err != nil {
		partial = true
		log.Error(ctx, "profile updates failed",
			logger.String("sessionID", t.SessionID), logger.Error(err))
	}

	if partial {
		metrics.RecordSessionPartial()
		log.Warn(ctx, "session processed with degraded store writes",
			logger.String("sessionID", t.SessionID),
			logger.Int("players", len(summary)))
		return nil
	}

	metrics.RecordSessionProcessed()
	log.Info(ctx, "session pipeline finished",
		logger.String("sessionID", t.SessionID),
		logger.Int("players", len(summary)),
		logger.Float64("seconds", time.Since(start).Seconds()))
	return nil
}

// contributeGlobalStats folds this session's TZF and LFO values into the
// singleton global stats document and returns the post-merge snapshot.
func (s *Service) contributeGlobalStats(ctx context.Context, kpisByPlayer map[int]model.PlayerKPIs) (model.GlobalStats, error) {
	var tzf, lfo []float64
	for _, kpis := range kpisByPlayer {
		tzf = append(tzf, kpis.TZFPct)
		if kpis.LFOAvgRecoverySeconds != nil {
			lfo = append(lfo, *kpis.LFOAvgRecoverySeconds)
		}
	}

	written, err := s.store.Update(ctx, docstore.GlobalStatsKey, func(current []byte) ([]byte, error) {
		var gs model.GlobalStats
		if current != nil {
			if err := json.Unmarshal(current, &gs); err != nil {
				return nil, fmt.Errorf("decode global stats: %w", err)
			}
		}
		next := stats.AppendSession(gs, tzf, lfo, time.Now().UnixMilli())
		return json.Marshal(next)
	})
	if err != nil {
		return model.GlobalStats{}, err
	}

	var gs model.GlobalStats
	if err := json.Unmarshal(written, &gs); err != nil {
		return model.GlobalStats{}, fmt.Errorf("decode written global stats: %w", err)
	}
	return gs, nil
}

// globalStatsSnapshot is the best-effort fallback read used when this
// session's own contribution could not be committed. Feedback then tiers
// against whatever population the store last saw.
func (s *Service) globalStatsSnapshot(ctx context.Context) model.GlobalStats {
	var gs model.GlobalStats
	data, err := s.store.Get(ctx, docstore.GlobalStatsKey)
	if err != nil {
		if !errors.Is(err, docstore.ErrNotFound) {
			s.logger.Warn(ctx, "global stats snapshot read failed", logger.Error(err))
		}
		return gs
	}
	if err := json.Unmarshal(data, &gs); err != nil {
		s.logger.Warn(ctx, "global stats snapshot decode failed", logger.Error(err))
	}
	return gs
}

// putSessionDoc mirrors the refined summary into the shared store so other
// services can read it without filesystem access.
func (s *Service) putSessionDoc(ctx context.Context, sessionID string, summary model.SessionSummary) error {
	data, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("encode session summary: %w", err)
	}
	return s.store.Put(ctx, docstore.SessionKey(sessionID), data)
}

// updateProfiles folds the session into every mapped user's profile. The
// raceStarted event carries the player-to-email mapping; without one there
// is nobody to attribute the race to, which is not an error.
func (s *Service) updateProfiles(ctx context.Context, sessionID string, events []model.GameEvent, kpisByPlayer map[int]model.PlayerKPIs) error {
	users, ok := userMapping(events)
	if !ok {
		s.logger.Info(ctx, "no user mapping in session, skipping profile updates",
			logger.String("sessionID", sessionID))
		return nil
	}

	winner, hasWinner := profile.DetermineWinner(events)
	raceTimes := raceTimesByPlayer(events)
	sessionTS := sessionTimestamp(events)

	var firstErr error
	for _, u := range users {
		kpis, ok := kpisByPlayer[u.PlayerID]
		if !ok {
			metrics.RecordPlayerSkipped()
			s.logger.Warn(ctx, "mapped player has no KPIs, skipping profile",
				logger.String("sessionID", sessionID),
				logger.Int("player", u.PlayerID))
			continue
		}

		result := profile.RaceResult{
			SessionID:   sessionID,
			TimestampMS: sessionTS,
			Won:         hasWinner && winner == u.PlayerID,
			KPIs:        kpis,
		}
		if t, ok := raceTimes[u.PlayerID]; ok {
			result.RaceTimeSeconds = &t
		}

		if err := s.applyProfile(ctx, u, result); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			s.logger.Error(ctx, "profile update failed",
				logger.String("sessionID", sessionID),
				logger.String("email", u.Email),
				logger.Error(err))
		}
	}
	return firstErr
}

// applyProfile resolves the user's stable id through the email index and
// folds the race result into their profile document.
func (s *Service) applyProfile(ctx context.Context, u model.UserRef, result profile.RaceResult) error {
	id, err := s.store.EnsureID(ctx, docstore.UserIndexKey(u.Email), uuid.NewString())
	if err != nil {
		return fmt.Errorf("resolve user id: %w", err)
	}

	_, err = s.store.Update(ctx, docstore.UserKey(id), func(current []byte) ([]byte, error) {
		p := model.UserProfile{UserID: id, Email: u.Email}
		if current != nil {
			if err := json.Unmarshal(current, &p); err != nil {
				return nil, fmt.Errorf("decode user profile: %w", err)
			}
		}
		next := profile.Apply(p, result, s.historyLimit)
		next.UserID = id
		next.Email = u.Email
		return json.Marshal(next)
	})
	if err != nil {
		return fmt.Errorf("update profile %s: %w", id, err)
	}
	return nil
}

// userMapping extracts the player-to-email mapping from the first
// raceStarted event that carries one.
func userMapping(events []model.GameEvent) ([]model.UserRef, bool) {
	for _, e := range events {
		if users, ok := e.Users(); ok {
			return users, true
		}
	}
	return nil, false
}

// raceTimesByPlayer keeps each player's best finish time.
func raceTimesByPlayer(events []model.GameEvent) map[int]float64 {
	times := make(map[int]float64)
	for _, e := range events {
		t, ok := e.RaceTime()
		if !ok || e.Player == 0 {
			continue
		}
		if prev, seen := times[e.Player]; !seen || t < prev {
			times[e.Player] = t
		}
	}
	return times
}

// sessionTimestamp anchors the race history entry to the session's first
// event, falling back to wall clock for event-free sessions.
func sessionTimestamp(events []model.GameEvent) int64 {
	var first int64
	for _, e := range events {
		if first == 0 || e.TimestampMS < first {
			first = e.TimestampMS
		}
	}
	if first == 0 {
		return time.Now().UnixMilli()
	}
	return first
}
