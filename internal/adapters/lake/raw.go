package lake

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/neurorace/refinery/internal/domain/model"
	"github.com/neurorace/refinery/pkg/logger"
	"github.com/neurorace/refinery/pkg/metrics"
)

// eventsFileName is the per-session game event log.
const eventsFileName = "game_events.jsonl"

// signalFilePattern matches the per-player EEG logs inside a session dir.
const signalFilePattern = "player_*_eeg.jsonl"

// maxLineBytes bounds a single jsonl line.
const maxLineBytes = 1 << 20

// ReadRawSession loads every player's signal log and the session's game
// event log from {raw}/{sessionID}. Lines that fail to parse are skipped
// with a warning; the rest of the file is still consumed. A missing event
// file yields no events, which is valid. A missing session directory yields
// ErrNoSession.
func (l *Lake) ReadRawSession(ctx context.Context, sessionID string) ([]model.RawSignalSample, []model.GameEvent, error) {
	dir := filepath.Join(l.rawPath, sessionID)
	if _, err := os.Stat(dir); err != nil {
		return nil, nil, fmt.Errorf("%w: %s", ErrNoSession, dir)
	}

	paths, err := filepath.Glob(filepath.Join(dir, signalFilePattern))
	if err != nil {
		return nil, nil, fmt.Errorf("glob signal files: %w", err)
	}
	sort.Strings(paths)

	var samples []model.RawSignalSample
	for _, path := range paths {
		fileSamples, err := readSignalFile(ctx, l.logger, path)
		if err != nil {
			// Matches the raw collector's tolerance: an unreadable
			// player file does not sink the session.
			l.logger.Warn(ctx, "failed to read signal file",
				logger.String("path", path), logger.Error(err))
			continue
		}
		samples = append(samples, fileSamples...)
	}

	events, err := l.readEventsFile(ctx, filepath.Join(dir, eventsFileName))
	if err != nil {
		return nil, nil, err
	}
	return samples, events, nil
}

func readSignalFile(ctx context.Context, log logger.Logger, path string) ([]model.RawSignalSample, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var samples []model.RawSignalSample
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var s model.RawSignalSample
		if err := json.Unmarshal(line, &s); err != nil {
			metrics.RecordMalformedRecord()
			log.Warn(ctx, "skipping malformed signal record",
				logger.String("path", path),
				logger.Int("line", lineNo),
				logger.Error(err))
			continue
		}
		samples = append(samples, s)
	}
	if err := scanner.Err(); err != nil {
		return samples, err
	}
	return samples, nil
}

func (l *Lake) readEventsFile(ctx context.Context, path string) ([]model.GameEvent, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open events file: %w", err)
	}
	defer f.Close()

	var events []model.GameEvent
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var e model.GameEvent
		if err := json.Unmarshal(line, &e); err != nil {
			metrics.RecordMalformedRecord()
			l.logger.Warn(ctx, "skipping malformed game event",
				logger.String("path", path),
				logger.Int("line", lineNo),
				logger.Error(err))
			continue
		}
		events = append(events, e)
	}
	if err := scanner.Err(); err != nil {
		return events, fmt.Errorf("scan events file: %w", err)
	}
	return events, nil
}
