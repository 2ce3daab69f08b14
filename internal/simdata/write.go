package simdata

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

const dirPerm = 0o755

// WriteSession lays the generated session out under {rawPath}/{sessionID}
// exactly as the acquisition path would: one jsonl file per player plus the
// shared game event log. Returns the session directory.
func WriteSession(rawPath string, s Session) (string, error) {
	dir := filepath.Join(rawPath, s.SessionID)
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return "", fmt.Errorf("create session dir: %w", err)
	}

	players := make([]int, 0, len(s.Samples))
	for p := range s.Samples {
		players = append(players, p)
	}
	sort.Ints(players)

	for _, p := range players {
		path := filepath.Join(dir, fmt.Sprintf("player_%d_eeg.jsonl", p))
		if err := writeJSONL(path, len(s.Samples[p]), func(i int) any { return s.Samples[p][i] }); err != nil {
			return "", fmt.Errorf("write signal log for player %d: %w", p, err)
		}
	}

	eventsPath := filepath.Join(dir, "game_events.jsonl")
	if err := writeJSONL(eventsPath, len(s.Events), func(i int) any { return s.Events[i] }); err != nil {
		return "", fmt.Errorf("write event log: %w", err)
	}
	return dir, nil
}

func writeJSONL(path string, n int, record func(int) any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	for i := 0; i < n; i++ {
		if err := enc.Encode(record(i)); err != nil {
			return err
		}
	}
	return w.Flush()
}
