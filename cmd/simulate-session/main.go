// Command simulate-session generates a synthetic race session in the raw
// layer of the data lake and optionally fires the processing trigger at a
// running service.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/neurorace/refinery/internal/simdata"
)

const (
	defaultPlayers  = 2
	defaultDuration = 120
	triggerTimeout  = 10 * time.Second
)

func main() {
	var (
		rawPath   = flag.String("raw", "/data/raw_data", "Raw layer root of the data lake")
		sessionID = flag.String("session", "", "Session id (default: random UUID)")
		players   = flag.Int("players", defaultPlayers, "Number of players in the session")
		duration  = flag.Int("duration", defaultDuration, "Session length in seconds")
		seed      = flag.Int64("seed", time.Now().UnixNano(), "Random seed for reproducible sessions")
		trigger   = flag.String("trigger", "", "Service base URL to POST the trigger to (optional)")
	)
	flag.Parse()

	id := *sessionID
	if id == "" {
		id = uuid.NewString()
	}

	session := simdata.Generate(simdata.Config{
		SessionID:       id,
		Players:         *players,
		DurationSeconds: *duration,
		Seed:            *seed,
	})

	dir, err := simdata.WriteSession(*rawPath, session)
	if err != nil {
		os.Stderr.WriteString("failed to write session: " + err.Error() + "\n")
		os.Exit(1)
	}
	os.Stdout.WriteString("session written to " + dir + "\n")

	if *trigger == "" {
		return
	}
	if err := postTrigger(*trigger, id); err != nil {
		os.Stderr.WriteString("failed to trigger processing: " + err.Error() + "\n")
		os.Exit(1)
	}
	os.Stdout.WriteString("trigger accepted for session " + id + "\n")
}

func postTrigger(baseURL, sessionID string) error {
	ctx, cancel := context.WithTimeout(context.Background(), triggerTimeout)
	defer cancel()

	body, err := json.Marshal(map[string]string{"sessionId": sessionID})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/triggers", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return &statusError{code: resp.StatusCode}
	}
	return nil
}

type statusError struct{ code int }

func (e *statusError) Error() string {
	return "unexpected status " + http.StatusText(e.code)
}
