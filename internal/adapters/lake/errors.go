package lake

import "errors"

// Sentinel kinds for lake errors.
var (
	// ErrNoSession signals that a session's raw directory does not exist.
	ErrNoSession = errors.New("session directory not found")
)
