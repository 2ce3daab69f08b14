package merge

import "errors"

// Sentinel kinds for merge errors.
var (
	// ErrMissingInput signals that a session produced no signal samples at
	// all. The whole session merge aborts on it.
	ErrMissingInput = errors.New("no signal samples for session")
)
