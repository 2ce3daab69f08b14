package kpi

import "errors"

// ErrNoValidSignal reports a session where no player produced a single
// valid-signal reading, leaving nothing to analyze.
var ErrNoValidSignal = errors.New("no valid signal readings in session")
