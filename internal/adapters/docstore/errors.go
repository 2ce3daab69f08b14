package docstore

import "errors"

// Sentinel kinds for document store errors.
var (
	ErrNotFound    = errors.New("document not found")
	ErrTxExhausted = errors.New("transaction retries exhausted")
)
