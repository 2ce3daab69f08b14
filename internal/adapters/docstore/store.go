// Package docstore defines the shared document store contract and its
// implementations. Shared state (global stats, user profiles) is only ever
// mutated through Update, an optimistic-concurrency read-modify-write.
package docstore

import "context"

// Document keys used by the pipeline.
const (
	// GlobalStatsKey is the singleton cross-session statistics document.
	GlobalStatsKey = "global_stats/summary"
)

// SessionKey returns the document key of a session's KPI summary.
func SessionKey(sessionID string) string { return "sessions/" + sessionID }

// UserKey returns the document key of a user profile.
func UserKey(userID string) string { return "users/" + userID }

// UserIndexKey returns the email-to-id index key of a user.
func UserIndexKey(email string) string { return "users_by_email/" + email }

// UpdateFunc computes the replacement for a document. current is nil when
// the document does not exist yet. It must be a pure function of its input:
// the store may call it once per retry attempt.
type UpdateFunc func(current []byte) ([]byte, error)

// Store provides read/write access to the shared document store.
type Store interface {
	// Get returns a document, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put writes a document unconditionally. Reserved for uncontended
	// documents such as per-session summaries.
	Put(ctx context.Context, key string, value []byte) error

	// Update performs an optimistic read-modify-write: read the current
	// document, apply fn, and write back conditionally on the document
	// being unchanged. Conflicts retry with backoff up to a bounded
	// attempt count; exhaustion returns ErrTxExhausted with the stored
	// state left intact. Returns the value that was written.
	Update(ctx context.Context, key string, fn UpdateFunc) ([]byte, error)

	// EnsureID atomically claims key for id. Returns the id now bound to
	// key: the given one when the claim won, the pre-existing one
	// otherwise.
	EnsureID(ctx context.Context, key, id string) (string, error)

	// Close releases the underlying client.
	Close() error
}
