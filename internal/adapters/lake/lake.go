// Package lake reads and writes the session data-lake layers on the local
// filesystem: raw jsonl streams in, trusted parquet and refined json out.
package lake

import (
	"github.com/neurorace/refinery/pkg/logger"
)

// Default directory permissions for lake layers.
const dirPerm = 0o755

// Lake locates the three data-lake layers for session artifacts.
type Lake struct {
	rawPath     string
	trustedPath string
	refinedPath string

	logger logger.Logger
}

// Option applies a configuration option to the Lake.
type Option func(*Lake)

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(lk *Lake) {
		if l != nil {
			lk.logger = l
		}
	}
}

// New creates a Lake rooted at the three layer paths.
func New(rawPath, trustedPath, refinedPath string, opts ...Option) *Lake {
	lk := &Lake{
		rawPath:     rawPath,
		trustedPath: trustedPath,
		refinedPath: refinedPath,
	}
	for _, opt := range opts {
		opt(lk)
	}
	if lk.logger == nil {
		lk.logger = logger.Get().Named("lake")
	}
	return lk
}
