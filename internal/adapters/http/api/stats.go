// Package api declares HTTP contracts and route registration helpers.
package api

import "net/http"

// ServiceStats is the runtime snapshot served by GET /stats: lifecycle
// state, queue and worker sizing, the live queue depth and the number of
// session ids currently held by the deduper.
type ServiceStats struct {
	Started      bool  `json:"started"`
	WorkerCount  int   `json:"workerCount"`
	QueueSize    int   `json:"queueSize"`
	DedupeSize   int   `json:"dedupeSize"`
	QueueLength  int   `json:"queueLength"`
	SeenSessions int64 `json:"seenSessions"`
}

// StatsProvider exposes the reconciliation service's runtime snapshot.
type StatsProvider interface {
	GetStats() ServiceStats
}

// StatsHandler serves the runtime snapshot for operational checks.
type StatsHandler struct {
	provider StatsProvider
}

// NewStatsHandler creates a new stats handler.
func NewStatsHandler(provider StatsProvider) *StatsHandler {
	return &StatsHandler{provider: provider}
}

// HandleStats handles GET /stats requests.
func (h *StatsHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, h.provider.GetStats())
}
