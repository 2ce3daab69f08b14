// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/neurorace/refinery/pkg/logger"
	"github.com/neurorace/refinery/pkg/metrics"
)

// TriggersHandler handles session trigger requests.
type TriggersHandler struct {
	deps   Dependencies
	logger logger.Logger
}

// NewTriggersHandler creates a new triggers handler.
func NewTriggersHandler(deps Dependencies, l logger.Logger) *TriggersHandler {
	return &TriggersHandler{deps: deps, logger: l}
}

// HandlePostTrigger handles POST /triggers requests.
func (h *TriggersHandler) HandlePostTrigger(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_trigger"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req triggerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn(r.Context(), "rejecting malformed trigger body",
			logger.String("remoteAddr", r.RemoteAddr), logger.Error(err))
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		h.logger.Warn(r.Context(), "rejecting trigger without session id",
			logger.String("remoteAddr", r.RemoteAddr), logger.Error(err))
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	// Idempotency check, mark as seen first.
	if h.deps.SeenAndRecord(r.Context(), req.SessionID) {
		metrics.RecordTriggerDuplicate()
		writeJSON(w, http.StatusOK, ackResponse{Status: "duplicate", SessionID: req.SessionID, Duplicate: true})
		return
	}

	if ok := h.deps.Enqueue(r.Context(), req.SessionID); !ok {
		// Roll back the "seen" status so a later retry can get through.
		h.deps.Unrecord(r.Context(), req.SessionID)
		writeError(w, http.StatusTooManyRequests, "backpressure", NewKind(op, ErrBackpressure))
		return
	}
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted", SessionID: req.SessionID, Duplicate: false})
}
