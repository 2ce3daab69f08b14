// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/neurorace/refinery/internal/domain/dedupe"
	"github.com/neurorace/refinery/pkg/logger"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	dedupe.Deduper

	// Enqueue pushes a session trigger for async processing.
	// Returns false on backpressure.
	Enqueue(ctx context.Context, sessionID string) bool
}

// Server wires HTTP routes for the reconciliation API.
type Server struct {
	healthHandler   *HealthHandler
	statsHandler    *StatsHandler
	triggersHandler *TriggersHandler

	logger logger.Logger
}

// Option applies a configuration option to the Server.
type Option func(*Server)

// WithLogger sets a custom logger for the API handlers.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	s := &Server{}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("api")
	}
	s.healthHandler = NewHealthHandler()
	s.statsHandler = NewStatsHandler(statsProvider)
	s.triggersHandler = NewTriggersHandler(deps, s.logger)
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/triggers", MetricsMiddleware(s.triggersHandler.HandlePostTrigger, "triggers"))
}

// triggerRequest mirrors the JSON body for POST /triggers.
type triggerRequest struct {
	SessionID string `json:"sessionId"`
}

func (t triggerRequest) validate() error {
	if strings.TrimSpace(t.SessionID) == "" {
		return errors.New("missing sessionId")
	}
	return nil
}

type ackResponse struct {
	Status    string `json:"status"`
	SessionID string `json:"sessionId"`
	Duplicate bool   `json:"duplicate"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
