// Package service provides the core reconciliation service that implements
// the dependencies required by the HTTP API and the pipeline run by workers.
package service

import (
	"context"
	"sync"
	"time"

	triggerqueue "github.com/neurorace/refinery/internal/adapters/mq/queue"
	workerpool "github.com/neurorace/refinery/internal/adapters/mq/worker"
	"github.com/neurorace/refinery/internal/adapters/docstore"
	"github.com/neurorace/refinery/internal/adapters/http/api"
	"github.com/neurorace/refinery/internal/adapters/lake"
	"github.com/neurorace/refinery/internal/domain/dedupe"
	"github.com/neurorace/refinery/internal/domain/kpi"
	"github.com/neurorace/refinery/internal/domain/model"
	"github.com/neurorace/refinery/internal/domain/profile"
	"github.com/neurorace/refinery/pkg/logger"
	"github.com/neurorace/refinery/pkg/metrics"
)

// Default service configuration.
const (
	defaultQueueSize      = 1024
	defaultDedupeSize     = 100_000
	defaultSessionTimeout = 2 * time.Minute
)

// Service wires the trigger queue, the worker pool, the data lake and the
// shared document store into one session reconciliation engine.
type Service struct {
	mu sync.RWMutex

	// Core components
	lake         *lake.Lake
	store        docstore.Store
	deduper      dedupe.Deduper
	triggerQueue triggerqueue.Queue
	calculator   *kpi.Calculator
	workerPool   *workerpool.Pool

	// Configuration
	workerCount    int
	queueSize      int
	dedupeSize     int
	historyLimit   int
	sessionTimeout time.Duration
	calcOpts       []kpi.Option

	// State
	started bool

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of pipeline workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum size of the trigger queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets the size of the session-id deduplication cache.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithLake sets the data lake the pipeline reads from and writes to.
func WithLake(l *lake.Lake) Option {
	return func(s *Service) {
		if l != nil {
			s.lake = l
		}
	}
}

// WithStore sets the shared document store.
func WithStore(st docstore.Store) Option {
	return func(s *Service) {
		if st != nil {
			s.store = st
		}
	}
}

// WithCalculatorOptions forwards options to the KPI calculator.
func WithCalculatorOptions(opts ...kpi.Option) Option {
	return func(s *Service) {
		s.calcOpts = append(s.calcOpts, opts...)
	}
}

// WithSessionTimeout caps the end-to-end pipeline run per session.
func WithSessionTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.sessionTimeout = d
		}
	}
}

// WithHistoryLimit caps the per-user rolling race history.
func WithHistoryLimit(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.historyLimit = n
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		queueSize:      defaultQueueSize,
		dedupeSize:     defaultDedupeSize,
		historyLimit:   profile.DefaultHistoryLimit,
		sessionTimeout: defaultSessionTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	s.logger.Info(ctx, "starting reconciliation service...")

	if s.store == nil {
		s.logger.Warn(ctx, "no document store configured, using in-memory store")
		s.store = docstore.NewMemoryStore()
	}
	s.deduper = dedupe.NewInMemoryDeduper(
		dedupe.WithMaxSize(s.dedupeSize),
	)
	s.triggerQueue = triggerqueue.NewInMemoryQueue(
		triggerqueue.WithCapacity(s.queueSize),
	)
	s.calculator = kpi.NewCalculator(s.calcOpts...)

	s.workerPool = workerpool.NewPool(s.workerCount, s.triggerQueue, s)
	s.workerPool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "reconciliation service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
	)
	return nil
}

// Stop gracefully shuts down the service. Queued triggers drain before the
// workers exit.
func (s *Service) Stop(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.logger.Info(ctx, "stopping reconciliation service...")

	if s.workerPool != nil {
		_ = s.workerPool.Shutdown(ctx)
	}
	if s.store != nil {
		_ = s.store.Close()
	}

	s.started = false
	s.logger.Info(ctx, "reconciliation service stopped")
}

// SeenAndRecord atomically checks if a session id was seen and records it if
// not. Returns true if the session was already seen.
func (s *Service) SeenAndRecord(ctx context.Context, id string) bool {
	return s.deduper.SeenAndRecord(ctx, id)
}

// Unrecord removes a session id from the seen set, allowing a retry.
func (s *Service) Unrecord(ctx context.Context, id string) {
	s.deduper.Unrecord(ctx, id)
}

// Size returns the current number of entries in the deduper.
func (s *Service) Size() int64 {
	if s.deduper == nil {
		return 0
	}
	return s.deduper.Size()
}

// Enqueue submits a session trigger for asynchronous processing. Returns
// false on backpressure.
func (s *Service) Enqueue(ctx context.Context, sessionID string) bool {
	ok := s.triggerQueue.Enqueue(ctx, model.Trigger{SessionID: sessionID})
	if ok {
		s.logger.Debug(ctx, "trigger enqueued", logger.String("sessionID", sessionID))
		metrics.UpdateQueueSize(s.triggerQueue.Len(ctx))
	}
	return ok
}

// GetStats returns a snapshot of the service's runtime state for the
// stats endpoint. Queue depth and dedupe occupancy are only read once the
// service has started.
func (s *Service) GetStats() api.ServiceStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := api.ServiceStats{
		Started:     s.started,
		WorkerCount: s.workerCount,
		QueueSize:   s.queueSize,
		DedupeSize:  s.dedupeSize,
	}
	if s.started {
		stats.QueueLength = s.triggerQueue.Len(context.Background())
		stats.SeenSessions = s.deduper.Size()
		metrics.UpdateQueueSize(stats.QueueLength)
	}
	return stats
}
