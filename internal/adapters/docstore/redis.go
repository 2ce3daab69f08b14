package docstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/neurorace/refinery/pkg/logger"
	"github.com/neurorace/refinery/pkg/metrics"
)

// Default optimistic-concurrency settings.
const (
	defaultMaxAttempts = 5
	defaultBackoff     = 50 * time.Millisecond
)

// RedisStore implements Store against redis. Update relies on WATCH: the
// conditional write fails with redis.TxFailedErr when another writer
// touched the key between the read and the EXEC, and the whole
// read-compute-write cycle is retried.
type RedisStore struct {
	client      *redis.Client
	maxAttempts int
	backoff     time.Duration
	logger      logger.Logger
}

// RedisOption applies a configuration option to the RedisStore.
type RedisOption func(*RedisStore)

// WithMaxAttempts bounds the optimistic retry loop.
func WithMaxAttempts(n int) RedisOption {
	return func(s *RedisStore) {
		if n > 0 {
			s.maxAttempts = n
		}
	}
}

// WithBackoff sets the pause between retry attempts.
func WithBackoff(d time.Duration) RedisOption {
	return func(s *RedisStore) {
		if d > 0 {
			s.backoff = d
		}
	}
}

// WithRedisLogger sets a custom logger.
func WithRedisLogger(l logger.Logger) RedisOption {
	return func(s *RedisStore) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewRedisStore creates a Store backed by the redis instance at addr.
func NewRedisStore(addr string, db int, opts ...RedisOption) *RedisStore {
	s := &RedisStore{
		client:      redis.NewClient(&redis.Options{Addr: addr, DB: db}),
		maxAttempts: defaultMaxAttempts,
		backoff:     defaultBackoff,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("docstore")
	}
	return s
}

// Get returns a document, or ErrNotFound.
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	return val, nil
}

// Put writes a document unconditionally.
func (s *RedisStore) Put(ctx context.Context, key string, value []byte) error {
	if err := s.client.Set(ctx, key, value, 0).Err(); err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}

// Update performs the optimistic read-modify-write cycle described on the
// Store interface.
func (s *RedisStore) Update(ctx context.Context, key string, fn UpdateFunc) ([]byte, error) {
	var written []byte

	txn := func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			current = nil
		} else if err != nil {
			return err
		}
		next, err := fn(current)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, next, 0)
			return nil
		})
		if err == nil {
			written = next
		}
		return err
	}

	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		err := s.client.Watch(ctx, txn, key)
		if err == nil {
			return written, nil
		}
		if !errors.Is(err, redis.TxFailedErr) {
			return nil, fmt.Errorf("update %s: %w", key, err)
		}

		metrics.RecordStoreTxRetry()
		s.logger.Debug(ctx, "optimistic write conflict, retrying",
			logger.String("key", key),
			logger.Int("attempt", attempt))

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("update %s: %w", key, ctx.Err())
		case <-time.After(s.backoff * time.Duration(attempt)):
		}
	}

	metrics.RecordStoreTxFailure()
	return nil, fmt.Errorf("%w: %s after %d attempts", ErrTxExhausted, key, s.maxAttempts)
}

// EnsureID claims key for id via SETNX and returns the winning id.
func (s *RedisStore) EnsureID(ctx context.Context, key, id string) (string, error) {
	set, err := s.client.SetNX(ctx, key, id, 0).Result()
	if err != nil {
		return "", fmt.Errorf("ensure id %s: %w", key, err)
	}
	if set {
		return id, nil
	}
	existing, err := s.client.Get(ctx, key).Result()
	if err != nil {
		return "", fmt.Errorf("ensure id %s: %w", key, err)
	}
	return existing, nil
}

// Close releases the redis client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
