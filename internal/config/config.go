// Package config defines service configuration structures and loading hooks.
//
// Conventions follow the rest of the project: defaults come from New, the
// loader layers an optional YAML file and REFINERY_-prefixed environment
// variables on top, and validation happens once at load time.
package config

import "runtime"

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// TriggerQueueSize bounds the in-memory session trigger queue.
	TriggerQueueSize int `koanf:"trigger_queue_size"`

	// WorkerCount sets the number of session pipeline workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize sets the size of the session-id deduplication cache.
	DedupeSize int `koanf:"dedupe_size"`

	// RawDataPath, TrustedDataPath and RefinedDataPath locate the three
	// data-lake layers on the local filesystem.
	RawDataPath     string `koanf:"raw_data_path"`
	TrustedDataPath string `koanf:"trusted_data_path"`
	RefinedDataPath string `koanf:"refined_data_path"`

	// RedisAddr and RedisDB select the shared document store.
	RedisAddr string `koanf:"redis_addr"`
	RedisDB   int    `koanf:"redis_db"`

	// FocusThreshold and CalmThreshold gate the attention/meditation zones.
	FocusThreshold float64 `koanf:"focus_threshold"`
	CalmThreshold  float64 `koanf:"calm_threshold"`

	// EventWindowSeconds sizes the before/after windows around game events.
	EventWindowSeconds int `koanf:"event_window_seconds"`

	// TxMaxAttempts and TxBackoffMS bound the optimistic-concurrency
	// retry loop against the document store.
	TxMaxAttempts int `koanf:"tx_max_attempts"`
	TxBackoffMS   int `koanf:"tx_backoff_ms"`

	// SessionTimeoutSeconds caps the end-to-end pipeline run per session.
	SessionTimeoutSeconds int `koanf:"session_timeout_seconds"`

	// HistoryLimit caps the per-user rolling race history.
	HistoryLimit int `koanf:"history_limit"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:              "info",
		Addr:                  ":9080",
		TriggerQueueSize:      1024,
		WorkerCount:           runtime.NumCPU(),
		DedupeSize:            100_000,
		RawDataPath:           "/data/raw_data",
		TrustedDataPath:       "/data/trusted_data",
		RefinedDataPath:       "/data/refined_data",
		RedisAddr:             "localhost:6379",
		RedisDB:               0,
		FocusThreshold:        70,
		CalmThreshold:         60,
		EventWindowSeconds:    5,
		TxMaxAttempts:         5,
		TxBackoffMS:           50,
		SessionTimeoutSeconds: 120,
		HistoryLimit:          10,
	}
}
