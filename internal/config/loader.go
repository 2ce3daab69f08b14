package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New)
//  2. file (YAML) if REFINERY_CONFIG is set
//  3. env (prefix REFINERY_)
func Load(ctx context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv("REFINERY_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Map env keys like REFINERY_WORKER_COUNT -> worker_count (flat keys,
	// underscores preserved to match the koanf tags on the struct).
	envProvider := env.Provider("REFINERY_", ".", func(s string) string {
		s = strings.ToLower(s)
		return strings.TrimPrefix(s, "refinery_")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.RawDataPath == "" || c.TrustedDataPath == "" || c.RefinedDataPath == "":
		return fmt.Errorf("%w: data paths must not be empty", ErrInvalidConfig)
	case c.FocusThreshold < 0 || c.FocusThreshold > 100:
		return fmt.Errorf("%w: focus_threshold out of range", ErrInvalidConfig)
	case c.CalmThreshold < 0 || c.CalmThreshold > 100:
		return fmt.Errorf("%w: calm_threshold out of range", ErrInvalidConfig)
	case c.EventWindowSeconds <= 0:
		return fmt.Errorf("%w: event_window_seconds must be positive", ErrInvalidConfig)
	case c.TxMaxAttempts <= 0:
		return fmt.Errorf("%w: tx_max_attempts must be positive", ErrInvalidConfig)
	case c.HistoryLimit <= 0:
		return fmt.Errorf("%w: history_limit must be positive", ErrInvalidConfig)
	}
	return nil
}
