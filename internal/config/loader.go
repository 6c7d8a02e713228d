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

const (
	envPrefix    = "TF_"
	envConfig    = "TF_CONFIG"
	listSplitter = ","
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New(ctx))
//  2. file (YAML) if TF_CONFIG is set
//  3. env (prefix TF_), lists comma separated
func Load(ctx context.Context) (*Config, error) {
	base := New(ctx)

	k := koanf.New(".")

	if path := os.Getenv(envConfig); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	// TF_READY_TIMEOUT_MS -> ready_timeout_ms; underscores are kept so the
	// flat koanf tags match.
	envProvider := env.ProviderWithValue(envPrefix, ".", func(key, value string) (string, interface{}) {
		key = strings.TrimPrefix(strings.ToLower(key), strings.ToLower(envPrefix))
		if key == "config" {
			return "", nil
		}
		if key == "competitors" || key == "events" {
			return key, splitList(value)
		}
		return key, value
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the invariants the runner relies on.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.DataDir) == "":
		return fmt.Errorf("%w: data_dir must not be empty", ErrInvalidConfig)
	case len(c.Events) == 0:
		return fmt.Errorf("%w: events must not be empty", ErrInvalidConfig)
	case c.ReadyTimeoutMS <= 0:
		return fmt.Errorf("%w: ready_timeout_ms must be positive", ErrInvalidConfig)
	case c.SpawnSettleMS < 0:
		return fmt.Errorf("%w: spawn_settle_ms must not be negative", ErrInvalidConfig)
	case c.RaceWaypointCount <= 0:
		return fmt.Errorf("%w: race_waypoint_count must be positive", ErrInvalidConfig)
	case c.RaceWaypointTolerance <= 0:
		return fmt.Errorf("%w: race_waypoint_tolerance must be positive", ErrInvalidConfig)
	case c.DerbyMaxDuration <= 0:
		return fmt.Errorf("%w: derby_max_duration must be positive", ErrInvalidConfig)
	}
	return nil
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, listSplitter) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
