// Package config defines runner configuration structures and loading hooks.
//
// Conventions:
// - Provide New(ctx) initializer to build a Config with defaults.
// - Load layers defaults, an optional YAML file and TF_ environment variables.
// - Validation failures wrap ErrInvalidConfig.
package config

import (
	"context"
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat is "text" or "json".
	LogFormat string `koanf:"log_format"`

	// DataDir holds current_competition.json and one directory per competition.
	DataDir string `koanf:"data_dir"`

	// BridgeURL is the websocket endpoint exposing the host game interface.
	BridgeURL string `koanf:"bridge_url"`

	// MatchcommsURL is the matchcomms root url; the client dials <url>/broadcast.
	MatchcommsURL string `koanf:"matchcomms_url"`

	// StatusAddr serves /healthz and /stats; empty disables the server.
	StatusAddr string `koanf:"status_addr"`

	// Competitors lists bot .cfg paths. TeamSettingsFile is used when empty.
	Competitors      []string `koanf:"competitors"`
	TeamSettingsFile string   `koanf:"team_settings_file"`

	// Events are initialized in this order for new competitions.
	Events []string `koanf:"events"`

	ReadyTimeoutMS int  `koanf:"ready_timeout_ms"`
	SpawnSettleMS  int  `koanf:"spawn_settle_ms"`
	AutoProceed    bool `koanf:"auto_proceed"`

	DerbyMaxDuration      float64 `koanf:"derby_max_duration"`
	DerbyPermaDeath       bool    `koanf:"derby_perma_death"`
	DerbyCountdownSeconds float64 `koanf:"derby_countdown_seconds"`
	RaceWaypointCount     int     `koanf:"race_waypoint_count"`
	RaceWaypointTolerance float64 `koanf:"race_waypoint_tolerance"`
	RaceCountdownSeconds  float64 `koanf:"race_countdown_seconds"`
	ScreenLogLines        int     `koanf:"screen_log_lines"`
	MessageQueueSize      int     `koanf:"message_queue_size"`
}

// New creates a Config populated with defaults.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:              "info",
		LogFormat:             "text",
		DataDir:               "data",
		BridgeURL:             "ws://127.0.0.1:23233/bridge",
		MatchcommsURL:         "ws://127.0.0.1:23234",
		StatusAddr:            ":9180",
		Events:                []string{"WaypointRace", "DemolitionDerby"},
		ReadyTimeoutMS:        7000,
		SpawnSettleMS:         1000,
		DerbyMaxDuration:      60,
		DerbyPermaDeath:       true,
		DerbyCountdownSeconds: 10,
		RaceWaypointCount:     4,
		RaceWaypointTolerance: 100,
		RaceCountdownSeconds:  3,
		ScreenLogLines:        4,
		MessageQueueSize:      256,
	}
}

// ReadyTimeout returns ReadyTimeoutMS as a duration.
func (c *Config) ReadyTimeout() time.Duration {
	return time.Duration(c.ReadyTimeoutMS) * time.Millisecond
}

// SpawnSettle returns SpawnSettleMS as a duration.
func (c *Config) SpawnSettle() time.Duration {
	return time.Duration(c.SpawnSettleMS) * time.Millisecond
}
