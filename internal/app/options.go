package service

import (
	"time"

	"github.com/okian/trackfield/internal/adapters/repository"
	"github.com/okian/trackfield/internal/event"
	"github.com/okian/trackfield/internal/ui"
	"github.com/okian/trackfield/pkg/logger"
)

// Option applies a configuration option to TrackAndField.
type Option func(*TrackAndField)

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(t *TrackAndField) {
		if l != nil {
			t.logger = l
		}
	}
}

// WithStore sets where the competition document is kept.
func WithStore(s repository.Store) Option {
	return func(t *TrackAndField) {
		if s != nil {
			t.store = s
		}
	}
}

// WithRegistry sets the event factories.
func WithRegistry(r *event.Registry) Option {
	return func(t *TrackAndField) {
		if r != nil {
			t.registry = r
		}
	}
}

// WithDataDir sets the directory holding current_competition.json.
func WithDataDir(dir string) Option {
	return func(t *TrackAndField) {
		if dir != "" {
			t.dataDir = dir
		}
	}
}

// WithEventTypes sets the events initialized for a new competition, in order.
func WithEventTypes(types ...string) Option {
	return func(t *TrackAndField) {
		if len(types) > 0 {
			t.eventTypes = append([]string(nil), types...)
		}
	}
}

// WithGate sets the operator gate.
func WithGate(g ui.Gate) Option {
	return func(t *TrackAndField) {
		if g != nil {
			t.gate = g
		}
	}
}

// WithScreenLog sets the on-screen log shared with events.
func WithScreenLog(s *ui.ScreenLog) Option {
	return func(t *TrackAndField) {
		if s != nil {
			t.screen = s
		}
	}
}

// WithSpawner sets the bot spawner handed to events.
func WithSpawner(s event.Spawner) Option {
	return func(t *TrackAndField) {
		if s != nil {
			t.spawner = s
		}
	}
}

// WithComms sets the matchcomms broadcaster handed to events.
func WithComms(b event.Broadcaster) Option {
	return func(t *TrackAndField) {
		if b != nil {
			t.comms = b
		}
	}
}

// WithReadyTimeout bounds each wait for a competitor's ready message.
func WithReadyTimeout(d time.Duration) Option {
	return func(t *TrackAndField) {
		if d > 0 {
			t.readyTimeout = d
		}
	}
}

// WithStabilization sets how many packets are polled, and how far apart,
// while waiting for a running match before the first event.
func WithStabilization(polls int, interval time.Duration) Option {
	return func(t *TrackAndField) {
		if polls >= 0 {
			t.stabilizePolls = polls
		}
		if interval >= 0 {
			t.stabilizeInterval = interval
		}
	}
}

// WithClearDelays sets the pauses before and after the initial bot clear.
func WithClearDelays(before, after time.Duration) Option {
	return func(t *TrackAndField) {
		if before >= 0 {
			t.clearBefore = before
		}
		if after >= 0 {
			t.clearAfter = after
		}
	}
}

// WithClock overrides time.Now, used for competition timestamps.
func WithClock(now func() time.Time) Option {
	return func(t *TrackAndField) {
		if now != nil {
			t.now = now
		}
	}
}
