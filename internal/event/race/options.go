package race

import (
	"math/rand/v2"

	"github.com/okian/trackfield/internal/adapters/repository"
)

// Option configures a Race.
type Option func(*Race)

// WithStore sets where documents are persisted.
func WithStore(s repository.Store) Option {
	return func(r *Race) {
		if s != nil {
			r.store = s
		}
	}
}

// WithWaypointCount sets how many waypoints new documents get.
func WithWaypointCount(n int) Option {
	return func(r *Race) {
		if n > 0 {
			r.waypointCount = n
		}
	}
}

// WithTolerance sets the waypoint radius, in unreal units, written into new
// documents.
func WithTolerance(radius float64) Option {
	return func(r *Race) {
		if radius > 0 {
			r.tolerance = radius
		}
	}
}

// WithCountdownSeconds sets how long the car is held at the start.
func WithCountdownSeconds(seconds float64) Option {
	return func(r *Race) {
		if seconds >= 0 {
			r.countdownSeconds = seconds
		}
	}
}

// WithRand sets the source of waypoints.
func WithRand(rng *rand.Rand) Option {
	return func(r *Race) {
		if rng != nil {
			r.rng = rng
		}
	}
}
