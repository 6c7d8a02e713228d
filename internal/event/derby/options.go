package derby

import (
	"math/rand/v2"

	"github.com/okian/trackfield/internal/adapters/repository"
)

// Option configures a Derby.
type Option func(*Derby)

// WithStore sets where documents are persisted.
func WithStore(s repository.Store) Option {
	return func(d *Derby) {
		if s != nil {
			d.store = s
		}
	}
}

// WithMaxDuration sets the time limit written into new documents.
func WithMaxDuration(seconds float64) Option {
	return func(d *Derby) {
		if seconds > 0 {
			d.maxDuration = seconds
		}
	}
}

// WithPermaDeath sets whether demolished bots stay out, for new documents.
func WithPermaDeath(on bool) Option {
	return func(d *Derby) { d.permaDeath = on }
}

// WithCountdownSeconds sets how long bots are held at their starts.
func WithCountdownSeconds(seconds float64) Option {
	return func(d *Derby) {
		if seconds >= 0 {
			d.countdownSeconds = seconds
		}
	}
}

// WithRand sets the source used to shuffle start positions.
func WithRand(r *rand.Rand) Option {
	return func(d *Derby) {
		if r != nil {
			d.rng = r
		}
	}
}
