package spawn

import (
	"math/rand/v2"
	"time"

	"github.com/okian/trackfield/pkg/logger"
)

// Option configures a Helper.
type Option func(*Helper)

// WithLogger sets the helper logger.
func WithLogger(l logger.Logger) Option {
	return func(h *Helper) {
		if l != nil {
			h.log = l
		}
	}
}

// WithSettle sets the pause between starting a match and reading the packet
// used to resolve spawn ids.
func WithSettle(d time.Duration) Option {
	return func(h *Helper) {
		if d >= 0 {
			h.settle = d
		}
	}
}

// WithRand sets the source of spawn ids.
func WithRand(r *rand.Rand) Option {
	return func(h *Helper) {
		if r != nil {
			h.rng = r
		}
	}
}
