package service

import (
	"github.com/okian/trackfield/internal/adapters/repository"
	"github.com/okian/trackfield/internal/config"
	"github.com/okian/trackfield/internal/event"
	"github.com/okian/trackfield/internal/event/derby"
	"github.com/okian/trackfield/internal/event/race"
)

// DefaultRegistry registers every built-in event, tuned from cfg.
func DefaultRegistry(cfg *config.Config, store repository.Store) *event.Registry {
	return event.NewRegistry().
		Register(race.EventType, func() event.Event {
			return race.New(
				race.WithStore(store),
				race.WithWaypointCount(cfg.RaceWaypointCount),
				race.WithTolerance(cfg.RaceWaypointTolerance),
				race.WithCountdownSeconds(cfg.RaceCountdownSeconds),
			)
		}).
		Register(derby.EventType, func() event.Event {
			return derby.New(
				derby.WithStore(store),
				derby.WithMaxDuration(cfg.DerbyMaxDuration),
				derby.WithPermaDeath(cfg.DerbyPermaDeath),
				derby.WithCountdownSeconds(cfg.DerbyCountdownSeconds),
			)
		})
}
