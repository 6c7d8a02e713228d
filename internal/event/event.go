// Package event defines the contract every scripted event implements and the
// helpers they share.
//
// An event is created once with Init, which resolves all randomness and
// persists its document. Load resumes from that document (possibly in a new
// process) and Tick advances it by one game tick until it reports completion.
package event

import (
	"context"
	"time"

	"github.com/okian/trackfield/internal/competitor"
	"github.com/okian/trackfield/internal/domain/game"
	"github.com/okian/trackfield/internal/host"
	"github.com/okian/trackfield/internal/spawn"
	"github.com/okian/trackfield/internal/ui"
	"github.com/okian/trackfield/pkg/logger"
)

// Meta points at a persisted event document.
type Meta struct {
	EventType    string `json:"event_type"`
	EventDocPath string `json:"event_doc_path"`
}

// Status is the result of a tick.
type Status struct {
	IsComplete bool
}

// Event is one scripted mini-game.
type Event interface {
	// Type is the persisted type name, e.g. "WaypointRace".
	Type() string
	// Name is shown to the operator.
	Name() string

	Init(ctx context.Context, competitors []competitor.Competitor, competitionDir string) (Meta, error)
	Load(ctx context.Context, meta Meta, deps Deps) error
	Tick(ctx context.Context, p *game.Packet) (Status, error)
}

// Spawner launches competitors into the match.
type Spawner interface {
	SpawnBot(ctx context.Context, c competitor.Competitor) (spawn.CompletedSpawn, error)
	SpawnBots(ctx context.Context, cs []competitor.Competitor) ([]spawn.CompletedSpawn, error)
	ClearBots(ctx context.Context) error
	ListenForSupportedEvents(ctx context.Context, timeout time.Duration) ([]string, error)
}

// Broadcaster publishes to every competitor over matchcomms.
type Broadcaster interface {
	Broadcast(ctx context.Context, v any) error
}

// Deps are the runtime collaborators handed to an event on Load.
type Deps struct {
	Host         host.Host
	Spawner      Spawner
	Comms        Broadcaster
	Gate         ui.Gate
	Screen       *ui.ScreenLog
	Logger       logger.Logger
	ReadyTimeout time.Duration
}
