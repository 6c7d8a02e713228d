// Package derby implements the demolition derby: every competitor spawns at
// once on a circle around the centre and tries to demolish the others.
//
// Competitors receive the Specification over matchcomms:
//
//	{"event_type": "DemolitionDerby", "perma_death": true, "max_duration": 60,
//	 "starts": [{"location": {...}, "rotation": {...}, ...}, ...]}
//
// With perma_death a demolished bot is parked above the field for the rest
// of the event. The event ends when at most one bot is alive or max_duration
// seconds have passed since release.
package derby

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/okian/trackfield/internal/adapters/repository"
	"github.com/okian/trackfield/internal/competitor"
	"github.com/okian/trackfield/internal/countdown"
	"github.com/okian/trackfield/internal/domain/game"
	"github.com/okian/trackfield/internal/domain/geom"
	"github.com/okian/trackfield/internal/domain/scoring"
	"github.com/okian/trackfield/internal/event"
	"github.com/okian/trackfield/internal/spawn"
	"github.com/okian/trackfield/pkg/logger"
)

// EventType is the persisted type name.
const EventType = "DemolitionDerby"

const (
	displayName = "Demolition Derby"

	spawnRadius = 3000
	spawnHeight = 50
	parkSpacing = 100
	parkHeight  = 3000

	defaultMaxDuration      = 60
	defaultCountdownSeconds = 10
)

// Specification is persisted and broadcast to competitors.
type Specification struct {
	PermaDeath  bool           `json:"perma_death"`
	MaxDuration float64        `json:"max_duration"`
	Starts      []geom.Physics `json:"starts"`
	EventType   string         `json:"event_type"`
}

// Document is the derby's persisted state.
type Document struct {
	DerbySpec          Specification  `json:"derby_spec"`
	CompetitorCfgFiles []string       `json:"competitor_cfg_files"`
	ResultDemolitions  map[string]int `json:"result_demolitions"`
}

type botInfo struct {
	competitor competitor.Competitor
	spawn      spawn.CompletedSpawn
	clock      *countdown.Clock
	dead       bool
}

// Derby is the event.Event for DemolitionDerby.
type Derby struct {
	event.Base

	store            repository.Store
	rng              *rand.Rand
	maxDuration      float64
	permaDeath       bool
	countdownSeconds float64

	doc         Document
	competitors []competitor.Competitor
	started     bool
	infos       []*botInfo
}

var _ event.Event = (*Derby)(nil)

// New creates an unloaded Derby.
func New(opts ...Option) *Derby {
	d := &Derby{
		store:            repository.NewFileStore(),
		rng:              rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), rand.Uint64())), //nolint:gosec // shuffling starts
		maxDuration:      defaultMaxDuration,
		permaDeath:       true,
		countdownSeconds: defaultCountdownSeconds,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Derby) Type() string { return EventType }
func (d *Derby) Name() string { return displayName }

// Document returns the current persisted state.
func (d *Derby) Document() Document { return d.doc }

// Standings ranks recorded demolitions, most first.
func (d *Derby) Standings() []scoring.Entry {
	return scoring.Rank(scoring.Counts(d.doc.ResultDemolitions), scoring.HigherIsBetter)
}

// StartPositions places n cars evenly on the spawn circle, each facing the
// centre.
func StartPositions(n int) []geom.Physics {
	out := make([]geom.Physics, n)
	for i := range out {
		angle := 2 * math.Pi * float64(i) / float64(n)
		out[i] = geom.Stationary(
			geom.Vec(math.Cos(angle)*spawnRadius, math.Sin(angle)*spawnRadius, spawnHeight),
			geom.Rotator{Yaw: angle + math.Pi},
		)
	}
	return out
}

// Init shuffles the start positions and persists a fresh document.
func (d *Derby) Init(ctx context.Context, competitors []competitor.Competitor, competitionDir string) (event.Meta, error) {
	starts := StartPositions(len(competitors))
	d.rng.Shuffle(len(starts), func(i, j int) { starts[i], starts[j] = starts[j], starts[i] })

	d.competitors = competitors
	d.doc = Document{
		DerbySpec: Specification{
			PermaDeath:  d.permaDeath,
			MaxDuration: d.maxDuration,
			Starts:      starts,
			EventType:   EventType,
		},
		CompetitorCfgFiles: competitor.ConfigPaths(competitors),
		ResultDemolitions:  map[string]int{},
	}

	meta := event.Meta{EventType: EventType, EventDocPath: event.DocPath(competitionDir, EventType)}
	if err := d.store.Save(ctx, meta.EventDocPath, d.doc); err != nil {
		return event.Meta{}, fmt.Errorf("init %s: %w", EventType, err)
	}
	return meta, nil
}

// Load reads the document and rehydrates its competitors.
func (d *Derby) Load(ctx context.Context, meta event.Meta, deps event.Deps) error {
	d.Attach(meta, deps)
	if err := d.store.Load(ctx, meta.EventDocPath, &d.doc); err != nil {
		return fmt.Errorf("load %s: %w", EventType, err)
	}
	if d.doc.ResultDemolitions == nil {
		d.doc.ResultDemolitions = map[string]int{}
	}
	if len(d.doc.DerbySpec.Starts) < len(d.doc.CompetitorCfgFiles) {
		return fmt.Errorf("load %s: %d starts for %d competitors", EventType,
			len(d.doc.DerbySpec.Starts), len(d.doc.CompetitorCfgFiles))
	}
	cs, err := competitor.LoadAll(d.doc.CompetitorCfgFiles)
	if err != nil {
		return fmt.Errorf("load %s: %w", EventType, err)
	}
	d.competitors = cs
	d.started = false
	d.infos = nil
	return nil
}

func (d *Derby) save(ctx context.Context) error {
	return d.store.Save(ctx, d.Meta.EventDocPath, d.doc)
}

// start spawns everyone, waits for their handshakes and places them.
func (d *Derby) start(ctx context.Context) error {
	spec := d.doc.DerbySpec
	if err := d.Spawner.ClearBots(ctx); err != nil {
		return err
	}

	if err := d.ScreenLog(ctx, "About to spawn bots for %s.", EventType); err != nil {
		return err
	}
	spawns, err := d.Spawner.SpawnBots(ctx, d.competitors)
	if err != nil {
		return err
	}

	// Handshakes carry no identity, so just count one per competitor.
	if err := d.ScreenLog(ctx, "Waiting for bots to get ready"); err != nil {
		return err
	}
	for i := range d.competitors {
		if err := d.HideBall(ctx); err != nil {
			return err
		}
		if _, err := d.Spawner.ListenForSupportedEvents(ctx, d.ReadyTimeout); err != nil {
			return err
		}
		if err := d.ScreenLog(ctx, "%d/%d bots ready", i+1, len(d.competitors)); err != nil {
			return err
		}
	}

	if err := d.Broadcast(ctx, EventType, spec); err != nil {
		return err
	}

	cars := make(map[int]game.CarState, len(spawns))
	d.infos = make([]*botInfo, len(spawns))
	for i, s := range spawns {
		start := spec.Starts[i]
		info := &botInfo{competitor: d.competitors[i], spawn: s}
		if s.Resolved() {
			cars[s.PacketIndex] = game.CarState{Physics: start.ToState(), BoostAmount: game.F(0)}
			info.clock = countdown.New(d.Host, d.Host, s.PacketIndex, start.Location, start.Rotation,
				countdown.WithSeconds(d.countdownSeconds))
		} else {
			d.Logger.Warn(ctx, "competitor missing from match, counted as dead",
				logger.String("competitor", info.competitor.Name()))
			info.dead = true
		}
		d.infos[i] = info
	}
	if len(cars) > 0 {
		if err := d.Host.SetGameState(ctx, game.GameState{Cars: cars}); err != nil {
			return err
		}
	}
	if err := d.HideBall(ctx); err != nil {
		return err
	}

	d.started = true
	return d.ScreenLog(ctx, "Starting derby!")
}

// Tick spawns on the first call and referees on every later one.
func (d *Derby) Tick(ctx context.Context, p *game.Packet) (event.Status, error) {
	if !d.Loaded() {
		return event.Status{}, event.ErrNotLoaded
	}
	if !d.started && d.recorded() {
		return event.Status{IsComplete: true}, nil
	}
	if !d.started {
		// Return so the next tick sees a packet with the spawned cars.
		return event.Status{}, d.start(ctx)
	}

	spec := d.doc.DerbySpec
	cars := make(map[int]game.CarState)
	var clock *countdown.Clock
	for _, info := range d.infos {
		if info.clock == nil {
			continue
		}
		if clock == nil {
			clock = info.clock
		}
		if err := info.clock.Tick(ctx, p); err != nil {
			return event.Status{}, err
		}

		idx := info.spawn.PacketIndex
		car, ok := p.Car(idx)
		if !info.dead && spec.PermaDeath && ok && car.IsDemolished {
			info.dead = true
			if err := d.ScreenLog(ctx, "%s is permanently dead", info.competitor.Name()); err != nil {
				return event.Status{}, err
			}
		}
		if info.dead {
			park := geom.Vec(float64(idx*parkSpacing), 0, parkHeight)
			cars[idx] = game.CarState{Physics: &game.PhysicsState{Location: park.ToState()}}
		}
	}

	alive := 0
	for _, info := range d.infos {
		if !info.dead {
			alive++
		}
	}
	if alive <= 1 || clock == nil || clock.Elapsed(p) > spec.MaxDuration {
		return event.Status{IsComplete: true}, d.finish(ctx, p)
	}

	if len(cars) > 0 {
		if err := d.Host.SetGameState(ctx, game.GameState{Cars: cars}); err != nil {
			return event.Status{}, err
		}
	}
	return event.Status{}, nil
}

// recorded reports whether a previous run already stored every result.
func (d *Derby) recorded() bool {
	if len(d.competitors) == 0 {
		return false
	}
	for _, c := range d.competitors {
		if _, ok := d.doc.ResultDemolitions[c.ConfigPath()]; !ok {
			return false
		}
	}
	return true
}

func (d *Derby) finish(ctx context.Context, p *game.Packet) error {
	for _, info := range d.infos {
		demos := 0
		if car, ok := p.Car(info.spawn.PacketIndex); ok {
			demos = car.ScoreInfo.Demolitions
		}
		d.doc.ResultDemolitions[info.competitor.ConfigPath()] = demos
		if info.clock != nil {
			if err := info.clock.Cleanup(ctx); err != nil {
				return err
			}
		}
	}
	if err := d.ClearScreenLog(ctx); err != nil {
		return err
	}
	d.Logger.Info(ctx, "derby finished", logger.Any("demolitions", d.doc.ResultDemolitions))
	return d.save(ctx)
}
