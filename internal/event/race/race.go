// Package race implements the waypoint race: competitors run one at a time
// from a fixed start and must touch every waypoint, in any order. The score
// is the total time.
//
// Competitors receive the Specification over matchcomms:
//
//	{"event_type": "WaypointRace", "waypoints": [{"x": 514, "y": 1266, "z": 486}],
//	 "waypoint_tolerance": 100, "start": {"location": {...}, ...}}
//
// A waypoint counts once the car's location is within waypoint_tolerance.
package race

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"slices"
	"time"

	"github.com/okian/trackfield/internal/adapters/repository"
	"github.com/okian/trackfield/internal/competitor"
	"github.com/okian/trackfield/internal/countdown"
	"github.com/okian/trackfield/internal/domain/game"
	"github.com/okian/trackfield/internal/domain/geom"
	"github.com/okian/trackfield/internal/domain/scoring"
	"github.com/okian/trackfield/internal/event"
	"github.com/okian/trackfield/pkg/logger"
)

// EventType is the persisted type name.
const EventType = "WaypointRace"

// GroupWaypoints is the render group for waypoint and car markers.
const GroupWaypoints = "waypoints"

const (
	displayName = "Waypoint Race"

	defaultWaypointCount    = 4
	defaultTolerance        = 100
	defaultCountdownSeconds = 3
	startBoost              = 100

	waypointXYRange = 2000
	waypointMinZ    = 50
	waypointMaxZ    = 500
)

// StartPose is where every competitor begins, facing up the field.
var StartPose = geom.Stationary(geom.Vec(0, -4000, 50), geom.Rotator{Yaw: math.Pi / 2})

// Specification is persisted and broadcast to competitors.
type Specification struct {
	Waypoints         []geom.Vector3 `json:"waypoints"`
	WaypointTolerance float64        `json:"waypoint_tolerance"`
	Start             geom.Physics   `json:"start"`
	EventType         string         `json:"event_type"`
}

// Document is the race's persisted state.
type Document struct {
	RaceSpec           Specification      `json:"race_spec"`
	CompetitorCfgFiles []string           `json:"competitor_cfg_files"`
	ResultTimes        map[string]float64 `json:"result_times"`
}

// Race is the event.Event for WaypointRace.
type Race struct {
	event.Base

	store            repository.Store
	rng              *rand.Rand
	waypointCount    int
	tolerance        float64
	countdownSeconds float64

	doc         Document
	competitors []competitor.Competitor

	active      *competitor.Competitor
	begun       bool
	packetIndex int
	completed   map[int]bool
	clock       *countdown.Clock
}

var _ event.Event = (*Race)(nil)

// New creates an unloaded Race.
func New(opts ...Option) *Race {
	r := &Race{
		store:            repository.NewFileStore(),
		rng:              rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), rand.Uint64())), //nolint:gosec // waypoint placement
		waypointCount:    defaultWaypointCount,
		tolerance:        defaultTolerance,
		countdownSeconds: defaultCountdownSeconds,
		packetIndex:      -1,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Race) Type() string { return EventType }
func (r *Race) Name() string { return displayName }

// Document returns the current persisted state.
func (r *Race) Document() Document { return r.doc }

// Standings ranks recorded times, fastest first.
func (r *Race) Standings() []scoring.Entry {
	return scoring.Rank(r.doc.ResultTimes, scoring.LowerIsBetter)
}

// RandomWaypoint picks whole-unit coordinates with x and y in [-2000, 2000]
// and z in [50, 500].
func RandomWaypoint(rng *rand.Rand) geom.Vector3 {
	return geom.Vec(
		float64(rng.IntN(2*waypointXYRange+1)-waypointXYRange),
		float64(rng.IntN(2*waypointXYRange+1)-waypointXYRange),
		float64(rng.IntN(waypointMaxZ-waypointMinZ+1)+waypointMinZ),
	)
}

// Init picks the waypoints and persists a fresh document.
func (r *Race) Init(ctx context.Context, competitors []competitor.Competitor, competitionDir string) (event.Meta, error) {
	waypoints := make([]geom.Vector3, r.waypointCount)
	for i := range waypoints {
		waypoints[i] = RandomWaypoint(r.rng)
	}

	r.competitors = competitors
	r.doc = Document{
		RaceSpec: Specification{
			Waypoints:         waypoints,
			WaypointTolerance: r.tolerance,
			Start:             StartPose,
			EventType:         EventType,
		},
		CompetitorCfgFiles: competitor.ConfigPaths(competitors),
		ResultTimes:        map[string]float64{},
	}

	meta := event.Meta{EventType: EventType, EventDocPath: event.DocPath(competitionDir, EventType)}
	if err := r.store.Save(ctx, meta.EventDocPath, r.doc); err != nil {
		return event.Meta{}, fmt.Errorf("init %s: %w", EventType, err)
	}
	return meta, nil
}

// Load reads the document and rehydrates its competitors.
func (r *Race) Load(ctx context.Context, meta event.Meta, deps event.Deps) error {
	r.Attach(meta, deps)
	if err := r.store.Load(ctx, meta.EventDocPath, &r.doc); err != nil {
		return fmt.Errorf("load %s: %w", EventType, err)
	}
	if r.doc.ResultTimes == nil {
		r.doc.ResultTimes = map[string]float64{}
	}
	cs, err := competitor.LoadAll(r.doc.CompetitorCfgFiles)
	if err != nil {
		return fmt.Errorf("load %s: %w", EventType, err)
	}
	r.competitors = cs
	r.active = nil
	r.begun = false
	r.clock = nil
	return nil
}

func (r *Race) save(ctx context.Context) error {
	return r.store.Save(ctx, r.Meta.EventDocPath, r.doc)
}

// checkForHumanUsurper lets a human in the match run instead of the bot.
func (r *Race) checkForHumanUsurper(p *game.Packet) {
	for i, car := range p.Cars {
		if car.Name != "" && !car.IsBot {
			r.packetIndex = i
		}
	}
}

// Tick runs the current competitor or picks the next one.
func (r *Race) Tick(ctx context.Context, p *game.Packet) (event.Status, error) {
	if !r.Loaded() {
		return event.Status{}, event.ErrNotLoaded
	}

	r.checkForHumanUsurper(p)

	switch {
	case r.active != nil && !r.begun:
		if p.GameInfo.IsRoundActive {
			if err := r.startCompetitor(ctx); err != nil {
				return event.Status{}, err
			}
		}
	case r.active != nil:
		if err := r.race(ctx, p); err != nil {
			return event.Status{}, err
		}
	default:
		if err := r.pickNext(ctx); err != nil {
			return event.Status{}, err
		}
	}

	if len(r.lackingTimes()) > 0 {
		return event.Status{}, nil
	}
	if err := r.Host.ClearScreen(ctx, GroupWaypoints); err != nil {
		return event.Status{}, err
	}
	if err := r.ClearScreenLog(ctx); err != nil {
		return event.Status{}, err
	}
	if r.clock != nil {
		if err := r.clock.Cleanup(ctx); err != nil {
			return event.Status{}, err
		}
	}
	return event.Status{IsComplete: true}, nil
}

func (r *Race) lackingTimes() []competitor.Competitor {
	var out []competitor.Competitor
	for _, c := range r.competitors {
		if _, ok := r.doc.ResultTimes[c.ConfigPath()]; !ok {
			out = append(out, c)
		}
	}
	return out
}

func (r *Race) pickNext(ctx context.Context) error {
	lacking := r.lackingTimes()
	if len(lacking) == 0 {
		return nil
	}
	next := lacking[0]
	r.active = &next
	r.begun = false
	if r.clock != nil {
		if err := r.clock.Cleanup(ctx); err != nil {
			return err
		}
		r.clock = nil
	}
	return r.Gate.Wait(ctx, "k", "start race with "+next.Name())
}

// startCompetitor spawns the active competitor and puts it on the start line.
func (r *Race) startCompetitor(ctx context.Context) error {
	spec := r.doc.RaceSpec
	if err := r.Spawner.ClearBots(ctx); err != nil {
		return err
	}

	name := r.active.Name()
	if err := r.ScreenLog(ctx, "About to spawn %s for %s.", name, EventType); err != nil {
		return err
	}
	s, err := r.Spawner.SpawnBot(ctx, *r.active)
	if err != nil {
		return err
	}
	supported, err := r.Spawner.ListenForSupportedEvents(ctx, r.ReadyTimeout)
	if err != nil {
		return err
	}
	if !slices.Contains(supported, EventType) {
		r.Logger.Warn(ctx, "competitor did not announce support", logger.String("competitor", name),
			logger.Strings("supported_events", supported))
		if err := r.ScreenLog(ctx, "%s may not support %s.", name, EventType); err != nil {
			return err
		}
	}
	if err := r.Broadcast(ctx, EventType, spec); err != nil {
		return err
	}

	if !s.Resolved() {
		// Try again on the next active round.
		r.Logger.Warn(ctx, "spawned competitor missing from packet, respawning", logger.String("competitor", name))
		return nil
	}
	r.packetIndex = s.PacketIndex
	if err := r.Host.SetGameState(ctx, game.GameState{Cars: map[int]game.CarState{
		r.packetIndex: {Physics: spec.Start.ToState(), BoostAmount: game.F(startBoost)},
	}}); err != nil {
		return err
	}
	if err := r.HideBall(ctx); err != nil {
		return err
	}

	r.completed = make(map[int]bool, len(spec.Waypoints))
	r.clock = countdown.New(r.Host, r.Host, r.packetIndex, spec.Start.Location, spec.Start.Rotation,
		countdown.WithSeconds(r.countdownSeconds))
	r.begun = true
	return nil
}

// race checks waypoints for the running competitor and draws the course.
func (r *Race) race(ctx context.Context, p *game.Packet) error {
	spec := r.doc.RaceSpec
	if err := r.clock.Tick(ctx, p); err != nil {
		return err
	}
	raceTime := r.clock.Elapsed(p)

	car, ok := p.Car(r.packetIndex)
	if !ok {
		return nil
	}
	pos := geom.FromGame(car.Physics.Location)

	radius := spec.WaypointTolerance / 2
	cmds := make([]game.DrawCommand, 0, 3*(len(spec.Waypoints)+1))
	for idx, w := range spec.Waypoints {
		if !r.completed[idx] && r.clock.Released() && w.Dist(pos) < spec.WaypointTolerance {
			r.completed[idx] = true
			if err := r.ScreenLog(ctx, "Got waypoint %d / %d! Time so far: %.3f",
				len(r.completed), len(spec.Waypoints), raceTime); err != nil {
				return err
			}
		}
		color := game.Yellow
		if r.completed[idx] {
			color = game.Lime
		}
		cmds = append(cmds, event.Sphere(w, radius, color)...)
	}
	cmds = append(cmds, event.Sphere(pos, radius, game.Cyan)...)
	if err := r.Host.Render(ctx, GroupWaypoints, cmds); err != nil {
		return err
	}

	if len(r.completed) < len(spec.Waypoints) {
		return nil
	}
	r.doc.ResultTimes[r.active.ConfigPath()] = raceTime
	if err := r.ScreenLog(ctx, "%s has finished with a time of %.3f", r.active.Name(), raceTime); err != nil {
		return err
	}
	r.Logger.Info(ctx, "race finished", logger.String("competitor", r.active.Name()), logger.Float64("time", raceTime))
	r.active = nil
	return r.save(ctx)
}
