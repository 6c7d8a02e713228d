package derby

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/trackfield/internal/adapters/repository"
	"github.com/okian/trackfield/internal/competitor"
	"github.com/okian/trackfield/internal/domain/game"
	"github.com/okian/trackfield/internal/event"
	"github.com/okian/trackfield/internal/host/hosttest"
	"github.com/okian/trackfield/internal/spawn"
	"github.com/okian/trackfield/internal/ui"
)

func writeBots(t *testing.T, dir string, names ...string) []competitor.Competitor {
	t.Helper()
	out := make([]competitor.Competitor, 0, len(names))
	for _, n := range names {
		p := filepath.Join(dir, n+".cfg")
		if err := os.WriteFile(p, []byte(fmt.Sprintf("[Locations]\nname = %s\n", n)), 0o644); err != nil {
			t.Fatal(err)
		}
		c, err := competitor.Load(p)
		if err != nil {
			t.Fatal(err)
		}
		out = append(out, c)
	}
	return out
}

type harness struct {
	fake   *hosttest.Fake
	comms  *hosttest.Comms
	screen *ui.ScreenLog
	deps   event.Deps
}

func newHarness() *harness {
	fake := hosttest.New()
	comms := hosttest.NewComms()
	fake.OnStart = func(cfg game.MatchConfig) {
		for range cfg.PlayerConfigs {
			comms.Ready(EventType)
		}
	}
	screen := ui.NewScreenLog(fake)
	return &harness{
		fake:   fake,
		comms:  comms,
		screen: screen,
		deps: event.Deps{
			Host:         fake,
			Spawner:      spawn.NewHelper(fake, comms, spawn.WithSettle(0)),
			Comms:        comms,
			Screen:       screen,
			ReadyTimeout: 20 * time.Millisecond,
		},
	}
}

// missingSpawner reports the bots at the given positions of a launch as
// absent from the packet.
type missingSpawner struct {
	*spawn.Helper
	missing map[int]bool
}

func (s *missingSpawner) SpawnBots(ctx context.Context, cs []competitor.Competitor) ([]spawn.CompletedSpawn, error) {
	out, err := s.Helper.SpawnBots(ctx, cs)
	for i := range out {
		if s.missing[i] {
			out[i].PacketIndex = -1
		}
	}
	return out, err
}

func newDerby(opts ...Option) *Derby {
	base := []Option{WithRand(rand.New(rand.NewPCG(3, 4))), WithCountdownSeconds(3)}
	return New(append(base, opts...)...)
}

func TestStartPositions(t *testing.T) {
	Convey("Start positions sit on the circle and face the centre", t, func() {
		starts := StartPositions(4)
		So(len(starts), ShouldEqual, 4)
		for _, s := range starts {
			loc := s.Location
			So(math.Hypot(loc.X, loc.Y), ShouldAlmostEqual, spawnRadius, 1e-6)
			So(loc.Z, ShouldEqual, spawnHeight)
			facing := math.Atan2(loc.Y, loc.X) + math.Pi
			So(math.Abs(math.Remainder(s.Rotation.Yaw-facing, 2*math.Pi)), ShouldBeLessThan, 1e-9)
			So(s.Velocity.Length(), ShouldEqual, 0)
		}
	})
}

func TestInit(t *testing.T) {
	Convey("Given three competitors", t, func() {
		ctx := context.Background()
		dir := t.TempDir()
		cs := writeBots(t, dir, "Alpha", "Bravo", "Charlie")

		meta, err := newDerby(WithMaxDuration(90), WithPermaDeath(false)).Init(ctx, cs, dir)
		So(err, ShouldBeNil)

		Convey("The document is written next to the competition", func() {
			So(meta.EventType, ShouldEqual, EventType)
			So(meta.EventDocPath, ShouldEqual, filepath.Join(dir, "DemolitionDerby.json"))

			var doc Document
			So(repository.NewFileStore().Load(ctx, meta.EventDocPath, &doc), ShouldBeNil)
			So(doc.DerbySpec.EventType, ShouldEqual, EventType)
			So(doc.DerbySpec.MaxDuration, ShouldEqual, 90)
			So(doc.DerbySpec.PermaDeath, ShouldBeFalse)
			So(len(doc.DerbySpec.Starts), ShouldEqual, 3)
			So(doc.CompetitorCfgFiles, ShouldResemble, competitor.ConfigPaths(cs))
			So(doc.ResultDemolitions, ShouldBeEmpty)
		})

		Convey("Loading a missing document fails", func() {
			h := newHarness()
			err := newDerby().Load(ctx, event.Meta{EventType: EventType, EventDocPath: filepath.Join(dir, "nope.json")}, h.deps)
			So(err, ShouldNotBeNil)
		})
	})
}

func TestDerbyRun(t *testing.T) {
	Convey("Given a loaded derby with three competitors", t, func() {
		ctx := context.Background()
		dir := t.TempDir()
		cs := writeBots(t, dir, "Alpha", "Bravo", "Charlie")
		meta, err := newDerby().Init(ctx, cs, dir)
		So(err, ShouldBeNil)

		h := newHarness()
		d := newDerby()
		So(d.Load(ctx, meta, h.deps), ShouldBeNil)

		Convey("Ticking before load is an error", func() {
			_, err := newDerby().Tick(ctx, h.fake.Current())
			So(err, ShouldEqual, event.ErrNotLoaded)
		})

		Convey("The first tick spawns everyone and announces the spec", func() {
			status, err := d.Tick(ctx, h.fake.Current())
			So(err, ShouldBeNil)
			So(status.IsComplete, ShouldBeFalse)

			So(len(h.fake.Matches), ShouldEqual, 2)
			So(h.fake.Matches[0].PlayerConfigs, ShouldBeEmpty)
			So(len(h.fake.Matches[1].PlayerConfigs), ShouldEqual, 3)
			So(h.comms.Len(ctx), ShouldEqual, 0)

			sent := h.comms.Sent()
			So(len(sent), ShouldEqual, 1)
			So(sent[0].EventType(), ShouldEqual, EventType)
			var spec Specification
			So(sent[0].Decode(&spec), ShouldBeNil)
			So(spec.Starts, ShouldResemble, d.Document().DerbySpec.Starts)

			placed := false
			for _, s := range h.fake.States {
				if len(s.Cars) == 3 {
					placed = true
					So(*s.Cars[0].BoostAmount, ShouldEqual, 0)
					So(*s.Cars[0].Physics.Location.X, ShouldEqual, spec.Starts[0].Location.X)
				}
			}
			So(placed, ShouldBeTrue)
			So(h.screen.Lines(), ShouldContain, "Starting derby!")

			Convey("Perma-death parks demolished bots until one is left", func() {
				_, err := d.Tick(ctx, h.fake.Current())
				So(err, ShouldBeNil)

				h.fake.Update(func(p *game.Packet) {
					p.GameInfo.SecondsElapsed = 5
					p.Cars[1].IsDemolished = true
				})
				status, err := d.Tick(ctx, h.fake.Current())
				So(err, ShouldBeNil)
				So(status.IsComplete, ShouldBeFalse)
				state, _ := h.fake.LastState()
				So(*state.Cars[1].Physics.Location.X, ShouldEqual, 100)
				So(*state.Cars[1].Physics.Location.Z, ShouldEqual, parkHeight)
				So(h.screen.Lines(), ShouldContain, "Bravo is permanently dead")

				h.fake.Update(func(p *game.Packet) {
					p.GameInfo.SecondsElapsed = 6
					p.Cars[1].IsDemolished = false
					p.Cars[2].IsDemolished = true
					p.Cars[0].ScoreInfo.Demolitions = 2
				})
				status, err = d.Tick(ctx, h.fake.Current())
				So(err, ShouldBeNil)
				So(status.IsComplete, ShouldBeTrue)

				doc := d.Document()
				So(doc.ResultDemolitions, ShouldResemble, map[string]int{
					cs[0].ConfigPath(): 2,
					cs[1].ConfigPath(): 0,
					cs[2].ConfigPath(): 0,
				})
				So(d.Standings()[0].ConfigPath, ShouldEqual, cs[0].ConfigPath())
				So(h.screen.Lines(), ShouldBeEmpty)

				var saved Document
				So(repository.NewFileStore().Load(ctx, meta.EventDocPath, &saved), ShouldBeNil)
				So(saved.ResultDemolitions, ShouldResemble, doc.ResultDemolitions)

				Convey("A resumed derby with every result is already complete", func() {
					again := newDerby()
					h2 := newHarness()
					So(again.Load(ctx, meta, h2.deps), ShouldBeNil)
					status, err := again.Tick(ctx, h2.fake.Current())
					So(err, ShouldBeNil)
					So(status.IsComplete, ShouldBeTrue)
					So(h2.fake.Matches, ShouldBeEmpty)
				})
			})

			Convey("The derby ends when the time runs out", func() {
				_, err := d.Tick(ctx, h.fake.Current())
				So(err, ShouldBeNil)

				h.fake.Update(func(p *game.Packet) { p.GameInfo.SecondsElapsed = 30 })
				status, err := d.Tick(ctx, h.fake.Current())
				So(err, ShouldBeNil)
				So(status.IsComplete, ShouldBeFalse)

				h.fake.Update(func(p *game.Packet) { p.GameInfo.SecondsElapsed = 3 + defaultMaxDuration + 0.5 })
				status, err = d.Tick(ctx, h.fake.Current())
				So(err, ShouldBeNil)
				So(status.IsComplete, ShouldBeTrue)
				So(len(d.Document().ResultDemolitions), ShouldEqual, 3)
			})
		})

		Convey("A competitor missing from the match is counted as dead", func() {
			h := newHarness()
			h.deps.Spawner = &missingSpawner{Helper: h.deps.Spawner.(*spawn.Helper), missing: map[int]bool{0: true}}
			d := newDerby()
			So(d.Load(ctx, meta, h.deps), ShouldBeNil)

			status, err := d.Tick(ctx, h.fake.Current())
			So(err, ShouldBeNil)
			So(status.IsComplete, ShouldBeFalse)
			var placement game.GameState
			for _, s := range h.fake.States {
				if len(s.Cars) > 0 {
					placement = s
					break
				}
			}
			So(len(placement.Cars), ShouldEqual, 2)
			So(placement.Cars, ShouldNotContainKey, 0)

			status, err = d.Tick(ctx, h.fake.Current())
			So(err, ShouldBeNil)
			So(status.IsComplete, ShouldBeFalse)

			h.fake.Update(func(p *game.Packet) {
				p.GameInfo.SecondsElapsed = 5
				p.Cars[0].ScoreInfo.Demolitions = 4
				p.Cars[1].ScoreInfo.Demolitions = 1
				p.Cars[2].IsDemolished = true
			})
			status, err = d.Tick(ctx, h.fake.Current())
			So(err, ShouldBeNil)
			So(status.IsComplete, ShouldBeTrue)
			So(d.Document().ResultDemolitions, ShouldResemble, map[string]int{
				cs[0].ConfigPath(): 0,
				cs[1].ConfigPath(): 1,
				cs[2].ConfigPath(): 0,
			})
		})
	})
}

func TestDerbyWithoutPermaDeath(t *testing.T) {
	Convey("Given a derby where demolished bots respawn", t, func() {
		ctx := context.Background()
		dir := t.TempDir()
		cs := writeBots(t, dir, "Alpha", "Bravo", "Charlie")
		meta, err := newDerby(WithPermaDeath(false)).Init(ctx, cs, dir)
		So(err, ShouldBeNil)

		h := newHarness()
		d := newDerby()
		So(d.Load(ctx, meta, h.deps), ShouldBeNil)
		_, err = d.Tick(ctx, h.fake.Current())
		So(err, ShouldBeNil)
		_, err = d.Tick(ctx, h.fake.Current())
		So(err, ShouldBeNil)

		Convey("A demolition neither parks the bot nor ends the derby", func() {
			states := len(h.fake.States)
			h.fake.Update(func(p *game.Packet) {
				p.GameInfo.SecondsElapsed = 5
				p.Cars[1].IsDemolished = true
				p.Cars[2].IsDemolished = true
			})
			status, err := d.Tick(ctx, h.fake.Current())
			So(err, ShouldBeNil)
			So(status.IsComplete, ShouldBeFalse)
			So(len(h.fake.States), ShouldEqual, states)
			So(h.screen.Lines(), ShouldNotContain, "Bravo is permanently dead")

			Convey("and only the time limit finishes it", func() {
				h.fake.Update(func(p *game.Packet) { p.GameInfo.SecondsElapsed = 3 + defaultMaxDuration + 0.5 })
				status, err := d.Tick(ctx, h.fake.Current())
				So(err, ShouldBeNil)
				So(status.IsComplete, ShouldBeTrue)
				So(len(d.Document().ResultDemolitions), ShouldEqual, 3)
			})
		})
	})
}
