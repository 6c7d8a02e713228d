package race

import (
	"context"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/trackfield/internal/adapters/repository"
	"github.com/okian/trackfield/internal/competitor"
	"github.com/okian/trackfield/internal/domain/game"
	"github.com/okian/trackfield/internal/domain/geom"
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

type recordingGate struct{ actions []string }

func (g *recordingGate) Wait(_ context.Context, key, action string) error {
	g.actions = append(g.actions, key+":"+action)
	return nil
}

type harness struct {
	fake      *hosttest.Fake
	comms     *hosttest.Comms
	screen    *ui.ScreenLog
	gate      *recordingGate
	supported []string
	deps      event.Deps
}

func newHarness() *harness {
	h := &harness{
		fake:      hosttest.New(),
		comms:     hosttest.NewComms(),
		gate:      &recordingGate{},
		supported: []string{EventType},
	}
	h.fake.OnStart = func(cfg game.MatchConfig) {
		for range cfg.PlayerConfigs {
			h.comms.Ready(h.supported...)
		}
	}
	h.screen = ui.NewScreenLog(h.fake, ui.WithLines(10))
	h.deps = event.Deps{
		Host:         h.fake,
		Spawner:      spawn.NewHelper(h.fake, h.comms, spawn.WithSettle(0)),
		Comms:        h.comms,
		Gate:         h.gate,
		Screen:       h.screen,
		ReadyTimeout: 20 * time.Millisecond,
	}
	return h
}

// flakySpawner reports the first misses spawns as absent from the packet.
type flakySpawner struct {
	*spawn.Helper
	misses int
}

func (s *flakySpawner) SpawnBot(ctx context.Context, c competitor.Competitor) (spawn.CompletedSpawn, error) {
	out, err := s.Helper.SpawnBot(ctx, c)
	if err == nil && s.misses > 0 {
		s.misses--
		out.PacketIndex = -1
	}
	return out, err
}

func (h *harness) moveTo(idx int, loc geom.Vector3, t float64) *game.Packet {
	h.fake.Update(func(p *game.Packet) {
		p.GameInfo.SecondsElapsed = t
		p.Cars[idx].Physics.Location = game.Vector3{X: loc.X, Y: loc.Y, Z: loc.Z}
	})
	return h.fake.Current()
}

func newRace(opts ...Option) *Race {
	base := []Option{WithRand(rand.New(rand.NewPCG(5, 6))), WithCountdownSeconds(1)}
	return New(append(base, opts...)...)
}

// runToStart ticks until the active competitor has been spawned and placed.
func runToStart(ctx context.Context, r *Race, h *harness) {
	_, err := r.Tick(ctx, h.fake.Current()) // pick + gate
	So(err, ShouldBeNil)
	_, err = r.Tick(ctx, h.fake.Current()) // spawn
	So(err, ShouldBeNil)
	So(r.begun, ShouldBeTrue)
}

func TestRandomWaypoint(t *testing.T) {
	Convey("Random waypoints stay inside the arena box", t, func() {
		rng := rand.New(rand.NewPCG(1, 1))
		for i := 0; i < 500; i++ {
			w := RandomWaypoint(rng)
			So(w.X, ShouldBeBetweenOrEqual, -2000.0, 2000.0)
			So(w.Y, ShouldBeBetweenOrEqual, -2000.0, 2000.0)
			So(w.Z, ShouldBeBetweenOrEqual, 50.0, 500.0)
		}
	})
}

func TestInit(t *testing.T) {
	Convey("Init persists the course", t, func() {
		ctx := context.Background()
		dir := t.TempDir()
		cs := writeBots(t, dir, "Alpha", "Bravo")

		meta, err := newRace(WithWaypointCount(6), WithTolerance(150)).Init(ctx, cs, dir)
		So(err, ShouldBeNil)
		So(meta.EventDocPath, ShouldEqual, filepath.Join(dir, "WaypointRace.json"))

		var doc Document
		So(repository.NewFileStore().Load(ctx, meta.EventDocPath, &doc), ShouldBeNil)
		So(len(doc.RaceSpec.Waypoints), ShouldEqual, 6)
		So(doc.RaceSpec.WaypointTolerance, ShouldEqual, 150.0)
		So(doc.RaceSpec.Start, ShouldResemble, StartPose)
		So(doc.RaceSpec.EventType, ShouldEqual, EventType)
		So(doc.CompetitorCfgFiles, ShouldResemble, competitor.ConfigPaths(cs))
		So(doc.ResultTimes, ShouldBeEmpty)
	})
}

func TestRace(t *testing.T) {
	Convey("Given a loaded race with two competitors", t, func() {
		ctx := context.Background()
		dir := t.TempDir()
		cs := writeBots(t, dir, "Alpha", "Bravo")
		meta, err := newRace().Init(ctx, cs, dir)
		So(err, ShouldBeNil)

		h := newHarness()
		r := newRace()
		So(r.Load(ctx, meta, h.deps), ShouldBeNil)
		spec := r.Document().RaceSpec

		Convey("The first tick asks the operator to start the first competitor", func() {
			status, err := r.Tick(ctx, h.fake.Current())
			So(err, ShouldBeNil)
			So(status.IsComplete, ShouldBeFalse)
			So(h.gate.actions, ShouldResemble, []string{"k:start race with Alpha"})
			So(h.fake.Matches, ShouldBeEmpty)
		})

		Convey("Nothing spawns while the round is inactive", func() {
			_, _ = r.Tick(ctx, h.fake.Current())
			h.fake.Update(func(p *game.Packet) { p.GameInfo.IsRoundActive = false })
			_, err := r.Tick(ctx, h.fake.Current())
			So(err, ShouldBeNil)
			So(h.fake.Matches, ShouldBeEmpty)
		})

		Convey("Starting a competitor spawns, announces and places it", func() {
			runToStart(ctx, r, h)

			So(len(h.fake.Matches), ShouldEqual, 2)
			So(len(h.fake.Matches[1].PlayerConfigs), ShouldEqual, 1)
			So(h.fake.Matches[1].PlayerConfigs[0].Name, ShouldEqual, "Alpha")

			sent := h.comms.Sent()
			So(len(sent), ShouldEqual, 1)
			var got Specification
			So(sent[0].Decode(&got), ShouldBeNil)
			So(got.Waypoints, ShouldResemble, spec.Waypoints)

			placed := false
			for _, s := range h.fake.States {
				if car, ok := s.Cars[0]; ok && car.BoostAmount != nil && *car.BoostAmount == startBoost {
					placed = *car.Physics.Location.Y == -4000
				}
			}
			So(placed, ShouldBeTrue)

			Convey("Waypoints only count after release", func() {
				_, err := r.Tick(ctx, h.moveTo(0, spec.Waypoints[0], 0))
				So(err, ShouldBeNil)
				So(r.completed, ShouldBeEmpty)
			})

			Convey("Visiting every waypoint records the time", func() {
				_, err := r.Tick(ctx, h.moveTo(0, StartPose.Location, 0))
				So(err, ShouldBeNil)

				for i, w := range spec.Waypoints {
					_, err := r.Tick(ctx, h.moveTo(0, w, float64(2+i)))
					So(err, ShouldBeNil)
				}
				last := float64(2 + len(spec.Waypoints) - 1)
				So(r.Document().ResultTimes[cs[0].ConfigPath()], ShouldEqual, last-1)
				So(r.active, ShouldBeNil)
				So(h.screen.Lines(), ShouldContain, fmt.Sprintf("Alpha has finished with a time of %.3f", last-1))

				var saved Document
				So(repository.NewFileStore().Load(ctx, meta.EventDocPath, &saved), ShouldBeNil)
				So(saved.ResultTimes, ShouldContainKey, cs[0].ConfigPath())

				Convey("A resumed race continues with the competitor lacking a time", func() {
					h2 := newHarness()
					again := newRace()
					So(again.Load(ctx, meta, h2.deps), ShouldBeNil)
					_, err := again.Tick(ctx, h2.fake.Current())
					So(err, ShouldBeNil)
					So(h2.gate.actions, ShouldResemble, []string{"k:start race with Bravo"})

					Convey("And completes once it has run", func() {
						runToStart(ctx, again, h2)
						_, err := again.Tick(ctx, h2.moveTo(0, StartPose.Location, 0))
						So(err, ShouldBeNil)
						var status event.Status
						for i, w := range spec.Waypoints {
							status, err = again.Tick(ctx, h2.moveTo(0, w, float64(2+i)))
							So(err, ShouldBeNil)
						}
						So(status.IsComplete, ShouldBeTrue)
						So(len(again.Document().ResultTimes), ShouldEqual, 2)
						So(h2.fake.Cleared, ShouldContain, GroupWaypoints)
						So(again.Standings()[0].ConfigPath, ShouldEqual, cs[0].ConfigPath())
					})
				})
			})

			Convey("Waypoint spheres change colour once reached", func() {
				_, _ = r.Tick(ctx, h.moveTo(0, StartPose.Location, 0))
				_, err := r.Tick(ctx, h.moveTo(0, spec.Waypoints[0], 2))
				So(err, ShouldBeNil)

				cmds, ok := h.fake.Group(GroupWaypoints)
				So(ok, ShouldBeTrue)
				So(len(cmds), ShouldEqual, 3*(len(spec.Waypoints)+1))
				So(cmds[0].Color, ShouldResemble, game.Lime)
				So(cmds[3].Color, ShouldResemble, game.Yellow)
				So(cmds[len(cmds)-1].Color, ShouldResemble, game.Cyan)
			})

			Convey("A human in the match is tracked instead of the bot", func() {
				h.fake.Update(func(p *game.Packet) {
					p.Cars = append(p.Cars, game.Car{Name: "Tester", IsBot: false})
				})
				_, _ = r.Tick(ctx, h.moveTo(0, StartPose.Location, 0))
				_, err := r.Tick(ctx, h.moveTo(1, spec.Waypoints[0], 2))
				So(err, ShouldBeNil)
				So(r.packetIndex, ShouldEqual, 1)
				So(r.completed[0], ShouldBeTrue)
			})
		})

		Convey("A competitor missing after its spawn is spawned again", func() {
			h := newHarness()
			h.deps.Spawner = &flakySpawner{Helper: h.deps.Spawner.(*spawn.Helper), misses: 1}
			r := newRace()
			So(r.Load(ctx, meta, h.deps), ShouldBeNil)

			_, err := r.Tick(ctx, h.fake.Current())
			So(err, ShouldBeNil)
			status, err := r.Tick(ctx, h.fake.Current())
			So(err, ShouldBeNil)
			So(status.IsComplete, ShouldBeFalse)
			So(r.begun, ShouldBeFalse)
			So(len(h.fake.Matches), ShouldEqual, 2)

			_, err = r.Tick(ctx, h.fake.Current())
			So(err, ShouldBeNil)
			So(r.begun, ShouldBeTrue)
			So(r.packetIndex, ShouldEqual, 0)
			So(len(h.fake.Matches), ShouldEqual, 4)
			So(len(h.comms.Sent()), ShouldEqual, 2)
			So(h.gate.actions, ShouldResemble, []string{"k:start race with Alpha"})
		})

		Convey("A competitor that does not announce support is flagged", func() {
			h.supported = []string{"DemolitionDerby"}
			runToStart(ctx, r, h)
			So(h.screen.Lines(), ShouldContain, "Alpha may not support WaypointRace.")
		})
	})
}
