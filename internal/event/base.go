package event

import (
	"context"
	"fmt"
	"math"
	"path/filepath"

	"github.com/okian/trackfield/internal/domain/game"
	"github.com/okian/trackfield/internal/domain/geom"
	"github.com/okian/trackfield/internal/ui"
	"github.com/okian/trackfield/pkg/logger"
	"github.com/okian/trackfield/pkg/metrics"
)

const sphereSegments = 16

// HiddenBallLocation is where the ball is parked while an event runs.
var HiddenBallLocation = geom.Vec(0, 0, 3500)

// Base carries the loaded dependencies and the helpers events share.
// Events embed it and call Attach from Load.
type Base struct {
	Deps
	Meta Meta
}

// Attach stores the dependencies. A missing logger or gate is replaced by a
// no-op logger and an AutoGate.
func (b *Base) Attach(meta Meta, deps Deps) {
	if deps.Logger == nil {
		deps.Logger = logger.Nop()
	}
	if deps.Gate == nil {
		deps.Gate = ui.AutoGate{Log: deps.Logger}
	}
	b.Deps = deps
	b.Meta = meta
}

// Loaded reports whether Attach has run.
func (b *Base) Loaded() bool { return b.Host != nil }

// DocPath is where an event of eventType stores its document.
func DocPath(competitionDir, eventType string) string {
	return filepath.Join(competitionDir, eventType+".json")
}

// Broadcast sends a specification to every competitor.
func (b *Base) Broadcast(ctx context.Context, eventType string, spec any) error {
	if err := b.Comms.Broadcast(ctx, spec); err != nil {
		return fmt.Errorf("broadcast %s spec: %w", eventType, err)
	}
	metrics.RecordBroadcast(eventType)
	return nil
}

// HideBall parks the ball out of play.
func (b *Base) HideBall(ctx context.Context) error {
	pose := geom.Stationary(HiddenBallLocation, geom.Rotator{}).ToState()
	return b.Host.SetGameState(ctx, game.GameState{Ball: &game.BallState{Physics: pose}})
}

// ScreenLog writes to the on-screen log when one is attached.
func (b *Base) ScreenLog(ctx context.Context, format string, args ...any) error {
	if b.Screen == nil {
		b.Logger.Info(ctx, fmt.Sprintf(format, args...))
		return nil
	}
	return b.Screen.Logf(ctx, format, args...)
}

// ClearScreenLog empties the on-screen log when one is attached.
func (b *Base) ClearScreenLog(ctx context.Context) error {
	if b.Screen == nil {
		return nil
	}
	return b.Screen.Clear(ctx)
}

// Sphere approximates a sphere with three orthogonal circles.
func Sphere(center geom.Vector3, radius float64, c game.Color) []game.DrawCommand {
	circle := func(point func(a float64) game.Vector3) game.DrawCommand {
		pts := make([]game.Vector3, 0, sphereSegments+1)
		for i := 0; i <= sphereSegments; i++ {
			pts = append(pts, point(2*math.Pi*float64(i)/sphereSegments))
		}
		return game.Polyline3D(pts, c)
	}
	x, y, z := center.X, center.Y, center.Z
	return []game.DrawCommand{
		circle(func(a float64) game.Vector3 {
			return game.Vector3{X: x + radius*math.Cos(a), Y: y + radius*math.Sin(a), Z: z}
		}),
		circle(func(a float64) game.Vector3 {
			return game.Vector3{X: x + radius*math.Cos(a), Y: y, Z: z + radius*math.Sin(a)}
		}),
		circle(func(a float64) game.Vector3 {
			return game.Vector3{X: x, Y: y + radius*math.Cos(a), Z: z + radius*math.Sin(a)}
		}),
	}
}
