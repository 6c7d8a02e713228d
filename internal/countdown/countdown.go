// Package countdown freezes a car at its start pose while a countdown is
// shown, releases it, and then keeps the event clock.
package countdown

import (
	"context"
	"fmt"
	"math"
	"strconv"

	"github.com/okian/trackfield/internal/domain/game"
	"github.com/okian/trackfield/internal/domain/geom"
	"github.com/okian/trackfield/internal/host"
)

// Render groups drawn by a Clock.
const (
	GroupCountdown   = "countdown"
	GroupChronometer = "chronometer"
)

const (
	defaultSeconds = 3
	frozenBoost    = 100
)

// Option configures a Clock.
type Option func(*Clock)

// WithSeconds sets the countdown length. The display shows the seconds left
// rounded up, so 2.5 counts 3, 2, 1.
func WithSeconds(s float64) Option {
	return func(c *Clock) {
		if s >= 0 {
			c.seconds = s
		}
	}
}

// Clock is driven by Tick once per game tick; it never sleeps.
type Clock struct {
	game     host.GameInterface
	renderer host.Renderer

	packetIndex int
	location    geom.Vector3
	rotation    geom.Rotator
	seconds     float64

	started        bool
	countdownStart float64
	eventStart     float64
	released       bool
	doneAnimating  bool
	lastText       string
}

// New creates a Clock for the car at packetIndex.
func New(g host.GameInterface, r host.Renderer, packetIndex int, loc geom.Vector3, rot geom.Rotator, opts ...Option) *Clock {
	c := &Clock{
		game:        g,
		renderer:    r,
		packetIndex: packetIndex,
		location:    loc,
		rotation:    rot,
		seconds:     defaultSeconds,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Released reports whether the countdown has finished.
func (c *Clock) Released() bool { return c.released }

// Elapsed is the time since the car was released; negative during the
// countdown and zero before the first tick.
func (c *Clock) Elapsed(p *game.Packet) float64 {
	if !c.started {
		return 0
	}
	return p.GameInfo.SecondsElapsed - c.eventStart
}

// Tick advances the clock by one packet.
func (c *Clock) Tick(ctx context.Context, p *game.Packet) error {
	now := p.GameInfo.SecondsElapsed
	if !c.started {
		c.started = true
		c.countdownStart = now
		c.eventStart = now + c.seconds
	}

	countdownElapsed := now - c.countdownStart
	switch {
	case countdownElapsed < c.seconds:
		remaining := int(math.Ceil(c.seconds - countdownElapsed))
		if err := c.renderIfNew(ctx, strconv.Itoa(remaining)); err != nil {
			return err
		}
		if err := c.freeze(ctx); err != nil {
			return err
		}
	case countdownElapsed < c.seconds+1:
		c.released = true
		if err := c.renderIfNew(ctx, "GO"); err != nil {
			return err
		}
	case !c.doneAnimating:
		c.released = true
		c.doneAnimating = true
		if err := c.renderer.ClearScreen(ctx, GroupCountdown); err != nil {
			return err
		}
	}

	if elapsed := countdownElapsed - c.seconds; elapsed > 0 {
		cmd := game.String2D(300, 350, 3, fmt.Sprintf("%.3f", elapsed), game.Lime)
		if err := c.renderer.Render(ctx, GroupChronometer, []game.DrawCommand{cmd}); err != nil {
			return err
		}
	}
	return nil
}

func (c *Clock) freeze(ctx context.Context) error {
	if c.packetIndex < 0 {
		return nil
	}
	pose := geom.Stationary(c.location, c.rotation).ToState()
	return c.game.SetGameState(ctx, game.GameState{Cars: map[int]game.CarState{
		c.packetIndex: {Physics: pose, BoostAmount: game.F(frozenBoost)},
	}})
}

func (c *Clock) renderIfNew(ctx context.Context, text string) error {
	if text == c.lastText {
		return nil
	}
	c.lastText = text
	cmd := game.String2D(300, 300, 3, text, game.Yellow)
	return c.renderer.Render(ctx, GroupCountdown, []game.DrawCommand{cmd})
}

// Cleanup removes everything the clock drew.
func (c *Clock) Cleanup(ctx context.Context) error {
	if err := c.renderer.ClearScreen(ctx, GroupChronometer); err != nil {
		return err
	}
	return c.renderer.ClearScreen(ctx, GroupCountdown)
}
