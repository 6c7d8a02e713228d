// Package host declares the slice of the game framework the runner drives:
// tick packets, state setting, rendering and match launches.
package host

import (
	"context"

	"github.com/okian/trackfield/internal/domain/game"
)

// GameInterface reads packets and applies desired state.
type GameInterface interface {
	// Packet returns the most recent tick packet.
	Packet(ctx context.Context) (*game.Packet, error)
	// WaitPacket blocks until the next tick and returns its packet.
	WaitPacket(ctx context.Context) (*game.Packet, error)
	// SetGameState applies a desired state; unset fields are left alone.
	SetGameState(ctx context.Context, state game.GameState) error
}

// Renderer draws named render groups. Rendering a group replaces its
// previous contents.
type Renderer interface {
	Render(ctx context.Context, group string, cmds []game.DrawCommand) error
	ClearScreen(ctx context.Context, group string) error
}

// MatchRunner loads a match configuration, starts the match and launches
// the bot processes it lists.
type MatchRunner interface {
	StartMatch(ctx context.Context, cfg game.MatchConfig) error
}

// Host is everything the runner needs from the framework.
type Host interface {
	GameInterface
	Renderer
	MatchRunner
}
