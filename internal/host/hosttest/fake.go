// Package hosttest provides an in-memory host for exercising events and the
// runner without a game client.
package hosttest

import (
	"context"
	"sync"

	"github.com/okian/trackfield/internal/domain/game"
)

// Fake implements host.Host. StartMatch fills the current packet with one
// car per player config so spawn ids resolve, unless listed in Drop.
type Fake struct {
	mu sync.Mutex

	current *game.Packet
	queued  []*game.Packet

	States  []game.GameState
	Matches []game.MatchConfig
	Groups  map[string][]game.DrawCommand
	Cleared []string

	// Drop lists spawn ids that never show up in the packet.
	Drop map[int32]bool

	// OnStart runs after every StartMatch, outside the lock.
	OnStart func(cfg game.MatchConfig)
}

// New returns a Fake whose first packet has an active round.
func New() *Fake {
	return &Fake{
		current: &game.Packet{GameInfo: game.GameInfo{IsRoundActive: true}},
		Groups:  make(map[string][]game.DrawCommand),
		Drop:    make(map[int32]bool),
	}
}

// Push queues packets returned by successive WaitPacket calls.
func (f *Fake) Push(packets ...*game.Packet) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queued = append(f.queued, packets...)
}

// SetPacket replaces the current packet.
func (f *Fake) SetPacket(p *game.Packet) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.current = p
}

// Current returns the packet Packet would return.
func (f *Fake) Current() *game.Packet {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current
}

func (f *Fake) Packet(ctx context.Context) (*game.Packet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current, nil
}

func (f *Fake) WaitPacket(ctx context.Context) (*game.Packet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.queued) > 0 {
		f.current = f.queued[0]
		f.queued = f.queued[1:]
	}
	return f.current, nil
}

func (f *Fake) SetGameState(ctx context.Context, state game.GameState) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.States = append(f.States, state)
	return nil
}

func (f *Fake) Render(ctx context.Context, group string, cmds []game.DrawCommand) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Groups[group] = cmds
	return nil
}

func (f *Fake) ClearScreen(ctx context.Context, group string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.Groups, group)
	f.Cleared = append(f.Cleared, group)
	return nil
}

func (f *Fake) StartMatch(ctx context.Context, cfg game.MatchConfig) error {
	f.startMatch(cfg)
	if f.OnStart != nil {
		f.OnStart(cfg)
	}
	return nil
}

func (f *Fake) startMatch(cfg game.MatchConfig) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Matches = append(f.Matches, cfg)
	next := &game.Packet{GameInfo: f.current.GameInfo}
	for _, pc := range cfg.PlayerConfigs {
		if f.Drop[pc.SpawnID] {
			continue
		}
		next.Cars = append(next.Cars, game.Car{
			Name:    pc.Name,
			IsBot:   pc.Bot,
			Team:    pc.Team,
			SpawnID: pc.SpawnID,
		})
	}
	f.current = next
}

// Update mutates the current packet in place.
func (f *Fake) Update(fn func(p *game.Packet)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f.current)
}

// LastState returns the most recent state request, if any.
func (f *Fake) LastState() (game.GameState, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.States) == 0 {
		return game.GameState{}, false
	}
	return f.States[len(f.States)-1], true
}

// Group returns the commands last rendered into group.
func (f *Fake) Group(name string) ([]game.DrawCommand, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cmds, ok := f.Groups[name]
	return cmds, ok
}
