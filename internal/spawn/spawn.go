// Package spawn launches competitors into the running match and tracks the
// identities the host assigned them.
package spawn

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/okian/trackfield/internal/adapters/mq/queue"
	"github.com/okian/trackfield/internal/competitor"
	"github.com/okian/trackfield/internal/domain/game"
	"github.com/okian/trackfield/internal/domain/model"
	"github.com/okian/trackfield/internal/host"
	"github.com/okian/trackfield/pkg/logger"
	"github.com/okian/trackfield/pkg/metrics"
)

const (
	maxNameLength    = 31
	suffixBaseLength = 27 // leaves room for " (10)"
	readyAttempts    = 10
	defaultSettle    = time.Second
)

// ActiveBot is a competitor as it was launched into the match.
type ActiveBot struct {
	Name       string
	Team       int
	SpawnID    int32
	Competitor competitor.Competitor
}

// CompletedSpawn pairs a launched bot with its index in the packet.
// PacketIndex is -1 when the spawn id never showed up.
type CompletedSpawn struct {
	Bot         ActiveBot
	PacketIndex int
}

// Resolved reports whether the bot was found in the packet.
func (c CompletedSpawn) Resolved() bool { return c.PacketIndex >= 0 }

// Inbox is the inbound side of matchcomms.
type Inbox interface {
	Poll(ctx context.Context, timeout time.Duration) (model.Message, error)
	Drain(ctx context.Context) int
}

// Host is the part of the framework the helper drives.
type Host interface {
	host.GameInterface
	host.MatchRunner
}

// Helper launches bots and keeps the list of bots in the current match.
type Helper struct {
	host   Host
	inbox  Inbox
	log    logger.Logger
	settle time.Duration
	rng    *rand.Rand

	active []ActiveBot
}

// NewHelper creates a Helper.
func NewHelper(h Host, inbox Inbox, opts ...Option) *Helper {
	s := &Helper{
		host:   h,
		inbox:  inbox,
		log:    logger.Nop(),
		settle: defaultSettle,
		rng:    rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), rand.Uint64())), //nolint:gosec // ids, not secrets
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (h *Helper) makeActiveBot(c competitor.Competitor, team int) ActiveBot {
	names := make(map[string]struct{}, len(h.active))
	for _, ab := range h.active {
		names[ab.Name] = struct{}{}
	}
	return ActiveBot{
		Name:       UniqueName(c.Name(), names),
		Team:       team,
		SpawnID:    h.rng.Int32N(math.MaxInt32) + 1,
		Competitor: c,
	}
}

// UniqueName truncates name and, if taken, appends " (n)" starting at 2.
func UniqueName(name string, taken map[string]struct{}) string {
	unique := truncate(name, maxNameLength)
	for n := 2; ; n++ {
		if _, ok := taken[unique]; !ok {
			return unique
		}
		unique = fmt.Sprintf("%s (%d)", truncate(name, suffixBaseLength), n)
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// SpawnBot adds one competitor to the match on the blue team.
func (h *Helper) SpawnBot(ctx context.Context, c competitor.Competitor) (CompletedSpawn, error) {
	spawns, err := h.SpawnBots(ctx, []competitor.Competitor{c})
	if err != nil {
		return CompletedSpawn{}, err
	}
	return spawns[0], nil
}

// SpawnBots adds competitors to the match in one launch and maps each to its
// packet index.
func (h *Helper) SpawnBots(ctx context.Context, cs []competitor.Competitor) ([]CompletedSpawn, error) {
	added := make([]ActiveBot, 0, len(cs))
	for _, c := range cs {
		ab := h.makeActiveBot(c, 0)
		h.active = append(h.active, ab)
		added = append(added, ab)
	}

	// Ready messages left over from earlier bots must not be read as
	// coming from these ones.
	if n := h.inbox.Drain(ctx); n > 0 {
		h.log.Debug(ctx, "discarded stale matchcomms messages", logger.Int("count", n))
	}
	if err := h.launch(ctx); err != nil {
		return nil, err
	}
	if err := sleep(ctx, h.settle); err != nil {
		return nil, err
	}
	packet, err := h.host.Packet(ctx)
	if err != nil {
		return nil, fmt.Errorf("read packet after spawn: %w", err)
	}

	out := make([]CompletedSpawn, len(added))
	for i, ab := range added {
		out[i] = CompletedSpawn{Bot: ab, PacketIndex: IndexFromSpawnID(packet, ab.SpawnID)}
		if !out[i].Resolved() {
			metrics.RecordSpawnUnresolved()
			h.log.Warn(ctx, "spawned bot not found in packet",
				logger.String("name", ab.Name), logger.Int("spawn_id", int(ab.SpawnID)))
		}
	}
	metrics.RecordBotsSpawned(len(added))
	h.log.Info(ctx, "bots spawned", logger.Int("count", len(added)), logger.Int("in_match", len(h.active)))
	return out, nil
}

// ClearBots empties the match.
func (h *Helper) ClearBots(ctx context.Context) error {
	h.active = nil
	return h.launch(ctx)
}

func (h *Helper) launch(ctx context.Context) error {
	metrics.RecordMatchLaunch()
	if err := h.host.StartMatch(ctx, BuildMatchConfig(h.active)); err != nil {
		return fmt.Errorf("start match: %w", err)
	}
	return nil
}

// ListenForSupportedEvents waits for a competitor's ready handshake:
//
//	{"readyForTrackAndField": true, "supportedEvents": ["WaypointRace"]}
//
// Up to ten messages are read, each with the given timeout. A bot that never
// announces itself is assumed to support nothing; that is not an error.
func (h *Helper) ListenForSupportedEvents(ctx context.Context, timeout time.Duration) ([]string, error) {
	for i := 0; i < readyAttempts; i++ {
		msg, err := h.inbox.Poll(ctx, timeout)
		switch {
		case errors.Is(err, queue.ErrTimeout):
			metrics.RecordReadyTimeout()
			h.log.Warn(ctx, "bot never sent a ready message, proceeding anyway", logger.Duration("timeout", timeout))
			return nil, nil
		case err != nil:
			return nil, fmt.Errorf("wait for ready message: %w", err)
		}
		if ready, ok := msg.Ready(); ok {
			metrics.RecordReadyReceived()
			return ready.SupportedEvents, nil
		}
	}
	return nil, nil
}

// BuildMatchConfig describes a match containing exactly bots.
func BuildMatchConfig(bots []ActiveBot) game.MatchConfig {
	players := make([]game.PlayerConfig, len(bots))
	for i, ab := range bots {
		players[i] = game.PlayerConfig{
			Bot:             true,
			RLBotControlled: true,
			BotSkill:        1,
			HumanIndex:      0,
			Name:            ab.Name,
			Team:            ab.Team,
			SpawnID:         ab.SpawnID,
			ConfigPath:      ab.Competitor.ConfigPath(),
		}
	}
	return game.MatchConfig{
		PlayerConfigs:         players,
		GameMode:              game.GameModeSoccer,
		GameMap:               game.GameMapDFHStadium,
		ExistingMatchBehavior: game.BehaviorContinueSpawn,
		Mutators:              map[string]string{},
		EnableStateSetting:    true,
	}
}

// IndexFromSpawnID returns the packet index of the car with id, or -1.
func IndexFromSpawnID(p *game.Packet, id int32) int {
	if p == nil {
		return -1
	}
	for i, car := range p.Cars {
		if car.SpawnID == id {
			return i
		}
	}
	return -1
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
