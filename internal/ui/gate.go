package ui

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/okian/trackfield/internal/domain/game"
	"github.com/okian/trackfield/internal/host"
	"github.com/okian/trackfield/pkg/logger"
)

// GroupPrompt is the render group used for operator prompts.
const GroupPrompt = "wait_for_press"

const defaultPromptInterval = 100 * time.Millisecond

// Gate blocks until the operator confirms an action.
type Gate interface {
	Wait(ctx context.Context, key, action string) error
}

// Prompt is the text shown while waiting.
func Prompt(key, action string) string {
	return fmt.Sprintf("Press %s to %s.", key, action)
}

// StdinGate waits for a line equal to the key on its reader while showing
// the prompt in game.
type StdinGate struct {
	renderer host.Renderer
	log      logger.Logger
	interval time.Duration

	once   sync.Once
	in     io.Reader
	mu     sync.Mutex
	waiter chan string
	closed bool
}

// GateOption configures a StdinGate.
type GateOption func(*StdinGate)

// WithPromptInterval sets how often the prompt is re-rendered.
func WithPromptInterval(d time.Duration) GateOption {
	return func(g *StdinGate) {
		if d > 0 {
			g.interval = d
		}
	}
}

// WithGateLogger sets the gate logger.
func WithGateLogger(l logger.Logger) GateOption {
	return func(g *StdinGate) {
		if l != nil {
			g.log = l
		}
	}
}

// NewStdinGate reads operator input from in.
func NewStdinGate(in io.Reader, r host.Renderer, opts ...GateOption) *StdinGate {
	g := &StdinGate{
		renderer: r,
		log:      logger.Nop(),
		interval: defaultPromptInterval,
		in:       in,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// waiterBuffer bounds the lines queued for a single Wait.
const waiterBuffer = 16

// scan hands lines to the Wait in progress. Lines read while no Wait is
// registered are dropped so an early key press cannot confirm a later prompt.
func (g *StdinGate) scan() {
	sc := bufio.NewScanner(g.in)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		g.mu.Lock()
		if g.waiter == nil {
			g.mu.Unlock()
			g.log.Debug(context.Background(), "dropping input while no prompt is shown", logger.String("line", line))
			continue
		}
		select {
		case g.waiter <- line:
		default:
		}
		g.mu.Unlock()
	}
	g.mu.Lock()
	g.closed = true
	if g.waiter != nil {
		close(g.waiter)
		g.waiter = nil
	}
	g.mu.Unlock()
}

// register installs a fresh line channel for one Wait.
func (g *StdinGate) register() (chan string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return nil, ErrInputClosed
	}
	g.waiter = make(chan string, waiterBuffer)
	return g.waiter, nil
}

func (g *StdinGate) unregister(ch chan string) {
	g.mu.Lock()
	if g.waiter == ch {
		g.waiter = nil
	}
	g.mu.Unlock()
}

// Wait re-renders the prompt until a line equal to key arrives. Only input
// read after Wait starts counts.
func (g *StdinGate) Wait(ctx context.Context, key, action string) error {
	lines, err := g.register()
	if err != nil {
		return err
	}
	defer g.unregister(lines)
	g.once.Do(func() { go g.scan() })

	text := Prompt(key, action)
	g.log.Info(ctx, "waiting for operator", logger.String("prompt", text))

	ticker := time.NewTicker(g.interval)
	defer ticker.Stop()

	for {
		if err := g.renderer.Render(ctx, GroupPrompt, []game.DrawCommand{game.String2D(300, 300, 3, text, game.Cyan)}); err != nil {
			return err
		}
		select {
		case line, ok := <-lines:
			if !ok {
				return ErrInputClosed
			}
			if line == key {
				return g.renderer.ClearScreen(ctx, GroupPrompt)
			}
		case <-ticker.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// AutoGate confirms immediately; used for unattended runs.
type AutoGate struct {
	Log logger.Logger
}

// Wait logs the prompt and returns.
func (g AutoGate) Wait(ctx context.Context, key, action string) error {
	if g.Log != nil {
		g.Log.Info(ctx, "auto proceeding", logger.String("prompt", Prompt(key, action)))
	}
	return ctx.Err()
}
