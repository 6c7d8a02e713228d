// Package ui holds the operator-facing pieces: an on-screen log and gates
// that wait for the operator before an event proceeds.
package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/okian/trackfield/internal/domain/game"
	"github.com/okian/trackfield/internal/host"
	"github.com/okian/trackfield/pkg/logger"
)

// ScreenLog shows the last few lines in a render group and mirrors every
// line to the logger.
type ScreenLog struct {
	renderer host.Renderer
	log      logger.Logger

	lines []string
	max   int
	x, y  int
	scale int
	color game.Color
	group string
}

// ScreenLogOption configures a ScreenLog.
type ScreenLogOption func(*ScreenLog)

// WithLines sets how many lines stay visible.
func WithLines(n int) ScreenLogOption {
	return func(s *ScreenLog) {
		if n > 0 {
			s.max = n
		}
	}
}

// WithPosition sets the top-left corner and text scale.
func WithPosition(x, y, scale int) ScreenLogOption {
	return func(s *ScreenLog) {
		s.x, s.y, s.scale = x, y, scale
	}
}

// WithColor sets the text color.
func WithColor(c game.Color) ScreenLogOption {
	return func(s *ScreenLog) { s.color = c }
}

// WithScreenLogger sets the logger lines are mirrored to.
func WithScreenLogger(l logger.Logger) ScreenLogOption {
	return func(s *ScreenLog) {
		if l != nil {
			s.log = l
		}
	}
}

// NewScreenLog creates a ScreenLog.
func NewScreenLog(r host.Renderer, opts ...ScreenLogOption) *ScreenLog {
	s := &ScreenLog{
		renderer: r,
		log:      logger.Nop(),
		max:      4,
		x:        20,
		y:        20,
		scale:    2,
		color:    game.Yellow,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.group = fmt.Sprintf("screen_log_%d_%d", s.x, s.y)
	return s
}

// Group is the render group the log draws into.
func (s *ScreenLog) Group() string { return s.group }

// Lines returns the visible lines, oldest first.
func (s *ScreenLog) Lines() []string {
	out := make([]string, len(s.lines))
	copy(out, s.lines)
	return out
}

// Log appends a line and re-renders.
func (s *ScreenLog) Log(ctx context.Context, text string) error {
	s.log.Info(ctx, "screen log", logger.String("text", text))
	s.lines = append(s.lines, text)
	if over := len(s.lines) - s.max; over > 0 {
		s.lines = s.lines[over:]
	}
	cmd := game.String2D(s.x, s.y, s.scale, strings.Join(s.lines, "\n"), s.color)
	return s.renderer.Render(ctx, s.group, []game.DrawCommand{cmd})
}

// Logf formats and logs a line.
func (s *ScreenLog) Logf(ctx context.Context, format string, args ...any) error {
	return s.Log(ctx, fmt.Sprintf(format, args...))
}

// Clear empties the log and its render group.
func (s *ScreenLog) Clear(ctx context.Context) error {
	s.lines = nil
	return s.renderer.ClearScreen(ctx, s.group)
}
