// Package tfbot is the competitor side of the track and field handshake.
//
// A bot process dials matchcomms, announces which events it can play and then
// waits for the runner to broadcast the event specification:
//
//	c, err := tfbot.Dial(ctx, matchcommsURL)
//	...
//	_ = c.AnnounceReady(ctx, "WaypointRace")
//	spec, err := c.WaitSpec(ctx, 30*time.Second)
//	var race struct{ Waypoints []struct{ X, Y, Z float64 } }
//	_ = spec.Decode(&race)
package tfbot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/okian/trackfield/internal/adapters/matchcomms"
	"github.com/okian/trackfield/internal/adapters/mq/queue"
	"github.com/okian/trackfield/internal/domain/model"
	"github.com/okian/trackfield/pkg/logger"
)

// ErrNoSpec is returned when no event specification arrives in time.
var ErrNoSpec = errors.New("no event specification received")

// Spec is an event specification broadcast by the runner.
type Spec struct {
	EventType string
	Raw       json.RawMessage
}

// Decode unmarshals the full specification into v.
func (s Spec) Decode(v any) error {
	return json.Unmarshal(s.Raw, v)
}

// Conn is the subset of the matchcomms client a bot needs.
type Conn interface {
	Broadcast(ctx context.Context, v any) error
	Poll(ctx context.Context, timeout time.Duration) (model.Message, error)
	Close() error
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// Client announces readiness and receives specifications.
type Client struct {
	conn Conn
	log  logger.Logger
}

// Dial connects to the matchcomms root url.
func Dial(ctx context.Context, root string, opts ...Option) (*Client, error) {
	c := newClient(nil, opts...)
	conn, err := matchcomms.Dial(ctx, root, matchcomms.WithLogger(c.log))
	if err != nil {
		return nil, err
	}
	c.conn = conn
	return c, nil
}

// New wraps an existing connection.
func New(conn Conn, opts ...Option) *Client {
	return newClient(conn, opts...)
}

func newClient(conn Conn, opts ...Option) *Client {
	c := &Client{conn: conn, log: logger.Nop()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// AnnounceReady tells the runner this bot can play events.
func (c *Client) AnnounceReady(ctx context.Context, events ...string) error {
	msg := model.ReadyMessage{ReadyForTrackAndField: true, SupportedEvents: events}
	if msg.SupportedEvents == nil {
		msg.SupportedEvents = []string{}
	}
	if err := c.conn.Broadcast(ctx, msg); err != nil {
		return fmt.Errorf("announce ready: %w", err)
	}
	c.log.Info(ctx, "announced ready", logger.Strings("events", events))
	return nil
}

// WaitSpec returns the next broadcast carrying an event_type. Other traffic,
// such as ready messages from other bots, is skipped.
func (c *Client) WaitSpec(ctx context.Context, timeout time.Duration) (Spec, error) {
	deadline := time.Now().Add(timeout)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return Spec{}, ErrNoSpec
		}
		msg, err := c.conn.Poll(ctx, remaining)
		if errors.Is(err, queue.ErrTimeout) {
			return Spec{}, ErrNoSpec
		}
		if err != nil {
			return Spec{}, fmt.Errorf("wait spec: %w", err)
		}
		if et := msg.EventType(); et != "" {
			c.log.Info(ctx, "received event specification", logger.String("event_type", et))
			return Spec{EventType: et, Raw: msg.Raw}, nil
		}
	}
}

// Close closes the connection.
func (c *Client) Close() error {
	return c.conn.Close()
}
