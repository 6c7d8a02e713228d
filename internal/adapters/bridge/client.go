// Package bridge implements host.Host over a websocket connection to the
// framework. Calls are JSON frames matched to responses by sequence number.
package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/okian/trackfield/internal/domain/game"
	"github.com/okian/trackfield/internal/host"
	"github.com/okian/trackfield/pkg/logger"
	"github.com/okian/trackfield/pkg/metrics"
)

const defaultReadLimit = 4 << 20

var _ host.Host = (*Client)(nil)

// Client is a host.Host backed by the bridge endpoint.
type Client struct {
	conn      *websocket.Conn
	log       logger.Logger
	readLimit int64

	seq     atomic.Uint64
	mu      sync.Mutex
	pending map[uint64]chan Response
	err     error

	cancel    context.CancelFunc
	done      chan struct{}
	closeOnce sync.Once
}

// Dial connects to the bridge and starts the response loop.
func Dial(ctx context.Context, url string, opts ...Option) (*Client, error) {
	c := &Client{
		log:       logger.Nop(),
		readLimit: defaultReadLimit,
		pending:   make(map[uint64]chan Response),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}

	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrDial, url, err)
	}
	conn.SetReadLimit(c.readLimit)
	c.conn = conn

	readCtx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	go c.readLoop(readCtx)

	c.log.Info(ctx, "host bridge connected", logger.String("url", url))
	return c, nil
}

func (c *Client) readLoop(ctx context.Context) {
	defer close(c.done)
	for {
		var resp Response
		if err := wsjson.Read(ctx, c.conn, &resp); err != nil {
			c.fail(err)
			if ctx.Err() == nil {
				c.log.Warn(ctx, "host bridge read loop stopped", logger.Error(err))
			}
			return
		}

		c.mu.Lock()
		ch, ok := c.pending[resp.Seq]
		delete(c.pending, resp.Seq)
		c.mu.Unlock()

		if !ok {
			c.log.Debug(ctx, "dropping unsolicited bridge response", logger.Int("seq", int(resp.Seq)))
			continue
		}
		ch <- resp
	}
}

// fail releases every waiting call.
func (c *Client) fail(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err == nil {
		c.err = fmt.Errorf("%w: %w", ErrClosed, err)
	}
	for seq, ch := range c.pending {
		close(ch)
		delete(c.pending, seq)
	}
}

func (c *Client) call(ctx context.Context, op string, body, out any) (err error) {
	start := time.Now()
	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		metrics.RecordBridgeRequest(op, outcome, float64(time.Since(start).Milliseconds()))
	}()

	req := Request{Seq: c.seq.Add(1), Op: op}
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("bridge %s: encode: %w", op, err)
		}
		req.Body = raw
	}

	ch := make(chan Response, 1)
	c.mu.Lock()
	if c.err != nil {
		c.mu.Unlock()
		return c.err
	}
	c.pending[req.Seq] = ch
	c.mu.Unlock()

	if err := wsjson.Write(ctx, c.conn, req); err != nil {
		c.forget(req.Seq)
		return fmt.Errorf("bridge %s: %w", op, err)
	}

	select {
	case resp, ok := <-ch:
		if !ok {
			c.mu.Lock()
			defer c.mu.Unlock()
			return c.err
		}
		if !resp.OK {
			return fmt.Errorf("%w: %s: %s", ErrRemote, op, resp.Error)
		}
		if out != nil && len(resp.Body) > 0 {
			if err := json.Unmarshal(resp.Body, out); err != nil {
				return fmt.Errorf("bridge %s: decode: %w", op, err)
			}
		}
		return nil
	case <-ctx.Done():
		c.forget(req.Seq)
		return ctx.Err()
	}
}

func (c *Client) forget(seq uint64) {
	c.mu.Lock()
	delete(c.pending, seq)
	c.mu.Unlock()
}

// Packet returns the most recent tick packet.
func (c *Client) Packet(ctx context.Context) (*game.Packet, error) {
	var p game.Packet
	if err := c.call(ctx, OpPacket, nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// WaitPacket blocks on the host until the next tick.
func (c *Client) WaitPacket(ctx context.Context) (*game.Packet, error) {
	var p game.Packet
	if err := c.call(ctx, OpWaitPacket, nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) SetGameState(ctx context.Context, state game.GameState) error {
	return c.call(ctx, OpSetGameState, state, nil)
}

func (c *Client) StartMatch(ctx context.Context, cfg game.MatchConfig) error {
	return c.call(ctx, OpStartMatch, cfg, nil)
}

func (c *Client) Render(ctx context.Context, group string, cmds []game.DrawCommand) error {
	return c.call(ctx, OpRender, RenderBody{Group: group, Commands: cmds}, nil)
}

func (c *Client) ClearScreen(ctx context.Context, group string) error {
	return c.call(ctx, OpClearRender, RenderBody{Group: group}, nil)
}

// Close shuts the connection; pending calls fail with ErrClosed.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		err = c.conn.Close(websocket.StatusNormalClosure, "")
		c.cancel()
		<-c.done
	})
	return err
}
