// Package matchcomms is a client for the host's broadcast bus. Every text
// frame sent to <root>/broadcast is relayed to the other connected clients.
package matchcomms

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/okian/trackfield/internal/adapters/mq/queue"
	"github.com/okian/trackfield/internal/domain/model"
	"github.com/okian/trackfield/pkg/logger"
)

const (
	broadcastPath    = "/broadcast"
	defaultQueueSize = 256
	defaultReadLimit = 1 << 20
)

// Client pumps inbound broadcasts into a bounded queue and writes outbound
// broadcasts as JSON text frames.
type Client struct {
	conn      *websocket.Conn
	inbox     *queue.InMemoryQueue
	log       logger.Logger
	queueSize int
	readLimit int64

	cancel    context.CancelFunc
	done      chan struct{}
	closeOnce sync.Once
}

// BroadcastURL returns the endpoint for a matchcomms root url.
func BroadcastURL(root string) string {
	return strings.TrimRight(root, "/") + broadcastPath
}

// Dial connects to <root>/broadcast and starts the read loop.
func Dial(ctx context.Context, root string, opts ...Option) (*Client, error) {
	c := &Client{
		log:       logger.Nop(),
		queueSize: defaultQueueSize,
		readLimit: defaultReadLimit,
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}

	url := BroadcastURL(root)
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrDial, url, err)
	}
	conn.SetReadLimit(c.readLimit)

	c.conn = conn
	c.inbox = queue.NewInMemoryQueue(queue.WithCapacity(c.queueSize))

	readCtx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	go c.readLoop(readCtx)

	c.log.Info(ctx, "matchcomms connected", logger.String("url", url))
	return c, nil
}

func (c *Client) readLoop(ctx context.Context) {
	defer close(c.done)
	defer func() { _ = c.inbox.Close() }()

	for {
		typ, data, err := c.conn.Read(ctx)
		if err != nil {
			if ctx.Err() == nil && websocket.CloseStatus(err) != websocket.StatusNormalClosure {
				c.log.Warn(ctx, "matchcomms read loop stopped", logger.Error(err))
			}
			return
		}
		if typ != websocket.MessageText {
			continue
		}
		if !json.Valid(data) {
			c.log.Debug(ctx, "dropping non-json broadcast", logger.Int("bytes", len(data)))
			continue
		}
		if !c.inbox.Enqueue(ctx, model.NewMessage(data)) {
			c.log.Warn(ctx, "matchcomms inbox full, message dropped")
		}
	}
}

// Broadcast sends v as a JSON text frame.
func (c *Client) Broadcast(ctx context.Context, v any) error {
	select {
	case <-c.done:
		return ErrClosed
	default:
	}
	if err := wsjson.Write(ctx, c.conn, v); err != nil {
		return fmt.Errorf("matchcomms broadcast: %w", err)
	}
	return nil
}

// Poll waits up to timeout for the next inbound broadcast. Errors are
// queue.ErrTimeout, queue.ErrClosed or the context error.
func (c *Client) Poll(ctx context.Context, timeout time.Duration) (model.Message, error) {
	return c.inbox.Poll(ctx, timeout)
}

// Drain discards buffered broadcasts.
func (c *Client) Drain(ctx context.Context) int {
	return c.inbox.Drain(ctx)
}

// Close shuts the connection and waits for the read loop to exit.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		err = c.conn.Close(websocket.StatusNormalClosure, "")
		c.cancel()
		<-c.done
	})
	return err
}
