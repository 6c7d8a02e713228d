package hosttest

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/okian/trackfield/internal/adapters/mq/queue"
	"github.com/okian/trackfield/internal/domain/model"
)

// Comms is an in-memory matchcomms endpoint. Inbound messages are queued
// with Push or Ready; outbound broadcasts are recorded.
type Comms struct {
	*queue.InMemoryQueue

	mu   sync.Mutex
	sent []json.RawMessage
}

// NewComms returns an empty Comms.
func NewComms() *Comms {
	return &Comms{InMemoryQueue: queue.NewInMemoryQueue(queue.WithCapacity(64))}
}

// Broadcast records v as JSON.
func (c *Comms) Broadcast(ctx context.Context, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, raw)
	return nil
}

// Sent returns every broadcast so far.
func (c *Comms) Sent() []model.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]model.Message, len(c.sent))
	for i, raw := range c.sent {
		out[i] = model.Message{Raw: raw}
	}
	return out
}

// Push queues a raw inbound message.
func (c *Comms) Push(raw string) {
	c.Enqueue(context.Background(), model.NewMessage([]byte(raw)))
}

// Ready queues a ready handshake listing events.
func (c *Comms) Ready(events ...string) {
	raw, _ := json.Marshal(model.ReadyMessage{ReadyForTrackAndField: true, SupportedEvents: events})
	c.Enqueue(context.Background(), model.NewMessage(raw))
}
