// Package queue buffers inbound matchcomms messages between the socket read
// loop and the single goroutine driving the events.
//
// Enqueue never blocks: when the buffer is full the message is dropped and
// counted. Poll is the bounded read used by the ready handshake.
package queue

import (
	"context"
	"sync"
	"time"

	"github.com/okian/trackfield/internal/domain/model"
	"github.com/okian/trackfield/pkg/metrics"
)

const defaultQueueCapacity = 256

// Message is the payload type flowing through the queue.
type Message = model.Message

// Queue provides non-blocking enqueue and bounded dequeue.
type Queue interface {
	// Enqueue adds a message. Returns false if it was dropped.
	Enqueue(ctx context.Context, m Message) bool

	// Poll waits up to timeout for the next message. It returns ErrTimeout
	// when nothing arrived and ErrClosed once the queue is closed and drained.
	Poll(ctx context.Context, timeout time.Duration) (Message, error)

	// Drain discards buffered messages and returns how many were dropped.
	Drain(ctx context.Context) int

	// Len returns the current number of queued messages.
	Len(ctx context.Context) int

	// Close stops accepting messages. Buffered messages stay readable.
	Close() error

	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	messages chan Message
	capacity int

	mu     sync.RWMutex
	closed bool
}

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{capacity: defaultQueueCapacity}
	for _, opt := range opts {
		opt(q)
	}
	q.messages = make(chan Message, q.capacity)

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)
	return q
}

// Enqueue adds a message to the queue.
func (q *InMemoryQueue) Enqueue(ctx context.Context, m Message) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordQueueDropped()
		return false
	}

	select {
	case q.messages <- m:
		metrics.UpdateQueueSize(len(q.messages))
		return true
	case <-ctx.Done():
		metrics.RecordQueueDropped()
		return false
	default:
		metrics.RecordQueueDropped()
		return false
	}
}

// Poll returns the next message, waiting at most timeout.
func (q *InMemoryQueue) Poll(ctx context.Context, timeout time.Duration) (Message, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case m, ok := <-q.messages:
		if !ok {
			return Message{}, ErrClosed
		}
		metrics.UpdateQueueSize(len(q.messages))
		return m, nil
	case <-timer.C:
		return Message{}, ErrTimeout
	case <-ctx.Done():
		return Message{}, ctx.Err()
	}
}

// Drain discards everything currently buffered.
func (q *InMemoryQueue) Drain(ctx context.Context) int {
	n := 0
	for {
		select {
		case _, ok := <-q.messages:
			if !ok {
				return n
			}
			n++
		default:
			metrics.UpdateQueueSize(0)
			return n
		}
	}
}

// Len returns the current number of queued messages.
func (q *InMemoryQueue) Len(ctx context.Context) int {
	size := len(q.messages)
	metrics.UpdateQueueSize(size)
	return size
}

// Close gracefully shuts down the queue.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.messages)
	q.closed = true
	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
