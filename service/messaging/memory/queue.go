// Package memory provides the channel-backed in-process implementation of
// messaging.Queue.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/viant/priorq/internal/idgen"
	"github.com/viant/priorq/service/messaging"
)

// Config for the in-memory queue.
type Config struct {
	// MaxRetries bounds redelivery after Nack.
	MaxRetries int
	// RetryDelay is the wait before a Nacked message is republished.
	RetryDelay time.Duration
	// Buffer is the channel capacity.
	Buffer int
}

// DefaultConfig returns a standard configuration for the memory queue.
func DefaultConfig() Config {
	return Config{
		MaxRetries: 3,
		RetryDelay: 100 * time.Millisecond,
		Buffer:     100,
	}
}

// Message implements messaging.Message for the in-memory queue.
type Message[T any] struct {
	id       string
	payload  T
	queue    *Queue[T]
	attempts int
	mu       sync.Mutex
	settled  bool
}

// T returns the message payload.
func (m *Message[T]) T() *T { return &m.payload }

// Ack marks the message as processed.
func (m *Message[T]) Ack() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.settled {
		return fmt.Errorf("message %s already settled", m.id)
	}
	m.settled = true
	return nil
}

// Nack marks processing as failed; the message is republished after the
// retry delay until MaxRetries is exhausted.
func (m *Message[T]) Nack(_ error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.settled {
		return fmt.Errorf("message %s already settled", m.id)
	}
	m.settled = true
	m.attempts++
	if m.attempts > m.queue.config.MaxRetries {
		return nil
	}
	go func() {
		time.Sleep(m.queue.config.RetryDelay)
		retry := &Message[T]{
			id:       m.id,
			payload:  m.payload,
			queue:    m.queue,
			attempts: m.attempts,
		}
		select {
		case m.queue.messages <- retry:
		default:
			// Queue full; the retry is dropped.
		}
	}()
	return nil
}

// Queue implements an in-memory messaging.Queue.
type Queue[T any] struct {
	messages chan *Message[T]
	config   Config
}

// NewQueue creates an in-memory queue.
func NewQueue[T any](config Config) *Queue[T] {
	if config.Buffer <= 0 {
		config.Buffer = DefaultConfig().Buffer
	}
	return &Queue[T]{
		messages: make(chan *Message[T], config.Buffer),
		config:   config,
	}
}

// Publish adds a new payload to the queue.
func (q *Queue[T]) Publish(ctx context.Context, t *T) error {
	msg := &Message[T]{
		id:      idgen.New(),
		payload: *t,
		queue:   q,
	}
	select {
	case q.messages <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TryPublish adds a payload without blocking, reporting false when the
// buffer is full.
func (q *Queue[T]) TryPublish(t *T) bool {
	msg := &Message[T]{
		id:      idgen.New(),
		payload: *t,
		queue:   q,
	}
	select {
	case q.messages <- msg:
		return true
	default:
		return false
	}
}

// Consume retrieves a single message, blocking until one is available or
// the context is cancelled.
func (q *Queue[T]) Consume(ctx context.Context) (messaging.Message[T], error) {
	select {
	case msg := <-q.messages:
		return msg, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Size returns the current number of buffered messages.
func (q *Queue[T]) Size() int { return len(q.messages) }

var _ messaging.Queue[any] = (*Queue[any])(nil)
