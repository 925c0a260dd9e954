// Package event publishes engine lifecycle notifications (admissions,
// evictions, dispatches, due schedules) to an observer without coupling
// the engine's hot path to the observer's speed.
package event

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/viant/priorq/internal/clock"
	"github.com/viant/priorq/internal/idgen"
	"github.com/viant/priorq/model/item"
	"github.com/viant/priorq/service/messaging"
	"github.com/viant/priorq/service/messaging/memory"
)

// Operation names carried on events.
const (
	OpAdmitted     = "admitted"
	OpEvicted      = "evicted"
	OpDispatched   = "dispatched"
	OpScheduleDue  = "schedule_due"
	OpReprioritize = "reprioritized"
)

// Event is one engine notification.
type Event struct {
	ID        string    `json:"id"`
	Kind      item.Kind `json:"kind"`
	Operation string    `json:"operation"`
	ItemID    string    `json:"itemID,omitempty"`
	Priority  float64   `json:"priority,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Service fans engine events out to a single listener over a message
// queue. A nil *Service is valid and publishes nothing.
type Service struct {
	queue    messaging.Queue[Event]
	cancelFn context.CancelFunc
	dropped  atomic.Uint64
}

// Option customises the service.
type Option func(*Service)

// WithQueue replaces the default in-memory transport.
func WithQueue(queue messaging.Queue[Event]) Option {
	return func(s *Service) { s.queue = queue }
}

// New creates an event service backed by an in-memory queue unless
// overridden.
func New(opts ...Option) *Service {
	s := &Service{}
	for _, opt := range opts {
		opt(s)
	}
	if s.queue == nil {
		s.queue = memory.NewQueue[Event](memory.DefaultConfig())
	}
	return s
}

// Publish emits one event. Safe on a nil service. Publishing never blocks
// the engine hot path: when the transport supports a non-blocking send and
// its buffer is full the event is dropped and counted instead.
func (s *Service) Publish(ctx context.Context, kind item.Kind, operation, itemID string, priority float64) {
	if s == nil {
		return
	}
	evt := Event{
		ID:        idgen.New(),
		Kind:      kind,
		Operation: operation,
		ItemID:    itemID,
		Priority:  priority,
		CreatedAt: clock.Now(),
	}
	if q, ok := s.queue.(interface{ TryPublish(t *Event) bool }); ok {
		if !q.TryPublish(&evt) {
			s.dropped.Add(1)
		}
		return
	}
	_ = s.queue.Publish(ctx, &evt)
}

// Dropped returns the number of events discarded because the transport
// buffer was full.
func (s *Service) Dropped() uint64 {
	if s == nil {
		return 0
	}
	return s.dropped.Load()
}

// SetListener starts a goroutine delivering each event to handler. Any
// previous listener is stopped first.
func (s *Service) SetListener(handler func(Event)) {
	if s == nil {
		return
	}
	s.Stop()
	ctx, cancel := context.WithCancel(context.Background())
	s.cancelFn = cancel
	go func() {
		for {
			msg, err := s.queue.Consume(ctx)
			if err != nil {
				return
			}
			handler(*msg.T())
			_ = msg.Ack()
		}
	}()
}

// Stop halts the listener goroutine if one is running.
func (s *Service) Stop() {
	if s == nil || s.cancelFn == nil {
		return
	}
	s.cancelFn()
	s.cancelFn = nil
}
