package event

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/viant/priorq/model/item"
	"github.com/viant/priorq/service/messaging/memory"
)

func TestService_PublishAndListen(t *testing.T) {
	svc := New()
	defer svc.Stop()

	received := make(chan Event, 10)
	svc.SetListener(func(evt Event) { received <- evt })

	svc.Publish(context.Background(), item.KindTask, OpAdmitted, "t1", 0.8)

	select {
	case evt := <-received:
		assert.Equal(t, item.KindTask, evt.Kind)
		assert.Equal(t, OpAdmitted, evt.Operation)
		assert.Equal(t, "t1", evt.ItemID)
		assert.Equal(t, 0.8, evt.Priority)
		assert.NotEmpty(t, evt.ID)
		assert.False(t, evt.CreatedAt.IsZero())
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}
}

func TestService_PublishWithoutListenerNeverBlocks(t *testing.T) {
	svc := New(WithQueue(memory.NewQueue[Event](memory.Config{Buffer: 2})))
	defer svc.Stop()

	// No listener draining: the buffer fills and the surplus is dropped.
	for i := 0; i < 10; i++ {
		svc.Publish(context.Background(), item.KindTask, OpAdmitted, "t1", 0.5)
	}
	assert.Equal(t, uint64(8), svc.Dropped())
}

func TestService_NilSafe(t *testing.T) {
	var svc *Service
	svc.Publish(context.Background(), item.KindTask, OpEvicted, "t1", 0.1)
	svc.SetListener(func(Event) {})
	svc.Stop()
}

func TestService_StopHaltsListener(t *testing.T) {
	svc := New()
	received := make(chan Event, 10)
	svc.SetListener(func(evt Event) { received <- evt })
	svc.Stop()
	// Let the listener goroutine observe the cancellation.
	time.Sleep(20 * time.Millisecond)

	// Published after stop: buffered but not delivered.
	svc.Publish(context.Background(), item.KindTask, OpDispatched, "t1", 0.5)

	select {
	case <-received:
		t.Fatal("listener should be stopped")
	case <-time.After(50 * time.Millisecond):
	}
}
