package queue

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/viant/priorq/metrics"
	"github.com/viant/priorq/model"
	"github.com/viant/priorq/model/item"
)

func newItem(id string, payload map[string]interface{}) item.WorkItem {
	if payload == nil {
		payload = map[string]interface{}{}
	}
	return item.WorkItem{ID: id, Payload: payload}
}

func floatPtr(v float64) *float64 { return &v }

func TestQueue_SubmitValidation(t *testing.T) {
	q := New(item.KindTask, Config{MaxQueueSize: 4})

	_, err := q.Submit(item.WorkItem{Payload: map[string]interface{}{}}, nil)
	assert.ErrorIs(t, err, model.ErrValidation)

	_, err = q.Submit(item.WorkItem{ID: "no-payload"}, nil)
	assert.ErrorIs(t, err, model.ErrValidation)

	assert.Equal(t, 0, q.Len())
}

func TestQueue_SuppliedPriorityClamped(t *testing.T) {
	q := New(item.KindTask, Config{MaxQueueSize: 4})

	admitted, err := q.Submit(newItem("a", nil), floatPtr(1.5))
	assert.NoError(t, err)
	assert.Equal(t, 1.0, admitted)

	admitted, err = q.Submit(newItem("b", nil), floatPtr(-0.5))
	assert.NoError(t, err)
	assert.Equal(t, 0.0, admitted)
}

func TestQueue_DrainOrder(t *testing.T) {
	q := New(item.KindTask, Config{MaxQueueSize: 10})
	priorities := map[string]float64{"low": 0.2, "high": 0.9, "mid": 0.5}
	for id, p := range priorities {
		_, err := q.Submit(newItem(id, nil), floatPtr(p))
		assert.NoError(t, err)
	}

	var drained []string
	for {
		it, ok := q.Next()
		if !ok {
			break
		}
		drained = append(drained, it.ID)
	}
	assert.Equal(t, []string{"high", "mid", "low"}, drained)

	_, ok := q.Next()
	assert.False(t, ok)
}

func TestQueue_FIFOWithinEqualPriority(t *testing.T) {
	q := New(item.KindTask, Config{MaxQueueSize: 10})
	for _, id := range []string{"first", "second", "third"} {
		_, err := q.Submit(newItem(id, nil), floatPtr(0.5))
		assert.NoError(t, err)
	}
	var drained []string
	for i := 0; i < 3; i++ {
		it, _ := q.Next()
		drained = append(drained, it.ID)
	}
	assert.Equal(t, []string{"first", "second", "third"}, drained)
}

func TestQueue_EvictsLowestAtCapacity(t *testing.T) {
	q := New(item.KindTask, Config{MaxQueueSize: 3})
	_, _ = q.Submit(newItem("low", nil), floatPtr(0.1))
	_, _ = q.Submit(newItem("mid", nil), floatPtr(0.5))
	_, _ = q.Submit(newItem("high", nil), floatPtr(0.9))

	_, err := q.Submit(newItem("higher", nil), floatPtr(0.8))
	assert.NoError(t, err)
	assert.Equal(t, 3, q.Len())

	var drained []string
	for i := 0; i < 3; i++ {
		it, _ := q.Next()
		drained = append(drained, it.ID)
	}
	assert.Equal(t, []string{"high", "higher", "mid"}, drained)
}

func TestQueue_IncomingBelowMinimumNotRetained(t *testing.T) {
	q := New(item.KindTask, Config{MaxQueueSize: 3})
	_, _ = q.Submit(newItem("low", nil), floatPtr(0.5))
	_, _ = q.Submit(newItem("mid", nil), floatPtr(0.6))
	_, _ = q.Submit(newItem("high", nil), floatPtr(0.7))

	// Below the current minimum: the incoming item is the one dropped.
	admitted, err := q.Submit(newItem("weak", nil), floatPtr(0.1))
	assert.NoError(t, err)
	assert.Equal(t, 0.1, admitted)
	assert.Equal(t, 3, q.Len())

	var drained []string
	for i := 0; i < 3; i++ {
		it, _ := q.Next()
		drained = append(drained, it.ID)
	}
	assert.Equal(t, []string{"high", "mid", "low"}, drained)
}

func TestQueue_IncomingTiesWithMinimumNotRetained(t *testing.T) {
	q := New(item.KindTask, Config{MaxQueueSize: 2})
	_, _ = q.Submit(newItem("old", nil), floatPtr(0.5))
	_, _ = q.Submit(newItem("high", nil), floatPtr(0.9))

	// Equal priorities drop the newest candidate, the incoming item.
	_, err := q.Submit(newItem("new", nil), floatPtr(0.5))
	assert.NoError(t, err)

	var drained []string
	for i := 0; i < 2; i++ {
		it, _ := q.Next()
		drained = append(drained, it.ID)
	}
	assert.Equal(t, []string{"high", "old"}, drained)
}

type evictionRecorder struct {
	metrics.Nop
	evicted []float64
}

func (r *evictionRecorder) OnEvict(_ string, priority float64) {
	r.evicted = append(r.evicted, priority)
}

func TestQueue_OverflowNeverLowersMinimum(t *testing.T) {
	recorder := &evictionRecorder{}
	q := New(item.KindTask, Config{MaxQueueSize: 3}, WithHook(recorder))

	for i := 0; i < 30; i++ {
		p := float64((i*7)%10) / 10
		before := len(recorder.evicted)
		_, err := q.Submit(newItem("it", nil), floatPtr(p))
		assert.NoError(t, err)
		assert.LessOrEqual(t, q.Len(), 3)

		// Every retained priority is at least the evicted one.
		if len(recorder.evicted) > before {
			dropped := recorder.evicted[len(recorder.evicted)-1]
			for _, queued := range q.Snapshot() {
				assert.GreaterOrEqual(t, queued.Priority, dropped)
			}
		}
	}
}

func TestQueue_BoundHoldsUnderChurn(t *testing.T) {
	q := New(item.KindTask, Config{MaxQueueSize: 5})
	for i := 0; i < 50; i++ {
		_, err := q.Submit(newItem("it", nil), floatPtr(float64(i%10)/10))
		assert.NoError(t, err)
		assert.LessOrEqual(t, q.Len(), 5)
	}
	assert.Equal(t, 5, q.Len())
}

func TestQueue_ComputedPriority(t *testing.T) {
	q := New(item.KindTask, Config{MaxQueueSize: 4})
	admitted, err := q.Submit(newItem("a", map[string]interface{}{"urgency": 0.9}), nil)
	assert.NoError(t, err)
	assert.InDelta(t, 0.47, admitted, 1e-9)
}

func TestQueue_SnapshotIsCopy(t *testing.T) {
	q := New(item.KindTask, Config{MaxQueueSize: 4})
	_, _ = q.Submit(newItem("a", map[string]interface{}{"urgency": 0.9}), nil)

	snapshot := q.Snapshot()
	assert.Len(t, snapshot, 1)
	snapshot[0].Payload["urgency"] = 0.0

	again := q.Snapshot()
	assert.Equal(t, 0.9, again[0].Payload["urgency"])
	assert.Equal(t, 1, q.Len())
}

func TestQueue_Reweigh(t *testing.T) {
	q := New(item.KindTask, Config{MaxQueueSize: 10})
	_, _ = q.Submit(newItem("a", nil), floatPtr(0.2))
	_, _ = q.Submit(newItem("b", nil), floatPtr(0.8))

	changed := q.Reweigh(func(it item.WorkItem) float64 {
		if it.ID == "a" {
			return 0.95
		}
		return it.Priority
	})
	assert.Equal(t, 1, changed)
	assert.Equal(t, 2, q.Len())

	it, ok := q.Next()
	assert.True(t, ok)
	assert.Equal(t, "a", it.ID)
	assert.InDelta(t, 0.95, it.Priority, 1e-9)
}

func TestQueue_Status(t *testing.T) {
	q := New(item.KindTask, Config{MaxQueueSize: 10})
	_, _ = q.Submit(newItem("h", nil), floatPtr(0.9))
	_, _ = q.Submit(newItem("m", nil), floatPtr(0.5))
	_, _ = q.Submit(newItem("l", nil), floatPtr(0.1))

	st := q.Status()
	assert.Equal(t, item.KindTask, st.Kind)
	assert.Equal(t, 3, st.Size)
	assert.Equal(t, 10, st.Capacity)
	assert.Equal(t, 1, st.High)
	assert.Equal(t, 1, st.Medium)
	assert.Equal(t, 1, st.Low)
}
