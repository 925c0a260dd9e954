// Package queue implements the capacity-bounded max-priority queue at the
// heart of the engine. Ordering is a binary heap behind an explicit API;
// the heap layout is an implementation detail and never leaks to callers.
package queue

import (
	"container/heap"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"github.com/viant/priorq/internal/clock"
	"github.com/viant/priorq/metrics"
	"github.com/viant/priorq/model/item"
	"github.com/viant/priorq/priority"
)

// Config represents bounded queue configuration.
type Config struct {
	// MaxQueueSize caps the number of queued items. Admission at capacity
	// drops the lowest-priority candidate, the incoming item included.
	MaxQueueSize int
}

// DefaultConfig returns the default queue configuration.
func DefaultConfig() Config {
	return Config{MaxQueueSize: 1000}
}

type entry struct {
	item  item.WorkItem
	seq   uint64
	index int
}

// ordering satisfies heap.Interface: highest priority first, FIFO within
// equal priorities via the admission sequence number.
type ordering []*entry

func (o ordering) Len() int { return len(o) }

func (o ordering) Less(i, j int) bool {
	if o[i].item.Priority != o[j].item.Priority {
		return o[i].item.Priority > o[j].item.Priority
	}
	return o[i].seq < o[j].seq
}

func (o ordering) Swap(i, j int) {
	o[i], o[j] = o[j], o[i]
	o[i].index = i
	o[j].index = j
}

func (o *ordering) Push(x any) {
	e := x.(*entry)
	e.index = len(*o)
	*o = append(*o, e)
}

func (o *ordering) Pop() any {
	old := *o
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	e.index = -1
	*o = old[:n-1]
	return e
}

// Queue is a bounded max-priority queue for a single item kind. All
// mutating operations hold the queue mutex for their full duration so
// capacity checks and pushes are atomic with respect to concurrent callers.
type Queue struct {
	kind    item.Kind
	config  Config
	logger  zerolog.Logger
	hook    metrics.Hook
	mu      sync.Mutex
	entries ordering
	seq     uint64
}

// Option customises a queue.
type Option func(*Queue)

// WithLogger sets the structured logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(q *Queue) { q.logger = logger }
}

// WithHook sets the metrics hook.
func WithHook(hook metrics.Hook) Option {
	return func(q *Queue) { q.hook = hook }
}

// New creates a bounded queue for the given kind.
func New(kind item.Kind, config Config, opts ...Option) *Queue {
	if config.MaxQueueSize <= 0 {
		config.MaxQueueSize = DefaultConfig().MaxQueueSize
	}
	q := &Queue{
		kind:    kind,
		config:  config,
		logger:  zerolog.Nop(),
		hook:    metrics.Nop{},
		entries: make(ordering, 0, 64),
	}
	for _, opt := range opts {
		opt(q)
	}
	heap.Init(&q.entries)
	return q
}

// Kind returns the item kind this queue serves.
func (q *Queue) Kind() item.Kind { return q.kind }

// Capacity returns the configured bound.
func (q *Queue) Capacity() int { return q.config.MaxQueueSize }

// Submit admits an item, computing its priority when supplied is nil and
// clamping a caller-supplied value to [0,1]. When the queue is full the
// lowest-priority candidate is evicted, with the incoming item itself in
// the candidate set, so the retained minimum never decreases and the bound
// holds after every call. The returned value is the admitted priority.
func (q *Queue) Submit(it item.WorkItem, supplied *float64) (float64, error) {
	if err := it.Validate(); err != nil {
		return 0, err
	}
	if supplied != nil {
		it.Priority = priority.Clamp(*supplied)
	} else {
		it.Priority = priority.Compute(it)
	}
	it = it.Clone()
	it.Kind = q.kind
	it.EnqueuedAt = clock.Now()

	q.mu.Lock()
	q.seq++
	incoming := &entry{item: it, seq: q.seq}
	var evicted *item.WorkItem
	if len(q.entries) >= q.config.MaxQueueSize {
		lowest := q.lowestIndex()
		if less(incoming, q.entries[lowest]) {
			removed := heap.Remove(&q.entries, lowest).(*entry)
			evicted = &removed.item
			heap.Push(&q.entries, incoming)
		} else {
			// The incoming item is the lowest candidate; it never enters.
			evicted = &incoming.item
		}
	} else {
		heap.Push(&q.entries, incoming)
	}
	q.mu.Unlock()

	if evicted != nil {
		q.hook.OnEvict(string(q.kind), evicted.Priority)
		q.logger.Debug().
			Str("kind", string(q.kind)).
			Str("id", evicted.ID).
			Float64("priority", evicted.Priority).
			Msg("evicted lowest priority item")
	}

	q.hook.OnSubmit(string(q.kind), it.Priority)
	q.logger.Debug().
		Str("kind", string(q.kind)).
		Str("id", it.ID).
		Float64("priority", it.Priority).
		Msg("item admitted")
	return it.Priority, nil
}

// lowestIndex locates the minimum-priority entry. Caller holds the mutex.
// Linear scan: eviction only happens at capacity and the heap gives no
// cheap access to its minimum.
func (q *Queue) lowestIndex() int {
	lowest := 0
	for i := 1; i < len(q.entries); i++ {
		if less(q.entries[lowest], q.entries[i]) {
			lowest = i
		}
	}
	return lowest
}

// less reports whether a outranks b for eviction purposes: evict the lower
// priority, and among equals the most recently enqueued.
func less(a, b *entry) bool {
	if a.item.Priority != b.item.Priority {
		return a.item.Priority > b.item.Priority
	}
	return a.seq < b.seq
}

// Next removes and returns the highest-priority item. The second result is
// false when the queue is empty, which is a normal outcome rather than an
// error.
func (q *Queue) Next() (item.WorkItem, bool) {
	q.mu.Lock()
	if len(q.entries) == 0 {
		q.mu.Unlock()
		return item.WorkItem{}, false
	}
	e := heap.Pop(&q.entries).(*entry)
	q.mu.Unlock()

	q.hook.OnNext(string(q.kind), e.item.Priority)
	return e.item, true
}

// Len returns the current number of queued items.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}

// Snapshot returns a copy of every queued item in heap order. Mutating the
// result has no effect on the queue.
func (q *Queue) Snapshot() []item.WorkItem {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]item.WorkItem, 0, len(q.entries))
	for _, e := range q.entries {
		out = append(out, e.item.Clone())
	}
	return out
}

// Reweigh applies fn to a copy of every queued item under the queue lock
// and rebuilds the ordering with the returned priorities, clamped to
// [0,1]. Membership never changes; only priorities and ordering move. The
// number of entries whose priority changed is returned.
func (q *Queue) Reweigh(fn func(it item.WorkItem) float64) int {
	q.mu.Lock()
	changed := 0
	for _, e := range q.entries {
		updated := priority.Clamp(fn(e.item.Clone()))
		if updated != e.item.Priority {
			e.item.Priority = updated
			changed++
		}
	}
	if changed > 0 {
		heap.Init(&q.entries)
	}
	q.mu.Unlock()

	if changed > 0 {
		q.hook.OnReprioritize(string(q.kind), changed)
	}
	return changed
}

// Snapshot of queue health returned by Status.
type Status struct {
	Kind     item.Kind `json:"kind"`
	Size     int       `json:"size"`
	Capacity int       `json:"capacity"`
	High     int       `json:"high"`
	Medium   int       `json:"medium"`
	Low      int       `json:"low"`
}

// Status reports size and priority distribution without mutating the
// queue. Buckets: high >0.7, medium [0.3,0.7], low <0.3.
func (q *Queue) Status() Status {
	q.mu.Lock()
	defer q.mu.Unlock()
	st := Status{Kind: q.kind, Size: len(q.entries), Capacity: q.config.MaxQueueSize}
	for _, e := range q.entries {
		switch p := e.item.Priority; {
		case p > 0.7:
			st.High++
		case p < 0.3:
			st.Low++
		default:
			st.Medium++
		}
	}
	return st
}

// String implements fmt.Stringer for log friendliness.
func (q *Queue) String() string {
	return fmt.Sprintf("queue[%s] %d/%d", q.kind, q.Len(), q.config.MaxQueueSize)
}
