// Package schedule holds items deferred to a future admission time. The
// store is independent of the queue: due entries are handed back to the
// caller exactly once and the caller owns re-submission.
package schedule

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/viant/priorq/internal/clock"
	"github.com/viant/priorq/internal/idgen"
	"github.com/viant/priorq/model"
	"github.com/viant/priorq/model/item"
	"github.com/viant/priorq/service/dao"
)

// Entry is a deferred work item. It is created by Schedule and destroyed
// the first time PollDue observes its time as reached; it is never
// auto-enqueued.
type Entry struct {
	ScheduleID   string        `json:"scheduleID"`
	Item         item.WorkItem `json:"item"`
	ScheduleTime time.Time     `json:"scheduleTime"`
	CreatedAt    time.Time     `json:"createdAt"`
}

// ID returns the entry key for DAO storage.
func (e *Entry) ID() string { return e.ScheduleID }

// ParseTime accepts the schedule time formats recognised on the engine
// surface: a time.Time or an RFC3339 string.
func ParseTime(raw interface{}) (time.Time, error) {
	switch v := raw.(type) {
	case time.Time:
		if v.IsZero() {
			return time.Time{}, fmt.Errorf("%w: schedule time is required", model.ErrValidation)
		}
		return v, nil
	case string:
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: malformed schedule time %q", model.ErrValidation, v)
		}
		return t, nil
	case nil:
		return time.Time{}, fmt.Errorf("%w: schedule time is required", model.ErrValidation)
	}
	return time.Time{}, fmt.Errorf("%w: unsupported schedule time type %T", model.ErrValidation, raw)
}

// Store owns the deferred entries of one item kind. The mutex spans the
// whole scan-and-remove of PollDue so overlapping polls never deliver the
// same entry twice, and an entry scheduled mid-poll is not visible to the
// poll already in flight.
type Store struct {
	kind   item.Kind
	dao    dao.Service[string, Entry]
	logger zerolog.Logger
	mu     sync.Mutex
}

// Option customises a store.
type Option func(*Store)

// WithLogger sets the structured logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// New creates a schedule store backed by the supplied DAO.
func New(kind item.Kind, service dao.Service[string, Entry], opts ...Option) *Store {
	s := &Store{kind: kind, dao: service, logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Schedule defers an item until scheduleTime and returns the schedule id.
func (s *Store) Schedule(ctx context.Context, it item.WorkItem, scheduleTime time.Time) (string, error) {
	if err := it.Validate(); err != nil {
		return "", err
	}
	if scheduleTime.IsZero() {
		return "", fmt.Errorf("%w: schedule time is required", model.ErrValidation)
	}
	entry := &Entry{
		ScheduleID:   idgen.New(),
		Item:         it.Clone(),
		ScheduleTime: scheduleTime,
		CreatedAt:    clock.Now(),
	}
	entry.Item.Kind = s.kind

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.dao.Save(ctx, entry); err != nil {
		return "", fmt.Errorf("failed to save schedule entry: %w", err)
	}
	s.logger.Debug().
		Str("kind", string(s.kind)).
		Str("scheduleID", entry.ScheduleID).
		Str("id", it.ID).
		Time("scheduleTime", scheduleTime).
		Msg("item scheduled")
	return entry.ScheduleID, nil
}

// PollDue removes and returns every entry whose schedule time has been
// reached, ordered by imminence. Entries not yet due are left untouched.
func (s *Store) PollDue(ctx context.Context) ([]Entry, error) {
	now := clock.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.dao.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list schedule entries: %w", err)
	}
	var due []Entry
	for _, entry := range entries {
		if entry.ScheduleTime.After(now) {
			continue
		}
		if err := s.dao.Delete(ctx, entry.ScheduleID); err != nil {
			// Entry already gone; skip rather than double-deliver.
			continue
		}
		due = append(due, *entry)
	}
	sort.Slice(due, func(i, j int) bool {
		return due[i].ScheduleTime.Before(due[j].ScheduleTime)
	})
	if len(due) > 0 {
		s.logger.Debug().
			Str("kind", string(s.kind)).
			Int("due", len(due)).
			Msg("released due schedule entries")
	}
	return due, nil
}

// Pending returns a copy of every entry still waiting, ordered by
// imminence. Read-only.
func (s *Store) Pending(ctx context.Context) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.dao.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list schedule entries: %w", err)
	}
	out := make([]Entry, 0, len(entries))
	for _, entry := range entries {
		out = append(out, *entry)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ScheduleTime.Before(out[j].ScheduleTime)
	})
	return out, nil
}

// Size returns the number of pending entries.
func (s *Store) Size(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries, err := s.dao.List(ctx)
	if err != nil {
		return 0, err
	}
	return len(entries), nil
}
