// Package memory implements an in-memory, thread-safe store for schedule
// entries. All API methods work with copies to eliminate data races
// between goroutines.
package memory

import (
	"context"
	"sync"

	"github.com/viant/priorq/service/dao"
	"github.com/viant/priorq/service/schedule"
)

// Service keeps schedule entries in a map guarded by a read-write mutex.
type Service struct {
	entries map[string]*schedule.Entry
	mux     sync.RWMutex
}

var _ dao.Service[string, schedule.Entry] = (*Service)(nil)

func (s *Service) Save(_ context.Context, entry *schedule.Entry) error {
	if entry == nil {
		return dao.ErrNilEntity
	}
	if entry.ScheduleID == "" {
		return dao.ErrInvalidID
	}

	s.mux.Lock()
	defer s.mux.Unlock()
	clone := *entry
	s.entries[entry.ScheduleID] = &clone
	return nil
}

func (s *Service) Load(_ context.Context, id string) (*schedule.Entry, error) {
	if id == "" {
		return nil, dao.ErrInvalidID
	}

	s.mux.RLock()
	entry, ok := s.entries[id]
	s.mux.RUnlock()

	if !ok {
		return nil, dao.ErrNotFound
	}
	clone := *entry
	return &clone, nil
}

func (s *Service) Delete(_ context.Context, id string) error {
	if id == "" {
		return dao.ErrInvalidID
	}

	s.mux.Lock()
	defer s.mux.Unlock()
	if _, ok := s.entries[id]; !ok {
		return dao.ErrNotFound
	}
	delete(s.entries, id)
	return nil
}

func (s *Service) List(_ context.Context) ([]*schedule.Entry, error) {
	s.mux.RLock()
	defer s.mux.RUnlock()

	out := make([]*schedule.Entry, 0, len(s.entries))
	for _, entry := range s.entries {
		clone := *entry
		out = append(out, &clone)
	}
	return out, nil
}

// New creates an empty in-memory schedule store.
func New() *Service {
	return &Service{entries: map[string]*schedule.Entry{}}
}
