// Package reprioritizer recomputes stored priorities for already-queued
// items without changing queue membership. It can run on demand or on a
// fixed interval.
package reprioritizer

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/viant/priorq/internal/clock"
	"github.com/viant/priorq/model"
	"github.com/viant/priorq/model/item"
	"github.com/viant/priorq/queue"
)

// Dimension selects which boost rules a pass applies.
type Dimension string

const (
	DimensionUrgency    Dimension = "urgency"
	DimensionImportance Dimension = "importance"
	DimensionDeadline   Dimension = "deadline"
	DimensionAll        Dimension = "all"
)

// IsValid reports whether the dimension is recognised.
func (d Dimension) IsValid() bool {
	switch d {
	case DimensionUrgency, DimensionImportance, DimensionDeadline, DimensionAll:
		return true
	}
	return false
}

// Boost thresholds and amounts.
const (
	attributeThreshold = 0.7
	attributeBoost     = 0.1
	deadlineWindow     = time.Hour
	deadlineBoost      = 0.2
)

// Change records one item's priority move.
type Change struct {
	ID          string  `json:"id"`
	OldPriority float64 `json:"oldPriority"`
	NewPriority float64 `json:"newPriority"`
}

// Skip records an item a pass could not evaluate; the rest of the batch
// proceeds regardless.
type Skip struct {
	ID     string `json:"id"`
	Reason string `json:"reason"`
}

// Result is the outcome of one reprioritization pass.
type Result struct {
	Dimension Dimension `json:"dimension"`
	Changes   []Change  `json:"changes"`
	Skipped   []Skip    `json:"skipped,omitempty"`
	Total     int       `json:"total"`
}

// Config represents reprioritizer configuration.
type Config struct {
	// Interval is the cadence of automatic passes.
	Interval time.Duration
	// Auto enables the interval loop started by Start.
	Auto bool
}

// DefaultConfig returns the default reprioritizer configuration.
func DefaultConfig() Config {
	return Config{Interval: time.Minute}
}

// Service applies boost rules to one queue. Manual and automatic passes
// serialize through the queue's own mutator, so a pass never observes a
// half-applied concurrent mutation.
type Service struct {
	config     Config
	queue      *queue.Queue
	logger     zerolog.Logger
	shutdownCh chan struct{}
}

// Option customises the service.
type Option func(*Service)

// WithLogger sets the structured logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithConfig sets the configuration.
func WithConfig(config Config) Option {
	return func(s *Service) { s.config = config }
}

// New creates a reprioritizer for the given queue.
func New(q *queue.Queue, opts ...Option) *Service {
	s := &Service{
		config:     DefaultConfig(),
		queue:      q,
		logger:     zerolog.Nop(),
		shutdownCh: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.config.Interval <= 0 {
		s.config.Interval = DefaultConfig().Interval
	}
	return s
}

// Reprioritize applies the selected boosts to every queued item, clamped
// to [0,1], and rebuilds the queue ordering. Item count is unchanged. An
// item with a malformed deadline is skipped and reported, never fatal.
func (s *Service) Reprioritize(dimension Dimension) (*Result, error) {
	if !dimension.IsValid() {
		return nil, fmt.Errorf("%w: unknown dimension %q", model.ErrValidation, dimension)
	}
	result := &Result{Dimension: dimension}
	now := clock.Now()

	s.queue.Reweigh(func(it item.WorkItem) float64 {
		updated := s.boost(it, dimension, now, result)
		if updated != it.Priority {
			result.Changes = append(result.Changes, Change{
				ID:          it.ID,
				OldPriority: it.Priority,
				NewPriority: updated,
			})
		}
		result.Total++
		return updated
	})

	s.logger.Debug().
		Str("kind", string(s.queue.Kind())).
		Str("dimension", string(dimension)).
		Int("changed", len(result.Changes)).
		Int("skipped", len(result.Skipped)).
		Msg("reprioritization pass completed")
	return result, nil
}

// boost returns the item's new priority under the selected dimension.
func (s *Service) boost(it item.WorkItem, dimension Dimension, now time.Time, result *Result) float64 {
	p := it.Priority
	if dimension == DimensionAll || dimension == DimensionUrgency {
		if it.Urgency() > attributeThreshold {
			p = min(1, p+attributeBoost)
		}
	}
	if dimension == DimensionAll || dimension == DimensionImportance {
		if it.Importance() > attributeThreshold {
			p = min(1, p+attributeBoost)
		}
	}
	if dimension == DimensionAll || dimension == DimensionDeadline {
		deadline, ok, err := it.Deadline()
		if err != nil {
			result.Skipped = append(result.Skipped, Skip{ID: it.ID, Reason: err.Error()})
			return p
		}
		if ok {
			remaining := deadline.Sub(now)
			if remaining > 0 && remaining < deadlineWindow {
				p = min(1, p+deadlineBoost)
			}
		}
	}
	return p
}

// Start runs the automatic reprioritization loop until the context is
// cancelled or Shutdown is called. A no-op unless Auto is enabled.
func (s *Service) Start(ctx context.Context) error {
	if !s.config.Auto {
		return nil
	}
	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.shutdownCh:
			return nil
		case <-ticker.C:
			if _, err := s.Reprioritize(DimensionAll); err != nil {
				s.logger.Error().Err(err).Msg("automatic reprioritization failed")
			}
		}
	}
}

// Shutdown stops the automatic loop.
func (s *Service) Shutdown() {
	close(s.shutdownCh)
}
