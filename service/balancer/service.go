// Package balancer partitions queued work across named downstream
// resources. Balancing is read-only: it proposes a distribution over a
// queue snapshot and leaves the queue untouched for the caller to act on.
package balancer

import (
	"fmt"
	"sort"

	"github.com/rs/zerolog"
	"github.com/viant/priorq/model"
	"github.com/viant/priorq/model/item"
	"github.com/viant/priorq/queue"
)

// Strategy selects the distribution rule.
type Strategy string

const (
	// StrategyRoundRobin assigns items to resources in rotating order.
	StrategyRoundRobin Strategy = "round_robin"
	// StrategyLoad assigns the highest-priority items first, each to the
	// currently least-loaded resource.
	StrategyLoad Strategy = "load"
	// StrategyPriority assigns the highest-priority items first to the
	// resource with the highest remaining availability score, decaying the
	// chosen resource's score so bursts spread out.
	StrategyPriority Strategy = "priority"
)

// IsValid reports whether the strategy is recognised.
func (s Strategy) IsValid() bool {
	switch s {
	case StrategyRoundRobin, StrategyLoad, StrategyPriority:
		return true
	}
	return false
}

// availabilityDecay shrinks a resource's score after each priority-mode
// assignment.
const availabilityDecay = 0.9

// Plan is a proposed distribution of queued items across resources.
type Plan struct {
	Strategy    Strategy                   `json:"strategy"`
	Assignments map[string][]item.WorkItem `json:"assignments"`
	Counts      map[string]int             `json:"counts"`
	Total       int                        `json:"total"`
}

// Service plans distributions for one queue.
type Service struct {
	queue  *queue.Queue
	logger zerolog.Logger
}

// Option customises the service.
type Option func(*Service)

// WithLogger sets the structured logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// New creates a balancer for the given queue.
func New(q *queue.Queue, opts ...Option) *Service {
	s := &Service{queue: q, logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Balance snapshots the queue and partitions the items across the named
// resources. Resource names are required: an empty list is a validation
// error rather than a silent fallback to placeholder names.
func (s *Service) Balance(resourceNames []string, strategy Strategy) (*Plan, error) {
	if len(resourceNames) == 0 {
		return nil, fmt.Errorf("%w: at least one resource name is required", model.ErrValidation)
	}
	if !strategy.IsValid() {
		return nil, fmt.Errorf("%w: unknown strategy %q", model.ErrValidation, strategy)
	}

	items := s.queue.Snapshot()
	plan := &Plan{
		Strategy:    strategy,
		Assignments: make(map[string][]item.WorkItem, len(resourceNames)),
		Counts:      make(map[string]int, len(resourceNames)),
		Total:       len(items),
	}
	for _, name := range resourceNames {
		plan.Assignments[name] = nil
		plan.Counts[name] = 0
	}

	switch strategy {
	case StrategyRoundRobin:
		s.roundRobin(plan, items, resourceNames)
	case StrategyLoad:
		s.leastLoaded(plan, items, resourceNames)
	case StrategyPriority:
		s.priorityWeighted(plan, items, resourceNames)
	}

	s.logger.Debug().
		Str("kind", string(s.queue.Kind())).
		Str("strategy", string(strategy)).
		Int("items", plan.Total).
		Int("resources", len(resourceNames)).
		Msg("balance plan computed")
	return plan, nil
}

func (s *Service) roundRobin(plan *Plan, items []item.WorkItem, names []string) {
	for i, it := range items {
		name := names[i%len(names)]
		s.assign(plan, name, it)
	}
}

func (s *Service) leastLoaded(plan *Plan, items []item.WorkItem, names []string) {
	byPriority(items)
	for _, it := range items {
		// Ties break by resource list order.
		target := names[0]
		for _, name := range names[1:] {
			if plan.Counts[name] < plan.Counts[target] {
				target = name
			}
		}
		s.assign(plan, target, it)
	}
}

func (s *Service) priorityWeighted(plan *Plan, items []item.WorkItem, names []string) {
	byPriority(items)
	scores := make(map[string]float64, len(names))
	for _, name := range names {
		scores[name] = 1.0
	}
	for _, it := range items {
		target := names[0]
		for _, name := range names[1:] {
			if scores[name] > scores[target] {
				target = name
			}
		}
		s.assign(plan, target, it)
		scores[target] *= availabilityDecay
	}
}

func (s *Service) assign(plan *Plan, name string, it item.WorkItem) {
	plan.Assignments[name] = append(plan.Assignments[name], it)
	plan.Counts[name]++
}

// byPriority sorts items by priority descending, stably so that equal
// priorities keep snapshot order.
func byPriority(items []item.WorkItem) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Priority > items[j].Priority
	})
}
