// Package ledger tracks named resources, their capacity and their active
// allocations with capacity-checked admission. It is the allocation-side
// counterpart of the bounded queue: admission is keyed by consumed amount
// instead of item count.
package ledger

import (
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog"
	"github.com/viant/priorq/internal/clock"
	"github.com/viant/priorq/model"
	"github.com/viant/priorq/model/resource"
	"github.com/viant/priorq/priority"
)

// Dimension selects how Prioritize ranks resources.
type Dimension string

const (
	DimensionUtilization Dimension = "utilization"
	DimensionType        Dimension = "type"
)

// Strategy selects which advisory rule BalanceAdvice applies.
type Strategy string

const (
	StrategyLoad     Strategy = "load"
	StrategyPriority Strategy = "priority"
)

// Advisory thresholds: utilization deviation from the cross-resource
// average, and the healthy band for mean allocation priority.
const (
	utilizationDeviation = 0.1
	priorityBandLow      = 0.3
	priorityBandHigh     = 0.7
)

// Rank is one entry of a resource ranking.
type Rank struct {
	ResourceID string  `json:"resourceID"`
	Priority   float64 `json:"priority"`
	Position   int     `json:"position"`
}

// Recommendation is an advisory balancing action; the ledger never moves
// allocations itself.
type Recommendation struct {
	ResourceID string  `json:"resourceID"`
	Action     string  `json:"action"`
	Current    float64 `json:"current"`
	Target     float64 `json:"target"`
	Reason     string  `json:"reason"`
}

// Advice is the outcome of a BalanceAdvice pass.
type Advice struct {
	Strategy        Strategy           `json:"strategy"`
	Recommendations []Recommendation   `json:"recommendations"`
	Utilizations    map[string]float64 `json:"utilizations"`
	Average         float64            `json:"average"`
}

// Service is the resource ledger. The mutex is held for the whole of every
// mutating operation so a capacity check and the admission it guards are
// atomic under concurrent callers.
type Service struct {
	logger      zerolog.Logger
	mu          sync.RWMutex
	resources   map[string]resource.Resource
	allocations map[string]resource.Allocation
}

// Option customises the ledger.
type Option func(*Service)

// WithLogger sets the structured logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// New creates an empty ledger.
func New(opts ...Option) *Service {
	s := &Service{
		logger:      zerolog.Nop(),
		resources:   map[string]resource.Resource{},
		allocations: map[string]resource.Allocation{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register adds a resource. The resource is immutable afterwards except
// for its allocation set; a duplicate id is a conflict.
func (s *Service) Register(id string, typ resource.Type, capacity float64) error {
	res := resource.Resource{ID: id, Type: typ, Capacity: capacity, RegisteredAt: clock.Now()}
	if err := res.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.resources[id]; ok {
		return fmt.Errorf("%w: resource %q already registered", model.ErrConflict, id)
	}
	s.resources[id] = res
	s.logger.Debug().
		Str("resource", id).
		Str("type", string(typ)).
		Float64("capacity", capacity).
		Msg("resource registered")
	return nil
}

// Allocate admits an allocation against a resource. The allocation is
// rejected whole when it would exceed capacity; nothing is ever partially
// admitted. When supplied is nil, the priority is derived from the
// resource's utilization before this allocation, adjusted for its type.
func (s *Service) Allocate(resourceID, allocationID string, amount float64, supplied *float64) (float64, error) {
	alloc := resource.Allocation{ID: allocationID, ResourceID: resourceID, Amount: amount}
	if err := alloc.Validate(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	res, ok := s.resources[resourceID]
	if !ok {
		return 0, fmt.Errorf("%w: resource %q", model.ErrNotFound, resourceID)
	}
	if _, ok := s.allocations[allocationID]; ok {
		return 0, fmt.Errorf("%w: allocation %q already exists", model.ErrConflict, allocationID)
	}
	allocated := s.allocatedOf(resourceID)
	if allocated+amount > res.Capacity {
		return 0, fmt.Errorf("%w: resource %q has %v of %v allocated, cannot admit %v",
			model.ErrCapacity, resourceID, allocated, res.Capacity, amount)
	}

	if supplied != nil {
		alloc.Priority = priority.Clamp(*supplied)
	} else {
		alloc.Priority = typeAdjust(allocated/res.Capacity, res.Type)
	}
	alloc.CreatedAt = clock.Now()
	s.allocations[allocationID] = alloc

	s.logger.Debug().
		Str("resource", resourceID).
		Str("allocation", allocationID).
		Float64("amount", amount).
		Float64("priority", alloc.Priority).
		Msg("allocation admitted")
	return alloc.Priority, nil
}

// Deallocate destroys an allocation, freeing its amount.
func (s *Service) Deallocate(allocationID string) error {
	if allocationID == "" {
		return fmt.Errorf("%w: allocation id is required", model.ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	alloc, ok := s.allocations[allocationID]
	if !ok {
		return fmt.Errorf("%w: allocation %q", model.ErrNotFound, allocationID)
	}
	delete(s.allocations, allocationID)
	s.logger.Debug().
		Str("resource", alloc.ResourceID).
		Str("allocation", allocationID).
		Float64("amount", alloc.Amount).
		Msg("allocation released")
	return nil
}

// typeAdjust applies the resource-type priority adjustment, clamped.
func typeAdjust(p float64, typ resource.Type) float64 {
	switch typ {
	case resource.TypeCritical:
		p += 0.2
	case resource.TypeLimited:
		p += 0.1
	case resource.TypeAbundant:
		p -= 0.2
	}
	return priority.Clamp(p)
}

// allocatedOf sums active allocation amounts for a resource. Caller holds
// at least a read lock.
func (s *Service) allocatedOf(resourceID string) float64 {
	total := 0.0
	for _, alloc := range s.allocations {
		if alloc.ResourceID == resourceID {
			total += alloc.Amount
		}
	}
	return total
}

// Utilization returns allocated/capacity for a resource.
func (s *Service) Utilization(resourceID string) (float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res, ok := s.resources[resourceID]
	if !ok {
		return 0, fmt.Errorf("%w: resource %q", model.ErrNotFound, resourceID)
	}
	return s.allocatedOf(resourceID) / res.Capacity, nil
}

// Prioritize ranks all registered resources by the selected dimension and
// returns the ranking highest first. No allocation state is mutated.
func (s *Service) Prioritize(dimension Dimension) ([]Rank, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ranks := make([]Rank, 0, len(s.resources))
	for id, res := range s.resources {
		var score float64
		switch dimension {
		case DimensionUtilization:
			score = s.allocatedOf(id) / res.Capacity
		case DimensionType:
			score = typeScore(res.Type)
		default:
			return nil, fmt.Errorf("%w: unknown dimension %q", model.ErrValidation, dimension)
		}
		ranks = append(ranks, Rank{ResourceID: id, Priority: score})
	}
	sort.SliceStable(ranks, func(i, j int) bool {
		if ranks[i].Priority != ranks[j].Priority {
			return ranks[i].Priority > ranks[j].Priority
		}
		return ranks[i].ResourceID < ranks[j].ResourceID
	})
	for i := range ranks {
		ranks[i].Position = i + 1
	}
	return ranks, nil
}

// typeScore maps a resource type onto a fixed ranking score.
func typeScore(typ resource.Type) float64 {
	switch typ {
	case resource.TypeCritical:
		return 0.9
	case resource.TypeLimited:
		return 0.7
	case resource.TypeAbundant:
		return 0.3
	}
	return 0.5
}

// BalanceAdvice inspects utilization (strategy load) or allocation
// priorities (strategy priority) and emits advisory recommendations.
func (s *Service) BalanceAdvice(strategy Strategy) (*Advice, error) {
	if strategy != StrategyLoad && strategy != StrategyPriority {
		return nil, fmt.Errorf("%w: unknown strategy %q", model.ErrValidation, strategy)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	advice := &Advice{Strategy: strategy, Utilizations: map[string]float64{}}
	for id, res := range s.resources {
		advice.Utilizations[id] = s.allocatedOf(id) / res.Capacity
	}
	if len(advice.Utilizations) > 0 {
		sum := 0.0
		for _, u := range advice.Utilizations {
			sum += u
		}
		advice.Average = sum / float64(len(advice.Utilizations))
	}

	ids := make([]string, 0, len(s.resources))
	for id := range s.resources {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	switch strategy {
	case StrategyLoad:
		for _, id := range ids {
			u := advice.Utilizations[id]
			switch {
			case u > advice.Average+utilizationDeviation:
				advice.Recommendations = append(advice.Recommendations, Recommendation{
					ResourceID: id, Action: "reduce_allocations",
					Current: u, Target: advice.Average,
					Reason: "utilization above cross-resource average",
				})
			case u < advice.Average-utilizationDeviation:
				advice.Recommendations = append(advice.Recommendations, Recommendation{
					ResourceID: id, Action: "increase_allocations",
					Current: u, Target: advice.Average,
					Reason: "utilization below cross-resource average",
				})
			}
		}
	case StrategyPriority:
		for _, id := range ids {
			mean, n := s.meanAllocationPriority(id)
			if n == 0 {
				continue
			}
			switch {
			case mean > priorityBandHigh:
				advice.Recommendations = append(advice.Recommendations, Recommendation{
					ResourceID: id, Action: "reduce_allocations",
					Current: mean, Target: 0.5,
					Reason: "average allocation priority above healthy band",
				})
			case mean < priorityBandLow:
				advice.Recommendations = append(advice.Recommendations, Recommendation{
					ResourceID: id, Action: "increase_allocations",
					Current: mean, Target: 0.5,
					Reason: "average allocation priority below healthy band",
				})
			}
		}
	}
	return advice, nil
}

// meanAllocationPriority averages priorities of a resource's allocations.
// Caller holds at least a read lock.
func (s *Service) meanAllocationPriority(resourceID string) (float64, int) {
	sum, n := 0.0, 0
	for _, alloc := range s.allocations {
		if alloc.ResourceID == resourceID {
			sum += alloc.Priority
			n++
		}
	}
	if n == 0 {
		return 0, 0
	}
	return sum / float64(n), n
}

// Resources returns a copy of every registered resource.
func (s *Service) Resources() []resource.Resource {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]resource.Resource, 0, len(s.resources))
	for _, res := range s.resources {
		out = append(out, res)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Allocations returns a copy of every active allocation.
func (s *Service) Allocations() []resource.Allocation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]resource.Allocation, 0, len(s.allocations))
	for _, alloc := range s.allocations {
		out = append(out, alloc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
