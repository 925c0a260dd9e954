package ledger_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/viant/priorq/model"
	"github.com/viant/priorq/model/resource"
	"github.com/viant/priorq/service/ledger"
)

func floatPtr(v float64) *float64 { return &v }

func TestRegister(t *testing.T) {
	s := ledger.New()

	assert.NoError(t, s.Register("r1", resource.TypeCritical, 10))

	err := s.Register("r1", resource.TypeCritical, 10)
	assert.ErrorIs(t, err, model.ErrConflict)

	err = s.Register("r2", resource.TypeDefault, 0)
	assert.ErrorIs(t, err, model.ErrValidation)

	err = s.Register("", resource.TypeDefault, 5)
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestAllocate_CapacityCheck(t *testing.T) {
	s := ledger.New()
	assert.NoError(t, s.Register("r1", resource.TypeCritical, 10))

	_, err := s.Allocate("r1", "a1", 6, floatPtr(0.5))
	assert.NoError(t, err)

	// 6 of 10 used, 5 more would overflow: rejected whole.
	_, err = s.Allocate("r1", "a2", 5, floatPtr(0.5))
	assert.ErrorIs(t, err, model.ErrCapacity)

	u, err := s.Utilization("r1")
	assert.NoError(t, err)
	assert.InDelta(t, 0.6, u, 1e-9)

	assert.NoError(t, s.Deallocate("a1"))

	_, err = s.Allocate("r1", "a2", 5, floatPtr(0.5))
	assert.NoError(t, err)

	u, err = s.Utilization("r1")
	assert.NoError(t, err)
	assert.InDelta(t, 0.5, u, 1e-9)
}

func TestAllocate_Validation(t *testing.T) {
	s := ledger.New()
	assert.NoError(t, s.Register("r1", resource.TypeDefault, 10))

	_, err := s.Allocate("missing", "a1", 1, nil)
	assert.ErrorIs(t, err, model.ErrNotFound)

	_, err = s.Allocate("r1", "a1", 0, nil)
	assert.ErrorIs(t, err, model.ErrValidation)

	_, err = s.Allocate("r1", "a1", 1, nil)
	assert.NoError(t, err)

	_, err = s.Allocate("r1", "a1", 1, nil)
	assert.ErrorIs(t, err, model.ErrConflict)
}

func TestAllocate_DerivedPriority(t *testing.T) {
	s := ledger.New()
	assert.NoError(t, s.Register("crit", resource.TypeCritical, 10))
	assert.NoError(t, s.Register("plain", resource.TypeDefault, 10))

	// Empty resource: prior utilization 0, critical adjustment +0.2.
	p, err := s.Allocate("crit", "c1", 5, nil)
	assert.NoError(t, err)
	assert.InDelta(t, 0.2, p, 1e-9)

	// Prior utilization 0.5 plus the adjustment.
	p, err = s.Allocate("crit", "c2", 2, nil)
	assert.NoError(t, err)
	assert.InDelta(t, 0.7, p, 1e-9)

	p, err = s.Allocate("plain", "p1", 5, nil)
	assert.NoError(t, err)
	assert.InDelta(t, 0.0, p, 1e-9)

	// Supplied priorities are clamped, not derived.
	p, err = s.Allocate("plain", "p2", 1, floatPtr(1.8))
	assert.NoError(t, err)
	assert.Equal(t, 1.0, p)
}

func TestDeallocate(t *testing.T) {
	s := ledger.New()

	err := s.Deallocate("")
	assert.ErrorIs(t, err, model.ErrValidation)

	err = s.Deallocate("missing")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestPrioritize(t *testing.T) {
	s := ledger.New()
	assert.NoError(t, s.Register("busy", resource.TypeDefault, 10))
	assert.NoError(t, s.Register("idle", resource.TypeDefault, 10))
	assert.NoError(t, s.Register("crit", resource.TypeCritical, 10))
	_, err := s.Allocate("busy", "a1", 8, nil)
	assert.NoError(t, err)

	ranks, err := s.Prioritize(ledger.DimensionUtilization)
	assert.NoError(t, err)
	assert.Len(t, ranks, 3)
	assert.Equal(t, "busy", ranks[0].ResourceID)
	assert.Equal(t, 1, ranks[0].Position)
	assert.InDelta(t, 0.8, ranks[0].Priority, 1e-9)

	ranks, err = s.Prioritize(ledger.DimensionType)
	assert.NoError(t, err)
	assert.Equal(t, "crit", ranks[0].ResourceID)
	assert.InDelta(t, 0.9, ranks[0].Priority, 1e-9)

	_, err = s.Prioritize("bogus")
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestBalanceAdvice_Load(t *testing.T) {
	s := ledger.New()
	assert.NoError(t, s.Register("hot", resource.TypeDefault, 10))
	assert.NoError(t, s.Register("cold", resource.TypeDefault, 10))
	_, err := s.Allocate("hot", "a1", 9, nil)
	assert.NoError(t, err)

	advice, err := s.BalanceAdvice(ledger.StrategyLoad)
	assert.NoError(t, err)
	assert.InDelta(t, 0.45, advice.Average, 1e-9)
	assert.Len(t, advice.Recommendations, 2)

	byResource := map[string]string{}
	for _, rec := range advice.Recommendations {
		byResource[rec.ResourceID] = rec.Action
	}
	assert.Equal(t, "increase_allocations", byResource["cold"])
	assert.Equal(t, "reduce_allocations", byResource["hot"])
}

func TestBalanceAdvice_Priority(t *testing.T) {
	s := ledger.New()
	assert.NoError(t, s.Register("high", resource.TypeDefault, 10))
	assert.NoError(t, s.Register("low", resource.TypeDefault, 10))
	assert.NoError(t, s.Register("empty", resource.TypeDefault, 10))
	_, err := s.Allocate("high", "h1", 1, floatPtr(0.9))
	assert.NoError(t, err)
	_, err = s.Allocate("low", "l1", 1, floatPtr(0.1))
	assert.NoError(t, err)

	advice, err := s.BalanceAdvice(ledger.StrategyPriority)
	assert.NoError(t, err)
	assert.Len(t, advice.Recommendations, 2)

	byResource := map[string]string{}
	for _, rec := range advice.Recommendations {
		byResource[rec.ResourceID] = rec.Action
	}
	assert.Equal(t, "reduce_allocations", byResource["high"])
	assert.Equal(t, "increase_allocations", byResource["low"])

	_, err = s.BalanceAdvice("bogus")
	assert.ErrorIs(t, err, model.ErrValidation)
}
