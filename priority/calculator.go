// Package priority computes admission priorities in [0,1] from item
// attributes. The calculation is pure: given the same attributes and the
// same clock reading it always yields the same value.
package priority

import (
	"time"

	"github.com/viant/priorq/internal/clock"
	"github.com/viant/priorq/model/item"
)

// deadlineHorizon is the window over which an approaching deadline raises
// priority; anything further out contributes nothing.
const deadlineHorizon = 24 * time.Hour

// Weights of the base formula.
const (
	urgencyWeight    = 0.3
	importanceWeight = 0.3
	deadlineWeight   = 0.3
	simplicityWeight = 0.1
)

// Clamp bounds a priority value to [0,1].
func Clamp(p float64) float64 {
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}

// DeadlineFactor maps time-to-deadline onto [0,1]: 1 when overdue, rising
// linearly from 0 as the deadline approaches within the 24h horizon.
func DeadlineFactor(deadline, now time.Time) float64 {
	remaining := deadline.Sub(now)
	if remaining <= 0 {
		return 1
	}
	return Clamp(1 - remaining.Seconds()/deadlineHorizon.Seconds())
}

// AdjustForType applies the item-type adjustment and clamps the result.
func AdjustForType(p float64, t item.Type) float64 {
	switch t {
	case item.TypeCritical:
		p += 0.2
	case item.TypeUrgent:
		p += 0.1
	case item.TypeBackground:
		p -= 0.2
	}
	return Clamp(p)
}

// Compute derives a priority from the item's urgency, importance,
// complexity, deadline and type attributes. A malformed deadline is
// treated as absent; admission never fails on it.
func Compute(it item.WorkItem) float64 {
	now := clock.Now()
	factor := 0.0
	if deadline, ok, err := it.Deadline(); err == nil && ok {
		factor = DeadlineFactor(deadline, now)
	}
	base := urgencyWeight*it.Urgency() +
		importanceWeight*it.Importance() +
		deadlineWeight*factor +
		simplicityWeight*(1-it.Complexity())
	return AdjustForType(base, it.TypeOf())
}
