// Package resource defines the ledger-side data model: named resources
// with a fixed capacity and the allocations drawn against them.
package resource

import (
	"fmt"
	"time"

	"github.com/viant/priorq/model"
)

// Type classifies a resource for priority adjustment and ranking.
type Type string

const (
	TypeCritical Type = "critical"
	TypeLimited  Type = "limited"
	TypeAbundant Type = "abundant"
	TypeDefault  Type = "default"
)

// ParseType maps a raw string onto a resource type, defaulting to
// TypeDefault for unknown values.
func ParseType(s string) Type {
	switch Type(s) {
	case TypeCritical, TypeLimited, TypeAbundant:
		return Type(s)
	}
	return TypeDefault
}

// Resource is registered once and immutable afterwards except for its
// allocation set.
type Resource struct {
	ID           string    `json:"id"`
	Type         Type      `json:"type"`
	Capacity     float64   `json:"capacity"`
	RegisteredAt time.Time `json:"registeredAt"`
}

// Validate checks the registration invariants.
func (r *Resource) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("%w: resource id is required", model.ErrValidation)
	}
	if r.Capacity <= 0 {
		return fmt.Errorf("%w: resource capacity must be positive", model.ErrValidation)
	}
	return nil
}

// Allocation is an active claim of amount against a resource. The ledger
// guarantees the sum of amounts per resource never exceeds its capacity.
type Allocation struct {
	ID         string    `json:"id"`
	ResourceID string    `json:"resourceID"`
	Amount     float64   `json:"amount"`
	Priority   float64   `json:"priority"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Validate checks the admission invariants.
func (a *Allocation) Validate() error {
	if a.ID == "" {
		return fmt.Errorf("%w: allocation id is required", model.ErrValidation)
	}
	if a.ResourceID == "" {
		return fmt.Errorf("%w: resource id is required", model.ErrValidation)
	}
	if a.Amount <= 0 {
		return fmt.Errorf("%w: allocation amount must be positive", model.ErrValidation)
	}
	return nil
}
