package item

import (
	"fmt"
	"time"

	"github.com/viant/priorq/model"
)

// Kind tags which engine a work item belongs to. The admission and
// scheduling semantics are identical across kinds; the tag only keeps the
// two populations separate.
type Kind string

const (
	KindTask    Kind = "task"
	KindRequest Kind = "request"
)

// Kinds returns all supported item kinds.
func Kinds() []Kind { return []Kind{KindTask, KindRequest} }

// IsValid reports whether the kind is one of the supported values.
func (k Kind) IsValid() bool { return k == KindTask || k == KindRequest }

// Type classifies a work item for priority adjustment purposes.
type Type string

const (
	TypeCritical   Type = "critical"
	TypeUrgent     Type = "urgent"
	TypeBackground Type = "background"
	TypeDefault    Type = "default"
)

// Payload keys recognised by the priority calculator. Everything else in
// the payload is opaque to the engine.
const (
	keyUrgency    = "urgency"
	keyImportance = "importance"
	keyComplexity = "complexity"
	keyDeadline   = "deadline"
	keyType       = "type"
)

// WorkItem is a unit of admissible work. Payload is owned by the caller
// until Submit; afterwards the engine keeps its own copy and every read
// returns a fresh snapshot.
type WorkItem struct {
	ID         string                 `json:"id"`
	Kind       Kind                   `json:"kind"`
	Payload    map[string]interface{} `json:"payload"`
	Priority   float64                `json:"priority"`
	EnqueuedAt time.Time              `json:"enqueuedAt"`
}

// Validate checks the invariants required before admission.
func (i *WorkItem) Validate() error {
	if i.ID == "" {
		return fmt.Errorf("%w: item id is required", model.ErrValidation)
	}
	if i.Payload == nil {
		return fmt.Errorf("%w: item payload is required", model.ErrValidation)
	}
	return nil
}

// Clone returns a copy with its own payload map so callers never hold
// references into engine-owned state.
func (i WorkItem) Clone() WorkItem {
	ret := i
	if i.Payload != nil {
		ret.Payload = make(map[string]interface{}, len(i.Payload))
		for k, v := range i.Payload {
			ret.Payload[k] = v
		}
	}
	return ret
}

// Urgency returns the urgency attribute, defaulting to 0.5.
func (i WorkItem) Urgency() float64 { return i.floatAttr(keyUrgency, 0.5) }

// Importance returns the importance attribute, defaulting to 0.5.
func (i WorkItem) Importance() float64 { return i.floatAttr(keyImportance, 0.5) }

// Complexity returns the complexity attribute, defaulting to 0.5.
func (i WorkItem) Complexity() float64 { return i.floatAttr(keyComplexity, 0.5) }

// TypeOf returns the item type, defaulting to TypeDefault when absent or
// unrecognised.
func (i WorkItem) TypeOf() Type {
	raw, ok := i.Payload[keyType]
	if !ok {
		return TypeDefault
	}
	s, ok := raw.(string)
	if !ok {
		return TypeDefault
	}
	switch Type(s) {
	case TypeCritical, TypeUrgent, TypeBackground:
		return Type(s)
	}
	return TypeDefault
}

// Deadline returns the parsed deadline attribute. The second result is
// false when no deadline is present; a malformed value yields an error so
// batch operations can skip the item instead of aborting.
func (i WorkItem) Deadline() (time.Time, bool, error) {
	raw, ok := i.Payload[keyDeadline]
	if !ok || raw == nil {
		return time.Time{}, false, nil
	}
	switch v := raw.(type) {
	case time.Time:
		return v, true, nil
	case string:
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return time.Time{}, false, fmt.Errorf("%w: malformed deadline %q", model.ErrValidation, v)
		}
		return t, true, nil
	}
	return time.Time{}, false, fmt.Errorf("%w: unsupported deadline type %T", model.ErrValidation, raw)
}

func (i WorkItem) floatAttr(key string, dflt float64) float64 {
	raw, ok := i.Payload[key]
	if !ok {
		return dflt
	}
	switch v := raw.(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	}
	return dflt
}
