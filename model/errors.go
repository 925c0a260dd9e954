package model

import "errors"

// Engine-wide error taxonomy. Using sentinel variables allows callers to
// reliably classify failures via errors.Is instead of brittle string
// comparisons. Every operation rejects before mutating, so an error never
// leaves a queue or ledger partially updated.

var (
	// ErrValidation indicates a malformed request: missing id/payload,
	// an unparsable schedule time, or a non-positive amount/capacity.
	ErrValidation = errors.New("priorq: validation")

	// ErrNotFound is returned when the referenced resource, allocation or
	// schedule entry does not exist.
	ErrNotFound = errors.New("priorq: not found")

	// ErrCapacity is returned when an allocation would exceed the capacity
	// of its resource. The allocation is rejected whole.
	ErrCapacity = errors.New("priorq: capacity exceeded")

	// ErrConflict indicates a duplicate resource or allocation identifier.
	ErrConflict = errors.New("priorq: conflict")
)
