package priorq

import "github.com/viant/priorq/model"

// Error taxonomy re-exported for caller convenience; see the model package
// for the definitions. All engine errors wrap one of these sentinels.
var (
	ErrValidation = model.ErrValidation
	ErrNotFound   = model.ErrNotFound
	ErrCapacity   = model.ErrCapacity
	ErrConflict   = model.ErrConflict
)
