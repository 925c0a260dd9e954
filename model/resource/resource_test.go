package resource

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/viant/priorq/model"
)

func TestParseType(t *testing.T) {
	assert.Equal(t, TypeCritical, ParseType("critical"))
	assert.Equal(t, TypeLimited, ParseType("limited"))
	assert.Equal(t, TypeAbundant, ParseType("abundant"))
	assert.Equal(t, TypeDefault, ParseType("default"))
	assert.Equal(t, TypeDefault, ParseType("whatever"))
	assert.Equal(t, TypeDefault, ParseType(""))
}

func TestResourceValidate(t *testing.T) {
	res := Resource{ID: "r1", Type: TypeDefault, Capacity: 10}
	assert.NoError(t, res.Validate())

	res = Resource{Type: TypeDefault, Capacity: 10}
	assert.ErrorIs(t, res.Validate(), model.ErrValidation)

	res = Resource{ID: "r1", Capacity: 0}
	assert.ErrorIs(t, res.Validate(), model.ErrValidation)
}

func TestAllocationValidate(t *testing.T) {
	alloc := Allocation{ID: "a1", ResourceID: "r1", Amount: 1}
	assert.NoError(t, alloc.Validate())

	alloc = Allocation{ResourceID: "r1", Amount: 1}
	assert.ErrorIs(t, alloc.Validate(), model.ErrValidation)

	alloc = Allocation{ID: "a1", Amount: 1}
	assert.ErrorIs(t, alloc.Validate(), model.ErrValidation)

	alloc = Allocation{ID: "a1", ResourceID: "r1", Amount: -2}
	assert.ErrorIs(t, alloc.Validate(), model.ErrValidation)
}
