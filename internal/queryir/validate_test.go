package queryir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_ValidPredicates(t *testing.T) {
	preds := []Predicate{
		nil,
		At(0),
		Greater(-1),
		Less(1),
		Between(0, 2),
		ExcludeID{ID: "x"},
		AllOf(Greater(2), ExcludeID{ID: "x"}),
		&And{Predicates: []Predicate{&PositionEquals{Value: 4}}},
	}

	for _, p := range preds {
		result := Validate(p)
		assert.True(t, result.IsValid, "%#v should be valid: %v", p, result.Warnings)
		assert.Empty(t, result.Warnings)
	}
}

func TestValidate_NegativeEquals(t *testing.T) {
	result := Validate(At(-1))

	assert.False(t, result.IsValid)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "never match")
}

func TestValidate_LessThanZero(t *testing.T) {
	result := Validate(&PositionLess{Value: 0})

	assert.False(t, result.IsValid)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "position < 0")
}

func TestValidate_EmptyRange(t *testing.T) {
	for _, b := range []PositionBetween{{Low: 3, High: 4}, {Low: 5, High: 5}, {Low: 6, High: 2}} {
		result := Validate(b)
		assert.False(t, result.IsValid, "%v", b)
		require.Len(t, result.Warnings, 1)
		assert.Contains(t, result.Warnings[0], "is empty")
	}
}

func TestValidate_RangeBelowZero(t *testing.T) {
	result := Validate(Between(-5, 0))

	assert.False(t, result.IsValid)
	assert.Contains(t, result.Warnings[0], "below position 0")
}

func TestValidate_EmptyExcludedID(t *testing.T) {
	result := Validate(ExcludeID{})

	assert.False(t, result.IsValid)
	assert.Contains(t, result.Warnings[0], "excluded id is empty")
}

func TestValidate_CollectsNestedWarnings(t *testing.T) {
	result := Validate(AllOf(At(-1), AllOf(Less(0), ExcludeID{})))

	assert.False(t, result.IsValid)
	assert.Len(t, result.Warnings, 3)
}

func TestValidate_UnknownType(t *testing.T) {
	result := Validate(foreignPredicate{})

	assert.False(t, result.IsValid)
	assert.Contains(t, result.Warnings[0], "unknown predicate type")
}
