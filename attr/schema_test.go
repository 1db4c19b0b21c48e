package attr

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/framelake/datacore/errors"
)

func TestCategoricalSchemaValidation(t *testing.T) {
	s := NewCategoricalSchema("road_type", "highway", "residential")

	assert.True(t, s.IsValidValue("highway"))
	assert.False(t, s.IsValidValue("dirt"))
	assert.False(t, s.IsValidValue(42.0))

	require.NoError(t, s.AddAttribute(NewCategorical("road_type", "dirt")))
	assert.True(t, s.IsValidValue("dirt"))
	assert.Equal(t, []string{"dirt", "highway", "residential"}, s.Categories())
}

func TestNumericSchemaRangeGrowth(t *testing.T) {
	s := NewNumericSchema("speed", nil)

	// Unset range rejects everything
	assert.False(t, s.IsValidValue(0.0))
	_, ok := s.Range()
	assert.False(t, ok)

	require.NoError(t, s.AddAttribute(NewNumeric("speed", 10)))
	r, ok := s.Range()
	require.True(t, ok)
	assert.Equal(t, Range{Min: 10, Max: 10}, r)

	require.NoError(t, s.AddAttribute(NewNumeric("speed", 4)))
	require.NoError(t, s.AddAttribute(NewNumeric("speed", 25)))
	r, _ = s.Range()
	assert.Equal(t, Range{Min: 4, Max: 25}, r)

	assert.True(t, s.IsValidValue(4.0))
	assert.True(t, s.IsValidValue(25.0))
	assert.True(t, s.IsValidValue(17.3))
	assert.False(t, s.IsValidValue(3.99))
	assert.False(t, s.IsValidValue(25.01))
}

func TestBooleanSchemaAcceptsAnyBool(t *testing.T) {
	s := NewBooleanSchema("occluded")

	assert.True(t, s.IsValidValue(true))
	assert.True(t, s.IsValidValue(false))
	assert.False(t, s.IsValidValue("true"))

	require.NoError(t, s.AddAttribute(NewBoolean("occluded", true)))
	require.NoError(t, s.MergeSchema(NewBooleanSchema("occluded")))
}

func TestSchemaKindMismatch(t *testing.T) {
	s := NewCategoricalSchema("road_type")

	err := s.AddAttribute(NewNumeric("road_type", 1))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTypeMismatch))

	err = s.MergeSchema(NewNumericSchema("road_type", nil))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTypeMismatch))
}

func TestNumericMergeIsCommutative(t *testing.T) {
	build := func(r *Range) *Schema { return NewNumericSchema("speed", r) }

	a := build(&Range{Min: 0, Max: 10})
	b := build(&Range{Min: 5, Max: 25})
	require.NoError(t, a.MergeSchema(b))

	c := build(&Range{Min: 5, Max: 25})
	d := build(&Range{Min: 0, Max: 10})
	require.NoError(t, c.MergeSchema(d))

	ra, _ := a.Range()
	rc, _ := c.Range()
	assert.Equal(t, Range{Min: 0, Max: 25}, ra)
	assert.Equal(t, ra, rc)

	// Unset range absorbs the other's range
	e := build(nil)
	require.NoError(t, e.MergeSchema(build(&Range{Min: 2, Max: 3})))
	re, ok := e.Range()
	require.True(t, ok)
	assert.Equal(t, Range{Min: 2, Max: 3}, re)

	// Merging an unset range changes nothing
	require.NoError(t, e.MergeSchema(build(nil)))
	re, _ = e.Range()
	assert.Equal(t, Range{Min: 2, Max: 3}, re)
}

func TestCategoricalMergeIsIdempotent(t *testing.T) {
	a := NewCategoricalSchema("label", "cat", "dog")
	b := NewCategoricalSchema("label", "dog", "bird")

	require.NoError(t, a.MergeSchema(b))
	assert.Equal(t, []string{"bird", "cat", "dog"}, a.Categories())

	// Self-merge is a fixed point
	require.NoError(t, a.MergeSchema(a))
	assert.Equal(t, []string{"bird", "cat", "dog"}, a.Categories())
}

func TestSchemaRoundTrip(t *testing.T) {
	schemas := []*Schema{
		NewCategoricalSchema("road_type", "highway", "residential"),
		NewNumericSchema("speed", &Range{Min: 0, Max: 120}),
		NewNumericSchema("altitude", nil),
		NewBooleanSchema("occluded"),
	}

	for _, original := range schemas {
		data, err := json.Marshal(original)
		require.NoError(t, err)

		var decoded Schema
		require.NoError(t, json.Unmarshal(data, &decoded))

		assert.Equal(t, original.Kind(), decoded.Kind())
		assert.Equal(t, original.Name(), decoded.Name())
		assert.Equal(t, original.UUID(), decoded.UUID())
		assert.Equal(t, original.Categories(), decoded.Categories())

		ro, oko := original.Range()
		rd, okd := decoded.Range()
		assert.Equal(t, oko, okd)
		assert.Equal(t, ro, rd)
	}
}

func TestSchemaUnmarshalErrors(t *testing.T) {
	var s Schema

	err := json.Unmarshal([]byte(`{"type": "vector", "name": "x"}`), &s)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownVariant))

	err = json.Unmarshal([]byte(`{"type": "numeric", "name": "x", "range": [1]}`), &s)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValueParse))
}

func TestSchemaGeneratesUUID(t *testing.T) {
	a := NewBooleanSchema("x")
	b := NewBooleanSchema("x")
	assert.NotEmpty(t, a.UUID())
	assert.NotEqual(t, a.UUID(), b.UUID())

	// A serialized uuid survives the round trip
	var decoded Schema
	require.NoError(t, json.Unmarshal([]byte(`{"type": "boolean", "name": "x", "uuid": "fixed"}`), &decoded))
	assert.Equal(t, "fixed", decoded.UUID())

	// A missing uuid is regenerated
	require.NoError(t, json.Unmarshal([]byte(`{"type": "boolean", "name": "x"}`), &decoded))
	assert.NotEmpty(t, decoded.UUID())
}
