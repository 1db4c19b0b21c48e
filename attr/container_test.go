package attr

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/framelake/datacore/errors"
)

func testContainer(t *testing.T) *Container {
	t.Helper()
	c := NewContainer()
	require.NoError(t, c.Add(NewCategorical("road_type", "highway")))
	require.NoError(t, c.Add(NewCategorical("road_type", "residential")))
	require.NoError(t, c.Add(NewNumeric("speed", 10)))
	require.NoError(t, c.Add(NewNumeric("speed", 25)))
	require.NoError(t, c.Add(NewBoolean("occluded", true)))
	return c
}

func TestContainerPreservesOrderAndDuplicates(t *testing.T) {
	c := NewContainer()
	require.NoError(t, c.Add(NewCategorical("label", "cat")))
	require.NoError(t, c.Add(NewCategorical("label", "cat")))
	require.NoError(t, c.Add(NewCategorical("label", "dog")))

	require.Equal(t, 3, c.Len())
	assert.Equal(t, "cat", c.At(0).Category)
	assert.Equal(t, "cat", c.At(1).Category)
	assert.Equal(t, "dog", c.At(2).Category)
}

func TestActiveSchemaIsReflexive(t *testing.T) {
	c := testContainer(t)

	schema, err := c.ActiveSchema()
	require.NoError(t, err)

	// Every attribute currently in the container validates
	for _, a := range c.Attributes() {
		assert.NoError(t, schema.ValidateAttribute(a))
	}

	// Building the active schema does not attach enforcement
	assert.False(t, c.HasSchema())
}

func TestActiveSchemaKindConflict(t *testing.T) {
	c := NewContainer()
	require.NoError(t, c.Add(NewCategorical("x", "a")))
	require.NoError(t, c.Add(NewNumeric("x", 1)))

	_, err := c.ActiveSchema()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTypeMismatch))
}

func TestFreezeSchemaRestrictsAdditions(t *testing.T) {
	c := testContainer(t)
	require.NoError(t, c.FreezeSchema())
	require.True(t, c.HasSchema())

	// Within the observed categories/ranges
	assert.NoError(t, c.Add(NewCategorical("road_type", "highway")))
	assert.NoError(t, c.Add(NewNumeric("speed", 17.5)))

	// Outside them
	err := c.Add(NewCategorical("road_type", "dirt"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValueNotAllowed))

	err = c.Add(NewNumeric("speed", 26))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValueNotAllowed))

	// Unknown name
	err = c.Add(NewBoolean("blurred", false))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNameNotFound))

	// Kind mismatch against the declared entry
	err = c.Add(NewCategorical("speed", "fast"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTypeMismatch))

	// Detaching enforcement lifts all restrictions
	c.RemoveSchema()
	assert.NoError(t, c.Add(NewCategorical("road_type", "dirt")))
}

func TestAddContainerIsAtomic(t *testing.T) {
	c := testContainer(t)
	require.NoError(t, c.FreezeSchema())
	before := c.Len()

	other := NewContainer()
	require.NoError(t, other.Add(NewCategorical("road_type", "highway")))
	require.NoError(t, other.Add(NewNumeric("speed", 1000))) // violates the frozen range

	err := c.AddContainer(other)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValueNotAllowed))
	assert.Equal(t, before, c.Len(), "no elements may be added when any fails validation")

	// A fully valid container is added wholesale
	valid := NewContainer()
	require.NoError(t, valid.Add(NewNumeric("speed", 12)))
	require.NoError(t, valid.Add(NewBoolean("occluded", false)))
	require.NoError(t, c.AddContainer(valid))
	assert.Equal(t, before+2, c.Len())
}

func TestSetSchemaValidatesExistingContents(t *testing.T) {
	c := testContainer(t)

	schema := NewContainerSchema()
	require.NoError(t, schema.AddAttribute(NewCategorical("road_type", "highway")))

	err := c.SetSchema(schema)
	require.Error(t, err)
	assert.False(t, c.HasSchema())
}

func TestSchemaIsSharedNotOwned(t *testing.T) {
	schema := NewContainerSchema()
	require.NoError(t, schema.AddAttribute(NewCategorical("label", "cat")))

	c1, err := NewContainerWithSchema(schema)
	require.NoError(t, err)
	c2, err := NewContainerWithSchema(schema)
	require.NoError(t, err)

	assert.Same(t, c1.Schema(), c2.Schema())
}

func TestContainerSchemaMerge(t *testing.T) {
	left := NewContainerSchema()
	require.NoError(t, left.AddAttribute(NewCategorical("label", "cat")))
	require.NoError(t, left.AddAttribute(NewNumeric("speed", 5)))

	right := NewContainerSchema()
	require.NoError(t, right.AddAttribute(NewCategorical("label", "dog")))
	require.NoError(t, right.AddAttribute(NewBoolean("occluded", true)))

	require.NoError(t, left.MergeSchema(right))
	assert.Equal(t, []string{"label", "occluded", "speed"}, left.Names())

	entry, ok := left.Entry("label")
	require.True(t, ok)
	assert.Equal(t, []string{"cat", "dog"}, entry.Categories())

	// Kind conflict on an existing name propagates
	conflict := NewContainerSchema()
	require.NoError(t, conflict.AddAttribute(NewNumeric("label", 1)))
	err := left.MergeSchema(conflict)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTypeMismatch))
}

func TestContainerRoundTrip(t *testing.T) {
	c := testContainer(t)
	require.NoError(t, c.FreezeSchema())

	data, err := json.Marshal(c)
	require.NoError(t, err)

	var decoded Container
	require.NoError(t, json.Unmarshal(data, &decoded))

	require.Equal(t, c.Len(), decoded.Len())
	assert.Equal(t, c.Attributes(), decoded.Attributes())
	require.True(t, decoded.HasSchema())
	assert.Equal(t, c.Schema().Names(), decoded.Schema().Names())

	// Enforcement survives the round trip
	err = decoded.Add(NewNumeric("speed", 1000))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValueNotAllowed))
}

func TestContainerRoundTripWithoutSchema(t *testing.T) {
	c := NewContainer(NewBoolean("occluded", true))

	data, err := json.Marshal(c)
	require.NoError(t, err)
	assert.NotContains(t, string(data), `"schema"`)

	var decoded Container
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.False(t, decoded.HasSchema())
	assert.Equal(t, c.Attributes(), decoded.Attributes())
}
