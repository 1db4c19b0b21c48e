package attr

import (
	"encoding/json"
	"sort"

	"github.com/framelake/datacore/errors"
)

// Container is an ordered collection of attributes. Insertion order is
// preserved and duplicates are allowed. A container may enforce a
// ContainerSchema, in which case every addition is validated first; the
// schema is shared, not owned, so the same schema object may back several
// containers.
type Container struct {
	attrs  []Attribute
	schema *ContainerSchema
}

// NewContainer creates a Container holding the given attributes with no
// enforced schema.
func NewContainer(attrs ...Attribute) *Container {
	return &Container{attrs: append([]Attribute(nil), attrs...)}
}

// NewContainerWithSchema creates a Container that enforces the given
// schema. The initial attributes are validated against it.
func NewContainerWithSchema(schema *ContainerSchema, attrs ...Attribute) (*Container, error) {
	c := NewContainer(attrs...)
	if err := c.SetSchema(schema); err != nil {
		return nil, err
	}
	return c, nil
}

// Len returns the number of attributes in the container.
func (c *Container) Len() int {
	return len(c.attrs)
}

// At returns the attribute at index i.
func (c *Container) At(i int) Attribute {
	return c.attrs[i]
}

// Attributes returns a copy of the attributes in insertion order.
func (c *Container) Attributes() []Attribute {
	return append([]Attribute(nil), c.attrs...)
}

// HasSchema reports whether the container has an enforced schema.
func (c *Container) HasSchema() bool {
	return c.schema != nil
}

// Schema returns the enforced schema, or nil if none is enforced.
func (c *Container) Schema() *ContainerSchema {
	return c.schema
}

// Add appends an attribute to the container. If a schema is enforced the
// attribute is validated first and the container is unchanged on failure.
func (c *Container) Add(a Attribute) error {
	if c.schema != nil {
		if err := c.schema.ValidateAttribute(a); err != nil {
			return err
		}
	}
	c.attrs = append(c.attrs, a)
	return nil
}

// AddContainer appends every attribute of other to this container. With a
// schema enforced, all of other's attributes are validated before any are
// added; on failure none are added and the triggering error is returned.
func (c *Container) AddContainer(other *Container) error {
	if c.schema != nil {
		for _, a := range other.attrs {
			if err := c.schema.ValidateAttribute(a); err != nil {
				return err
			}
		}
	}
	c.attrs = append(c.attrs, other.attrs...)
	return nil
}

// ActiveSchema builds a fresh ContainerSchema describing the attributes
// currently in the container. The enforced schema is not consulted or
// mutated.
func (c *Container) ActiveSchema() (*ContainerSchema, error) {
	return BuildActiveSchema(c)
}

// SetSchema sets the enforced schema, validating the container's current
// contents against it first. A nil schema detaches enforcement.
func (c *Container) SetSchema(schema *ContainerSchema) error {
	if schema != nil {
		for _, a := range c.attrs {
			if err := schema.ValidateAttribute(a); err != nil {
				return err
			}
		}
	}
	c.schema = schema
	return nil
}

// FreezeSchema sets the enforced schema to the current active schema, so
// subsequent additions are restricted to the categories and ranges
// observed now.
func (c *Container) FreezeSchema() error {
	schema, err := BuildActiveSchema(c)
	if err != nil {
		return err
	}
	c.schema = schema
	return nil
}

// RemoveSchema detaches the enforced schema; subsequent additions are
// unconstrained.
func (c *Container) RemoveSchema() {
	c.schema = nil
}

// containerEnvelope is the serialized form of a Container. The schema
// field is present only when a schema is enforced.
type containerEnvelope struct {
	Attrs  []Attribute      `json:"attrs"`
	Schema *ContainerSchema `json:"schema,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (c *Container) MarshalJSON() ([]byte, error) {
	attrs := c.attrs
	if attrs == nil {
		attrs = []Attribute{}
	}
	return json.Marshal(containerEnvelope{Attrs: attrs, Schema: c.schema})
}

// UnmarshalJSON implements json.Unmarshaler. A serialized schema is
// re-enforced, so the decoded attributes are validated against it.
func (c *Container) UnmarshalJSON(data []byte) error {
	var env containerEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return errors.Wrap(err, "failed to decode attribute container")
	}

	decoded := Container{attrs: env.Attrs}
	if env.Schema != nil {
		if err := decoded.SetSchema(env.Schema); err != nil {
			return err
		}
	}
	*c = decoded
	return nil
}

// ContainerSchema maps attribute names to the Schema constraining each.
// An entry's declared kind is fixed by the first observed attribute with
// that name.
type ContainerSchema struct {
	entries map[string]*Schema
}

// NewContainerSchema creates an empty ContainerSchema.
func NewContainerSchema() *ContainerSchema {
	return &ContainerSchema{entries: make(map[string]*Schema)}
}

// BuildActiveSchema builds a ContainerSchema describing the attributes
// currently in the container.
func BuildActiveSchema(c *Container) (*ContainerSchema, error) {
	schema := NewContainerSchema()
	if err := schema.AddAttributes(c); err != nil {
		return nil, err
	}
	return schema, nil
}

// Len returns the number of attribute entries in the schema.
func (cs *ContainerSchema) Len() int {
	return len(cs.entries)
}

// HasAttribute reports whether the schema has an entry for name.
func (cs *ContainerSchema) HasAttribute(name string) bool {
	_, ok := cs.entries[name]
	return ok
}

// Entry returns the Schema for name and whether it exists.
func (cs *ContainerSchema) Entry(name string) (*Schema, bool) {
	entry, ok := cs.entries[name]
	return entry, ok
}

// AttributeKind returns the declared kind for name, or ErrNameNotFound if
// the schema has no such entry.
func (cs *ContainerSchema) AttributeKind(name string) (Kind, error) {
	entry, ok := cs.entries[name]
	if !ok {
		return "", errors.Wrapf(ErrNameNotFound,
			"attribute %q is not allowed by the schema", name)
	}
	return entry.kind, nil
}

// Names returns the attribute names in the schema in sorted order.
func (cs *ContainerSchema) Names() []string {
	names := make([]string, 0, len(cs.entries))
	for name := range cs.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// AddAttribute incorporates the attribute into the schema, creating an
// entry typed by the attribute's own kind on first sight of its name.
func (cs *ContainerSchema) AddAttribute(a Attribute) error {
	entry, ok := cs.entries[a.Name]
	if !ok {
		entry = newSchema(a.Kind, a.Name)
		cs.entries[a.Name] = entry
	}
	return entry.AddAttribute(a)
}

// AddAttributes incorporates every attribute of the container into the
// schema.
func (cs *ContainerSchema) AddAttributes(c *Container) error {
	for _, a := range c.attrs {
		if err := cs.AddAttribute(a); err != nil {
			return err
		}
	}
	return nil
}

// MergeSchema merges the other ContainerSchema into this one. Entries for
// new names are adopted as-is (shared); entries for existing names merge
// per their kind's semantics.
func (cs *ContainerSchema) MergeSchema(other *ContainerSchema) error {
	for name, entry := range other.entries {
		existing, ok := cs.entries[name]
		if !ok {
			cs.entries[name] = entry
			continue
		}
		if err := existing.MergeSchema(entry); err != nil {
			return err
		}
	}
	return nil
}

// ValidateAttribute validates the attribute against the schema: the name
// must be known (ErrNameNotFound), the kind must match the entry's
// declared kind (ErrTypeMismatch), and the value must satisfy the entry's
// constraint (ErrValueNotAllowed).
func (cs *ContainerSchema) ValidateAttribute(a Attribute) error {
	entry, ok := cs.entries[a.Name]
	if !ok {
		return errors.Wrapf(ErrNameNotFound,
			"attribute %q is not allowed by the schema", a.Name)
	}

	if err := entry.validateKind(a); err != nil {
		return err
	}

	if !entry.IsValidValue(a.Value()) {
		return errors.Wrapf(ErrValueNotAllowed,
			"value %v of attribute %q is not allowed by the schema", a.Value(), a.Name)
	}
	return nil
}

// containerSchemaEnvelope is the serialized form of a ContainerSchema.
type containerSchemaEnvelope struct {
	Schema map[string]*Schema `json:"schema"`
}

// MarshalJSON implements json.Marshaler.
func (cs *ContainerSchema) MarshalJSON() ([]byte, error) {
	entries := cs.entries
	if entries == nil {
		entries = map[string]*Schema{}
	}
	return json.Marshal(containerSchemaEnvelope{Schema: entries})
}

// UnmarshalJSON implements json.Unmarshaler.
func (cs *ContainerSchema) UnmarshalJSON(data []byte) error {
	var env containerSchemaEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return errors.Wrap(err, "failed to decode container schema")
	}
	if env.Schema == nil {
		env.Schema = make(map[string]*Schema)
	}
	cs.entries = env.Schema
	return nil
}
