package attr

import (
	"encoding/json"
	"sort"

	"github.com/google/uuid"

	"github.com/framelake/datacore/errors"
)

// Range is an inclusive [Min, Max] interval for numeric schemas.
type Range struct {
	Min float64
	Max float64
}

// Schema constrains the values of a single named attribute. The payload
// depends on the kind: categorical schemas hold a category set, numeric
// schemas an optional range, boolean schemas nothing. Schemas only grow;
// AddAttribute and MergeSchema never shrink the category set or range.
type Schema struct {
	kind       Kind
	name       string
	uuid       string
	categories map[string]struct{}
	rng        *Range
}

func newSchema(kind Kind, name string) *Schema {
	return &Schema{
		kind:       kind,
		name:       name,
		uuid:       uuid.NewString(),
		categories: make(map[string]struct{}),
	}
}

// NewCategoricalSchema creates a categorical Schema with the given
// initial categories.
func NewCategoricalSchema(name string, categories ...string) *Schema {
	s := newSchema(Categorical, name)
	for _, c := range categories {
		s.categories[c] = struct{}{}
	}
	return s
}

// NewNumericSchema creates a numeric Schema. A nil range means unset: no
// value validates until the range is initialized by AddAttribute or
// MergeSchema.
func NewNumericSchema(name string, r *Range) *Schema {
	s := newSchema(Numeric, name)
	if r != nil {
		rng := *r
		s.rng = &rng
	}
	return s
}

// NewBooleanSchema creates a boolean Schema.
func NewBooleanSchema(name string) *Schema {
	return newSchema(Boolean, name)
}

// Kind returns the schema's declared attribute kind.
func (s *Schema) Kind() Kind {
	return s.kind
}

// Name returns the attribute name the schema constrains.
func (s *Schema) Name() string {
	return s.name
}

// UUID returns the schema's opaque identifier.
func (s *Schema) UUID() string {
	return s.uuid
}

// Categories returns the category set in sorted order. Empty unless the
// schema is categorical.
func (s *Schema) Categories() []string {
	categories := make([]string, 0, len(s.categories))
	for c := range s.categories {
		categories = append(categories, c)
	}
	sort.Strings(categories)
	return categories
}

// Range returns the numeric range and whether it is set.
func (s *Schema) Range() (Range, bool) {
	if s.rng == nil {
		return Range{}, false
	}
	return *s.rng, true
}

// IsValidValue reports whether the value is valid for the attribute:
// categorical checks set membership, numeric checks inclusive range
// containment (false while the range is unset), boolean accepts any bool.
func (s *Schema) IsValidValue(value any) bool {
	switch s.kind {
	case Categorical:
		v, ok := value.(string)
		if !ok {
			return false
		}
		_, ok = s.categories[v]
		return ok

	case Numeric:
		f, ok := toFloat(value)
		if !ok || s.rng == nil {
			return false
		}
		return f >= s.rng.Min && f <= s.rng.Max

	case Boolean:
		_, ok := value.(bool)
		return ok
	}
	return false
}

// AddAttribute incorporates the attribute's value into the schema:
// categorical adds the category, numeric expands the range to cover the
// value (initializing an unset range), boolean is a no-op. Returns
// ErrTypeMismatch if the attribute's kind differs from the schema's.
func (s *Schema) AddAttribute(a Attribute) error {
	if err := s.validateKind(a); err != nil {
		return err
	}

	switch s.kind {
	case Categorical:
		s.categories[a.Category] = struct{}{}
	case Numeric:
		if s.rng == nil {
			s.rng = &Range{Min: a.Number, Max: a.Number}
		} else {
			s.rng.Min = min(s.rng.Min, a.Number)
			s.rng.Max = max(s.rng.Max, a.Number)
		}
	case Boolean:
		// nothing to record
	}
	return nil
}

// MergeSchema incorporates the other schema: categorical takes the set
// union, numeric the range union (an unset range absorbs the other's),
// boolean is a no-op. Returns ErrTypeMismatch if the kinds differ.
func (s *Schema) MergeSchema(other *Schema) error {
	if other.kind != s.kind {
		return errors.Wrapf(ErrTypeMismatch,
			"cannot merge schema of kind %q into schema %q of kind %q",
			other.kind, s.name, s.kind)
	}

	switch s.kind {
	case Categorical:
		for c := range other.categories {
			s.categories[c] = struct{}{}
		}
	case Numeric:
		if other.rng == nil {
			return nil
		}
		if s.rng == nil {
			rng := *other.rng
			s.rng = &rng
		} else {
			s.rng.Min = min(s.rng.Min, other.rng.Min)
			s.rng.Max = max(s.rng.Max, other.rng.Max)
		}
	case Boolean:
		// nothing to merge
	}
	return nil
}

func (s *Schema) validateKind(a Attribute) error {
	if a.Kind != s.kind {
		return errors.Wrapf(ErrTypeMismatch,
			"expected attribute %q to have kind %q; found %q", a.Name, s.kind, a.Kind)
	}
	return nil
}

// schemaEnvelope is the serialized form of a Schema. Payload fields are
// present depending on the variant.
type schemaEnvelope struct {
	Type       string    `json:"type"`
	Name       string    `json:"name"`
	UUID       string    `json:"uuid,omitempty"`
	Categories []string  `json:"categories,omitempty"`
	Range      []float64 `json:"range,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (s *Schema) MarshalJSON() ([]byte, error) {
	env := schemaEnvelope{
		Type: string(s.kind),
		Name: s.name,
		UUID: s.uuid,
	}
	switch s.kind {
	case Categorical:
		env.Categories = s.Categories()
	case Numeric:
		if s.rng != nil {
			env.Range = []float64{s.rng.Min, s.rng.Max}
		}
	}
	return json.Marshal(env)
}

// UnmarshalJSON implements json.Unmarshaler. Unknown discriminators yield
// ErrUnknownVariant; a missing uuid is regenerated.
func (s *Schema) UnmarshalJSON(data []byte) error {
	var env schemaEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return errors.Wrap(err, "failed to decode attribute schema")
	}

	kind := Kind(env.Type)
	switch kind {
	case Categorical, Numeric, Boolean:
	default:
		return errors.Wrapf(ErrUnknownVariant, "schema discriminator %q", env.Type)
	}

	parsed := newSchema(kind, env.Name)
	if env.UUID != "" {
		parsed.uuid = env.UUID
	}

	switch kind {
	case Categorical:
		for _, c := range env.Categories {
			parsed.categories[c] = struct{}{}
		}
	case Numeric:
		if len(env.Range) > 0 {
			if len(env.Range) != 2 {
				return errors.Wrapf(ErrValueParse,
					"schema %q: range must have exactly two elements, got %d",
					env.Name, len(env.Range))
			}
			parsed.rng = &Range{Min: env.Range[0], Max: env.Range[1]}
		}
	}

	*s = *parsed
	return nil
}
