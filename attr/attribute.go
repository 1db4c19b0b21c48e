package attr

import (
	"encoding/json"
	"strconv"
	"sync"

	"github.com/framelake/datacore/errors"
)

// Kind identifies an attribute variant. The kind doubles as the
// discriminator embedded in serialized attributes and schemas.
type Kind string

const (
	// Categorical attributes hold a string drawn from a set of categories
	Categorical Kind = "categorical"
	// Numeric attributes hold a 64-bit float
	Numeric Kind = "numeric"
	// Boolean attributes hold a bool
	Boolean Kind = "boolean"
)

// Attribute is a named, typed, optionally confidence-scored value.
// Exactly one of the payload fields is meaningful, selected by Kind.
// Attributes are value types; replace rather than mutate them.
type Attribute struct {
	Kind Kind
	Name string

	// Category is the payload when Kind == Categorical
	Category string
	// Number is the payload when Kind == Numeric
	Number float64
	// Flag is the payload when Kind == Boolean
	Flag bool

	// Confidence is an optional confidence of the value, in [0, 1] by
	// convention. Range validity is a consumer concern.
	Confidence *float64
}

// New constructs an Attribute of the given kind, parsing raw according to
// the variant: categorical requires a string, numeric coerces numbers and
// numeric strings to float64, boolean coerces bools, numbers, and boolean
// strings. Returns ErrValueParse if raw cannot be coerced.
func New(kind Kind, name string, raw any) (Attribute, error) {
	switch kind {
	case Categorical:
		s, ok := raw.(string)
		if !ok {
			return Attribute{}, errors.Wrapf(ErrValueParse,
				"attribute %q: categorical value must be a string, got %T", name, raw)
		}
		return Attribute{Kind: Categorical, Name: name, Category: s}, nil

	case Numeric:
		f, ok := toFloat(raw)
		if !ok {
			return Attribute{}, errors.Wrapf(ErrValueParse,
				"attribute %q: cannot parse %v (%T) as a number", name, raw, raw)
		}
		return Attribute{Kind: Numeric, Name: name, Number: f}, nil

	case Boolean:
		b, ok := toBool(raw)
		if !ok {
			return Attribute{}, errors.Wrapf(ErrValueParse,
				"attribute %q: cannot coerce %v (%T) to a bool", name, raw, raw)
		}
		return Attribute{Kind: Boolean, Name: name, Flag: b}, nil
	}

	return Attribute{}, errors.Wrapf(ErrUnknownVariant, "attribute kind %q", string(kind))
}

// NewCategorical constructs a categorical Attribute.
func NewCategorical(name, value string) Attribute {
	return Attribute{Kind: Categorical, Name: name, Category: value}
}

// NewNumeric constructs a numeric Attribute.
func NewNumeric(name string, value float64) Attribute {
	return Attribute{Kind: Numeric, Name: name, Number: value}
}

// NewBoolean constructs a boolean Attribute.
func NewBoolean(name string, value bool) Attribute {
	return Attribute{Kind: Boolean, Name: name, Flag: value}
}

// WithConfidence returns a copy of the attribute with the given confidence.
func (a Attribute) WithConfidence(confidence float64) Attribute {
	a.Confidence = &confidence
	return a
}

// Value returns the attribute's payload as an untyped value.
func (a Attribute) Value() any {
	switch a.Kind {
	case Categorical:
		return a.Category
	case Numeric:
		return a.Number
	case Boolean:
		return a.Flag
	}
	return nil
}

func toFloat(raw any) (float64, bool) {
	switch v := raw.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(v, 64)
		return f, err == nil
	}
	return 0, false
}

func toBool(raw any) (bool, bool) {
	switch v := raw.(type) {
	case bool:
		return v, true
	case float64:
		return v != 0, true
	case int:
		return v != 0, true
	case string:
		b, err := strconv.ParseBool(v)
		return b, err == nil
	}
	return false, false
}

// attributeEnvelope is the serialized form of an Attribute.
type attributeEnvelope struct {
	Type       string          `json:"type"`
	Name       string          `json:"name"`
	Value      json.RawMessage `json:"value"`
	Confidence *float64        `json:"confidence,omitempty"`
}

// MarshalJSON implements json.Marshaler, embedding the kind discriminator.
func (a Attribute) MarshalJSON() ([]byte, error) {
	value, err := json.Marshal(a.Value())
	if err != nil {
		return nil, errors.Wrapf(err, "failed to marshal value of attribute %q", a.Name)
	}
	return json.Marshal(attributeEnvelope{
		Type:       string(a.Kind),
		Name:       a.Name,
		Value:      value,
		Confidence: a.Confidence,
	})
}

// UnmarshalJSON implements json.Unmarshaler. The stored discriminator is
// resolved through the kind registry; unregistered discriminators yield
// ErrUnknownVariant.
func (a *Attribute) UnmarshalJSON(data []byte) error {
	var env attributeEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return errors.Wrap(err, "failed to decode attribute")
	}

	parser, ok := lookupKind(Kind(env.Type))
	if !ok {
		return errors.Wrapf(ErrUnknownVariant, "discriminator %q", env.Type)
	}

	parsed, err := parser(env.Name, env.Value, env.Confidence)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// ValueParser decodes the raw serialized value of an attribute with the
// given name and confidence into a concrete Attribute.
type ValueParser func(name string, value json.RawMessage, confidence *float64) (Attribute, error)

// kindRegistry maps discriminators to value parsers. Deserialization never
// resolves discriminators by name introspection; every kind is registered
// explicitly.
var kindRegistry = struct {
	sync.RWMutex
	parsers map[Kind]ValueParser
}{parsers: make(map[Kind]ValueParser)}

// RegisterKind registers a value parser for the given discriminator.
// Returns an error if the discriminator is already registered.
func RegisterKind(kind Kind, parser ValueParser) error {
	kindRegistry.Lock()
	defer kindRegistry.Unlock()

	if _, exists := kindRegistry.parsers[kind]; exists {
		return errors.Newf("attribute kind already registered: %s", kind)
	}
	kindRegistry.parsers[kind] = parser
	return nil
}

// RegisteredKinds returns the registered discriminators.
func RegisteredKinds() []Kind {
	kindRegistry.RLock()
	defer kindRegistry.RUnlock()

	kinds := make([]Kind, 0, len(kindRegistry.parsers))
	for kind := range kindRegistry.parsers {
		kinds = append(kinds, kind)
	}
	return kinds
}

func lookupKind(kind Kind) (ValueParser, bool) {
	kindRegistry.RLock()
	defer kindRegistry.RUnlock()
	parser, ok := kindRegistry.parsers[kind]
	return parser, ok
}

func builtinParser(kind Kind) ValueParser {
	return func(name string, value json.RawMessage, confidence *float64) (Attribute, error) {
		var raw any
		if err := json.Unmarshal(value, &raw); err != nil {
			return Attribute{}, errors.Wrapf(ErrValueParse,
				"attribute %q: malformed value %s", name, string(value))
		}
		a, err := New(kind, name, raw)
		if err != nil {
			return Attribute{}, err
		}
		a.Confidence = confidence
		return a, nil
	}
}

func init() {
	for _, kind := range []Kind{Categorical, Numeric, Boolean} {
		if err := RegisterKind(kind, builtinParser(kind)); err != nil {
			panic(err)
		}
	}
}
