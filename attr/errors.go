package attr

import "github.com/framelake/datacore/errors"

// Sentinel errors for attribute construction and schema enforcement.
// Check with errors.Is; returned errors carry context about the
// offending attribute.
var (
	// ErrValueParse indicates a raw value cannot be coerced to the
	// attribute kind's value type
	ErrValueParse = errors.New("value cannot be parsed for attribute kind")

	// ErrUnknownVariant indicates a stored discriminator does not resolve
	// to a registered attribute kind
	ErrUnknownVariant = errors.New("unknown attribute variant")

	// ErrNameNotFound indicates an attribute name absent from an enforced schema
	ErrNameNotFound = errors.New("attribute name not allowed by schema")

	// ErrTypeMismatch indicates an attribute's kind disagrees with the
	// schema entry's declared kind
	ErrTypeMismatch = errors.New("attribute kind mismatch")

	// ErrValueNotAllowed indicates a value violates a schema's
	// categories/range constraint
	ErrValueNotAllowed = errors.New("attribute value not allowed by schema")
)
