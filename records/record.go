// Package records provides a generic, uniformly-typed ordered collection
// of data records with field-based indexing, filtering, and slicing.
//
// Every collection declares a Kind, the type descriptor of its records: a
// set of required field names that must be present when parsing, a set of
// optional field names that are stored only when supplied, and a set of
// excluded field names that are never serialized. Records track presence
// explicitly, so an absent optional field is distinct from a field that
// is present with a null value.
package records

import (
	"sort"
	"sync"

	"github.com/framelake/datacore/errors"
)

// Sentinel errors for record processing.
var (
	// ErrFieldNotFound indicates a record does not carry the requested field
	ErrFieldNotFound = errors.New("field not found on record")

	// ErrMissingField indicates a required field was absent while parsing
	// a record
	ErrMissingField = errors.New("required field missing from record")

	// ErrMissingRecordKind indicates bulk construction was given no record
	// kind, explicitly or embedded in the serialized data
	ErrMissingRecordKind = errors.New("record kind required to parse records")
)

// DefaultRecordsFilename is the conventional filename for serialized
// record collections.
const DefaultRecordsFilename = "records.json"

// Kind describes a record type: its name (the discriminator embedded in
// serialized collections) and its required, optional, and excluded field
// names.
type Kind struct {
	Name     string
	Required []string
	Optional []string
	Excluded []string
}

// Parse constructs a Record of this kind from a decoded dictionary.
// Required fields are copied unconditionally and their absence fails with
// ErrMissingField; optional fields are copied only when present, so a
// null value is preserved as present-with-null. Fields the kind does not
// declare are ignored.
func (k *Kind) Parse(d map[string]any) (*Record, error) {
	fields := make(map[string]any, len(k.Required)+len(k.Optional))

	for _, name := range k.Required {
		value, ok := d[name]
		if !ok {
			return nil, errors.Wrapf(ErrMissingField,
				"record kind %q requires field %q", k.Name, name)
		}
		fields[name] = value
	}
	for _, name := range k.Optional {
		if value, ok := d[name]; ok {
			fields[name] = value
		}
	}

	return &Record{fields: fields}, nil
}

// serialize returns the record's present fields minus the kind's excluded
// fields.
func (k *Kind) serialize(r *Record) map[string]any {
	out := make(map[string]any, len(r.fields))
	for name, value := range r.fields {
		out[name] = value
	}
	for _, name := range k.Excluded {
		delete(out, name)
	}
	return out
}

// kindRegistry maps kind names to descriptors so serialized collections
// can name their record kind in-band.
var kindRegistry = struct {
	sync.RWMutex
	kinds map[string]*Kind
}{kinds: make(map[string]*Kind)}

// RegisterKind registers a record kind by name. Returns an error if the
// name is already registered.
func RegisterKind(k *Kind) error {
	kindRegistry.Lock()
	defer kindRegistry.Unlock()

	if _, exists := kindRegistry.kinds[k.Name]; exists {
		return errors.Newf("record kind already registered: %s", k.Name)
	}
	kindRegistry.kinds[k.Name] = k
	return nil
}

// LookupKind returns the registered kind with the given name.
func LookupKind(name string) (*Kind, bool) {
	kindRegistry.RLock()
	defer kindRegistry.RUnlock()
	k, ok := kindRegistry.kinds[name]
	return k, ok
}

// RegisteredKinds returns the registered kind names in sorted order.
func RegisteredKinds() []string {
	kindRegistry.RLock()
	defer kindRegistry.RUnlock()

	names := make([]string, 0, len(kindRegistry.kinds))
	for name := range kindRegistry.kinds {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LabeledVideo is a reusable record kind for a labeled video. The
// optional group field can carry additional provenance, such as the
// parent video that clips were sampled from.
var LabeledVideo = &Kind{
	Name:     "labeled_video",
	Required: []string{"video_path", "label"},
	Optional: []string{"group"},
}

func init() {
	if err := RegisterKind(LabeledVideo); err != nil {
		panic(err)
	}
}

// Record is a single data record: a bag of present fields. Presence is
// explicit; Get distinguishes an absent field from one present with a nil
// value.
type Record struct {
	fields map[string]any
}

// NewRecord creates a Record holding a copy of the given fields.
func NewRecord(fields map[string]any) *Record {
	copied := make(map[string]any, len(fields))
	for name, value := range fields {
		copied[name] = value
	}
	return &Record{fields: copied}
}

// Get returns the value of the field, or ErrFieldNotFound if the record
// does not carry it. A present nil value is returned without error.
func (r *Record) Get(field string) (any, error) {
	value, ok := r.fields[field]
	if !ok {
		return nil, errors.Wrapf(ErrFieldNotFound, "field %q", field)
	}
	return value, nil
}

// Has reports whether the field is present on the record.
func (r *Record) Has(field string) bool {
	_, ok := r.fields[field]
	return ok
}

// Set stores a field value on the record.
func (r *Record) Set(field string, value any) {
	r.fields[field] = value
}

// Fields returns the present field names in sorted order.
func (r *Record) Fields() []string {
	names := make([]string, 0, len(r.fields))
	for name := range r.fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
