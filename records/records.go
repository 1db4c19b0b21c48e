package records

import (
	"encoding/json"
	"os"
	"reflect"

	"github.com/framelake/datacore/errors"
	"github.com/framelake/datacore/logger"
)

// Records is an ordered collection of uniformly-typed records. The kind
// is fixed at construction. Field-based operations read the supplied
// field from every record and fail with ErrFieldNotFound if any record
// lacks it, leaving the collection unchanged.
//
// Field values used as lookup keys must be comparable scalars (the JSON
// scalar types: string, float64, bool, nil); keying on a non-comparable
// value such as a decoded JSON array fails with errors.ErrInvalidArgument.
type Records struct {
	kind    *Kind
	records []*Record
}

// New creates an empty Records collection of the given kind.
func New(kind *Kind) *Records {
	return &Records{kind: kind}
}

// Kind returns the collection's record kind.
func (rs *Records) Kind() *Kind {
	return rs.kind
}

// Len returns the number of records in the collection.
func (rs *Records) Len() int {
	return len(rs.records)
}

// At returns the record at index i.
func (rs *Records) At(i int) *Record {
	return rs.records[i]
}

// Add appends a record to the collection.
func (rs *Records) Add(r *Record) {
	rs.records = append(rs.records, r)
}

// AddRecords appends every record of other to this collection.
func (rs *Records) AddRecords(other *Records) {
	rs.records = append(rs.records, other.records...)
}

// AddJSON parses a serialized collection and appends its records,
// returning the new count. A nil kind falls back to this collection's
// kind.
func (rs *Records) AddJSON(data []byte, kind *Kind) (int, error) {
	if kind == nil {
		kind = rs.kind
	}
	parsed, err := FromJSON(data, kind)
	if err != nil {
		return 0, err
	}
	rs.AddRecords(parsed)
	return rs.Len(), nil
}

// AddJSONFile reads a serialized collection from a file and appends its
// records, returning the new count.
func (rs *Records) AddJSONFile(path string, kind *Kind) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, errors.Wrapf(err, "failed to read records from %q", path)
	}
	return rs.AddJSON(data, kind)
}

// keyValue reads the field from the record and verifies the value can
// key a map.
func (rs *Records) keyValue(r *Record, field string) (any, error) {
	value, err := r.Get(field)
	if err != nil {
		return nil, err
	}
	if value != nil && !reflect.TypeOf(value).Comparable() {
		return nil, errors.NewInvalidArgumentError(
			"field %q holds a non-comparable value of type %T", field, value)
	}
	return value, nil
}

// BuildKeyset returns the distinct values of field across the records, in
// order of first appearance.
func (rs *Records) BuildKeyset(field string) ([]any, error) {
	seen := make(map[any]struct{})
	var keys []any
	for _, r := range rs.records {
		value, err := rs.keyValue(r, field)
		if err != nil {
			return nil, err
		}
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		keys = append(keys, value)
	}
	return keys, nil
}

// BuildLookup returns a map from each distinct value of field to the
// positions, in original order, of the records holding that value.
func (rs *Records) BuildLookup(field string) (map[any][]int, error) {
	lookup := make(map[any][]int)
	for i, r := range rs.records {
		value, err := rs.keyValue(r, field)
		if err != nil {
			return nil, err
		}
		lookup[value] = append(lookup[value], i)
	}
	return lookup, nil
}

// BuildSubsets returns a map from each distinct value of field to the
// matching records. The records are shared with this collection, not
// copies.
func (rs *Records) BuildSubsets(field string) (map[any][]*Record, error) {
	subsets := make(map[any][]*Record)
	for _, r := range rs.records {
		value, err := rs.keyValue(r, field)
		if err != nil {
			return nil, err
		}
		subsets[value] = append(subsets[value], r)
	}
	return subsets, nil
}

// Slice returns the values of field across the records, in record order.
func (rs *Records) Slice(field string) ([]any, error) {
	values := make([]any, 0, len(rs.records))
	for _, r := range rs.records {
		value, err := r.Get(field)
		if err != nil {
			return nil, err
		}
		values = append(values, value)
	}
	return values, nil
}

// Cull retains, in original relative order, only the records whose field
// value is in the keep-set, and returns the new count.
//
// Exactly one of keepValues and removeValues must be supplied (non-nil);
// removeValues resolves to the implied keep-set of all distinct values
// minus the removed ones. An empty resolved keep-set is rejected. All
// argument violations fail with errors.ErrInvalidArgument and leave the
// collection unchanged.
func (rs *Records) Cull(field string, keepValues, removeValues []any) (int, error) {
	if (keepValues == nil) == (removeValues == nil) {
		return 0, errors.NewInvalidArgumentError(
			"exactly one of keepValues and removeValues must be provided")
	}

	supplied := keepValues
	if removeValues != nil {
		supplied = removeValues
	}
	for _, v := range supplied {
		if v != nil && !reflect.TypeOf(v).Comparable() {
			return 0, errors.NewInvalidArgumentError(
				"cull value of type %T is not comparable", v)
		}
	}

	lookup, err := rs.BuildLookup(field)
	if err != nil {
		return 0, err
	}

	keep := make(map[any]struct{})
	if removeValues != nil {
		remove := make(map[any]struct{}, len(removeValues))
		for _, v := range removeValues {
			remove[v] = struct{}{}
		}
		for v := range lookup {
			if _, removed := remove[v]; !removed {
				keep[v] = struct{}{}
			}
		}
	} else {
		for _, v := range keepValues {
			keep[v] = struct{}{}
		}
	}

	if len(keep) == 0 {
		return 0, errors.NewInvalidArgumentError(
			"culling %q would retain no records: empty keep-set", field)
	}

	kept := rs.records[:0:0]
	for _, r := range rs.records {
		value, _ := r.Get(field)
		if _, ok := keep[value]; ok {
			kept = append(kept, r)
		}
	}
	rs.records = kept

	logger.Debugw("culled records", "field", field, "remaining", len(rs.records))
	return rs.Len(), nil
}

// SubsetFromIndices returns a new collection of the same kind containing
// exactly the records at the given positions, in the given order. Indices
// may repeat or reorder; out-of-range indices are rejected.
func (rs *Records) SubsetFromIndices(indices []int) (*Records, error) {
	subset := New(rs.kind)
	for _, i := range indices {
		if i < 0 || i >= len(rs.records) {
			return nil, errors.NewInvalidArgumentError(
				"record index %d out of range [0, %d)", i, len(rs.records))
		}
		subset.records = append(subset.records, rs.records[i])
	}
	return subset, nil
}

// recordsEnvelope is the serialized form of a Records collection. The
// record_kind discriminator lets a collection be parsed without an
// out-of-band kind.
type recordsEnvelope struct {
	RecordKind string           `json:"record_kind,omitempty"`
	Records    []map[string]any `json:"records"`
}

// FromJSON parses a serialized Records collection. The kind may be
// supplied explicitly or named in-band by the record_kind field (and
// resolved through the kind registry); if neither is available the parse
// fails with ErrMissingRecordKind.
func FromJSON(data []byte, kind *Kind) (*Records, error) {
	var env recordsEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, errors.Wrap(err, "failed to decode records")
	}

	if kind == nil {
		if env.RecordKind == "" {
			return nil, errors.WithStack(ErrMissingRecordKind)
		}
		registered, ok := LookupKind(env.RecordKind)
		if !ok {
			return nil, errors.Wrapf(ErrMissingRecordKind,
				"record kind %q is not registered", env.RecordKind)
		}
		kind = registered
	}

	rs := New(kind)
	for _, d := range env.Records {
		r, err := kind.Parse(d)
		if err != nil {
			return nil, err
		}
		rs.records = append(rs.records, r)
	}
	return rs, nil
}

// FromJSONFile parses a serialized Records collection from a file.
func FromJSONFile(path string, kind *Kind) (*Records, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read records from %q", path)
	}
	return FromJSON(data, kind)
}

// MarshalJSON implements json.Marshaler, embedding the kind name so the
// collection can be parsed without an out-of-band kind.
func (rs *Records) MarshalJSON() ([]byte, error) {
	env := recordsEnvelope{Records: make([]map[string]any, 0, len(rs.records))}
	if rs.kind != nil {
		env.RecordKind = rs.kind.Name
		for _, r := range rs.records {
			env.Records = append(env.Records, rs.kind.serialize(r))
		}
	}
	return json.Marshal(env)
}
