package sequence

import (
	"encoding/json"

	"github.com/framelake/datacore/errors"
)

// sequenceEnvelope is the serialized form of a Sequence. Bounds are not
// stored; they are rediscovered from disk on decode.
type sequenceEnvelope struct {
	Sequence        string `json:"sequence"`
	ImmutableBounds bool   `json:"immutable_bounds"`
}

// MarshalJSON implements json.Marshaler.
func (s *Sequence) MarshalJSON() ([]byte, error) {
	return json.Marshal(sequenceEnvelope{
		Sequence:        s.pattern,
		ImmutableBounds: s.immutable,
	})
}

// UnmarshalJSON implements json.Unmarshaler. Decoding re-runs the bound
// discovery scan, so the pattern must still match files on disk.
func (s *Sequence) UnmarshalJSON(data []byte) error {
	var env sequenceEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return errors.Wrap(err, "failed to decode file sequence")
	}

	decoded, err := New(env.Sequence, env.ImmutableBounds)
	if err != nil {
		return err
	}
	*s = *decoded
	return nil
}
