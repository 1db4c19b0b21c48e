// Package serial provides JSON and YAML (de)serialization helpers for
// datacore types.
//
// All datacore types define their interchange form via json.Marshaler;
// the YAML helpers reuse those forms by converting through JSON, so a
// schema written as YAML decodes identically to its JSON twin.
package serial

import (
	"encoding/json"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/framelake/datacore/errors"
)

// MarshalJSON serializes v as indented JSON.
func MarshalJSON(v any) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal JSON")
	}
	return data, nil
}

// WriteJSON writes v to path as indented JSON.
func WriteJSON(v any, path string) error {
	data, err := MarshalJSON(v)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return errors.Wrapf(err, "failed to write JSON to %q", path)
	}
	return nil
}

// ReadJSON parses JSON data into v.
func ReadJSON(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return errors.Wrap(err, "failed to parse JSON")
	}
	return nil
}

// ReadJSONFile reads and parses a JSON file into v.
func ReadJSONFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "failed to read %q", path)
	}
	return ReadJSON(data, v)
}

// MarshalYAML serializes v as YAML via its JSON interchange form.
func MarshalYAML(v any) ([]byte, error) {
	jsonData, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal YAML")
	}
	var intermediate any
	if err := json.Unmarshal(jsonData, &intermediate); err != nil {
		return nil, errors.Wrap(err, "failed to marshal YAML")
	}
	data, err := yaml.Marshal(intermediate)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal YAML")
	}
	return data, nil
}

// WriteYAML writes v to path as YAML.
func WriteYAML(v any, path string) error {
	data, err := MarshalYAML(v)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrapf(err, "failed to write YAML to %q", path)
	}
	return nil
}

// ReadYAML parses YAML data into v via the JSON interchange form, so
// custom json.Unmarshaler implementations apply.
func ReadYAML(data []byte, v any) error {
	var intermediate any
	if err := yaml.Unmarshal(data, &intermediate); err != nil {
		return errors.Wrap(err, "failed to parse YAML")
	}
	jsonData, err := json.Marshal(intermediate)
	if err != nil {
		return errors.Wrap(err, "failed to parse YAML")
	}
	return ReadJSON(jsonData, v)
}

// ReadYAMLFile reads and parses a YAML file into v.
func ReadYAMLFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "failed to read %q", path)
	}
	return ReadYAML(data, v)
}
