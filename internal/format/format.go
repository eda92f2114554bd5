// Package format marshals command output into the representation the
// user asked for with the --format flag.
package format

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// DataFormat names a supported output representation. It implements
// the pflag Value interface so it can back a cobra flag directly.
type DataFormat string

const (
	FORMAT_JSON DataFormat = "json"
	FORMAT_YAML DataFormat = "yaml"
)

func (df DataFormat) String() string {
	return string(df)
}

func (df *DataFormat) Set(v string) error {
	switch DataFormat(v) {
	case FORMAT_JSON, FORMAT_YAML:
		*df = DataFormat(v)
		return nil
	default:
		return fmt.Errorf("must be one of %v", []DataFormat{
			FORMAT_JSON, FORMAT_YAML,
		})
	}
}

func (df DataFormat) Type() string {
	return "DataFormat"
}

// Marshal renders data as outFormat.
func Marshal(data interface{}, outFormat DataFormat) ([]byte, error) {
	switch outFormat {
	case FORMAT_JSON:
		bytes, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal data into JSON: %w", err)
		}
		return bytes, nil
	case FORMAT_YAML:
		bytes, err := yaml.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal data into YAML: %w", err)
		}
		return bytes, nil
	default:
		return nil, fmt.Errorf("unknown data format: %s", outFormat)
	}
}
