package skiptrie

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Spec is the on-disk form of a skip configuration.
//
//	include:
//	  - css/css-grid
//	exclude:
//	  - ""
//	  - css
type Spec struct {
	Include []string `yaml:"include"`
	Exclude []string `yaml:"exclude"`
}

// Build constructs the trie for the include and exclude lists of s.
func (s Spec) Build() (*Node, error) {
	return Build(s.Include, s.Exclude)
}

// ParseSpec decodes a YAML skip specification. Unknown keys are rejected.
func ParseSpec(r io.Reader) (Spec, error) {
	var spec Spec

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&spec); err != nil {
		if errors.Is(err, io.EOF) {
			return Spec{}, nil
		}
		return Spec{}, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	return spec, nil
}

// LoadFile reads a YAML skip specification and builds its trie.
// An empty filename yields an empty trie that skips nothing.
func LoadFile(filename string) (*Node, error) {
	if filename == "" {
		return Build(nil, nil)
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrConfiguration, filename, err)
	}

	spec, err := ParseSpec(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return spec.Build()
}
