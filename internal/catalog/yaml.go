package catalog

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// fileParam is one entry of a catalog file
type fileParam struct {
	ID      string   `yaml:"id"`
	Path    string   `yaml:"path"`
	Kind    string   `yaml:"kind"`
	Min     *float64 `yaml:"min,omitempty"`
	Max     *float64 `yaml:"max,omitempty"`
	Step    *float64 `yaml:"step,omitempty"`
	Integer *bool    `yaml:"integer,omitempty"`
	Options []string `yaml:"options,omitempty"`
}

type file struct {
	Parameters []fileParam `yaml:"parameters"`
}

// LoadYAML registers every parameter listed in r. Entries without an id
// are registered under their path.
//
//	parameters:
//	  - path: layer.skeleton.opacity
//	    kind: continuous
//	    min: 0
//	    max: 1
//	  - path: particles.count
//	    min: 0
//	    max: 500
//	    integer: true
func (c *Catalog) LoadYAML(r io.Reader) error {
	var f file
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && err != io.EOF {
		return fmt.Errorf("failed to parse catalog: %w", err)
	}

	for i, p := range f.Parameters {
		kind, err := ParseKind(p.Kind)
		if err != nil {
			return fmt.Errorf("parameter %d (%s): %w", i, p.Path, err)
		}
		id := p.ID
		if id == "" {
			id = p.Path
		}
		d := Descriptor{
			Path:    p.Path,
			Kind:    kind,
			Min:     p.Min,
			Max:     p.Max,
			Step:    p.Step,
			Integer: p.Integer,
			Options: p.Options,
		}
		if err := c.Register(id, d); err != nil {
			return fmt.Errorf("parameter %d: %w", i, err)
		}
	}
	return nil
}

// LoadFile reads a YAML catalog from disk
func LoadFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	defer f.Close()

	c := New()
	if err := c.LoadYAML(f); err != nil {
		return nil, err
	}
	return c, nil
}
