// Package catalog holds the registry of bindable application parameters.
package catalog

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
)

// Kind describes the value a parameter holds
type Kind int

const (
	Continuous Kind = iota
	Boolean
	Categorical
)

func (k Kind) String() string {
	switch k {
	case Continuous:
		return "continuous"
	case Boolean:
		return "boolean"
	case Categorical:
		return "categorical"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ParseKind converts a kind name back to a Kind
func ParseKind(s string) (Kind, error) {
	switch s {
	case "continuous", "":
		return Continuous, nil
	case "boolean", "bool":
		return Boolean, nil
	case "categorical", "enum":
		return Categorical, nil
	}
	return 0, fmt.Errorf("unknown parameter kind: %q", s)
}

// Descriptor describes one bindable parameter. Min, Max and Step are
// optional; use Bounds for the effective range.
type Descriptor struct {
	Path    string
	Kind    Kind
	Min     *float64
	Max     *float64
	Step    *float64
	Integer *bool    // nil infers from the bounds, see Integral
	Options []string // Categorical only; dispatched by index when set
}

// Bounds returns the effective output range of the parameter
func (d Descriptor) Bounds() (lo, hi float64) {
	switch d.Kind {
	case Boolean:
		return 0, 1
	case Categorical:
		if len(d.Options) > 0 {
			return 0, float64(len(d.Options) - 1)
		}
	}
	lo, hi = 0, 1
	if d.Min != nil {
		lo = *d.Min
	}
	if d.Max != nil {
		hi = *d.Max
	}
	if hi < lo {
		lo, hi = hi, lo
	}
	return lo, hi
}

// StepSize returns the quantization step, or 0 when the parameter is not
// stepped. Categorical parameters always step by 1.
func (d Descriptor) StepSize() float64 {
	if d.Kind == Categorical {
		return 1
	}
	if d.Step != nil && *d.Step > 0 {
		return *d.Step
	}
	return 0
}

// Integral reports whether continuous writes are rounded to whole numbers.
// Unless Integer says otherwise, a parameter is integral when both bounds
// are set, both are whole numbers more than 2 apart, and any step is whole.
// That keeps 0..1 and -1..1 parameters fractional.
func (d Descriptor) Integral() bool {
	if d.Integer != nil {
		return *d.Integer
	}
	if d.Kind != Continuous || d.Min == nil || d.Max == nil {
		return false
	}
	if d.Step != nil && *d.Step > 0 && !whole(*d.Step) {
		return false
	}
	lo, hi := *d.Min, *d.Max
	return whole(lo) && whole(hi) && math.Abs(hi-lo) > 2
}

func whole(v float64) bool {
	return v == math.Trunc(v) && !math.IsInf(v, 0)
}

// Float is a convenience for building optional bounds
func Float(v float64) *float64 {
	return &v
}

var (
	ErrDuplicatePath = errors.New("parameter path already registered")
	ErrEmptyPath     = errors.New("parameter path is empty")
)

// Catalog maps opaque target identifiers to parameter descriptors.
// It is built once at startup and read concurrently afterwards.
type Catalog struct {
	mu     sync.RWMutex
	byID   map[string]Descriptor
	byPath map[string]string // path -> id
}

// New creates an empty catalog
func New() *Catalog {
	return &Catalog{
		byID:   make(map[string]Descriptor),
		byPath: make(map[string]string),
	}
}

// Register adds a descriptor under id. Re-registering an id replaces its
// descriptor; a path may only belong to one id.
func (c *Catalog) Register(id string, d Descriptor) error {
	if d.Path == "" {
		return ErrEmptyPath
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if owner, ok := c.byPath[d.Path]; ok && owner != id {
		return fmt.Errorf("%w: %s (id %s)", ErrDuplicatePath, d.Path, owner)
	}
	if old, ok := c.byID[id]; ok {
		delete(c.byPath, old.Path)
	}
	c.byID[id] = d
	c.byPath[d.Path] = id
	return nil
}

// Get returns the descriptor registered under id
func (c *Catalog) Get(id string) (Descriptor, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	d, ok := c.byID[id]
	return d, ok
}

// FindByPath returns the descriptor with the given path
func (c *Catalog) FindByPath(path string) (Descriptor, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	id, ok := c.byPath[path]
	if !ok {
		return Descriptor{}, false
	}
	return c.byID[id], true
}

// Paths returns every registered path, sorted
func (c *Catalog) Paths() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.byPath))
	for p := range c.byPath {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of registered parameters
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.byID)
}

// MarshalText encodes the kind by name
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText decodes a kind name
func (k *Kind) UnmarshalText(b []byte) error {
	v, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = v
	return nil
}
