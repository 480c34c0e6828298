package binding

import (
	"fmt"
	"math"
	"time"

	"github.com/PixPMusic/gopher-bind/internal/catalog"
	"github.com/PixPMusic/gopher-bind/internal/curve"
	"github.com/google/uuid"
)

// Intent is a hint about what the user meant while the control was being
// learned, derived from how its raw value moved.
type Intent int

const (
	IntentUnknown Intent = iota
	IntentUp
	IntentDown
)

func (i Intent) String() string {
	switch i {
	case IntentUp:
		return "up"
	case IntentDown:
		return "down"
	}
	return "unknown"
}

// Resolver looks up parameter descriptors by path
type Resolver interface {
	FindByPath(path string) (catalog.Descriptor, bool)
}

// Factory builds bindings with defaults inferred from the source domain
// and target kind.
type Factory struct {
	resolver Resolver
	now      func() time.Time
}

// NewFactory creates a factory backed by a parameter resolver
func NewFactory(r Resolver) *Factory {
	return &Factory{resolver: r, now: time.Now}
}

// FromTarget creates a binding from target to source. It returns false
// when the target is not in the catalog or the category is unknown.
func (f *Factory) FromTarget(target catalog.Descriptor, source Source, intent Intent) (*Binding, bool) {
	desc, ok := f.resolver.FindByPath(target.Path)
	if !ok {
		return nil, false
	}
	dom, ok := source.Category.Domain()
	if !ok {
		return nil, false
	}

	lo, hi := desc.Bounds()
	b := &Binding{
		ID:     uuid.New().String(),
		Source: source,
		Target: Target{
			Path:    desc.Path,
			Kind:    desc.Kind,
			Options: desc.Options,
			Integer: desc.Integral(),
		},
		Range: Range{
			InputMin:  dom.Min,
			InputMax:  dom.Max,
			OutputMin: lo,
			OutputMax: hi,
			Step:      desc.StepSize(),
		},
		Behavior: Behavior{
			Direction: Normal,
			CurveA:    curve.Linear.A,
			CurveB:    curve.Linear.B,
			CurveMid:  curve.Linear.Mid,
		},
		Meta: Meta{
			CreatedAt: f.now(),
			Label:     fmt.Sprintf("%s -> %s", source.FullKey(), desc.Path),
		},
	}

	switch {
	case desc.Kind == catalog.Boolean:
		b.Behavior.Mode = Toggle
	case dom.Discrete:
		b.Behavior.Mode = Increment
		if intent == IntentDown {
			b.Behavior.Mode = Decrement
		}
		b.Behavior.StepSize = DefaultStep(lo, hi)
	default:
		b.Behavior.Mode = Absolute
		if intent == IntentDown {
			b.Behavior.Direction = Inverted
		}
	}

	b.Sanitize()
	return b, true
}

// DefaultStep is a tenth of the output range, rounded to an integer. Ranges
// too narrow to round to a whole step keep the fractional tenth.
func DefaultStep(lo, hi float64) float64 {
	tenth := (hi - lo) / 10
	if r := math.Round(tenth); r != 0 {
		return math.Abs(r)
	}
	return math.Abs(tenth)
}
