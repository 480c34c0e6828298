// Package binding defines the source-to-parameter mapping record and the
// factory that infers sensible defaults for a new mapping.
package binding

import (
	"fmt"
	"time"

	"github.com/PixPMusic/gopher-bind/internal/catalog"
	"github.com/PixPMusic/gopher-bind/internal/curve"
)

// Direction selects whether a control acts normally or inverted
type Direction int

const (
	Normal Direction = iota
	Inverted
)

func (d Direction) String() string {
	if d == Inverted {
		return "inverted"
	}
	return "normal"
}

func (d Direction) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Direction) UnmarshalText(b []byte) error {
	switch string(b) {
	case "normal", "":
		*d = Normal
	case "inverted":
		*d = Inverted
	default:
		return fmt.Errorf("unknown direction: %q", b)
	}
	return nil
}

// Mode selects how an event changes the target value
type Mode int

const (
	Absolute Mode = iota
	Increment
	Decrement
	Toggle
)

var modeNames = [...]string{
	Absolute:  "absolute",
	Increment: "increment",
	Decrement: "decrement",
	Toggle:    "toggle",
}

func (m Mode) String() string {
	if m >= 0 && int(m) < len(modeNames) {
		return modeNames[m]
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *Mode) UnmarshalText(b []byte) error {
	for i, name := range modeNames {
		if name == string(b) {
			*m = Mode(i)
			return nil
		}
	}
	return fmt.Errorf("unknown mode: %q", b)
}

// Target is the parameter a binding writes to
type Target struct {
	Path    string       `json:"path"`
	Kind    catalog.Kind `json:"kind"`
	Options []string     `json:"options,omitempty"`
	Integer bool         `json:"integer,omitempty"` // round continuous writes
}

// Range holds the input and output bounds of a binding
type Range struct {
	InputMin  float64 `json:"input_min"`
	InputMax  float64 `json:"input_max"`
	OutputMin float64 `json:"output_min"`
	OutputMax float64 `json:"output_max"`
	Step      float64 `json:"step,omitempty"` // 0 = unstepped
}

// Behavior configures the transfer function
type Behavior struct {
	Direction Direction `json:"direction"`
	Mode      Mode      `json:"mode"`
	StepSize  float64   `json:"step_size"`
	CurveA    float64   `json:"curve_a"`
	CurveB    float64   `json:"curve_b"`
	CurveMid  float64   `json:"curve_mid"`
}

// Meta carries descriptive data that does not affect routing
type Meta struct {
	CreatedAt time.Time `json:"created_at"`
	Label     string    `json:"label"`
}

// Binding maps one control to one parameter
type Binding struct {
	ID       string   `json:"id"`
	Source   Source   `json:"source"`
	Target   Target   `json:"target"`
	Range    Range    `json:"range"`
	Behavior Behavior `json:"behavior"`
	Meta     Meta     `json:"meta"`
}

// FullKey is shorthand for b.Source.FullKey()
func (b *Binding) FullKey() string {
	return b.Source.FullKey()
}

// Family is shorthand for b.Source.Category.Family()
func (b *Binding) Family() Family {
	return b.Source.Category.Family()
}

// Clone returns a deep copy of b
func (b *Binding) Clone() *Binding {
	c := *b
	if b.Target.Options != nil {
		c.Target.Options = append([]string(nil), b.Target.Options...)
	}
	return &c
}

// Sanitize forces b back inside its valid ranges: curve parameters are
// clamped, output bounds ordered, and Boolean targets always toggle.
func (b *Binding) Sanitize() {
	b.Behavior.CurveA = curve.Clamp(orOne(b.Behavior.CurveA), curve.MinShape, curve.MaxShape)
	b.Behavior.CurveB = curve.Clamp(orOne(b.Behavior.CurveB), curve.MinShape, curve.MaxShape)
	if b.Behavior.CurveMid == 0 {
		b.Behavior.CurveMid = 0.5
	}
	b.Behavior.CurveMid = curve.Clamp(b.Behavior.CurveMid, curve.MinMid, curve.MaxMid)

	if b.Range.OutputMax < b.Range.OutputMin {
		b.Range.OutputMin, b.Range.OutputMax = b.Range.OutputMax, b.Range.OutputMin
	}
	if b.Range.Step < 0 {
		b.Range.Step = 0
	}
	if b.Behavior.StepSize < 0 {
		b.Behavior.StepSize = -b.Behavior.StepSize
	}
	if b.Target.Kind == catalog.Boolean {
		b.Behavior.Mode = Toggle
	}
}

// ApplyPreset copies a named curve shape into the behavior
func (b *Binding) ApplyPreset(p curve.Preset) {
	b.Behavior.CurveA = p.A
	b.Behavior.CurveB = p.B
	b.Behavior.CurveMid = p.Mid
}

func orOne(v float64) float64 {
	if v == 0 {
		return 1
	}
	return v
}
