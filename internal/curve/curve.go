// Package curve implements the parametric response curve shared by every
// continuous binding and by interactive previews.
package curve

import (
	"math"
	"sort"
)

// Parameter limits
const (
	MinShape = 0.1
	MaxShape = 10.0
	MinMid   = 0.1
	MaxMid   = 0.9
)

// Apply shapes x with a two-piece power law that passes through (0,0),
// (m,m) and (1,1). Inputs outside their valid ranges are clamped.
func Apply(x, a, b, m float64) float64 {
	x = Clamp(x, 0, 1)
	a = Clamp(a, MinShape, MaxShape)
	b = Clamp(b, MinShape, MaxShape)
	m = Clamp(m, MinMid, MaxMid)

	if x <= m {
		return m * math.Pow(x/m, a)
	}
	return 1 - (1-m)*math.Pow((1-x)/(1-m), b)
}

// Clamp limits v to [lo, hi]. NaN collapses to lo.
func Clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Scale maps a normalized value onto [outMin, outMax]
func Scale(x, outMin, outMax float64) float64 {
	return outMin + Clamp(x, 0, 1)*(outMax-outMin)
}

// Normalize maps v from [inMin, inMax] into [0,1], clamped.
// A degenerate range yields 0.
func Normalize(v, inMin, inMax float64) float64 {
	if inMax == inMin {
		return 0
	}
	return Clamp((v-inMin)/(inMax-inMin), 0, 1)
}

// Quantize snaps v to the nearest multiple of step. A non-positive step
// leaves v unchanged.
func Quantize(v, step float64) float64 {
	if step <= 0 {
		return v
	}
	return math.Round(v/step) * step
}

// Sample evaluates the curve at n+1 evenly spaced points in [0,1], for
// drawing a preview.
func Sample(a, b, m float64, n int) []float64 {
	if n < 1 {
		n = 1
	}
	out := make([]float64, n+1)
	for i := 0; i <= n; i++ {
		out[i] = Apply(float64(i)/float64(n), a, b, m)
	}
	return out
}

// Preset is a named curve shape
type Preset struct {
	Name string
	A, B float64
	Mid  float64
}

// Apply evaluates the preset at x
func (p Preset) Apply(x float64) float64 {
	return Apply(x, p.A, p.B, p.Mid)
}

var (
	Linear = Preset{Name: "linear", A: 1, B: 1, Mid: 0.5}
	Log    = Preset{Name: "log", A: 0.25, B: 0.25, Mid: 0.5}
	Exp    = Preset{Name: "exp", A: 4, B: 4, Mid: 0.5}
	SCurve = Preset{Name: "scurve", A: 4, B: 0.25, Mid: 0.5}
	InvS   = Preset{Name: "invs", A: 0.25, B: 4, Mid: 0.5}
)

var presets = map[string]Preset{
	Linear.Name: Linear,
	Log.Name:    Log,
	Exp.Name:    Exp,
	SCurve.Name: SCurve,
	InvS.Name:   InvS,
}

// Lookup returns the preset with the given name
func Lookup(name string) (Preset, bool) {
	p, ok := presets[name]
	return p, ok
}

// Presets returns all presets sorted by name
func Presets() []Preset {
	out := make([]Preset, 0, len(presets))
	for _, p := range presets {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Name < out[j].Name
	})
	return out
}
