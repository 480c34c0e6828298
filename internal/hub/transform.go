package hub

import (
	"math"
	"strconv"

	"github.com/PixPMusic/gopher-bind/internal/binding"
	"github.com/PixPMusic/gopher-bind/internal/catalog"
	"github.com/PixPMusic/gopher-bind/internal/curve"
)

// Continuous maps a raw reading through b's direction, curve and output
// range. Out-of-range input is clamped. Integer targets are rounded after
// quantizing.
func Continuous(raw float64, b *binding.Binding) any {
	dom, _ := b.Source.Category.Domain()
	x := curve.Normalize(raw, dom.Min, dom.Max)
	if b.Behavior.Direction == binding.Inverted {
		x = 1 - x
	}
	y := curve.Apply(x, b.Behavior.CurveA, b.Behavior.CurveB, b.Behavior.CurveMid)

	lo, hi := b.Range.OutputMin, b.Range.OutputMax
	v := curve.Scale(y, lo, hi)
	if b.Range.Step > 0 {
		v = curve.Quantize(v, b.Range.Step)
	}
	v = curve.Clamp(v, lo, hi)
	if b.Target.Integer {
		v = curve.Clamp(math.Round(v), math.Ceil(lo), math.Floor(hi))
	}
	return shape(b.Target, v)
}

// Discrete applies b's mode to the target's current value. Absolute is
// inert for momentary sources and returns cur unchanged.
func Discrete(cur any, b *binding.Binding) any {
	lo, hi := b.Range.OutputMin, b.Range.OutputMax

	switch b.Behavior.Mode {
	case binding.Toggle:
		return !asBool(cur)
	case binding.Increment:
		v := asFloat(cur, b.Target, lo)
		return shape(b.Target, math.Min(hi, v+effectiveStep(b)))
	case binding.Decrement:
		v := asFloat(cur, b.Target, lo)
		return shape(b.Target, math.Max(lo, v-effectiveStep(b)))
	case binding.Absolute:
		return cur
	}
	return cur
}

// effectiveStep is the step magnitude. Direction flips the sign of the
// step before the magnitude is taken, so it does not change the result.
func effectiveStep(b *binding.Binding) float64 {
	step := b.Behavior.StepSize
	if b.Behavior.Direction == binding.Inverted {
		step = -step
	}
	return math.Abs(step)
}

// shape converts a numeric value into the type the target expects:
// bool for Boolean, int (or the option string) for Categorical and
// float64 otherwise.
func shape(t binding.Target, v float64) any {
	switch t.Kind {
	case catalog.Boolean:
		return v >= 0.5
	case catalog.Categorical:
		i := int(math.Round(v))
		if len(t.Options) > 0 {
			if i < 0 {
				i = 0
			}
			if i >= len(t.Options) {
				i = len(t.Options) - 1
			}
			return t.Options[i]
		}
		return i
	}
	return v
}

func asBool(v any) bool {
	switch x := v.(type) {
	case bool:
		return x
	case float64:
		return x != 0
	case float32:
		return x != 0
	case int:
		return x != 0
	case int64:
		return x != 0
	case string:
		b, _ := strconv.ParseBool(x)
		return b
	}
	return false
}

// asFloat reads a stored value as a number. Option strings map to their
// index; anything unreadable falls back to def.
func asFloat(v any, t binding.Target, def float64) float64 {
	switch x := v.(type) {
	case float64:
		if math.IsNaN(x) {
			return def
		}
		return x
	case float32:
		return float64(x)
	case int:
		return float64(x)
	case int64:
		return float64(x)
	case bool:
		if x {
			return 1
		}
		return 0
	case string:
		for i, o := range t.Options {
			if o == x {
				return float64(i)
			}
		}
		if f, err := strconv.ParseFloat(x, 64); err == nil {
			return f
		}
	}
	return def
}
