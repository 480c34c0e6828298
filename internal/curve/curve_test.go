package curve

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tol = 1e-9

var shapeGrid = []float64{0.1, 0.25, 0.5, 1, 2, 4, 10}
var midGrid = []float64{0.1, 0.3, 0.5, 0.7, 0.9}

func TestApplyFixedPoints(t *testing.T) {
	for _, a := range shapeGrid {
		for _, b := range shapeGrid {
			for _, m := range midGrid {
				assert.InDelta(t, 0, Apply(0, a, b, m), tol, "a=%v b=%v m=%v", a, b, m)
				assert.InDelta(t, 1, Apply(1, a, b, m), tol, "a=%v b=%v m=%v", a, b, m)
				assert.InDelta(t, m, Apply(m, a, b, m), tol, "a=%v b=%v m=%v", a, b, m)
			}
		}
	}
}

func TestApplyMonotonic(t *testing.T) {
	const steps = 200
	for _, a := range shapeGrid {
		for _, b := range shapeGrid {
			for _, m := range midGrid {
				prev := Apply(0, a, b, m)
				for i := 1; i <= steps; i++ {
					y := Apply(float64(i)/steps, a, b, m)
					require.GreaterOrEqual(t, y+tol, prev, "a=%v b=%v m=%v i=%d", a, b, m, i)
					prev = y
				}
			}
		}
	}
}

func TestLinearIsIdentity(t *testing.T) {
	for i := 0; i <= 100; i++ {
		x := float64(i) / 100
		assert.InDelta(t, x, Apply(x, 1, 1, 0.5), tol)
		assert.InDelta(t, x, Linear.Apply(x), tol)
	}
}

func TestApplyClampsArguments(t *testing.T) {
	assert.Equal(t, 0.0, Apply(-3, 1, 1, 0.5))
	assert.Equal(t, 1.0, Apply(7, 1, 1, 0.5))
	assert.Equal(t, 0.0, Apply(math.NaN(), 1, 1, 0.5))

	// a below range behaves like a=0.1, m above range like m=0.9
	assert.InDelta(t, Apply(0.3, 0.1, 1, 0.9), Apply(0.3, 0, 1, 5), tol)
}

func TestPresets(t *testing.T) {
	tests := []struct {
		name string
		a, b float64
	}{
		{"linear", 1, 1},
		{"log", 0.25, 0.25},
		{"exp", 4, 4},
		{"scurve", 4, 0.25},
		{"invs", 0.25, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, ok := Lookup(tt.name)
			require.True(t, ok)
			assert.Equal(t, tt.a, p.A)
			assert.Equal(t, tt.b, p.B)
			assert.Equal(t, 0.5, p.Mid)
		})
	}
	_, ok := Lookup("nope")
	assert.False(t, ok)
	assert.Len(t, Presets(), 5)

	// exp sits below the diagonal in the lower half, log above it
	assert.Less(t, Exp.Apply(0.25), 0.25)
	assert.Greater(t, Log.Apply(0.25), 0.25)
}

func TestScaleNormalizeQuantize(t *testing.T) {
	assert.InDelta(t, 5.0, Scale(0.5, 0, 10), tol)
	assert.InDelta(t, -1.0, Scale(-2, -1, 1), tol)
	assert.InDelta(t, 1.0, Normalize(127, 0, 127), tol)
	assert.InDelta(t, 0.5, Normalize(0, -1, 1), tol)
	assert.Equal(t, 0.0, Normalize(3, 2, 2))
	assert.InDelta(t, 0.75, Quantize(0.8, 0.25), tol)
	assert.InDelta(t, 0.8, Quantize(0.8, 0), tol)
}

func TestSample(t *testing.T) {
	pts := Sample(1, 1, 0.5, 4)
	require.Len(t, pts, 5)
	for i, y := range pts {
		assert.InDelta(t, float64(i)/4, y, tol)
	}
	assert.Len(t, Sample(1, 1, 0.5, 0), 2)
}
