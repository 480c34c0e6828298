package catalog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndLookup(t *testing.T) {
	c := New()
	require.NoError(t, c.Register("op", Descriptor{Path: "layer.skeleton.opacity", Min: Float(0), Max: Float(1)}))
	require.NoError(t, c.Register("vis", Descriptor{Path: "layer.skeleton.visible", Kind: Boolean}))

	d, ok := c.Get("op")
	require.True(t, ok)
	assert.Equal(t, "layer.skeleton.opacity", d.Path)

	d, ok = c.FindByPath("layer.skeleton.visible")
	require.True(t, ok)
	assert.Equal(t, Boolean, d.Kind)

	_, ok = c.FindByPath("missing")
	assert.False(t, ok)
	assert.Equal(t, []string{"layer.skeleton.opacity", "layer.skeleton.visible"}, c.Paths())
}

func TestRegisterRejectsDuplicatePath(t *testing.T) {
	c := New()
	require.NoError(t, c.Register("a", Descriptor{Path: "x.y"}))
	err := c.Register("b", Descriptor{Path: "x.y"})
	assert.ErrorIs(t, err, ErrDuplicatePath)
	assert.ErrorIs(t, c.Register("c", Descriptor{}), ErrEmptyPath)

	// re-registering the same id moves its path
	require.NoError(t, c.Register("a", Descriptor{Path: "x.z"}))
	_, ok := c.FindByPath("x.y")
	assert.False(t, ok)
	assert.Equal(t, 1, c.Len())
}

func TestBounds(t *testing.T) {
	tests := []struct {
		name   string
		d      Descriptor
		lo, hi float64
		step   float64
	}{
		{"default", Descriptor{Path: "a"}, 0, 1, 0},
		{"explicit", Descriptor{Path: "a", Min: Float(-5), Max: Float(5), Step: Float(0.5)}, -5, 5, 0.5},
		{"swapped", Descriptor{Path: "a", Min: Float(10), Max: Float(2)}, 2, 10, 0},
		{"boolean", Descriptor{Path: "a", Kind: Boolean, Max: Float(9)}, 0, 1, 0},
		{"options", Descriptor{Path: "a", Kind: Categorical, Options: []string{"x", "y", "z"}}, 0, 2, 1},
		{"categorical range", Descriptor{Path: "a", Kind: Categorical, Min: Float(1), Max: Float(8)}, 1, 8, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lo, hi := tt.d.Bounds()
			assert.Equal(t, tt.lo, lo)
			assert.Equal(t, tt.hi, hi)
			assert.Equal(t, tt.step, tt.d.StepSize())
		})
	}
}

const sampleYAML = `
parameters:
  - id: opacity
    path: layer.skeleton.opacity
    kind: continuous
    min: 0
    max: 1
  - path: layer.skeleton.visible
    kind: boolean
  - path: render.mode
    kind: categorical
    options: [ascii, particles, tubes]
  - path: render.density
    min: 1
    max: 64
    step: 1
`

func TestLoadYAML(t *testing.T) {
	c := New()
	require.NoError(t, c.LoadYAML(strings.NewReader(sampleYAML)))
	assert.Equal(t, 4, c.Len())

	d, ok := c.Get("opacity")
	require.True(t, ok)
	assert.Equal(t, Continuous, d.Kind)

	d, ok = c.Get("render.mode")
	require.True(t, ok)
	assert.Equal(t, Categorical, d.Kind)
	assert.Equal(t, []string{"ascii", "particles", "tubes"}, d.Options)

	d, ok = c.FindByPath("render.density")
	require.True(t, ok)
	lo, hi := d.Bounds()
	assert.Equal(t, 1.0, lo)
	assert.Equal(t, 64.0, hi)
	assert.Equal(t, 1.0, d.StepSize())
}

func TestLoadYAMLErrors(t *testing.T) {
	assert.Error(t, New().LoadYAML(strings.NewReader("parameters:\n  - path: a\n    kind: wobbly\n")))
	assert.Error(t, New().LoadYAML(strings.NewReader("parameters:\n  - path: a\n    colour: red\n")))
	assert.Error(t, New().LoadYAML(strings.NewReader("parameters:\n  - id: x\n    path: a\n  - id: y\n    path: a\n")))
	assert.NoError(t, New().LoadYAML(strings.NewReader("")))
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0o644))

	c, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 4, c.Len())

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestIntegral(t *testing.T) {
	tests := []struct {
		name string
		d    Descriptor
		want bool
	}{
		{"whole bounds", Descriptor{Min: Float(0), Max: Float(100)}, true},
		{"unit range", Descriptor{Min: Float(0), Max: Float(1)}, false},
		{"pan range", Descriptor{Min: Float(-1), Max: Float(1)}, false},
		{"default bounds", Descriptor{}, false},
		{"fractional bound", Descriptor{Min: Float(0), Max: Float(10.5)}, false},
		{"fractional step", Descriptor{Min: Float(0), Max: Float(10), Step: Float(0.5)}, false},
		{"whole step", Descriptor{Min: Float(0), Max: Float(10), Step: Float(2)}, true},
		{"explicit off", Descriptor{Min: Float(-60), Max: Float(12), Integer: boolPtr(false)}, false},
		{"explicit on", Descriptor{Min: Float(0), Max: Float(1), Integer: boolPtr(true)}, true},
		{"boolean", Descriptor{Kind: Boolean, Min: Float(0), Max: Float(10)}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.d.Integral())
		})
	}
}

func boolPtr(v bool) *bool { return &v }
