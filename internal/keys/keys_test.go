package keys

import (
	"testing"
	"time"

	"github.com/PixPMusic/gopher-bind/internal/bank"
	"github.com/PixPMusic/gopher-bind/internal/binding"
	"github.com/PixPMusic/gopher-bind/internal/catalog"
	"github.com/PixPMusic/gopher-bind/internal/hub"
	"github.com/PixPMusic/gopher-bind/internal/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	events []hub.Event
}

func (r *recorder) Emit(ev hub.Event) { r.events = append(r.events, ev) }

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func TestPressAndRelease(t *testing.T) {
	rec := &recorder{}
	k := New(rec)

	k.Press("Space")
	k.Press("Space") // auto-repeat
	assert.Equal(t, []string{"Space"}, k.Held())
	k.Release("Space")
	k.Release("Space")

	require.Len(t, rec.events, 4)
	assert.Equal(t, hub.Event{Category: binding.KeyboardKey, Key: "Space", Value: 1}, rec.events[0])
	assert.Equal(t, hub.Event{Category: binding.KeyboardHold, Key: "Space", Value: 0}, rec.events[1])
	assert.Equal(t, hub.Event{Category: binding.KeyboardKey, Key: "Space", Value: 0}, rec.events[2])
	assert.Equal(t, hub.Event{Category: binding.KeyboardHold, Key: "Space", Value: 0}, rec.events[3])
	assert.Empty(t, k.Held())
}

func TestHoldRamp(t *testing.T) {
	rec := &recorder{}
	c := &clock{t: time.Unix(0, 0)}
	k := New(rec, WithClock(c.now), WithRamp(2*time.Second))

	k.Press("a")
	k.Press("b")
	rec.events = nil

	tests := []struct {
		advance time.Duration
		want    float64
	}{
		{500 * time.Millisecond, 0.25},
		{500 * time.Millisecond, 0.5},
		{time.Second, 1},
		{time.Second, 1},
	}
	for _, tt := range tests {
		c.advance(tt.advance)
		rec.events = nil
		k.Tick()
		require.Len(t, rec.events, 2)
		for i, key := range []string{"a", "b"} {
			assert.Equal(t, binding.KeyboardHold, rec.events[i].Category)
			assert.Equal(t, key, rec.events[i].Key)
			assert.InDelta(t, tt.want, rec.events[i].Value, 1e-9)
		}
	}

	k.Release("a")
	rec.events = nil
	k.Tick()
	require.Len(t, rec.events, 1)
	assert.Equal(t, "b", rec.events[0].Key)
}

func TestKeysDriveBindings(t *testing.T) {
	banks := bank.NewStore()
	target := state.New(map[string]any{"fx.bypass": false})
	h := hub.Attach(banks, target)

	require.NoError(t, banks.AddBinding("A", &binding.Binding{
		ID:       "toggle",
		Source:   binding.Source{Category: binding.KeyboardKey, Key: "b"},
		Target:   binding.Target{Path: "fx.bypass", Kind: catalog.Boolean},
		Range:    binding.Range{OutputMin: 0, OutputMax: 1},
		Behavior: binding.Behavior{Mode: binding.Toggle},
	}))
	require.NoError(t, banks.AddBinding("A", &binding.Binding{
		ID:       "swell",
		Source:   binding.Source{Category: binding.KeyboardHold, Key: "s"},
		Target:   binding.Target{Path: "fx.gain"},
		Range:    binding.Range{OutputMin: 0, OutputMax: 100},
		Behavior: binding.Behavior{Mode: binding.Absolute},
	}))

	c := &clock{t: time.Unix(0, 0)}
	k := New(h, WithClock(c.now))

	k.Press("b")
	k.Release("b")
	v, _ := target.Get("fx.bypass")
	assert.Equal(t, true, v)

	k.Press("s")
	c.advance(DefaultRamp / 2)
	k.Tick()
	v, _ = target.Get("fx.gain")
	assert.InDelta(t, 50.0, v, 1e-9)

	k.Release("s")
	v, _ = target.Get("fx.gain")
	assert.InDelta(t, 0.0, v, 1e-9)
}
