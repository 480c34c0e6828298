package learn

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

// fakeTimer captures the timeout callback so tests can fire it by hand
type fakeTimer struct {
	d       time.Duration
	fire    func()
	stopped int
}

func (ft *fakeTimer) afterFunc(d time.Duration, f func()) func() bool {
	ft.d = d
	ft.fire = f
	return func() bool {
		ft.stopped++
		return true
	}
}

type env struct {
	cat     *catalog.Catalog
	banks   *bank.Store
	store   *state.Store
	hub     *hub.Hub
	factory *binding.Factory
	timer   *fakeTimer
}

func newEnv(t *testing.T) *env {
	t.Helper()
	c := catalog.New()
	require.NoError(t, c.Register("opacity", catalog.Descriptor{Path: "layer.skeleton.opacity", Min: catalog.Float(0), Max: catalog.Float(1)}))
	require.NoError(t, c.Register("visible", catalog.Descriptor{Path: "layer.skeleton.visible", Kind: catalog.Boolean}))
	require.NoError(t, c.Register("count", catalog.Descriptor{Path: "particles.count", Min: catalog.Float(0), Max: catalog.Float(100), Step: catalog.Float(1)}))

	e := &env{
		cat:     c,
		banks:   bank.NewStore(),
		store:   state.New(nil),
		factory: binding.NewFactory(c),
		timer:   &fakeTimer{},
	}
	e.hub = hub.Attach(e.banks, e.store)
	return e
}

func (e *env) start(t *testing.T, path, filter string, opts ...Option) *Session {
	t.Helper()
	d, ok := e.cat.FindByPath(path)
	require.True(t, ok)
	opts = append([]Option{WithAfterFunc(e.timer.afterFunc)}, opts...)
	return Start(e.hub, e.banks, e.factory, d, filter, opts...)
}

func TestLearnBindsMidiCC(t *testing.T) {
	e := newEnv(t)
	s := e.start(t, "layer.skeleton.opacity", "midi")
	assert.Equal(t, AwaitingInput, s.State())
	assert.Equal(t, DefaultTimeout, e.timer.d)
	assert.Equal(t, 1, e.hub.Interceptors())

	e.hub.Emit(hub.Event{Category: binding.MidiCC, Key: "cc:1:74", Value: 90})

	out, done := s.Outcome()
	require.True(t, done)
	assert.Equal(t, Bound, out.State)
	assert.Equal(t, "A", out.Bank)
	require.NotNil(t, out.Binding)
	assert.Equal(t, binding.Normal, out.Binding.Behavior.Direction)
	assert.Equal(t, binding.Absolute, out.Binding.Behavior.Mode)
	assert.Equal(t, Idle, s.State())
	assert.Equal(t, 0, e.hub.Interceptors())
	assert.Equal(t, 1, e.timer.stopped)

	// the learning event itself is consumed
	_, ok := e.store.Get("layer.skeleton.opacity")
	assert.False(t, ok)

	e.hub.Emit(hub.Event{Category: binding.MidiCC, Key: "cc:1:74", Value: 0})
	v, _ := e.store.Get("layer.skeleton.opacity")
	assert.InDelta(t, 0.0, v, 1e-9)

	e.hub.Emit(hub.Event{Category: binding.MidiCC, Key: "cc:1:74", Value: 127})
	v, _ = e.store.Get("layer.skeleton.opacity")
	assert.InDelta(t, 1.0, v, 1e-9)

	select {
	case got := <-s.Done():
		assert.Equal(t, Bound, got.State)
	default:
		t.Fatal("outcome not delivered")
	}
}

func TestLearnFilterLetsOtherEventsThrough(t *testing.T) {
	e := newEnv(t)
	require.NoError(t, e.banks.AddBinding("A", &binding.Binding{
		ID:       "axis",
		Source:   binding.Source{Category: binding.GamepadAxis, Key: "axis:1"},
		Target:   binding.Target{Path: "particles.count", Kind: catalog.Continuous},
		Range:    binding.Range{OutputMin: 0, OutputMax: 100},
		Behavior: binding.Behavior{Mode: binding.Absolute},
	}))

	s := e.start(t, "layer.skeleton.opacity", "midi")
	e.hub.Emit(hub.Event{Category: binding.GamepadAxis, Key: "axis:1", Value: 1})

	assert.Equal(t, AwaitingInput, s.State())
	v, ok := e.store.Get("particles.count")
	require.True(t, ok)
	assert.Equal(t, 100.0, v)
	s.Cancel()
}

func TestLearnIgnoresIdleContinuousControl(t *testing.T) {
	e := newEnv(t)
	s := e.start(t, "layer.skeleton.opacity", "midi-cc")

	// sub-threshold readings are swallowed without binding
	for _, v := range []float64{0, 5, 12, 127, 120} {
		e.hub.Emit(hub.Event{Category: binding.MidiCC, Key: "cc:1:10", Value: v})
		assert.Equal(t, AwaitingInput, s.State(), "value %v", v)
	}
	assert.Equal(t, uint64(5), e.hub.Stats().Intercepted)

	e.hub.Emit(hub.Event{Category: binding.MidiCC, Key: "cc:1:10", Value: 64})
	out, done := s.Outcome()
	require.True(t, done)
	assert.Equal(t, Bound, out.State)
	// first reading was 0, so the control was moving up
	assert.Equal(t, binding.Normal, out.Binding.Behavior.Direction)
}

func TestLearnInfersInvertedFromDownwardMovement(t *testing.T) {
	e := newEnv(t)
	s := e.start(t, "layer.skeleton.opacity", "")

	e.hub.Emit(hub.Event{Category: binding.LFO, Key: "lfo:0", Value: 0.95})
	e.hub.Emit(hub.Event{Category: binding.LFO, Key: "lfo:0", Value: 0.5})

	out, done := s.Outcome()
	require.True(t, done)
	assert.Equal(t, binding.Inverted, out.Binding.Behavior.Direction)
}

func TestLearnDiscreteSources(t *testing.T) {
	e := newEnv(t)
	s := e.start(t, "layer.skeleton.visible", "gamepad")
	e.hub.Emit(hub.Event{Category: binding.GamepadButton, Key: "button:2", Value: 1})
	out, _ := s.Outcome()
	require.Equal(t, Bound, out.State)
	assert.Equal(t, binding.Toggle, out.Binding.Behavior.Mode)

	s = e.start(t, "particles.count", "keyboard")
	e.hub.Emit(hub.Event{Category: binding.KeyboardKey, Key: "ArrowUp", Value: 1})
	out, _ = s.Outcome()
	require.Equal(t, Bound, out.State)
	assert.Equal(t, binding.Increment, out.Binding.Behavior.Mode)
	assert.Equal(t, 10.0, out.Binding.Behavior.StepSize)

	e.hub.Emit(hub.Event{Category: binding.KeyboardKey, Key: "ArrowUp", Value: 1})
	v, _ := e.store.Get("particles.count")
	assert.Equal(t, 10.0, v)
}

func TestLearnSupersedesSameFamily(t *testing.T) {
	e := newEnv(t)
	s := e.start(t, "layer.skeleton.opacity", "midi")
	e.hub.Emit(hub.Event{Category: binding.MidiCC, Key: "cc:1:74", Value: 64})
	first, _ := s.Outcome()

	s = e.start(t, "layer.skeleton.opacity", "midi")
	e.hub.Emit(hub.Event{Category: binding.MidiNote, Key: "note:0:60", Value: 100})
	second, _ := s.Outcome()
	require.Equal(t, Bound, second.State)

	active := e.banks.Active()
	assert.Len(t, active.Bindings, 1)
	assert.NotContains(t, active.Bindings, first.Binding.ID)
	assert.Contains(t, active.Bindings, second.Binding.ID)

	// the old control is unbound now
	e.hub.Emit(hub.Event{Category: binding.MidiCC, Key: "cc:1:74", Value: 127})
	_, ok := e.store.Get("layer.skeleton.opacity")
	assert.False(t, ok)
}

func TestLearnTimeout(t *testing.T) {
	e := newEnv(t)
	var got []Outcome
	s := e.start(t, "layer.skeleton.opacity", "midi", OnDone(func(o Outcome) { got = append(got, o) }))

	e.timer.fire()
	out, done := s.Outcome()
	require.True(t, done)
	assert.Equal(t, TimedOut, out.State)
	assert.Nil(t, out.Binding)
	assert.Equal(t, 0, e.hub.Interceptors())
	assert.Empty(t, e.banks.Active().Bindings)

	// late cancel and late events are no-ops
	s.Cancel()
	e.timer.fire()
	e.hub.Emit(hub.Event{Category: binding.MidiCC, Key: "cc:1:74", Value: 64})
	assert.Empty(t, e.banks.Active().Bindings)
	require.Len(t, got, 1)
	assert.Equal(t, TimedOut, got[0].State)
}

func TestLearnCancel(t *testing.T) {
	e := newEnv(t)
	s := e.start(t, "layer.skeleton.opacity", "")
	s.Cancel()
	s.Cancel()

	out, done := s.Outcome()
	require.True(t, done)
	assert.Equal(t, Cancelled, out.State)
	assert.Equal(t, 1, e.timer.stopped)
	assert.Equal(t, 0, e.hub.Interceptors())

	e.hub.Emit(hub.Event{Category: binding.MidiCC, Key: "cc:1:74", Value: 64})
	assert.Empty(t, e.banks.Active().Bindings)
}

func TestLearnUnresolvableTarget(t *testing.T) {
	e := newEnv(t)
	s := Start(e.hub, e.banks, e.factory, catalog.Descriptor{Path: "ghost"}, "", WithAfterFunc(e.timer.afterFunc))
	e.hub.Emit(hub.Event{Category: binding.MidiCC, Key: "cc:1:74", Value: 64})

	out, done := s.Outcome()
	require.True(t, done)
	assert.Equal(t, Cancelled, out.State)
	assert.Empty(t, e.banks.Active().Bindings)
}

func TestLearnerReplacesActiveSession(t *testing.T) {
	e := newEnv(t)
	l := NewLearner(e.hub, e.banks, e.factory, WithAfterFunc(e.timer.afterFunc))
	assert.Equal(t, Idle, l.State())

	op, _ := e.cat.FindByPath("layer.skeleton.opacity")
	vis, _ := e.cat.FindByPath("layer.skeleton.visible")

	assert.Nil(t, l.Current())
	first := l.Start(op, "midi")
	assert.Equal(t, AwaitingInput, l.State())
	assert.Equal(t, "layer.skeleton.opacity", l.Current().Target().Path)
	second := l.Start(vis, "midi")
	assert.Same(t, second, l.Current())
	assert.False(t, second.Since().Before(first.Since()))

	out, done := first.Outcome()
	require.True(t, done)
	assert.Equal(t, Cancelled, out.State)
	assert.Equal(t, 1, e.hub.Interceptors())

	e.hub.Emit(hub.Event{Category: binding.MidiNote, Key: "note:0:36", Value: 127})
	out, _ = second.Outcome()
	assert.Equal(t, Bound, out.State)
	assert.Equal(t, "layer.skeleton.visible", out.Binding.Target.Path)
	assert.Equal(t, Idle, l.State())

	l.Cancel()
}

func TestLearnWithRealTimer(t *testing.T) {
	e := newEnv(t)
	d, _ := e.cat.FindByPath("layer.skeleton.opacity")
	s := Start(e.hub, e.banks, e.factory, d, "midi", WithTimeout(10*time.Millisecond))

	select {
	case out := <-s.Done():
		assert.Equal(t, TimedOut, out.State)
	case <-time.After(2 * time.Second):
		t.Fatal("session did not time out")
	}
	assert.Equal(t, 0, e.hub.Interceptors())
}

func TestLearnExcludedFamiliesNeedAnExplicitFilter(t *testing.T) {
	e := newEnv(t)
	s := e.start(t, "layer.skeleton.opacity", "", Excluding(binding.FamilyLFO))
	e.hub.Emit(hub.Event{Category: binding.LFO, Key: "wobble", Value: 0.5})
	assert.Equal(t, AwaitingInput, s.State())

	e.hub.Emit(hub.Event{Category: binding.MidiCC, Key: "cc:1:74", Value: 64})
	out, done := s.Outcome()
	require.True(t, done)
	assert.Equal(t, binding.MidiCC, out.Binding.Source.Category)

	s = e.start(t, "particles.count", "lfo", Excluding(binding.FamilyLFO))
	e.hub.Emit(hub.Event{Category: binding.LFO, Key: "wobble", Value: 0.5})
	out, done = s.Outcome()
	require.True(t, done)
	assert.Equal(t, binding.LFO, out.Binding.Source.Category)
}

func TestLearnSkipsBankSwitchControls(t *testing.T) {
	e := newEnv(t)
	require.NoError(t, e.banks.SetSwitchBinding("B", binding.Source{Category: binding.MidiNote, Key: "note:1:36"}))

	s := e.start(t, "layer.skeleton.visible", "midi")
	e.hub.Emit(hub.Event{Category: binding.MidiNote, Key: "note:1:36", Value: 100})
	assert.Equal(t, AwaitingInput, s.State())
	assert.Equal(t, "B", e.banks.ActiveName())

	e.hub.Emit(hub.Event{Category: binding.MidiNote, Key: "note:1:37", Value: 100})
	out, done := s.Outcome()
	require.True(t, done)
	assert.Equal(t, "B", out.Bank)
	assert.Equal(t, "midi-note:note:1:37", out.Binding.FullKey())
}
