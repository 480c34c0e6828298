// Package keys turns key presses into keyboard-key events and held keys
// into keyboard-hold ramps.
package keys

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/PixPMusic/gopher-bind/internal/binding"
	"github.com/PixPMusic/gopher-bind/internal/curve"
	"github.com/PixPMusic/gopher-bind/internal/hub"
)

// DefaultRamp is how long a key must be held for its hold value to reach 1
const DefaultRamp = time.Second

// Emitter receives keyboard events
type Emitter interface {
	Emit(hub.Event)
}

// Option configures a Keyboard
type Option func(*Keyboard)

// WithRamp sets the time a hold takes to go from 0 to 1
func WithRamp(d time.Duration) Option {
	return func(k *Keyboard) {
		if d > 0 {
			k.ramp = d
		}
	}
}

// WithClock replaces time.Now, for tests
func WithClock(now func() time.Time) Option {
	return func(k *Keyboard) { k.now = now }
}

// Keyboard tracks which keys are down
type Keyboard struct {
	emitter Emitter
	ramp    time.Duration
	now     func() time.Time

	mu   sync.Mutex
	held map[string]time.Time // key -> pressed at
}

// New creates a keyboard adapter emitting to e
func New(e Emitter, opts ...Option) *Keyboard {
	k := &Keyboard{
		emitter: e,
		ramp:    DefaultRamp,
		now:     time.Now,
		held:    make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(k)
	}
	return k
}

// Press emits a keyboard-key press. Auto-repeat presses of a key that is
// already down are dropped.
func (k *Keyboard) Press(key string) {
	k.mu.Lock()
	if _, down := k.held[key]; down {
		k.mu.Unlock()
		return
	}
	k.held[key] = k.now()
	k.mu.Unlock()

	k.emitter.Emit(hub.Event{Category: binding.KeyboardKey, Key: key, Value: 1})
	k.emitter.Emit(hub.Event{Category: binding.KeyboardHold, Key: key, Value: 0})
}

// Release emits the key release and resets its hold value to 0
func (k *Keyboard) Release(key string) {
	k.mu.Lock()
	if _, down := k.held[key]; !down {
		k.mu.Unlock()
		return
	}
	delete(k.held, key)
	k.mu.Unlock()

	k.emitter.Emit(hub.Event{Category: binding.KeyboardKey, Key: key, Value: 0})
	k.emitter.Emit(hub.Event{Category: binding.KeyboardHold, Key: key, Value: 0})
}

// Held returns the keys currently down, sorted
func (k *Keyboard) Held() []string {
	k.mu.Lock()
	defer k.mu.Unlock()
	out := make([]string, 0, len(k.held))
	for key := range k.held {
		out = append(out, key)
	}
	sort.Strings(out)
	return out
}

// Tick emits a keyboard-hold value for every key that is down, rising
// linearly from 0 to 1 over the ramp time.
func (k *Keyboard) Tick() {
	now := k.now()

	k.mu.Lock()
	events := make([]hub.Event, 0, len(k.held))
	for key, at := range k.held {
		v := curve.Clamp(float64(now.Sub(at))/float64(k.ramp), 0, 1)
		events = append(events, hub.Event{Category: binding.KeyboardHold, Key: key, Value: v})
	}
	k.mu.Unlock()

	sort.Slice(events, func(i, j int) bool { return events[i].Key < events[j].Key })
	for _, ev := range events {
		k.emitter.Emit(ev)
	}
}

// Run calls Tick every interval until ctx is done
func (k *Keyboard) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			k.Tick()
		}
	}
}
