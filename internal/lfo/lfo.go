// Package lfo runs software oscillators and emits their output as lfo events.
package lfo

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/PixPMusic/gopher-bind/internal/binding"
	"github.com/PixPMusic/gopher-bind/internal/hub"
)

// Emitter receives oscillator events
type Emitter interface {
	Emit(hub.Event)
}

// Waveform is the shape of an oscillator
type Waveform int

const (
	Sine Waveform = iota
	Triangle
	Saw
	Square
)

var waveNames = map[Waveform]string{
	Sine:     "sine",
	Triangle: "triangle",
	Saw:      "saw",
	Square:   "square",
}

func (w Waveform) String() string {
	if s, ok := waveNames[w]; ok {
		return s
	}
	return fmt.Sprintf("waveform(%d)", int(w))
}

// ParseWaveform parses a waveform name; empty means sine
func ParseWaveform(s string) (Waveform, error) {
	if s == "" {
		return Sine, nil
	}
	for w, name := range waveNames {
		if name == s {
			return w, nil
		}
	}
	return 0, fmt.Errorf("unknown waveform: %q", s)
}

func (w Waveform) MarshalText() ([]byte, error) {
	return []byte(w.String()), nil
}

func (w *Waveform) UnmarshalText(b []byte) error {
	v, err := ParseWaveform(string(b))
	if err != nil {
		return err
	}
	*w = v
	return nil
}

// Oscillator is one LFO. Its key is the event key it emits under.
type Oscillator struct {
	Key   string   `json:"key"`
	Rate  float64  `json:"rate"` // Hz
	Wave  Waveform `json:"wave"`
	Phase float64  `json:"phase"` // 0..1 offset into the cycle
}

// At returns the oscillator output at elapsed time t, in [0, 1]
func (o Oscillator) At(t time.Duration) float64 {
	p := o.Phase + o.Rate*t.Seconds()
	p -= math.Floor(p)

	switch o.Wave {
	case Triangle:
		if p < 0.5 {
			return 2 * p
		}
		return 2 - 2*p
	case Saw:
		return p
	case Square:
		if p < 0.5 {
			return 1
		}
		return 0
	default:
		return 0.5 - 0.5*math.Cos(2*math.Pi*p)
	}
}

// Option configures a Runner
type Option func(*Runner)

// WithInterval sets the tick interval for Run
func WithInterval(d time.Duration) Option {
	return func(r *Runner) { r.interval = d }
}

// WithLogger sets the runner's logger
func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) { r.log = l }
}

// Runner ticks a set of oscillators and emits one event per oscillator per tick
type Runner struct {
	emitter  Emitter
	interval time.Duration
	log      *slog.Logger

	mu   sync.Mutex
	oscs map[string]Oscillator
}

// NewRunner creates a runner emitting to e. The default interval is 20ms.
func NewRunner(e Emitter, opts ...Option) *Runner {
	r := &Runner{
		emitter:  e,
		interval: 20 * time.Millisecond,
		log:      slog.Default(),
		oscs:     make(map[string]Oscillator),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Add registers o, replacing any oscillator with the same key
func (r *Runner) Add(o Oscillator) error {
	if o.Key == "" {
		return fmt.Errorf("oscillator key is empty")
	}
	if o.Rate <= 0 {
		return fmt.Errorf("oscillator %s: rate must be positive, got %v", o.Key, o.Rate)
	}
	r.mu.Lock()
	r.oscs[o.Key] = o
	r.mu.Unlock()
	return nil
}

// Remove drops the oscillator with key
func (r *Runner) Remove(key string) {
	r.mu.Lock()
	delete(r.oscs, key)
	r.mu.Unlock()
}

// Keys returns the registered oscillator keys, sorted
func (r *Runner) Keys() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	keys := make([]string, 0, len(r.oscs))
	for k := range r.oscs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Tick emits every oscillator's value at elapsed time t, in key order
func (r *Runner) Tick(t time.Duration) {
	r.mu.Lock()
	events := make([]hub.Event, 0, len(r.oscs))
	for _, o := range r.oscs {
		events = append(events, hub.Event{
			Category: binding.LFO,
			Key:      o.Key,
			Value:    o.At(t),
		})
	}
	r.mu.Unlock()

	sort.Slice(events, func(i, j int) bool { return events[i].Key < events[j].Key })
	for _, ev := range events {
		r.emitter.Emit(ev)
	}
}

// Run ticks until ctx is done
func (r *Runner) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	start := time.Now()
	r.log.Debug("lfo: running", "oscillators", r.Keys(), "interval", r.interval)
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			r.Tick(now.Sub(start))
		}
	}
}
