// Package learn creates bindings from the next qualifying control event.
package learn

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/PixPMusic/gopher-bind/internal/bank"
	"github.com/PixPMusic/gopher-bind/internal/binding"
	"github.com/PixPMusic/gopher-bind/internal/catalog"
	"github.com/PixPMusic/gopher-bind/internal/curve"
	"github.com/PixPMusic/gopher-bind/internal/hub"
)

// Defaults
const (
	DefaultTimeout   = 10 * time.Second
	DefaultThreshold = 0.1 // fraction of the input domain kept clear of each extreme
)

// State of a learn session
type State int

const (
	Idle State = iota
	AwaitingInput
	Bound
	Cancelled
	TimedOut
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case AwaitingInput:
		return "awaiting-input"
	case Bound:
		return "bound"
	case Cancelled:
		return "cancelled"
	case TimedOut:
		return "timed-out"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Outcome is how a session ended
type Outcome struct {
	State   State // Bound, Cancelled or TimedOut
	Bank    string
	Binding *binding.Binding // set when State is Bound
}

// AfterFunc schedules f after d and returns a func that stops it
type AfterFunc func(d time.Duration, f func()) (stop func() bool)

func realAfterFunc(d time.Duration, f func()) func() bool {
	return time.AfterFunc(d, f).Stop
}

// Option configures a Session
type Option func(*Session)

// WithTimeout overrides the 10s timeout
func WithTimeout(d time.Duration) Option {
	return func(s *Session) { s.timeout = d }
}

// WithAfterFunc replaces time.AfterFunc, for tests
func WithAfterFunc(fn AfterFunc) Option {
	return func(s *Session) { s.afterFunc = fn }
}

// WithThreshold sets the movement threshold for continuous sources
func WithThreshold(t float64) Option {
	return func(s *Session) { s.threshold = curve.Clamp(t, 0, 0.5) }
}

// WithLogger sets the session's logger
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) { s.log = l }
}

// Excluding ignores sources from the given families unless the filter
// names them. Free-running sources such as LFOs would otherwise win every
// unfiltered session.
func Excluding(families ...binding.Family) Option {
	return func(s *Session) {
		for _, f := range families {
			s.excluded[f] = true
		}
	}
}

// OnDone registers a callback for the outcome. It runs without any session
// lock held.
func OnDone(fn func(Outcome)) Option {
	return func(s *Session) { s.onDone = append(s.onDone, fn) }
}

// Session is one learn request. It is one-shot: once it leaves
// AwaitingInput it is Idle for good.
type Session struct {
	hub      *hub.Hub
	banks    *bank.Store
	factory  *binding.Factory
	target   catalog.Descriptor
	filter   string
	excluded map[binding.Family]bool
	since    time.Time

	timeout   time.Duration
	threshold float64
	afterFunc AfterFunc
	log       *slog.Logger
	onDone    []func(Outcome)

	mu        sync.Mutex
	state     State
	outcome   Outcome
	seen      map[string]float64 // first raw value per fullKey, for intent
	removeIC  func()
	stopTimer func() bool
	done      chan Outcome
}

// Start begins listening for the first event that matches filter. filter
// names a category ("midi-cc"), a family ("midi") or is empty for any.
func Start(h *hub.Hub, banks *bank.Store, f *binding.Factory, target catalog.Descriptor, filter string, opts ...Option) *Session {
	s := &Session{
		hub:       h,
		banks:     banks,
		factory:   f,
		target:    target,
		filter:    filter,
		excluded:  make(map[binding.Family]bool),
		since:     time.Now(),
		timeout:   DefaultTimeout,
		threshold: DefaultThreshold,
		afterFunc: realAfterFunc,
		log:       slog.Default(),
		state:     AwaitingInput,
		seen:      make(map[string]float64),
		done:      make(chan Outcome, 1),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.mu.Lock()
	s.removeIC = h.AddInterceptor(s.intercept)
	s.stopTimer = s.afterFunc(s.timeout, func() { s.finish(TimedOut, nil) })
	s.mu.Unlock()

	s.log.Info("learn: waiting for input", "target", target.Path, "filter", filter, "timeout", s.timeout)
	return s
}

// Target returns the parameter being learned
func (s *Session) Target() catalog.Descriptor {
	return s.target
}

// Since returns when the session started
func (s *Session) Since() time.Time {
	return s.since
}

// State returns AwaitingInput while listening and Idle afterwards
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Outcome returns how the session ended, or false while it is still active
func (s *Session) Outcome() (Outcome, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.outcome, s.state != AwaitingInput
}

// Done delivers the outcome once and is then closed
func (s *Session) Done() <-chan Outcome {
	return s.done
}

// Cancel ends the session without creating a binding. Cancelling a
// finished session does nothing.
func (s *Session) Cancel() {
	s.finish(Cancelled, nil)
}

// wants reports whether ev may be learned. Bank switch controls pass
// through so they keep switching while a session is open.
func (s *Session) wants(ev hub.Event) bool {
	if !ev.Category.Matches(s.filter) {
		return false
	}
	if s.filter == "" && s.excluded[ev.Category.Family()] {
		return false
	}
	if s.hub.IsSwitch(ev.FullKey()) {
		s.log.Debug("learn: ignoring bank switch control", "source", ev.FullKey())
		return false
	}
	return true
}

func (s *Session) intercept(ev hub.Event) bool {
	s.mu.Lock()
	if s.state != AwaitingInput || !s.wants(ev) {
		s.mu.Unlock()
		return false
	}
	dom, ok := ev.Category.Domain()
	if !ok {
		s.mu.Unlock()
		return false
	}

	key := ev.FullKey()
	if !dom.Discrete {
		x := curve.Normalize(ev.Value, dom.Min, dom.Max)
		if x < s.threshold || x > 1-s.threshold {
			if _, seen := s.seen[key]; !seen {
				s.seen[key] = ev.Value
			}
			s.mu.Unlock()
			return true
		}
	}

	intent := binding.IntentUnknown
	if first, seen := s.seen[key]; seen {
		switch {
		case ev.Value > first:
			intent = binding.IntentUp
		case ev.Value < first:
			intent = binding.IntentDown
		}
	}

	b, ok := s.factory.FromTarget(s.target, ev.Source(), intent)
	if !ok {
		s.log.Warn("learn: target cannot be bound", "target", s.target.Path, "source", key)
		out := s.finishLocked(Cancelled, nil)
		s.mu.Unlock()
		s.notify(out)
		return true
	}

	name := s.banks.ActiveName()
	if err := s.banks.AddBinding(name, b); err != nil {
		s.log.Error("learn: failed to store binding", "bank", name, "err", err)
		out := s.finishLocked(Cancelled, nil)
		s.mu.Unlock()
		s.notify(out)
		return true
	}

	out := s.finishLocked(Bound, b)
	out.Bank = name
	s.outcome.Bank = name
	s.mu.Unlock()

	s.log.Info("learn: bound", "bank", name, "source", key, "target", s.target.Path,
		"mode", b.Behavior.Mode, "direction", b.Behavior.Direction)
	s.notify(out)
	return true
}

func (s *Session) finish(st State, b *binding.Binding) {
	s.mu.Lock()
	if s.state != AwaitingInput {
		s.mu.Unlock()
		return
	}
	out := s.finishLocked(st, b)
	s.mu.Unlock()

	s.log.Info("learn: ended", "target", s.target.Path, "state", st)
	s.notify(out)
}

// finishLocked tears down the interceptor and timer exactly once and moves
// the session to Idle.
func (s *Session) finishLocked(st State, b *binding.Binding) Outcome {
	s.removeIC()
	s.stopTimer()
	s.state = Idle
	s.outcome = Outcome{State: st, Binding: b}
	return s.outcome
}

func (s *Session) notify(out Outcome) {
	s.done <- out
	close(s.done)
	for _, fn := range s.onDone {
		fn(out)
	}
}
