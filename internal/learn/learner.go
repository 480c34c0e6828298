package learn

import (
	"sync"

	"github.com/PixPMusic/gopher-bind/internal/bank"
	"github.com/PixPMusic/gopher-bind/internal/binding"
	"github.com/PixPMusic/gopher-bind/internal/catalog"
	"github.com/PixPMusic/gopher-bind/internal/hub"
)

// Learner runs at most one session at a time. Starting a new session
// cancels the one in progress.
type Learner struct {
	hub     *hub.Hub
	banks   *bank.Store
	factory *binding.Factory
	opts    []Option

	mu      sync.Mutex
	current *Session
}

// NewLearner creates a learner; opts apply to every session it starts
func NewLearner(h *hub.Hub, banks *bank.Store, f *binding.Factory, opts ...Option) *Learner {
	return &Learner{hub: h, banks: banks, factory: f, opts: opts}
}

// Start cancels any active session and starts a new one for target
func (l *Learner) Start(target catalog.Descriptor, filter string, opts ...Option) *Session {
	l.mu.Lock()
	prev := l.current
	l.current = nil
	l.mu.Unlock()

	if prev != nil {
		prev.Cancel()
	}

	all := append(append([]Option(nil), l.opts...), opts...)
	s := Start(l.hub, l.banks, l.factory, target, filter, all...)

	l.mu.Lock()
	l.current = s
	l.mu.Unlock()
	return s
}

// Cancel cancels the active session, if any
func (l *Learner) Cancel() {
	l.mu.Lock()
	s := l.current
	l.mu.Unlock()
	if s != nil {
		s.Cancel()
	}
}

// Current returns the most recently started session, or nil
func (l *Learner) Current() *Session {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.current
}

// State reports AwaitingInput while a session is listening, Idle otherwise
func (l *Learner) State() State {
	l.mu.Lock()
	s := l.current
	l.mu.Unlock()
	if s == nil {
		return Idle
	}
	return s.State()
}
