// Package hub routes raw control events through the active bank's bindings
// into parameter writes.
package hub

import (
	"log/slog"
	"math"
	"sync"
	"sync/atomic"

	"github.com/PixPMusic/gopher-bind/internal/bank"
	"github.com/PixPMusic/gopher-bind/internal/binding"
)

// Event is one raw reading from an adapter
type Event struct {
	Category binding.Category
	Key      string
	Value    float64
	Meta     map[string]any
}

// FullKey returns the routing identity of the event's control
func (e Event) FullKey() string {
	return binding.FullKey(e.Category, e.Key)
}

// Source returns the event's control identity
func (e Event) Source() binding.Source {
	return binding.Source{Category: e.Category, Key: e.Key}
}

// Pressed reports whether a discrete event is a press rather than a
// release, i.e. its value is above the bottom of the category's domain.
// NaN reads as a release.
func (e Event) Pressed() bool {
	dom, ok := e.Category.Domain()
	return ok && !math.IsNaN(e.Value) && e.Value > dom.Min
}

// Target is the backing store parameters are written to
type Target interface {
	Get(path string) (any, bool)
	Dispatch(path string, value any)
}

// Interceptor sees every event before routing. Returning true consumes the
// event and stops routing.
type Interceptor func(Event) bool

type interceptor struct {
	id int
	fn Interceptor
}

// Stats counts what happened to emitted events
type Stats struct {
	Routed      uint64
	Unbound     uint64
	Intercepted uint64
	Switched    uint64
	Ignored     uint64
}

// Option configures a Hub
type Option func(*Hub)

// WithLogger sets the hub's logger
func WithLogger(l *slog.Logger) Option {
	return func(h *Hub) { h.log = l }
}

// WithSwitcher sets the function called when a bank-switch control is
// pressed, usually bank.Store.SwitchTo.
func WithSwitcher(fn func(name string) error) Option {
	return func(h *Hub) { h.switcher = fn }
}

// Hub indexes the active bank by fullKey and dispatches transformed values
type Hub struct {
	target   Target
	switcher func(string) error
	log      *slog.Logger

	emitMu sync.Mutex // serializes Emit

	idxMu    sync.RWMutex
	bankName string
	index    map[string]*binding.Binding
	switches map[string]string

	icMu         sync.Mutex
	interceptors []interceptor
	nextIC       int

	routed, unbound, intercepted, switched, ignored atomic.Uint64
}

// New creates a hub writing to target
func New(target Target, opts ...Option) *Hub {
	h := &Hub{
		target:   target,
		log:      slog.Default(),
		index:    map[string]*binding.Binding{},
		switches: map[string]string{},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Attach wires the hub to a bank store: the index follows the store's
// active bank and switch controls call SwitchTo.
func Attach(store *bank.Store, target Target, opts ...Option) *Hub {
	opts = append([]Option{WithSwitcher(store.SwitchTo)}, opts...)
	h := New(target, opts...)
	store.OnChange(h.Rebuild)
	return h
}

// Rebuild replaces the routing index with one built from active, and the
// switch index with switches. The new maps are swapped in whole.
func (h *Hub) Rebuild(active bank.Bank, switches map[string]string) {
	idx := make(map[string]*binding.Binding, len(active.Bindings))
	for _, b := range active.Sorted() {
		idx[b.FullKey()] = b
	}
	sw := make(map[string]string, len(switches))
	for k, v := range switches {
		sw[k] = v
	}

	h.idxMu.Lock()
	h.bankName = active.Name
	h.index = idx
	h.switches = sw
	h.idxMu.Unlock()

	h.log.Debug("hub: index rebuilt", "bank", active.Name, "bindings", len(idx), "switches", len(sw))
}

// Lookup returns the binding routed for fullKey in the active bank
func (h *Hub) Lookup(fullKey string) (*binding.Binding, bool) {
	h.idxMu.RLock()
	defer h.idxMu.RUnlock()
	b, ok := h.index[fullKey]
	return b, ok
}

// IsSwitch reports whether fullKey is a bank switch control in any bank
func (h *Hub) IsSwitch(fullKey string) bool {
	h.idxMu.RLock()
	defer h.idxMu.RUnlock()
	_, ok := h.switches[fullKey]
	return ok
}

// BankName returns the name of the bank the index was built from
func (h *Hub) BankName() string {
	h.idxMu.RLock()
	defer h.idxMu.RUnlock()
	return h.bankName
}

// AddInterceptor registers fn after all existing interceptors. The returned
// func unregisters it and may be called any number of times.
func (h *Hub) AddInterceptor(fn Interceptor) (remove func()) {
	h.icMu.Lock()
	h.nextIC++
	id := h.nextIC
	h.interceptors = append(h.interceptors, interceptor{id: id, fn: fn})
	h.icMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { h.removeInterceptor(id) })
	}
}

func (h *Hub) removeInterceptor(id int) {
	h.icMu.Lock()
	defer h.icMu.Unlock()
	for i, ic := range h.interceptors {
		if ic.id == id {
			h.interceptors = append(h.interceptors[:i:i], h.interceptors[i+1:]...)
			return
		}
	}
}

// Interceptors returns the number of registered interceptors
func (h *Hub) Interceptors() int {
	h.icMu.Lock()
	defer h.icMu.Unlock()
	return len(h.interceptors)
}

// Emit routes one event. Events are handled one at a time in call order;
// each results in at most one Dispatch.
func (h *Hub) Emit(ev Event) {
	h.emitMu.Lock()
	defer h.emitMu.Unlock()

	h.icMu.Lock()
	ics := append([]interceptor(nil), h.interceptors...)
	h.icMu.Unlock()

	for _, ic := range ics {
		if ic.fn(ev) {
			h.intercepted.Add(1)
			return
		}
	}

	key := ev.FullKey()
	h.idxMu.RLock()
	bankName, isSwitch := h.switches[key]
	b := h.index[key]
	h.idxMu.RUnlock()

	if isSwitch {
		h.switchBank(ev, bankName)
		return
	}
	if b == nil {
		h.unbound.Add(1)
		return
	}

	value, ok := h.transform(b, ev)
	if !ok {
		h.ignored.Add(1)
		return
	}
	h.target.Dispatch(b.Target.Path, value)
	h.routed.Add(1)
}

func (h *Hub) switchBank(ev Event, name string) {
	if !ev.Pressed() {
		h.ignored.Add(1)
		return
	}
	h.switched.Add(1)
	if name == h.BankName() {
		return
	}
	if h.switcher == nil {
		h.log.Warn("hub: bank switch control pressed but no switcher set", "bank", name)
		return
	}
	if err := h.switcher(name); err != nil {
		h.log.Error("hub: bank switch failed", "bank", name, "err", err)
		return
	}
	h.log.Info("hub: switched bank", "bank", name, "control", ev.FullKey())
}

// transform computes the value to dispatch for ev. It returns false when
// the event must not produce a write: discrete releases and inert
// Absolute bindings on targets with no current value.
func (h *Hub) transform(b *binding.Binding, ev Event) (any, bool) {
	dom, ok := b.Source.Category.Domain()
	if !ok {
		return nil, false
	}
	if !dom.Discrete {
		return Continuous(ev.Value, b), true
	}
	if !ev.Pressed() {
		return nil, false
	}
	cur, _ := h.target.Get(b.Target.Path)
	v := Discrete(cur, b)
	if v == nil {
		return nil, false
	}
	return v, true
}

// Stats returns a snapshot of the event counters
func (h *Hub) Stats() Stats {
	return Stats{
		Routed:      h.routed.Load(),
		Unbound:     h.unbound.Load(),
		Intercepted: h.intercepted.Load(),
		Switched:    h.switched.Load(),
		Ignored:     h.ignored.Load(),
	}
}
