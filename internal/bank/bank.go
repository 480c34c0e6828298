// Package bank keeps named, switchable sets of bindings.
package bank

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/PixPMusic/gopher-bind/internal/binding"
)

// Default bank names
var Names = []string{"A", "B", "C", "D"}

var (
	ErrUnknownBank    = errors.New("unknown bank")
	ErrUnknownBinding = errors.New("unknown binding")

	// errUnchanged tells mutate there is nothing to notify or persist
	errUnchanged = errors.New("unchanged")
)

// SwitchBinding is a control that makes its bank active when pressed
type SwitchBinding struct {
	FullKey  string           `json:"full_key"`
	Category binding.Category `json:"category"`
}

// Bank is a named set of bindings keyed by ID
type Bank struct {
	Name     string                      `json:"name"`
	Bindings map[string]*binding.Binding `json:"bindings"`
	Switch   *SwitchBinding              `json:"switch,omitempty"`
}

func newBank(name string) *Bank {
	return &Bank{Name: name, Bindings: make(map[string]*binding.Binding)}
}

func (b *Bank) clone() Bank {
	c := Bank{Name: b.Name, Bindings: make(map[string]*binding.Binding, len(b.Bindings))}
	for id, bd := range b.Bindings {
		c.Bindings[id] = bd.Clone()
	}
	if b.Switch != nil {
		sw := *b.Switch
		c.Switch = &sw
	}
	return c
}

// Sorted returns the bank's bindings ordered by creation time, then ID
func (b Bank) Sorted() []*binding.Binding {
	out := make([]*binding.Binding, 0, len(b.Bindings))
	for _, bd := range b.Bindings {
		out = append(out, bd)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Meta.CreatedAt.Equal(out[j].Meta.CreatedAt) {
			return out[i].Meta.CreatedAt.Before(out[j].Meta.CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Snapshot is the persisted form of a store
type Snapshot struct {
	Active string `json:"active"`
	Banks  []Bank `json:"banks"`
}

// Listener receives the active bank and the cross-bank switch map
// (fullKey -> bank name) after every change. It runs while the store is
// locked and must not call back into the store.
type Listener func(active Bank, switches map[string]string)

// Persister saves a snapshot after every mutation
type Persister interface {
	SaveBanks(Snapshot) error
}

// Option configures a Store
type Option func(*Store)

// WithLogger sets the logger used for persistence failures
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.log = l }
}

// WithPersister saves every mutation through p
func WithPersister(p Persister) Option {
	return func(s *Store) { s.persist = p }
}

// WithNames overrides the default A..D bank names
func WithNames(names ...string) Option {
	return func(s *Store) { s.names = names }
}

// Store owns all banks and the active-bank pointer
type Store struct {
	mu        sync.RWMutex
	names     []string
	banks     map[string]*Bank
	active    string
	listeners []Listener
	persist   Persister
	log       *slog.Logger
}

// NewStore creates a store with empty banks; the first bank is active
func NewStore(opts ...Option) *Store {
	s := &Store{
		names: Names,
		log:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if len(s.names) == 0 {
		s.names = Names
	}
	s.banks = make(map[string]*Bank, len(s.names))
	for _, n := range s.names {
		s.banks[n] = newBank(n)
	}
	s.active = s.names[0]
	return s
}

// OnChange registers l and immediately calls it with the current state
func (s *Store) OnChange(l Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
	l(s.banks[s.active].clone(), s.switchesLocked())
}

// Names returns the bank names in order
func (s *Store) Names() []string {
	return append([]string(nil), s.names...)
}

// ActiveName returns the name of the active bank
func (s *Store) ActiveName() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

// Active returns a copy of the active bank
func (s *Store) Active() Bank {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.banks[s.active].clone()
}

// Bank returns a copy of the named bank
func (s *Store) Bank(name string) (Bank, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.banks[name]
	if !ok {
		return Bank{}, fmt.Errorf("%w: %s", ErrUnknownBank, name)
	}
	return b.clone(), nil
}

// SwitchTo makes name the active bank. Listeners have rebuilt their view of
// the new bank by the time it returns. Switching to the bank that is already
// active changes nothing and notifies no one.
func (s *Store) SwitchTo(name string) error {
	return s.mutate(func() error {
		if _, ok := s.banks[name]; !ok {
			return fmt.Errorf("%w: %s", ErrUnknownBank, name)
		}
		if name == s.active {
			return errUnchanged
		}
		s.active = name
		return nil
	})
}

// AddBinding stores b in the named bank. Any binding in that bank on the
// same fullKey, or on the same target from the same source family, is
// superseded.
func (s *Store) AddBinding(name string, b *binding.Binding) error {
	return s.mutate(func() error {
		bk, ok := s.banks[name]
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownBank, name)
		}
		put(bk, b)
		return nil
	})
}

// put stores a sanitized copy of b and evicts whatever it supersedes
func put(bk *Bank, b *binding.Binding) {
	nb := b.Clone()
	nb.Sanitize()
	for id, old := range bk.Bindings {
		if id == nb.ID {
			continue
		}
		if old.FullKey() == nb.FullKey() || (old.Target.Path == nb.Target.Path && old.Family() == nb.Family()) {
			delete(bk.Bindings, id)
		}
	}
	bk.Bindings[nb.ID] = nb
}

// UpdateBinding replaces an existing binding, matched by ID
func (s *Store) UpdateBinding(name string, b *binding.Binding) error {
	return s.mutate(func() error {
		bk, ok := s.banks[name]
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownBank, name)
		}
		if _, ok := bk.Bindings[b.ID]; !ok {
			return fmt.Errorf("%w: %s", ErrUnknownBinding, b.ID)
		}
		put(bk, b)
		return nil
	})
}

// RemoveBinding deletes a binding by ID
func (s *Store) RemoveBinding(name, id string) error {
	return s.mutate(func() error {
		bk, ok := s.banks[name]
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownBank, name)
		}
		if _, ok := bk.Bindings[id]; !ok {
			return fmt.Errorf("%w: %s", ErrUnknownBinding, id)
		}
		delete(bk.Bindings, id)
		return nil
	})
}

// Supersede removes every binding in the named bank that targets path from
// the given source family. It returns the number removed.
func (s *Store) Supersede(name, path string, family binding.Family) (int, error) {
	var n int
	err := s.mutate(func() error {
		bk, ok := s.banks[name]
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownBank, name)
		}
		n = supersede(bk, path, family)
		return nil
	})
	return n, err
}

func supersede(bk *Bank, path string, family binding.Family) int {
	n := 0
	for id, old := range bk.Bindings {
		if old.Target.Path == path && old.Family() == family {
			delete(bk.Bindings, id)
			n++
		}
	}
	return n
}

// MoveBinding moves a binding between banks, keeping its source, target
// and behavior.
func (s *Store) MoveBinding(id, from, to string) error {
	return s.mutate(func() error {
		src, ok := s.banks[from]
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownBank, from)
		}
		dst, ok := s.banks[to]
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownBank, to)
		}
		b, ok := src.Bindings[id]
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownBinding, id)
		}
		delete(src.Bindings, id)
		put(dst, b)
		return nil
	})
}

// SetSwitchBinding assigns a control that activates the named bank. The
// control works regardless of which bank is active, and a control can only
// switch to one bank.
func (s *Store) SetSwitchBinding(name string, src binding.Source) error {
	return s.mutate(func() error {
		bk, ok := s.banks[name]
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownBank, name)
		}
		key := src.FullKey()
		for _, other := range s.banks {
			if other.Switch != nil && other.Switch.FullKey == key {
				other.Switch = nil
			}
		}
		bk.Switch = &SwitchBinding{FullKey: key, Category: src.Category}
		return nil
	})
}

// ClearSwitchBinding removes the named bank's switch control
func (s *Store) ClearSwitchBinding(name string) error {
	return s.mutate(func() error {
		bk, ok := s.banks[name]
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownBank, name)
		}
		bk.Switch = nil
		return nil
	})
}

// Snapshot returns a copy of all banks in name order
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// Restore replaces all state with snap. Banks not named in the store are
// ignored, and an unknown active name falls back to the first bank.
func (s *Store) Restore(snap Snapshot) error {
	return s.mutate(func() error {
		for _, n := range s.names {
			s.banks[n] = newBank(n)
		}
		for _, b := range snap.Banks {
			bk, ok := s.banks[b.Name]
			if !ok {
				s.log.Warn("bank: ignoring unknown bank in snapshot", "bank", b.Name)
				continue
			}
			for _, nb := range restorable(b.Bindings) {
				put(bk, nb)
			}
			if b.Switch != nil {
				sw := *b.Switch
				bk.Switch = &sw
			}
		}
		if _, ok := s.banks[snap.Active]; ok {
			s.active = snap.Active
		} else if len(s.names) > 0 {
			s.active = s.names[0]
		}
		return nil
	})
}

// restorable returns the valid bindings of a saved bank oldest first, so that
// replaying them through put leaves the newest of any conflicting pair.
func restorable(saved map[string]*binding.Binding) []*binding.Binding {
	valid := Bank{Bindings: make(map[string]*binding.Binding, len(saved))}
	for id, bd := range saved {
		if bd == nil || !bd.Source.Category.Valid() {
			continue
		}
		nb := bd.Clone()
		nb.ID = id
		valid.Bindings[id] = nb
	}
	return valid.Sorted()
}

// mutate applies fn under the write lock, then notifies listeners and the
// persister before releasing it.
func (s *Store) mutate(fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := fn(); err != nil {
		if errors.Is(err, errUnchanged) {
			return nil
		}
		return err
	}

	active := s.banks[s.active]
	switches := s.switchesLocked()
	for _, l := range s.listeners {
		l(active.clone(), switches)
	}

	if s.persist != nil {
		if err := s.persist.SaveBanks(s.snapshotLocked()); err != nil {
			s.log.Error("bank: failed to persist banks", "err", err)
		}
	}
	return nil
}

func (s *Store) switchesLocked() map[string]string {
	m := make(map[string]string)
	for _, n := range s.names {
		if sw := s.banks[n].Switch; sw != nil {
			m[sw.FullKey] = n
		}
	}
	return m
}

func (s *Store) snapshotLocked() Snapshot {
	snap := Snapshot{Active: s.active, Banks: make([]Bank, 0, len(s.names))}
	for _, n := range s.names {
		snap.Banks = append(snap.Banks, s.banks[n].clone())
	}
	return snap
}
