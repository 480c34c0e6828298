// Package state is a small in-memory keyed store with change subscriptions,
// used as the hub's backing store when no host application provides one.
package state

import (
	"sort"
	"sync"
)

// Handler is called with the path and new value after every dispatch
type Handler func(path string, value any)

type subscription struct {
	id   int
	path string
	fn   Handler
}

// Store holds parameter values by path
type Store struct {
	mu     sync.RWMutex
	values map[string]any
	subs   []subscription
	nextID int
}

// New creates an empty store, optionally seeded with initial values
func New(initial map[string]any) *Store {
	s := &Store{values: make(map[string]any, len(initial))}
	for k, v := range initial {
		s.values[k] = v
	}
	return s
}

// Get returns the value at path
func (s *Store) Get(path string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[path]
	return v, ok
}

// Dispatch writes value at path and notifies subscribers
func (s *Store) Dispatch(path string, value any) {
	s.mu.Lock()
	s.values[path] = value
	var fns []Handler
	for _, sub := range s.subs {
		if sub.path == "" || sub.path == path {
			fns = append(fns, sub.fn)
		}
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(path, value)
	}
}

// Subscribe calls fn after every dispatch to path, or to any path when path
// is empty. The returned func cancels the subscription.
func (s *Store) Subscribe(path string, fn Handler) (cancel func()) {
	s.mu.Lock()
	s.nextID++
	id := s.nextID
	s.subs = append(s.subs, subscription{id: id, path: path, fn: fn})
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, sub := range s.subs {
			if sub.id == id {
				s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
				return
			}
		}
	}
}

// Paths returns every path that has a value, sorted
func (s *Store) Paths() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.values))
	for k := range s.values {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
