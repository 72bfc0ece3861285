/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package shell

import "sync"

// Store is an observable value holder. The last written value wins.
// Subscribers are called synchronously with every new value, in write order,
// so the last value a subscriber sees is the value the store holds.
// Subscribers must not write to the same store.
type Store[T any] struct {
	// notifyMu is held from a write until its fan-out completes.
	notifyMu    sync.Mutex
	mu          sync.Mutex
	value       T
	subscribers map[uint64]func(T)
	nextID      uint64
}

// NewStore creates a new Store holding the initial value.
func NewStore[T any](initial T) *Store[T] {
	return &Store[T]{value: initial, subscribers: make(map[uint64]func(T))}
}

// Get returns the current value.
func (s *Store[T]) Get() T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value
}

// Set replaces the value and notifies subscribers.
func (s *Store[T]) Set(value T) {
	s.Update(func(T) T { return value })
}

// Update replaces the value with the result of fn applied to the current one and notifies subscribers.
// Concurrent updates are serialized.
func (s *Store[T]) Update(fn func(current T) T) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	s.value = fn(s.value)
	value := s.value
	subscribers := s.snapshotSubscribers()
	s.mu.Unlock()

	for _, sub := range subscribers {
		sub(value)
	}
}

// Subscribe registers fn and calls it immediately with the current value.
func (s *Store[T]) Subscribe(fn func(T)) (unsubscribe func()) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subscribers[id] = fn
	value := s.value
	s.mu.Unlock()

	fn(value)

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subscribers, id)
	}
}

func (s *Store[T]) snapshotSubscribers() []func(T) {
	res := make([]func(T), 0, len(s.subscribers))
	for _, sub := range s.subscribers {
		res = append(res, sub)
	}
	return res
}
