// Package kv provides a generic thread-safe key-value store with optional
// expiry.
package kv

import (
	"sync"
	"time"
)

type entry[V any] struct {
	value     V
	expiresAt time.Time // zero means no expiry
}

// Option configures a Store.
type Option func(*options)

type options struct {
	ttl time.Duration
	now func() time.Time
}

// WithTTL expires entries d after they are set. Zero disables expiry.
func WithTTL(d time.Duration) Option {
	return func(o *options) { o.ttl = d }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// Store is a thread-safe generic key-value store.
type Store[K comparable, V any] struct {
	mu   sync.RWMutex
	data map[K]entry[V]
	opts options
}

// New creates a new key-value store.
func New[K comparable, V any](opts ...Option) *Store[K, V] {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return &Store[K, V]{
		data: make(map[K]entry[V]),
		opts: o,
	}
}

func (s *Store[K, V]) live(e entry[V]) bool {
	return e.expiresAt.IsZero() || s.opts.now().Before(e.expiresAt)
}

func (s *Store[K, V]) wrap(value V) entry[V] {
	e := entry[V]{value: value}
	if s.opts.ttl > 0 {
		e.expiresAt = s.opts.now().Add(s.opts.ttl)
	}
	return e
}

// Get retrieves a live value by key.
func (s *Store[K, V]) Get(key K) (V, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.data[key]
	if !ok || !s.live(e) {
		var zero V
		return zero, false
	}
	return e.value, true
}

// GetMany splits keys into live hits and misses. Misses keep input order
// and are deduplicated.
func (s *Store[K, V]) GetMany(keys []K) (map[K]V, []K) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	hits := make(map[K]V)
	var misses []K
	seen := make(map[K]bool, len(keys))
	for _, k := range keys {
		if seen[k] {
			continue
		}
		seen[k] = true
		if e, ok := s.data[k]; ok && s.live(e) {
			hits[k] = e.value
			continue
		}
		misses = append(misses, k)
	}
	return hits, misses
}

// Set stores a value by key.
func (s *Store[K, V]) Set(key K, value V) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = s.wrap(value)
}

// SetBatch stores multiple key-value pairs at once.
func (s *Store[K, V]) SetBatch(items map[K]V) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range items {
		s.data[k] = s.wrap(v)
	}
}

// Delete removes keys from the store.
func (s *Store[K, V]) Delete(keys ...K) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		delete(s.data, k)
	}
}

// Len returns the number of live entries.
func (s *Store[K, V]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, e := range s.data {
		if s.live(e) {
			n++
		}
	}
	return n
}

// Sweep drops expired entries and returns how many were removed.
func (s *Store[K, V]) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for k, e := range s.data {
		if !s.live(e) {
			delete(s.data, k)
			n++
		}
	}
	return n
}
