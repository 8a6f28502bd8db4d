// Package cache implements the in-memory TTL store backing cacheable
// API reads. Entries live in namespaces with independent default TTLs;
// clearing one namespace never touches another.
package cache

import (
	"errors"
	"sync"
	"time"
)

// Namespace is a logical cache partition.
type Namespace string

const (
	// Domains caches the provider's domain list.
	Domains Namespace = "domains"
	// Messages caches per-account message list pages.
	Messages Namespace = "messages"
	// MessageContent caches full message bodies.
	MessageContent Namespace = "message-content"
)

// ErrInvalidTTL is returned by Set for zero or negative TTLs.
// Non-expiring entries are intentionally unsupported.
var ErrInvalidTTL = errors.New("cache: ttl must be positive")

// sweepInterval bounds how long an expired entry can linger before the
// next housekeeping pass removes it. Expired entries are never visible
// to Get regardless.
const sweepInterval = time.Minute

type entry struct {
	value     any
	createdAt time.Time
	expiresAt time.Time
}

// Stats reports cache usage. Hits, Misses and Evictions are monotonic;
// Size is the live (non-expired) entry count at call time.
type Stats struct {
	Hits      int64
	Misses    int64
	Evictions int64
	Size      int64
}

// Store is a namespaced TTL key/value store safe for concurrent use.
type Store struct {
	mu        sync.RWMutex
	entries   map[Namespace]map[string]entry
	hits      int64
	misses    int64
	evictions int64
	lastSweep time.Time

	now func() time.Time // test hook
}

// New creates an empty store.
func New() *Store {
	return &Store{
		entries: make(map[Namespace]map[string]entry),
		now:     time.Now,
	}
}

// Get returns the live value under the key. An expired entry counts as
// a miss and is evicted in place.
func (s *Store) Get(ns Namespace, key string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[ns][key]
	if !ok {
		s.misses++
		return nil, false
	}
	if !s.now().Before(e.expiresAt) {
		delete(s.entries[ns], key)
		s.evictions++
		s.misses++
		return nil, false
	}
	s.hits++
	return e.value, true
}

// Set stores the value under the key with the given TTL, replacing any
// previous entry atomically.
func (s *Store) Set(ns Namespace, key string, value any, ttl time.Duration) error {
	if ttl <= 0 {
		return ErrInvalidTTL
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if s.entries[ns] == nil {
		s.entries[ns] = make(map[string]entry)
	}
	s.entries[ns][key] = entry{
		value:     value,
		createdAt: now,
		expiresAt: now.Add(ttl),
	}
	s.sweepLocked(now)
	return nil
}

// Invalidate removes a single entry. Removing a missing key is a no-op.
func (s *Store) Invalidate(ns Namespace, key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[ns][key]; ok {
		delete(s.entries[ns], key)
		s.evictions++
	}
}

// Clear drops every entry in the namespace.
func (s *Store) Clear(ns Namespace) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.evictions += int64(len(s.entries[ns]))
	delete(s.entries, ns)
}

// ClearAll drops every entry in every namespace.
func (s *Store) ClearAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for ns := range s.entries {
		s.evictions += int64(len(s.entries[ns]))
	}
	s.entries = make(map[Namespace]map[string]entry)
}

// Stats returns a snapshot of the usage counters.
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := s.now()
	var size int64
	for _, keys := range s.entries {
		for _, e := range keys {
			if now.Before(e.expiresAt) {
				size++
			}
		}
	}
	return Stats{
		Hits:      s.hits,
		Misses:    s.misses,
		Evictions: s.evictions,
		Size:      size,
	}
}

// sweepLocked drops expired entries across all namespaces, at most once
// per sweepInterval. Caller holds the write lock.
func (s *Store) sweepLocked(now time.Time) {
	if now.Sub(s.lastSweep) < sweepInterval {
		return
	}
	s.lastSweep = now
	for ns, keys := range s.entries {
		for key, e := range keys {
			if !now.Before(e.expiresAt) {
				delete(s.entries[ns], key)
				s.evictions++
			}
		}
	}
}
