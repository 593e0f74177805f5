// Package memstore provides an in-memory store, mostly useful as a fast first
// tier or in tests.
package memstore

import (
	"context"
	"sync"
	"time"

	"github.com/unkn0wn-root/tiercache/store"
)

// Compile-time check that Store implements store.Store.
var _ store.Store = (*Store)(nil)

type entry struct {
	value     []byte
	expiresAt int64
}

// Store keeps entries in a map guarded by a mutex. Expired entries are
// dropped lazily on Get.
type Store struct {
	mu      sync.RWMutex
	entries map[string]entry
	ttl     time.Duration
	now     func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithTTL sets the lifetime applied for store.DefaultTTL. Zero, the default,
// means entries never expire.
func WithTTL(d time.Duration) Option {
	return func(s *Store) { s.ttl = d }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// New creates an empty in-memory store.
func New(opts ...Option) *Store {
	s := &Store{
		entries: make(map[string]entry),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns a copy of the stored value.
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := check(ctx, key); err != nil {
		return nil, false, err
	}

	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if store.Expired(e.expiresAt, s.now()) {
		s.mu.Lock()
		if cur, ok := s.entries[key]; ok && cur.expiresAt == e.expiresAt {
			delete(s.entries, key)
		}
		s.mu.Unlock()
		return nil, false, nil
	}
	return clone(e.value), true, nil
}

func (s *Store) Has(ctx context.Context, key string) (bool, error) {
	if err := check(ctx, key); err != nil {
		return false, err
	}
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	return ok && !store.Expired(e.expiresAt, s.now()), nil
}

// Set stores a copy of value so later caller mutations do not leak in.
func (s *Store) Set(ctx context.Context, key string, value []byte, ttl store.TTL) (bool, error) {
	if err := check(ctx, key); err != nil {
		return false, err
	}
	e := entry{value: clone(value), expiresAt: ttl.ExpiresAt(s.now(), s.ttl)}
	s.mu.Lock()
	s.entries[key] = e
	s.mu.Unlock()
	return true, nil
}

func (s *Store) Delete(ctx context.Context, key string) (bool, error) {
	if err := check(ctx, key); err != nil {
		return false, err
	}
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
	return true, nil
}

func (s *Store) Clear(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.Lock()
	s.entries = make(map[string]entry)
	s.mu.Unlock()
	return true, nil
}

// Len returns the number of entries held, expired ones included.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func check(ctx context.Context, key string) error {
	if err := store.ValidateKey(key); err != nil {
		return err
	}
	return ctx.Err()
}

func clone(b []byte) []byte {
	if b == nil {
		return []byte{}
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
