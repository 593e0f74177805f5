// Package ristrettostore adapts dgraph-io/ristretto to the store contract.
//
// Ristretto is admission-controlled: a Set may be accepted and later dropped
// by the policy, so this store is a good fast first tier but never the only
// one.
package ristrettostore

import (
	"context"
	"time"

	rc "github.com/dgraph-io/ristretto"

	"github.com/unkn0wn-root/tiercache/store"
)

// Compile-time check that Store implements store.Store.
var _ store.Store = (*Store)(nil)

type Store struct {
	c   *rc.Cache
	ttl time.Duration
}

type Config struct {
	NumCounters int64
	MaxCost     int64
	BufferItems int64
	Metrics     bool
	// TTL is applied for store.DefaultTTL. Zero means no expiry.
	TTL time.Duration
}

func New(cfg Config) (*Store, error) {
	switch {
	case cfg.NumCounters <= 0:
		return nil, &store.ConfigError{Field: "numCounters", Reason: "must be positive"}
	case cfg.MaxCost <= 0:
		return nil, &store.ConfigError{Field: "maxCost", Reason: "must be positive"}
	case cfg.BufferItems <= 0:
		return nil, &store.ConfigError{Field: "bufferItems", Reason: "must be positive"}
	case cfg.TTL < 0:
		return nil, &store.ConfigError{Field: "ttl", Reason: "must not be negative"}
	}
	c, err := rc.NewCache(&rc.Config{
		NumCounters: cfg.NumCounters,
		MaxCost:     cfg.MaxCost,
		BufferItems: cfg.BufferItems,
		Metrics:     cfg.Metrics,
	})
	if err != nil {
		return nil, &store.ConfigError{Field: "ristretto", Reason: "cannot create cache", Err: err}
	}
	return &Store{c: c, ttl: cfg.TTL}, nil
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := check(ctx, key); err != nil {
		return nil, false, err
	}
	v, ok := s.c.Get(key)
	if !ok {
		return nil, false, nil
	}
	b, _ := v.([]byte)
	if b == nil {
		// self-heal: drop unexpected entry shape
		s.c.Del(key)
		return nil, false, nil
	}
	return b, true, nil
}

func (s *Store) Has(ctx context.Context, key string) (bool, error) {
	if err := check(ctx, key); err != nil {
		return false, err
	}
	_, ok := s.c.Get(key)
	return ok, nil
}

// Set waits for the write buffer to drain so the value is visible to the
// next Get. A negative TTL removes the key, since the entry would already be
// stale.
func (s *Store) Set(ctx context.Context, key string, value []byte, ttl store.TTL) (bool, error) {
	if err := check(ctx, key); err != nil {
		return false, err
	}
	d := ttl.Resolve(s.ttl)
	if d < 0 {
		s.c.Del(key)
		s.c.Wait()
		return true, nil
	}
	buf := make([]byte, len(value))
	copy(buf, value)
	ok := s.c.SetWithTTL(key, buf, int64(len(buf))+1, d)
	s.c.Wait()
	return ok, nil
}

func (s *Store) Delete(ctx context.Context, key string) (bool, error) {
	if err := check(ctx, key); err != nil {
		return false, err
	}
	s.c.Del(key)
	s.c.Wait()
	return true, nil
}

func (s *Store) Clear(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.c.Clear()
	return true, nil
}

func (s *Store) Close(_ context.Context) error {
	s.c.Wait()
	s.c.Close()
	return nil
}

// Metrics exposes ristretto's counters when Config.Metrics is set.
func (s *Store) Metrics() *rc.Metrics { return s.c.Metrics }

func check(ctx context.Context, key string) error {
	if err := store.ValidateKey(key); err != nil {
		return err
	}
	return ctx.Err()
}
