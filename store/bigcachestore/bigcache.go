// Package bigcachestore adapts allegro/bigcache to the store contract.
//
// BigCache only knows a global life window, so each value is stored with the
// same "<expiry>\n" header fsstore writes and expiry is checked on read.
package bigcachestore

import (
	"context"
	"errors"
	"time"

	bc "github.com/allegro/bigcache/v3"

	"github.com/unkn0wn-root/tiercache/internal/wire"
	"github.com/unkn0wn-root/tiercache/store"
)

// Compile-time check that Store implements store.Store.
var _ store.Store = (*Store)(nil)

type Store struct {
	c   *bc.BigCache
	ttl time.Duration
	now func() time.Time
}

type Config struct {
	// LifeWindow is BigCache's eviction window and bounds every entry's
	// lifetime. Defaults to TTL, or one week when TTL is zero.
	LifeWindow         time.Duration
	CleanWindow        time.Duration
	MaxEntriesInWindow int
	MaxEntrySize       int
	HardMaxCacheSizeMB int // ~ memory limit; 0 = unlimited

	// TTL is applied for store.DefaultTTL. Zero means no per-entry expiry.
	TTL   time.Duration
	Clock func() time.Time
}

func New(cfg Config) (*Store, error) {
	if cfg.TTL < 0 {
		return nil, &store.ConfigError{Field: "ttl", Reason: "must not be negative"}
	}
	life := cfg.LifeWindow
	if life <= 0 {
		life = cfg.TTL
	}
	if life <= 0 {
		life = 7 * 24 * time.Hour
	}

	conf := bc.DefaultConfig(life)
	if cfg.CleanWindow > 0 {
		conf.CleanWindow = cfg.CleanWindow
	}
	if cfg.MaxEntriesInWindow > 0 {
		conf.MaxEntriesInWindow = cfg.MaxEntriesInWindow
	}
	if cfg.MaxEntrySize > 0 {
		conf.MaxEntrySize = cfg.MaxEntrySize
	}
	if cfg.HardMaxCacheSizeMB > 0 {
		conf.HardMaxCacheSize = cfg.HardMaxCacheSizeMB
	}
	c, err := bc.New(context.Background(), conf)
	if err != nil {
		return nil, &store.ConfigError{Field: "bigcache", Reason: "cannot create cache", Err: err}
	}

	now := cfg.Clock
	if now == nil {
		now = time.Now
	}
	return &Store{c: c, ttl: cfg.TTL, now: now}, nil
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := check(ctx, key); err != nil {
		return nil, false, err
	}
	raw, err := s.c.Get(key)
	if err != nil {
		return nil, false, nil
	}
	expiresAt, payload, err := wire.DecodeEntry(raw)
	if err != nil || store.Expired(expiresAt, s.now()) {
		_ = s.c.Delete(key)
		return nil, false, nil
	}
	return payload, true, nil
}

func (s *Store) Has(ctx context.Context, key string) (bool, error) {
	if err := check(ctx, key); err != nil {
		return false, err
	}
	raw, err := s.c.Get(key)
	if err != nil {
		return false, nil
	}
	expiresAt, _, err := wire.DecodeEntry(raw)
	return err == nil && !store.Expired(expiresAt, s.now()), nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte, ttl store.TTL) (bool, error) {
	if err := check(ctx, key); err != nil {
		return false, err
	}
	entry := wire.EncodeEntry(ttl.ExpiresAt(s.now(), s.ttl), value)
	return s.c.Set(key, entry) == nil, nil
}

func (s *Store) Delete(ctx context.Context, key string) (bool, error) {
	if err := check(ctx, key); err != nil {
		return false, err
	}
	err := s.c.Delete(key)
	return err == nil || errors.Is(err, bc.ErrEntryNotFound), nil
}

func (s *Store) Clear(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return s.c.Reset() == nil, nil
}

// Len returns the number of entries BigCache holds, expired ones included.
func (s *Store) Len() int { return s.c.Len() }

func (s *Store) Close(_ context.Context) error {
	return s.c.Close()
}

func check(ctx context.Context, key string) error {
	if err := store.ValidateKey(key); err != nil {
		return err
	}
	return ctx.Err()
}
