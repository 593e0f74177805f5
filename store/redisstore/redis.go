// Package redisstore adapts a go-redis client to the store contract.
//
// Every key is stored under "<namespace>:<key>" so several stores can share a
// database and Clear only removes its own keys. Expiry is native.
package redisstore

import (
	"context"
	"errors"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/unkn0wn-root/tiercache/store"
)

var ErrNilClient = errors.New("redisstore: nil client")

// Compile-time check that Store implements store.Store.
var _ store.Store = (*Store)(nil)

type Store struct {
	rdb         goredis.UniversalClient
	prefix      string
	ttl         time.Duration
	closeClient bool
	onError     func(op, key string, err error)
}

type Config struct {
	Client    goredis.UniversalClient
	Namespace string
	// TTL is applied for store.DefaultTTL. Zero means no expiry.
	TTL         time.Duration
	CloseClient bool // set true only if this store exclusively owns the client
	// OnError observes transport and server errors, which the store contract
	// reports as a plain false or miss.
	OnError func(op, key string, err error)
}

func New(cfg Config) (*Store, error) {
	if cfg.Client == nil {
		return nil, ErrNilClient
	}
	if cfg.TTL < 0 {
		return nil, &store.ConfigError{Field: "ttl", Reason: "must not be negative"}
	}
	onErr := cfg.OnError
	if onErr == nil {
		onErr = func(string, string, error) {}
	}
	prefix := ""
	if cfg.Namespace != "" {
		prefix = cfg.Namespace + ":"
	}
	return &Store{
		rdb:         cfg.Client,
		prefix:      prefix,
		ttl:         cfg.TTL,
		closeClient: cfg.CloseClient,
		onError:     onErr,
	}, nil
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := check(ctx, key); err != nil {
		return nil, false, err
	}
	b, err := s.rdb.Get(ctx, s.key(key)).Bytes()
	if err == goredis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, s.fail(ctx, "get", key, err)
	}
	return b, true, nil
}

func (s *Store) Has(ctx context.Context, key string) (bool, error) {
	if err := check(ctx, key); err != nil {
		return false, err
	}
	n, err := s.rdb.Exists(ctx, s.key(key)).Result()
	if err != nil {
		return false, s.fail(ctx, "has", key, err)
	}
	return n > 0, nil
}

// Set maps a zero TTL to no expiry and a negative one to a delete.
func (s *Store) Set(ctx context.Context, key string, value []byte, ttl store.TTL) (bool, error) {
	if err := check(ctx, key); err != nil {
		return false, err
	}
	d := ttl.Resolve(s.ttl)
	if d < 0 {
		return s.Delete(ctx, key)
	}
	if err := s.rdb.Set(ctx, s.key(key), value, d).Err(); err != nil {
		return false, s.fail(ctx, "set", key, err)
	}
	return true, nil
}

func (s *Store) Delete(ctx context.Context, key string) (bool, error) {
	if err := check(ctx, key); err != nil {
		return false, err
	}
	if err := s.rdb.Del(ctx, s.key(key)).Err(); err != nil {
		return false, s.fail(ctx, "delete", key, err)
	}
	return true, nil
}

// Clear scans the namespace and deletes what it finds. Without a namespace
// every key of the database matches.
func (s *Store) Clear(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	it := s.rdb.Scan(ctx, 0, escapePattern(s.prefix)+"*", 512).Iterator()
	batch := make([]string, 0, 512)
	ok := true
	flush := func() {
		if len(batch) == 0 {
			return
		}
		if err := s.rdb.Del(ctx, batch...).Err(); err != nil {
			s.onError("clear", "", err)
			ok = false
		}
		batch = batch[:0]
	}
	for it.Next(ctx) {
		batch = append(batch, it.Val())
		if len(batch) == cap(batch) {
			flush()
		}
	}
	flush()
	if err := it.Err(); err != nil {
		return false, s.fail(ctx, "clear", "", err)
	}
	return ok, nil
}

// Close releases the underlying redis client only when this store owns it.
// Safe to call multiple times; repeated calls become no-ops.
func (s *Store) Close(context.Context) error {
	if s.closeClient {
		if err := s.rdb.Close(); err != nil && !errors.Is(err, goredis.ErrClosed) {
			return err
		}
	}
	return nil
}

func (s *Store) key(k string) string { return s.prefix + k }

// fail reports err and returns the context error if that is what caused it.
func (s *Store) fail(ctx context.Context, op, key string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	s.onError(op, key, err)
	return nil
}

func check(ctx context.Context, key string) error {
	if err := store.ValidateKey(key); err != nil {
		return err
	}
	return ctx.Err()
}

var patternEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`)

// escapePattern quotes glob metacharacters for SCAN MATCH.
func escapePattern(s string) string { return patternEscaper.Replace(s) }
