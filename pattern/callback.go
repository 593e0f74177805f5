package pattern

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/unkn0wn-root/tiercache"
	"github.com/unkn0wn-root/tiercache/codec"
	"github.com/unkn0wn-root/tiercache/event"
)

// signature encodes [name, args] canonically so equal arguments always hash
// to the same key.
var signature = codec.MustCBOR[[]any](true)

// Callback memoizes function results in a pool.
type Callback[V any] struct {
	*base
	pool tiercache.Pool[V]
}

func NewCallback[V any](pool tiercache.Pool[V], opts ...Option) (*Callback[V], error) {
	if pool == nil {
		return nil, ErrNilPool
	}
	return &Callback[V]{base: newBase(opts), pool: pool}, nil
}

// Key returns the cache key for a call of name with args: the prefix plus the
// SHA-256 of the canonical CBOR encoding of [name, args].
func (c *Callback[V]) Key(name string, args ...any) (string, error) {
	b, err := signature.Encode([]any{name, args})
	if err != nil {
		return "", fmt.Errorf("pattern: hash arguments of %q: %w", name, err)
	}
	sum := sha256.Sum256(b)
	return c.key(hex.EncodeToString(sum[:])), nil
}

// Call returns the cached result for (name, args) or runs fn and caches what
// it returns. Errors from fn are returned and never cached. A failed save is
// logged; the fresh value is still returned.
func (c *Callback[V]) Call(ctx context.Context, name string, fn func(context.Context) (V, error), args ...any) (V, error) {
	var zero V
	if fn == nil {
		return zero, fmt.Errorf("pattern: nil callback %q", name)
	}
	key, err := c.Key(name, args...)
	if err != nil {
		return zero, err
	}

	it, err := c.pool.GetItem(ctx, key)
	if err != nil {
		return zero, err
	}
	if it.IsHit() {
		return it.Get(), nil
	}

	if err := c.events.Trigger(ctx, &event.Event{Name: EventCallbackMiss, Key: key, Item: it}); err != nil {
		return zero, err
	}

	v, err := fn(ctx)
	if err != nil {
		return zero, err
	}

	it.Set(v)
	if c.ttl > 0 {
		if err := it.ExpiresAfter(c.ttl); err != nil {
			c.log.Warn("callback ttl rejected", tiercache.Fields{"key": key, "err": err})
		}
	}
	if _, err := c.pool.Save(ctx, it); err != nil {
		c.log.Warn("callback save failed", tiercache.Fields{"key": key, "err": err})
	}
	return v, nil
}
