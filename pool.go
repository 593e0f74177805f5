package tiercache

import (
	"context"
	"errors"
	"iter"
	"reflect"
	"slices"
	"sort"
	"time"

	"github.com/unkn0wn-root/tiercache/codec"
	"github.com/unkn0wn-root/tiercache/internal/wire"
	"github.com/unkn0wn-root/tiercache/store"
)

type pool[V any] struct {
	store    store.Store
	codec    codec.Codec[V]
	log      Logger
	hooks    Hooks
	now      func() time.Time
	deferred map[string]*Item[V]
}

func (p *pool[V]) Store() store.Store { return p.store }

func (p *pool[V]) GetItem(ctx context.Context, key string) (*Item[V], error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}
	raw, ok, err := p.store.Get(ctx, key)
	if err != nil {
		return nil, keyError(err)
	}
	return p.hydrate(ctx, key, raw, ok)
}

func (p *pool[V]) GetItems(ctx context.Context, keys iter.Seq[string]) (map[string]*Item[V], error) {
	list, err := collectKeys(keys)
	if err != nil {
		return nil, err
	}
	raws, err := store.GetMultiple(ctx, p.store, slices.Values(list))
	if err != nil {
		return nil, keyError(err)
	}
	out := make(map[string]*Item[V], len(raws))
	for _, k := range list {
		if _, done := out[k]; done {
			continue
		}
		raw := raws[k]
		it, err := p.hydrate(ctx, k, raw, raw != nil)
		if err != nil {
			return nil, err
		}
		out[k] = it
	}
	return out, nil
}

// HasItem fetches and decodes the record; it is exactly GetItem().IsHit().
func (p *pool[V]) HasItem(ctx context.Context, key string) (bool, error) {
	it, err := p.GetItem(ctx, key)
	if err != nil {
		return false, err
	}
	return it.IsHit(), nil
}

func (p *pool[V]) DeleteItem(ctx context.Context, key string) (bool, error) {
	if err := validateKey(key); err != nil {
		return false, err
	}
	ok, err := p.store.Delete(ctx, key)
	return ok, keyError(err)
}

func (p *pool[V]) DeleteItems(ctx context.Context, keys iter.Seq[string]) (bool, error) {
	list, err := collectKeys(keys)
	if err != nil {
		return false, err
	}
	ok, err := store.DeleteMultiple(ctx, p.store, slices.Values(list))
	return ok, keyError(err)
}

func (p *pool[V]) Clear(ctx context.Context) (bool, error) {
	ok, err := p.store.Clear(ctx)
	if err == nil && !ok {
		p.log.Warn("clear incomplete", nil)
	}
	return ok, err
}

// Save persists item. An item with an expiry is stored for
// expiresAt - lastModified; one without is stored with the store's default
// TTL. A store that rejects the key yields false rather than an error.
func (p *pool[V]) Save(ctx context.Context, item *Item[V]) (bool, error) {
	if item == nil {
		return false, nil
	}
	// a nil pointer, map, slice or interface is stored as "no value"
	rec := wire.Record{HasValue: item.hasValue && !isNil(item.value)}
	if rec.HasValue {
		b, err := p.codec.Encode(item.value)
		if err != nil {
			p.hooks.SerializationFailed(item.key, "encode", err)
			p.log.Error("encode failed", Fields{"key": item.key, "err": err})
			return false, &SerializationError{Key: item.key, Op: "encode", Err: err}
		}
		rec.Value = b
	}

	ttl := store.DefaultTTL
	if exp, ok := item.Expiration(); ok {
		lm := item.LastModified()
		rec.LastModified = lm.UnixNano()
		rec.ExpiresAt = exp.UnixNano()
		d := exp.Sub(lm)
		if d <= 0 {
			// a zero duration means "never" to stores
			d = -time.Second
		}
		ttl = store.After(d)
	}

	ok, err := p.store.Set(ctx, item.key, wire.EncodeRecord(rec), ttl)
	if err != nil {
		if errors.Is(err, store.ErrInvalidKey) {
			p.log.Warn("save rejected key", Fields{"key": item.key, "err": err})
			return false, nil
		}
		return false, err
	}
	if !ok {
		p.hooks.SaveRejected(item.key)
		p.log.Debug("save rejected by store", Fields{"key": item.key})
	}
	return ok, nil
}

// SaveDeferred queues item for the next Commit, replacing any earlier item
// queued under the same key.
func (p *pool[V]) SaveDeferred(item *Item[V]) bool {
	if item == nil {
		return false
	}
	p.deferred[item.key] = item
	return true
}

// Commit saves every queued item in key order. Saved items leave the queue;
// failed ones stay for the next Commit and are not retried in this pass. A
// context error stops the pass early.
func (p *pool[V]) Commit(ctx context.Context) (bool, error) {
	if len(p.deferred) == 0 {
		return true, nil
	}
	keys := make([]string, 0, len(p.deferred))
	for k := range p.deferred {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	result := true
	var errs []error
	for _, k := range keys {
		ok, err := p.Save(ctx, p.deferred[k])
		if err != nil {
			errs = append(errs, err)
			result = false
			if ctx.Err() != nil {
				break
			}
			continue
		}
		if ok {
			delete(p.deferred, k)
		}
		result = result && ok
	}

	if !result {
		p.hooks.CommitIncomplete(len(p.deferred))
		p.log.Warn("commit incomplete", Fields{"pending": len(p.deferred)})
	}
	return result, errors.Join(errs...)
}

func (p *pool[V]) Deferred() int { return len(p.deferred) }

// hydrate turns a raw store result into an item. A record that fails
// envelope validation is deleted and reported as a miss.
func (p *pool[V]) hydrate(ctx context.Context, key string, raw []byte, found bool) (*Item[V], error) {
	it := newItem[V](key, p.now)
	if !found {
		p.miss(key)
		return it, nil
	}

	rec, err := wire.DecodeRecord(raw)
	if err != nil {
		_, _ = p.store.Delete(ctx, key) // self-heal corrupt
		p.hooks.CorruptRecord(key, err)
		p.log.Warn("corrupt record deleted", Fields{"key": key, "err": err})
		p.miss(key)
		return it, nil
	}
	if !rec.HasValue {
		p.miss(key)
		return it, nil
	}

	v, err := p.codec.Decode(rec.Value)
	if err != nil {
		p.hooks.SerializationFailed(key, "decode", err)
		p.log.Error("decode failed", Fields{"key": key, "err": err})
		return nil, &SerializationError{Key: key, Op: "decode", Err: err}
	}

	it.value = v
	it.hasValue = true
	it.hit = true
	if rec.LastModified != 0 {
		it.lastModified = time.Unix(0, rec.LastModified)
	}
	if rec.ExpiresAt != 0 {
		it.expiresAt = time.Unix(0, rec.ExpiresAt)
	}
	p.hooks.ItemHit(key)
	return it, nil
}

func (p *pool[V]) miss(key string) {
	p.hooks.ItemMiss(key)
	p.log.Debug("miss", Fields{"key": key})
}

// collectKeys drains keys and validates every one before any store call.
func collectKeys(keys iter.Seq[string]) ([]string, error) {
	if keys == nil {
		return nil, store.ErrInvalidInput
	}
	var list []string
	for k := range keys {
		if err := validateKey(k); err != nil {
			return nil, err
		}
		list = append(list, k)
	}
	return list, nil
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	switch rv := reflect.ValueOf(v); rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}
