package tiercache

import (
	"context"
	"fmt"
	"iter"
	"time"

	"github.com/unkn0wn-root/tiercache/codec"
	"github.com/unkn0wn-root/tiercache/store"
)

// Pool is the item-oriented API over a store. V is the caller's value type;
// serialization is handled by a pluggable Codec[V].
type Pool[V any] interface {
	// Single
	GetItem(ctx context.Context, key string) (*Item[V], error)
	HasItem(ctx context.Context, key string) (bool, error)
	DeleteItem(ctx context.Context, key string) (bool, error)
	Save(ctx context.Context, item *Item[V]) (bool, error)

	// Bulk
	GetItems(ctx context.Context, keys iter.Seq[string]) (map[string]*Item[V], error)
	DeleteItems(ctx context.Context, keys iter.Seq[string]) (bool, error)
	Clear(ctx context.Context) (bool, error)

	// Deferred writes. The queue is not synchronized; callers serialize
	// SaveDeferred and Commit.
	SaveDeferred(item *Item[V]) bool
	Commit(ctx context.Context) (bool, error)
	Deferred() int

	// Store returns the backing store.
	Store() store.Store
}

// Options configure a Pool. Store and Codec are required.
type Options[V any] struct {
	Store store.Store
	Codec codec.Codec[V]

	Logger Logger           // if nil, NopLogger is used
	Hooks  Hooks            // if nil, NopHooks is used
	Clock  func() time.Time // if nil, time.Now is used
}

func New[V any](opts Options[V]) (Pool[V], error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("tiercache: store is required")
	}
	if opts.Codec == nil {
		return nil, fmt.Errorf("tiercache: codec is required")
	}
	return &pool[V]{
		store:    opts.Store,
		codec:    opts.Codec,
		log:      coalesce[Logger](opts.Logger, NopLogger{}),
		hooks:    coalesce[Hooks](opts.Hooks, NopHooks{}),
		now:      clockOrNow(opts.Clock),
		deferred: make(map[string]*Item[V]),
	}, nil
}
