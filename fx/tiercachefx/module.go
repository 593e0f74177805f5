// Package tiercachefx provides an fx module for a filesystem-backed byte pool.
package tiercachefx

import (
	"context"
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/unkn0wn-root/tiercache"
	"github.com/unkn0wn-root/tiercache/codec"
	"github.com/unkn0wn-root/tiercache/config"
	tcprom "github.com/unkn0wn-root/tiercache/hooks/prometheus"
	zaplog "github.com/unkn0wn-root/tiercache/log/zap"
	"github.com/unkn0wn-root/tiercache/store"
)

// Module provides a store.Store and a tiercache.Pool[[]byte].
// Requires a config.Config and a *zap.Logger. If a prometheus.Registerer is
// provided, pool events are exported as metrics.
var Module = fx.Module("tiercache",
	fx.Provide(
		newHooks,
		newStore,
		newPool,
	),
)

// HooksParams holds the optional metrics registry.
type HooksParams struct {
	fx.In

	Registerer prometheus.Registerer `optional:"true"`
}

func newHooks(p HooksParams) tiercache.Hooks {
	if p.Registerer == nil {
		return tiercache.NopHooks{}
	}
	return tcprom.New(p.Registerer, "")
}

// StoreResult holds the provided store.
type StoreResult struct {
	fx.Out

	Store store.Store
}

func newStore(cfg config.Config, lc fx.Lifecycle) (StoreResult, error) {
	s, err := cfg.OpenStore()
	if err != nil {
		return StoreResult{}, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return store.Close(ctx, s)
		},
	})
	return StoreResult{Store: s}, nil
}

// Params holds dependencies for creating the pool.
type Params struct {
	fx.In

	Store     store.Store
	Logger    *zap.Logger
	Hooks     tiercache.Hooks
	Lifecycle fx.Lifecycle
}

// Result holds the provided pool.
type Result struct {
	fx.Out

	Pool tiercache.Pool[[]byte]
}

func newPool(p Params) (Result, error) {
	pool, err := tiercache.New(tiercache.Options[[]byte]{
		Store:  p.Store,
		Codec:  codec.Bytes{},
		Logger: zaplog.New(p.Logger),
		Hooks:  p.Hooks,
	})
	if err != nil {
		return Result{}, err
	}

	// Registered after the store's hook, so it runs first on stop.
	p.Lifecycle.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			ok, err := pool.Commit(ctx)
			if err == nil && !ok {
				err = errors.New("tiercache: deferred items left uncommitted")
			}
			return err
		},
	})

	return Result{Pool: pool}, nil
}
