package tiercachefx

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"

	"github.com/unkn0wn-root/tiercache"
	"github.com/unkn0wn-root/tiercache/config"
	"github.com/unkn0wn-root/tiercache/store/fsstore"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Directory = filepath.Join(t.TempDir(), "cache")
	return cfg
}

func TestModule_CommitsDeferredOnStop(t *testing.T) {
	cfg := testConfig(t)
	var pool tiercache.Pool[[]byte]

	app := fxtest.New(t,
		fx.Supply(cfg),
		fx.Provide(zap.NewNop),
		Module,
		fx.Populate(&pool),
	)
	app.RequireStart()

	ctx := context.Background()
	it, err := pool.GetItem(ctx, "greeting")
	if err != nil {
		t.Fatalf("GetItem() error = %v", err)
	}
	pool.SaveDeferred(it.Set([]byte("hello")))
	if pool.Deferred() != 1 {
		t.Fatalf("Deferred() = %d", pool.Deferred())
	}

	app.RequireStop()

	// a fresh store over the same directory sees the committed item
	s, err := fsstore.New(cfg.Directory)
	if err != nil {
		t.Fatalf("fsstore.New() error = %v", err)
	}
	if ok, _ := s.Has(ctx, "greeting"); !ok {
		t.Fatal("deferred item was not committed on stop")
	}
}

func TestModule_PrometheusHooks(t *testing.T) {
	reg := prometheus.NewRegistry()
	var pool tiercache.Pool[[]byte]

	app := fxtest.New(t,
		fx.Supply(testConfig(t)),
		fx.Provide(zap.NewNop),
		fx.Provide(func() prometheus.Registerer { return reg }),
		Module,
		fx.Populate(&pool),
	)
	app.RequireStart()
	defer app.RequireStop()

	if _, err := pool.GetItem(context.Background(), "absent"); err != nil {
		t.Fatalf("GetItem() error = %v", err)
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}
	for _, mf := range families {
		if mf.GetName() == "tiercache_item_misses_total" {
			if got := mf.GetMetric()[0].GetCounter().GetValue(); got != 1 {
				t.Fatalf("misses = %v, want 1", got)
			}
			return
		}
	}
	t.Fatal("tiercache_item_misses_total not registered")
}
