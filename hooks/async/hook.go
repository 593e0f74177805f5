// Package asynchook runs tiercache.Hooks on background workers so slow
// implementations (remote metrics, logging to a network sink) stay off the
// pool's call path.
//
// usage:
//
//	raw := sloghooks.New(slog.Default(), sloghooks.Options{MissEvery: 100})
//	hooks := asynchook.New(raw, 1, 1000) // 1 worker; queue 1000 events
//	defer hooks.Close()
//
//	pool, _ := tiercache.New[User](tiercache.Options[User]{
//	    Store: st,
//	    Codec: codec.JSON[User]{},
//	    Hooks: hooks,
//	})
package asynchook

import (
	"sync"
	"sync/atomic"

	"github.com/unkn0wn-root/tiercache"
)

// Hooks queues events to inner. When the queue is full events are dropped
// and counted; see Dropped.
type Hooks struct {
	inner   tiercache.Hooks
	q       chan func()
	wg      sync.WaitGroup
	once    sync.Once
	mu      sync.RWMutex
	closed  bool
	dropped atomic.Uint64
}

var _ tiercache.Hooks = (*Hooks)(nil)

func New(inner tiercache.Hooks, workers, qlen int) *Hooks {
	if inner == nil {
		inner = tiercache.NopHooks{}
	}
	if workers <= 0 {
		workers = 1
	}
	if qlen <= 0 {
		qlen = 1024
	}

	h := &Hooks{inner: inner, q: make(chan func(), qlen)}
	h.wg.Add(workers)
	for range workers {
		go func() {
			defer h.wg.Done()
			for f := range h.q {
				f()
			}
		}()
	}
	return h
}

// Close drains queued events and stops the workers. Events sent after Close
// are dropped.
func (h *Hooks) Close() {
	h.once.Do(func() {
		h.mu.Lock()
		h.closed = true
		close(h.q)
		h.mu.Unlock()
		h.wg.Wait()
	})
}

// Dropped returns how many events were discarded.
func (h *Hooks) Dropped() uint64 { return h.dropped.Load() }

func (h *Hooks) try(f func()) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		h.dropped.Add(1)
		return
	}
	select {
	case h.q <- f:
	default:
		h.dropped.Add(1)
	}
}

func (h *Hooks) ItemHit(k string)  { h.try(func() { h.inner.ItemHit(k) }) }
func (h *Hooks) ItemMiss(k string) { h.try(func() { h.inner.ItemMiss(k) }) }
func (h *Hooks) SaveRejected(k string) {
	h.try(func() { h.inner.SaveRejected(k) })
}
func (h *Hooks) CorruptRecord(k string, err error) {
	h.try(func() { h.inner.CorruptRecord(k, err) })
}
func (h *Hooks) SerializationFailed(k, op string, err error) {
	h.try(func() { h.inner.SerializationFailed(k, op, err) })
}
func (h *Hooks) CommitIncomplete(n int) {
	h.try(func() { h.inner.CommitIncomplete(n) })
}
