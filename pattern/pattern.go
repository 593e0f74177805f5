// Package pattern builds higher-level caching patterns on top of a
// tiercache.Pool: memoizing function results (Callback) and capturing
// rendered output (Output). Both publish events on an event.Dispatcher that
// plugins can hook into.
package pattern

import (
	"errors"
	"fmt"
	"reflect"
	"sync"
	"time"

	"github.com/unkn0wn-root/tiercache"
	"github.com/unkn0wn-root/tiercache/event"
)

// Event names published by the patterns.
const (
	EventOutputStart  = "pattern.output.start"
	EventOutputHit    = "pattern.output.hit"
	EventOutputEnd    = "pattern.output.end"
	EventCallbackMiss = "pattern.callback.miss"
)

var (
	ErrNilPool         = errors.New("pattern: pool is required")
	ErrNilPlugin       = errors.New("pattern: plugin is nil")
	ErrDuplicatePlugin = errors.New("pattern: plugin already registered")
)

// Plugin attaches listeners to a pattern's dispatcher and returns their
// handles so they can be detached again.
type Plugin interface {
	Attach(d *event.Dispatcher, priority int) []event.Handle
}

type PluginID uint64

type Option func(*config)

type config struct {
	events *event.Dispatcher
	log    tiercache.Logger
	prefix string
	ttl    time.Duration
}

// WithEvents shares d instead of giving the pattern its own dispatcher.
func WithEvents(d *event.Dispatcher) Option {
	return func(c *config) { c.events = d }
}

func WithLogger(l tiercache.Logger) Option {
	return func(c *config) { c.log = l }
}

// WithPrefix namespaces every key the pattern reads or writes.
func WithPrefix(p string) Option {
	return func(c *config) { c.prefix = p }
}

// WithTTL sets an expiry on saved items. Zero leaves the store default.
func WithTTL(d time.Duration) Option {
	return func(c *config) { c.ttl = d }
}

type installed struct {
	plugin  Plugin
	handles []event.Handle
}

// base holds what every pattern shares: options, the dispatcher and the
// plugin registry.
type base struct {
	config

	mu      sync.Mutex
	nextID  PluginID
	plugins map[PluginID]installed
}

func newBase(opts []Option) *base {
	b := &base{plugins: make(map[PluginID]installed)}
	for _, o := range opts {
		o(&b.config)
	}
	if b.events == nil {
		b.events = event.New()
	}
	if b.log == nil {
		b.log = tiercache.NopLogger{}
	}
	return b
}

func (b *base) Events() *event.Dispatcher { return b.events }

// AddPlugin attaches p at priority. The same plugin value cannot be added
// twice while it is registered.
func (b *base) AddPlugin(p Plugin, priority int) (PluginID, error) {
	if p == nil {
		return 0, ErrNilPlugin
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, in := range b.plugins {
		if samePlugin(in.plugin, p) {
			return 0, fmt.Errorf("%w: %T", ErrDuplicatePlugin, p)
		}
	}
	b.nextID++
	id := b.nextID
	b.plugins[id] = installed{plugin: p, handles: p.Attach(b.events, priority)}
	return id, nil
}

// RemovePlugin detaches exactly the listeners the plugin attached.
func (b *base) RemovePlugin(id PluginID) bool {
	b.mu.Lock()
	in, ok := b.plugins[id]
	delete(b.plugins, id)
	b.mu.Unlock()
	if !ok {
		return false
	}
	for _, h := range in.handles {
		b.events.Detach(h)
	}
	return true
}

func (b *base) HasPlugin(p Plugin) bool {
	if p == nil {
		return false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, in := range b.plugins {
		if samePlugin(in.plugin, p) {
			return true
		}
	}
	return false
}

func (b *base) key(k string) string { return b.prefix + k }

// samePlugin compares plugin values without panicking on uncomparable
// dynamic types; those never count as duplicates.
func samePlugin(a, b Plugin) bool {
	if a == nil || b == nil {
		return false
	}
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.Type() != vb.Type() || !va.Comparable() {
		return false
	}
	return a == b
}

// Listen is a Plugin that attaches a single listener.
type Listen struct {
	Name     string
	Listener event.Listener
}

func (l *Listen) Attach(d *event.Dispatcher, priority int) []event.Handle {
	return []event.Handle{d.Attach(l.Name, l.Listener, priority)}
}
