// Package event is a small synchronous event dispatcher. Listeners are
// registered under an event name and removed with the Handle Attach returned.
package event

import (
	"context"
	"sort"
	"sync"
)

// Event is passed to every listener of its name. Listeners may mutate Item
// and stop propagation.
type Event struct {
	Name string
	Key  string
	Item any

	stopped bool
}

// StopPropagation prevents lower-priority listeners from seeing the event.
func (e *Event) StopPropagation() { e.stopped = true }

func (e *Event) Stopped() bool { return e.stopped }

// Listener handles an event. A non-nil error stops dispatch and is returned
// by Trigger.
type Listener func(ctx context.Context, e *Event) error

// Handle identifies one attached listener.
type Handle uint64

type entry struct {
	handle   Handle
	priority int
	fn       Listener
}

// Dispatcher is safe for concurrent use. The zero value is ready to use.
type Dispatcher struct {
	mu        sync.RWMutex
	next      Handle
	listeners map[string][]entry
	names     map[Handle]string
}

func New() *Dispatcher { return &Dispatcher{} }

// Attach registers l for name. Higher priorities run first; equal
// priorities run in attach order.
func (d *Dispatcher) Attach(name string, l Listener, priority int) Handle {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.listeners == nil {
		d.listeners = make(map[string][]entry)
		d.names = make(map[Handle]string)
	}
	d.next++
	h := d.next
	// copy on write; Trigger iterates over the previous slice without a lock
	old := d.listeners[name]
	list := make([]entry, 0, len(old)+1)
	list = append(append(list, old...), entry{handle: h, priority: priority, fn: l})
	sort.SliceStable(list, func(i, j int) bool { return list[i].priority > list[j].priority })
	d.listeners[name] = list
	d.names[h] = name
	return h
}

// Detach removes the listener behind h. It reports false for unknown or
// already detached handles.
func (d *Dispatcher) Detach(h Handle) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	name, ok := d.names[h]
	if !ok {
		return false
	}
	delete(d.names, h)
	list := d.listeners[name]
	for i, e := range list {
		if e.handle == h {
			list = append(list[:i:i], list[i+1:]...)
			break
		}
	}
	if len(list) == 0 {
		delete(d.listeners, name)
	} else {
		d.listeners[name] = list
	}
	return true
}

// Listeners returns how many listeners are attached to name.
func (d *Dispatcher) Listeners(name string) int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.listeners[name])
}

// Trigger calls the listeners for e.Name in priority order. Listeners run on
// a snapshot, so they may attach or detach without deadlocking.
func (d *Dispatcher) Trigger(ctx context.Context, e *Event) error {
	if d == nil || e == nil {
		return nil
	}
	d.mu.RLock()
	list := d.listeners[e.Name]
	d.mu.RUnlock()

	for _, l := range list {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := l.fn(ctx, e); err != nil {
			return err
		}
		if e.stopped {
			break
		}
	}
	return nil
}
