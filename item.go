package tiercache

import (
	"math"
	"time"
)

// Item is a typed handle on one cache entry: the value, whether it was a
// hit, and expiry metadata. Items come from Pool.GetItem; mutate them and
// hand them back to Save or SaveDeferred. An Item is not safe for concurrent
// mutation.
type Item[V any] struct {
	key      string
	value    V
	hasValue bool
	hit      bool

	lastModified time.Time
	expiresAt    time.Time

	now func() time.Time
}

// Records store timestamps as unix nanoseconds, which bounds the range.
var (
	minExpiry = time.Unix(0, 0)
	maxExpiry = time.Unix(0, math.MaxInt64)
)

func newItem[V any](key string, now func() time.Time) *Item[V] {
	return &Item[V]{key: key, now: clockOrNow(now)}
}

func (it *Item[V]) Key() string { return it.key }

// Get returns the value, or the zero V on a miss.
func (it *Item[V]) Get() V { return it.value }

// Value returns the value and whether one is set.
func (it *Item[V]) Value() (V, bool) { return it.value, it.hasValue }

// IsHit reports whether the item was loaded from an existing record with a
// value. Set does not change it.
func (it *Item[V]) IsHit() bool { return it.hit }

// Set replaces the value.
func (it *Item[V]) Set(v V) *Item[V] {
	it.value = v
	it.hasValue = true
	return it
}

// ExpiresAt makes the item expire at t. A zero t removes the expiry. Times
// before the Unix epoch or past year 2262 cannot be stored and return
// ErrInvalidExpiry without changing the item.
func (it *Item[V]) ExpiresAt(t time.Time) error {
	if t.IsZero() {
		it.ClearExpiry()
		return nil
	}
	if t.Before(minExpiry) || t.After(maxExpiry) {
		return ErrInvalidExpiry
	}
	it.lastModified = it.now()
	it.expiresAt = t
	return nil
}

// ExpiresAfter makes the item expire d after now. A negative d yields an item
// that is already stale.
func (it *Item[V]) ExpiresAfter(d time.Duration) error {
	now := it.now()
	t := now.Add(d)
	if (d > 0 && t.Before(now)) || (d < 0 && t.After(now)) {
		return ErrInvalidExpiry
	}
	if t.Before(minExpiry) || t.After(maxExpiry) {
		return ErrInvalidExpiry
	}
	it.lastModified = now
	it.expiresAt = t
	return nil
}

// ClearExpiry removes the expiry so Save falls back to the store's default.
func (it *Item[V]) ClearExpiry() *Item[V] {
	it.lastModified = it.now()
	it.expiresAt = time.Time{}
	return it
}

// Expiration returns the expiry time, if one is set.
func (it *Item[V]) Expiration() (time.Time, bool) {
	return it.expiresAt, !it.expiresAt.IsZero()
}

// LastModified returns when the expiry was last changed, or the current time
// if it never was.
func (it *Item[V]) LastModified() time.Time {
	if it.lastModified.IsZero() {
		return it.now()
	}
	return it.lastModified
}
