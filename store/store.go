// Package store defines the storage contract shared by every tiercache backend.
//
// A Store is a byte-oriented key-value store with per-entry TTLs. Values are
// opaque: Get must return exactly the bytes previously passed to Set for the
// same key. Typed (de)serialization happens above this layer.
//
// Error contract: the error result is reserved for malformed input
// (ErrInvalidKey) and context cancellation. Storage failures such as a full
// disk, a permission error or a failed rename are reported as ok=false with no
// further detail; callers must treat false as "not guaranteed persisted".
//
// Bulk operations (GetMultiple, SetMultiple, DeleteMultiple) are derived from
// the single-key operations and are the same for every implementation.
package store

import (
	"context"
	"math"
	"time"
)

// Store is the capability every backing store implements.
type Store interface {
	// Get returns (value, true, nil) on hit and (nil, false, nil) on miss or
	// expired entry. The caller supplies its own default on miss.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value under key with the given TTL.
	// Returns ok=false when the value could not be persisted.
	Set(ctx context.Context, key string, value []byte, ttl TTL) (ok bool, err error)

	// Delete removes key. Deleting an absent key succeeds.
	Delete(ctx context.Context, key string) (ok bool, err error)

	// Has reports whether a live entry exists for key.
	Has(ctx context.Context, key string) (bool, error)

	// Clear removes every entry owned by the store.
	Clear(ctx context.Context) (ok bool, err error)
}

// TTL describes how long a stored value stays fresh.
// The zero value is DefaultTTL and defers to the store's configured default.
type TTL struct {
	d   time.Duration
	at  time.Time
	abs bool
	set bool
}

// DefaultTTL asks the store to apply its own default lifetime.
var DefaultTTL = TTL{}

// NoExpiry stores a value that never expires.
var NoExpiry = After(0)

// After returns a TTL of d. Zero means the entry never expires and a negative
// duration stores an entry that is already expired.
func After(d time.Duration) TTL { return TTL{d: d, set: true} }

// Until returns a TTL that expires at t. The deadline is absolute: each store
// measures it against its own clock when the value is written.
func Until(t time.Time) TTL { return TTL{at: t, abs: true, set: true} }

// Deadline returns the absolute expiry given to Until.
func (t TTL) Deadline() (time.Time, bool) { return t.at, t.abs }

// Duration returns the explicit duration and whether one was given. For a
// TTL from Until it is measured against the wall clock.
func (t TTL) Duration() (time.Duration, bool) {
	if !t.set {
		return 0, false
	}
	return t.ResolveAt(time.Now(), 0), true
}

// IsDefault reports whether the store default applies.
func (t TTL) IsDefault() bool { return !t.set }

// Resolve returns the explicit duration, or def for DefaultTTL. Deadlines are
// measured against the wall clock; stores with an injected clock use
// ResolveAt.
func (t TTL) Resolve(def time.Duration) time.Duration {
	return t.ResolveAt(time.Now(), def)
}

// ResolveAt is Resolve with deadlines measured against now.
func (t TTL) ResolveAt(now time.Time, def time.Duration) time.Duration {
	switch {
	case !t.set:
		return def
	case !t.abs:
		return t.d
	}
	d := t.at.Sub(now)
	if d == 0 {
		// zero would mean "never"; the deadline is now so it is already stale
		d = -1
	}
	return d
}

// ExpiresAt resolves the TTL against now into an absolute unix timestamp in
// seconds. 0 means "never expires". Positive sub-second remainders round up
// so a live entry never expires early.
func (t TTL) ExpiresAt(now time.Time, def time.Duration) int64 {
	d := t.ResolveAt(now, def)
	switch {
	case d == 0:
		return 0
	case d < 0:
		// keep the result nonzero so it is not mistaken for "never"
		at := now.Add(d).Unix()
		if at <= 0 {
			return 1
		}
		return at
	}
	secs := int64(math.Ceil(d.Seconds()))
	at := now.Unix() + secs
	if at < now.Unix() {
		return math.MaxInt64
	}
	return at
}

// Expired reports whether an entry with the given unix expiry is stale at now.
// An expiry of 0 never expires; an entry is stale from its expiry second on.
func Expired(expiresAt int64, now time.Time) bool {
	return expiresAt != 0 && expiresAt <= now.Unix()
}

// Closer is implemented by stores that hold resources such as connections or
// background goroutines.
type Closer interface {
	Close(ctx context.Context) error
}

// Close closes s if it implements Closer and is a no-op otherwise.
func Close(ctx context.Context, s Store) error {
	if c, ok := s.(Closer); ok {
		return c.Close(ctx)
	}
	return nil
}
