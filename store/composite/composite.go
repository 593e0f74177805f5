// Package composite layers several stores into one.
//
// Reads walk the tiers in order and return the first hit. Writes, deletes
// and clears go to every tier and succeed only if every tier succeeded.
// Nothing is copied between tiers: a value found in a lower tier is not
// promoted into the tiers above it.
package composite

import (
	"context"
	"errors"
	"sync"

	"github.com/unkn0wn-root/tiercache/store"
)

// Compile-time check that Store implements store.Store.
var _ store.Store = (*Store)(nil)

// Store is an ordered list of tiers. The first tier is consulted first.
type Store struct {
	mu    sync.RWMutex
	tiers []store.Store
}

// New returns a composite over tiers. Nil tiers are skipped.
func New(tiers ...store.Store) *Store {
	s := &Store{}
	for _, t := range tiers {
		s.Add(t)
	}
	return s
}

// Add appends a tier after the existing ones.
func (s *Store) Add(tier store.Store) *Store {
	if tier == nil {
		return s
	}
	s.mu.Lock()
	s.tiers = append(s.tiers, tier)
	s.mu.Unlock()
	return s
}

// Tiers returns a copy of the tier list in lookup order.
func (s *Store) Tiers() []store.Store {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]store.Store, len(s.tiers))
	copy(out, s.tiers)
	return out
}

// Get returns the value from the first tier that has it.
// An error from any tier stops the walk.
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := store.ValidateKey(key); err != nil {
		return nil, false, err
	}
	for _, t := range s.Tiers() {
		v, ok, err := t.Get(ctx, key)
		if err != nil {
			return nil, false, err
		}
		if ok {
			return v, true, nil
		}
	}
	return nil, false, nil
}

// Has reports true as soon as one tier has a live entry.
func (s *Store) Has(ctx context.Context, key string) (bool, error) {
	if err := store.ValidateKey(key); err != nil {
		return false, err
	}
	for _, t := range s.Tiers() {
		ok, err := t.Has(ctx, key)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// Set writes to every tier, even after one has failed. There is no rollback:
// tiers that succeeded keep the value when the result is false.
func (s *Store) Set(ctx context.Context, key string, value []byte, ttl store.TTL) (bool, error) {
	if err := store.ValidateKey(key); err != nil {
		return false, err
	}
	return s.fanout(func(t store.Store) (bool, error) {
		return t.Set(ctx, key, value, ttl)
	})
}

func (s *Store) Delete(ctx context.Context, key string) (bool, error) {
	if err := store.ValidateKey(key); err != nil {
		return false, err
	}
	return s.fanout(func(t store.Store) (bool, error) {
		return t.Delete(ctx, key)
	})
}

func (s *Store) Clear(ctx context.Context) (bool, error) {
	return s.fanout(func(t store.Store) (bool, error) {
		return t.Clear(ctx)
	})
}

// fanout calls op on every tier and ANDs the results. Tier errors are joined.
func (s *Store) fanout(op func(store.Store) (bool, error)) (bool, error) {
	result := true
	var errs []error
	for _, t := range s.Tiers() {
		ok, err := op(t)
		if err != nil {
			errs = append(errs, err)
			ok = false
		}
		result = result && ok
	}
	if len(errs) > 0 {
		return false, errors.Join(errs...)
	}
	return result, nil
}

// Close closes every tier that implements store.Closer and joins the errors.
func (s *Store) Close(ctx context.Context) error {
	var errs []error
	for _, t := range s.Tiers() {
		if err := store.Close(ctx, t); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
