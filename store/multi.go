package store

import (
	"context"
	"iter"
)

// GetMultiple calls s.Get for every key. The result holds an entry for each
// input key; misses map to nil. The first key or context error aborts the
// batch.
func GetMultiple(ctx context.Context, s Store, keys iter.Seq[string]) (map[string][]byte, error) {
	if keys == nil {
		return nil, ErrInvalidInput
	}
	out := make(map[string][]byte)
	for k := range keys {
		v, ok, err := s.Get(ctx, k)
		if err != nil {
			return nil, err
		}
		if !ok {
			v = nil
		}
		out[k] = v
	}
	return out, nil
}

// SetMultiple calls s.Set for every pair with the same ttl. It reports true
// only if every Set succeeded. Failed keys are not identified.
func SetMultiple(ctx context.Context, s Store, values iter.Seq2[string, []byte], ttl TTL) (bool, error) {
	if values == nil {
		return false, ErrInvalidInput
	}
	result := true
	for k, v := range values {
		ok, err := s.Set(ctx, k, v, ttl)
		if err != nil {
			return false, err
		}
		result = result && ok
	}
	return result, nil
}

// DeleteMultiple calls s.Delete for every key and reports the logical AND.
func DeleteMultiple(ctx context.Context, s Store, keys iter.Seq[string]) (bool, error) {
	if keys == nil {
		return false, ErrInvalidInput
	}
	result := true
	for k := range keys {
		ok, err := s.Delete(ctx, k)
		if err != nil {
			return false, err
		}
		result = result && ok
	}
	return result, nil
}
