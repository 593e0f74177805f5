package tiercache

import (
	"errors"
	"fmt"

	"github.com/unkn0wn-root/tiercache/store"
)

var (
	// ErrInvalidKey is returned for an empty key, or when the store rejects
	// a key as unusable.
	ErrInvalidKey = errors.New("tiercache: invalid key")

	// ErrInvalidExpiry is returned by Item expiry setters for a time the
	// record format cannot represent.
	ErrInvalidExpiry = errors.New("tiercache: invalid expiry")

	// ErrSerialization is returned when the codec fails to encode or decode
	// an item value.
	ErrSerialization = errors.New("tiercache: serialization failed")
)

// SerializationError carries the key and direction of a codec failure.
type SerializationError struct {
	Key string
	Op  string // "encode" or "decode"
	Err error
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("tiercache: %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *SerializationError) Unwrap() []error {
	return []error{ErrSerialization, e.Err}
}

// keyError converts a store key rejection into the pool's own sentinel while
// keeping the store error in the chain.
func keyError(err error) error {
	if errors.Is(err, store.ErrInvalidKey) {
		return fmt.Errorf("%w: %w", ErrInvalidKey, err)
	}
	return err
}

func validateKey(key string) error {
	return keyError(store.ValidateKey(key))
}
