package store

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidKey reports an empty or otherwise unusable key.
	ErrInvalidKey = errors.New("store: invalid key")
	// ErrInvalidInput reports a bulk argument that is not a usable collection.
	ErrInvalidInput = errors.New("store: invalid input")
	// ErrInvalidConfig reports a store that cannot be constructed as configured.
	ErrInvalidConfig = errors.New("store: invalid config")
)

// KeyError is returned by every key-taking operation when the key is rejected.
type KeyError struct {
	Key    string
	Reason string
}

func (e *KeyError) Error() string {
	return fmt.Sprintf("store: invalid key %q: %s", e.Key, e.Reason)
}

func (e *KeyError) Unwrap() error { return ErrInvalidKey }

// ValidateKey rejects keys the stores cannot address.
func ValidateKey(key string) error {
	if key == "" {
		return &KeyError{Key: key, Reason: "key must be a non-empty string"}
	}
	return nil
}

// ConfigError describes why a store configuration was rejected.
type ConfigError struct {
	Field  string
	Reason string
	Err    error
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("store: invalid config %s: %s: %v", e.Field, e.Reason, e.Err)
	}
	return fmt.Sprintf("store: invalid config %s: %s", e.Field, e.Reason)
}

func (e *ConfigError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrInvalidConfig, e.Err}
	}
	return []error{ErrInvalidConfig}
}
