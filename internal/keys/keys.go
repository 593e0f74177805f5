// Package keys maps cache keys onto filesystem- and object-store-safe names.
package keys

import (
	"crypto/sha256"
	"encoding/hex"
)

const (
	// MaxComponent is the byte limit most filesystems put on one path component.
	MaxComponent = 255
	// MaxWindowsPath is the usable length of a full path on Windows (260 minus
	// the terminating NUL and one byte of slack for the 259-length edge case).
	MaxWindowsPath = 258

	// HashPrefix marks hash-derived filenames. It is not a hex digit, so a
	// hashed name can never equal the hex encoding of a real key.
	HashPrefix = "_"
)

// Hash returns the lowercase hex SHA-256 of key.
func Hash(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

// Shard returns the fan-out directory for key: the first two hex chars of its hash.
func Shard(key string) string {
	return Hash(key)[:2]
}

// Filename returns the hex encoding of key, or HashPrefix+Hash(key) when the
// key is empty or its hex form would not fit. rootLen is the length of the
// root directory and only matters when windows is true: the full path is
// root + sep + 2 shard chars + sep + name.
func Filename(key string, rootLen int, windows bool) string {
	n := hex.EncodedLen(len(key))
	if key == "" || n > MaxComponent || (windows && rootLen+4+n > MaxWindowsPath) {
		return HashPrefix + Hash(key)
	}
	return hex.EncodeToString([]byte(key))
}
