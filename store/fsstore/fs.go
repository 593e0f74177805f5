// Package fsstore implements a filesystem store that keeps one file per key.
//
// Layout:
//
//	<root>/<sha256(key)[:2]>/<hex(key)>
//	<root>/<sha256(key)[:2]>/_<sha256(key)>   (keys too long to hex-encode)
//
// Each file holds "<expiry>\n<payload>" where expiry is a unix timestamp in
// seconds and 0 means the entry never expires. Writes go to a temp file in the
// same directory and are renamed into place, so readers only ever see whole
// records.
package fsstore

import (
	"bufio"
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"time"

	"github.com/unkn0wn-root/tiercache/internal/keys"
	"github.com/unkn0wn-root/tiercache/internal/wire"
	"github.com/unkn0wn-root/tiercache/store"
)

// Compile-time check that Store implements store.Store.
var _ store.Store = (*Store)(nil)

// Store is a filesystem-backed store.
type Store struct {
	root    string
	ttl     time.Duration
	mask    os.FileMode
	now     func() time.Time
	windows bool
}

// New creates a store rooted at dir, creating it and any missing parents.
// It fails with store.ErrInvalidConfig when the TTL is negative, the mask is
// not a permission mask, or dir cannot be created or written.
func New(dir string, opts ...Option) (*Store, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt.apply(&o)
	}

	if o.ttl < 0 {
		return nil, &store.ConfigError{Field: "ttl", Reason: "must not be negative"}
	}
	if o.mask&^os.ModePerm != 0 {
		return nil, &store.ConfigError{Field: "fileMask", Reason: "must be a permission mask within 0777"}
	}
	if dir == "" {
		return nil, &store.ConfigError{Field: "directory", Reason: "required"}
	}

	if err := os.MkdirAll(dir, 0o777&^o.mask); err != nil {
		return nil, &store.ConfigError{Field: "directory", Reason: "does not exist and could not be created", Err: err}
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, &store.ConfigError{Field: "directory", Reason: "cannot stat", Err: err}
	}
	if !info.IsDir() {
		return nil, &store.ConfigError{Field: "directory", Reason: dir + " is not a directory"}
	}
	if err := probeWritable(dir); err != nil {
		return nil, &store.ConfigError{Field: "directory", Reason: "not writable", Err: err}
	}

	root, err := filepath.Abs(dir)
	if err != nil {
		return nil, &store.ConfigError{Field: "directory", Reason: "cannot resolve", Err: err}
	}
	if resolved, err := filepath.EvalSymlinks(root); err == nil {
		root = resolved
	}

	return &Store{
		root:    root,
		ttl:     o.ttl,
		mask:    o.mask,
		now:     o.clock,
		windows: runtime.GOOS == "windows",
	}, nil
}

// Root returns the resolved root directory.
func (s *Store) Root() string { return s.root }

func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := s.check(ctx, key); err != nil {
		return nil, false, err
	}
	path := s.path(key)

	f, err := os.Open(path)
	if err != nil {
		return nil, false, nil
	}

	r := bufio.NewReader(f)
	expiresAt, err := readExpiry(r)
	if err != nil || store.Expired(expiresAt, s.now()) {
		// corrupt or stale; closed before removal so this also works on Windows
		f.Close()
		_ = os.Remove(path)
		return nil, false, nil
	}

	payload, err := io.ReadAll(r)
	f.Close()
	if err != nil {
		return nil, false, nil
	}
	return payload, true, nil
}

// Has checks the expiry header only. Unlike Get it leaves expired files in
// place; they are removed by the next Get, Set or Clear.
func (s *Store) Has(ctx context.Context, key string) (bool, error) {
	if err := s.check(ctx, key); err != nil {
		return false, err
	}

	f, err := os.Open(s.path(key))
	if err != nil {
		return false, nil
	}
	defer f.Close()

	expiresAt, err := readExpiry(bufio.NewReader(f))
	if err != nil {
		return false, nil
	}
	return !store.Expired(expiresAt, s.now()), nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte, ttl store.TTL) (bool, error) {
	if err := s.check(ctx, key); err != nil {
		return false, err
	}
	expiresAt := ttl.ExpiresAt(s.now(), s.ttl)
	return s.writeFile(s.path(key), wire.EncodeEntry(expiresAt, value)), nil
}

func (s *Store) Delete(ctx context.Context, key string) (bool, error) {
	if err := s.check(ctx, key); err != nil {
		return false, err
	}
	err := os.Remove(s.path(key))
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return true, nil
	}
	return false, nil
}

// Clear removes every file under the root, then every directory that is left
// empty, deepest first. Failures are ignored and the root itself is kept.
func (s *Store) Clear(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	var dirs []string
	_ = filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || path == s.root {
			return nil
		}
		if d.IsDir() {
			dirs = append(dirs, path)
			return nil
		}
		_ = os.Remove(path)
		return nil
	})

	// longer paths are deeper; remove children before parents
	sort.Slice(dirs, func(i, j int) bool { return len(dirs[i]) > len(dirs[j]) })
	for _, d := range dirs {
		_ = os.Remove(d)
	}
	return true, nil
}

func (s *Store) check(ctx context.Context, key string) error {
	if err := store.ValidateKey(key); err != nil {
		return err
	}
	return ctx.Err()
}

func (s *Store) path(key string) string {
	return filepath.Join(s.root, keys.Shard(key), keys.Filename(key, len(s.root), s.windows))
}

// writeFile writes content to a temp file next to path and renames it into
// place. Any failure removes the temp file and reports false.
func (s *Store) writeFile(path string, content []byte) bool {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o777&^s.mask); err != nil {
		return false
	}

	tmp, err := os.CreateTemp(dir, "swap")
	if err != nil {
		return false
	}
	tmpName := tmp.Name()

	_ = tmp.Chmod(0o666 &^ s.mask)
	_, err = tmp.Write(content)
	closeErr := tmp.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tmpName)
		return false
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return false
	}
	return true
}

func readExpiry(r *bufio.Reader) (int64, error) {
	line, err := r.ReadBytes('\n')
	if err != nil {
		return 0, wire.ErrCorrupt
	}
	return wire.ParseExpiry(line)
}

func probeWritable(dir string) error {
	f, err := os.CreateTemp(dir, ".probe")
	if err != nil {
		return err
	}
	name := f.Name()
	f.Close()
	return os.Remove(name)
}
