package fsstore

import (
	"os"
	"time"
)

const (
	// DefaultTTL is one week.
	DefaultTTL = 7 * 24 * time.Hour
	// DefaultFileMask removes world write permission from created files and directories.
	DefaultFileMask os.FileMode = 0o002
)

// Option configures a Store.
type Option interface {
	apply(*options)
}

type options struct {
	ttl   time.Duration
	mask  os.FileMode
	clock func() time.Time
}

func defaultOptions() options {
	return options{
		ttl:   DefaultTTL,
		mask:  DefaultFileMask,
		clock: time.Now,
	}
}

type optionFunc func(*options)

// Compile-time check that optionFunc implements Option.
var _ Option = optionFunc(nil)

func (f optionFunc) apply(o *options) { f(o) }

// WithTTL sets the lifetime used when Set is called with store.DefaultTTL.
// Zero means entries never expire. Negative values are rejected by New.
func WithTTL(d time.Duration) Option {
	return optionFunc(func(o *options) {
		o.ttl = d
	})
}

// WithFileMask sets the umask-style permission mask applied to created files
// (0666 &^ mask) and directories (0777 &^ mask).
func WithFileMask(mask os.FileMode) Option {
	return optionFunc(func(o *options) {
		o.mask = mask
	})
}

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return optionFunc(func(o *options) {
		if now != nil {
			o.clock = now
		}
	})
}
