// Package sloghooks logs tiercache pool events with log/slog.
package sloghooks

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"sync/atomic"

	"github.com/unkn0wn-root/tiercache"
)

type Options struct {
	// Sampling to avoid floods; 0/1 = log all.
	HitEvery  uint64
	MissEvery uint64
	// Hits and misses are not logged unless enabled.
	LogHits   bool
	LogMisses bool
	// Optional key redactor. Defaults to SHA-256 prefix.
	Redact func(string) string
}

type Hooks struct {
	l    *slog.Logger
	opts Options

	hitCtr  atomic.Uint64
	missCtr atomic.Uint64
}

var _ tiercache.Hooks = (*Hooks)(nil)

func New(l *slog.Logger, opts Options) *Hooks {
	return &Hooks{l: l, opts: opts}
}

func (h *Hooks) redact(k string) string {
	if h.opts.Redact != nil {
		return h.opts.Redact(k)
	}
	sum := sha256.Sum256([]byte(k))
	return hex.EncodeToString(sum[:8])
}

func sample(n uint64, ctr *atomic.Uint64) bool {
	if n == 0 || n == 1 {
		return true
	}
	return ctr.Add(1)%n == 0
}

func (h *Hooks) ItemHit(key string) {
	if h.l == nil || !h.opts.LogHits || !sample(h.opts.HitEvery, &h.hitCtr) {
		return
	}
	h.l.Debug("tiercache.item_hit", "key", h.redact(key))
}

func (h *Hooks) ItemMiss(key string) {
	if h.l == nil || !h.opts.LogMisses || !sample(h.opts.MissEvery, &h.missCtr) {
		return
	}
	h.l.Debug("tiercache.item_miss", "key", h.redact(key))
}

func (h *Hooks) CorruptRecord(key string, err error) {
	if h.l == nil {
		return
	}
	h.l.Warn("tiercache.corrupt_record",
		"key", h.redact(key),
		"err", err)
}

func (h *Hooks) SerializationFailed(key, op string, err error) {
	if h.l == nil {
		return
	}
	h.l.Error("tiercache.serialization_failed",
		"key", h.redact(key),
		"op", op,
		"err", err)
}

func (h *Hooks) SaveRejected(key string) {
	if h.l == nil {
		return
	}
	h.l.Warn("tiercache.save_rejected", "key", h.redact(key))
}

func (h *Hooks) CommitIncomplete(pending int) {
	if h.l == nil {
		return
	}
	h.l.Warn("tiercache.commit_incomplete", "pending", pending)
}
