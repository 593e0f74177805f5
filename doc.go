// Package tiercache is a pluggable key-value cache with item-level hit/miss
// semantics, expiry metadata and deferred batched writes.
//
// Components:
//   - store.Store: byte store with per-entry TTLs (filesystem, memory,
//     BigCache, Ristretto, Redis, S3), optionally layered with
//     store/composite.
//   - codec.Codec[V]: (de)serializes V <-> []byte.
//   - Pool[V]: hydrates Items from records and persists them, immediately
//     with Save or batched with SaveDeferred and Commit.
//
// Records written by a Pool carry the value plus the item's last-modified and
// expiry times, so an item read back reports the expiry it was saved with.
//
// Deferred pattern:
//
//	it, _ := pool.GetItem(ctx, "user:1")
//	it.Set(u)
//	_ = it.ExpiresAfter(5 * time.Minute)
//	pool.SaveDeferred(it)
//	ok, err := pool.Commit(ctx) // failed items stay queued
package tiercache
