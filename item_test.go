package tiercache

import (
	"errors"
	"math"
	"testing"
	"time"
)

func newClockedItem(now *time.Time) *Item[string] {
	return newItem[string]("k", func() time.Time { return *now })
}

func TestItem_ExpiresAfter(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	it := newClockedItem(&now)

	if err := it.ExpiresAfter(300 * time.Second); err != nil {
		t.Fatalf("ExpiresAfter() error = %v", err)
	}
	exp, ok := it.Expiration()
	if !ok || !exp.Equal(it.LastModified().Add(300*time.Second)) {
		t.Fatalf("Expiration() = %v, %v; want lastModified+300s", exp, ok)
	}
}

func TestItem_ExpiresAtZeroClears(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	it := newClockedItem(&now)
	it.Set("value")
	it.ExpiresAfter(time.Minute)

	now = now.Add(time.Second)
	if err := it.ExpiresAt(time.Time{}); err != nil {
		t.Fatalf("ExpiresAt(zero) error = %v", err)
	}
	if _, ok := it.Expiration(); ok {
		t.Fatal("expiry not cleared")
	}
	if it.Get() != "value" {
		t.Fatalf("Get() = %q, value changed by clearing expiry", it.Get())
	}
	if !it.LastModified().Equal(now) {
		t.Fatalf("LastModified() = %v, want %v", it.LastModified(), now)
	}
}

func TestItem_ExpiresAtRejectsUnrepresentable(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	it := newClockedItem(&now)

	for _, tt := range []time.Time{
		time.Unix(-1, 0),
		time.Date(2300, 1, 1, 0, 0, 0, 0, time.UTC),
	} {
		if err := it.ExpiresAt(tt); !errors.Is(err, ErrInvalidExpiry) {
			t.Errorf("ExpiresAt(%v) error = %v, want ErrInvalidExpiry", tt, err)
		}
	}
	if _, ok := it.Expiration(); ok {
		t.Fatal("rejected expiry was applied")
	}
}

func TestItem_ExpiresAfterOverflow(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	it := newClockedItem(&now)
	if err := it.ExpiresAfter(time.Duration(math.MaxInt64)); !errors.Is(err, ErrInvalidExpiry) {
		t.Fatalf("ExpiresAfter(max) error = %v", err)
	}
}

func TestItem_LastModifiedDefaultsToNow(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	it := newClockedItem(&now)
	if !it.LastModified().Equal(now) {
		t.Fatalf("LastModified() = %v", it.LastModified())
	}
	now = now.Add(time.Hour)
	if !it.LastModified().Equal(now) {
		t.Fatal("unset LastModified() should track the clock")
	}
}

func TestItem_ValueAndHit(t *testing.T) {
	it := newItem[int]("k", nil)
	if _, ok := it.Value(); ok || it.IsHit() {
		t.Fatal("new item has a value or is a hit")
	}
	it.Set(3)
	if v, ok := it.Value(); !ok || v != 3 {
		t.Fatalf("Value() = %d, %v", v, ok)
	}
	if it.IsHit() {
		t.Fatal("Set() turned a miss into a hit")
	}
	if it.Key() != "k" {
		t.Fatalf("Key() = %q", it.Key())
	}
}
