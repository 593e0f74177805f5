package wire

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"
)

func mustDecodeRecord(t *testing.T, b []byte) Record {
	t.Helper()
	r, err := DecodeRecord(b)
	if err != nil {
		t.Fatalf("DecodeRecord error: %v", err)
	}
	return r
}

func TestEntryIsBitExact(t *testing.T) {
	got := EncodeEntry(1700000000, []byte("payload\nwith newline"))
	want := []byte("1700000000\npayload\nwith newline")
	if !bytes.Equal(got, want) {
		t.Fatalf("EncodeEntry = %q want %q", got, want)
	}
	if got := EncodeEntry(0, nil); string(got) != "0\n" {
		t.Fatalf("never-expiring empty entry = %q", got)
	}
}

func TestEntryRT(t *testing.T) {
	cases := []struct {
		exp     int64
		payload []byte
	}{
		{0, nil},
		{42, []byte("hello")},
		{math.MaxInt64, []byte{0, '\n', 2, '\r', '\n'}},
		{-7, []byte("expired")},
	}
	for _, tc := range cases {
		exp, p, err := DecodeEntry(EncodeEntry(tc.exp, tc.payload))
		if err != nil {
			t.Fatalf("DecodeEntry error: %v", err)
		}
		if exp != tc.exp {
			t.Fatalf("expiry mismatch: got %d want %d", exp, tc.exp)
		}
		if !bytes.Equal(p, tc.payload) && !(len(p) == 0 && len(tc.payload) == 0) {
			t.Fatalf("payload mismatch: got %q want %q", p, tc.payload)
		}
	}
}

func TestEntryAcceptsCRLF(t *testing.T) {
	exp, p, err := DecodeEntry([]byte("12\r\nabc"))
	if err != nil || exp != 12 || string(p) != "abc" {
		t.Fatalf("DecodeEntry(CRLF) = %d %q %v", exp, p, err)
	}
}

func TestEntryCorrupt(t *testing.T) {
	for _, b := range [][]byte{
		[]byte("no newline"),
		[]byte("\npayload"),
		[]byte("12x\npayload"),
	} {
		if _, _, err := DecodeEntry(b); err != ErrCorrupt {
			t.Fatalf("DecodeEntry(%q) err=%v want ErrCorrupt", b, err)
		}
	}
}

func TestRecordRT(t *testing.T) {
	cases := []Record{
		{},
		{Value: []byte{}, HasValue: true},
		{Value: []byte("v"), HasValue: true},
		{Value: []byte("v"), HasValue: true, LastModified: 10, ExpiresAt: 20},
		{LastModified: 5},
	}
	for _, tc := range cases {
		got := mustDecodeRecord(t, EncodeRecord(tc))
		if got.HasValue != tc.HasValue || !bytes.Equal(got.Value, tc.Value) ||
			got.LastModified != tc.LastModified || got.ExpiresAt != tc.ExpiresAt {
			t.Fatalf("record mismatch: got %+v want %+v", got, tc)
		}
	}
}

func TestRecordDropsValueWithoutFlag(t *testing.T) {
	enc := EncodeRecord(Record{Value: []byte("ignored")})
	if got := mustDecodeRecord(t, enc); got.HasValue || len(got.Value) != 0 {
		t.Fatalf("value should not be stored without HasValue: %+v", got)
	}
}

func TestRecordDiscardsIllTypedTimestamps(t *testing.T) {
	enc := EncodeRecord(Record{Value: []byte("v"), HasValue: true, LastModified: 10, ExpiresAt: 20})
	// negative expires_at with the presence flag still set
	binary.BigEndian.PutUint64(enc[14:22], uint64(0xFFFFFFFFFFFFFFFF))
	got := mustDecodeRecord(t, enc)
	if got.ExpiresAt != 0 {
		t.Fatalf("negative timestamp should be discarded, got %d", got.ExpiresAt)
	}
	if got.LastModified != 10 {
		t.Fatalf("well-typed timestamp lost: %d", got.LastModified)
	}
}

func TestRecordCorrupt(t *testing.T) {
	enc := EncodeRecord(Record{Value: []byte("abc"), HasValue: true})

	badMagic := append([]byte(nil), enc...)
	badMagic[0] = 'X'
	if _, err := DecodeRecord(badMagic); err == nil {
		t.Fatalf("expected error on bad magic")
	}

	badVer := append([]byte(nil), enc...)
	badVer[4] = version + 1
	if _, err := DecodeRecord(badVer); err == nil {
		t.Fatalf("expected error on bad version")
	}

	badFlags := append([]byte(nil), enc...)
	badFlags[5] = 0x80
	if _, err := DecodeRecord(badFlags); err == nil {
		t.Fatalf("expected error on unknown flags")
	}

	trailing := append(append([]byte(nil), enc...), 0xDE, 0xAD)
	if _, err := DecodeRecord(trailing); err == nil {
		t.Fatalf("expected error on trailing bytes")
	}

	if _, err := DecodeRecord(enc[:len(enc)-1]); err == nil {
		t.Fatalf("expected error on truncated value")
	}

	if _, err := DecodeRecord(enc[:10]); err == nil {
		t.Fatalf("expected error on truncated header")
	}
}
