package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
	"strconv"
)

var (
	ErrCorrupt = errors.New("tiercache: corrupt entry")
	magic4     = [...]byte{'T', 'C', 'I', 'R'}
)

// Entry: <decimal expiry unix seconds> '\n' <payload>
// Expiry 0 means the entry never expires. This is the on-disk format of
// fsstore and the value format of stores without native TTLs.
func EncodeEntry(expiresAt int64, payload []byte) []byte {
	var buf bytes.Buffer
	buf.Grow(20 + 1 + len(payload))
	buf.WriteString(strconv.FormatInt(expiresAt, 10))
	buf.WriteByte('\n')
	buf.Write(payload)
	return buf.Bytes()
}

// ParseExpiry parses an entry header line, with or without its line ending.
func ParseExpiry(line []byte) (int64, error) {
	line = bytes.TrimRight(line, "\r\n")
	if len(line) == 0 {
		return 0, ErrCorrupt
	}
	n, err := strconv.ParseInt(string(line), 10, 64)
	if err != nil {
		return 0, ErrCorrupt
	}
	return n, nil
}

func DecodeEntry(b []byte) (expiresAt int64, payload []byte, err error) {
	i := bytes.IndexByte(b, '\n')
	if i < 0 {
		return 0, nil, ErrCorrupt
	}
	expiresAt, err = ParseExpiry(b[:i])
	if err != nil {
		return 0, nil, err
	}
	return expiresAt, b[i+1:], nil
}

const (
	version byte = 1

	flagValue        byte = 1 << 0
	flagLastModified byte = 1 << 1
	flagExpiresAt    byte = 1 << 2

	recordHeader = 4 + 1 + 1 + 8 + 8 + 4
)

// Record is the pool's stored shape of an item. Timestamps are unix nanos;
// zero means absent.
type Record struct {
	Value        []byte
	HasValue     bool
	LastModified int64
	ExpiresAt    int64
}

// Record: magic(4) | ver(1) | flags(1) | lastModified(i64 be) | expiresAt(i64 be) | vlen(u32 be) | value(vlen)
func EncodeRecord(r Record) []byte {
	var buf bytes.Buffer
	buf.Grow(recordHeader + len(r.Value))

	var flags byte
	if r.HasValue {
		flags |= flagValue
	}
	if r.LastModified != 0 {
		flags |= flagLastModified
	}
	if r.ExpiresAt != 0 {
		flags |= flagExpiresAt
	}

	buf.Write(magic4[:])
	buf.WriteByte(version)
	buf.WriteByte(flags)

	var u8 [8]byte
	var u4 [4]byte

	binary.BigEndian.PutUint64(u8[:], uint64(r.LastModified))
	buf.Write(u8[:])
	binary.BigEndian.PutUint64(u8[:], uint64(r.ExpiresAt))
	buf.Write(u8[:])

	value := r.Value
	if !r.HasValue {
		value = nil
	}
	binary.BigEndian.PutUint32(u4[:], uint32(len(value)))
	buf.Write(u4[:])
	buf.Write(value)
	return buf.Bytes()
}

// DecodeRecord validates framing. A timestamp flagged present but not
// positive is dropped rather than rejected.
func DecodeRecord(b []byte) (Record, error) {
	if len(b) < recordHeader || !bytes.Equal(b[:4], magic4[:]) || b[4] != version {
		return Record{}, ErrCorrupt
	}
	flags := b[5]
	if flags&^(flagValue|flagLastModified|flagExpiresAt) != 0 {
		return Record{}, ErrCorrupt
	}

	off := 6
	lm := int64(binary.BigEndian.Uint64(b[off : off+8]))
	off += 8
	exp := int64(binary.BigEndian.Uint64(b[off : off+8]))
	off += 8

	vlen := int(binary.BigEndian.Uint32(b[off : off+4]))
	off += 4
	if vlen < 0 || vlen != len(b)-off {
		return Record{}, ErrCorrupt
	}

	r := Record{HasValue: flags&flagValue != 0}
	if r.HasValue {
		r.Value = b[off : off+vlen]
	} else if vlen != 0 {
		return Record{}, ErrCorrupt
	}
	if flags&flagLastModified != 0 && lm > 0 {
		r.LastModified = lm
	}
	if flags&flagExpiresAt != 0 && exp > 0 {
		r.ExpiresAt = exp
	}
	return r, nil
}
