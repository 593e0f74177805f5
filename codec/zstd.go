package codec

import (
	"github.com/klauspost/compress/zstd"
)

// Zstd compresses the output of an inner codec with zstd. Encoder and
// decoder are shared and safe for concurrent use. Call Close when the codec
// is no longer needed.
type Zstd[V any] struct {
	inner Codec[V]
	enc   *zstd.Encoder
	dec   *zstd.Decoder
}

var _ Codec[[]byte] = (*Zstd[[]byte])(nil)

// NewZstd wraps inner. maxDecoded bounds the decompressed size (0 keeps the
// library default).
func NewZstd[V any](inner Codec[V], maxDecoded uint64) (*Zstd[V], error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, err
	}
	decOpts := []zstd.DOption{zstd.WithDecoderConcurrency(0)}
	if maxDecoded > 0 {
		decOpts = append(decOpts, zstd.WithDecoderMaxMemory(maxDecoded))
	}
	dec, err := zstd.NewReader(nil, decOpts...)
	if err != nil {
		enc.Close()
		return nil, err
	}
	return &Zstd[V]{inner: inner, enc: enc, dec: dec}, nil
}

func (z *Zstd[V]) Encode(v V) ([]byte, error) {
	b, err := z.inner.Encode(v)
	if err != nil {
		return nil, err
	}
	return z.enc.EncodeAll(b, make([]byte, 0, len(b))), nil
}

func (z *Zstd[V]) Decode(b []byte) (V, error) {
	raw, err := z.dec.DecodeAll(b, nil)
	if err != nil {
		var zero V
		return zero, err
	}
	return z.inner.Decode(raw)
}

// Close releases the encoder and decoder.
func (z *Zstd[V]) Close() error {
	z.dec.Close()
	return z.enc.Close()
}
