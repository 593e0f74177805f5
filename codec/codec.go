// Package codec converts typed values to the bytes a store holds and back.
//
// A Pool[V] owns exactly one Codec[V]. Codecs must be deterministic enough
// that Decode(Encode(v)) yields a value equal to v; they do not need to be
// byte-stable unless the caller hashes the output.
package codec

// Codec encodes values of V for storage and decodes them back.
type Codec[V any] interface {
	Encode(V) ([]byte, error)
	Decode([]byte) (V, error)
}

// Func adapts a pair of functions to Codec.
type Func[V any] struct {
	EncodeFunc func(V) ([]byte, error)
	DecodeFunc func([]byte) (V, error)
}

func (f Func[V]) Encode(v V) ([]byte, error) { return f.EncodeFunc(v) }
func (f Func[V]) Decode(b []byte) (V, error) { return f.DecodeFunc(b) }
