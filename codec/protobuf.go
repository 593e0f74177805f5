package codec

import "google.golang.org/protobuf/proto"

// Protobuf encodes generated protobuf messages. Construct it with
// NewProtobuf so Decode can allocate the concrete message type.
type Protobuf[T proto.Message] struct {
	newMsg func() T
}

// NewProtobuf returns a codec for messages built by ctor, for example
// func() *pb.User { return &pb.User{} }.
func NewProtobuf[T proto.Message](ctor func() T) Protobuf[T] {
	return Protobuf[T]{newMsg: ctor}
}

func (c Protobuf[T]) Encode(v T) ([]byte, error) {
	return proto.Marshal(v)
}

func (c Protobuf[T]) Decode(b []byte) (T, error) {
	m := c.newMsg()
	err := proto.Unmarshal(b, m)
	return m, err
}
