package s3store

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/unkn0wn-root/tiercache/store"
)

// fakeS3 is an in-memory bucket with small list pages.
type fakeS3 struct {
	objects  map[string][]byte
	pageSize int
	failPut  bool
	lists    int
}

func newFakeS3() *fakeS3 { return &fakeS3{objects: make(map[string][]byte), pageSize: 2} }

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	b, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(b))}, nil
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.failPut {
		return nil, errors.New("access denied")
	}
	b, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[aws.ToString(in.Key)] = b
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	delete(f.objects, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func (f *fakeS3) ListObjectsV2(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	f.lists++
	var names []string
	for k := range f.objects {
		if strings.HasPrefix(k, aws.ToString(in.Prefix)) {
			names = append(names, k)
		}
	}
	sort.Strings(names)

	start := 0
	if in.ContinuationToken != nil {
		start = sort.SearchStrings(names, *in.ContinuationToken)
	}
	end := min(start+f.pageSize, len(names))

	out := &s3.ListObjectsV2Output{IsTruncated: aws.Bool(end < len(names))}
	for _, n := range names[start:end] {
		out.Contents = append(out.Contents, types.Object{Key: aws.String(n)})
	}
	if end < len(names) {
		out.NextContinuationToken = aws.String(names[end])
	}
	return out, nil
}

func newTestStore(t *testing.T, api *fakeS3, now *time.Time, opts ...Option) *Store {
	t.Helper()
	opts = append(opts, WithClock(func() time.Time { return *now }))
	s, err := NewWithClient(api, "bucket", opts...)
	if err != nil {
		t.Fatalf("NewWithClient() error = %v", err)
	}
	return s
}

func TestWithPrefix(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"", ""},
		{"prefix", "prefix/"},
		{"prefix/", "prefix/"},
		{"a/b/c/", "a/b/c/"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			s := &Store{}
			if err := WithPrefix(tt.input)(s); err != nil {
				t.Fatalf("WithPrefix() error = %v", err)
			}
			if s.prefix != tt.want {
				t.Errorf("prefix = %q, want %q", s.prefix, tt.want)
			}
		})
	}
}

func TestStore_objectKey(t *testing.T) {
	s := &Store{prefix: "cache/"}
	want := "cache/2c/2c26b46b68ffc68ff99b453c1d30413413422d706483bfa0f98a5e886266e7ae"
	if got := s.objectKey("foo"); got != want {
		t.Errorf("objectKey(foo) = %q, want %q", got, want)
	}
}

func TestStore_RoundTrip(t *testing.T) {
	api := newFakeS3()
	now := time.Unix(1_700_000_000, 0)
	s := newTestStore(t, api, &now)
	ctx := context.Background()

	if ok, err := s.Set(ctx, "foo", []byte("bar"), store.After(time.Minute)); err != nil || !ok {
		t.Fatalf("Set() = %v, %v", ok, err)
	}
	if body := api.objects[s.objectKey("foo")]; string(body) != "1700000060\nbar" {
		t.Fatalf("object body = %q", body)
	}

	got, ok, err := s.Get(ctx, "foo")
	if err != nil || !ok || string(got) != "bar" {
		t.Fatalf("Get() = %q, %v, %v", got, ok, err)
	}
	if has, _ := s.Has(ctx, "foo"); !has {
		t.Fatal("Has() = false")
	}
}

func TestStore_ExpiredObjectIsDeleted(t *testing.T) {
	api := newFakeS3()
	now := time.Unix(1_700_000_000, 0)
	s := newTestStore(t, api, &now)
	ctx := context.Background()

	s.Set(ctx, "foo", []byte("bar"), store.After(2*time.Second))
	now = now.Add(2 * time.Second)

	if has, _ := s.Has(ctx, "foo"); has {
		t.Fatal("Has() = true at expiry")
	}
	if _, ok := api.objects[s.objectKey("foo")]; !ok {
		t.Fatal("Has() deleted the object")
	}
	if _, ok, _ := s.Get(ctx, "foo"); ok {
		t.Fatal("Get() hit at expiry")
	}
	if _, ok := api.objects[s.objectKey("foo")]; ok {
		t.Fatal("Get() left the expired object")
	}
}

func TestStore_MissingAndFailedWrites(t *testing.T) {
	api := newFakeS3()
	now := time.Now()
	s := newTestStore(t, api, &now)
	ctx := context.Background()

	if _, ok, err := s.Get(ctx, "missing"); ok || err != nil {
		t.Fatalf("Get(missing) = %v, %v", ok, err)
	}
	if ok, err := s.Delete(ctx, "missing"); !ok || err != nil {
		t.Fatalf("Delete(missing) = %v, %v", ok, err)
	}

	api.failPut = true
	if ok, err := s.Set(ctx, "k", []byte("v"), store.DefaultTTL); ok || err != nil {
		t.Fatalf("Set() with failing bucket = %v, %v; want false, nil", ok, err)
	}
}

func TestStore_ClearPagesThroughPrefix(t *testing.T) {
	api := newFakeS3()
	api.objects["other/keep"] = []byte("0\nx")
	now := time.Now()
	s := newTestStore(t, api, &now, WithPrefix("cache"))
	ctx := context.Background()

	for _, k := range []string{"a", "b", "c", "d", "e"} {
		s.Set(ctx, k, []byte(k), store.DefaultTTL)
	}
	if ok, err := s.Clear(ctx); !ok || err != nil {
		t.Fatalf("Clear() = %v, %v", ok, err)
	}
	if len(api.objects) != 1 {
		t.Fatalf("objects left = %v, want only other/keep", api.objects)
	}
	if api.lists < 3 {
		t.Fatalf("ListObjectsV2 called %d times, want paging", api.lists)
	}
}

func TestNewWithClient_InvalidConfig(t *testing.T) {
	if _, err := NewWithClient(nil, "bucket"); !errors.Is(err, store.ErrInvalidConfig) {
		t.Errorf("nil client error = %v", err)
	}
	if _, err := NewWithClient(newFakeS3(), ""); !errors.Is(err, store.ErrInvalidConfig) {
		t.Errorf("empty bucket error = %v", err)
	}
	if _, err := NewWithClient(newFakeS3(), "b", WithTTL(-time.Second)); !errors.Is(err, store.ErrInvalidConfig) {
		t.Errorf("negative ttl error = %v", err)
	}
}
