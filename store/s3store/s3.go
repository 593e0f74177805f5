// Package s3store implements a cold tier on AWS S3 (or an S3-compatible
// service). Objects hold the same "<expiry>\n<payload>" entry fsstore writes;
// expiry is checked on read and stale objects are deleted.
package s3store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/unkn0wn-root/tiercache/internal/keys"
	"github.com/unkn0wn-root/tiercache/internal/wire"
	"github.com/unkn0wn-root/tiercache/store"
)

// Compile-time check that Store implements store.Store.
var _ store.Store = (*Store)(nil)

// API is the subset of *s3.Client the store uses.
type API interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, opts ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// Store is an S3-backed store.
type Store struct {
	client API
	bucket string
	prefix string
	ttl    time.Duration
	now    func() time.Time

	region   string
	endpoint string
}

// Option configures a Store.
type Option func(*Store) error

// WithPrefix sets a key prefix for all objects.
func WithPrefix(prefix string) Option {
	return func(s *Store) error {
		s.prefix = strings.TrimSuffix(prefix, "/")
		if s.prefix != "" {
			s.prefix += "/"
		}
		return nil
	}
}

// WithRegion sets the AWS region.
func WithRegion(region string) Option {
	return func(s *Store) error {
		s.region = region
		return nil
	}
}

// WithEndpoint sets a custom endpoint (for S3-compatible services like MinIO).
func WithEndpoint(endpoint string) Option {
	return func(s *Store) error {
		s.endpoint = endpoint
		return nil
	}
}

// WithTTL sets the lifetime applied for store.DefaultTTL. Zero, the default,
// means objects never expire.
func WithTTL(d time.Duration) Option {
	return func(s *Store) error {
		if d < 0 {
			return &store.ConfigError{Field: "ttl", Reason: "must not be negative"}
		}
		s.ttl = d
		return nil
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) error {
		if now != nil {
			s.now = now
		}
		return nil
	}
}

// New creates a store using the default AWS credential chain.
// The bucket must already exist.
func New(ctx context.Context, bucket string, opts ...Option) (*Store, error) {
	s, err := build(bucket, opts)
	if err != nil {
		return nil, err
	}

	var loadOpts []func(*config.LoadOptions) error
	if s.region != "" {
		loadOpts = append(loadOpts, config.WithRegion(s.region))
	}
	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}
	s.client = s3.NewFromConfig(cfg, func(o *s3.Options) {
		if s.endpoint != "" {
			o.BaseEndpoint = aws.String(s.endpoint)
			o.UsePathStyle = true
		}
	})
	return s, nil
}

// NewWithClient creates a store over an existing client.
func NewWithClient(client API, bucket string, opts ...Option) (*Store, error) {
	if client == nil {
		return nil, &store.ConfigError{Field: "client", Reason: "required"}
	}
	s, err := build(bucket, opts)
	if err != nil {
		return nil, err
	}
	s.client = client
	return s, nil
}

func build(bucket string, opts []Option) (*Store, error) {
	if bucket == "" {
		return nil, &store.ConfigError{Field: "bucket", Reason: "required"}
	}
	s := &Store{bucket: bucket, now: time.Now}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := check(ctx, key); err != nil {
		return nil, false, err
	}
	raw, ok, err := s.read(ctx, key)
	if !ok || err != nil {
		return nil, false, err
	}
	expiresAt, payload, err := wire.DecodeEntry(raw)
	if err != nil || store.Expired(expiresAt, s.now()) {
		_, _ = s.Delete(ctx, key)
		return nil, false, nil
	}
	return payload, true, nil
}

// Has downloads the object; S3 metadata does not carry the expiry.
func (s *Store) Has(ctx context.Context, key string) (bool, error) {
	if err := check(ctx, key); err != nil {
		return false, err
	}
	raw, ok, err := s.read(ctx, key)
	if !ok || err != nil {
		return false, err
	}
	expiresAt, _, err := wire.DecodeEntry(raw)
	return err == nil && !store.Expired(expiresAt, s.now()), nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte, ttl store.TTL) (bool, error) {
	if err := check(ctx, key); err != nil {
		return false, err
	}
	body := wire.EncodeEntry(ttl.ExpiresAt(s.now(), s.ttl), value)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(s.objectKey(key)),
		Body:          bytes.NewReader(body),
		ContentLength: aws.Int64(int64(len(body))),
	})
	if err != nil {
		return false, ctx.Err()
	}
	return true, nil
}

// Delete succeeds for absent keys; S3 deletes are idempotent.
func (s *Store) Delete(ctx context.Context, key string) (bool, error) {
	if err := check(ctx, key); err != nil {
		return false, err
	}
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
	})
	if err != nil {
		return false, ctx.Err()
	}
	return true, nil
}

// Clear deletes every object under the store prefix, one page at a time.
func (s *Store) Clear(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	ok := true
	var token *string
	for {
		page, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(s.bucket),
			Prefix:            aws.String(s.prefix),
			ContinuationToken: token,
		})
		if err != nil {
			return false, ctx.Err()
		}
		for _, obj := range page.Contents {
			_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
				Bucket: aws.String(s.bucket),
				Key:    obj.Key,
			})
			if err != nil {
				ok = false
			}
		}
		if !aws.ToBool(page.IsTruncated) || page.NextContinuationToken == nil {
			break
		}
		token = page.NextContinuationToken
	}
	return ok, nil
}

// Close releases resources.
func (s *Store) Close(context.Context) error {
	// S3 client doesn't need explicit closing.
	return nil
}

func (s *Store) read(ctx context.Context, key string) ([]byte, bool, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, false, nil
		}
		return nil, false, ctx.Err()
	}
	defer out.Body.Close()

	raw, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, false, ctx.Err()
	}
	return raw, true, nil
}

// objectKey shards objects the way fsstore shards files:
// <prefix><sha256(key)[:2]>/<sha256(key)>.
func (s *Store) objectKey(key string) string {
	return s.prefix + keys.Shard(key) + "/" + keys.Hash(key)
}

func check(ctx context.Context, key string) error {
	if err := store.ValidateKey(key); err != nil {
		return err
	}
	return ctx.Err()
}
