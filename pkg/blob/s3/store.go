// Package s3 provides an S3-backed blob store.
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/marmos91/cask/pkg/blob"
	"github.com/marmos91/cask/pkg/bufpool"
)

// Store keeps one object per blob id under a key prefix.
type Store struct {
	client    *s3.Client
	bucket    string
	keyPrefix string
	closed    bool
	mu        sync.RWMutex
}

var _ blob.Store = (*Store)(nil)

// New creates a store with an existing client.
func New(client *s3.Client, cfg blob.S3Config) *Store {
	return &Store{
		client:    client,
		bucket:    cfg.Bucket,
		keyPrefix: cfg.Prefix,
	}
}

// NewFromConfig builds an S3 client from cfg and the AWS default chain.
func NewFromConfig(ctx context.Context, cfg blob.S3Config) (*Store, error) {
	var opts []func(*awsconfig.LoadOptions) error

	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.ForcePathStyle
	})

	return New(client, cfg), nil
}

func (s *Store) fullKey(id string) string {
	return s.keyPrefix + id
}

func (s *Store) checkOpen() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return blob.ErrClosed
	}
	return nil
}

// Put buffers the content so the request body is seekable and carries a
// content length; uploads are bounded by the server's size limit.
func (s *Store) Put(ctx context.Context, id string, r io.Reader) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	if err := blob.ValidateID(id); err != nil {
		return err
	}

	var buf bytes.Buffer
	if _, err := bufpool.CopyLarge(&buf, r); err != nil {
		return fmt.Errorf("read blob content: %w", err)
	}

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(s.fullKey(id)),
		Body:          bytes.NewReader(buf.Bytes()),
		ContentLength: aws.Int64(int64(buf.Len())),
		ContentType:   aws.String("application/octet-stream"),
	})
	if err != nil {
		return fmt.Errorf("s3 put object: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, id string) (io.ReadCloser, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	if err := blob.ValidateID(id); err != nil {
		return nil, err
	}

	resp, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.fullKey(id)),
	})
	if err != nil {
		if isNotFoundError(err) {
			return nil, blob.ErrNotFound
		}
		return nil, fmt.Errorf("s3 get object: %w", err)
	}
	return resp.Body, nil
}

// Delete succeeds for missing keys; S3 DeleteObject is idempotent.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	if err := blob.ValidateID(id); err != nil {
		return err
	}

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.fullKey(id)),
	})
	if err != nil && !isNotFoundError(err) {
		return fmt.Errorf("s3 delete object: %w", err)
	}
	return nil
}

// HealthCheck verifies the bucket is reachable with a HeadBucket call.
func (s *Store) HealthCheck(ctx context.Context) error {
	if err := s.checkOpen(); err != nil {
		return err
	}

	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(s.bucket),
	})
	if err != nil {
		return fmt.Errorf("S3 health check failed: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func isNotFoundError(err error) bool {
	if err == nil {
		return false
	}

	var noKey *types.NoSuchKey
	if errors.As(err, &noKey) {
		return true
	}
	var notFound *types.NotFound
	if errors.As(err, &notFound) {
		return true
	}

	errStr := err.Error()
	return strings.Contains(errStr, "NoSuchKey") ||
		strings.Contains(errStr, "NotFound") ||
		strings.Contains(errStr, "StatusCode: 404")
}

var _ blob.Store = (*Store)(nil)
