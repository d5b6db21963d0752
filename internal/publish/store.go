package publish

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/conneroisu/assetforge/internal/config"
	"github.com/conneroisu/assetforge/internal/validation"
)

// Store is the object storage the build tree is published to.
type Store interface {
	// Objects returns the ETag of every object under prefix, keyed by
	// object key.
	Objects(ctx context.Context, prefix string) (map[string]string, error)
	Put(ctx context.Context, key string, data []byte, contentType string) error
}

// S3Store publishes to an S3-compatible bucket through minio-go.
type S3Store struct {
	client   *minio.Client
	bucket   string
	region   string
	initOnce sync.Once
	initErr  error
}

// NewS3Store validates cfg and creates the client. No request is made
// until the first call.
func NewS3Store(cfg config.PublishConfig) (*S3Store, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("publish endpoint is required")
	}
	if err := validation.ValidateEndpoint(endpoint); err != nil {
		return nil, fmt.Errorf("publish endpoint: %w", err)
	}
	access := strings.TrimSpace(cfg.AccessKey)
	secret := strings.TrimSpace(cfg.SecretKey)
	if access == "" || secret == "" {
		return nil, fmt.Errorf("publish access key and secret key are required")
	}
	bucket := strings.TrimSpace(cfg.Bucket)
	if bucket == "" {
		return nil, fmt.Errorf("publish bucket is required")
	}
	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = "us-east-1"
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(access, secret, ""),
		Secure: cfg.UseSSL,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("init s3 client: %w", err)
	}

	return &S3Store{client: client, bucket: bucket, region: region}, nil
}

// ensureBucket creates the bucket on first use when it is missing.
func (s *S3Store) ensureBucket(ctx context.Context) error {
	s.initOnce.Do(func() {
		exists, err := s.client.BucketExists(ctx, s.bucket)
		if err != nil {
			s.initErr = err
			return
		}
		if exists {
			return
		}
		s.initErr = s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: s.region})
	})
	return s.initErr
}

func (s *S3Store) Objects(ctx context.Context, prefix string) (map[string]string, error) {
	if err := s.ensureBucket(ctx); err != nil {
		return nil, fmt.Errorf("ensure bucket: %w", err)
	}

	objects := make(map[string]string)
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, obj.Err
		}
		if obj.Key == "" {
			continue
		}
		objects[obj.Key] = strings.Trim(obj.ETag, `"`)
	}
	return objects, nil
}

func (s *S3Store) Put(ctx context.Context, key string, data []byte, contentType string) error {
	if err := s.ensureBucket(ctx); err != nil {
		return fmt.Errorf("ensure bucket: %w", err)
	}
	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType:  contentType,
		CacheControl: cacheControl(key),
	})
	return err
}
