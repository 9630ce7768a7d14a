package storage

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioConfig encapsulates the connection info for MinIO / S3-compatible storage.
type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
}

// MinioClient implements ObjectStorage on top of minio-go.
type MinioClient struct {
	client *minio.Client
	bucket string
	region string
}

// NewMinioClient builds a client for cfg. No request is made until the first operation.
func NewMinioClient(cfg MinioConfig) (*MinioClient, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("minio endpoint must be provided")
	}
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("minio credentials must be provided")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("minio bucket must be provided")
	}

	// minio-go wants host[:port]; a scheme on the endpoint decides TLS
	host := strings.TrimPrefix(cfg.Endpoint, "//")
	secure := cfg.UseSSL
	if strings.Contains(host, "://") {
		u, err := url.Parse(host)
		if err != nil {
			return nil, fmt.Errorf("invalid minio endpoint %q: %w", cfg.Endpoint, err)
		}
		host = u.Host
		secure = u.Scheme == "https"
	}

	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = "us-east-1"
	}

	client, err := minio.New(host, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: secure,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client init failed: %w", err)
	}

	return &MinioClient{
		client: client,
		bucket: cfg.Bucket,
		region: region,
	}, nil
}

// EnsureBucket creates the bucket if it does not exist yet.
func (c *MinioClient) EnsureBucket(ctx context.Context) error {
	exists, err := c.client.BucketExists(ctx, c.bucket)
	if err != nil {
		return fmt.Errorf("minio bucket check failed: %w", err)
	}
	if exists {
		return nil
	}
	if err := c.client.MakeBucket(ctx, c.bucket, minio.MakeBucketOptions{Region: c.region}); err != nil {
		return fmt.Errorf("minio create bucket %s failed: %w", c.bucket, err)
	}
	return nil
}

// PresignPut returns a presigned PUT URL for key.
func (c *MinioClient) PresignPut(ctx context.Context, key string, expiry time.Duration) (string, error) {
	u, err := c.client.PresignedPutObject(ctx, c.bucket, key, expiry)
	if err != nil {
		return "", fmt.Errorf("minio presign %s failed: %w", key, err)
	}
	return u.String(), nil
}

// PutObject stores data under key.
func (c *MinioClient) PutObject(ctx context.Context, key string, data []byte, contentType string) (ObjectInfo, error) {
	info, err := c.client.PutObject(ctx, c.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return ObjectInfo{}, fmt.Errorf("minio put %s failed: %w", key, err)
	}
	return ObjectInfo{
		Bucket: info.Bucket,
		Key:    info.Key,
		Size:   info.Size,
	}, nil
}

// ObjectURL returns the path-style URL of key.
func (c *MinioClient) ObjectURL(key string) string {
	return c.client.EndpointURL().JoinPath(c.bucket, key).String()
}

func (c *MinioClient) Bucket() string {
	return c.bucket
}

var _ ObjectStorage = (*MinioClient)(nil)
