package objectstore

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/zerolog"
)

// MinioConfig holds the connection settings for the MinIO-compatible store.
type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// MinioGateway implements Gateway on top of a MinIO-compatible object store.
type MinioGateway struct {
	client *minio.Client
	bucket string
	logger zerolog.Logger
}

// NewMinioGateway creates a gateway from explicit configuration. It does not
// touch the network; call EnsureBucket during startup to verify reachability.
func NewMinioGateway(cfg MinioConfig, logger zerolog.Logger) (*MinioGateway, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	return &MinioGateway{
		client: client,
		bucket: cfg.Bucket,
		logger: logger,
	}, nil
}

// EnsureBucket verifies the configured bucket exists, creating it if needed.
func (g *MinioGateway) EnsureBucket(ctx context.Context) error {
	exists, err := g.client.BucketExists(ctx, g.bucket)
	if err != nil {
		return fmt.Errorf("failed to check if bucket exists: %w", err)
	}
	if !exists {
		if err := g.client.MakeBucket(ctx, g.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
		g.logger.Info().Str("bucket", g.bucket).Msg("Created storage bucket")
	}
	return nil
}

// Put streams size bytes from r into the store under path.
func (g *MinioGateway) Put(ctx context.Context, path string, r io.Reader, size int64, contentType string) error {
	_, err := g.client.PutObject(ctx, g.bucket, path, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("failed to write object %s: %w", path, err)
	}
	return nil
}

// PresignGet returns a time-limited capability URL for reading path.
func (g *MinioGateway) PresignGet(ctx context.Context, path string, ttl time.Duration) (string, error) {
	u, err := g.client.PresignedGetObject(ctx, g.bucket, path, ttl, nil)
	if err != nil {
		return "", fmt.Errorf("failed to presign object %s: %w", path, err)
	}
	return u.String(), nil
}

// Remove deletes the object at path.
func (g *MinioGateway) Remove(ctx context.Context, path string) error {
	if err := g.client.RemoveObject(ctx, g.bucket, path, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to remove object %s: %w", path, err)
	}
	return nil
}
