// Package blob talks to the external object store that holds attachment
// content. The core only ever removes objects by reference.
package blob

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Remover deletes a stored object by its file path.
type Remover interface {
	Remove(ctx context.Context, filePath string) error
}

// Config selects the object store endpoint.
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
}

// MinioStore removes attachment objects from an S3-compatible bucket.
type MinioStore struct {
	client *minio.Client
	bucket string
}

func NewMinioStore(cfg Config) (*MinioStore, error) {
	if cfg.Endpoint == "" || cfg.Bucket == "" {
		return nil, fmt.Errorf("blob: endpoint and bucket are required")
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("blob: %w", err)
	}
	return &MinioStore{client: client, bucket: cfg.Bucket}, nil
}

func (s *MinioStore) Remove(ctx context.Context, filePath string) error {
	key := strings.TrimPrefix(filePath, "/")
	if key == "" {
		return nil
	}
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("blob: remove %s/%s: %w", s.bucket, key, err)
	}
	return nil
}

// Noop logs and succeeds. It is used when no object store is configured.
type Noop struct{}

func (Noop) Remove(_ context.Context, filePath string) error {
	log.Printf("blob: no object store configured, leaving %s", filePath)
	return nil
}
