package faqsource

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioFetcher reads CSV objects from any S3-compatible store (S3, R2, MinIO).
type MinioFetcher struct {
	client *minio.Client
	logger *slog.Logger
}

// NewMinioFetcher constructs the fetcher.
func NewMinioFetcher(endpoint, accessKey, secretKey, region string, logger *slog.Logger) (*MinioFetcher, error) {
	cleanEndpoint := sanitizeEndpoint(endpoint)
	if cleanEndpoint == "" {
		return nil, fmt.Errorf("object storage endpoint cannot be empty")
	}
	useSSL := strings.HasPrefix(strings.ToLower(strings.TrimSpace(endpoint)), "https")
	client, err := minio.New(cleanEndpoint, &minio.Options{
		Creds:        credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure:       useSSL,
		Region:       region,
		BucketLookup: minio.BucketLookupPath,
	})
	if err != nil {
		return nil, fmt.Errorf("init object storage client: %w", err)
	}
	return &MinioFetcher{client: client, logger: logger.With("component", "faqsource.minio")}, nil
}

// Fetch implements ObjectFetcher.
func (f *MinioFetcher) Fetch(ctx context.Context, bucket, key string) ([]byte, error) {
	obj, err := f.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	defer obj.Close()
	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, err
	}
	f.logger.Info("object fetched", "bucket", bucket, "key", key, "bytes", len(data))
	return data, nil
}

// sanitizeEndpoint removes schemes and paths to satisfy minio.New expectations.
func sanitizeEndpoint(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return raw
	}
	raw = strings.TrimPrefix(strings.TrimPrefix(raw, "https://"), "http://")
	if strings.Contains(raw, "/") {
		parts := strings.Split(raw, "/")
		raw = parts[0]
	}
	return raw
}

var _ ObjectFetcher = (*MinioFetcher)(nil)
