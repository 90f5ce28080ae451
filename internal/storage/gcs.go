package storage

import (
	"context"
	"fmt"

	"cloud.google.com/go/storage"
	"go.uber.org/zap"
)

// GCSProvider uploads artifacts to a Google Cloud Storage bucket.
// Authentication comes from Application Default Credentials.
type GCSProvider struct {
	Client     *storage.Client
	BucketName string
	Logger     *zap.Logger
}

// NewGCSProvider creates the client and fails fast when the bucket is not
// reachable.
func NewGCSProvider(ctx context.Context, bucketName string, logger *zap.Logger) (*GCSProvider, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("storage: create gcs client: %w", err)
	}
	if _, err := client.Bucket(bucketName).Attrs(ctx); err != nil {
		if cerr := client.Close(); cerr != nil {
			logger.Warn("gcs client close failed", zap.Error(cerr))
		}
		return nil, fmt.Errorf("storage: bucket %s attrs: %w", bucketName, err)
	}
	return &GCSProvider{Client: client, BucketName: bucketName, Logger: logger}, nil
}

// Save uploads data to the object; Close finalizes the upload.
func (g *GCSProvider) Save(ctx context.Context, objectName string, data []byte) error {
	wc := g.Client.Bucket(g.BucketName).Object(objectName).NewWriter(ctx)
	if _, err := wc.Write(data); err != nil {
		if cerr := wc.Close(); cerr != nil {
			g.Logger.Warn("gcs writer close failed after write error", zap.Error(cerr))
		}
		return objectError(objectName, err)
	}
	if err := wc.Close(); err != nil {
		return objectError(objectName, err)
	}
	return nil
}
