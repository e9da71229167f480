package filestorage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"linkcard/backend/pkg/config"
	applog "linkcard/backend/pkg/log"

	"cloud.google.com/go/storage"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"
)

// GCSStorageProvider implements FileStorageProvider using Google Cloud Storage.
// Credentials come from GOOGLE_APPLICATION_CREDENTIALS or workload identity.
type GCSStorageProvider struct {
	client     *storage.Client
	bucketName string
	baseURL    string
}

func InitializeGCSProvider(ctx context.Context) (*GCSStorageProvider, error) {
	bucketName := config.Cfg.StorageBucket
	if bucketName == "" {
		return nil, fmt.Errorf("STORAGE_BUCKET not set: %w", ErrNotConfigured)
	}

	client, err := storage.NewClient(ctx)
	if err != nil {
		applog.L.Error("Failed to create Google Cloud Storage client. Ensure GOOGLE_APPLICATION_CREDENTIALS is set correctly.", zap.Error(err))
		return nil, fmt.Errorf("failed to create Google Cloud Storage client: %w", err)
	}

	applog.L.Info("Google Cloud Storage provider initialized",
		zap.String("projectID", config.Cfg.GCSProjectID),
		zap.String("bucketName", bucketName))

	return &GCSStorageProvider{
		client:     client,
		bucketName: bucketName,
		baseURL:    publicBase(config.Cfg.StoragePublicURL, "https://storage.googleapis.com/"+bucketName),
	}, nil
}

func (g *GCSStorageProvider) UploadFile(ctx context.Context, key string, content io.Reader, contentType string) (string, error) {
	wc := g.client.Bucket(g.bucketName).Object(key).NewWriter(ctx)
	wc.ContentType = contentType

	if _, err := io.Copy(wc, content); err != nil {
		_ = wc.Close()
		return "", fmt.Errorf("failed to copy file content to GCS object writer: %w", err)
	}
	if err := wc.Close(); err != nil {
		return "", fmt.Errorf("failed to close GCS object writer: %w", err)
	}
	return g.PublicURL(key), nil
}

func (g *GCSStorageProvider) Exists(ctx context.Context, key string) (bool, error) {
	_, err := g.client.Bucket(g.bucketName).Object(key).Attrs(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("stat GCS object %s: %w", key, err)
	}
	return true, nil
}

func (g *GCSStorageProvider) ListObjects(ctx context.Context) ([]Object, error) {
	var objects []Object
	it := g.client.Bucket(g.bucketName).Objects(ctx, nil)
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list GCS bucket %s: %w", g.bucketName, err)
		}
		objects = append(objects, Object{Key: attrs.Name, LastModified: attrs.Updated})
	}
	return objects, nil
}

func (g *GCSStorageProvider) DeleteFile(ctx context.Context, key string) error {
	if key == "" {
		return fmt.Errorf("object key cannot be empty for DeleteFile")
	}
	err := g.client.Bucket(g.bucketName).Object(key).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("failed to delete object '%s' from GCS bucket '%s': %w", key, g.bucketName, err)
	}
	return nil
}

func (g *GCSStorageProvider) PublicURL(key string) string {
	return g.baseURL + key
}

// BucketExists reports whether the configured bucket is reachable.
func (g *GCSStorageProvider) BucketExists(ctx context.Context) error {
	if _, err := g.client.Bucket(g.bucketName).Attrs(ctx); err != nil {
		return fmt.Errorf("bucket %s not reachable: %w", g.bucketName, err)
	}
	return nil
}
