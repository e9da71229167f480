package filestorage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"linkcard/backend/pkg/config"
	applog "linkcard/backend/pkg/log"

	"go.uber.org/zap"
)

// Object describes a stored object as seen by a bucket listing.
type Object struct {
	Key          string
	LastModified time.Time
}

// FileStorageProvider defines the object storage operations used by the
// upload pipeline and the cleanup job.
type FileStorageProvider interface {
	// UploadFile stores content under key and returns its public URL.
	UploadFile(ctx context.Context, key string, content io.Reader, contentType string) (string, error)
	Exists(ctx context.Context, key string) (bool, error)
	ListObjects(ctx context.Context) ([]Object, error)
	// DeleteFile removes key. Deleting a missing object is not an error.
	DeleteFile(ctx context.Context, key string) error
	// PublicURL returns the URL under which key is served.
	PublicURL(key string) string
}

var ErrNotConfigured = errors.New("file storage provider not configured")

// DefaultFileStorageProvider holds the provider built by InitFileStorage.
var DefaultFileStorageProvider FileStorageProvider

// InitFileStorage builds the provider selected by STORAGE_PROVIDER.
// Unlike optional integrations, storage is required: an error aborts startup.
func InitFileStorage(ctx context.Context) (FileStorageProvider, error) {
	providerType := strings.ToLower(config.Cfg.StorageProvider)
	applog.L.Info("Initializing file storage", zap.String("provider_type", providerType))

	var (
		provider FileStorageProvider
		err      error
	)
	switch providerType {
	case "", "s3":
		provider, err = InitializeS3Provider(ctx)
	case "gcs":
		provider, err = InitializeGCSProvider(ctx)
	default:
		return nil, fmt.Errorf("unsupported STORAGE_PROVIDER %q", providerType)
	}
	if err != nil {
		return nil, err
	}

	DefaultFileStorageProvider = provider
	applog.L.Info("File storage provider initialized successfully.",
		zap.String("provider_type", providerType),
		zap.String("bucket", config.Cfg.StorageBucket))
	return provider, nil
}

// KeyFromURL maps a public URL produced by p back to its object key.
// ok is false for URLs that do not belong to the provider's bucket.
func KeyFromURL(p FileStorageProvider, url string) (key string, ok bool) {
	if url == "" {
		return "", false
	}
	base := p.PublicURL("")
	if !strings.HasPrefix(url, base) {
		return "", false
	}
	key = strings.TrimPrefix(url, base)
	if i := strings.IndexAny(key, "?#"); i >= 0 {
		key = key[:i]
	}
	return key, key != ""
}

func publicBase(override, fallback string) string {
	base := fallback
	if override != "" {
		base = override
	}
	return strings.TrimRight(base, "/") + "/"
}
