package filestorage

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	applog "linkcard/backend/pkg/log"

	"go.uber.org/zap"
)

const (
	MaxKeyRetries = 5
	maxBaseLength = 20
)

var unsafeKeyChars = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// GenerateUniqueKey builds "<folder>/<unixmillis>_<base>.<ext>" and checks it
// against the provider. On collision it appends a random "_<6 hex>" suffix and
// retries up to MaxKeyRetries times; after that the last candidate is returned
// even if it still collides.
func GenerateUniqueKey(ctx context.Context, p FileStorageProvider, folder, originalName, ext string, now time.Time) string {
	stem := fmt.Sprintf("%s/%d_%s", folder, now.UnixMilli(), sanitizeBase(originalName))
	ext = strings.TrimPrefix(ext, ".")

	key := stem + "." + ext
	for attempt := 0; attempt < MaxKeyRetries; attempt++ {
		exists, err := p.Exists(ctx, key)
		if err != nil {
			applog.L.Warn("Could not check object key, using it as is", zap.String("key", key), zap.Error(err))
			return key
		}
		if !exists {
			return key
		}
		key = fmt.Sprintf("%s_%s.%s", stem, randomSuffix(), ext)
	}
	applog.L.Warn("Unique key retries exhausted", zap.String("key", key))
	return key
}

func sanitizeBase(name string) string {
	base := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	base = unsafeKeyChars.ReplaceAllString(base, "_")
	base = strings.Trim(base, "_")
	if base == "" {
		base = "file"
	}
	if len(base) > maxBaseLength {
		base = base[:maxBaseLength]
	}
	return base
}

func randomSuffix() string {
	b := make([]byte, 3)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("%06x", time.Now().UnixNano()&0xffffff)
	}
	return hex.EncodeToString(b)
}
