// Package cleanup removes stored media that no profile references any more.
package cleanup

import (
	"context"
	"errors"
	"fmt"
	"time"

	"linkcard/backend/internal/filestorage"
	"linkcard/backend/internal/repository"
	applog "linkcard/backend/pkg/log"
	appmetrics "linkcard/backend/pkg/metrics"

	"go.uber.org/zap"
)

const (
	DefaultInterval = 12 * time.Hour
	DefaultMinAge   = 24 * time.Hour
)

// Sweeper deletes objects that are both unreferenced and older than MinAge,
// and purges expired password reset tokens.
type Sweeper struct {
	Users    repository.UserRepository
	Tokens   repository.ResetTokenRepository
	Storage  filestorage.FileStorageProvider
	Interval time.Duration
	MinAge   time.Duration
	Now      func() time.Time
}

// Report summarises one sweep.
type Report struct {
	Listed        int
	Referenced    int
	TooRecent     int
	Deleted       int
	Failed        int
	ExpiredTokens int64
}

func (s *Sweeper) interval() time.Duration {
	if s.Interval <= 0 {
		return DefaultInterval
	}
	return s.Interval
}

func (s *Sweeper) minAge() time.Duration {
	if s.MinAge <= 0 {
		return DefaultMinAge
	}
	return s.MinAge
}

func (s *Sweeper) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

// referencedKeys collects every object key used as an avatar or background image.
func (s *Sweeper) referencedKeys(ctx context.Context) (map[string]struct{}, error) {
	refs, err := s.Users.ListMediaRefs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list media references: %w", err)
	}
	keys := make(map[string]struct{}, len(refs)*2)
	for _, ref := range refs {
		for _, url := range []string{ref.Avatar, ref.BackgroundImage} {
			if key, ok := filestorage.KeyFromURL(s.Storage, url); ok {
				keys[key] = struct{}{}
			}
		}
	}
	return keys, nil
}

// Sweep runs a single pass. If references or the bucket listing cannot be
// loaded nothing is deleted.
func (s *Sweeper) Sweep(ctx context.Context, now time.Time) (Report, error) {
	log := applog.L.Named("CleanupSweep")
	var report Report

	referenced, err := s.referencedKeys(ctx)
	if err != nil {
		return report, err
	}
	objects, err := s.Storage.ListObjects(ctx)
	if err != nil {
		return report, fmt.Errorf("list objects: %w", err)
	}
	report.Listed = len(objects)

	cutoff := now.Add(-s.minAge())
	var errs []error
	for _, obj := range objects {
		if _, ok := referenced[obj.Key]; ok {
			report.Referenced++
			continue
		}
		if obj.LastModified.After(cutoff) {
			report.TooRecent++
			continue
		}
		if err := s.Storage.DeleteFile(ctx, obj.Key); err != nil {
			report.Failed++
			log.Warn("Failed to delete orphaned object", zap.String("key", obj.Key), zap.Error(err))
			continue
		}
		report.Deleted++
		log.Debug("Deleted orphaned object", zap.String("key", obj.Key), zap.Time("lastModified", obj.LastModified))
	}

	if s.Tokens != nil {
		n, err := s.Tokens.DeleteExpired(ctx, now)
		if err != nil {
			errs = append(errs, fmt.Errorf("purge expired reset tokens: %w", err))
		}
		report.ExpiredTokens = n
	}

	appmetrics.CleanupObjects.WithLabelValues("deleted").Add(float64(report.Deleted))
	appmetrics.CleanupObjects.WithLabelValues("referenced").Add(float64(report.Referenced))
	appmetrics.CleanupObjects.WithLabelValues("too_recent").Add(float64(report.TooRecent))
	appmetrics.CleanupObjects.WithLabelValues("failed").Add(float64(report.Failed))

	if report.Failed > 0 {
		errs = append(errs, fmt.Errorf("%d objects could not be deleted", report.Failed))
	}
	return report, errors.Join(errs...)
}

// Run sweeps once immediately and then on every tick until ctx is cancelled.
// Sweeps execute on the calling goroutine, so a slow sweep delays the next
// tick rather than overlapping it.
func (s *Sweeper) Run(ctx context.Context) error {
	log := applog.L.Named("CleanupJob")
	log.Info("Cleanup job started", zap.Duration("interval", s.interval()), zap.Duration("minAge", s.minAge()))

	s.runOnce(ctx, log)

	ticker := time.NewTicker(s.interval())
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Info("Cleanup job stopped")
			return nil
		case <-ticker.C:
			s.runOnce(ctx, log)
		}
	}
}

func (s *Sweeper) runOnce(ctx context.Context, log *zap.Logger) {
	start := time.Now()
	report, err := s.Sweep(ctx, s.now())
	fields := []zap.Field{
		zap.Int("listed", report.Listed),
		zap.Int("referenced", report.Referenced),
		zap.Int("tooRecent", report.TooRecent),
		zap.Int("deleted", report.Deleted),
		zap.Int("failed", report.Failed),
		zap.Int64("expiredTokens", report.ExpiredTokens),
		zap.Duration("took", time.Since(start)),
	}
	if err != nil {
		appmetrics.CleanupRuns.WithLabelValues("error").Inc()
		log.Error("Cleanup sweep finished with errors", append(fields, zap.Error(err))...)
		return
	}
	appmetrics.CleanupRuns.WithLabelValues("success").Inc()
	log.Info("Cleanup sweep finished", fields...)
}
