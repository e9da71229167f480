package cleanup

import (
	"context"
	"errors"
	"testing"
	"time"

	"linkcard/backend/internal/filestorage"
	"linkcard/backend/internal/models"
	"linkcard/backend/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cdn = "https://cdn.linkcard.test/media"

type failingRefs struct {
	*repository.MemoryUserRepository
}

func (failingRefs) ListMediaRefs(context.Context) ([]repository.MediaRef, error) {
	return nil, errors.New("db down")
}

type fixture struct {
	users   *repository.MemoryUserRepository
	tokens  *repository.MemoryResetTokenRepository
	storage *filestorage.MemoryProvider
	sweeper *Sweeper
	now     time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		users:   repository.NewMemoryUserRepository(),
		tokens:  repository.NewMemoryResetTokenRepository(),
		storage: filestorage.NewMemoryProvider(cdn),
		now:     time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	f.sweeper = &Sweeper{Users: f.users, Tokens: f.tokens, Storage: f.storage}
	return f
}

func (f *fixture) keys(t *testing.T) []string {
	t.Helper()
	objs, err := f.storage.ListObjects(context.Background())
	require.NoError(t, err)
	out := make([]string, 0, len(objs))
	for _, o := range objs {
		out = append(out, o.Key)
	}
	return out
}

func TestSweep_ReferencedObjectsSurviveAnyAge(t *testing.T) {
	f := newFixture(t)
	ancient := f.now.Add(-365 * 24 * time.Hour)
	f.storage.Put("avatars/1_a.webp", []byte("a"), ancient)
	f.storage.Put("backgrounds/1_b.png", []byte("b"), ancient)

	u := &models.User{Username: "alice", Email: "a@example.com", Avatar: cdn + "/avatars/1_a.webp"}
	u.Styles.Background = models.Background{Type: models.BackgroundImage, Value: models.BackgroundValue{Image: cdn + "/backgrounds/1_b.png"}}
	require.NoError(t, f.users.Create(context.Background(), u))

	report, err := f.sweeper.Sweep(context.Background(), f.now)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Referenced)
	assert.Equal(t, 0, report.Deleted)
	assert.ElementsMatch(t, []string{"avatars/1_a.webp", "backgrounds/1_b.png"}, f.keys(t))
}

func TestSweep_YoungOrphansSurvive(t *testing.T) {
	f := newFixture(t)
	f.storage.Put("avatars/2_young.webp", []byte("x"), f.now.Add(-23*time.Hour))

	report, err := f.sweeper.Sweep(context.Background(), f.now)
	require.NoError(t, err)
	assert.Equal(t, 1, report.TooRecent)
	assert.Equal(t, []string{"avatars/2_young.webp"}, f.keys(t))
}

func TestSweep_OldOrphansDeleted(t *testing.T) {
	f := newFixture(t)
	f.storage.Put("avatars/3_old.webp", []byte("x"), f.now.Add(-25*time.Hour))
	f.storage.Put("avatars/4_kept.webp", []byte("x"), f.now.Add(-25*time.Hour))

	u := &models.User{Username: "bob", Email: "b@example.com", Avatar: cdn + "/avatars/4_kept.webp"}
	require.NoError(t, f.users.Create(context.Background(), u))

	report, err := f.sweeper.Sweep(context.Background(), f.now)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Deleted)
	assert.Equal(t, []string{"avatars/4_kept.webp"}, f.keys(t))
}

func TestSweep_InactiveBackgroundImageSurvives(t *testing.T) {
	f := newFixture(t)
	f.storage.Put("backgrounds/7_prev.jpg", []byte("x"), f.now.Add(-48*time.Hour))

	// switched to a colour background; the image is kept for switching back
	u := &models.User{Username: "carol", Email: "c@example.com"}
	u.Styles.Background = models.Background{
		Type:  models.BackgroundColor,
		Value: models.BackgroundValue{Color: "#112233", Image: cdn + "/backgrounds/7_prev.jpg"},
	}
	require.NoError(t, f.users.Create(context.Background(), u))

	report, err := f.sweeper.Sweep(context.Background(), f.now)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Deleted)
	assert.Equal(t, 1, report.Referenced)
	assert.Equal(t, []string{"backgrounds/7_prev.jpg"}, f.keys(t))
}

func TestSweep_NothingDeletedWhenReferencesUnavailable(t *testing.T) {
	f := newFixture(t)
	f.storage.Put("avatars/5_old.webp", []byte("x"), f.now.Add(-48*time.Hour))
	f.sweeper.Users = failingRefs{f.users}

	_, err := f.sweeper.Sweep(context.Background(), f.now)
	assert.Error(t, err)
	assert.Equal(t, []string{"avatars/5_old.webp"}, f.keys(t))
}

func TestSweep_PurgesExpiredTokens(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.tokens.Create(ctx, &models.ResetToken{Token: "dead", ExpiresAt: f.now.Add(-time.Minute)}))
	require.NoError(t, f.tokens.Create(ctx, &models.ResetToken{Token: "live", ExpiresAt: f.now.Add(time.Hour)}))

	report, err := f.sweeper.Sweep(ctx, f.now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), report.ExpiredTokens)
	assert.Equal(t, 1, f.tokens.Len())
}

func TestSweep_CustomMinAge(t *testing.T) {
	f := newFixture(t)
	f.sweeper.MinAge = time.Hour
	f.storage.Put("avatars/6.webp", []byte("x"), f.now.Add(-2*time.Hour))

	report, err := f.sweeper.Sweep(context.Background(), f.now)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Deleted)
}

func TestRun_SweepsOnStartupAndStopsOnCancel(t *testing.T) {
	f := newFixture(t)
	f.sweeper.Now = func() time.Time { return f.now }
	f.storage.Put("avatars/7_old.webp", []byte("x"), f.now.Add(-48*time.Hour))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan error, 1)
	go func() { done <- f.sweeper.Run(ctx) }()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
	assert.Empty(t, f.keys(t))
}

func TestDefaults(t *testing.T) {
	s := &Sweeper{}
	assert.Equal(t, DefaultInterval, s.interval())
	assert.Equal(t, DefaultMinAge, s.minAge())
}
