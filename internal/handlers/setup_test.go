package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"linkcard/backend/internal/auth"
	"linkcard/backend/internal/filestorage"
	"linkcard/backend/internal/middleware"
	"linkcard/backend/internal/models"
	"linkcard/backend/internal/repository"
	"linkcard/backend/pkg/config"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const (
	testOrigin   = "http://localhost:3000"
	testPassword = "Sunflower-Meadow-42"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	if err := auth.InitializeJWT("handler_test_secret_key", 0); err != nil {
		log.Fatalf("Failed to initialize JWT for handler testing: %v", err)
	}
	if err := auth.SetSaltRounds(bcrypt.MinCost); err != nil {
		log.Fatalf("Failed to set salt rounds: %v", err)
	}
	config.Cfg.AllowedOrigins = []string{testOrigin}
	config.Cfg.FrontendURL = "https://linkcard.test"
	os.Exit(m.Run())
}

type sentEmail struct {
	To, Subject, HTML, Text string
}

type recordingMailer struct {
	mu   sync.Mutex
	sent []sentEmail
	err  error
}

func (r *recordingMailer) SendEmail(_ context.Context, to, subject, bodyHTML, bodyText string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, sentEmail{to, subject, bodyHTML, bodyText})
	return nil
}

type testEnv struct {
	h       *Handler
	users   *repository.MemoryUserRepository
	tokens  *repository.MemoryResetTokenRepository
	storage *filestorage.MemoryProvider
	mailer  *recordingMailer
	router  *gin.Engine
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		users:   repository.NewMemoryUserRepository(),
		tokens:  repository.NewMemoryResetTokenRepository(),
		storage: filestorage.NewMemoryProvider("https://cdn.linkcard.test/media"),
		mailer:  &recordingMailer{},
	}
	env.h = NewHandler(env.users, env.tokens, env.storage, env.mailer)

	r := gin.New()
	r.POST("/register", env.h.RegisterHandler)
	r.POST("/login", env.h.LoginHandler)
	r.POST("/logout", env.h.LogoutHandler)
	r.POST("/password/forgot", env.h.ForgotPasswordHandler)
	r.POST("/password/reset/:token", env.h.ResetPasswordHandler)
	r.GET("/user/profile", auth.AuthMiddleware(), env.h.GetCurrentUserHandler)
	r.GET("/user/:username", env.h.GetUserHandler)
	r.GET("/user/:username/qr", env.h.GetUserQRCodeHandler)
	r.PATCH("/user/:username", auth.AuthMiddleware(), env.h.UpdateUserHandler)
	r.DELETE("/user/:username", auth.AuthMiddleware(), env.h.DeleteUserHandler)
	r.POST("/upload-avatar", middleware.UploadLimit(), auth.AuthMiddleware(), env.h.UploadAvatarHandler)
	r.POST("/upload-background", middleware.UploadLimit(), auth.AuthMiddleware(), env.h.UploadBackgroundHandler)
	r.GET("/healthcheck", env.h.HealthCheckHandler)
	env.router = r
	return env
}

func (env *testEnv) createUser(t *testing.T, username, email string) *models.User {
	t.Helper()
	hash, err := auth.HashPassword(testPassword)
	require.NoError(t, err)
	u := &models.User{Username: username, Email: email, Password: hash}
	require.NoError(t, env.users.Create(context.Background(), u))
	return u
}

func tokenFor(t *testing.T, u *models.User) string {
	t.Helper()
	token, err := auth.GenerateToken(u)
	require.NoError(t, err)
	return token
}

type reqOpt func(*http.Request)

func withBearer(token string) reqOpt {
	return func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) }
}

func withOrigin(origin string) reqOpt {
	return func(r *http.Request) { r.Header.Set("Origin", origin) }
}

func (env *testEnv) do(t *testing.T, method, path string, body interface{}, opts ...reqOpt) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for _, o := range opts {
		o(req)
	}
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func findCookie(w *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

var errBoom = errors.New("boom")

func fixedNow(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
