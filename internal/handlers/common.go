package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"linkcard/backend/internal/auth"
	"linkcard/backend/internal/filestorage"
	"linkcard/backend/internal/models"
	"linkcard/backend/internal/notifications"
	"linkcard/backend/internal/repository"
	"linkcard/backend/pkg/config"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const internalErrorMessage = "Internal server error"

// Handler carries the dependencies shared by every HTTP handler.
type Handler struct {
	Users   repository.UserRepository
	Tokens  repository.ResetTokenRepository
	Storage filestorage.FileStorageProvider
	Mailer  notifications.EmailNotifier

	// Pinger backs the health check; nil means always healthy.
	Pinger func() error
	Now    func() time.Time
}

func NewHandler(users repository.UserRepository, tokens repository.ResetTokenRepository,
	storage filestorage.FileStorageProvider, mailer notifications.EmailNotifier) *Handler {
	return &Handler{
		Users:   users,
		Tokens:  tokens,
		Storage: storage,
		Mailer:  mailer,
		Now:     time.Now,
	}
}

func (h *Handler) now() time.Time {
	if h.Now == nil {
		return time.Now()
	}
	return h.Now()
}

// Profile is the public representation of a user.
type Profile struct {
	ID        string        `json:"id,omitempty"`
	Username  string        `json:"username"`
	Email     string        `json:"email"`
	Avatar    string        `json:"avatar"`
	Bio       string        `json:"bio"`
	Links     []models.Link `json:"links"`
	Styles    models.Styles `json:"styles"`
	CreatedAt *time.Time    `json:"createdAt,omitempty"`
}

func toProfile(u *models.User, withID bool) Profile {
	p := Profile{
		Username: u.Username,
		Email:    u.Email,
		Avatar:   u.Avatar,
		Bio:      u.Bio,
		Links:    u.Links,
		Styles:   u.Styles,
	}
	if p.Links == nil {
		p.Links = []models.Link{}
	}
	if withID {
		p.ID = u.ID.String()
		created := u.CreatedAt
		p.CreatedAt = &created
	}
	return p
}

func respondError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"message": message})
}

// internalError logs err and answers with the generic 500 body.
func internalError(c *gin.Context, log *zap.Logger, msg string, err error) {
	log.Error(msg, zap.Error(err), zap.String("path", c.Request.URL.Path))
	_ = c.Error(err)
	respondError(c, http.StatusInternalServerError, internalErrorMessage)
}

// passwordMessage turns a password policy error into client text.
func passwordMessage(err error) string {
	switch {
	case errors.Is(err, auth.ErrPasswordTooShort):
		return fmt.Sprintf("Password must be at least %d characters", auth.MinPasswordLength)
	case errors.Is(err, auth.ErrPasswordTooLong):
		return fmt.Sprintf("Password must be at most %d characters", auth.MaxPasswordLength)
	default:
		return "Password is too weak"
	}
}

func sameSite() http.SameSite {
	switch strings.ToLower(config.Cfg.CookieSameSite) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}

func setAuthCookie(c *gin.Context, token string) {
	c.SetSameSite(sameSite())
	c.SetCookie(auth.CookieName, token, int(auth.TokenLifespan().Seconds()), "/", "", config.Cfg.CookieSecure, true)
}

func clearAuthCookie(c *gin.Context) {
	c.SetSameSite(sameSite())
	c.SetCookie(auth.CookieName, "", -1, "/", "", config.Cfg.CookieSecure, true)
}

// AuthResponse is returned by register and login. Token is only present for
// clients whose Origin is not an allowed browser origin (e.g. the mobile app).
type AuthResponse struct {
	Message string  `json:"message"`
	User    Profile `json:"user"`
	Token   string  `json:"token,omitempty"`
}

// issueSession signs a token for user and delivers it as a cookie to allowed
// browser origins, or in the response body otherwise.
func issueSession(c *gin.Context, log *zap.Logger, status int, message string, user *models.User) {
	token, err := auth.GenerateToken(user)
	if err != nil {
		internalError(c, log, "Failed to generate token", err)
		return
	}

	resp := AuthResponse{Message: message, User: toProfile(user, true)}
	if config.Cfg.IsAllowedOrigin(c.GetHeader("Origin")) {
		setAuthCookie(c, token)
	} else {
		resp.Token = token
	}
	c.JSON(status, resp)
}
