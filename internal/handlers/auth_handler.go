package handlers

import (
	"errors"
	"net/http"
	"regexp"
	"strings"

	"linkcard/backend/internal/auth"
	"linkcard/backend/internal/models"
	"linkcard/backend/internal/repository"
	applog "linkcard/backend/pkg/log"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]{3,30}$`)

// reservedUsernames are shadowed by static routes under /user.
var reservedUsernames = map[string]bool{"profile": true, "qr": true}

// ValidateUsername checks the username format and rejects reserved names.
func ValidateUsername(name string) error {
	if !usernamePattern.MatchString(name) {
		return invalidf("Username must be 3-30 characters of letters, digits or underscores")
	}
	if reservedUsernames[strings.ToLower(name)] {
		return invalidf("Username %q is reserved", name)
	}
	return nil
}

type RegisterPayload struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type LoginPayload struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// RegisterHandler creates an account and starts a session for it.
func (h *Handler) RegisterHandler(c *gin.Context) {
	log := applog.L.Named("RegisterHandler")
	var payload RegisterPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	payload.Username = strings.TrimSpace(payload.Username)
	payload.Email = normalizeEmail(payload.Email)

	if err := ValidateUsername(payload.Username); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	if err := auth.ValidatePasswordStrength(payload.Password, payload.Username, payload.Email); err != nil {
		respondError(c, http.StatusBadRequest, passwordMessage(err))
		return
	}

	ctx := c.Request.Context()
	if _, err := h.Users.FindByEmail(ctx, payload.Email); err == nil {
		respondError(c, http.StatusConflict, "Email already in use")
		return
	} else if !errors.Is(err, repository.ErrNotFound) {
		internalError(c, log, "Failed to look up email", err)
		return
	}
	if _, err := h.Users.FindByUsername(ctx, payload.Username); err == nil {
		respondError(c, http.StatusConflict, "Username already taken")
		return
	} else if !errors.Is(err, repository.ErrNotFound) {
		internalError(c, log, "Failed to look up username", err)
		return
	}

	hash, err := auth.HashPassword(payload.Password)
	if err != nil {
		internalError(c, log, "Failed to hash password", err)
		return
	}

	user := &models.User{
		Username: payload.Username,
		Email:    payload.Email,
		Password: hash,
		Links:    []models.Link{},
	}
	if err := h.Users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			respondError(c, http.StatusConflict, "Username or email already in use")
			return
		}
		internalError(c, log, "Failed to create user", err)
		return
	}

	log.Info("User registered", zap.String("userID", user.ID.String()), zap.String("username", user.Username))
	issueSession(c, log, http.StatusCreated, "User registered successfully", user)
}

// LoginHandler authenticates by email and password. Unknown email and wrong
// password produce the same response.
func (h *Handler) LoginHandler(c *gin.Context) {
	log := applog.L.Named("LoginHandler")
	var payload LoginPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}

	user, err := h.Users.FindByEmail(c.Request.Context(), normalizeEmail(payload.Email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			respondError(c, http.StatusUnauthorized, "Invalid email or password")
			return
		}
		internalError(c, log, "Failed to look up user", err)
		return
	}
	if !auth.CheckPassword(user.Password, payload.Password) {
		respondError(c, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	issueSession(c, log, http.StatusOK, "Login successful", user)
}

// LogoutHandler clears the session cookie. Bearer clients just drop their token.
func (h *Handler) LogoutHandler(c *gin.Context) {
	clearAuthCookie(c)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}
