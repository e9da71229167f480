package handlers

import (
	"errors"
	"net/http"

	"linkcard/backend/internal/auth"
	"linkcard/backend/internal/models"
	"linkcard/backend/internal/repository"
	applog "linkcard/backend/pkg/log"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// GetUserHandler returns the public profile for :username.
func (h *Handler) GetUserHandler(c *gin.Context) {
	log := applog.L.Named("GetUserHandler")
	user, err := h.Users.FindByUsername(c.Request.Context(), c.Param("username"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			respondError(c, http.StatusNotFound, "User not found")
			return
		}
		internalError(c, log, "Failed to load user", err)
		return
	}
	c.JSON(http.StatusOK, toProfile(user, false))
}

// GetCurrentUserHandler returns the authenticated user's own profile.
func (h *Handler) GetCurrentUserHandler(c *gin.Context) {
	log := applog.L.Named("GetCurrentUserHandler")
	userID, ok := auth.CurrentUserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "Authentication required")
		return
	}
	user, err := h.Users.FindByID(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			respondError(c, http.StatusNotFound, "User not found")
			return
		}
		internalError(c, log, "Failed to load current user", err)
		return
	}
	c.JSON(http.StatusOK, toProfile(user, true))
}

// loadOwnedTarget loads :username and checks the requester owns it.
// It writes the error response itself and returns nil on failure.
func (h *Handler) loadOwnedTarget(c *gin.Context, log *zap.Logger) *models.User {
	target, err := h.Users.FindByUsername(c.Request.Context(), c.Param("username"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			respondError(c, http.StatusNotFound, "User not found")
			return nil
		}
		internalError(c, log, "Failed to load user", err)
		return nil
	}

	// Both sides are parsed UUIDs, so encoding differences cannot cause a mismatch.
	requesterID, ok := auth.CurrentUserID(c)
	if !ok || requesterID != target.ID {
		respondError(c, http.StatusForbidden, "You can only modify your own profile")
		return nil
	}
	return target
}

// UpdateUserHandler applies a whitelisted partial update to the caller's profile.
func (h *Handler) UpdateUserHandler(c *gin.Context) {
	log := applog.L.Named("UpdateUserHandler")
	user := h.loadOwnedTarget(c, log)
	if user == nil {
		return
	}

	patch, err := DecodeProfilePatch(c.Request.Body)
	if err != nil {
		log.Debug("Rejected profile patch", zap.Error(err))
		respondError(c, http.StatusBadRequest, patchErrorMessage(err))
		return
	}
	if err := patch.Validate(); err != nil {
		respondError(c, http.StatusBadRequest, patchErrorMessage(err))
		return
	}

	ctx := c.Request.Context()
	oldUsername, oldEmail := user.Username, user.Email
	patch.Apply(user)

	if user.Username != oldUsername {
		if _, err := h.Users.FindByUsername(ctx, user.Username); err == nil {
			respondError(c, http.StatusConflict, "Username already taken")
			return
		} else if !errors.Is(err, repository.ErrNotFound) {
			internalError(c, log, "Failed to check username", err)
			return
		}
	}
	if user.Email != oldEmail {
		if _, err := h.Users.FindByEmail(ctx, user.Email); err == nil {
			respondError(c, http.StatusConflict, "Email already in use")
			return
		} else if !errors.Is(err, repository.ErrNotFound) {
			internalError(c, log, "Failed to check email", err)
			return
		}
	}

	if err := h.Users.Save(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			respondError(c, http.StatusConflict, "Username or email already in use")
			return
		}
		internalError(c, log, "Failed to save user", err)
		return
	}

	log.Info("Profile updated", zap.String("userID", user.ID.String()))
	c.JSON(http.StatusOK, toProfile(user, true))
}

// DeleteUserHandler removes the caller's account and ends the session.
// Media left behind is collected by the cleanup job.
func (h *Handler) DeleteUserHandler(c *gin.Context) {
	log := applog.L.Named("DeleteUserHandler")
	user := h.loadOwnedTarget(c, log)
	if user == nil {
		return
	}

	if err := h.Users.Delete(c.Request.Context(), user.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			respondError(c, http.StatusNotFound, "User not found")
			return
		}
		internalError(c, log, "Failed to delete user", err)
		return
	}

	clearAuthCookie(c)
	log.Info("User deleted", zap.String("userID", user.ID.String()))
	c.JSON(http.StatusOK, gin.H{"message": "User deleted successfully"})
}
