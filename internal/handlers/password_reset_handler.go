package handlers

import (
	"errors"
	"net/http"

	"linkcard/backend/internal/auth"
	"linkcard/backend/internal/models"
	"linkcard/backend/internal/notifications"
	"linkcard/backend/internal/repository"
	"linkcard/backend/pkg/config"
	applog "linkcard/backend/pkg/log"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ForgotPasswordPayload struct {
	Email string `json:"email" binding:"required,email"`
}

type ResetPasswordPayload struct {
	Password string `json:"password" binding:"required"`
}

// ForgotPasswordHandler issues a one-hour reset token and emails the reset link.
func (h *Handler) ForgotPasswordHandler(c *gin.Context) {
	log := applog.L.Named("ForgotPasswordHandler")
	var payload ForgotPasswordPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request payload")
		return
	}

	ctx := c.Request.Context()
	user, err := h.Users.FindByEmail(ctx, normalizeEmail(payload.Email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			respondError(c, http.StatusNotFound, "User not found")
			return
		}
		internalError(c, log, "Failed to look up user", err)
		return
	}

	token, err := auth.GenerateResetToken()
	if err != nil {
		internalError(c, log, "Failed to generate password reset token", err)
		return
	}
	resetToken := &models.ResetToken{Token: token, UserID: user.ID}
	if err := h.Tokens.Create(ctx, resetToken); err != nil {
		internalError(c, log, "Failed to save password reset token", err)
		return
	}

	link := notifications.ResetLink(config.Cfg.FrontendURL, token)
	if err := notifications.SendPasswordReset(ctx, h.Mailer, user.Email, user.Username, link); err != nil {
		// Drop the token if the email never went out.
		if delErr := h.Tokens.Delete(ctx, resetToken.ID); delErr != nil {
			log.Warn("Failed to delete unsent reset token", zap.Error(delErr))
		}
		internalError(c, log, "Failed to send password reset email", err)
		return
	}

	log.Info("Password reset email sent", zap.String("userID", user.ID.String()))
	c.JSON(http.StatusOK, gin.H{"message": "Password reset email sent"})
}

// ResetPasswordHandler consumes a reset token and sets the new password.
func (h *Handler) ResetPasswordHandler(c *gin.Context) {
	log := applog.L.Named("ResetPasswordHandler")
	var payload ResetPasswordPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if err := auth.ValidatePasswordStrength(payload.Password); err != nil {
		respondError(c, http.StatusBadRequest, passwordMessage(err))
		return
	}

	ctx := c.Request.Context()
	resetToken, err := h.Tokens.FindValid(ctx, c.Param("token"), h.now())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			respondError(c, http.StatusBadRequest, "Invalid or expired token")
			return
		}
		internalError(c, log, "Failed to look up reset token", err)
		return
	}

	user, err := h.Users.FindByID(ctx, resetToken.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			_ = h.Tokens.Delete(ctx, resetToken.ID)
			respondError(c, http.StatusBadRequest, "Invalid or expired token")
			return
		}
		internalError(c, log, "Failed to load user for reset", err)
		return
	}

	if auth.CheckPassword(user.Password, payload.Password) {
		respondError(c, http.StatusBadRequest, "New password must be different from the current password")
		return
	}

	hash, err := auth.HashPassword(payload.Password)
	if err != nil {
		internalError(c, log, "Failed to hash new password", err)
		return
	}
	if err := h.Users.UpdatePassword(ctx, user.ID, hash); err != nil {
		internalError(c, log, "Failed to update password", err)
		return
	}
	if err := h.Tokens.Delete(ctx, resetToken.ID); err != nil {
		log.Warn("Failed to delete used reset token", zap.Error(err), zap.String("tokenID", resetToken.ID.String()))
	}

	log.Info("Password reset completed", zap.String("userID", user.ID.String()))
	c.JSON(http.StatusOK, gin.H{"message": "Password has been reset successfully"})
}
