package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"linkcard/backend/internal/repository"
	"linkcard/backend/pkg/config"
	applog "linkcard/backend/pkg/log"

	"github.com/gin-gonic/gin"
	"github.com/skip2/go-qrcode"
)

const (
	DefaultQRSize = 256
	MinQRSize     = 128
	MaxQRSize     = 1024
)

// ProfileURL is the public page a profile QR code points at.
func ProfileURL(frontendURL, username string) string {
	return fmt.Sprintf("%s/%s", strings.TrimRight(frontendURL, "/"), username)
}

// GetUserQRCodeHandler renders a PNG QR code linking to the public profile of :username.
func (h *Handler) GetUserQRCodeHandler(c *gin.Context) {
	log := applog.L.Named("GetUserQRCodeHandler")

	size := DefaultQRSize
	if raw := c.Query("size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < MinQRSize || n > MaxQRSize {
			respondError(c, http.StatusBadRequest, fmt.Sprintf("size must be an integer between %d and %d", MinQRSize, MaxQRSize))
			return
		}
		size = n
	}

	user, err := h.Users.FindByUsername(c.Request.Context(), c.Param("username"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			respondError(c, http.StatusNotFound, "User not found")
			return
		}
		internalError(c, log, "Failed to load user", err)
		return
	}

	png, err := qrcode.Encode(ProfileURL(config.Cfg.FrontendURL, user.Username), qrcode.Medium, size)
	if err != nil {
		internalError(c, log, "Failed to render QR code", err)
		return
	}
	c.Header("Cache-Control", "public, max-age=3600")
	c.Data(http.StatusOK, "image/png", png)
}
