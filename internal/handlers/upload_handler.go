package handlers

import (
	"bytes"
	"errors"
	"net/http"

	"linkcard/backend/internal/auth"
	"linkcard/backend/internal/filestorage"
	"linkcard/backend/internal/imageproc"
	"linkcard/backend/internal/middleware"
	"linkcard/backend/internal/models"
	"linkcard/backend/internal/repository"
	applog "linkcard/backend/pkg/log"
	appmetrics "linkcard/backend/pkg/metrics"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type mediaKind string

const (
	mediaAvatar     mediaKind = "avatar"
	mediaBackground mediaKind = "background"
)

func (k mediaKind) folder() string {
	if k == mediaAvatar {
		return "avatars"
	}
	return "backgrounds"
}

// UploadAvatarHandler stores a square WebP avatar and sets it on the caller's profile.
func (h *Handler) UploadAvatarHandler(c *gin.Context) {
	h.uploadMedia(c, mediaAvatar)
}

// UploadBackgroundHandler stores a background image and switches the caller's
// background to it.
func (h *Handler) UploadBackgroundHandler(c *gin.Context) {
	h.uploadMedia(c, mediaBackground)
}

func (h *Handler) uploadMedia(c *gin.Context, kind mediaKind) {
	log := applog.L.Named("UploadHandler").With(zap.String("kind", string(kind)))
	result := "error"
	defer func() { appmetrics.UploadCounter.WithLabelValues(string(kind), result).Inc() }()

	userID, ok := auth.CurrentUserID(c)
	if !ok {
		result = "rejected"
		respondError(c, http.StatusUnauthorized, "Authentication required")
		return
	}
	fh, mime, ok := middleware.UploadedFile(c)
	if !ok {
		result = "rejected"
		respondError(c, http.StatusBadRequest, "No file uploaded")
		return
	}

	src, err := fh.Open()
	if err != nil {
		internalError(c, log, "Failed to open uploaded file", err)
		return
	}
	defer src.Close()

	var processed *imageproc.Result
	if kind == mediaAvatar {
		processed, err = imageproc.ProcessAvatar(src)
	} else {
		processed, err = imageproc.ProcessBackground(src, mime)
	}
	if err != nil {
		if errors.Is(err, imageproc.ErrUndecodable) {
			result = "rejected"
			respondError(c, http.StatusBadRequest, "Could not process image")
			return
		}
		internalError(c, log, "Failed to process image", err)
		return
	}

	ctx := c.Request.Context()
	user, err := h.Users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			result = "rejected"
			respondError(c, http.StatusNotFound, "User not found")
			return
		}
		internalError(c, log, "Failed to load user", err)
		return
	}

	key := filestorage.GenerateUniqueKey(ctx, h.Storage, kind.folder(), fh.Filename, processed.Ext, h.now())
	url, err := h.Storage.UploadFile(ctx, key, bytes.NewReader(processed.Data), processed.ContentType)
	if err != nil {
		internalError(c, log, "Failed to upload file to storage", err)
		return
	}

	// The previous object becomes unreferenced here; the cleanup job reclaims it.
	if kind == mediaAvatar {
		user.Avatar = url
	} else {
		user.Styles.Background.Type = models.BackgroundImage
		user.Styles.Background.Value.Image = url
	}
	if err := h.Users.Save(ctx, user); err != nil {
		internalError(c, log, "Failed to save uploaded media on user", err)
		return
	}

	result = "success"
	log.Info("Media uploaded", zap.String("userID", userID.String()), zap.String("key", key), zap.Int("bytes", len(processed.Data)))
	c.JSON(http.StatusOK, gin.H{"url": url})
}
