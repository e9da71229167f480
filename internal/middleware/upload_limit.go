package middleware

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
)

const (
	MaxUploadBytes    = 10 << 20
	MaxGIFUploadBytes = 5 << 20
	UploadFormField   = "file"

	// room for multipart boundaries and part headers on top of the file itself
	multipartOverhead = 64 << 10

	uploadFileKey = "upload.file"
	uploadMIMEKey = "upload.mime"
)

// AllowedImageTypes is the upload MIME allow-list.
var AllowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
	"image/gif":  true,
}

// UploadLimit parses the single multipart file part and enforces the upload
// rules before any handler or auth check runs: oversized bodies and GIFs over
// MaxGIFUploadBytes get 413, a missing part or a type outside AllowedImageTypes
// (sniffed from content, not trusted from headers) gets 400.
func UploadLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxUploadBytes+multipartOverhead)

		fh, err := c.FormFile(UploadFormField)
		if err != nil {
			if isBodyTooLarge(err) {
				c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{"message": "File too large (max 10 MB)"})
				return
			}
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "No file uploaded"})
			return
		}
		if fh.Size > MaxUploadBytes {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{"message": "File too large (max 10 MB)"})
			return
		}

		mime, err := sniff(fh)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Could not read uploaded file"})
			return
		}
		if !AllowedImageTypes[mime] {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Invalid file type. Only JPEG, PNG, WebP and GIF are allowed"})
			return
		}
		if mime == "image/gif" && fh.Size > MaxGIFUploadBytes {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{"message": "GIF too large (max 5 MB)"})
			return
		}

		c.Set(uploadFileKey, fh)
		c.Set(uploadMIMEKey, mime)
		c.Next()
	}
}

func isBodyTooLarge(err error) bool {
	var tooLarge *http.MaxBytesError
	return errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large")
}

func sniff(fh *multipart.FileHeader) (string, error) {
	f, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer f.Close()
	mt, err := mimetype.DetectReader(f)
	if err != nil {
		return "", err
	}
	return mt.String(), nil
}

// UploadedFile returns the file part and sniffed MIME type validated by UploadLimit.
func UploadedFile(c *gin.Context) (*multipart.FileHeader, string, bool) {
	v, ok := c.Get(uploadFileKey)
	if !ok {
		return nil, "", false
	}
	fh, ok := v.(*multipart.FileHeader)
	if !ok {
		return nil, "", false
	}
	return fh, c.GetString(uploadMIMEKey), true
}
