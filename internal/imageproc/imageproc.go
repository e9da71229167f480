// Package imageproc resizes and re-encodes uploaded images before they are stored.
package imageproc

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"io"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
)

const (
	AvatarSize         = 256
	AvatarQuality      = 80
	BackgroundMaxWidth = 1920
	BackgroundQuality  = 85

	// MaxPixels bounds width*height, checked from the header before decoding.
	MaxPixels = 50_000_000
)

var ErrUndecodable = errors.New("image could not be decoded")

// Result is an encoded image ready for upload.
type Result struct {
	Data        []byte
	ContentType string
	Ext         string
}

func decode(r io.Reader) (image.Image, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUndecodable, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > MaxPixels {
		return nil, fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrUndecodable, cfg.Width, cfg.Height, MaxPixels)
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUndecodable, err)
	}
	return img, nil
}

// ProcessAvatar crops the image to a centred AvatarSize square and encodes it as WebP.
func ProcessAvatar(r io.Reader) (*Result, error) {
	img, err := decode(r)
	if err != nil {
		return nil, err
	}
	img = imaging.Fill(img, AvatarSize, AvatarSize, imaging.Center, imaging.Lanczos)

	var buf bytes.Buffer
	if err := webp.Encode(&buf, img, &webp.Options{Quality: AvatarQuality}); err != nil {
		return nil, fmt.Errorf("encode avatar: %w", err)
	}
	return &Result{Data: buf.Bytes(), ContentType: "image/webp", Ext: "webp"}, nil
}

// ProcessBackground shrinks the image to BackgroundMaxWidth (never upscaling).
// PNG and GIF sources are encoded as PNG to keep transparency, everything else as JPEG.
func ProcessBackground(r io.Reader, sourceMIME string) (*Result, error) {
	img, err := decode(r)
	if err != nil {
		return nil, err
	}
	if img.Bounds().Dx() > BackgroundMaxWidth {
		img = imaging.Resize(img, BackgroundMaxWidth, 0, imaging.Lanczos)
	}

	var buf bytes.Buffer
	switch sourceMIME {
	case "image/png", "image/gif":
		if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
			return nil, fmt.Errorf("encode background: %w", err)
		}
		return &Result{Data: buf.Bytes(), ContentType: "image/png", Ext: "png"}, nil
	default:
		if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(BackgroundQuality)); err != nil {
			return nil, fmt.Errorf("encode background: %w", err)
		}
		return &Result{Data: buf.Bytes(), ContentType: "image/jpeg", Ext: "jpg"}, nil
	}
}
