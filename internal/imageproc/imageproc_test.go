package imageproc

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"strings"
	"testing"

	"github.com/chai2010/webp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solid(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: 200, G: 40, B: 90, A: 255})
		}
	}
	return img
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, solid(w, h)))
	return buf.Bytes()
}

func jpegBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, solid(w, h), nil))
	return buf.Bytes()
}

func TestProcessAvatar(t *testing.T) {
	res, err := ProcessAvatar(bytes.NewReader(pngBytes(t, 640, 480)))
	require.NoError(t, err)
	assert.Equal(t, "image/webp", res.ContentType)
	assert.Equal(t, "webp", res.Ext)

	cfg, err := webp.DecodeConfig(bytes.NewReader(res.Data))
	require.NoError(t, err)
	assert.Equal(t, AvatarSize, cfg.Width)
	assert.Equal(t, AvatarSize, cfg.Height)
}

func TestProcessAvatar_SmallSourceIsScaledUp(t *testing.T) {
	res, err := ProcessAvatar(bytes.NewReader(jpegBytes(t, 32, 64)))
	require.NoError(t, err)
	cfg, err := webp.DecodeConfig(bytes.NewReader(res.Data))
	require.NoError(t, err)
	assert.Equal(t, AvatarSize, cfg.Width)
}

func TestProcessBackground_ShrinksWidePNG(t *testing.T) {
	res, err := ProcessBackground(bytes.NewReader(pngBytes(t, 3840, 1000)), "image/png")
	require.NoError(t, err)
	assert.Equal(t, "image/png", res.ContentType)

	cfg, err := png.DecodeConfig(bytes.NewReader(res.Data))
	require.NoError(t, err)
	assert.Equal(t, BackgroundMaxWidth, cfg.Width)
	assert.Equal(t, 500, cfg.Height)
}

func TestProcessBackground_NoUpscaleJPEG(t *testing.T) {
	res, err := ProcessBackground(bytes.NewReader(jpegBytes(t, 800, 600)), "image/jpeg")
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", res.ContentType)
	assert.Equal(t, "jpg", res.Ext)

	cfg, err := jpeg.DecodeConfig(bytes.NewReader(res.Data))
	require.NoError(t, err)
	assert.Equal(t, 800, cfg.Width)
	assert.Equal(t, 600, cfg.Height)
}

func TestProcessBackground_WebPSourceBecomesJPEG(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, webp.Encode(&buf, solid(100, 50), &webp.Options{Quality: 90}))

	res, err := ProcessBackground(bytes.NewReader(buf.Bytes()), "image/webp")
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", res.ContentType)
}

func TestProcess_Undecodable(t *testing.T) {
	_, err := ProcessAvatar(strings.NewReader("definitely not an image"))
	assert.ErrorIs(t, err, ErrUndecodable)
	_, err = ProcessBackground(strings.NewReader("nope"), "image/png")
	assert.ErrorIs(t, err, ErrUndecodable)
}

// inflatedPNG returns a tiny PNG whose header claims w x h pixels.
func inflatedPNG(t *testing.T, w, h uint32) []byte {
	t.Helper()
	b := pngBytes(t, 4, 4)
	// IHDR data starts after the 8 byte signature, 4 byte length and 4 byte type.
	binary.BigEndian.PutUint32(b[16:20], w)
	binary.BigEndian.PutUint32(b[20:24], h)
	binary.BigEndian.PutUint32(b[29:33], crc32.ChecksumIEEE(b[12:29]))
	return b
}

func TestProcess_RejectsOversizedDimensions(t *testing.T) {
	huge := inflatedPNG(t, 30000, 30000)

	cfg, err := png.DecodeConfig(bytes.NewReader(huge))
	require.NoError(t, err, "header must still parse")
	require.Equal(t, 30000, cfg.Width)

	_, err = ProcessAvatar(bytes.NewReader(huge))
	assert.ErrorIs(t, err, ErrUndecodable)
	_, err = ProcessBackground(bytes.NewReader(huge), "image/png")
	assert.ErrorIs(t, err, ErrUndecodable)
}
