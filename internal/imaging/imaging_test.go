package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func samplePNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 4), G: uint8(y * 4), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestWebP(t *testing.T) {
	out, err := Vips{}.WebP(samplePNG(t), 75)
	require.NoError(t, err)
	require.Greater(t, len(out), 12)
	assert.Equal(t, "RIFF", string(out[:4]))
	assert.Equal(t, "WEBP", string(out[8:12]))
}

func TestCompressKeepsFormat(t *testing.T) {
	src := samplePNG(t)
	out, err := Vips{}.Compress("a.png", src, Options{JPEGQuality: 80, Progressive: true, PNGCompression: 2, WebPQuality: 75})
	require.NoError(t, err)
	assert.Equal(t, "\x89PNG", string(out[:4]))
}

func TestCompressUnknownExtensionPassesThrough(t *testing.T) {
	src := []byte("not an image")
	out, err := Vips{}.Compress("a.gif", src, Options{})
	require.NoError(t, err)
	assert.Equal(t, src, out)
}

func TestDecodeError(t *testing.T) {
	_, err := Vips{}.WebP([]byte("garbage"), 75)
	assert.Error(t, err)
}
