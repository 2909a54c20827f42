package engine

import (
	"bytes"
	"image"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))))
	return buf.Bytes()
}

func TestDownscaleWideImage(t *testing.T) {
	data := encodePNG(t, 4000, 1000)
	out := Downscale(data)

	cfg, format, err := image.DecodeConfig(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, 1920, cfg.Width)
	assert.Equal(t, 480, cfg.Height)
}

func TestDownscaleLeavesNarrowImageAlone(t *testing.T) {
	data := encodePNG(t, 800, 600)
	assert.Equal(t, data, Downscale(data))
}

func TestDownscaleFallsBackOnGarbage(t *testing.T) {
	data := []byte("definitely not an image")
	assert.Equal(t, data, Downscale(data), "undecodable input passes through unchanged")
}
