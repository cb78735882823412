package img

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	src := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x += 7 {
		src.Set(x, x%h, color.RGBA{R: 200, G: 40, B: 40, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, src))
	return buf.Bytes()
}

func TestDownscaleShrinksLargeImages(t *testing.T) {
	out, size, err := Downscale(encodePNG(t, 2000, 1000), 0.5)
	require.NoError(t, err)
	assert.LessOrEqual(t, size.X*size.Y, 510000)
	assert.Equal(t, 2, size.X/size.Y)

	_, format, err := image.DecodeConfig(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
}

func TestDownscaleKeepsSmallImages(t *testing.T) {
	_, size, err := Downscale(encodePNG(t, 300, 200), 2)
	require.NoError(t, err)
	assert.Equal(t, image.Point{X: 300, Y: 200}, size)
}

func TestDownscaleRejectsGarbage(t *testing.T) {
	_, _, err := Downscale([]byte("not an image"), 1)
	assert.Error(t, err)
}
