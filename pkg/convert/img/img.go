package img

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"math"

	"github.com/sunshineplan/imgconv"
)

const jpegQuality = 85

// Downscale decodes any supported raster format, shrinks it so it fits in
// maxMPXS megapixels and re-encodes it as JPEG. Images already under the cap
// are re-encoded without resizing.
func Downscale(imageData []byte, maxMPXS float64) ([]byte, image.Point, error) {
	src, err := imgconv.Decode(bytes.NewReader(imageData))
	if err != nil {
		return nil, image.Point{}, fmt.Errorf("error decoding image: %v", err)
	}

	bounds := src.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	currentMPXS := float64(width*height) / 1000000.0

	out := src
	if maxMPXS > 0 && currentMPXS > maxMPXS {
		scale := math.Sqrt(maxMPXS / currentMPXS)
		newWidth := int(float64(width) * scale)
		if newWidth < 1 {
			newWidth = 1
		}
		out = imgconv.Resize(src, &imgconv.ResizeOption{Width: newWidth})
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, out, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, image.Point{}, fmt.Errorf("error encoding JPEG: %v", err)
	}

	size := out.Bounds().Size()
	return buf.Bytes(), size, nil
}
