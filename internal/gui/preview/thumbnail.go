// Package preview scales images down for on-screen display.
package preview

import (
	"fmt"
	"image"

	"github.com/nfnt/resize"
)

// DefaultMaxSide bounds both sides of a displayed preview.
const DefaultMaxSide = 1024

// Thumbnail returns img scaled to fit within maxSide x maxSide, keeping the
// aspect ratio. Images already small enough are returned unchanged.
func Thumbnail(img image.Image, maxSide uint) image.Image {
	if img == nil {
		return nil
	}
	if maxSide == 0 {
		maxSide = DefaultMaxSide
	}
	b := img.Bounds()
	if uint(b.Dx()) <= maxSide && uint(b.Dy()) <= maxSide {
		return img
	}
	return resize.Thumbnail(maxSide, maxSide, img, resize.Lanczos3)
}

// SizeText formats dimensions as shown next to the previews.
func SizeText(width, height int) string {
	if width <= 0 || height <= 0 {
		return "--"
	}
	return fmt.Sprintf("%d x %d px", width, height)
}

// PredictionText describes the output size of an upscale before it runs.
func PredictionText(width, height, outWidth, outHeight int) string {
	if width <= 0 || outWidth <= 0 {
		return "Output: --"
	}
	return fmt.Sprintf("Output: %s (from %s)", SizeText(outWidth, outHeight), SizeText(width, height))
}
