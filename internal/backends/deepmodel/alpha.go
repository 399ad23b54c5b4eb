package deepmodel

import (
	"image"
	"image/draw"

	"image-upscaler/internal/backends/classical"
	"image-upscaler/internal/models"
)

// restoreAlpha copies a resampled alpha channel of src onto colour.
func restoreAlpha(src, colour *models.Image, interpolation string) (*models.Image, error) {
	alpha, err := classical.ResizeTo(src, colour.Width, colour.Height, interpolation)
	if err != nil {
		return nil, err
	}

	out := image.NewNRGBA(image.Rect(0, 0, colour.Width, colour.Height))
	draw.Draw(out, out.Bounds(), colour.Pixels, colour.Pixels.Bounds().Min, draw.Src)

	alphaBounds := alpha.Pixels.Bounds()
	for y := 0; y < colour.Height; y++ {
		for x := 0; x < colour.Width; x++ {
			_, _, _, a := alpha.Pixels.At(alphaBounds.Min.X+x, alphaBounds.Min.Y+y).RGBA()
			out.Pix[out.PixOffset(x, y)+3] = uint8(a >> 8)
		}
	}

	return models.DerivedImage(src, out, models.OriginIntermediate)
}
