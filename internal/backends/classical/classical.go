// Package classical implements interpolation-based upscaling. It has no
// external requirements and serves as the terminal fallback.
package classical

import (
	"context"
	"strings"

	"github.com/disintegration/imaging"

	"image-upscaler/internal/backends"
	"image-upscaler/internal/models"
)

var filters = map[string]imaging.ResampleFilter{
	"lanczos":    imaging.Lanczos,
	"catmullrom": imaging.CatmullRom,
	"linear":     imaging.Linear,
	"nearest":    imaging.NearestNeighbor,
}

// Interpolations lists the accepted interpolation names.
func Interpolations() []string {
	return []string{"lanczos", "catmullrom", "linear", "nearest"}
}

type Backend struct{}

func New() *Backend {
	return &Backend{}
}

func (b *Backend) Name() models.Capability {
	return models.ClassicalResample
}

func (b *Backend) ScaleRange() models.ScaleRange {
	return models.ScaleRange{Min: 0.1, Max: 16}
}

func (b *Backend) Upscale(ctx context.Context, img *models.Image, scale models.ScaleFactor, opts backends.Options) (*models.Image, error) {
	if err := backends.ValidateInput(img, scale); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	w, h := scale.TargetSize(img.Width, img.Height)
	return ResizeTo(img, w, h, opts.Interpolation)
}

// ResizeTo resamples img to exactly w x h. Other backends use it to correct
// outputs whose native scale differs from the requested one.
func ResizeTo(img *models.Image, w, h int, interpolation string) (*models.Image, error) {
	if img.Width == w && img.Height == h {
		return img.WithOrigin(models.OriginIntermediate), nil
	}

	filter, ok := filters[strings.ToLower(interpolation)]
	if !ok {
		filter = imaging.Lanczos
	}

	resized := imaging.Resize(img.Pixels, w, h, filter)
	out, err := models.DerivedImage(img, resized, models.OriginIntermediate)
	if err != nil {
		return nil, backends.Processing(models.ClassicalResample, "resize", err)
	}
	return out, nil
}
