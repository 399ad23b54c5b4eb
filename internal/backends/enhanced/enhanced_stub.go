//go:build !gocv

package enhanced

import (
	"context"

	"image-upscaler/internal/backends"
	"image-upscaler/internal/models"
	"image-upscaler/internal/opencv/codec"
)

// Backend is a placeholder that always reports unavailable.
type Backend struct {
	params Params
}

func New(params Params) *Backend {
	return &Backend{params: params.withDefaults()}
}

func (b *Backend) Name() models.Capability {
	return models.BilateralCLAHE
}

func (b *Backend) ScaleRange() models.ScaleRange {
	return models.ScaleRange{Min: 1, Max: 4}
}

func (b *Backend) Probe(context.Context) error {
	return backends.Unavailable(models.BilateralCLAHE, "OpenCV support not compiled in", codec.ErrNoOpenCV)
}

func (b *Backend) Upscale(context.Context, *models.Image, models.ScaleFactor, backends.Options) (*models.Image, error) {
	return nil, backends.Unavailable(models.BilateralCLAHE, "OpenCV support not compiled in", codec.ErrNoOpenCV)
}
