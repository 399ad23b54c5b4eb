//go:build !gocv

package deepmodel

import (
	"context"

	"image-upscaler/internal/backends"
	"image-upscaler/internal/logger"
	"image-upscaler/internal/models"
	"image-upscaler/internal/opencv/codec"
)

// Backend is a placeholder that always reports unavailable.
type Backend struct {
	store   WeightStore
	catalog []Model
}

func New(store WeightStore, catalog []Model, _ logger.Logger) *Backend {
	return &Backend{store: store, catalog: catalog}
}

func (b *Backend) Name() models.Capability {
	return models.DeepModel
}

func (b *Backend) ScaleRange() models.ScaleRange {
	return models.ScaleRange{Min: 1, Max: 4}
}

func (b *Backend) Probe(context.Context) error {
	return backends.Unavailable(models.DeepModel, "OpenCV DNN support not compiled in", codec.ErrNoOpenCV)
}

func (b *Backend) Upscale(context.Context, *models.Image, models.ScaleFactor, backends.Options) (*models.Image, error) {
	return nil, backends.Unavailable(models.DeepModel, "OpenCV DNN support not compiled in", codec.ErrNoOpenCV)
}

func (b *Backend) Close() error { return nil }
