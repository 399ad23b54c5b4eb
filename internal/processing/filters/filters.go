// Package filters implements the post-processing steps on top of gift.
package filters

import (
	"context"
	"image"
	"image/draw"

	"github.com/disintegration/gift"

	"image-upscaler/internal/logger"
	"image-upscaler/internal/models"
	"image-upscaler/internal/processing/chain"
)

// NewEnhancementChain builds the fixed denoise, sharpen, contrast,
// saturation sequence.
func NewEnhancementChain(log logger.Logger) *chain.ProcessingChain {
	return chain.NewProcessingChain(log,
		NewDenoiseFilter(),
		NewSharpenFilter(),
		NewContrastFilter(),
		NewSaturationFilter(),
	)
}

// DenoiseFilter applies a median filter.
type DenoiseFilter struct{}

func NewDenoiseFilter() *DenoiseFilter {
	return &DenoiseFilter{}
}

func (d *DenoiseFilter) Name() string {
	return "denoise"
}

func (d *DenoiseFilter) ShouldExecute(settings chain.Settings) bool {
	return settings.Denoise
}

func (d *DenoiseFilter) Apply(ctx context.Context, input *models.Image, settings chain.Settings) (*models.Image, error) {
	return apply(ctx, input, gift.Median(settings.DenoiseSize, false))
}

// SharpenFilter applies an unsharp mask whose amount grows with the factor.
type SharpenFilter struct{}

func NewSharpenFilter() *SharpenFilter {
	return &SharpenFilter{}
}

func (s *SharpenFilter) Name() string {
	return "sharpen"
}

func (s *SharpenFilter) ShouldExecute(settings chain.Settings) bool {
	return settings.Sharpen && settings.SharpenFactor > chain.MinSharpen
}

func (s *SharpenFilter) Apply(ctx context.Context, input *models.Image, settings chain.Settings) (*models.Image, error) {
	amount := float32((settings.SharpenFactor - 1) * 2)
	return apply(ctx, input, gift.UnsharpMask(1.0, amount, 0))
}

// ContrastFilter scales contrast; a factor of 1.05 is +5%.
type ContrastFilter struct{}

func NewContrastFilter() *ContrastFilter {
	return &ContrastFilter{}
}

func (c *ContrastFilter) Name() string {
	return "contrast"
}

func (c *ContrastFilter) ShouldExecute(settings chain.Settings) bool {
	return settings.Contrast && settings.ContrastFactor > chain.MinContrast
}

func (c *ContrastFilter) Apply(ctx context.Context, input *models.Image, settings chain.Settings) (*models.Image, error) {
	return apply(ctx, input, gift.Contrast(percent(settings.ContrastFactor)))
}

// SaturationFilter scales colour saturation. Gray images pass through.
type SaturationFilter struct{}

func NewSaturationFilter() *SaturationFilter {
	return &SaturationFilter{}
}

func (s *SaturationFilter) Name() string {
	return "saturation"
}

func (s *SaturationFilter) ShouldExecute(settings chain.Settings) bool {
	return settings.Saturation && settings.SaturationFactor > chain.MinSaturation
}

func (s *SaturationFilter) Apply(ctx context.Context, input *models.Image, settings chain.Settings) (*models.Image, error) {
	if input.Format == models.PixelFormatGray {
		return input, nil
	}
	return apply(ctx, input, gift.Saturation(percent(settings.SaturationFactor)))
}

func percent(factor float64) float32 {
	return float32((factor - 1) * 100)
}

// apply runs a gift filter into a fresh raster of the same pixel format.
func apply(ctx context.Context, input *models.Image, filter gift.Filter) (*models.Image, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	g := gift.New(filter)
	bounds := g.Bounds(input.Pixels.Bounds())

	var dst draw.Image
	if input.Format == models.PixelFormatGray {
		dst = image.NewGray(bounds)
	} else {
		dst = image.NewNRGBA(bounds)
	}
	g.Draw(dst, input.Pixels)

	return models.DerivedImage(input, dst, models.OriginIntermediate)
}
