package filters

import (
	"context"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"image-upscaler/internal/backends/backendtest"
	"image-upscaler/internal/logger"
	"image-upscaler/internal/models"
	"image-upscaler/internal/processing/chain"
)

func allOn() chain.Settings {
	s := chain.DefaultSettings()
	s.Denoise = true
	s.SharpenFactor = 1.4
	s.ContrastFactor = 1.2
	s.SaturationFactor = 1.2
	return s
}

func TestFilters_PreserveDimensionsAndFormat(t *testing.T) {
	gray, err := models.NewImage(image.NewGray(image.Rect(0, 0, 9, 5)), models.OriginIntermediate)
	require.NoError(t, err)

	inputs := map[string]*models.Image{
		"rgb":  backendtest.Gradient(9, 5),
		"rgba": backendtest.Solid(9, 5, color.NRGBA{R: 90, G: 40, B: 10, A: 100}),
		"gray": gray,
	}
	steps := []chain.ProcessingStep{NewDenoiseFilter(), NewSharpenFilter(), NewContrastFilter(), NewSaturationFilter()}

	for name, img := range inputs {
		for _, step := range steps {
			t.Run(name+"/"+step.Name(), func(t *testing.T) {
				out, err := step.Apply(context.Background(), img, allOn().Clamped())
				require.NoError(t, err)
				assert.Equal(t, img.Width, out.Width)
				assert.Equal(t, img.Height, out.Height)
				assert.Equal(t, img.Format, out.Format)
			})
		}
	}
}

func TestContrast_ChangesPixels(t *testing.T) {
	img := backendtest.Gradient(16, 16)
	out, err := NewContrastFilter().Apply(context.Background(), img, allOn())
	require.NoError(t, err)

	assert.NotEqual(t, img.Pixels.At(1, 1), out.Pixels.At(1, 1))
	assert.Equal(t, models.OriginUploaded, img.Origin, "input untouched")
}

func TestShouldExecute_UnityFactorsSkip(t *testing.T) {
	s := chain.DefaultSettings()
	s.SharpenFactor, s.ContrastFactor, s.SaturationFactor = 1, 1, 1

	assert.False(t, NewSharpenFilter().ShouldExecute(s))
	assert.False(t, NewContrastFilter().ShouldExecute(s))
	assert.False(t, NewSaturationFilter().ShouldExecute(s))
	assert.False(t, NewDenoiseFilter().ShouldExecute(s))
}

func TestApply_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewSharpenFilter().Apply(ctx, backendtest.Gradient(4, 4), allOn())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEnhancementChain(t *testing.T) {
	c := NewEnhancementChain(logger.Nop{})
	assert.Equal(t, []string{"denoise", "sharpen", "contrast", "saturation"}, c.GetStepNames())

	img := backendtest.Gradient(12, 8)
	out := c.Enhance(context.Background(), img, allOn())
	assert.Equal(t, 12, out.Width)
	assert.Equal(t, models.OriginFinal, out.Origin)

	assert.Same(t, img, c.Enhance(context.Background(), img, chain.Disabled()))
}
