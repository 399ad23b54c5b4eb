package classical

import (
	"context"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"image-upscaler/internal/backends"
	"image-upscaler/internal/backends/backendtest"
	"image-upscaler/internal/models"
)

func TestUpscale_Dimensions(t *testing.T) {
	b := New()
	img := backendtest.Gradient(50, 30)

	tests := []struct {
		scale models.ScaleFactor
		w, h  int
	}{
		{2, 100, 60},
		{1.5, 75, 45},
		{4, 200, 120},
		{1, 50, 30},
		{2.5, 125, 75},
	}

	for _, tt := range tests {
		t.Run(tt.scale.String(), func(t *testing.T) {
			out, err := b.Upscale(context.Background(), img, tt.scale, backends.DefaultOptions())
			require.NoError(t, err)
			assert.Equal(t, tt.w, out.Width)
			assert.Equal(t, tt.h, out.Height)
			assert.Equal(t, tt.w, out.Pixels.Bounds().Dx())
			assert.Equal(t, models.OriginIntermediate, out.Origin)
		})
	}
}

func TestUpscale_InputUntouched(t *testing.T) {
	img := backendtest.Solid(8, 8, color.NRGBA{R: 10, G: 20, B: 30, A: 255})
	before := img.Pixels.At(3, 3)

	_, err := New().Upscale(context.Background(), img, 3, backends.DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, before, img.Pixels.At(3, 3))
	assert.Equal(t, models.OriginUploaded, img.Origin)
}

func TestUpscale_Deterministic(t *testing.T) {
	b := New()
	img := backendtest.Gradient(20, 20)

	first, err := b.Upscale(context.Background(), img, 2, backends.DefaultOptions())
	require.NoError(t, err)
	second, err := b.Upscale(context.Background(), img, 2, backends.DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, first.Pixels, second.Pixels)
}

func TestUpscale_InvalidInput(t *testing.T) {
	b := New()

	_, err := b.Upscale(context.Background(), nil, 2, backends.DefaultOptions())
	assert.ErrorIs(t, err, backends.ErrInvalidInput)

	_, err = b.Upscale(context.Background(), backendtest.Solid(2, 2, color.Black), 0, backends.DefaultOptions())
	assert.ErrorIs(t, err, backends.ErrInvalidInput)
}

func TestUpscale_InterpolationNames(t *testing.T) {
	img := backendtest.Gradient(10, 10)
	for _, name := range append(Interpolations(), "unknown", "") {
		out, err := New().Upscale(context.Background(), img, 2, backends.Options{Interpolation: name})
		require.NoError(t, err, name)
		assert.Equal(t, 20, out.Width, name)
	}
}

func TestResizeTo_SameSizeSharesPixels(t *testing.T) {
	img := backendtest.Gradient(10, 10)
	out, err := ResizeTo(img, 10, 10, "lanczos")
	require.NoError(t, err)
	assert.Equal(t, img.Pixels, out.Pixels)
	assert.Equal(t, models.OriginIntermediate, out.Origin)
}
