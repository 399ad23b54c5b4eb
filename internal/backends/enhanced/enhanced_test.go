//go:build gocv

package enhanced

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

func TestUpscale_Formats(t *testing.T) {
	b := New(DefaultParams())
	require.NoError(t, b.Probe(context.Background()))

	tests := []struct {
		name string
		img  *models.Image
	}{
		{"rgb", backendtest.Gradient(40, 30)},
		{"rgba", backendtest.Solid(40, 30, color.NRGBA{R: 10, G: 200, B: 90, A: 128})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := b.Upscale(context.Background(), tt.img, 2, backends.DefaultOptions())
			require.NoError(t, err)
			assert.Equal(t, 80, out.Width)
			assert.Equal(t, 60, out.Height)
			assert.Equal(t, tt.img.Format, out.Format)
		})
	}
}

func TestUpscale_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(DefaultParams()).Upscale(ctx, backendtest.Gradient(10, 10), 2, backends.DefaultOptions())
	assert.ErrorIs(t, err, context.Canceled)
}
