//go:build !gocv

package deepmodel

import (
	"context"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"

	"image-upscaler/internal/backends"
	"image-upscaler/internal/backends/backendtest"
)

func TestStub_Unavailable(t *testing.T) {
	b := New(&fakeStore{canDownload: true}, DefaultCatalog(), nil)

	assert.ErrorIs(t, b.Probe(context.Background()), backends.ErrUnavailable)

	_, err := b.Upscale(context.Background(), backendtest.Solid(2, 2, color.White), 2, backends.DefaultOptions())
	assert.ErrorIs(t, err, backends.ErrUnavailable)
	assert.NoError(t, b.Close())
}
