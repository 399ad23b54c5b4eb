package backends_test

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"image-upscaler/internal/backends"
	"image-upscaler/internal/backends/backendtest"
	"image-upscaler/internal/models"
)

func TestErrorTaxonomy(t *testing.T) {
	cause := errors.New("cause")

	unavailable := backends.Unavailable(models.DeepModel, "no weights", cause)
	assert.ErrorIs(t, unavailable, backends.ErrUnavailable)
	assert.ErrorIs(t, unavailable, cause)
	assert.Contains(t, unavailable.Error(), "deep_model unavailable: no weights")

	var pe *backends.ProcessingError
	wrapped := fmt.Errorf("outer: %w", backends.Processing(models.BilateralCLAHE, "clahe", cause))
	require.ErrorAs(t, wrapped, &pe)
	assert.Equal(t, models.BilateralCLAHE, pe.Backend)
	assert.NotErrorIs(t, wrapped, backends.ErrUnavailable)

	var ne *backends.NetworkError
	require.ErrorAs(t, backends.Network(models.RemoteAPI, 503, cause), &ne)
	assert.Equal(t, 503, ne.StatusCode)
	assert.Contains(t, ne.Error(), "status 503")
}

func TestAllBackendsFailedError_UnwrapsLast(t *testing.T) {
	last := backends.Network(models.RemoteAPI, 0, context.DeadlineExceeded)
	err := &backends.AllBackendsFailedError{
		Attempted: []models.Capability{models.DeepModel, models.RemoteAPI},
		Last:      last,
	}

	var ne *backends.NetworkError
	assert.ErrorAs(t, err, &ne)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Contains(t, err.Error(), "deep_model, remote_api")
}

func TestValidateInput(t *testing.T) {
	img := backendtest.Solid(4, 4, color.White)

	assert.NoError(t, backends.ValidateInput(img, 2))
	assert.ErrorIs(t, backends.ValidateInput(nil, 2), backends.ErrInvalidInput)
	assert.ErrorIs(t, backends.ValidateInput(&models.Image{}, 2), backends.ErrInvalidInput)
	assert.ErrorIs(t, backends.ValidateInput(img, 0), backends.ErrInvalidInput)
	assert.ErrorIs(t, backends.ValidateInput(img, -1.5), backends.ErrInvalidInput)
}
