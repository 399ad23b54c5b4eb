package backends

import (
	"context"
	"errors"
	"fmt"

	"image-upscaler/internal/models"
)

// ErrInvalidInput is returned when a request violates the adapter preconditions.
var ErrInvalidInput = errors.New("invalid upscale input")

// Backend is one upscaling technique behind a uniform signature.
type Backend interface {
	Name() models.Capability
	ScaleRange() models.ScaleRange
	Upscale(ctx context.Context, img *models.Image, scale models.ScaleFactor, opts Options) (*models.Image, error)
}

// Probeable backends run a lightweight availability check once at startup.
type Probeable interface {
	Probe(ctx context.Context) error
}

// Options carries per-request knobs; each backend reads the ones it understands.
type Options struct {
	Interpolation string // classical kernel: "lanczos", "catmullrom", "linear", "nearest"
	Noise         int    // remote/model denoise level, 0-3
	Style         string // remote style hint: "auto", "art", "photo"
}

// DefaultOptions returns the options used when a caller has no preference.
func DefaultOptions() Options {
	return Options{
		Interpolation: "lanczos",
		Noise:         1,
		Style:         "auto",
	}
}

// ValidateInput checks the preconditions shared by every backend.
func ValidateInput(img *models.Image, scale models.ScaleFactor) error {
	if img.Empty() {
		return fmt.Errorf("%w: image is empty", ErrInvalidInput)
	}
	if !scale.Valid() {
		return fmt.Errorf("%w: scale factor must be positive, got %v", ErrInvalidInput, float64(scale))
	}
	return nil
}
