// Package backendtest provides scripted backends for engine and service tests.
package backendtest

import (
	"context"
	"image"
	"image/color"
	"sync/atomic"

	"image-upscaler/internal/backends"
	"image-upscaler/internal/models"
)

// Fake is a Backend whose behaviour is set per test.
type Fake struct {
	Capability models.Capability
	Range      models.ScaleRange
	Err        error
	ProbeErr   error
	Panic      bool

	calls atomic.Int32
}

func New(name models.Capability) *Fake {
	return &Fake{
		Capability: name,
		Range:      models.ScaleRange{Min: 0.1, Max: 16},
	}
}

func (f *Fake) Name() models.Capability { return f.Capability }

func (f *Fake) ScaleRange() models.ScaleRange { return f.Range }

func (f *Fake) Probe(context.Context) error { return f.ProbeErr }

// Calls returns how many times Upscale was invoked.
func (f *Fake) Calls() int { return int(f.calls.Load()) }

// Upscale returns a flat image of the target size, or the scripted error.
func (f *Fake) Upscale(ctx context.Context, img *models.Image, scale models.ScaleFactor, _ backends.Options) (*models.Image, error) {
	f.calls.Add(1)

	if f.Panic {
		panic("scripted panic")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := backends.ValidateInput(img, scale); err != nil {
		return nil, err
	}
	if f.Err != nil {
		return nil, f.Err
	}

	w, h := scale.TargetSize(img.Width, img.Height)
	return models.DerivedImage(img, Solid(w, h, color.NRGBA{R: 200, G: 100, B: 50, A: 255}).Pixels, models.OriginIntermediate)
}

// Solid builds a uniform uploaded image.
func Solid(w, h int, c color.Color) *models.Image {
	rgba := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			rgba.Set(x, y, c)
		}
	}
	img, err := models.NewImage(rgba, models.OriginUploaded)
	if err != nil {
		panic(err)
	}
	return img
}

// Gradient builds an uploaded image with varying pixels, useful where a
// uniform raster would hide filter effects.
func Gradient(w, h int) *models.Image {
	rgba := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			rgba.Set(x, y, color.NRGBA{
				R: uint8((x * 255) / max(1, w-1)),
				G: uint8((y * 255) / max(1, h-1)),
				B: uint8(((x + y) * 127) / max(1, w+h-2)),
				A: 255,
			})
		}
	}
	img, err := models.NewImage(rgba, models.OriginUploaded)
	if err != nil {
		panic(err)
	}
	return img
}
