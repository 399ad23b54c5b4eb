package models

import (
	"fmt"
	"image"
	"image/color"
)

// PixelFormat describes the channel layout of an Image.
type PixelFormat string

const (
	PixelFormatGray PixelFormat = "gray"
	PixelFormatRGB  PixelFormat = "rgb"
	PixelFormatRGBA PixelFormat = "rgba"
)

// Channels returns the channel count for the format.
func (f PixelFormat) Channels() int {
	switch f {
	case PixelFormatGray:
		return 1
	case PixelFormatRGBA:
		return 4
	default:
		return 3
	}
}

// Origin records where in the request lifecycle an Image was produced.
type Origin string

const (
	OriginUploaded     Origin = "uploaded"
	OriginIntermediate Origin = "intermediate"
	OriginFinal        Origin = "final"
)

// Image is an immutable raster passed by reference through the pipeline.
// Stages never write into Pixels; they return a new Image instead.
type Image struct {
	Pixels image.Image
	Width  int
	Height int
	Format PixelFormat
	Origin Origin
}

// NewImage wraps a decoded raster, detecting its pixel format.
func NewImage(img image.Image, origin Origin) (*Image, error) {
	if img == nil {
		return nil, fmt.Errorf("image is nil")
	}

	bounds := img.Bounds()
	if bounds.Dx() <= 0 || bounds.Dy() <= 0 {
		return nil, fmt.Errorf("invalid image dimensions: %dx%d", bounds.Dx(), bounds.Dy())
	}

	return &Image{
		Pixels: img,
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
		Format: DetectPixelFormat(img),
		Origin: origin,
	}, nil
}

// DerivedImage wraps the output of a stage, keeping the source pixel format
// so gray inputs stay gray regardless of the raster type a library returns.
func DerivedImage(src *Image, img image.Image, origin Origin) (*Image, error) {
	derived, err := NewImage(img, origin)
	if err != nil {
		return nil, err
	}
	if src != nil {
		derived.Format = src.Format
	}
	return derived, nil
}

// WithOrigin returns a shallow copy carrying a different origin. Pixels are shared.
func (i *Image) WithOrigin(origin Origin) *Image {
	clone := *i
	clone.Origin = origin
	return &clone
}

// Empty reports whether the image has no usable pixels.
func (i *Image) Empty() bool {
	return i == nil || i.Pixels == nil || i.Width <= 0 || i.Height <= 0
}

func (i *Image) String() string {
	if i == nil {
		return "<nil image>"
	}
	return fmt.Sprintf("%dx%d %s (%s)", i.Width, i.Height, i.Format, i.Origin)
}

// DetectPixelFormat inspects the concrete raster type, falling back to a
// scan of the alpha channel for generic images.
func DetectPixelFormat(img image.Image) PixelFormat {
	switch typed := img.(type) {
	case *image.Gray, *image.Gray16:
		return PixelFormatGray
	case *image.YCbCr, *image.CMYK:
		return PixelFormatRGB
	case *image.RGBA:
		if typed.Opaque() {
			return PixelFormatRGB
		}
		return PixelFormatRGBA
	case *image.NRGBA:
		if typed.Opaque() {
			return PixelFormatRGB
		}
		return PixelFormatRGBA
	case *image.Paletted:
		if typed.Opaque() {
			return PixelFormatRGB
		}
		return PixelFormatRGBA
	}

	if img.ColorModel() == color.GrayModel || img.ColorModel() == color.Gray16Model {
		return PixelFormatGray
	}

	if opaque, ok := img.(interface{ Opaque() bool }); ok && opaque.Opaque() {
		return PixelFormatRGB
	}
	return PixelFormatRGBA
}
