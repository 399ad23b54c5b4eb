package pipeline

import (
	"errors"

	"image-upscaler/internal/models"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported image format")
	ErrTooLarge          = errors.New("image exceeds maximum size")
)

// Decoded is an uploaded image ready for the engine.
type Decoded struct {
	Name         string
	Image        *models.Image
	SourceFormat string
	SizeBytes    int
}

// Encoded is a finished image ready for download or archiving.
type Encoded struct {
	Name   string
	Format string
	Data   []byte
}

// EncodeOptions selects the output codec.
type EncodeOptions struct {
	Format  string // png, jpeg, webp, bmp
	Quality int    // lossy formats, 1-100
}
