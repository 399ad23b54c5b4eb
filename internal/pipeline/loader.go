package pipeline

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"  // decoder registration
	_ "image/jpeg" // decoder registration
	_ "image/png"  // decoder registration
	"io"
	"os"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/bmp"  // decoder registration
	_ "golang.org/x/image/tiff" // decoder registration
	_ "golang.org/x/image/webp" // decoder registration

	"image-upscaler/internal/logger"
	"image-upscaler/internal/models"
)

// DefaultMaxSide is the largest accepted width or height.
const DefaultMaxSide = 4096

// SupportedInputExtensions lists file extensions the loader accepts.
var SupportedInputExtensions = []string{".png", ".jpg", ".jpeg", ".gif", ".webp", ".bmp", ".tif", ".tiff"}

type Loader struct {
	maxSide int
	logger  logger.Logger
}

func NewLoader(maxSide int, log logger.Logger) *Loader {
	if maxSide <= 0 {
		maxSide = DefaultMaxSide
	}
	if log == nil {
		log = logger.Nop{}
	}
	return &Loader{maxSide: maxSide, logger: log}
}

// MaxSide returns the configured size limit.
func (l *Loader) MaxSide() int {
	return l.maxSide
}

func (l *Loader) LoadFile(path string) (*Decoded, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read image file: %w", err)
	}
	return l.LoadFromBytes(filepath.Base(path), data)
}

func (l *Loader) LoadFromReader(name string, reader io.Reader) (*Decoded, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}
	return l.LoadFromBytes(name, data)
}

// LoadFromBytes checks the header dimensions before decoding the pixels.
func (l *Loader) LoadFromBytes(name string, data []byte) (*Decoded, error) {
	cfg, headerFormat, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", name, ErrUnsupportedFormat, err)
	}
	if cfg.Width > l.maxSide || cfg.Height > l.maxSide {
		return nil, fmt.Errorf("%s: %w: %dx%d, limit %d px", name, ErrTooLarge, cfg.Width, cfg.Height, l.maxSide)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: failed to decode image: %w", name, err)
	}

	wrapped, err := models.NewImage(img, models.OriginUploaded)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	format := determineActualFormat(strings.ToLower(filepath.Ext(name)), headerFormat)

	l.logger.Debug("ImageLoader", "image loaded", map[string]interface{}{
		"name":   name,
		"width":  wrapped.Width,
		"height": wrapped.Height,
		"pixels": string(wrapped.Format),
		"format": format,
	})

	return &Decoded{
		Name:         name,
		Image:        wrapped,
		SourceFormat: format,
		SizeBytes:    len(data),
	}, nil
}

func determineActualFormat(extension, decoderFormat string) string {
	if decoderFormat != "" {
		return decoderFormat
	}
	switch extension {
	case ".tiff", ".tif":
		return "tiff"
	case ".jpg", ".jpeg":
		return "jpeg"
	case ".png":
		return "png"
	case ".bmp":
		return "bmp"
	case ".gif":
		return "gif"
	case ".webp":
		return "webp"
	default:
		return "unknown"
	}
}
