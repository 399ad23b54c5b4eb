package pipeline

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"strings"

	"golang.org/x/image/bmp"

	"image-upscaler/internal/logger"
	"image-upscaler/internal/models"
	"image-upscaler/internal/opencv/codec"
)

const DefaultJPEGQuality = 95

// OutputFormats lists the encodable formats in UI order.
var OutputFormats = []string{"png", "jpeg", "webp", "bmp"}

// ParseFormat normalizes a format name or extension.
func ParseFormat(name string) (string, error) {
	switch strings.TrimPrefix(strings.ToLower(strings.TrimSpace(name)), ".") {
	case "png":
		return "png", nil
	case "jpg", "jpeg":
		return "jpeg", nil
	case "webp":
		return "webp", nil
	case "bmp":
		return "bmp", nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, name)
	}
}

// Extension returns the file extension used for a format, without the dot.
func Extension(format string) string {
	if format == "jpeg" {
		return "jpg"
	}
	return format
}

// ContentType returns the MIME type of a format.
func ContentType(format string) string {
	return "image/" + format
}

type Saver struct {
	logger logger.Logger
}

func NewSaver(log logger.Logger) *Saver {
	if log == nil {
		log = logger.Nop{}
	}
	return &Saver{logger: log}
}

func (s *Saver) SaveToWriter(writer io.Writer, img *models.Image, opts EncodeOptions) error {
	if img.Empty() {
		return fmt.Errorf("no image data to save")
	}

	format, err := ParseFormat(opts.Format)
	if err != nil {
		return err
	}

	quality := opts.Quality
	if quality <= 0 || quality > 100 {
		quality = DefaultJPEGQuality
	}

	switch format {
	case "jpeg":
		err = jpeg.Encode(writer, flatten(img), &jpeg.Options{Quality: quality})
	case "png":
		err = png.Encode(writer, img.Pixels)
	case "bmp":
		err = bmp.Encode(writer, img.Pixels)
	case "webp":
		var data []byte
		data, err = codec.EncodeWEBP(img, quality)
		if err == nil {
			_, err = writer.Write(data)
		}
	}

	if err != nil {
		s.logger.Error("ImageSaver", err, map[string]interface{}{
			"format": format,
		})
		return fmt.Errorf("encode %s: %w", format, err)
	}

	s.logger.Debug("ImageSaver", "image encoded", map[string]interface{}{
		"format": format,
		"width":  img.Width,
		"height": img.Height,
	})
	return nil
}

// Encode returns the encoded bytes.
func (s *Saver) Encode(img *models.Image, opts EncodeOptions) ([]byte, error) {
	var buf bytes.Buffer
	if err := s.SaveToWriter(&buf, img, opts); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (s *Saver) SaveToPath(path string, img *models.Image, opts EncodeOptions) error {
	data, err := s.Encode(img, opts)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// flatten composites translucent images onto white for formats without alpha.
func flatten(img *models.Image) image.Image {
	if img.Format != models.PixelFormatRGBA {
		return img.Pixels
	}
	bounds := img.Pixels.Bounds()
	out := image.NewRGBA(bounds)
	draw.Draw(out, bounds, &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	draw.Draw(out, bounds, img.Pixels, bounds.Min, draw.Over)
	return out
}
