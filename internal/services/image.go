package services

import (
	"context"
	"fmt"
	"io"

	"github.com/dustin/go-humanize"

	"image-upscaler/internal/models"
	"image-upscaler/internal/pipeline"
)

// ImageService handles loading and saving for the front ends.
type ImageService struct {
	loader *pipeline.Loader
	saver  *pipeline.Saver
}

func NewImageService(loader *pipeline.Loader, saver *pipeline.Saver) *ImageService {
	return &ImageService{
		loader: loader,
		saver:  saver,
	}
}

// LoadImage decodes reader and closes it.
func (is *ImageService) LoadImage(ctx context.Context, name string, reader io.ReadCloser) (*pipeline.Decoded, error) {
	defer reader.Close()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	return is.loader.LoadFromReader(name, reader)
}

// SaveImage encodes img into writer and closes it.
func (is *ImageService) SaveImage(ctx context.Context, writer io.WriteCloser, img *models.Image, opts pipeline.EncodeOptions) error {
	defer writer.Close()

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if img.Empty() {
		return fmt.Errorf("no image data to save")
	}
	return is.saver.SaveToWriter(writer, img, opts)
}

// ImageInfo summarizes a loaded image for display.
type ImageInfo struct {
	Name        string
	Width       int
	Height      int
	Format      string
	PixelFormat models.PixelFormat
	FileSize    string
}

func (is *ImageService) GetImageInfo(decoded *pipeline.Decoded) ImageInfo {
	if decoded == nil || decoded.Image.Empty() {
		return ImageInfo{}
	}
	return ImageInfo{
		Name:        decoded.Name,
		Width:       decoded.Image.Width,
		Height:      decoded.Image.Height,
		Format:      decoded.SourceFormat,
		PixelFormat: decoded.Image.Format,
		FileSize:    humanize.IBytes(uint64(decoded.SizeBytes)),
	}
}

// PredictOutputSize returns the dimensions an upscale by scale will produce.
func (is *ImageService) PredictOutputSize(decoded *pipeline.Decoded, scale models.ScaleFactor) (int, int) {
	if decoded == nil || decoded.Image.Empty() || !scale.Valid() {
		return 0, 0
	}
	return scale.TargetSize(decoded.Image.Width, decoded.Image.Height)
}

func (is *ImageService) MaxSide() int {
	return is.loader.MaxSide()
}

func (is *ImageService) GetSupportedFormats() []string {
	return pipeline.SupportedInputExtensions
}

func (is *ImageService) GetOutputFormats() []string {
	return pipeline.OutputFormats
}
