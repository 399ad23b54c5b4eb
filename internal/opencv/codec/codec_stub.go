//go:build !gocv

package codec

import (
	"image-upscaler/internal/models"
)

func Available() bool { return false }

func OpenCVVersion() string { return "" }

func LiveMats() (count, bytes int64) { return 0, 0 }

func EncodeWEBP(*models.Image, int) ([]byte, error) {
	return nil, ErrNoOpenCV
}
