//go:build gocv

package conversion

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"image-upscaler/internal/opencv/safe"
)

// ResizeMat resamples src to exactly newWidth x newHeight.
func ResizeMat(src *safe.Mat, newWidth, newHeight int, interpolation gocv.InterpolationFlags) (*safe.Mat, error) {
	if err := safe.ValidateMatForOperation(src, "resize"); err != nil {
		return nil, err
	}
	if err := safe.ValidateDimensions(newWidth, newHeight, "resize"); err != nil {
		return nil, err
	}

	dst := gocv.NewMat()
	gocv.Resize(src.GetMat(), &dst, image.Point{X: newWidth, Y: newHeight}, 0, 0, interpolation)

	result, err := safe.Adopt(dst)
	if err != nil {
		return nil, fmt.Errorf("resize produced no data: %w", err)
	}
	if result.Cols() != newWidth || result.Rows() != newHeight {
		result.Close()
		return nil, fmt.Errorf("resize produced %dx%d, want %dx%d", result.Cols(), result.Rows(), newWidth, newHeight)
	}
	return result, nil
}
