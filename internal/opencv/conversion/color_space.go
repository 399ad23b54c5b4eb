//go:build gocv

package conversion

import (
	"fmt"

	"gocv.io/x/gocv"

	"image-upscaler/internal/opencv/safe"
)

// ConvertBGRToLab converts a 3 channel BGR image to Lab.
func ConvertBGRToLab(src *safe.Mat) (*safe.Mat, error) {
	return convert(src, 3, gocv.ColorBGRToLab, "BGR to Lab")
}

// ConvertLabToBGR converts a 3 channel Lab image back to BGR.
func ConvertLabToBGR(src *safe.Mat) (*safe.Mat, error) {
	return convert(src, 3, gocv.ColorLabToBGR, "Lab to BGR")
}

// DropAlpha converts BGRA to BGR.
func DropAlpha(src *safe.Mat) (*safe.Mat, error) {
	return convert(src, 4, gocv.ColorBGRAToBGR, "BGRA to BGR")
}

func convert(src *safe.Mat, channels int, code gocv.ColorConversionCode, operation string) (*safe.Mat, error) {
	if err := safe.ValidateMatForOperation(src, operation); err != nil {
		return nil, err
	}
	if err := safe.ValidateChannels(src, operation, channels); err != nil {
		return nil, err
	}

	dst := gocv.NewMat()
	gocv.CvtColor(src.GetMat(), &dst, code)

	result, err := safe.Adopt(dst)
	if err != nil {
		return nil, fmt.Errorf("%s conversion produced no data: %w", operation, err)
	}
	return result, nil
}

// SplitChannels returns one single-channel Mat per channel of src.
func SplitChannels(src *safe.Mat) ([]*safe.Mat, error) {
	if err := safe.ValidateMatForOperation(src, "split"); err != nil {
		return nil, err
	}

	planes := gocv.Split(src.GetMat())
	result := make([]*safe.Mat, 0, len(planes))
	for _, plane := range planes {
		wrapped, err := safe.Adopt(plane)
		if err != nil {
			for _, done := range result {
				done.Close()
			}
			return nil, fmt.Errorf("split produced an empty plane: %w", err)
		}
		result = append(result, wrapped)
	}
	return result, nil
}

// MergeChannels combines single-channel planes into one Mat.
func MergeChannels(planes []*safe.Mat) (*safe.Mat, error) {
	if len(planes) == 0 {
		return nil, fmt.Errorf("no planes to merge")
	}

	mats := make([]gocv.Mat, len(planes))
	for i, plane := range planes {
		if err := safe.ValidateMatForOperation(plane, "merge"); err != nil {
			return nil, err
		}
		mats[i] = plane.GetMat()
	}

	dst := gocv.NewMat()
	gocv.Merge(mats, &dst)
	return safe.Adopt(dst)
}
