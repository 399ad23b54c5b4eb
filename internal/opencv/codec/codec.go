//go:build gocv

// Package codec exposes the OpenCV runtime to code that builds without cgo.
package codec

import (
	"fmt"

	"gocv.io/x/gocv"

	"image-upscaler/internal/models"
	"image-upscaler/internal/opencv/conversion"
	"image-upscaler/internal/opencv/safe"
)

// Available reports whether the binary was built against OpenCV.
func Available() bool { return true }

// OpenCVVersion returns the linked OpenCV version.
func OpenCVVersion() string { return gocv.OpenCVVersion() }

// LiveMats reports OpenCV buffers that have not been released yet.
func LiveMats() (count, bytes int64) {
	stats := safe.CurrentStats()
	return stats.LiveMats, stats.LiveBytes
}

// EncodeWEBP encodes img as WEBP with the given quality (1-100).
func EncodeWEBP(img *models.Image, quality int) ([]byte, error) {
	mat, err := conversion.ImageToMat(img)
	if err != nil {
		return nil, fmt.Errorf("webp encode: %w", err)
	}
	defer mat.Close()

	buf, err := gocv.IMEncodeWithParams(gocv.WEBPFileExt, mat.GetMat(), []int{gocv.IMWriteWebpQuality, quality})
	if err != nil {
		return nil, fmt.Errorf("webp encode: %w", err)
	}
	defer buf.Close()

	data := buf.GetBytes()
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}
