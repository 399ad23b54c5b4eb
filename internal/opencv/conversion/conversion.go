//go:build gocv

package conversion

import (
	"fmt"
	"image"
	"image/draw"

	"image-upscaler/internal/models"
	"image-upscaler/internal/opencv/safe"
)

// ImageToMat converts a pipeline image into an 8-bit Mat: gray images
// become one channel, opaque colour images BGR and the rest BGRA.
func ImageToMat(img *models.Image) (*safe.Mat, error) {
	if img.Empty() {
		return nil, fmt.Errorf("input image is empty")
	}

	switch img.Format {
	case models.PixelFormatGray:
		return grayToMat(img.Pixels)
	case models.PixelFormatRGB:
		return colorToMat(img.Pixels, 3)
	case models.PixelFormatRGBA:
		return colorToMat(img.Pixels, 4)
	default:
		return nil, fmt.Errorf("unsupported pixel format: %s", img.Format)
	}
}

// MatToImage converts a 1, 3 or 4 channel 8-bit Mat back into a Go raster.
func MatToImage(src *safe.Mat) (image.Image, error) {
	if err := safe.ValidateMatForOperation(src, "Mat to image conversion"); err != nil {
		return nil, err
	}

	rows := src.Rows()
	cols := src.Cols()
	channels := src.Channels()

	data, err := src.Bytes()
	if err != nil {
		return nil, err
	}
	if len(data) != rows*cols*channels {
		return nil, fmt.Errorf("Mat data has %d bytes, want %d", len(data), rows*cols*channels)
	}

	switch channels {
	case 1:
		gray := image.NewGray(image.Rect(0, 0, cols, rows))
		for y := 0; y < rows; y++ {
			copy(gray.Pix[y*gray.Stride:y*gray.Stride+cols], data[y*cols:(y+1)*cols])
		}
		return gray, nil
	case 3, 4:
		return bgrToNRGBA(data, rows, cols, channels), nil
	default:
		return nil, fmt.Errorf("unsupported channel count: %d", channels)
	}
}

func grayToMat(src image.Image) (*safe.Mat, error) {
	bounds := src.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	gray, ok := src.(*image.Gray)
	if !ok {
		gray = image.NewGray(image.Rect(0, 0, width, height))
		draw.Draw(gray, gray.Bounds(), src, bounds.Min, draw.Src)
	}

	data := make([]byte, width*height)
	for y := 0; y < height; y++ {
		offset := gray.PixOffset(gray.Rect.Min.X, gray.Rect.Min.Y+y)
		copy(data[y*width:(y+1)*width], gray.Pix[offset:offset+width])
	}

	return safe.NewMatFromBytes(height, width, 1, data)
}

func colorToMat(src image.Image, channels int) (*safe.Mat, error) {
	bounds := src.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	nrgba, ok := src.(*image.NRGBA)
	if !ok {
		nrgba = image.NewNRGBA(image.Rect(0, 0, width, height))
		draw.Draw(nrgba, nrgba.Bounds(), src, bounds.Min, draw.Src)
	}

	data := make([]byte, width*height*channels)
	for y := 0; y < height; y++ {
		row := nrgba.PixOffset(nrgba.Rect.Min.X, nrgba.Rect.Min.Y+y)
		for x := 0; x < width; x++ {
			s := row + x*4
			d := (y*width + x) * channels
			data[d] = nrgba.Pix[s+2]
			data[d+1] = nrgba.Pix[s+1]
			data[d+2] = nrgba.Pix[s]
			if channels == 4 {
				data[d+3] = nrgba.Pix[s+3]
			}
		}
	}

	return safe.NewMatFromBytes(height, width, channels, data)
}

func bgrToNRGBA(data []byte, rows, cols, channels int) *image.NRGBA {
	out := image.NewNRGBA(image.Rect(0, 0, cols, rows))
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			s := (y*cols + x) * channels
			d := out.PixOffset(x, y)
			out.Pix[d] = data[s+2]
			out.Pix[d+1] = data[s+1]
			out.Pix[d+2] = data[s]
			out.Pix[d+3] = 255
			if channels == 4 {
				out.Pix[d+3] = data[s+3]
			}
		}
	}
	return out
}
