package preview

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestThumbnail(t *testing.T) {
	small := image.NewNRGBA(image.Rect(0, 0, 100, 50))
	assert.Same(t, small, Thumbnail(small, 200))

	big := image.NewNRGBA(image.Rect(0, 0, 400, 100))
	thumb := Thumbnail(big, 200)
	assert.Equal(t, 200, thumb.Bounds().Dx())
	assert.Equal(t, 50, thumb.Bounds().Dy())

	assert.Nil(t, Thumbnail(nil, 10))
}

func TestTexts(t *testing.T) {
	assert.Equal(t, "640 x 480 px", SizeText(640, 480))
	assert.Equal(t, "--", SizeText(0, 480))
	assert.Equal(t, "Output: 1280 x 960 px (from 640 x 480 px)", PredictionText(640, 480, 1280, 960))
	assert.Equal(t, "Output: --", PredictionText(0, 0, 0, 0))
}
