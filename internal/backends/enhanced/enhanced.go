//go:build gocv

package enhanced

import (
	"context"
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"image-upscaler/internal/backends"
	"image-upscaler/internal/models"
	"image-upscaler/internal/opencv/codec"
	"image-upscaler/internal/opencv/conversion"
	"image-upscaler/internal/opencv/safe"
)

type Backend struct {
	params Params
}

func New(params Params) *Backend {
	return &Backend{params: params.withDefaults()}
}

func (b *Backend) Name() models.Capability {
	return models.BilateralCLAHE
}

func (b *Backend) ScaleRange() models.ScaleRange {
	return models.ScaleRange{Min: 1, Max: 4}
}

func (b *Backend) Probe(context.Context) error {
	if codec.OpenCVVersion() == "" {
		return backends.Unavailable(models.BilateralCLAHE, "OpenCV did not report a version", nil)
	}
	return nil
}

func (b *Backend) Upscale(ctx context.Context, img *models.Image, scale models.ScaleFactor, _ backends.Options) (*models.Image, error) {
	if err := backends.ValidateInput(img, scale); err != nil {
		return nil, err
	}

	src, err := conversion.ImageToMat(img)
	if err != nil {
		return nil, backends.Processing(models.BilateralCLAHE, "convert", err)
	}
	defer src.Close()

	w, h := scale.TargetSize(img.Width, img.Height)

	var result *safe.Mat
	switch src.Channels() {
	case 1:
		result, err = b.enhanceGray(ctx, src, w, h)
	case 3:
		result, err = b.enhanceColor(ctx, src, w, h)
	case 4:
		result, err = b.enhanceWithAlpha(ctx, src, w, h)
	default:
		err = fmt.Errorf("unsupported channel count: %d", src.Channels())
	}
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, backends.Processing(models.BilateralCLAHE, "enhance", err)
	}
	defer result.Close()

	pixels, err := conversion.MatToImage(result)
	if err != nil {
		return nil, backends.Processing(models.BilateralCLAHE, "convert", err)
	}

	out, err := models.DerivedImage(img, pixels, models.OriginIntermediate)
	if err != nil {
		return nil, backends.Processing(models.BilateralCLAHE, "convert", err)
	}
	return out, nil
}

func (b *Backend) enhanceGray(ctx context.Context, src *safe.Mat, w, h int) (*safe.Mat, error) {
	filtered, err := b.resizeAndSmooth(ctx, src, w, h)
	if err != nil {
		return nil, err
	}
	defer filtered.Close()

	return b.equalize(ctx, filtered)
}

func (b *Backend) enhanceColor(ctx context.Context, src *safe.Mat, w, h int) (*safe.Mat, error) {
	filtered, err := b.resizeAndSmooth(ctx, src, w, h)
	if err != nil {
		return nil, err
	}
	defer filtered.Close()

	lab, err := conversion.ConvertBGRToLab(filtered)
	if err != nil {
		return nil, err
	}
	defer lab.Close()

	planes, err := conversion.SplitChannels(lab)
	if err != nil {
		return nil, err
	}
	defer closeAll(planes)

	lightness, err := b.equalize(ctx, planes[0])
	if err != nil {
		return nil, err
	}
	defer lightness.Close()

	merged, err := conversion.MergeChannels([]*safe.Mat{lightness, planes[1], planes[2]})
	if err != nil {
		return nil, err
	}
	defer merged.Close()

	return conversion.ConvertLabToBGR(merged)
}

// enhanceWithAlpha filters the colour planes and resamples alpha on its own.
func (b *Backend) enhanceWithAlpha(ctx context.Context, src *safe.Mat, w, h int) (*safe.Mat, error) {
	planes, err := conversion.SplitChannels(src)
	if err != nil {
		return nil, err
	}
	defer closeAll(planes)

	bgr, err := conversion.DropAlpha(src)
	if err != nil {
		return nil, err
	}
	defer bgr.Close()

	color, err := b.enhanceColor(ctx, bgr, w, h)
	if err != nil {
		return nil, err
	}
	defer color.Close()

	alpha, err := conversion.ResizeMat(planes[3], w, h, gocv.InterpolationLanczos4)
	if err != nil {
		return nil, err
	}
	defer alpha.Close()

	colorPlanes, err := conversion.SplitChannels(color)
	if err != nil {
		return nil, err
	}
	defer closeAll(colorPlanes)

	return conversion.MergeChannels(append(colorPlanes, alpha))
}

func (b *Backend) resizeAndSmooth(ctx context.Context, src *safe.Mat, w, h int) (*safe.Mat, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	resized, err := conversion.ResizeMat(src, w, h, gocv.InterpolationLanczos4)
	if err != nil {
		return nil, err
	}
	defer resized.Close()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dst := gocv.NewMat()
	gocv.BilateralFilter(resized.GetMat(), &dst, b.params.Diameter, b.params.SigmaColor, b.params.SigmaSpace)
	return safe.Adopt(dst)
}

func (b *Backend) equalize(ctx context.Context, plane *safe.Mat) (*safe.Mat, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := safe.ValidateChannels(plane, "clahe", 1); err != nil {
		return nil, err
	}

	clahe := gocv.NewCLAHEWithParams(b.params.ClipLimit, image.Point{X: b.params.TileSize, Y: b.params.TileSize})
	defer clahe.Close()

	dst := gocv.NewMat()
	clahe.Apply(plane.GetMat(), &dst)
	return safe.Adopt(dst)
}

func closeAll(mats []*safe.Mat) {
	for _, m := range mats {
		m.Close()
	}
}
