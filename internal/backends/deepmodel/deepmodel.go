//go:build gocv

package deepmodel

import (
	"context"
	"fmt"
	"image"
	"image/draw"
	"sync"

	"gocv.io/x/gocv"

	"image-upscaler/internal/backends"
	"image-upscaler/internal/backends/classical"
	"image-upscaler/internal/logger"
	"image-upscaler/internal/models"
	"image-upscaler/internal/opencv/conversion"
	"image-upscaler/internal/opencv/safe"
)

// loadedNet guards one network. mu serializes loading and inference.
type loadedNet struct {
	mu     sync.Mutex
	net    gocv.Net
	loaded bool
}

type Backend struct {
	store   WeightStore
	catalog []Model
	logger  logger.Logger

	mu   sync.Mutex
	nets map[string]*loadedNet
}

func New(store WeightStore, catalog []Model, log logger.Logger) *Backend {
	if log == nil {
		log = logger.Nop{}
	}
	return &Backend{
		store:   store,
		catalog: catalog,
		logger:  log,
		nets:    make(map[string]*loadedNet),
	}
}

func (b *Backend) Name() models.Capability {
	return models.DeepModel
}

func (b *Backend) ScaleRange() models.ScaleRange {
	return models.ScaleRange{Min: 1, Max: 4}
}

func (b *Backend) Probe(context.Context) error {
	if err := checkWeights(b.store, b.catalog); err != nil {
		return backends.Unavailable(models.DeepModel, "weights unobtainable", err)
	}
	return nil
}

func (b *Backend) Upscale(ctx context.Context, img *models.Image, scale models.ScaleFactor, opts backends.Options) (*models.Image, error) {
	if err := backends.ValidateInput(img, scale); err != nil {
		return nil, err
	}

	model, err := SelectModel(b.catalog, scale)
	if err != nil {
		return nil, backends.Unavailable(models.DeepModel, "no model for scale", err)
	}

	entry := b.entry(model.Key)
	entry.mu.Lock()
	defer entry.mu.Unlock()

	if err := b.load(ctx, entry, model); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	native, err := b.infer(entry.net, img)
	if err != nil {
		return nil, backends.Processing(models.DeepModel, "inference", err)
	}

	w, h := scale.TargetSize(img.Width, img.Height)
	out, err := classical.ResizeTo(native, w, h, opts.Interpolation)
	if err != nil {
		return nil, backends.Processing(models.DeepModel, "resize", err)
	}

	if img.Format == models.PixelFormatRGBA {
		out, err = restoreAlpha(img, out, opts.Interpolation)
		if err != nil {
			return nil, backends.Processing(models.DeepModel, "alpha", err)
		}
	}
	return out, nil
}

// Close releases every loaded network.
func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for key, entry := range b.nets {
		entry.mu.Lock()
		if entry.loaded {
			entry.net.Close()
			entry.loaded = false
		}
		entry.mu.Unlock()
		delete(b.nets, key)
	}
	return nil
}

func (b *Backend) entry(key string) *loadedNet {
	b.mu.Lock()
	defer b.mu.Unlock()

	entry, ok := b.nets[key]
	if !ok {
		entry = &loadedNet{}
		b.nets[key] = entry
	}
	return entry
}

// load reads the network on first use. A failed load leaves the entry empty
// so a later request tries again.
func (b *Backend) load(ctx context.Context, entry *loadedNet, model Model) error {
	if entry.loaded {
		return nil
	}

	path, err := b.store.Ensure(ctx, model.Spec())
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return backends.Unavailable(models.DeepModel, "weights unobtainable", err)
	}

	net := gocv.ReadNetFromONNX(path)
	if net.Empty() {
		net.Close()
		return backends.Unavailable(models.DeepModel, "cannot load network", fmt.Errorf("%s: empty network", path))
	}

	entry.net = net
	entry.loaded = true

	b.logger.Info("DeepModel", "network loaded", map[string]interface{}{
		"model": model.Key,
		"scale": model.Scale,
	})
	return nil
}

func (b *Backend) infer(net gocv.Net, img *models.Image) (*models.Image, error) {
	src, err := bgrInput(img)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	blob := gocv.BlobFromImage(src.GetMat(), 1.0/255.0, image.Pt(img.Width, img.Height),
		gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	net.SetInput(blob, "")
	output := net.Forward("")
	defer output.Close()

	pixels, err := tensorToImage(output)
	if err != nil {
		return nil, err
	}

	if img.Format == models.PixelFormatGray {
		gray := image.NewGray(pixels.Bounds())
		draw.Draw(gray, gray.Bounds(), pixels, image.Point{}, draw.Src)
		return models.DerivedImage(img, gray, models.OriginIntermediate)
	}
	return models.DerivedImage(img, pixels, models.OriginIntermediate)
}

// bgrInput returns a 3 channel Mat regardless of the source format.
func bgrInput(img *models.Image) (*safe.Mat, error) {
	src, err := conversion.ImageToMat(img)
	if err != nil {
		return nil, err
	}

	switch src.Channels() {
	case 3:
		return src, nil
	case 4:
		defer src.Close()
		return conversion.DropAlpha(src)
	case 1:
		defer src.Close()
		dst := gocv.NewMat()
		gocv.CvtColor(src.GetMat(), &dst, gocv.ColorGrayToBGR)
		return safe.Adopt(dst)
	default:
		src.Close()
		return nil, fmt.Errorf("unsupported channel count: %d", src.Channels())
	}
}

// tensorToImage converts a 1x3xHxW RGB float tensor in [0,1] to an image.
func tensorToImage(output gocv.Mat) (*image.NRGBA, error) {
	dims := output.Size()
	if len(dims) != 4 || dims[0] != 1 || dims[1] != 3 {
		return nil, fmt.Errorf("unexpected output shape %v", dims)
	}
	height, width := dims[2], dims[3]

	data, err := output.DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("read output tensor: %w", err)
	}
	plane := width * height
	if len(data) < 3*plane {
		return nil, fmt.Errorf("output tensor has %d values, want %d", len(data), 3*plane)
	}

	out := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			i := y*width + x
			d := out.PixOffset(x, y)
			out.Pix[d] = toByte(data[i])
			out.Pix[d+1] = toByte(data[plane+i])
			out.Pix[d+2] = toByte(data[2*plane+i])
			out.Pix[d+3] = 255
		}
	}
	return out, nil
}

func toByte(v float32) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 1:
		return 255
	default:
		return uint8(v*255 + 0.5)
	}
}
