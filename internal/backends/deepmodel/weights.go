// Package deepmodel runs Real-ESRGAN style super-resolution networks
// exported to ONNX through the OpenCV DNN module. It needs a gocv build.
package deepmodel

import (
	"context"
	"fmt"
	"sort"

	"image-upscaler/internal/modelcache"
	"image-upscaler/internal/models"
)

// Model is one network in the weights catalog.
type Model struct {
	Key   string
	Name  string
	Scale int
	File  string
}

func (m Model) Spec() modelcache.Spec {
	return modelcache.Spec{Key: m.Key, Name: m.Name, Scale: m.Scale, File: m.File}
}

// DefaultCatalog lists the Real-ESRGAN variants with fixed x2 and x4 output.
func DefaultCatalog() []Model {
	return []Model{
		{Key: "realesrgan-x2", Name: "Real-ESRGAN x2", Scale: 2, File: "RealESRGAN_x2.onnx"},
		{Key: "realesrgan-x4", Name: "Real-ESRGAN x4", Scale: 4, File: "RealESRGAN_x4.onnx"},
	}
}

// WeightStore provides local paths for weights files.
type WeightStore interface {
	Ensure(ctx context.Context, spec modelcache.Spec) (string, error)
	Has(spec modelcache.Spec) bool
	CanDownload() bool
	Writable() error
}

// SelectModel picks the smallest native scale at or above the requested one,
// otherwise the largest available.
func SelectModel(catalog []Model, scale models.ScaleFactor) (Model, error) {
	if len(catalog) == 0 {
		return Model{}, fmt.Errorf("weights catalog is empty")
	}

	sorted := make([]Model, len(catalog))
	copy(sorted, catalog)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Scale < sorted[j].Scale })

	for _, m := range sorted {
		if models.ScaleFactor(m.Scale) >= scale {
			return m, nil
		}
	}
	return sorted[len(sorted)-1], nil
}

// checkWeights reports why no catalog model could be obtained, or nil.
func checkWeights(store WeightStore, catalog []Model) error {
	if store == nil {
		return fmt.Errorf("no model cache configured")
	}
	if len(catalog) == 0 {
		return fmt.Errorf("weights catalog is empty")
	}
	if err := store.Writable(); err != nil {
		return err
	}
	if store.CanDownload() {
		return nil
	}
	for _, m := range catalog {
		if store.Has(m.Spec()) {
			return nil
		}
	}
	return modelcache.ErrNotCached
}
