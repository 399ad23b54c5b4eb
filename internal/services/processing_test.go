package services

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"image-upscaler/internal/backends"
	"image-upscaler/internal/backends/backendtest"
	"image-upscaler/internal/backends/classical"
	"image-upscaler/internal/engine"
	"image-upscaler/internal/models"
	"image-upscaler/internal/pipeline"
	"image-upscaler/internal/processing/chain"
	"image-upscaler/internal/processing/filters"
)

func newService(t *testing.T, extra ...*backendtest.Fake) *ProcessingService {
	t.Helper()
	registry := backends.NewRegistry()
	for _, b := range extra {
		registry.Register(b, true, "")
	}
	registry.Register(classical.New(), true, "")

	eng, err := engine.New(registry, nil)
	require.NoError(t, err)
	return NewProcessingService(eng, filters.NewEnhancementChain(nil), nil, 2, nil)
}

func job(name string, w, h int) *pipeline.Decoded {
	return &pipeline.Decoded{
		Name:         name,
		Image:        backendtest.Solid(w, h, color.NRGBA{R: 120, G: 80, B: 40, A: 255}),
		SourceFormat: "png",
	}
}

func pngRequest() Request {
	return Request{
		Scale:    2,
		Tier:     models.TierFast,
		Options:  backends.DefaultOptions(),
		Enhance:  true,
		Settings: chain.DefaultSettings(),
		Output:   pipeline.EncodeOptions{Format: "png"},
		Prefix:   "upscaled",
	}
}

func TestProcess_EncodesResult(t *testing.T) {
	ps := newService(t)

	outcome := ps.Process(context.Background(), job("cat.jpg", 10, 6), pngRequest())
	require.NoError(t, outcome.Err)

	assert.Equal(t, "upscaled_cat.png", outcome.Name)
	assert.Equal(t, models.ClassicalResample, outcome.Backend())
	assert.Equal(t, 20, outcome.Final.Width)
	assert.Equal(t, 12, outcome.Final.Height)
	assert.Equal(t, models.OriginFinal, outcome.Final.Origin)
	require.NotNil(t, outcome.Encoded)
	assert.Equal(t, "png", outcome.Encoded.Format)

	decoded, err := pipeline.NewLoader(0, nil).LoadFromBytes(outcome.Name, outcome.Encoded.Data)
	require.NoError(t, err)
	assert.Equal(t, 20, decoded.Image.Width)
}

func TestProcess_UsesPreferredBackend(t *testing.T) {
	enhanced := backendtest.New(models.BilateralCLAHE)
	ps := newService(t, enhanced)

	outcome := ps.Process(context.Background(), job("a.png", 4, 4), pngRequest())
	require.NoError(t, outcome.Err)
	assert.Equal(t, models.BilateralCLAHE, outcome.Backend())
	assert.Equal(t, 1, enhanced.Calls())
}

func TestProcess_NilJob(t *testing.T) {
	outcome := newService(t).Process(context.Background(), nil, pngRequest())
	assert.ErrorIs(t, outcome.Err, backends.ErrInvalidInput)
	assert.Nil(t, outcome.Encoded)
	assert.Empty(t, outcome.Backend())
}

func TestProcess_BadOutputFormat(t *testing.T) {
	req := pngRequest()
	req.Output.Format = "tga"

	enhanced := backendtest.New(models.BilateralCLAHE)
	outcome := newService(t, enhanced).Process(context.Background(), job("a.png", 4, 4), req)
	assert.ErrorIs(t, outcome.Err, pipeline.ErrUnsupportedFormat)
	assert.Nil(t, outcome.Encoded)
	assert.Zero(t, enhanced.Calls(), "rejected before any backend runs")
}

func TestProcess_FormatAliasNormalized(t *testing.T) {
	req := pngRequest()
	req.Output.Format = "JPG"

	outcome := newService(t).Process(context.Background(), job("a.png", 4, 4), req)
	require.NoError(t, outcome.Err)
	require.NotNil(t, outcome.Encoded)
	assert.Equal(t, "jpeg", outcome.Encoded.Format)
	assert.Equal(t, "upscaled_a.jpg", outcome.Name)
}

func TestProcessBatch_PreservesOrder(t *testing.T) {
	ps := newService(t)

	jobs := make([]*pipeline.Decoded, 7)
	for i := range jobs {
		jobs[i] = job(fmt.Sprintf("img%d.png", i), 3+i, 2)
	}

	outcomes := ps.ProcessBatch(context.Background(), jobs, pngRequest())
	require.Len(t, outcomes, len(jobs))
	for i, o := range outcomes {
		require.NoError(t, o.Err)
		assert.Equal(t, fmt.Sprintf("upscaled_img%d.png", i), o.Name)
		assert.Equal(t, (3+i)*2, o.Final.Width)
	}
	assert.NoError(t, FirstError(outcomes))
}

func TestProcessBatch_FailureIsolated(t *testing.T) {
	ps := newService(t)
	jobs := []*pipeline.Decoded{job("a.png", 2, 2), nil, job("c.png", 2, 2)}

	outcomes := ps.ProcessBatch(context.Background(), jobs, pngRequest())
	assert.NoError(t, outcomes[0].Err)
	assert.Error(t, outcomes[1].Err)
	assert.NoError(t, outcomes[2].Err)
	assert.ErrorIs(t, FirstError(outcomes), backends.ErrInvalidInput)
}

func TestProcessBatch_Cancelled(t *testing.T) {
	ps := newService(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	outcomes := ps.ProcessBatch(ctx, []*pipeline.Decoded{job("a.png", 2, 2), job("b.png", 2, 2)}, pngRequest())
	for _, o := range outcomes {
		assert.ErrorIs(t, o.Err, context.Canceled)
	}
	assert.ErrorIs(t, FirstError(outcomes), context.Canceled)
}

func TestFirstError_PrefersRealFailures(t *testing.T) {
	boom := errors.New("boom")
	err := FirstError([]Outcome{{Err: context.Canceled}, {}, {Err: boom}})
	assert.Equal(t, boom, err)
	assert.NoError(t, FirstError(nil))
}

func TestSetWorkerCount(t *testing.T) {
	ps := newService(t)
	ps.SetWorkerCount(1)
	assert.Equal(t, 1, ps.GetWorkerCount())

	ps.SetWorkerCount(0)
	assert.Positive(t, ps.GetWorkerCount())
}

func TestPlanAndCapabilities(t *testing.T) {
	ps := newService(t)
	req := pngRequest()
	req.Tier = models.TierHighest

	assert.Equal(t, []models.Capability{models.ClassicalResample}, ps.Plan(req))
	caps := ps.Capabilities()
	require.Len(t, caps, 1)
	assert.True(t, caps[0].Available)
}
