package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"image-upscaler/internal/app"
	"image-upscaler/internal/config"
	"image-upscaler/internal/models"
	"image-upscaler/internal/pipeline"
	"image-upscaler/internal/services"
)

func TestBuildRequest(t *testing.T) {
	base := services.Request{Scale: 2, Tier: models.TierHigh, Enhance: true, Output: pipeline.EncodeOptions{Format: "png", Quality: 95}}

	req, err := buildRequest(base, 3.5, "fast", "jpg", 80, false)
	require.NoError(t, err)
	assert.Equal(t, models.ScaleFactor(3.5), req.Scale)
	assert.Equal(t, models.TierFast, req.Tier)
	assert.Equal(t, "jpeg", req.Output.Format)
	assert.Equal(t, 80, req.Output.Quality)
	assert.False(t, req.Enhance)

	req, err = buildRequest(base, 0, "", "", 0, true)
	require.NoError(t, err)
	assert.Equal(t, base, req)

	_, err = buildRequest(base, -1, "", "", 0, true)
	assert.Error(t, err)
	_, err = buildRequest(base, 0, "ultra", "", 0, true)
	assert.Error(t, err)
	_, err = buildRequest(base, 0, "", "gif", 0, true)
	assert.Error(t, err)
	_, err = buildRequest(base, 0, "", "", 101, true)
	assert.Error(t, err)
}

func newTestApp(t *testing.T) *app.Application {
	t.Helper()
	cfg := &config.Config{DeepModel: config.DeepModelConfig{CacheDir: t.TempDir()}}
	a, err := app.New(context.Background(), cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })
	return a
}

func TestWriteDiagnostics(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, writeDiagnostics(&out, newTestApp(t)))

	text := out.String()
	assert.Contains(t, text, "classical_resample")
	assert.Contains(t, text, "deep_model")
	assert.Contains(t, text, "model cache:")
	assert.Contains(t, text, "fast")
}

func TestWriteOutcomes(t *testing.T) {
	a := newTestApp(t)
	decoded, err := a.Images.LoadImage(context.Background(), "in.png", nopReadCloser(t))
	require.NoError(t, err)

	req := a.DefaultRequest()
	req.Tier = models.TierFast
	outcomes := a.Processing.ProcessBatch(context.Background(), []*pipeline.Decoded{decoded, decoded}, req)

	dir := t.TempDir()
	require.NoError(t, writeOutcomes(context.Background(), dir, outcomes, true))
	_, err = os.Stat(filepath.Join(dir, "upscaled_images_2_files.zip"))
	assert.NoError(t, err)

	require.NoError(t, writeOutcomes(context.Background(), dir, outcomes[:1], false))
	_, err = os.Stat(filepath.Join(dir, "upscaled_in.png"))
	assert.NoError(t, err)
}
