//nolint:goconst // test cases intentionally repeat strings for readability
package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("Could not get home dir: %v", err)
	}

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"tilde expands to home", "~/models", filepath.Join(home, "models")},
		{"absolute path unchanged", "/var/cache/models", "/var/cache/models"},
		{"relative path unchanged", "cache/models", "cache/models"},
		{"empty string unchanged", "", ""},
		{"tilde only", "~", home},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, expandPath(tt.input))
		})
	}
}

func TestGetConfigPaths_LocalFileLast(t *testing.T) {
	paths := getConfigPaths()
	require.NotEmpty(t, paths)
	assert.Equal(t, "config.toml", paths[len(paths)-1])
}

func TestLoad_ExplicitFile(t *testing.T) {
	t.Setenv("UPSCALER_REMOTE_URL", "")
	t.Setenv("UPSCALER_REMOTE_API_KEY", "")
	t.Setenv("LOG_LEVEL", "")

	dir := t.TempDir()
	path := filepath.Join(dir, "upscaler.toml")
	content := `
[upscale]
default_scale = 3.0
default_tier = "highest"
workers = 2

[remote]
enabled = true
url = "http://localhost:9000/api/"
timeout = "5s"

[output]
format = "JPG"
jpeg_quality = 80
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	up := cfg.GetUpscaleConfig()
	assert.InDelta(t, 3.0, up.DefaultScale, 1e-9)
	assert.Equal(t, "highest", up.DefaultTier)
	assert.Equal(t, 2, up.Workers)

	remote := cfg.GetRemoteConfig()
	assert.True(t, cfg.HasRemoteConfig())
	assert.Equal(t, "http://localhost:9000/api", remote.URL)
	assert.Equal(t, 5*time.Second, remote.Timeout)

	out := cfg.GetOutputConfig()
	assert.Equal(t, "jpeg", out.Format)
	assert.Equal(t, 80, out.JPEGQuality)
	assert.Equal(t, "upscaled", out.Prefix)

	assert.True(t, cfg.DeepModel.Enabled, "deep model defaults to enabled")
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestLoad_EnvOverridesRemote(t *testing.T) {
	t.Setenv("UPSCALER_REMOTE_URL", "https://sr.example.com/api")
	t.Setenv("UPSCALER_REMOTE_API_KEY", "secret")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.True(t, cfg.HasRemoteConfig())
	assert.Equal(t, "secret", cfg.GetRemoteConfig().APIKey)
}

func TestDefaults(t *testing.T) {
	cfg := &Config{}

	up := cfg.GetUpscaleConfig()
	assert.InDelta(t, 2.0, up.DefaultScale, 1e-9)
	assert.InDelta(t, 1.0, up.MinScale, 1e-9)
	assert.InDelta(t, 4.0, up.MaxScale, 1e-9)
	assert.Equal(t, "high", up.DefaultTier)
	assert.Equal(t, 4096, up.MaxSide)
	assert.Equal(t, runtime.NumCPU(), up.Workers)

	pp := cfg.GetPostProcessConfig()
	require.NotNil(t, pp.Enabled)
	assert.True(t, *pp.Enabled)
	assert.Equal(t, 3, pp.DenoiseSize)
	assert.InDelta(t, 1.1, pp.Sharpen, 1e-9)
	assert.InDelta(t, 1.05, pp.Contrast, 1e-9)

	srv := cfg.GetServerConfig()
	assert.Equal(t, ":8501", srv.Addr)
	assert.Equal(t, 64, srv.MaxUploadMB)

	remote := cfg.GetRemoteConfig()
	assert.False(t, cfg.HasRemoteConfig())
	assert.Equal(t, 60*time.Second, remote.Timeout)
	assert.Equal(t, 1, remote.Noise)
	assert.Equal(t, "auto", remote.Style)

	assert.NotEmpty(t, cfg.GetDeepModelConfig().CacheDir)
}

func TestGetPostProcessConfig_EvenDenoiseSizeRoundsUp(t *testing.T) {
	cfg := &Config{PostProcess: PostProcessConfig{DenoiseSize: 4}}
	assert.Equal(t, 5, cfg.GetPostProcessConfig().DenoiseSize)
}

func TestGetUpscaleConfig_TierNormalized(t *testing.T) {
	cfg := &Config{Upscale: UpscaleConfig{DefaultTier: " Highest "}}
	assert.Equal(t, "highest", cfg.GetUpscaleConfig().DefaultTier)

	cfg.Upscale.DefaultTier = "ultra"
	assert.Equal(t, "high", cfg.GetUpscaleConfig().DefaultTier)
}
