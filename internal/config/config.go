package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const appName = "image-upscaler"

type Config struct {
	Server      ServerConfig      `koanf:"server"`
	Upscale     UpscaleConfig     `koanf:"upscale"`
	PostProcess PostProcessConfig `koanf:"postprocess"`
	Output      OutputConfig      `koanf:"output"`
	Remote      RemoteConfig      `koanf:"remote"`
	DeepModel   DeepModelConfig   `koanf:"deep_model"`
	Log         LogConfig         `koanf:"log"`
}

// ServerConfig holds the web front end settings.
type ServerConfig struct {
	Addr        string `koanf:"addr"`          // e.g. ":8501"
	MaxUploadMB int    `koanf:"max_upload_mb"` // total multipart size (default: 64)
}

// UpscaleConfig holds request defaults and bounds.
type UpscaleConfig struct {
	DefaultScale float64 `koanf:"default_scale"` // default: 2.0
	MinScale     float64 `koanf:"min_scale"`     // default: 1.0
	MaxScale     float64 `koanf:"max_scale"`     // default: 4.0
	DefaultTier  string  `koanf:"default_tier"`  // "fast", "high", "highest" (default: "high")
	MaxSide      int     `koanf:"max_side"`      // largest accepted input side in px (default: 4096)
	Workers      int     `koanf:"workers"`       // batch worker pool size (default: NumCPU)
}

// PostProcessConfig holds the enhancement chain defaults.
type PostProcessConfig struct {
	Enabled     *bool   `koanf:"enabled"`      // default: true
	Denoise     bool    `koanf:"denoise"`      // default: false
	DenoiseSize int     `koanf:"denoise_size"` // odd, 3-7 (default: 3)
	Sharpen     float64 `koanf:"sharpen"`      // 1.0-1.5 (default: 1.1)
	Contrast    float64 `koanf:"contrast"`     // 1.0-1.3 (default: 1.05)
	Saturation  float64 `koanf:"saturation"`   // 1.0-1.3 (default: 1.05)
}

// OutputConfig holds encoding defaults.
type OutputConfig struct {
	Format      string `koanf:"format"`       // "png", "jpeg", "webp", "bmp" (default: "png")
	JPEGQuality int    `koanf:"jpeg_quality"` // 1-100 (default: 95)
	Prefix      string `koanf:"prefix"`       // output name prefix (default: "upscaled")
}

// RemoteConfig holds the remote super-resolution API settings.
type RemoteConfig struct {
	Enabled bool          `koanf:"enabled"`
	URL     string        `koanf:"url"`
	APIKey  string        `koanf:"api_key"`
	Timeout time.Duration `koanf:"timeout"` // default: 60s
	Noise   int           `koanf:"noise"`   // 0-3 (default: 1)
	Style   string        `koanf:"style"`   // "auto", "art", "photo" (default: "auto")
}

// DeepModelConfig holds the ONNX model settings.
type DeepModelConfig struct {
	Enabled  bool   `koanf:"enabled"`
	CacheDir string `koanf:"cache_dir"` // default: $XDG_CACHE_HOME/image-upscaler/models
	BaseURL  string `koanf:"base_url"`  // where <model>.onnx files are downloaded from
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `koanf:"level"`  // "debug", "info", "warn", "error"
	Format string `koanf:"format"` // "console" or "json"
}

// Load reads the config files in priority order (last wins). An explicit
// path, when given, is loaded last and must exist.
func Load(explicitPath string) (*Config, error) {
	k := koanf.New(".")

	for _, path := range getConfigPaths() {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
				return nil, err
			}
		}
	}

	if explicitPath != "" {
		if err := k.Load(file.Provider(expandPath(explicitPath)), toml.Parser()); err != nil {
			return nil, err
		}
	}

	cfg := &Config{
		DeepModel: DeepModelConfig{Enabled: true},
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}

	cfg.DeepModel.CacheDir = expandPath(cfg.DeepModel.CacheDir)
	cfg.DeepModel.BaseURL = strings.TrimSuffix(cfg.DeepModel.BaseURL, "/")

	applyEnv(cfg)

	return cfg, nil
}

func getConfigPaths() []string {
	paths := []string{}

	// 1. $XDG_CONFIG_HOME/image-upscaler/config.toml
	paths = append(paths, filepath.Join(xdg.ConfigHome, appName, "config.toml"))

	// 2. ./config.toml (pwd, highest priority)
	paths = append(paths, "config.toml")

	return paths
}

// applyEnv lets deployments inject remote API settings without a file.
func applyEnv(cfg *Config) {
	if url := os.Getenv("UPSCALER_REMOTE_URL"); url != "" {
		cfg.Remote.URL = url
		cfg.Remote.Enabled = true
	}
	if key := os.Getenv("UPSCALER_REMOTE_API_KEY"); key != "" {
		cfg.Remote.APIKey = key
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
}

func expandPath(path string) string {
	if path != "" && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}

// HasRemoteConfig returns true if the remote API is enabled and addressable.
func (c *Config) HasRemoteConfig() bool {
	return c.Remote.Enabled && c.Remote.URL != ""
}

// GetServerConfig returns the server configuration with defaults applied.
func (c *Config) GetServerConfig() ServerConfig {
	cfg := c.Server
	if cfg.Addr == "" {
		cfg.Addr = ":8501"
	}
	if cfg.MaxUploadMB <= 0 {
		cfg.MaxUploadMB = 64
	}
	return cfg
}

// GetUpscaleConfig returns the upscale configuration with defaults applied.
func (c *Config) GetUpscaleConfig() UpscaleConfig {
	cfg := c.Upscale
	if cfg.MinScale <= 0 {
		cfg.MinScale = 1.0
	}
	if cfg.MaxScale <= 0 || cfg.MaxScale < cfg.MinScale {
		cfg.MaxScale = 4.0
	}
	if cfg.DefaultScale < cfg.MinScale || cfg.DefaultScale > cfg.MaxScale {
		cfg.DefaultScale = 2.0
	}
	switch tier := strings.ToLower(strings.TrimSpace(cfg.DefaultTier)); tier {
	case "fast", "high", "highest":
		cfg.DefaultTier = tier
	default:
		cfg.DefaultTier = "high"
	}
	if cfg.MaxSide <= 0 {
		cfg.MaxSide = 4096
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	return cfg
}

// GetPostProcessConfig returns the enhancement configuration with defaults applied.
func (c *Config) GetPostProcessConfig() PostProcessConfig {
	cfg := c.PostProcess
	if cfg.Enabled == nil {
		enabled := true
		cfg.Enabled = &enabled
	}
	if cfg.DenoiseSize < 3 || cfg.DenoiseSize > 7 {
		cfg.DenoiseSize = 3
	}
	if cfg.DenoiseSize%2 == 0 {
		cfg.DenoiseSize++
	}
	if cfg.Sharpen <= 0 {
		cfg.Sharpen = 1.1
	}
	if cfg.Contrast <= 0 {
		cfg.Contrast = 1.05
	}
	if cfg.Saturation <= 0 {
		cfg.Saturation = 1.05
	}
	return cfg
}

// GetOutputConfig returns the output configuration with defaults applied.
func (c *Config) GetOutputConfig() OutputConfig {
	cfg := c.Output
	switch strings.ToLower(cfg.Format) {
	case "png", "jpeg", "webp", "bmp":
		cfg.Format = strings.ToLower(cfg.Format)
	case "jpg":
		cfg.Format = "jpeg"
	default:
		cfg.Format = "png"
	}
	if cfg.JPEGQuality <= 0 || cfg.JPEGQuality > 100 {
		cfg.JPEGQuality = 95
	}
	if cfg.Prefix == "" {
		cfg.Prefix = "upscaled"
	}
	return cfg
}

// GetRemoteConfig returns the remote API configuration with defaults applied.
func (c *Config) GetRemoteConfig() RemoteConfig {
	cfg := c.Remote
	cfg.URL = strings.TrimSuffix(cfg.URL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.Noise < 0 || cfg.Noise > 3 {
		cfg.Noise = 1
	}
	switch cfg.Style {
	case "auto", "art", "photo":
	default:
		cfg.Style = "auto"
	}
	return cfg
}

// GetDeepModelConfig returns the deep model configuration with defaults applied.
func (c *Config) GetDeepModelConfig() DeepModelConfig {
	cfg := c.DeepModel
	if cfg.CacheDir == "" {
		cfg.CacheDir = filepath.Join(xdg.CacheHome, appName, "models")
	}
	return cfg
}
