// Package app wires configuration, backends and services into one
// application shared by the CLI, the web server and the desktop front end.
package app

import (
	"context"
	"fmt"
	"os"

	"image-upscaler/internal/backends"
	"image-upscaler/internal/backends/classical"
	"image-upscaler/internal/backends/deepmodel"
	"image-upscaler/internal/backends/enhanced"
	"image-upscaler/internal/backends/remote"
	"image-upscaler/internal/config"
	"image-upscaler/internal/engine"
	"image-upscaler/internal/logger"
	"image-upscaler/internal/modelcache"
	"image-upscaler/internal/models"
	"image-upscaler/internal/pipeline"
	"image-upscaler/internal/processing/chain"
	"image-upscaler/internal/processing/filters"
	"image-upscaler/internal/services"
)

const (
	AppName    = "Image Upscaler"
	AppID      = "io.github.image-upscaler"
	AppVersion = "1.0.0"
)

type Application struct {
	Config     *config.Config
	Logger     logger.Logger
	Registry   *backends.Registry
	Engine     *engine.Engine
	Processing *services.ProcessingService
	Images     *services.ImageService
	Loader     *pipeline.Loader
	ModelCache *modelcache.Cache

	deep *deepmodel.Backend
}

// NewLogger builds the zerolog adapter described by the [log] section.
func NewLogger(cfg *config.Config) logger.Logger {
	level, err := logger.ParseLevel(cfg.Log.Level)
	log := logger.New(cfg.Log.Format, level)
	if err != nil {
		log.Warning("Application", "unknown log level, using info", map[string]interface{}{
			"level": cfg.Log.Level,
		})
	}
	return log
}

// New probes every backend once and builds the services on top of the
// resulting registry.
func New(ctx context.Context, cfg *config.Config, log logger.Logger) (*Application, error) {
	if log == nil {
		log = logger.Nop{}
	}

	a := &Application{Config: cfg, Logger: log}

	deepCfg := cfg.GetDeepModelConfig()
	cache, err := modelcache.Open(deepCfg.CacheDir, deepCfg.BaseURL, modelcache.WithLogger(log))
	if err != nil {
		log.Warning("Application", "model cache unavailable", map[string]interface{}{
			"dir":   deepCfg.CacheDir,
			"error": err.Error(),
		})
	} else {
		a.ModelCache = cache
	}

	var store deepmodel.WeightStore
	if a.ModelCache != nil {
		store = a.ModelCache
	}
	a.deep = deepmodel.New(store, deepmodel.DefaultCatalog(), log)

	remoteCfg := cfg.GetRemoteConfig()
	remoteBackend := remote.New(remote.Config{
		Enabled: remoteCfg.Enabled,
		URL:     remoteCfg.URL,
		APIKey:  remoteCfg.APIKey,
		Timeout: remoteCfg.Timeout,
		Noise:   remoteCfg.Noise,
		Style:   remoteCfg.Style,
	})

	probed := []backends.Backend{remoteBackend, enhanced.New(enhanced.DefaultParams()), classical.New()}
	if deepCfg.Enabled {
		probed = append([]backends.Backend{a.deep}, probed...)
	}

	a.Registry = backends.NewProber(log, probed...).Probe(ctx)
	if !deepCfg.Enabled {
		a.Registry.Register(a.deep, false, "disabled in config")
	}

	a.Engine, err = engine.New(a.Registry, log)
	if err != nil {
		a.Close()
		return nil, err
	}

	upscaleCfg := cfg.GetUpscaleConfig()
	a.Loader = pipeline.NewLoader(upscaleCfg.MaxSide, log)
	saver := pipeline.NewSaver(log)
	a.Processing = services.NewProcessingService(a.Engine, filters.NewEnhancementChain(log), saver, upscaleCfg.Workers, log)
	a.Images = services.NewImageService(a.Loader, saver)

	log.Info("Application", "initialized", map[string]interface{}{
		"version":   AppVersion,
		"available": a.Registry.AvailableCapabilities(),
		"workers":   a.Processing.GetWorkerCount(),
	})
	return a, nil
}

// DefaultRequest returns the request settings configured for this install.
func (a *Application) DefaultRequest() services.Request {
	upscaleCfg := a.Config.GetUpscaleConfig()
	outputCfg := a.Config.GetOutputConfig()
	remoteCfg := a.Config.GetRemoteConfig()
	postCfg := a.Config.GetPostProcessConfig()

	tier, err := models.ParseQualityTier(upscaleCfg.DefaultTier)
	if err != nil {
		tier = models.TierHigh
	}
	if raw := a.Config.Upscale.DefaultTier; raw != "" {
		if _, err := models.ParseQualityTier(raw); err != nil {
			a.Logger.Warning("Application", "invalid default_tier in config, using fallback", map[string]interface{}{
				"default_tier": raw,
				"fallback":     string(tier),
			})
		}
	}

	opts := backends.DefaultOptions()
	opts.Noise = remoteCfg.Noise
	opts.Style = remoteCfg.Style

	return services.Request{
		Scale:    models.ScaleFactor(upscaleCfg.DefaultScale),
		Tier:     tier,
		Options:  opts,
		Enhance:  *postCfg.Enabled,
		Settings: SettingsFromConfig(postCfg),
		Output:   pipeline.EncodeOptions{Format: outputCfg.Format, Quality: outputCfg.JPEGQuality},
		Prefix:   outputCfg.Prefix,
	}
}

// SettingsFromConfig maps the [postprocess] section onto chain settings. A
// factor of 1.0 or less switches the step off.
func SettingsFromConfig(cfg config.PostProcessConfig) chain.Settings {
	return chain.Settings{
		Denoise:          cfg.Denoise,
		DenoiseSize:      cfg.DenoiseSize,
		Sharpen:          cfg.Sharpen > chain.MinSharpen,
		SharpenFactor:    cfg.Sharpen,
		Contrast:         cfg.Contrast > chain.MinContrast,
		ContrastFactor:   cfg.Contrast,
		Saturation:       cfg.Saturation > chain.MinSaturation,
		SaturationFactor: cfg.Saturation,
	}.Clamped()
}

// Close releases loaded networks and the model index.
func (a *Application) Close() error {
	var firstErr error
	if a.deep != nil {
		if err := a.deep.Close(); err != nil {
			firstErr = err
		}
	}
	if a.ModelCache != nil {
		if err := a.ModelCache.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close model cache: %w", err)
		}
		a.ModelCache = nil
	}
	return firstErr
}

// LoadConfig loads configuration, exiting the process with a message when
// the files cannot be parsed.
func LoadConfig(path string) *config.Config {
	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	return cfg
}
