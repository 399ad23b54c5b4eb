// Package engine picks the best available backend for a request and falls
// back down the candidate list until one succeeds.
package engine

import (
	"context"
	"fmt"
	"time"

	"image-upscaler/internal/backends"
	"image-upscaler/internal/logger"
	"image-upscaler/internal/models"
)

type Engine struct {
	registry *backends.Registry
	logger   logger.Logger
}

// New requires the classical backend to be registered, since it terminates
// every candidate list.
func New(registry *backends.Registry, log logger.Logger) (*Engine, error) {
	if registry == nil {
		return nil, fmt.Errorf("registry is nil")
	}
	if _, err := registry.Get(models.ClassicalResample); err != nil {
		return nil, fmt.Errorf("classical backend must be registered: %w", err)
	}
	if log == nil {
		log = logger.Nop{}
	}
	return &Engine{registry: registry, logger: log}, nil
}

// Registry exposes the probed capabilities.
func (e *Engine) Registry() *backends.Registry {
	return e.registry
}

// Plan lists the candidates that would be attempted, in order.
func (e *Engine) Plan(tier models.QualityTier, scale models.ScaleFactor) []models.Capability {
	var plan []models.Capability
	for _, name := range Candidates(tier) {
		if backend, ok := e.usable(name, scale); ok {
			plan = append(plan, backend.Name())
		}
	}
	return plan
}

// SelectAndUpscale tries candidates in order and returns the first success.
// Backend failures are logged and recorded; only an AllBackendsFailedError,
// ErrInvalidInput or the context error leave this function.
func (e *Engine) SelectAndUpscale(ctx context.Context, img *models.Image, scale models.ScaleFactor,
	tier models.QualityTier, opts backends.Options) (*models.UpscaleResult, error) {
	if err := backends.ValidateInput(img, scale); err != nil {
		return nil, err
	}

	start := time.Now()
	var (
		attempted []models.Capability
		attempts  []models.Attempt
		lastErr   error
	)

	for _, name := range Candidates(tier) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		backend, ok := e.usable(name, scale)
		if !ok {
			continue
		}

		attempted = append(attempted, name)
		out, err := e.attempt(ctx, backend, img, scale, opts)
		if err == nil {
			e.logger.Info("Engine", "upscale completed", map[string]interface{}{
				"backend":  string(name),
				"scale":    scale.String(),
				"tier":     string(tier),
				"input":    fmt.Sprintf("%dx%d", img.Width, img.Height),
				"output":   fmt.Sprintf("%dx%d", out.Width, out.Height),
				"duration": time.Since(start).String(),
			})
			return &models.UpscaleResult{
				Image:    out,
				Backend:  name,
				Attempts: attempts,
				Duration: time.Since(start),
			}, nil
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}

		lastErr = err
		attempts = append(attempts, models.Attempt{Backend: name, Error: err.Error()})
		e.logger.Warning("Engine", "backend failed, falling back", map[string]interface{}{
			"backend": string(name),
			"error":   err.Error(),
		})
	}

	return nil, &backends.AllBackendsFailedError{Attempted: attempted, Last: lastErr}
}

// usable reports whether a candidate may be attempted for this scale.
// Classical is never skipped.
func (e *Engine) usable(name models.Capability, scale models.ScaleFactor) (backends.Backend, bool) {
	if !e.registry.Available(name) {
		return nil, false
	}
	backend, err := e.registry.Get(name)
	if err != nil {
		return nil, false
	}
	if name != models.ClassicalResample && !backend.ScaleRange().Contains(scale) {
		return nil, false
	}
	return backend, true
}

func (e *Engine) attempt(ctx context.Context, backend backends.Backend, img *models.Image,
	scale models.ScaleFactor, opts backends.Options) (out *models.Image, err error) {
	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = backends.Processing(backend.Name(), "upscale", fmt.Errorf("panic: %v", r))
		}
	}()

	out, err = backend.Upscale(ctx, img, scale, opts)
	if err != nil {
		return nil, err
	}

	w, h := scale.TargetSize(img.Width, img.Height)
	if out.Empty() || out.Width != w || out.Height != h {
		return nil, backends.Processing(backend.Name(), "upscale",
			fmt.Errorf("produced %s, want %dx%d", out, w, h))
	}
	return out, nil
}
