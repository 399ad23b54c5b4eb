package backends

import (
	"context"
	"sync"
	"time"

	"image-upscaler/internal/logger"
)

const probeTimeout = 5 * time.Second

// Prober determines once per process which backends are usable.
type Prober struct {
	backends []Backend
	logger   logger.Logger

	once     sync.Once
	registry *Registry
}

func NewProber(log logger.Logger, backends ...Backend) *Prober {
	if log == nil {
		log = logger.Nop{}
	}
	return &Prober{
		backends: backends,
		logger:   log,
	}
}

// Probe runs every availability check on first use and returns the cached
// registry afterwards. Check failures mark a backend unavailable; they are
// never returned to the caller.
func (p *Prober) Probe(ctx context.Context) *Registry {
	p.once.Do(func() {
		p.registry = p.probeAll(ctx)
	})
	return p.registry
}

func (p *Prober) probeAll(ctx context.Context) *Registry {
	registry := NewRegistry()

	for _, backend := range p.backends {
		available, reason := p.probeOne(ctx, backend)
		registry.Register(backend, available, reason)

		fields := map[string]interface{}{
			"backend":   string(backend.Name()),
			"available": registry.Available(backend.Name()),
		}
		if reason != "" {
			fields["reason"] = reason
		}
		p.logger.Info("CapabilityProbe", "backend probed", fields)
	}

	return registry
}

func (p *Prober) probeOne(ctx context.Context, backend Backend) (available bool, reason string) {
	probeable, ok := backend.(Probeable)
	if !ok {
		return true, ""
	}

	probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			available, reason = false, "probe panicked"
		}
	}()

	if err := probeable.Probe(probeCtx); err != nil {
		return false, err.Error()
	}
	return true, ""
}
