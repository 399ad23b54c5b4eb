package app

import (
	"context"

	"image-upscaler/internal/shutdown"
)

// RegisterShutdown hands the application's releasable resources to m. The
// model cache is registered first so it is closed last.
func (a *Application) RegisterShutdown(m *shutdown.Manager) {
	if a.ModelCache != nil {
		cache := a.ModelCache
		m.Register("model cache", shutdown.Closer(cache))
	}
	if a.deep != nil {
		deep := a.deep
		m.Register("deep model", shutdown.Func(func(context.Context) error {
			return deep.Close()
		}))
	}
}
