package backends

import (
	"fmt"
	"sync"

	"image-upscaler/internal/models"
)

// CapabilityInfo is the user-facing description of one registered backend.
type CapabilityInfo struct {
	Name       models.Capability `json:"name"`
	Available  bool              `json:"available"`
	Reason     string            `json:"reason,omitempty"`
	ScaleRange models.ScaleRange `json:"scale_range"`
}

type registryEntry struct {
	backend   Backend
	available bool
	reason    string
}

// Registry maps capability names to adapters and their probed availability.
// It is filled once and then only read.
type Registry struct {
	entries map[models.Capability]*registryEntry
	order   []models.Capability
	mu      sync.RWMutex
}

func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[models.Capability]*registryEntry),
	}
}

// Register records an adapter with its availability. The classical backend
// is the terminal fallback and is always recorded as available.
func (r *Registry) Register(backend Backend, available bool, reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := backend.Name()
	if name == models.ClassicalResample {
		available = true
		reason = ""
	}

	if _, exists := r.entries[name]; !exists {
		r.order = append(r.order, name)
	}
	r.entries[name] = &registryEntry{
		backend:   backend,
		available: available,
		reason:    reason,
	}
}

// Available reports whether the capability is registered and usable.
func (r *Registry) Available(name models.Capability) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, exists := r.entries[name]
	return exists && entry.available
}

// Get returns the adapter for a capability regardless of availability.
func (r *Registry) Get(name models.Capability) (Backend, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if entry, exists := r.entries[name]; exists {
		return entry.backend, nil
	}

	return nil, fmt.Errorf("unknown backend: %s", name)
}

// AvailableCapabilities lists usable capabilities in registration order.
func (r *Registry) AvailableCapabilities() []models.Capability {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]models.Capability, 0, len(r.order))
	for _, name := range r.order {
		if r.entries[name].available {
			names = append(names, name)
		}
	}
	return names
}

// Describe lists every registered capability in registration order.
func (r *Registry) Describe() []CapabilityInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	infos := make([]CapabilityInfo, 0, len(r.order))
	for _, name := range r.order {
		entry := r.entries[name]
		infos = append(infos, CapabilityInfo{
			Name:       name,
			Available:  entry.available,
			Reason:     entry.reason,
			ScaleRange: entry.backend.ScaleRange(),
		})
	}
	return infos
}
