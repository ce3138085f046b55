package payload

import (
	"sort"
	"sync"

	"go.uber.org/zap"
)

// Registry manages loaded payloads.
type Registry struct {
	sync.RWMutex
	payloads map[string]*Payload // name -> payload
	logger   *zap.Logger
}

// NewRegistry creates a new payload registry.
func NewRegistry(logger *zap.Logger) *Registry {
	return &Registry{
		payloads: make(map[string]*Payload),
		logger:   logger.With(zap.String("component", "payload-registry")),
	}
}

// Register adds a payload to the registry.
func (r *Registry) Register(p *Payload) error {
	r.Lock()
	defer r.Unlock()

	name := p.Manifest.Name

	// Check for duplicates
	if _, exists := r.payloads[name]; exists {
		return &PayloadAlreadyRegisteredError{PayloadName: name}
	}

	r.payloads[name] = p

	r.logger.Info("Payload registered",
		zap.String("name", name),
		zap.Strings("imports", p.Manifest.Imports),
	)

	return nil
}

// Replace registers p, dropping any payload with the same name first.
func (r *Registry) Replace(p *Payload) {
	r.Unregister(p.Manifest.Name)
	// Cannot collide after Unregister.
	_ = r.Register(p)
}

// Get retrieves a payload by name.
func (r *Registry) Get(name string) (*Payload, bool) {
	r.RLock()
	defer r.RUnlock()

	p, ok := r.payloads[name]
	return p, ok
}

// List returns all registered payloads sorted by name.
func (r *Registry) List() []*Payload {
	r.RLock()
	defer r.RUnlock()

	result := make([]*Payload, 0, len(r.payloads))
	for _, p := range r.payloads {
		result = append(result, p)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name() < result[j].Name() })
	return result
}

// Unregister removes a payload from the registry.
func (r *Registry) Unregister(name string) {
	r.Lock()
	defer r.Unlock()

	if _, ok := r.payloads[name]; !ok {
		return
	}
	delete(r.payloads, name)

	r.logger.Info("Payload unregistered", zap.String("name", name))
}

// Count returns the number of registered payloads.
func (r *Registry) Count() int {
	r.RLock()
	defer r.RUnlock()

	return len(r.payloads)
}
