package payload

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/woxQAQ/wasm-gl-bridge/internal/config"
	"github.com/woxQAQ/wasm-gl-bridge/internal/wasm"
)

// Manager manages payload lifecycle.
type Manager struct {
	cfg         *config.HostConfig
	runtime     *wasm.Runtime
	loader      *Loader
	registry    *Registry
	instanceMgr *wasm.InstanceManager
	logger      *zap.Logger

	mu     sync.RWMutex
	loaded bool
}

// NewManager creates a new payload manager. The exporters make up the
// "env" module every payload links against.
func NewManager(
	cfg *config.HostConfig,
	runtime *wasm.Runtime,
	logger *zap.Logger,
	exporters ...wasm.FunctionExporter,
) *Manager {
	return &Manager{
		cfg:         cfg,
		runtime:     runtime,
		loader:      NewLoader(runtime, logger),
		registry:    NewRegistry(logger),
		instanceMgr: wasm.NewInstanceManager(runtime, logger, exporters...),
		logger:      logger.With(zap.String("component", "payload-manager")),
	}
}

// LoadAll discovers and loads all payloads from configured paths.
func (m *Manager) LoadAll(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.loaded {
		return fmt.Errorf("payloads already loaded")
	}

	m.logger.Info("Loading payloads",
		zap.Strings("paths", m.cfg.PayloadPaths),
	)

	payloads, err := m.loader.DiscoverPayloads(ctx, m.cfg.PayloadPaths)
	if err != nil {
		var none *NoPayloadsFoundError
		if errors.As(err, &none) {
			m.logger.Warn("No payloads found in configured paths",
				zap.Strings("paths", m.cfg.PayloadPaths),
			)
			m.loaded = true
			return nil
		}
		return err
	}

	for _, p := range payloads {
		if err := m.registry.Register(p); err != nil {
			m.logger.Error("Failed to register payload",
				zap.String("name", p.Manifest.Name),
				zap.Error(err),
			)
			continue
		}
	}

	m.loaded = true

	m.logger.Info("Payloads loaded successfully",
		zap.Int("count", len(payloads)),
	)

	return nil
}

// Load loads the payload in dir and registers it, replacing any payload
// with the same name.
func (m *Manager) Load(ctx context.Context, dir string) (*Payload, error) {
	p, err := m.loader.LoadPayload(ctx, dir)
	if err != nil {
		return nil, err
	}
	m.registry.Replace(p)
	return p, nil
}

// Reload recompiles a registered payload from its directory.
func (m *Manager) Reload(ctx context.Context, name string) (*Payload, error) {
	p, err := m.GetPayload(name)
	if err != nil {
		return nil, err
	}

	m.logger.Info("Reloading payload", zap.String("name", name))

	fresh, err := m.loader.ReloadPayload(ctx, p.Manifest.Dir())
	if err != nil {
		return nil, err
	}
	m.registry.Replace(fresh)
	return fresh, nil
}

// GetPayload retrieves a payload by name.
func (m *Manager) GetPayload(name string) (*Payload, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.registry.Get(name)
	if !ok {
		return nil, &PayloadNotFoundError{PayloadName: name}
	}

	return p, nil
}

// Default returns the payload named by the config, or the only one
// registered.
func (m *Manager) Default() (*Payload, error) {
	if m.cfg.Payload != "" {
		return m.GetPayload(m.cfg.Payload)
	}
	all := m.registry.List()
	switch len(all) {
	case 0:
		return nil, &NoPayloadsFoundError{Paths: m.cfg.PayloadPaths}
	case 1:
		return all[0], nil
	}
	return nil, fmt.Errorf("%d payloads loaded; choose one with the 'payload' setting", len(all))
}

// Instantiate creates a new instance of a payload.
func (m *Manager) Instantiate(ctx context.Context, name string) (*wasm.Instance, error) {
	p, err := m.GetPayload(name)
	if err != nil {
		return nil, err
	}

	return m.instanceMgr.Instantiate(ctx, &wasm.InstanceConfig{
		ModuleName:       p.Compiled.Name,
		ExecutionTimeout: m.cfg.Wasm.Timeout(),
	})
}

// Shutdown gracefully shuts down all payloads.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.logger.Info("Shutting down payload manager")

	// Runtime close handles instance cleanup
	if err := m.runtime.Close(ctx); err != nil {
		m.logger.Error("Failed to shutdown runtime", zap.Error(err))
		return err
	}

	m.logger.Info("Payload manager shutdown complete")
	return nil
}

// Registry returns the payload registry (for testing/inspection).
func (m *Manager) Registry() *Registry {
	return m.registry
}

// IsLoaded returns whether payloads have been loaded.
func (m *Manager) IsLoaded() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.loaded
}
