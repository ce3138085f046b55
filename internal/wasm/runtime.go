package wasm

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/tetratelabs/wazero"
	"go.uber.org/zap"
)

// PageSize is the linear-memory growth unit in bytes.
const PageSize = 65536

// Runtime owns the wazero runtime shared by every payload the host runs.
type Runtime struct {
	runtime wazero.Runtime

	// Compiled module cache (key: module name/path -> *CompiledModule).
	modules sync.Map

	// Live guest instances (key: instance ID -> api.Module), closed on shutdown.
	instances sync.Map
	live      atomic.Int32

	config *RuntimeConfig
	logger *zap.Logger

	closeOnce sync.Once
	closed    chan struct{}
}

// RuntimeConfig holds runtime configuration.
type RuntimeConfig struct {
	// Upper bound on guest linear memory (in pages, 64KB each).
	// Growth past this limit fails the way memory.grow does.
	MemoryPages uint32

	// Trace every guest function call to stderr.
	DebugEnabled bool

	// Persistent compilation cache directory; empty keeps the cache in memory.
	CacheDir string

	// Maximum number of live instances; 0 means unlimited.
	MaxInstances int

	// Close guest calls when their context is done. Required for execution
	// timeouts.
	CloseOnContextDone bool
}

// CompiledModule wraps a wazero.CompiledModule with metadata.
type CompiledModule struct {
	Module wazero.CompiledModule

	Name      string
	Source    string // file path, URL or identifier
	SizeBytes int64

	CompiledAt int64
}

// NewRuntime creates the wazero runtime.
func NewRuntime(ctx context.Context, logger *zap.Logger, config *RuntimeConfig) (*Runtime, error) {
	if config == nil {
		config = DefaultRuntimeConfig()
	}

	rc := wazero.NewRuntimeConfig().
		WithCloseOnContextDone(config.CloseOnContextDone)
	if config.MemoryPages > 0 {
		rc = rc.WithMemoryLimitPages(config.MemoryPages)
	}
	if config.CacheDir != "" {
		cache, err := wazero.NewCompilationCacheWithDir(config.CacheDir)
		if err != nil {
			return nil, fmt.Errorf("failed to open compilation cache '%s': %w", config.CacheDir, err)
		}
		rc = rc.WithCompilationCache(cache)
	}

	runtime := &Runtime{
		runtime: wazero.NewRuntimeWithConfig(ctx, rc),
		config:  config,
		logger:  logger.With(zap.String("component", "wasm-runtime")),
		closed:  make(chan struct{}),
	}

	logger.Info("Wasm runtime initialized",
		zap.Uint32("memory_pages", config.MemoryPages),
		zap.Bool("debug_enabled", config.DebugEnabled),
		zap.String("cache_dir", config.CacheDir),
		zap.Int("max_instances", config.MaxInstances),
	)

	return runtime, nil
}

// DefaultRuntimeConfig returns sensible defaults.
func DefaultRuntimeConfig() *RuntimeConfig {
	return &RuntimeConfig{
		MemoryPages:  256, // 16MB
		DebugEnabled: false,
		CacheDir:     "",
		MaxInstances: 100,
	}
}

// Close shuts down every live instance and then the runtime.
// Safe to call multiple times.
func (r *Runtime) Close(ctx context.Context) error {
	var err error
	r.closeOnce.Do(func() {
		r.logger.Info("Shutting down Wasm runtime")

		r.instances.Range(func(key, value any) bool {
			if inst, ok := value.(interface{ Close(context.Context) error }); ok {
				if closeErr := inst.Close(ctx); closeErr != nil {
					r.logger.Warn("Failed to close instance",
						zap.String("instance_id", key.(string)),
						zap.Error(closeErr),
					)
				}
			}
			return true
		})

		err = r.runtime.Close(ctx)

		close(r.closed)
		r.logger.Info("Wasm runtime shutdown complete")
	})

	return err
}

// Config returns the configuration the runtime was built with.
func (r *Runtime) Config() *RuntimeConfig {
	return r.config
}

// GetCompiledModule retrieves a compiled module from cache.
func (r *Runtime) GetCompiledModule(name string) (*CompiledModule, bool) {
	if val, ok := r.modules.Load(name); ok {
		if mod, ok := val.(*CompiledModule); ok {
			return mod, true
		}
	}
	return nil, false
}

// StoreCompiledModule stores a compiled module in cache.
func (r *Runtime) StoreCompiledModule(module *CompiledModule) {
	r.modules.Store(module.Name, module)
}

// EvictCompiledModule drops a compiled module so the next load recompiles it.
func (r *Runtime) EvictCompiledModule(ctx context.Context, name string) {
	val, ok := r.modules.LoadAndDelete(name)
	if !ok {
		return
	}
	if mod, ok := val.(*CompiledModule); ok && mod.Module != nil {
		if err := mod.Module.Close(ctx); err != nil {
			r.logger.Warn("Failed to close evicted module",
				zap.String("module", name),
				zap.Error(err),
			)
		}
	}
	r.logger.Debug("Compiled module evicted", zap.String("module", name))
}

// GetInstance retrieves an active instance.
func (r *Runtime) GetInstance(instanceID string) (any, bool) {
	return r.instances.Load(instanceID)
}

// StoreInstance tracks an active instance.
func (r *Runtime) StoreInstance(instanceID string, instance any) {
	if _, loaded := r.instances.LoadOrStore(instanceID, instance); !loaded {
		r.live.Add(1)
	}
}

// DeleteInstance removes an instance from tracking.
func (r *Runtime) DeleteInstance(instanceID string) {
	if _, loaded := r.instances.LoadAndDelete(instanceID); loaded {
		r.live.Add(-1)
	}
}

// InstanceCount returns the number of tracked instances.
func (r *Runtime) InstanceCount() int {
	return int(r.live.Load())
}

// IsClosed returns whether the runtime has been closed.
func (r *Runtime) IsClosed() bool {
	select {
	case <-r.closed:
		return true
	default:
		return false
	}
}
