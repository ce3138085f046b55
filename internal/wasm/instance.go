package wasm

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
	"go.uber.org/zap"
)

// HostModuleName is the import module every guest links its host calls
// against.
const HostModuleName = "env"

// FunctionExporter contributes functions to the "env" host module.
type FunctionExporter interface {
	ExportFunctions(wazero.HostModuleBuilder)
}

// InstanceManager creates and manages module instances.
type InstanceManager struct {
	runtime   *Runtime
	logger    *zap.Logger
	exporters []FunctionExporter

	hostOnce sync.Once
	hostErr  error
}

// NewInstanceManager creates a new instance manager. The exporters are
// installed into the shared "env" module the first time a guest is
// instantiated.
func NewInstanceManager(runtime *Runtime, logger *zap.Logger, exporters ...FunctionExporter) *InstanceManager {
	return &InstanceManager{
		runtime:   runtime,
		exporters: exporters,
		logger:    logger.With(zap.String("component", "wasm-instance")),
	}
}

// InstanceConfig holds configuration for creating instances.
type InstanceConfig struct {
	// Module name to instantiate.
	ModuleName string

	// Instance ID (if empty, generates a ULID).
	InstanceID string

	// Per-call deadline for exported functions; 0 disables it.
	ExecutionTimeout time.Duration
}

// Instance represents an instantiated Wasm module.
type Instance struct {
	module  api.Module
	runtime *Runtime

	ID        string
	Name      string
	CreatedAt int64

	timeout time.Duration

	mu      sync.Mutex
	exports map[string]api.Function
}

// Instantiate creates a new instance from a compiled module, linking it
// against the "env" host module.
func (m *InstanceManager) Instantiate(ctx context.Context, config *InstanceConfig) (*Instance, error) {
	compiled, ok := m.runtime.GetCompiledModule(config.ModuleName)
	if !ok {
		return nil, &ModuleNotFoundError{ModuleName: config.ModuleName}
	}

	if limit := m.runtime.config.MaxInstances; limit > 0 && m.runtime.InstanceCount() >= limit {
		return nil, &InstanceLimitError{Limit: limit}
	}

	if err := m.ensureHostModule(ctx); err != nil {
		return nil, err
	}

	instanceID := config.InstanceID
	if instanceID == "" {
		instanceID = generateInstanceID()
	}

	m.logger.Info("Instantiating Wasm module",
		zap.String("module", config.ModuleName),
		zap.String("instance_id", instanceID),
	)

	// Reactor-style guests initialise through _initialize; command-style
	// _start would run main before the entry point is called.
	moduleConfig := wazero.NewModuleConfig().
		WithName(instanceID).
		WithStartFunctions("_initialize")

	module, err := m.runtime.runtime.InstantiateModule(m.runtime.listenerContext(ctx), compiled.Module, moduleConfig)
	if err != nil {
		return nil, &InstantiationError{
			ModuleName: config.ModuleName,
			InstanceID: instanceID,
			Err:        err,
		}
	}

	if module.Memory() == nil {
		_ = module.Close(ctx)
		return nil, &InstantiationError{
			ModuleName: config.ModuleName,
			InstanceID: instanceID,
			Err:        errors.New("module does not export memory"),
		}
	}

	instance := &Instance{
		module:    module,
		runtime:   m.runtime,
		ID:        instanceID,
		Name:      config.ModuleName,
		CreatedAt: time.Now().Unix(),
		timeout:   config.ExecutionTimeout,
		exports:   cacheExportedFunctions(module),
	}

	m.runtime.StoreInstance(instanceID, module)

	m.logger.Info("Module instantiated successfully",
		zap.String("instance_id", instanceID),
		zap.Int("exported_functions", len(instance.exports)),
	)

	return instance, nil
}

// ensureHostModule instantiates WASI and the "env" module once per manager.
func (m *InstanceManager) ensureHostModule(ctx context.Context) error {
	m.hostOnce.Do(func() {
		if _, err := wasi_snapshot_preview1.Instantiate(ctx, m.runtime.runtime); err != nil {
			m.hostErr = &HostFunctionError{FunctionName: "wasi_snapshot_preview1", Err: err}
			return
		}

		builder := m.runtime.runtime.NewHostModuleBuilder(HostModuleName)
		for _, exp := range m.exporters {
			exp.ExportFunctions(builder)
		}
		if _, err := builder.Instantiate(ctx); err != nil {
			m.hostErr = &HostFunctionError{FunctionName: HostModuleName, Err: err}
			return
		}

		m.logger.Debug("Host module instantiated",
			zap.String("module", HostModuleName),
			zap.Int("exporters", len(m.exporters)),
		)
	})
	return m.hostErr
}

// Memory returns the instance's linear memory.
func (i *Instance) Memory() *Memory {
	return NewMemory(i.module)
}

// Module returns the underlying wazero module.
func (i *Instance) Module() api.Module {
	return i.module
}

// HasExport reports whether the guest exports a function with this name.
func (i *Instance) HasExport(name string) bool {
	_, ok := i.lookup(name)
	return ok
}

// Call invokes an exported function. The context is handed through to every
// host function the guest calls while it runs.
func (i *Instance) Call(ctx context.Context, name string, params ...uint64) ([]uint64, error) {
	fn, ok := i.lookup(name)
	if !ok {
		return nil, &FunctionNotFoundError{ModuleName: i.Name, FunctionName: name}
	}

	if i.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, i.timeout)
		defer cancel()
	}

	results, err := fn.Call(ctx, params...)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, &TimeoutError{Duration: i.timeout}
		}
		return nil, &ExecutionError{FunctionName: name, Err: err}
	}
	return results, nil
}

// Close closes the instance and releases resources.
func (i *Instance) Close(ctx context.Context) error {
	i.runtime.DeleteInstance(i.ID)
	return i.module.Close(ctx)
}

func (i *Instance) lookup(name string) (api.Function, bool) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if fn, ok := i.exports[name]; ok {
		return fn, true
	}
	fn := i.module.ExportedFunction(name)
	if fn == nil {
		return nil, false
	}
	i.exports[name] = fn
	return fn, true
}

// cacheExportedFunctions resolves every exported function up front.
func cacheExportedFunctions(module api.Module) map[string]api.Function {
	exports := make(map[string]api.Function)
	for name := range module.ExportedFunctionDefinitions() {
		if fn := module.ExportedFunction(name); fn != nil {
			exports[name] = fn
		}
	}
	return exports
}

func generateInstanceID() string {
	return fmt.Sprintf("inst-%s", ulid.Make())
}
