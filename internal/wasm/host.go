package wasm

import (
	"context"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"
)

// HostFunctionsImpl implements the console and memory imports of the "env"
// module.
type HostFunctionsImpl struct {
	logger *zap.Logger
}

// NewHostFunctions creates a new host functions implementation.
func NewHostFunctions(logger *zap.Logger) *HostFunctionsImpl {
	return &HostFunctionsImpl{
		logger: logger.With(zap.String("component", "wasm-host")),
	}
}

// ExportFunctions registers consoleLog, logMessage, malloc and free.
func (h *HostFunctionsImpl) ExportFunctions(builder wazero.HostModuleBuilder) {
	builder.NewFunctionBuilder().
		WithFunc(h.consoleLog).
		WithParameterNames("value").
		Export("consoleLog")

	builder.NewFunctionBuilder().
		WithFunc(h.logMessage).
		WithParameterNames("level", "ptr", "length").
		Export("logMessage")

	builder.NewFunctionBuilder().
		WithFunc(h.malloc).
		WithParameterNames("size").
		WithResultNames("ptr").
		Export("malloc")

	builder.NewFunctionBuilder().
		WithFunc(h.free).
		WithParameterNames("ptr").
		Export("free")
}

// consoleLog is the guest's console.log for a single number.
func (h *HostFunctionsImpl) consoleLog(ctx context.Context, mod api.Module, value int32) {
	h.logger.Info("console",
		zap.String("instance_id", mod.Name()),
		zap.Int32("value", value),
	)
}

// logMessage is called by Wasm modules to log messages.
// Signature: logMessage(level, ptr, length)
// level: 0 = debug, 1 = info, 2 = warn, 3 = error
func (h *HostFunctionsImpl) logMessage(ctx context.Context, mod api.Module, level uint32, ptr uint32, length uint32) {
	msg, ok := mod.Memory().Read(ptr, length)
	if !ok {
		h.logger.Error("Failed to read log message from Wasm memory",
			zap.Uint32("ptr", ptr),
			zap.Uint32("length", length),
		)
		return
	}

	instance := zap.String("instance_id", mod.Name())
	switch level {
	case 0:
		h.logger.Debug(string(msg), instance)
	case 1:
		h.logger.Info(string(msg), instance)
	case 2:
		h.logger.Warn(string(msg), instance)
	case 3:
		h.logger.Error(string(msg), instance)
	default:
		h.logger.Info(string(msg), instance)
	}
}

// malloc grows the caller's memory; see Memory.Allocate.
func (h *HostFunctionsImpl) malloc(ctx context.Context, mod api.Module, size uint32) uint32 {
	return NewMemory(mod).Allocate(size)
}

// free never reclaims anything.
func (h *HostFunctionsImpl) free(ctx context.Context, mod api.Module, ptr uint32) {
	NewMemory(mod).Release(ptr)
}
