// Package host runs payloads: it owns the Wasm runtime, links each instance
// against the console, memory and gl imports, and drives the entry point
// against a fresh graphics context.
package host

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/woxQAQ/wasm-gl-bridge/internal/config"
	"github.com/woxQAQ/wasm-gl-bridge/internal/gl"
	"github.com/woxQAQ/wasm-gl-bridge/internal/gl/softgl"
	"github.com/woxQAQ/wasm-gl-bridge/internal/payload"
	"github.com/woxQAQ/wasm-gl-bridge/internal/wasm"
)

type Host struct {
	cfg         *config.HostConfig
	logger      *zap.Logger
	glOpts      gl.Options
	wasmRuntime *wasm.Runtime
	payloads    *payload.Manager
}

// RunResult describes one completed entry point call.
type RunResult struct {
	Payload    string
	InstanceID string
	Entry      string

	// Raw results of the entry export. Value holds the first one as i32.
	Results  []uint64
	Value    int32
	HasValue bool

	Duration time.Duration
	Stats    softgl.Stats

	// Context and Bridge remain inspectable after the instance is closed.
	Context *softgl.Context
	Bridge  *gl.Bridge
}

func New(ctx context.Context, cfg *config.HostConfig, logger *zap.Logger) (*Host, error) {
	glOpts, err := cfg.GL.BridgeOptions()
	if err != nil {
		return nil, err
	}

	// Initialize Wasm runtime.
	wasmConfig := &wasm.RuntimeConfig{
		MemoryPages:        cfg.Wasm.MemoryPages,
		DebugEnabled:       cfg.Wasm.Debug,
		CacheDir:           cfg.Wasm.CacheDir,
		MaxInstances:       cfg.Wasm.MaxInstances,
		CloseOnContextDone: cfg.Wasm.ExecutionTimeout > 0,
	}

	wasmRuntime, err := wasm.NewRuntime(ctx, logger, wasmConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Wasm runtime: %w", err)
	}

	payloads := payload.NewManager(cfg, wasmRuntime, logger,
		wasm.NewHostFunctions(logger),
		gl.NewExporter(logger),
	)

	logger.Info("Host initialized",
		zap.Uint32("wasm_memory_pages", cfg.Wasm.MemoryPages),
		zap.String("wasm_cache_dir", cfg.Wasm.CacheDir),
		zap.String("decode_cache", string(glOpts.CachePolicy)),
		zap.String("vertex_array_bind", string(glOpts.VertexArrayBind)),
	)

	return &Host{
		cfg:         cfg,
		logger:      logger,
		glOpts:      glOpts,
		wasmRuntime: wasmRuntime,
		payloads:    payloads,
	}, nil
}

// Payloads returns the payload manager.
func (h *Host) Payloads() *payload.Manager {
	return h.payloads
}

// LoadPayloads discovers every payload under the configured paths.
func (h *Host) LoadPayloads(ctx context.Context) error {
	return h.payloads.LoadAll(ctx)
}

// RunDefault runs the configured payload, or the only one loaded.
func (h *Host) RunDefault(ctx context.Context) (*RunResult, error) {
	p, err := h.payloads.Default()
	if err != nil {
		return nil, err
	}
	return h.Run(ctx, p.Name())
}

// canvas returns the drawing buffer size for p.
func (h *Host) canvas(p *payload.Payload) softgl.Options {
	opts := softgl.Options{Width: h.cfg.Canvas.Width, Height: h.cfg.Canvas.Height}
	if p.Manifest.Canvas.Width > 0 {
		opts.Width = p.Manifest.Canvas.Width
	}
	if p.Manifest.Canvas.Height > 0 {
		opts.Height = p.Manifest.Canvas.Height
	}
	return opts
}

// Run instantiates a payload, binds a new graphics context to its memory
// and calls its entry export once. The instance is closed before Run
// returns.
//
// gl imports called from the guest's _initialize run before the bridge
// exists and are dropped with an error log.
func (h *Host) Run(ctx context.Context, name string) (*RunResult, error) {
	p, err := h.payloads.GetPayload(name)
	if err != nil {
		return nil, err
	}

	inst, err := h.payloads.Instantiate(ctx, name)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := inst.Close(ctx); err != nil {
			h.logger.Warn("Failed to close instance",
				zap.String("instance_id", inst.ID),
				zap.Error(err),
			)
		}
	}()

	logger := h.logger.With(
		zap.String("payload", name),
		zap.String("instance_id", inst.ID),
	)

	glctx := softgl.New(h.canvas(p), logger)
	bridge := gl.NewBridge(glctx, inst.Memory(), h.glOpts, logger)

	logger.Debug("Calling entry point", zap.String("entry", p.Entry()))

	start := time.Now()
	results, err := inst.Call(gl.WithBridge(ctx, bridge), p.Entry())
	if err != nil {
		logger.Error("Entry point failed",
			zap.String("entry", p.Entry()),
			zap.Error(err),
		)
		return nil, err
	}

	res := &RunResult{
		Payload:    name,
		InstanceID: inst.ID,
		Entry:      p.Entry(),
		Results:    results,
		Duration:   time.Since(start),
		Stats:      glctx.Stats(),
		Context:    glctx,
		Bridge:     bridge,
	}
	if len(results) > 0 {
		res.Value = int32(results[0])
		res.HasValue = true
	}

	fields := []zap.Field{
		zap.String("entry", p.Entry()),
		zap.Duration("duration", res.Duration),
		zap.Int("draw_calls", res.Stats.DrawCalls),
		zap.Int("gl_errors", res.Stats.Errors),
	}
	if res.HasValue {
		fields = append(fields, zap.Int32("value", res.Value))
	}
	logger.Info("Entry point returned", fields...)

	return res, nil
}

// Watch re-runs a payload every time its files change until ctx is done.
// Each outcome is passed to report.
func (h *Host) Watch(ctx context.Context, name string, report func(*RunResult, error)) error {
	p, err := h.payloads.GetPayload(name)
	if err != nil {
		return err
	}

	w, err := payload.NewWatcher(payload.DefaultDebounce, h.logger)
	if err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}
	defer w.Close()

	return w.Watch(ctx, p.Manifest, func(ctx context.Context) {
		if _, err := h.payloads.Reload(ctx, name); err != nil {
			report(nil, err)
			return
		}
		report(h.Run(ctx, name))
	})
}

// Close gracefully shuts down the host.
func (h *Host) Close(ctx context.Context) error {
	h.logger.Info("Shutting down host")

	if err := h.payloads.Shutdown(ctx); err != nil {
		return err
	}

	h.logger.Info("Host shutdown complete")
	return nil
}
