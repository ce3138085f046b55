package gl

import (
	"context"

	"github.com/tetratelabs/wazero"
	"go.uber.org/zap"

	"github.com/woxQAQ/wasm-gl-bridge/pkg/glenum"
)

type bridgeKey struct{}

// WithBridge returns a context carrying b. Guest calls made with this
// context reach b from every gl import.
func WithBridge(ctx context.Context, b *Bridge) context.Context {
	return context.WithValue(ctx, bridgeKey{}, b)
}

// BridgeFromContext returns the bridge stored by WithBridge, or nil.
func BridgeFromContext(ctx context.Context) *Bridge {
	b, _ := ctx.Value(bridgeKey{}).(*Bridge)
	return b
}

// Exporter registers the gl imports on the "env" host module. The imports
// are shared by every instance; each call finds its instance's Bridge in
// the call context.
type Exporter struct {
	logger *zap.Logger
}

// NewExporter creates the gl import exporter.
func NewExporter(logger *zap.Logger) *Exporter {
	return &Exporter{logger: logger.With(zap.String("component", "gl-exports"))}
}

func (e *Exporter) bridge(ctx context.Context, name string) *Bridge {
	b := BridgeFromContext(ctx)
	if b == nil {
		e.logger.Error("gl import called without a bridge", zap.String("function", name))
	}
	return b
}

// do runs fn against the call's bridge, if there is one.
func (e *Exporter) do(ctx context.Context, name string, fn func(*Bridge)) {
	if b := e.bridge(ctx, name); b != nil {
		fn(b)
	}
}

// create runs a creation call and returns its handle, or 0 without a bridge.
func (e *Exporter) create(ctx context.Context, name string, fn func(*Bridge) Handle) uint32 {
	if b := e.bridge(ctx, name); b != nil {
		return uint32(fn(b))
	}
	return 0
}

// ExportFunctions registers glEnable through glUniformMatrix4fv.
func (e *Exporter) ExportFunctions(builder wazero.HostModuleBuilder) {
	builder.NewFunctionBuilder().
		WithFunc(func(ctx context.Context, capability uint32) {
			e.do(ctx, "glEnable", func(b *Bridge) { b.Enable(glenum.Enum(capability)) })
		}).
		WithParameterNames("cap").
		Export("glEnable")

	builder.NewFunctionBuilder().
		WithFunc(func(ctx context.Context, capability uint32) {
			e.do(ctx, "glDisable", func(b *Bridge) { b.Disable(glenum.Enum(capability)) })
		}).
		WithParameterNames("cap").
		Export("glDisable")

	builder.NewFunctionBuilder().
		WithFunc(func(ctx context.Context, fn uint32) {
			e.do(ctx, "glDepthFunc", func(b *Bridge) { b.DepthFunc(glenum.Enum(fn)) })
		}).
		WithParameterNames("func").
		Export("glDepthFunc")

	builder.NewFunctionBuilder().
		WithFunc(func(ctx context.Context, x, y, w, h int32) {
			e.do(ctx, "glViewport", func(b *Bridge) { b.Viewport(x, y, w, h) })
		}).
		WithParameterNames("x", "y", "width", "height").
		Export("glViewport")

	builder.NewFunctionBuilder().
		WithFunc(func(ctx context.Context, r, g, bl, a float32) {
			e.do(ctx, "glClearColor", func(b *Bridge) { b.ClearColor(r, g, bl, a) })
		}).
		WithParameterNames("r", "g", "b", "a").
		Export("glClearColor")

	builder.NewFunctionBuilder().
		WithFunc(func(ctx context.Context, d float32) {
			e.do(ctx, "glClearDepth", func(b *Bridge) { b.ClearDepth(d) })
		}).
		WithParameterNames("depth").
		Export("glClearDepth")

	builder.NewFunctionBuilder().
		WithFunc(func(ctx context.Context, mask uint32) {
			e.do(ctx, "glClear", func(b *Bridge) { b.Clear(mask) })
		}).
		WithParameterNames("mask").
		Export("glClear")

	builder.NewFunctionBuilder().
		WithFunc(func(ctx context.Context) uint32 {
			return e.create(ctx, "glCreateBuffer", (*Bridge).CreateBuffer)
		}).
		WithResultNames("buffer").
		Export("glCreateBuffer")

	builder.NewFunctionBuilder().
		WithFunc(func(ctx context.Context, target, buffer uint32) {
			e.do(ctx, "glBindBuffer", func(b *Bridge) { b.BindBuffer(glenum.Enum(target), Handle(buffer)) })
		}).
		WithParameterNames("target", "buffer").
		Export("glBindBuffer")

	builder.NewFunctionBuilder().
		WithFunc(func(ctx context.Context, target, count, offset, usage uint32) {
			e.do(ctx, "glBufferData", func(b *Bridge) {
				b.BufferData(glenum.Enum(target), count, offset, glenum.Enum(usage))
			})
		}).
		WithParameterNames("target", "count", "offset", "usage").
		Export("glBufferData")

	builder.NewFunctionBuilder().
		WithFunc(func(ctx context.Context) uint32 {
			return e.create(ctx, "glCreateVertexArray", (*Bridge).CreateVertexArray)
		}).
		WithResultNames("vao").
		Export("glCreateVertexArray")

	builder.NewFunctionBuilder().
		WithFunc(func(ctx context.Context, vao uint32) {
			e.do(ctx, "glBindVertexArray", func(b *Bridge) { b.BindVertexArray(Handle(vao)) })
		}).
		WithParameterNames("vao").
		Export("glBindVertexArray")

	builder.NewFunctionBuilder().
		WithFunc(func(ctx context.Context, index uint32) {
			e.do(ctx, "glEnableVertexAttribArray", func(b *Bridge) { b.EnableVertexAttribArray(index) })
		}).
		WithParameterNames("index").
		Export("glEnableVertexAttribArray")

	builder.NewFunctionBuilder().
		WithFunc(func(ctx context.Context, index uint32, size int32, typ, normalized uint32, stride, offset int32) {
			e.do(ctx, "glVertexAttribPointer", func(b *Bridge) {
				b.VertexAttribPointer(index, size, glenum.Enum(typ), normalized != 0, stride, offset)
			})
		}).
		WithParameterNames("index", "size", "type", "normalized", "stride", "offset").
		Export("glVertexAttribPointer")

	builder.NewFunctionBuilder().
		WithFunc(func(ctx context.Context, mode uint32, count int32, typ uint32, offset int32) {
			e.do(ctx, "glDrawElements", func(b *Bridge) {
				b.DrawElements(glenum.Enum(mode), count, glenum.Enum(typ), offset)
			})
		}).
		WithParameterNames("mode", "count", "type", "offset").
		Export("glDrawElements")

	builder.NewFunctionBuilder().
		WithFunc(func(ctx context.Context, typ uint32) uint32 {
			return e.create(ctx, "glCreateShader", func(b *Bridge) Handle { return b.CreateShader(glenum.Enum(typ)) })
		}).
		WithParameterNames("type").
		WithResultNames("shader").
		Export("glCreateShader")

	builder.NewFunctionBuilder().
		WithFunc(func(ctx context.Context, shader, length, offset uint32) {
			e.do(ctx, "glShaderSource", func(b *Bridge) { b.ShaderSource(Handle(shader), length, offset) })
		}).
		WithParameterNames("shader", "length", "offset").
		Export("glShaderSource")

	builder.NewFunctionBuilder().
		WithFunc(func(ctx context.Context, shader uint32) {
			e.do(ctx, "glCompileShader", func(b *Bridge) { b.CompileShader(Handle(shader)) })
		}).
		WithParameterNames("shader").
		Export("glCompileShader")

	builder.NewFunctionBuilder().
		WithFunc(func(ctx context.Context) uint32 {
			return e.create(ctx, "glCreateProgram", (*Bridge).CreateProgram)
		}).
		WithResultNames("program").
		Export("glCreateProgram")

	builder.NewFunctionBuilder().
		WithFunc(func(ctx context.Context, program, shader uint32) {
			e.do(ctx, "glAttachShader", func(b *Bridge) { b.AttachShader(Handle(program), Handle(shader)) })
		}).
		WithParameterNames("program", "shader").
		Export("glAttachShader")

	builder.NewFunctionBuilder().
		WithFunc(func(ctx context.Context, program uint32) {
			e.do(ctx, "glLinkProgram", func(b *Bridge) { b.LinkProgram(Handle(program)) })
		}).
		WithParameterNames("program").
		Export("glLinkProgram")

	builder.NewFunctionBuilder().
		WithFunc(func(ctx context.Context, program uint32) {
			e.do(ctx, "glUseProgram", func(b *Bridge) { b.UseProgram(Handle(program)) })
		}).
		WithParameterNames("program").
		Export("glUseProgram")

	builder.NewFunctionBuilder().
		WithFunc(func(ctx context.Context, program, length, offset uint32) uint32 {
			return e.create(ctx, "glGetUniformLocation", func(b *Bridge) Handle {
				return b.GetUniformLocation(Handle(program), length, offset)
			})
		}).
		WithParameterNames("program", "length", "offset").
		WithResultNames("location").
		Export("glGetUniformLocation")

	builder.NewFunctionBuilder().
		WithFunc(func(ctx context.Context, location, transpose, offset uint32) {
			e.do(ctx, "glUniformMatrix4fv", func(b *Bridge) {
				b.UniformMatrix4fv(Handle(location), transpose != 0, offset)
			})
		}).
		WithParameterNames("location", "transpose", "offset").
		Export("glUniformMatrix4fv")
}
