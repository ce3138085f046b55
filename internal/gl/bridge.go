package gl

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/woxQAQ/wasm-gl-bridge/pkg/glenum"
)

// VertexArrayBind selects how BindVertexArray resolves a non-zero handle.
type VertexArrayBind string

const (
	// BindCompat resolves the buffer table at the vertex-array table's
	// length, whatever handle was passed. Existing guests ran against this
	// behavior, so it is the default.
	BindCompat VertexArrayBind = "compat"

	// BindFixed resolves the vertex-array table at the given handle.
	BindFixed VertexArrayBind = "fixed"
)

// ParseVertexArrayBind validates a mode name. The empty string selects
// BindCompat.
func ParseVertexArrayBind(s string) (VertexArrayBind, error) {
	switch m := VertexArrayBind(strings.ToLower(s)); m {
	case "":
		return BindCompat, nil
	case BindCompat, BindFixed:
		return m, nil
	}
	return "", fmt.Errorf("unknown vertex array bind mode %q (must be one of: compat, fixed)", s)
}

// Options tune the bridge.
type Options struct {
	CachePolicy     CachePolicy
	VertexArrayBind VertexArrayBind
}

// Bridge translates handle/offset calls from one guest instance into calls
// on a Context. It is not safe for concurrent use; a guest instance runs
// one call at a time.
type Bridge struct {
	gl     Context
	mem    Memory
	dec    *Decoder
	opts   Options
	logger *zap.Logger

	buffers      *HandleTable
	vertexArrays *HandleTable
	shaders      *HandleTable
	programs     *HandleTable
	locations    *HandleTable
}

// NewBridge binds a graphics context to a guest's memory.
func NewBridge(ctx Context, mem Memory, opts Options, logger *zap.Logger) *Bridge {
	if opts.VertexArrayBind == "" {
		opts.VertexArrayBind = BindCompat
	}
	return &Bridge{
		gl:           ctx,
		mem:          mem,
		dec:          NewDecoder(mem, opts.CachePolicy),
		opts:         opts,
		logger:       logger.With(zap.String("component", "gl-bridge")),
		buffers:      NewHandleTable("buffer"),
		vertexArrays: NewHandleTable("vertex_array"),
		shaders:      NewHandleTable("shader"),
		programs:     NewHandleTable("program"),
		locations:    NewHandleTable("uniform_location"),
	}
}

// Context returns the graphics context calls are forwarded to.
func (b *Bridge) Context() Context { return b.gl }

// Decoder returns the string/float decoder.
func (b *Bridge) Decoder() *Decoder { return b.dec }

// Buffers returns the buffer handle table.
func (b *Bridge) Buffers() *HandleTable { return b.buffers }

// VertexArrays returns the vertex-array handle table.
func (b *Bridge) VertexArrays() *HandleTable { return b.vertexArrays }

// Shaders returns the shader handle table.
func (b *Bridge) Shaders() *HandleTable { return b.shaders }

// Programs returns the program handle table.
func (b *Bridge) Programs() *HandleTable { return b.programs }

// Locations returns the uniform-location handle table.
func (b *Bridge) Locations() *HandleTable { return b.locations }

func (b *Bridge) resolve(t *HandleTable, h Handle) Object {
	obj, _ := t.Resolve(h)
	return obj
}

// Pass-through state calls. Arguments are not validated here.

func (b *Bridge) Enable(capability glenum.Enum)  { b.gl.Enable(capability) }
func (b *Bridge) Disable(capability glenum.Enum) { b.gl.Disable(capability) }
func (b *Bridge) DepthFunc(fn glenum.Enum)       { b.gl.DepthFunc(fn) }
func (b *Bridge) ClearDepth(depth float32)       { b.gl.ClearDepth(depth) }
func (b *Bridge) Clear(mask uint32)              { b.gl.Clear(mask) }

func (b *Bridge) Viewport(x, y, width, height int32) {
	b.gl.Viewport(x, y, width, height)
}

func (b *Bridge) ClearColor(r, g, bl, a float32) {
	b.gl.ClearColor(r, g, bl, a)
}

func (b *Bridge) EnableVertexAttribArray(index uint32) {
	b.gl.EnableVertexAttribArray(index)
}

func (b *Bridge) VertexAttribPointer(index uint32, size int32, typ glenum.Enum, normalized bool, stride, offset int32) {
	b.gl.VertexAttribPointer(index, size, typ, normalized, stride, offset)
}

func (b *Bridge) DrawElements(mode glenum.Enum, count int32, typ glenum.Enum, offset int32) {
	b.gl.DrawElements(mode, count, typ, offset)
}

// CreateBuffer creates a buffer and returns its handle.
func (b *Bridge) CreateBuffer() Handle {
	return b.buffers.Add(b.gl.CreateBuffer())
}

// BindBuffer binds buffer h to target; NullHandle unbinds.
func (b *Bridge) BindBuffer(target glenum.Enum, h Handle) {
	b.gl.BindBuffer(target, b.resolve(b.buffers, h))
}

// BufferData uploads count elements starting at offset. Element buffers
// take 16-bit unsigned indices; every other target takes 32-bit floats.
// An out-of-range source panics with the memory error, trapping the guest.
func (b *Bridge) BufferData(target glenum.Enum, count, offset uint32, usage glenum.Enum) {
	var data ArrayBufferView
	if target == glenum.ElementArrayBuffer {
		idx, err := b.mem.ReadUint16s(offset, count)
		if err != nil {
			panic(err)
		}
		data = Uint16Array(idx)
	} else {
		fs, err := b.mem.ReadFloat32s(offset, count)
		if err != nil {
			panic(err)
		}
		data = Float32Array(fs)
	}
	b.gl.BufferData(target, data, usage)
}

// CreateVertexArray creates a vertex array and returns its handle.
func (b *Bridge) CreateVertexArray() Handle {
	return b.vertexArrays.Add(b.gl.CreateVertexArray())
}

// BindVertexArray binds vertex array h; NullHandle unbinds.
//
// Under BindCompat a non-zero handle resolves buffers[len(vertexArrays)-1]
// and that object, usually a buffer or nil, is what the context receives.
func (b *Bridge) BindVertexArray(h Handle) {
	if h == NullHandle {
		b.gl.BindVertexArray(nil)
		return
	}
	if b.opts.VertexArrayBind == BindFixed {
		b.gl.BindVertexArray(b.resolve(b.vertexArrays, h))
		return
	}
	b.gl.BindVertexArray(b.resolve(b.buffers, Handle(b.vertexArrays.Len())))
}

// CreateShader creates a shader of the given type and returns its handle.
func (b *Bridge) CreateShader(typ glenum.Enum) Handle {
	return b.shaders.Add(b.gl.CreateShader(typ))
}

// ShaderSource sets the source of shader h from length bytes at offset.
func (b *Bridge) ShaderSource(h Handle, length, offset uint32) {
	src, err := b.dec.String(offset, length)
	if err != nil {
		panic(err)
	}
	b.gl.ShaderSource(b.resolve(b.shaders, h), src)
}

// CompileShader compiles shader h. A failed compile is logged with the
// context's info log and otherwise ignored.
func (b *Bridge) CompileShader(h Handle) {
	shader := b.resolve(b.shaders, h)
	b.gl.CompileShader(shader)
	if b.gl.GetShaderParameter(shader, glenum.CompileStatus) == glenum.False {
		b.logger.Warn("Shader compilation failed",
			zap.Uint32("shader", uint32(h)),
			zap.String("info_log", b.gl.GetShaderInfoLog(shader)),
		)
	}
}

// CreateProgram creates a program and returns its handle.
func (b *Bridge) CreateProgram() Handle {
	return b.programs.Add(b.gl.CreateProgram())
}

// AttachShader attaches shader s to program p.
func (b *Bridge) AttachShader(p, s Handle) {
	b.gl.AttachShader(b.resolve(b.programs, p), b.resolve(b.shaders, s))
}

// LinkProgram links program h. Like compilation, a failed link is only
// logged.
func (b *Bridge) LinkProgram(h Handle) {
	program := b.resolve(b.programs, h)
	b.gl.LinkProgram(program)
	if b.gl.GetProgramParameter(program, glenum.LinkStatus) == glenum.False {
		b.logger.Warn("Program link failed",
			zap.Uint32("program", uint32(h)),
			zap.String("info_log", b.gl.GetProgramInfoLog(program)),
		)
	}
}

// UseProgram makes program h current; NullHandle clears it.
func (b *Bridge) UseProgram(h Handle) {
	b.gl.UseProgram(b.resolve(b.programs, h))
}

// GetUniformLocation looks up a uniform by the name stored at offset and
// returns a location handle. A null location still gets a handle.
func (b *Bridge) GetUniformLocation(p Handle, length, offset uint32) Handle {
	name, err := b.dec.String(offset, length)
	if err != nil {
		panic(err)
	}
	return b.locations.Add(b.gl.GetUniformLocation(b.resolve(b.programs, p), name))
}

// UniformMatrix4fv uploads the 4x4 matrix at offset to location h.
// NullHandle is ignored.
func (b *Bridge) UniformMatrix4fv(h Handle, transpose bool, offset uint32) {
	if h == NullHandle {
		return
	}
	view, err := b.dec.Floats(offset, 16)
	if err != nil {
		panic(err)
	}
	data, err := view.Floats()
	if err != nil {
		panic(err)
	}
	b.gl.UniformMatrix4fv(b.resolve(b.locations, h), transpose, data)
}
