package gl_test

import (
	"context"
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tetratelabs/wazero"
	"github.com/wippyai/wasm-runtime/wat"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/woxQAQ/wasm-gl-bridge/internal/gl"
	"github.com/woxQAQ/wasm-gl-bridge/internal/gl/softgl"
	"github.com/woxQAQ/wasm-gl-bridge/internal/wasm"
	"github.com/woxQAQ/wasm-gl-bridge/pkg/glenum"
)

const vertexSource = `#version 300 es
uniform mat4 uMVP;
in vec3 aPos;
void main() {
	gl_Position = uMVP * vec4(aPos, 1.0);
}
`

const fragmentSource = `#version 300 es
precision mediump float;
out vec4 color;
void main() {
	color = vec4(1.0);
}
`

// newMemory returns one page of real guest memory.
func newMemory(t *testing.T) *wasm.Memory {
	t.Helper()
	ctx := context.Background()

	bin, err := wat.Compile(`(module (memory (export "memory") 1))`)
	require.NoError(t, err)

	rt := wazero.NewRuntime(ctx)
	t.Cleanup(func() { rt.Close(ctx) })

	mod, err := rt.Instantiate(ctx, bin)
	require.NoError(t, err)
	return wasm.NewMemory(mod)
}

type fixture struct {
	mem    *wasm.Memory
	sgl    *softgl.Context
	bridge *gl.Bridge
}

func newFixture(t *testing.T, opts gl.Options, logger *zap.Logger) *fixture {
	t.Helper()
	if logger == nil {
		logger = zaptest.NewLogger(t)
	}
	mem := newMemory(t)
	sgl := softgl.New(softgl.Options{Width: 640, Height: 480}, logger)
	return &fixture{mem: mem, sgl: sgl, bridge: gl.NewBridge(sgl, mem, opts, logger)}
}

func (f *fixture) put(t *testing.T, offset uint32, data []byte) {
	t.Helper()
	require.True(t, f.mem.Raw().Write(offset, data))
}

func (f *fixture) putFloats(t *testing.T, offset uint32, fs []float32) {
	t.Helper()
	buf := make([]byte, 4*len(fs))
	for i, v := range fs {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	f.put(t, offset, buf)
}

func (f *fixture) putIndices(t *testing.T, offset uint32, idx []uint16) {
	t.Helper()
	buf := make([]byte, 2*len(idx))
	for i, v := range idx {
		binary.LittleEndian.PutUint16(buf[i*2:], v)
	}
	f.put(t, offset, buf)
}

func TestBufferHandlesAndBinding(t *testing.T) {
	f := newFixture(t, gl.Options{}, nil)
	b := f.bridge

	h1, h2, h3 := b.CreateBuffer(), b.CreateBuffer(), b.CreateBuffer()
	assert.Equal(t, []gl.Handle{1, 2, 3}, []gl.Handle{h1, h2, h3})

	second, ok := b.Buffers().Resolve(h2)
	require.True(t, ok)

	b.BindBuffer(glenum.ArrayBuffer, h2)
	assert.Same(t, second, f.sgl.BoundBuffer(glenum.ArrayBuffer))

	b.BindBuffer(glenum.ArrayBuffer, gl.NullHandle)
	assert.Nil(t, f.sgl.BoundBuffer(glenum.ArrayBuffer))

	// Unknown handles resolve to null rather than failing.
	b.BindBuffer(glenum.ArrayBuffer, 42)
	assert.Nil(t, f.sgl.BoundBuffer(glenum.ArrayBuffer))
	assert.Equal(t, glenum.NoError, f.sgl.GetError())
}

func TestBufferDataInterpretation(t *testing.T) {
	f := newFixture(t, gl.Options{}, nil)
	b := f.bridge

	f.putFloats(t, 0, []float32{-1, -1, 0, 1, -1, 0, 0, 1, 0})
	f.putIndices(t, 64, []uint16{0, 1, 2})

	vbo, ibo := b.CreateBuffer(), b.CreateBuffer()

	b.BindBuffer(glenum.ArrayBuffer, vbo)
	b.BufferData(glenum.ArrayBuffer, 9, 0, glenum.StaticDraw)
	vertices := f.sgl.BoundBuffer(glenum.ArrayBuffer)
	require.NotNil(t, vertices)
	assert.Equal(t, []float32{-1, -1, 0, 1, -1, 0, 0, 1, 0}, vertices.Floats)
	assert.Nil(t, vertices.Indices)
	assert.Equal(t, 36, vertices.ByteLen)

	b.BindBuffer(glenum.ElementArrayBuffer, ibo)
	b.BufferData(glenum.ElementArrayBuffer, 3, 64, glenum.StaticDraw)
	indices := f.sgl.BoundBuffer(glenum.ElementArrayBuffer)
	require.NotNil(t, indices)
	assert.Equal(t, []uint16{0, 1, 2}, indices.Indices)
	assert.Equal(t, 6, indices.ByteLen)

	stats := f.sgl.Stats()
	assert.Equal(t, 2, stats.Uploads)
	assert.Equal(t, 42, stats.UploadedBytes)
}

func TestBufferDataOutOfRangePanics(t *testing.T) {
	f := newFixture(t, gl.Options{}, nil)
	b := f.bridge
	b.BindBuffer(glenum.ArrayBuffer, b.CreateBuffer())

	defer func() {
		r := recover()
		require.NotNil(t, r)
		err, ok := r.(error)
		require.True(t, ok)
		assert.True(t, errors.Is(err, wasm.ErrOutOfRange))
	}()
	b.BufferData(glenum.ArrayBuffer, 16, wasm.PageSize-8, glenum.StaticDraw)
}

func TestShaderSourceDecodeIsCachedByOffset(t *testing.T) {
	f := newFixture(t, gl.Options{}, nil)
	b := f.bridge
	f.put(t, 128, []byte("abcd"))

	s1 := b.CreateShader(glenum.VertexShader)
	s2 := b.CreateShader(glenum.VertexShader)
	b.ShaderSource(s1, 4, 128)
	b.ShaderSource(s2, 2, 128)

	first, _ := b.Shaders().Resolve(s1)
	second, _ := b.Shaders().Resolve(s2)
	assert.Equal(t, "abcd", first.(*softgl.Shader).Source)
	assert.Equal(t, "abcd", second.(*softgl.Shader).Source)
}

func TestShaderSourceKeyedPolicy(t *testing.T) {
	f := newFixture(t, gl.Options{CachePolicy: gl.CacheKeyed}, nil)
	b := f.bridge
	f.put(t, 128, []byte("abcd"))

	s1 := b.CreateShader(glenum.VertexShader)
	s2 := b.CreateShader(glenum.VertexShader)
	b.ShaderSource(s1, 4, 128)
	b.ShaderSource(s2, 2, 128)

	second, _ := b.Shaders().Resolve(s2)
	assert.Equal(t, "ab", second.(*softgl.Shader).Source)
	assert.Equal(t, gl.CacheKeyed, b.Decoder().Policy())
}

func TestCompileShaderFailureIsLogged(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	f := newFixture(t, gl.Options{}, zap.New(core))
	b := f.bridge

	src := "void main() {"
	f.put(t, 0, []byte(src))

	sh := b.CreateShader(glenum.FragmentShader)
	b.ShaderSource(sh, uint32(len(src)), 0)
	assert.NotPanics(t, func() { b.CompileShader(sh) })

	entries := logs.FilterMessage("Shader compilation failed").All()
	require.Len(t, entries, 1)
	infoLog, ok := entries[0].ContextMap()["info_log"].(string)
	require.True(t, ok)
	assert.Contains(t, infoLog, "unexpected end of source")
}

func TestCompileShaderSuccessIsQuiet(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	f := newFixture(t, gl.Options{}, zap.New(core))
	b := f.bridge
	f.put(t, 0, []byte(vertexSource))

	sh := b.CreateShader(glenum.VertexShader)
	b.ShaderSource(sh, uint32(len(vertexSource)), 0)
	b.CompileShader(sh)

	assert.Zero(t, logs.Len())
}

// linkProgram builds and links a program from vertexSource and
// fragmentSource and returns its handle.
func TestBufferDataHugeCountPanics(t *testing.T) {
	tests := []struct {
		name   string
		target glenum.Enum
		count  uint32
	}{
		{"floats", glenum.ArrayBuffer, 0x40000001},
		{"indices", glenum.ElementArrayBuffer, 0x80000001},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, gl.Options{}, nil)
			b := f.bridge
			b.BindBuffer(tt.target, b.CreateBuffer())

			defer func() {
				r := recover()
				require.NotNil(t, r)
				err, ok := r.(error)
				require.True(t, ok)
				var accessErr *wasm.MemoryAccessError
				assert.True(t, errors.As(err, &accessErr))
				assert.True(t, errors.Is(err, wasm.ErrOutOfRange))
				assert.Zero(t, f.sgl.Stats().Uploads)
			}()
			b.BufferData(tt.target, tt.count, 0, glenum.StaticDraw)
		})
	}
}

func linkProgram(t *testing.T, f *fixture) gl.Handle {
	t.Helper()
	b := f.bridge

	f.put(t, 1024, []byte(vertexSource))
	f.put(t, 2048, []byte(fragmentSource))

	vs := b.CreateShader(glenum.VertexShader)
	b.ShaderSource(vs, uint32(len(vertexSource)), 1024)
	b.CompileShader(vs)

	fs := b.CreateShader(glenum.FragmentShader)
	b.ShaderSource(fs, uint32(len(fragmentSource)), 2048)
	b.CompileShader(fs)

	p := b.CreateProgram()
	b.AttachShader(p, vs)
	b.AttachShader(p, fs)
	b.LinkProgram(p)
	return p
}

func TestUseProgramNullHandleUnbinds(t *testing.T) {
	f := newFixture(t, gl.Options{}, nil)
	b := f.bridge

	p := linkProgram(t, f)
	linked, ok := b.Programs().Resolve(p)
	require.True(t, ok)

	b.UseProgram(p)
	assert.Same(t, linked, f.sgl.CurrentProgram())

	b.UseProgram(gl.NullHandle)
	assert.Nil(t, f.sgl.CurrentProgram())
	assert.Equal(t, glenum.NoError, f.sgl.GetError())
}

func TestLinkProgramFailureIsLogged(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	f := newFixture(t, gl.Options{}, zap.New(core))
	b := f.bridge

	p := b.CreateProgram()
	b.LinkProgram(p)

	entries := logs.FilterMessage("Program link failed").All()
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].ContextMap()["info_log"], "vertex and a fragment shader")
}

func TestUniformMatrixUpload(t *testing.T) {
	f := newFixture(t, gl.Options{}, nil)
	b := f.bridge

	p := linkProgram(t, f)
	b.UseProgram(p)

	name := "uMVP"
	f.put(t, 4096, []byte(name))
	loc := b.GetUniformLocation(p, uint32(len(name)), 4096)
	assert.Equal(t, gl.Handle(1), loc)

	identity := []float32{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1}
	f.putFloats(t, 8192, identity)
	b.UniformMatrix4fv(loc, false, 8192)

	obj, _ := b.Locations().Resolve(loc)
	assert.Equal(t, identity, obj.(*softgl.UniformLocation).Uniform.Value)

	// The float view reads through, so a rewrite at the same offset is seen.
	f.putFloats(t, 8192, []float32{2})
	b.UniformMatrix4fv(loc, false, 8192)
	assert.Equal(t, float32(2), obj.(*softgl.UniformLocation).Uniform.Value[0])
	assert.Equal(t, glenum.NoError, f.sgl.GetError())
}

func TestUnknownUniformGetsHandle(t *testing.T) {
	f := newFixture(t, gl.Options{}, nil)
	b := f.bridge
	p := linkProgram(t, f)

	f.put(t, 4096, []byte("uMissing"))
	loc := b.GetUniformLocation(p, 8, 4096)
	assert.Equal(t, gl.Handle(1), loc)

	obj, ok := b.Locations().Resolve(loc)
	assert.True(t, ok)
	assert.Nil(t, obj)

	assert.NotPanics(t, func() { b.UniformMatrix4fv(gl.NullHandle, false, 0) })
	assert.NotPanics(t, func() { b.UniformMatrix4fv(loc, false, 0) })
}

func TestBindVertexArrayCompat(t *testing.T) {
	f := newFixture(t, gl.Options{}, nil)
	b := f.bridge

	buf := b.CreateBuffer()
	vao := b.CreateVertexArray()
	require.Equal(t, gl.Handle(1), vao)

	// Resolves buffers[0], which the context rejects as a vertex array.
	b.BindVertexArray(vao)
	assert.Nil(t, f.sgl.BoundVertexArray())
	assert.Equal(t, glenum.InvalidOperation, f.sgl.GetError())

	calls := f.sgl.Calls()
	last := calls[len(calls)-1]
	assert.Equal(t, "bindVertexArray", last.Name)
	bound, _ := b.Buffers().Resolve(buf)
	assert.Same(t, bound, last.Args[0])
}

func TestBindVertexArrayFixed(t *testing.T) {
	f := newFixture(t, gl.Options{VertexArrayBind: gl.BindFixed}, nil)
	b := f.bridge

	b.CreateBuffer()
	first := b.CreateVertexArray()
	second := b.CreateVertexArray()

	b.BindVertexArray(first)
	want, _ := b.VertexArrays().Resolve(first)
	assert.Same(t, want, f.sgl.BoundVertexArray())

	b.BindVertexArray(second)
	want, _ = b.VertexArrays().Resolve(second)
	assert.Same(t, want, f.sgl.BoundVertexArray())

	b.BindVertexArray(gl.NullHandle)
	assert.Nil(t, f.sgl.BoundVertexArray())
	assert.Equal(t, glenum.NoError, f.sgl.GetError())
}

func TestDrawTriangle(t *testing.T) {
	f := newFixture(t, gl.Options{VertexArrayBind: gl.BindFixed}, nil)
	b := f.bridge

	p := linkProgram(t, f)
	f.putFloats(t, 0, []float32{-1, -1, 0, 1, -1, 0, 0, 1, 0})
	f.putIndices(t, 64, []uint16{0, 1, 2})

	b.Enable(glenum.DepthTest)
	b.DepthFunc(glenum.Lequal)
	b.Viewport(0, 0, 320, 240)
	b.ClearColor(0, 0, 0, 1)
	b.ClearDepth(1)
	b.Clear(glenum.ColorBufferBit | glenum.DepthBufferBit)

	vao := b.CreateVertexArray()
	b.BindVertexArray(vao)

	vbo := b.CreateBuffer()
	b.BindBuffer(glenum.ArrayBuffer, vbo)
	b.BufferData(glenum.ArrayBuffer, 9, 0, glenum.StaticDraw)
	b.EnableVertexAttribArray(0)
	b.VertexAttribPointer(0, 3, glenum.Float, false, 0, 0)

	ibo := b.CreateBuffer()
	b.BindBuffer(glenum.ElementArrayBuffer, ibo)
	b.BufferData(glenum.ElementArrayBuffer, 3, 64, glenum.StaticDraw)

	b.UseProgram(p)
	b.DrawElements(glenum.Triangles, 3, glenum.UnsignedShort, 0)

	assert.Equal(t, glenum.NoError, f.sgl.GetError())
	assert.True(t, f.sgl.IsEnabled(glenum.DepthTest))
	assert.Equal(t, glenum.Lequal, f.sgl.CurrentDepthFunc())
	assert.Equal(t, [4]int32{0, 0, 320, 240}, f.sgl.CurrentViewport())

	stats := f.sgl.Stats()
	assert.Equal(t, 1, stats.Clears)
	assert.Equal(t, 1, stats.DrawCalls)
	assert.Equal(t, 1, stats.Triangles)
}

func TestExporterWithoutBridge(t *testing.T) {
	ctx := context.Background()
	assert.Nil(t, gl.BridgeFromContext(ctx))

	f := newFixture(t, gl.Options{}, nil)
	ctx = gl.WithBridge(ctx, f.bridge)
	assert.Same(t, f.bridge, gl.BridgeFromContext(ctx))
}
