// Package gl exposes a WebGL2-style graphics context to a Wasm guest that
// can only pass integers and linear-memory offsets.
//
// Host objects (buffers, vertex arrays, shaders, programs, uniform
// locations) never cross the boundary. Each kind lives in an append-only
// HandleTable and the guest holds the 1-based position; 0 means null.
// Strings and float arrays are read out of linear memory by a Decoder.
package gl

import "github.com/woxQAQ/wasm-gl-bridge/pkg/glenum"

// Object is an opaque host-side graphics object. A nil Object is the null
// object the guest selects with handle 0.
type Object any

// ArrayBufferView is typed data handed to BufferData.
type ArrayBufferView interface {
	// ElementType is the GL data type of one element.
	ElementType() glenum.Enum
	// Len is the element count.
	Len() int
	// ByteLen is the size in bytes.
	ByteLen() int
}

// Uint16Array is index data for ELEMENT_ARRAY_BUFFER uploads.
type Uint16Array []uint16

func (a Uint16Array) ElementType() glenum.Enum { return glenum.UnsignedShort }
func (a Uint16Array) Len() int                 { return len(a) }
func (a Uint16Array) ByteLen() int             { return len(a) * 2 }

// Float32Array is vertex data for every other buffer target.
type Float32Array []float32

func (a Float32Array) ElementType() glenum.Enum { return glenum.Float }
func (a Float32Array) Len() int                 { return len(a) }
func (a Float32Array) ByteLen() int             { return len(a) * 4 }

// Context is the host graphics context the bridge forwards into. It mirrors
// the subset of WebGL2RenderingContext the import surface uses.
//
// Implementations report misuse the way a browser does: through their error
// queue and a logged warning, never by failing the call.
type Context interface {
	Enable(capability glenum.Enum)
	Disable(capability glenum.Enum)
	DepthFunc(fn glenum.Enum)
	Viewport(x, y, width, height int32)
	ClearColor(r, g, b, a float32)
	ClearDepth(depth float32)
	Clear(mask uint32)

	CreateBuffer() Object
	BindBuffer(target glenum.Enum, buffer Object)
	BufferData(target glenum.Enum, data ArrayBufferView, usage glenum.Enum)

	CreateVertexArray() Object
	BindVertexArray(vertexArray Object)
	EnableVertexAttribArray(index uint32)
	VertexAttribPointer(index uint32, size int32, typ glenum.Enum, normalized bool, stride, offset int32)
	DrawElements(mode glenum.Enum, count int32, typ glenum.Enum, offset int32)

	CreateShader(typ glenum.Enum) Object
	ShaderSource(shader Object, source string)
	CompileShader(shader Object)
	GetShaderParameter(shader Object, pname glenum.Enum) int32
	GetShaderInfoLog(shader Object) string

	CreateProgram() Object
	AttachShader(program, shader Object)
	LinkProgram(program Object)
	GetProgramParameter(program Object, pname glenum.Enum) int32
	GetProgramInfoLog(program Object) string
	UseProgram(program Object)
	GetUniformLocation(program Object, name string) Object
	UniformMatrix4fv(location Object, transpose bool, data []float32)
}
