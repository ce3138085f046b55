//go:build wasip1

package gl

import (
	"unsafe"

	"github.com/woxQAQ/wasm-gl-bridge/pkg/glenum"
)

type (
	Buffer          uint32
	VertexArray     uint32
	Shader          uint32
	Program         uint32
	UniformLocation uint32
)

// Log levels accepted by LogMessage.
const (
	LevelDebug uint32 = iota
	LevelInfo
	LevelWarn
	LevelError
)

func boolArg(v bool) uint32 {
	if v {
		return 1
	}
	return 0
}

func ptr[T any](p *T) uint32 {
	return uint32(uintptr(unsafe.Pointer(p)))
}

// ConsoleLog prints a number on the host console.
func ConsoleLog(value int32) { consoleLog(value) }

// LogMessage prints msg on the host log at level.
func LogMessage(level uint32, msg string) {
	if msg == "" {
		return
	}
	logMessage(level, ptr(unsafe.StringData(msg)), uint32(len(msg)))
}

// Malloc grows linear memory by enough pages for size bytes and returns the
// previous memory size in bytes, which is where the new space starts.
// It returns 0xFFFFFFFF when memory cannot grow.
//
// The Go runtime does not know about this space; use it only for data the
// Go heap never touches.
func Malloc(size uint32) uint32 { return malloc(size) }

// Free is accepted and ignored by the host.
func Free(p uint32) { free(p) }

func Enable(capability glenum.Enum)  { glEnable(uint32(capability)) }
func Disable(capability glenum.Enum) { glDisable(uint32(capability)) }
func DepthFunc(fn glenum.Enum)       { glDepthFunc(uint32(fn)) }
func ClearDepth(depth float32)       { glClearDepth(depth) }
func Clear(mask uint32)              { glClear(mask) }

func Viewport(x, y, width, height int32) { glViewport(x, y, width, height) }

func ClearColor(r, g, b, a float32) { glClearColor(r, g, b, a) }

func CreateBuffer() Buffer { return Buffer(glCreateBuffer()) }

func BindBuffer(target glenum.Enum, b Buffer) { glBindBuffer(uint32(target), uint32(b)) }

// BufferData uploads vertex data to the buffer bound to target.
func BufferData(target glenum.Enum, data []float32, usage glenum.Enum) {
	if len(data) == 0 {
		return
	}
	glBufferData(uint32(target), uint32(len(data)), ptr(&data[0]), uint32(usage))
}

// ElementData uploads 16-bit indices to the bound ELEMENT_ARRAY_BUFFER.
func ElementData(indices []uint16, usage glenum.Enum) {
	if len(indices) == 0 {
		return
	}
	glBufferData(uint32(glenum.ElementArrayBuffer), uint32(len(indices)), ptr(&indices[0]), uint32(usage))
}

func CreateVertexArray() VertexArray { return VertexArray(glCreateVertexArray()) }

func BindVertexArray(v VertexArray) { glBindVertexArray(uint32(v)) }

func EnableVertexAttribArray(index uint32) { glEnableVertexAttribArray(index) }

func VertexAttribPointer(index uint32, size int32, typ glenum.Enum, normalized bool, stride, offset int32) {
	glVertexAttribPointer(index, size, uint32(typ), boolArg(normalized), stride, offset)
}

func DrawElements(mode glenum.Enum, count int32, typ glenum.Enum, offset int32) {
	glDrawElements(uint32(mode), count, uint32(typ), offset)
}

func CreateShader(typ glenum.Enum) Shader { return Shader(glCreateShader(uint32(typ))) }

// ShaderSource sets a shader's source. src must stay at the same address
// for as long as the host may decode from it.
func ShaderSource(s Shader, src string) {
	glShaderSource(uint32(s), uint32(len(src)), ptr(unsafe.StringData(src)))
}

func CompileShader(s Shader) { glCompileShader(uint32(s)) }

func CreateProgram() Program { return Program(glCreateProgram()) }

func AttachShader(p Program, s Shader) { glAttachShader(uint32(p), uint32(s)) }

func LinkProgram(p Program) { glLinkProgram(uint32(p)) }

func UseProgram(p Program) { glUseProgram(uint32(p)) }

// GetUniformLocation returns a location handle; unknown names still get
// one, which uploads ignore.
func GetUniformLocation(p Program, name string) UniformLocation {
	return UniformLocation(glGetUniformLocation(uint32(p), uint32(len(name)), ptr(unsafe.StringData(name))))
}

// UniformMatrix4fv uploads a 4x4 matrix. The host reads m on every call.
func UniformMatrix4fv(loc UniformLocation, transpose bool, m *[16]float32) {
	glUniformMatrix4fv(uint32(loc), boolArg(transpose), ptr(m))
}
