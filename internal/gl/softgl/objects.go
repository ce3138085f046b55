package softgl

import (
	"fmt"

	"github.com/woxQAQ/wasm-gl-bridge/pkg/glenum"
)

// Buffer is a buffer object.
type Buffer struct {
	ID     uint32
	Target glenum.Enum // first target it was bound to; 0 until then
	Usage  glenum.Enum
	// Contents of the last upload; exactly one is set.
	Indices []uint16
	Floats  []float32
	ByteLen int
}

func (b *Buffer) String() string { return fmt.Sprintf("WebGLBuffer(%d)", b.ID) }

// VertexArray is a vertex array object.
type VertexArray struct {
	ID uint32
}

func (v *VertexArray) String() string { return fmt.Sprintf("WebGLVertexArrayObject(%d)", v.ID) }

// Shader is a shader object.
type Shader struct {
	ID       uint32
	Type     glenum.Enum
	Source   string
	Compiled bool
	InfoLog  string
}

func (s *Shader) String() string { return fmt.Sprintf("WebGLShader(%d, %s)", s.ID, s.Type) }

// Program is a program object.
type Program struct {
	ID       uint32
	Shaders  []*Shader
	Linked   bool
	InfoLog  string
	Uniforms map[string]*Uniform
}

func (p *Program) String() string { return fmt.Sprintf("WebGLProgram(%d)", p.ID) }

// Uniform is an active uniform of a linked program.
type Uniform struct {
	Name  string
	Type  string
	Value []float32
}

// UniformLocation is a location handed out by GetUniformLocation.
type UniformLocation struct {
	Program *Program
	Uniform *Uniform
}

func (l *UniformLocation) String() string {
	return fmt.Sprintf("WebGLUniformLocation(%d, %s)", l.Program.ID, l.Uniform.Name)
}

// AttribPointer records a vertexAttribPointer call.
type AttribPointer struct {
	Size       int32
	Type       glenum.Enum
	Normalized bool
	Stride     int32
	Offset     int32
	Buffer     *Buffer
}

// Call is one entry of the call log.
type Call struct {
	Name string
	Args []any
}

func (c Call) String() string {
	return fmt.Sprintf("%s%v", c.Name, c.Args)
}
