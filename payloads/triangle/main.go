//go:build wasip1

//go:generate env GOOS=wasip1 GOARCH=wasm go build -buildmode=c-shared -o main.wasm .

// Command triangle draws one indexed triangle through the host's gl imports.
package main

import (
	"github.com/woxQAQ/wasm-gl-bridge/api/gl"
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
	color = vec4(1.0, 0.5, 0.2, 1.0);
}
`

var (
	vertices = []float32{
		-0.5, -0.5, 0,
		0.5, -0.5, 0,
		0, 0.5, 0,
	}
	indices = []uint16{0, 1, 2}
	mvp     = [16]float32{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
)

func shader(typ glenum.Enum, src string) gl.Shader {
	s := gl.CreateShader(typ)
	gl.ShaderSource(s, src)
	gl.CompileShader(s)
	return s
}

//go:wasmexport test
func test() int32 {
	gl.Enable(glenum.DepthTest)
	gl.DepthFunc(glenum.Lequal)
	gl.ClearColor(0.1, 0.1, 0.1, 1)
	gl.ClearDepth(1)
	gl.Clear(glenum.ColorBufferBit | glenum.DepthBufferBit)

	program := gl.CreateProgram()
	gl.AttachShader(program, shader(glenum.VertexShader, vertexSource))
	gl.AttachShader(program, shader(glenum.FragmentShader, fragmentSource))
	gl.LinkProgram(program)
	gl.UseProgram(program)

	vao := gl.CreateVertexArray()
	gl.BindVertexArray(vao)

	vbo := gl.CreateBuffer()
	gl.BindBuffer(glenum.ArrayBuffer, vbo)
	gl.BufferData(glenum.ArrayBuffer, vertices, glenum.StaticDraw)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointer(0, 3, glenum.Float, false, 0, 0)

	ibo := gl.CreateBuffer()
	gl.BindBuffer(glenum.ElementArrayBuffer, ibo)
	gl.ElementData(indices, glenum.StaticDraw)

	gl.UniformMatrix4fv(gl.GetUniformLocation(program, "uMVP"), false, &mvp)
	gl.DrawElements(glenum.Triangles, int32(len(indices)), glenum.UnsignedShort, 0)

	gl.LogMessage(gl.LevelInfo, "triangle drawn")
	return int32(len(indices) / 3)
}

func main() {}
