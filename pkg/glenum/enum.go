package glenum

import "fmt"

// WebGL2 enumerants shared by the import surface and the software context.
// Values match the WebGL2RenderingContext constants, so a guest compiled
// against a browser host passes the same numbers here.

// Enum is a GL enumerant as it crosses the Wasm boundary.
type Enum uint32

// Boolean values returned by parameter queries.
const (
	False int32 = 0
	True  int32 = 1
)

// Clear mask bits.
const (
	DepthBufferBit   uint32 = 0x00000100
	StencilBufferBit uint32 = 0x00000400
	ColorBufferBit   uint32 = 0x00004000
)

// Primitive modes.
const (
	Points        Enum = 0x0000
	Lines         Enum = 0x0001
	LineLoop      Enum = 0x0002
	LineStrip     Enum = 0x0003
	Triangles     Enum = 0x0004
	TriangleStrip Enum = 0x0005
	TriangleFan   Enum = 0x0006
)

// Depth compare functions.
const (
	Never    Enum = 0x0200
	Less     Enum = 0x0201
	Equal    Enum = 0x0202
	Lequal   Enum = 0x0203
	Greater  Enum = 0x0204
	NotEqual Enum = 0x0205
	Gequal   Enum = 0x0206
	Always   Enum = 0x0207
)

// Capabilities.
const (
	CullFace          Enum = 0x0B44
	DepthTest         Enum = 0x0B71
	StencilTest       Enum = 0x0B90
	Dither            Enum = 0x0BD0
	Blend             Enum = 0x0BE2
	ScissorTest       Enum = 0x0C11
	PolygonOffsetFill Enum = 0x8037
	SampleCoverage    Enum = 0x80A0
	RasterizerDiscard Enum = 0x8C89
)

// Data types.
const (
	Byte          Enum = 0x1400
	UnsignedByte  Enum = 0x1401
	Short         Enum = 0x1402
	UnsignedShort Enum = 0x1403
	Int           Enum = 0x1404
	UnsignedInt   Enum = 0x1405
	Float         Enum = 0x1406
)

// Buffer targets and usages.
const (
	ArrayBuffer        Enum = 0x8892
	ElementArrayBuffer Enum = 0x8893
	StreamDraw         Enum = 0x88E0
	StaticDraw         Enum = 0x88E4
	DynamicDraw        Enum = 0x88E8
)

// Shader and program parameters.
const (
	FragmentShader Enum = 0x8B30
	VertexShader   Enum = 0x8B31
	DeleteStatus   Enum = 0x8B80
	CompileStatus  Enum = 0x8B81
	LinkStatus     Enum = 0x8B82
	ShaderType     Enum = 0x8B4F
)

// Error codes.
const (
	NoError          Enum = 0
	InvalidEnum      Enum = 0x0500
	InvalidValue     Enum = 0x0501
	InvalidOperation Enum = 0x0502
	OutOfMemory      Enum = 0x0505
)

var names = map[Enum]string{
	CullFace:           "CULL_FACE",
	DepthTest:          "DEPTH_TEST",
	StencilTest:        "STENCIL_TEST",
	Dither:             "DITHER",
	Blend:              "BLEND",
	ScissorTest:        "SCISSOR_TEST",
	PolygonOffsetFill:  "POLYGON_OFFSET_FILL",
	SampleCoverage:     "SAMPLE_COVERAGE",
	RasterizerDiscard:  "RASTERIZER_DISCARD",
	Never:              "NEVER",
	Less:               "LESS",
	Equal:              "EQUAL",
	Lequal:             "LEQUAL",
	Greater:            "GREATER",
	NotEqual:           "NOTEQUAL",
	Gequal:             "GEQUAL",
	Always:             "ALWAYS",
	Byte:               "BYTE",
	UnsignedByte:       "UNSIGNED_BYTE",
	Short:              "SHORT",
	UnsignedShort:      "UNSIGNED_SHORT",
	Int:                "INT",
	UnsignedInt:        "UNSIGNED_INT",
	Float:              "FLOAT",
	ArrayBuffer:        "ARRAY_BUFFER",
	ElementArrayBuffer: "ELEMENT_ARRAY_BUFFER",
	StreamDraw:         "STREAM_DRAW",
	StaticDraw:         "STATIC_DRAW",
	DynamicDraw:        "DYNAMIC_DRAW",
	FragmentShader:     "FRAGMENT_SHADER",
	VertexShader:       "VERTEX_SHADER",
	DeleteStatus:       "DELETE_STATUS",
	CompileStatus:      "COMPILE_STATUS",
	LinkStatus:         "LINK_STATUS",
	ShaderType:         "SHADER_TYPE",
	InvalidEnum:        "INVALID_ENUM",
	InvalidValue:       "INVALID_VALUE",
	InvalidOperation:   "INVALID_OPERATION",
	OutOfMemory:        "OUT_OF_MEMORY",
}

// String returns the WebGL constant name, or the hex value when the
// enumerant is not one this package knows.
func (e Enum) String() string {
	if n, ok := names[e]; ok {
		return n
	}
	return fmt.Sprintf("0x%04X", uint32(e))
}

// IsCapability reports whether e can be passed to enable/disable.
func (e Enum) IsCapability() bool {
	switch e {
	case CullFace, DepthTest, StencilTest, Dither, Blend, ScissorTest,
		PolygonOffsetFill, SampleCoverage, RasterizerDiscard:
		return true
	}
	return false
}

// IsBufferTarget reports whether e is a buffer binding point.
func (e Enum) IsBufferTarget() bool {
	return e == ArrayBuffer || e == ElementArrayBuffer
}

// IsCompareFunc reports whether e is a depth compare function.
func (e Enum) IsCompareFunc() bool {
	return e >= Never && e <= Always
}

// IsDrawMode reports whether e is a primitive mode.
func (e Enum) IsDrawMode() bool {
	return e <= TriangleFan
}
