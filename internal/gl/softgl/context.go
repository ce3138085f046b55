// Package softgl is an in-process stand-in for a browser WebGL2 context.
//
// It keeps the object model and binding state a real context keeps, checks
// arguments the way WebGL2 implementations do, and reports misuse through
// GetError and a console-style warning. Nothing is rasterised; draws are
// validated and counted.
package softgl

import (
	"fmt"

	"github.com/chewxy/math32"
	"go.uber.org/zap"

	"github.com/woxQAQ/wasm-gl-bridge/internal/gl"
	"github.com/woxQAQ/wasm-gl-bridge/pkg/glenum"
)

// maxLoggedErrors matches the point where browsers stop printing WebGL
// warnings for a context.
const maxLoggedErrors = 32

// DefaultCallLogLimit is the call log size used when Options leaves it 0.
const DefaultCallLogLimit = 4096

// Options configure a context.
type Options struct {
	// Drawing buffer size; the initial viewport covers it.
	Width  int32
	Height int32

	// Number of calls kept in the call log. 0 selects DefaultCallLogLimit;
	// a negative value disables the log. Calls past the limit are counted
	// in Stats.DroppedCalls.
	CallLogLimit int
}

// Stats summarises what the guest did with the context.
type Stats struct {
	Clears        int
	DrawCalls     int
	Indices       int
	Triangles     int
	Uploads       int
	UploadedBytes int
	Errors        int
	DroppedCalls  int
}

// Context implements gl.Context in memory.
type Context struct {
	logger *zap.Logger
	opts   Options

	nextID uint32
	calls  []Call
	errs   []glenum.Enum
	logged int

	caps       map[glenum.Enum]bool
	depthFunc  glenum.Enum
	viewport   [4]int32
	clearColor [4]float32
	clearDepth float32

	arrayBuffer *Buffer
	vertexArray *VertexArray
	// Element buffer bindings live in vertex array state; nil key is the
	// default vertex array.
	elementBuffers map[*VertexArray]*Buffer
	program        *Program

	enabledAttribs map[uint32]bool
	attribs        map[uint32]*AttribPointer

	stats Stats
}

var _ gl.Context = (*Context)(nil)

// New creates a context with WebGL's initial state.
func New(opts Options, logger *zap.Logger) *Context {
	if opts.CallLogLimit == 0 {
		opts.CallLogLimit = DefaultCallLogLimit
	}
	return &Context{
		logger:         logger.With(zap.String("component", "softgl")),
		opts:           opts,
		caps:           map[glenum.Enum]bool{glenum.Dither: true},
		depthFunc:      glenum.Less,
		viewport:       [4]int32{0, 0, opts.Width, opts.Height},
		clearDepth:     1,
		elementBuffers: make(map[*VertexArray]*Buffer),
		enabledAttribs: make(map[uint32]bool),
		attribs:        make(map[uint32]*AttribPointer),
	}
}

func (c *Context) record(name string, args ...any) {
	if len(c.calls) >= c.opts.CallLogLimit {
		c.stats.DroppedCalls++
		return
	}
	c.calls = append(c.calls, Call{Name: name, Args: args})
}

// fail queues a GL error and prints it the way a browser console does.
func (c *Context) fail(code glenum.Enum, fn, msg string) {
	c.stats.Errors++
	queued := false
	for _, e := range c.errs {
		if e == code {
			queued = true
			break
		}
	}
	if !queued {
		c.errs = append(c.errs, code)
	}

	c.logged++
	switch {
	case c.logged <= maxLoggedErrors:
		c.logger.Warn(fmt.Sprintf("WebGL: %s: %s: %s", code, fn, msg))
	case c.logged == maxLoggedErrors+1:
		c.logger.Warn("WebGL: too many errors, no more errors will be reported to the console for this context.")
	}
}

func (c *Context) nextObjectID() uint32 {
	c.nextID++
	return c.nextID
}

// GetError pops the oldest queued error, or NO_ERROR.
func (c *Context) GetError() glenum.Enum {
	if len(c.errs) == 0 {
		return glenum.NoError
	}
	e := c.errs[0]
	c.errs = c.errs[1:]
	return e
}

// Calls returns the call log, at most Options.CallLogLimit entries.
func (c *Context) Calls() []Call {
	out := make([]Call, len(c.calls))
	copy(out, c.calls)
	return out
}

// Stats returns the running totals.
func (c *Context) Stats() Stats {
	return c.stats
}

func (c *Context) Enable(capability glenum.Enum) {
	c.record("enable", capability)
	if !capability.IsCapability() {
		c.fail(glenum.InvalidEnum, "enable", "invalid capability")
		return
	}
	c.caps[capability] = true
}

func (c *Context) Disable(capability glenum.Enum) {
	c.record("disable", capability)
	if !capability.IsCapability() {
		c.fail(glenum.InvalidEnum, "disable", "invalid capability")
		return
	}
	c.caps[capability] = false
}

// IsEnabled reports a capability's state.
func (c *Context) IsEnabled(capability glenum.Enum) bool {
	return c.caps[capability]
}

func (c *Context) DepthFunc(fn glenum.Enum) {
	c.record("depthFunc", fn)
	if !fn.IsCompareFunc() {
		c.fail(glenum.InvalidEnum, "depthFunc", "invalid function")
		return
	}
	c.depthFunc = fn
}

// CurrentDepthFunc returns the depth compare function.
func (c *Context) CurrentDepthFunc() glenum.Enum {
	return c.depthFunc
}

func (c *Context) Viewport(x, y, width, height int32) {
	c.record("viewport", x, y, width, height)
	if width < 0 || height < 0 {
		c.fail(glenum.InvalidValue, "viewport", "negative size")
		return
	}
	c.viewport = [4]int32{x, y, width, height}
}

// CurrentViewport returns x, y, width, height.
func (c *Context) CurrentViewport() [4]int32 {
	return c.viewport
}

func clamp01(v float32) float32 {
	if math32.IsNaN(v) {
		return 0
	}
	return math32.Min(math32.Max(v, 0), 1)
}

func (c *Context) ClearColor(r, g, b, a float32) {
	c.record("clearColor", r, g, b, a)
	c.clearColor = [4]float32{clamp01(r), clamp01(g), clamp01(b), clamp01(a)}
}

// CurrentClearColor returns the clamped clear color.
func (c *Context) CurrentClearColor() [4]float32 {
	return c.clearColor
}

func (c *Context) ClearDepth(depth float32) {
	c.record("clearDepth", depth)
	c.clearDepth = clamp01(depth)
}

// CurrentClearDepth returns the clamped clear depth.
func (c *Context) CurrentClearDepth() float32 {
	return c.clearDepth
}

func (c *Context) Clear(mask uint32) {
	c.record("clear", mask)
	valid := glenum.ColorBufferBit | glenum.DepthBufferBit | glenum.StencilBufferBit
	if mask&^valid != 0 {
		c.fail(glenum.InvalidValue, "clear", "invalid mask")
		return
	}
	c.stats.Clears++
}

func (c *Context) CreateBuffer() gl.Object {
	b := &Buffer{ID: c.nextObjectID()}
	c.record("createBuffer", b)
	return b
}

func (c *Context) BindBuffer(target glenum.Enum, buffer gl.Object) {
	c.record("bindBuffer", target, buffer)
	if !target.IsBufferTarget() {
		c.fail(glenum.InvalidEnum, "bindBuffer", "invalid target")
		return
	}

	var b *Buffer
	if buffer != nil {
		var ok bool
		if b, ok = buffer.(*Buffer); !ok {
			c.fail(glenum.InvalidOperation, "bindBuffer", "object does not belong to this context")
			return
		}
		// A buffer keeps the kind of its first binding: index buffers and
		// vertex buffers cannot be swapped.
		if b.Target == 0 {
			b.Target = target
		} else if (b.Target == glenum.ElementArrayBuffer) != (target == glenum.ElementArrayBuffer) {
			c.fail(glenum.InvalidOperation, "bindBuffer", "buffers can not be used with more than one target")
			return
		}
	}

	if target == glenum.ElementArrayBuffer {
		c.elementBuffers[c.vertexArray] = b
	} else {
		c.arrayBuffer = b
	}
}

// BoundBuffer returns the buffer bound to target.
func (c *Context) BoundBuffer(target glenum.Enum) *Buffer {
	if target == glenum.ElementArrayBuffer {
		return c.elementBuffers[c.vertexArray]
	}
	return c.arrayBuffer
}

func (c *Context) BufferData(target glenum.Enum, data gl.ArrayBufferView, usage glenum.Enum) {
	c.record("bufferData", target, data.ElementType(), data.Len(), usage)
	if !target.IsBufferTarget() {
		c.fail(glenum.InvalidEnum, "bufferData", "invalid target")
		return
	}
	switch usage {
	case glenum.StaticDraw, glenum.DynamicDraw, glenum.StreamDraw:
	default:
		c.fail(glenum.InvalidEnum, "bufferData", "invalid usage")
		return
	}
	b := c.BoundBuffer(target)
	if b == nil {
		c.fail(glenum.InvalidOperation, "bufferData", "no buffer")
		return
	}

	b.Usage = usage
	b.ByteLen = data.ByteLen()
	b.Indices, b.Floats = nil, nil
	switch d := data.(type) {
	case gl.Uint16Array:
		b.Indices = append([]uint16(nil), d...)
	case gl.Float32Array:
		b.Floats = append([]float32(nil), d...)
	}
	c.stats.Uploads++
	c.stats.UploadedBytes += b.ByteLen
}

func (c *Context) CreateVertexArray() gl.Object {
	v := &VertexArray{ID: c.nextObjectID()}
	c.record("createVertexArray", v)
	return v
}

func (c *Context) BindVertexArray(vertexArray gl.Object) {
	c.record("bindVertexArray", vertexArray)
	if vertexArray == nil {
		c.vertexArray = nil
		return
	}
	v, ok := vertexArray.(*VertexArray)
	if !ok {
		c.fail(glenum.InvalidOperation, "bindVertexArray", "object does not belong to this context")
		return
	}
	c.vertexArray = v
}

// BoundVertexArray returns the bound vertex array, nil for the default one.
func (c *Context) BoundVertexArray() *VertexArray {
	return c.vertexArray
}

func (c *Context) EnableVertexAttribArray(index uint32) {
	c.record("enableVertexAttribArray", index)
	c.enabledAttribs[index] = true
}

func (c *Context) VertexAttribPointer(index uint32, size int32, typ glenum.Enum, normalized bool, stride, offset int32) {
	c.record("vertexAttribPointer", index, size, typ, normalized, stride, offset)
	if size < 1 || size > 4 || stride < 0 || stride > 255 || offset < 0 {
		c.fail(glenum.InvalidValue, "vertexAttribPointer", "index, size, stride or offset out of range")
		return
	}
	switch typ {
	case glenum.Byte, glenum.UnsignedByte, glenum.Short, glenum.UnsignedShort,
		glenum.Int, glenum.UnsignedInt, glenum.Float:
	default:
		c.fail(glenum.InvalidEnum, "vertexAttribPointer", "invalid type")
		return
	}
	if c.arrayBuffer == nil && offset != 0 {
		c.fail(glenum.InvalidOperation, "vertexAttribPointer", "no ARRAY_BUFFER is bound and offset is non-zero")
		return
	}
	c.attribs[index] = &AttribPointer{
		Size:       size,
		Type:       typ,
		Normalized: normalized,
		Stride:     stride,
		Offset:     offset,
		Buffer:     c.arrayBuffer,
	}
}

// Attrib returns the pointer recorded for an attribute index.
func (c *Context) Attrib(index uint32) (*AttribPointer, bool) {
	a, ok := c.attribs[index]
	return a, ok
}

func indexSize(typ glenum.Enum) int {
	switch typ {
	case glenum.UnsignedByte:
		return 1
	case glenum.UnsignedShort:
		return 2
	case glenum.UnsignedInt:
		return 4
	}
	return 0
}

func (c *Context) DrawElements(mode glenum.Enum, count int32, typ glenum.Enum, offset int32) {
	c.record("drawElements", mode, count, typ, offset)
	if !mode.IsDrawMode() {
		c.fail(glenum.InvalidEnum, "drawElements", "invalid draw mode")
		return
	}
	size := indexSize(typ)
	if size == 0 {
		c.fail(glenum.InvalidEnum, "drawElements", "invalid type")
		return
	}
	if count < 0 || offset < 0 {
		c.fail(glenum.InvalidValue, "drawElements", "count or offset < 0")
		return
	}
	if offset%int32(size) != 0 {
		c.fail(glenum.InvalidOperation, "drawElements", "offset must be a multiple of the type size")
		return
	}
	if c.program == nil {
		c.fail(glenum.InvalidOperation, "drawElements", "no valid shader program in use")
		return
	}
	eb := c.elementBuffers[c.vertexArray]
	if eb == nil {
		c.fail(glenum.InvalidOperation, "drawElements", "no ELEMENT_ARRAY_BUFFER bound")
		return
	}
	if int(offset)+int(count)*size > eb.ByteLen {
		c.fail(glenum.InvalidOperation, "drawElements", "insufficient buffer size")
		return
	}

	c.stats.DrawCalls++
	c.stats.Indices += int(count)
	if mode == glenum.Triangles {
		c.stats.Triangles += int(count) / 3
	}
}

func (c *Context) CreateShader(typ glenum.Enum) gl.Object {
	if typ != glenum.VertexShader && typ != glenum.FragmentShader {
		c.record("createShader", typ)
		c.fail(glenum.InvalidEnum, "createShader", "invalid shader type")
		return nil
	}
	s := &Shader{ID: c.nextObjectID(), Type: typ}
	c.record("createShader", typ, s)
	return s
}

func (c *Context) asShader(fn string, obj gl.Object) *Shader {
	s, ok := obj.(*Shader)
	if !ok || s == nil {
		c.fail(glenum.InvalidValue, fn, "no shader or not a shader object")
		return nil
	}
	return s
}

func (c *Context) asProgram(fn string, obj gl.Object) *Program {
	p, ok := obj.(*Program)
	if !ok || p == nil {
		c.fail(glenum.InvalidValue, fn, "no program or not a program object")
		return nil
	}
	return p
}

func (c *Context) ShaderSource(shader gl.Object, source string) {
	c.record("shaderSource", shader, len(source))
	if s := c.asShader("shaderSource", shader); s != nil {
		s.Source = source
	}
}

func (c *Context) CompileShader(shader gl.Object) {
	c.record("compileShader", shader)
	s := c.asShader("compileShader", shader)
	if s == nil {
		return
	}
	s.InfoLog = checkShader(s.Source)
	s.Compiled = s.InfoLog == ""
}

func boolParam(v bool) int32 {
	if v {
		return glenum.True
	}
	return glenum.False
}

func (c *Context) GetShaderParameter(shader gl.Object, pname glenum.Enum) int32 {
	c.record("getShaderParameter", shader, pname)
	s := c.asShader("getShaderParameter", shader)
	if s == nil {
		return glenum.False
	}
	switch pname {
	case glenum.CompileStatus:
		return boolParam(s.Compiled)
	case glenum.DeleteStatus:
		return glenum.False
	case glenum.ShaderType:
		return int32(s.Type)
	}
	c.fail(glenum.InvalidEnum, "getShaderParameter", "invalid parameter name")
	return glenum.False
}

func (c *Context) GetShaderInfoLog(shader gl.Object) string {
	c.record("getShaderInfoLog", shader)
	if s := c.asShader("getShaderInfoLog", shader); s != nil {
		return s.InfoLog
	}
	return ""
}

func (c *Context) CreateProgram() gl.Object {
	p := &Program{ID: c.nextObjectID(), Uniforms: make(map[string]*Uniform)}
	c.record("createProgram", p)
	return p
}

func (c *Context) AttachShader(program, shader gl.Object) {
	c.record("attachShader", program, shader)
	p := c.asProgram("attachShader", program)
	s := c.asShader("attachShader", shader)
	if p == nil || s == nil {
		return
	}
	for _, existing := range p.Shaders {
		if existing == s || existing.Type == s.Type {
			c.fail(glenum.InvalidOperation, "attachShader", "shader attachment already has shader")
			return
		}
	}
	p.Shaders = append(p.Shaders, s)
}

func (c *Context) LinkProgram(program gl.Object) {
	c.record("linkProgram", program)
	p := c.asProgram("linkProgram", program)
	if p == nil {
		return
	}

	p.Linked = false
	p.InfoLog = ""
	p.Uniforms = make(map[string]*Uniform)

	var vs, fs *Shader
	for _, s := range p.Shaders {
		if s.Type == glenum.VertexShader {
			vs = s
		} else {
			fs = s
		}
	}
	switch {
	case vs == nil || fs == nil:
		p.InfoLog = "ERROR: program requires a vertex and a fragment shader\n"
		return
	case !vs.Compiled:
		p.InfoLog = "ERROR: vertex shader is not compiled\n"
		return
	case !fs.Compiled:
		p.InfoLog = "ERROR: fragment shader is not compiled\n"
		return
	}

	for _, s := range []*Shader{vs, fs} {
		for name, typ := range declaredUniforms(s.Source) {
			if prev, ok := p.Uniforms[name]; ok && prev.Type != typ {
				p.InfoLog = fmt.Sprintf("ERROR: uniform '%s' declared with different types\n", name)
				p.Uniforms = make(map[string]*Uniform)
				return
			}
			p.Uniforms[name] = &Uniform{Name: name, Type: typ}
		}
	}
	p.Linked = true
}

func (c *Context) GetProgramParameter(program gl.Object, pname glenum.Enum) int32 {
	c.record("getProgramParameter", program, pname)
	p := c.asProgram("getProgramParameter", program)
	if p == nil {
		return glenum.False
	}
	switch pname {
	case glenum.LinkStatus:
		return boolParam(p.Linked)
	case glenum.DeleteStatus:
		return glenum.False
	}
	c.fail(glenum.InvalidEnum, "getProgramParameter", "invalid parameter name")
	return glenum.False
}

func (c *Context) GetProgramInfoLog(program gl.Object) string {
	c.record("getProgramInfoLog", program)
	if p := c.asProgram("getProgramInfoLog", program); p != nil {
		return p.InfoLog
	}
	return ""
}

func (c *Context) UseProgram(program gl.Object) {
	c.record("useProgram", program)
	if program == nil {
		c.program = nil
		return
	}
	p := c.asProgram("useProgram", program)
	if p == nil {
		return
	}
	if !p.Linked {
		c.fail(glenum.InvalidOperation, "useProgram", "program not valid")
		return
	}
	c.program = p
}

// CurrentProgram returns the program in use.
func (c *Context) CurrentProgram() *Program {
	return c.program
}

func (c *Context) GetUniformLocation(program gl.Object, name string) gl.Object {
	c.record("getUniformLocation", program, name)
	p := c.asProgram("getUniformLocation", program)
	if p == nil {
		return nil
	}
	if !p.Linked {
		c.fail(glenum.InvalidOperation, "getUniformLocation", "program not linked")
		return nil
	}
	u, ok := p.Uniforms[name]
	if !ok {
		return nil
	}
	return &UniformLocation{Program: p, Uniform: u}
}

func (c *Context) UniformMatrix4fv(location gl.Object, transpose bool, data []float32) {
	c.record("uniformMatrix4fv", location, transpose, len(data))
	if location == nil {
		return
	}
	loc, ok := location.(*UniformLocation)
	if !ok || loc == nil {
		c.fail(glenum.InvalidOperation, "uniformMatrix4fv", "location is not from this context")
		return
	}
	if loc.Program != c.program {
		c.fail(glenum.InvalidOperation, "uniformMatrix4fv", "location is not from the associated program")
		return
	}
	if loc.Uniform.Type != "mat4" {
		c.fail(glenum.InvalidOperation, "uniformMatrix4fv", "uniform type mismatch")
		return
	}
	if len(data) != 16 {
		c.fail(glenum.InvalidValue, "uniformMatrix4fv", "invalid size")
		return
	}

	value := append([]float32(nil), data...)
	if transpose {
		for r := 0; r < 4; r++ {
			for col := 0; col < 4; col++ {
				value[col*4+r] = data[r*4+col]
			}
		}
	}
	loc.Uniform.Value = value
}
