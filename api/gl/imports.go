//go:build wasip1

package gl

//go:wasmimport env consoleLog
func consoleLog(value int32)

//go:wasmimport env logMessage
func logMessage(level, ptr, length uint32)

//go:wasmimport env malloc
func malloc(size uint32) uint32

//go:wasmimport env free
func free(ptr uint32)

//go:wasmimport env glEnable
func glEnable(capability uint32)

//go:wasmimport env glDisable
func glDisable(capability uint32)

//go:wasmimport env glDepthFunc
func glDepthFunc(fn uint32)

//go:wasmimport env glViewport
func glViewport(x, y, width, height int32)

//go:wasmimport env glClearColor
func glClearColor(r, g, b, a float32)

//go:wasmimport env glClearDepth
func glClearDepth(depth float32)

//go:wasmimport env glClear
func glClear(mask uint32)

//go:wasmimport env glCreateBuffer
func glCreateBuffer() uint32

//go:wasmimport env glBindBuffer
func glBindBuffer(target, buffer uint32)

//go:wasmimport env glBufferData
func glBufferData(target, count, offset, usage uint32)

//go:wasmimport env glCreateVertexArray
func glCreateVertexArray() uint32

//go:wasmimport env glBindVertexArray
func glBindVertexArray(vao uint32)

//go:wasmimport env glEnableVertexAttribArray
func glEnableVertexAttribArray(index uint32)

//go:wasmimport env glVertexAttribPointer
func glVertexAttribPointer(index uint32, size int32, typ, normalized uint32, stride, offset int32)

//go:wasmimport env glDrawElements
func glDrawElements(mode uint32, count int32, typ uint32, offset int32)

//go:wasmimport env glCreateShader
func glCreateShader(typ uint32) uint32

//go:wasmimport env glShaderSource
func glShaderSource(shader, length, offset uint32)

//go:wasmimport env glCompileShader
func glCompileShader(shader uint32)

//go:wasmimport env glCreateProgram
func glCreateProgram() uint32

//go:wasmimport env glAttachShader
func glAttachShader(program, shader uint32)

//go:wasmimport env glLinkProgram
func glLinkProgram(program uint32)

//go:wasmimport env glUseProgram
func glUseProgram(program uint32)

//go:wasmimport env glGetUniformLocation
func glGetUniformLocation(program, length, offset uint32) uint32

//go:wasmimport env glUniformMatrix4fv
func glUniformMatrix4fv(location, transpose, offset uint32)
