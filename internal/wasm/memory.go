package wasm

import (
	"errors"
	"math"

	"github.com/tetratelabs/wazero/api"
	"golang.org/x/text/encoding/charmap"
)

// GrowFailed is what allocate hands back when linear memory cannot grow.
// It is the memory.grow instruction's own failure value (-1 as i32).
const GrowFailed = ^uint32(0)

// ErrOutOfRange is wrapped by MemoryAccessError for reads past the end of
// linear memory.
var ErrOutOfRange = errors.New("out of range")

// Memory wraps a guest's linear memory.
//
// The guest owns the memory; the host only reads it and grows it. There is
// no allocator bookkeeping: Allocate appends whole pages and Release is a
// no-op, so memory is never reclaimed while the instance lives.
type Memory struct {
	mem api.Memory
}

// NewMemory creates a memory helper for a module's exported memory.
func NewMemory(module api.Module) *Memory {
	return &Memory{mem: module.Memory()}
}

// WrapMemory creates a memory helper for an already resolved memory.
func WrapMemory(mem api.Memory) *Memory {
	return &Memory{mem: mem}
}

// Raw returns the underlying wazero memory.
func (m *Memory) Raw() api.Memory {
	return m.mem
}

// Size returns the current size in bytes.
func (m *Memory) Size() uint32 {
	return m.mem.Size()
}

// Pages returns the current size in pages.
func (m *Memory) Pages() uint32 {
	return m.mem.Size() / PageSize
}

// Allocate grows memory by ceil(size/PageSize) pages and returns the byte
// offset where the new pages start (the previous size). If growth fails the
// result is GrowFailed, untranslated.
func (m *Memory) Allocate(size uint32) uint32 {
	pages := uint32((uint64(size) + PageSize - 1) / PageSize)
	prev, ok := m.mem.Grow(pages)
	if !ok {
		return GrowFailed
	}
	// A full 4 GiB memory has no byte offset that fits in an i32 result.
	base := uint64(prev) * PageSize
	if base > math.MaxUint32 {
		return GrowFailed
	}
	return uint32(base)
}

// Release is a no-op. Allocated pages are never returned.
func (m *Memory) Release(uint32) {}

// ReadString reads a null-terminated string from Wasm memory.
func (m *Memory) ReadString(ptr uint32, maxLen uint32) (string, bool) {
	buf, ok := m.mem.Read(ptr, maxLen)
	if !ok {
		return "", false
	}

	end := len(buf)
	for i, b := range buf {
		if b == 0 {
			end = i
			break
		}
	}

	return string(buf[:end]), true
}

// ReadBytes reads raw bytes from Wasm memory. The slice aliases guest memory
// and is only valid until the next growth.
func (m *Memory) ReadBytes(ptr uint32, length uint32) ([]byte, bool) {
	return m.mem.Read(ptr, length)
}

// ReadLatin1 decodes length bytes at ptr, one code point per byte.
func (m *Memory) ReadLatin1(ptr, length uint32) (string, error) {
	buf, ok := m.mem.Read(ptr, length)
	if !ok {
		return "", &MemoryAccessError{Operation: "read_latin1", Address: ptr, Length: length, Err: ErrOutOfRange}
	}
	out, err := charmap.ISO8859_1.NewDecoder().Bytes(buf)
	if err != nil {
		return "", &MemoryAccessError{Operation: "read_latin1", Address: ptr, Length: length, Err: err}
	}
	return string(out), nil
}

// span checks that count elements of width bytes starting at ptr lie inside
// linear memory. The byte length is computed in 64 bits so a large count
// cannot wrap into a small range.
func (m *Memory) span(op string, ptr, count, width uint32) error {
	n := uint64(count) * uint64(width)
	if n > math.MaxUint32 || uint64(ptr)+n > uint64(m.mem.Size()) {
		return &MemoryAccessError{Operation: op, Address: ptr, Length: uint32(min(n, math.MaxUint32)), Err: ErrOutOfRange}
	}
	return nil
}

// ReadUint16s copies count little-endian uint16 values starting at ptr.
func (m *Memory) ReadUint16s(ptr, count uint32) ([]uint16, error) {
	if err := m.span("read_u16", ptr, count, 2); err != nil {
		return nil, err
	}
	out := make([]uint16, count)
	for i := range out {
		v, ok := m.mem.ReadUint16Le(ptr + uint32(i)*2)
		if !ok {
			return nil, &MemoryAccessError{Operation: "read_u16", Address: ptr + uint32(i)*2, Length: 2, Err: ErrOutOfRange}
		}
		out[i] = v
	}
	return out, nil
}

// ReadFloat32s copies count little-endian float32 values starting at ptr.
func (m *Memory) ReadFloat32s(ptr, count uint32) ([]float32, error) {
	if err := m.span("read_f32", ptr, count, 4); err != nil {
		return nil, err
	}
	out := make([]float32, count)
	for i := range out {
		v, ok := m.mem.ReadFloat32Le(ptr + uint32(i)*4)
		if !ok {
			return nil, &MemoryAccessError{Operation: "read_f32", Address: ptr + uint32(i)*4, Length: 4, Err: ErrOutOfRange}
		}
		out[i] = v
	}
	return out, nil
}

// ReadFloat32 reads a single float32.
func (m *Memory) ReadFloat32(ptr uint32) (float32, bool) {
	return m.mem.ReadFloat32Le(ptr)
}

// WriteBytes copies data into freshly allocated pages and returns the
// pointer and length.
func (m *Memory) WriteBytes(data []byte) (uint32, uint32, error) {
	size := uint32(len(data))
	if size == 0 {
		return 0, 0, nil
	}
	ptr := m.Allocate(size)
	if ptr == GrowFailed {
		return 0, 0, &MemoryAccessError{Operation: "grow", Address: m.Size(), Length: size, Err: ErrOutOfRange}
	}
	if !m.mem.Write(ptr, data) {
		return 0, 0, &MemoryAccessError{Operation: "write", Address: ptr, Length: size, Err: ErrOutOfRange}
	}
	return ptr, size, nil
}

// WriteString writes a string to Wasm memory.
func (m *Memory) WriteString(s string) (uint32, uint32, error) {
	return m.WriteBytes([]byte(s))
}
