package gl

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errFakeRange = errors.New("fake: out of range")

// byteMemory is a Memory over a plain slice.
type byteMemory struct {
	buf []byte
}

func (m *byteMemory) Size() uint32 { return uint32(len(m.buf)) }

func (m *byteMemory) check(ptr, n uint32) error {
	if uint64(ptr)+uint64(n) > uint64(len(m.buf)) {
		return errFakeRange
	}
	return nil
}

func (m *byteMemory) ReadLatin1(ptr, length uint32) (string, error) {
	if err := m.check(ptr, length); err != nil {
		return "", err
	}
	runes := make([]rune, length)
	for i, b := range m.buf[ptr : ptr+length] {
		runes[i] = rune(b)
	}
	return string(runes), nil
}

func (m *byteMemory) ReadUint16s(ptr, count uint32) ([]uint16, error) {
	if err := m.check(ptr, count*2); err != nil {
		return nil, err
	}
	out := make([]uint16, count)
	for i := range out {
		out[i] = binary.LittleEndian.Uint16(m.buf[ptr+uint32(i)*2:])
	}
	return out, nil
}

func (m *byteMemory) ReadFloat32s(ptr, count uint32) ([]float32, error) {
	if err := m.check(ptr, count*4); err != nil {
		return nil, err
	}
	out := make([]float32, count)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(m.buf[ptr+uint32(i)*4:]))
	}
	return out, nil
}

func (m *byteMemory) putFloat(ptr uint32, v float32) {
	binary.LittleEndian.PutUint32(m.buf[ptr:], math.Float32bits(v))
}

func TestParseCachePolicy(t *testing.T) {
	for in, want := range map[string]CachePolicy{
		"":       CacheByOffset,
		"offset": CacheByOffset,
		"KEYED":  CacheKeyed,
		"off":    CacheOff,
	} {
		got, err := ParseCachePolicy(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseCachePolicy("lru")
	assert.Error(t, err)
}

func TestStringCacheByOffsetIsSticky(t *testing.T) {
	mem := &byteMemory{buf: make([]byte, 64)}
	copy(mem.buf[8:], "mvp!")
	dec := NewDecoder(mem, CacheByOffset)

	s, err := dec.String(8, 4)
	require.NoError(t, err)
	assert.Equal(t, "mvp!", s)

	// Same offset, shorter length: the first decode wins.
	s, err = dec.String(8, 2)
	require.NoError(t, err)
	assert.Equal(t, "mvp!", s)

	// Rewritten bytes are not seen either.
	copy(mem.buf[8:], "xyz?")
	s, err = dec.String(8, 4)
	require.NoError(t, err)
	assert.Equal(t, "mvp!", s)
	assert.Equal(t, 1, dec.CachedStrings())
}

func TestStringCacheKeyed(t *testing.T) {
	mem := &byteMemory{buf: make([]byte, 64)}
	copy(mem.buf[8:], "mvp!")
	dec := NewDecoder(mem, CacheKeyed)

	s, err := dec.String(8, 4)
	require.NoError(t, err)
	assert.Equal(t, "mvp!", s)

	s, err = dec.String(8, 2)
	require.NoError(t, err)
	assert.Equal(t, "mv", s)
	assert.Equal(t, 2, dec.CachedStrings())
}

func TestStringCacheOff(t *testing.T) {
	mem := &byteMemory{buf: make([]byte, 16)}
	copy(mem.buf, "abcd")
	dec := NewDecoder(mem, CacheOff)

	s, _ := dec.String(0, 4)
	assert.Equal(t, "abcd", s)

	copy(mem.buf, "wxyz")
	s, _ = dec.String(0, 4)
	assert.Equal(t, "wxyz", s)
	assert.Zero(t, dec.CachedStrings())
}

func TestStringLatin1(t *testing.T) {
	mem := &byteMemory{buf: []byte{0x63, 0xE9, 0xFF}}
	dec := NewDecoder(mem, CacheOff)

	s, err := dec.String(0, 3)
	require.NoError(t, err)
	assert.Equal(t, "céÿ", s)
}

func TestStringOutOfRange(t *testing.T) {
	dec := NewDecoder(&byteMemory{buf: make([]byte, 4)}, CacheByOffset)

	_, err := dec.String(2, 8)
	assert.ErrorIs(t, err, errFakeRange)
	assert.Zero(t, dec.CachedStrings(), "failures are not cached")
}

func TestFloatViewIsLive(t *testing.T) {
	mem := &byteMemory{buf: make([]byte, 128)}
	for i := 0; i < 16; i++ {
		mem.putFloat(uint32(i*4), float32(i))
	}
	dec := NewDecoder(mem, CacheByOffset)

	view, err := dec.Floats(0, 16)
	require.NoError(t, err)
	assert.Equal(t, 16, view.Len())

	again, err := dec.Floats(0, 16)
	require.NoError(t, err)
	assert.Same(t, view, again)

	mem.putFloat(0, 42)
	fs, err := view.Floats()
	require.NoError(t, err)
	assert.Equal(t, float32(42), fs[0])
	assert.Equal(t, float32(15), fs[15])
}

func TestFloatViewOutOfRange(t *testing.T) {
	dec := NewDecoder(&byteMemory{buf: make([]byte, 32)}, CacheByOffset)

	_, err := dec.Floats(0, 16)
	assert.ErrorIs(t, err, errFakeRange)
}
