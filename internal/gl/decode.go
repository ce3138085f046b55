package gl

import (
	"fmt"
	"strings"
)

// Memory is the view of guest linear memory the decoder needs.
// *wasm.Memory satisfies it.
type Memory interface {
	Size() uint32
	ReadLatin1(ptr, length uint32) (string, error)
	ReadUint16s(ptr, count uint32) ([]uint16, error)
	ReadFloat32s(ptr, count uint32) ([]float32, error)
}

// CachePolicy selects how decoded strings and float views are memoized.
type CachePolicy string

const (
	// CacheByOffset keys entries by start offset only. A later decode at the
	// same offset returns the first result even if the length differs or
	// the bytes changed since. This matches what existing guests were
	// written against.
	CacheByOffset CachePolicy = "offset"

	// CacheKeyed keys entries by offset, length and memory size in pages,
	// so growing memory starts a new generation.
	CacheKeyed CachePolicy = "keyed"

	// CacheOff decodes on every call.
	CacheOff CachePolicy = "off"
)

// ParseCachePolicy validates a policy name. The empty string selects
// CacheByOffset.
func ParseCachePolicy(s string) (CachePolicy, error) {
	switch p := CachePolicy(strings.ToLower(s)); p {
	case "":
		return CacheByOffset, nil
	case CacheByOffset, CacheKeyed, CacheOff:
		return p, nil
	}
	return "", fmt.Errorf("unknown decode cache policy %q (must be one of: offset, keyed, off)", s)
}

type decodeKey struct {
	offset uint32
	length uint32
	pages  uint32
}

// FloatView is a live window of float32 values in linear memory. Reads go
// to memory each time, so writes by the guest are visible.
type FloatView struct {
	mem    Memory
	offset uint32
	length uint32
}

// Offset returns the byte offset of the first element.
func (v *FloatView) Offset() uint32 { return v.offset }

// Len returns the element count.
func (v *FloatView) Len() int { return int(v.length) }

// Floats copies the current contents.
func (v *FloatView) Floats() ([]float32, error) {
	return v.mem.ReadFloat32s(v.offset, v.length)
}

// Decoder reads strings and float views out of linear memory.
type Decoder struct {
	mem    Memory
	policy CachePolicy

	strings map[decodeKey]string
	floats  map[decodeKey]*FloatView
}

// NewDecoder creates a decoder with its own caches.
func NewDecoder(mem Memory, policy CachePolicy) *Decoder {
	if policy == "" {
		policy = CacheByOffset
	}
	return &Decoder{
		mem:     mem,
		policy:  policy,
		strings: make(map[decodeKey]string),
		floats:  make(map[decodeKey]*FloatView),
	}
}

// Policy returns the active cache policy.
func (d *Decoder) Policy() CachePolicy {
	return d.policy
}

func (d *Decoder) key(offset, length uint32) decodeKey {
	if d.policy == CacheKeyed {
		return decodeKey{offset: offset, length: length, pages: d.mem.Size() / 65536}
	}
	return decodeKey{offset: offset}
}

// String decodes length bytes at offset as Latin-1.
func (d *Decoder) String(offset, length uint32) (string, error) {
	if d.policy == CacheOff {
		return d.mem.ReadLatin1(offset, length)
	}

	k := d.key(offset, length)
	if s, ok := d.strings[k]; ok {
		return s, nil
	}

	s, err := d.mem.ReadLatin1(offset, length)
	if err != nil {
		return "", err
	}
	d.strings[k] = s
	return s, nil
}

// Floats returns a view of length float32 values at offset. The range is
// checked when the view is first created.
func (d *Decoder) Floats(offset, length uint32) (*FloatView, error) {
	var k decodeKey
	if d.policy != CacheOff {
		k = d.key(offset, length)
		if v, ok := d.floats[k]; ok {
			return v, nil
		}
	}

	if _, err := d.mem.ReadFloat32s(offset, length); err != nil {
		return nil, err
	}
	v := &FloatView{mem: d.mem, offset: offset, length: length}

	if d.policy != CacheOff {
		d.floats[k] = v
	}
	return v, nil
}

// CachedStrings returns the number of memoized strings.
func (d *Decoder) CachedStrings() int {
	return len(d.strings)
}
