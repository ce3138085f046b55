package wasm

import (
	"testing"

	"github.com/tetratelabs/wazero/api"
)

// fullMemory reports a memory already grown to the 65536-page maximum.
type fullMemory struct {
	api.Memory
	pages uint32
}

func (m *fullMemory) Grow(delta uint32) (uint32, bool) {
	if uint64(m.pages)+uint64(delta) > 65536 {
		return 0, false
	}
	prev := m.pages
	m.pages += delta
	return prev, true
}

func TestAllocateAtAddressSpaceLimit(t *testing.T) {
	mem := WrapMemory(&fullMemory{pages: 65536})

	if got := mem.Allocate(0); got != GrowFailed {
		t.Errorf("Allocate(0) on a full memory = %#x, want %#x", got, GrowFailed)
	}
	if got := mem.Allocate(1); got != GrowFailed {
		t.Errorf("Allocate(1) on a full memory = %#x, want %#x", got, GrowFailed)
	}
}

func TestAllocateLastPage(t *testing.T) {
	mem := WrapMemory(&fullMemory{pages: 65535})

	if got, want := mem.Allocate(1), uint32(65535*PageSize); got != want {
		t.Errorf("Allocate(1) = %#x, want %#x", got, want)
	}
}
