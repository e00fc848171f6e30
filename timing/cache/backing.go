package cache

import "github.com/sarchlab/rv32core/emu"

// MemoryBacking wraps emu.Memory as a BackingStore.
type MemoryBacking struct {
	memory *emu.Memory
}

// NewMemoryBacking creates a new MemoryBacking adapter.
func NewMemoryBacking(memory *emu.Memory) *MemoryBacking {
	return &MemoryBacking{memory: memory}
}

// ReadBlock fetches words from the backing memory.
func (m *MemoryBacking) ReadBlock(addr uint32, words int) []uint32 {
	data := make([]uint32, words)
	for i := range data {
		data[i] = m.memory.ReadWord(addr + uint32(i*4))
	}
	return data
}

// WriteBlock stores words to the backing memory.
func (m *MemoryBacking) WriteBlock(addr uint32, data []uint32) {
	for i, w := range data {
		m.memory.WriteMasked(addr+uint32(i*4), emu.MaskWord, w)
	}
}

// Contains reports whether addr falls inside the backing memory.
func (m *MemoryBacking) Contains(addr uint32) bool {
	return m.memory.Contains(addr)
}
