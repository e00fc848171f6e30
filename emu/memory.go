package emu

// DefaultMemoryWords is the size of a memory created without an explicit
// size: 4 KiB.
const DefaultMemoryWords = 1024

// Memory is a word-organized, byte-addressed memory. Cells are indexed by
// address>>2 and accept partial writes through a 4-bit lane mask.
// Reset of the core never clears it.
type Memory struct {
	words []uint32
}

// NewMemory creates a zero-filled memory of the given number of words.
// A non-positive size selects DefaultMemoryWords.
func NewMemory(words int) *Memory {
	if words <= 0 {
		words = DefaultMemoryWords
	}
	return &Memory{words: make([]uint32, words)}
}

// Size returns the number of words.
func (m *Memory) Size() int {
	return len(m.words)
}

// Contains reports whether the word containing addr exists.
func (m *Memory) Contains(addr uint32) bool {
	return int(addr>>2) < len(m.words)
}

// ReadWord returns the word containing addr. Addresses past the end read
// as 0.
func (m *Memory) ReadWord(addr uint32) uint32 {
	if !m.Contains(addr) {
		return 0
	}
	return m.words[addr>>2]
}

// WriteMasked overwrites the lanes of the word containing addr selected by
// mask. A zero mask, or an address past the end, writes nothing.
func (m *Memory) WriteMasked(addr uint32, mask uint8, data uint32) {
	if mask&0xF == 0 || !m.Contains(addr) {
		return
	}
	idx := addr >> 2
	m.words[idx] = MergeLanes(m.words[idx], data, mask)
}

// Load copies words into memory starting at the word containing base.
// Words that do not fit are dropped.
func (m *Memory) Load(base uint32, words []uint32) {
	start := int(base >> 2)
	for i, w := range words {
		if start+i >= len(m.words) {
			return
		}
		m.words[start+i] = w
	}
}

// Words returns a copy of the memory contents.
func (m *Memory) Words() []uint32 {
	out := make([]uint32, len(m.words))
	copy(out, m.words)
	return out
}

// Access serves one bus transaction. The returned word is the content
// before the write.
func (m *Memory) Access(req BusRequest) uint32 {
	if !req.Enable {
		return 0
	}
	data := m.ReadWord(req.Address)
	m.WriteMasked(req.Address, req.ByteWriteEnable, req.WriteData)
	return data
}
