package emu

import (
	"fmt"
	"math/bits"
	"sort"

	"github.com/sarchlab/dpsim/diag"
)

// Data memory geometry.
const (
	AddrSpace = 1 << 16
	WordWidth = 12
)

// Word is one data memory location. Lanes that were never written are
// undefined.
type Word struct {
	Value   Lanes
	Defined Mask
}

// Memory is the sparse data memory. Entries come into existence on the
// first write, or on a recorded read of an address nobody wrote.
type Memory struct {
	lanes int
	words map[uint16]*Word
}

// NewMemory creates an empty data memory for n lanes.
func NewMemory(n int) *Memory {
	return &Memory{
		lanes: n,
		words: make(map[uint16]*Word),
	}
}

// Reset forgets every entry.
func (m *Memory) Reset() {
	m.words = make(map[uint16]*Word)
}

func checkAddr(addr int32) (uint16, error) {
	if addr < 0 || addr >= AddrSpace {
		return 0, fmt.Errorf("%w: %#x", diag.ErrAddressRange, addr)
	}
	return uint16(addr), nil
}

// Read returns the word at addr and whether an entry existed. A missing
// entry is created, fully undefined, when record is set.
func (m *Memory) Read(addr int32, record bool) (w Word, existed bool, err error) {
	a, err := checkAddr(addr)
	if err != nil {
		return Word{}, false, err
	}
	if p, ok := m.words[a]; ok {
		return *p, true, nil
	}
	if record {
		m.words[a] = &Word{}
	}
	return Word{}, false, nil
}

// Write stores the low 12 bits of v in the lanes set in mask. It reports
// whether the entry had to be created; the other lanes of a new entry stay
// undefined.
func (m *Memory) Write(addr int32, v Lanes, mask Mask) (created bool, err error) {
	a, err := checkAddr(addr)
	if err != nil {
		return false, err
	}

	w, ok := m.words[a]
	if !ok {
		w = &Word{}
		m.words[a] = w
	}
	for j := 0; j < m.lanes; j++ {
		if mask[j] {
			w.Value[j] = Truncate(v[j], WordWidth)
			w.Defined[j] = true
		}
	}
	return !ok, nil
}

// Peek returns the word at addr without creating it.
func (m *Memory) Peek(addr uint16) (Word, bool) {
	p, ok := m.words[addr]
	if !ok {
		return Word{}, false
	}
	return *p, true
}

// Len returns the number of existing entries.
func (m *Memory) Len() int {
	return len(m.words)
}

// Addresses returns the addresses of every entry in ascending order.
func (m *Memory) Addresses() []uint16 {
	out := make([]uint16, 0, len(m.words))
	for a := range m.words {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// BitReverse mirrors all 16 address bits.
func BitReverse(addr uint16) uint16 {
	return bits.Reverse16(addr)
}
