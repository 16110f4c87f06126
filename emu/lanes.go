// Package emu implements the execution core of the data-path simulator.
package emu

import (
	"fmt"
	"strings"
)

// MaxLanes is the widest supported data-path configuration.
const MaxLanes = 4

// Lanes is one value per data path. Narrow registers are stored
// sign-extended; widths are enforced when a register is written.
type Lanes [MaxLanes]int32

// Mask is a per-lane predicate.
type Mask [MaxLanes]bool

// Splat returns v in every lane.
func Splat(v int32) Lanes {
	return Lanes{v, v, v, v}
}

// AllLanes returns a mask with the first n lanes set.
func AllLanes(n int) Mask {
	var m Mask
	for j := 0; j < n && j < MaxLanes; j++ {
		m[j] = true
	}
	return m
}

// MaskFromBits returns the mask whose lane j is bit j of b.
func MaskFromBits(b uint8) Mask {
	var m Mask
	for j := range m {
		m[j] = b&(1<<j) != 0
	}
	return m
}

// Bits packs the mask, lane j in bit j.
func (m Mask) Bits() uint8 {
	var b uint8
	for j, on := range m {
		if on {
			b |= 1 << j
		}
	}
	return b
}

// And returns the lane-wise conjunction of m and o.
func (m Mask) And(o Mask) Mask {
	for j := range m {
		m[j] = m[j] && o[j]
	}
	return m
}

// Or returns the lane-wise disjunction of m and o.
func (m Mask) Or(o Mask) Mask {
	for j := range m {
		m[j] = m[j] || o[j]
	}
	return m
}

// Count returns the number of set lanes.
func (m Mask) Count() int {
	n := 0
	for _, on := range m {
		if on {
			n++
		}
	}
	return n
}

// Any reports whether any lane is set.
func (m Mask) Any() bool {
	return m.Count() > 0
}

// String renders the mask as a bit string, lane 0 rightmost.
func (m Mask) String() string {
	var b strings.Builder
	for j := MaxLanes - 1; j >= 0; j-- {
		if m[j] {
			b.WriteByte('1')
		} else {
			b.WriteByte('0')
		}
	}
	return b.String()
}

// String renders every lane.
func (l Lanes) String() string {
	parts := make([]string, MaxLanes)
	for j, v := range l {
		parts[j] = fmt.Sprintf("%d", v)
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// SignExtend interprets the low width bits of v as a two's-complement
// number.
func SignExtend(v int32, width int) int32 {
	if width <= 0 || width >= 32 {
		return v
	}
	shift := uint(32 - width)
	return (v << shift) >> shift
}

// Truncate keeps the low width bits of v.
func Truncate(v int32, width int) int32 {
	if width <= 0 {
		return 0
	}
	if width >= 32 {
		return v
	}
	return int32(uint32(v) & (1<<uint(width) - 1))
}

// fits32 reports whether v is representable as a 32-bit two's-complement
// value: bit 31 and everything above agree.
func fits32(v int64) bool {
	top := v >> 31
	return top == 0 || top == -1
}
