package emu

// Accumulator field widths. An accumulator is H(8) | M(12) | L(12).
const (
	AccHWidth = 8
	AccMWidth = 12
	AccLWidth = 12

	accLShift = 0
	accMShift = AccLWidth
	accHShift = AccLWidth + AccMWidth
)

// ComposeAcc packs the three accumulator fields into a 32-bit value. Only
// the low bits of each field are used.
func ComposeAcc(h, m, l int32) int32 {
	return int32(uint32(Truncate(h, AccHWidth))<<accHShift |
		uint32(Truncate(m, AccMWidth))<<accMShift |
		uint32(Truncate(l, AccLWidth))<<accLShift)
}

// DecomposeAcc splits v into its raw (unsigned) H, M and L fields.
func DecomposeAcc(v int32) (h, m, l int32) {
	u := uint32(v)
	h = int32(u >> accHShift & 0xFF)
	m = int32(u >> accMShift & 0xFFF)
	l = int32(u >> accLShift & 0xFFF)
	return h, m, l
}

// AccH returns the sign-extended high field of v.
func AccH(v int32) int32 {
	h, _, _ := DecomposeAcc(v)
	return SignExtend(h, AccHWidth)
}

// AccM returns the sign-extended middle field of v.
func AccM(v int32) int32 {
	_, m, _ := DecomposeAcc(v)
	return SignExtend(m, AccMWidth)
}

// AccL returns the sign-extended low field of v.
func AccL(v int32) int32 {
	_, _, l := DecomposeAcc(v)
	return SignExtend(l, AccLWidth)
}

// WithAccH replaces the high field of v.
func WithAccH(v, h int32) int32 {
	_, m, l := DecomposeAcc(v)
	return ComposeAcc(h, m, l)
}

// WithAccM replaces the middle field of v. The high field becomes the sign
// extension of the new middle field.
func WithAccM(v, m int32) int32 {
	_, _, l := DecomposeAcc(v)
	var h int32
	if m&0x800 != 0 {
		h = 0xFF
	}
	return ComposeAcc(h, m, l)
}

// WithAccL replaces the low field of v.
func WithAccL(v, l int32) int32 {
	h, m, _ := DecomposeAcc(v)
	return ComposeAcc(h, m, l)
}
