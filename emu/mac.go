package emu

import (
	"fmt"

	"github.com/sarchlab/dpsim/diag"
	"github.com/sarchlab/dpsim/insts"
)

// Round adds half an LSB of the middle accumulator field. In unbiased mode
// an exact midpoint rounds to even by clearing bit 12 afterwards.
func Round(x int32, unbiased bool) int32 {
	if unbiased && x&0xFFF == 0x800 {
		return (x + 0x800) &^ (1 << 12)
	}
	return x + 0x800
}

// MACMode holds the per-instruction and MSTAT settings of a multiply.
type MACMode struct {
	Qualifier  insts.Qualifier
	Fractional bool // MSTAT.FRAC
	Unbiased   bool // MSTAT.UNBIAS
	Round      bool // RND
}

func (m MACMode) operands(x, y int32) (int64, int64) {
	return multiplicand(x, m.Qualifier.SignedX()), multiplicand(y, m.Qualifier.SignedY())
}

func multiplicand(v int32, signed bool) int64 {
	if signed {
		return int64(SignExtend(v, 12))
	}
	return int64(v & 0xFFF)
}

func (m MACMode) product(x, y int32) int64 {
	a, b := m.operands(x, y)
	p := a * b
	if m.Fractional {
		p <<= 1
	}
	return p
}

// MAC is the per-lane multiply/accumulate unit.
type MAC struct {
	lanes int
}

// NewMAC creates a MAC unit for n lanes.
func NewMAC(n int) *MAC {
	return &MAC{lanes: n}
}

// Execute runs a real multiply/accumulate operation. acc is the current
// value of the destination accumulator.
func (m *MAC) Execute(op insts.Op, x, y, acc Lanes, mode MACMode, mask Mask) (Result, error) {
	res := Result{Fields: FieldMV}
	if !op.IsMAC() {
		return res, fmt.Errorf("%w: %v is not a MAC operation", diag.ErrInvalidOperand, op)
	}

	for j := 0; j < m.lanes; j++ {
		if !mask[j] {
			continue
		}

		var (
			s     int64
			ov    bool
			round = mode.Round
		)
		switch op {
		case insts.OpMPY:
			s = mode.product(x[j], y[j])
		case insts.OpMAC:
			s = int64(acc[j]) + mode.product(x[j], y[j])
		case insts.OpMAS:
			s = int64(acc[j]) - mode.product(x[j], y[j])
		case insts.OpRNDACC:
			// Only the rounding add can overflow.
			s = int64(acc[j])
			ov = !fits32(s + 0x800)
			round = true
		case insts.OpCLRACC:
			round = false
		}

		ov = ov || !fits32(s)
		r := int32(s)
		if round {
			r = Round(r, mode.Unbiased)
		}

		res.Value[j] = r
		res.Flags[j] = Flags{MV: ov}
		if ov {
			res.Overflow[j]++
		}
	}
	return res, nil
}

// ExecuteComplex runs a complex or mixed real×complex multiply. For the
// full complex forms x and y are both pairs; for the RC forms only xr is
// used and multiplies both parts of y. (ar, ai) is the destination
// accumulator pair.
func (m *MAC) ExecuteComplex(op insts.Op, xr, xi, yr, yi, ar, ai Lanes, mode MACMode, mask Mask) (Result, error) {
	res := Result{Complex: true, Fields: FieldMV}
	if !op.IsComplexMAC() {
		return res, fmt.Errorf("%w: %v is not a complex MAC operation", diag.ErrInvalidOperand, op)
	}

	for j := 0; j < m.lanes; j++ {
		if !mask[j] {
			continue
		}

		var pr, pi int64
		switch op {
		case insts.OpCMPY, insts.OpCMAC, insts.OpCMAS:
			pr = mode.product(xr[j], yr[j]) - mode.product(xi[j], yi[j])
			pi = mode.product(xr[j], yi[j]) + mode.product(xi[j], yr[j])
		default:
			pr = mode.product(xr[j], yr[j])
			pi = mode.product(xr[j], yi[j])
		}

		var sr, si int64
		switch op {
		case insts.OpCMPY, insts.OpRCMPY:
			sr, si = pr, pi
		case insts.OpCMAC, insts.OpRCMAC:
			sr, si = int64(ar[j])+pr, int64(ai[j])+pi
		case insts.OpCMAS, insts.OpRCMAS:
			sr, si = int64(ar[j])-pr, int64(ai[j])-pi
		}

		var ovr, ovi bool
		res.Value[j], ovr = m.finish(sr, mode)
		res.Imag[j], ovi = m.finish(si, mode)
		res.Flags[j] = Flags{MV: ovr}
		res.ImagFlags[j] = Flags{MV: ovi}
		if ovr {
			res.Overflow[j]++
		}
		if ovi {
			res.Overflow[j]++
		}
	}
	return res, nil
}

// finish checks one part of a complex sum for overflow and rounds it.
func (m *MAC) finish(s int64, mode MACMode) (int32, bool) {
	ov := !fits32(s)
	r := int32(s)
	if mode.Round {
		r = Round(r, mode.Unbiased)
	}
	return r, ov
}
