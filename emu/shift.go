package emu

import (
	"fmt"

	"github.com/sarchlab/dpsim/diag"
	"github.com/sarchlab/dpsim/insts"
)

// Shift amounts beyond this magnitude behave like this magnitude.
const maxShift = 32

const shiftFields = FieldAZ | FieldAN | FieldAV | FieldSS

// ShiftMode holds the field and rounding selection of a shift.
type ShiftMode struct {
	Field insts.Field
	Round bool
}

// Shifter is the per-lane barrel shifter.
type Shifter struct {
	lanes int
}

// NewShifter creates a shifter for n lanes.
func NewShifter(n int) *Shifter {
	return &Shifter{lanes: n}
}

// checkFamily rejects instruction types whose flags the shifter cannot
// produce.
func checkFamily(t insts.InstType) error {
	if insts.FlagFamily(t) != insts.FamilyShift {
		return fmt.Errorf("%w: %v does not use shift flags", diag.ErrInvalidOperand, t)
	}
	return nil
}

// Execute runs a real shift issued under type t. width is the natural width
// of the source register (12 for data registers, 32 for accumulators).
// Positive amounts shift left. prior is the current destination value, ORed
// into the result by the *OR forms.
//
// Flags describe the 32-bit shifter output, before the destination narrows
// it.
func (s *Shifter) Execute(t insts.InstType, op insts.Op, src Lanes, width int, amount, prior Lanes, mode ShiftMode, mask Mask) (Result, error) {
	res := Result{Fields: shiftFields}
	if err := checkFamily(t); err != nil {
		return res, err
	}

	var arith, or bool
	switch op {
	case insts.OpASHIFT:
		arith = true
	case insts.OpLSHIFT:
	case insts.OpASHIFTOR:
		arith, or = true, true
	case insts.OpLSHIFTOR:
		or = true
	default:
		return res, fmt.Errorf("%w: %v is not a shift", diag.ErrInvalidOperand, op)
	}

	for j := 0; j < s.lanes; j++ {
		if !mask[j] {
			continue
		}
		r, f := shiftLane(arith, src[j], width, amount[j], mode)
		if or {
			r |= prior[j]
			f.AZ = r == 0
			f.AN = r < 0
		}
		res.Value[j] = r
		res.Flags[j] = f
	}
	return res, nil
}

// ExecuteComplex shifts both parts of a complex value, each by its own
// amount.
func (s *Shifter) ExecuteComplex(t insts.InstType, op insts.Op, xr, xi Lanes, width int, amountRe, amountIm Lanes, mode ShiftMode, mask Mask) (Result, error) {
	res := Result{Complex: true, Fields: shiftFields}
	if err := checkFamily(t); err != nil {
		return res, err
	}

	var arith bool
	switch op {
	case insts.OpCASHIFT:
		arith = true
	case insts.OpCLSHIFT:
	default:
		return res, fmt.Errorf("%w: %v is not a complex shift", diag.ErrInvalidOperand, op)
	}

	for j := 0; j < s.lanes; j++ {
		if !mask[j] {
			continue
		}
		res.Value[j], res.Flags[j] = shiftLane(arith, xr[j], width, amountRe[j], mode)
		res.Imag[j], res.ImagFlags[j] = shiftLane(arith, xi[j], width, amountIm[j], mode)
	}
	return res, nil
}

// shiftLane shifts one value. Right shifts run as shift by n-1, optional
// round increment, final shift by 1.
func shiftLane(arith bool, v int32, width int, amount int32, mode ShiftMode) (int32, Flags) {
	var work int64
	var ss bool
	if arith {
		work = int64(SignExtend(v, width))
		ss = work < 0
	} else {
		work = int64(uint32(Truncate(v, width)))
		ss = width > 0 && v&(1<<uint(width-1)) != 0
	}
	if mode.Field == insts.FieldHI {
		work <<= 12
	}

	if amount > maxShift {
		amount = maxShift
	}
	if amount < -maxShift {
		amount = -maxShift
	}

	var r int64
	var ov bool
	switch {
	case amount >= 0:
		r, ov = shl(work, uint(amount))
	case amount == -maxShift:
		if arith && work < 0 {
			r = -1
		}
	default:
		n := uint(-amount)
		r = work >> (n - 1)
		if mode.Round {
			r++
		}
		r >>= 1
		ov = !fits32(r)
	}

	out := int32(r)
	return out, Flags{AZ: out == 0, AN: out < 0, AV: ov, SS: ss}
}

// shl shifts v left by n and reports whether the result leaves the 32-bit
// range.
func shl(v int64, n uint) (int64, bool) {
	if v == 0 {
		return 0, false
	}
	if n >= 63 {
		return 0, true
	}
	r := v << n
	return r, r>>n != v || !fits32(r)
}
