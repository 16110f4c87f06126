package emu

import (
	"fmt"

	"github.com/sarchlab/dpsim/diag"
	"github.com/sarchlab/dpsim/insts"
)

func pass12(v int32) sum   { return add12(0, v, false) }
func negate12(v int32) sum { return add12(0, ^v, true) }

// ExecuteComplex runs a complex ALU operation on the pairs (xr, xi) and
// (yr, yi). The real and imaginary parts are computed and flagged
// independently. The rotations take their quarter-turn count from the low
// two bits of yr.
func (a *ALU) ExecuteComplex(op insts.Op, xr, xi, yr, yi Lanes, mask Mask, saturate bool) (Result, error) {
	res := Result{Complex: true, Fields: aluFields}
	if !op.IsComplexALU() {
		return res, fmt.Errorf("%w: %v is not a complex ALU operation", diag.ErrInvalidOperand, op)
	}

	for j := 0; j < a.lanes; j++ {
		if !mask[j] {
			continue
		}

		ar, ai := SignExtend(xr[j], 12), SignExtend(xi[j], 12)
		br, bi := SignExtend(yr[j], 12), SignExtend(yi[j], 12)

		var re, im sum
		switch op {
		case insts.OpCADD:
			re, im = add12(ar, br, false), add12(ai, bi, false)
		case insts.OpCSUB:
			re, im = add12(ar, ^br, true), add12(ai, ^bi, true)
		case insts.OpCSUBB:
			re, im = add12(br, ^ar, true), add12(bi, ^ai, true)
		case insts.OpCCONJ:
			re, im = pass12(ar), negate12(ai)
		case insts.OpRCCW:
			re, im = rotate90(ar, ai, int(br&3))
		case insts.OpRCW:
			re, im = rotate90(ar, ai, int(-br&3))
		}

		res.Value[j], res.Flags[j] = flags12(re, saturate)
		res.Imag[j], res.ImagFlags[j] = flags12(im, saturate)
	}
	return res, nil
}

// rotate90 multiplies re + j*im by j^k.
func rotate90(re, im int32, k int) (sum, sum) {
	switch k {
	case 1: // ×j
		return negate12(im), pass12(re)
	case 2: // ×(−1)
		return negate12(re), negate12(im)
	case 3: // ×(−j)
		return pass12(im), negate12(re)
	}
	return pass12(re), pass12(im)
}
