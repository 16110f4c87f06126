package emu

import (
	"fmt"

	"github.com/sarchlab/dpsim/diag"
	"github.com/sarchlab/dpsim/insts"
)

// Saturation bounds of a 12-bit result.
const (
	max12 = 0x7FF
	min12 = -0x800
)

// ALU flag fields. Every ALU operation rewrites all of them.
const aluFields = FieldAZ | FieldAN | FieldAV | FieldAC | FieldAS | FieldAQ

// Result is the per-lane outcome of one operation. Only lanes set in the
// mask the unit was given are meaningful.
type Result struct {
	Value Lanes
	Flags [MaxLanes]Flags

	// Imag and ImagFlags carry the imaginary part of complex results.
	Complex   bool
	Imag      Lanes
	ImagFlags [MaxLanes]Flags

	// Fields selects the flags the operation updates.
	Fields FlagField

	// Overflow marks the lanes whose multiplier result overflowed, once per
	// overflowing part.
	Overflow [MaxLanes]int
}

// sum is a raw adder output.
type sum struct {
	r  int32
	ov bool
	c  bool
}

// add12 adds two 12-bit operands and a carry-in. Subtraction is a + ^b + 1,
// so its carry is the no-borrow carry of the adder.
func add12(a, b int32, cin bool) sum {
	ua := uint32(a) & 0xFFF
	ub := uint32(b) & 0xFFF
	s := ua + ub
	if cin {
		s++
	}

	sa := ua&0x800 != 0
	sb := ub&0x800 != 0
	sr := s&0x800 != 0
	return sum{
		r:  SignExtend(int32(s), 12),
		ov: sa == sb && sr != sa,
		c:  s > 0xFFF,
	}
}

// add32 adds two accumulator operands in a wide domain.
func add32(a, b int32, cin bool) sum {
	var ci int64
	if cin {
		ci = 1
	}
	s := int64(a) + int64(b) + ci
	us := uint64(uint32(a)) + uint64(uint32(b)) + uint64(ci)
	return sum{
		r:  int32(s),
		ov: !fits32(s),
		c:  us > 0xFFFFFFFF,
	}
}

// flags12 applies saturation to a 12-bit adder output and derives its
// flags. Overflow without carry means the true result was too large.
func flags12(s sum, saturate bool) (int32, Flags) {
	r := s.r
	if saturate && s.ov {
		if s.c {
			r = min12
		} else {
			r = max12
		}
	}
	return r, Flags{AZ: r == 0, AN: r < 0, AV: s.ov, AC: s.c}
}

func logicFlags(r int32) Flags {
	return Flags{AZ: r == 0, AN: r < 0}
}

// ALU is the per-lane arithmetic and logic unit.
type ALU struct {
	lanes int
}

// NewALU creates an ALU for n lanes.
func NewALU(n int) *ALU {
	return &ALU{lanes: n}
}

// Execute runs a real ALU operation in every lane set in mask. The
// instruction type picks the 12-bit or the accumulator flag family; carry
// holds each lane's AC flag for the carry-in forms.
func (a *ALU) Execute(t insts.InstType, op insts.Op, x, y Lanes, carry, mask Mask, saturate bool) (Result, error) {
	res := Result{Fields: aluFields}

	family := insts.FlagFamily(t)
	if !op.IsALU() || (family != insts.Family12 && family != insts.FamilyAcc32) {
		return res, fmt.Errorf("%w: %v under %v", diag.ErrInvalidOperand, op, t)
	}

	for j := 0; j < a.lanes; j++ {
		if !mask[j] {
			continue
		}

		var (
			r   int32
			f   Flags
			err error
		)
		if family == insts.FamilyAcc32 {
			r, f, err = aluAcc(op, x[j], y[j], carry[j])
		} else {
			r, f, err = alu12(op, x[j], y[j], carry[j], saturate)
		}
		if err != nil {
			return res, err
		}
		res.Value[j] = r
		res.Flags[j] = f
	}
	return res, nil
}

func alu12(op insts.Op, a, b int32, cin, saturate bool) (int32, Flags, error) {
	a = SignExtend(a, 12)
	b = SignExtend(b, 12)

	var s sum
	switch op {
	case insts.OpADD:
		s = add12(a, b, false)
	case insts.OpADDC:
		s = add12(a, b, cin)
	case insts.OpSUB:
		s = add12(a, ^b, true)
	case insts.OpSUBC:
		s = add12(a, ^b, cin)
	case insts.OpSUBB:
		s = add12(b, ^a, true)
	case insts.OpSUBBC:
		s = add12(b, ^a, cin)
	case insts.OpINC:
		s = add12(a, 1, false)
	case insts.OpDEC:
		s = add12(a, ^int32(1), true)
	case insts.OpABS:
		if a < 0 {
			s = add12(0, ^a, true)
		} else {
			s = add12(0, a, false)
		}
		r, f := flags12(s, saturate)
		f.AS = a < 0
		return r, f, nil
	case insts.OpSCR:
		if b&1 != 0 {
			s = add12(0, ^a, true)
		} else {
			s = add12(0, a, false)
		}
	default:
		r, ok := logic(op, a, b, 0xF)
		if !ok {
			return 0, Flags{}, fmt.Errorf("%w: %v", diag.ErrInvalidOperand, op)
		}
		r = SignExtend(r, 12)
		return r, logicFlags(r), nil
	}

	r, f := flags12(s, saturate)
	return r, f, nil
}

// aluAcc runs op on 32-bit accumulator operands. Results wrap; the
// accumulator forms never saturate.
func aluAcc(op insts.Op, a, b int32, cin bool) (int32, Flags, error) {
	var s sum
	switch op {
	case insts.OpADD:
		s = add32(a, b, false)
	case insts.OpADDC:
		s = add32(a, b, cin)
	case insts.OpSUB:
		s = add32(a, ^b, true)
	case insts.OpSUBC:
		s = add32(a, ^b, cin)
	case insts.OpSUBB:
		s = add32(b, ^a, true)
	case insts.OpSUBBC:
		s = add32(b, ^a, cin)
	case insts.OpINC:
		s = add32(a, 1, false)
	case insts.OpDEC:
		s = add32(a, ^int32(1), true)
	case insts.OpABS:
		if a < 0 {
			s = add32(0, ^a, true)
		} else {
			s = add32(0, a, false)
		}
		f := Flags{AZ: s.r == 0, AN: s.r < 0, AV: s.ov, AC: s.c, AS: a < 0}
		return s.r, f, nil
	case insts.OpSCR:
		if b&1 != 0 {
			s = add32(0, ^a, true)
		} else {
			s = add32(0, a, false)
		}
	default:
		r, ok := logic(op, a, b, 0x1F)
		if !ok {
			return 0, Flags{}, fmt.Errorf("%w: %v", diag.ErrInvalidOperand, op)
		}
		return r, logicFlags(r), nil
	}
	return s.r, Flags{AZ: s.r == 0, AN: s.r < 0, AV: s.ov, AC: s.c}, nil
}

// logic evaluates the bitwise and single-bit operations. bitMask limits
// the bit index taken from b.
func logic(op insts.Op, a, b int32, bitMask int32) (int32, bool) {
	bit := int32(1) << uint(b&bitMask)
	switch op {
	case insts.OpAND:
		return a & b, true
	case insts.OpOR:
		return a | b, true
	case insts.OpXOR:
		return a ^ b, true
	case insts.OpNOT:
		return ^a, true
	case insts.OpTSTBIT:
		return a & bit, true
	case insts.OpSETBIT:
		return a | bit, true
	case insts.OpCLRBIT:
		return a &^ bit, true
	case insts.OpTGLBIT:
		return a ^ bit, true
	}
	return 0, false
}
