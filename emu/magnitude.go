package emu

import (
	"fmt"

	"github.com/sarchlab/dpsim/diag"
	"github.com/sarchlab/dpsim/insts"
)

// CORDIC is the rotation/vectoring primitive behind MAG.C and RECT.C.
type CORDIC interface {
	// Rotate returns the rectangular form of a vector of length mag at
	// angle.
	Rotate(mag, angle int32) (x, y int32)
	// Vector returns the length of (x, y).
	Vector(x, y int32) int32
}

// magnitude12 range-checks a CORDIC output against the 12-bit result
// field. The carry of a negative output is set, so saturation clamps
// toward the sign of the true value.
func magnitude12(v int32) sum {
	return sum{
		r:  SignExtend(v, 12),
		ov: v > max12 || v < min12,
		c:  v < 0,
	}
}

// Magnitude runs the CORDIC-backed complex operations.
type Magnitude struct {
	lanes  int
	cordic CORDIC
}

// NewMagnitude creates a magnitude unit for n lanes over c.
func NewMagnitude(n int, c CORDIC) *Magnitude {
	return &Magnitude{lanes: n, cordic: c}
}

// Polar computes MAG.C: the length of (xr, xi). The result is real.
func (m *Magnitude) Polar(xr, xi Lanes, mask Mask, saturate bool) Result {
	res := Result{Fields: aluFields}
	for j := 0; j < m.lanes; j++ {
		if !mask[j] {
			continue
		}
		v := m.cordic.Vector(SignExtend(xr[j], 12), SignExtend(xi[j], 12))
		res.Value[j], res.Flags[j] = flags12(magnitude12(v), saturate)
	}
	return res
}

// Rect computes RECT.C: the rectangular form of a vector of length mag at
// the given angle.
func (m *Magnitude) Rect(mag, angle Lanes, mask Mask, saturate bool) Result {
	res := Result{Complex: true, Fields: aluFields}
	for j := 0; j < m.lanes; j++ {
		if !mask[j] {
			continue
		}
		x, y := m.cordic.Rotate(SignExtend(mag[j], 12), Truncate(angle[j], 12))
		res.Value[j], res.Flags[j] = flags12(magnitude12(x), saturate)
		res.Imag[j], res.ImagFlags[j] = flags12(magnitude12(y), saturate)
	}
	return res
}

// Execute dispatches op to Polar or Rect.
func (m *Magnitude) Execute(op insts.Op, a, b Lanes, mask Mask, saturate bool) (Result, error) {
	switch op {
	case insts.OpMAG:
		return m.Polar(a, b, mask, saturate), nil
	case insts.OpRECT:
		return m.Rect(a, b, mask, saturate), nil
	}
	return Result{}, fmt.Errorf("%w: %v is not a magnitude operation", diag.ErrInvalidOperand, op)
}
