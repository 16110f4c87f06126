// Package cordic is a fixed-point CORDIC rotation and vectoring engine.
//
// Angles are binary angle units on 12 bits: 0x000 is 0, 0x400 is π/2,
// 0x800 is π and 0xC00 is 3π/2. Results are gain-compensated and rounded
// to the nearest integer.
package cordic

import "math"

// AngleBits is the width of an angle.
const AngleBits = 12

const (
	halfTurn    = 1 << (AngleBits - 1)
	quarterTurn = 1 << (AngleBits - 2)

	// frac is the number of fraction bits of the internal datapath.
	frac = 20

	// DefaultIterations gives full 12-bit precision.
	DefaultIterations = 16
)

// Unit is a CORDIC engine. The zero value is not usable; create one with
// New.
type Unit struct {
	iterations int
	atan       []int64 // atan(2^-i) in angle units, scaled by 2^frac
	gain       int64   // 1/K scaled by 2^frac
}

// New creates a unit running DefaultIterations iterations.
func New() *Unit {
	return NewWithIterations(DefaultIterations)
}

// NewWithIterations creates a unit running n iterations.
func NewWithIterations(n int) *Unit {
	if n < 1 {
		n = 1
	}
	u := &Unit{iterations: n, atan: make([]int64, n)}

	k := 1.0
	for i := 0; i < n; i++ {
		t := math.Atan(math.Ldexp(1, -i))
		u.atan[i] = int64(math.Round(t / math.Pi * halfTurn * (1 << frac)))
		k /= math.Sqrt(1 + math.Ldexp(1, -2*i))
	}
	u.gain = int64(math.Round(k * (1 << frac)))
	return u
}

// Iterations returns the number of iterations per operation.
func (u *Unit) Iterations() int {
	return u.iterations
}

// Rotate returns the rectangular form of a vector of length mag at angle.
// Only the low AngleBits bits of angle are used.
func (u *Unit) Rotate(mag, angle int32) (x, y int32) {
	a := int64(angle) & (1<<AngleBits - 1)
	if a >= halfTurn {
		a -= 1 << AngleBits
	}

	// Fold into [-π/2, π/2], where the iteration converges.
	m := int64(mag)
	if a > quarterTurn {
		a -= halfTurn
		m = -m
	} else if a < -quarterTurn {
		a += halfTurn
		m = -m
	}

	xs := m * u.gain
	var ys int64
	z := a << frac
	for i := 0; i < u.iterations; i++ {
		dx, dy := ys>>uint(i), xs>>uint(i)
		if z >= 0 {
			xs, ys, z = xs-dx, ys+dy, z-u.atan[i]
		} else {
			xs, ys, z = xs+dx, ys-dy, z+u.atan[i]
		}
	}
	return descale(xs), descale(ys)
}

// Vector returns the length of (x, y).
func (u *Unit) Vector(x, y int32) int32 {
	xs, ys := int64(x)<<frac, int64(y)<<frac
	if xs < 0 {
		xs, ys = -xs, -ys
	}
	for i := 0; i < u.iterations; i++ {
		dx, dy := ys>>uint(i), xs>>uint(i)
		if ys < 0 {
			xs, ys = xs-dx, ys+dy
		} else {
			xs, ys = xs+dx, ys-dy
		}
	}
	return descale(xs * u.gain >> frac)
}

func descale(v int64) int32 {
	return int32((v + 1<<(frac-1)) >> frac)
}
