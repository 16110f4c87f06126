package emu

import (
	"fmt"

	"github.com/sarchlab/dpsim/diag"
	"github.com/sarchlab/dpsim/insts"
)

// CrossLane routes register values between lanes. Lane j accesses lane
// (j + offset) mod active.
type CrossLane struct {
	lanes int
}

// NewCrossLane creates a router for n lanes.
func NewCrossLane(n int) *CrossLane {
	return &CrossLane{lanes: n}
}

// Check validates a cross-lane access of reg.
func (x *CrossLane) Check(reg insts.Reg, offset, active int) error {
	if !reg.IsCrossLaneWindow() {
		return fmt.Errorf("%w: %v is outside the cross-lane window %v-%v",
			diag.ErrInvalidOperand, reg, insts.CrossLaneLo, insts.CrossLaneHi)
	}
	if (active != 2 && active != 4) || active > x.lanes {
		return fmt.Errorf("%w: %d active lanes on a %d-lane core", diag.ErrInvalidOperand, active, x.lanes)
	}
	if offset < 0 || offset >= x.lanes {
		return fmt.Errorf("%w: lane offset %d", diag.ErrInvalidOperand, offset)
	}
	return nil
}

// Source returns the lane that lane j accesses.
func (x *CrossLane) Source(j, offset, active int) int {
	return (j + offset) % active
}

// Read returns, in each lane j, the value src holds in lane
// (j + offset) mod active.
func (x *CrossLane) Read(src Lanes, offset, active int) Lanes {
	var out Lanes
	for j := 0; j < x.lanes; j++ {
		out[j] = src[x.Source(j, offset, active)]
	}
	return out
}

// Targets returns, for each issuing lane, the lane its write lands in, or
// -1 when it does not write. Both the issuing and the target lane must be
// enabled and the issuing lane set in mask.
func (x *CrossLane) Targets(offset, active int, enabled, mask Mask) [MaxLanes]int {
	out := [MaxLanes]int{-1, -1, -1, -1}
	for j := 0; j < x.lanes; j++ {
		t := x.Source(j, offset, active)
		if enabled[j] && mask[j] && enabled[t] {
			out[j] = t
		}
	}
	return out
}
