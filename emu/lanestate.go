package emu

// LaneState holds the enabled-lane mask and the master-lane selector
// derived from DSTAT0 and DSTAT1.
type LaneState struct {
	lanes   int
	enabled Mask
	master  Mask
}

// NewLaneState creates the lane state of an n-lane core, in reset state.
func NewLaneState(n int) *LaneState {
	s := &LaneState{lanes: n}
	s.Reset()
	return s
}

// Reset enables lane 0 only and makes it master.
func (s *LaneState) Reset() {
	s.enabled = Mask{true}
	s.master = Mask{true}
}

// Lanes returns the number of configured lanes.
func (s *LaneState) Lanes() int {
	return s.lanes
}

// WriteEnable applies a DSTAT0 write. Set bits enable their lane; clear
// bits leave the lane as it was. Only reset disables a lane.
func (s *LaneState) WriteEnable(v int32) {
	for j := 0; j < s.lanes; j++ {
		if v&(1<<j) != 0 {
			s.enabled[j] = true
		}
	}
}

// WriteMaster applies a DSTAT1 write. The lowest set bit selects the
// master lane and every other lane loses master status. A value with no
// bit set for a configured lane leaves no master.
func (s *LaneState) WriteMaster(v int32) {
	s.master = Mask{}
	for j := 0; j < s.lanes; j++ {
		if v&(1<<j) != 0 {
			s.master[j] = true
			return
		}
	}
}

// Enabled returns the enabled-lane mask.
func (s *LaneState) Enabled() Mask {
	return s.enabled
}

// Master returns the master-lane mask. At most one lane is set.
func (s *LaneState) Master() Mask {
	return s.master
}

// MasterLane returns the master lane, or lane 0 with ok false when there
// is none.
func (s *LaneState) MasterLane() (lane int, ok bool) {
	for j := 0; j < s.lanes; j++ {
		if s.master[j] {
			return j, true
		}
	}
	return 0, false
}

// Active returns the lanes that are enabled and set in mask.
func (s *LaneState) Active(mask Mask) Mask {
	return s.enabled.And(mask)
}

// ScalarWriter returns the lane whose value a lane-path write of a scalar
// register commits: the first lane, in ascending order, that is master and
// set in mask.
func (s *LaneState) ScalarWriter(mask Mask) (lane int, ok bool) {
	for j := 0; j < s.lanes; j++ {
		if s.master[j] && mask[j] {
			return j, true
		}
	}
	return 0, false
}
