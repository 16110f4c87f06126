// Package hazard models the load-use latency of the address, counter and
// mode registers.
//
// A register write takes two cycles to become visible to dependent reads.
// Each tracked register keeps its last two prior values so that a read
// issued inside the latency window returns the value the hardware would
// still expose.
package hazard

import "math"

// Depth is the number of prior values kept per register.
const Depth = 2

// VisibleAfter is the cycle distance at which a write is fully committed.
const VisibleAfter = 3

// never is the write stamp of a slot that has not been written since reset.
const never = math.MinInt64 / 2

// History is the per-register value history.
type History struct {
	// Value is the most recently written (committed) value.
	Value int32
	// Stamp is the cycle Value was written.
	Stamp int64

	// Backup[0] is the most recent prior value, Backup[1] the one before.
	Backup [Depth]int32
	// BackupStamp holds the write cycle of each backup value.
	BackupStamp [Depth]int64

	// overrideCycle is the cycle of the last address-generation write.
	overrideCycle int64
}

// NewHistory returns a history whose value v has been visible forever.
func NewHistory(v int32) History {
	return History{
		Value:         v,
		Stamp:         never,
		Backup:        [Depth]int32{v, v},
		BackupStamp:   [Depth]int64{never, never},
		overrideCycle: never,
	}
}

// Push records a pipeline write of v at cycle.
func (h *History) Push(v int32, cycle int64) {
	h.Backup[1] = h.Backup[0]
	h.BackupStamp[1] = h.BackupStamp[0]
	h.Backup[0] = h.Value
	h.BackupStamp[0] = h.Stamp
	h.Value = v
	h.Stamp = cycle
}

// Override writes v into the live value and both backups at once. Address
// generation writes bypass the pipeline.
func (h *History) Override(v int32, cycle int64) {
	h.Value = v
	h.Backup = [Depth]int32{v, v}
	h.Stamp = cycle
	h.BackupStamp = [Depth]int64{cycle, cycle}
	h.overrideCycle = cycle
}

// Overridden reports whether an address-generation write happened at cycle.
func (h *History) Overridden(cycle int64) bool {
	return h.overrideCycle == cycle
}

// Visible returns the value a read issued at cycle now observes and whether
// that value is older than the committed one.
//
//	d := now - Stamp
//	d <= 1: Backup[1] if now-BackupStamp[0] == 2, else Backup[0]
//	d == 2: Backup[0]
//	d >= 3: Value
func Visible(now int64, h History) (value int32, stale bool) {
	d := now - h.Stamp
	switch {
	case d >= VisibleAfter:
		return h.Value, false
	case d == 2:
		return h.Backup[0], true
	default:
		if now-h.BackupStamp[0] == 2 {
			return h.Backup[1], true
		}
		return h.Backup[0], true
	}
}
