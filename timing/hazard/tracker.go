package hazard

import "github.com/sarchlab/dpsim/insts"

const (
	slotCNTR  = 4 * insts.NumAddrRegs
	slotMSTAT = slotCNTR + 1
	numSlots  = slotMSTAT + 1
)

// Tracker owns the value history of every latency-restricted register: the
// I, M, L and B files, CNTR and MSTAT.
type Tracker struct {
	slots [numSlots]History
}

// NewTracker creates a tracker with every register reset to zero.
func NewTracker() *Tracker {
	t := &Tracker{}
	t.Reset()
	return t
}

// Reset returns every tracked register to zero with no pending writes.
func (t *Tracker) Reset() {
	for i := range t.slots {
		t.slots[i] = NewHistory(0)
	}
}

func slotOf(r insts.Reg) (int, bool) {
	switch r.Class() {
	case insts.ClassIndex:
		return r.Index(), true
	case insts.ClassModify:
		return insts.NumAddrRegs + r.Index(), true
	case insts.ClassLength:
		return 2*insts.NumAddrRegs + r.Index(), true
	case insts.ClassBase:
		return 3*insts.NumAddrRegs + r.Index(), true
	case insts.ClassCounter:
		return slotCNTR, true
	case insts.ClassMode:
		return slotMSTAT, true
	}
	return 0, false
}

// Tracks reports whether r is latency-restricted.
func (t *Tracker) Tracks(r insts.Reg) bool {
	_, ok := slotOf(r)
	return ok
}

// Current returns the committed value of r, ignoring latency. It is meant
// for state dumps, not for instruction operands.
func (t *Tracker) Current(r insts.Reg) int32 {
	i, ok := slotOf(r)
	if !ok {
		return 0
	}
	return t.slots[i].Value
}

// History returns a copy of the history of r.
func (t *Tracker) History(r insts.Reg) History {
	i, ok := slotOf(r)
	if !ok {
		return History{}
	}
	return t.slots[i]
}

// Write records a pipeline write of v to r at cycle. A write landing in the
// same cycle as an address-generation override of r is dropped; the return
// value reports whether the write was applied.
func (t *Tracker) Write(r insts.Reg, v int32, cycle int64) bool {
	i, ok := slotOf(r)
	if !ok {
		return false
	}
	if t.slots[i].Overridden(cycle) {
		return false
	}
	t.slots[i].Push(v, cycle)
	return true
}

// Override performs an address-generation write of v to r at cycle.
func (t *Tracker) Override(r insts.Reg, v int32, cycle int64) {
	i, ok := slotOf(r)
	if !ok {
		return
	}
	t.slots[i].Override(v, cycle)
}

// Read returns the value of r visible at cycle now.
func (t *Tracker) Read(r insts.Reg, now int64) (value int32, stale bool) {
	i, ok := slotOf(r)
	if !ok {
		return 0, false
	}
	return Visible(now, t.slots[i])
}
