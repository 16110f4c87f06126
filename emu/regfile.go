package emu

import (
	"fmt"

	"github.com/sarchlab/dpsim/diag"
	"github.com/sarchlab/dpsim/insts"
	"github.com/sarchlab/dpsim/timing/hazard"
)

// RegFile is the architectural register bank.
//
// Data registers, accumulators and the per-lane status registers have one
// copy per lane. The address, counter and mode registers are scalar and
// live in the hazard tracker, which keeps the write history their reads
// depend on. ASTAT and SSTAT are backed by the flag engine, DSTAT0 and
// DSTAT1 by the lane state.
type RegFile struct {
	lanes   int
	state   *LaneState
	flags   *FlagEngine
	tracker *hazard.Tracker

	r       [insts.NumDataRegs]Lanes
	acc     [insts.NumAccRegs]Lanes
	umcount Lanes
	ctrl    map[insts.Reg]int32

	cycle int64
}

// NewRegFile creates a register bank for n lanes over the given lane state,
// flag engine and hazard tracker, and resets it.
func NewRegFile(n int, state *LaneState, flags *FlagEngine, tracker *hazard.Tracker) *RegFile {
	rf := &RegFile{
		lanes:   n,
		state:   state,
		flags:   flags,
		tracker: tracker,
	}
	rf.Reset()
	return rf
}

// Reset returns every register to its architectural default and the clock
// to cycle 0.
func (rf *RegFile) Reset() {
	rf.r = [insts.NumDataRegs]Lanes{}
	rf.acc = [insts.NumAccRegs]Lanes{}
	rf.umcount = Lanes{}
	rf.ctrl = make(map[insts.Reg]int32)
	rf.cycle = 0

	rf.state.Reset()
	rf.flags.Reset()
	rf.tracker.Reset()
}

// Lanes returns the number of configured lanes.
func (rf *RegFile) Lanes() int { return rf.lanes }

// Cycle returns the current logical cycle.
func (rf *RegFile) Cycle() int64 { return rf.cycle }

// Advance moves the clock one cycle forward.
func (rf *RegFile) Advance() { rf.cycle++ }

// Tracker returns the hazard tracker backing the scalar address, counter
// and mode registers.
func (rf *RegFile) Tracker() *hazard.Tracker { return rf.tracker }

func (rf *RegFile) check(reg insts.Reg) error {
	if !reg.Valid() || (reg != insts.RegNone && reg.Class() == insts.ClassNone) {
		return fmt.Errorf("%w: %v", diag.ErrInvalidRegister, reg)
	}
	return nil
}

func (rf *RegFile) checkWritable(reg insts.Reg) error {
	if err := rf.check(reg); err != nil {
		return err
	}
	if reg.IsReadOnly() {
		return fmt.Errorf("%w: %v", diag.ErrReadOnly, reg)
	}
	return nil
}

// fit reduces v to the architectural width of reg.
func fit(reg insts.Reg, v int32) int32 {
	if reg.IsSigned() {
		return SignExtend(v, reg.Width())
	}
	return Truncate(v, reg.Width())
}

func bankOf(reg insts.Reg) Bank {
	switch reg {
	case insts.RegASTATI:
		return BankI
	case insts.RegASTATC:
		return BankC
	}
	return BankR
}

// ReadLane returns every lane of reg. Narrow fields come back
// sign-extended. A scalar register reads the same value in every lane.
func (rf *RegFile) ReadLane(reg insts.Reg) (Lanes, error) {
	if err := rf.check(reg); err != nil {
		return Lanes{}, err
	}

	var out Lanes
	i := reg.Index()
	switch reg.Class() {
	case insts.ClassNone:
		return out, nil
	case insts.ClassData:
		return rf.r[i], nil
	case insts.ClassAcc:
		return rf.acc[i], nil
	case insts.ClassAccH:
		for j := range out {
			out[j] = AccH(rf.acc[i][j])
		}
	case insts.ClassAccM:
		for j := range out {
			out[j] = AccM(rf.acc[i][j])
		}
	case insts.ClassAccL:
		for j := range out {
			out[j] = AccL(rf.acc[i][j])
		}
	case insts.ClassLaneID:
		for j := range out {
			out[j] = int32(j)
		}
	case insts.ClassUnalignedCount:
		return rf.umcount, nil
	case insts.ClassFlags:
		b := bankOf(reg)
		for j := 0; j < rf.lanes; j++ {
			out[j] = rf.flags.Get(b, j).Pack()
		}
	default:
		v, err := rf.ReadScalar(reg)
		if err != nil {
			return out, err
		}
		out = Splat(v)
	}
	return out, nil
}

// ReadScalar returns the committed value of reg. A lane-replicated
// register reads its master lane, or lane 0 when no lane is master.
//
// Latency-restricted registers return their newest value here; operand
// reads during execution go through ReadLatency instead.
func (rf *RegFile) ReadScalar(reg insts.Reg) (int32, error) {
	if err := rf.check(reg); err != nil {
		return 0, err
	}

	if reg.IsLaneReplicated() {
		l, err := rf.ReadLane(reg)
		if err != nil {
			return 0, err
		}
		lane, _ := rf.state.MasterLane()
		return l[lane], nil
	}

	switch reg.Class() {
	case insts.ClassNone:
		return 0, nil
	case insts.ClassIndex, insts.ClassModify, insts.ClassLength, insts.ClassBase,
		insts.ClassCounter, insts.ClassMode:
		return rf.tracker.Current(reg), nil
	case insts.ClassStackStatus:
		return rf.flags.SSTAT(), nil
	case insts.ClassLaneEnable:
		return int32(rf.state.Enabled().Bits()), nil
	case insts.ClassLaneMaster:
		return int32(rf.state.Master().Bits()), nil
	}
	return rf.ctrl[reg], nil
}

// ReadLatency returns the value of a latency-restricted register as seen
// by an instruction issued in the current cycle, and whether that value
// predates the newest write.
func (rf *RegFile) ReadLatency(reg insts.Reg) (value int32, stale bool, err error) {
	if !rf.tracker.Tracks(reg) {
		return 0, false, fmt.Errorf("%w: %v is not latency-restricted", diag.ErrInvalidOperand, reg)
	}
	value, stale = rf.tracker.Read(reg, rf.cycle)
	return value, stale, nil
}

// WriteScalar writes v to reg. A lane-replicated register is written in
// every enabled lane. applied is false when a latency-restricted register
// was already set by address generation this cycle and the write was
// dropped.
func (rf *RegFile) WriteScalar(reg insts.Reg, v int32) (applied bool, err error) {
	if reg == insts.RegNone {
		return true, nil
	}
	if err := rf.checkWritable(reg); err != nil {
		return false, err
	}
	if reg.IsLaneReplicated() {
		return rf.WriteLane(reg, Splat(v), AllLanes(rf.lanes))
	}
	return rf.writeScalar(reg, v), nil
}

func (rf *RegFile) writeScalar(reg insts.Reg, v int32) bool {
	v = fit(reg, v)
	switch reg.Class() {
	case insts.ClassIndex, insts.ClassModify, insts.ClassLength, insts.ClassBase,
		insts.ClassCounter, insts.ClassMode:
		return rf.tracker.Write(reg, v, rf.cycle)
	case insts.ClassStackStatus:
		rf.flags.WriteSSTAT(v)
	case insts.ClassLaneEnable:
		rf.state.WriteEnable(v)
	case insts.ClassLaneMaster:
		rf.state.WriteMaster(v)
	default:
		rf.ctrl[reg] = v
	}
	return true
}

// WriteLane writes v to reg through the lane path. Lane j of a
// lane-replicated register is written when it is enabled and set in mask.
// A scalar register takes the value of the master lane if that lane is set
// in mask, and is left alone otherwise.
func (rf *RegFile) WriteLane(reg insts.Reg, v Lanes, mask Mask) (applied bool, err error) {
	if reg == insts.RegNone {
		return true, nil
	}
	if err := rf.checkWritable(reg); err != nil {
		return false, err
	}

	if reg.IsScalar() {
		lane, ok := rf.state.ScalarWriter(mask)
		if !ok {
			return true, nil
		}
		return rf.writeScalar(reg, v[lane]), nil
	}

	active := rf.state.Active(mask)
	for j := 0; j < rf.lanes; j++ {
		if active[j] {
			rf.setLane(reg, j, v[j])
		}
	}
	return true, nil
}

// SetLane writes v into one lane of a lane-replicated register regardless
// of the lane-enable state.
func (rf *RegFile) SetLane(reg insts.Reg, lane int, v int32) error {
	if err := rf.checkWritable(reg); err != nil {
		return err
	}
	if !reg.IsLaneReplicated() || lane < 0 || lane >= rf.lanes {
		return fmt.Errorf("%w: lane %d of %v", diag.ErrInvalidOperand, lane, reg)
	}
	rf.setLane(reg, lane, v)
	return nil
}

func (rf *RegFile) setLane(reg insts.Reg, j int, v int32) {
	i := reg.Index()
	switch reg.Class() {
	case insts.ClassData:
		rf.r[i][j] = SignExtend(v, insts.DataRegWidth)
	case insts.ClassAcc:
		rf.acc[i][j] = v
	case insts.ClassAccH:
		rf.acc[i][j] = WithAccH(rf.acc[i][j], v)
	case insts.ClassAccM:
		rf.acc[i][j] = WithAccM(rf.acc[i][j], v)
	case insts.ClassAccL:
		rf.acc[i][j] = WithAccL(rf.acc[i][j], v)
	case insts.ClassUnalignedCount:
		// Any write clears the counter.
		rf.umcount[j] = 0
	case insts.ClassFlags:
		rf.flags.Set(bankOf(reg), j, UnpackFlags(v))
	}
}

// CountUnaligned increments UMCOUNT in every lane set in mask.
func (rf *RegFile) CountUnaligned(mask Mask) {
	for j := 0; j < rf.lanes; j++ {
		if mask[j] {
			rf.umcount[j] = Truncate(rf.umcount[j]+1, insts.RegUMCOUNT.Width())
		}
	}
}
