package emu

import "strings"

// Flags is one lane's copy of an ASTAT register.
type Flags struct {
	AZ bool // zero
	AN bool // negative
	AV bool // ALU overflow
	AC bool // carry
	AS bool // ABS input sign
	AQ bool // quotient
	MV bool // multiplier overflow
	SS bool // shifter input sign
	SV bool // sticky overflow
	UM bool // unaligned memory access
}

// FlagField selects a subset of the ASTAT fields. Bit positions match the
// packed register layout.
type FlagField uint16

// ASTAT fields.
const (
	FieldAZ FlagField = 1 << iota
	FieldAN
	FieldAV
	FieldAC
	FieldAS
	FieldAQ
	FieldMV
	FieldSS
	FieldSV
	FieldUM

	FieldAll FlagField = 1<<10 - 1
)

var flagNames = [...]string{"AZ", "AN", "AV", "AC", "AS", "AQ", "MV", "SS", "SV", "UM"}

func (f *Flags) fields() [10]*bool {
	return [10]*bool{&f.AZ, &f.AN, &f.AV, &f.AC, &f.AS, &f.AQ, &f.MV, &f.SS, &f.SV, &f.UM}
}

// Pack returns the ASTAT register encoding of f.
func (f Flags) Pack() int32 {
	var v int32
	for i, p := range f.fields() {
		if *p {
			v |= 1 << i
		}
	}
	return v
}

// UnpackFlags decodes an ASTAT register value.
func UnpackFlags(v int32) Flags {
	var f Flags
	for i, p := range f.fields() {
		*p = v&(1<<i) != 0
	}
	return f
}

// Merge returns f with the selected fields taken from update.
func (f Flags) Merge(update Flags, fields FlagField) Flags {
	dst := f.fields()
	src := update.fields()
	for i := range dst {
		if fields&(1<<i) != 0 {
			*dst[i] = *src[i]
		}
	}
	return f
}

// String lists the set flags.
func (f Flags) String() string {
	var set []string
	for i, p := range f.fields() {
		if *p {
			set = append(set, flagNames[i])
		}
	}
	if len(set) == 0 {
		return "-"
	}
	return strings.Join(set, " ")
}

// CombineFlags derives the complex flag copy from the real and imaginary
// copies: zero when both parts are zero, every other flag when either part
// has it.
func CombineFlags(re, im Flags) Flags {
	return Flags{
		AZ: re.AZ && im.AZ,
		AN: re.AN || im.AN,
		AV: re.AV || im.AV,
		AC: re.AC || im.AC,
		AS: re.AS || im.AS,
		AQ: re.AQ || im.AQ,
		MV: re.MV || im.MV,
		SS: re.SS || im.SS,
		SV: re.SV || im.SV,
		UM: re.UM || im.UM,
	}
}

// Bank selects one of the three ASTAT copies.
type Bank uint8

// Flag banks.
const (
	BankR Bank = iota // real
	BankI             // imaginary
	BankC             // combined complex
	numBanks
)

// String returns the register suffix of b.
func (b Bank) String() string {
	return [...]string{"R", "I", "C"}[b]
}

// StackID names one of the stacks whose status feeds SSTAT.
type StackID uint8

// Stacks reported in SSTAT.
const (
	StackPC StackID = iota
	StackLoopBegin
	StackLoopCounter
	StackASTAT
)

// Stacks reports the state of the hardware stacks. The stacks belong to
// the sequencer; the core only reads their status.
type Stacks interface {
	Empty(id StackID) bool
	Full(id StackID) bool
	Overflowed(id StackID) bool
	Underflowed(id StackID) bool
}

// NopStacks is a Stacks whose stacks are always empty and never fault.
type NopStacks struct{}

// Empty implements Stacks.
func (NopStacks) Empty(StackID) bool { return true }

// Full implements Stacks.
func (NopStacks) Full(StackID) bool { return false }

// Overflowed implements Stacks.
func (NopStacks) Overflowed(StackID) bool { return false }

// Underflowed implements Stacks.
func (NopStacks) Underflowed(StackID) bool { return false }

// SSTAT bits.
const (
	SSTATPCEmpty = 1 << iota
	SSTATPCFull
	SSTATLoopBeginEmpty
	SSTATLoopBeginFull
	SSTATLoopCounterEmpty
	SSTATLoopCounterFull
	SSTATSOV
)

// FlagEngine owns the three ASTAT copies of every lane together with the
// overflow bookkeeping: the multiplier overflow counters and the sticky
// stack-overflow bit of SSTAT.
type FlagEngine struct {
	lanes  int
	banks  [numBanks][MaxLanes]Flags
	macOV  [MaxLanes]uint64
	sov    bool
	stacks Stacks
}

// NewFlagEngine creates a flag engine for n lanes. A nil stacks reports
// every stack empty.
func NewFlagEngine(n int, stacks Stacks) *FlagEngine {
	if stacks == nil {
		stacks = NopStacks{}
	}
	e := &FlagEngine{lanes: n, stacks: stacks}
	e.Reset()
	return e
}

// Reset clears every flag and counter.
func (e *FlagEngine) Reset() {
	e.banks = [numBanks][MaxLanes]Flags{}
	e.macOV = [MaxLanes]uint64{}
	e.sov = false
}

// Get returns the flags of lane in bank b.
func (e *FlagEngine) Get(b Bank, lane int) Flags {
	return e.banks[b][lane]
}

// Set replaces the flags of lane in bank b, sticky bits included. It models
// an explicit ASTAT write.
func (e *FlagEngine) Set(b Bank, lane int, f Flags) {
	e.banks[b][lane] = f
}

// Update merges the selected fields of f into lane's copy in bank b. SV
// latches when the update sets AV or MV; UM latches when it sets UM.
func (e *FlagEngine) Update(b Bank, lane int, f Flags, fields FlagField) {
	cur := e.banks[b][lane]
	sv := cur.SV
	um := cur.UM

	cur = cur.Merge(f, fields&^(FieldSV|FieldUM))
	if fields&FieldAV != 0 && f.AV || fields&FieldMV != 0 && f.MV {
		sv = true
	}
	if fields&FieldUM != 0 && f.UM {
		um = true
	}
	cur.SV = sv
	cur.UM = um
	e.banks[b][lane] = cur
}

// UpdateComplex updates the real and imaginary copies of lane and derives
// the combined copy from them.
func (e *FlagEngine) UpdateComplex(lane int, re, im Flags, fields FlagField) {
	e.Update(BankR, lane, re, fields)
	e.Update(BankI, lane, im, fields)
	e.Update(BankC, lane, CombineFlags(re, im), fields)
}

// CountMACOverflow records a multiplier overflow in lane.
func (e *FlagEngine) CountMACOverflow(lane int) {
	e.macOV[lane]++
}

// MACOverflows returns the per-lane multiplier overflow counters.
func (e *FlagEngine) MACOverflows() [MaxLanes]uint64 {
	return e.macOV
}

// PollStacks latches SOV if any stack has overflowed or underflowed.
func (e *FlagEngine) PollStacks() {
	for id := StackPC; id <= StackASTAT; id++ {
		if e.stacks.Overflowed(id) || e.stacks.Underflowed(id) {
			e.sov = true
		}
	}
}

// SSTAT composes the stack status register.
func (e *FlagEngine) SSTAT() int32 {
	e.PollStacks()

	var v int32
	bit := func(on bool, mask int32) {
		if on {
			v |= mask
		}
	}
	bit(e.stacks.Empty(StackPC), SSTATPCEmpty)
	bit(e.stacks.Full(StackPC), SSTATPCFull)
	bit(e.stacks.Empty(StackLoopBegin), SSTATLoopBeginEmpty)
	bit(e.stacks.Full(StackLoopBegin), SSTATLoopBeginFull)
	bit(e.stacks.Empty(StackLoopCounter), SSTATLoopCounterEmpty)
	bit(e.stacks.Full(StackLoopCounter), SSTATLoopCounterFull)
	bit(e.sov, SSTATSOV)
	return v
}

// WriteSSTAT applies a write to SSTAT. Only SOV is writable.
func (e *FlagEngine) WriteSSTAT(v int32) {
	e.sov = v&SSTATSOV != 0
}
