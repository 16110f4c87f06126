package emu

import "github.com/sarchlab/dpsim/insts"

// CondHolds evaluates condition code c against one lane's flags. Codes
// 0-15 expect the ASTAT.R copy, codes 16-31 the ASTAT.C copy. cntr is the
// loop counter value used by NOT CE.
func CondHolds(c insts.Cond, f Flags, cntr int32) bool {
	lt := f.AN != f.AV

	base := c
	if c.Complex() {
		base = c - 16
	}

	switch base {
	case insts.CondEQ:
		return f.AZ
	case insts.CondNE:
		return !f.AZ
	case insts.CondGT:
		return !(lt || f.AZ)
	case insts.CondLE:
		return lt || f.AZ
	case insts.CondLT:
		return lt
	case insts.CondGE:
		return !lt
	case insts.CondAV:
		return f.AV
	case insts.CondNotAV:
		return !f.AV
	case insts.CondAC:
		return f.AC
	case insts.CondNotAC:
		return !f.AC
	case insts.CondSV:
		return f.SV
	case insts.CondNotSV:
		return !f.SV
	case insts.CondMV:
		return f.MV
	case insts.CondNotMV:
		return !f.MV
	}

	// Slots 14 and 15 differ between the two halves.
	if c.Complex() {
		if base == insts.CondNotCE {
			return f.UM
		}
		return !f.UM
	}
	if base == insts.CondNotCE {
		return cntr > 1
	}
	return true
}

// condBank returns the flag copy condition c is evaluated against.
func condBank(c insts.Cond) Bank {
	if c.Complex() {
		return BankC
	}
	return BankR
}
