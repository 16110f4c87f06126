package insts

import (
	"fmt"
	"strings"
)

// Reg is a register handle resolved at decode time.
type Reg uint16

// Register file sizes.
const (
	NumDataRegs  = 32
	NumAccRegs   = 8
	NumAddrRegs  = 8
	NumIntVecs   = 4
	DataRegWidth = 12
)

// Register handle layout. Banked registers are addressed through the
// constructor functions (R, ACC, I, ...).
const (
	RegNone Reg = iota
	regRBase
)

const (
	regAccBase  = regRBase + NumDataRegs
	regAccHBase = regAccBase + NumAccRegs
	regAccMBase = regAccHBase + NumAccRegs
	regAccLBase = regAccMBase + NumAccRegs
	regIBase    = regAccLBase + NumAccRegs
	regMBase    = regIBase + NumAddrRegs
	regLBase    = regMBase + NumAddrRegs
	regBBase    = regLBase + NumAddrRegs
	regIVECBase = regBBase + NumAddrRegs

	// RegCNTR is the hardware loop counter.
	RegCNTR = regIVECBase + NumIntVecs
)

// Control and status registers.
const (
	RegLPEVER = RegCNTR + 1 + iota
	RegPCSTACK
	RegLPSTACK
	RegMSTAT
	RegSSTAT
	RegICNTL
	RegIMASK
	RegIRPTL
	RegDSTAT0
	RegDSTAT1
	RegDID
	RegUMCOUNT
	RegASTATR
	RegASTATI
	RegASTATC

	regCount
)

// CrossLaneLo and CrossLaneHi bound the data registers reachable by the
// cross-lane instructions.
var (
	CrossLaneLo = R(24)
	CrossLaneHi = R(31)
)

// Class groups registers that share storage and access rules.
type Class uint8

// Register classes.
const (
	ClassNone Class = iota
	ClassData
	ClassAcc
	ClassAccH
	ClassAccM
	ClassAccL
	ClassIndex
	ClassModify
	ClassLength
	ClassBase
	ClassCounter
	ClassMode
	ClassStackStatus
	ClassControl
	ClassLaneEnable
	ClassLaneMaster
	ClassLaneID
	ClassUnalignedCount
	ClassFlags
)

// R returns the handle of data register Rn.
func R(n int) Reg { return banked(regRBase, n, NumDataRegs) }

// ACC returns the handle of accumulator ACCn.
func ACC(n int) Reg { return banked(regAccBase, n, NumAccRegs) }

// AccH returns the handle of the 8-bit high field of ACCn.
func AccH(n int) Reg { return banked(regAccHBase, n, NumAccRegs) }

// AccM returns the handle of the 12-bit middle field of ACCn.
func AccM(n int) Reg { return banked(regAccMBase, n, NumAccRegs) }

// AccL returns the handle of the 12-bit low field of ACCn.
func AccL(n int) Reg { return banked(regAccLBase, n, NumAccRegs) }

// I returns the handle of address register In.
func I(n int) Reg { return banked(regIBase, n, NumAddrRegs) }

// M returns the handle of modify register Mn.
func M(n int) Reg { return banked(regMBase, n, NumAddrRegs) }

// L returns the handle of circular-buffer length register Ln.
func L(n int) Reg { return banked(regLBase, n, NumAddrRegs) }

// B returns the handle of circular-buffer base register Bn.
func B(n int) Reg { return banked(regBBase, n, NumAddrRegs) }

// IVEC returns the handle of interrupt vector register IVECn.
func IVEC(n int) Reg { return banked(regIVECBase, n, NumIntVecs) }

func banked(base Reg, n, size int) Reg {
	if n < 0 || n >= size {
		return regCount
	}
	return base + Reg(n)
}

// Valid reports whether r names a real register (RegNone included).
func (r Reg) Valid() bool {
	return r < regCount
}

// Class returns the register class of r.
func (r Reg) Class() Class {
	switch {
	case r == RegNone || r >= regCount:
		return ClassNone
	case r < regAccBase:
		return ClassData
	case r < regAccHBase:
		return ClassAcc
	case r < regAccMBase:
		return ClassAccH
	case r < regAccLBase:
		return ClassAccM
	case r < regIBase:
		return ClassAccL
	case r < regMBase:
		return ClassIndex
	case r < regLBase:
		return ClassModify
	case r < regBBase:
		return ClassLength
	case r < regIVECBase:
		return ClassBase
	case r < RegCNTR:
		return ClassControl
	}

	switch r {
	case RegCNTR:
		return ClassCounter
	case RegMSTAT:
		return ClassMode
	case RegSSTAT:
		return ClassStackStatus
	case RegDSTAT0:
		return ClassLaneEnable
	case RegDSTAT1:
		return ClassLaneMaster
	case RegDID:
		return ClassLaneID
	case RegUMCOUNT:
		return ClassUnalignedCount
	case RegASTATR, RegASTATI, RegASTATC:
		return ClassFlags
	default:
		return ClassControl
	}
}

// Index returns the bank index of a banked register (R5 -> 5, ACC3.M -> 3).
// Unbanked registers return 0.
func (r Reg) Index() int {
	switch r.Class() {
	case ClassData:
		return int(r - regRBase)
	case ClassAcc:
		return int(r - regAccBase)
	case ClassAccH:
		return int(r - regAccHBase)
	case ClassAccM:
		return int(r - regAccMBase)
	case ClassAccL:
		return int(r - regAccLBase)
	case ClassIndex:
		return int(r - regIBase)
	case ClassModify:
		return int(r - regMBase)
	case ClassLength:
		return int(r - regLBase)
	case ClassBase:
		return int(r - regBBase)
	}
	if r >= regIVECBase && r < RegCNTR {
		return int(r - regIVECBase)
	}
	return 0
}

// Width returns the architectural width of r in bits.
func (r Reg) Width() int {
	switch r.Class() {
	case ClassData, ClassAccM, ClassAccL:
		return DataRegWidth
	case ClassAcc:
		return 32
	case ClassAccH, ClassMode:
		return 8
	case ClassIndex, ClassModify, ClassLength, ClassBase, ClassCounter,
		ClassUnalignedCount:
		return 16
	case ClassStackStatus:
		return 7
	case ClassLaneEnable, ClassLaneMaster, ClassLaneID:
		return 4
	case ClassFlags:
		return 10
	}

	switch r {
	case RegLPEVER:
		return 1
	case RegICNTL:
		return 8
	case RegNone:
		return 0
	default:
		return 16
	}
}

// IsLaneReplicated reports whether r has an independent copy per lane.
func (r Reg) IsLaneReplicated() bool {
	switch r.Class() {
	case ClassData, ClassAcc, ClassAccH, ClassAccM, ClassAccL,
		ClassLaneID, ClassUnalignedCount, ClassFlags:
		return true
	}
	return false
}

// IsScalar reports whether r is a single, non-replicated register.
func (r Reg) IsScalar() bool {
	return r != RegNone && r.Valid() && !r.IsLaneReplicated()
}

// IsHazardTracked reports whether reads of r during execution must go
// through the load-use latency model.
func (r Reg) IsHazardTracked() bool {
	switch r.Class() {
	case ClassIndex, ClassModify, ClassLength, ClassBase, ClassCounter, ClassMode:
		return true
	}
	return false
}

// IsAccumulator reports whether r is an accumulator or an accumulator field.
func (r Reg) IsAccumulator() bool {
	switch r.Class() {
	case ClassAcc, ClassAccH, ClassAccM, ClassAccL:
		return true
	}
	return false
}

// IsReadOnly reports whether writes to r are illegal.
func (r Reg) IsReadOnly() bool {
	return r == RegDID
}

// IsSigned reports whether scalar reads of r sign-extend.
func (r Reg) IsSigned() bool {
	switch r.Class() {
	case ClassData, ClassAcc, ClassAccH, ClassAccM, ClassAccL, ClassModify:
		return true
	}
	return false
}

// IsCrossLaneWindow reports whether r may be used by cross-lane access.
func (r Reg) IsCrossLaneWindow() bool {
	return r.Class() == ClassData && r >= CrossLaneLo && r <= CrossLaneHi
}

// Pair returns the odd partner of an even register used as the imaginary
// half of a complex operand. ok is false if r cannot start a pair.
func (r Reg) Pair() (imag Reg, ok bool) {
	switch r.Class() {
	case ClassData:
		if r.Index()%2 == 0 {
			return r + 1, true
		}
	case ClassAcc:
		if r.Index()%2 == 0 {
			return r + 1, true
		}
	}
	return RegNone, false
}

var controlNames = map[Reg]string{
	RegCNTR:    "CNTR",
	RegLPEVER:  "LPEVER",
	RegPCSTACK: "PCSTACK",
	RegLPSTACK: "LPSTACK",
	RegMSTAT:   "MSTAT",
	RegSSTAT:   "SSTAT",
	RegICNTL:   "ICNTL",
	RegIMASK:   "IMASK",
	RegIRPTL:   "IRPTL",
	RegDSTAT0:  "DSTAT0",
	RegDSTAT1:  "DSTAT1",
	RegDID:     "DID",
	RegUMCOUNT: "UMCOUNT",
	RegASTATR:  "ASTAT.R",
	RegASTATI:  "ASTAT.I",
	RegASTATC:  "ASTAT.C",
}

// String returns the assembler name of r.
func (r Reg) String() string {
	switch r.Class() {
	case ClassData:
		return fmt.Sprintf("R%d", r.Index())
	case ClassAcc:
		return fmt.Sprintf("ACC%d", r.Index())
	case ClassAccH:
		return fmt.Sprintf("ACC%d.H", r.Index())
	case ClassAccM:
		return fmt.Sprintf("ACC%d.M", r.Index())
	case ClassAccL:
		return fmt.Sprintf("ACC%d.L", r.Index())
	case ClassIndex:
		return fmt.Sprintf("I%d", r.Index())
	case ClassModify:
		return fmt.Sprintf("M%d", r.Index())
	case ClassLength:
		return fmt.Sprintf("L%d", r.Index())
	case ClassBase:
		return fmt.Sprintf("B%d", r.Index())
	}
	if r >= regIVECBase && r < RegCNTR {
		return fmt.Sprintf("IVEC%d", r.Index())
	}
	if name, ok := controlNames[r]; ok {
		return name
	}
	if r == RegNone {
		return "NONE"
	}
	return fmt.Sprintf("Reg(%d)", uint16(r))
}

// AllRegs returns every valid register handle except RegNone, in handle
// order.
func AllRegs() []Reg {
	regs := make([]Reg, 0, int(regCount)-1)
	for r := RegNone + 1; r < regCount; r++ {
		regs = append(regs, r)
	}
	return regs
}

var regsByName map[string]Reg

func init() {
	regsByName = make(map[string]Reg, int(regCount))
	regsByName["NONE"] = RegNone
	for _, r := range AllRegs() {
		regsByName[r.String()] = r
	}
}

// LookupReg resolves an assembler register name. Names are case-insensitive
// and a leading underscore (the lane-path spelling, e.g. "_CNTR") is
// accepted.
func LookupReg(name string) (Reg, bool) {
	name = strings.TrimPrefix(strings.ToUpper(strings.TrimSpace(name)), "_")
	r, ok := regsByName[name]
	return r, ok
}
