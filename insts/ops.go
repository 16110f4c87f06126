package insts

import (
	"fmt"
	"strings"
)

// Op represents an opcode of the data-path instruction set.
type Op uint16

// ALU opcodes.
const (
	OpUnknown Op = iota
	OpADD
	OpADDC
	OpSUB
	OpSUBC
	OpSUBB
	OpSUBBC
	OpAND
	OpOR
	OpXOR
	OpNOT
	OpABS
	OpINC
	OpDEC
	OpTSTBIT
	OpSETBIT
	OpCLRBIT
	OpTGLBIT
	OpSCR
)

// Complex ALU opcodes.
const (
	OpCADD  Op = iota + 32 // ADD.C
	OpCSUB                 // SUB.C
	OpCSUBB                // SUBB.C
	OpCCONJ                // CONJ.C
	OpRCCW                 // RCCW_C
	OpRCW                  // RCW_C
	OpMAG                  // MAG.C
	OpRECT                 // RECT.C
)

// MAC opcodes.
const (
	OpMPY Op = iota + 64
	OpMAC
	OpMAS
	OpRNDACC
	OpCLRACC
	OpCMPY  // MPY.C
	OpCMAC  // MAC.C
	OpCMAS  // MAS.C
	OpRCMPY // MPY.RC
	OpRCMAC // MAC.RC
	OpRCMAS // MAS.RC
)

// Shift opcodes.
const (
	OpASHIFT Op = iota + 96
	OpLSHIFT
	OpASHIFTOR
	OpLSHIFTOR
	OpCASHIFT // ASHIFT.C
	OpCLSHIFT // LSHIFT.C
)

// Memory, move and cross-lane opcodes.
const (
	OpLOAD Op = iota + 128
	OpSTORE
	OpMODIFY
	OpMOVE
	OpXREAD
	OpXWRITE
)

var opNames = map[Op]string{
	OpADD: "ADD", OpADDC: "ADDC", OpSUB: "SUB", OpSUBC: "SUBC",
	OpSUBB: "SUBB", OpSUBBC: "SUBBC", OpAND: "AND", OpOR: "OR",
	OpXOR: "XOR", OpNOT: "NOT", OpABS: "ABS", OpINC: "INC", OpDEC: "DEC",
	OpTSTBIT: "TSTBIT", OpSETBIT: "SETBIT", OpCLRBIT: "CLRBIT",
	OpTGLBIT: "TGLBIT", OpSCR: "SCR",

	OpCADD: "ADD.C", OpCSUB: "SUB.C", OpCSUBB: "SUBB.C", OpCCONJ: "CONJ.C",
	OpRCCW: "RCCW_C", OpRCW: "RCW_C", OpMAG: "MAG.C", OpRECT: "RECT.C",

	OpMPY: "MPY", OpMAC: "MAC", OpMAS: "MAS", OpRNDACC: "RNDACC",
	OpCLRACC: "CLRACC", OpCMPY: "MPY.C", OpCMAC: "MAC.C", OpCMAS: "MAS.C",
	OpRCMPY: "MPY.RC", OpRCMAC: "MAC.RC", OpRCMAS: "MAS.RC",

	OpASHIFT: "ASHIFT", OpLSHIFT: "LSHIFT", OpASHIFTOR: "ASHIFTOR",
	OpLSHIFTOR: "LSHIFTOR", OpCASHIFT: "ASHIFT.C", OpCLSHIFT: "LSHIFT.C",

	OpLOAD: "LOAD", OpSTORE: "STORE", OpMODIFY: "MODIFY", OpMOVE: "MOVE",
	OpXREAD: "XREAD", OpXWRITE: "XWRITE",
}

var opsByName map[string]Op

func init() {
	opsByName = make(map[string]Op, len(opNames))
	for op, name := range opNames {
		opsByName[name] = op
	}
}

// String returns the mnemonic of op.
func (op Op) String() string {
	if name, ok := opNames[op]; ok {
		return name
	}
	return fmt.Sprintf("Op(%d)", uint16(op))
}

// LookupOp resolves a mnemonic such as "ADD" or "MAC.RC".
func LookupOp(name string) (Op, bool) {
	op, ok := opsByName[strings.ToUpper(strings.TrimSpace(name))]
	return op, ok
}

// IsALU reports whether op is a real ALU operation.
func (op Op) IsALU() bool { return op >= OpADD && op <= OpSCR }

// IsComplexALU reports whether op is a complex ALU operation.
func (op Op) IsComplexALU() bool { return op >= OpCADD && op <= OpRCW }

// IsMagnitude reports whether op is one of the CORDIC-backed operations.
func (op Op) IsMagnitude() bool { return op == OpMAG || op == OpRECT }

// IsMAC reports whether op is a real multiply/accumulate operation.
func (op Op) IsMAC() bool { return op >= OpMPY && op <= OpCLRACC }

// IsComplexMAC reports whether op is a complex or mixed real×complex
// multiply/accumulate operation.
func (op Op) IsComplexMAC() bool { return op >= OpCMPY && op <= OpRCMAS }

// IsShift reports whether op is a real shift operation.
func (op Op) IsShift() bool { return op >= OpASHIFT && op <= OpLSHIFTOR }

// IsComplexShift reports whether op is a complex shift operation.
func (op Op) IsComplexShift() bool { return op == OpCASHIFT || op == OpCLSHIFT }

// InstType is the instruction-type tag attached to every operation. It
// selects the overflow and carry family used for flags.
type InstType uint8

// Instruction types.
const (
	TypeUnknown InstType = iota
	TypeALU
	TypeALUAcc
	TypeMAC
	TypeShift
	TypeComplexALU
	TypeComplexMAC
	TypeComplexShift
	TypeMagnitude
	TypeMemory
	TypeMove
	TypeCrossLane
	TypeMultiALU
	TypeMultiMAC

	typeCount
)

// AllTypes returns every defined instruction type except TypeUnknown.
func AllTypes() []InstType {
	types := make([]InstType, 0, int(typeCount)-1)
	for t := TypeUnknown + 1; t < typeCount; t++ {
		types = append(types, t)
	}
	return types
}

var typeNames = [...]string{
	TypeUnknown:      "UNKNOWN",
	TypeALU:          "ALU",
	TypeALUAcc:       "ALU_ACC",
	TypeMAC:          "MAC",
	TypeShift:        "SHIFT",
	TypeComplexALU:   "ALU_C",
	TypeComplexMAC:   "MAC_C",
	TypeComplexShift: "SHIFT_C",
	TypeMagnitude:    "MAG",
	TypeMemory:       "MEM",
	TypeMove:         "MOVE",
	TypeCrossLane:    "XLANE",
	TypeMultiALU:     "MULTI_ALU",
	TypeMultiMAC:     "MULTI_MAC",
}

// String returns the tag name of t.
func (t InstType) String() string {
	if int(t) < len(typeNames) {
		return typeNames[t]
	}
	return fmt.Sprintf("InstType(%d)", uint8(t))
}

// Family selects how overflow and carry are tested.
type Family uint8

// Flag families.
const (
	FamilyNone  Family = iota
	Family12           // sign-extended 12-bit operands
	FamilyAcc32        // 32-bit accumulator, computed wide
	FamilyShift        // shifted value against zero, accumulator test
)

// FlagFamily returns the flag family used by instructions of type t. It
// panics for tags outside the enumeration so a new type cannot go unflagged.
func FlagFamily(t InstType) Family {
	switch t {
	case TypeALU, TypeComplexALU, TypeMagnitude, TypeMultiALU:
		return Family12
	case TypeALUAcc, TypeMAC, TypeComplexMAC, TypeMultiMAC:
		return FamilyAcc32
	case TypeShift, TypeComplexShift:
		return FamilyShift
	case TypeMemory, TypeMove, TypeCrossLane:
		return FamilyNone
	}
	panic(fmt.Sprintf("insts: no flag family for instruction type %v", t))
}

// Accepts reports whether op may be issued under instruction type t.
func (t InstType) Accepts(op Op) bool {
	switch t {
	case TypeALU, TypeALUAcc, TypeMultiALU:
		return op.IsALU()
	case TypeMAC, TypeMultiMAC:
		return op.IsMAC()
	case TypeShift:
		return op.IsShift()
	case TypeComplexALU:
		return op.IsComplexALU()
	case TypeComplexMAC:
		return op.IsComplexMAC()
	case TypeComplexShift:
		return op.IsComplexShift()
	case TypeMagnitude:
		return op.IsMagnitude()
	case TypeMemory:
		return op == OpLOAD || op == OpSTORE || op == OpMODIFY
	case TypeMove:
		return op == OpMOVE
	case TypeCrossLane:
		return op == OpXREAD || op == OpXWRITE
	}
	return false
}

// Qualifier selects signed or unsigned interpretation of the two
// multiplier operands.
type Qualifier uint8

// Multiplier qualifiers.
const (
	QualSS Qualifier = iota
	QualSU
	QualUS
	QualUU
)

// SignedX reports whether the first multiplier operand is signed.
func (q Qualifier) SignedX() bool { return q == QualSS || q == QualSU }

// SignedY reports whether the second multiplier operand is signed.
func (q Qualifier) SignedY() bool { return q == QualSS || q == QualUS }

// Field selects the shifter source alignment.
type Field uint8

// Shift fields.
const (
	FieldDefault Field = iota
	FieldLO
	FieldHI
)

// LookupType resolves an instruction-type tag name such as "ALU_C".
func LookupType(name string) (InstType, bool) {
	name = strings.ToUpper(strings.TrimSpace(name))
	for t, n := range typeNames {
		if n == name && InstType(t) != TypeUnknown {
			return InstType(t), true
		}
	}
	return TypeUnknown, false
}

// DefaultType returns the instruction type an operation is normally issued
// under. Real ALU operations on an accumulator destination use
// TypeALUAcc.
func (op Op) DefaultType(dst Reg) InstType {
	switch {
	case op.IsALU():
		if dst.IsAccumulator() {
			return TypeALUAcc
		}
		return TypeALU
	case op.IsComplexALU():
		return TypeComplexALU
	case op.IsMagnitude():
		return TypeMagnitude
	case op.IsMAC():
		return TypeMAC
	case op.IsComplexMAC():
		return TypeComplexMAC
	case op.IsShift():
		return TypeShift
	case op.IsComplexShift():
		return TypeComplexShift
	}

	switch op {
	case OpLOAD, OpSTORE, OpMODIFY:
		return TypeMemory
	case OpMOVE:
		return TypeMove
	case OpXREAD, OpXWRITE:
		return TypeCrossLane
	}
	return TypeUnknown
}

var qualifierNames = [...]string{QualSS: "SS", QualSU: "SU", QualUS: "US", QualUU: "UU"}

// String returns the qualifier spelling.
func (q Qualifier) String() string {
	if int(q) < len(qualifierNames) {
		return qualifierNames[q]
	}
	return fmt.Sprintf("Qualifier(%d)", uint8(q))
}

// LookupQualifier resolves "SS", "SU", "US" or "UU".
func LookupQualifier(name string) (Qualifier, bool) {
	name = strings.ToUpper(strings.TrimSpace(name))
	for q, n := range qualifierNames {
		if n == name {
			return Qualifier(q), true
		}
	}
	return QualSS, false
}

// LookupField resolves "LO" or "HI". The empty name is FieldDefault.
func LookupField(name string) (Field, bool) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "":
		return FieldDefault, true
	case "LO":
		return FieldLO, true
	case "HI":
		return FieldHI, true
	}
	return FieldDefault, false
}
