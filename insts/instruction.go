package insts

import (
	"fmt"
	"strings"
)

// Operand is a source operand: either a register or an immediate that the
// decoder has already range-checked. Complex immediates use Imm for the real
// part and ImmIm for the imaginary part.
type Operand struct {
	Reg   Reg
	Imm   int32
	ImmIm int32
	IsImm bool
}

// RegOperand returns a register operand.
func RegOperand(r Reg) Operand {
	return Operand{Reg: r}
}

// ImmOperand returns an immediate operand.
func ImmOperand(v int32) Operand {
	return Operand{Imm: v, ImmIm: v, IsImm: true}
}

// ComplexImm returns a complex immediate operand.
func ComplexImm(re, im int32) Operand {
	return Operand{Imm: re, ImmIm: im, IsImm: true}
}

// IsNone reports whether the operand is absent.
func (o Operand) IsNone() bool {
	return !o.IsImm && o.Reg == RegNone
}

// String renders the operand in assembler form.
func (o Operand) String() string {
	if o.IsImm {
		if o.Imm != o.ImmIm {
			return fmt.Sprintf("(%d,%d)", o.Imm, o.ImmIm)
		}
		return fmt.Sprintf("%d", o.Imm)
	}
	return o.Reg.String()
}

// AddrMode describes a data memory access.
type AddrMode struct {
	// Index is the address register (I0-I7), or RegNone for direct
	// addressing through Modify's immediate.
	Index Reg

	// Modify is the M register or immediate added to Index.
	Modify Operand

	// PostModify writes Index+Modify back to Index after the access and
	// uses the unmodified Index as the address. Otherwise the access uses
	// Index+Modify and Index is left alone.
	PostModify bool

	// Width is the number of consecutive words moved (1, 2 or 4).
	Width int
}

// Instruction is a resolved operation descriptor handed to the core by the
// dispatcher.
type Instruction struct {
	Type InstType // Instruction-type tag
	Op   Op       // Operation code

	// Conditional instructions only commit in lanes where Cond holds.
	Conditional bool
	Cond        Cond

	Dst  Reg     // Destination register, RegNone to discard
	SrcA Operand // First source
	SrcB Operand // Second source, shift amount, bit index or cross-lane source

	Round     bool      // RND rounding for MAC results; ROUND for shifts
	Qualifier Qualifier // Multiplier operand signedness
	Field     Field     // Shifter source alignment

	Addr AddrMode // Data memory access

	// Cross-lane access parameters.
	LaneOffset  int
	ActiveLanes int

	// Line is the source line reported in diagnostics.
	Line int
}

// String renders the instruction for logs and dumps.
func (inst *Instruction) String() string {
	if inst == nil {
		return "<nil>"
	}

	var b strings.Builder
	if inst.Conditional {
		fmt.Fprintf(&b, "IF %v ", inst.Cond)
	}
	fmt.Fprintf(&b, "%v %v", inst.Op, inst.Dst)
	if !inst.SrcA.IsNone() {
		fmt.Fprintf(&b, ", %v", inst.SrcA)
	}
	if !inst.SrcB.IsNone() {
		fmt.Fprintf(&b, ", %v", inst.SrcB)
	}
	if inst.Addr.Width > 0 {
		op := "+"
		if inst.Addr.PostModify {
			op = "+="
		}
		fmt.Fprintf(&b, " DM(%v %s %v)", inst.Addr.Index, op, inst.Addr.Modify)
	}
	if inst.Round {
		b.WriteString(" (RND)")
	}
	return b.String()
}
