package emu

import (
	"fmt"

	"github.com/sarchlab/dpsim/diag"
	"github.com/sarchlab/dpsim/insts"
)

// LatencyReader reads latency-restricted registers the way an executing
// instruction sees them.
type LatencyReader interface {
	ReadLatency(reg insts.Reg) (int32, error)
}

// Access is a resolved data memory access.
type Access struct {
	// Addr is the first word accessed, after bit reversal.
	Addr int32
	// Width is the number of consecutive words.
	Width int
	// Unaligned is set when Addr is not a multiple of Width.
	Unaligned bool

	// Update is the index register rewritten by post-modify, or RegNone.
	Update   insts.Reg
	NewIndex int32
}

// LoadStoreUnit is the address generation unit in front of the data
// memory.
type LoadStoreUnit struct {
	regs   LatencyReader
	memory *Memory
}

// NewLoadStoreUnit creates a load/store unit reading its address registers
// through regs.
func NewLoadStoreUnit(regs LatencyReader, memory *Memory) *LoadStoreUnit {
	return &LoadStoreUnit{
		regs:   regs,
		memory: memory,
	}
}

// Memory returns the data memory behind the unit.
func (u *LoadStoreUnit) Memory() *Memory {
	return u.memory
}

func (u *LoadStoreUnit) modifier(o insts.Operand) (int32, error) {
	switch {
	case o.IsImm:
		return o.Imm, nil
	case o.Reg == insts.RegNone:
		return 0, nil
	case o.Reg.Class() != insts.ClassModify:
		return 0, fmt.Errorf("%w: %v is not a modify register", diag.ErrInvalidOperand, o.Reg)
	}
	return u.regs.ReadLatency(o.Reg)
}

func checkIndex(r insts.Reg) error {
	if r.Class() != insts.ClassIndex {
		return fmt.Errorf("%w: %v is not an index register", diag.ErrInvalidOperand, r)
	}
	return nil
}

// Resolve computes the address of an access. Pre-modify uses
// index+modify and leaves the index alone; post-modify uses the index and
// schedules index+modify, wrapped into its circular buffer, as the new
// index. Direct accesses (no index register) use the modifier as the
// address.
func (u *LoadStoreUnit) Resolve(mode insts.AddrMode, m Mode) (Access, error) {
	acc := Access{Width: mode.Width, Update: insts.RegNone}
	if acc.Width == 0 {
		acc.Width = 1
	}
	if acc.Width != 1 && acc.Width != 2 && acc.Width != 4 {
		return acc, fmt.Errorf("%w: access width %d", diag.ErrInvalidOperand, mode.Width)
	}

	mod, err := u.modifier(mode.Modify)
	if err != nil {
		return acc, err
	}

	if mode.Index == insts.RegNone {
		acc.Addr = mod
	} else {
		if err := checkIndex(mode.Index); err != nil {
			return acc, err
		}
		index, err := u.regs.ReadLatency(mode.Index)
		if err != nil {
			return acc, err
		}

		if mode.PostModify {
			acc.Addr = index
			acc.Update = mode.Index
			acc.NewIndex, err = u.Wrap(mode.Index, index+mod)
			if err != nil {
				return acc, err
			}
		} else {
			acc.Addr = index + mod
		}
	}

	if _, err := checkAddr(acc.Addr); err != nil {
		return acc, err
	}
	if m.BitReverse && mode.Index != insts.RegNone && mode.Index.Index() < 4 {
		acc.Addr = int32(BitReverse(uint16(acc.Addr)))
	}
	if _, err := checkAddr(acc.Addr + int32(acc.Width) - 1); err != nil {
		return acc, err
	}
	acc.Unaligned = acc.Addr%int32(acc.Width) != 0
	return acc, nil
}

// Modify computes the MODIFY update of an index register, for MODIFY
// itself and for post-modify riders on other instructions.
func (u *LoadStoreUnit) Modify(mode insts.AddrMode) (insts.Reg, int32, error) {
	if err := checkIndex(mode.Index); err != nil {
		return insts.RegNone, 0, err
	}
	index, err := u.regs.ReadLatency(mode.Index)
	if err != nil {
		return insts.RegNone, 0, err
	}
	mod, err := u.modifier(mode.Modify)
	if err != nil {
		return insts.RegNone, 0, err
	}
	v, err := u.Wrap(mode.Index, index+mod)
	return mode.Index, v, err
}

// Wrap folds v into the circular buffer of index register idx when its
// length register is nonzero. The buffer spans [B, B+L).
func (u *LoadStoreUnit) Wrap(idx insts.Reg, v int32) (int32, error) {
	k := idx.Index()
	length, err := u.regs.ReadLatency(insts.L(k))
	if err != nil {
		return 0, err
	}
	if length != 0 {
		base, err := u.regs.ReadLatency(insts.B(k))
		if err != nil {
			return 0, err
		}
		switch {
		case v >= base+length:
			v -= length
		case v < base:
			v += length
		}
	}
	return Truncate(v, idx.Width()), nil
}

// Load reads the words of acc. Undefined lanes load as zero. created
// marks the words whose entry did not exist before; undefined holds, per
// word, the lanes that were never written.
func (u *LoadStoreUnit) Load(acc Access) (values []Lanes, created []bool, undefined []Mask, err error) {
	values = make([]Lanes, acc.Width)
	created = make([]bool, acc.Width)
	undefined = make([]Mask, acc.Width)
	for w := 0; w < acc.Width; w++ {
		word, existed, err := u.memory.Read(acc.Addr+int32(w), true)
		if err != nil {
			return nil, nil, nil, err
		}
		created[w] = !existed
		for j := range word.Value {
			if word.Defined[j] {
				values[w][j] = word.Value[j]
			} else {
				undefined[w][j] = true
			}
		}
	}
	return values, created, undefined, nil
}
