package emu

import (
	"fmt"

	"github.com/sarchlab/dpsim/diag"
	"github.com/sarchlab/dpsim/insts"
)

// Pending effects of a bundle. Nothing here is visible to the bundle's own
// instructions; commit applies them in field order.
type effects struct {
	overrides []override
	regs      []regWrite
	cross     []laneWrite
	stores    []store
	flags     []flagUpdate

	macOV     [MaxLanes]int
	unaligned Mask
	stalls    uint64
}

type override struct {
	reg   insts.Reg
	value int32
	line  int
}

type regWrite struct {
	reg   insts.Reg
	value Lanes
	mask  Mask
	line  int
}

type laneWrite struct {
	reg   insts.Reg
	lane  int
	value int32
	line  int
}

type store struct {
	addr  int32
	value Lanes
	mask  Mask
	line  int
}

// flagUpdate targets one bank, or the R, I and C banks at once when
// complex is set.
type flagUpdate struct {
	bank    Bank
	flags   [MaxLanes]Flags
	imag    [MaxLanes]Flags
	complex bool
	fields  FlagField
	mask    Mask
}

// execute computes one instruction against the pre-bundle state and
// records its effects in fx.
func (c *Core) execute(inst *insts.Instruction, fx *effects) error {
	c.line = inst.Line

	if !inst.Type.Accepts(inst.Op) {
		return fmt.Errorf("%w: %v is not a %v operation", diag.ErrInvalidOperand, inst.Op, inst.Type)
	}

	pred := AllLanes(c.Lanes())
	if inst.Conditional {
		mask, count, err := c.evaluate(inst.Cond)
		if err != nil {
			return err
		}
		if count == 0 {
			return nil
		}
		pred = mask
	}
	active := c.state.Active(pred)

	var err error
	switch inst.Type {
	case insts.TypeALU, insts.TypeALUAcc, insts.TypeMultiALU:
		err = c.execALU(inst, pred, active, fx)
	case insts.TypeComplexALU:
		err = c.execComplexALU(inst, pred, active, fx)
	case insts.TypeMagnitude:
		err = c.execMagnitude(inst, pred, active, fx)
	case insts.TypeMAC, insts.TypeMultiMAC:
		err = c.execMAC(inst, pred, active, fx)
	case insts.TypeComplexMAC:
		err = c.execComplexMAC(inst, pred, active, fx)
	case insts.TypeShift:
		err = c.execShift(inst, pred, active, fx)
	case insts.TypeComplexShift:
		err = c.execComplexShift(inst, pred, active, fx)
	case insts.TypeMemory:
		err = c.execMemory(inst, pred, active, fx)
	case insts.TypeMove:
		err = c.execMove(inst, pred, fx)
	case insts.TypeCrossLane:
		err = c.execCrossLane(inst, pred, fx)
	default:
		err = fmt.Errorf("%w: no unit for %v", diag.ErrInvalidOperand, inst.Type)
	}
	if err != nil {
		return err
	}

	// Post-modify riding on a non-memory instruction.
	if inst.Type != insts.TypeMemory && inst.Addr.Index != insts.RegNone {
		reg, v, err := c.lsu.Modify(inst.Addr)
		if err != nil {
			return err
		}
		fx.overrides = append(fx.overrides, override{reg: reg, value: v, line: c.line})
	}
	return nil
}

// operand fetches a source operand in every lane. Latency-restricted
// registers go through the hazard tracker.
func (c *Core) operand(o insts.Operand) (Lanes, error) {
	switch {
	case o.IsImm:
		return Splat(o.Imm), nil
	case o.Reg == insts.RegNone:
		return Lanes{}, nil
	case o.Reg.IsHazardTracked():
		v, err := c.readLatency(o.Reg)
		return Splat(v), err
	}
	return c.regFile.ReadLane(o.Reg)
}

// complexOperand fetches a complex source: a complex immediate or an
// even/odd register pair.
func (c *Core) complexOperand(o insts.Operand) (re, im Lanes, err error) {
	switch {
	case o.IsImm:
		return Splat(o.Imm), Splat(o.ImmIm), nil
	case o.Reg == insts.RegNone:
		return Lanes{}, Lanes{}, nil
	}

	imag, ok := o.Reg.Pair()
	if !ok {
		return re, im, fmt.Errorf("%w: %v cannot start a complex pair", diag.ErrInvalidOperand, o.Reg)
	}
	if re, err = c.regFile.ReadLane(o.Reg); err != nil {
		return re, im, err
	}
	im, err = c.regFile.ReadLane(imag)
	return re, im, err
}

func sourceWidth(o insts.Operand) int {
	if o.IsImm || o.Reg == insts.RegNone {
		return insts.DataRegWidth
	}
	return o.Reg.Width()
}

func checkAccDst(dst insts.Reg, pair bool) error {
	if dst == insts.RegNone {
		return nil
	}
	if dst.Class() != insts.ClassAcc {
		return fmt.Errorf("%w: %v is not an accumulator", diag.ErrInvalidOperand, dst)
	}
	if _, ok := dst.Pair(); pair && !ok {
		return fmt.Errorf("%w: %v cannot start an accumulator pair", diag.ErrInvalidOperand, dst)
	}
	return nil
}

// consecutive returns word w of a multi-word register operand starting at
// reg.
func consecutive(reg insts.Reg, w, width int) (insts.Reg, error) {
	if width == 1 || reg == insts.RegNone {
		return reg, nil
	}
	if reg.Class() != insts.ClassData || reg.Index()+width > insts.NumDataRegs {
		return insts.RegNone, fmt.Errorf("%w: %d words from %v", diag.ErrInvalidOperand, width, reg)
	}
	return insts.R(reg.Index() + w), nil
}

// queue records the register and flag effects of a unit result.
func (c *Core) queue(fx *effects, dst insts.Reg, res Result, pred, active Mask) error {
	if dst != insts.RegNone {
		if err := c.regFile.checkWritable(dst); err != nil {
			return err
		}
		write := []regWrite{{reg: dst, value: res.Value, mask: pred, line: c.line}}
		if res.Complex {
			imag, ok := dst.Pair()
			if !ok {
				return fmt.Errorf("%w: %v cannot hold a complex result", diag.ErrInvalidOperand, dst)
			}
			write = append(write, regWrite{reg: imag, value: res.Imag, mask: pred, line: c.line})
		}
		fx.regs = append(fx.regs, write...)
	}

	fx.flags = append(fx.flags, flagUpdate{
		bank:    BankR,
		flags:   res.Flags,
		imag:    res.ImagFlags,
		complex: res.Complex,
		fields:  res.Fields,
		mask:    active,
	})

	for j := range fx.macOV {
		fx.macOV[j] += res.Overflow[j]
	}
	return nil
}

func (c *Core) execALU(inst *insts.Instruction, pred, active Mask, fx *effects) error {
	x, err := c.operand(inst.SrcA)
	if err != nil {
		return err
	}
	y, err := c.operand(inst.SrcB)
	if err != nil {
		return err
	}
	m, err := c.mode()
	if err != nil {
		return err
	}

	var carry Mask
	for j := 0; j < c.Lanes(); j++ {
		carry[j] = c.flags.Get(BankR, j).AC
	}

	res, err := c.alu.Execute(inst.Type, inst.Op, x, y, carry, active, m.Saturate)
	if err != nil {
		return err
	}
	return c.queue(fx, inst.Dst, res, pred, active)
}

func (c *Core) execComplexALU(inst *insts.Instruction, pred, active Mask, fx *effects) error {
	xr, xi, err := c.complexOperand(inst.SrcA)
	if err != nil {
		return err
	}

	var yr, yi Lanes
	if inst.Op == insts.OpRCCW || inst.Op == insts.OpRCW {
		yr, err = c.operand(inst.SrcB)
	} else {
		yr, yi, err = c.complexOperand(inst.SrcB)
	}
	if err != nil {
		return err
	}

	m, err := c.mode()
	if err != nil {
		return err
	}
	res, err := c.alu.ExecuteComplex(inst.Op, xr, xi, yr, yi, active, m.Saturate)
	if err != nil {
		return err
	}
	return c.queue(fx, inst.Dst, res, pred, active)
}

func (c *Core) execMagnitude(inst *insts.Instruction, pred, active Mask, fx *effects) error {
	var a, b Lanes
	var err error
	if inst.Op == insts.OpMAG {
		a, b, err = c.complexOperand(inst.SrcA)
	} else {
		if a, err = c.operand(inst.SrcA); err == nil {
			b, err = c.operand(inst.SrcB)
		}
	}
	if err != nil {
		return err
	}

	m, err := c.mode()
	if err != nil {
		return err
	}
	res, err := c.magnitude.Execute(inst.Op, a, b, active, m.Saturate)
	if err != nil {
		return err
	}
	return c.queue(fx, inst.Dst, res, pred, active)
}

func (c *Core) macMode(inst *insts.Instruction) (MACMode, error) {
	m, err := c.mode()
	if err != nil {
		return MACMode{}, err
	}
	return MACMode{
		Qualifier:  inst.Qualifier,
		Fractional: m.Fractional,
		Unbiased:   m.Unbiased,
		Round:      inst.Round,
	}, nil
}

func (c *Core) execMAC(inst *insts.Instruction, pred, active Mask, fx *effects) error {
	if err := checkAccDst(inst.Dst, false); err != nil {
		return err
	}

	x, err := c.operand(inst.SrcA)
	if err != nil {
		return err
	}
	y, err := c.operand(inst.SrcB)
	if err != nil {
		return err
	}
	acc, err := c.regFile.ReadLane(inst.Dst)
	if err != nil {
		return err
	}
	mode, err := c.macMode(inst)
	if err != nil {
		return err
	}

	res, err := c.mac.Execute(inst.Op, x, y, acc, mode, active)
	if err != nil {
		return err
	}
	return c.queue(fx, inst.Dst, res, pred, active)
}

func (c *Core) execComplexMAC(inst *insts.Instruction, pred, active Mask, fx *effects) error {
	if err := checkAccDst(inst.Dst, true); err != nil {
		return err
	}

	var xr, xi Lanes
	var err error
	switch inst.Op {
	case insts.OpRCMPY, insts.OpRCMAC, insts.OpRCMAS:
		xr, err = c.operand(inst.SrcA)
	default:
		xr, xi, err = c.complexOperand(inst.SrcA)
	}
	if err != nil {
		return err
	}
	yr, yi, err := c.complexOperand(inst.SrcB)
	if err != nil {
		return err
	}

	var ar, ai Lanes
	if inst.Dst != insts.RegNone {
		if ar, ai, err = c.complexOperand(insts.RegOperand(inst.Dst)); err != nil {
			return err
		}
	}
	mode, err := c.macMode(inst)
	if err != nil {
		return err
	}

	res, err := c.mac.ExecuteComplex(inst.Op, xr, xi, yr, yi, ar, ai, mode, active)
	if err != nil {
		return err
	}
	return c.queue(fx, inst.Dst, res, pred, active)
}

func (c *Core) execShift(inst *insts.Instruction, pred, active Mask, fx *effects) error {
	src, err := c.operand(inst.SrcA)
	if err != nil {
		return err
	}
	amount, err := c.operand(inst.SrcB)
	if err != nil {
		return err
	}
	prior, err := c.operand(insts.RegOperand(inst.Dst))
	if err != nil {
		return err
	}

	mode := ShiftMode{Field: inst.Field, Round: inst.Round}
	res, err := c.shifter.Execute(inst.Type, inst.Op, src, sourceWidth(inst.SrcA), amount, prior, mode, active)
	if err != nil {
		return err
	}
	return c.queue(fx, inst.Dst, res, pred, active)
}

func (c *Core) execComplexShift(inst *insts.Instruction, pred, active Mask, fx *effects) error {
	xr, xi, err := c.complexOperand(inst.SrcA)
	if err != nil {
		return err
	}
	ar, ai, err := c.complexOperand(inst.SrcB)
	if err != nil {
		return err
	}

	mode := ShiftMode{Field: inst.Field, Round: inst.Round}
	res, err := c.shifter.ExecuteComplex(inst.Type, inst.Op, xr, xi, sourceWidth(inst.SrcA), ar, ai, mode, active)
	if err != nil {
		return err
	}
	return c.queue(fx, inst.Dst, res, pred, active)
}

func (c *Core) execMemory(inst *insts.Instruction, pred, active Mask, fx *effects) error {
	if inst.Op == insts.OpMODIFY {
		reg, v, err := c.lsu.Modify(inst.Addr)
		if err != nil {
			return err
		}
		fx.overrides = append(fx.overrides, override{reg: reg, value: v, line: c.line})
		return nil
	}

	m, err := c.mode()
	if err != nil {
		return err
	}
	acc, err := c.lsu.Resolve(inst.Addr, m)
	if err != nil {
		return err
	}

	if acc.Unaligned {
		if !m.UnalignedOK {
			return fmt.Errorf("%w: %d-word access at %#04x", diag.ErrUnaligned, acc.Width, acc.Addr)
		}
		c.warn(diag.KindUnalignedAllowed, "%d-word access at %#04x is unaligned", acc.Width, acc.Addr)

		var um [MaxLanes]Flags
		for j := range um {
			um[j] = Flags{UM: true}
		}
		fx.flags = append(fx.flags,
			flagUpdate{bank: BankR, flags: um, fields: FieldUM, mask: active},
			flagUpdate{bank: BankC, flags: um, fields: FieldUM, mask: active},
		)
		fx.unaligned = fx.unaligned.Or(active)
		fx.stalls += c.cfg.UnalignedPenalty
	}

	switch inst.Op {
	case insts.OpLOAD:
		if err := c.load(inst, acc, pred, active, fx); err != nil {
			return err
		}
	case insts.OpSTORE:
		if err := c.store(inst, acc, pred, active, fx); err != nil {
			return err
		}
	}

	if acc.Update != insts.RegNone {
		fx.overrides = append(fx.overrides, override{reg: acc.Update, value: acc.NewIndex, line: c.line})
	}
	return nil
}

func (c *Core) load(inst *insts.Instruction, acc Access, pred, active Mask, fx *effects) error {
	values, created, undefined, err := c.lsu.Load(acc)
	if err != nil {
		return err
	}

	for w := 0; w < acc.Width; w++ {
		addr := acc.Addr + int32(w)
		if created[w] {
			c.warn(diag.KindUndefinedMemory, "read of unwritten address %#04x", addr)
		} else if lanes := undefined[w].And(active); lanes.Any() {
			c.warn(diag.KindUndefinedRead, "read of undefined lanes %v at %#04x", lanes, addr)
		}

		dst, err := consecutive(inst.Dst, w, acc.Width)
		if err != nil {
			return err
		}
		if err := c.regFile.checkWritable(dst); err != nil {
			return err
		}
		fx.regs = append(fx.regs, regWrite{reg: dst, value: values[w], mask: pred, line: c.line})
	}
	return nil
}

func (c *Core) store(inst *insts.Instruction, acc Access, pred, active Mask, fx *effects) error {
	// Init mode writes lanes regardless of the enable state.
	mask := active
	if c.cfg.InitMode {
		mask = pred
	}

	for w := 0; w < acc.Width; w++ {
		src := inst.SrcA
		if !src.IsImm {
			reg, err := consecutive(src.Reg, w, acc.Width)
			if err != nil {
				return err
			}
			src = insts.RegOperand(reg)
		}
		v, err := c.operand(src)
		if err != nil {
			return err
		}
		fx.stores = append(fx.stores, store{addr: acc.Addr + int32(w), value: v, mask: mask, line: c.line})
	}
	return nil
}

func (c *Core) execMove(inst *insts.Instruction, pred Mask, fx *effects) error {
	if err := c.regFile.checkWritable(inst.Dst); err != nil {
		return err
	}
	v, err := c.operand(inst.SrcA)
	if err != nil {
		return err
	}
	fx.regs = append(fx.regs, regWrite{reg: inst.Dst, value: v, mask: pred, line: c.line})
	return nil
}

func (c *Core) execCrossLane(inst *insts.Instruction, pred Mask, fx *effects) error {
	offset, width := inst.LaneOffset, inst.ActiveLanes

	switch inst.Op {
	case insts.OpXREAD:
		src := inst.SrcA.Reg
		if err := c.crossLane.Check(src, offset, width); err != nil {
			return err
		}
		if err := c.regFile.checkWritable(inst.Dst); err != nil {
			return err
		}
		v, err := c.regFile.ReadLane(src)
		if err != nil {
			return err
		}
		out := c.crossLane.Read(v, offset, width)
		fx.regs = append(fx.regs, regWrite{reg: inst.Dst, value: out, mask: pred, line: c.line})

	case insts.OpXWRITE:
		if err := c.crossLane.Check(inst.Dst, offset, width); err != nil {
			return err
		}
		v, err := c.operand(inst.SrcA)
		if err != nil {
			return err
		}
		targets := c.crossLane.Targets(offset, width, c.state.Enabled(), pred)
		for j, t := range targets {
			if t >= 0 {
				fx.cross = append(fx.cross, laneWrite{reg: inst.Dst, lane: t, value: v[j], line: c.line})
			}
		}
	}
	return nil
}

// commit applies the pending effects of a bundle: address-generation
// overrides, register writes, cross-lane writes, stores, flags, then
// counters.
func (c *Core) commit(fx *effects) error {
	cycle := c.Cycle()
	tracker := c.regFile.Tracker()

	for _, o := range fx.overrides {
		c.line = o.line
		v := fit(o.reg, o.value)
		tracker.Override(o.reg, v, cycle)
		c.reporter.Debugf("cycle %d: %v <- %d (address generation)", cycle, o.reg, v)
	}

	for _, w := range fx.regs {
		c.line = w.line
		applied, err := c.regFile.WriteLane(w.reg, w.value, w.mask)
		if err != nil {
			return err
		}
		if !applied {
			c.warn(diag.KindDroppedWrite, "write of %v dropped: address generation wrote it this cycle", w.reg)
			continue
		}
		c.reporter.Debugf("cycle %d: %v <- %v mask %v", cycle, w.reg, w.value, w.mask)
	}

	for _, x := range fx.cross {
		c.line = x.line
		if err := c.regFile.SetLane(x.reg, x.lane, x.value); err != nil {
			return err
		}
	}

	enabled := c.state.Enabled()
	for _, s := range fx.stores {
		c.line = s.line
		created, err := c.memory.Write(s.addr, s.value, s.mask)
		if err != nil {
			return err
		}
		if !created {
			continue
		}

		var left Mask
		for j := 0; j < c.Lanes(); j++ {
			left[j] = enabled[j] && !s.mask[j]
		}
		if left.Any() {
			c.warn(diag.KindPartialWrite, "store to new address %#04x leaves lanes %v undefined", s.addr, left)
		} else {
			c.warn(diag.KindMemoryCreated, "store created address %#04x", s.addr)
		}
	}

	for _, f := range fx.flags {
		for j := 0; j < c.Lanes(); j++ {
			switch {
			case !f.mask[j]:
			case f.complex:
				c.flags.UpdateComplex(j, f.flags[j], f.imag[j], f.fields)
			default:
				c.flags.Update(f.bank, j, f.flags[j], f.fields)
			}
		}
	}

	for j := 0; j < c.Lanes(); j++ {
		for k := 0; k < fx.macOV[j]; k++ {
			c.flags.CountMACOverflow(j)
		}
	}
	c.regFile.CountUnaligned(fx.unaligned)
	c.flags.PollStacks()
	return nil
}
