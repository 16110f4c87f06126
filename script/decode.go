package script

import (
	"errors"
	"fmt"
	"strings"

	lua "github.com/yuin/gopher-lua"

	"github.com/sarchlab/dpsim/insts"
)

// Decode builds an instruction from a descriptor table:
//
//	{op = "MAC", dst = "ACC0", a = "R0", b = "R1", round = true, qual = "SU"}
//	{op = "LOAD", dst = "R4", index = "I0", modify = "M0", post = true, width = 2}
//	{op = "STORE", a = "R3", addr = 0x40, cond = "EQ"}
//	{op = "XREAD", dst = "R0", a = "R24", offset = 1, active = 4}
//
// Operands are register names, numbers, or {re, im} complex immediates.
// The instruction type follows from op unless type is given.
func Decode(t *lua.LTable) (*insts.Instruction, error) {
	name, ok := t.RawGetString("op").(lua.LString)
	if !ok {
		return nil, errors.New("descriptor has no op")
	}
	op, ok := insts.LookupOp(string(name))
	if !ok {
		return nil, fmt.Errorf("unknown op %q", string(name))
	}

	inst := &insts.Instruction{Op: op}
	var err error
	if inst.Dst, err = regField(t, "dst"); err != nil {
		return nil, err
	}
	if inst.SrcA, err = operandField(t, "a"); err != nil {
		return nil, err
	}
	if inst.SrcB, err = operandField(t, "b"); err != nil {
		return nil, err
	}

	inst.Type = op.DefaultType(inst.Dst)
	if s := stringField(t, "type"); s != "" {
		if inst.Type, ok = insts.LookupType(s); !ok {
			return nil, fmt.Errorf("unknown instruction type %q", s)
		}
	}

	if s := stringField(t, "cond"); s != "" {
		if inst.Cond, ok = insts.LookupCond(strings.ToUpper(s)); !ok {
			return nil, fmt.Errorf("unknown condition %q", s)
		}
		inst.Conditional = true
	}

	inst.Round = lua.LVAsBool(t.RawGetString("round"))
	if inst.Qualifier, ok = insts.LookupQualifier(stringFieldOr(t, "qual", "SS")); !ok {
		return nil, fmt.Errorf("unknown qualifier %q", stringField(t, "qual"))
	}
	if inst.Field, ok = insts.LookupField(stringField(t, "field")); !ok {
		return nil, fmt.Errorf("unknown shift field %q", stringField(t, "field"))
	}

	if inst.Addr, err = addrFields(t); err != nil {
		return nil, err
	}

	inst.LaneOffset = intField(t, "offset")
	inst.ActiveLanes = intField(t, "active")
	inst.Line = intField(t, "line")
	return inst, nil
}

func addrFields(t *lua.LTable) (insts.AddrMode, error) {
	var mode insts.AddrMode
	var err error

	if addr, ok := t.RawGetString("addr").(lua.LNumber); ok {
		mode.Modify = insts.ImmOperand(int32(addr))
	} else {
		if mode.Index, err = regField(t, "index"); err != nil {
			return mode, err
		}
		if mode.Modify, err = operandField(t, "modify"); err != nil {
			return mode, err
		}
		mode.PostModify = lua.LVAsBool(t.RawGetString("post"))
	}
	mode.Width = intField(t, "width")
	return mode, nil
}

func stringField(t *lua.LTable, key string) string {
	if s, ok := t.RawGetString(key).(lua.LString); ok {
		return string(s)
	}
	return ""
}

func stringFieldOr(t *lua.LTable, key, def string) string {
	if s := stringField(t, key); s != "" {
		return s
	}
	return def
}

func intField(t *lua.LTable, key string) int {
	if n, ok := t.RawGetString(key).(lua.LNumber); ok {
		return int(n)
	}
	return 0
}

func regField(t *lua.LTable, key string) (insts.Reg, error) {
	v := t.RawGetString(key)
	if v == lua.LNil {
		return insts.RegNone, nil
	}
	s, ok := v.(lua.LString)
	if !ok {
		return insts.RegNone, fmt.Errorf("%s: expected a register name, got %s", key, v.Type())
	}
	reg, ok := insts.LookupReg(string(s))
	if !ok {
		return insts.RegNone, fmt.Errorf("%s: unknown register %q", key, string(s))
	}
	return reg, nil
}

func operandField(t *lua.LTable, key string) (insts.Operand, error) {
	switch v := t.RawGetString(key).(type) {
	case *lua.LNilType:
		return insts.RegOperand(insts.RegNone), nil
	case lua.LNumber:
		return insts.ImmOperand(int32(v)), nil
	case *lua.LTable:
		re, okRe := v.RawGetInt(1).(lua.LNumber)
		im, okIm := v.RawGetInt(2).(lua.LNumber)
		if !okRe || !okIm {
			return insts.Operand{}, fmt.Errorf("%s: complex immediates are {re, im}", key)
		}
		return insts.ComplexImm(int32(re), int32(im)), nil
	case lua.LString:
		reg, ok := insts.LookupReg(string(v))
		if !ok {
			return insts.Operand{}, fmt.Errorf("%s: unknown register %q", key, string(v))
		}
		return insts.RegOperand(reg), nil
	default:
		return insts.Operand{}, fmt.Errorf("%s: unexpected %s", key, v.Type())
	}
}
