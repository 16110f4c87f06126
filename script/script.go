// Package script drives the core from Lua scripts.
//
// A script sees a global table dsp:
//
//	dsp.write("R0", 5)                -- every enabled lane
//	dsp.write("R1", {1, 2, 3, 4})     -- lane by lane
//	dsp.step({op = "ADD", dst = "R2", a = "R0", b = "R1"})
//	dsp.expect(dsp.lanes("R2")[1] == 6, "sum")
//
// dsp.step issues one bundle; each argument is an instruction descriptor.
// A fatal core error stops the script and Run returns the *diag.Error.
package script

import (
	"fmt"
	"io"
	"os"
	"strings"

	lua "github.com/yuin/gopher-lua"

	"github.com/sarchlab/dpsim/diag"
	"github.com/sarchlab/dpsim/emu"
	"github.com/sarchlab/dpsim/insts"
)

// Runner executes scripts against one core.
type Runner struct {
	core  *emu.Core
	state *lua.LState
	out   io.Writer
}

// Option configures a Runner.
type Option func(*Runner)

// WithOutput redirects print and dsp.dump output.
func WithOutput(w io.Writer) Option {
	return func(r *Runner) {
		r.out = w
	}
}

// New creates a runner bound to core.
func New(core *emu.Core, opts ...Option) *Runner {
	r := &Runner{core: core, out: os.Stdout}
	for _, opt := range opts {
		opt(r)
	}

	r.state = lua.NewState()
	r.register()
	return r
}

// Close releases the Lua state.
func (r *Runner) Close() {
	r.state.Close()
}

// Core returns the core the runner drives.
func (r *Runner) Core() *emu.Core {
	return r.core
}

// RunFile executes the script at path.
func (r *Runner) RunFile(path string) error {
	return r.result(r.state.DoFile(path))
}

// RunString executes src.
func (r *Runner) RunString(src string) error {
	return r.result(r.state.DoString(src))
}

// result prefers the core's fatal error over the Lua error it caused.
func (r *Runner) result(err error) error {
	if err == nil {
		return nil
	}
	if halted := r.core.Halted(); halted != nil {
		return halted
	}
	return fmt.Errorf("script: %w", err)
}

func (r *Runner) register() {
	L := r.state
	tbl := L.NewTable()
	L.SetFuncs(tbl, map[string]lua.LGFunction{
		"write":     r.write,
		"read":      r.read,
		"lanes":     r.lanes,
		"step":      r.step,
		"idle":      r.idle,
		"mem_write": r.memWrite,
		"mem_read":  r.memRead,
		"cycle":     r.cycle,
		"eval":      r.eval,
		"expect":    r.expect,
		"warnings":  r.warnings,
		"reset":     r.reset,
		"dump":      r.dump,
	})
	L.SetField(tbl, "LANES", lua.LNumber(r.core.Lanes()))
	L.SetGlobal("dsp", tbl)
	L.SetGlobal("print", L.NewFunction(r.print))
}

// callerLine returns the script line of the running dsp call.
func callerLine(L *lua.LState) int {
	dbg, ok := L.GetStack(1)
	if !ok {
		return 0
	}
	if _, err := L.GetInfo("l", dbg, lua.LNil); err != nil {
		return 0
	}
	return dbg.CurrentLine
}

// check raises err as a Lua error.
func check(L *lua.LState, err error) {
	if err != nil {
		L.RaiseError("%v", err)
	}
}

func checkReg(L *lua.LState, n int) insts.Reg {
	name := L.CheckString(n)
	reg, ok := insts.LookupReg(name)
	if !ok {
		L.ArgError(n, fmt.Sprintf("unknown register %q", name))
	}
	return reg
}

// toLanes converts a number or a lane table (1-based) into lane values.
func toLanes(L *lua.LState, v lua.LValue, n int) emu.Lanes {
	switch x := v.(type) {
	case lua.LNumber:
		return emu.Splat(int32(x))
	case *lua.LTable:
		var out emu.Lanes
		for j := 0; j < n; j++ {
			if num, ok := x.RawGetInt(j + 1).(lua.LNumber); ok {
				out[j] = int32(num)
			}
		}
		return out
	}
	L.RaiseError("expected a number or a lane table, got %s", v.Type())
	return emu.Lanes{}
}

func (r *Runner) lanesTable(v emu.Lanes) *lua.LTable {
	t := r.state.NewTable()
	for j := 0; j < r.core.Lanes(); j++ {
		t.RawSetInt(j+1, lua.LNumber(v[j]))
	}
	return t
}

func (r *Runner) write(L *lua.LState) int {
	reg := checkReg(L, 1)
	r.core.SetLine(callerLine(L))

	switch v := L.CheckAny(2).(type) {
	case *lua.LTable:
		check(L, r.core.WriteLane(reg, toLanes(L, v, r.core.Lanes()), emu.AllLanes(r.core.Lanes())))
	default:
		check(L, r.core.WriteScalar(reg, int32(L.CheckNumber(2))))
	}
	return 0
}

func (r *Runner) read(L *lua.LState) int {
	v, err := r.core.ReadScalar(checkReg(L, 1))
	check(L, err)
	L.Push(lua.LNumber(v))
	return 1
}

func (r *Runner) lanes(L *lua.LState) int {
	v, err := r.core.ReadLane(checkReg(L, 1))
	check(L, err)
	L.Push(r.lanesTable(v))
	return 1
}

func (r *Runner) step(L *lua.LState) int {
	line := callerLine(L)

	bundle := make([]*insts.Instruction, 0, L.GetTop())
	for i := 1; i <= L.GetTop(); i++ {
		inst, err := Decode(L.CheckTable(i))
		if err != nil {
			L.ArgError(i, err.Error())
		}
		if inst.Line == 0 {
			inst.Line = line
		}
		bundle = append(bundle, inst)
	}

	res := r.core.Step(bundle...)
	check(L, res.Err)
	L.Push(lua.LNumber(res.Stalls))
	return 1
}

func (r *Runner) idle(L *lua.LState) int {
	n := L.OptInt(1, 1)
	for i := 0; i < n; i++ {
		check(L, r.core.Step().Err)
	}
	return 0
}

func (r *Runner) memWrite(L *lua.LState) int {
	addr := int32(L.CheckNumber(1))
	n := r.core.Lanes()
	v := toLanes(L, L.CheckAny(2), n)

	mask := emu.AllLanes(n)
	if L.GetTop() >= 3 {
		mask = emu.MaskFromBits(uint8(L.CheckInt(3)))
	}
	_, err := r.core.Memory().Write(addr, v, mask)
	check(L, err)
	return 0
}

// memRead returns a lane table with false for undefined lanes, or nil
// when the address was never written.
func (r *Runner) memRead(L *lua.LState) int {
	addr := L.CheckInt(1)
	if addr < 0 || addr >= emu.AddrSpace {
		L.ArgError(1, fmt.Sprintf("address %#x out of range", addr))
	}

	w, ok := r.core.Memory().Peek(uint16(addr))
	if !ok {
		L.Push(lua.LNil)
		return 1
	}
	t := L.NewTable()
	for j := 0; j < r.core.Lanes(); j++ {
		if w.Defined[j] {
			t.RawSetInt(j+1, lua.LNumber(w.Value[j]))
		} else {
			t.RawSetInt(j+1, lua.LFalse)
		}
	}
	L.Push(t)
	return 1
}

func (r *Runner) cycle(L *lua.LState) int {
	L.Push(lua.LNumber(r.core.Cycle()))
	return 1
}

func (r *Runner) eval(L *lua.LState) int {
	name := L.CheckString(1)
	cond, ok := insts.LookupCond(strings.ToUpper(name))
	if !ok {
		L.ArgError(1, fmt.Sprintf("unknown condition %q", name))
	}
	mask, count, err := r.core.Evaluate(cond)
	check(L, err)
	L.Push(lua.LNumber(count))
	L.Push(lua.LNumber(mask.Bits()))
	return 2
}

func (r *Runner) expect(L *lua.LState) int {
	if !L.ToBool(1) {
		L.RaiseError("expectation failed: %s", L.OptString(2, "(no message)"))
	}
	return 0
}

var kindsByName = func() map[string]diag.Kind {
	m := make(map[string]diag.Kind)
	for _, k := range []diag.Kind{
		diag.KindStaleHazard, diag.KindUnalignedAllowed, diag.KindUndefinedMemory,
		diag.KindUndefinedRead, diag.KindPartialWrite, diag.KindDroppedWrite,
		diag.KindMemoryCreated,
	} {
		m[k.String()] = k
	}
	return m
}()

// warnings returns the number of warnings emitted so far, of one kind
// when a kind name is given.
func (r *Runner) warnings(L *lua.LState) int {
	rep := r.core.Diagnostics()
	if L.GetTop() == 0 {
		L.Push(lua.LNumber(len(rep.Warnings())))
		return 1
	}

	name := L.CheckString(1)
	kind, ok := kindsByName[name]
	if !ok {
		L.ArgError(1, fmt.Sprintf("unknown warning kind %q", name))
	}
	L.Push(lua.LNumber(rep.Count(kind)))
	return 1
}

func (r *Runner) reset(L *lua.LState) int {
	r.core.Reset()
	return 0
}

func (r *Runner) dump(L *lua.LState) int {
	L.Push(lua.LString(r.core.DumpString()))
	return 1
}

func (r *Runner) print(L *lua.LState) int {
	parts := make([]string, L.GetTop())
	for i := range parts {
		parts[i] = L.ToStringMeta(L.Get(i + 1)).String()
	}
	fmt.Fprintln(r.out, strings.Join(parts, "\t"))
	return 0
}
