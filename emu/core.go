package emu

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/sarchlab/dpsim/config"
	"github.com/sarchlab/dpsim/cordic"
	"github.com/sarchlab/dpsim/diag"
	"github.com/sarchlab/dpsim/insts"
	"github.com/sarchlab/dpsim/timing/hazard"
)

// StepResult represents the result of executing one bundle.
type StepResult struct {
	// Halted is true once a fatal error has stopped the core.
	Halted bool

	// Err is the fatal error that halted the core, a *diag.Error.
	Err error

	// Stalls is the number of stall cycles the bundle incurred.
	Stalls uint64
}

// Stats summarizes a run.
type Stats struct {
	Bundles      uint64
	Instructions uint64
	Cycles       int64
	Stalls       uint64
	Warnings     int
	Suppressed   int
	MACOverflows [MaxLanes]uint64
}

// Core is the simulator context: it owns every piece of architectural
// state and executes resolved instructions against it.
type Core struct {
	cfg      *config.Config
	logger   *logrus.Logger
	reporter *diag.Reporter
	stacks   Stacks
	cordic   CORDIC

	state   *LaneState
	flags   *FlagEngine
	regFile *RegFile
	memory  *Memory

	// Execution units
	alu       *ALU
	mac       *MAC
	shifter   *Shifter
	magnitude *Magnitude
	lsu       *LoadStoreUnit
	crossLane *CrossLane

	line         int
	bundles      uint64
	instructions uint64
	stalls       uint64
	halted       error
}

// CoreOption is a functional option for configuring the Core.
type CoreOption func(*Core)

// WithConfig replaces the whole run configuration. Options that change
// single settings must come after it.
func WithConfig(cfg *config.Config) CoreOption {
	return func(c *Core) {
		c.cfg = cfg.Clone()
	}
}

// WithLanes sets the number of data paths (1, 2 or 4).
func WithLanes(n int) CoreOption {
	return func(c *Core) {
		c.cfg.Lanes = n
	}
}

// WithMaxInstructions sets the maximum number of bundles to execute.
// A value of 0 means no limit.
func WithMaxInstructions(max uint64) CoreOption {
	return func(c *Core) {
		c.cfg.MaxInstructions = max
	}
}

// WithInitMode makes stores ignore the lane-enable mask.
func WithInitMode(on bool) CoreOption {
	return func(c *Core) {
		c.cfg.InitMode = on
	}
}

// WithLogger sets the logger diagnostics are written to.
func WithLogger(l *logrus.Logger) CoreOption {
	return func(c *Core) {
		c.logger = l
	}
}

// WithStacks connects the sequencer stacks reported in SSTAT.
func WithStacks(s Stacks) CoreOption {
	return func(c *Core) {
		c.stacks = s
	}
}

// WithCORDIC replaces the CORDIC primitive used by MAG.C and RECT.C.
func WithCORDIC(u CORDIC) CoreOption {
	return func(c *Core) {
		c.cordic = u
	}
}

// NewCore creates a core in reset state. It panics on a lane count other
// than 1, 2 or 4; callers holding a config should Validate it first.
func NewCore(opts ...CoreOption) *Core {
	c := &Core{cfg: config.Default()}

	for _, opt := range opts {
		opt(c)
	}

	switch c.cfg.Lanes {
	case 1, 2, 4:
	default:
		panic(fmt.Sprintf("emu: unsupported lane count %d", c.cfg.Lanes))
	}

	if c.logger == nil {
		level, err := c.cfg.Level()
		if err != nil {
			level = logrus.WarnLevel
		}
		c.logger = diag.NewLogger(os.Stderr, level)
	}
	if c.stacks == nil {
		c.stacks = NopStacks{}
	}
	if c.cordic == nil {
		c.cordic = cordic.New()
	}

	n := c.cfg.Lanes
	c.reporter = diag.NewReporter(c.logger, c.cfg.CoalesceWarnings)
	c.state = NewLaneState(n)
	c.flags = NewFlagEngine(n, c.stacks)
	c.regFile = NewRegFile(n, c.state, c.flags, hazard.NewTracker())
	c.memory = NewMemory(n)

	// Create execution units
	c.alu = NewALU(n)
	c.mac = NewMAC(n)
	c.shifter = NewShifter(n)
	c.magnitude = NewMagnitude(n, c.cordic)
	c.lsu = NewLoadStoreUnit(latencyReaderFunc(c.readLatency), c.memory)
	c.crossLane = NewCrossLane(n)

	return c
}

// Reset returns the core to its power-on state.
func (c *Core) Reset() {
	c.regFile.Reset()
	c.memory.Reset()
	c.reporter.Reset()
	c.line = 0
	c.bundles = 0
	c.instructions = 0
	c.stalls = 0
	c.halted = nil
}

// Lanes returns the number of data paths.
func (c *Core) Lanes() int { return c.cfg.Lanes }

// Cycle returns the logical cycle of the next bundle.
func (c *Core) Cycle() int64 { return c.regFile.Cycle() }

// SetLine sets the source line reported by diagnostics of direct register
// and memory accesses. Step uses the line of each instruction.
func (c *Core) SetLine(line int) { c.line = line }

// Config returns a copy of the run configuration.
func (c *Core) Config() *config.Config { return c.cfg.Clone() }

// RegFile returns the register bank.
func (c *Core) RegFile() *RegFile { return c.regFile }

// Memory returns the data memory.
func (c *Core) Memory() *Memory { return c.memory }

// Flags returns the flag engine.
func (c *Core) Flags() *FlagEngine { return c.flags }

// LaneState returns the lane-enable state.
func (c *Core) LaneState() *LaneState { return c.state }

// Diagnostics returns the diagnostic reporter.
func (c *Core) Diagnostics() *diag.Reporter { return c.reporter }

// Halted returns the fatal error that stopped the core, or nil.
func (c *Core) Halted() error { return c.halted }

// Stats returns the run statistics so far.
func (c *Core) Stats() Stats {
	return Stats{
		Bundles:      c.bundles,
		Instructions: c.instructions,
		Cycles:       c.Cycle(),
		Stalls:       c.stalls,
		Warnings:     len(c.reporter.Warnings()),
		Suppressed:   c.reporter.Suppressed(),
		MACOverflows: c.flags.MACOverflows(),
	}
}

// fail turns err into a fatal diagnostic and halts the core.
func (c *Core) fail(err error) error {
	if e, ok := err.(*diag.Error); ok {
		c.halted = e
		return e
	}

	kind, ok := diag.KindOf(err)
	if !ok {
		kind = diag.KindInvalidOperand
	}
	var dump string
	if c.cfg.DumpOnError {
		dump = c.DumpString()
	}
	e := c.reporter.Fatal(kind, c.line, c.Cycle(), dump, "%v", err)
	c.halted = e
	return e
}

func (c *Core) warn(kind diag.Kind, format string, args ...interface{}) {
	c.reporter.Warn(kind, c.line, c.Cycle(), format, args...)
}

// ReadScalar returns the committed value of reg, for inspection. It does
// not model read latency.
func (c *Core) ReadScalar(reg insts.Reg) (int32, error) {
	v, err := c.regFile.ReadScalar(reg)
	if err != nil {
		return 0, c.fail(err)
	}
	return v, nil
}

// ReadLane returns the committed per-lane value of reg.
func (c *Core) ReadLane(reg insts.Reg) (Lanes, error) {
	v, err := c.regFile.ReadLane(reg)
	if err != nil {
		return Lanes{}, c.fail(err)
	}
	return v, nil
}

// WriteScalar writes reg in the current cycle.
func (c *Core) WriteScalar(reg insts.Reg, v int32) error {
	applied, err := c.regFile.WriteScalar(reg, v)
	if err != nil {
		return c.fail(err)
	}
	if !applied {
		c.warn(diag.KindDroppedWrite, "write of %v dropped: address generation wrote it this cycle", reg)
	}
	return nil
}

// WriteLane writes reg through the lane path in the current cycle.
func (c *Core) WriteLane(reg insts.Reg, v Lanes, mask Mask) error {
	applied, err := c.regFile.WriteLane(reg, v, mask)
	if err != nil {
		return c.fail(err)
	}
	if !applied {
		c.warn(diag.KindDroppedWrite, "write of %v dropped: address generation wrote it this cycle", reg)
	}
	return nil
}

// ReadLatency reads a latency-restricted register as an instruction issued
// in the current cycle sees it. A substituted older value is reported as a
// warning.
func (c *Core) ReadLatency(reg insts.Reg) (int32, error) {
	v, err := c.readLatency(reg)
	if err != nil {
		return 0, c.fail(err)
	}
	return v, nil
}

func (c *Core) readLatency(reg insts.Reg) (int32, error) {
	v, stale, err := c.regFile.ReadLatency(reg)
	if err != nil {
		return 0, err
	}
	if stale {
		if cur := c.regFile.Tracker().Current(reg); cur != v {
			c.warn(diag.KindStaleHazard, "%v read as %d, write of %d not yet visible", reg, v, cur)
		}
	}
	return v, nil
}

type latencyReaderFunc func(insts.Reg) (int32, error)

func (f latencyReaderFunc) ReadLatency(reg insts.Reg) (int32, error) { return f(reg) }

// mode decodes MSTAT as the current instruction sees it.
func (c *Core) mode() (Mode, error) {
	v, err := c.readLatency(insts.RegMSTAT)
	if err != nil {
		return Mode{}, err
	}
	return ModeFromMSTAT(v), nil
}

// Evaluate tests condition code cond in every enabled lane. count is the
// number of lanes where it holds; disabled lanes are false.
func (c *Core) Evaluate(cond insts.Cond) (mask Mask, count int, err error) {
	mask, count, err = c.evaluate(cond)
	if err != nil {
		return Mask{}, 0, c.fail(err)
	}
	return mask, count, nil
}

func (c *Core) evaluate(cond insts.Cond) (Mask, int, error) {
	var mask Mask
	if !cond.Valid() {
		return mask, 0, fmt.Errorf("%w: condition %v", diag.ErrInvalidOperand, cond)
	}

	var cntr int32
	if cond == insts.CondNotCE {
		v, err := c.readLatency(insts.RegCNTR)
		if err != nil {
			return mask, 0, err
		}
		cntr = v
	}

	bank := condBank(cond)
	enabled := c.state.Enabled()
	count := 0
	for j := 0; j < c.Lanes(); j++ {
		if !enabled[j] {
			continue
		}
		if CondHolds(cond, c.flags.Get(bank, j), cntr) {
			mask[j] = true
			count++
		}
	}
	return mask, count, nil
}

// Step executes one bundle of instructions. Every instruction of the
// bundle reads the state the bundle started from; their effects are
// committed together and the clock advances by one. An empty bundle is a
// no-op cycle.
//
// After a fatal error the core is halted and every later Step returns the
// same error.
func (c *Core) Step(bundle ...*insts.Instruction) StepResult {
	if c.halted != nil {
		return StepResult{Halted: true, Err: c.halted}
	}

	// Check instruction limit before executing
	if max := c.cfg.MaxInstructions; max > 0 && c.bundles >= max {
		err := c.fail(fmt.Errorf("%w: %d bundles", diag.ErrInstructionLimit, max))
		return StepResult{Halted: true, Err: err}
	}

	fx := &effects{}
	for _, inst := range bundle {
		if inst == nil {
			continue
		}
		if err := c.execute(inst, fx); err != nil {
			return StepResult{Halted: true, Err: c.fail(err)}
		}
	}

	if err := c.commit(fx); err != nil {
		return StepResult{Halted: true, Err: c.fail(err)}
	}

	c.bundles++
	c.instructions += uint64(len(bundle))
	c.stalls += fx.stalls
	c.regFile.Advance()

	return StepResult{Stalls: fx.stalls}
}
