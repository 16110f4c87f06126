package emu

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/sarchlab/dpsim/insts"
)

// DefaultDumpWidth is the line width Dump lays memory out for.
const DefaultDumpWidth = 80

type dumpOptions struct {
	width int
}

// DumpOption configures Dump.
type DumpOption func(*dumpOptions)

// DumpWidth sets the terminal width memory rows are fitted to.
func DumpWidth(cols int) DumpOption {
	return func(o *dumpOptions) {
		if cols > 0 {
			o.width = cols
		}
	}
}

// Dump writes a human-readable snapshot of the architectural state to w.
func (c *Core) Dump(w io.Writer, opts ...DumpOption) error {
	o := dumpOptions{width: DefaultDumpWidth}
	for _, opt := range opts {
		opt(&o)
	}

	n := c.Lanes()
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprintf(tw, "cycle %d\tline %d\tlanes %d\tDSTAT0 %v\tDSTAT1 %v\n",
		c.Cycle(), c.line, n, c.state.Enabled(), c.state.Master())
	fmt.Fprintln(tw)

	header := []string{""}
	for j := 0; j < n; j++ {
		header = append(header, fmt.Sprintf("lane%d", j))
	}
	fmt.Fprintln(tw, strings.Join(header, "\t"))

	row := func(name string, v Lanes, format string, width int) {
		cells := []string{name}
		for j := 0; j < n; j++ {
			cells = append(cells, fmt.Sprintf(format, uint32(Truncate(v[j], width))))
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}

	for i := 0; i < insts.NumDataRegs; i++ {
		v, _ := c.regFile.ReadLane(insts.R(i))
		row(insts.R(i).String(), v, "%03x", insts.DataRegWidth)
	}
	for i := 0; i < insts.NumAccRegs; i++ {
		v, _ := c.regFile.ReadLane(insts.ACC(i))
		row(insts.ACC(i).String(), v, "%08x", 32)
	}
	um, _ := c.regFile.ReadLane(insts.RegUMCOUNT)
	row("UMCOUNT", um, "%d", insts.RegUMCOUNT.Width())

	for _, b := range []Bank{BankR, BankI, BankC} {
		cells := []string{"ASTAT." + b.String()}
		for j := 0; j < n; j++ {
			cells = append(cells, c.flags.Get(b, j).String())
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}

	ov := c.flags.MACOverflows()
	cells := []string{"MACOV"}
	for j := 0; j < n; j++ {
		cells = append(cells, fmt.Sprintf("%d", ov[j]))
	}
	fmt.Fprintln(tw, strings.Join(cells, "\t"))
	fmt.Fprintln(tw)

	fmt.Fprintln(tw, "\tvalue\tstamp\tbackup0\tstamp0\tbackup1\tstamp1")
	for _, reg := range insts.AllRegs() {
		if !reg.IsHazardTracked() {
			continue
		}
		h := c.regFile.Tracker().History(reg)
		fmt.Fprintf(tw, "%v\t%04x\t%s\t%04x\t%s\t%04x\t%s\n", reg,
			uint32(Truncate(h.Value, 16)), stamp(h.Stamp),
			uint32(Truncate(h.Backup[0], 16)), stamp(h.BackupStamp[0]),
			uint32(Truncate(h.Backup[1], 16)), stamp(h.BackupStamp[1]))
	}
	fmt.Fprintln(tw)

	for _, reg := range insts.AllRegs() {
		if !reg.IsScalar() || reg.IsHazardTracked() {
			continue
		}
		v, _ := c.regFile.ReadScalar(reg)
		fmt.Fprintf(tw, "%v\t%04x\n", reg, uint32(Truncate(v, reg.Width())))
	}

	if err := tw.Flush(); err != nil {
		return err
	}
	return c.dumpMemory(w, o.width)
}

func stamp(s int64) string {
	if s < 0 {
		return "-"
	}
	return fmt.Sprintf("%d", s)
}

// dumpMemory prints every defined word, as many per row as fit in width.
// Undefined lanes print as "?".
func (c *Core) dumpMemory(w io.Writer, width int) error {
	addrs := c.memory.Addresses()
	if _, err := fmt.Fprintf(w, "\nmemory: %d words\n", len(addrs)); err != nil {
		return err
	}

	n := c.Lanes()
	cell := 7 + 4*n
	perRow := width / cell
	if perRow < 1 {
		perRow = 1
	}

	var b strings.Builder
	for i, addr := range addrs {
		word, _ := c.memory.Peek(addr)
		fmt.Fprintf(&b, "%04x:", addr)
		for j := 0; j < n; j++ {
			if word.Defined[j] {
				fmt.Fprintf(&b, " %03x", uint32(Truncate(word.Value[j], WordWidth)))
			} else {
				b.WriteString("   ?")
			}
		}

		if (i+1)%perRow == 0 || i == len(addrs)-1 {
			b.WriteString("\n")
		} else {
			b.WriteString("  ")
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// DumpString returns the Dump output as a string.
func (c *Core) DumpString(opts ...DumpOption) string {
	var buf bytes.Buffer
	_ = c.Dump(&buf, opts...)
	return buf.String()
}
