// Package main provides the entry point for dpsim.
// dpsim runs Lua test scripts against the SIMD DSP execution core.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"golang.org/x/term"

	"github.com/sarchlab/dpsim/config"
	"github.com/sarchlab/dpsim/diag"
	"github.com/sarchlab/dpsim/emu"
	"github.com/sarchlab/dpsim/script"
)

var (
	configPath = flag.String("config", "", "Path to run configuration JSON file")
	lanes      = flag.Int("lanes", 0, "Number of lanes (1, 2 or 4), overrides the configuration")
	verbose    = flag.Bool("v", false, "Verbose output")
)

func main() {
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Usage: dpsim [options] <script.lua>\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	os.Exit(run(cfg, flag.Arg(0)))
}

func loadConfig() (*config.Config, error) {
	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			return nil, err
		}
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if *lanes != 0 {
		cfg.Lanes = *lanes
	}
	if *verbose {
		cfg.LogLevel = "debug"
	}
	return cfg, cfg.Validate()
}

func run(cfg *config.Config, path string) int {
	level, _ := cfg.Level()
	core := emu.NewCore(
		emu.WithConfig(cfg),
		emu.WithLogger(diag.NewLogger(os.Stderr, level)),
	)

	runner := script.New(core)
	defer runner.Close()

	err := runner.RunFile(path)

	stats := core.Stats()
	if *verbose || err != nil {
		fmt.Printf("\nScript: %s\n", path)
		fmt.Printf("Bundles:      %d\n", stats.Bundles)
		fmt.Printf("Instructions: %d\n", stats.Instructions)
		fmt.Printf("Cycles:       %d\n", stats.Cycles)
		fmt.Printf("Stalls:       %d\n", stats.Stalls)
		fmt.Printf("Warnings:     %d (%d suppressed)\n", stats.Warnings, stats.Suppressed)
		fmt.Printf("MAC overflows: %v\n", stats.MACOverflows[:core.Lanes()])
	}

	if err == nil {
		return 0
	}

	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	var fatal *diag.Error
	if errors.As(err, &fatal) && cfg.DumpOnError {
		fmt.Fprintln(os.Stderr)
		if dumpErr := core.Dump(os.Stderr, emu.DumpWidth(dumpWidth())); dumpErr != nil {
			fmt.Fprintf(os.Stderr, "Error writing dump: %v\n", dumpErr)
		}
	}
	return 1
}

// dumpWidth sizes the memory dump to the terminal, if there is one.
func dumpWidth() int {
	fd := int(os.Stderr.Fd())
	if !term.IsTerminal(fd) {
		return emu.DefaultDumpWidth
	}
	w, _, err := term.GetSize(fd)
	if err != nil || w <= 0 {
		return emu.DefaultDumpWidth
	}
	return w
}
