// Package main provides the dmgcore CLI application.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/alecthomas/kong"

	"github.com/richardwooding/dmgcore/internal/config"
	"github.com/richardwooding/dmgcore/internal/emulator"
	"github.com/richardwooding/dmgcore/internal/romfile"
)

var (
	// ErrTestFailed indicates a test ROM failed.
	ErrTestFailed = errors.New("test failed")

	// ErrInvalidScale indicates the scale factor is out of valid range.
	ErrInvalidScale = errors.New("scale must be between 1 and 4")
)

// CLI represents the command-line interface structure.
type CLI struct {
	Verbose bool `short:"v" help:"Enable debug logging." xor:"verbosity"`
	Quiet   bool `short:"q" help:"Only log errors." xor:"verbosity"`

	Info    InfoCmd    `cmd:"" help:"Display cartridge information."`
	Run     RunCmd     `cmd:"" help:"Run a ROM until the CPU halts or stops."`
	Disasm  DisasmCmd  `cmd:"" help:"Disassemble a ROM image."`
	Trace   TraceCmd   `cmd:"" help:"Print one register line per executed instruction."`
	Debug   DebugCmd   `cmd:"" help:"Step through a ROM in an interactive monitor."`
	Monitor MonitorCmd `cmd:"" help:"Open a window with live registers, banks and VRAM tiles."`
	Script  ScriptCmd  `cmd:"" help:"Drive a ROM from a Lua script."`
	Test    TestCmd    `cmd:"" help:"Run test ROMs and report results."`
}

// loadEmulator reads a ROM (plain or archived) and builds an emulator for it.
func loadEmulator(path string, opts emulator.Options) (*emulator.Emulator, error) {
	data, err := romfile.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read ROM: %w", err)
	}
	emu, err := emulator.New(data, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create emulator: %w", err)
	}
	return emu, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cli := &CLI{}
	kctx := kong.Parse(cli,
		kong.Name("dmgcore"),
		kong.Description("A Game Boy (DMG) CPU core with inspection tools."),
		kong.UsageOnError(),
		kong.BindTo(ctx, (*context.Context)(nil)),
	)

	logger := config.CreateLogger(cli.Verbose, cli.Quiet)
	err := kctx.Run(logger)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
