package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/retroenv/retrogolib/log"

	"github.com/richardwooding/dmgcore/internal/emulator"
	"github.com/richardwooding/dmgcore/internal/isa"
	"github.com/richardwooding/dmgcore/internal/register"
)

// TraceCmd prints one line per executed instruction.
type TraceCmd struct {
	ROM   string `arg:"" type:"existingfile" help:"Path to ROM file."`
	Boot  bool   `help:"Trace the boot image as well."`
	Count uint64 `short:"n" default:"1000" help:"Number of instructions to trace."`
}

// Run executes the trace command.
func (c *TraceCmd) Run(ctx context.Context, logger *log.Logger) error {
	w := bufio.NewWriter(os.Stdout)
	defer func() { _ = w.Flush() }()

	var emu *emulator.Emulator
	trace := func(pc uint16, inst isa.Instruction, regs *register.Registers) {
		text := inst.String()
		if _, encoding, err := isa.Fetch(emu.CPU.Peek, pc); err == nil {
			text = inst.Disassemble(inst.Operands(encoding))
		}
		_, _ = fmt.Fprintf(w, "%04X  %-18s %s\n", pc, text, regs)
	}

	emu, err := loadEmulator(c.ROM, emulator.Options{
		SkipBoot:        !c.Boot,
		Logger:          logger,
		MaxInstructions: c.Count,
		Trace:           trace,
	})
	if err != nil {
		return err
	}

	if err := emu.Run(ctx); err != nil && !errors.Is(err, emulator.ErrInstructionLimit) {
		return err
	}

	_, _ = fmt.Fprintf(w, "%d instructions, %d cycles, digest %016x\n",
		emu.Instructions(), emu.CPU.Cycles(), emu.TraceDigest())
	return nil
}
