package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/retroenv/retrogolib/log"

	"github.com/richardwooding/dmgcore/internal/emulator"
)

// RunCmd runs a ROM until the CPU halts or stops.
type RunCmd struct {
	ROM             string        `arg:"" type:"existingfile" help:"Path to ROM file."`
	Boot            bool          `help:"Run the boot image instead of starting at 0x0100 with post-boot registers."`
	MaxInstructions uint64        `default:"100000000" help:"Stop after this many instructions (0 for no limit)."`
	Timeout         time.Duration `default:"30s" help:"Stop after this much wall-clock time (0 for no limit)."`
}

// Run executes the run command.
func (c *RunCmd) Run(ctx context.Context, logger *log.Logger) error {
	emu, err := loadEmulator(c.ROM, emulator.Options{
		SkipBoot:        !c.Boot,
		Logger:          logger,
		MaxInstructions: c.MaxInstructions,
	})
	if err != nil {
		return err
	}

	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	runErr := emu.Run(ctx)

	fmt.Printf("State:        %s\n", emu.CPU.State())
	fmt.Printf("Registers:    %s\n", emu.CPU.Registers)
	fmt.Printf("Instructions: %d\n", emu.Instructions())
	fmt.Printf("Cycles:       %d\n", emu.CPU.Cycles())
	fmt.Printf("Trace digest: %016x\n", emu.TraceDigest())
	if out := emu.SerialOutput(); out != "" {
		fmt.Printf("\nSerial output:\n%s\n", out)
	}

	switch {
	case runErr == nil:
		return nil
	case errors.Is(runErr, context.DeadlineExceeded):
		return fmt.Errorf("timed out after %s: %w", c.Timeout, runErr)
	default:
		return runErr
	}
}
