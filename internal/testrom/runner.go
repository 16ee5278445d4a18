// Package testrom runs serial-reporting test ROMs and classifies their output.
package testrom

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/retroenv/retrogolib/log"

	"github.com/richardwooding/dmgcore/internal/cpu"
	"github.com/richardwooding/dmgcore/internal/emulator"
	"github.com/richardwooding/dmgcore/internal/romfile"
)

// Result represents the result of running a test ROM.
type Result struct {
	Path    string
	Output  string
	Passed  bool
	Failed  bool
	Timeout bool
	Halted  bool
	Error   error
}

// Run loads a test ROM from disk and runs it.
func Run(ctx context.Context, romPath string, timeout time.Duration, logger *log.Logger) *Result {
	data, err := romfile.Load(romPath)
	if err != nil {
		return &Result{Path: romPath, Error: fmt.Errorf("failed to read ROM: %w", err)}
	}
	result := RunData(ctx, data, timeout, logger)
	result.Path = romPath
	return result
}

// RunData runs a test ROM image past the boot sequence until it reports a
// verdict over the serial port, halts, or goes quiet for timeout.
func RunData(ctx context.Context, data []byte, timeout time.Duration, logger *log.Logger) *Result {
	result := &Result{}

	emu, err := emulator.New(data, emulator.Options{SkipBoot: true, Logger: logger})
	if err != nil {
		result.Error = fmt.Errorf("failed to create emulator: %w", err)
		return result
	}

	output, err := emu.RunUntilOutput(ctx, timeout)
	result.Output = output
	result.Halted = !errors.Is(err, emulator.ErrTimeout) && emu.CPU.State() != cpu.Running

	if err != nil {
		if errors.Is(err, emulator.ErrTimeout) {
			result.Timeout = true
		}
		result.Error = err
		return result
	}

	// Check "Failed" first to avoid ambiguity if both strings are present
	result.Failed = strings.Contains(output, "Failed")
	result.Passed = strings.Contains(output, "Passed") && !result.Failed

	return result
}

// String returns a human-readable representation of the result.
func (r *Result) String() string {
	if r.Error != nil && !r.Timeout {
		return fmt.Sprintf("ERROR: %v", r.Error)
	}

	if r.Timeout {
		return "TIMEOUT"
	}

	if r.Passed {
		return "PASSED"
	}

	if r.Failed {
		return "FAILED"
	}

	return "UNKNOWN"
}

// IsSuccess returns true if the test passed.
func (r *Result) IsSuccess() bool {
	return r.Passed && !r.Failed && r.Error == nil
}
