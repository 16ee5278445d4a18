// Package emulator provides the main emulator runner that ties together
// CPU, memory, I/O registers and cartridge components.
package emulator

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"hash"
	"strings"
	"time"

	"github.com/cespare/xxhash"
	"github.com/retroenv/retrogolib/log"

	"github.com/richardwooding/dmgcore/internal/cartridge"
	"github.com/richardwooding/dmgcore/internal/cpu"
	"github.com/richardwooding/dmgcore/internal/ioreg"
	"github.com/richardwooding/dmgcore/internal/isa"
	"github.com/richardwooding/dmgcore/internal/memory"
	"github.com/richardwooding/dmgcore/internal/register"
)

var (
	// ErrTimeout indicates the operation timed out.
	ErrTimeout = errors.New("timeout waiting for serial output")

	// ErrInstructionLimit indicates the instruction budget ran out before the CPU halted.
	ErrInstructionLimit = errors.New("instruction limit reached")
)

// cancelCheckInterval is how many instructions run between context checks.
const cancelCheckInterval = 1024

// Options configures an emulator.
type Options struct {
	// SkipBoot unmaps the boot image and loads the post-boot register values.
	SkipBoot bool

	// Logger receives run summaries and failures. Nil disables logging.
	Logger *log.Logger

	// MaxInstructions bounds Run. Zero means no limit.
	MaxInstructions uint64

	// Trace is called after every instruction.
	Trace cpu.TraceFunc
}

// Emulator represents a Game Boy emulator instance.
type Emulator struct {
	CPU    *cpu.CPU
	Memory *memory.AddressSpace
	IO     *ioreg.File
	Cart   cartridge.Cartridge

	opts         Options
	instructions uint64
	digest       hash.Hash64
	traceBuf     [14]byte
}

// New creates a new emulator instance with the given ROM data.
func New(romData []byte, opts Options) (*Emulator, error) {
	cart, err := cartridge.New(romData)
	if err != nil {
		return nil, fmt.Errorf("failed to load cartridge: %w", err)
	}

	e := &Emulator{
		Cart:   cart,
		Memory: memory.New(cart),
		IO:     ioreg.New(),
		opts:   opts,
		digest: xxhash.New(),
	}
	e.Memory.SetIO(e.IO)

	cpuOpts := []cpu.Option{cpu.WithTracer(e.trace)}
	if opts.Logger != nil {
		cpuOpts = append(cpuOpts, cpu.WithLogger(opts.Logger))
	}
	e.CPU = cpu.New(e.Memory, cpuOpts...)
	e.boot()

	if opts.Logger != nil {
		header := cart.Header()
		opts.Logger.Debug("Cartridge loaded",
			log.String("title", header.Title),
			log.Stringer("type", header.CartridgeType),
			log.Int("rom_banks", header.ROMBanks),
			log.Int("ram_size", header.RAMSize))
	}
	return e, nil
}

// boot puts the machine in its power-on state, optionally past the boot image.
func (e *Emulator) boot() {
	if e.opts.SkipBoot {
		e.Memory.CompleteBoot()
		e.CPU.Registers.PostBoot()
	}
}

// trace folds every executed instruction into the trace digest.
func (e *Emulator) trace(pc uint16, inst isa.Instruction, regs *register.Registers) {
	b := e.traceBuf[:]
	binary.LittleEndian.PutUint16(b[0:], pc)
	binary.LittleEndian.PutUint16(b[2:], inst.Opcode)
	binary.LittleEndian.PutUint16(b[4:], regs.Read16(register.AF))
	binary.LittleEndian.PutUint16(b[6:], regs.Read16(register.BC))
	binary.LittleEndian.PutUint16(b[8:], regs.Read16(register.DE))
	binary.LittleEndian.PutUint16(b[10:], regs.Read16(register.HL))
	binary.LittleEndian.PutUint16(b[12:], regs.SP)
	_, _ = e.digest.Write(b)

	if e.opts.Trace != nil {
		e.opts.Trace(pc, inst, regs)
	}
}

// Step executes one CPU instruction and advances the timer by the cycles it took.
func (e *Emulator) Step() error {
	before := e.CPU.Cycles()
	if err := e.CPU.Step(); err != nil {
		return err
	}
	e.instructions++
	e.IO.Tick(uint16(e.CPU.Cycles() - before)) //nolint:gosec // G115: a single instruction takes at most 24 cycles
	return nil
}

// Run executes until the CPU halts or stops, an instruction fails, the
// instruction budget runs out, or ctx is cancelled.
func (e *Emulator) Run(ctx context.Context) error {
	start := time.Now()
	startInstructions := e.instructions

	err := e.run(ctx)

	logger := e.opts.Logger
	if logger == nil {
		return err
	}
	instructions := fmt.Sprintf("%d", e.instructions-startInstructions)
	cycles := fmt.Sprintf("%d", e.CPU.Cycles())
	if err != nil {
		logger.Error("Run failed",
			log.Hex("pc", e.CPU.Registers.PC),
			log.String("instructions", instructions),
			log.Err(err))
		return err
	}
	logger.Info("Run finished",
		log.Stringer("state", e.CPU.State()),
		log.Hex("pc", e.CPU.Registers.PC),
		log.String("instructions", instructions),
		log.String("cycles", cycles),
		log.String("elapsed", time.Since(start).String()))
	return nil
}

func (e *Emulator) run(ctx context.Context) error {
	for e.CPU.State() == cpu.Running {
		if e.instructions%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		if e.opts.MaxInstructions > 0 && e.instructions >= e.opts.MaxInstructions {
			return fmt.Errorf("%w: %d instructions", ErrInstructionLimit, e.opts.MaxInstructions)
		}
		if err := e.Step(); err != nil {
			return err
		}
	}
	return nil
}

// RunCycles runs the emulator for at least the specified number of cycles,
// stopping early if the CPU halts or stops.
func (e *Emulator) RunCycles(cycles uint64) error {
	target := e.CPU.Cycles() + cycles
	for e.CPU.Cycles() < target && e.CPU.State() == cpu.Running {
		if err := e.Step(); err != nil {
			return err
		}
	}
	return nil
}

// RunUntilOutput runs the emulator until serial output appears or timeout is reached.
// This is useful for test ROMs that output results via serial port.
// Returns the serial output and any error.
func (e *Emulator) RunUntilOutput(ctx context.Context, timeout time.Duration) (string, error) {
	startTime := time.Now()
	lastOutputLen := 0

	for {
		if err := ctx.Err(); err != nil {
			return e.IO.SerialOutput(), err
		}

		if time.Since(startTime) > timeout {
			if e.IO.SerialLen() > 0 {
				return e.IO.SerialOutput(), nil
			}
			return "", ErrTimeout
		}

		// Execute some cycles
		if err := e.RunCycles(10000); err != nil {
			return e.IO.SerialOutput(), err
		}

		// Reset timeout on new output
		if e.IO.SerialLen() > lastOutputLen {
			lastOutputLen = e.IO.SerialLen()
			startTime = time.Now()
		}

		// Blargg's test ROMs output "Passed" or "Failed" when complete
		output := e.IO.SerialOutput()
		if strings.Contains(output, "Passed") || strings.Contains(output, "Failed") {
			return output, nil
		}

		// Nothing more will be printed by a halted or stopped CPU
		if e.CPU.State() != cpu.Running {
			return output, nil
		}
	}
}

// SerialOutput returns the accumulated serial output.
func (e *Emulator) SerialOutput() string {
	return e.IO.SerialOutput()
}

// Instructions returns the number of instructions executed since reset.
func (e *Emulator) Instructions() uint64 {
	return e.instructions
}

// TraceDigest returns the xxhash64 of every executed instruction and the
// register file after it. Identical runs produce identical digests.
func (e *Emulator) TraceDigest() uint64 {
	return e.digest.Sum64()
}

// Reset resets the emulator to initial state. Cartridge RAM and bank
// registers are kept.
func (e *Emulator) Reset() {
	e.Memory.Reset()
	e.IO.Reset()
	e.CPU.Reset()
	e.digest.Reset()
	e.instructions = 0
	e.boot()
}
