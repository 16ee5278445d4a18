package emulator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/retroenv/retrogolib/assert"
	"github.com/retroenv/retrogolib/log"

	"github.com/richardwooding/dmgcore/internal/cartridge"
	"github.com/richardwooding/dmgcore/internal/cpu"
	"github.com/richardwooding/dmgcore/internal/ioreg"
	"github.com/richardwooding/dmgcore/internal/isa"
	"github.com/richardwooding/dmgcore/internal/register"
)

// buildROM returns a 32 KiB ROM-only image with program placed at the
// cartridge entry point.
func buildROM(program ...byte) []byte {
	rom := make([]byte, 0x8000)
	copy(rom[0x0100:], program)
	copy(rom[0x0134:], "DMGCORE")
	rom[0x014D] = cartridge.HeaderChecksum(rom)
	return rom
}

func newEmulator(t *testing.T, opts Options, program ...byte) *Emulator {
	t.Helper()
	e, err := New(buildROM(program...), opts)
	assert.NoError(t, err)
	return e
}

// serialProgram prints "OK" over the serial port and halts.
var serialProgram = []byte{
	0x3E, 'O', // LD A,'O'
	0xE0, 0x01, // LDH (SB),A
	0x3E, 0x81, // LD A,$81
	0xE0, 0x02, // LDH (SC),A
	0x3E, 'K', // LD A,'K'
	0xE0, 0x01, // LDH (SB),A
	0x3E, 0x81, // LD A,$81
	0xE0, 0x02, // LDH (SC),A
	0x76, // HALT
}

func TestNewSkipBoot(t *testing.T) {
	e := newEmulator(t, Options{SkipBoot: true}, 0x76)

	assert.True(t, e.Memory.BootCompleted())
	assert.Equal(t, register.PostBootPC, e.CPU.Registers.PC)
	assert.Equal(t, register.PostBootSP, e.CPU.Registers.SP)
	assert.Equal(t, register.PostBootAF, e.CPU.Registers.Read16(register.AF))
	assert.Equal(t, "DMGCORE", e.Cart.Header().Title)
}

func TestNewInvalidROM(t *testing.T) {
	_, err := New(make([]byte, 0x100), Options{})
	assert.Error(t, err)
	assert.True(t, errors.Is(err, cartridge.ErrInvalidROMSize))
}

func TestRunUntilHalt(t *testing.T) {
	e := newEmulator(t, Options{SkipBoot: true, Logger: log.NewTestLogger(t)},
		0x06, 0x11, // LD B,$11
		0x76, // HALT
	)

	assert.NoError(t, e.Run(context.Background()))
	assert.Equal(t, cpu.Halted, e.CPU.State())
	assert.Equal(t, uint8(0x11), e.CPU.Registers.B)
	assert.Equal(t, uint16(0x0103), e.CPU.Registers.PC)
	assert.Equal(t, uint64(2), e.Instructions())
	assert.Equal(t, uint64(12), e.CPU.Cycles())
}

func TestRunThroughBootImage(t *testing.T) {
	e := newEmulator(t, Options{}, 0x06, 0x11, 0x76)
	assert.False(t, e.Memory.BootCompleted())
	assert.Equal(t, uint16(0x0000), e.CPU.Registers.PC)

	assert.NoError(t, e.Run(context.Background()))

	regs := e.CPU.Registers
	assert.True(t, e.Memory.BootCompleted())
	assert.Equal(t, cpu.Halted, e.CPU.State())
	assert.Equal(t, uint16(0x0103), regs.PC)
	assert.Equal(t, uint16(0xFFFE), regs.SP)
	assert.Equal(t, uint16(0x7FFF), regs.Read16(register.HL))
	assert.Equal(t, uint8(0x01), regs.A)
	assert.Equal(t, uint8(0x11), regs.B)
	assert.True(t, regs.Flag(register.Zero))
	assert.True(t, regs.Flag(register.HalfCarry))

	value, err := e.Memory.Read(0x8000)
	assert.NoError(t, err)
	assert.Equal(t, uint8(0x00), value)
}

func TestRunInstructionLimit(t *testing.T) {
	e := newEmulator(t, Options{SkipBoot: true, MaxInstructions: 100},
		0x18, 0xFE, // JR -2
	)

	err := e.Run(context.Background())
	assert.Error(t, err)
	assert.True(t, errors.Is(err, ErrInstructionLimit))
	assert.Equal(t, uint64(100), e.Instructions())
	assert.Equal(t, cpu.Running, e.CPU.State())
}

func TestRunCancelled(t *testing.T) {
	e := newEmulator(t, Options{SkipBoot: true}, 0x18, 0xFE)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := e.Run(ctx)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, uint64(0), e.Instructions())
}

func TestRunDeadline(t *testing.T) {
	e := newEmulator(t, Options{SkipBoot: true}, 0x18, 0xFE)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := e.Run(ctx)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.True(t, e.Instructions() > 0)
}

func TestRunExecError(t *testing.T) {
	// The test logger fails the test on error records, so none is attached.
	e := newEmulator(t, Options{SkipBoot: true},
		0xEA, 0x00, 0x20, // LD ($2000),A on a ROM-only cartridge
	)

	err := e.Run(context.Background())
	assert.Error(t, err)
	assert.True(t, errors.Is(err, cartridge.ErrIllegalWrite))

	var execErr *cpu.ExecError
	assert.True(t, errors.As(err, &execErr))
	assert.Equal(t, uint16(0x0100), execErr.PC)
	assert.Equal(t, uint16(0xEA), execErr.Opcode)
}

func TestRunCyclesAdvancesTimer(t *testing.T) {
	e := newEmulator(t, Options{SkipBoot: true}, 0x18, 0xFE)

	assert.NoError(t, e.RunCycles(512))

	// 43 iterations of a 12-cycle loop
	assert.Equal(t, uint64(516), e.CPU.Cycles())
	assert.Equal(t, uint8(2), e.IO.ReadRegister(uint16(ioreg.DIV)))
}

func TestRunUntilOutput(t *testing.T) {
	e := newEmulator(t, Options{SkipBoot: true}, serialProgram...)

	output, err := e.RunUntilOutput(context.Background(), time.Second)
	assert.NoError(t, err)
	assert.Equal(t, "OK", output)
	assert.Equal(t, "OK", e.SerialOutput())
	assert.Equal(t, cpu.Halted, e.CPU.State())
	assert.True(t, e.IO.ReadRegister(uint16(ioreg.IF))&ioreg.InterruptSerial != 0)
}

func TestRunUntilOutputTimeout(t *testing.T) {
	e := newEmulator(t, Options{SkipBoot: true}, 0x18, 0xFE)

	_, err := e.RunUntilOutput(context.Background(), 10*time.Millisecond)
	assert.True(t, errors.Is(err, ErrTimeout))
}

func TestTraceDigestDeterministic(t *testing.T) {
	run := func(program ...byte) uint64 {
		e := newEmulator(t, Options{SkipBoot: true}, program...)
		assert.NoError(t, e.Run(context.Background()))
		return e.TraceDigest()
	}

	first := run(serialProgram...)
	second := run(serialProgram...)
	assert.Equal(t, first, second)

	other := run(0x06, 0x11, 0x76)
	assert.True(t, first != other)
}

func TestTraceCallback(t *testing.T) {
	var pcs []uint16
	var ops []isa.Op
	opts := Options{
		SkipBoot: true,
		Trace: func(pc uint16, inst isa.Instruction, _ *register.Registers) {
			pcs = append(pcs, pc)
			ops = append(ops, inst.Op)
		},
	}
	e := newEmulator(t, opts, 0x06, 0x11, 0x76)

	assert.NoError(t, e.Run(context.Background()))
	assert.Equal(t, []uint16{0x0100, 0x0102}, pcs)
	assert.Equal(t, []isa.Op{isa.Ld, isa.Halt}, ops)
}

func TestReset(t *testing.T) {
	e := newEmulator(t, Options{SkipBoot: true}, serialProgram...)
	assert.NoError(t, e.Run(context.Background()))
	digest := e.TraceDigest()

	e.Reset()

	assert.Equal(t, uint64(0), e.Instructions())
	assert.Equal(t, uint64(0), e.CPU.Cycles())
	assert.Equal(t, cpu.Running, e.CPU.State())
	assert.Equal(t, register.PostBootPC, e.CPU.Registers.PC)
	assert.Equal(t, "", e.SerialOutput())

	// A reset machine replays the same run.
	assert.NoError(t, e.Run(context.Background()))
	assert.Equal(t, digest, e.TraceDigest())
}
