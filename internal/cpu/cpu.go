// Package cpu implements the Sharp SM83 CPU emulation for the Game Boy.
package cpu

import (
	"fmt"

	"github.com/retroenv/retrogolib/log"

	"github.com/richardwooding/dmgcore/internal/isa"
	"github.com/richardwooding/dmgcore/internal/register"
)

// Bus is the address space seen by the CPU. High RAM and the interrupt
// enable register are handled by the CPU itself and never reach the bus.
type Bus interface {
	Read(addr uint16) (uint8, error)
	Write(addr uint16, value uint8) error
}

// State is the execution state of the CPU.
type State uint8

// CPU states.
const (
	Running State = iota
	Halted
	Stopped
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Halted:
		return "halted"
	case Stopped:
		return "stopped"
	default:
		return fmt.Sprintf("State(%d)", uint8(s))
	}
}

// Reset values.
const (
	ResetPC uint16 = 0x0000
	ResetSP uint16 = 0xFFFE
)

const (
	hramStart uint16 = 0xFF80
	ieAddr    uint16 = 0xFFFF
)

// TraceFunc is called after every executed instruction with the address it
// was fetched from and the register file after execution.
type TraceFunc func(pc uint16, inst isa.Instruction, regs *register.Registers)

// Option configures a CPU.
type Option func(*CPU)

// WithLogger sets the logger used for debug output.
func WithLogger(logger *log.Logger) Option {
	return func(c *CPU) {
		c.logger = logger
	}
}

// WithTracer installs a per-instruction trace hook.
func WithTracer(fn TraceFunc) Option {
	return func(c *CPU) {
		c.tracer = fn
	}
}

// CPU represents the Sharp SM83 CPU.
type CPU struct {
	Registers *register.Registers
	bus       Bus

	// Interrupt master enable flag
	IME bool

	state State

	hram [0x7F]uint8 // FF80-FFFE
	ie   uint8       // FFFF

	// Cycle counter
	cycles uint64

	logger *log.Logger
	tracer TraceFunc
}

// New creates a CPU attached to a bus, in its reset state.
func New(bus Bus, opts ...Option) *CPU {
	c := &CPU{
		Registers: register.New(),
		bus:       bus,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.Reset()
	return c
}

// Reset zeroes the registers and places PC and SP at their reset values.
// High RAM is left untouched.
func (c *CPU) Reset() {
	c.Registers.Reset()
	c.Registers.PC = ResetPC
	c.Registers.SP = ResetSP
	c.IME = false
	c.ie = 0
	c.state = Running
	c.cycles = 0
}

// State returns the current execution state.
func (c *CPU) State() State {
	return c.state
}

// Cycles returns the number of clock cycles consumed since reset.
func (c *CPU) Cycles() uint64 {
	return c.cycles
}

// Run executes instructions until the CPU halts or stops, or an instruction
// fails. The failing instruction is reported as an *ExecError.
func (c *CPU) Run() error {
	for c.state == Running {
		if err := c.Step(); err != nil {
			return err
		}
	}
	if c.logger != nil {
		c.logger.Debug("CPU stopped",
			log.Stringer("state", c.state),
			log.Hex("pc", c.Registers.PC),
			log.String("cycles", fmt.Sprintf("%d", c.cycles)))
	}
	return nil
}

// Step fetches, decodes and executes a single instruction. A halted or
// stopped CPU does nothing.
func (c *CPU) Step() error {
	if c.state != Running {
		return nil
	}

	pc := c.Registers.PC
	opcode, err := c.fetchByte()
	if err != nil {
		return &ExecError{PC: pc, Err: err, fetch: true}
	}

	var inst isa.Instruction
	if opcode == 0xCB {
		low, err := c.fetchByte()
		if err != nil {
			return &ExecError{PC: pc, Opcode: 0xCB00, Err: err, fetch: true}
		}
		inst = isa.DecodeExtended(0xCB00 | uint16(low))
	} else {
		inst = isa.Decode(opcode)
	}

	if err := c.execute(inst); err != nil {
		execErr := &ExecError{PC: pc, Opcode: inst.Opcode, Instruction: inst, Err: err}
		if c.logger != nil {
			c.logger.Error("Instruction failed",
				log.Hex("pc", pc),
				log.Stringer("instruction", inst),
				log.Err(err))
		}
		return execErr
	}

	if c.tracer != nil {
		c.tracer(pc, inst, c.Registers)
	}
	return nil
}

// tick accounts for one machine cycle of internal work.
func (c *CPU) tick() {
	c.cycles += 4
}

// read reads a byte, serving high RAM and IE locally. Every bus access costs
// one machine cycle.
func (c *CPU) read(addr uint16) (uint8, error) {
	c.tick()
	switch {
	case addr == ieAddr:
		return c.ie, nil
	case addr >= hramStart:
		return c.hram[addr-hramStart], nil
	default:
		return c.bus.Read(addr)
	}
}

// write writes a byte, serving high RAM and IE locally.
func (c *CPU) write(addr uint16, value uint8) error {
	c.tick()
	switch {
	case addr == ieAddr:
		c.ie = value
		return nil
	case addr >= hramStart:
		c.hram[addr-hramStart] = value
		return nil
	default:
		return c.bus.Write(addr, value)
	}
}

// fetchByte fetches the next byte from memory and increments PC.
func (c *CPU) fetchByte() (uint8, error) {
	value, err := c.read(c.Registers.PC)
	if err != nil {
		return 0, err
	}
	c.Registers.PC++
	return value, nil
}

// fetchWord fetches the next little-endian word and advances PC by two.
func (c *CPU) fetchWord() (uint16, error) {
	low, err := c.fetchByte()
	if err != nil {
		return 0, err
	}
	high, err := c.fetchByte()
	if err != nil {
		return 0, err
	}
	return uint16(high)<<8 | uint16(low), nil
}

// push pushes a 16-bit value onto the stack, high byte first.
func (c *CPU) push(value uint16) error {
	c.Registers.SP--
	if err := c.write(c.Registers.SP, uint8(value>>8)); err != nil { //nolint:gosec // G115: Intentional byte extraction from 16-bit value
		return err
	}
	c.Registers.SP--
	return c.write(c.Registers.SP, uint8(value)) //nolint:gosec // G115: Intentional byte extraction from 16-bit value
}

// pop pops a 16-bit value from the stack, low byte first.
func (c *CPU) pop() (uint16, error) {
	low, err := c.read(c.Registers.SP)
	if err != nil {
		return 0, err
	}
	c.Registers.SP++
	high, err := c.read(c.Registers.SP)
	if err != nil {
		return 0, err
	}
	c.Registers.SP++
	return uint16(high)<<8 | uint16(low), nil
}

// JumpAllowed evaluates a branch condition against the current flags.
func (c *CPU) JumpAllowed(cond isa.Operand) (bool, error) {
	if cond.Kind != isa.KindCondition {
		return false, fmt.Errorf("%w: %q is not a branch condition", ErrInvalidOperand, cond.String())
	}
	switch cond.Cond {
	case isa.CondNZ:
		return !c.Registers.Flag(register.Zero), nil
	case isa.CondZ:
		return c.Registers.Flag(register.Zero), nil
	case isa.CondNC:
		return !c.Registers.Flag(register.Carry), nil
	case isa.CondC:
		return c.Registers.Flag(register.Carry), nil
	default:
		return false, fmt.Errorf("%w: unknown condition %d", ErrInvalidOperand, cond.Cond)
	}
}

// ReadHighRAM returns a byte of high RAM or IE without consuming cycles.
func (c *CPU) ReadHighRAM(addr uint16) (uint8, bool) {
	switch {
	case addr == ieAddr:
		return c.ie, true
	case addr >= hramStart:
		return c.hram[addr-hramStart], true
	default:
		return 0, false
	}
}

// Peek reads a byte as the CPU would see it without consuming cycles.
func (c *CPU) Peek(addr uint16) (uint8, error) {
	if value, ok := c.ReadHighRAM(addr); ok {
		return value, nil
	}
	return c.bus.Read(addr)
}

// Poke writes a byte as the CPU would without consuming cycles.
func (c *CPU) Poke(addr uint16, value uint8) error {
	switch {
	case addr == ieAddr:
		c.ie = value
		return nil
	case addr >= hramStart:
		c.hram[addr-hramStart] = value
		return nil
	default:
		return c.bus.Write(addr, value)
	}
}
