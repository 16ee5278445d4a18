package debugger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/retroenv/retrogolib/log"

	"github.com/richardwooding/dmgcore/internal/cpu"
	"github.com/richardwooding/dmgcore/internal/emulator"
	"github.com/richardwooding/dmgcore/internal/ioreg"
	"github.com/richardwooding/dmgcore/internal/isa"
	"github.com/richardwooding/dmgcore/internal/register"
)

// DefaultRunLimit bounds a single go command.
const DefaultRunLimit = 10_000_000

// Monitor drives an emulator from text commands and writes the results to
// an output stream.
type Monitor struct {
	emu    *emulator.Emulator
	out    io.Writer
	logger *log.Logger

	breakpoints map[uint16]struct{}
	prevRegs    register.Registers
	history     []string

	// RunLimit caps the instructions executed by one go or until command.
	RunLimit uint64
}

// New creates a monitor around an emulator.
func New(emu *emulator.Emulator, out io.Writer, logger *log.Logger) *Monitor {
	m := &Monitor{
		emu:         emu,
		out:         out,
		logger:      logger,
		breakpoints: make(map[uint16]struct{}),
		RunLimit:    DefaultRunLimit,
	}
	m.saveCurrentRegs()
	return m
}

// History returns the commands entered so far, oldest first.
func (m *Monitor) History() []string {
	return m.history
}

// ExecuteCommand dispatches a command line to its handler.
// Returns true if the monitor should exit.
func (m *Monitor) ExecuteCommand(ctx context.Context, input string) bool {
	cmd := ParseCommand(input)
	if cmd.Name == "" {
		return false
	}

	if len(m.history) == 0 || m.history[len(m.history)-1] != input {
		m.history = append(m.history, input)
	}

	switch cmd.Name {
	case "r":
		m.cmdRegisters(cmd)
	case "d":
		m.cmdDisassemble(cmd)
	case "m":
		m.cmdMemoryDump(cmd)
	case "w":
		m.cmdWrite(cmd)
	case "s":
		m.cmdStep(cmd)
	case "g":
		m.cmdGo(ctx, cmd)
	case "u":
		m.cmdRunUntil(ctx, cmd)
	case "b":
		m.cmdBreakpointSet(cmd)
	case "bc":
		m.cmdBreakpointClear(cmd)
	case "bl":
		m.cmdBreakpointList()
	case "io":
		m.cmdIOView()
	case "banks":
		m.cmdBanks()
	case "serial":
		m.printf("%q", m.emu.SerialOutput())
	case "reset":
		m.emu.Reset()
		m.saveCurrentRegs()
		m.printf("Reset")
	case "x", "q", "quit":
		return true
	case "?", "help":
		m.cmdHelp()
	default:
		m.printf("Unknown command: %s", cmd.Name)
	}
	return false
}

func (m *Monitor) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(m.out, format+"\n", args...)
}

func (m *Monitor) regs() *register.Registers {
	return m.emu.CPU.Registers
}

func (m *Monitor) saveCurrentRegs() {
	m.prevRegs = *m.regs()
}

func (m *Monitor) cmdRegisters(cmd Command) {
	if len(cmd.Args) >= 2 {
		name := cmd.Args[0]
		val, ok := ParseAddress(cmd.Args[1])
		if !ok {
			m.printf("Invalid value: %s", cmd.Args[1])
			return
		}
		if !m.setRegister(name, val) {
			m.printf("Unknown register: %s", name)
			return
		}
		m.printf("%s = $%X", strings.ToUpper(name), val)
		return
	}

	m.printf("%s", m.regs())
	m.printf("IME:%t state:%s cycles:%d", m.emu.CPU.IME, m.emu.CPU.State(), m.emu.CPU.Cycles())
}

func (m *Monitor) setRegister(name string, val uint16) bool {
	if r, ok := register.ParseReg8(name); ok {
		m.regs().Write8(r, uint8(val)) //nolint:gosec // G115: 8-bit register takes the low byte
		return true
	}
	if r, ok := register.ParseReg16(name); ok {
		m.regs().Write16(r, val)
		return true
	}
	return false
}

func (m *Monitor) cmdDisassemble(cmd Command) {
	addr := m.regs().PC
	count := 16

	if len(cmd.Args) >= 1 {
		if v, ok := EvalAddress(cmd.Args[0], m.regs()); ok {
			addr = v
		}
	}
	if len(cmd.Args) >= 2 {
		if v, ok := ParseAddress(cmd.Args[1]); ok {
			count = int(v)
		}
	}

	m.showDisassembly(addr, count)
}

func (m *Monitor) showDisassembly(addr uint16, count int) {
	for range count {
		line, size, err := Disassemble(m.emu.CPU.Peek, addr)
		if err != nil {
			m.printf("%04X  Error: %v", addr, err)
			return
		}
		marker := " "
		if _, ok := m.breakpoints[addr]; ok {
			marker = "*"
		}
		m.printf("%s%s", marker, line)
		addr += uint16(size) //nolint:gosec // G115: instructions are at most 3 bytes
	}
}

func (m *Monitor) cmdMemoryDump(cmd Command) {
	addr := m.regs().PC
	lines := 8

	if len(cmd.Args) >= 1 {
		if v, ok := EvalAddress(cmd.Args[0], m.regs()); ok {
			addr = v
		}
	}
	if len(cmd.Args) >= 2 {
		if v, ok := ParseAddress(cmd.Args[1]); ok {
			lines = int(v)
		}
	}

	for range lines {
		hexParts := make([]string, 16)
		ascii := make([]byte, 16)
		for j := range 16 {
			b, err := m.emu.CPU.Peek(addr + uint16(j)) //nolint:gosec // G115: j < 16
			if err != nil {
				hexParts[j] = "??"
				ascii[j] = ' '
				continue
			}
			hexParts[j] = fmt.Sprintf("%02X", b)
			if b >= 0x20 && b < 0x7F {
				ascii[j] = b
			} else {
				ascii[j] = '.'
			}
		}
		m.printf("%04X: %s  %s  %s", addr,
			strings.Join(hexParts[:8], " "), strings.Join(hexParts[8:], " "), string(ascii))
		addr += 16
	}
}

func (m *Monitor) cmdWrite(cmd Command) {
	if len(cmd.Args) < 2 {
		m.printf("Usage: w <addr> <bytes..>")
		return
	}

	addr, ok := EvalAddress(cmd.Args[0], m.regs())
	if !ok {
		m.printf("Invalid address: %s", cmd.Args[0])
		return
	}

	data := make([]byte, 0, len(cmd.Args)-1)
	for _, arg := range cmd.Args[1:] {
		v, ok := ParseAddress(arg)
		if !ok || v > 0xFF {
			m.printf("Invalid byte: %s", arg)
			return
		}
		data = append(data, byte(v))
	}

	for i, b := range data {
		if err := m.emu.CPU.Poke(addr+uint16(i), b); err != nil { //nolint:gosec // G115: bounded by argument count
			m.printf("Error: %v", err)
			return
		}
	}
	m.printf("Wrote %d byte(s) at $%04X", len(data), addr)
}

func (m *Monitor) cmdStep(cmd Command) {
	count := 1
	if len(cmd.Args) >= 1 {
		if v, ok := ParseAddress(cmd.Args[0]); ok {
			count = int(v)
		}
	}

	startCycles := m.emu.CPU.Cycles()
	executed := 0
	for range count {
		if m.emu.CPU.State() != cpu.Running {
			break
		}
		if err := m.emu.Step(); err != nil {
			m.printf("Error: %v", err)
			break
		}
		executed++
	}

	m.printf("Step: %d instruction(s), %d cycle(s)", executed, m.emu.CPU.Cycles()-startCycles)
	m.showChangedRegisters()
	m.showDisassembly(m.regs().PC, 1)
}

func (m *Monitor) showChangedRegisters() {
	for _, r := range []register.Reg16{register.AF, register.BC, register.DE, register.HL, register.SP} {
		prev, cur := m.prevRegs.Read16(r), m.regs().Read16(r)
		if prev != cur {
			m.printf("  %s: $%04X -> $%04X", r, prev, cur)
		}
	}
	m.saveCurrentRegs()
}

func (m *Monitor) cmdGo(ctx context.Context, cmd Command) {
	if len(cmd.Args) >= 1 {
		if v, ok := EvalAddress(cmd.Args[0], m.regs()); ok {
			m.regs().PC = v
		}
	}
	m.runUntil(ctx, func(pc uint16) bool {
		_, hit := m.breakpoints[pc]
		return hit
	})
}

func (m *Monitor) cmdRunUntil(ctx context.Context, cmd Command) {
	if len(cmd.Args) < 1 {
		m.printf("Usage: u <addr>")
		return
	}
	target, ok := EvalAddress(cmd.Args[0], m.regs())
	if !ok {
		m.printf("Invalid address: %s", cmd.Args[0])
		return
	}
	m.runUntil(ctx, func(pc uint16) bool {
		_, hit := m.breakpoints[pc]
		return hit || pc == target
	})
}

var errStopped = errors.New("stop condition reached")

// runUntil executes instructions until stop reports true for the next PC.
// The instruction at the starting PC always runs so go can leave a breakpoint.
func (m *Monitor) runUntil(ctx context.Context, stop func(pc uint16) bool) {
	startCycles := m.emu.CPU.Cycles()
	var executed uint64
	err := func() error {
		for m.emu.CPU.State() == cpu.Running {
			if executed%1024 == 0 {
				if err := ctx.Err(); err != nil {
					return err
				}
			}
			if executed >= m.RunLimit {
				return fmt.Errorf("%w: %d instructions", emulator.ErrInstructionLimit, m.RunLimit)
			}
			if err := m.emu.Step(); err != nil {
				return err
			}
			executed++
			if stop(m.regs().PC) {
				return errStopped
			}
		}
		return nil
	}()

	switch {
	case errors.Is(err, errStopped):
		m.printf("Break at $%04X", m.regs().PC)
	case err != nil:
		m.printf("Error: %v", err)
	default:
		m.printf("CPU %s at $%04X", m.emu.CPU.State(), m.regs().PC)
	}
	if m.logger != nil {
		m.logger.Debug("Monitor run finished",
			log.Hex("pc", m.regs().PC),
			log.String("instructions", fmt.Sprintf("%d", executed)),
			log.String("cycles", fmt.Sprintf("%d", m.emu.CPU.Cycles()-startCycles)))
	}
	m.showChangedRegisters()
	m.showDisassembly(m.regs().PC, 1)
}

func (m *Monitor) cmdBreakpointSet(cmd Command) {
	if len(cmd.Args) < 1 {
		m.printf("Usage: b <addr>")
		return
	}
	addr, ok := EvalAddress(cmd.Args[0], m.regs())
	if !ok {
		m.printf("Invalid address: %s", cmd.Args[0])
		return
	}
	m.breakpoints[addr] = struct{}{}
	m.printf("Breakpoint set at $%04X", addr)
}

func (m *Monitor) cmdBreakpointClear(cmd Command) {
	if len(cmd.Args) < 1 {
		m.printf("Usage: bc <addr|*>")
		return
	}
	if cmd.Args[0] == "*" {
		clear(m.breakpoints)
		m.printf("All breakpoints cleared")
		return
	}
	addr, ok := EvalAddress(cmd.Args[0], m.regs())
	if !ok {
		m.printf("Invalid address: %s", cmd.Args[0])
		return
	}
	if _, exists := m.breakpoints[addr]; !exists {
		m.printf("No breakpoint at $%04X", addr)
		return
	}
	delete(m.breakpoints, addr)
	m.printf("Breakpoint cleared at $%04X", addr)
}

func (m *Monitor) cmdBreakpointList() {
	if len(m.breakpoints) == 0 {
		m.printf("No breakpoints")
		return
	}
	addrs := make([]uint16, 0, len(m.breakpoints))
	for addr := range m.breakpoints {
		addrs = append(addrs, addr)
	}
	slices.Sort(addrs)
	for _, addr := range addrs {
		m.printf("  $%04X", addr)
	}
}

func (m *Monitor) cmdIOView() {
	for _, reg := range ioreg.Named() {
		value, err := m.emu.Memory.Read(uint16(reg))
		if err != nil {
			continue
		}
		m.printf("  %-5s $%04X = $%02X", reg, uint16(reg), value)
	}
	ie, _ := m.emu.CPU.ReadHighRAM(0xFFFF)
	m.printf("  %-5s $FFFF = $%02X", "IE", ie)
}

func (m *Monitor) cmdBanks() {
	banks := m.emu.Cart.Banks()
	header := m.emu.Cart.Header()
	m.printf("%s (%s)", header.Title, header.CartridgeType)
	m.printf("  ROM bank %d, RAM bank %d, RAM enabled %t, mode %s",
		banks.ROMBank, banks.RAMBank, banks.RAMEnabled, banks.Mode)
	if r, ok := m.emu.Cart.(interface{ Rumble() bool }); ok && header.CartridgeType.HasRumble() {
		m.printf("  Rumble motor %s", onOff(r.Rumble()))
	}
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func (m *Monitor) cmdHelp() {
	for _, line := range []string{
		"Monitor commands:",
		"  r                  Show registers",
		"  r <name> <value>   Set register",
		"  d [addr] [count]   Disassemble",
		"  m [addr] [lines]   Memory dump (hex+ASCII)",
		"  w <addr> <bytes..> Write bytes",
		"  s [count]          Single-step",
		"  g [addr]           Run until breakpoint or halt",
		"  u <addr>           Run until address",
		"  b <addr>           Set breakpoint",
		"  bc <addr|*>        Clear breakpoint(s)",
		"  bl                 List breakpoints",
		"  io                 I/O register viewer",
		"  banks              Cartridge bank state",
		"  serial             Serial output so far",
		"  reset              Reset the machine",
		"  x                  Exit",
		"Addresses: $hex, 0xhex, #decimal, bare hex or a register pair name.",
	} {
		m.printf("%s", line)
	}
}

// Disassemble renders the instruction at addr as
// "ADDR  BYTES  MNEMONIC" and returns its size.
func Disassemble(read func(uint16) (uint8, error), addr uint16) (string, int, error) {
	inst, encoding, err := isa.Fetch(read, addr)
	if err != nil {
		return "", 0, err
	}
	hexBytes := make([]string, len(encoding))
	for i, b := range encoding {
		hexBytes[i] = fmt.Sprintf("%02X", b)
	}
	line := fmt.Sprintf("%04X  %-8s  %s", addr, strings.Join(hexBytes, " "), inst.Disassemble(inst.Operands(encoding)))
	return line, len(encoding), nil
}
