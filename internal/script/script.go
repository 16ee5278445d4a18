// Package script drives an emulator from Lua. Scripts see a global table gb
// with functions to step the CPU, inspect and change registers and memory,
// press joypad buttons and issue monitor commands.
package script

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/retroenv/retrogolib/log"
	lua "github.com/yuin/gopher-lua"

	"github.com/richardwooding/dmgcore/internal/cpu"
	"github.com/richardwooding/dmgcore/internal/debugger"
	"github.com/richardwooding/dmgcore/internal/emulator"
	"github.com/richardwooding/dmgcore/internal/ioreg"
	"github.com/richardwooding/dmgcore/internal/register"
)

// Engine is a Lua state bound to one emulator.
type Engine struct {
	L       *lua.LState
	emu     *emulator.Emulator
	out     io.Writer
	logger  *log.Logger
	monitor *debugger.Monitor
	monOut  bytes.Buffer

	ctx context.Context
}

// New creates a Lua state with the gb table installed. Output from print
// and gb.cmd goes to out.
func New(emu *emulator.Emulator, out io.Writer, logger *log.Logger) *Engine {
	e := &Engine{
		L:      lua.NewState(),
		emu:    emu,
		out:    out,
		logger: logger,
		ctx:    context.Background(),
	}
	e.monitor = debugger.New(emu, &e.monOut, logger)

	gb := e.L.NewTable()
	e.L.SetFuncs(gb, map[string]lua.LGFunction{
		"step":         e.step,
		"run":          e.run,
		"reset":        e.reset,
		"state":        e.state,
		"cycles":       e.cycles,
		"instructions": e.instructions,
		"reg":          e.reg,
		"setreg":       e.setReg,
		"flag":         e.flag,
		"read":         e.read,
		"write":        e.write,
		"serial":       e.serial,
		"press":        e.press,
		"release":      e.release,
		"disasm":       e.disasm,
		"cmd":          e.cmd,
		"digest":       e.digest,
	})
	e.L.SetGlobal("gb", gb)
	e.L.SetGlobal("print", e.L.NewFunction(e.print))
	return e
}

// Close releases the Lua state.
func (e *Engine) Close() {
	e.L.Close()
}

// DoString runs a chunk of Lua source.
func (e *Engine) DoString(ctx context.Context, source string) error {
	return e.do(ctx, "chunk", func() error { return e.L.DoString(source) })
}

// DoFile runs a Lua source file.
func (e *Engine) DoFile(ctx context.Context, path string) error {
	return e.do(ctx, path, func() error { return e.L.DoFile(path) })
}

func (e *Engine) do(ctx context.Context, name string, fn func() error) error {
	e.ctx = ctx
	e.L.SetContext(ctx)
	defer func() {
		e.L.RemoveContext()
		e.ctx = context.Background()
	}()

	if err := fn(); err != nil {
		return fmt.Errorf("running script %s: %w", name, err)
	}
	if e.logger != nil {
		e.logger.Debug("Script finished",
			log.String("script", name),
			log.Hex("pc", e.emu.CPU.Registers.PC),
			log.String("instructions", fmt.Sprintf("%d", e.emu.Instructions())))
	}
	return nil
}

// print writes its arguments separated by tabs, like the stock Lua print.
func (e *Engine) print(L *lua.LState) int {
	top := L.GetTop()
	parts := make([]string, 0, top)
	for i := 1; i <= top; i++ {
		parts = append(parts, L.ToStringMeta(L.Get(i)).String())
	}
	_, _ = fmt.Fprintln(e.out, strings.Join(parts, "\t"))
	return 0
}

// step executes up to n instructions (default 1) and returns how many ran.
func (e *Engine) step(L *lua.LState) int {
	n := L.OptInt(1, 1)
	executed := 0
	for executed < n && e.emu.CPU.State() == cpu.Running {
		if err := e.emu.Step(); err != nil {
			L.RaiseError("%v", err)
			return 0
		}
		executed++
	}
	L.Push(lua.LNumber(executed))
	return 1
}

// run executes until the CPU halts or stops, or max instructions have run
// when max is given. It returns the CPU state name.
func (e *Engine) run(L *lua.LState) int {
	limit := L.OptInt(1, 0)
	if limit <= 0 {
		if err := e.emu.Run(e.ctx); err != nil {
			L.RaiseError("%v", err)
			return 0
		}
	} else {
		for i := 0; i < limit && e.emu.CPU.State() == cpu.Running; i++ {
			if err := e.emu.Step(); err != nil {
				L.RaiseError("%v", err)
				return 0
			}
		}
	}
	L.Push(lua.LString(e.emu.CPU.State().String()))
	return 1
}

func (e *Engine) reset(_ *lua.LState) int {
	e.emu.Reset()
	return 0
}

func (e *Engine) state(L *lua.LState) int {
	L.Push(lua.LString(e.emu.CPU.State().String()))
	return 1
}

func (e *Engine) cycles(L *lua.LState) int {
	L.Push(lua.LNumber(e.emu.CPU.Cycles()))
	return 1
}

func (e *Engine) instructions(L *lua.LState) int {
	L.Push(lua.LNumber(e.emu.Instructions()))
	return 1
}

// reg returns an 8-bit register, register pair, SP or PC by name.
func (e *Engine) reg(L *lua.LState) int {
	name := L.CheckString(1)
	regs := e.emu.CPU.Registers
	if r, ok := register.ParseReg8(name); ok {
		L.Push(lua.LNumber(regs.Read8(r)))
		return 1
	}
	if r, ok := register.ParseReg16(name); ok {
		L.Push(lua.LNumber(regs.Read16(r)))
		return 1
	}
	L.ArgError(1, "unknown register "+name)
	return 0
}

func (e *Engine) setReg(L *lua.LState) int {
	name := L.CheckString(1)
	value := L.CheckInt(2)
	regs := e.emu.CPU.Registers
	if r, ok := register.ParseReg8(name); ok {
		regs.Write8(r, uint8(value)) //nolint:gosec // G115: register takes the low byte
		return 0
	}
	if r, ok := register.ParseReg16(name); ok {
		regs.Write16(r, uint16(value)) //nolint:gosec // G115: register takes the low word
		return 0
	}
	L.ArgError(1, "unknown register "+name)
	return 0
}

var flagNames = map[string]register.Flag{
	"z": register.Zero, "n": register.Subtract, "h": register.HalfCarry, "c": register.Carry,
}

func (e *Engine) flag(L *lua.LState) int {
	name := L.CheckString(1)
	flag, ok := flagNames[strings.ToLower(name)]
	if !ok {
		L.ArgError(1, "unknown flag "+name)
		return 0
	}
	L.Push(lua.LBool(e.emu.CPU.Registers.Flag(flag)))
	return 1
}

func checkAddress(L *lua.LState, n int) uint16 {
	addr := L.CheckInt(n)
	if addr < 0 || addr > 0xFFFF {
		L.ArgError(n, "address out of range")
	}
	return uint16(addr) //nolint:gosec // G115: range checked above
}

// read reads memory as the CPU sees it, without consuming cycles.
func (e *Engine) read(L *lua.LState) int {
	addr := checkAddress(L, 1)
	value, err := e.emu.CPU.Peek(addr)
	if err != nil {
		L.RaiseError("%v", err)
		return 0
	}
	L.Push(lua.LNumber(value))
	return 1
}

func (e *Engine) write(L *lua.LState) int {
	addr := checkAddress(L, 1)
	value := L.CheckInt(2)
	if value < 0 || value > 0xFF {
		L.ArgError(2, "byte out of range")
		return 0
	}
	if err := e.emu.CPU.Poke(addr, uint8(value)); err != nil {
		L.RaiseError("%v", err)
	}
	return 0
}

func (e *Engine) serial(L *lua.LState) int {
	L.Push(lua.LString(e.emu.SerialOutput()))
	return 1
}

func checkButton(L *lua.LState) ioreg.Button {
	name := L.CheckString(1)
	b, ok := ioreg.ParseButton(name)
	if !ok {
		L.ArgError(1, "unknown button "+name)
	}
	return b
}

func (e *Engine) press(L *lua.LState) int {
	e.emu.IO.Joypad.Press(checkButton(L))
	return 0
}

func (e *Engine) release(L *lua.LState) int {
	e.emu.IO.Joypad.Release(checkButton(L))
	return 0
}

// disasm returns the disassembly line at addr (default PC) and its size.
func (e *Engine) disasm(L *lua.LState) int {
	addr := e.emu.CPU.Registers.PC
	if L.GetTop() >= 1 {
		addr = checkAddress(L, 1)
	}
	line, size, err := debugger.Disassemble(e.emu.CPU.Peek, addr)
	if err != nil {
		L.RaiseError("%v", err)
		return 0
	}
	L.Push(lua.LString(line))
	L.Push(lua.LNumber(size))
	return 2
}

// cmd runs a monitor command and returns its output.
func (e *Engine) cmd(L *lua.LState) int {
	e.monOut.Reset()
	e.monitor.ExecuteCommand(e.ctx, L.CheckString(1))
	L.Push(lua.LString(e.monOut.String()))
	return 1
}

// digest returns the trace digest as 16 hex digits.
func (e *Engine) digest(L *lua.LState) int {
	L.Push(lua.LString(fmt.Sprintf("%016x", e.emu.TraceDigest())))
	return 1
}
