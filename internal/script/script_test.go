package script

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/retroenv/retrogolib/assert"
	"github.com/retroenv/retrogolib/log"

	"github.com/richardwooding/dmgcore/internal/cartridge"
	"github.com/richardwooding/dmgcore/internal/emulator"
)

// program prints "HI" over the serial port and halts.
var program = []byte{
	0x3E, 'H', // 0100 LD A,'H'
	0xE0, 0x01, // 0102 LDH (SB),A
	0x3E, 0x81, // 0104 LD A,$81
	0xE0, 0x02, // 0106 LDH (SC),A
	0x3E, 'I', // 0108 LD A,'I'
	0xE0, 0x01, // 010A LDH (SB),A
	0x3E, 0x81, // 010C LD A,$81
	0xE0, 0x02, // 010E LDH (SC),A
	0x76, // 0110 HALT
}

func newEngine(t *testing.T) (*Engine, *bytes.Buffer) {
	t.Helper()
	rom := make([]byte, 0x8000)
	copy(rom[0x0100:], program)
	rom[0x014D] = cartridge.HeaderChecksum(rom)

	emu, err := emulator.New(rom, emulator.Options{SkipBoot: true})
	assert.NoError(t, err)

	var out bytes.Buffer
	e := New(emu, &out, log.NewTestLogger(t))
	t.Cleanup(e.Close)
	return e, &out
}

func TestPrintAndRegisters(t *testing.T) {
	e, out := newEngine(t)

	err := e.DoString(context.Background(), `
		print(gb.reg("pc"), gb.reg("A"), gb.flag("z"), gb.state())
		gb.setreg("hl", 0xC000)
		gb.setreg("b", 0x1FF)
		print(gb.reg("H"), gb.reg("b"))
	`)
	assert.NoError(t, err)
	assert.Equal(t, "256\t1\ttrue\trunning\n192\t255\n", out.String())
}

func TestStepAndRun(t *testing.T) {
	e, out := newEngine(t)

	err := e.DoString(context.Background(), `
		assert(gb.step() == 1)
		assert(gb.step(3) == 3)
		print(gb.instructions(), gb.cycles(), gb.serial())
		print(gb.run())
		print(gb.serial(), gb.step(5))
	`)
	assert.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	assert.Equal(t, []string{"4\t40\tH", "halted", "HI\t0"}, lines)
}

func TestRunWithLimit(t *testing.T) {
	e, out := newEngine(t)

	assert.NoError(t, e.DoString(context.Background(), `print(gb.run(2), gb.reg("pc"))`))
	assert.Equal(t, "running\t260\n", out.String())
}

func TestMemoryAccess(t *testing.T) {
	e, out := newEngine(t)

	err := e.DoString(context.Background(), `
		gb.write(0xC000, 0x42)
		gb.write(0xFF80, 0x99)
		print(gb.read(0xC000), gb.read(0xFF80), gb.read(0x0100))
	`)
	assert.NoError(t, err)
	assert.Equal(t, "66\t153\t62\n", out.String())

	err = e.DoString(context.Background(), `gb.write(0x2000, 1)`)
	assert.ErrorContains(t, err, "illegal write")

	err = e.DoString(context.Background(), `gb.read(0x10000)`)
	assert.ErrorContains(t, err, "address out of range")

	err = e.DoString(context.Background(), `gb.write(0xC000, 256)`)
	assert.ErrorContains(t, err, "byte out of range")
}

func TestJoypad(t *testing.T) {
	e, out := newEngine(t)

	err := e.DoString(context.Background(), `
		gb.write(0xFF00, 0x10)
		gb.press("start")
		print(gb.read(0xFF00))
		gb.release("Start")
		print(gb.read(0xFF00))
	`)
	assert.NoError(t, err)
	assert.Equal(t, "215\n223\n", out.String())

	err = e.DoString(context.Background(), `gb.press("turbo")`)
	assert.ErrorContains(t, err, "unknown button")
}

func TestDisasmAndCommand(t *testing.T) {
	e, out := newEngine(t)

	err := e.DoString(context.Background(), `
		local line, size = gb.disasm()
		print(line, size)
		print(gb.disasm(0x0110))
		print(gb.cmd("b 0108"))
	`)
	assert.NoError(t, err)
	got := out.String()
	assert.Contains(t, got, "0100  3E 48     LD A,$48\t2")
	assert.Contains(t, got, "0110  76        HALT\t1")
	assert.Contains(t, got, "Breakpoint set at $0108")
}

func TestUnknownNames(t *testing.T) {
	e, _ := newEngine(t)

	assert.ErrorContains(t, e.DoString(context.Background(), `gb.reg("ix")`), "unknown register")
	assert.ErrorContains(t, e.DoString(context.Background(), `gb.flag("q")`), "unknown flag")
}

func TestDigestDeterministic(t *testing.T) {
	first, out1 := newEngine(t)
	second, out2 := newEngine(t)

	script := `gb.run() print(gb.digest())`
	assert.NoError(t, first.DoString(context.Background(), script))
	assert.NoError(t, second.DoString(context.Background(), script))
	assert.Equal(t, out1.String(), out2.String())
	assert.Equal(t, 16, len(strings.TrimSpace(out1.String())))
}

func TestResetFromScript(t *testing.T) {
	e, out := newEngine(t)

	assert.NoError(t, e.DoString(context.Background(), `gb.run() gb.reset() print(gb.state(), gb.reg("pc"), gb.serial() == "")`))
	assert.Equal(t, "running\t256\ttrue\n", out.String())
}

func TestCancelledContext(t *testing.T) {
	e, _ := newEngine(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Error(t, e.DoString(ctx, `while true do end`))
}

func TestDoFile(t *testing.T) {
	e, out := newEngine(t)
	path := filepath.Join(t.TempDir(), "probe.lua")
	assert.NoError(t, os.WriteFile(path, []byte(`print("pc", gb.reg("PC"))`), 0o600))

	assert.NoError(t, e.DoFile(context.Background(), path))
	assert.Equal(t, "pc\t256\n", out.String())

	assert.Error(t, e.DoFile(context.Background(), filepath.Join(t.TempDir(), "missing.lua")))
}
