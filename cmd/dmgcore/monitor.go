package main

import (
	"context"
	"fmt"
	"image/color"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/retroenv/retrogolib/log"

	"github.com/richardwooding/dmgcore/internal/cpu"
	"github.com/richardwooding/dmgcore/internal/debugger"
	"github.com/richardwooding/dmgcore/internal/emulator"
	"github.com/richardwooding/dmgcore/internal/ioreg"
)

const (
	// cyclesPerFrame is one 59.7 Hz frame of CPU time.
	cyclesPerFrame = 70224

	tileColumns = 16
	tileRows    = 24 // 384 tiles at 0x8000-0x97FF
	tileSheetW  = tileColumns * 8
	tileSheetH  = tileRows * 8

	monitorWidth  = 480
	monitorHeight = 320
	textWidth     = monitorWidth - tileSheetW - 8
)

// DMG palette colors (classic Game Boy green tones).
var dmgPalette = [4]color.RGBA{
	{0xE0, 0xF8, 0xD0, 0xFF}, // White (lightest)
	{0x88, 0xC0, 0x70, 0xFF}, // Light gray
	{0x34, 0x68, 0x56, 0xFF}, // Dark gray
	{0x08, 0x18, 0x20, 0xFF}, // Black (darkest)
}

// keyMap maps keyboard keys to Game Boy buttons.
var keyMap = map[ebiten.Key]ioreg.Button{
	ebiten.KeyArrowUp:    ioreg.ButtonUp,
	ebiten.KeyArrowDown:  ioreg.ButtonDown,
	ebiten.KeyArrowLeft:  ioreg.ButtonLeft,
	ebiten.KeyArrowRight: ioreg.ButtonRight,
	ebiten.KeyZ:          ioreg.ButtonA,
	ebiten.KeyX:          ioreg.ButtonB,
	ebiten.KeyEnter:      ioreg.ButtonStart,
	ebiten.KeyShift:      ioreg.ButtonSelect,
}

// MonitorCmd opens a window showing the machine state while it runs.
type MonitorCmd struct {
	ROM   string `arg:"" type:"existingfile" help:"Path to ROM file."`
	Boot  bool   `help:"Run the boot image instead of starting at 0x0100."`
	Scale int    `help:"Window scale factor (1-4)." default:"2"`
}

// Run executes the monitor command.
func (c *MonitorCmd) Run(ctx context.Context, logger *log.Logger) error {
	if c.Scale < 1 || c.Scale > 4 {
		return fmt.Errorf("%w: got %d", ErrInvalidScale, c.Scale)
	}

	emu, err := loadEmulator(c.ROM, emulator.Options{SkipBoot: !c.Boot, Logger: logger})
	if err != nil {
		return err
	}

	view := newMonitorView(ctx, emu, logger)

	ebiten.SetWindowTitle("dmgcore - " + emu.Cart.Header().Title)
	ebiten.SetWindowSize(monitorWidth*c.Scale, monitorHeight*c.Scale)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetTPS(60)

	if err := ebiten.RunGame(view); err != nil {
		return fmt.Errorf("monitor error: %w", err)
	}
	return nil
}

// monitorView implements the Ebiten game interface. Each tick runs one
// frame worth of cycles unless paused; Space pauses, N single-steps and
// Escape closes the window.
type monitorView struct {
	ctx    context.Context
	emu    *emulator.Emulator
	logger *log.Logger

	tiles  *ebiten.Image
	pixels []byte // Pre-allocated pixel buffer to avoid GC pressure

	paused bool
	err    error
}

func newMonitorView(ctx context.Context, emu *emulator.Emulator, logger *log.Logger) *monitorView {
	return &monitorView{
		ctx:    ctx,
		emu:    emu,
		logger: logger,
		tiles:  ebiten.NewImage(tileSheetW, tileSheetH),
		pixels: make([]byte, tileSheetW*tileSheetH*4), // RGBA format
	}
}

// Update runs the machine for one frame and handles input.
func (v *monitorView) Update() error {
	if v.ctx.Err() != nil || inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		v.paused = !v.paused
	}
	v.handleInput()

	if v.err != nil || v.emu.CPU.State() != cpu.Running {
		return nil
	}

	var err error
	switch {
	case !v.paused:
		err = v.emu.RunCycles(cyclesPerFrame)
	case inpututil.IsKeyJustPressed(ebiten.KeyN):
		err = v.emu.Step()
	}
	if err != nil {
		v.err = err
		v.logger.Error("Emulation stopped", log.Hex("pc", v.emu.CPU.Registers.PC), log.Err(err))
	}
	return nil
}

// handleInput processes keyboard input and updates joypad state.
func (v *monitorView) handleInput() {
	joypad := v.emu.IO.Joypad
	for key, button := range keyMap {
		if ebiten.IsKeyPressed(key) {
			joypad.Press(button)
		} else {
			joypad.Release(button)
		}
	}
}

// Draw renders the state text on the left and the VRAM tile sheet on the right.
func (v *monitorView) Draw(screen *ebiten.Image) {
	screen.Fill(dmgPalette[3])
	ebitenutil.DebugPrintAt(screen, v.status(), 4, 4)

	v.drawTiles()
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Translate(float64(monitorWidth-tileSheetW-4), 4)
	screen.DrawImage(v.tiles, op)
}

func (v *monitorView) status() string {
	emu := v.emu
	banks := emu.Cart.Banks()

	var sb strings.Builder
	state := emu.CPU.State().String()
	if v.paused {
		state += " (paused)"
	}
	fmt.Fprintf(&sb, "%s  %s\n", emu.Cart.Header().Title, emu.Cart.Header().CartridgeType)
	fmt.Fprintf(&sb, "state %s  IME %t\n", state, emu.CPU.IME)
	regs := strings.Replace(emu.CPU.Registers.String(), " B:", "\nB:", 1)
	regs = strings.Replace(regs, " SP:", "\nSP:", 1)
	fmt.Fprintf(&sb, "%s\n", regs)
	fmt.Fprintf(&sb, "cycles %d\ninstr  %d\n", emu.CPU.Cycles(), emu.Instructions())
	fmt.Fprintf(&sb, "ROM %d  RAM %d  RAM on %t\n", banks.ROMBank, banks.RAMBank, banks.RAMEnabled)
	ifReg := emu.IO.ReadRegister(uint16(ioreg.IF))
	ie, _ := emu.CPU.ReadHighRAM(0xFFFF)
	fmt.Fprintf(&sb, "IF %02X  IE %02X  DIV %02X  TIMA %02X\n\n", ifReg, ie,
		emu.IO.ReadRegister(uint16(ioreg.DIV)), emu.IO.ReadRegister(uint16(ioreg.TIMA)))

	addr := emu.CPU.Registers.PC
	for range 5 {
		line, size, err := debugger.Disassemble(emu.CPU.Peek, addr)
		if err != nil {
			break
		}
		fmt.Fprintf(&sb, "%s\n", line)
		addr += uint16(size) //nolint:gosec // G115: instructions are at most 3 bytes
	}

	if v.err != nil {
		fmt.Fprintf(&sb, "\n%s", wrap(v.err.Error(), textWidth/6))
	} else if serial := emu.SerialOutput(); serial != "" {
		lines := strings.Split(strings.TrimRight(serial, "\n"), "\n")
		fmt.Fprintf(&sb, "\nserial: %s", lines[len(lines)-1])
	}
	return sb.String()
}

// drawTiles decodes the 2bpp tile data in VRAM into the tile sheet.
func (v *monitorView) drawTiles() {
	for tile := range tileColumns * tileRows {
		base := uint16(0x8000 + tile*16) //nolint:gosec // G115: tile < 384
		tx, ty := tile%tileColumns*8, tile/tileColumns*8
		for row := range 8 {
			lo, _ := v.emu.Memory.Read(base + uint16(row*2))   //nolint:gosec // G115: row < 8
			hi, _ := v.emu.Memory.Read(base + uint16(row*2+1)) //nolint:gosec // G115: row < 8
			for col := range 8 {
				bit := 7 - col
				colorIndex := (hi>>bit&1)<<1 | lo>>bit&1
				c := dmgPalette[colorIndex]
				offset := ((ty+row)*tileSheetW + tx + col) * 4
				v.pixels[offset] = c.R
				v.pixels[offset+1] = c.G
				v.pixels[offset+2] = c.B
				v.pixels[offset+3] = c.A
			}
		}
	}
	v.tiles.WritePixels(v.pixels)
}

// Layout returns the logical screen size.
func (v *monitorView) Layout(_, _ int) (int, int) {
	return monitorWidth, monitorHeight
}

// wrap breaks s into lines of at most width characters.
func wrap(s string, width int) string {
	var sb strings.Builder
	for len(s) > width {
		sb.WriteString(s[:width])
		sb.WriteByte('\n')
		s = s[width:]
	}
	sb.WriteString(s)
	return sb.String()
}
