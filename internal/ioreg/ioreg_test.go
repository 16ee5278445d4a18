package ioreg

import "testing"

func TestDIVIncrement(t *testing.T) {
	timer := NewTimer(nil)

	// DIV increments every 256 CPU cycles
	timer.Tick(255)
	if timer.Read(DIV) != 0 {
		t.Errorf("DIV after 255 cycles = %d, want 0", timer.Read(DIV))
	}

	timer.Tick(1)
	if timer.Read(DIV) != 1 {
		t.Errorf("DIV after 256 cycles = %d, want 1", timer.Read(DIV))
	}

	timer.Tick(256)
	if timer.Read(DIV) != 2 {
		t.Errorf("DIV after 512 cycles = %d, want 2", timer.Read(DIV))
	}
}

func TestTIMAClockSelect(t *testing.T) {
	tests := []struct {
		name   string
		tac    uint8
		period uint16
	}{
		{"4096 Hz", 0x04, 1024},
		{"262144 Hz", 0x05, 16},
		{"65536 Hz", 0x06, 64},
		{"16384 Hz", 0x07, 256},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			timer := NewTimer(nil)
			timer.Write(TAC, tt.tac)

			timer.Tick(tt.period - 1)
			if got := timer.Read(TIMA); got != 0 {
				t.Errorf("TIMA after %d cycles = %d, want 0", tt.period-1, got)
			}
			timer.Tick(1)
			if got := timer.Read(TIMA); got != 1 {
				t.Errorf("TIMA after %d cycles = %d, want 1", tt.period, got)
			}
			timer.Tick(tt.period * 3)
			if got := timer.Read(TIMA); got != 4 {
				t.Errorf("TIMA after %d cycles = %d, want 4", tt.period*4, got)
			}
		})
	}
}

func TestTimerDisabled(t *testing.T) {
	timer := NewTimer(nil)
	timer.Write(TAC, 0x01)
	timer.Tick(1024)
	if got := timer.Read(TIMA); got != 0 {
		t.Errorf("TIMA with timer disabled = %d, want 0", got)
	}
	if got := timer.Read(TAC); got != 0xF9 {
		t.Errorf("TAC = 0x%02X, want 0xF9", got)
	}
}

func TestTIMAOverflow(t *testing.T) {
	overflows := 0
	timer := NewTimer(func() { overflows++ })
	timer.Write(TAC, 0x05)
	timer.Write(TMA, 0x42)
	timer.Write(TIMA, 0xFF)

	timer.Tick(16)

	if got := timer.Read(TIMA); got != 0x42 {
		t.Errorf("TIMA after overflow = 0x%02X, want 0x42", got)
	}
	if overflows != 1 {
		t.Errorf("overflow callbacks = %d, want 1", overflows)
	}
}

func TestDIVResetFallingEdge(t *testing.T) {
	timer := NewTimer(nil)
	timer.Write(TAC, 0x05)
	timer.Tick(8) // bit 3 of the counter is now set

	timer.Write(DIV, 0x99)

	if got := timer.Read(DIV); got != 0 {
		t.Errorf("DIV after write = %d, want 0", got)
	}
	if got := timer.Read(TIMA); got != 1 {
		t.Errorf("TIMA after DIV reset = %d, want 1 (falling edge)", got)
	}
}

func TestCounterWraparound(t *testing.T) {
	timer := NewTimer(nil)
	timer.Write(TAC, 0x05)
	timer.Tick(0xFFF8)
	before := timer.Read(TIMA)

	timer.Tick(16)

	if got := timer.Read(TIMA); got != before+1 {
		t.Errorf("TIMA across wraparound = %d, want %d", got, before+1)
	}
}

func TestJoypadNoButtonsPressed(t *testing.T) {
	j := NewJoypad(nil)
	if got := j.Read(); got != 0xFF {
		t.Errorf("Read() = 0x%02X, want 0xFF", got)
	}

	j.Write(0x00) // both groups selected
	if got := j.Read(); got != 0xCF {
		t.Errorf("Read() with both groups selected = 0x%02X, want 0xCF", got)
	}
}

func TestJoypadGroups(t *testing.T) {
	presses := 0
	j := NewJoypad(func() { presses++ })
	j.Press(ButtonA)
	j.Press(ButtonUp)

	j.Write(0xDF) // P15=0: action buttons
	if got := j.Read(); got != 0xDE {
		t.Errorf("action Read() = 0x%02X, want 0xDE", got)
	}

	j.Write(0xEF) // P14=0: direction buttons
	if got := j.Read(); got != 0xEB {
		t.Errorf("direction Read() = 0x%02X, want 0xEB", got)
	}

	j.Release(ButtonUp)
	if got := j.Read(); got != 0xEF {
		t.Errorf("Read() after release = 0x%02X, want 0xEF", got)
	}
	if presses != 2 {
		t.Errorf("press callbacks = %d, want 2", presses)
	}
}

func TestJoypadOppositeDirections(t *testing.T) {
	j := NewJoypad(nil)
	j.Press(ButtonLeft)
	j.Press(ButtonRight)
	j.Write(0xEF)

	// Left only: bit 1 clear
	if got := j.Read(); got != 0xED {
		t.Errorf("Read() = 0x%02X, want 0xED", got)
	}
}

func TestSerialCapture(t *testing.T) {
	f := New()

	for _, c := range []byte("OK") {
		f.WriteRegister(uint16(SB), c)
		f.WriteRegister(uint16(SC), 0x81)
	}

	if got := f.SerialOutput(); got != "OK" {
		t.Errorf("SerialOutput() = %q, want %q", got, "OK")
	}
	if got := f.ReadRegister(uint16(SC)); got != 0x01 {
		t.Errorf("SC = 0x%02X, want 0x01 (transfer bit cleared)", got)
	}
	if got := f.ReadRegister(uint16(IF)); got&InterruptSerial == 0 {
		t.Errorf("IF = 0x%02X, want serial bit set", got)
	}

	// Writing SC without bit 7 sends nothing
	f.WriteRegister(uint16(SC), 0x01)
	if f.SerialLen() != 2 {
		t.Errorf("SerialLen() = %d, want 2", f.SerialLen())
	}
}

func TestTimerInterruptFlag(t *testing.T) {
	f := New()
	f.WriteRegister(uint16(TAC), 0x05)
	f.WriteRegister(uint16(TIMA), 0xFF)

	f.Tick(16)

	if got := f.ReadRegister(uint16(IF)); got != 0xE0|InterruptTimer {
		t.Errorf("IF = 0x%02X, want 0x%02X", got, 0xE0|InterruptTimer)
	}
}

func TestStoredRegisters(t *testing.T) {
	f := New()
	for _, reg := range []Register{LCDC, BGP, NR52, WaveRAMStart + 3} {
		f.WriteRegister(uint16(reg), 0x5A)
		if got := f.ReadRegister(uint16(reg)); got != 0x5A {
			t.Errorf("%s = 0x%02X, want 0x5A", reg, got)
		}
	}

	f.Reset()
	if got := f.ReadRegister(uint16(LCDC)); got != 0 {
		t.Errorf("LCDC after Reset() = 0x%02X, want 0", got)
	}
	if got := f.ReadRegister(uint16(P1)); got != 0xFF {
		t.Errorf("P1 after Reset() = 0x%02X, want 0xFF", got)
	}
}

func TestRegisterNames(t *testing.T) {
	tests := []struct {
		reg  Register
		want string
	}{
		{SB, "SB"},
		{TAC, "TAC"},
		{NR52, "NR52"},
		{WaveRAMStart + 0x0A, "WAVEA"},
		{LCDC, "LCDC"},
		{Register(0xFF7F), "IO(0xFF7F)"},
	}
	for _, tt := range tests {
		if got := tt.reg.String(); got != tt.want {
			t.Errorf("Register(0x%04X).String() = %q, want %q", uint16(tt.reg), got, tt.want)
		}
	}
}

func TestNamedRegistersSorted(t *testing.T) {
	regs := Named()
	if len(regs) == 0 || regs[0] != P1 {
		t.Fatalf("Named()[0] = %v, want P1", regs)
	}
	for i := 1; i < len(regs); i++ {
		if regs[i] <= regs[i-1] {
			t.Errorf("Named() not sorted at %d: %s after %s", i, regs[i], regs[i-1])
		}
	}
	if regs[len(regs)-1] != BOOT {
		t.Errorf("last named register = %s, want BOOT", regs[len(regs)-1])
	}
}

func TestParseButton(t *testing.T) {
	for _, tt := range []struct {
		name string
		want Button
	}{
		{"a", ButtonA}, {"START", ButtonStart}, {"select", ButtonSelect}, {"Down", ButtonDown},
	} {
		got, ok := ParseButton(tt.name)
		if !ok || got != tt.want {
			t.Errorf("ParseButton(%q) = %s, %v, want %s", tt.name, got, ok, tt.want)
		}
	}
	if _, ok := ParseButton("turbo"); ok {
		t.Error("ParseButton(\"turbo\") ok = true, want false")
	}
}

func TestJoypadHeldButtonSignalsOnce(t *testing.T) {
	presses := 0
	j := NewJoypad(func() { presses++ })
	j.Press(ButtonB)
	j.Press(ButtonB)
	j.Press(ButtonDown)
	j.Press(ButtonDown)

	if presses != 2 {
		t.Errorf("press callbacks = %d, want 2", presses)
	}

	j.Release(ButtonB)
	j.Press(ButtonB)
	if presses != 3 {
		t.Errorf("press callbacks after re-press = %d, want 3", presses)
	}
}
