package memory

import (
	"errors"
	"testing"

	"github.com/richardwooding/dmgcore/internal/cartridge"
)

// newTestSpace creates an address space around a 32 KiB cartridge of the given type.
func newTestSpace(t *testing.T, cartType byte) (*AddressSpace, []byte) {
	t.Helper()
	rom := make([]byte, 0x8000)
	rom[0x0000] = 0xC3 // distinguishes cartridge from boot image
	rom[0x0100] = 0x42
	rom[0x4000] = 0x84
	rom[0x0147] = cartType
	rom[0x0149] = 0x02
	rom[0x014D] = cartridge.HeaderChecksum(rom)

	cart, err := cartridge.New(rom)
	if err != nil {
		t.Fatalf("cartridge.New() error = %v", err)
	}
	return New(cart), rom
}

// fakeIO records register traffic.
type fakeIO struct {
	regs map[uint16]uint8
}

func (f *fakeIO) ReadRegister(addr uint16) uint8 {
	return f.regs[addr]
}

func (f *fakeIO) WriteRegister(addr uint16, value uint8) {
	f.regs[addr] = value
}

func TestBootImageMapping(t *testing.T) {
	m, _ := newTestSpace(t, 0x00)

	value, err := m.Read(0x0000)
	if err != nil {
		t.Fatalf("Read(0x0000) error = %v", err)
	}
	if value != 0x31 {
		t.Errorf("Read(0x0000) before boot = %02X, want 0x31 (boot image)", value)
	}

	// Above the boot image the cartridge is always visible.
	value, _ = m.Read(0x0100)
	if value != 0x42 {
		t.Errorf("Read(0x0100) = %02X, want 0x42", value)
	}

	// Writing zero to the status register does not complete boot.
	if err := m.Write(BootStatus, 0x00); err != nil {
		t.Fatalf("Write(0xFF50) error = %v", err)
	}
	if m.BootCompleted() {
		t.Error("BootCompleted() = true after writing 0x00")
	}

	if err := m.Write(BootStatus, 0x01); err != nil {
		t.Fatalf("Write(0xFF50) error = %v", err)
	}
	value, _ = m.Read(0x0000)
	if value != 0xC3 {
		t.Errorf("Read(0x0000) after boot = %02X, want 0xC3 (cartridge)", value)
	}

	// The latch cannot be cleared again.
	_ = m.Write(BootStatus, 0x00)
	if !m.BootCompleted() {
		t.Error("BootCompleted() = false after writing 0x00 to a latched register")
	}
}

func TestCompleteBoot(t *testing.T) {
	m, _ := newTestSpace(t, 0x00)
	m.CompleteBoot()
	value, _ := m.Read(0x0000)
	if value != 0xC3 {
		t.Errorf("Read(0x0000) = %02X, want 0xC3", value)
	}

	m.Reset()
	if m.BootCompleted() {
		t.Error("BootCompleted() = true after Reset()")
	}
}

func TestBootImageEpilogue(t *testing.T) {
	image := BootImage()
	want := []uint8{0x3E, 0x01, 0xE0, 0x50}
	for i, b := range want {
		if image[0xFC+i] != b {
			t.Errorf("boot image[0x%02X] = %02X, want 0x%02X", 0xFC+i, image[0xFC+i], b)
		}
	}
}

func TestROMWriteRejected(t *testing.T) {
	m, rom := newTestSpace(t, 0x00)
	m.CompleteBoot()

	err := m.Write(0x0100, 0xFF)
	if !errors.Is(err, ErrIllegalWrite) {
		t.Errorf("Write(0x0100) error = %v, want ErrIllegalWrite", err)
	}
	if rom[0x0100] != 0x42 {
		t.Errorf("ROM changed to %02X", rom[0x0100])
	}
}

func TestBankControlForwarded(t *testing.T) {
	m, _ := newTestSpace(t, 0x01)
	if err := m.Write(0x2000, 0x01); err != nil {
		t.Errorf("Write(0x2000) error = %v", err)
	}
	value, _ := m.Read(0x4000)
	if value != 0x84 {
		t.Errorf("Read(0x4000) = %02X, want 0x84", value)
	}
	if err := m.Write(0x6000, 0x07); !errors.Is(err, cartridge.ErrInvalidBankingMode) {
		t.Errorf("Write(0x6000, 0x07) error = %v, want ErrInvalidBankingMode", err)
	}
}

func TestWRAMAccess(t *testing.T) {
	m, _ := newTestSpace(t, 0x00)

	tests := []struct {
		addr  uint16
		value uint8
	}{
		{0xC000, 0x11},
		{0xC123, 0xAB},
		{0xDFFF, 0xCD},
	}
	for _, tt := range tests {
		if err := m.Write(tt.addr, tt.value); err != nil {
			t.Fatalf("Write(0x%04X) error = %v", tt.addr, err)
		}
		got, _ := m.Read(tt.addr)
		if got != tt.value {
			t.Errorf("Read(0x%04X) = %02X, want 0x%02X", tt.addr, got, tt.value)
		}
	}
}

func TestEchoRAM(t *testing.T) {
	m, _ := newTestSpace(t, 0x00)

	_ = m.Write(0xC100, 0x5A)
	got, _ := m.Read(0xE100)
	if got != 0x5A {
		t.Errorf("Read(0xE100) = %02X, want 0x5A (echo of 0xC100)", got)
	}

	_ = m.Write(0xFDFF, 0xA5)
	got, _ = m.Read(0xDDFF)
	if got != 0xA5 {
		t.Errorf("Read(0xDDFF) = %02X, want 0xA5 (echo of 0xFDFF)", got)
	}
}

func TestVRAMAndOAM(t *testing.T) {
	m, _ := newTestSpace(t, 0x00)

	_ = m.Write(0x8000, 0x01)
	_ = m.Write(0x9FFF, 0x02)
	_ = m.Write(0xFE00, 0x03)
	_ = m.Write(0xFE9F, 0x04)

	for addr, want := range map[uint16]uint8{0x8000: 0x01, 0x9FFF: 0x02, 0xFE00: 0x03, 0xFE9F: 0x04} {
		got, err := m.Read(addr)
		if err != nil {
			t.Fatalf("Read(0x%04X) error = %v", addr, err)
		}
		if got != want {
			t.Errorf("Read(0x%04X) = %02X, want 0x%02X", addr, got, want)
		}
	}
}

func TestUnusableRegion(t *testing.T) {
	m, _ := newTestSpace(t, 0x00)
	if err := m.Write(0xFEA0, 0x12); err != nil {
		t.Errorf("Write(0xFEA0) error = %v", err)
	}
	got, _ := m.Read(0xFEFF)
	if got != 0xFF {
		t.Errorf("Read(0xFEFF) = %02X, want 0xFF", got)
	}
}

func TestExternalRAM(t *testing.T) {
	m, _ := newTestSpace(t, 0x08)
	if err := m.Write(0xA010, 0x77); err != nil {
		t.Fatalf("Write(0xA010) error = %v", err)
	}
	got, _ := m.Read(0xA010)
	if got != 0x77 {
		t.Errorf("Read(0xA010) = %02X, want 0x77", got)
	}
}

func TestHighRAMRejected(t *testing.T) {
	m, _ := newTestSpace(t, 0x00)
	for _, addr := range []uint16{0xFF80, 0xFFFE, 0xFFFF} {
		if _, err := m.Read(addr); !errors.Is(err, ErrInvalidAddress) {
			t.Errorf("Read(0x%04X) error = %v, want ErrInvalidAddress", addr, err)
		}
		if err := m.Write(addr, 0); !errors.Is(err, cartridge.ErrInvalidAddress) {
			t.Errorf("Write(0x%04X) error = %v, want ErrInvalidAddress", addr, err)
		}
	}
}

func TestIOForwarding(t *testing.T) {
	m, _ := newTestSpace(t, 0x00)

	if _, err := m.Read(0xFF01); !errors.Is(err, ErrInvalidAddress) {
		t.Errorf("Read(0xFF01) without IO error = %v, want ErrInvalidAddress", err)
	}

	io := &fakeIO{regs: map[uint16]uint8{}}
	m.SetIO(io)
	if err := m.Write(0xFF01, 0x48); err != nil {
		t.Fatalf("Write(0xFF01) error = %v", err)
	}
	if io.regs[0xFF01] != 0x48 {
		t.Errorf("IO register 0xFF01 = %02X, want 0x48", io.regs[0xFF01])
	}
	got, _ := m.Read(0xFF01)
	if got != 0x48 {
		t.Errorf("Read(0xFF01) = %02X, want 0x48", got)
	}

	// The boot status register is never forwarded.
	_ = m.Write(BootStatus, 0x01)
	if _, ok := io.regs[BootStatus]; ok {
		t.Error("write to 0xFF50 reached the IO collaborator")
	}
}
