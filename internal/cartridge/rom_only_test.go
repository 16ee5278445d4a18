package cartridge

import (
	"errors"
	"testing"
)

func TestROMOnlyRead(t *testing.T) {
	rom := buildROM(0x8000, 0x00, 0x00, 0x00)
	rom[0x0000] = 0x31
	rom[0x4000] = 0x42
	rom[0x7FFF] = 0x99

	cart, err := New(rom)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	tests := []struct {
		addr uint16
		want uint8
	}{
		{0x0000, 0x31},
		{0x4000, 0x42},
		{0x7FFF, 0x99},
	}
	for _, tt := range tests {
		got, err := cart.Read(tt.addr)
		if err != nil {
			t.Fatalf("Read(0x%04X) error = %v", tt.addr, err)
		}
		if got != tt.want {
			t.Errorf("Read(0x%04X) = 0x%02X, want 0x%02X", tt.addr, got, tt.want)
		}
	}
}

// TestROMOnlyWriteIllegal verifies that any ROM-window write fails.
func TestROMOnlyWriteIllegal(t *testing.T) {
	rom := buildROM(0x8000, 0x00, 0x00, 0x00)
	cart, err := New(rom)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	for _, addr := range []uint16{0x0000, 0x2000, 0x4000, 0x6000, 0x7FFF} {
		if err := cart.Write(addr, 0x0A); !errors.Is(err, ErrIllegalWrite) {
			t.Errorf("Write(0x%04X) error = %v, want ErrIllegalWrite", addr, err)
		}
	}
	if rom[0x2000] != 0 {
		t.Error("ROM contents changed by a rejected write")
	}

	// Type 0x00 has no RAM either.
	if err := cart.Write(0xA000, 0x12); !errors.Is(err, ErrIllegalWrite) {
		t.Errorf("Write(0xA000) error = %v, want ErrIllegalWrite", err)
	}
	got, err := cart.Read(0xA000)
	if err != nil || got != 0xFF {
		t.Errorf("Read(0xA000) = 0x%02X, %v; want 0xFF, nil", got, err)
	}
}

func TestROMOnlyWithRAM(t *testing.T) {
	cart, err := New(buildROM(0x8000, 0x08, 0x00, 0x02))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if err := cart.Write(0xA000, 0x12); err != nil {
		t.Fatalf("Write(0xA000) error = %v", err)
	}
	if err := cart.Write(0xBFFF, 0x34); err != nil {
		t.Fatalf("Write(0xBFFF) error = %v", err)
	}

	if got, _ := cart.Read(0xA000); got != 0x12 {
		t.Errorf("Read(0xA000) = 0x%02X, want 0x12", got)
	}
	if got, _ := cart.Read(0xBFFF); got != 0x34 {
		t.Errorf("Read(0xBFFF) = 0x%02X, want 0x34", got)
	}

	// ROM stays read-only on RAM-carrying variants.
	if err := cart.Write(0x0000, 0x0A); !errors.Is(err, ErrIllegalWrite) {
		t.Errorf("Write(0x0000) error = %v, want ErrIllegalWrite", err)
	}
}

func TestROMOnlySmallRAM(t *testing.T) {
	// 2 KiB of RAM: offsets past it are invalid, not wrapped.
	cart, err := New(buildROM(0x8000, 0x08, 0x00, 0x01))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := cart.Write(0xA7FF, 0x01); err != nil {
		t.Errorf("Write(0xA7FF) error = %v", err)
	}
	if err := cart.Write(0xA800, 0x01); !errors.Is(err, ErrInvalidAddress) {
		t.Errorf("Write(0xA800) error = %v, want ErrInvalidAddress", err)
	}
}

func TestROMOnlyHasBattery(t *testing.T) {
	tests := []struct {
		cartType byte
		want     bool
	}{
		{0x00, false},
		{0x08, false},
		{0x09, true},
	}

	for _, tt := range tests {
		cart, err := New(buildROM(0x8000, tt.cartType, 0x00, 0x02))
		if err != nil {
			t.Fatalf("New() error = %v", err)
		}
		if got := cart.HasBattery(); got != tt.want {
			t.Errorf("type 0x%02X HasBattery() = %v, want %v", tt.cartType, got, tt.want)
		}
	}
}

func TestROMOnlyHeader(t *testing.T) {
	rom := buildROM(0x8000, 0x00, 0x00, 0x00)
	copy(rom[0x0134:], "TEST")
	cart, err := New(rom)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if got := cart.Header().Title; got != "TEST" {
		t.Errorf("Header().Title = %q, want %q", got, "TEST")
	}
	if got := cart.Banks(); got.ROMBank != 1 {
		t.Errorf("Banks().ROMBank = %d, want 1", got.ROMBank)
	}
}
