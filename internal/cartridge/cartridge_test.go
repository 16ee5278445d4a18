package cartridge

import (
	"errors"
	"testing"
)

// buildROM creates a ROM image of the given size with a valid header checksum.
func buildROM(size int, cartType, romSize, ramSize byte) []byte {
	rom := make([]byte, size)
	rom[0x0147] = cartType
	rom[0x0148] = romSize
	rom[0x0149] = ramSize
	rom[0x014D] = HeaderChecksum(rom)
	return rom
}

// markBanks writes the bank number into the first byte of every 16 KiB bank.
func markBanks(rom []byte) {
	for bank := 0; bank*romBankSize < len(rom); bank++ {
		if bank == 0 {
			continue // keep the header intact
		}
		rom[bank*romBankSize] = byte(bank)
	}
}

// TestNewDispatch verifies that the cartridge-type byte selects the controller.
func TestNewDispatch(t *testing.T) {
	tests := []struct {
		name     string
		cartType byte
		want     string
	}{
		{"ROM only", 0x00, "*cartridge.ROMOnly"},
		{"ROM+RAM", 0x08, "*cartridge.ROMOnly"},
		{"ROM+RAM+Battery", 0x09, "*cartridge.ROMOnly"},
		{"MBC1", 0x01, "*cartridge.MBC1"},
		{"MBC1+RAM", 0x02, "*cartridge.MBC1"},
		{"MBC1+RAM+Battery", 0x03, "*cartridge.MBC1"},
		{"MBC2", 0x05, "*cartridge.MBC2"},
		{"MBC2+Battery", 0x06, "*cartridge.MBC2"},
		{"MBC3+Timer+Battery", 0x0F, "*cartridge.MBC3"},
		{"MBC3+Timer+RAM+Battery", 0x10, "*cartridge.MBC3"},
		{"MBC3", 0x11, "*cartridge.MBC3"},
		{"MBC3+RAM", 0x12, "*cartridge.MBC3"},
		{"MBC3+RAM+Battery", 0x13, "*cartridge.MBC3"},
		{"MBC5", 0x19, "*cartridge.MBC5"},
		{"MBC5+RAM", 0x1A, "*cartridge.MBC5"},
		{"MBC5+RAM+Battery", 0x1B, "*cartridge.MBC5"},
		{"MBC5+Rumble", 0x1C, "*cartridge.MBC5"},
		{"MBC5+Rumble+RAM", 0x1D, "*cartridge.MBC5"},
		{"MBC5+Rumble+RAM+Battery", 0x1E, "*cartridge.MBC5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cart, err := New(buildROM(0x8000, tt.cartType, 0x00, 0x02))
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			if got := typeName(cart); got != tt.want {
				t.Errorf("New() type = %s, want %s", got, tt.want)
			}
		})
	}
}

func typeName(c Cartridge) string {
	switch c.(type) {
	case *ROMOnly:
		return "*cartridge.ROMOnly"
	case *MBC1:
		return "*cartridge.MBC1"
	case *MBC2:
		return "*cartridge.MBC2"
	case *MBC3:
		return "*cartridge.MBC3"
	case *MBC5:
		return "*cartridge.MBC5"
	default:
		return "unknown"
	}
}

// TestNewUnsupportedTypes verifies that attempting to load a ROM with an
// unsupported controller fails with ErrUnsupportedCartridgeType.
func TestNewUnsupportedTypes(t *testing.T) {
	tests := []struct {
		name     string
		cartType byte
	}{
		{"MMM01", 0x0B},
		{"MMM01+RAM", 0x0C},
		{"MMM01+RAM+Battery", 0x0D},
		{"MBC6", 0x20},
		{"MBC7+Sensor+Rumble+RAM+Battery", 0x22},
		{"Pocket Camera", 0xFC},
		{"Bandai TAMA5", 0xFD},
		{"HuC3", 0xFE},
		{"HuC1+RAM+Battery", 0xFF},
		{"Undefined 0x04", 0x04},
		{"Undefined 0x80", 0x80},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cart, err := New(buildROM(0x8000, tt.cartType, 0x00, 0x00))
			if !errors.Is(err, ErrUnsupportedCartridgeType) {
				t.Errorf("New() error = %v, want ErrUnsupportedCartridgeType", err)
			}
			if cart != nil {
				t.Errorf("New() returned %T for unsupported type 0x%02X", cart, tt.cartType)
			}
		})
	}
}

func TestNewTooSmallROM(t *testing.T) {
	_, err := New(make([]byte, 0x014F))
	if !errors.Is(err, ErrInvalidROMSize) {
		t.Errorf("New() error = %v, want ErrInvalidROMSize", err)
	}
}

func TestNewMinimumSizeROM(t *testing.T) {
	cart, err := New(buildROM(0x0150, 0x00, 0x00, 0x00))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, err := cart.Read(0x0150); !errors.Is(err, ErrInvalidAddress) {
		t.Errorf("Read(0x0150) error = %v, want ErrInvalidAddress", err)
	}
}

func TestNewROMTooLarge(t *testing.T) {
	_, err := New(make([]byte, 8*1024*1024+1))
	if !errors.Is(err, ErrInvalidROMSize) {
		t.Errorf("New() error = %v, want ErrInvalidROMSize", err)
	}
}

func TestNewROMExactly8MiB(t *testing.T) {
	rom := buildROM(8*1024*1024, 0x19, 0x08, 0x00)
	cart, err := New(rom)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if cart.Header().ROMBanks != 512 {
		t.Errorf("ROMBanks = %d, want 512", cart.Header().ROMBanks)
	}
}

// TestControlWritesNeverMutateROM checks every controller leaves the image untouched.
func TestControlWritesNeverMutateROM(t *testing.T) {
	for _, cartType := range []byte{0x01, 0x05, 0x11, 0x19} {
		rom := buildROM(0x10000, cartType, 0x01, 0x00)
		markBanks(rom)
		snapshot := append([]byte(nil), rom...)

		cart, err := New(rom)
		if err != nil {
			t.Fatalf("New(0x%02X) error = %v", cartType, err)
		}
		for _, addr := range []uint16{0x0000, 0x0100, 0x2000, 0x3000, 0x4000, 0x5FFF} {
			_ = cart.Write(addr, 0x01)
		}
		for i := range rom {
			if rom[i] != snapshot[i] {
				t.Fatalf("type 0x%02X: ROM byte 0x%04X changed from 0x%02X to 0x%02X",
					cartType, i, snapshot[i], rom[i])
			}
		}
	}
}

func TestOutsideWindows(t *testing.T) {
	cart, err := New(buildROM(0x8000, 0x01, 0x00, 0x00))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	for _, addr := range []uint16{0x8000, 0x9FFF, 0xC000, 0xFFFF} {
		if _, err := cart.Read(addr); !errors.Is(err, ErrInvalidAddress) {
			t.Errorf("Read(0x%04X) error = %v, want ErrInvalidAddress", addr, err)
		}
		if err := cart.Write(addr, 0); !errors.Is(err, ErrInvalidAddress) {
			t.Errorf("Write(0x%04X) error = %v, want ErrInvalidAddress", addr, err)
		}
	}
}
