package cartridge

import "fmt"

// ROMOnly represents a simple ROM-only cartridge with no MBC.
// Supports up to 32 KiB of ROM; types 0x08 and 0x09 add up to 8 KiB of RAM.
type ROMOnly struct {
	base
}

func newROMOnly(b base) *ROMOnly {
	return &ROMOnly{base: b}
}

// Read reads a byte from the cartridge.
func (c *ROMOnly) Read(addr uint16) (uint8, error) {
	switch {
	// ROM: 0x0000-0x7FFF
	case addr < 0x8000:
		if int(addr) >= len(c.rom) {
			return 0, fmt.Errorf("%w: 0x%04X is beyond the %d-byte image", ErrInvalidAddress, addr, len(c.rom))
		}
		return c.rom[addr], nil

	// External RAM: 0xA000-0xBFFF
	case isRAMWindow(addr):
		if c.ram == nil {
			return 0xFF, nil
		}
		offset, err := c.ramOffset(0, addr)
		if err != nil {
			return 0, err
		}
		return c.ram[offset], nil

	default:
		return 0, outsideWindows(addr)
	}
}

// Write writes a byte to the cartridge. Only RAM, when present, is writable.
func (c *ROMOnly) Write(addr uint16, value uint8) error {
	switch {
	case addr < 0x8000:
		return fmt.Errorf("%w: 0x%02X to ROM address 0x%04X on a cartridge without a bank controller",
			ErrIllegalWrite, value, addr)

	case isRAMWindow(addr):
		if c.ram == nil {
			return fmt.Errorf("%w: 0x%02X to 0x%04X on a cartridge without RAM", ErrIllegalWrite, value, addr)
		}
		offset, err := c.ramOffset(0, addr)
		if err != nil {
			return err
		}
		c.ram[offset] = value
		return nil

	default:
		return outsideWindows(addr)
	}
}

// Banks returns the fixed bank layout.
func (c *ROMOnly) Banks() BankState {
	return BankState{ROMBank: 1, RAMEnabled: c.ram != nil}
}
