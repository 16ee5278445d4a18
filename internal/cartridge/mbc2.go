package cartridge

import "fmt"

// mbc2RAMSize is the built-in 512 x 4-bit RAM of the MBC2 chip.
const mbc2RAMSize = 512

// MBC2 supports up to 256 KiB of ROM and carries 512 half-bytes of RAM.
//
// Bit 8 of the address picks the register written in 0x0000-0x3FFF:
// clear selects RAM enable, set selects the 4-bit ROM bank number.
// RAM at 0xA000-0xA1FF is echoed through 0xBFFF and only the low nibble
// is stored.
type MBC2 struct {
	base

	ramEnabled bool
	romBank    uint8
}

func newMBC2(b base) *MBC2 {
	b.ram = make([]byte, mbc2RAMSize)
	return &MBC2{base: b, romBank: 1}
}

// Read reads a byte from the cartridge.
func (c *MBC2) Read(addr uint16) (uint8, error) {
	switch {
	case addr < 0x4000:
		return c.readROM(0, addr)
	case addr < 0x8000:
		return c.readROM(int(c.romBank), addr)
	case isRAMWindow(addr):
		if !c.ramEnabled {
			return 0xFF, nil
		}
		return c.ram[addr&(mbc2RAMSize-1)] | 0xF0, nil
	default:
		return 0, outsideWindows(addr)
	}
}

// Write writes a control register or a RAM nibble.
func (c *MBC2) Write(addr uint16, value uint8) error {
	switch {
	case addr < 0x4000:
		if addr&0x0100 == 0 {
			c.ramEnabled = value&0x0F == 0x0A
			return nil
		}
		c.romBank = value & 0x0F
		if c.romBank == 0 {
			c.romBank = 1
		}
	case addr < 0x8000:
		return fmt.Errorf("%w: 0x%02X to 0x%04X, MBC2 has no register there", ErrIllegalWrite, value, addr)
	case isRAMWindow(addr):
		if c.ramEnabled {
			c.ram[addr&(mbc2RAMSize-1)] = value & 0x0F
		}
	default:
		return outsideWindows(addr)
	}
	return nil
}

// Banks returns the current bank-selection state.
func (c *MBC2) Banks() BankState {
	return BankState{ROMBank: int(c.romBank), RAMEnabled: c.ramEnabled}
}
