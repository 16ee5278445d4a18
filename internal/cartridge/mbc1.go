package cartridge

import "fmt"

// MBC1 represents a cartridge with MBC1 (Memory Bank Controller 1).
// MBC1 is the most common MBC type, supporting up to 2 MiB of ROM and 32 KiB of RAM.
//
// Memory Map:
// - 0x0000-0x3FFF: ROM Bank 00 (fixed)
// - 0x4000-0x7FFF: ROM Bank 01-7F (switchable)
// - 0xA000-0xBFFF: RAM Bank 00-03 (switchable, if present)
//
// Control Registers (write-only):
// - 0x0000-0x1FFF: RAM Enable (0x0A enables, anything else disables)
// - 0x2000-0x3FFF: ROM Bank Number (lower 5 bits, 0 reads as 1)
// - 0x4000-0x5FFF: RAM Bank Number or upper ROM bank bits, by mode
// - 0x6000-0x7FFF: Banking Mode Select (0x00 ROM, 0x01 RAM, others rejected)
type MBC1 struct {
	base

	// Banking control
	ramEnabled bool        // RAM enable flag (0x0000-0x1FFF)
	romBank    uint8       // ROM bank number (0x2000-0x3FFF), 5 bits, never 0
	secondary  uint8       // two-bit register (0x4000-0x5FFF)
	mode       BankingMode // banking mode (0x6000-0x7FFF)
}

func newMBC1(b base) *MBC1 {
	return &MBC1{
		base:    b,
		romBank: 1, // Bank 0 is not selectable, so default to 1
		mode:    ROMBankingMode,
	}
}

// selectedROMBank combines the bank registers for the switchable window.
func (c *MBC1) selectedROMBank() int {
	if c.mode == ROMBankingMode {
		return int(c.secondary)<<5 | int(c.romBank)
	}
	return int(c.romBank)
}

// selectedRAMBank returns the RAM bank; ROM mode always uses bank 0.
func (c *MBC1) selectedRAMBank() int {
	if c.mode == RAMBankingMode {
		return int(c.secondary)
	}
	return 0
}

// Read reads a byte from the cartridge.
func (c *MBC1) Read(addr uint16) (uint8, error) {
	switch {
	// ROM Bank 00 (0x0000-0x3FFF)
	case addr < 0x4000:
		return c.readROM(0, addr)

	// ROM Bank 01-7F (0x4000-0x7FFF)
	case addr < 0x8000:
		return c.readROM(c.selectedROMBank(), addr)

	// External RAM (0xA000-0xBFFF)
	case isRAMWindow(addr):
		if !c.ramEnabled {
			return 0xFF, nil
		}
		offset, err := c.ramOffset(c.selectedRAMBank(), addr)
		if err != nil {
			return 0, err
		}
		return c.ram[offset], nil

	default:
		return 0, outsideWindows(addr)
	}
}

// Write writes a byte to the cartridge (MBC control registers or RAM).
func (c *MBC1) Write(addr uint16, value uint8) error {
	switch {
	// RAM Enable (0x0000-0x1FFF)
	case addr < 0x2000:
		c.ramEnabled = value == 0x0A

	// ROM Bank Number - lower 5 bits (0x2000-0x3FFF)
	case addr < 0x4000:
		c.romBank = value & 0x1F
		// Special case: writing 0x00 is treated as 0x01
		if c.romBank == 0 {
			c.romBank = 1
		}

	// RAM Bank Number / ROM Bank Number upper bits (0x4000-0x5FFF)
	case addr < 0x6000:
		c.secondary = value & 0x03

	// Banking Mode Select (0x6000-0x7FFF)
	case addr < 0x8000:
		switch BankingMode(value) {
		case ROMBankingMode, RAMBankingMode:
			c.mode = BankingMode(value)
		default:
			return fmt.Errorf("%w: 0x%02X written to 0x%04X", ErrInvalidBankingMode, value, addr)
		}

	// External RAM (0xA000-0xBFFF)
	case isRAMWindow(addr):
		if !c.ramEnabled {
			return nil
		}
		offset, err := c.ramOffset(c.selectedRAMBank(), addr)
		if err != nil {
			return err
		}
		c.ram[offset] = value

	default:
		return outsideWindows(addr)
	}
	return nil
}

// Banks returns the current bank-selection state.
func (c *MBC1) Banks() BankState {
	return BankState{
		ROMBank:    c.selectedROMBank(),
		RAMBank:    c.selectedRAMBank(),
		RAMEnabled: c.ramEnabled,
		Mode:       c.mode,
	}
}
