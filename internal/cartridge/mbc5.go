package cartridge

import "fmt"

// MBC5 supports up to 8 MiB of ROM through a 9-bit bank number and up to
// 128 KiB of RAM. Unlike MBC1, bank 0 can be mapped into the switchable window.
//
// Control Registers (write-only):
// - 0x0000-0x1FFF: RAM enable (low nibble 0x0A enables)
// - 0x2000-0x2FFF: ROM bank, low 8 bits
// - 0x3000-0x3FFF: ROM bank, bit 8
// - 0x4000-0x5FFF: RAM bank (bit 3 drives the motor on rumble cartridges)
type MBC5 struct {
	base

	ramEnabled bool
	romBank    uint16
	ramBank    uint8
	rumble     bool
	motor      bool
}

func newMBC5(b base) *MBC5 {
	return &MBC5{
		base:    b,
		romBank: 1,
		rumble:  b.header.CartridgeType.HasRumble(),
	}
}

// Read reads a byte from the cartridge.
func (c *MBC5) Read(addr uint16) (uint8, error) {
	switch {
	case addr < 0x4000:
		return c.readROM(0, addr)
	case addr < 0x8000:
		return c.readROM(int(c.romBank), addr)
	case isRAMWindow(addr):
		if !c.ramEnabled {
			return 0xFF, nil
		}
		offset, err := c.ramOffset(int(c.ramBank), addr)
		if err != nil {
			return 0, err
		}
		return c.ram[offset], nil
	default:
		return 0, outsideWindows(addr)
	}
}

// Write writes a control register or a RAM byte.
func (c *MBC5) Write(addr uint16, value uint8) error {
	switch {
	case addr < 0x2000:
		c.ramEnabled = value&0x0F == 0x0A
	case addr < 0x3000:
		c.romBank = c.romBank&0x100 | uint16(value)
	case addr < 0x4000:
		c.romBank = c.romBank&0x0FF | uint16(value&0x01)<<8
	case addr < 0x6000:
		if c.rumble {
			c.motor = value&0x08 != 0
			c.ramBank = value & 0x07
		} else {
			c.ramBank = value & 0x0F
		}
	case addr < 0x8000:
		return fmt.Errorf("%w: 0x%02X to 0x%04X, MBC5 has no register there", ErrIllegalWrite, value, addr)
	case isRAMWindow(addr):
		if !c.ramEnabled {
			return nil
		}
		offset, err := c.ramOffset(int(c.ramBank), addr)
		if err != nil {
			return err
		}
		c.ram[offset] = value
	default:
		return outsideWindows(addr)
	}
	return nil
}

// Rumble reports whether the rumble motor is currently driven.
func (c *MBC5) Rumble() bool {
	return c.motor
}

// Banks returns the current bank-selection state.
func (c *MBC5) Banks() BankState {
	return BankState{ROMBank: int(c.romBank), RAMBank: int(c.ramBank), RAMEnabled: c.ramEnabled}
}
