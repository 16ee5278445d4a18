package cartridge

import "fmt"

// RTC register indices selectable through 0x4000-0x5FFF.
const (
	rtcSeconds  = 0x08
	rtcMinutes  = 0x09
	rtcHours    = 0x0A
	rtcDaysLow  = 0x0B
	rtcDaysHigh = 0x0C
)

// rtcMasks holds the writable bits of each RTC register.
var rtcMasks = [5]uint8{0x3F, 0x3F, 0x1F, 0xFF, 0xC1}

// MBC3 supports up to 2 MiB of ROM, 32 KiB of RAM and, on timer variants,
// a real-time clock.
//
// Control Registers (write-only):
// - 0x0000-0x1FFF: RAM and RTC enable (low nibble 0x0A enables)
// - 0x2000-0x3FFF: ROM Bank Number (7 bits, 0 reads as 1)
// - 0x4000-0x5FFF: RAM bank 0x00-0x03 or RTC register 0x08-0x0C
// - 0x6000-0x7FFF: writing 0x00 then 0x01 latches the clock registers
//
// The clock registers hold whatever was written to them; they do not
// advance with wall time.
type MBC3 struct {
	base

	ramEnabled bool
	romBank    uint8
	ramBank    uint8 // 0x00-0x03, or an RTC register index

	hasTimer  bool
	rtc       [5]uint8
	latched   [5]uint8
	lastLatch uint8
}

func newMBC3(b base) *MBC3 {
	return &MBC3{
		base:      b,
		romBank:   1,
		hasTimer:  b.header.CartridgeType.HasTimer(),
		lastLatch: 0xFF,
	}
}

func (c *MBC3) rtcSelected() bool {
	return c.ramBank >= rtcSeconds && c.ramBank <= rtcDaysHigh
}

// Read reads a byte from the cartridge.
func (c *MBC3) Read(addr uint16) (uint8, error) {
	switch {
	case addr < 0x4000:
		return c.readROM(0, addr)
	case addr < 0x8000:
		return c.readROM(int(c.romBank), addr)
	case isRAMWindow(addr):
		if !c.ramEnabled {
			return 0xFF, nil
		}
		if c.rtcSelected() {
			return c.latched[c.ramBank-rtcSeconds], nil
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

// Write writes a control register, a RAM byte or an RTC register.
func (c *MBC3) Write(addr uint16, value uint8) error {
	switch {
	case addr < 0x2000:
		c.ramEnabled = value&0x0F == 0x0A

	case addr < 0x4000:
		c.romBank = value & 0x7F
		if c.romBank == 0 {
			c.romBank = 1
		}

	case addr < 0x6000:
		switch {
		case value <= 0x03:
			c.ramBank = value
		case value >= rtcSeconds && value <= rtcDaysHigh && c.hasTimer:
			c.ramBank = value
		default:
			return fmt.Errorf("%w: 0x%02X is neither a RAM bank nor an RTC register", ErrInvalidBankingMode, value)
		}

	case addr < 0x8000:
		if c.hasTimer && c.lastLatch == 0x00 && value == 0x01 {
			c.latched = c.rtc
		}
		c.lastLatch = value

	case isRAMWindow(addr):
		if !c.ramEnabled {
			return nil
		}
		if c.rtcSelected() {
			index := c.ramBank - rtcSeconds
			c.rtc[index] = value & rtcMasks[index]
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

// Banks returns the current bank-selection state.
func (c *MBC3) Banks() BankState {
	return BankState{ROMBank: int(c.romBank), RAMBank: int(c.ramBank), RAMEnabled: c.ramEnabled}
}
