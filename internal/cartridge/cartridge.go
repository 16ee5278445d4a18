package cartridge

import (
	"errors"
	"fmt"
)

// Cartridge represents a Game Boy cartridge with ROM, optional RAM and the
// bank controller that maps them into the address space.
type Cartridge interface {
	// Read reads a byte from the cartridge address space (0x0000-0x7FFF for ROM, 0xA000-0xBFFF for RAM)
	Read(addr uint16) (uint8, error)

	// Write writes a byte to the cartridge address space. Writes into the ROM
	// window are bank-control commands and never change ROM contents.
	Write(addr uint16, value uint8) error

	// Header returns the parsed cartridge header
	Header() *Header

	// HasBattery returns true if the cartridge has battery-backed RAM
	HasBattery() bool

	// Banks returns the current bank-selection state
	Banks() BankState
}

// BankingMode selects how MBC1 interprets its two-bit secondary register.
type BankingMode uint8

// MBC1 banking modes.
const (
	ROMBankingMode BankingMode = 0x00
	RAMBankingMode BankingMode = 0x01
)

func (m BankingMode) String() string {
	if m == RAMBankingMode {
		return "RAM"
	}
	return "ROM"
}

// BankState is a snapshot of a cartridge's bank-selection registers.
type BankState struct {
	ROMBank    int         // bank mapped at 0x4000-0x7FFF
	RAMBank    int         // bank mapped at 0xA000-0xBFFF
	RAMEnabled bool        // external RAM gate
	Mode       BankingMode // MBC1 only
}

// Errors returned by cartridge construction and access.
var (
	// ErrInvalidAddress indicates an address outside the cartridge windows or
	// a bank offset beyond the image.
	ErrInvalidAddress = errors.New("invalid cartridge address")

	// ErrIllegalWrite indicates a write into a read-only region.
	ErrIllegalWrite = errors.New("illegal write")

	// ErrUnsupportedCartridgeType indicates an unknown cartridge-type header byte.
	ErrUnsupportedCartridgeType = errors.New("unsupported cartridge type")

	// ErrInvalidBankingMode indicates a bank-control write with an out-of-range selector.
	ErrInvalidBankingMode = errors.New("invalid banking mode")

	// ErrInvalidROMSize indicates the ROM image is too small or too large.
	ErrInvalidROMSize = errors.New("invalid ROM size")
)

const (
	romBankSize = 0x4000
	ramBankSize = 0x2000

	maxROMSize = 8 * 1024 * 1024 // 8 MiB
)

// New creates a new cartridge from ROM data.
// The cartridge-type byte at 0x0147 selects the bank controller; it stays
// fixed for the lifetime of the cartridge.
func New(rom []byte) (Cartridge, error) {
	if len(rom) > maxROMSize {
		return nil, fmt.Errorf("%w: got %d bytes, maximum is %d", ErrInvalidROMSize, len(rom), maxROMSize)
	}

	header, err := ParseHeader(rom)
	if err != nil {
		return nil, fmt.Errorf("failed to parse header: %w", err)
	}

	b := newBase(rom, header)
	cartType := header.CartridgeType

	switch cartType {
	case TypeROMOnly, TypeROMRAM, TypeROMRAMBattery:
		return newROMOnly(b), nil

	case TypeMBC1, TypeMBC1RAM, TypeMBC1RAMBattery:
		return newMBC1(b), nil

	case TypeMBC2, TypeMBC2Battery:
		return newMBC2(b), nil

	case TypeMBC3TimerBattery, TypeMBC3TimerRAMBattery, TypeMBC3, TypeMBC3RAM, TypeMBC3RAMBattery:
		return newMBC3(b), nil

	case TypeMBC5, TypeMBC5RAM, TypeMBC5RAMBattery,
		TypeMBC5Rumble, TypeMBC5RumbleRAM, TypeMBC5RumbleRAMBattery:
		return newMBC5(b), nil

	default:
		return nil, fmt.Errorf("%w: type 0x%02X (%s)",
			ErrUnsupportedCartridgeType, byte(cartType), cartType.String())
	}
}

// base holds the storage shared by every controller.
type base struct {
	header *Header
	rom    []byte
	ram    []byte
}

func newBase(rom []byte, header *Header) base {
	b := base{header: header, rom: rom}
	if header.CartridgeType.HasRAM() {
		size := header.RAMSize
		if size == 0 {
			size = ramBankSize
		}
		b.ram = make([]byte, size)
	}
	return b
}

// Header returns the cartridge header.
func (b *base) Header() *Header {
	return b.header
}

// HasBattery returns true if the cartridge has battery-backed RAM.
func (b *base) HasBattery() bool {
	return b.header.CartridgeType.HasBattery()
}

// readROM reads addr (taken modulo the bank size) from the given bank.
func (b *base) readROM(bank int, addr uint16) (uint8, error) {
	offset := bank*romBankSize + int(addr&(romBankSize-1))
	if offset >= len(b.rom) {
		return 0, fmt.Errorf("%w: 0x%04X in ROM bank %d is beyond the %d-byte image",
			ErrInvalidAddress, addr, bank, len(b.rom))
	}
	return b.rom[offset], nil
}

// ramOffset translates an external RAM address through the given bank.
func (b *base) ramOffset(bank int, addr uint16) (int, error) {
	offset := bank*ramBankSize + int(addr-0xA000)
	if offset >= len(b.ram) {
		return 0, fmt.Errorf("%w: 0x%04X in RAM bank %d is beyond %d bytes of RAM",
			ErrInvalidAddress, addr, bank, len(b.ram))
	}
	return offset, nil
}

func isRAMWindow(addr uint16) bool {
	return addr >= 0xA000 && addr < 0xC000
}

func outsideWindows(addr uint16) error {
	return fmt.Errorf("%w: 0x%04X is outside the ROM and RAM windows", ErrInvalidAddress, addr)
}
