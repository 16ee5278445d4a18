// Package memory implements the Game Boy address space: the 64 KiB map
// assembled from work RAM, video RAM, object attribute memory, the
// cartridge and the boot image.
package memory

import (
	"fmt"

	"github.com/richardwooding/dmgcore/internal/cartridge"
)

// Address-space violations share the cartridge sentinels so callers can test
// for them with errors.Is regardless of which component rejected the access.
var (
	ErrInvalidAddress = cartridge.ErrInvalidAddress
	ErrIllegalWrite   = cartridge.ErrIllegalWrite
)

// BootStatus is the register whose first non-zero write unmaps the boot image.
const BootStatus uint16 = 0xFF50

// IO is the collaborator that owns the I/O registers at 0xFF00-0xFF7F.
type IO interface {
	ReadRegister(addr uint16) uint8
	WriteRegister(addr uint16, value uint8)
}

// AddressSpace routes CPU reads and writes to the backing store that owns
// each address. High RAM and the interrupt-enable register (0xFF80-0xFFFF)
// belong to the CPU and are rejected here.
type AddressSpace struct {
	// Cartridge (ROM and external RAM are handled by cartridge)
	cartridge cartridge.Cartridge

	// I/O registers, optional
	io IO

	vram [0x2000]uint8 // 8000-9FFF: Video RAM
	wram [0x2000]uint8 // C000-DFFF: Work RAM
	oam  [0xA0]uint8   // FE00-FE9F: Object Attribute Memory

	bootStatus uint8 // FF50: non-zero once the boot image is unmapped
}

// New creates an address space around a cartridge. The boot image is mapped
// at 0x0000-0x00FF until boot completes.
func New(cart cartridge.Cartridge) *AddressSpace {
	return &AddressSpace{cartridge: cart}
}

// SetIO attaches the I/O register collaborator.
func (m *AddressSpace) SetIO(io IO) {
	m.io = io
}

// Cartridge returns the attached cartridge.
func (m *AddressSpace) Cartridge() cartridge.Cartridge {
	return m.cartridge
}

// CompleteBoot unmaps the boot image as if the boot ROM had finished.
func (m *AddressSpace) CompleteBoot() {
	m.bootStatus = 0x01
}

// BootCompleted reports whether the boot image has been unmapped.
func (m *AddressSpace) BootCompleted() bool {
	return m.bootStatus != 0
}

// Read reads a byte from the address space.
func (m *AddressSpace) Read(addr uint16) (uint8, error) {
	switch {
	// Boot status register (FF50)
	case addr == BootStatus:
		return m.bootStatus, nil

	// I/O Registers (FF00-FF7F)
	case addr >= 0xFF00 && addr < 0xFF80:
		if m.io == nil {
			return 0, fmt.Errorf("%w: I/O register 0x%04X has no handler", ErrInvalidAddress, addr)
		}
		return m.io.ReadRegister(addr), nil

	// High RAM and IE (FF80-FFFF)
	case addr >= 0xFF80:
		return 0, highRAM(addr)

	// Not Usable (FEA0-FEFF)
	case addr >= 0xFEA0:
		return 0xFF, nil

	// OAM (FE00-FE9F)
	case addr >= 0xFE00:
		return m.oam[addr-0xFE00], nil

	// Echo RAM (E000-FDFF) - Mirror of C000-DDFF
	case addr >= 0xE000:
		return m.wram[addr-0xE000], nil

	// Work RAM (C000-DFFF)
	case addr >= 0xC000:
		return m.wram[addr-0xC000], nil

	// External RAM (A000-BFFF) - Handled by cartridge
	case addr >= 0xA000:
		return m.readCartridge(addr)

	// VRAM (8000-9FFF)
	case addr >= 0x8000:
		return m.vram[addr-0x8000], nil

	// Boot image over ROM bank 00 until FF50 is written
	case addr < uint16(len(bootImage)) && !m.BootCompleted():
		return bootImage[addr], nil

	// ROM (0000-7FFF)
	default:
		return m.readCartridge(addr)
	}
}

// Write writes a byte to the address space. Writes into the ROM window are
// passed to the cartridge as bank-control commands.
func (m *AddressSpace) Write(addr uint16, value uint8) error {
	switch {
	case addr == BootStatus:
		if value != 0 {
			m.bootStatus = value
		}

	case addr >= 0xFF00 && addr < 0xFF80:
		if m.io == nil {
			return fmt.Errorf("%w: I/O register 0x%04X has no handler", ErrInvalidAddress, addr)
		}
		m.io.WriteRegister(addr, value)

	case addr >= 0xFF80:
		return highRAM(addr)

	case addr >= 0xFEA0:
		// Writes to the unusable region are dropped

	case addr >= 0xFE00:
		m.oam[addr-0xFE00] = value

	case addr >= 0xE000:
		m.wram[addr-0xE000] = value

	case addr >= 0xC000:
		m.wram[addr-0xC000] = value

	case addr >= 0xA000:
		return m.writeCartridge(addr, value)

	case addr >= 0x8000:
		m.vram[addr-0x8000] = value

	default:
		return m.writeCartridge(addr, value)
	}
	return nil
}

func (m *AddressSpace) readCartridge(addr uint16) (uint8, error) {
	if m.cartridge == nil {
		return 0, fmt.Errorf("%w: no cartridge at 0x%04X", ErrInvalidAddress, addr)
	}
	return m.cartridge.Read(addr)
}

func (m *AddressSpace) writeCartridge(addr uint16, value uint8) error {
	if m.cartridge == nil {
		return fmt.Errorf("%w: no cartridge at 0x%04X", ErrIllegalWrite, addr)
	}
	return m.cartridge.Write(addr, value)
}

func highRAM(addr uint16) error {
	return fmt.Errorf("%w: 0x%04X belongs to the CPU", ErrInvalidAddress, addr)
}

// Reset clears all RAM and remaps the boot image while keeping the cartridge.
// Note: Cartridge RAM is not cleared as it may be battery-backed.
func (m *AddressSpace) Reset() {
	clear(m.vram[:])
	clear(m.wram[:])
	clear(m.oam[:])
	m.bootStatus = 0
}
