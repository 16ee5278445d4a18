// Package register implements the SM83 register file, its flag bits and the
// carry-aware arithmetic helpers every ALU instruction is routed through.
package register

import (
	"fmt"
	"strings"
)

// Reg8 names one of the eight 8-bit registers.
type Reg8 uint8

// 8-bit register names.
const (
	A Reg8 = iota
	B
	C
	D
	E
	F
	H
	L
)

var reg8Names = [...]string{"A", "B", "C", "D", "E", "F", "H", "L"}

func (r Reg8) String() string {
	if int(r) < len(reg8Names) {
		return reg8Names[r]
	}
	return fmt.Sprintf("Reg8(%d)", uint8(r))
}

// ParseReg8 looks up an 8-bit register by name, ignoring case.
func ParseReg8(name string) (Reg8, bool) {
	for i, n := range reg8Names {
		if strings.EqualFold(n, name) {
			return Reg8(i), true //nolint:gosec // G115: index into an eight-entry table
		}
	}
	return 0, false
}

// Reg16 names a register pair or one of the two 16-bit special registers.
type Reg16 uint8

// 16-bit register names. AF, BC, DE and HL are views over two 8-bit registers.
const (
	AF Reg16 = iota
	BC
	DE
	HL
	SP
	PC
)

var reg16Names = [...]string{"AF", "BC", "DE", "HL", "SP", "PC"}

func (r Reg16) String() string {
	if int(r) < len(reg16Names) {
		return reg16Names[r]
	}
	return fmt.Sprintf("Reg16(%d)", uint8(r))
}

// ParseReg16 looks up a register pair or SP/PC by name, ignoring case.
func ParseReg16(name string) (Reg16, bool) {
	for i, n := range reg16Names {
		if strings.EqualFold(n, name) {
			return Reg16(i), true //nolint:gosec // G115: index into a six-entry table
		}
	}
	return 0, false
}

// Flag is one of the four condition bits held in the upper nibble of F.
type Flag uint8

// Flag bits.
const (
	Zero      Flag = 0b10000000 // Zero flag (bit 7)
	Subtract  Flag = 0b01000000 // Subtraction flag (bit 6)
	HalfCarry Flag = 0b00100000 // Half-carry flag (bit 5)
	Carry     Flag = 0b00010000 // Carry flag (bit 4)
)

// flagMask covers the bits of F that carry meaning.
const flagMask uint8 = 0xF0

func (f Flag) String() string {
	switch f {
	case Zero:
		return "Z"
	case Subtract:
		return "N"
	case HalfCarry:
		return "H"
	case Carry:
		return "C"
	default:
		return fmt.Sprintf("Flag(%#02x)", uint8(f))
	}
}

// Post-boot values left behind by the DMG boot ROM.
const (
	PostBootAF uint16 = 0x01B0
	PostBootBC uint16 = 0x0013
	PostBootDE uint16 = 0x00D8
	PostBootHL uint16 = 0x014D
	PostBootSP uint16 = 0xFFFE
	PostBootPC uint16 = 0x0100
)

// Registers represents the SM83 CPU registers.
type Registers struct {
	A  uint8  // Accumulator
	F  uint8  // Flags (only upper 4 bits used)
	B  uint8  // General purpose
	C  uint8  // General purpose
	D  uint8  // General purpose
	E  uint8  // General purpose
	H  uint8  // General purpose (high byte of HL pointer)
	L  uint8  // General purpose (low byte of HL pointer)
	SP uint16 // Stack pointer
	PC uint16 // Program counter
}

// New creates a zeroed register file.
func New() *Registers {
	return &Registers{}
}

// Reset zeroes every register.
func (r *Registers) Reset() {
	*r = Registers{}
}

// PostBoot loads the register values the DMG boot ROM hands over to the cartridge.
func (r *Registers) PostBoot() {
	r.Write16(AF, PostBootAF)
	r.Write16(BC, PostBootBC)
	r.Write16(DE, PostBootDE)
	r.Write16(HL, PostBootHL)
	r.SP = PostBootSP
	r.PC = PostBootPC
}

// Read8 returns the value of an 8-bit register.
func (r *Registers) Read8(name Reg8) uint8 {
	switch name {
	case A:
		return r.A
	case B:
		return r.B
	case C:
		return r.C
	case D:
		return r.D
	case E:
		return r.E
	case F:
		return r.F
	case H:
		return r.H
	default:
		return r.L
	}
}

// Write8 stores a value into an 8-bit register. Writes to F drop the low nibble.
func (r *Registers) Write8(name Reg8, value uint8) {
	switch name {
	case A:
		r.A = value
	case B:
		r.B = value
	case C:
		r.C = value
	case D:
		r.D = value
	case E:
		r.E = value
	case F:
		r.F = value & flagMask
	case H:
		r.H = value
	default:
		r.L = value
	}
}

// Read16 returns a register pair (high byte first) or SP/PC.
func (r *Registers) Read16(name Reg16) uint16 {
	switch name {
	case AF:
		return join(r.A, r.F)
	case BC:
		return join(r.B, r.C)
	case DE:
		return join(r.D, r.E)
	case HL:
		return join(r.H, r.L)
	case SP:
		return r.SP
	default:
		return r.PC
	}
}

// Write16 unpacks a value into a register pair, or stores it into SP/PC.
func (r *Registers) Write16(name Reg16, value uint16) {
	hi, lo := split(value)
	switch name {
	case AF:
		r.A, r.F = hi, lo&flagMask
	case BC:
		r.B, r.C = hi, lo
	case DE:
		r.D, r.E = hi, lo
	case HL:
		r.H, r.L = hi, lo
	case SP:
		r.SP = value
	default:
		r.PC = value
	}
}

// Flag operations

// Flag checks if a flag is set.
func (r *Registers) Flag(flag Flag) bool {
	return r.F&uint8(flag) != 0
}

// SetFlag sets a flag to 1.
func (r *Registers) SetFlag(flag Flag) {
	r.F |= uint8(flag)
}

// ResetFlag sets a flag to 0.
func (r *Registers) ResetFlag(flag Flag) {
	r.F &^= uint8(flag)
}

// SetFlagTo sets a flag to a specific boolean value.
func (r *Registers) SetFlagTo(flag Flag, value bool) {
	if value {
		r.SetFlag(flag)
	} else {
		r.ResetFlag(flag)
	}
}

// String renders the register file in the layout used by trace output.
func (r *Registers) String() string {
	return fmt.Sprintf("A:%02X F:%s B:%02X C:%02X D:%02X E:%02X H:%02X L:%02X SP:%04X PC:%04X",
		r.A, r.flagString(), r.B, r.C, r.D, r.E, r.H, r.L, r.SP, r.PC)
}

func (r *Registers) flagString() string {
	out := []byte("----")
	for i, flag := range [...]Flag{Zero, Subtract, HalfCarry, Carry} {
		if r.Flag(flag) {
			out[i] = flag.String()[0]
		}
	}
	return string(out)
}

func join(hi, lo uint8) uint16 {
	return uint16(hi)<<8 | uint16(lo)
}

func split(value uint16) (hi, lo uint8) {
	return uint8(value >> 8), uint8(value) //nolint:gosec // G115: Intentional byte extraction from 16-bit register
}
