package cpu

import "github.com/richardwooding/dmgcore/internal/register"

// Logical, rotate and shift helpers. Additions and subtractions go through
// the register package's carrying and borrowing helpers instead.

// and performs bitwise AND with A and sets flags.
func (c *CPU) and(value uint8) {
	c.Registers.A &= value
	c.setFlags(c.Registers.A == 0, false, true, false)
}

// or performs bitwise OR with A and sets flags.
func (c *CPU) or(value uint8) {
	c.Registers.A |= value
	c.setFlags(c.Registers.A == 0, false, false, false)
}

// xor performs bitwise XOR with A and sets flags.
func (c *CPU) xor(value uint8) {
	c.Registers.A ^= value
	c.setFlags(c.Registers.A == 0, false, false, false)
}

// inc8 increments an 8-bit value. Carry is not affected.
func (c *CPU) inc8(value uint8) uint8 {
	carry := c.Registers.Flag(register.Carry)
	result := c.Registers.CarryingAdd8(value, 1)
	c.Registers.SetFlagTo(register.Carry, carry)
	return result
}

// dec8 decrements an 8-bit value. Carry is not affected.
func (c *CPU) dec8(value uint8) uint8 {
	carry := c.Registers.Flag(register.Carry)
	result := c.Registers.BorrowingSub8(value, 1)
	c.Registers.SetFlagTo(register.Carry, carry)
	return result
}

// addOffsetSP returns SP plus a signed displacement. H and C come from the
// unsigned addition of the low byte of SP and the displacement; Z and N are cleared.
func (c *CPU) addOffsetSP(offset int8) uint16 {
	sp := c.Registers.SP
	c.Registers.CarryingAdd8(uint8(sp), uint8(offset)) //nolint:gosec // G115: Low byte drives H and C
	c.Registers.ResetFlag(register.Zero)
	c.Registers.ResetFlag(register.Subtract)
	return uint16(int32(sp) + int32(offset)) //nolint:gosec // G115: Intentional for address calculation
}

// Rotate and shift helpers

// rlc rotates left, copying bit 7 into bit 0 and Carry.
func (c *CPU) rlc(value uint8) uint8 {
	carry := value >> 7
	result := value<<1 | carry
	c.setFlags(result == 0, false, false, carry == 1)
	return result
}

// rl rotates left through Carry.
func (c *CPU) rl(value uint8) uint8 {
	result := value<<1 | c.carryBit()
	c.setFlags(result == 0, false, false, value&0x80 != 0)
	return result
}

// rrc rotates right, copying bit 0 into bit 7 and Carry.
func (c *CPU) rrc(value uint8) uint8 {
	carry := value & 0x01
	result := value>>1 | carry<<7
	c.setFlags(result == 0, false, false, carry == 1)
	return result
}

// rr rotates right through Carry.
func (c *CPU) rr(value uint8) uint8 {
	result := value>>1 | c.carryBit()<<7
	c.setFlags(result == 0, false, false, value&0x01 != 0)
	return result
}

// sla shifts left arithmetic.
func (c *CPU) sla(value uint8) uint8 {
	result := value << 1
	c.setFlags(result == 0, false, false, value&0x80 != 0)
	return result
}

// sra shifts right arithmetic (preserves sign bit).
func (c *CPU) sra(value uint8) uint8 {
	result := value>>1 | value&0x80
	c.setFlags(result == 0, false, false, value&0x01 != 0)
	return result
}

// srl shifts right logical.
func (c *CPU) srl(value uint8) uint8 {
	result := value >> 1
	c.setFlags(result == 0, false, false, value&0x01 != 0)
	return result
}

// swap swaps upper and lower nibbles.
func (c *CPU) swap(value uint8) uint8 {
	result := value<<4 | value>>4
	c.setFlags(result == 0, false, false, false)
	return result
}

// bit tests a bit. Carry is not affected.
func (c *CPU) bit(value, index uint8) {
	c.Registers.SetFlagTo(register.Zero, value&(1<<index) == 0)
	c.Registers.ResetFlag(register.Subtract)
	c.Registers.SetFlag(register.HalfCarry)
}

// daa performs Decimal Adjust Accumulator (DAA) operation.
func (c *CPU) daa() {
	a := c.Registers.A

	if !c.Registers.Flag(register.Subtract) { //nolint:nestif // Complex nested logic is required for BCD adjustment
		// After addition
		if c.Registers.Flag(register.Carry) || a > 0x99 {
			a += 0x60
			c.Registers.SetFlag(register.Carry)
		}
		if c.Registers.Flag(register.HalfCarry) || (a&0x0F) > 0x09 {
			a += 0x06
		}
	} else {
		// After subtraction
		if c.Registers.Flag(register.Carry) {
			a -= 0x60
		}
		if c.Registers.Flag(register.HalfCarry) {
			a -= 0x06
		}
	}

	c.Registers.A = a
	c.Registers.SetFlagTo(register.Zero, a == 0)
	c.Registers.ResetFlag(register.HalfCarry)
}

func (c *CPU) carryBit() uint8 {
	if c.Registers.Flag(register.Carry) {
		return 1
	}
	return 0
}

func (c *CPU) setFlags(zero, subtract, halfCarry, carry bool) {
	c.Registers.SetFlagTo(register.Zero, zero)
	c.Registers.SetFlagTo(register.Subtract, subtract)
	c.Registers.SetFlagTo(register.HalfCarry, halfCarry)
	c.Registers.SetFlagTo(register.Carry, carry)
}
