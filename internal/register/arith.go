package register

// Arithmetic helpers. Each computes the result of an operation and leaves
// all four flags describing it, so ALU instructions never derive flags ad hoc.
// Subtraction uses the conventional borrow polarity: Carry is set when the
// subtrahend exceeds the minuend, HalfCarry when the low nibble (8-bit) or
// low 12 bits (16-bit) had to borrow.

// CarryingAdd8 returns x+y and sets Z, H and C from the addition. N is cleared.
func (r *Registers) CarryingAdd8(x, y uint8) uint8 {
	return r.add8(x, y, 0)
}

// AddWithCarry8 returns x+y+Carry, folding the carry-in into both H and C.
func (r *Registers) AddWithCarry8(x, y uint8) uint8 {
	return r.add8(x, y, r.carryIn())
}

func (r *Registers) add8(x, y, carry uint8) uint8 {
	sum := uint16(x) + uint16(y) + uint16(carry)
	result := uint8(sum) //nolint:gosec // G115: Intentional truncation to 8 bits

	r.SetFlagTo(Zero, result == 0)
	r.ResetFlag(Subtract)
	r.SetFlagTo(HalfCarry, (x&0x0F)+(y&0x0F)+carry > 0x0F)
	r.SetFlagTo(Carry, sum > 0xFF)
	return result
}

// CarryingAdd16 returns x+y. H reflects a carry out of bit 11 and C a carry
// out of bit 15. Callers that must preserve Z save and restore it themselves.
func (r *Registers) CarryingAdd16(x, y uint16) uint16 {
	sum := uint32(x) + uint32(y)
	result := uint16(sum) //nolint:gosec // G115: Intentional truncation to 16 bits

	r.SetFlagTo(Zero, result == 0)
	r.ResetFlag(Subtract)
	r.SetFlagTo(HalfCarry, (x&0x0FFF)+(y&0x0FFF) > 0x0FFF)
	r.SetFlagTo(Carry, sum > 0xFFFF)
	return result
}

// BorrowingSub8 returns x-y and sets N along with Z, H and C for the borrow.
func (r *Registers) BorrowingSub8(x, y uint8) uint8 {
	return r.sub8(x, y, 0)
}

// SubWithCarry8 returns x-y-Carry, counting the carry-in as part of the borrow.
func (r *Registers) SubWithCarry8(x, y uint8) uint8 {
	return r.sub8(x, y, r.carryIn())
}

func (r *Registers) sub8(x, y, carry uint8) uint8 {
	diff := int(x) - int(y) - int(carry)
	result := uint8(diff) //nolint:gosec // G115: Intentional wraparound

	r.SetFlagTo(Zero, result == 0)
	r.SetFlag(Subtract)
	r.SetFlagTo(HalfCarry, int(x&0x0F)-int(y&0x0F)-int(carry) < 0)
	r.SetFlagTo(Carry, diff < 0)
	return result
}

// BorrowingSub16 returns x-y. H reflects a borrow into bit 12 and C a borrow
// past bit 15.
func (r *Registers) BorrowingSub16(x, y uint16) uint16 {
	result := x - y

	r.SetFlagTo(Zero, result == 0)
	r.SetFlag(Subtract)
	r.SetFlagTo(HalfCarry, x&0x0FFF < y&0x0FFF)
	r.SetFlagTo(Carry, x < y)
	return result
}

func (r *Registers) carryIn() uint8 {
	if r.Flag(Carry) {
		return 1
	}
	return 0
}
