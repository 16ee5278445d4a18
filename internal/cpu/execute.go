package cpu

import (
	"fmt"

	"github.com/richardwooding/dmgcore/internal/isa"
	"github.com/richardwooding/dmgcore/internal/register"
)

// execute runs a decoded instruction. The opcode (and 0xCB prefix) has
// already been fetched; immediates are fetched here as operands resolve.
//
//nolint:gocyclo // One case per instruction family
func (c *CPU) execute(inst isa.Instruction) error {
	switch inst.Op {
	case isa.Nop:
		return nil

	case isa.Stop:
		// STOP is 2 bytes
		if _, err := c.fetchByte(); err != nil {
			return err
		}
		c.state = Stopped
		return nil

	case isa.Halt:
		c.state = Halted
		return nil

	case isa.DI:
		c.IME = false
		return nil

	case isa.EI:
		c.IME = true
		return nil

	case isa.PrefixCB:
		return fmt.Errorf("%w: the 0xCB prefix is not an executable instruction", ErrInvalidOperand)

	case isa.Ld, isa.Ldh:
		return c.ld(inst)

	case isa.Ldi:
		return c.ldHL(inst, 1)

	case isa.Ldd:
		return c.ldHL(inst, 0xFFFF)

	case isa.LdHLSP:
		offset, err := c.fetchOffset()
		if err != nil {
			return err
		}
		c.Registers.Write16(register.HL, c.addOffsetSP(offset))
		c.tick()
		return nil

	case isa.Push:
		value, err := c.load16(inst.Src)
		if err != nil {
			return err
		}
		c.tick()
		return c.push(value)

	case isa.Pop:
		if inst.Dst.Kind != isa.KindReg16 {
			return fmt.Errorf("%w: cannot pop into %q", ErrInvalidOperand, inst.Dst.String())
		}
		value, err := c.pop()
		if err != nil {
			return err
		}
		c.Registers.Write16(inst.Dst.Reg16, value)
		return nil

	case isa.Add:
		if wide(inst.Dst) {
			return c.addHL(inst.Src)
		}
		return c.alu(inst.Src, c.Registers.CarryingAdd8)

	case isa.Adc:
		return c.alu(inst.Src, c.Registers.AddWithCarry8)

	case isa.Sub:
		return c.alu(inst.Src, c.Registers.BorrowingSub8)

	case isa.Sbc:
		return c.alu(inst.Src, c.Registers.SubWithCarry8)

	case isa.And, isa.Xor, isa.Or, isa.Cp:
		return c.logic(inst)

	case isa.Inc, isa.Dec:
		return c.incDec(inst)

	case isa.AddSP:
		offset, err := c.fetchOffset()
		if err != nil {
			return err
		}
		c.Registers.SP = c.addOffsetSP(offset)
		c.tick()
		c.tick()
		return nil

	case isa.Daa:
		c.daa()
		return nil

	case isa.Cpl:
		c.Registers.A = ^c.Registers.A
		c.Registers.SetFlag(register.Subtract)
		c.Registers.SetFlag(register.HalfCarry)
		return nil

	case isa.Scf:
		c.Registers.ResetFlag(register.Subtract)
		c.Registers.ResetFlag(register.HalfCarry)
		c.Registers.SetFlag(register.Carry)
		return nil

	case isa.Ccf:
		c.Registers.ResetFlag(register.Subtract)
		c.Registers.ResetFlag(register.HalfCarry)
		c.Registers.SetFlagTo(register.Carry, !c.Registers.Flag(register.Carry))
		return nil

	case isa.Rlca, isa.Rla, isa.Rrca, isa.Rra:
		c.rotateA(inst.Op)
		return nil

	case isa.Rlc, isa.Rrc, isa.Rl, isa.Rr, isa.Sla, isa.Sra, isa.Swap, isa.Srl:
		return c.modify8(inst.Dst, c.shifter(inst.Op))

	case isa.Bit:
		value, err := c.load8(inst.Dst)
		if err != nil {
			return err
		}
		c.bit(value, inst.Bit)
		return nil

	case isa.Res:
		mask := ^(uint8(1) << inst.Bit)
		return c.modify8(inst.Dst, func(v uint8) uint8 { return v & mask })

	case isa.Set:
		mask := uint8(1) << inst.Bit
		return c.modify8(inst.Dst, func(v uint8) uint8 { return v | mask })

	case isa.Jp:
		return c.jp(inst)

	case isa.Jr:
		return c.jr(inst)

	case isa.Call:
		return c.call(inst)

	case isa.Ret:
		return c.ret(inst)

	case isa.Reti:
		if err := c.returnFromCall(); err != nil {
			return err
		}
		c.IME = true
		return nil

	case isa.Rst:
		c.tick()
		if err := c.push(c.Registers.PC); err != nil {
			return err
		}
		c.Registers.PC = inst.Vector
		return nil

	default:
		return fmt.Errorf("%w: unknown operation %s", ErrInvalidOperand, inst.Op)
	}
}

// ld copies src to dst. A 16-bit operand on either side selects a 16-bit move.
func (c *CPU) ld(inst isa.Instruction) error {
	if wide(inst.Dst) || wide(inst.Src) {
		value, err := c.load16(inst.Src)
		if err != nil {
			return err
		}
		if inst.Dst.Kind == isa.KindReg16 && inst.Dst.Reg16 == register.SP && inst.Src.Kind == isa.KindReg16 {
			// LD SP,HL
			c.tick()
		}
		return c.store16(inst.Dst, value)
	}

	value, err := c.load8(inst.Src)
	if err != nil {
		return err
	}
	return c.store8(inst.Dst, value)
}

// ldHL performs an 8-bit load through (HL) and then adds delta to HL.
func (c *CPU) ldHL(inst isa.Instruction, delta uint16) error {
	value, err := c.load8(inst.Src)
	if err != nil {
		return err
	}
	if err := c.store8(inst.Dst, value); err != nil {
		return err
	}
	c.Registers.Write16(register.HL, c.Registers.Read16(register.HL)+delta)
	return nil
}

// alu applies an arithmetic helper to A and an 8-bit source.
func (c *CPU) alu(src isa.Operand, op func(x, y uint8) uint8) error {
	value, err := c.load8(src)
	if err != nil {
		return err
	}
	c.Registers.A = op(c.Registers.A, value)
	return nil
}

// logic handles AND, XOR, OR and CP against A.
func (c *CPU) logic(inst isa.Instruction) error {
	value, err := c.load8(inst.Src)
	if err != nil {
		return err
	}
	switch inst.Op {
	case isa.And:
		c.and(value)
	case isa.Xor:
		c.xor(value)
	case isa.Or:
		c.or(value)
	default:
		// CP discards the result
		c.Registers.BorrowingSub8(c.Registers.A, value)
	}
	return nil
}

// addHL adds a register pair to HL. Zero is not affected.
func (c *CPU) addHL(src isa.Operand) error {
	value, err := c.load16(src)
	if err != nil {
		return err
	}
	zero := c.Registers.Flag(register.Zero)
	hl := c.Registers.CarryingAdd16(c.Registers.Read16(register.HL), value)
	c.Registers.SetFlagTo(register.Zero, zero)
	c.Registers.Write16(register.HL, hl)
	c.tick()
	return nil
}

// incDec handles INC and DEC. The 16-bit forms touch no flags.
func (c *CPU) incDec(inst isa.Instruction) error {
	if inst.Dst.Kind == isa.KindReg16 {
		delta := uint16(1)
		if inst.Op == isa.Dec {
			delta = 0xFFFF
		}
		c.Registers.Write16(inst.Dst.Reg16, c.Registers.Read16(inst.Dst.Reg16)+delta)
		c.tick()
		return nil
	}

	if inst.Op == isa.Inc {
		return c.modify8(inst.Dst, c.inc8)
	}
	return c.modify8(inst.Dst, c.dec8)
}

// rotateA implements RLCA, RLA, RRCA and RRA as the register rotate applied
// to A. Unlike the 0xCB forms these always clear Zero.
func (c *CPU) rotateA(op isa.Op) {
	var fn func(uint8) uint8
	switch op {
	case isa.Rlca:
		fn = c.rlc
	case isa.Rla:
		fn = c.rl
	case isa.Rrca:
		fn = c.rrc
	default:
		fn = c.rr
	}
	c.Registers.A = fn(c.Registers.A)
	c.Registers.ResetFlag(register.Zero)
}

// shifter returns the helper for a 0xCB rotate or shift.
func (c *CPU) shifter(op isa.Op) func(uint8) uint8 {
	switch op {
	case isa.Rlc:
		return c.rlc
	case isa.Rrc:
		return c.rrc
	case isa.Rl:
		return c.rl
	case isa.Rr:
		return c.rr
	case isa.Sla:
		return c.sla
	case isa.Sra:
		return c.sra
	case isa.Swap:
		return c.swap
	default:
		return c.srl
	}
}

// taken reports whether a possibly conditional transfer is taken.
func (c *CPU) taken(cond isa.Operand) (bool, error) {
	if cond.IsNone() {
		return true, nil
	}
	return c.JumpAllowed(cond)
}

func (c *CPU) jp(inst isa.Instruction) error {
	if inst.Dst.Kind == isa.KindReg16 {
		// JP HL
		c.Registers.PC = c.Registers.Read16(inst.Dst.Reg16)
		return nil
	}

	addr, err := c.load16(inst.Dst)
	if err != nil {
		return err
	}
	ok, err := c.taken(inst.Cond)
	if err != nil || !ok {
		return err
	}
	c.Registers.PC = addr
	c.tick()
	return nil
}

func (c *CPU) jr(inst isa.Instruction) error {
	offset, err := c.fetchOffset()
	if err != nil {
		return err
	}
	ok, err := c.taken(inst.Cond)
	if err != nil || !ok {
		return err
	}
	c.Registers.PC = uint16(int32(c.Registers.PC) + int32(offset)) //nolint:gosec // G115: Intentional for address calculation
	c.tick()
	return nil
}

func (c *CPU) call(inst isa.Instruction) error {
	addr, err := c.load16(inst.Dst)
	if err != nil {
		return err
	}
	ok, err := c.taken(inst.Cond)
	if err != nil || !ok {
		return err
	}
	c.tick()
	if err := c.push(c.Registers.PC); err != nil {
		return err
	}
	c.Registers.PC = addr
	return nil
}

func (c *CPU) ret(inst isa.Instruction) error {
	if !inst.Cond.IsNone() {
		// condition check
		c.tick()
	}
	ok, err := c.taken(inst.Cond)
	if err != nil || !ok {
		return err
	}
	return c.returnFromCall()
}

// returnFromCall pops the return address into PC.
func (c *CPU) returnFromCall() error {
	addr, err := c.pop()
	if err != nil {
		return err
	}
	c.Registers.PC = addr
	c.tick()
	return nil
}
