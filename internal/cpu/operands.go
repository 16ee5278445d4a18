package cpu

import (
	"fmt"

	"github.com/richardwooding/dmgcore/internal/isa"
)

// Operand access. Immediates are fetched from the instruction stream at the
// moment they are resolved, so each operand must be resolved exactly once.

// address resolves an indirect operand to its effective address.
func (c *CPU) address(op isa.Operand) (uint16, error) {
	if op.Kind != isa.KindIndirect {
		return 0, fmt.Errorf("%w: %s is not a memory reference", ErrInvalidOperand, op)
	}

	switch op.Base {
	case isa.KindReg8:
		return op.Offset + uint16(c.Registers.Read8(op.Reg8)), nil
	case isa.KindReg16:
		return op.Offset + c.Registers.Read16(op.Reg16), nil
	case isa.KindImm8:
		value, err := c.fetchByte()
		if err != nil {
			return 0, err
		}
		return op.Offset + uint16(value), nil
	case isa.KindImm16:
		value, err := c.fetchWord()
		if err != nil {
			return 0, err
		}
		return op.Offset + value, nil
	default:
		return 0, fmt.Errorf("%w: memory reference %s has no address", ErrInvalidOperand, op)
	}
}

// load8 reads an 8-bit source operand.
func (c *CPU) load8(op isa.Operand) (uint8, error) {
	switch op.Kind {
	case isa.KindReg8:
		return c.Registers.Read8(op.Reg8), nil
	case isa.KindImm8:
		return c.fetchByte()
	case isa.KindIndirect:
		addr, err := c.address(op)
		if err != nil {
			return 0, err
		}
		return c.read(addr)
	default:
		return 0, fmt.Errorf("%w: %q is not an 8-bit source", ErrInvalidOperand, op.String())
	}
}

// store8 writes an 8-bit destination operand.
func (c *CPU) store8(op isa.Operand, value uint8) error {
	switch op.Kind {
	case isa.KindReg8:
		c.Registers.Write8(op.Reg8, value)
		return nil
	case isa.KindIndirect:
		addr, err := c.address(op)
		if err != nil {
			return err
		}
		return c.write(addr, value)
	default:
		return fmt.Errorf("%w: %q is not an 8-bit destination", ErrInvalidOperand, op.String())
	}
}

// modify8 applies fn to an 8-bit register or memory operand and writes the
// result back, resolving the address once.
func (c *CPU) modify8(op isa.Operand, fn func(uint8) uint8) error {
	switch op.Kind {
	case isa.KindReg8:
		c.Registers.Write8(op.Reg8, fn(c.Registers.Read8(op.Reg8)))
		return nil
	case isa.KindIndirect:
		addr, err := c.address(op)
		if err != nil {
			return err
		}
		value, err := c.read(addr)
		if err != nil {
			return err
		}
		return c.write(addr, fn(value))
	default:
		return fmt.Errorf("%w: %q cannot be modified in place", ErrInvalidOperand, op.String())
	}
}

// load16 reads a 16-bit source operand.
func (c *CPU) load16(op isa.Operand) (uint16, error) {
	switch op.Kind {
	case isa.KindReg16:
		return c.Registers.Read16(op.Reg16), nil
	case isa.KindImm16:
		return c.fetchWord()
	default:
		return 0, fmt.Errorf("%w: %q is not a 16-bit source", ErrInvalidOperand, op.String())
	}
}

// store16 writes a 16-bit destination operand. Memory destinations are
// written low byte first.
func (c *CPU) store16(op isa.Operand, value uint16) error {
	switch op.Kind {
	case isa.KindReg16:
		c.Registers.Write16(op.Reg16, value)
		return nil
	case isa.KindIndirect:
		addr, err := c.address(op)
		if err != nil {
			return err
		}
		if err := c.write(addr, uint8(value)); err != nil { //nolint:gosec // G115: Intentional byte extraction
			return err
		}
		return c.write(addr+1, uint8(value>>8)) //nolint:gosec // G115: Intentional byte extraction
	default:
		return fmt.Errorf("%w: %q is not a 16-bit destination", ErrInvalidOperand, op.String())
	}
}

// wide reports whether an operand is 16 bits wide.
func wide(op isa.Operand) bool {
	return op.Kind == isa.KindReg16 || op.Kind == isa.KindImm16
}

// fetchOffset fetches a signed 8-bit displacement.
func (c *CPU) fetchOffset() (int8, error) {
	value, err := c.fetchByte()
	if err != nil {
		return 0, err
	}
	return int8(value), nil //nolint:gosec // G115: Intentional signed conversion for relative offset
}
