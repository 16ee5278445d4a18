// Package isa decodes SM83 opcodes into structured instructions.
//
// Decoding is pure: the same opcode always yields the same Instruction and
// nothing outside the returned value is touched. Immediate operands are
// placeholders; the CPU fetches their bytes from the instruction stream
// (little-endian for 16-bit values) when the instruction executes.
package isa

import (
	"fmt"

	"github.com/richardwooding/dmgcore/internal/register"
)

// Kind tags what an Operand refers to.
type Kind uint8

// Operand kinds.
const (
	KindNone      Kind = iota
	KindReg8           // 8-bit register
	KindReg16          // register pair, SP or PC
	KindImm8           // byte following the opcode
	KindImm16          // little-endian word following the opcode
	KindIndirect       // memory at base + offset
	KindCondition      // branch condition
)

// Condition is a branch condition tested against the flags.
type Condition uint8

// Branch conditions, in opcode encoding order.
const (
	CondNZ Condition = iota
	CondZ
	CondNC
	CondC
)

var conditionNames = [...]string{"NZ", "Z", "NC", "C"}

func (c Condition) String() string {
	if int(c) < len(conditionNames) {
		return conditionNames[c]
	}
	return fmt.Sprintf("Condition(%d)", uint8(c))
}

// HighPage is the offset added by the LDH and LD (C) addressing forms.
const HighPage uint16 = 0xFF00

// Operand names the source or destination of an instruction.
//
// For KindIndirect, Base holds the kind of the nested address operand
// (a register, a pair or an immediate) and Offset is added to its value.
type Operand struct {
	Kind   Kind
	Reg8   register.Reg8
	Reg16  register.Reg16
	Cond   Condition
	Base   Kind
	Offset uint16
}

// Reg8 returns an operand naming an 8-bit register.
func Reg8(r register.Reg8) Operand {
	return Operand{Kind: KindReg8, Reg8: r}
}

// Reg16 returns an operand naming a register pair or SP/PC.
func Reg16(r register.Reg16) Operand {
	return Operand{Kind: KindReg16, Reg16: r}
}

// Imm8 returns an 8-bit immediate operand.
func Imm8() Operand {
	return Operand{Kind: KindImm8}
}

// Imm16 returns a 16-bit immediate operand.
func Imm16() Operand {
	return Operand{Kind: KindImm16}
}

// Cond returns a branch condition operand.
func Cond(c Condition) Operand {
	return Operand{Kind: KindCondition, Cond: c}
}

// Indirect returns a memory operand addressed by base plus offset.
func Indirect(base Operand, offset uint16) Operand {
	return Operand{
		Kind:   KindIndirect,
		Reg8:   base.Reg8,
		Reg16:  base.Reg16,
		Base:   base.Kind,
		Offset: offset,
	}
}

// IsNone reports whether the operand is absent.
func (o Operand) IsNone() bool {
	return o.Kind == KindNone
}

// BaseOperand returns the nested address operand of an indirect reference.
func (o Operand) BaseOperand() Operand {
	return Operand{Kind: o.Base, Reg8: o.Reg8, Reg16: o.Reg16}
}

// Size returns the number of instruction-stream bytes the operand consumes.
func (o Operand) Size() int {
	switch o.Kind {
	case KindImm8:
		return 1
	case KindImm16:
		return 2
	case KindIndirect:
		return o.BaseOperand().Size()
	default:
		return 0
	}
}

// String renders the operand in assembler notation with immediate placeholders.
func (o Operand) String() string {
	return o.format("d8", "d16")
}

func (o Operand) format(imm8, imm16 string) string {
	switch o.Kind {
	case KindNone:
		return ""
	case KindReg8:
		return o.Reg8.String()
	case KindReg16:
		return o.Reg16.String()
	case KindImm8:
		return imm8
	case KindImm16:
		return imm16
	case KindCondition:
		return o.Cond.String()
	case KindIndirect:
		base := o.BaseOperand()
		if imm8 == "d8" {
			imm8 = "a8"
		}
		if imm16 == "d16" {
			imm16 = "a16"
		}
		inner := base.format(imm8, imm16)
		if o.Offset != 0 {
			return fmt.Sprintf("(%s+0x%04X)", inner, o.Offset)
		}
		return "(" + inner + ")"
	default:
		return fmt.Sprintf("Operand(%d)", uint8(o.Kind))
	}
}
