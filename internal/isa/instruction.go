package isa

import (
	"fmt"
	"strings"
)

// Op identifies an instruction family.
type Op uint8

// Instruction families.
const (
	Nop Op = iota
	Stop
	Halt
	DI
	EI
	PrefixCB // 0xCB marker; never executed

	Ld     // LD dst,src (8 or 16 bit by operand kind)
	Ldi    // LD with HL post-increment
	Ldd    // LD with HL post-decrement
	Ldh    // LD through the 0xFF00 page
	LdHLSP // LD HL,SP+r8
	Push
	Pop

	Add
	Adc
	Sub
	Sbc
	And
	Xor
	Or
	Cp
	Inc
	Dec
	AddSP // ADD SP,r8
	Daa
	Cpl
	Scf
	Ccf

	Rlca
	Rla
	Rrca
	Rra
	Rlc
	Rrc
	Rl
	Rr
	Sla
	Sra
	Swap
	Srl
	Bit
	Res
	Set

	Jp
	Jr
	Call
	Ret
	Reti
	Rst
)

var opNames = [...]string{
	Nop: "NOP", Stop: "STOP", Halt: "HALT", DI: "DI", EI: "EI", PrefixCB: "PREFIX CB",
	Ld: "LD", Ldi: "LD", Ldd: "LD", Ldh: "LDH", LdHLSP: "LD", Push: "PUSH", Pop: "POP",
	Add: "ADD", Adc: "ADC", Sub: "SUB", Sbc: "SBC", And: "AND", Xor: "XOR", Or: "OR", Cp: "CP",
	Inc: "INC", Dec: "DEC", AddSP: "ADD", Daa: "DAA", Cpl: "CPL", Scf: "SCF", Ccf: "CCF",
	Rlca: "RLCA", Rla: "RLA", Rrca: "RRCA", Rra: "RRA",
	Rlc: "RLC", Rrc: "RRC", Rl: "RL", Rr: "RR", Sla: "SLA", Sra: "SRA", Swap: "SWAP", Srl: "SRL",
	Bit: "BIT", Res: "RES", Set: "SET",
	Jp: "JP", Jr: "JR", Call: "CALL", Ret: "RET", Reti: "RETI", Rst: "RST",
}

func (o Op) String() string {
	if int(o) < len(opNames) {
		return opNames[o]
	}
	return fmt.Sprintf("Op(%d)", uint8(o))
}

// Instruction is one decoded opcode. Cond is set for conditional control
// flow, Bit for BIT/RES/SET and Vector for RST.
type Instruction struct {
	Op     Op
	Opcode uint16 // raw opcode; 0xCBxx for the extended set
	Cond   Operand
	Dst    Operand
	Src    Operand
	Bit    uint8
	Vector uint16
}

// Extended reports whether the instruction came from the 0xCB table.
func (i Instruction) Extended() bool {
	return i.Opcode > 0xFF
}

// Length returns the encoded size of the instruction in bytes.
func (i Instruction) Length() int {
	if i.Extended() {
		return 2
	}
	return 1 + i.Cond.Size() + i.Dst.Size() + i.Src.Size()
}

// signedImmediate reports whether the Imm8 operand is a signed displacement.
func (i Instruction) signedImmediate() bool {
	return i.Op == Jr || i.Op == AddSP || i.Op == LdHLSP
}

// String returns assembler-style text with immediate placeholders.
func (i Instruction) String() string {
	imm8, imm16 := "d8", "d16"
	if i.signedImmediate() {
		imm8 = "r8"
	}
	if i.Op == Jp || i.Op == Call {
		imm16 = "a16"
	}
	return i.render(imm8, imm16)
}

// Disassemble renders the instruction with the immediate bytes that follow
// the opcode in the instruction stream.
func (i Instruction) Disassemble(operands []byte) string {
	imm8, imm16 := "d8", "d16"
	if len(operands) >= 1 {
		if i.signedImmediate() {
			imm8 = fmt.Sprintf("%+d", int8(operands[0]))
		} else {
			imm8 = fmt.Sprintf("$%02X", operands[0])
		}
	}
	if len(operands) >= 2 {
		imm16 = fmt.Sprintf("$%04X", uint16(operands[1])<<8|uint16(operands[0]))
	}
	return i.render(imm8, imm16)
}

func (i Instruction) render(imm8, imm16 string) string {
	var args []string

	switch i.Op {
	case Stop:
		return i.Op.String()
	case Rst:
		return fmt.Sprintf("RST 0x%02X", i.Vector)
	case Bit, Res, Set:
		return fmt.Sprintf("%s %d,%s", i.Op, i.Bit, i.Dst.format(imm8, imm16))
	case LdHLSP:
		return fmt.Sprintf("LD HL,SP%s", signPrefix(imm8))
	case Ldi, Ldd:
		suffix := "+"
		if i.Op == Ldd {
			suffix = "-"
		}
		for _, o := range []Operand{i.Dst, i.Src} {
			if o.Kind == KindIndirect {
				args = append(args, "(HL"+suffix+")")
			} else {
				args = append(args, o.format(imm8, imm16))
			}
		}
		return i.Op.String() + " " + strings.Join(args, ",")
	}

	operands := []Operand{i.Cond, i.Dst, i.Src}
	switch i.Op {
	case Sub, And, Xor, Or, Cp:
		// accumulator is implied
		operands = []Operand{i.Src}
	}
	for _, o := range operands {
		if !o.IsNone() {
			args = append(args, o.format(imm8, imm16))
		}
	}
	if len(args) == 0 {
		return i.Op.String()
	}
	return i.Op.String() + " " + strings.Join(args, ",")
}

func signPrefix(imm string) string {
	if strings.HasPrefix(imm, "+") || strings.HasPrefix(imm, "-") {
		return imm
	}
	return "+" + imm
}
