package isa

import "github.com/richardwooding/dmgcore/internal/register"

// slots is the operand order encoded in the low three bits of most opcodes.
var slots = [8]Operand{
	Reg8(register.B),
	Reg8(register.C),
	Reg8(register.D),
	Reg8(register.E),
	Reg8(register.H),
	Reg8(register.L),
	Indirect(Reg16(register.HL), 0),
	Reg8(register.A),
}

// pairs is the register-pair order used by LD rr,d16, INC/DEC rr and ADD HL,rr.
var pairs = [4]register.Reg16{register.BC, register.DE, register.HL, register.SP}

// stackPairs is the register-pair order used by PUSH and POP.
var stackPairs = [4]register.Reg16{register.BC, register.DE, register.HL, register.AF}

// aluOps is the operation order of the 0x80-0xBF block and the d8 forms.
var aluOps = [8]Op{Add, Adc, Sub, Sbc, And, Xor, Or, Cp}

// IsIllegal reports whether an opcode has no defined behavior. Such opcodes
// decode to NOP.
func IsIllegal(opcode uint8) bool {
	switch opcode {
	case 0xD3, 0xDB, 0xDD, 0xE3, 0xE4, 0xEB, 0xEC, 0xED, 0xF4, 0xFC, 0xFD:
		return true
	}
	return false
}

var (
	regA  = Reg8(register.A)
	regHL = Reg16(register.HL)
	regSP = Reg16(register.SP)
	memHL = Indirect(regHL, 0)
)

// Decode maps a single-byte opcode to its instruction.
func Decode(opcode uint8) Instruction {
	var inst Instruction
	switch opcode >> 6 {
	case 0:
		inst = decodeBlock0(opcode)
	case 1:
		inst = decodeLoad(opcode)
	case 2:
		inst = Instruction{Op: aluOps[opcode>>3&7], Dst: regA, Src: slots[opcode&7]}
	default:
		inst = decodeBlock3(opcode)
	}
	inst.Opcode = uint16(opcode)
	return inst
}

// decodeBlock0 covers 0x00-0x3F.
func decodeBlock0(opcode uint8) Instruction {
	slot := slots[opcode>>3&7]
	pair := Reg16(pairs[opcode>>4&3])

	switch opcode & 0x07 {
	case 0x04:
		return Instruction{Op: Inc, Dst: slot}
	case 0x05:
		return Instruction{Op: Dec, Dst: slot}
	case 0x06:
		return Instruction{Op: Ld, Dst: slot, Src: Imm8()}
	}

	switch opcode & 0x0F {
	case 0x01:
		return Instruction{Op: Ld, Dst: pair, Src: Imm16()}
	case 0x03:
		return Instruction{Op: Inc, Dst: pair}
	case 0x09:
		return Instruction{Op: Add, Dst: regHL, Src: pair}
	case 0x0B:
		return Instruction{Op: Dec, Dst: pair}
	}

	switch opcode {
	case 0x00:
		return Instruction{Op: Nop}
	case 0x02:
		return Instruction{Op: Ld, Dst: Indirect(Reg16(register.BC), 0), Src: regA}
	case 0x07:
		return Instruction{Op: Rlca}
	case 0x08:
		return Instruction{Op: Ld, Dst: Indirect(Imm16(), 0), Src: regSP}
	case 0x0A:
		return Instruction{Op: Ld, Dst: regA, Src: Indirect(Reg16(register.BC), 0)}
	case 0x0F:
		return Instruction{Op: Rrca}
	case 0x10:
		return Instruction{Op: Stop, Src: Imm8()}
	case 0x12:
		return Instruction{Op: Ld, Dst: Indirect(Reg16(register.DE), 0), Src: regA}
	case 0x17:
		return Instruction{Op: Rla}
	case 0x18:
		return Instruction{Op: Jr, Dst: Imm8()}
	case 0x1A:
		return Instruction{Op: Ld, Dst: regA, Src: Indirect(Reg16(register.DE), 0)}
	case 0x1F:
		return Instruction{Op: Rra}
	case 0x20, 0x28, 0x30, 0x38:
		return Instruction{Op: Jr, Cond: Cond(Condition(opcode >> 3 & 3)), Dst: Imm8()}
	case 0x22:
		return Instruction{Op: Ldi, Dst: memHL, Src: regA}
	case 0x27:
		return Instruction{Op: Daa}
	case 0x2A:
		return Instruction{Op: Ldi, Dst: regA, Src: memHL}
	case 0x2F:
		return Instruction{Op: Cpl}
	case 0x32:
		return Instruction{Op: Ldd, Dst: memHL, Src: regA}
	case 0x37:
		return Instruction{Op: Scf}
	case 0x3A:
		return Instruction{Op: Ldd, Dst: regA, Src: memHL}
	default: // 0x3F
		return Instruction{Op: Ccf}
	}
}

// decodeLoad covers the LD r,r' block 0x40-0x7F, with HALT in place of LD (HL),(HL).
func decodeLoad(opcode uint8) Instruction {
	if opcode == 0x76 {
		return Instruction{Op: Halt}
	}
	return Instruction{Op: Ld, Dst: slots[opcode>>3&7], Src: slots[opcode&7]}
}

// decodeBlock3 covers 0xC0-0xFF.
func decodeBlock3(opcode uint8) Instruction {
	if IsIllegal(opcode) {
		return Instruction{Op: Nop}
	}

	cond := Cond(Condition(opcode >> 3 & 3))
	switch opcode & 0x0F {
	case 0x01:
		return Instruction{Op: Pop, Dst: Reg16(stackPairs[opcode>>4&3])}
	case 0x05:
		return Instruction{Op: Push, Src: Reg16(stackPairs[opcode>>4&3])}
	}

	switch opcode & 0x07 {
	case 0x06:
		return Instruction{Op: aluOps[opcode>>3&7], Dst: regA, Src: Imm8()}
	case 0x07:
		return Instruction{Op: Rst, Vector: uint16(opcode & 0x38)}
	}

	switch opcode {
	case 0xC0, 0xC8, 0xD0, 0xD8:
		return Instruction{Op: Ret, Cond: cond}
	case 0xC2, 0xCA, 0xD2, 0xDA:
		return Instruction{Op: Jp, Cond: cond, Dst: Imm16()}
	case 0xC4, 0xCC, 0xD4, 0xDC:
		return Instruction{Op: Call, Cond: cond, Dst: Imm16()}
	case 0xC3:
		return Instruction{Op: Jp, Dst: Imm16()}
	case 0xC9:
		return Instruction{Op: Ret}
	case 0xCB:
		return Instruction{Op: PrefixCB}
	case 0xCD:
		return Instruction{Op: Call, Dst: Imm16()}
	case 0xD9:
		return Instruction{Op: Reti}
	case 0xE0:
		return Instruction{Op: Ldh, Dst: Indirect(Imm8(), HighPage), Src: regA}
	case 0xE2:
		return Instruction{Op: Ld, Dst: Indirect(Reg8(register.C), HighPage), Src: regA}
	case 0xE8:
		return Instruction{Op: AddSP, Dst: regSP, Src: Imm8()}
	case 0xE9:
		return Instruction{Op: Jp, Dst: regHL}
	case 0xEA:
		return Instruction{Op: Ld, Dst: Indirect(Imm16(), 0), Src: regA}
	case 0xF0:
		return Instruction{Op: Ldh, Dst: regA, Src: Indirect(Imm8(), HighPage)}
	case 0xF2:
		return Instruction{Op: Ld, Dst: regA, Src: Indirect(Reg8(register.C), HighPage)}
	case 0xF3:
		return Instruction{Op: DI}
	case 0xF8:
		return Instruction{Op: LdHLSP, Dst: regHL, Src: Imm8()}
	case 0xF9:
		return Instruction{Op: Ld, Dst: regSP, Src: regHL}
	case 0xFA:
		return Instruction{Op: Ld, Dst: regA, Src: Indirect(Imm16(), 0)}
	default: // 0xFB
		return Instruction{Op: EI}
	}
}

// cbOps is the rotate/shift order of the first quarter of the 0xCB table.
var cbOps = [8]Op{Rlc, Rrc, Rl, Rr, Sla, Sra, Swap, Srl}

// DecodeExtended maps a 0xCB-prefixed opcode to its instruction. The low byte
// is the byte fetched after the prefix.
func DecodeExtended(opcode uint16) Instruction {
	low := uint8(opcode) //nolint:gosec // G115: second opcode byte
	target := slots[low&7]
	index := low >> 3 & 7

	var inst Instruction
	switch low >> 6 {
	case 0:
		inst = Instruction{Op: cbOps[index], Dst: target}
	case 1:
		inst = Instruction{Op: Bit, Dst: target, Bit: index}
	case 2:
		inst = Instruction{Op: Res, Dst: target, Bit: index}
	default:
		inst = Instruction{Op: Set, Dst: target, Bit: index}
	}
	inst.Opcode = 0xCB00 | uint16(low)
	return inst
}

// Fetch decodes the instruction at addr, reading its bytes through read. It
// returns the instruction and its full encoding, prefix byte included.
func Fetch(read func(addr uint16) (uint8, error), addr uint16) (Instruction, []byte, error) {
	opcode, err := read(addr)
	if err != nil {
		return Instruction{}, nil, err
	}
	encoding := []byte{opcode}

	if opcode == 0xCB {
		low, err := read(addr + 1)
		if err != nil {
			return Instruction{}, nil, err
		}
		encoding = append(encoding, low)
		return DecodeExtended(0xCB00 | uint16(low)), encoding, nil
	}

	inst := Decode(opcode)
	for i := 1; i < inst.Length(); i++ {
		b, err := read(addr + uint16(i)) //nolint:gosec // G115: instructions are at most 3 bytes
		if err != nil {
			return Instruction{}, nil, err
		}
		encoding = append(encoding, b)
	}
	return inst, encoding, nil
}

// Operands returns the immediate bytes of an encoding produced by Fetch.
func (i Instruction) Operands(encoding []byte) []byte {
	if i.Extended() || len(encoding) < 2 {
		return nil
	}
	return encoding[1:]
}
