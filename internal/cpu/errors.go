package cpu

import (
	"errors"
	"fmt"

	"github.com/richardwooding/dmgcore/internal/isa"
)

// ErrInvalidOperand indicates an instruction executed against an operand its
// semantics do not support.
var ErrInvalidOperand = errors.New("invalid operand")

// ExecError reports the instruction that stopped a run.
type ExecError struct {
	PC          uint16
	Opcode      uint16
	Instruction isa.Instruction
	Err         error

	fetch bool // failed before the instruction was decoded
}

func (e *ExecError) Error() string {
	if e.fetch {
		return fmt.Sprintf("fetching instruction at 0x%04X: %v", e.PC, e.Err)
	}
	if e.Opcode > 0xFF {
		return fmt.Sprintf("executing %s (opcode 0x%04X) at 0x%04X: %v", e.Instruction, e.Opcode, e.PC, e.Err)
	}
	return fmt.Sprintf("executing %s (opcode 0x%02X) at 0x%04X: %v", e.Instruction, e.Opcode, e.PC, e.Err)
}

func (e *ExecError) Unwrap() error {
	return e.Err
}
