// Package debugger implements a line-oriented machine monitor: register and
// memory inspection, single-stepping, breakpoints and disassembly over a
// running emulator.
package debugger

import (
	"strconv"
	"strings"

	"github.com/richardwooding/dmgcore/internal/register"
)

// Command is a parsed command with name and arguments.
type Command struct {
	Name string
	Args []string
}

// ParseCommand splits a raw input line into a command name and arguments.
func ParseCommand(input string) Command {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return Command{}
	}
	return Command{
		Name: strings.ToLower(parts[0]),
		Args: parts[1:],
	}
}

// ParseAddress parses a 16-bit value in one of the formats
// $hex, 0xhex, #decimal or bare hex.
func ParseAddress(s string) (uint16, bool) {
	s = strings.TrimSpace(s)
	base := 16
	switch {
	case s == "":
		return 0, false
	case strings.HasPrefix(s, "#"):
		s, base = s[1:], 10
	case strings.HasPrefix(s, "$"):
		s = s[1:]
	case strings.HasPrefix(s, "0x"), strings.HasPrefix(s, "0X"):
		s = s[2:]
	}
	v, err := strconv.ParseUint(s, base, 16)
	if err != nil {
		return 0, false
	}
	return uint16(v), true
}

// EvalAddress resolves a register name or a numeric address.
func EvalAddress(expr string, regs *register.Registers) (uint16, bool) {
	if r, ok := register.ParseReg16(expr); ok {
		return regs.Read16(r), true
	}
	return ParseAddress(expr)
}
