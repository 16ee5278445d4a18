package main

import (
	"fmt"

	"github.com/richardwooding/dmgcore/internal/cartridge"
	"github.com/richardwooding/dmgcore/internal/debugger"
	"github.com/richardwooding/dmgcore/internal/romfile"
)

// DisasmCmd statically disassembles a ROM image.
type DisasmCmd struct {
	ROM   string `arg:"" type:"existingfile" help:"Path to ROM file."`
	Start string `default:"$0100" help:"Address to start at ($hex, 0xhex or #decimal)."`
	Count int    `short:"n" default:"32" help:"Number of instructions."`
	Bank  int    `default:"1" help:"ROM bank shown at 0x4000-0x7FFF."`
}

// Run executes the disasm command.
func (c *DisasmCmd) Run() error {
	data, err := romfile.Load(c.ROM)
	if err != nil {
		return fmt.Errorf("failed to read ROM: %w", err)
	}

	start, ok := debugger.ParseAddress(c.Start)
	if !ok {
		return fmt.Errorf("invalid start address %q", c.Start)
	}

	read := romReader(data, c.Bank)
	addr := start
	for range c.Count {
		line, size, err := debugger.Disassemble(read, addr)
		if err != nil {
			return err
		}
		fmt.Println(line)
		addr += uint16(size) //nolint:gosec // G115: instructions are at most 3 bytes
		if addr < start {
			break
		}
	}
	return nil
}

// romReader maps the CPU view of the cartridge window onto the raw image,
// with bank selecting the switchable half.
func romReader(data []byte, bank int) func(uint16) (uint8, error) {
	return func(addr uint16) (uint8, error) {
		offset := int(addr)
		if addr >= 0x8000 {
			return 0, fmt.Errorf("%w: 0x%04X is outside the ROM window", cartridge.ErrInvalidAddress, addr)
		}
		if addr >= 0x4000 {
			offset = bank*0x4000 + int(addr-0x4000)
		}
		if offset >= len(data) {
			return 0, fmt.Errorf("%w: offset 0x%X beyond image", cartridge.ErrInvalidAddress, offset)
		}
		return data[offset], nil
	}
}
