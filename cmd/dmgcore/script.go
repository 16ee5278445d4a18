package main

import (
	"context"
	"os"

	"github.com/retroenv/retrogolib/log"

	"github.com/richardwooding/dmgcore/internal/emulator"
	"github.com/richardwooding/dmgcore/internal/script"
)

// ScriptCmd drives a ROM from a Lua script.
type ScriptCmd struct {
	ROM    string `arg:"" type:"existingfile" help:"Path to ROM file."`
	Script string `arg:"" type:"existingfile" help:"Path to Lua script."`
	Boot   bool   `help:"Start in the boot image instead of at 0x0100."`
}

// Run executes the script command.
func (c *ScriptCmd) Run(ctx context.Context, logger *log.Logger) error {
	emu, err := loadEmulator(c.ROM, emulator.Options{SkipBoot: !c.Boot, Logger: logger})
	if err != nil {
		return err
	}

	engine := script.New(emu, os.Stdout, logger)
	defer engine.Close()

	return engine.DoFile(ctx, c.Script)
}
