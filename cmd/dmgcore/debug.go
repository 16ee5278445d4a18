package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/retroenv/retrogolib/log"
	"golang.org/x/term"

	"github.com/richardwooding/dmgcore/internal/debugger"
	"github.com/richardwooding/dmgcore/internal/emulator"
)

// DebugCmd opens an interactive monitor on a ROM.
type DebugCmd struct {
	ROM      string `arg:"" type:"existingfile" help:"Path to ROM file."`
	Boot     bool   `help:"Start in the boot image instead of at 0x0100."`
	Commands string `short:"c" type:"existingfile" help:"Run monitor commands from a file before reading input."`
}

// Run executes the debug command.
func (c *DebugCmd) Run(ctx context.Context, logger *log.Logger) error {
	emu, err := loadEmulator(c.ROM, emulator.Options{SkipBoot: !c.Boot, Logger: logger})
	if err != nil {
		return err
	}

	fd := int(os.Stdin.Fd()) //nolint:gosec // G115: file descriptors fit in int
	if !term.IsTerminal(fd) {
		mon := debugger.New(emu, os.Stdout, logger)
		quit, err := c.runCommandFile(ctx, mon)
		if err != nil || quit {
			return err
		}
		runLines(ctx, mon, os.Stdin)
		return nil
	}

	// Raw mode lets the line editor handle history and cursor keys itself.
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return fmt.Errorf("failed to set raw mode: %w", err)
	}
	defer func() { _ = term.Restore(fd, oldState) }()

	screen := struct {
		io.Reader
		io.Writer
	}{os.Stdin, os.Stdout}
	t := term.NewTerminal(screen, "dmg> ")
	if width, height, err := term.GetSize(fd); err == nil {
		_ = t.SetSize(width, height)
	}

	mon := debugger.New(emu, t, logger)
	quit, err := c.runCommandFile(ctx, mon)
	if err != nil || quit {
		return err
	}
	mon.ExecuteCommand(ctx, "r")
	mon.ExecuteCommand(ctx, "d pc 1")

	for {
		if ctx.Err() != nil {
			return nil
		}
		line, err := t.ReadLine()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading command: %w", err)
		}
		if mon.ExecuteCommand(ctx, line) {
			return nil
		}
	}
}

// runCommandFile executes the lines of the --commands file and reports
// whether one of them exited the monitor.
func (c *DebugCmd) runCommandFile(ctx context.Context, mon *debugger.Monitor) (bool, error) {
	if c.Commands == "" {
		return false, nil
	}
	f, err := os.Open(c.Commands)
	if err != nil {
		return false, fmt.Errorf("opening command file: %w", err)
	}
	defer func() { _ = f.Close() }()
	return runLines(ctx, mon, f), nil
}

// runLines feeds commands from r until input ends or a command exits,
// skipping blanks and # comments.
func runLines(ctx context.Context, mon *debugger.Monitor, r io.Reader) bool {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if mon.ExecuteCommand(ctx, line) {
			return true
		}
	}
	return false
}
