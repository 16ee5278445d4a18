// Package ioreg implements the I/O register page at 0xFF00-0xFF7F.
//
// The video and audio registers are named and stored but have no behavior.
// The joypad, serial port, timer and interrupt flag are live.
package ioreg

import (
	"fmt"
	"slices"
)

// Register is the address of an I/O register.
type Register uint16

// I/O register addresses.
const (
	P1   Register = 0xFF00 // Joypad
	SB   Register = 0xFF01 // Serial transfer data
	SC   Register = 0xFF02 // Serial transfer control
	DIV  Register = 0xFF04 // Divider
	TIMA Register = 0xFF05 // Timer counter
	TMA  Register = 0xFF06 // Timer modulo
	TAC  Register = 0xFF07 // Timer control
	IF   Register = 0xFF0F // Interrupt flag

	NR10 Register = 0xFF10 // Channel 1 sweep
	NR11 Register = 0xFF11 // Channel 1 length timer and duty cycle
	NR12 Register = 0xFF12 // Channel 1 volume and envelope
	NR13 Register = 0xFF13 // Channel 1 period low
	NR14 Register = 0xFF14 // Channel 1 period high and control
	NR21 Register = 0xFF16 // Channel 2 length timer and duty cycle
	NR22 Register = 0xFF17 // Channel 2 volume and envelope
	NR23 Register = 0xFF18 // Channel 2 period low
	NR24 Register = 0xFF19 // Channel 2 period high and control
	NR30 Register = 0xFF1A // Channel 3 DAC enable
	NR31 Register = 0xFF1B // Channel 3 length timer
	NR32 Register = 0xFF1C // Channel 3 output level
	NR33 Register = 0xFF1D // Channel 3 period low
	NR34 Register = 0xFF1E // Channel 3 period high and control
	NR41 Register = 0xFF20 // Channel 4 length timer
	NR42 Register = 0xFF21 // Channel 4 volume and envelope
	NR43 Register = 0xFF22 // Channel 4 frequency and randomness
	NR44 Register = 0xFF23 // Channel 4 control
	NR50 Register = 0xFF24 // Master volume and VIN panning
	NR51 Register = 0xFF25 // Sound panning
	NR52 Register = 0xFF26 // Sound on/off

	WaveRAMStart Register = 0xFF30
	WaveRAMEnd   Register = 0xFF3F

	LCDC Register = 0xFF40 // LCD control
	STAT Register = 0xFF41 // LCD status
	SCY  Register = 0xFF42 // Background viewport Y
	SCX  Register = 0xFF43 // Background viewport X
	LY   Register = 0xFF44 // LCD Y coordinate
	LYC  Register = 0xFF45 // LY compare
	DMA  Register = 0xFF46 // OAM DMA source address
	BGP  Register = 0xFF47 // Background palette
	OBP0 Register = 0xFF48 // Object palette 0
	OBP1 Register = 0xFF49 // Object palette 1
	WY   Register = 0xFF4A // Window Y position
	WX   Register = 0xFF4B // Window X position

	BOOT Register = 0xFF50 // Boot image unmap (handled by the address space)
)

var registerNames = map[Register]string{
	P1: "P1", SB: "SB", SC: "SC", DIV: "DIV", TIMA: "TIMA", TMA: "TMA", TAC: "TAC", IF: "IF",
	NR10: "NR10", NR11: "NR11", NR12: "NR12", NR13: "NR13", NR14: "NR14",
	NR21: "NR21", NR22: "NR22", NR23: "NR23", NR24: "NR24",
	NR30: "NR30", NR31: "NR31", NR32: "NR32", NR33: "NR33", NR34: "NR34",
	NR41: "NR41", NR42: "NR42", NR43: "NR43", NR44: "NR44",
	NR50: "NR50", NR51: "NR51", NR52: "NR52",
	LCDC: "LCDC", STAT: "STAT", SCY: "SCY", SCX: "SCX", LY: "LY", LYC: "LYC", DMA: "DMA",
	BGP: "BGP", OBP0: "OBP0", OBP1: "OBP1", WY: "WY", WX: "WX",
	BOOT: "BOOT",
}

func (r Register) String() string {
	if name, ok := registerNames[r]; ok {
		return name
	}
	if r >= WaveRAMStart && r <= WaveRAMEnd {
		return fmt.Sprintf("WAVE%X", uint16(r-WaveRAMStart))
	}
	return fmt.Sprintf("IO(0x%04X)", uint16(r))
}

// Named returns every named register in address order.
func Named() []Register {
	regs := make([]Register, 0, len(registerNames))
	for r := range registerNames {
		regs = append(regs, r)
	}
	slices.Sort(regs)
	return regs
}

// Interrupt bits of the IF register.
const (
	InterruptVBlank uint8 = 1 << 0
	InterruptLCD    uint8 = 1 << 1
	InterruptTimer  uint8 = 1 << 2
	InterruptSerial uint8 = 1 << 3
	InterruptJoypad uint8 = 1 << 4
)
