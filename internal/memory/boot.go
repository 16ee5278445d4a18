package memory

// bootImage is mapped at 0x0000-0x00FF until BootStatus is written.
// It sets up the stack, clears video RAM, then writes 0x01 to 0xFF50 from
// its last four bytes so execution falls through to the cartridge at 0x0100.
var bootImage = [0x100]uint8{
	0x31, 0xFE, 0xFF, // LD SP,$FFFE
	0xAF,             // XOR A
	0x21, 0xFF, 0x9F, // LD HL,$9FFF
	0x32,       // LD (HL-),A
	0xCB, 0x7C, // BIT 7,H
	0x20, 0xFB, // JR NZ,-5

	0xFC: 0x3E, 0x01, // LD A,$01
	0xFE: 0xE0, 0x50, // LDH ($50),A
}

// BootImage returns a copy of the boot image.
func BootImage() [0x100]uint8 {
	return bootImage
}
