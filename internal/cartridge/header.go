// Package cartridge implements Game Boy cartridge loading and Memory Bank Controllers (MBCs).
package cartridge

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// Header represents the behaviour-relevant part of the cartridge header (0x0134-0x014F).
type Header struct {
	// Title (0x0134-0x0142), zero padding trimmed
	Title string

	// Manufacturer code (0x013F-0x0141), overlaps the title on newer cartridges
	ManufacturerCode string

	// CGB flag (0x0143): true only for 0xC0 (CGB only)
	CGB bool

	// New licensee code (0x0144-0x0145), two ASCII characters
	NewLicenseeCode string

	// Publisher looked up from the new licensee code
	Licensee string

	// SGB flag (0x0146): true only for 0x03
	SGB bool

	// Cartridge type (0x0147)
	CartridgeType CartridgeType

	// ROM size code (0x0148) and the bank count it names
	ROMSizeCode byte
	ROMBanks    int

	// RAM size code (0x0149) and the byte count it names
	RAMSizeCode byte
	RAMSize     int

	// Destination code (0x014A)
	Destination Destination

	// Old licensee code (0x014B)
	// 0x33 = Check new licensee code
	OldLicenseeCode byte

	// Mask ROM version (0x014C)
	Version byte

	// Header checksum (0x014D)
	HeaderChecksum byte

	// Global checksum (0x014E-0x014F), big-endian
	GlobalChecksum uint16
}

// Destination is the market a cartridge was sold in.
type Destination uint8

// Destination codes.
const (
	DestinationJapanese    Destination = 0x00
	DestinationNonJapanese Destination = 0x01
	DestinationUnknown     Destination = 0xFF
)

func (d Destination) String() string {
	switch d {
	case DestinationJapanese:
		return "Japanese"
	case DestinationNonJapanese:
		return "Non-Japanese"
	default:
		return "Unknown"
	}
}

// CartridgeType represents the type of cartridge and MBC.
//
//nolint:revive // CartridgeType is intentionally explicit for clarity
type CartridgeType byte

// Cartridge types as defined in the header at 0x0147.
const (
	TypeROMOnly                    CartridgeType = 0x00
	TypeMBC1                       CartridgeType = 0x01
	TypeMBC1RAM                    CartridgeType = 0x02
	TypeMBC1RAMBattery             CartridgeType = 0x03
	TypeMBC2                       CartridgeType = 0x05
	TypeMBC2Battery                CartridgeType = 0x06
	TypeROMRAM                     CartridgeType = 0x08
	TypeROMRAMBattery              CartridgeType = 0x09
	TypeMMM01                      CartridgeType = 0x0B
	TypeMMM01RAM                   CartridgeType = 0x0C
	TypeMMM01RAMBattery            CartridgeType = 0x0D
	TypeMBC3TimerBattery           CartridgeType = 0x0F
	TypeMBC3TimerRAMBattery        CartridgeType = 0x10
	TypeMBC3                       CartridgeType = 0x11
	TypeMBC3RAM                    CartridgeType = 0x12
	TypeMBC3RAMBattery             CartridgeType = 0x13
	TypeMBC5                       CartridgeType = 0x19
	TypeMBC5RAM                    CartridgeType = 0x1A
	TypeMBC5RAMBattery             CartridgeType = 0x1B
	TypeMBC5Rumble                 CartridgeType = 0x1C
	TypeMBC5RumbleRAM              CartridgeType = 0x1D
	TypeMBC5RumbleRAMBattery       CartridgeType = 0x1E
	TypeMBC6                       CartridgeType = 0x20
	TypeMBC7SensorRumbleRAMBattery CartridgeType = 0x22
	TypePocketCamera               CartridgeType = 0xFC
	TypeBandaiTAMA5                CartridgeType = 0xFD
	TypeHuC3                       CartridgeType = 0xFE
	TypeHuC1RAMBattery             CartridgeType = 0xFF
)

var typeNames = map[CartridgeType]string{
	TypeROMOnly:                    "ROM ONLY",
	TypeMBC1:                       "MBC1",
	TypeMBC1RAM:                    "MBC1+RAM",
	TypeMBC1RAMBattery:             "MBC1+RAM+BATTERY",
	TypeMBC2:                       "MBC2",
	TypeMBC2Battery:                "MBC2+BATTERY",
	TypeROMRAM:                     "ROM+RAM",
	TypeROMRAMBattery:              "ROM+RAM+BATTERY",
	TypeMMM01:                      "MMM01",
	TypeMMM01RAM:                   "MMM01+RAM",
	TypeMMM01RAMBattery:            "MMM01+RAM+BATTERY",
	TypeMBC3TimerBattery:           "MBC3+TIMER+BATTERY",
	TypeMBC3TimerRAMBattery:        "MBC3+TIMER+RAM+BATTERY",
	TypeMBC3:                       "MBC3",
	TypeMBC3RAM:                    "MBC3+RAM",
	TypeMBC3RAMBattery:             "MBC3+RAM+BATTERY",
	TypeMBC5:                       "MBC5",
	TypeMBC5RAM:                    "MBC5+RAM",
	TypeMBC5RAMBattery:             "MBC5+RAM+BATTERY",
	TypeMBC5Rumble:                 "MBC5+RUMBLE",
	TypeMBC5RumbleRAM:              "MBC5+RUMBLE+RAM",
	TypeMBC5RumbleRAMBattery:       "MBC5+RUMBLE+RAM+BATTERY",
	TypeMBC6:                       "MBC6",
	TypeMBC7SensorRumbleRAMBattery: "MBC7+SENSOR+RUMBLE+RAM+BATTERY",
	TypePocketCamera:               "POCKET CAMERA",
	TypeBandaiTAMA5:                "BANDAI TAMA5",
	TypeHuC3:                       "HuC3",
	TypeHuC1RAMBattery:             "HuC1+RAM+BATTERY",
}

// String returns a human-readable name for the cartridge type.
func (t CartridgeType) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("UNKNOWN (0x%02X)", byte(t))
}

// HasRAM returns true if the cartridge type includes external RAM.
// MBC2 carries its own RAM and is handled by the controller.
func (t CartridgeType) HasRAM() bool {
	switch t {
	case TypeMBC1RAM, TypeMBC1RAMBattery,
		TypeROMRAM, TypeROMRAMBattery,
		TypeMMM01RAM, TypeMMM01RAMBattery,
		TypeMBC3TimerRAMBattery, TypeMBC3RAM, TypeMBC3RAMBattery,
		TypeMBC5RAM, TypeMBC5RAMBattery,
		TypeMBC5RumbleRAM, TypeMBC5RumbleRAMBattery,
		TypeMBC7SensorRumbleRAMBattery,
		TypeHuC1RAMBattery:
		return true
	default:
		return false
	}
}

// HasBattery returns true if the cartridge type includes a battery for save data.
func (t CartridgeType) HasBattery() bool {
	switch t {
	case TypeMBC1RAMBattery,
		TypeMBC2Battery,
		TypeROMRAMBattery,
		TypeMMM01RAMBattery,
		TypeMBC3TimerBattery, TypeMBC3TimerRAMBattery, TypeMBC3RAMBattery,
		TypeMBC5RAMBattery, TypeMBC5RumbleRAMBattery,
		TypeMBC7SensorRumbleRAMBattery,
		TypeHuC1RAMBattery:
		return true
	default:
		return false
	}
}

// HasTimer returns true if the cartridge carries an MBC3 real-time clock.
func (t CartridgeType) HasTimer() bool {
	return t == TypeMBC3TimerBattery || t == TypeMBC3TimerRAMBattery
}

// HasRumble returns true for MBC5 cartridges with a rumble motor.
func (t CartridgeType) HasRumble() bool {
	return t == TypeMBC5Rumble || t == TypeMBC5RumbleRAM || t == TypeMBC5RumbleRAMBattery
}

// romBankCounts maps the ROM size code to a bank count.
var romBankCounts = map[byte]int{
	0x00: 0, 0x01: 4, 0x02: 8, 0x03: 16, 0x04: 32, 0x05: 64, 0x06: 128,
	0x07: 256, 0x08: 512, 0x52: 72, 0x53: 80, 0x54: 96,
}

// ramSizes maps the RAM size code to a size in bytes.
var ramSizes = map[byte]int{
	0x00: 0, 0x01: 2048, 0x02: 8192, 0x03: 32768, 0x04: 131072, 0x05: 65536,
}

// ParseHeader parses the cartridge header from ROM data.
// Checksums are recorded but not enforced; see VerifyHeaderChecksum.
func ParseHeader(rom []byte) (*Header, error) {
	if len(rom) < 0x0150 {
		return nil, fmt.Errorf("%w: must be at least 336 bytes (0x0150), got %d", ErrInvalidROMSize, len(rom))
	}

	h := &Header{
		Title:            asciiField(rom[0x0134:0x0143]),
		ManufacturerCode: asciiField(rom[0x013F:0x0142]),
		CGB:              rom[0x0143] == 0xC0,
		NewLicenseeCode:  string(rom[0x0144:0x0146]),
		SGB:              rom[0x0146] == 0x03,
		CartridgeType:    CartridgeType(rom[0x0147]),
		ROMSizeCode:      rom[0x0148],
		RAMSizeCode:      rom[0x0149],
		OldLicenseeCode:  rom[0x014B],
		Version:          rom[0x014C],
		HeaderChecksum:   rom[0x014D],
		GlobalChecksum:   binary.BigEndian.Uint16(rom[0x014E:]),
	}

	h.Licensee = LicenseeName(h.NewLicenseeCode)
	h.ROMBanks = romBankCounts[h.ROMSizeCode]
	h.RAMSize = ramSizes[h.RAMSizeCode]

	switch rom[0x014A] {
	case 0x00:
		h.Destination = DestinationJapanese
	case 0x01:
		h.Destination = DestinationNonJapanese
	default:
		h.Destination = DestinationUnknown
	}

	return h, nil
}

// asciiField trims zero padding and anything non-printable from a header string.
func asciiField(data []byte) string {
	var sb strings.Builder
	for _, b := range data {
		if b == 0 {
			break
		}
		if b >= 0x20 && b < 0x7F {
			sb.WriteByte(b)
		}
	}
	return strings.TrimSpace(sb.String())
}

// VerifyHeaderChecksum verifies the header checksum.
// The checksum is calculated over bytes 0x0134-0x014C.
// Formula: checksum = 0; for each byte: checksum = checksum - byte - 1.
func (h *Header) VerifyHeaderChecksum(rom []byte) bool {
	return HeaderChecksum(rom) == h.HeaderChecksum
}

// HeaderChecksum computes the header checksum of a ROM image of at least 0x014D bytes.
func HeaderChecksum(rom []byte) byte {
	checksum := byte(0)
	for addr := 0x0134; addr <= 0x014C; addr++ {
		checksum = checksum - rom[addr] - 1
	}
	return checksum
}

// VerifyGlobalChecksum verifies the global checksum.
// The global checksum is a 16-bit checksum of the entire ROM excluding the checksum bytes.
// Note: Many commercial games have incorrect global checksums, so this is never enforced.
func (h *Header) VerifyGlobalChecksum(rom []byte) bool {
	sum := uint16(0)
	for i, b := range rom {
		// Skip the global checksum bytes at 0x014E-0x014F
		if i == 0x014E || i == 0x014F {
			continue
		}
		sum += uint16(b)
	}
	return sum == h.GlobalChecksum
}
