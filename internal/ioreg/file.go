package ioreg

const (
	pageStart = 0xFF00
	pageSize  = 0x80

	serialStart = 0x80 // SC bit 7: transfer requested
)

// File is the I/O register page. It implements memory.IO.
//
// Registers without behavior keep the last value written. A serial
// transfer completes as soon as it is requested: the SB byte is appended to
// the captured output and SC bit 7 is cleared.
type File struct {
	regs [pageSize]uint8

	Timer  *Timer
	Joypad *Joypad

	serial []byte
}

// New creates an I/O register page with the timer and joypad attached.
func New() *File {
	f := &File{serial: make([]byte, 0, 1024)}
	f.Timer = NewTimer(func() { f.Request(InterruptTimer) })
	f.Joypad = NewJoypad(func() { f.Request(InterruptJoypad) })
	return f
}

// ReadRegister reads an I/O register.
func (f *File) ReadRegister(addr uint16) uint8 {
	reg := Register(addr)
	switch reg {
	case P1:
		return f.Joypad.Read()
	case DIV, TIMA, TMA, TAC:
		return f.Timer.Read(reg)
	case IF:
		return f.regs[addr-pageStart] | 0xE0 // Upper 3 bits read as 1
	default:
		return f.regs[addr-pageStart]
	}
}

// WriteRegister writes an I/O register.
func (f *File) WriteRegister(addr uint16, value uint8) {
	reg := Register(addr)
	switch reg {
	case P1:
		f.Joypad.Write(value)
	case DIV, TIMA, TMA, TAC:
		f.Timer.Write(reg, value)
	case SC:
		if value&serialStart != 0 {
			f.serial = append(f.serial, f.regs[SB-pageStart])
			value &^= serialStart
			f.Request(InterruptSerial)
		}
		f.regs[addr-pageStart] = value
	case IF:
		f.regs[addr-pageStart] = value & 0x1F
	default:
		f.regs[addr-pageStart] = value
	}
}

// Request raises an interrupt flag. Interrupts are recorded, not serviced.
func (f *File) Request(interrupt uint8) {
	f.regs[IF-pageStart] |= interrupt & 0x1F
}

// Tick advances the timer by the given number of clock cycles.
func (f *File) Tick(cycles uint16) {
	f.Timer.Tick(cycles)
}

// SerialOutput returns everything sent over the serial port so far.
func (f *File) SerialOutput() string {
	return string(f.serial)
}

// SerialLen returns the number of bytes sent over the serial port.
func (f *File) SerialLen() int {
	return len(f.serial)
}

// Reset clears every register and the captured serial output.
func (f *File) Reset() {
	clear(f.regs[:])
	f.serial = f.serial[:0]
	f.Timer.Reset()
	f.Joypad.Reset()
}
