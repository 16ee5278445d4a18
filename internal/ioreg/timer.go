package ioreg

// Timer is the DIV/TIMA/TMA/TAC block. DIV is the upper byte of a free
// running 16-bit counter; TIMA increments on each falling edge of the
// counter bit selected by TAC.
type Timer struct {
	counter uint16
	tima    uint8
	tma     uint8
	tac     uint8

	overflow func()
}

// TAC register bits.
const (
	tacEnable    = 0x04
	tacClockMask = 0x03
)

// timerBits maps the TAC clock select to the counter bit it watches:
// 4096 Hz, 262144 Hz, 65536 Hz and 16384 Hz.
var timerBits = [4]uint{9, 3, 5, 7}

// NewTimer creates a timer that calls overflow whenever TIMA wraps.
func NewTimer(overflow func()) *Timer {
	return &Timer{overflow: overflow}
}

// Read reads a timer register.
func (t *Timer) Read(reg Register) uint8 {
	switch reg {
	case DIV:
		return uint8(t.counter >> 8) //nolint:gosec // DIV is upper 8 bits
	case TIMA:
		return t.tima
	case TMA:
		return t.tma
	case TAC:
		return t.tac | 0xF8 // Upper 5 bits read as 1
	}
	return 0xFF
}

// Write writes a timer register. Resetting DIV or changing TAC can produce a
// falling edge on the watched bit, which increments TIMA.
func (t *Timer) Write(reg Register, value uint8) {
	switch reg {
	case DIV:
		before := t.signal()
		t.counter = 0
		t.edge(before)

	case TIMA:
		t.tima = value

	case TMA:
		t.tma = value

	case TAC:
		before := t.signal()
		t.tac = value & 0x07 // Only lower 3 bits are writable
		t.edge(before)
	}
}

// Tick advances the timer by the given number of clock cycles.
func (t *Timer) Tick(cycles uint16) {
	start := t.counter
	t.counter += cycles // uint16 wraparound matches the hardware counter

	if t.tac&tacEnable == 0 {
		return
	}
	for range t.fallingEdges(start, cycles) {
		t.increment()
	}
}

// fallingEdges counts the 1->0 transitions of the watched bit while the
// counter advances by cycles from start. Edges fall on multiples of
// 2^(bit+1).
func (t *Timer) fallingEdges(start, cycles uint16) uint32 {
	period := uint32(1) << (timerBits[t.tac&tacClockMask] + 1)
	from := uint32(start)
	to := from + uint32(cycles)
	return to/period - from/period
}

// signal returns the watched bit gated by the enable flag.
func (t *Timer) signal() bool {
	if t.tac&tacEnable == 0 {
		return false
	}
	return t.counter&(1<<timerBits[t.tac&tacClockMask]) != 0
}

func (t *Timer) edge(before bool) {
	if before && !t.signal() {
		t.increment()
	}
}

// increment advances TIMA, reloading TMA and signalling on overflow.
func (t *Timer) increment() {
	t.tima++
	if t.tima == 0 {
		t.tima = t.tma
		if t.overflow != nil {
			t.overflow()
		}
	}
}

// Reset clears all timer state.
func (t *Timer) Reset() {
	t.counter = 0
	t.tima = 0
	t.tma = 0
	t.tac = 0
}
