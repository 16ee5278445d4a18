package ioreg

import (
	"fmt"
	"strings"
)

// Button is one of the eight joypad buttons. The low nibble is the P1 bit
// the button clears; the group bit selects action or direction.
type Button uint8

// Joypad buttons.
const (
	ButtonA      Button = 0x01
	ButtonB      Button = 0x02
	ButtonSelect Button = 0x04
	ButtonStart  Button = 0x08
	ButtonRight  Button = 0x10 | 0x01
	ButtonLeft   Button = 0x10 | 0x02
	ButtonUp     Button = 0x10 | 0x04
	ButtonDown   Button = 0x10 | 0x08
)

var buttonNames = map[Button]string{
	ButtonA: "A", ButtonB: "B", ButtonSelect: "Select", ButtonStart: "Start",
	ButtonRight: "Right", ButtonLeft: "Left", ButtonUp: "Up", ButtonDown: "Down",
}

func (b Button) String() string {
	if name, ok := buttonNames[b]; ok {
		return name
	}
	return fmt.Sprintf("Button(0x%02X)", uint8(b))
}

// ParseButton looks up a button by name, ignoring case.
func ParseButton(name string) (Button, bool) {
	for b, n := range buttonNames {
		if strings.EqualFold(n, name) {
			return b, true
		}
	}
	return 0, false
}

var opposites = map[Button]Button{
	ButtonUp: ButtonDown, ButtonDown: ButtonUp,
	ButtonLeft: ButtonRight, ButtonRight: ButtonLeft,
}

func (b Button) direction() bool {
	return b&0x10 != 0
}

func (b Button) bit() uint8 {
	return uint8(b) & 0x0F
}

// Joypad holds the P1 select lines and the pressed buttons. With nothing
// pressed every input line reads high.
type Joypad struct {
	selectBits uint8 // P1 bits 4-5 as last written
	action     uint8 // pressed action buttons, one bit each
	direction  uint8 // pressed direction buttons, one bit each

	press func()
}

// NewJoypad creates a joypad that calls press when a button goes down.
func NewJoypad(press func()) *Joypad {
	return &Joypad{selectBits: 0x30, press: press}
}

// Read returns the P1 register value.
func (j *Joypad) Read() uint8 {
	lines := uint8(0x0F)
	if j.selectBits&0x20 == 0 {
		lines &^= j.action
	}
	if j.selectBits&0x10 == 0 {
		lines &^= j.direction
	}
	return 0xC0 | j.selectBits | lines
}

// Write updates the select lines (bits 4-5).
func (j *Joypad) Write(value uint8) {
	j.selectBits = value & 0x30
}

// Press marks a button as held. Opposite directions cannot be held together.
// Only a newly pressed button signals.
func (j *Joypad) Press(b Button) {
	if b.direction() {
		if j.direction&(opposites[b].bit()|b.bit()) != 0 {
			return
		}
		j.direction |= b.bit()
	} else {
		if j.action&b.bit() != 0 {
			return
		}
		j.action |= b.bit()
	}
	if j.press != nil {
		j.press()
	}
}

// Release marks a button as no longer held.
func (j *Joypad) Release(b Button) {
	if b.direction() {
		j.direction &^= b.bit()
	} else {
		j.action &^= b.bit()
	}
}

// Reset releases every button and deselects both groups.
func (j *Joypad) Reset() {
	j.selectBits = 0x30
	j.action = 0
	j.direction = 0
}
