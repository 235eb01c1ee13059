// Package input implements the NES's strobe/shift-register controller
// protocol at $4016. A second controller is out of scope.
package input

// Button represents one of the eight NES controller buttons.
type Button uint8

const (
	ButtonA Button = 1 << iota
	ButtonB
	ButtonSelect
	ButtonStart
	ButtonUp
	ButtonDown
	ButtonLeft
	ButtonRight
)

// Controller is a single NES controller: an 8-bit button latch plus the
// strobe-driven shift register that serializes it one bit per read.
type Controller struct {
	buttons uint8

	strobe         bool
	buttonSnapshot uint8
	shiftRegister  uint8
	bitPosition    uint8
}

// New creates a Controller with no buttons held.
func New() *Controller {
	return &Controller{}
}

// SetButton sets or clears a single button.
func (c *Controller) SetButton(button Button, pressed bool) {
	if pressed {
		c.buttons |= uint8(button)
	} else {
		c.buttons &^= uint8(button)
	}
}

// SetButtons sets all eight buttons at once, in A,B,Select,Start,Up,Down,
// Left,Right order.
func (c *Controller) SetButtons(buttons [8]bool) {
	var b uint8
	order := [8]Button{ButtonA, ButtonB, ButtonSelect, ButtonStart, ButtonUp, ButtonDown, ButtonLeft, ButtonRight}
	for i, pressed := range buttons {
		if pressed {
			b |= uint8(order[i])
		}
	}
	c.buttons = b
}

// IsPressed reports whether button is currently held.
func (c *Controller) IsPressed(button Button) bool {
	return (c.buttons & uint8(button)) != 0
}

// Write handles a write to $4016: bit 0 is the strobe. While strobe is high
// the shift register is continuously reloaded from the live button state;
// the falling edge latches a snapshot and resets the shift index to 0.
func (c *Controller) Write(value uint8) {
	strobe := (value & 1) != 0
	fallingEdge := c.strobe && !strobe
	c.strobe = strobe

	if strobe {
		c.buttonSnapshot = c.buttons
		c.shiftRegister = c.buttons
		c.bitPosition = 0
	} else if fallingEdge {
		c.buttonSnapshot = c.buttons
		c.shiftRegister = c.buttonSnapshot
		c.bitPosition = 0
	}
}

// Read handles a read of $4016: while strobe is high it keeps returning
// button A; once low, it shifts one button bit out per call and returns 1
// once all eight bits have been consumed.
func (c *Controller) Read() uint8 {
	if c.strobe {
		c.bitPosition = 0
		return c.buttons & 1
	}

	if c.bitPosition >= 8 {
		return 1
	}

	bit := c.shiftRegister & 1
	c.shiftRegister >>= 1
	c.bitPosition++
	return bit
}

// Reset clears all controller state, as at power-on.
func (c *Controller) Reset() {
	*c = Controller{}
}
