package input

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestController_StrobeHighAlwaysReturnsButtonA(t *testing.T) {
	c := New()
	c.SetButton(ButtonA, true)
	c.SetButton(ButtonRight, true)
	c.Write(0x01)
	assert.Equal(t, uint8(1), c.Read())
	assert.Equal(t, uint8(1), c.Read())
	assert.Equal(t, uint8(1), c.Read())
}

func TestController_ShiftOrderAndOverread(t *testing.T) {
	c := New()
	c.SetButton(ButtonA, true)
	c.SetButton(ButtonRight, true)
	c.Write(0x01)
	c.Write(0x00)

	var bits [8]uint8
	for i := range bits {
		bits[i] = c.Read()
	}
	assert.Equal(t, [8]uint8{1, 0, 0, 0, 0, 0, 0, 1}, bits)

	for i := 0; i < 3; i++ {
		assert.Equal(t, uint8(1), c.Read())
	}
}

func TestController_SetButtonsArray(t *testing.T) {
	c := New()
	c.SetButtons([8]bool{true, false, false, false, false, false, false, true})
	assert.True(t, c.IsPressed(ButtonA))
	assert.True(t, c.IsPressed(ButtonRight))
	assert.False(t, c.IsPressed(ButtonB))
}

func TestController_Reset(t *testing.T) {
	c := New()
	c.SetButton(ButtonA, true)
	c.Write(0x01)
	c.Reset()
	assert.Equal(t, uint8(0), c.buttons)
	assert.False(t, c.strobe)
}
