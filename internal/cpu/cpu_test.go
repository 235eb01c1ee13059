package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_StackPointerStartsAtPowerOnValue(t *testing.T) {
	c := New(newFlatMemory())
	assert.Equal(t, uint8(0xFD), c.SP)
}

func TestReset_LoadsPCFromResetVectorAndClearsRegisters(t *testing.T) {
	mem := newFlatMemory()
	mem.setResetVector(0xC000)

	c := New(mem)
	c.Reset()

	a, x, y, sp, pc, flags := c.State()
	assert.Equal(t, uint8(0), a)
	assert.Equal(t, uint8(0), x)
	assert.Equal(t, uint8(0), y)
	assert.Equal(t, uint8(0xFD), sp)
	assert.Equal(t, uint16(0xC000), pc)
	assert.Equal(t, "--B-I--", flags)
}

func TestStatusByte_RoundTripsThroughAllFlagBits(t *testing.T) {
	c := New(newFlatMemory())
	for _, status := range []uint8{0x00, 0xFF, 0x81, 0x42, 0x24} {
		c.SetStatusByte(status)
		// Bit 5 (unused) always reads back set regardless of what was written.
		require.Equal(t, status|0x20, c.GetStatusByte())
	}
}

func TestSetInstructionHook_FiresOnceBeforeEveryStep(t *testing.T) {
	mem := newFlatMemory()
	mem.loadAt(0x8000, 0xEA, 0xEA, 0xEA) // NOP NOP NOP

	c := newTestCPU(mem, 0x8000)

	var seen []uint16
	c.SetInstructionHook(func(cpu *CPU) {
		seen = append(seen, cpu.PC)
	})

	c.Step()
	c.Step()
	c.Step()

	assert.Equal(t, []uint16{0x8000, 0x8001, 0x8002}, seen)

	c.SetInstructionHook(nil)
	c.Step()
	assert.Len(t, seen, 3, "hook must not fire once cleared")
}

func TestStep_UnknownOpcodeIsTreatedAsTwoCycleNOP(t *testing.T) {
	mem := newFlatMemory()
	mem.loadAt(0x8000, 0x02) // unofficial opcode never wired into the table

	c := newTestCPU(mem, 0x8000)
	cycles := c.Step()

	assert.Equal(t, uint64(2), cycles)
	assert.Equal(t, uint16(0x8001), c.PC)
}

func TestState_ReportsAllRegistersAndFlagString(t *testing.T) {
	c := New(newFlatMemory())
	c.A, c.X, c.Y, c.SP, c.PC = 0x11, 0x22, 0x33, 0x44, 0x1234
	c.N, c.V, c.B, c.D, c.I, c.Z, c.C = true, false, true, false, true, false, true

	a, x, y, sp, pc, flags := c.State()
	assert.Equal(t, uint8(0x11), a)
	assert.Equal(t, uint8(0x22), x)
	assert.Equal(t, uint8(0x33), y)
	assert.Equal(t, uint8(0x44), sp)
	assert.Equal(t, uint16(0x1234), pc)
	assert.Equal(t, "N-B-I-C", flags)
}
