package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// LDA exposes every addressing mode this CPU supports except Indirect and
// Relative (which only JMP and the branch opcodes use), so it drives most
// of these tests.

func TestAddressing_Immediate(t *testing.T) {
	mem := newFlatMemory()
	mem.loadAt(0x8000, 0xA9, 0x42) // LDA #$42
	c := newTestCPU(mem, 0x8000)

	c.Step()

	assert.Equal(t, uint8(0x42), c.A)
	assert.Equal(t, uint16(0x8002), c.PC)
}

func TestAddressing_ZeroPage(t *testing.T) {
	mem := newFlatMemory()
	mem.data[0x0010] = 0x55
	mem.loadAt(0x8000, 0xA5, 0x10) // LDA $10
	c := newTestCPU(mem, 0x8000)

	c.Step()

	assert.Equal(t, uint8(0x55), c.A)
}

func TestAddressing_ZeroPageXWrapsWithinPageZero(t *testing.T) {
	mem := newFlatMemory()
	mem.data[0x007F] = 0x99 // (0x80 + 0xFF) & 0xFF wraps to 0x7F
	mem.loadAt(0x8000, 0xB5, 0x80) // LDA $80,X
	c := newTestCPU(mem, 0x8000)
	c.X = 0xFF

	c.Step()

	assert.Equal(t, uint8(0x99), c.A)
}

func TestAddressing_ZeroPageYAffectsLDX(t *testing.T) {
	mem := newFlatMemory()
	mem.data[0x0020] = 0x77
	mem.loadAt(0x8000, 0xB6, 0x10) // LDX $10,Y
	c := newTestCPU(mem, 0x8000)
	c.Y = 0x10

	c.Step()

	assert.Equal(t, uint8(0x77), c.X)
}

func TestAddressing_AbsoluteReadsFullSixteenBitAddress(t *testing.T) {
	mem := newFlatMemory()
	mem.data[0x1234] = 0xAB
	mem.loadAt(0x8000, 0xAD, 0x34, 0x12) // LDA $1234
	c := newTestCPU(mem, 0x8000)

	c.Step()

	assert.Equal(t, uint8(0xAB), c.A)
	assert.Equal(t, uint16(0x8003), c.PC)
}

func TestAddressing_AbsoluteXDetectsPageCrossing(t *testing.T) {
	mem := newFlatMemory()
	mem.data[0x1300] = 0x11 // $12FF + 1 crosses into page $13
	mem.loadAt(0x8000, 0xBD, 0xFF, 0x12) // LDA $12FF,X
	c := newTestCPU(mem, 0x8000)
	c.X = 0x01

	cycles := c.Step()

	assert.Equal(t, uint8(0x11), c.A)
	assert.Equal(t, uint64(5), cycles, "page-crossing read adds one cycle")
}

func TestAddressing_AbsoluteXNoCrossingStaysAtBaseCycles(t *testing.T) {
	mem := newFlatMemory()
	mem.data[0x1201] = 0x22
	mem.loadAt(0x8000, 0xBD, 0x00, 0x12) // LDA $1200,X
	c := newTestCPU(mem, 0x8000)
	c.X = 0x01

	cycles := c.Step()

	assert.Equal(t, uint8(0x22), c.A)
	assert.Equal(t, uint64(4), cycles)
}

func TestAddressing_AbsoluteYAffectsLDA(t *testing.T) {
	mem := newFlatMemory()
	mem.data[0x2005] = 0x33
	mem.loadAt(0x8000, 0xB9, 0x00, 0x20) // LDA $2000,Y
	c := newTestCPU(mem, 0x8000)
	c.Y = 0x05

	c.Step()

	assert.Equal(t, uint8(0x33), c.A)
}

func TestAddressing_IndexedIndirectWrapsPointerWithinPageZero(t *testing.T) {
	mem := newFlatMemory()
	mem.data[0x00FF] = 0x00 // low byte of the pointer, at $FE+X
	mem.data[0x0000] = 0x40 // high byte, read from the wrapped pointer+1
	mem.data[0x4000] = 0x5A
	mem.loadAt(0x8000, 0xA1, 0xFE) // LDA ($FE,X)
	c := newTestCPU(mem, 0x8000)
	c.X = 0x01

	c.Step()

	assert.Equal(t, uint8(0x5A), c.A)
}

func TestAddressing_IndirectIndexedAddsYAfterDereferencing(t *testing.T) {
	mem := newFlatMemory()
	mem.data[0x0010] = 0x00
	mem.data[0x0011] = 0x30
	mem.data[0x3005] = 0x7E
	mem.loadAt(0x8000, 0xB1, 0x10) // LDA ($10),Y
	c := newTestCPU(mem, 0x8000)
	c.Y = 0x05

	c.Step()

	assert.Equal(t, uint8(0x7E), c.A)
}

func TestAddressing_IndirectJMPFollowsPointer(t *testing.T) {
	mem := newFlatMemory()
	mem.data[0x3000] = 0x00
	mem.data[0x3001] = 0x40
	mem.loadAt(0x8000, 0x6C, 0x00, 0x30) // JMP ($3000)
	c := newTestCPU(mem, 0x8000)

	c.Step()

	assert.Equal(t, uint16(0x4000), c.PC)
}

func TestAddressing_IndirectJMPReproducesPageWrapBug(t *testing.T) {
	mem := newFlatMemory()
	// Pointer sits at the last byte of a page: the real 6502 fetches the
	// high byte from the start of that same page instead of the next one.
	mem.data[0x30FF] = 0x00
	mem.data[0x3000] = 0x40 // would be 0x3100 on hardware without the bug
	mem.data[0x3100] = 0x99 // decoy; must not be read
	mem.loadAt(0x8000, 0x6C, 0xFF, 0x30) // JMP ($30FF)
	c := newTestCPU(mem, 0x8000)

	c.Step()

	assert.Equal(t, uint16(0x4000), c.PC)
}

func TestAddressing_RelativeBranchForward(t *testing.T) {
	mem := newFlatMemory()
	mem.loadAt(0x8000, 0xF0, 0x05) // BEQ +5
	c := newTestCPU(mem, 0x8000)
	c.Z = true

	c.Step()

	assert.Equal(t, uint16(0x8007), c.PC)
}

func TestAddressing_RelativeBranchBackward(t *testing.T) {
	mem := newFlatMemory()
	mem.loadAt(0x8010, 0xF0, 0xFA) // BEQ -6
	c := newTestCPU(mem, 0x8010)
	c.Z = true

	c.Step()

	assert.Equal(t, uint16(0x800C), c.PC)
}

func TestAddressing_RelativeBranchPageCrossingAddsCycle(t *testing.T) {
	mem := newFlatMemory()
	// PC+2 lands at $81FE; +5 crosses from page $81 into page $82.
	mem.loadAt(0x81FC, 0xF0, 0x05) // BEQ +5
	c := newTestCPU(mem, 0x81FC)
	c.Z = true

	cycles := c.Step()

	assert.Equal(t, uint64(4), cycles, "taken branch (+1) crossing a page (+1) on top of the base 2")
}
