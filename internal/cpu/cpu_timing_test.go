package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTiming_BaseCyclesPerAddressingMode(t *testing.T) {
	cases := []struct {
		name   string
		opcode []uint8
		setup  func(c *CPU)
		want   uint64
	}{
		{"immediate", []uint8{0xA9, 0x00}, nil, 2},
		{"zero page", []uint8{0xA5, 0x10}, nil, 3},
		{"zero page,X", []uint8{0xB5, 0x10}, nil, 4},
		{"absolute", []uint8{0xAD, 0x00, 0x20}, nil, 4},
		{"indexed indirect", []uint8{0xA1, 0x10}, nil, 6},
		{"indirect indexed", []uint8{0xB1, 0x10}, nil, 5},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, _ := program(tc.opcode, tc.setup)
			assert.Equal(t, tc.want, c.Step())
		})
	}
}

func TestTiming_StoreInstructionsAlwaysPayTheIndexedPenalty(t *testing.T) {
	// Unlike loads, STA $nnnn,X costs 5 cycles whether or not the write
	// actually crosses a page boundary.
	mem := newFlatMemory()
	mem.loadAt(0x8000, 0x9D, 0x00, 0x20) // STA $2000,X, no page crossing
	c := newTestCPU(mem, 0x8000)
	c.X = 0x01

	assert.Equal(t, uint64(5), c.Step())
}

func TestTiming_ReadInstructionsOnlyPayThePenaltyWhenCrossingAPage(t *testing.T) {
	mem := newFlatMemory()
	mem.loadAt(0x8000, 0xBD, 0x00, 0x20) // LDA $2000,X, no page crossing
	c := newTestCPU(mem, 0x8000)
	c.X = 0x01

	assert.Equal(t, uint64(4), c.Step())
}

func TestTiming_BranchNotTakenIsAlwaysTwoCycles(t *testing.T) {
	mem := newFlatMemory()
	mem.loadAt(0x8000, 0xF0, 0x7F) // BEQ +127, never taken
	c := newTestCPU(mem, 0x8000)
	c.Z = false

	assert.Equal(t, uint64(2), c.Step())
}

func TestTiming_BranchTakenWithoutPageCrossingIsThreeCycles(t *testing.T) {
	mem := newFlatMemory()
	mem.loadAt(0x8000, 0xF0, 0x05) // BEQ +5, stays within page $80
	c := newTestCPU(mem, 0x8000)
	c.Z = true

	assert.Equal(t, uint64(3), c.Step())
}

func TestTiming_JSRAndRTSEachTakeSixCycles(t *testing.T) {
	mem := newFlatMemory()
	mem.loadAt(0x8000, 0x20, 0x00, 0x90)
	mem.loadAt(0x9000, 0x60)
	c := newTestCPU(mem, 0x8000)

	assert.Equal(t, uint64(6), c.Step())
	assert.Equal(t, uint64(6), c.Step())
}

func TestTiming_BRKTakesSevenCycles(t *testing.T) {
	mem := newFlatMemory()
	mem.loadAt(0x8000, 0x00)
	c := newTestCPU(mem, 0x8000)

	assert.Equal(t, uint64(7), c.Step())
}

func TestTiming_UnofficialAbsoluteXNOPPaysThePageCrossingPenaltyToo(t *testing.T) {
	mem := newFlatMemory()
	mem.loadAt(0x8000, 0x1C, 0xFF, 0x20) // unofficial NOP $20FF,X
	c := newTestCPU(mem, 0x8000)
	c.X = 0x01

	assert.Equal(t, uint64(5), c.Step())
}

func TestTiming_FullInstructionTableHasNoGapsBelowOneCycle(t *testing.T) {
	c := New(newFlatMemory())
	documented := 0
	for _, instr := range c.instructions {
		if instr == nil {
			continue
		}
		assert.GreaterOrEqual(t, instr.Cycles, uint8(2), "every real 6502 opcode takes at least 2 cycles")
		documented++
	}
	assert.Greater(t, documented, 150, "the opcode table should cover the official set plus the common unofficial opcodes")
}
