package cpu

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestSmoke_TightCountingLoopRunsToCompletion exercises a small but
// representative program (load, increment, compare, branch) end to end
// instead of single-instruction isolation, to catch interactions between
// addressing modes, flags, and branching that the unit tests above don't.
func TestSmoke_TightCountingLoopRunsToCompletion(t *testing.T) {
	mem := newFlatMemory()
	// LDX #0 ; loop: INX ; CPX #$64 ; BNE loop ; BRK
	mem.loadAt(0x8000,
		0xA2, 0x00, // LDX #$00
		0xE8,       // INX
		0xE0, 0x64, // CPX #$64
		0xD0, 0xFB, // BNE -5 (back to INX)
		0x00, // BRK
	)
	mem.data[irqVector] = 0x00
	mem.data[irqVector+1] = 0x90

	c := newTestCPU(mem, 0x8000)

	const maxSteps = 10_000
	steps := 0
	for c.PC != 0x9000 && steps < maxSteps {
		c.Step()
		steps++
	}

	require.Less(t, steps, maxSteps, "loop did not terminate")
	require.Equal(t, uint8(0x64), c.X)
	require.Equal(t, uint16(0x9000), c.PC)
}

func BenchmarkStep_ImmediateLoad(b *testing.B) {
	mem := newFlatMemory()
	mem.loadAt(0x8000, 0xA9, 0x42) // LDA #$42
	c := newTestCPU(mem, 0x8000)

	for i := 0; i < b.N; i++ {
		c.PC = 0x8000
		c.Step()
	}
}

func BenchmarkStep_CountingLoopIteration(b *testing.B) {
	mem := newFlatMemory()
	mem.loadAt(0x8000, 0xE8, 0xE0, 0x64, 0xD0, 0xFB) // INX ; CPX #$64 ; BNE loop
	c := newTestCPU(mem, 0x8000)

	for i := 0; i < b.N; i++ {
		c.PC = 0x8000
		c.Step()
		c.Step()
		c.Step()
	}
}
