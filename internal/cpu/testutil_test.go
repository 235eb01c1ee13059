package cpu

// flatMemory is a flat 64KB address space used by the CPU tests in place
// of the real bus, so each test can poke exact bytes at exact addresses
// without caring about mirroring or mapper behavior.
type flatMemory struct {
	data [65536]uint8
}

func newFlatMemory() *flatMemory {
	return &flatMemory{}
}

func (m *flatMemory) Read(address uint16) uint8 {
	return m.data[address]
}

func (m *flatMemory) Write(address uint16, value uint8) {
	m.data[address] = value
}

// loadAt copies bytes into memory starting at address.
func (m *flatMemory) loadAt(address uint16, bytes ...uint8) {
	for i, b := range bytes {
		m.data[address+uint16(i)] = b
	}
}

// setResetVector points the 6502 reset vector at address.
func (m *flatMemory) setResetVector(address uint16) {
	m.data[0xFFFC] = uint8(address)
	m.data[0xFFFD] = uint8(address >> 8)
}

// newTestCPU returns a CPU wired to mem with PC set directly to start,
// bypassing the reset sequence so tests can drop a program at an
// arbitrary address without also staging a reset vector.
func newTestCPU(mem *flatMemory, start uint16) *CPU {
	c := New(mem)
	c.PC = start
	c.SP = 0xFD
	return c
}
