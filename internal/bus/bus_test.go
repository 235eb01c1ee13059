package bus

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harusamee/nes-emulator/internal/cartridge"
	"github.com/harusamee/nes-emulator/internal/input"
	"github.com/harusamee/nes-emulator/internal/ppu"
)

func buildINES(prgFill uint8, resetLow, resetHigh uint8) []byte {
	prg := make([]byte, 16384)
	for i := range prg {
		prg[i] = prgFill
	}
	prg[0x3FFC], prg[0x3FFD] = resetLow, resetHigh

	data := append([]byte("NES\x1A"), 1, 1, 0, 0)
	data = append(data, make([]byte, 8)...)
	data = append(data, prg...)
	data = append(data, make([]byte, 8192)...)
	return data
}

func newTestBus(t *testing.T, prgFill uint8) *Bus {
	t.Helper()
	cart, err := cartridge.LoadFromReader(bytes.NewReader(buildINES(prgFill, 0x00, 0x80)))
	require.NoError(t, err)

	b := New()
	b.LoadCartridge(cart, ppu.MirrorHorizontal)
	return b
}

func TestBus_OAMDMAStallsCPU513Or514Cycles(t *testing.T) {
	b := newTestBus(t, 0xEA) // NOP

	b.Write(0x4014, 0x02) // trigger OAM DMA from page 0x02
	assert.True(t, b.IsDMAInProgress())

	start := b.GetCycleCount()
	for b.IsDMAInProgress() {
		b.Step()
	}
	elapsed := b.GetCycleCount() - start
	assert.True(t, elapsed == 513 || elapsed == 514, "expected 513 or 514 stalled cycles, got %d", elapsed)
}

func TestBus_WriteToPRGROMPanics(t *testing.T) {
	b := newTestBus(t, 0xEA)
	assert.Panics(t, func() {
		b.Write(0x8000, 0x42)
	})
}

func TestBus_ControllerStrobeShiftRoundTrip(t *testing.T) {
	b := newTestBus(t, 0xEA)
	b.Input.SetButton(input.ButtonA, true)
	b.Input.SetButton(input.ButtonRight, true)

	b.Write(0x4016, 0x01)
	b.Write(0x4016, 0x00)

	var bits [8]uint8
	for i := range bits {
		bits[i] = b.Read(0x4016) & 1
	}
	assert.Equal(t, [8]uint8{1, 0, 0, 0, 0, 0, 0, 1}, bits)
	assert.Equal(t, uint8(1), b.Read(0x4016)&1)
}

func TestBus_Port4017ReadIsAlwaysZero(t *testing.T) {
	b := newTestBus(t, 0xEA)
	assert.Equal(t, uint8(0), b.Read(0x4017))
}

func TestBus_RAMMirroring(t *testing.T) {
	b := newTestBus(t, 0xEA)
	b.Write(0x0000, 0x55)
	assert.Equal(t, uint8(0x55), b.Read(0x0800))
	assert.Equal(t, uint8(0x55), b.Read(0x1800))
}

func TestBus_FrameAdvancesFrameCounter(t *testing.T) {
	b := newTestBus(t, 0xEA)
	b.Frame()
	assert.GreaterOrEqual(t, b.GetFrameCount(), uint64(1))
	assert.Greater(t, b.GetCycleCount(), uint64(0))
}
