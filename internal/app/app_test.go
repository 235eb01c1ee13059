package app

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/harusamee/nes-emulator/internal/graphics"
)

// writeTestROM writes a minimal one-bank NROM image whose reset vector
// points at a stream of NOPs, and returns its path.
func writeTestROM(t *testing.T) string {
	t.Helper()

	prg := make([]byte, 16384)
	for i := range prg {
		prg[i] = 0xEA // NOP
	}
	prg[0x3FFC] = 0x00 // reset vector low -> $8000
	prg[0x3FFD] = 0x80 // reset vector high

	data := make([]byte, 0, 16+len(prg)+8192)
	data = append(data, []byte("NES\x1A")...)
	data = append(data, 1, 1, 0, 0)
	data = append(data, make([]byte, 8)...)
	data = append(data, prg...)
	data = append(data, make([]byte, 8192)...)

	f, err := os.CreateTemp(t.TempDir(), "test-*.nes")
	require.NoError(t, err)
	defer f.Close()
	_, err = f.Write(data)
	require.NoError(t, err)
	return f.Name()
}

func TestApplication_RunWithoutROMFails(t *testing.T) {
	a := New(NewConfig())
	a.SetBackend(graphics.NewHeadlessBackend(1))
	require.Error(t, a.Run())
}

func TestApplication_RunWithoutBackendFails(t *testing.T) {
	a := New(NewConfig())
	require.NoError(t, a.LoadROM(writeTestROM(t)))
	require.Error(t, a.Run())
}

func TestApplication_RunRecoversPRGROMWriteFault(t *testing.T) {
	prg := make([]byte, 16384)
	for i := range prg {
		prg[i] = 0xEA
	}
	prg[0] = 0x8D // STA $8000 (PRG-ROM write, always fatal on mapper 0)
	prg[1] = 0x00
	prg[2] = 0x80
	prg[0x3FFC], prg[0x3FFD] = 0x00, 0x80

	data := make([]byte, 0, 16+len(prg)+8192)
	data = append(data, []byte("NES\x1A")...)
	data = append(data, 1, 1, 0, 0)
	data = append(data, make([]byte, 8)...)
	data = append(data, prg...)
	data = append(data, make([]byte, 8192)...)

	f, err := os.CreateTemp(t.TempDir(), "fault-*.nes")
	require.NoError(t, err)
	_, err = f.Write(data)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	a := New(NewConfig())
	require.NoError(t, a.LoadROM(f.Name()))
	a.SetBackend(graphics.NewHeadlessBackend(1))
	require.Error(t, a.Run())
}

func TestApplication_HeadlessRunProducesFrames(t *testing.T) {
	a := New(NewConfig())
	require.NoError(t, a.LoadROM(writeTestROM(t)))

	backend := graphics.NewHeadlessBackend(2)
	a.SetBackend(backend)
	require.NoError(t, a.Run())

	require.Len(t, backend.LastFrameBuffer(), 256*240)
	require.GreaterOrEqual(t, a.Bus().GetFrameCount(), uint64(2))
}
