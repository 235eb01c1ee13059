// Package graphics implements the presentation backends an Application can
// drive: an interactive Ebitengine window and a headless backend for
// automation and tests.
package graphics

import (
	"github.com/harusamee/nes-emulator/internal/bus"
)

// HeadlessBackend runs the emulated system for a fixed number of frames with
// no window, no audio device and no input source, and exposes the final
// frame buffer. It's the backend automated runs and integration tests use.
type HeadlessBackend struct {
	Frames int

	lastFrameBuffer []uint32
}

// NewHeadlessBackend creates a backend that runs for the given frame count.
func NewHeadlessBackend(frames int) *HeadlessBackend {
	return &HeadlessBackend{Frames: frames}
}

// Run steps b for the configured number of frames and records the final
// frame buffer for inspection via LastFrameBuffer.
func (h *HeadlessBackend) Run(b *bus.Bus) error {
	b.Run(h.Frames)
	h.lastFrameBuffer = b.GetFrameBuffer()
	return nil
}

// LastFrameBuffer returns the 256x240 ARGB buffer from the last frame Run
// completed, or nil if Run hasn't been called.
func (h *HeadlessBackend) LastFrameBuffer() []uint32 {
	return h.lastFrameBuffer
}
