// Package trace defines the hook interface the emulator core calls into for
// observability, so that the CPU and PPU stay decoupled from whatever is
// watching them - a logger, a disassembler, a debugger UI.
package trace

import (
	"log"

	"github.com/harusamee/nes-emulator/internal/cpu"
	"github.com/harusamee/nes-emulator/internal/ppu"
)

// Hooks receives callbacks at well-defined points in the core's execution.
// A nil hook anywhere in the pipeline means "nothing is watching"; the core
// never requires one to be set.
type Hooks interface {
	// PreInstruction fires immediately before the CPU fetches and executes
	// the instruction at its current PC.
	PreInstruction(c *cpu.CPU)

	// OnFrame fires once per completed PPU frame, with the PPU that just
	// finished it so an observer can pull the frame buffer or scanline
	// counters without the core keeping a separate notification channel.
	OnFrame(p *ppu.PPU)
}

// NopHooks implements Hooks with no-ops, for callers that want the
// interface without the nil checks.
type NopHooks struct{}

func (NopHooks) PreInstruction(*cpu.CPU) {}
func (NopHooks) OnFrame(*ppu.PPU)        {}

// Logger implements Hooks by writing one line per instruction to the
// standard logger, in the register/flag dump format CPU.State exposes.
// frameInterval controls how often OnFrame logs a frame marker, to keep
// multi-minute sessions from drowning in output; 0 logs every frame.
type Logger struct {
	frameInterval uint64
	frame         uint64
}

// NewLogger creates a Logger that prints a frame marker every
// frameInterval completed frames (0 means every frame).
func NewLogger(frameInterval uint64) *Logger {
	return &Logger{frameInterval: frameInterval}
}

func (l *Logger) PreInstruction(c *cpu.CPU) {
	a, x, y, sp, pc, flags := c.State()
	log.Printf("PC=$%04X A=$%02X X=$%02X Y=$%02X SP=$%02X %s", pc, a, x, y, sp, flags)
}

func (l *Logger) OnFrame(p *ppu.PPU) {
	l.frame++
	if l.frameInterval == 0 || l.frame%l.frameInterval == 0 {
		log.Printf("-- frame %d complete (ppu frame counter %d) --", l.frame, p.GetFrameCount())
	}
}
