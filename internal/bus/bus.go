// Package bus implements the NES system bus: the single 16-bit CPU address
// space that ties RAM, the PPU and APU register windows, the controller
// port, and the cartridge together, plus the cycle-by-cycle coordination
// between CPU, PPU and APU that a dot-accurate bus has to drive.
package bus

import (
	"log"

	"github.com/harusamee/nes-emulator/internal/apu"
	"github.com/harusamee/nes-emulator/internal/cpu"
	"github.com/harusamee/nes-emulator/internal/input"
	"github.com/harusamee/nes-emulator/internal/neserr"
	"github.com/harusamee/nes-emulator/internal/ppu"
)

// CartridgeInterface is everything the bus needs from a loaded cartridge.
type CartridgeInterface interface {
	ReadPRG(address uint16) uint8
	WritePRG(address uint16, value uint8)
	ReadCHR(address uint16) uint8
	WriteCHR(address uint16, value uint8)
}

// Hooks lets an external observer watch bus-level events without the bus
// depending on it. A nil hook does nothing.
type Hooks interface {
	PreInstruction(c *cpu.CPU)
	OnFrame(p *ppu.PPU)
}

// Bus owns every NES component and the 2KB of internal RAM, and is the
// CPU's MemoryInterface: every CPU read/write is routed here first.
type Bus struct {
	CPU       *cpu.CPU
	PPU       *ppu.PPU
	APU       *apu.APU
	Input     *input.Controller
	cartridge CartridgeInterface

	ram          [0x800]uint8
	openBusValue uint8

	totalCycles uint64
	cpuCycles   uint64
	ppuCycles   uint64
	frameCount  uint64

	dmaSuspendCycles uint64
	dmaInProgress    bool
	nmiPending       bool

	oddFrame bool

	hooks Hooks
	debug bool
}

// New creates a bus with PPU, APU and controller wired, but no cartridge
// loaded. LoadCartridge must be called before the CPU is stepped.
func New() *Bus {
	b := &Bus{
		PPU:   ppu.New(),
		APU:   apu.New(),
		Input: input.New(),
	}
	b.CPU = cpu.New(b)
	b.PPU.SetNMICallback(b.triggerNMI)
	b.PPU.SetFrameCompleteCallback(b.handleFrameComplete)
	b.Reset()
	return b
}

// SetHooks installs the tracing hook set used by PreInstruction/OnFrame
// callbacks; pass nil to disable.
func (b *Bus) SetHooks(hooks Hooks) {
	b.hooks = hooks
	if hooks != nil {
		b.CPU.SetInstructionHook(hooks.PreInstruction)
	} else {
		b.CPU.SetInstructionHook(nil)
	}
}

// SetDebug gates the [BUS] diagnostic log lines.
func (b *Bus) SetDebug(enabled bool) {
	b.debug = enabled
}

// Reset resets every component and the bus's own timing state.
func (b *Bus) Reset() {
	b.CPU.Reset()
	b.PPU.Reset()
	b.APU.Reset()
	b.Input.Reset()

	b.totalCycles = 0
	b.cpuCycles = 0
	b.ppuCycles = 0
	b.frameCount = 0
	b.dmaSuspendCycles = 0
	b.dmaInProgress = false
	b.nmiPending = false
	b.oddFrame = false
}

// LoadCartridge attaches a cartridge and resets the system, since a new ROM
// means a new reset vector and a blank PPU nametable/palette state.
func (b *Bus) LoadCartridge(cart CartridgeInterface, mirror ppu.MirrorMode) {
	b.cartridge = cart
	b.PPU.SetCartridge(cart, mirror)
	b.Reset()
}

func (b *Bus) triggerNMI() {
	b.nmiPending = true
}

func (b *Bus) handleFrameComplete() {
	b.frameCount = b.PPU.GetFrameCount()
	if b.hooks != nil {
		b.hooks.OnFrame(b.PPU)
	}
}

// Read implements cpu.MemoryInterface: the full CPU address-decode switch.
func (b *Bus) Read(address uint16) uint8 {
	var value uint8

	switch {
	case address < 0x2000:
		value = b.ram[address&0x07FF]

	case address < 0x4000:
		value = b.PPU.ReadRegister(0x2000 + (address & 0x0007))

	case address < 0x4020:
		switch address {
		case 0x4015:
			value = b.APU.ReadStatus()
		case 0x4016:
			value = b.Input.Read()
		case 0x4017:
			value = 0 // no second controller
		default:
			value = b.openBusValue
		}

	case address < 0x6000:
		value = b.openBusValue

	default:
		if b.cartridge != nil {
			value = b.cartridge.ReadPRG(address)
		} else {
			value = b.openBusValue
		}
	}

	b.openBusValue = value
	return value
}

// Write implements cpu.MemoryInterface. A write aimed at $8000-$FFFF is a
// fatal bus fault: mapper 0 has no PRG-ROM write path, so this can only
// happen if a ROM (or this emulator) is doing something mapper 0 does not
// support.
func (b *Bus) Write(address uint16, value uint8) {
	switch {
	case address < 0x2000:
		b.ram[address&0x07FF] = value

	case address < 0x4000:
		b.PPU.WriteRegister(0x2000+(address&0x0007), value)

	case address < 0x4020:
		switch {
		case address == 0x4014:
			b.TriggerOAMDMA(value)
		case address == 0x4016:
			b.Input.Write(value)
		case address >= 0x4000 && address <= 0x4013:
			b.APU.WriteRegister(address, value)
		case address == 0x4015 || address == 0x4017:
			b.APU.WriteRegister(address, value)
		}
		// $4018-$401F (APU/IO test mode) ignored.

	case address < 0x6000:
		// Cartridge expansion area, unmapped on mapper 0.

	case address < 0x8000:
		b.cartridge.WritePRG(address, value)

	default:
		panic(neserr.NewBusFault(address, value, "write to PRG-ROM: mapper 0 has no write path above 0x8000"))
	}
}

// Step executes one CPU instruction (or, during an OAM DMA stall, consumes
// one suspended CPU cycle) and advances the PPU and APU by the matching
// number of cycles: 3 PPU dots and 1 APU cycle per CPU cycle.
func (b *Bus) Step() {
	var cpuCycles uint64

	if b.dmaSuspendCycles > 0 {
		cpuCycles = 1
		b.dmaSuspendCycles--
		if b.dmaSuspendCycles == 0 {
			b.dmaInProgress = false
		}
	} else {
		if b.nmiPending {
			b.CPU.TriggerNMI()
			b.nmiPending = false
		}
		cpuCycles = b.CPU.Step()
	}

	for i := uint64(0); i < cpuCycles*3; i++ {
		b.PPU.Step()
		b.ppuCycles++
	}
	for i := uint64(0); i < cpuCycles; i++ {
		b.APU.Step()
	}

	b.cpuCycles += cpuCycles
	b.totalCycles += cpuCycles
}

// TriggerOAMDMA performs the 256-byte OAM copy from CPU page sourcePage and
// stalls the CPU for 513 cycles (514 if the transfer starts on an odd CPU
// cycle), per the documented OAMDMA timing.
func (b *Bus) TriggerOAMDMA(sourcePage uint8) {
	if b.dmaInProgress {
		return
	}

	dmaCycles := uint64(513)
	if b.cpuCycles%2 == 1 {
		dmaCycles = 514
	}
	b.dmaInProgress = true
	b.dmaSuspendCycles = dmaCycles

	sourceAddress := uint16(sourcePage) << 8
	for i := 0; i < 256; i++ {
		b.PPU.WriteOAM(uint8(i), b.Read(sourceAddress+uint16(i)))
	}

	if b.debug {
		log.Printf("[BUS] OAM DMA from page 0x%02X, %d cycle stall", sourcePage, dmaCycles)
	}
}

// Run steps the bus until at least the given number of additional frames
// have completed.
func (b *Bus) Run(frames int) {
	target := b.frameCount + uint64(frames)
	for b.frameCount < target {
		b.Step()
	}
}

// RunCycles steps the bus until at least the given number of additional CPU
// cycles have elapsed.
func (b *Bus) RunCycles(cycles uint64) {
	target := b.cpuCycles + cycles
	for b.cpuCycles < target {
		b.Step()
	}
}

// Frame steps exactly one NTSC frame's worth of CPU cycles (29781, the
// integer approximation of 89342 PPU cycles / 3).
func (b *Bus) Frame() {
	target := b.cpuCycles + 29781
	for b.cpuCycles < target {
		b.Step()
	}
}

func (b *Bus) GetFrameBuffer() []uint32 {
	fb := b.PPU.GetFrameBuffer()
	return fb[:]
}

func (b *Bus) GetAudioSamples() []float32    { return b.APU.GetSamples() }
func (b *Bus) SetAudioSampleRate(rate int)   { b.APU.SetSampleRate(rate) }
func (b *Bus) GetCycleCount() uint64         { return b.cpuCycles }
func (b *Bus) GetFrameCount() uint64         { return b.frameCount }
func (b *Bus) IsDMAInProgress() bool         { return b.dmaInProgress }

// SetControllerButton sets a single button on the (only) controller.
func (b *Bus) SetControllerButton(button input.Button, pressed bool) {
	b.Input.SetButton(button, pressed)
}

// SetControllerButtons sets all eight buttons at once.
func (b *Bus) SetControllerButtons(buttons [8]bool) {
	b.Input.SetButtons(buttons)
}
