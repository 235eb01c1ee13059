// Package app wires a cartridge, a bus, and a presentation backend into a
// runnable emulator session, and owns the JSON-backed Config that holds
// window, audio and input settings.
package app

import (
	"fmt"
	"time"

	"github.com/harusamee/nes-emulator/internal/bus"
	"github.com/harusamee/nes-emulator/internal/cartridge"
	"github.com/harusamee/nes-emulator/internal/neserr"
	"github.com/harusamee/nes-emulator/internal/ppu"
	"github.com/harusamee/nes-emulator/internal/trace"
)

// Backend is whatever presentation layer drives the emulation loop: an
// interactive Ebitengine window or a headless runner used by tests and
// automation.
type Backend interface {
	// Run blocks until the session ends, stepping bus once per displayed
	// frame (or as many times as the backend's own clock demands).
	Run(b *bus.Bus) error
}

// Application owns the emulated system and the backend presenting it.
type Application struct {
	config  *Config
	bus     *bus.Bus
	cart    *cartridge.Cartridge
	backend Backend

	startedAt time.Time
}

// New creates an application from config, with the bus wired but no
// cartridge loaded yet.
func New(config *Config) *Application {
	a := &Application{
		config: config,
		bus:    bus.New(),
	}
	if config.Debug.CPUTracing {
		a.bus.SetHooks(trace.NewLogger(uint64(config.Debug.TraceFrameInterval)))
		a.bus.SetDebug(true)
	}
	return a
}

// LoadROM parses an iNES file and attaches it to the bus, replacing any
// cartridge already loaded.
func (a *Application) LoadROM(path string) error {
	cart, err := cartridge.LoadFromFile(path)
	if err != nil {
		return fmt.Errorf("load ROM: %w", err)
	}
	a.cart = cart
	a.bus.LoadCartridge(cart, ppu.MirrorMode(cart.MirrorMode()))
	return nil
}

// SetBackend installs the presentation backend used by Run.
func (a *Application) SetBackend(backend Backend) {
	a.backend = backend
}

// Run hands control to the installed backend until the session ends. A
// fatal bus/PPU fault raised as a panic deep in a Step call is caught here,
// logged, and returned as an ordinary error: these faults mean the loaded
// ROM (or the emulator itself) did something mapper 0 or the PPU's address
// space does not support, not a condition the run loop can recover from
// mid-frame, but the process shouldn't die with a bare stack trace either.
func (a *Application) Run() (err error) {
	if a.backend == nil {
		return fmt.Errorf("no backend installed")
	}
	if a.cart == nil {
		return fmt.Errorf("no ROM loaded")
	}

	defer func() {
		if r := recover(); r != nil {
			switch fault := r.(type) {
			case *neserr.BusFault, *neserr.PPUFault:
				err = fmt.Errorf("fatal emulation fault: %v", fault)
			default:
				panic(r)
			}
		}
	}()

	a.startedAt = time.Now()
	return a.backend.Run(a.bus)
}

func (a *Application) Bus() *bus.Bus       { return a.bus }
func (a *Application) Config() *Config     { return a.config }
func (a *Application) Uptime() time.Duration {
	if a.startedAt.IsZero() {
		return 0
	}
	return time.Since(a.startedAt)
}
