// Package neserr collects the fatal, typed error values the emulator core can
// raise. These are the conditions spec.md marks as programmer/ROM errors rather
// than recoverable runtime events: a malformed cartridge, a write to PRG-ROM, or
// a PPU VRAM access outside its mapped window.
package neserr

import "fmt"

// CartridgeError reports a failure while parsing an iNES image.
type CartridgeError struct {
	Reason string
}

func (e *CartridgeError) Error() string {
	return fmt.Sprintf("cartridge: %s", e.Reason)
}

// NewCartridgeError builds a CartridgeError with the given reason.
func NewCartridgeError(reason string) *CartridgeError {
	return &CartridgeError{Reason: reason}
}

// BusFault reports an invalid access on the CPU memory bus: a write aimed at
// PRG-ROM, which has no write path on mapper 0.
type BusFault struct {
	Address uint16
	Value   uint8
	Reason  string
}

func (e *BusFault) Error() string {
	return fmt.Sprintf("bus fault at 0x%04X (value 0x%02X): %s", e.Address, e.Value, e.Reason)
}

// NewBusFault builds a BusFault for the given address/value pair.
func NewBusFault(address uint16, value uint8, reason string) *BusFault {
	return &BusFault{Address: address, Value: value, Reason: reason}
}

// PPUFault reports an invalid VRAM access outside the PPU's mapped
// $0000-$3FFF window.
type PPUFault struct {
	Address uint16
	Reason  string
}

func (e *PPUFault) Error() string {
	return fmt.Sprintf("ppu fault at 0x%04X: %s", e.Address, e.Reason)
}

// NewPPUFault builds a PPUFault for the given address.
func NewPPUFault(address uint16, reason string) *PPUFault {
	return &PPUFault{Address: address, Reason: reason}
}
