// Package cartridge implements iNES ROM loading and parsing for mapper 0
// (NROM) cartridges.
package cartridge

import (
	"encoding/binary"
	"io"
	"os"

	"github.com/harusamee/nes-emulator/internal/neserr"
)

// MirrorMode represents nametable mirroring mode.
type MirrorMode uint8

const (
	MirrorHorizontal MirrorMode = iota
	MirrorVertical
	MirrorFourScreen
)

// Mapper abstracts bank switching; mapper 0 is the only implementation, but
// the interface keeps Cartridge decoupled from it the way the bus is
// decoupled from the cartridge.
type Mapper interface {
	ReadPRG(address uint16) uint8
	WritePRG(address uint16, value uint8)
	ReadCHR(address uint16) uint8
	WriteCHR(address uint16, value uint8)
}

// Cartridge holds a parsed iNES image: PRG-ROM, CHR-ROM (or CHR-RAM),
// mirroring mode, and the mapper that decodes CPU/PPU addresses into it.
type Cartridge struct {
	prgROM []uint8
	chrROM []uint8

	mapperID uint8
	mapper   Mapper

	mirror MirrorMode

	hasBattery bool
	sram       [0x2000]uint8

	hasCHRRAM bool
}

type iNESHeader struct {
	Magic      [4]uint8
	PRGROMSize uint8
	CHRROMSize uint8
	Flags6     uint8
	Flags7     uint8
	PRGRAMSize uint8
	TVSystem1  uint8
	TVSystem2  uint8
	Padding    [5]uint8
}

// LoadFromFile loads a cartridge from an iNES file on disk.
func LoadFromFile(filename string) (*Cartridge, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return LoadFromReader(file)
}

// LoadFromReader parses an iNES image from r. Unsupported mappers and
// four-screen mirroring are fatal: only mapper 0 (NROM) with horizontal or
// vertical mirroring is implemented.
func LoadFromReader(r io.Reader) (*Cartridge, error) {
	var header iNESHeader
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return nil, err
	}

	if string(header.Magic[:]) != "NES\x1A" {
		return nil, neserr.NewCartridgeError("bad magic number, not an iNES file")
	}

	if header.PRGROMSize == 0 {
		return nil, neserr.NewCartridgeError("PRG-ROM size cannot be zero")
	}

	mapperID := (header.Flags6 >> 4) | (header.Flags7 & 0xF0)
	if mapperID != 0 {
		return nil, neserr.NewCartridgeError("unsupported mapper, only mapper 0 (NROM) is implemented")
	}

	if (header.Flags6 & 0x08) != 0 {
		return nil, neserr.NewCartridgeError("four-screen mirroring is not supported")
	}

	cart := &Cartridge{
		mapperID:   mapperID,
		hasBattery: (header.Flags6 & 0x02) != 0,
	}

	if (header.Flags6 & 0x01) != 0 {
		cart.mirror = MirrorVertical
	} else {
		cart.mirror = MirrorHorizontal
	}

	if (header.Flags6 & 0x04) != 0 {
		trainer := make([]uint8, 512)
		if _, err := io.ReadFull(r, trainer); err != nil {
			return nil, err
		}
	}

	prgSize := int(header.PRGROMSize) * 16384
	cart.prgROM = make([]uint8, prgSize)
	if _, err := io.ReadFull(r, cart.prgROM); err != nil {
		return nil, err
	}

	chrSize := int(header.CHRROMSize) * 8192
	if chrSize > 0 {
		cart.chrROM = make([]uint8, chrSize)
		if _, err := io.ReadFull(r, cart.chrROM); err != nil {
			return nil, err
		}
	} else {
		cart.chrROM = make([]uint8, 8192)
		cart.hasCHRRAM = true
	}

	cart.mapper = newNROMMapper(cart)

	return cart, nil
}

// ReadPRG reads from PRG ROM/RAM via the mapper.
func (c *Cartridge) ReadPRG(address uint16) uint8 { return c.mapper.ReadPRG(address) }

// WritePRG writes to PRG RAM via the mapper. The bus never routes a write
// above 0x8000 here - that region is read-only ROM and the bus raises a
// fatal fault itself before reaching the cartridge.
func (c *Cartridge) WritePRG(address uint16, value uint8) { c.mapper.WritePRG(address, value) }

// ReadCHR reads from CHR ROM/RAM via the mapper.
func (c *Cartridge) ReadCHR(address uint16) uint8 { return c.mapper.ReadCHR(address) }

// WriteCHR writes to CHR RAM via the mapper (no-op on real CHR-ROM).
func (c *Cartridge) WriteCHR(address uint16, value uint8) { c.mapper.WriteCHR(address, value) }

// MirrorMode returns the cartridge's nametable mirroring mode.
func (c *Cartridge) MirrorMode() MirrorMode { return c.mirror }
