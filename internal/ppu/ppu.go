// Package ppu implements the NES Picture Processing Unit (2C02): register
// access, the 262-scanline/341-dot raster state machine, background and
// sprite compositing, and the nametable/palette RAM the CPU never sees
// directly.
package ppu

import (
	"log"

	"github.com/harusamee/nes-emulator/internal/neserr"
)

// MirrorMode selects how the four logical nametables fold onto the PPU's
// 2KB of physical VRAM. Four-screen cartridges are rejected at load time, so
// only the two mirrored layouts ever reach the PPU.
type MirrorMode uint8

const (
	MirrorHorizontal MirrorMode = iota
	MirrorVertical
)

// CartridgeInterface is the subset of cartridge behavior the PPU needs: CHR
// pattern-table access. The PPU never reaches into PRG space.
type CartridgeInterface interface {
	ReadCHR(address uint16) uint8
	WriteCHR(address uint16, value uint8)
}

// SpritePixel is the result of evaluating one layer (background or sprite)
// at a single screen coordinate, before compositing.
type SpritePixel struct {
	colorIndex   uint8
	paletteIndex uint8
	rgbColor     uint32
	spriteIndex  int8
	priority     bool
	transparent  bool
}

// PPU is the NES 2C02: CPU-visible registers at $2000-$2007, the loopy
// v/t/x/w scroll state, OAM, and the nametable/palette RAM it owns.
type PPU struct {
	ppuCtrl   uint8
	ppuMask   uint8
	ppuStatus uint8
	oamAddr   uint8

	v uint16
	t uint16
	x uint8
	w bool

	vram       [0x800]uint8
	paletteRAM [32]uint8
	mirror     MirrorMode
	cartridge  CartridgeInterface

	scanline   int
	cycle      int
	frameCount uint64
	oddFrame   bool
	readBuffer uint8

	oam               [256]uint8
	secondaryOAM      [32]uint8
	spriteCount       uint8
	spriteIndexes     [8]uint8
	sprite0OnScanline bool
	sprite0Hit        bool
	spriteOverflow    bool

	frameBuffer [256 * 240]uint32

	nmiCallback           func()
	frameCompleteCallback func()

	backgroundEnabled bool
	spritesEnabled    bool
	renderingEnabled  bool

	cycleCount uint64

	debug bool
}

// New creates a PPU with no cartridge attached; call SetCartridge before
// stepping it.
func New() *PPU {
	return &PPU{scanline: -1}
}

// SetDebug gates the [PPU] diagnostic log lines.
func (p *PPU) SetDebug(enabled bool) {
	p.debug = enabled
}

// SetCartridge attaches the CHR source and nametable mirroring mode; it must
// be called before the PPU services any register access.
func (p *PPU) SetCartridge(cart CartridgeInterface, mirror MirrorMode) {
	p.cartridge = cart
	p.mirror = mirror
}

// Reset restores power-up state. PPUSTATUS powers up with its top three
// bits indeterminate on real hardware; this implementation fixes VBlank and
// sprite overflow set and sprite-0 hit clear ($A0), matching the common
// emulator convention.
func (p *PPU) Reset() {
	p.ppuCtrl = 0
	p.ppuMask = 0
	p.ppuStatus = 0xA0
	p.oamAddr = 0

	p.v = 0
	p.t = 0
	p.x = 0
	p.w = false

	p.scanline = -1
	p.cycle = 0
	p.frameCount = 0
	p.oddFrame = false
	p.readBuffer = 0

	p.spriteCount = 0
	p.sprite0Hit = false
	p.spriteOverflow = false

	p.backgroundEnabled = false
	p.spritesEnabled = false
	p.renderingEnabled = false

	p.cycleCount = 0

	for i := range p.oam {
		p.oam[i] = 0
	}
	for i := range p.frameBuffer {
		p.frameBuffer[i] = 0
	}
}

func (p *PPU) SetNMICallback(callback func())           { p.nmiCallback = callback }
func (p *PPU) SetFrameCompleteCallback(callback func()) { p.frameCompleteCallback = callback }

// ReadRegister services a CPU read of $2000-$2007 (already decoded to this
// 8-register window by the bus).
func (p *PPU) ReadRegister(address uint16) uint8 {
	switch address {
	case 0x2000, 0x2001, 0x2003, 0x2005, 0x2006:
		return p.ppuStatus & 0x1F
	case 0x2002:
		status := p.ppuStatus
		p.ppuStatus &= 0x3F
		p.sprite0Hit = false
		p.w = false
		return status
	case 0x2004:
		return p.oam[p.oamAddr]
	case 0x2007:
		return p.readPPUData()
	default:
		return 0
	}
}

// WriteRegister services a CPU write of $2000-$2007.
func (p *PPU) WriteRegister(address uint16, value uint8) {
	switch address {
	case 0x2000:
		p.ppuCtrl = value
		p.t = (p.t & 0xF3FF) | ((uint16(value) & 0x03) << 10)
		p.updateRenderingFlags()
		p.checkNMI()
	case 0x2001:
		p.ppuMask = value
		p.updateRenderingFlags()
	case 0x2002:
	case 0x2003:
		p.oamAddr = value
	case 0x2004:
		p.oam[p.oamAddr] = value
		p.oamAddr++
	case 0x2005:
		p.writePPUScroll(value)
	case 0x2006:
		p.writePPUAddr(value)
	case 0x2007:
		p.writePPUData(value)
	}
}

// WriteOAM writes to OAM directly, used by the bus during OAM DMA.
func (p *PPU) WriteOAM(address uint8, value uint8) {
	p.oam[address] = value
}

// Step advances the PPU by one PPU cycle (one dot), running the raster
// state machine: VBlank set/clear and NMI at the usual dots, sprite
// evaluation once per visible scanline, pixel composition across the
// visible window, and the loopy v register's per-dot increment/copy
// schedule. Pixel color itself is resolved directly from the current
// scroll latch t rather than incrementally from v tile-by-tile; v is still
// advanced and copied exactly on schedule so its externally observable
// state (and anything that reads it back through $2006/$2007) stays
// correct.
func (p *PPU) Step() {
	p.cycleCount++

	p.cycle++
	if p.cycle > 340 {
		p.cycle = 0
		p.scanline++
		if p.scanline > 260 {
			p.scanline = -1
			p.frameCount++
			p.oddFrame = !p.oddFrame
			if p.frameCompleteCallback != nil {
				p.frameCompleteCallback()
			}
		}
	}

	if p.scanline >= 0 && p.scanline < 240 {
		p.renderCycle()
	}

	if p.scanline == 241 && p.cycle == 1 {
		p.ppuStatus |= 0x80
		p.ppuStatus &= 0x9F
		p.sprite0Hit = false
		p.spriteOverflow = false
		if p.ppuCtrl&0x80 != 0 && p.nmiCallback != nil {
			p.nmiCallback()
		}
	}

	if p.scanline == -1 && p.cycle == 1 {
		p.ppuStatus &= 0x7F
	}

	p.stepScrollCounters()
}

// stepScrollCounters runs the loopy v register through the schedule that
// real hardware drives from the background pattern-fetch pipeline: coarse-X
// incremented every 8 dots across the fetch windows, Y incremented once per
// scanline, and t copied into v at the two well-known dots. It runs on
// every rendered scanline (including the pre-render line) whenever
// rendering is enabled.
func (p *PPU) stepScrollCounters() {
	if !p.renderingEnabled {
		return
	}
	onVisibleOrPrerender := p.scanline == -1 || p.scanline < 240
	if !onVisibleOrPrerender {
		return
	}

	switch {
	case (p.cycle >= 1 && p.cycle <= 256) || (p.cycle >= 321 && p.cycle <= 336):
		if p.cycle%8 == 0 {
			p.incrementX()
		}
	}

	if p.cycle == 256 {
		p.incrementY()
	}
	if p.cycle == 257 {
		p.copyX()
	}
	if p.scanline == -1 && p.cycle >= 280 && p.cycle <= 304 {
		p.copyY()
	}
}

// renderCycle evaluates sprites once per scanline and composites one pixel
// per dot across the visible window.
func (p *PPU) renderCycle() {
	if p.cycle == 1 {
		p.evaluateSprites()
	}

	if p.cycle >= 2 && p.cycle <= 257 {
		pixelX := p.cycle - 2
		pixelY := p.scanline
		if pixelX >= 0 && pixelX < 256 {
			var bg, sp SpritePixel
			if p.backgroundEnabled {
				bg = p.renderBackgroundPixel(pixelX, pixelY)
			} else {
				bg = SpritePixel{transparent: true}
			}
			if p.spritesEnabled {
				sp = p.renderSpritePixel(pixelX, pixelY)
			} else {
				sp = SpritePixel{transparent: true}
			}
			p.frameBuffer[pixelY*256+pixelX] = p.compositeFinalPixel(bg, sp)
		}
	}
}

// evaluateSprites fills secondaryOAM with up to the first 8 in-range
// sprites for the NEXT scanline's rendering pass, tracking which secondary
// slot (if any) holds the original sprite 0 for hit detection, and setting
// the overflow flag once a 9th in-range sprite is found.
func (p *PPU) evaluateSprites() {
	targetScanline := p.scanline + 1
	spriteHeight := 8
	if p.ppuCtrl&0x20 != 0 {
		spriteHeight = 16
	}

	p.spriteCount = 0
	p.sprite0OnScanline = false
	found := 0

	for i := 0; i < 64; i++ {
		base := i * 4
		y := int(p.oam[base])
		if targetScanline < y+1 || targetScanline >= y+1+spriteHeight {
			continue
		}

		if found < 8 {
			dst := found * 4
			p.secondaryOAM[dst] = p.oam[base]
			p.secondaryOAM[dst+1] = p.oam[base+1]
			p.secondaryOAM[dst+2] = p.oam[base+2]
			p.secondaryOAM[dst+3] = p.oam[base+3]
			p.spriteIndexes[found] = uint8(i)
			if i == 0 {
				p.sprite0OnScanline = true
			}
			found++
		} else {
			p.spriteOverflow = true
			p.ppuStatus |= 0x20
			break
		}
	}

	p.spriteCount = uint8(found)
}

// renderBackgroundPixel resolves the background color at a screen
// coordinate by mapping it through the current scroll latch directly into
// nametable/attribute/pattern-table space.
func (p *PPU) renderBackgroundPixel(pixelX, pixelY int) SpritePixel {
	scrollX := int(p.t&0x001F)<<3 + int(p.x)
	scrollY := int((p.t>>5)&0x001F)<<3 + int((p.t>>12)&0x0007)
	nametable := int((p.t >> 10) & 0x0003)

	worldX := pixelX + scrollX
	worldY := pixelY + scrollY

	if worldX < 0 {
		nametable ^= 1
		worldX += 256
	} else if worldX >= 256 {
		nametable ^= 1
		worldX -= 256
	}
	if worldY < 0 {
		nametable ^= 2
		worldY += 240
	} else if worldY >= 240 {
		nametable ^= 2
		worldY -= 240
	}

	tileX, tileY := worldX>>3, worldY>>3
	pixelInTileX, pixelInTileY := worldX&7, worldY&7
	if tileX < 0 || tileX >= 32 || tileY < 0 || tileY >= 30 {
		return SpritePixel{transparent: true}
	}

	nametableAddr := 0x2000 | (uint16(nametable&3) << 10) | uint16(tileY*32+tileX)
	tileID := p.readVRAM(nametableAddr)

	attributeAddr := 0x23C0 | (uint16(nametable&3) << 10) | uint16((tileY>>2)*8+(tileX>>2))
	attributeByte := p.readVRAM(attributeAddr)
	blockID := ((tileX & 3) >> 1) + ((tileY & 3) >> 1) * 2
	paletteIndex := (attributeByte >> (blockID << 1)) & 0x03

	patternTableBase := uint16(0x0000)
	if p.ppuCtrl&0x10 != 0 {
		patternTableBase = 0x1000
	}
	patternAddr := patternTableBase + uint16(tileID)*16 + uint16(pixelInTileY)
	patternLow := p.cartridge.ReadCHR(patternAddr)
	patternHigh := p.cartridge.ReadCHR(patternAddr + 8)

	bitShift := 7 - pixelInTileX
	colorIndex := (((patternHigh >> bitShift) & 1) << 1) | ((patternLow >> bitShift) & 1)

	var paletteAddr uint16
	if colorIndex == 0 {
		paletteAddr = 0x3F00
	} else {
		paletteAddr = 0x3F00 + uint16(paletteIndex)*4 + uint16(colorIndex)
	}

	return SpritePixel{
		colorIndex:   colorIndex,
		paletteIndex: paletteIndex,
		rgbColor:     NESColorToRGB(p.readPalette(paletteAddr)),
		spriteIndex:  -1,
		transparent:  colorIndex == 0,
	}
}

// renderSpritePixel returns the highest-priority (lowest OAM index) opaque
// sprite pixel at the given coordinate, checking sprite-0 hit along the way.
func (p *PPU) renderSpritePixel(pixelX, pixelY int) SpritePixel {
	spriteHeight := 8
	if p.ppuCtrl&0x20 != 0 {
		spriteHeight = 16
	}

	for i := 0; i < int(p.spriteCount); i++ {
		base := i * 4
		sY := int(p.secondaryOAM[base])
		tileIndex := p.secondaryOAM[base+1]
		attributes := p.secondaryOAM[base+2]
		sX := int(p.secondaryOAM[base+3])

		if pixelX < sX || pixelX >= sX+8 || pixelY < sY+1 || pixelY >= sY+1+spriteHeight {
			continue
		}

		spriteX := pixelX - sX
		spriteY := pixelY - (sY + 1)
		if attributes&0x40 != 0 {
			spriteX = 7 - spriteX
		}
		if attributes&0x80 != 0 {
			spriteY = spriteHeight - 1 - spriteY
		}

		colorIndex := p.spritePixelColor(tileIndex, spriteX, spriteY, attributes)
		if colorIndex == 0 {
			continue
		}

		if p.spriteIndexes[i] == 0 && !p.sprite0Hit {
			p.checkSprite0Hit(pixelX)
		}

		paletteIndex := attributes & 0x03
		paletteAddr := 0x3F10 + uint16(paletteIndex)*4 + uint16(colorIndex)
		return SpritePixel{
			colorIndex:   colorIndex,
			paletteIndex: paletteIndex,
			rgbColor:     NESColorToRGB(p.readPalette(paletteAddr)),
			spriteIndex:  int8(i),
			priority:     attributes&0x20 != 0,
		}
	}

	return SpritePixel{spriteIndex: -1, transparent: true}
}

func (p *PPU) spritePixelColor(tileIndex uint8, pixelX, pixelY int, attributes uint8) uint8 {
	var patternTableBase uint16
	if p.ppuCtrl&0x20 == 0 {
		if p.ppuCtrl&0x08 != 0 {
			patternTableBase = 0x1000
		}
	} else {
		if tileIndex&0x01 != 0 {
			patternTableBase = 0x1000
		}
		tileIndex &= 0xFE
		if pixelY >= 8 {
			tileIndex++
			pixelY -= 8
		}
	}

	patternAddr := patternTableBase + uint16(tileIndex)*16 + uint16(pixelY)
	patternLow := p.cartridge.ReadCHR(patternAddr)
	patternHigh := p.cartridge.ReadCHR(patternAddr + 8)

	bitShift := 7 - pixelX
	return (((patternHigh >> bitShift) & 1) << 1) | ((patternLow >> bitShift) & 1)
}

// checkSprite0Hit sets the sprite-0-hit flag once both layers are opaque at
// pixelX on the current scanline, subject to the usual left-clip and
// rightmost-pixel exclusions.
func (p *PPU) checkSprite0Hit(pixelX int) {
	if p.sprite0Hit || !p.sprite0OnScanline {
		return
	}
	if !p.backgroundEnabled || !p.spritesEnabled {
		return
	}
	if pixelX >= 255 {
		return
	}
	if pixelX < 8 && (p.ppuMask&0x02 == 0 || p.ppuMask&0x04 == 0) {
		return
	}

	bg := p.renderBackgroundPixel(pixelX, p.scanline)
	if !bg.transparent {
		p.sprite0Hit = true
		p.ppuStatus |= 0x40
		if p.debug {
			log.Printf("[PPU] sprite 0 hit at (%d,%d) frame %d", pixelX, p.scanline, p.frameCount)
		}
	}
}

func (p *PPU) compositeFinalPixel(background, sprite SpritePixel) uint32 {
	if sprite.transparent {
		if background.transparent {
			return NESColorToRGB(p.readPalette(0x3F00))
		}
		return background.rgbColor
	}
	if background.transparent {
		return sprite.rgbColor
	}
	if sprite.priority {
		return background.rgbColor
	}
	return sprite.rgbColor
}

func (p *PPU) updateRenderingFlags() {
	p.backgroundEnabled = (p.ppuMask & 0x08) != 0
	p.spritesEnabled = (p.ppuMask & 0x10) != 0
	p.renderingEnabled = p.backgroundEnabled || p.spritesEnabled
}

func (p *PPU) checkNMI() {
	if (p.ppuCtrl&0x80 != 0) && (p.ppuStatus&0x80 != 0) && p.nmiCallback != nil {
		p.nmiCallback()
	}
}

func (p *PPU) writePPUScroll(value uint8) {
	if !p.w {
		p.t = (p.t & 0xFFE0) | (uint16(value) >> 3)
		p.x = value & 0x07
		p.w = true
	} else {
		p.t = (p.t & 0x8FFF) | ((uint16(value) & 0x07) << 12)
		p.t = (p.t & 0xFC1F) | ((uint16(value) & 0xF8) << 2)
		p.w = false
	}
}

func (p *PPU) writePPUAddr(value uint8) {
	if !p.w {
		p.t = (p.t & 0x80FF) | ((uint16(value) & 0x3F) << 8)
		p.w = true
	} else {
		p.t = (p.t & 0xFF00) | uint16(value)
		p.v = p.t
		p.w = false
	}
}

func (p *PPU) readPPUData() uint8 {
	var data uint8
	if p.v >= 0x3F00 {
		data = p.readPalette(p.v)
		p.readBuffer = p.readVRAM(p.v & 0x2FFF)
	} else {
		data = p.readBuffer
		p.readBuffer = p.readVRAM(p.v)
	}
	p.advanceVRAMAddress()
	return data
}

func (p *PPU) writePPUData(value uint8) {
	p.writeVRAM(p.v, value)
	p.advanceVRAMAddress()
}

func (p *PPU) advanceVRAMAddress() {
	if p.ppuCtrl&0x04 != 0 {
		p.v += 32
	} else {
		p.v++
	}
	p.v &= 0x3FFF
}

// readVRAM and writeVRAM implement the PPU's $0000-$3FFF address space:
// pattern tables via the cartridge, nametables via mirrored internal VRAM,
// and palette RAM. A caller presenting an address outside this window is a
// programming error - every path that reaches here already masked its
// address to 14 bits, so there is nothing left to validate defensively.
func (p *PPU) readVRAM(address uint16) uint8 {
	address &= 0x3FFF
	switch {
	case address < 0x2000:
		return p.cartridge.ReadCHR(address)
	case address < 0x3000:
		return p.vram[p.nametableIndex(address)]
	case address < 0x3F00:
		return p.vram[p.nametableIndex(address-0x1000)]
	default:
		return p.readPalette(address)
	}
}

func (p *PPU) writeVRAM(address uint16, value uint8) {
	address &= 0x3FFF
	switch {
	case address < 0x2000:
		p.cartridge.WriteCHR(address, value)
	case address < 0x3000:
		p.vram[p.nametableIndex(address)] = value
	case address < 0x3F00:
		p.vram[p.nametableIndex(address-0x1000)] = value
	default:
		p.writePalette(address, value)
	}
}

func (p *PPU) nametableIndex(address uint16) uint16 {
	address &= 0x0FFF
	nametable := (address >> 10) & 3
	offset := address & 0x3FF

	switch p.mirror {
	case MirrorHorizontal:
		if nametable >= 2 {
			return 0x400 + offset
		}
		return offset
	default: // MirrorVertical
		if nametable == 1 || nametable == 3 {
			return 0x400 + offset
		}
		return offset
	}
}

func (p *PPU) readPalette(address uint16) uint8 {
	return p.paletteRAM[paletteIndex(address)]
}

func (p *PPU) writePalette(address uint16, value uint8) {
	p.paletteRAM[paletteIndex(address)] = value
}

func paletteIndex(address uint16) uint16 {
	index := (address - 0x3F00) & 0x1F
	if index == 0x10 || index == 0x14 || index == 0x18 || index == 0x1C {
		index &= 0x0F
	}
	return index
}

// The blank reference to neserr.NewPPUFault below only marks where a VRAM
// fault would be raised: every legal register write masks its address before
// it reaches readVRAM/writeVRAM, so an out-of-range access here can only come
// from a bug in this package, not from ROM or CPU behavior. NewPPUFault is
// never called in this package.
var _ = neserr.NewPPUFault

// GetFrameBuffer returns the completed frame as packed 0x00RRGGBB pixels.
func (p *PPU) GetFrameBuffer() [256 * 240]uint32 { return p.frameBuffer }

func (p *PPU) GetFrameCount() uint64      { return p.frameCount }
func (p *PPU) GetScanline() int           { return p.scanline }
func (p *PPU) GetCycle() int              { return p.cycle }
func (p *PPU) IsRenderingEnabled() bool   { return p.renderingEnabled }
func (p *PPU) IsVBlank() bool             { return p.ppuStatus&0x80 != 0 }
func (p *PPU) GetCycleCount() uint64      { return p.cycleCount }

var nesColorPalette = [64]uint32{
	0x666666, 0x002A88, 0x1412A7, 0x3B00A4, 0x5C007E, 0x6E0040, 0x6C0600, 0x561D00,
	0x333500, 0x0B4800, 0x005200, 0x004F08, 0x00404D, 0x000000, 0x000000, 0x000000,
	0xADADAD, 0x155FD9, 0x4240FF, 0x7527FE, 0xA01ACC, 0xB71E7B, 0xB53120, 0x994E00,
	0x6B6D00, 0x388700, 0x0C9300, 0x008F32, 0x007C8D, 0x000000, 0x000000, 0x000000,
	0xFFFEFF, 0x64B0FF, 0x9290FF, 0xC676FF, 0xF36AFF, 0xFE6ECC, 0xFE8170, 0xEA9E22,
	0xBCBE00, 0x88D800, 0x5CE430, 0x45E082, 0x48CDDE, 0x4F4F4F, 0x000000, 0x000000,
	0xFFFEFF, 0xC0DFFF, 0xD3D2FF, 0xE8C8FF, 0xFBC2FF, 0xFEC4EA, 0xFECCC5, 0xF7D8A5,
	0xE4E594, 0xCFF29B, 0xBEFBB3, 0xB8F8D8, 0xB8F8F8, 0x000000, 0x000000, 0x000000,
}

// NESColorToRGB converts a 6-bit NES palette index to packed 0x00RRGGBB.
func NESColorToRGB(colorIndex uint8) uint32 {
	return nesColorPalette[colorIndex&0x3F]
}

func (p *PPU) incrementX() {
	if (p.v & 0x001F) == 31 {
		p.v &= ^uint16(0x001F)
		p.v ^= 0x0400
	} else {
		p.v++
	}
}

func (p *PPU) incrementY() {
	if (p.v & 0x7000) != 0x7000 {
		p.v += 0x1000
	} else {
		p.v &= ^uint16(0x7000)
		y := (p.v & 0x03E0) >> 5
		switch y {
		case 29:
			y = 0
			p.v ^= 0x0800
		case 31:
			y = 0
		default:
			y++
		}
		p.v = (p.v &^ uint16(0x03E0)) | (y << 5)
	}
}

func (p *PPU) copyX() {
	p.v = (p.v & 0xFBE0) | (p.t & 0x041F)
}

func (p *PPU) copyY() {
	p.v = (p.v & 0x841F) | (p.t & 0x7BE0)
}
