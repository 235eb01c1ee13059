package graphics

import (
	"fmt"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/audio"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/harusamee/nes-emulator/internal/bus"
	"github.com/harusamee/nes-emulator/internal/input"
)

const (
	nesWidth  = 256
	nesHeight = 240
)

// keyMap pairs a keyboard key with the controller button it drives.
var keyMap = [8]struct {
	key    ebiten.Key
	button input.Button
}{
	{ebiten.KeyJ, input.ButtonA},
	{ebiten.KeyK, input.ButtonB},
	{ebiten.KeySpace, input.ButtonSelect},
	{ebiten.KeyEnter, input.ButtonStart},
	{ebiten.KeyW, input.ButtonUp},
	{ebiten.KeyS, input.ButtonDown},
	{ebiten.KeyA, input.ButtonLeft},
	{ebiten.KeyD, input.ButtonRight},
}

// EbitengineBackend is the interactive backend: a window presenting the
// PPU's frame buffer at an integer scale, audio played through ebiten's
// audio context, and keyboard input mapped onto the single controller.
type EbitengineBackend struct {
	Scale int

	bus     *bus.Bus
	image   *ebiten.Image
	pixels  []byte
	audioCh *audio.Context
	player  *audio.Player
	source  *sampleSource
}

// NewEbitengineBackend creates a window backend at the given integer scale.
func NewEbitengineBackend(scale int) *EbitengineBackend {
	if scale <= 0 {
		scale = 2
	}
	return &EbitengineBackend{
		Scale:  scale,
		image:  ebiten.NewImage(nesWidth, nesHeight),
		pixels: make([]byte, nesWidth*nesHeight*4),
	}
}

// Run opens a window and drives b until the player closes it.
func (e *EbitengineBackend) Run(b *bus.Bus) error {
	e.bus = b

	e.audioCh = audio.NewContext(44100)
	b.SetAudioSampleRate(44100)
	e.source = newSampleSource(b)
	player, err := e.audioCh.NewPlayerF32(e.source)
	if err != nil {
		return fmt.Errorf("create audio player: %w", err)
	}
	e.player = player
	e.player.Play()

	ebiten.SetWindowSize(nesWidth*e.Scale, nesHeight*e.Scale)
	ebiten.SetWindowTitle("gones")
	return ebiten.RunGame(e)
}

// Update implements ebiten.Game: it samples the keyboard, applies it to the
// controller, then steps the bus exactly one frame.
func (e *EbitengineBackend) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}

	var buttons [8]bool
	for i, m := range keyMap {
		buttons[i] = ebiten.IsKeyPressed(m.key)
	}
	// buttons is in keyMap order (A,B,Select,Start,Up,Down,Left,Right),
	// which matches input.Controller.SetButtons's expected order.
	e.bus.SetControllerButtons(buttons)

	e.bus.Frame()
	return nil
}

// Draw implements ebiten.Game: it copies the PPU's ARGB frame buffer into
// an ebiten.Image and scales it to fill the window.
func (e *EbitengineBackend) Draw(screen *ebiten.Image) {
	fb := e.bus.GetFrameBuffer()
	for i, argb := range fb {
		r := uint8(argb >> 16)
		g := uint8(argb >> 8)
		b := uint8(argb)
		e.pixels[i*4+0] = r
		e.pixels[i*4+1] = g
		e.pixels[i*4+2] = b
		e.pixels[i*4+3] = 0xFF
	}
	e.image.WritePixels(e.pixels)

	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(float64(e.Scale), float64(e.Scale))
	screen.DrawImage(e.image, op)
}

// Layout implements ebiten.Game: the logical screen is always the native
// NES resolution times the configured scale.
func (e *EbitengineBackend) Layout(outsideWidth, outsideHeight int) (int, int) {
	return nesWidth * e.Scale, nesHeight * e.Scale
}

// sampleSource adapts the bus's float32 mono samples to io.Reader as
// little-endian stereo float32 PCM, which is what ebiten's audio context
// NewPlayerF32 expects.
type sampleSource struct {
	bus   *bus.Bus
	carry []byte
}

func newSampleSource(b *bus.Bus) *sampleSource {
	return &sampleSource{bus: b}
}

func (s *sampleSource) Read(p []byte) (int, error) {
	for len(s.carry) < len(p) {
		samples := s.bus.GetAudioSamples()
		if len(samples) == 0 {
			break
		}
		for _, sample := range samples {
			s.carry = append(s.carry, float32ToBytes(sample)...)
			s.carry = append(s.carry, float32ToBytes(sample)...) // duplicate to stereo
		}
	}

	n := copy(p, s.carry)
	s.carry = s.carry[n:]
	if n == 0 {
		// No audio queued yet; emit silence rather than blocking the
		// player, since the emulation loop is the sole producer.
		for i := range p {
			p[i] = 0
		}
		return len(p), nil
	}
	return n, nil
}

func float32ToBytes(f float32) []byte {
	bits := math.Float32bits(f)
	return []byte{byte(bits), byte(bits >> 8), byte(bits >> 16), byte(bits >> 24)}
}
