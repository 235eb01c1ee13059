// Package app wires a cartridge, a bus, and a presentation backend into a
// runnable emulator session, and owns the JSON-backed Config that holds
// window, audio and input settings.
package app

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config is the JSON-backed settings document for a gones session. Of its
// fields, only Window.Scale, Debug.CPUTracing and Debug.TraceFrameInterval
// change how a session runs, and the Paths directories are created on load;
// every other field is loaded, clamped and saved but read by no other code.
// There is a single controller, no save states or rewind, and exactly two
// presentation backends (an Ebitengine window and a headless runner), so
// there are no settings for a second gamepad, a video filter pipeline, or a
// renderer selector.
type Config struct {
	Window    WindowConfig    `json:"window"`
	Audio     AudioConfig     `json:"audio"`
	Input     InputConfig     `json:"input"`
	Emulation EmulationConfig `json:"emulation"`
	Debug     DebugConfig     `json:"debug"`
	Paths     PathsConfig     `json:"paths"`

	path   string
	loaded bool
}

// WindowConfig controls the Ebitengine presentation window.
type WindowConfig struct {
	Scale      int  `json:"scale"` // integer multiplier of the 256x240 NES frame
	Fullscreen bool `json:"fullscreen"`
	VSync      bool `json:"vsync"`
}

// AudioConfig holds audio settings. They are stored and clamped only: the
// APU's sample ring has a fixed capacity whatever RingSeconds says, and the
// Ebitengine backend always plays at 44100 Hz.
type AudioConfig struct {
	Enabled     bool    `json:"enabled"`
	SampleRate  int     `json:"sample_rate"`
	RingSeconds float32 `json:"ring_seconds"`
	Volume      float32 `json:"volume"`
}

// InputConfig names host keyboard keys for the single NES controller's
// eight buttons. The Ebitengine backend uses its own fixed key table and
// does not read this mapping.
type InputConfig struct {
	Keys KeyMapping `json:"keys"`
}

// KeyMapping names one keyboard key per controller button.
type KeyMapping struct {
	Up     string `json:"up"`
	Down   string `json:"down"`
	Left   string `json:"left"`
	Right  string `json:"right"`
	A      string `json:"a"`
	B      string `json:"b"`
	Start  string `json:"start"`
	Select string `json:"select"`
}

// EmulationConfig holds timing and focus settings; the run loop does not
// read them.
type EmulationConfig struct {
	Region           string  `json:"region"` // "NTSC" is the only region this emulator times against
	FrameRate        float64 `json:"frame_rate"`
	PauseOnFocusLoss bool    `json:"pause_on_focus_loss"`
}

// DebugConfig controls the CPU trace hook installed on the bus.
type DebugConfig struct {
	CPUTracing         bool   `json:"cpu_tracing"`
	TraceFrameInterval int    `json:"trace_frame_interval"` // how often the trace logger reports frame progress
	EnableLogging      bool   `json:"enable_logging"`
	LogLevel           string `json:"log_level"` // "DEBUG", "INFO", "WARN", "ERROR"
}

// PathsConfig names the ROM, save-data and log directories. LoadFromFile
// creates them; nothing else reads or writes them.
type PathsConfig struct {
	ROMs     string `json:"roms"`
	SaveData string `json:"save_data"`
	Logs     string `json:"logs"`
}

// NewConfig returns a Config populated with the defaults a fresh install
// ships with.
func NewConfig() *Config {
	return &Config{
		Window: WindowConfig{
			Scale:      2,
			Fullscreen: false,
			VSync:      true,
		},
		Audio: AudioConfig{
			Enabled:     true,
			SampleRate:  44100,
			RingSeconds: 0.05,
			Volume:      0.8,
		},
		Input: InputConfig{
			Keys: KeyMapping{
				Up:     "W",
				Down:   "S",
				Left:   "A",
				Right:  "D",
				A:      "J",
				B:      "K",
				Start:  "Return",
				Select: "Space",
			},
		},
		Emulation: EmulationConfig{
			Region:           "NTSC",
			FrameRate:        60.0988,
			PauseOnFocusLoss: true,
		},
		Debug: DebugConfig{
			CPUTracing:         false,
			TraceFrameInterval: 60,
			EnableLogging:      false,
			LogLevel:           "INFO",
		},
		Paths: PathsConfig{
			ROMs:     "./roms",
			SaveData: "./saves",
			Logs:     "./logs",
		},
	}
}

// LoadFromFile reads JSON config from path, validating and clamping
// whatever it finds. A missing file is not an error: it is created from
// the current defaults instead, matching first-run behavior.
func (c *Config) LoadFromFile(path string) error {
	c.path = path

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return c.SaveToFile(path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := json.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}

	c.clamp()

	if err := c.ensureDirectories(); err != nil {
		return fmt.Errorf("create config directories: %w", err)
	}

	c.loaded = true
	return nil
}

// SaveToFile writes c as indented JSON to path, creating its parent
// directory if necessary.
func (c *Config) SaveToFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	c.path = path
	return nil
}

// Save rewrites the config file at the path it was last loaded from or
// saved to.
func (c *Config) Save() error {
	if c.path == "" {
		return fmt.Errorf("config has no associated file path")
	}
	return c.SaveToFile(c.path)
}

// clampRange pins *v into [lo, hi], replacing it with def when it falls
// outside that range.
func clampRange(v *float32, lo, hi, def float32) {
	if *v < lo || *v > hi {
		*v = def
	}
}

// clamp repairs out-of-range values loaded from an untrusted JSON file by
// resetting each one to a sane default, rather than rejecting the whole
// file over a single bad field.
func (c *Config) clamp() {
	if c.Window.Scale <= 0 {
		c.Window.Scale = 1
	}

	if c.Audio.SampleRate <= 0 {
		c.Audio.SampleRate = 44100
	}
	if c.Audio.RingSeconds <= 0 {
		c.Audio.RingSeconds = 0.05
	}
	clampRange(&c.Audio.Volume, 0.0, 1.0, 0.8)

	if c.Emulation.FrameRate <= 0 {
		c.Emulation.FrameRate = 60.0988
	}

	if c.Debug.TraceFrameInterval <= 0 {
		c.Debug.TraceFrameInterval = 60
	}
}

// ensureDirectories creates every non-empty directory named in Paths.
func (c *Config) ensureDirectories() error {
	for _, dir := range []string{c.Paths.ROMs, c.Paths.SaveData, c.Paths.Logs} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

// NESResolution returns the native NES frame size in pixels.
func (c *Config) NESResolution() (width, height int) {
	return 256, 240
}

// WindowResolution returns the presentation window size after applying
// Window.Scale to the native NES resolution.
func (c *Config) WindowResolution() (width, height int) {
	w, h := c.NESResolution()
	return w * c.Window.Scale, h * c.Window.Scale
}

// IsLoaded reports whether this Config was populated by a successful
// LoadFromFile call rather than left at NewConfig's defaults.
func (c *Config) IsLoaded() bool {
	return c.loaded
}

// Path returns the file this Config was last loaded from or saved to, or
// the empty string if neither has happened yet.
func (c *Config) Path() string {
	return c.path
}

// Clone returns a deep copy of c via a JSON round trip.
func (c *Config) Clone() *Config {
	data, err := json.Marshal(c)
	if err != nil {
		return NewConfig()
	}

	clone := &Config{}
	if err := json.Unmarshal(data, clone); err != nil {
		return NewConfig()
	}
	clone.path = c.path
	clone.loaded = c.loaded
	return clone
}

// DefaultConfigPath returns the file gones reads its config from when no
// --config flag is given.
func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "gones.json")
}

// DefaultConfigDir returns the directory holding the default config file.
func DefaultConfigDir() string {
	return "./config"
}
