// Package apu implements the NES Audio Processing Unit: two pulse
// channels, a triangle channel, a noise channel, a delta-modulation
// channel, and the frame sequencer that clocks their envelope, linear,
// length and sweep units.
package apu

// channelID names a slot in APU.channelEnable and the dispatch tables in
// GetChannelOutput/IsChannelEnabled.
type channelID int

const (
	channelPulse1 channelID = iota
	channelPulse2
	channelTriangle
	channelNoise
	channelDMC
	channelCount
)

// APU is the NES's Audio Processing Unit.
type APU struct {
	pulse1   pulseChannel
	pulse2   pulseChannel
	triangle triangleChannel
	noise    noiseChannel
	dmc      dmcChannel

	channelEnable [channelCount]bool

	frameCounter   uint16
	frameMode      bool // false = 4-step, true = 5-step
	frameIRQEnable bool
	frameIRQFlag   bool

	samples          *SampleRing
	sampleRate       int
	cpuFrequency     float64
	cycleAccumulator float64

	cycles uint64
}

// lengthTable converts a 5-bit length-counter load value into the number
// of frame-sequencer half-frame ticks the channel keeps sounding.
var lengthTable = [32]uint8{
	10, 254, 20, 2, 40, 4, 80, 6,
	160, 8, 60, 10, 14, 12, 26, 14,
	12, 16, 24, 8, 48, 6, 96, 4,
	192, 2, 72, 16, 28, 32, 52, 2,
}

// New returns an APU with default NTSC timing and no channels enabled.
func New() *APU {
	a := &APU{
		samples:        NewSampleRing(44100 / 8),
		sampleRate:     44100,
		cpuFrequency:   1789773.0,
		frameIRQEnable: true,
	}
	a.noise.shiftRegister = 1
	return a
}

// Reset restores every channel and the frame sequencer to their power-on
// state and discards any samples queued but not yet drained.
func (a *APU) Reset() {
	a.pulse1 = pulseChannel{}
	a.pulse2 = pulseChannel{}
	a.triangle = triangleChannel{}
	a.noise = noiseChannel{shiftRegister: 1}
	a.dmc = dmcChannel{}

	a.frameCounter = 0
	a.frameMode = false
	a.frameIRQEnable = true
	a.frameIRQFlag = false

	for i := range a.channelEnable {
		a.channelEnable[i] = false
	}

	a.cycles = 0
	a.cycleAccumulator = 0
	a.samples.Drain()
}

// Step advances every enabled channel's timer by one CPU cycle, clocks the
// frame sequencer, and pushes a resampled output sample whenever enough
// cycles have accumulated to match the target sample rate.
func (a *APU) Step() {
	a.cycles++
	a.stepFrameSequencer()
	a.stepChannelTimers()
	a.resample()
}

// stepFrameSequencer advances the shared frame counter and, at each of its
// quarter/half-frame boundaries, clocks the envelope/linear and
// length/sweep units. The boundary cycle counts differ between 4-step and
// 5-step mode; only 4-step mode raises a frame IRQ.
func (a *APU) stepFrameSequencer() {
	a.frameCounter++

	if a.frameMode {
		switch a.frameCounter {
		case 7457, 22371:
			a.clockQuarterFrame()
		case 14913:
			a.clockQuarterFrame()
			a.clockHalfFrame()
		case 37281:
			a.clockQuarterFrame()
			a.clockHalfFrame()
			a.frameCounter = 0
		}
		return
	}

	switch a.frameCounter {
	case 7457, 22371:
		a.clockQuarterFrame()
	case 14913:
		a.clockQuarterFrame()
		a.clockHalfFrame()
	case 29829:
		a.clockQuarterFrame()
		a.clockHalfFrame()
	case 29830:
		if a.frameIRQEnable {
			a.frameIRQFlag = true
		}
		a.frameCounter = 0
	}
}

// clockQuarterFrame clocks envelope generators and the triangle's linear
// counter; it fires on every quarter frame boundary.
func (a *APU) clockQuarterFrame() {
	a.pulse1.clockEnvelope()
	a.pulse2.clockEnvelope()
	a.noise.clockEnvelope()
	a.triangle.clockLinearCounter()
}

// clockHalfFrame clocks length counters and the pulse sweep units; it
// fires on every half frame boundary.
func (a *APU) clockHalfFrame() {
	a.pulse1.clockLength()
	a.pulse1.clockSweep(true)
	a.pulse2.clockLength()
	a.pulse2.clockSweep(false)
	a.triangle.clockLength()
	a.noise.clockLength()
}

func (a *APU) stepChannelTimers() {
	if a.channelEnable[channelPulse1] {
		a.pulse1.stepTimer()
	}
	if a.channelEnable[channelPulse2] {
		a.pulse2.stepTimer()
	}
	if a.channelEnable[channelTriangle] {
		a.triangle.stepTimer()
	}
	if a.channelEnable[channelNoise] {
		a.noise.stepTimer()
	}
	if a.channelEnable[channelDMC] {
		a.dmc.stepTimer()
	}
}

// resample converts from the fixed NTSC CPU clock to the configured
// output sample rate and, once a full sample period has accumulated,
// mixes the five channels and pushes one sample into the ring.
func (a *APU) resample() {
	a.cycleAccumulator += float64(a.sampleRate) / a.cpuFrequency
	if a.cycleAccumulator < 1.0 {
		return
	}
	a.cycleAccumulator -= 1.0

	sample := mix(
		a.pulse1.output(),
		a.pulse2.output(),
		a.triangle.output(),
		a.noise.output(),
		a.dmc.output(),
	)
	a.samples.TryPush(sample)
}

// WriteRegister dispatches a CPU write in the $4000-$4017 APU register
// range to the channel or control register it targets.
func (a *APU) WriteRegister(address uint16, value uint8) {
	switch address {
	case 0x4000:
		a.pulse1.writeControl(value)
	case 0x4001:
		a.pulse1.writeSweep(value)
	case 0x4002:
		a.pulse1.writeTimerLow(value)
	case 0x4003:
		a.pulse1.writeTimerHigh(value)
	case 0x4004:
		a.pulse2.writeControl(value)
	case 0x4005:
		a.pulse2.writeSweep(value)
	case 0x4006:
		a.pulse2.writeTimerLow(value)
	case 0x4007:
		a.pulse2.writeTimerHigh(value)
	case 0x4008:
		a.triangle.writeControl(value)
	case 0x400A:
		a.triangle.writeTimerLow(value)
	case 0x400B:
		a.triangle.writeTimerHigh(value)
	case 0x400C:
		a.noise.writeControl(value)
	case 0x400E:
		a.noise.writePeriod(value)
	case 0x400F:
		a.noise.writeLength(value)
	case 0x4010:
		a.dmc.writeControl(value)
	case 0x4011:
		a.dmc.writeDirectLoad(value)
	case 0x4012:
		a.dmc.writeSampleAddress(value)
	case 0x4013:
		a.dmc.writeSampleLength(value)
	case 0x4015:
		a.writeChannelEnable(value)
	case 0x4017:
		a.writeFrameCounter(value)
	}
}

// writeChannelEnable handles the $4015 write: it latches which channels
// run and force-silences any channel just disabled.
func (a *APU) writeChannelEnable(value uint8) {
	a.channelEnable[channelPulse1] = value&0x01 != 0
	a.channelEnable[channelPulse2] = value&0x02 != 0
	a.channelEnable[channelTriangle] = value&0x04 != 0
	a.channelEnable[channelNoise] = value&0x08 != 0
	a.channelEnable[channelDMC] = value&0x10 != 0

	if !a.channelEnable[channelPulse1] {
		a.pulse1.lengthCounter = 0
	}
	if !a.channelEnable[channelPulse2] {
		a.pulse2.lengthCounter = 0
	}
	if !a.channelEnable[channelTriangle] {
		a.triangle.lengthCounter = 0
	}
	if !a.channelEnable[channelNoise] {
		a.noise.lengthCounter = 0
	}
	if !a.channelEnable[channelDMC] {
		a.dmc.bytesRemaining = 0
	} else if a.dmc.bytesRemaining == 0 {
		a.dmc.readAddress = a.dmc.sampleAddress
		a.dmc.bytesRemaining = a.dmc.sampleLength
	}

	a.dmc.irqFlag = false
}

// writeFrameCounter handles the $4017 write. Switching into 5-step mode
// clocks every unit immediately, matching real hardware's extra clock on
// mode-change writes.
func (a *APU) writeFrameCounter(value uint8) {
	a.frameMode = value&0x80 != 0
	a.frameIRQEnable = value&0x40 == 0
	if !a.frameIRQEnable {
		a.frameIRQFlag = false
	}
	a.frameCounter = 0

	if a.frameMode {
		a.clockQuarterFrame()
		a.clockHalfFrame()
	}
}

// GetSamples drains every sample currently sitting in the ring buffer.
func (a *APU) GetSamples() []float32 {
	return a.samples.Drain()
}

// ReadStatus reads the $4015 status register: one length-counter-active
// bit per channel plus both IRQ flags. Reading clears the frame IRQ flag.
func (a *APU) ReadStatus() uint8 {
	var status uint8
	if a.pulse1.lengthCounter > 0 {
		status |= 0x01
	}
	if a.pulse2.lengthCounter > 0 {
		status |= 0x02
	}
	if a.triangle.lengthCounter > 0 {
		status |= 0x04
	}
	if a.noise.lengthCounter > 0 {
		status |= 0x08
	}
	if a.dmc.bytesRemaining > 0 {
		status |= 0x10
	}
	if a.frameIRQFlag {
		status |= 0x40
	}
	if a.dmc.irqFlag {
		status |= 0x80
	}

	a.frameIRQFlag = false
	return status
}

// GetFrameIRQ reports the frame sequencer's IRQ flag without clearing it.
func (a *APU) GetFrameIRQ() bool { return a.frameIRQFlag }

// GetDMCIRQ reports the DMC channel's IRQ flag without clearing it.
func (a *APU) GetDMCIRQ() bool { return a.dmc.irqFlag }

// SetSampleRate changes the output sample rate and resets the resampling
// accumulator so the next Step doesn't inherit a stale fractional offset.
func (a *APU) SetSampleRate(rate int) {
	a.sampleRate = rate
	a.cycleAccumulator = 0
}

// GetSampleRate returns the currently configured output sample rate.
func (a *APU) GetSampleRate() int { return a.sampleRate }

// GetChannelOutput returns a disabled channel's output as 0 and an
// enabled one's current DAC-level output, for tracing/metering.
func (a *APU) GetChannelOutput(channel int) uint8 {
	id := channelID(channel)
	if id < 0 || id >= channelCount || !a.channelEnable[id] {
		return 0
	}
	switch id {
	case channelPulse1:
		return a.pulse1.output()
	case channelPulse2:
		return a.pulse2.output()
	case channelTriangle:
		return a.triangle.output()
	case channelNoise:
		return a.noise.output()
	case channelDMC:
		return a.dmc.output()
	default:
		return 0
	}
}

// IsChannelEnabled reports whether $4015 currently enables the given
// channel.
func (a *APU) IsChannelEnabled(channel int) bool {
	id := channelID(channel)
	if id < 0 || id >= channelCount {
		return false
	}
	return a.channelEnable[id]
}
