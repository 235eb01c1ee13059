package apu

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMix_SilenceIsFullyNegative(t *testing.T) {
	assert.Equal(t, float32(-1.0), mix(0, 0, 0, 0, 0))
}

func TestMix_IncreasesWithPulseVolume(t *testing.T) {
	quiet := mix(1, 0, 0, 0, 0)
	loud := mix(15, 15, 0, 0, 0)
	assert.Greater(t, loud, quiet)
}

func TestMix_StaysWithinUnitRange(t *testing.T) {
	sample := mix(15, 15, 15, 15, 127)
	assert.LessOrEqual(t, sample, float32(1.0))
	assert.GreaterOrEqual(t, sample, float32(-1.0))
}

func TestAPU_SweepRaisesPulse1TimerWhenNotNegated(t *testing.T) {
	a := New()
	a.WriteRegister(0x4000, 0x10) // constant volume, volume 0
	a.WriteRegister(0x4002, 0xFF)
	a.WriteRegister(0x4003, 0x01) // timer high bits + length load
	a.WriteRegister(0x4001, 0x81) // sweep enabled, period 0, shift 1, no negate
	a.WriteRegister(0x4015, 0x01)

	before := a.pulse1.timerPeriod
	// Drive the frame sequencer past its first half-frame boundary (cycle 14913).
	for i := 0; i < 14914; i++ {
		a.Step()
	}
	assert.NotEqual(t, before, a.pulse1.timerPeriod)
}

func TestAPU_NoiseChannelSilencedWhenLengthCounterExpires(t *testing.T) {
	a := New()
	a.WriteRegister(0x400C, 0x00) // envelope loop off, constant volume off
	a.WriteRegister(0x400F, 0x00) // length counter load index 0 -> table[0] = 10
	a.WriteRegister(0x4015, 0x08) // enable noise

	assert.NotZero(t, a.noise.lengthCounter)

	for i := 0; i < 11; i++ {
		a.noise.clockLength()
	}
	assert.Zero(t, a.noise.lengthCounter)
	assert.Zero(t, a.noise.output())
}
