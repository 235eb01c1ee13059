package apu

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSampleRing_PushPopOrder(t *testing.T) {
	r := NewSampleRing(4)
	assert.True(t, r.TryPush(1))
	assert.True(t, r.TryPush(2))
	v, ok := r.Pop()
	assert.True(t, ok)
	assert.Equal(t, float32(1), v)
	v, ok = r.Pop()
	assert.True(t, ok)
	assert.Equal(t, float32(2), v)
	_, ok = r.Pop()
	assert.False(t, ok)
}

func TestSampleRing_DropsWhenFull(t *testing.T) {
	r := NewSampleRing(2) // rounds up to capacity 2
	assert.True(t, r.TryPush(1))
	assert.True(t, r.TryPush(2))
	assert.False(t, r.TryPush(3))
}

func TestAPU_PulseChannelProducesSamples(t *testing.T) {
	a := New()
	a.WriteRegister(0x4000, 0xBF) // duty, constant volume 15
	a.WriteRegister(0x4002, 0x00)
	a.WriteRegister(0x4003, 0x01) // load length counter, timer high
	a.WriteRegister(0x4015, 0x01) // enable pulse 1

	for i := 0; i < 2000; i++ {
		a.Step()
	}

	samples := a.GetSamples()
	assert.NotEmpty(t, samples)
}

func TestAPU_StatusReflectsLengthCounters(t *testing.T) {
	a := New()
	a.WriteRegister(0x4003, 0x08) // pulse 1 length counter load
	a.WriteRegister(0x4015, 0x01)
	status := a.ReadStatus()
	assert.NotZero(t, status&0x01)
}
