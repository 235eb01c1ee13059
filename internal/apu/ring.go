package apu

import "sync/atomic"

// SampleRing is a fixed-capacity, lock-free single-producer/single-consumer
// queue of audio samples. The APU's Step goroutine is the sole producer; an
// audio callback running on a different goroutine is the sole consumer.
// Capacity is rounded up to a power of two so index wrap is a mask, not a
// modulo.
type SampleRing struct {
	buf  []float32
	mask uint32
	head atomic.Uint32 // next slot to write
	tail atomic.Uint32 // next slot to read
}

// NewSampleRing creates a ring sized to hold at least minCapacity samples.
func NewSampleRing(minCapacity int) *SampleRing {
	capacity := 1
	for capacity < minCapacity {
		capacity <<= 1
	}
	return &SampleRing{
		buf:  make([]float32, capacity),
		mask: uint32(capacity - 1),
	}
}

// TryPush appends a sample, returning false if the ring is full (the
// consumer isn't draining fast enough; the sample is dropped rather than
// blocking the emulation loop).
func (r *SampleRing) TryPush(sample float32) bool {
	head := r.head.Load()
	tail := r.tail.Load()
	if head-tail > r.mask {
		return false
	}
	r.buf[head&r.mask] = sample
	r.head.Store(head + 1)
	return true
}

// Pop removes and returns the oldest sample, returning false if empty.
func (r *SampleRing) Pop() (float32, bool) {
	tail := r.tail.Load()
	head := r.head.Load()
	if tail == head {
		return 0, false
	}
	sample := r.buf[tail&r.mask]
	r.tail.Store(tail + 1)
	return sample, true
}

// Drain pops every currently available sample into a freshly allocated
// slice, for callers (like the bus) that want a batch rather than a
// per-sample pull.
func (r *SampleRing) Drain() []float32 {
	var out []float32
	for {
		sample, ok := r.Pop()
		if !ok {
			break
		}
		out = append(out, sample)
	}
	return out
}
