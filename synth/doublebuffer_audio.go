// doublebuffer_audio.go - synth-to-audio double buffer

/*
Sp3ctra - real-time additive synthesis engine
Copyright (C) 2026 Ondulab
License: GPLv3 or later
*/

package synth

import (
	"sync/atomic"
	"time"
)

// AudioSynthBuffer is a two-slot ready-flagged buffer pair (one per
// channel conceptually, but this type models a single channel -- Engine
// holds one per channel). The synth thread fills the inactive slot; the
// audio callback drains the active one. At most one slot has ready==1 at
// any time in steady state; slot indices advance as (i, 1-i) (§3, §4.H).
type AudioSynthBuffer struct {
	slots      [2][]float32
	ready      [2]atomic.Bool
	writeIndex atomic.Int32 // slot the synth thread is about to fill
	underruns  atomic.Uint64
}

// NewAudioSynthBuffer allocates both slots to bufferSize samples.
func NewAudioSynthBuffer(bufferSize int) *AudioSynthBuffer {
	return &AudioSynthBuffer{
		slots: [2][]float32{
			make([]float32, bufferSize),
			make([]float32, bufferSize),
		},
	}
}

// Publish copies src into the current write slot, marks it ready, and
// advances the write index to the other slot.
func (b *AudioSynthBuffer) Publish(src []float32) {
	idx := b.writeIndex.Load()
	copy(b.slots[idx], src)
	b.ready[idx].Store(true)
	b.writeIndex.Store(1 - idx)
}

// TryConsume atomically checks the opposite (read) slot for readiness; if
// ready, it returns the slot's contents and clears the flag. The audio
// callback calls this -- never blocking, never allocating.
func (b *AudioSynthBuffer) TryConsume() ([]float32, bool) {
	readIdx := 1 - b.writeIndex.Load()
	if !b.ready[readIdx].Load() {
		b.underruns.Add(1)
		return nil, false
	}
	b.ready[readIdx].Store(false)
	return b.slots[readIdx], true
}

// Underruns reports the count of failed TryConsume calls (§4.I, §7).
func (b *AudioSynthBuffer) Underruns() uint64 {
	return b.underruns.Load()
}

// WaitForConsumption blocks up to timeout for the read slot to be drained
// by the callback, throttling production to consumption (§5). Returns
// false on timeout, which the orchestrator treats as non-fatal.
func (b *AudioSynthBuffer) WaitForConsumption(readIdx int, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for b.ready[readIdx].Load() {
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(time.Millisecond)
	}
	return true
}
