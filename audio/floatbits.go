// floatbits.go - atomic float32 helpers

/*
Sp3ctra - real-time additive synthesis engine
Copyright (C) 2026 Ondulab
License: GPLv3 or later
*/

package audio

import (
	"math"
	"unsafe"
)

func floatBits(v float32) uint32   { return math.Float32bits(v) }
func bitsToFloat(b uint32) float32 { return math.Float32frombits(b) }

// mixStereoFrames interleaves up to frames stereo samples from l/r into
// scratch (resizing it if needed), applies vol, and copies the resulting
// bytes into out. Missing channels (okL/okR false) or short reads
// contribute silence for the remaining frames, matching the real-time
// contract of never blocking on an underrun. Split out from Player.Read so
// the mixing arithmetic is testable without an open audio device.
func mixStereoFrames(out []byte, l []float32, okL bool, r []float32, okR bool, vol float32, scratch []float32) ([]float32, int) {
	frames := len(out) / 8 // stereo float32LE: 4 bytes/sample * 2 channels
	if cap(scratch) < frames*2 {
		scratch = make([]float32, frames*2)
	}
	samples := scratch[:frames*2]

	for i := 0; i < frames; i++ {
		var lv, rv float32
		if okL && i < len(l) {
			lv = l[i] * vol
		}
		if okR && i < len(r) {
			rv = r[i] * vol
		}
		samples[2*i] = lv
		samples[2*i+1] = rv
	}

	if frames > 0 {
		copy(out, (*[1 << 30]byte)(unsafe.Pointer(&samples[0]))[:len(out)])
	}
	return scratch, len(out)
}
