// capture.go - optional per-oscillator debug capture

/*
Sp3ctra - real-time additive synthesis engine
Copyright (C) 2026 Ondulab
License: GPLv3 or later
*/

package synth

// CaptureBuffer records the current/target volume of every oscillator in
// one worker's range for one buffer, for offline inspection. Grounded on
// synth_ensure_capture_buffers / synth_release_capture_buffers_if_disabled:
// allocated lazily when capture is enabled, released when disabled, never
// touched on the hot path otherwise.
type CaptureBuffer struct {
	CurrentVolume []float32
	TargetVolume  []float32
}

// EnsureCaptureBuffers allocates cb's slices to n entries if capture is
// enabled and they are not already sized correctly; otherwise it releases
// them. Call once per buffer, outside the worker's per-note loop.
func EnsureCaptureBuffers(cb *CaptureBuffer, enabled bool, n int) {
	if !enabled {
		cb.CurrentVolume = nil
		cb.TargetVolume = nil
		return
	}
	if len(cb.CurrentVolume) != n {
		cb.CurrentVolume = make([]float32, n)
		cb.TargetVolume = make([]float32, n)
	}
}

// Record copies one note's envelope state into the capture buffer at the
// given local index, if capture is enabled for this buffer.
func Record(cb *CaptureBuffer, localIndex int, o *Oscillator) {
	if cb.CurrentVolume == nil {
		return
	}
	cb.CurrentVolume[localIndex] = o.CurrentVolume
	cb.TargetVolume[localIndex] = o.TargetVolume
}
