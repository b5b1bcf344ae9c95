// doublebuffer_image.go - image-to-synth double buffer

/*
Sp3ctra - real-time additive synthesis engine
Copyright (C) 2026 Ondulab
License: GPLv3 or later
*/

package synth

import "sync"

// ImageSynthBuffer hands preprocessed frames from the ingest thread to the
// synthesis orchestrator. One mutex protects publication; the writer
// copies a full frame into the inactive slot then flips under the lock,
// the reader batch-copies its needed fields under the same lock into
// worker-local memory -- one lock per audio buffer, not per note (§3).
type ImageSynthBuffer struct {
	mu        sync.Mutex
	slots     [2]*PreprocessedFrame
	active    int
	dataReady bool
}

// NewImageSynthBuffer allocates both slots for nNotes notes.
func NewImageSynthBuffer(nNotes int) *ImageSynthBuffer {
	return &ImageSynthBuffer{
		slots: [2]*PreprocessedFrame{
			NewPreprocessedFrame(nNotes),
			NewPreprocessedFrame(nNotes),
		},
	}
}

// Publish copies src into the inactive slot and flips it to active,
// marking the buffer ready. Called once per incoming image line.
func (b *ImageSynthBuffer) Publish(src *PreprocessedFrame) {
	b.mu.Lock()
	defer b.mu.Unlock()
	inactive := 1 - b.active
	dst := b.slots[inactive]
	copy(dst.TargetVolume, src.TargetVolume)
	copy(dst.PanPosition, src.PanPosition)
	copy(dst.LeftGain, src.LeftGain)
	copy(dst.RightGain, src.RightGain)
	dst.ContrastFactor = src.ContrastFactor
	dst.TimestampUs = src.TimestampUs
	b.active = inactive
	b.dataReady = true
}

// BatchRead copies the active slot's fields into dst under a single lock.
// If no new frame has arrived since the last read, the previous frame is
// reused verbatim -- idempotence by design (§7 UDP/ingest failures).
func (b *ImageSynthBuffer) BatchRead(dst *PreprocessedFrame) {
	b.mu.Lock()
	defer b.mu.Unlock()
	src := b.slots[b.active]
	copy(dst.TargetVolume, src.TargetVolume)
	copy(dst.PanPosition, src.PanPosition)
	copy(dst.LeftGain, src.LeftGain)
	copy(dst.RightGain, src.RightGain)
	dst.ContrastFactor = src.ContrastFactor
	dst.TimestampUs = src.TimestampUs
	b.dataReady = false
}
