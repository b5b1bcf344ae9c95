package synth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestImageSynthBufferPublishAndRead(t *testing.T) {
	const nNotes = 8
	buf := NewImageSynthBuffer(nNotes)

	src := NewPreprocessedFrame(nNotes)
	for i := range src.TargetVolume {
		src.TargetVolume[i] = float32(i) / float32(nNotes)
	}
	src.ContrastFactor = 0.7
	buf.Publish(src)

	dst := NewPreprocessedFrame(nNotes)
	buf.BatchRead(dst)

	assert.Equal(t, src.TargetVolume, dst.TargetVolume)
	assert.Equal(t, float32(0.7), dst.ContrastFactor)
}

// TestImageSynthBufferReusesLastFrame asserts the idempotence-by-design
// property of §7: reading without an intervening publish returns the same
// frame again.
func TestImageSynthBufferReusesLastFrame(t *testing.T) {
	const nNotes = 4
	buf := NewImageSynthBuffer(nNotes)
	src := NewPreprocessedFrame(nNotes)
	src.TargetVolume[0] = 1
	buf.Publish(src)

	dst1 := NewPreprocessedFrame(nNotes)
	dst2 := NewPreprocessedFrame(nNotes)
	buf.BatchRead(dst1)
	buf.BatchRead(dst2)

	assert.Equal(t, dst1.TargetVolume, dst2.TargetVolume)
}
