package audio

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFloatBitsRoundTrip(t *testing.T) {
	for _, v := range []float32{0, 1, -1, 0.5, 3.14159} {
		assert.Equal(t, v, bitsToFloat(floatBits(v)))
	}
}

func TestMixStereoFramesAppliesMasterVolume(t *testing.T) {
	l := []float32{1, 1}
	r := []float32{0.5, 0.5}
	out := make([]byte, 2*8) // 2 frames, stereo float32LE

	var scratch []float32
	scratch, n := mixStereoFrames(out, l, true, r, true, 0.5, scratch)
	assert.Equal(t, len(out), n)

	lv := math.Float32frombits(uint32(out[0]) | uint32(out[1])<<8 | uint32(out[2])<<16 | uint32(out[3])<<24)
	rv := math.Float32frombits(uint32(out[4]) | uint32(out[5])<<8 | uint32(out[6])<<16 | uint32(out[7])<<24)
	assert.InDelta(t, 0.5, lv, 1e-6)
	assert.InDelta(t, 0.25, rv, 1e-6)
	assert.Len(t, scratch, 4)
}

func TestMixStereoFramesMissingChannelIsSilent(t *testing.T) {
	out := make([]byte, 1*8)
	var scratch []float32
	scratch, _ = mixStereoFrames(out, nil, false, nil, false, 1, scratch)
	for _, b := range out {
		assert.Equal(t, byte(0), b)
	}
	assert.Len(t, scratch, 2)
}

func TestMixStereoFramesShortReadPadsWithSilence(t *testing.T) {
	l := []float32{1}
	out := make([]byte, 2*8) // 2 frames requested, only 1 sample available
	var scratch []float32
	scratch, _ = mixStereoFrames(out, l, true, nil, false, 1, scratch)

	secondFrame := out[8:16]
	for _, b := range secondFrame {
		assert.Equal(t, byte(0), b)
	}
	assert.Len(t, scratch, 4)
}
