package synth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

// TestEnvelopeBound asserts §8.3: current volume stays in [0, 1] and
// monotonically approaches the target for any sequence of targets in
// [0, 1].
func TestEnvelopeBound(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		o := &Oscillator{
			AlphaUp:    ComputeAlphaUp(0.01, 48000),
			AlphaDownW: ComputeAlphaDownWeighted(440, 0.05, 48000, 440, 0),
		}
		steps := rapid.IntRange(1, 200).Draw(rt, "steps")
		for i := 0; i < steps; i++ {
			target := float32(rapid.Float64Range(0, 1).Draw(rt, "target"))
			o.TargetVolume = target
			prev := o.CurrentVolume
			v := o.StepEnvelope()

			assert.GreaterOrEqual(rt, v, float32(0))
			assert.LessOrEqual(rt, v, float32(1))

			if target >= prev {
				assert.GreaterOrEqual(rt, v, prev-1e-7)
				assert.LessOrEqual(rt, v, target+1e-7)
			} else {
				assert.LessOrEqual(rt, v, prev+1e-7)
				assert.GreaterOrEqual(rt, v, target-1e-7)
			}
		}
	})
}

func TestAlphaCoefficientsClamped(t *testing.T) {
	assert.GreaterOrEqual(t, ComputeAlphaUp(0, 48000), float32(AlphaMin))
	assert.LessOrEqual(t, ComputeAlphaUp(1e9, 48000), float32(1))
	assert.GreaterOrEqual(t, ComputeAlphaDownWeighted(20000, 0.001, 48000, 440, 5), float32(AlphaMin))
}

// TestAlphaDownWeightedFrequencyShape checks the (f/f_ref)^(-beta) weight
// literally as formulated in §4.F: for beta > 0, notes below f_ref get a
// larger weight (and thus larger alpha) than notes above it.
func TestAlphaDownWeightedFrequencyShape(t *testing.T) {
	low := ComputeAlphaDownWeighted(110, 0.05, 48000, 440, 1)
	high := ComputeAlphaDownWeighted(1760, 0.05, 48000, 440, 1)
	assert.Greater(t, low, high)
}
