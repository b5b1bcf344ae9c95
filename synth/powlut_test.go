package synth

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestPowLUTMatchesMathPow(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		exponent := rapid.Float64Range(0.1, 4).Draw(rt, "exponent")
		x := float32(rapid.Float64Range(0, 1).Draw(rt, "x"))

		var lut PowLUT
		lut.Rebuild(exponent)
		got := lut.Pow(x)
		want := float32(math.Pow(float64(x), exponent))

		assert.InDelta(rt, want, got, 0.02)
	})
}

func TestPowLUTRebuildIsNoOpForSameExponent(t *testing.T) {
	var lut PowLUT
	lut.Rebuild(2)
	first := lut.table
	lut.Rebuild(2)
	assert.Equal(t, first, lut.table)
}
