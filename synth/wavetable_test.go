package synth

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestWaveTableMemoryBound asserts §8.2: total arena length equals
// sum_k round(Fs / (f_lo * 2^(k/notesPerOctave))) for k in
// [0, notesPerOctave), independent of octave count.
func TestWaveTableMemoryBound(t *testing.T) {
	const fLo = 55.0
	const notesPerOctave = 12
	const sampleRate = 48000.0

	for _, fHi := range []float64{110, 880, 12000} {
		wt, err := BuildWaveTable(fLo, fHi, notesPerOctave, sampleRate, notesPerOctave*4)
		require.NoError(t, err)

		expected := 0
		for k := 0; k < notesPerOctave; k++ {
			f := fLo * math.Pow(2, float64(k)/float64(notesPerOctave))
			p := int(math.Round(sampleRate / f))
			if p < 2 {
				p = 2
			}
			expected += p
		}
		assert.Equal(t, expected, len(wt.Arena), "arena length must not depend on octave count (fHi=%v)", fHi)
	}
}

// TestWaveTableNotesShareArena confirms higher-octave notes reuse the
// first octave's periods via offset + stride rather than allocating
// their own period.
func TestWaveTableNotesShareArena(t *testing.T) {
	wt, err := BuildWaveTable(55, 880, 12, 48000, 48)
	require.NoError(t, err)

	for k := 0; k < 12; k++ {
		base := wt.Notes[k]
		octaveUp := wt.Notes[k+12]
		assert.Equal(t, base.Offset, octaveUp.Offset)
		assert.Equal(t, base.Period, octaveUp.Period)
		assert.Equal(t, base.StrideCoeff*2, octaveUp.StrideCoeff)
	}
}

// TestHotReloadGenerationStable asserts §8.8: the generation counter is
// stable unless a reload is requested and processed.
func TestHotReloadGenerationStable(t *testing.T) {
	wt, err := BuildWaveTable(55, 880, 12, 48000, 48)
	require.NoError(t, err)
	gen := wt.Generation()

	oscs := make([]*Oscillator, 48)
	for i := range oscs {
		oscs[i] = &Oscillator{}
	}
	rng := rand.New(rand.NewSource(1))

	wt.CheckAndReload(48, oscs, rng) // no reload pending: no-op
	assert.Equal(t, gen, wt.Generation())

	ok := wt.RequestReload(55, 1760)
	require.True(t, ok)
	assert.Equal(t, gen, wt.Generation(), "generation must not change until CheckAndReload runs")

	wt.CheckAndReload(48, oscs, rng)
	assert.Equal(t, gen+1, wt.Generation())
}
