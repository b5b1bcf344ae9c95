package synth

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildTestEngine(t *testing.T, nWorkers int) *Engine {
	t.Helper()
	cfg := EngineConfig{
		SampleRate:     48000,
		BufferSize:     256,
		NumWorkers:     nWorkers,
		PixelsPerLine:  64,
		PixelsPerNote:  1,
		FreqLowHz:      110,
		FreqHighHz:     1760,
		NotesPerOctave: 12,
		Envelope: EnvelopeParams{
			TauUpSeconds:   0.003,
			TauDownSeconds: 0.05,
			DecayFreqRefHz: 440,
			DecayFreqBeta:  0,
		},
		Preprocess: PreprocessConfig{
			PixelsPerNote:           1,
			ContrastMin:             1.0,
			ContrastAdjustmentPower: 0.5,
			Stereo:                  false,
		},
		Orchestrator: OrchestratorConfig{
			SafetyScale:          0.35,
			SumEpsilon:           1e-6,
			BaseLevel:            0.05,
			ResponseExponent:     2.0,
			SoftLimitThreshold:   0.85,
			SoftLimitKnee:        0.15,
			VolumeWeightExponent: 1.0,
		},
	}
	e, err := NewEngine(cfg)
	require.NoError(t, err)
	e.Start()
	t.Cleanup(e.Shutdown)
	return e
}

// TestOrchestratorSilence covers S1: all-zero input settles to exact
// silence once the envelope has decayed.
func TestOrchestratorSilence(t *testing.T) {
	e := buildTestEngine(t, 4)

	frame := NewPreprocessedFrame(e.Config.NumNotes())
	for i := 0; i < 300; i++ {
		e.ImageInput.Publish(frame)
		e.Orchestrator.RunOnce()
	}

	out, ok := e.AudioLeft.TryConsume()
	require.True(t, ok)
	for _, v := range out {
		assert.Equal(t, float32(0), v)
	}
}

// TestOrchestratorClipInvariant asserts §8.6: every published sample lies
// in [-1, 1], even when every note is driven to full target volume.
func TestOrchestratorClipInvariant(t *testing.T) {
	e := buildTestEngine(t, 4)

	frame := NewPreprocessedFrame(e.Config.NumNotes())
	for i := range frame.TargetVolume {
		frame.TargetVolume[i] = 1
	}

	for i := 0; i < 50; i++ {
		e.ImageInput.Publish(frame)
		e.Orchestrator.RunOnce()
	}

	left, okL := e.AudioLeft.TryConsume()
	right, okR := e.AudioRight.TryConsume()
	require.True(t, okL)
	require.True(t, okR)
	for _, v := range left {
		assert.GreaterOrEqual(t, v, float32(-1))
		assert.LessOrEqual(t, v, float32(1))
	}
	for _, v := range right {
		assert.GreaterOrEqual(t, v, float32(-1))
		assert.LessOrEqual(t, v, float32(1))
	}
}

// TestWorkerCountInvariance covers S5: identical input streams through
// different worker counts must agree to within 1e-5.
func TestWorkerCountInvariance(t *testing.T) {
	const nBuffers = 20
	var reference []float32

	for _, nWorkers := range []int{1, 2, 4, 8} {
		e := buildTestEngine(t, nWorkers)

		frame := NewPreprocessedFrame(e.Config.NumNotes())
		rng := rand.New(rand.NewSource(42))
		for i := range frame.TargetVolume {
			frame.TargetVolume[i] = float32(rng.Float64())
		}

		var last []float32
		for i := 0; i < nBuffers; i++ {
			e.ImageInput.Publish(frame)
			e.Orchestrator.RunOnce()
			out, ok := e.AudioLeft.TryConsume()
			require.True(t, ok)
			last = append([]float32(nil), out...)
		}

		if reference == nil {
			reference = last
			continue
		}
		require.Len(t, last, len(reference))
		for i := range last {
			assert.InDelta(t, reference[i], last[i], 1e-5, "sample %d differs across worker counts", i)
		}
	}
}

// TestPhaseContinuity asserts §8.4: after K buffers of size B, an
// oscillator's phase equals (initial_phase + K*B*stride) mod period.
func TestPhaseContinuity(t *testing.T) {
	e := buildTestEngine(t, 2)
	const bufSize = 256
	const nBuffers = 10

	note := 0
	o := e.Oscillators[note]
	initialPhase := o.Phase
	period := o.period
	stride := o.strideCoeff

	frame := NewPreprocessedFrame(e.Config.NumNotes())
	for i := range frame.TargetVolume {
		frame.TargetVolume[i] = 0.5
	}

	for i := 0; i < nBuffers; i++ {
		e.ImageInput.Publish(frame)
		e.Orchestrator.RunOnce()
	}

	expected := (initialPhase + nBuffers*bufSize*stride) % period
	assert.Equal(t, expected, o.Phase)
}
