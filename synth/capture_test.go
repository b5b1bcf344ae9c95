package synth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnsureCaptureBuffersAllocatesWhenEnabled(t *testing.T) {
	var cb CaptureBuffer
	EnsureCaptureBuffers(&cb, true, 4)
	assert.Len(t, cb.CurrentVolume, 4)
	assert.Len(t, cb.TargetVolume, 4)
}

func TestEnsureCaptureBuffersReleasesWhenDisabled(t *testing.T) {
	var cb CaptureBuffer
	EnsureCaptureBuffers(&cb, true, 4)
	EnsureCaptureBuffers(&cb, false, 4)
	assert.Nil(t, cb.CurrentVolume)
	assert.Nil(t, cb.TargetVolume)
}

func TestRecordNoOpWhenCaptureDisabled(t *testing.T) {
	var cb CaptureBuffer
	o := &Oscillator{CurrentVolume: 0.5, TargetVolume: 1}
	Record(&cb, 0, o)
	assert.Nil(t, cb.CurrentVolume)
}

// TestWorkerPoolCapturesOscillatorStateWhenEnabled covers the §7 diagnostic
// path end to end: a buffer launched with CaptureEnabled populates every
// worker's per-note current/target volume snapshot.
func TestWorkerPoolCapturesOscillatorStateWhenEnabled(t *testing.T) {
	const nNotes = 16
	const bufSize = 64

	wt, err := BuildWaveTable(110, 880, 12, 48000, nNotes)
	assert.NoError(t, err)

	oscs := make([]*Oscillator, nNotes)
	for i := range oscs {
		d := wt.Notes[i]
		oscs[i] = &Oscillator{
			waveOffset:    d.Offset,
			period:        d.Period,
			strideCoeff:   d.StrideCoeff,
			TargetVolume:  1,
			CurrentVolume: 1,
			AlphaUp:       0.1,
			AlphaDownW:    0.1,
			LastLeftGain:  0.707,
			LastRightGain: 0.707,
		}
	}

	pool, err := NewWorkerPool(2, nNotes, bufSize)
	assert.NoError(t, err)
	pool.Start()
	t.Cleanup(func() {
		pool.Shutdown()
		pool.Wait()
	})

	input := WorkerInput{
		TargetVolume:         make([]float32, nNotes),
		PanPosition:          make([]float32, nNotes),
		LeftGain:             make([]float32, nNotes),
		RightGain:            make([]float32, nNotes),
		VolumeWeightExponent: 1,
		CaptureEnabled:       true,
	}
	for i := range input.TargetVolume {
		input.TargetVolume[i] = 1
	}

	pool.Launch(oscs, wt, input, bufSize)
	pool.Await()

	total := 0
	for i := 0; i < pool.NumWorkers(); i++ {
		cap := pool.Capture(i)
		total += len(cap.CurrentVolume)
		for _, v := range cap.TargetVolume {
			assert.Equal(t, float32(1), v)
		}
	}
	assert.Equal(t, nNotes, total)
}
