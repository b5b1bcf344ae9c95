// orchestrator.go - per-buffer additive synthesis sequence

/*
Sp3ctra - real-time additive synthesis engine
Copyright (C) 2026 Ondulab
License: GPLv3 or later
*/

package synth

import (
	"math"
	"math/rand"
)

// OrchestratorConfig holds the per-buffer tunables used by the combine /
// normalize / soft-limit stages (§4.E steps 7-10).
type OrchestratorConfig struct {
	SampleRate            float64
	BufferSize            int
	NumNotes              int
	Stereo                bool
	SafetyScale           float32 // pre-scale attenuation, §4.E step 7
	SumEpsilon            float32
	BaseLevel             float32
	ResponseExponent      float64
	SoftLimitThreshold    float32
	SoftLimitKnee         float32
	VolumeWeightExponent  float64
	CaptureEnabled        bool
}

// Orchestrator drives the worker pool once per audio buffer, implementing
// the eleven-step sequence of §4.E verbatim.
type Orchestrator struct {
	Config      OrchestratorConfig
	WaveTable   *WaveTable
	Pool        *WorkerPool
	ImageInput  *ImageSynthBuffer
	AudioLeft   *AudioSynthBuffer
	AudioRight  *AudioSynthBuffer
	Oscillators []*Oscillator

	frame      *PreprocessedFrame
	mono       []float32
	left       []float32
	right      []float32
	volumeSum  []float32
	volumeMax  []float32
	rng        *rand.Rand
	powLUT     PowLUT
	tanhTable  *tanhLUT
}

// NewOrchestrator wires a freshly built wave table, worker pool, and
// double buffers into an Orchestrator ready to run.
func NewOrchestrator(cfg OrchestratorConfig, wt *WaveTable, pool *WorkerPool, oscs []*Oscillator, imageIn *ImageSynthBuffer, audioL, audioR *AudioSynthBuffer, rng *rand.Rand) *Orchestrator {
	return &Orchestrator{
		Config:      cfg,
		WaveTable:   wt,
		Pool:        pool,
		ImageInput:  imageIn,
		AudioLeft:   audioL,
		AudioRight:  audioR,
		Oscillators: oscs,
		frame:       NewPreprocessedFrame(cfg.NumNotes),
		mono:        make([]float32, cfg.BufferSize),
		left:        make([]float32, cfg.BufferSize),
		right:       make([]float32, cfg.BufferSize),
		volumeSum:   make([]float32, cfg.BufferSize),
		volumeMax:   make([]float32, cfg.BufferSize),
		rng:         rng,
		tanhTable:   newTanhLUT(),
	}
}

// RunOnce performs exactly one audio buffer's worth of work: §4.E steps
// 1-11 in order.
func (o *Orchestrator) RunOnce() {
	// 1. Reload check -- must happen before releasing workers.
	o.WaveTable.CheckAndReload(o.Config.NumNotes, o.Oscillators, o.rng)

	// 2. Batch-read preprocessed data under the image->synth mutex.
	o.ImageInput.BatchRead(o.frame)

	// 3 & 4. Precompute (folded into worker execution) and release workers.
	input := WorkerInput{
		TargetVolume:         o.frame.TargetVolume,
		PanPosition:          o.frame.PanPosition,
		LeftGain:             o.frame.LeftGain,
		RightGain:            o.frame.RightGain,
		VolumeWeightExponent: o.Config.VolumeWeightExponent,
		Stereo:               o.Config.Stereo,
		CaptureEnabled:       o.Config.CaptureEnabled,
	}
	o.Pool.Launch(o.Oscillators, o.WaveTable, input, o.Config.BufferSize)

	// 5. Wait for workers.
	o.Pool.Await()

	// 6. Combine.
	o.Pool.CollectMono(o.mono)
	if o.Config.Stereo {
		o.Pool.CollectStereo(o.left, o.right)
	} else {
		copy(o.left, o.mono)
		copy(o.right, o.mono)
	}
	o.Pool.CollectVolume(o.volumeSum, o.volumeMax)

	// 7. Pre-scale.
	for i := range o.mono {
		o.mono[i] *= o.Config.SafetyScale
		o.left[i] *= o.Config.SafetyScale
		o.right[i] *= o.Config.SafetyScale
	}

	// 8. Normalize.
	expo := 1 / o.Config.ResponseExponent
	o.powLUT.Rebuild(expo)
	for i := range o.mono {
		if o.volumeSum[i] <= o.Config.SumEpsilon {
			o.mono[i] = 0
			o.left[i] = 0
			o.right[i] = 0
			continue
		}
		var denom float32
		if math.Abs(expo-0.5) <= 1e-3 {
			denom = float32(math.Sqrt(float64(o.volumeSum[i] + o.Config.BaseLevel)))
		} else {
			denom = o.powLUT.Pow(o.volumeSum[i] + o.Config.BaseLevel)
		}
		if denom <= 0 {
			denom = 1
		}
		o.mono[i] /= denom
		o.left[i] /= denom
		o.right[i] /= denom
	}

	// 9. Soft-limit.
	o.softLimit(o.mono)
	o.softLimit(o.left)
	o.softLimit(o.right)

	// 10. Apply contrast factor and global fade. Master volume is
	// deliberately NOT applied here -- §4.I assigns it to the audio
	// callback (audio.Player.Read), the single place it's scaled.
	// The fade is a per-sample one-pole, so it is stepped once per sample.
	contrast := o.frame.ContrastFactor
	for i := range o.mono {
		gain := contrast * o.WaveTable.StepFade()
		o.mono[i] *= gain
		o.left[i] *= gain
		o.right[i] *= gain
	}

	// 11. Write into synth->audio double-buffer slots.
	o.AudioLeft.Publish(o.left)
	o.AudioRight.Publish(o.right)
}

// softLimit applies the tanh-based soft limiter with knee width
// SoftLimitKnee to every sample exceeding SoftLimitThreshold, then hard
// clamps to [-1, 1] (§4.E step 9, §6 audio egress).
func (o *Orchestrator) softLimit(buf []float32) {
	threshold := o.Config.SoftLimitThreshold
	knee := o.Config.SoftLimitKnee
	for i, v := range buf {
		abs := v
		if abs < 0 {
			abs = -abs
		}
		if abs > threshold && knee > 0 {
			excess := abs - threshold
			compressed := threshold + o.tanhTable.Tanh(excess/knee)*knee
			if v < 0 {
				buf[i] = -compressed
			} else {
				buf[i] = compressed
			}
		}
		if buf[i] > 1 {
			buf[i] = 1
		} else if buf[i] < -1 {
			buf[i] = -1
		}
	}
}
