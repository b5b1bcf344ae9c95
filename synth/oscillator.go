// oscillator.go - per-note oscillator state

/*
Sp3ctra - real-time additive synthesis engine
Copyright (C) 2026 Ondulab
License: GPLv3 or later
*/

package synth

// Oscillator holds the per-note state carried across audio buffers. One
// instance exists per note; thousands may be live at once, so the struct
// is kept flat and allocation-free after construction.
type Oscillator struct {
	FreqHz float64

	waveOffset  int // offset of this note's period within the wave table arena
	period      int // period length in samples
	strideCoeff int // octave stride, power of two

	Phase int // current phase index, always in [0, period)

	CurrentVolume float32 // smoother state, always in [0, 1]
	TargetVolume  float32 // set once per buffer by the preprocessor

	AlphaUp     float32 // attack coefficient, in (0, 1]
	AlphaDownW  float32 // frequency-weighted release coefficient, in (0, 1]

	LastLeftGain  float32
	LastRightGain float32
}

// StepEnvelope advances the one-pole smoother by one sample and returns the
// new current volume. Grounded on synth_luxstral_algorithms.c's
// apply_gap_limiter_ramp: the attack coefficient is used while rising toward
// the target, the frequency-weighted release coefficient while falling.
func (o *Oscillator) StepEnvelope() float32 {
	alpha := o.AlphaDownW
	if o.TargetVolume > o.CurrentVolume {
		alpha = o.AlphaUp
	}
	o.CurrentVolume += alpha * (o.TargetVolume - o.CurrentVolume)
	if o.CurrentVolume < 0 {
		o.CurrentVolume = 0
	} else if o.CurrentVolume > 1 {
		o.CurrentVolume = 1
	}
	return o.CurrentVolume
}

// AdvancePhase moves the phase index forward by stride samples, wrapping
// into [0, period).
func (o *Oscillator) AdvancePhase() {
	o.Phase += o.strideCoeff
	if o.Phase >= o.period {
		o.Phase -= (o.Phase / o.period) * o.period
	}
}
