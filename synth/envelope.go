// envelope.go - gap-limiter coefficient precomputation

/*
Sp3ctra - real-time additive synthesis engine
Copyright (C) 2026 Ondulab
License: GPLv3 or later
*/

package synth

import "math"

// AlphaMin is the floor clamp applied to both envelope coefficients, large
// enough to avoid denormals and instantaneous jumps that would click.
const AlphaMin = 1e-5

// EnvelopeParams carries the tunables needed to precompute an oscillator's
// attack/release coefficients. Recomputation happens once at startup and
// whenever any of these change (§4.F).
type EnvelopeParams struct {
	TauUpSeconds   float64
	TauDownSeconds float64
	DecayFreqRefHz float64
	DecayFreqBeta  float64
}

// ComputeAlphaUp returns the frequency-independent attack coefficient
// 1 - exp(-1/(tau_up*Fs)), clamped to [AlphaMin, 1].
func ComputeAlphaUp(tauUpSeconds, sampleRate float64) float32 {
	if tauUpSeconds <= 0 || sampleRate <= 0 {
		return 1
	}
	a := 1 - math.Exp(-1/(tauUpSeconds*sampleRate))
	return clampAlpha(a)
}

// ComputeAlphaDownWeighted returns the frequency-weighted release
// coefficient (1 - exp(-1/(tau_down*Fs))) * (f/f_ref)^(-beta), clamped to
// [AlphaMin, 1]. Grounded on synth_luxstral_algorithms.c's
// update_gap_limiter_coefficients.
func ComputeAlphaDownWeighted(freqHz, tauDownSeconds, sampleRate, fRefHz, beta float64) float32 {
	if tauDownSeconds <= 0 || sampleRate <= 0 {
		return 1
	}
	base := 1 - math.Exp(-1/(tauDownSeconds*sampleRate))
	weight := 1.0
	if fRefHz > 0 && freqHz > 0 {
		weight = math.Pow(freqHz/fRefHz, -beta)
	}
	return clampAlpha(base * weight)
}

func clampAlpha(a float64) float32 {
	if a < AlphaMin {
		a = AlphaMin
	} else if a > 1 {
		a = 1
	}
	return float32(a)
}

// RecomputeEnvelopes updates every oscillator's AlphaUp/AlphaDownW from its
// current frequency and the supplied params.
func RecomputeEnvelopes(oscs []*Oscillator, sampleRate float64, p EnvelopeParams) {
	alphaUp := ComputeAlphaUp(p.TauUpSeconds, sampleRate)
	for _, o := range oscs {
		o.AlphaUp = alphaUp
		o.AlphaDownW = ComputeAlphaDownWeighted(o.FreqHz, p.TauDownSeconds, sampleRate, p.DecayFreqRefHz, p.DecayFreqBeta)
	}
}
