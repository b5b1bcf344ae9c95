// preprocess.go - image preprocessor

/*
Sp3ctra - real-time additive synthesis engine
Copyright (C) 2026 Ondulab
License: GPLv3 or later
*/

package synth

import (
	"fmt"
	"math"
)

// PreprocessConfig holds the tunables named in spec §4.B. Names follow the
// interface-level parameter categories from §6.
type PreprocessConfig struct {
	InvertIntensity        bool
	Gamma                  float64
	EnableNonLinearMapping bool
	PixelsPerNote          int

	ContrastMin             float64
	ContrastAdjustmentPower float64

	Stereo                          bool
	StereoBlueRedWeight             float64
	StereoCyanYellowWeight          float64
	StereoTemperatureAmplification  float64
	StereoTemperatureCurveExponent  float64
}

// PreprocessedFrame is one image line's worth of synthesis input: per-note
// target volumes, a scalar contrast factor, optional per-note pan/gains,
// and a monotonic timestamp (§3).
type PreprocessedFrame struct {
	TargetVolume   []float32
	ContrastFactor float32
	PanPosition    []float32
	LeftGain       []float32
	RightGain      []float32
	TimestampUs    int64
}

// NewPreprocessedFrame allocates a frame for nNotes notes.
func NewPreprocessedFrame(nNotes int) *PreprocessedFrame {
	return &PreprocessedFrame{
		TargetVolume: make([]float32, nNotes),
		PanPosition:  make([]float32, nNotes),
		LeftGain:     make([]float32, nNotes),
		RightGain:    make([]float32, nNotes),
	}
}

// Preprocessor transforms a raw RGB line into a PreprocessedFrame. It is
// deterministic and stateless across calls aside from reading Config
// (§4.B): the same inputs with the same config always produce the same
// outputs.
type Preprocessor struct {
	Config PreprocessConfig
}

// Process fills dst from raw R/G/B byte lines of equal length. Fails only
// on nil or mismatched-length inputs.
func (pp *Preprocessor) Process(r, g, b []byte, dst *PreprocessedFrame, timestampUs int64) error {
	if r == nil || g == nil || b == nil || dst == nil {
		return fmt.Errorf("synth: nil preprocessor input")
	}
	if len(r) != len(g) || len(g) != len(b) {
		return fmt.Errorf("synth: mismatched channel lengths (%d, %d, %d)", len(r), len(g), len(b))
	}
	pixelsPerLine := len(r)
	ppn := pp.Config.PixelsPerNote
	if ppn <= 0 {
		ppn = 1
	}
	nNotes := pixelsPerLine / ppn
	if nNotes > len(dst.TargetVolume) {
		nNotes = len(dst.TargetVolume)
	}

	lum := make([]float64, pixelsPerLine)
	for i := 0; i < pixelsPerLine; i++ {
		grey := (float64(r[i]) + float64(g[i]) + float64(b[i])) / (3 * 255)
		if pp.Config.InvertIntensity {
			grey = 1 - grey
		}
		if pp.Config.EnableNonLinearMapping && pp.Config.Gamma > 0 {
			grey = math.Pow(grey, pp.Config.Gamma)
		}
		lum[i] = grey
	}

	for n := 0; n < nNotes; n++ {
		start := n * ppn
		end := start + ppn
		if end > pixelsPerLine {
			end = pixelsPerLine
		}
		sum := 0.0
		for i := start; i < end; i++ {
			sum += lum[i]
		}
		count := end - start
		avg := 0.0
		if count > 0 {
			avg = sum / float64(count)
		}
		dst.TargetVolume[n] = clamp01f32(avg)
	}
	for n := nNotes; n < len(dst.TargetVolume); n++ {
		dst.TargetVolume[n] = 0
	}

	mean, std := meanStdDev(lum)
	_ = mean
	contrast := math.Max(pp.Config.ContrastMin, math.Pow(std, pp.Config.ContrastAdjustmentPower))
	dst.ContrastFactor = clamp01f32(contrast)

	if pp.Config.Stereo {
		for n := 0; n < nNotes; n++ {
			start := n * ppn
			end := start + ppn
			if end > pixelsPerLine {
				end = pixelsPerLine
			}
			pan := pp.colorTemperaturePan(r, g, b, start, end)
			dst.PanPosition[n] = pan
			l, rg := EqualPowerGains(pan)
			dst.LeftGain[n] = l
			dst.RightGain[n] = rg
		}
	} else {
		for n := 0; n < nNotes; n++ {
			dst.PanPosition[n] = 0
			dst.LeftGain[n] = 0.70710678
			dst.RightGain[n] = 0.70710678
		}
	}

	dst.TimestampUs = timestampUs
	return nil
}

// colorTemperaturePan maps a pixel range's weighted color difference into a
// pan position in [-1, +1]. The blue-red and cyan-yellow axes and the
// amplification/curve-exponent constants are configuration, not invariants
// (spec.md Open Question 3).
func (pp *Preprocessor) colorTemperaturePan(r, g, b []byte, start, end int) float32 {
	count := end - start
	if count <= 0 {
		return 0
	}
	var blueRed, cyanYellow float64
	for i := start; i < end; i++ {
		blueRed += float64(b[i]) - float64(r[i])
		cyanYellow += (float64(g[i])+float64(b[i]))/2 - float64(r[i])
	}
	blueRed /= float64(count) * 255
	cyanYellow /= float64(count) * 255

	diff := pp.Config.StereoBlueRedWeight*blueRed + pp.Config.StereoCyanYellowWeight*cyanYellow
	amplified := diff * pp.Config.StereoTemperatureAmplification
	signed := math.Copysign(math.Pow(math.Abs(amplified), pp.Config.StereoTemperatureCurveExponent), amplified)
	if signed > 1 {
		signed = 1
	} else if signed < -1 {
		signed = -1
	}
	return float32(signed)
}

func meanStdDev(xs []float64) (mean, std float64) {
	if len(xs) == 0 {
		return 0, 0
	}
	for _, x := range xs {
		mean += x
	}
	mean /= float64(len(xs))
	var variance float64
	for _, x := range xs {
		d := x - mean
		variance += d * d
	}
	variance /= float64(len(xs))
	return mean, math.Sqrt(variance)
}

func clamp01f32(v float64) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return float32(v)
}
