// tanh_lut.go - tabulated tanh for the soft limiter

/*
Sp3ctra - real-time additive synthesis engine
Copyright (C) 2026 Ondulab
License: GPLv3 or later
*/

package synth

import "math"

const (
	tanhLUTSize = 4096
	tanhLUTMin  = float32(-4.0)
	tanhLUTMax  = float32(4.0)
)

// tanhLUT caches tanh(x) for x in [-4, 4], linearly interpolated on read.
// Adapted from the teacher's sin/tanh LUT pattern (audio_lut.go) and
// reused here for the orchestrator's soft limiter (§4.E step 9).
type tanhLUT struct {
	table [tanhLUTSize]float32
	scale float32
}

func newTanhLUT() *tanhLUT {
	t := &tanhLUT{scale: float32(tanhLUTSize-1) / (tanhLUTMax - tanhLUTMin)}
	for i := 0; i < tanhLUTSize; i++ {
		x := float64(tanhLUTMin) + float64(i)*float64(tanhLUTMax-tanhLUTMin)/float64(tanhLUTSize-1)
		t.table[i] = float32(math.Tanh(x))
	}
	return t
}

// Tanh returns tanh(x) via lookup + linear interpolation. Inputs outside
// [-4, 4] return exactly +-1 (the true tanh(4) is about 0.9993).
func (t *tanhLUT) Tanh(x float32) float32 {
	if x <= tanhLUTMin {
		return -1
	}
	if x >= tanhLUTMax {
		return 1
	}
	indexF := (x - tanhLUTMin) * t.scale
	index := int(indexF)
	frac := indexF - float32(index)
	if index >= tanhLUTSize-1 {
		return t.table[tanhLUTSize-1]
	}
	return t.table[index] + frac*(t.table[index+1]-t.table[index])
}
