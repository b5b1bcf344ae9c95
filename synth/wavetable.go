// wavetable.go - wave-table builder and hot-reload state machine

/*
Sp3ctra - real-time additive synthesis engine
Copyright (C) 2026 Ondulab
License: GPLv3 or later
*/

package synth

import (
	"fmt"
	"math"
	"math/rand"
	"sync/atomic"
)

// reloadState values for the hot-reload atomic state machine.
const (
	reloadIdle int32 = iota
	reloadPending
)

// globalFadeAlpha is the one-pole coefficient driving the global fade
// toward 0 (reload requested) or 1 (reload complete). Grounded on
// wave_generation.c's GLOBAL_FADE_ALPHA.
const globalFadeAlpha = 0.0004

// NoteDescriptor locates one note's period within the shared wave-table
// arena: an offset, a period length, and the octave stride used to walk it.
type NoteDescriptor struct {
	Offset      int
	Period      int
	StrideCoeff int
}

// WaveTable is a single contiguous arena holding one period per note of the
// first octave; every higher-octave note reuses the same period with an
// integer stride, keeping memory at O(notes-per-octave * avg-period)
// instead of O(total-notes * avg-period).
type WaveTable struct {
	Arena []float32
	Notes []NoteDescriptor

	FLo            float64
	FHi            float64
	NotesPerOctave int
	SampleRate     float64

	reloadState  int32
	fadeTarget   float32
	fadeCurrent  float32
	generation   uint64
}

// BuildWaveTable computes the effective octave count as log2(fHi/fLo),
// generates one unit-amplitude sinusoid period per base-octave note, and
// assigns every higher-octave note a stride into that same period.
// Grounded on wave_generation.c's init_waves.
func BuildWaveTable(fLo, fHi float64, notesPerOctave int, sampleRate float64, totalNotes int) (*WaveTable, error) {
	if fLo <= 0 || fHi <= fLo {
		return nil, fmt.Errorf("synth: invalid frequency range [%g, %g)", fLo, fHi)
	}
	if notesPerOctave <= 0 || totalNotes <= 0 {
		return nil, fmt.Errorf("synth: invalid note counts (per-octave=%d, total=%d)", notesPerOctave, totalNotes)
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("synth: invalid sample rate %g", sampleRate)
	}

	numOctaves := math.Log2(fHi / fLo)
	if numOctaves <= 0 {
		return nil, fmt.Errorf("synth: frequency range must span a positive number of octaves")
	}

	wt := &WaveTable{
		FLo:            fLo,
		FHi:            fHi,
		NotesPerOctave: notesPerOctave,
		SampleRate:     sampleRate,
		fadeCurrent:    1,
		fadeTarget:     1,
	}
	wt.generate(totalNotes)
	return wt, nil
}

func notePeriod(freq, sampleRate float64) int {
	period := int(math.Round(sampleRate / freq))
	if period < 2 {
		period = 2
	}
	return period
}

// generate (re)fills the arena and note descriptors for the current
// FLo/FHi/NotesPerOctave/SampleRate, then randomizes every note's phase.
// Must only be called while no worker is running (§5).
func (wt *WaveTable) generate(totalNotes int) {
	baseFreqs := make([]float64, wt.NotesPerOctave)
	basePeriods := make([]int, wt.NotesPerOctave)
	arenaLen := 0
	for k := 0; k < wt.NotesPerOctave; k++ {
		f := wt.FLo * math.Pow(2, float64(k)/float64(wt.NotesPerOctave))
		baseFreqs[k] = f
		p := notePeriod(f, wt.SampleRate)
		basePeriods[k] = p
		arenaLen += p
	}

	arena := make([]float32, arenaLen)
	offsets := make([]int, wt.NotesPerOctave)
	cursor := 0
	for k := 0; k < wt.NotesPerOctave; k++ {
		offsets[k] = cursor
		period := basePeriods[k]
		for i := 0; i < period; i++ {
			arena[cursor+i] = float32(math.Sin(2 * math.Pi * float64(i) / float64(period)))
		}
		cursor += period
	}

	notes := make([]NoteDescriptor, totalNotes)
	for n := 0; n < totalNotes; n++ {
		octave := n / wt.NotesPerOctave
		k := n % wt.NotesPerOctave
		notes[n] = NoteDescriptor{
			Offset:      offsets[k],
			Period:      basePeriods[k],
			StrideCoeff: 1 << uint(octave),
		}
	}

	wt.Arena = arena
	wt.Notes = notes
	atomic.AddUint64(&wt.generation, 1)
}

// Generation returns the current arena generation counter, used by tests to
// assert hot-reload atomicity (§8.8): it must be stable across any single
// buffer's worker execution.
func (wt *WaveTable) Generation() uint64 {
	return atomic.LoadUint64(&wt.generation)
}

// RandomizePhases assigns every oscillator a uniform random phase in
// [0, period) to break constructive interference at startup or reload.
func RandomizePhases(oscs []*Oscillator, wt *WaveTable, rng *rand.Rand) {
	for i, o := range oscs {
		d := wt.Notes[i]
		o.waveOffset = d.Offset
		o.period = d.Period
		o.strideCoeff = d.StrideCoeff
		o.Phase = rng.Intn(d.Period)
	}
}

// RequestReload arms the hot-reload state machine and drives the global
// fade target to 0, silencing output during regeneration. Grounded on
// wave_generation.c's request_frequency_reinit (compare-and-swap IDLE ->
// PENDING, fade target set to 0).
func (wt *WaveTable) RequestReload(fLo, fHi float64) bool {
	if !atomic.CompareAndSwapInt32(&wt.reloadState, reloadIdle, reloadPending) {
		return false
	}
	wt.FLo = fLo
	wt.FHi = fHi
	wt.fadeTarget = 0
	return true
}

// CheckAndReload regenerates the table if a reload is pending. Must be
// called by the orchestrator immediately before releasing workers (§4.A),
// so that by construction no worker observes a half-built table.
func (wt *WaveTable) CheckAndReload(totalNotes int, oscs []*Oscillator, rng *rand.Rand) {
	if atomic.LoadInt32(&wt.reloadState) != reloadPending {
		return
	}
	wt.generate(totalNotes)
	RandomizePhases(oscs, wt, rng)
	for _, o := range oscs {
		o.CurrentVolume = 0
	}
	wt.fadeTarget = 1
	atomic.StoreInt32(&wt.reloadState, reloadIdle)
}

// StepFade advances the global one-pole fade coefficient by one sample and
// returns it. Values are clamped to their exact endpoints once within
// epsilon, matching wave_generation.c's get_global_fade_factor_and_update.
func (wt *WaveTable) StepFade() float32 {
	wt.fadeCurrent += globalFadeAlpha * (wt.fadeTarget - wt.fadeCurrent)
	if wt.fadeTarget == 0 && wt.fadeCurrent < 1e-5 {
		wt.fadeCurrent = 0
	} else if wt.fadeTarget == 1 && wt.fadeCurrent > 1-1e-5 {
		wt.fadeCurrent = 1
	}
	return wt.fadeCurrent
}
