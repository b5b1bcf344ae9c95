// engine.go - engine context struct tying the additive pipeline together

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
	"time"

	"github.com/charmbracelet/log"

	"github.com/ondulab/sp3ctra-go/external"
)

// EngineConfig is the explicit configuration snapshot the Engine owns, in
// place of the source's global mutable state (design note "Global mutable
// state -> context struct"). Range-invalid values are clamped by
// ClampedEngineConfig, never rejected outright (§7).
type EngineConfig struct {
	SampleRate     float64
	BufferSize     int
	NumWorkers     int
	PixelsPerLine  int
	PixelsPerNote  int

	FreqLowHz      float64
	FreqHighHz     float64
	NotesPerOctave int

	Envelope EnvelopeParams

	Preprocess PreprocessConfig
	Orchestrator OrchestratorConfig

	CaptureEnabled bool
}

// NumNotes derives the total note count from pixel count and
// pixels-per-note.
func (c EngineConfig) NumNotes() int {
	ppn := c.PixelsPerNote
	if ppn <= 0 {
		ppn = 1
	}
	return c.PixelsPerLine / ppn
}

// ClampedEngineConfig returns a copy of c with num_workers, buffer_size,
// notes_per_octave, the frequency range, the envelope taus and
// response_exponent clamped into their valid ranges, and reports which
// fields were clamped so the caller can log a warning (§7
// configuration-range violations). Other fields, including the pixel
// count, are passed through unchanged.
func ClampedEngineConfig(c EngineConfig) (EngineConfig, []string) {
	var notes []string
	clampInt := func(name string, v *int, lo, hi int) {
		if *v < lo {
			*v = lo
			notes = append(notes, fmt.Sprintf("%s clamped to %d", name, lo))
		} else if *v > hi {
			*v = hi
			notes = append(notes, fmt.Sprintf("%s clamped to %d", name, hi))
		}
	}
	clampInt("num_workers", &c.NumWorkers, 1, 64)
	clampInt("buffer_size", &c.BufferSize, 16, 8192)
	clampInt("notes_per_octave", &c.NotesPerOctave, 1, 48)
	if c.FreqLowHz <= 0 {
		c.FreqLowHz = 20
		notes = append(notes, "freq_low_hz clamped to 20")
	}
	if c.FreqHighHz <= c.FreqLowHz {
		c.FreqHighHz = c.FreqLowHz * 2
		notes = append(notes, "freq_high_hz clamped above freq_low_hz")
	}
	if c.Envelope.TauUpSeconds <= 0 {
		c.Envelope.TauUpSeconds = 0.005
		notes = append(notes, "tau_up clamped to 0.005")
	}
	if c.Envelope.TauDownSeconds <= 0 {
		c.Envelope.TauDownSeconds = 0.05
		notes = append(notes, "tau_down clamped to 0.05")
	}
	if c.Orchestrator.ResponseExponent < 0.1 {
		c.Orchestrator.ResponseExponent = 0.1
		notes = append(notes, "response_exponent clamped to 0.1")
	} else if c.Orchestrator.ResponseExponent > 4 {
		c.Orchestrator.ResponseExponent = 4
		notes = append(notes, "response_exponent clamped to 4")
	}
	return c, notes
}

// Engine owns the wave table, oscillator set, worker pool, and the
// double buffers bridging ingest -> synthesis -> audio. It is the single
// context object replacing the source's module-level globals.
type Engine struct {
	Config      EngineConfig
	WaveTable   *WaveTable
	Oscillators []*Oscillator
	Pool        *WorkerPool
	ImageInput  *ImageSynthBuffer
	AudioLeft   *AudioSynthBuffer
	AudioRight  *AudioSynthBuffer
	Orchestrator *Orchestrator

	running         atomic.Bool
	lastShutdownErr error

	imageSource  ImageSource
	displayTap   *external.DisplayTap
	ingestLogger *log.Logger
	ingestStop   chan struct{}
}

// ShutdownErr reports the worker-pool join error observed during the most
// recent Shutdown, if a worker panicked instead of returning normally.
func (e *Engine) ShutdownErr() error { return e.lastShutdownErr }

// NewEngine performs all fallible initialization: allocation, wave-table
// build, worker-pool construction. Any failure here is fatal and
// propagates to the caller (§7); per-buffer processing after this point
// never returns an error.
func NewEngine(cfg EngineConfig) (*Engine, error) {
	nNotes := cfg.NumNotes()
	if nNotes <= 0 {
		return nil, fmt.Errorf("synth: configuration yields zero notes (pixels_per_line=%d, pixels_per_note=%d)", cfg.PixelsPerLine, cfg.PixelsPerNote)
	}

	wt, err := BuildWaveTable(cfg.FreqLowHz, cfg.FreqHighHz, cfg.NotesPerOctave, cfg.SampleRate, nNotes)
	if err != nil {
		return nil, fmt.Errorf("synth: wave table init failed: %w", err)
	}

	rng := rand.New(rand.NewSource(1))
	oscs := make([]*Oscillator, nNotes)
	for n := 0; n < nNotes; n++ {
		d := wt.Notes[n]
		oscs[n] = &Oscillator{
			FreqHz:        cfg.FreqLowHz * noteFreqRatio(n, cfg.NotesPerOctave),
			waveOffset:    d.Offset,
			period:        d.Period,
			strideCoeff:   d.StrideCoeff,
			Phase:         rng.Intn(d.Period),
			LastLeftGain:  0.70710678,
			LastRightGain: 0.70710678,
		}
	}
	RecomputeEnvelopes(oscs, cfg.SampleRate, cfg.Envelope)

	pool, err := NewWorkerPool(cfg.NumWorkers, nNotes, cfg.BufferSize)
	if err != nil {
		return nil, fmt.Errorf("synth: worker pool init failed: %w", err)
	}

	imageIn := NewImageSynthBuffer(nNotes)
	audioL := NewAudioSynthBuffer(cfg.BufferSize)
	audioR := NewAudioSynthBuffer(cfg.BufferSize)

	orchCfg := cfg.Orchestrator
	orchCfg.SampleRate = cfg.SampleRate
	orchCfg.BufferSize = cfg.BufferSize
	orchCfg.NumNotes = nNotes
	orchCfg.Stereo = cfg.Preprocess.Stereo
	orchCfg.VolumeWeightExponent = cfg.Orchestrator.VolumeWeightExponent
	orchCfg.CaptureEnabled = cfg.CaptureEnabled

	orch := NewOrchestrator(orchCfg, wt, pool, oscs, imageIn, audioL, audioR, rng)

	return &Engine{
		Config:       cfg,
		WaveTable:    wt,
		Oscillators:  oscs,
		Pool:         pool,
		ImageInput:   imageIn,
		AudioLeft:    audioL,
		AudioRight:   audioR,
		Orchestrator: orch,
		ingestStop:   make(chan struct{}),
	}, nil
}

// noteFreqRatio returns 2^(n/notesPerOctave), i.e. the multiplier from
// FreqLowHz to note n's frequency, matching the wave table's own
// frequency assignment in BuildWaveTable's generate.
func noteFreqRatio(n, notesPerOctave int) float64 {
	return math.Pow(2, float64(n)/float64(notesPerOctave))
}

// Start spawns the worker-pool goroutines, the ingest thread if a source
// has been bound via BindIngest, and marks the engine running. Per §5's
// three-thread layout (ingest, synthesis/worker-pool, audio callback),
// this and the caller's audio.Player cover all three.
func (e *Engine) Start() {
	e.Pool.Start()
	if e.imageSource != nil {
		go e.runIngest(e.ingestStop)
	}
	e.running.Store(true)
}

// RunLoop runs the orchestrator continuously until stop is closed,
// producing one audio buffer per iteration and throttling via
// WaitForConsumption on the left channel (§5).
func (e *Engine) RunLoop(stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			return
		default:
		}
		e.Orchestrator.RunOnce()
		published := int(1 - e.AudioLeft.writeIndex.Load())
		e.AudioLeft.WaitForConsumption(published, 200*time.Millisecond)
	}
}

// Shutdown stops the worker pool. A shutdown atomic flag plus a final
// barrier pass guarantee every worker exits even mid-wait (§5), and Wait
// joins every worker goroutine so a panic surfaces here instead of being
// silently dropped.
func (e *Engine) Shutdown() {
	if !e.running.CompareAndSwap(true, false) {
		return
	}
	if e.imageSource != nil {
		close(e.ingestStop)
	}
	e.Pool.Shutdown()
	if err := e.Pool.Wait(); err != nil {
		e.lastShutdownErr = err
	}
}

// RequestFrequencyReinit arms the hot-reload state machine for a new
// frequency range, per the parameter-update interface's frequency-range
// category (§6).
func (e *Engine) RequestFrequencyReinit(fLo, fHi float64) bool {
	return e.WaveTable.RequestReload(fLo, fHi)
}

// UpdateEnvelopeParams recomputes every oscillator's envelope
// coefficients for new tau/reference/beta values (§4.F, §6).
func (e *Engine) UpdateEnvelopeParams(p EnvelopeParams) {
	e.Config.Envelope = p
	RecomputeEnvelopes(e.Oscillators, e.Config.SampleRate, p)
}
