// workerpool.go - deterministic fork-join worker pool

/*
Sp3ctra - real-time additive synthesis engine
Copyright (C) 2026 Ondulab
License: GPLv3 or later
*/

package synth

import (
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// NoteRange is a disjoint half-open range of note indices owned by one
// worker. Invariant: the set of NoteRanges returned by PartitionNotes
// exactly partitions [0, nNotes) -- no overlap, no gap (§8.1).
type NoteRange struct {
	Start int
	End   int
}

// PartitionNotes splits nNotes notes across nWorkers workers as evenly as
// possible, the last worker absorbing any remainder. Grounded on
// synth_luxstral_threading.c's synth_init_thread_pool
// (notes_per_thread = current_notes / num_workers).
func PartitionNotes(nNotes, nWorkers int) []NoteRange {
	if nWorkers <= 0 {
		nWorkers = 1
	}
	if nWorkers > nNotes && nNotes > 0 {
		nWorkers = nNotes
	}
	ranges := make([]NoteRange, nWorkers)
	if nNotes == 0 {
		return ranges
	}
	perWorker := nNotes / nWorkers
	start := 0
	for i := 0; i < nWorkers; i++ {
		end := start + perWorker
		if i == nWorkers-1 {
			end = nNotes
		}
		ranges[i] = NoteRange{Start: start, End: end}
		start = end
	}
	return ranges
}

// WorkerInput is the worker-local, batch-copied slice of preprocessed data
// the orchestrator hands to each worker once per buffer (§4.E step 2).
// Indices are absolute note indices, matching the worker's NoteRange.
type WorkerInput struct {
	TargetVolume []float32
	PanPosition  []float32
	LeftGain     []float32
	RightGain    []float32
	VolumeWeightExponent float64
	Stereo               bool
	CaptureEnabled       bool
}

// WorkerOutput accumulates one buffer's worth of a worker's partial
// results: mono sum, stereo sums, volume-sum and volume-max per sample.
// Sized to the pool's maximum buffer size and reused across buffers (static allocation,
// §3 Worker).
type WorkerOutput struct {
	Mono      []float32
	Left      []float32
	Right     []float32
	VolumeSum []float32
	VolumeMax []float32
}

func newWorkerOutput(maxBufferSize int) *WorkerOutput {
	return &WorkerOutput{
		Mono:      make([]float32, maxBufferSize),
		Left:      make([]float32, maxBufferSize),
		Right:     make([]float32, maxBufferSize),
		VolumeSum: make([]float32, maxBufferSize),
		VolumeMax: make([]float32, maxBufferSize),
	}
}

// worker is one pool participant: it owns a disjoint note range, static
// scratch buffers, and a reference to the engine-wide oscillator slice and
// wave table arena. Workers never lock, allocate or log (§4.D).
type worker struct {
	id    int
	rng   NoteRange
	out   *WorkerOutput
	scratchWave []float32 // per-sample sampled table value, reused per note
	scratchEnv  []float32 // per-sample envelope value, reused per note
	scratchL    []float32
	scratchR    []float32
	powLUT      PowLUT
	capture     CaptureBuffer
}

func newWorker(id int, rng NoteRange, maxBufferSize int) *worker {
	return &worker{
		id:          id,
		rng:         rng,
		out:         newWorkerOutput(maxBufferSize),
		scratchWave: make([]float32, maxBufferSize),
		scratchEnv:  make([]float32, maxBufferSize),
		scratchL:    make([]float32, maxBufferSize),
		scratchR:    make([]float32, maxBufferSize),
	}
}

// WorkerPool is the typed fork-join abstraction wrapping the two barriers
// named in the design notes: Launch releases every worker via the start
// barrier, Await blocks on the end barrier. Workers receive a borrowed
// slice of their note range and a borrowed snapshot of per-worker input
// arrays; no shared mutability is exposed.
type WorkerPool struct {
	workers      []*worker
	startBarrier *Barrier
	endBarrier   *Barrier
	shutdown     atomic.Bool

	oscillators []*Oscillator
	waveTable   *WaveTable
	input       WorkerInput
	bufferSize  int

	group *errgroup.Group
}

// NewWorkerPool builds a pool of nWorkers workers partitioning nNotes notes,
// each with static buffers sized to maxBufferSize.
func NewWorkerPool(nWorkers, nNotes, maxBufferSize int) (*WorkerPool, error) {
	if maxBufferSize <= 0 {
		return nil, fmt.Errorf("synth: invalid max buffer size %d", maxBufferSize)
	}
	ranges := PartitionNotes(nNotes, nWorkers)
	wp := &WorkerPool{
		startBarrier: NewBarrier(len(ranges) + 1),
		endBarrier:   NewBarrier(len(ranges) + 1),
	}
	for i, r := range ranges {
		wp.workers = append(wp.workers, newWorker(i, r, maxBufferSize))
	}
	return wp, nil
}

// NumWorkers reports the pool's current worker count.
func (wp *WorkerPool) NumWorkers() int { return len(wp.workers) }

// Ranges reports each worker's assigned note range, for tests asserting
// the partition invariant.
func (wp *WorkerPool) Ranges() []NoteRange {
	ranges := make([]NoteRange, len(wp.workers))
	for i, w := range wp.workers {
		ranges[i] = w.rng
	}
	return ranges
}

// Start launches one persistent goroutine per worker via an errgroup, which
// gives the pool a single join point (Wait) for detecting a worker that
// panics mid-buffer instead of hanging its peers at the next barrier
// forever. Each worker loops: wait on the start barrier, check shutdown,
// process its note range, wait on the end barrier, check shutdown again --
// grounded on synth_luxstral_threading.c's synth_persistent_worker_thread.
func (wp *WorkerPool) Start() {
	wp.group = &errgroup.Group{}
	for _, w := range wp.workers {
		w := w
		wp.group.Go(func() error {
			return wp.runWorker(w)
		})
	}
}

// Wait blocks until every worker goroutine has returned, which only happens
// after Shutdown has released the final start-barrier pass. It reports the
// first worker panic recovered during the pool's lifetime, if any. Callers
// should invoke it once after Shutdown to confirm clean worker exit.
func (wp *WorkerPool) Wait() error {
	if wp.group == nil {
		return nil
	}
	return wp.group.Wait()
}

func (wp *WorkerPool) runWorker(w *worker) (err error) {
	// A panic is recovered per buffer so the worker keeps arriving at both
	// barriers; the first one is returned once Shutdown releases it.
	process := func() (perr error) {
		defer func() {
			if r := recover(); r != nil {
				perr = fmt.Errorf("synth: worker %d panicked: %v", w.id, r)
			}
		}()
		wp.processRange(w)
		return nil
	}
	for {
		wp.startBarrier.Wait()
		if wp.shutdown.Load() {
			return err
		}
		if perr := process(); perr != nil && err == nil {
			err = perr
		}
		wp.endBarrier.Wait()
		if wp.shutdown.Load() {
			return err
		}
	}
}

// Launch stores the buffer-wide input snapshot, then releases every worker
// via the start barrier (§4.E step 4). The per-note phase/wave sampling of
// step 3 is done by each worker for its own range inside processRange.
func (wp *WorkerPool) Launch(oscillators []*Oscillator, wt *WaveTable, input WorkerInput, bufferSize int) {
	wp.oscillators = oscillators
	wp.waveTable = wt
	wp.input = input
	wp.bufferSize = bufferSize
	wp.startBarrier.Wait()
}

// Await blocks until every worker has finished its range for this buffer
// (§4.E step 5).
func (wp *WorkerPool) Await() {
	wp.endBarrier.Wait()
}

// Shutdown sets the shutdown flag and performs a final pass through the
// start barrier to unblock every worker, mirroring
// synth_shutdown_thread_pool's rejoin pattern. Callers must only invoke
// Shutdown between buffers (after an Await has returned and before the
// next Launch) -- at that point every worker is guaranteed parked at the
// start barrier waiting for the next round, so a single release is
// sufficient; Engine.RunLoop's stop-channel check upholds this.
func (wp *WorkerPool) Shutdown() {
	wp.shutdown.Store(true)
	wp.startBarrier.Wait()
}

// processRange runs the per-note inner loop for one worker's note range,
// implementing §4.D in full: envelope smoothing, waveform weighting,
// stereo pan ramp, mono/stereo accumulation, volume-sum/volume-max
// tracking, and the final phase commit.
func (wp *WorkerPool) processRange(w *worker) {
	n := wp.bufferSize
	out := w.out
	for i := 0; i < n; i++ {
		out.Mono[i] = 0
		out.Left[i] = 0
		out.Right[i] = 0
		out.VolumeSum[i] = 0
		out.VolumeMax[i] = 0
	}

	arena := wp.waveTable.Arena
	in := wp.input

	EnsureCaptureBuffers(&w.capture, in.CaptureEnabled, w.rng.End-w.rng.Start)

	for note := w.rng.Start; note < w.rng.End; note++ {
		o := wp.oscillators[note]
		target := in.TargetVolume[note]
		o.TargetVolume = target

		phase := o.Phase
		period := o.period
		stride := o.strideCoeff
		base := o.waveOffset

		for i := 0; i < n; i++ {
			w.scratchWave[i] = arena[base+phase]
			phase += stride
			if phase >= period {
				phase -= (phase / period) * period
			}
			w.scratchEnv[i] = o.StepEnvelope()
		}
		o.Phase = phase

		if in.Stereo {
			toL := in.LeftGain[note]
			toR := in.RightGain[note]
			RampGains(o.LastLeftGain, o.LastRightGain, toL, toR, n, w.scratchL, w.scratchR)
			o.LastLeftGain = toL
			o.LastRightGain = toR
			for i := 0; i < n; i++ {
				weighted := w.scratchWave[i] * w.scratchEnv[i]
				out.Mono[i] += weighted
				out.Left[i] += weighted * w.scratchL[i]
				out.Right[i] += weighted * w.scratchR[i]
			}
		} else {
			for i := 0; i < n; i++ {
				out.Mono[i] += w.scratchWave[i] * w.scratchEnv[i]
			}
		}

		w.powLUT.Rebuild(in.VolumeWeightExponent)
		for i := 0; i < n; i++ {
			v := w.powLUT.Pow(w.scratchEnv[i])
			out.VolumeSum[i] += v
			if w.scratchEnv[i] > out.VolumeMax[i] {
				out.VolumeMax[i] = w.scratchEnv[i]
			}
		}

		Record(&w.capture, note-w.rng.Start, o)
	}
}

// Capture returns a copy of worker i's most recent per-note debug capture,
// populated only when the buffer was launched with CaptureEnabled set
// (§7 oscillator debug capture). Safe to call between Await and the next
// Launch.
func (wp *WorkerPool) Capture(i int) CaptureBuffer {
	w := wp.workers[i]
	return CaptureBuffer{
		CurrentVolume: append([]float32(nil), w.capture.CurrentVolume...),
		TargetVolume:  append([]float32(nil), w.capture.TargetVolume...),
	}
}

// CollectMono sums every worker's mono buffer into dst (length >= bufferSize).
func (wp *WorkerPool) CollectMono(dst []float32) {
	for i := range dst {
		dst[i] = 0
	}
	for _, w := range wp.workers {
		for i := 0; i < wp.bufferSize; i++ {
			dst[i] += w.out.Mono[i]
		}
	}
}

// CollectStereo sums every worker's L/R buffers into dstL/dstR.
func (wp *WorkerPool) CollectStereo(dstL, dstR []float32) {
	for i := range dstL {
		dstL[i] = 0
		dstR[i] = 0
	}
	for _, w := range wp.workers {
		for i := 0; i < wp.bufferSize; i++ {
			dstL[i] += w.out.Left[i]
			dstR[i] += w.out.Right[i]
		}
	}
}

// CollectVolume sums every worker's volume-sum buffer and element-wise
// maxes every worker's volume-max buffer into dstSum/dstMax.
func (wp *WorkerPool) CollectVolume(dstSum, dstMax []float32) {
	for i := range dstSum {
		dstSum[i] = 0
		dstMax[i] = 0
	}
	for _, w := range wp.workers {
		for i := 0; i < wp.bufferSize; i++ {
			dstSum[i] += w.out.VolumeSum[i]
			if w.out.VolumeMax[i] > dstMax[i] {
				dstMax[i] = w.out.VolumeMax[i]
			}
		}
	}
}
