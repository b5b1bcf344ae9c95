// rtprofiler.go - lightweight real-time profiling counters

/*
Sp3ctra - real-time additive synthesis engine
Copyright (C) 2026 Ondulab
License: GPLv3 or later
*/

// Package rtprofiler tracks mutex-wait time and per-buffer processing
// duration without allocating or logging on the hot path. Grounded on
// src/utils/rt_profiler.c; exposed here as plain atomic counters a CLI
// status line can poll, with no persistent storage (Non-goal).
package rtprofiler

import (
	"sync/atomic"
	"time"
)

// Profiler accumulates nanosecond totals and sample counts for named
// spans. Reads and writes are lock-free.
type Profiler struct {
	bufferProcessingNs atomic.Int64
	bufferCount        atomic.Int64
	mutexWaitNs        atomic.Int64
	mutexWaitCount     atomic.Int64
	underruns          atomic.Int64
}

// RecordBuffer adds one buffer-processing duration sample.
func (p *Profiler) RecordBuffer(d time.Duration) {
	p.bufferProcessingNs.Add(int64(d))
	p.bufferCount.Add(1)
}

// RecordMutexWait adds one mutex-wait duration sample.
func (p *Profiler) RecordMutexWait(d time.Duration) {
	p.mutexWaitNs.Add(int64(d))
	p.mutexWaitCount.Add(1)
}

// RecordUnderrun increments the underrun counter (§7 audio underrun).
func (p *Profiler) RecordUnderrun() {
	p.underruns.Add(1)
}

// Snapshot is a point-in-time read of the profiler's counters.
type Snapshot struct {
	AvgBufferProcessing time.Duration
	BufferCount         int64
	AvgMutexWait        time.Duration
	MutexWaitCount      int64
	Underruns           int64
}

// Snapshot computes averages from the accumulated totals.
func (p *Profiler) Snapshot() Snapshot {
	bc := p.bufferCount.Load()
	mc := p.mutexWaitCount.Load()
	s := Snapshot{
		BufferCount:    bc,
		MutexWaitCount: mc,
		Underruns:      p.underruns.Load(),
	}
	if bc > 0 {
		s.AvgBufferProcessing = time.Duration(p.bufferProcessingNs.Load() / bc)
	}
	if mc > 0 {
		s.AvgMutexWait = time.Duration(p.mutexWaitNs.Load() / mc)
	}
	return s
}
