// rtpriority_linux.go - SCHED_FIFO real-time scheduling request

/*
Sp3ctra - real-time additive synthesis engine
Copyright (C) 2026 Ondulab
License: GPLv3 or later
*/

//go:build linux

package synth

import (
	"golang.org/x/sys/unix"
)

// RequestRealtimePriority asks the kernel for SCHED_FIFO scheduling at the
// given priority for the calling OS thread. Failure is logged by the
// caller and never fatal (§5): real-time priority is an optimization, not
// a correctness requirement. No CPU affinity is set, and the worker-pool
// goroutines do not call this themselves. Grounded on
// synth_luxstral_threading.c's synth_set_rt_priority.
func RequestRealtimePriority(priority int) error {
	return unix.SchedSetscheduler(0, unix.SCHED_FIFO, &unix.SchedParam{Priority: int32(priority)})
}
