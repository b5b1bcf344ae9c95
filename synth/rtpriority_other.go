// rtpriority_other.go - no-op real-time scheduling fallback

/*
Sp3ctra - real-time additive synthesis engine
Copyright (C) 2026 Ondulab
License: GPLv3 or later
*/

//go:build !linux

package synth

import "fmt"

// RequestRealtimePriority is a no-op stand-in on platforms without
// SCHED_FIFO support wired up. The macOS time-constraint-policy
// equivalent named in §5 is left to a future port; callers already treat
// any error here as non-fatal.
func RequestRealtimePriority(priority int) error {
	return fmt.Errorf("synth: real-time scheduling not implemented on this platform")
}
