// logging.go - structured logger construction

/*
Sp3ctra - real-time additive synthesis engine
Copyright (C) 2026 Ondulab
License: GPLv3 or later
*/

// Package logging builds the engine's structured logger, matching the
// retrieval pack's charmbracelet/log usage (see SPEC_FULL.md, "AMBIENT
// STACK" section).
package logging

import (
	"os"

	"github.com/charmbracelet/log"
	"golang.org/x/term"
)

// New builds a logger at the given level. When stderr is not a terminal
// (piped to a file, running under a supervisor) it reports plain,
// uncolored lines, mirroring the teacher's isatty-gated banner in main.go.
func New(level log.Level) *log.Logger {
	isTTY := term.IsTerminal(int(os.Stderr.Fd()))
	return log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Level:           level,
		ReportCaller:    false,
		Formatter:       colorAwareFormatter(isTTY),
	})
}

func colorAwareFormatter(isTTY bool) log.Formatter {
	if isTTY {
		return log.TextFormatter
	}
	return log.LogfmtFormatter
}
