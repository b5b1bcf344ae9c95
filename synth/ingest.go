// ingest.go - ingest thread: source -> preprocessor -> image->synth buffer

/*
Sp3ctra - real-time additive synthesis engine
Copyright (C) 2026 Ondulab
License: GPLv3 or later
*/

package synth

import (
	"time"

	"github.com/charmbracelet/log"

	"github.com/ondulab/sp3ctra-go/external"
)

// ingestReadBufSize bounds one UDP datagram read; comfortably above any
// single fragment's expected size (§6 UDP wire protocol).
const ingestReadBufSize = 65536

// ImageSource is the ingest collaborator the Engine's ingest goroutine
// drives: one reassembled image line's RGB planes per call, blocking until
// available. external.UDPSource implements this.
type ImageSource interface {
	ReceiveLine(buf []byte) (r, g, b []byte, err error)
}

// BindIngest attaches the image source (and optional display tap) the
// ingest thread spawned by Start will drive. Must be called before Start;
// without a bound source, Start runs only the worker pool and
// orchestrator, matching headless/test configurations that publish frames
// to ImageInput directly.
func (e *Engine) BindIngest(source ImageSource, tap *external.DisplayTap, logger *log.Logger) {
	e.imageSource = source
	e.displayTap = tap
	e.ingestLogger = logger
}

// runIngest is the ingest thread §2/§5 name: consume one reassembled line,
// run it through the preprocessor, and publish the result to ImageInput.
// A source or preprocess error is logged and skipped; ImageSynthBuffer's
// BatchRead already reuses the last published frame when no new one has
// landed, which is the idempotence-by-design behavior §7 calls for on
// UDP/ingest failures -- this loop does not need its own fallback frame.
func (e *Engine) runIngest(stop <-chan struct{}) {
	pp := &Preprocessor{Config: e.Config.Preprocess}
	frame := NewPreprocessedFrame(e.Config.NumNotes())
	buf := make([]byte, ingestReadBufSize)

	for {
		select {
		case <-stop:
			return
		default:
		}

		r, g, b, err := e.imageSource.ReceiveLine(buf)
		if err != nil {
			if e.ingestLogger != nil {
				e.ingestLogger.Warn("ingest read failed, reusing last frame", "err", err)
			}
			continue
		}

		if e.displayTap != nil {
			e.displayTap.Update(r, g, b)
		}

		if err := pp.Process(r, g, b, frame, time.Now().UnixMicro()); err != nil {
			if e.ingestLogger != nil {
				e.ingestLogger.Warn("preprocess failed, reusing last frame", "err", err)
			}
			continue
		}
		e.ImageInput.Publish(frame)
	}
}
