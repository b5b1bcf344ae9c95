// callback_headless.go - no-op audio player for headless builds

/*
Sp3ctra - real-time additive synthesis engine
Copyright (C) 2026 Ondulab
License: GPLv3 or later
*/

//go:build headless

package audio

import "github.com/ondulab/sp3ctra-go/synth"

// Player is a no-op stand-in for the real oto-backed player, letting the
// engine run (e.g. in CI, or for the S1-S6 test scenarios) without a
// sound device. Grounded on the teacher's audio_backend_headless.go.
type Player struct {
	started bool
}

func NewPlayer(sampleRate int) (*Player, error) {
	return &Player{}, nil
}

func (p *Player) Bind(left, right *synth.AudioSynthBuffer) {}

func (p *Player) SetMasterVolume(v float32) {}

func (p *Player) Read(out []byte) (int, error) {
	for i := range out {
		out[i] = 0
	}
	return len(out), nil
}

func (p *Player) Start()                { p.started = true }
func (p *Player) Stop()                 { p.started = false }
func (p *Player) Close()                { p.started = false }
func (p *Player) IsStarted() bool       { return p.started }
