// callback.go - real-time audio output via oto/v3

/*
Sp3ctra - real-time additive synthesis engine
Copyright (C) 2026 Ondulab
License: GPLv3 or later
*/

//go:build !headless

package audio

import (
	"sync"
	"sync/atomic"

	"github.com/ebitengine/oto/v3"

	"github.com/ondulab/sp3ctra-go/synth"
)

// Player drives the device callback from an Engine's stereo double
// buffers. Grounded on the teacher's audio_backend_oto.go OtoPlayer: the
// hot-path Read() loads an atomic pointer with no lock, matching §4.I's
// "no locks held during copy" contract.
type Player struct {
	ctx     *oto.Context
	player  *oto.Player
	left    atomic.Pointer[synth.AudioSynthBuffer]
	right   atomic.Pointer[synth.AudioSynthBuffer]
	masterVolume atomic.Uint32 // float32 bits, atomic read on hot path

	sampleBuf []float32
	started   bool
	mutex     sync.Mutex // control operations only, never held during Read
}

// NewPlayer opens the oto context for stereo float32 output at sampleRate.
func NewPlayer(sampleRate int) (*Player, error) {
	opts := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 2,
		Format:       oto.FormatFloat32LE,
		BufferSize:   0,
	}
	ctx, ready, err := oto.NewContext(opts)
	if err != nil {
		return nil, err
	}
	<-ready

	p := &Player{ctx: ctx}
	p.masterVolume.Store(floatBits(1))
	return p, nil
}

// Bind attaches the engine's synth->audio buffers and starts the device
// player. Call once after the engine is running.
func (p *Player) Bind(left, right *synth.AudioSynthBuffer) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.left.Store(left)
	p.right.Store(right)
	p.player = p.ctx.NewPlayer(p)
	p.sampleBuf = make([]float32, 4096)
}

// SetMasterVolume atomically updates the master-volume scalar applied in
// Read (§6 parameter-update interface, master volume category).
func (p *Player) SetMasterVolume(v float32) {
	p.masterVolume.Store(floatBits(v))
}

// Read implements io.Reader for oto. It must never block, allocate, or
// log (§4.I): buffer misses produce silence, consumption is always
// signalled by the underlying AudioSynthBuffer's ready-flag protocol.
func (p *Player) Read(out []byte) (int, error) {
	left := p.left.Load()
	right := p.right.Load()
	if left == nil || right == nil {
		for i := range out {
			out[i] = 0
		}
		return len(out), nil
	}

	vol := bitsToFloat(p.masterVolume.Load())
	l, okL := left.TryConsume()
	r, okR := right.TryConsume()

	var n int
	p.sampleBuf, n = mixStereoFrames(out, l, okL, r, okR, vol, p.sampleBuf)
	return n, nil
}

// Start begins playback.
func (p *Player) Start() {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	if !p.started && p.player != nil {
		p.player.Play()
		p.started = true
	}
}

// Stop halts playback without releasing the underlying context.
func (p *Player) Stop() {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	if p.started && p.player != nil {
		p.player.Pause()
		p.started = false
	}
}

// Close releases the player and its context.
func (p *Player) Close() {
	p.Stop()
	p.mutex.Lock()
	defer p.mutex.Unlock()
	if p.player != nil {
		p.player.Close()
		p.player = nil
	}
}

// IsStarted reports whether playback is active.
func (p *Player) IsStarted() bool {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.started
}
