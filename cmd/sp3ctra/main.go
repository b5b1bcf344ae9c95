// main.go - sp3ctra CLI entrypoint

/*
Sp3ctra - real-time additive synthesis engine
Copyright (C) 2026 Ondulab
License: GPLv3 or later
*/

package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"

	"github.com/ondulab/sp3ctra-go/audio"
	"github.com/ondulab/sp3ctra-go/external"
	"github.com/ondulab/sp3ctra-go/internal/config"
	"github.com/ondulab/sp3ctra-go/internal/logging"
	"github.com/ondulab/sp3ctra-go/synth"
)

func boilerPlate() string {
	return `
 ____        _____       _
/ ___| _ __ |___ / ___  | |_ _ __ __ _
\___ \| '_ \  |_ \/ __| | __| '__/ _` + "`" + ` |
 ___) | |_) |___) \__ \ | |_| | | (_| |
|____/| .__/|____/|___/  \__|_|  \__,_|
      |_|
real-time additive synthesis engine
`
}

func main() {
	configPath := pflag.StringP("config", "c", "", "path to YAML configuration file")
	listenAddr := pflag.StringP("listen", "l", ":9000", "UDP listen address for image-line ingest")
	verbose := pflag.BoolP("verbose", "v", false, "enable debug logging")
	headlessFlag := pflag.Bool("no-banner", false, "suppress the startup banner")
	pflag.Parse()

	if !*headlessFlag {
		fmt.Fprint(os.Stderr, boilerPlate())
	}

	level := log.InfoLevel
	if *verbose {
		level = log.DebugLevel
	}
	logger := logging.New(level)

	rec := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			logger.Fatal("failed to load configuration", "err", err)
		}
		rec = loaded
	}

	if pflag.Lookup("listen").Changed {
		rec.ListenAddr = *listenAddr
	}

	engCfg, clampNotes := synth.ClampedEngineConfig(rec.ToEngineConfig())
	for _, note := range clampNotes {
		logger.Warn("configuration value clamped", "detail", note)
	}

	engine, err := synth.NewEngine(engCfg)
	if err != nil {
		logger.Fatal("engine initialization failed", "err", err)
	}

	player, err := audio.NewPlayer(int(engCfg.SampleRate))
	if err != nil {
		logger.Fatal("audio output initialization failed", "err", err)
	}
	player.Bind(engine.AudioLeft, engine.AudioRight)

	// Parameter-update bridge (§6): frequency-range and envelope-tau writes
	// reach the core via Engine's own mutators; master volume is applied
	// only in the audio callback (§4.I), never in the orchestrator.
	params := external.NewTable(func(lo, hi float64) {
		engine.RequestFrequencyReinit(lo, hi)
	})
	masterVolume := external.NewParam("master_volume", external.ScaleLinear, 0, 2, rec.MasterVolume)
	masterVolume.OnChange(player.SetMasterVolume)
	params.Register(masterVolume)
	player.SetMasterVolume(masterVolume.Raw())

	tauUp := external.NewParam("tau_up_seconds", external.ScaleLinear, 0.0005, 0.5, rec.TauUpSeconds)
	tauUp.OnChange(func(v float32) {
		p := engine.Config.Envelope
		p.TauUpSeconds = float64(v)
		engine.UpdateEnvelopeParams(p)
	})
	params.Register(tauUp)

	tauDown := external.NewParam("tau_down_seconds", external.ScaleLinear, 0.001, 2, rec.TauDownSeconds)
	tauDown.OnChange(func(v float32) {
		p := engine.Config.Envelope
		p.TauDownSeconds = float64(v)
		engine.UpdateEnvelopeParams(p)
	})
	params.Register(tauDown)

	displayTap := external.NewDisplayTap(engCfg.PixelsPerLine)

	udpSource, err := external.NewUDPSource(rec.ListenAddr, rec.PixelsPerFragment, rec.FragmentsPerLine, logger)
	if err != nil {
		logger.Fatal("UDP ingest bind failed", "err", err)
	}
	defer udpSource.Close()
	engine.BindIngest(udpSource, displayTap, logger)

	engine.Start()
	logger.Info("engine started", "workers", engine.Pool.NumWorkers(), "notes", len(engine.Oscillators), "listen", rec.ListenAddr)

	player.Start()
	defer player.Close()

	if err := synth.RequestRealtimePriority(80); err != nil {
		logger.Warn("real-time priority unavailable", "err", err)
	}

	stop := make(chan struct{})
	loopDone := make(chan struct{})
	go func() {
		engine.RunLoop(stop)
		close(loopDone)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	logger.Info("shutting down")
	close(stop)
	<-loopDone
	engine.Shutdown()
}
