// config.go - populated configuration record and reference loader

/*
Sp3ctra - real-time additive synthesis engine
Copyright (C) 2026 Ondulab
License: GPLv3 or later
*/

// Package config loads a populated configuration record for the engine.
// Parsing the original INI file format is an external collaborator per
// spec §6; this package is this port's own reference loader, using YAML
// since no INI reader exists anywhere in the retrieval pack (see
// DESIGN.md, "Config format: YAML, not INI").
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ondulab/sp3ctra-go/synth"
)

// Record is the full populated configuration the engine consumes.
// Recognized keys match §6's categories plus sample rate, buffer size,
// pixel count, worker count, and frequency range.
type Record struct {
	SampleRate    float64 `yaml:"sample_rate"`
	BufferSize    int     `yaml:"buffer_size"`
	NumWorkers    int     `yaml:"num_workers"`
	PixelsPerLine int     `yaml:"pixels_per_line"`
	PixelsPerNote int     `yaml:"pixels_per_note"`

	FreqLowHz      float64 `yaml:"freq_low_hz"`
	FreqHighHz     float64 `yaml:"freq_high_hz"`
	NotesPerOctave int     `yaml:"notes_per_octave"`

	TauUpSeconds   float64 `yaml:"tau_up_seconds"`
	TauDownSeconds float64 `yaml:"tau_down_seconds"`
	DecayFreqRefHz float64 `yaml:"decay_freq_ref_hz"`
	DecayFreqBeta  float64 `yaml:"decay_freq_beta"`

	InvertIntensity        bool    `yaml:"invert_intensity"`
	Gamma                  float64 `yaml:"gamma"`
	EnableNonLinearMapping bool    `yaml:"enable_non_linear_mapping"`

	ContrastMin             float64 `yaml:"contrast_min"`
	ContrastAdjustmentPower float64 `yaml:"contrast_adjustment_power"`

	Stereo                         bool    `yaml:"stereo"`
	StereoBlueRedWeight            float64 `yaml:"stereo_blue_red_weight"`
	StereoCyanYellowWeight         float64 `yaml:"stereo_cyan_yellow_weight"`
	StereoTemperatureAmplification float64 `yaml:"stereo_temperature_amplification"`
	StereoTemperatureCurveExponent float64 `yaml:"stereo_temperature_curve_exponent"`

	VolumeWeightExponent float64 `yaml:"volume_weight_exponent"`
	ResponseExponent     float64 `yaml:"response_exponent"`
	SoftLimitThreshold   float64 `yaml:"soft_limit_threshold"`
	SoftLimitKnee        float64 `yaml:"soft_limit_knee"`
	MasterVolume         float64 `yaml:"master_volume"`

	CaptureEnabled bool `yaml:"capture_enabled"`

	// UDP ingest (external collaborator per spec §1; geometry is a wire
	// protocol detail, not a core synthesis tunable, so it lives here
	// rather than in EngineConfig).
	ListenAddr        string `yaml:"listen_addr"`
	PixelsPerFragment int    `yaml:"pixels_per_fragment"`
	FragmentsPerLine  int    `yaml:"fragments_per_line"`
}

// Default returns a Record populated with sane defaults. The orchestrator's
// fixed constants (synth_luxstral.c's 0.35f safety scale, 1e-6f sum
// epsilon) are not part of the Record; ToEngineConfig sets them.
func Default() Record {
	return Record{
		SampleRate:     48000,
		BufferSize:     512,
		NumWorkers:     4,
		PixelsPerLine:  1728,
		PixelsPerNote:  1,
		FreqLowHz:      55,
		FreqHighHz:     12000,
		NotesPerOctave: 12,
		TauUpSeconds:   0.003,
		TauDownSeconds: 0.05,
		DecayFreqRefHz: 440,
		DecayFreqBeta:  0.3,

		Gamma:                   1.0,
		ContrastMin:             0.1,
		ContrastAdjustmentPower: 0.5,

		StereoBlueRedWeight:            0.6,
		StereoCyanYellowWeight:         0.4,
		StereoTemperatureAmplification: 3.0,
		StereoTemperatureCurveExponent: 1.0,

		VolumeWeightExponent: 1.0,
		ResponseExponent:     2.0,
		SoftLimitThreshold:   0.85,
		SoftLimitKnee:        0.15,
		MasterVolume:         1.0,

		ListenAddr:        ":9000",
		PixelsPerFragment: 144,
		FragmentsPerLine:  12,
	}
}

// Load reads a YAML configuration file, starting from Default() so unset
// keys keep their defaults.
func Load(path string) (Record, error) {
	rec := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return rec, fmt.Errorf("config: read %q: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &rec); err != nil {
		return rec, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return rec, nil
}

// ToEngineConfig converts a populated Record into the synth package's
// EngineConfig, the shape NewEngine actually consumes.
func (r Record) ToEngineConfig() synth.EngineConfig {
	return synth.EngineConfig{
		SampleRate:     r.SampleRate,
		BufferSize:     r.BufferSize,
		NumWorkers:     r.NumWorkers,
		PixelsPerLine:  r.PixelsPerLine,
		PixelsPerNote:  r.PixelsPerNote,
		FreqLowHz:      r.FreqLowHz,
		FreqHighHz:     r.FreqHighHz,
		NotesPerOctave: r.NotesPerOctave,
		Envelope: synth.EnvelopeParams{
			TauUpSeconds:   r.TauUpSeconds,
			TauDownSeconds: r.TauDownSeconds,
			DecayFreqRefHz: r.DecayFreqRefHz,
			DecayFreqBeta:  r.DecayFreqBeta,
		},
		Preprocess: synth.PreprocessConfig{
			InvertIntensity:                r.InvertIntensity,
			Gamma:                          r.Gamma,
			EnableNonLinearMapping:         r.EnableNonLinearMapping,
			PixelsPerNote:                  r.PixelsPerNote,
			ContrastMin:                    r.ContrastMin,
			ContrastAdjustmentPower:        r.ContrastAdjustmentPower,
			Stereo:                         r.Stereo,
			StereoBlueRedWeight:            r.StereoBlueRedWeight,
			StereoCyanYellowWeight:         r.StereoCyanYellowWeight,
			StereoTemperatureAmplification: r.StereoTemperatureAmplification,
			StereoTemperatureCurveExponent: r.StereoTemperatureCurveExponent,
		},
		Orchestrator: synth.OrchestratorConfig{
			SafetyScale:          0.35,
			SumEpsilon:           1e-6,
			BaseLevel:            0.05,
			ResponseExponent:     r.ResponseExponent,
			SoftLimitThreshold:   float32(r.SoftLimitThreshold),
			SoftLimitKnee:        float32(r.SoftLimitKnee),
			VolumeWeightExponent: r.VolumeWeightExponent,
		},
		CaptureEnabled: r.CaptureEnabled,
	}
}
