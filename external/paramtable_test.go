package external

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParamSetNormalizedLinear(t *testing.T) {
	p := NewParam("master_volume", ScaleLinear, 0, 2, 1)
	require.NoError(t, p.SetNormalized(0.5))
	assert.InDelta(t, 1.0, p.Raw(), 1e-5)

	require.NoError(t, p.SetNormalized(0))
	assert.InDelta(t, 0.0, p.Raw(), 1e-5)

	require.NoError(t, p.SetNormalized(1))
	assert.InDelta(t, 2.0, p.Raw(), 1e-5)
}

func TestParamSetNormalizedLog(t *testing.T) {
	p := NewParam("freq_low", ScaleLog, 20, 2000, 20)
	require.NoError(t, p.SetNormalized(0))
	assert.InDelta(t, 20, p.Raw(), 1e-3)

	require.NoError(t, p.SetNormalized(1))
	assert.InDelta(t, 2000, p.Raw(), 1e-2)
}

func TestParamSetNormalizedDiscrete(t *testing.T) {
	p := NewParam("notes_per_octave", ScaleDiscrete, 1, 4, 1)
	p.Steps = 4
	require.NoError(t, p.SetNormalized(0))
	assert.Equal(t, float32(1), p.Raw())

	require.NoError(t, p.SetNormalized(1))
	assert.Equal(t, float32(4), p.Raw())
}

func TestParamSetNormalizedRejectsOutOfRange(t *testing.T) {
	p := NewParam("gamma", ScaleLinear, 0, 1, 0.5)
	assert.Error(t, p.SetNormalized(-0.1))
	assert.Error(t, p.SetNormalized(1.1))
}

func TestTableApplyFrequencyRangeInvokesHookExactlyOnce(t *testing.T) {
	calls := 0
	var gotLo, gotHi float64
	table := NewTable(func(lo, hi float64) {
		calls++
		gotLo, gotHi = lo, hi
	})

	table.ApplyFrequencyRange(55, 1760)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 55.0, gotLo)
	assert.Equal(t, 1760.0, gotHi)
}

func TestParamOnChangeFiresWithNewRawValue(t *testing.T) {
	var got float32
	calls := 0
	p := NewParam("master_volume", ScaleLinear, 0, 2, 1)
	p.OnChange(func(raw float32) {
		calls++
		got = raw
	})

	require.NoError(t, p.SetNormalized(0.25))
	assert.Equal(t, 1, calls)
	assert.InDelta(t, 0.5, got, 1e-5)
}

func TestParamOnChangeNotCalledOnRejectedWrite(t *testing.T) {
	calls := 0
	p := NewParam("gamma", ScaleLinear, 0, 1, 0.5)
	p.OnChange(func(float32) { calls++ })

	assert.Error(t, p.SetNormalized(2))
	assert.Equal(t, 0, calls)
}

func TestTableRegisterAndGet(t *testing.T) {
	table := NewTable(nil)
	p := NewParam("tau_down", ScaleLinear, 0.001, 0.5, 0.05)
	table.Register(p)

	got, ok := table.Get("tau_down")
	require.True(t, ok)
	assert.Same(t, p, got)

	_, ok = table.Get("missing")
	assert.False(t, ok)
}
