package effects

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-spatialmix/dsp/pan"
	"github.com/cwbudde/algo-spatialmix/internal/testutil"
)

func newTestModulator(t *testing.T, freq, cutoff float64, w Waveform) (*RingModulator, *Device) {
	t.Helper()

	dev := NewDevice(48000, pan.Stereo)
	props := DefaultProps()
	props.Modulator = ModulatorProps{Frequency: freq, HighPassCutoff: cutoff, Waveform: w}
	if err := props.Validate(TypeRingModulator); err != nil {
		t.Fatalf("props: %v", err)
	}

	m := NewRingModulator()
	m.DeviceUpdate(dev)
	m.Update(dev, SlotParams{Type: TypeRingModulator, Gain: 1}, &props)
	return m, dev
}

func wInput(n int) [][]float64 {
	in := testutil.Channels(MaxEffectChannels, n)
	copy(in[0], testutil.DC(1, n))
	return in
}

func TestRingModulatorStep(t *testing.T) {
	tests := []struct {
		freq float64
		step int
	}{
		{440, 153791},
		{46.875, 16384},
		{0, 1},
		{0.001, 1},
	}
	for _, tt := range tests {
		m, _ := newTestModulator(t, tt.freq, 800, Sinusoid)
		if m.Step() != tt.step {
			t.Fatalf("freq %v: step = %d, want %d", tt.freq, m.Step(), tt.step)
		}
	}
}

func TestRingModulatorPhasePeriod(t *testing.T) {
	// 46.875 Hz at 48 kHz gives step 2^14, so the phase repeats every
	// 2^24/2^14 = 1024 samples.
	const period = WaveformFracOne / 16384

	for _, w := range []Waveform{Sinusoid, Sawtooth, Square} {
		m, _ := newTestModulator(t, 46.875, 0, w)

		n := 3 * period
		out := testutil.Channels(2, n)
		m.Process(n, wInput(n), out)

		if m.Phase() != 0 {
			t.Fatalf("%v: phase after 3 periods = %d, want 0", w, m.Phase())
		}
		for i := range period * 2 {
			if out[0][i] != out[0][i+period] {
				t.Fatalf("%v: sample %d = %g, sample %d = %g", w, i, out[0][i], i+period, out[0][i+period])
			}
		}
	}
}

func TestRingModulatorWaveforms(t *testing.T) {
	const n = 300
	step := 16384

	for _, w := range []Waveform{Sinusoid, Sawtooth, Square} {
		m, _ := newTestModulator(t, 46.875, 0, w)
		out := testutil.Channels(2, n)
		m.Process(n, wInput(n), out)

		for i := range n {
			// Zero cutoff leaves the input untouched; W decodes at 0.5 to
			// both stereo speakers.
			want := 0.5 * Carrier(w, (i+1)*step)
			testutil.RequireNearlyEqual(t, w.String()+" L", out[0][i], want, 1e-12)
			testutil.RequireNearlyEqual(t, w.String()+" R", out[1][i], want, 1e-12)
		}
	}

	testutil.RequireNearlyEqual(t, "saw half", Carrier(Sawtooth, WaveformFracOne/2), 0.5, 0)
	testutil.RequireNearlyEqual(t, "square low", Carrier(Square, WaveformFracOne/2-1), 0, 0)
	testutil.RequireNearlyEqual(t, "square high", Carrier(Square, WaveformFracOne/2), 1, 0)
	testutil.RequireNearlyEqual(t, "sine half", Carrier(Sinusoid, WaveformFracOne/2), 0.5, 1e-12)
	testutil.RequireNearlyEqual(t, "sine peak", Carrier(Sinusoid, 3*WaveformFracOne/4), 1, 1e-12)
}

func TestRingModulatorHighPassRemovesDC(t *testing.T) {
	m, _ := newTestModulator(t, 440, 800, Sinusoid)
	n := 48000
	out := testutil.Channels(2, n)
	m.Process(n, wInput(n), out)

	if peak := testutil.Peak(out[0][n-1000:]); peak > 1e-6 {
		t.Fatalf("DC leaks through the high-pass: peak %g", peak)
	}
}

func TestRingModulatorFirstOrderDecode(t *testing.T) {
	m, _ := newTestModulator(t, 440, 0, Sawtooth)

	// A signal on Y alone decodes with opposite signs on the two speakers.
	n := 128
	in := testutil.Channels(MaxEffectChannels, n)
	copy(in[1], testutil.DC(1, n))
	out := testutil.Channels(2, n)
	m.Process(n, in, out)

	for i := range n {
		if out[0][i] == 0 {
			continue
		}
		if math.Abs(out[0][i]+out[1][i]) > 1e-12 {
			t.Fatalf("sample %d: L=%g R=%g, want mirrored", i, out[0][i], out[1][i])
		}
	}
}
