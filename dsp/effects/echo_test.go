package effects

import (
	"testing"

	"github.com/cwbudde/algo-spatialmix/dsp/filter/biquad"
	"github.com/cwbudde/algo-spatialmix/dsp/pan"
	"github.com/cwbudde/algo-spatialmix/internal/testutil"
)

func newTestEcho(t *testing.T, rate float64, layout *pan.Layout, mutate func(*EchoProps)) (*Echo, *Device) {
	t.Helper()

	dev := NewDevice(rate, layout)
	props := DefaultProps()
	if mutate != nil {
		mutate(&props.Echo)
	}
	if err := props.Validate(TypeEcho); err != nil {
		t.Fatalf("props: %v", err)
	}

	e := NewEcho()
	e.DeviceUpdate(dev)
	e.Update(dev, SlotParams{Type: TypeEcho, Gain: 1}, &props)
	return e, dev
}

func TestEchoSizing(t *testing.T) {
	e, _ := newTestEcho(t, 48000, pan.Stereo, nil)
	if e.DelayLen() != 32768 {
		t.Fatalf("delay length = %d, want 32768", e.DelayLen())
	}

	e2, _ := newTestEcho(t, 22050, pan.Stereo, nil)
	if e2.DelayLen() != 16384 {
		t.Fatalf("delay length at 22050 = %d, want 16384", e2.DelayLen())
	}
}

func TestEchoTapOffsets(t *testing.T) {
	tests := []struct {
		delay, lr  float64
		tap1, tap2 int
	}{
		{0.1, 0.03, 4801, 6241},
		{0.1, 0.05, 4801, 7201},
		{0, 0, 1, 1},
		{EchoMaxDelay, EchoMaxLRDelay, 9937, 29329},
	}
	for _, tt := range tests {
		e, _ := newTestEcho(t, 48000, pan.Stereo, func(p *EchoProps) {
			p.Delay = tt.delay
			p.LRDelay = tt.lr
		})
		tap1, tap2 := e.Taps()
		if tap1 != tt.tap1 || tap2 != tt.tap2 {
			t.Fatalf("delay=%v lr=%v: taps = %d/%d, want %d/%d", tt.delay, tt.lr, tap1, tap2, tt.tap1, tt.tap2)
		}
		if tap2 > e.DelayLen() {
			t.Fatalf("tap2 %d beyond delay line %d", tap2, e.DelayLen())
		}
	}
}

func TestEchoImpulseScenario(t *testing.T) {
	const (
		n    = 14000
		tap1 = 4801
		tap2 = 6241
		fb   = 0.5
	)

	// Negative spread puts the first tap on the right, the second on the
	// left; full directionality keeps them on one speaker each.
	e, _ := newTestEcho(t, 48000, pan.Stereo, func(p *EchoProps) {
		p.Delay = 0.1
		p.LRDelay = 0.03
		p.Feedback = fb
		p.Damping = 0.5
		p.Spread = -1
	})

	in := [][]float64{testutil.Impulse(n, 0)}
	out := testutil.Channels(2, n)

	// Uneven blocks exercise state carried across calls and sub-chunks.
	for base := 0; base < n; {
		blk := min(1000, n-base)
		e.Process(blk, [][]float64{in[0][base : base+blk]}, [][]float64{out[0][base : base+blk], out[1][base : base+blk]})
		base += blk
	}

	shelf := biquad.Filter{Coefficients: e.Shelf()}
	h := make([]float64, 2000)
	for i := range h {
		x := 0.0
		if i == 0 {
			x = 1
		}
		h[i] = shelf.ProcessSample(x)
	}

	left, right := out[0], out[1]
	testutil.RequireSilent(t, right[:tap1], 0)
	testutil.RequireSilent(t, left[:tap2], 0)

	for k := range h {
		testutil.RequireNearlyEqual(t, "first echo (right)", right[tap1+k], fb*h[k], 1e-12)
		testutil.RequireNearlyEqual(t, "first echo (left)", left[tap2+k], fb*h[k], 1e-12)
	}

	b0 := e.Shelf().B0
	first := fb * b0
	testutil.RequireNearlyEqual(t, "repeat via tap1", right[tap2+tap1], first*first, 1e-9)
	testutil.RequireNearlyEqual(t, "repeat via tap2", left[2*tap2], first*first, 1e-9)

	ratio := right[tap2+tap1] / right[tap1]
	testutil.RequireNearlyEqual(t, "decay ratio", ratio, fb*b0, 1e-9)
	testutil.RequireFinite(t, left)
	testutil.RequireFinite(t, right)
}

func TestEchoDampingFloor(t *testing.T) {
	e, dev := newTestEcho(t, 48000, pan.Stereo, func(p *EchoProps) { p.Damping = 0.99 })
	c := e.Shelf()
	freqMult := 0.5
	if got := c.Magnitude(freqMult); got < minEchoShelfGain-1e-9 {
		t.Fatalf("shelf nyquist gain = %g, want >= %g (rate %v)", got, minEchoShelfGain, dev.SampleRate)
	}
}

func TestEchoPositiveSpreadMirrors(t *testing.T) {
	e, _ := newTestEcho(t, 48000, pan.Stereo, func(p *EchoProps) { p.Spread = 1 })
	// Positive spread: first tap left.
	testutil.RequireNearlyEqual(t, "tap1 L", e.gains[0][0], 1, 1e-9)
	testutil.RequireNearlyEqual(t, "tap1 R", e.gains[0][1], 0, 1e-9)
	testutil.RequireNearlyEqual(t, "tap2 R", e.gains[1][1], 1, 1e-9)

	// Zero spread is omnidirectional: both taps reach both speakers.
	e, _ = newTestEcho(t, 48000, pan.Stereo, func(p *EchoProps) { p.Spread = 0 })
	if e.gains[0][0] <= 0 || e.gains[0][1] <= 0 {
		t.Fatalf("omni tap gains = %v", e.gains[0][:2])
	}
}

func TestEchoDeviceUpdateClears(t *testing.T) {
	e, dev := newTestEcho(t, 48000, pan.Stereo, nil)
	out := testutil.Channels(2, 256)
	e.Process(256, [][]float64{testutil.DC(1, 256)}, out)

	e.DeviceUpdate(dev)
	out = testutil.Channels(2, 12000)
	e.Process(12000, [][]float64{make([]float64, 12000)}, out)
	testutil.RequireSilent(t, out[0], 0)
	testutil.RequireSilent(t, out[1], 0)
}

func TestEchoDeviceUpdateAlwaysSizesLine(t *testing.T) {
	e := NewEcho()
	if e.DelayLen() != 0 {
		t.Fatalf("delay length before DeviceUpdate = %d", e.DelayLen())
	}

	// A negative rate yields a non-positive length request.
	e.DeviceUpdate(NewDevice(-48000, pan.Stereo))
	if e.DelayLen() < 1 {
		t.Fatalf("delay length = %d, want >= 1", e.DelayLen())
	}
	out := testutil.Channels(2, 64)
	e.Process(64, [][]float64{testutil.DC(1, 64)}, out)
	testutil.RequireSilent(t, out[0], 0)
	testutil.RequireSilent(t, out[1], 0)

	e.DeviceUpdate(NewDevice(48000, pan.Stereo))
	if e.DelayLen() != 32768 {
		t.Fatalf("delay length after resize = %d, want 32768", e.DelayLen())
	}
}
