package effects

import (
	"testing"

	"github.com/cwbudde/algo-spatialmix/dsp/core"
	"github.com/cwbudde/algo-spatialmix/dsp/pan"
	"github.com/cwbudde/algo-spatialmix/internal/testutil"
)

func runDedicated(t *testing.T, typ Type, layout *pan.Layout, gain float64) (*Dedicated, [][]float64) {
	t.Helper()

	dev := NewDevice(48000, layout)
	props := DefaultProps()
	props.Dedicated.Gain = gain

	d := NewDedicated()
	d.DeviceUpdate(dev)
	d.Update(dev, SlotParams{Type: typ, Gain: 1}, &props)

	in := [][]float64{testutil.DeterministicNoise(5, 1, 300)}
	out := testutil.Channels(layout.NumChannels(), 300)
	d.Process(300, in, out)

	return d, out
}

func TestDedicatedLowFrequencyOnlyOnLFE(t *testing.T) {
	d, out := runDedicated(t, TypeDedicatedLowFrequency, pan.Surround51, 0.7)
	if d.Output() != pan.OutputRealOut {
		t.Fatalf("output = %v, want real-out", d.Output())
	}

	lfe := pan.Surround51.Index(pan.LFE)
	in := testutil.DeterministicNoise(5, 1, 300)
	for c, ch := range out {
		if c == lfe {
			for i := range ch {
				testutil.RequireNearlyEqual(t, "lfe", ch[i], in[i]*0.7, 1e-15)
			}
			continue
		}
		testutil.RequireSilent(t, ch, 0)
	}
}

func TestDedicatedLowFrequencyWithoutLFE(t *testing.T) {
	d, out := runDedicated(t, TypeDedicatedLowFrequency, pan.Stereo, 1)
	for c := range out {
		testutil.RequireSilent(t, out[c], 0)
	}
	g := d.Gains()
	if g.Sum(pan.MaxOutputChannels) != 0 {
		t.Fatalf("gains = %v, want all zero", g)
	}
}

func TestDedicatedDialogueFrontCenter(t *testing.T) {
	d, out := runDedicated(t, TypeDedicatedDialogue, pan.Surround71, 2)
	if d.Output() != pan.OutputRealOut {
		t.Fatalf("output = %v, want real-out", d.Output())
	}

	fc := pan.Surround71.Index(pan.FrontCenter)
	for c, ch := range out {
		if c != fc {
			testutil.RequireSilent(t, ch, 0)
		}
	}
	if testutil.Peak(out[fc]) == 0 {
		t.Fatal("front centre silent")
	}
}

func TestDedicatedDialogueWithoutCenterPansToDry(t *testing.T) {
	for _, layout := range []*pan.Layout{pan.Stereo, pan.Quad} {
		const gain = 0.8
		d, out := runDedicated(t, TypeDedicatedDialogue, layout, gain)
		if d.Output() != pan.OutputDry {
			t.Fatalf("%s: output = %v, want dry", layout.Name, d.Output())
		}

		g := d.Gains()
		testutil.RequireNearlyEqual(t, layout.Name+" gain sum", g.Sum(layout.NumChannels()), gain, 1e-9)

		in := testutil.DeterministicNoise(5, 1, 300)
		for i := range in {
			sum := 0.0
			for c := range out {
				sum += out[c][i]
			}
			testutil.RequireNearlyEqual(t, "summed output", sum, in[i]*gain, 1e-9)
		}
	}
}

func TestDedicatedSkipsSilentGains(t *testing.T) {
	_, out := runDedicated(t, TypeDedicatedLowFrequency, pan.Surround51, core.GainSilenceThreshold/2)
	for c := range out {
		testutil.RequireSilent(t, out[c], 0)
	}
}
