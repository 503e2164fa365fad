package voice

import (
	"errors"
	"sync"
	"testing"

	"github.com/cwbudde/algo-spatialmix/dsp/filter/biquad"
	"github.com/cwbudde/algo-spatialmix/dsp/interp"
	"github.com/cwbudde/algo-spatialmix/dsp/pan"
	"github.com/cwbudde/algo-spatialmix/dsp/snapshot"
	"github.com/cwbudde/algo-spatialmix/internal/testutil"
)

type testTargets struct {
	dry   [][]float64
	real  [][]float64
	sends map[snapshot.SlotID][][]float64
}

func newTargets(n int) *testTargets {
	return &testTargets{
		dry:   testutil.Channels(2, n),
		real:  testutil.Channels(2, n),
		sends: map[snapshot.SlotID][][]float64{},
	}
}

func (tt *testTargets) Output(o pan.Output) [][]float64 {
	if o == pan.OutputRealOut {
		return tt.real
	}
	return tt.dry
}

func (tt *testTargets) Send(slot snapshot.SlotID) [][]float64 {
	return tt.sends[slot]
}

func newTestVoice(t *testing.T, maxBlock int) (*Voice, *SnapshotPool) {
	t.Helper()

	pool, err := snapshot.NewPool[snapshot.Snapshot](64)
	if err != nil {
		t.Fatalf("pool: %v", err)
	}
	v, err := New(pool, maxBlock)
	if err != nil {
		t.Fatalf("voice: %v", err)
	}
	return v, pool
}

// publishGain publishes a mono snapshot sending data at gain to dry
// channel 0.
func publishGain(t *testing.T, v *Voice, pool *SnapshotPool, gain float64, edit func(*snapshot.Snapshot)) snapshot.Handle {
	t.Helper()

	h, s, _, err := pool.Acquire()
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	*s = snapshot.Snapshot{
		Output:    pan.OutputDry,
		Channels:  1,
		Step:      FractionOne,
		Resampler: interp.Linear,
	}
	s.Direct.Gains[0][0] = gain
	if edit != nil {
		edit(s)
	}
	v.Publish(h)
	return h
}

func mono(data []float64) *Buffer {
	return &Buffer{Data: [][]float64{data}, SampleRate: 48000}
}

func TestFirstSnapshotAppliesWithoutRamp(t *testing.T) {
	v, pool := newTestVoice(t, 256)
	if err := v.Start(mono(testutil.DC(1, 1000)), Cursor{}, false); err != nil {
		t.Fatalf("start: %v", err)
	}
	publishGain(t, v, pool, 0.8, nil)

	tt := newTargets(128)
	v.Mix(128, tt)
	for i, x := range tt.dry[0] {
		testutil.RequireNearlyEqual(t, "dry", x, 0.8, 1e-15)
		if tt.dry[1][i] != 0 {
			t.Fatalf("channel 1 sample %d = %g, want 0", i, tt.dry[1][i])
		}
	}
	if got := v.Cursor(); got != (Cursor{Pos: 128}) {
		t.Fatalf("cursor = %+v, want 128", got)
	}
}

func TestGainChangeRampsFromCurrent(t *testing.T) {
	v, pool := newTestVoice(t, 256)
	_ = v.Start(mono(testutil.DC(1, 1000)), Cursor{}, false)
	publishGain(t, v, pool, 1, nil)
	v.Mix(32, newTargets(32))

	publishGain(t, v, pool, 0.5, nil)
	tt := newTargets(128)
	v.Mix(128, tt)

	out := tt.dry[0]
	step := (0.5 - 1.0) / GainRampLength
	for i := range GainRampLength {
		testutil.RequireNearlyEqual(t, "ramp", out[i], 1+step*float64(i), 1e-12)
	}
	for i := GainRampLength; i < len(out); i++ {
		testutil.RequireNearlyEqual(t, "settled", out[i], 0.5, 1e-15)
	}
	if d := testutil.MaxStep(out); d > 1.0/GainRampLength {
		t.Fatalf("largest step %g, want <= %g", d, 1.0/GainRampLength)
	}
}

func TestRampSpansBlocks(t *testing.T) {
	v, pool := newTestVoice(t, 256)
	_ = v.Start(mono(testutil.DC(1, 1000)), Cursor{}, false)
	publishGain(t, v, pool, 0, nil)
	v.Mix(16, newTargets(16))

	publishGain(t, v, pool, 1, nil)
	var got []float64
	for range 4 {
		tt := newTargets(20)
		v.Mix(20, tt)
		got = append(got, tt.dry[0]...)
	}

	for i := range GainRampLength {
		testutil.RequireNearlyEqual(t, "ramp", got[i], float64(i)/GainRampLength, 1e-12)
	}
	for i := GainRampLength; i < len(got); i++ {
		testutil.RequireNearlyEqual(t, "settled", got[i], 1, 1e-15)
	}
}

func TestPauseResumeContinuity(t *testing.T) {
	v, pool := newTestVoice(t, 256)
	_ = v.Start(mono(testutil.Ramp(1, 1000)), Cursor{}, false)
	publishGain(t, v, pool, 1, nil)

	first := newTargets(100)
	v.Mix(100, first)

	if !v.Pause() || v.Eligible() || v.State() != Paused {
		t.Fatalf("pause failed: state %v eligible %v", v.State(), v.Eligible())
	}
	if v.Cursor().Pos != 100 {
		t.Fatalf("paused cursor = %+v, want 100", v.Cursor())
	}

	if !v.Resume() || !v.Eligible() {
		t.Fatalf("resume failed: state %v", v.State())
	}
	second := newTargets(50)
	v.Mix(50, second)

	joined := append(append([]float64{}, first.dry[0]...), second.dry[0]...)
	for i, x := range joined {
		testutil.RequireNearlyEqual(t, "resumed", x, float64(i), 1e-12)
	}
	if testutil.MaxStep(joined) > 1+1e-12 {
		t.Fatalf("discontinuity across pause: max step %g", testutil.MaxStep(joined))
	}
}

func TestLoopingWraps(t *testing.T) {
	v, pool := newTestVoice(t, 256)
	_ = v.Start(mono(testutil.Ramp(1, 100)), Cursor{}, true)
	publishGain(t, v, pool, 1, nil)

	tt := newTargets(250)
	v.Mix(250, tt)

	for i, x := range tt.dry[0] {
		testutil.RequireNearlyEqual(t, "loop", x, float64(i%100), 0)
	}
	if v.Exhausted() {
		t.Fatal("looping voice reported exhausted")
	}
	if got := v.Cursor(); got.Pos != 50 {
		t.Fatalf("cursor = %+v, want 50", got)
	}
}

func TestEndMarksExhausted(t *testing.T) {
	v, pool := newTestVoice(t, 256)
	_ = v.Start(mono(testutil.DC(1, 100)), Cursor{}, false)
	publishGain(t, v, pool, 1, nil)

	tt := newTargets(128)
	v.Mix(128, tt)

	testutil.RequireSliceNearlyEqual(t, tt.dry[0][:100], testutil.DC(1, 100), 0)
	testutil.RequireSilent(t, tt.dry[0][100:], 0)

	if !v.Exhausted() || v.Eligible() {
		t.Fatalf("exhausted=%v eligible=%v, want true/false", v.Exhausted(), v.Eligible())
	}
	if got := v.Cursor(); got != (Cursor{Pos: 100}) {
		t.Fatalf("cursor = %+v, want end of buffer", got)
	}
	if v.State() != Playing {
		t.Fatalf("state = %v; only the control side stops a voice", v.State())
	}
}

func TestResamplerHalfSpeed(t *testing.T) {
	for _, mode := range []interp.Mode{interp.Linear, interp.Cubic} {
		v, pool := newTestVoice(t, 256)
		_ = v.Start(mono(testutil.Ramp(1, 1000)), Cursor{}, false)
		publishGain(t, v, pool, 1, func(s *snapshot.Snapshot) {
			s.Step = FractionOne / 2
			s.Resampler = mode
		})

		tt := newTargets(200)
		v.Mix(200, tt)

		// The cubic kernel sees a zero before the first frame.
		for i := 2; i < 200; i++ {
			testutil.RequireNearlyEqual(t, mode.String(), tt.dry[0][i], float64(i)/2, 1e-12)
		}
		if got := v.Cursor(); got != (Cursor{Pos: 100}) {
			t.Fatalf("%v: cursor = %+v, want 100", mode, got)
		}
	}
}

func TestPointResamplerHoldsSamples(t *testing.T) {
	v, pool := newTestVoice(t, 256)
	_ = v.Start(mono(testutil.Ramp(1, 1000)), Cursor{}, false)
	publishGain(t, v, pool, 1, func(s *snapshot.Snapshot) {
		s.Step = FractionOne * 3 / 4
		s.Resampler = interp.Point
	})

	tt := newTargets(8)
	v.Mix(8, tt)
	testutil.RequireSliceNearlyEqual(t, tt.dry[0], []float64{0, 0, 1, 2, 3, 3, 4, 5}, 0)
}

func TestStepFor(t *testing.T) {
	tests := []struct {
		pitch, bufRate, devRate float64
		want                    int
	}{
		{1, 48000, 48000, FractionOne},
		{1, 24000, 48000, FractionOne / 2},
		{2, 44100, 44100, 2 * FractionOne},
		{1000, 48000, 48000, MaxPitch * FractionOne},
		{1e-9, 48000, 48000, 1},
		{0, 48000, 48000, FractionOne},
	}
	for _, tt := range tests {
		if got := StepFor(tt.pitch, tt.bufRate, tt.devRate); got != tt.want {
			t.Fatalf("StepFor(%v, %v, %v) = %d, want %d", tt.pitch, tt.bufRate, tt.devRate, got, tt.want)
		}
	}
}

func TestSeekAppliesAtBlockBoundary(t *testing.T) {
	v, pool := newTestVoice(t, 256)
	_ = v.Start(mono(testutil.Ramp(1, 1000)), Cursor{}, false)
	publishGain(t, v, pool, 1, nil)
	v.Mix(64, newTargets(64))

	v.Seek(Cursor{Pos: 500})
	if got := v.Cursor(); got.Pos != 500 {
		t.Fatalf("cursor after seek = %+v, want 500", got)
	}

	tt := newTargets(10)
	v.Mix(10, tt)
	for i, x := range tt.dry[0] {
		testutil.RequireNearlyEqual(t, "seeked", x, float64(500+i), 0)
	}
	if got := v.Cursor(); got.Pos != 510 {
		t.Fatalf("cursor = %+v, want 510", got)
	}
}

func TestStartAtOffsetFadesIn(t *testing.T) {
	v, pool := newTestVoice(t, 256)
	_ = v.Start(mono(testutil.DC(1, 1000)), Cursor{Pos: 10}, false)
	publishGain(t, v, pool, 1, nil)

	tt := newTargets(128)
	v.Mix(128, tt)

	if tt.dry[0][0] != 0 {
		t.Fatalf("first sample = %g, want a fade from silence", tt.dry[0][0])
	}
	for i := GainRampLength; i < 128; i++ {
		testutil.RequireNearlyEqual(t, "faded in", tt.dry[0][i], 1, 1e-12)
	}
	if got := v.Cursor(); got.Pos != 138 {
		t.Fatalf("cursor = %+v, want 138", got)
	}
}

func TestLatestPublishWins(t *testing.T) {
	v, pool := newTestVoice(t, 256)
	free := pool.Free()
	_ = v.Start(mono(testutil.DC(1, 1000)), Cursor{}, false)

	publishGain(t, v, pool, 0.25, nil)
	publishGain(t, v, pool, 0.75, nil)
	if pool.Free() != free-1 {
		t.Fatalf("free = %d, want %d: superseded snapshot not released", pool.Free(), free-1)
	}

	tt := newTargets(16)
	v.Mix(16, tt)
	testutil.RequireNearlyEqual(t, "gain", tt.dry[0][0], 0.75, 0)

	publishGain(t, v, pool, 0.5, nil)
	v.Mix(16, newTargets(16))
	if pool.Free() != free-1 {
		t.Fatalf("free = %d, want %d: retired snapshot not released", pool.Free(), free-1)
	}

	v.Stop()
	v.Release()
	if pool.Free() != free {
		t.Fatalf("free = %d after release, want %d", pool.Free(), free)
	}
	if err := v.Start(mono(testutil.DC(1, 10)), Cursor{}, false); err != nil {
		t.Fatalf("restart: %v", err)
	}
	if err := v.Start(mono(testutil.DC(1, 10)), Cursor{}, false); !errors.Is(err, ErrBound) {
		t.Fatalf("second start = %v, want ErrBound", err)
	}
}

func TestSendsAndOutputSelection(t *testing.T) {
	v, pool := newTestVoice(t, 256)
	_ = v.Start(mono(testutil.DC(1, 1000)), Cursor{}, false)
	publishGain(t, v, pool, 0, func(s *snapshot.Snapshot) {
		s.Output = pan.OutputRealOut
		s.Direct.Gains[0][1] = 0.5
		s.NumSends = 2
		s.Sends[0].Slot = 7
		s.Sends[0].Gains[0][0] = 0.25
		s.Sends[1].Slot = 9 // not present
		s.Sends[1].Gains[0][0] = 1
	})

	tt := newTargets(64)
	wet := testutil.Channels(4, 64)
	tt.sends[7] = wet
	v.Mix(64, tt)

	testutil.RequireSilent(t, tt.dry[0], 0)
	testutil.RequireSilent(t, tt.dry[1], 0)
	testutil.RequireSilent(t, tt.real[0], 0)
	testutil.RequireSliceNearlyEqual(t, tt.real[1], testutil.DC(0.5, 64), 0)
	testutil.RequireSliceNearlyEqual(t, wet[0], testutil.DC(0.25, 64), 0)
	testutil.RequireSilent(t, wet[1], 0)
}

func TestStereoBufferUsesBothInputs(t *testing.T) {
	v, pool := newTestVoice(t, 256)
	buf := &Buffer{Data: [][]float64{testutil.DC(1, 100), testutil.DC(-1, 100)}, SampleRate: 48000}
	_ = v.Start(buf, Cursor{}, false)
	publishGain(t, v, pool, 1, func(s *snapshot.Snapshot) {
		s.Channels = 2
		s.Direct.Gains[1][1] = 1
	})

	tt := newTargets(32)
	v.Mix(32, tt)
	testutil.RequireSliceNearlyEqual(t, tt.dry[0], testutil.DC(1, 32), 0)
	testutil.RequireSliceNearlyEqual(t, tt.dry[1], testutil.DC(-1, 32), 0)
}

func TestHighPassShelfSettlesOnDC(t *testing.T) {
	v, pool := newTestVoice(t, 1024)
	_ = v.Start(mono(testutil.DC(1, 48000)), Cursor{}, false)
	publishGain(t, v, pool, 1, func(s *snapshot.Snapshot) {
		s.Direct.Filters = snapshot.FilterHighPass
		s.Direct.HighPass = biquad.Design(biquad.LowShelf, 0.25, 250.0/48000, biquad.RcpQFromSlope(0.25, 1))
	})

	var last []float64
	for range 8 {
		tt := newTargets(1024)
		v.Mix(1024, tt)
		last = tt.dry[0]
	}
	testutil.RequireNearlyEqual(t, "dc gain", last[len(last)-1], 0.25, 1e-6)
}

func TestConcurrentPublishConverges(t *testing.T) {
	v, pool := newTestVoice(t, 128)
	free := pool.Free()
	_ = v.Start(mono(testutil.DC(1, 1<<20)), Cursor{}, true)

	const writes = 500
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 1; i <= writes; i++ {
			h, s, _, err := pool.Acquire()
			if err != nil {
				return
			}
			*s = snapshot.Snapshot{Channels: 1, Step: FractionOne}
			s.Direct.Gains[0][0] = float64(i) / writes
			v.Publish(h)
		}
	}()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	tt := newTargets(128)
loop:
	for {
		select {
		case <-done:
			break loop
		default:
			v.Mix(128, tt)
		}
	}

	// One block applies the final value; a second lets its ramp finish.
	v.Mix(128, newTargets(128))
	tt = newTargets(128)
	v.Mix(128, tt)
	testutil.RequireNearlyEqual(t, "converged gain", tt.dry[0][127], 1, 1e-12)

	v.Stop()
	v.Release()
	if pool.Free() != free {
		t.Fatalf("free = %d, want %d: snapshots leaked", pool.Free(), free)
	}
}

func TestFilterToggleKeepsHistory(t *testing.T) {
	const block = 256
	in := testutil.DeterministicSine(100, 48000, 1, 4*block)
	shelf := biquad.Design(biquad.LowShelf, 0.25, 250.0/48000, biquad.RcpQFromSlope(0.25, 1))

	v, pool := newTestVoice(t, block)
	_ = v.Start(mono(in), Cursor{}, false)

	ref := biquad.Filter{Coefficients: shelf}
	want := append([]float64(nil), in[:3*block]...)
	var got []float64
	for i, on := range []bool{true, false, true} {
		publishGain(t, v, pool, 1, func(s *snapshot.Snapshot) {
			if on {
				s.Direct.Filters = snapshot.FilterHighPass
			}
			s.Direct.HighPass = shelf
		})
		tt := newTargets(block)
		v.Mix(block, tt)
		got = append(got, tt.dry[0]...)

		seg := want[i*block : (i+1)*block]
		if on {
			ref.Process(seg, seg)
		} else {
			ref.PassThrough(seg)
		}
	}

	testutil.RequireSliceNearlyEqual(t, got, want, 1e-12)
}
