package mixer_test

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-spatialmix/dsp/voice"
	"github.com/cwbudde/algo-spatialmix/mixer"
)

func ExampleContext() {
	ctx, err := mixer.New(mixer.WithSampleRate(48000), mixer.WithMaxBlockSize(64))
	if err != nil {
		panic(err)
	}
	defer ctx.Close()

	data := []float64{1, 1, 1, 1, 1, 1, 1, 1}
	src := ctx.NewSource()
	_ = src.SetBuffer(&voice.Buffer{Data: [][]float64{data}, SampleRate: 48000})
	_ = src.SetDirection(-math.Pi/2, 0, 0)
	_ = src.Play()

	out := [][]float64{make([]float64, 4), make([]float64, 4)}
	ctx.Process(out)
	fmt.Printf("L=%.3f R=%.3f offset=%d\n", out[0][0], out[1][0], src.SampleOffset())

	ctx.Process(out)
	ctx.Process(out)
	fmt.Println(src.State())
	// Output:
	// L=1.000 R=0.000 offset=4
	// stopped
}

func ExampleSource_SetSend() {
	ctx, _ := mixer.New()
	defer ctx.Close()

	slot, _ := ctx.NewEffectSlot()
	src := ctx.NewSource()
	if err := src.SetSend(0, slot, mixer.Unfiltered); err != nil {
		panic(err)
	}

	fmt.Println(slot.Refs(), ctx.DeleteEffectSlot(slot) != nil)
	// Output:
	// 1 true
}
