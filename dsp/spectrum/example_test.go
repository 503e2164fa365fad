package spectrum_test

import (
	"fmt"

	"github.com/cwbudde/algo-spatialmix/dsp/spectrum"
	"github.com/cwbudde/algo-spatialmix/internal/testutil"
)

func ExampleGoertzel() {
	g, _ := spectrum.NewGoertzel(440, 44100)
	for _, amp := range []float64{0.5, 0.25} {
		g.Reset()
		g.ProcessBlock(testutil.DeterministicSine(440, 44100, amp, 44100))
		fmt.Printf("%.0f Hz: %.3f\n", g.Frequency(), g.Amplitude())
	}
	// Output:
	// 440 Hz: 0.500
	// 440 Hz: 0.250
}

func ExampleMeasure() {
	l := spectrum.Measure([]float64{0.5, -1, 0.25, 0})
	fmt.Printf("peak %.2f dBFS\n", l.PeakDB())
	// Output:
	// peak 0.00 dBFS
}
