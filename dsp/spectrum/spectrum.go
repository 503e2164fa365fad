package spectrum

import (
	"fmt"
	"math"

	algofft "github.com/MeKo-Christian/algo-fft"
	"github.com/cwbudde/algo-vecmath"
)

// Magnitude returns |X[k]| for each complex bin.
func Magnitude(in []complex128) []float64 {
	if len(in) == 0 {
		return nil
	}

	out := make([]float64, len(in))
	re, im := split(in)
	vecmath.Magnitude(out, re, im)
	return out
}

// Power returns |X[k]|^2 for each complex bin.
func Power(in []complex128) []float64 {
	if len(in) == 0 {
		return nil
	}

	out := make([]float64, len(in))
	re, im := split(in)
	vecmath.Power(out, re, im)
	return out
}

func split(in []complex128) (re, im []float64) {
	re = make([]float64, len(in))
	im = make([]float64, len(in))
	for i, c := range in {
		re[i] = real(c)
		im[i] = imag(c)
	}
	return re, im
}

// Analyzer computes Hann-windowed amplitude spectra of a fixed frame size.
// Longer inputs are averaged over half-overlapping frames. An Analyzer is
// not safe for concurrent use.
type Analyzer struct {
	size   int
	rate   float64
	plan   *algofft.Plan[complex128]
	window []float64
	// norm scales |X[k]| so a full-scale sine centred on a bin reads 1.
	norm float64

	in, out []complex128
	re, im  []float64
	mag     []float64
}

// NewAnalyzer returns an analyzer for frames of size samples, which must be
// a power of two of at least 16.
func NewAnalyzer(size int, sampleRate float64) (*Analyzer, error) {
	if size < 16 || size&(size-1) != 0 {
		return nil, fmt.Errorf("spectrum: frame size must be a power of two >= 16: %d", size)
	}
	if !(sampleRate > 0) || math.IsInf(sampleRate, 0) {
		return nil, fmt.Errorf("spectrum: sample rate must be > 0: %v", sampleRate)
	}

	plan, err := algofft.NewPlan64(size)
	if err != nil {
		return nil, fmt.Errorf("spectrum: fft plan: %w", err)
	}

	a := &Analyzer{
		size:   size,
		rate:   sampleRate,
		plan:   plan,
		window: make([]float64, size),
		in:     make([]complex128, size),
		out:    make([]complex128, size),
		re:     make([]float64, size/2+1),
		im:     make([]float64, size/2+1),
		mag:    make([]float64, size/2+1),
	}

	sum := 0.0
	for i := range a.window {
		a.window[i] = 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(size))
		sum += a.window[i]
	}
	a.norm = 2 / sum
	return a, nil
}

// Size returns the frame size.
func (a *Analyzer) Size() int { return a.size }

// Bins returns the number of bins of a spectrum, size/2 + 1.
func (a *Analyzer) Bins() int { return a.size/2 + 1 }

// BinWidth returns the bin spacing in Hz.
func (a *Analyzer) BinWidth() float64 { return a.rate / float64(a.size) }

// Frequency returns the centre frequency of bin k.
func (a *Analyzer) Frequency(k float64) float64 { return k * a.BinWidth() }

// Analyze returns the averaged amplitude spectrum of x in dst, which is
// grown to Bins() values. Only whole frames are used; inputs shorter than
// a frame are zero-padded.
func (a *Analyzer) Analyze(dst, x []float64) ([]float64, error) {
	if len(x) == 0 {
		return nil, fmt.Errorf("spectrum: empty input")
	}

	bins := a.Bins()
	if cap(dst) < bins {
		dst = make([]float64, bins)
	}
	dst = dst[:bins]
	clear(dst)

	hop := a.size / 2
	last := max(len(x)-a.size, 0)
	frames := 0
	for start := 0; start <= last; start += hop {
		if err := a.frame(x, start); err != nil {
			return nil, err
		}
		for k := range dst {
			dst[k] += a.mag[k]
		}
		frames++
	}

	scale := a.norm / float64(frames)
	for k := range dst {
		dst[k] *= scale
	}
	// DC and Nyquist have no mirror image.
	dst[0] /= 2
	dst[bins-1] /= 2
	return dst, nil
}

func (a *Analyzer) frame(x []float64, start int) error {
	for i := range a.in {
		v := 0.0
		if j := start + i; j < len(x) {
			v = x[j]
		}
		a.in[i] = complex(v*a.window[i], 0)
	}
	if err := a.plan.Forward(a.out, a.in); err != nil {
		return fmt.Errorf("spectrum: fft: %w", err)
	}

	for k := range a.re {
		a.re[k] = real(a.out[k])
		a.im[k] = imag(a.out[k])
	}
	vecmath.Magnitude(a.mag, a.re, a.im)
	return nil
}
