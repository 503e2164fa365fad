package biquad

// Filter is a Direct Form I biquad with persistent history.
type Filter struct {
	Coefficients

	x1, x2 float64
	y1, y2 float64
}

// New returns a filter designed with [Design] and cleared history.
func New(typ FilterType, gain, freqMult, rcpQ float64) Filter {
	return Filter{Coefficients: Design(typ, gain, freqMult, rcpQ)}
}

// SetParams recomputes the coefficients. History is kept so a running
// signal does not restart.
func (f *Filter) SetParams(typ FilterType, gain, freqMult, rcpQ float64) {
	f.Coefficients = Design(typ, gain, freqMult, rcpQ)
}

// SetCoefficients installs precomputed coefficients, keeping history.
func (f *Filter) SetCoefficients(c Coefficients) {
	f.Coefficients = c
}

// Clear zeroes the history.
func (f *Filter) Clear() {
	f.x1, f.x2, f.y1, f.y2 = 0, 0, 0, 0
}

// ProcessSample filters one sample.
func (f *Filter) ProcessSample(x float64) float64 {
	y := f.B0*x + f.B1*f.x1 + f.B2*f.x2 - f.A1*f.y1 - f.A2*f.y2
	f.x2 = f.x1
	f.x1 = x
	f.y2 = f.y1
	f.y1 = y

	return y
}

// Process filters src into dst. dst and src may be the same slice; the
// shorter length wins. Zero-alloc.
func (f *Filter) Process(dst, src []float64) {
	n := min(len(dst), len(src))
	b0, b1, b2 := f.B0, f.B1, f.B2
	a1, a2 := f.A1, f.A2
	x1, x2, y1, y2 := f.x1, f.x2, f.y1, f.y2

	for i := range n {
		x := src[i]
		y := b0*x + b1*x1 + b2*x2 - a1*y1 - a2*y2
		x2, x1 = x1, x
		y2, y1 = y1, y
		dst[i] = y
	}

	f.x1, f.x2, f.y1, f.y2 = x1, x2, y1, y2
}

// PassThrough feeds src through the history without filtering, so the
// filter can be switched back on mid-stream without a transient.
func (f *Filter) PassThrough(src []float64) {
	switch n := len(src); {
	case n >= 2:
		f.x2 = src[n-2]
		f.x1 = src[n-1]
		f.y2 = src[n-2]
		f.y1 = src[n-1]
	case n == 1:
		f.x2 = f.x1
		f.x1 = src[0]
		f.y2 = f.y1
		f.y1 = src[0]
	}
}
