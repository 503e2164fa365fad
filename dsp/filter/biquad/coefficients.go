package biquad

import (
	"math"
	"math/cmplx"
)

// FilterType selects the response shape computed by [Design].
type FilterType int

const (
	// HighShelf boosts or cuts above the corner; used as the "low-pass" of a
	// voice path where gain is the high-frequency gain.
	HighShelf FilterType = iota
	// LowShelf boosts or cuts below the corner; the voice "high-pass".
	LowShelf
)

func (t FilterType) String() string {
	switch t {
	case HighShelf:
		return "high-shelf"
	case LowShelf:
		return "low-shelf"
	default:
		return "unknown"
	}
}

// minGain keeps shelf designs away from a zero at DC/Nyquist.
const minGain = 0.00001

// Coefficients holds the transfer function of one section with a0
// normalized to 1:
//
//	y[n] = B0*x[n] + B1*x[n-1] + B2*x[n-2] - A1*y[n-1] - A2*y[n-2]
type Coefficients struct {
	B0, B1, B2 float64 // feedforward (numerator)
	A1, A2     float64 // feedback (denominator)
}

// Identity returns coefficients that pass the input unchanged.
func Identity() Coefficients {
	return Coefficients{B0: 1}
}

// Design computes RBJ cookbook shelf coefficients.
//
// gain is the linear gain reached on the shelf side, so HighShelf with gain
// 0.5 attenuates high frequencies to 0.5. freqMult is the corner frequency
// divided by the sample rate, rcpQ the reciprocal of the quality factor.
func Design(typ FilterType, gain, freqMult, rcpQ float64) Coefficients {
	gain = math.Max(gain, minGain)

	w0 := 2 * math.Pi * freqMult
	cw := math.Cos(w0)
	alpha := math.Sin(w0) / 2 * rcpQ

	var b0, b1, b2, a0, a1, a2 float64

	switch typ {
	case HighShelf:
		a := math.Sqrt(gain)
		beta := 2 * math.Sqrt(a) * alpha
		b0 = a * ((a + 1) + (a-1)*cw + beta)
		b1 = -2 * a * ((a - 1) + (a+1)*cw)
		b2 = a * ((a + 1) + (a-1)*cw - beta)
		a0 = (a + 1) - (a-1)*cw + beta
		a1 = 2 * ((a - 1) - (a+1)*cw)
		a2 = (a + 1) - (a-1)*cw - beta
	case LowShelf:
		a := math.Sqrt(gain)
		beta := 2 * math.Sqrt(a) * alpha
		b0 = a * ((a + 1) - (a-1)*cw + beta)
		b1 = 2 * a * ((a - 1) - (a+1)*cw)
		b2 = a * ((a + 1) - (a-1)*cw - beta)
		a0 = (a + 1) + (a-1)*cw + beta
		a1 = -2 * ((a - 1) + (a+1)*cw)
		a2 = (a + 1) + (a-1)*cw - beta
	default:
		return Identity()
	}

	return Coefficients{
		B0: b0 / a0,
		B1: b1 / a0,
		B2: b2 / a0,
		A1: a1 / a0,
		A2: a2 / a0,
	}
}

// RcpQFromSlope returns 1/Q for a shelf with the given linear gain and
// shelf slope (1 = steepest slope without overshoot).
func RcpQFromSlope(gain, slope float64) float64 {
	a := math.Sqrt(math.Max(gain, minGain))
	return math.Sqrt((a+1/a)*(1/slope-1) + 2)
}

// Response returns H(e^jw) at the normalized frequency freqMult (f/fs).
func (c Coefficients) Response(freqMult float64) complex128 {
	w := 2 * math.Pi * freqMult
	z1 := cmplx.Exp(complex(0, -w))
	z2 := z1 * z1

	num := complex(c.B0, 0) + complex(c.B1, 0)*z1 + complex(c.B2, 0)*z2
	den := 1 + complex(c.A1, 0)*z1 + complex(c.A2, 0)*z2

	return num / den
}

// Magnitude returns |H| at freqMult.
func (c Coefficients) Magnitude(freqMult float64) float64 {
	return cmplx.Abs(c.Response(freqMult))
}
