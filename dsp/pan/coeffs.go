package pan

import "math"

const (
	// MaxAmbiOrder is the highest encoded ambisonic order.
	MaxAmbiOrder = 3
	// MaxAmbiCoeffs is (MaxAmbiOrder+1)^2.
	MaxAmbiCoeffs = 16
	// MaxFirstOrderCoeffs is the coefficient count of first-order B-Format.
	MaxFirstOrderCoeffs = 4
)

// Coeffs holds ACN-ordered, N3D-normalized ambisonic coefficients.
type Coeffs [MaxAmbiCoeffs]float64

// CalcDirectionCoeffs encodes a unit direction vector (listener frame) with
// the given spread in radians: 0 is a point source, 2π fully omnidirectional.
func CalcDirectionCoeffs(dir [3]float64, spread float64) Coeffs {
	// Convert to the ambisonic frame: +X front, +Y left, +Z up.
	x := -dir[2]
	y := -dir[0]
	z := dir[1]

	var c Coeffs

	// Zeroth order.
	c[0] = 1
	// First order.
	c[1] = 1.732050808 * y
	c[2] = 1.732050808 * z
	c[3] = 1.732050808 * x
	// Second order.
	c[4] = 3.872983346 * x * y
	c[5] = 3.872983346 * y * z
	c[6] = 1.118033989 * (3*z*z - 1)
	c[7] = 3.872983346 * x * z
	c[8] = 1.936491673 * (x*x - y*y)
	// Third order.
	c[9] = 2.091650066 * y * (3*x*x - y*y)
	c[10] = 10.246950766 * z * x * y
	c[11] = 1.620185175 * y * (5*z*z - 1)
	c[12] = 1.322875656 * z * (5*z*z - 3)
	c[13] = 1.620185175 * x * (5*z*z - 1)
	c[14] = 5.123475383 * z * (x*x - y*y)
	c[15] = 2.091650066 * x * (x*x - 3*y*y)

	if spread > 0 {
		applySpread(&c, spread)
	}

	return c
}

// applySpread widens the encoded source by attenuating higher orders with
// the zonal harmonics of a spherical cap of the given angular width. The
// overall level is raised by up to +3 dB at full spread so a fully diffuse
// source keeps its perceived loudness.
func applySpread(c *Coeffs, spread float64) {
	ca := math.Cos(spread * 0.5)
	scale := mathSqrt(1 + spread/(2*math.Pi))

	zh0 := scale
	zh1 := 0.5 * (ca + 1) * scale
	zh2 := 0.5 * (ca + 1) * ca * scale
	zh3 := 0.125 * (ca + 1) * (5*ca*ca - 1) * scale

	c[0] *= zh0
	for i := 1; i < 4; i++ {
		c[i] *= zh1
	}
	for i := 4; i < 9; i++ {
		c[i] *= zh2
	}
	for i := 9; i < 16; i++ {
		c[i] *= zh3
	}
}

// CalcAngleCoeffs encodes a direction given as azimuth and elevation.
func CalcAngleCoeffs(azimuth, elevation, spread float64) Coeffs {
	dir := [3]float64{
		math.Sin(azimuth) * math.Cos(elevation),
		math.Sin(elevation),
		-math.Cos(azimuth) * math.Cos(elevation),
	}

	return CalcDirectionCoeffs(dir, spread)
}

// EchoSpread converts an echo-style spread (0 = omnidirectional, ±1 =
// directional) into an angular coverage spread (0 = point, 2π = omni).
func EchoSpread(s float64) float64 {
	return math.Asin(1-math.Abs(s)) * 4
}
