//go:build fastmath

package pan

import "github.com/meko-christian/algo-approx"

func mathSqrt(x float64) float64 {
	return approx.FastSqrt(x)
}
