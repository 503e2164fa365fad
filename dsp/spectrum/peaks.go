package spectrum

import (
	"math"
	"sort"
)

// Peak is a local maximum of an amplitude spectrum.
type Peak struct {
	Frequency float64
	Amplitude float64
}

// Peaks returns up to count local maxima of mag above floor, strongest
// first. Positions and levels are refined by a parabola through the
// log-magnitudes of the neighbouring bins.
func Peaks(mag []float64, binWidth float64, count int, floor float64) []Peak {
	if count <= 0 || len(mag) < 3 {
		return nil
	}

	var peaks []Peak
	for k := 1; k < len(mag)-1; k++ {
		m := mag[k]
		if m <= floor || m <= mag[k-1] || m < mag[k+1] {
			continue
		}
		offset, level := refine(mag[k-1], m, mag[k+1])
		peaks = append(peaks, Peak{
			Frequency: (float64(k) + offset) * binWidth,
			Amplitude: level,
		})
	}

	sort.Slice(peaks, func(i, j int) bool { return peaks[i].Amplitude > peaks[j].Amplitude })
	if len(peaks) > count {
		peaks = peaks[:count]
	}
	return peaks
}

// Dominant returns the strongest peak, or a zero Peak if mag has none.
func Dominant(mag []float64, binWidth float64) Peak {
	p := Peaks(mag, binWidth, 1, 0)
	if len(p) == 0 {
		return Peak{}
	}
	return p[0]
}

func refine(l, c, r float64) (offset, level float64) {
	if l <= 0 || r <= 0 {
		return 0, c
	}
	a, b, g := math.Log(l), math.Log(c), math.Log(r)
	den := a - 2*b + g
	if den == 0 {
		return 0, c
	}
	offset = 0.5 * (a - g) / den
	return offset, math.Exp(b - 0.25*(a-g)*offset)
}
