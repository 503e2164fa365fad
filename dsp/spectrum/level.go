package spectrum

import (
	"math"

	"github.com/cwbudde/algo-spatialmix/dsp/core"
)

// Level holds the peak and RMS amplitude of a signal.
type Level struct {
	Peak float64
	RMS  float64
}

// Measure returns the level of x.
func Measure(x []float64) Level {
	if len(x) == 0 {
		return Level{}
	}

	var l Level
	sum := 0.0
	for _, v := range x {
		l.Peak = max(l.Peak, math.Abs(v))
		sum += v * v
	}
	l.RMS = math.Sqrt(sum / float64(len(x)))
	return l
}

// PeakDB returns the peak level in dBFS.
func (l Level) PeakDB() float64 { return core.LinearToDB(l.Peak) }

// RMSDB returns the RMS level in dBFS.
func (l Level) RMSDB() float64 { return core.LinearToDB(l.RMS) }
