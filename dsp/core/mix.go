package core

// Mixing limits shared by the panning, voice and effect stages.
const (
	// GainMixMax is the largest gain any mix path may apply (+24 dB).
	GainMixMax = 16.0
	// GainSilenceThreshold is the level below which a gain is skipped (-100 dB).
	GainSilenceThreshold = 0.00001

	// BufferSize is the sub-chunk length used for per-sample work inside a block.
	BufferSize = 128

	// LowPassFreqRef is the reference frequency of high-frequency gain controls.
	LowPassFreqRef = 5000.0
	// HighPassFreqRef is the reference frequency of low-frequency gain controls.
	HighPassFreqRef = 250.0
)

// Audible reports whether gain is above the silence threshold in magnitude.
func Audible(gain float64) bool {
	return gain > GainSilenceThreshold || gain < -GainSilenceThreshold
}
