package voice

import "math"

// Playback cursors are fixed point with FractionBits of fraction.
const (
	FractionBits = 12
	FractionOne  = 1 << FractionBits
	FractionMask = FractionOne - 1

	// MaxPitch bounds the cursor step to MaxPitch frames per output frame.
	MaxPitch = 255
)

// GainRampLength is the number of samples a gain change is spread over.
const GainRampLength = 64

// Cursor is a playback position: whole frames plus a fraction in
// 1/FractionOne units.
type Cursor struct {
	Pos  int
	Frac int
}

func (c Cursor) pack() uint64 {
	return uint64(c.Pos)<<FractionBits | uint64(c.Frac&FractionMask)
}

func unpack(v uint64) Cursor {
	return Cursor{Pos: int(v >> FractionBits), Frac: int(v & FractionMask)}
}

// Seconds converts the cursor to seconds at rate.
func (c Cursor) Seconds(rate float64) float64 {
	if rate <= 0 {
		return 0
	}
	return (float64(c.Pos) + float64(c.Frac)/FractionOne) / rate
}

// CursorAt converts a position in seconds at rate to a cursor.
func CursorAt(seconds, rate float64) Cursor {
	if seconds <= 0 || rate <= 0 {
		return Cursor{}
	}
	frames := seconds * rate
	whole := math.Floor(frames)
	return Cursor{Pos: int(whole), Frac: int((frames - whole) * FractionOne)}
}

// StepFor returns the fixed-point cursor increment for playing a buffer at
// bufferRate on a device at deviceRate with the given pitch multiplier.
// The result lies in [1, MaxPitch*FractionOne].
func StepFor(pitch, bufferRate, deviceRate float64) int {
	if deviceRate <= 0 || bufferRate <= 0 || pitch <= 0 {
		return FractionOne
	}
	ratio := pitch * bufferRate / deviceRate
	if ratio > MaxPitch {
		return MaxPitch * FractionOne
	}
	step := int(ratio * FractionOne)
	return max(step, 1)
}
