package device

import "time"

// Renderer is the audio side of a mixer context.
type Renderer interface {
	Process(out [][]float64)
	ProcessInterleaved(dst []float32)
	Channels() int
	SampleRate() float64
	MaxBlockSize() int
}

// Reaper is implemented by renderers whose finished sources have to be
// collected from a control goroutine.
type Reaper interface {
	Reap() int
}

// Clock advances time for a control goroutine: offline by rendering, in
// real time by sleeping.
type Clock interface {
	Wait(d time.Duration) error
}

// FramesFor returns the number of frames d spans at rate, rounded to the
// nearest frame.
func FramesFor(d time.Duration, rate float64) int {
	if d <= 0 {
		return 0
	}
	return int(d.Seconds()*rate + 0.5)
}
