package voice

import "time"

// Buffer is a fully decoded sound: one slice per channel at SampleRate.
// A Buffer must not be modified while a voice plays it.
type Buffer struct {
	Data       [][]float64
	SampleRate float64
}

// Channels returns the number of channels.
func (b *Buffer) Channels() int {
	if b == nil {
		return 0
	}
	return len(b.Data)
}

// Frames returns the length of the shortest channel.
func (b *Buffer) Frames() int {
	if b == nil || len(b.Data) == 0 {
		return 0
	}
	n := len(b.Data[0])
	for _, ch := range b.Data[1:] {
		n = min(n, len(ch))
	}
	return n
}

// Duration returns the playing time at the buffer's own rate.
func (b *Buffer) Duration() time.Duration {
	if b == nil || b.SampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(b.Frames()) / b.SampleRate * float64(time.Second))
}
