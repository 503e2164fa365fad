// Package delay provides the power-of-two circular delay line used by the
// echo effect.
package delay

import "github.com/cwbudde/algo-spatialmix/dsp/core"

// Line is a circular delay line whose length is a power of two, so tap
// positions are wrapped with a mask instead of a modulo. The zero value
// holds nothing; Resize it before use.
type Line struct {
	buffer []float64
	mask   int
	offset int
}

// Resize makes room for at least minLen samples, and never less than one,
// then clears the line. It
// reports whether storage was reallocated. Not for use while processing.
func (l *Line) Resize(minLen int) bool {
	n := core.NextPowerOfTwo(minLen)
	grew := n != len(l.buffer)
	if grew {
		l.buffer = make([]float64, n)
	}

	l.mask = n - 1
	l.Reset()

	return grew
}

// Len returns the buffer length (a power of two).
func (l *Line) Len() int {
	return len(l.buffer)
}

// Mask returns Len()-1.
func (l *Line) Mask() int {
	return l.mask
}

// Offset returns the current write position in [0, Len()).
func (l *Line) Offset() int {
	return l.offset
}

// Index returns the buffer position tap samples behind offset.
func Index(offset, tap, mask int) int {
	return (offset - tap) & mask
}

// Tap reads the sample written delay samples ago. A delay of 0 reads the
// slot about to be overwritten.
func (l *Line) Tap(delay int) float64 {
	return l.buffer[Index(l.offset, delay, l.mask)]
}

// Write stores one sample at the write position and advances it.
func (l *Line) Write(sample float64) {
	l.buffer[l.offset] = sample
	l.offset = (l.offset + 1) & l.mask
}

// Reset clears the stored samples and rewinds the write position.
func (l *Line) Reset() {
	core.Zero(l.buffer)
	l.offset = 0
}
