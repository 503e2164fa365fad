package core

// EnsureLen returns a slice with the requested length, reusing buf capacity if possible.
func EnsureLen(buf []float64, n int) []float64 {
	if n <= 0 {
		return buf[:0]
	}
	if cap(buf) >= n {
		return buf[:n]
	}
	return make([]float64, n)
}

// EnsureChannels returns a channel set with exactly channels buffers of
// length n each. Existing buffers are reused when their capacity allows.
func EnsureChannels(bufs [][]float64, channels, n int) [][]float64 {
	if channels <= 0 {
		return bufs[:0]
	}
	if cap(bufs) >= channels {
		bufs = bufs[:channels]
	} else {
		grown := make([][]float64, channels)
		copy(grown, bufs)
		bufs = grown
	}
	for c := range bufs {
		bufs[c] = EnsureLen(bufs[c], n)
	}
	return bufs
}

// Zero sets all values in buf to 0.
func Zero(buf []float64) { clear(buf) }

// ZeroChannels clears the first n samples of every channel.
func ZeroChannels(bufs [][]float64, n int) {
	for _, ch := range bufs {
		if n > len(ch) {
			Zero(ch)
			continue
		}
		Zero(ch[:n])
	}
}
