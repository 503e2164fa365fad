package clip

import (
	"fmt"
	"io"
	"math"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/cwbudde/algo-spatialmix/dsp/core"
)

// WriteWAV writes channels as a 16-bit PCM WAV file. Samples are clipped
// to [-1, 1]; all channels must have the same length.
func WriteWAV(w io.WriteSeeker, rate int, channels [][]float64) error {
	n := len(channels)
	if n == 0 || n > math.MaxUint16 {
		return fmt.Errorf("clip: write wav: %d channels", n)
	}
	if rate <= 0 {
		return fmt.Errorf("clip: write wav: sample rate %d", rate)
	}
	frames := len(channels[0])
	for c, ch := range channels {
		if len(ch) != frames {
			return fmt.Errorf("clip: write wav: channel %d has %d frames, want %d", c, len(ch), frames)
		}
	}

	pcm := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: n, SampleRate: rate},
		SourceBitDepth: 16,
		Data:           make([]int, frames*n),
	}
	for c, ch := range channels {
		for i, x := range ch {
			pcm.Data[i*n+c] = int(math.Round(core.Clamp(x, -1, 1) * math.MaxInt16))
		}
	}

	enc := wav.NewEncoder(w, rate, 16, n, wavFormatPCM)
	if err := enc.Write(pcm); err != nil {
		return fmt.Errorf("clip: write wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("clip: write wav: %w", err)
	}
	return nil
}
