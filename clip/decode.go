package clip

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/go-audio/aiff"
	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	gomp3 "github.com/hajimehoshi/go-mp3"
	"github.com/jfreymuth/oggvorbis"

	"github.com/cwbudde/algo-spatialmix/dsp/voice"
)

// WAVE format tags accepted by the WAV decoder.
const (
	wavFormatPCM        = 1
	wavFormatExtensible = 0xFFFE
)

// Decode reads a whole sound file of format f from r. Mono and stereo
// files keep their channels; files with more are folded down to stereo.
func Decode(r io.Reader, f Format) (*voice.Buffer, error) {
	var (
		buf *voice.Buffer
		err error
	)
	switch f {
	case WAV:
		buf, err = decodeWAV(r)
	case AIFF:
		buf, err = decodeAIFF(r)
	case MP3:
		buf, err = decodeMP3(r)
	case Ogg:
		buf, err = decodeOgg(r)
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnknownFormat, f)
	}
	if err != nil {
		return nil, err
	}
	if buf.Frames() == 0 {
		return nil, fmt.Errorf("%w: %v", ErrEmpty, f)
	}
	buf.Data = downmix(buf.Data)
	return buf, nil
}

// seekable returns r as an io.ReadSeeker, buffering it in memory when it
// cannot seek.
func seekable(r io.Reader) (io.ReadSeeker, error) {
	if rs, ok := r.(io.ReadSeeker); ok {
		return rs, nil
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("clip: read: %w", err)
	}
	return bytes.NewReader(data), nil
}

func decodeWAV(r io.Reader) (*voice.Buffer, error) {
	rs, err := seekable(r)
	if err != nil {
		return nil, err
	}

	dec := wav.NewDecoder(rs)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("%w: not a wav file", ErrUnsupported)
	}
	if dec.WavAudioFormat != wavFormatPCM && dec.WavAudioFormat != wavFormatExtensible {
		return nil, fmt.Errorf("%w: wav format tag %#x", ErrUnsupported, dec.WavAudioFormat)
	}

	pcm, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("clip: wav: %w", err)
	}
	return fromIntBuffer(pcm, int(dec.NumChans), int(dec.SampleRate), int(dec.BitDepth))
}

func decodeAIFF(r io.Reader) (*voice.Buffer, error) {
	rs, err := seekable(r)
	if err != nil {
		return nil, err
	}

	dec := aiff.NewDecoder(rs)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("%w: not an aiff file", ErrUnsupported)
	}

	pcm, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("clip: aiff: %w", err)
	}
	format := dec.Format()
	if format == nil {
		return nil, fmt.Errorf("%w: aiff without format", ErrUnsupported)
	}
	return fromIntBuffer(pcm, format.NumChannels, format.SampleRate, int(dec.BitDepth))
}

func fromIntBuffer(pcm *goaudio.IntBuffer, channels, rate, bitDepth int) (*voice.Buffer, error) {
	switch {
	case channels < 1:
		return nil, fmt.Errorf("%w: %d channels", ErrUnsupported, channels)
	case bitDepth != 16 && bitDepth != 24 && bitDepth != 32:
		return nil, fmt.Errorf("%w: %d-bit samples", ErrUnsupported, bitDepth)
	case rate <= 0:
		return nil, fmt.Errorf("%w: sample rate %d", ErrUnsupported, rate)
	}

	scale := 1 / math.Ldexp(1, bitDepth-1)
	frames := len(pcm.Data) / channels
	out := make([][]float64, channels)
	for c := range out {
		ch := make([]float64, frames)
		for i := range ch {
			ch[i] = float64(pcm.Data[i*channels+c]) * scale
		}
		out[c] = ch
	}
	return &voice.Buffer{Data: out, SampleRate: float64(rate)}, nil
}

func decodeMP3(r io.Reader) (*voice.Buffer, error) {
	dec, err := gomp3.NewDecoder(r)
	if err != nil {
		return nil, fmt.Errorf("clip: mp3: %w", err)
	}
	raw, err := io.ReadAll(dec)
	if err != nil {
		return nil, fmt.Errorf("clip: mp3: %w", err)
	}

	// go-mp3 always produces interleaved 16-bit little-endian stereo.
	frames := len(raw) / 4
	out := [][]float64{make([]float64, frames), make([]float64, frames)}
	for i := range frames {
		out[0][i] = float64(int16(binary.LittleEndian.Uint16(raw[4*i:]))) / 32768
		out[1][i] = float64(int16(binary.LittleEndian.Uint16(raw[4*i+2:]))) / 32768
	}
	return &voice.Buffer{Data: out, SampleRate: float64(dec.SampleRate())}, nil
}

func decodeOgg(r io.Reader) (*voice.Buffer, error) {
	samples, format, err := oggvorbis.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("clip: ogg: %w", err)
	}
	if format.Channels < 1 {
		return nil, fmt.Errorf("%w: %d channels", ErrUnsupported, format.Channels)
	}

	channels := format.Channels
	frames := len(samples) / channels
	out := make([][]float64, channels)
	for c := range out {
		ch := make([]float64, frames)
		for i := range ch {
			ch[i] = float64(samples[i*channels+c])
		}
		out[c] = ch
	}
	return &voice.Buffer{Data: out, SampleRate: float64(format.SampleRate)}, nil
}

// downmix folds more than two channels onto stereo, assuming the default
// WAVE speaker order for the channel count. LFE is dropped.
func downmix(in [][]float64) [][]float64 {
	if len(in) <= 2 {
		return in
	}

	const side = math.Sqrt2 / 2
	centre, lfe, surround := -1, -1, 2
	switch len(in) {
	case 3:
		centre, surround = 2, 3
	case 4:
	case 5:
		centre, surround = 2, 3
	default:
		centre, lfe, surround = 2, 3, 4
	}

	left := append([]float64(nil), in[0]...)
	right := append([]float64(nil), in[1]...)
	for c := 2; c < len(in); c++ {
		if c == lfe {
			continue
		}
		toLeft := c == centre || (c >= surround && (c-surround)%2 == 0)
		toRight := c == centre || (c >= surround && (c-surround)%2 == 1)
		for i, x := range in[c][:min(len(in[c]), len(left))] {
			if toLeft {
				left[i] += side * x
			}
			if toRight {
				right[i] += side * x
			}
		}
	}
	return [][]float64{left, right}
}
