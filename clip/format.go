package clip

import (
	"fmt"
	"path"
	"strings"
)

// Format is a sound file container.
type Format int

const (
	WAV Format = iota
	AIFF
	MP3
	Ogg
)

func (f Format) String() string {
	switch f {
	case WAV:
		return "wav"
	case AIFF:
		return "aiff"
	case MP3:
		return "mp3"
	case Ogg:
		return "ogg"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// Compression is an optional outer compression layer.
type Compression int

const (
	Uncompressed Compression = iota
	Gzip
	Zstd
	XZ
	LZ4
	Brotli
)

func (c Compression) String() string {
	switch c {
	case Uncompressed:
		return "none"
	case Gzip:
		return "gzip"
	case Zstd:
		return "zstd"
	case XZ:
		return "xz"
	case LZ4:
		return "lz4"
	case Brotli:
		return "brotli"
	default:
		return fmt.Sprintf("Compression(%d)", int(c))
	}
}

var formatExts = map[string]Format{
	".wav":  WAV,
	".wave": WAV,
	".aif":  AIFF,
	".aiff": AIFF,
	".mp3":  MP3,
	".ogg":  Ogg,
	".oga":  Ogg,
}

var compressionExts = map[string]Compression{
	".gz":  Gzip,
	".zst": Zstd,
	".xz":  XZ,
	".lz4": LZ4,
	".br":  Brotli,
}

// DetectFormat derives the container and compression of name from its
// extensions, e.g. "voice.ogg" or "drums.wav.gz".
func DetectFormat(name string) (Format, Compression, error) {
	base := strings.ToLower(path.Base(name))

	comp := Uncompressed
	if c, ok := compressionExts[path.Ext(base)]; ok {
		comp = c
		base = strings.TrimSuffix(base, path.Ext(base))
	}

	f, ok := formatExts[path.Ext(base)]
	if !ok {
		return 0, 0, fmt.Errorf("%w: %q", ErrUnknownFormat, name)
	}
	return f, comp, nil
}
