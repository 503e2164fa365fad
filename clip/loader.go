package clip

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/spf13/afero"

	"github.com/cwbudde/algo-spatialmix/dsp/voice"
)

const defaultCacheSize = 32

type loaderConfig struct {
	fs        afero.Fs
	cacheSize int
	logger    *slog.Logger
}

// LoaderOption configures a [Loader].
type LoaderOption func(*loaderConfig) error

// WithFs reads and writes files through fs instead of the OS filesystem.
func WithFs(fs afero.Fs) LoaderOption {
	return func(c *loaderConfig) error {
		if fs == nil {
			return errors.New("clip: nil filesystem")
		}
		c.fs = fs
		return nil
	}
}

// WithCacheSize sets how many decoded clips are kept. Zero disables the
// cache.
func WithCacheSize(n int) LoaderOption {
	return func(c *loaderConfig) error {
		if n < 0 {
			return fmt.Errorf("clip: cache size must be >= 0: %d", n)
		}
		c.cacheSize = n
		return nil
	}
}

// WithLogger sets the logger for load events.
func WithLogger(l *slog.Logger) LoaderOption {
	return func(c *loaderConfig) error {
		if l == nil {
			return errors.New("clip: nil logger")
		}
		c.logger = l
		return nil
	}
}

// Loader decodes clips from a filesystem. It is safe for concurrent use;
// callers must treat returned buffers as read-only since they are shared
// through the cache.
type Loader struct {
	fs    afero.Fs
	cache *lru.Cache[string, *voice.Buffer]
	log   *slog.Logger
}

// NewLoader returns a loader on the OS filesystem with a small cache.
func NewLoader(opts ...LoaderOption) (*Loader, error) {
	cfg := loaderConfig{
		fs:        afero.NewOsFs(),
		cacheSize: defaultCacheSize,
		logger:    slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	l := &Loader{fs: cfg.fs, log: cfg.logger}
	if cfg.cacheSize > 0 {
		cache, err := lru.New[string, *voice.Buffer](cfg.cacheSize)
		if err != nil {
			return nil, fmt.Errorf("clip: cache: %w", err)
		}
		l.cache = cache
	}
	return l, nil
}

// Load decodes the named file from the OS filesystem without caching.
func Load(name string) (*voice.Buffer, error) {
	l, err := NewLoader(WithCacheSize(0))
	if err != nil {
		return nil, err
	}
	return l.Load(name)
}

// Fs returns the loader filesystem.
func (l *Loader) Fs() afero.Fs { return l.fs }

// Cached returns the number of cached clips.
func (l *Loader) Cached() int {
	if l.cache == nil {
		return 0
	}
	return l.cache.Len()
}

// Purge empties the cache.
func (l *Loader) Purge() {
	if l.cache != nil {
		l.cache.Purge()
	}
}

// Load decodes the named file, or returns the cached buffer.
func (l *Loader) Load(name string) (*voice.Buffer, error) {
	key := filepath.Clean(name)
	if l.cache != nil {
		if buf, ok := l.cache.Get(key); ok {
			return buf, nil
		}
	}

	format, comp, err := DetectFormat(name)
	if err != nil {
		return nil, err
	}

	f, err := l.fs.Open(name)
	if err != nil {
		return nil, fmt.Errorf("clip: open: %w", err)
	}
	defer f.Close()

	r, done, err := decompress(f, comp)
	if err != nil {
		return nil, err
	}
	defer done()

	buf, err := Decode(r, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	if l.cache != nil {
		if evicted := l.cache.Add(key, buf); evicted {
			l.log.Debug("clip cache evicted", "cached", l.cache.Len())
		}
	}
	l.log.Debug("clip loaded",
		"path", name,
		"format", format,
		"compression", comp,
		"channels", buf.Channels(),
		"frames", buf.Frames(),
		"rate", buf.SampleRate,
	)
	return buf, nil
}

// Save writes channels to the named WAV file, compressed according to
// its extension.
func (l *Loader) Save(name string, rate int, channels [][]float64) error {
	format, comp, err := DetectFormat(name)
	if err != nil {
		return err
	}
	if format != WAV {
		return fmt.Errorf("%w: writing %v", ErrUnsupported, format)
	}
	if l.cache != nil {
		l.cache.Remove(filepath.Clean(name))
	}

	out, err := l.fs.Create(name)
	if err != nil {
		return fmt.Errorf("clip: create: %w", err)
	}
	defer out.Close()

	if comp == Uncompressed {
		if err := WriteWAV(out, rate, channels); err != nil {
			return err
		}
		return out.Close()
	}

	// The WAV encoder seeks back to patch the header, so the file is
	// staged in memory before compression.
	tmp, err := afero.NewMemMapFs().Create(filepath.Base(name))
	if err != nil {
		return fmt.Errorf("clip: stage: %w", err)
	}
	if err := WriteWAV(tmp, rate, channels); err != nil {
		return err
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("clip: stage: %w", err)
	}

	zw, err := Compress(out, comp)
	if err != nil {
		return err
	}
	if _, err := io.Copy(zw, tmp); err != nil {
		return fmt.Errorf("clip: %v: %w", comp, err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("clip: %v: %w", comp, err)
	}
	l.log.Debug("clip saved", "path", name, "compression", comp, "channels", len(channels))
	return out.Close()
}
