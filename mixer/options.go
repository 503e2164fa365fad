package mixer

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/cwbudde/algo-spatialmix/dsp/core"
	"github.com/cwbudde/algo-spatialmix/dsp/pan"
	"github.com/cwbudde/algo-spatialmix/dsp/snapshot"
)

const (
	defaultMaxVoices    = 64
	defaultMaxSlots     = 8
	defaultSnapshotPool = 256

	maxVoicesLimit = 4096
	maxSlotsLimit  = 64
)

type config struct {
	sampleRate   float64
	maxBlock     int
	layout       *pan.Layout
	maxVoices    int
	maxSlots     int
	poolSize     int
	ambisonicDry bool
	logger       *slog.Logger
}

func defaultConfig() config {
	pc := core.DefaultProcessorConfig()
	return config{
		sampleRate: pc.SampleRate,
		maxBlock:   pc.BlockSize,
		layout:     pan.Stereo,
		maxVoices:  defaultMaxVoices,
		maxSlots:   defaultMaxSlots,
		poolSize:   defaultSnapshotPool,
		logger:     slog.New(slog.DiscardHandler),
	}
}

func (c config) processorConfig() core.ProcessorConfig {
	return core.ProcessorConfig{SampleRate: c.sampleRate, BlockSize: c.maxBlock}
}

// Option configures a [Context].
type Option func(*config) error

// WithSampleRate sets the device sample rate in Hz.
func WithSampleRate(rate float64) Option {
	return func(c *config) error {
		c.sampleRate = rate
		return c.processorConfig().Validate()
	}
}

// WithMaxBlockSize sets the largest block the audio side renders at once.
// Longer Process calls are split.
func WithMaxBlockSize(n int) Option {
	return func(c *config) error {
		c.maxBlock = n
		return c.processorConfig().Validate()
	}
}

// WithLayout sets the output channel layout.
func WithLayout(l *pan.Layout) Option {
	return func(c *config) error {
		if l == nil || l.NumChannels() == 0 || l.NumChannels() > pan.MaxOutputChannels {
			return errors.New("mixer: invalid layout")
		}
		c.layout = l
		return nil
	}
}

// WithMaxVoices sets the size of the voice table.
func WithMaxVoices(n int) Option {
	return func(c *config) error {
		if n < 1 || n > maxVoicesLimit {
			return fmt.Errorf("mixer: max voices must be in [1, %d]: %d", maxVoicesLimit, n)
		}
		c.maxVoices = n
		return nil
	}
}

// WithMaxSlots sets the size of the effect slot table.
func WithMaxSlots(n int) Option {
	return func(c *config) error {
		if n < 1 || n > maxSlotsLimit {
			return fmt.Errorf("mixer: max slots must be in [1, %d]: %d", maxSlotsLimit, n)
		}
		c.maxSlots = n
		return nil
	}
}

// WithSnapshotPoolSize sets how many parameter snapshots are preallocated.
// The pool grows on demand; growth is logged.
func WithSnapshotPoolSize(n int) Option {
	return func(c *config) error {
		if n < 1 || n > snapshot.MaxPoolItems {
			return fmt.Errorf("mixer: snapshot pool size must be in [1, %d]: %d", snapshot.MaxPoolItems, n)
		}
		c.poolSize = n
		return nil
	}
}

// WithAmbisonicDry mixes sources into a first-order B-Format bus that is
// decoded onto the layout once per block, instead of panning each source
// onto the speakers directly.
func WithAmbisonicDry(enabled bool) Option {
	return func(c *config) error {
		c.ambisonicDry = enabled
		return nil
	}
}

// WithLogger sets the logger for control-side events. The audio side
// never logs.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) error {
		if l == nil {
			return errors.New("mixer: nil logger")
		}
		c.logger = l
		return nil
	}
}
