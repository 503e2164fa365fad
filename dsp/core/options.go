package core

import "fmt"

// ProcessorConfig defines the sample rate and the largest block a
// processing stage must accept in one call.
type ProcessorConfig struct {
	SampleRate float64
	BlockSize  int
}

// ProcessorOption mutates a ProcessorConfig.
type ProcessorOption func(*ProcessorConfig)

// DefaultProcessorConfig returns 48 kHz with a 1024-frame maximum block.
func DefaultProcessorConfig() ProcessorConfig {
	return ProcessorConfig{
		SampleRate: 48000,
		BlockSize:  1024,
	}
}

// WithSampleRate sets the processing sample rate. Non-positive values are ignored.
func WithSampleRate(sampleRate float64) ProcessorOption {
	return func(cfg *ProcessorConfig) {
		if sampleRate > 0 {
			cfg.SampleRate = sampleRate
		}
	}
}

// WithBlockSize sets the maximum block size. Non-positive values are ignored.
func WithBlockSize(blockSize int) ProcessorOption {
	return func(cfg *ProcessorConfig) {
		if blockSize > 0 {
			cfg.BlockSize = blockSize
		}
	}
}

// ApplyProcessorOptions applies zero or more options to the default config.
func ApplyProcessorOptions(opts ...ProcessorOption) ProcessorConfig {
	cfg := DefaultProcessorConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// Validate reports whether the config can drive a real-time stage.
func (c ProcessorConfig) Validate() error {
	if c.SampleRate < 8000 || c.SampleRate > 192000 || !IsFinite(c.SampleRate) {
		return fmt.Errorf("sample rate must be in [8000, 192000]: %v", c.SampleRate)
	}
	if c.BlockSize < 1 || c.BlockSize > 1<<16 {
		return fmt.Errorf("block size must be in [1, 65536]: %d", c.BlockSize)
	}
	return nil
}
