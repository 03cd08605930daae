package core

// ProcessorConfig defines common processing settings shared by hosts.
type ProcessorConfig struct {
	SampleRate float64
	BlockSize  int

	// ControlInterval is the number of audio frames between control-rate
	// updates. Zero freezes control-rate parameters at their last values.
	ControlInterval int
}

// ProcessorOption mutates a ProcessorConfig.
type ProcessorOption func(*ProcessorConfig)

// DefaultProcessorConfig returns sensible defaults for streaming use.
func DefaultProcessorConfig() ProcessorConfig {
	return ProcessorConfig{
		SampleRate:      44100,
		BlockSize:       256,
		ControlInterval: 16,
	}
}

// WithSampleRate sets the processing sample rate.
func WithSampleRate(sampleRate float64) ProcessorOption {
	return func(cfg *ProcessorConfig) {
		if sampleRate > 0 {
			cfg.SampleRate = sampleRate
		}
	}
}

// WithBlockSize sets the processing block size.
func WithBlockSize(blockSize int) ProcessorOption {
	return func(cfg *ProcessorConfig) {
		if blockSize > 0 {
			cfg.BlockSize = blockSize
		}
	}
}

// WithControlInterval sets the audio-frames-per-control-tick ratio.
func WithControlInterval(frames int) ProcessorOption {
	return func(cfg *ProcessorConfig) {
		if frames >= 0 {
			cfg.ControlInterval = frames
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
