package autocrop

// Options configures background detection
type Options struct {
	// Stride is the sampling step along the axis perpendicular to the scan
	Stride int

	// Threshold is the per-channel difference (0-255) at or above which a
	// pixel no longer counts as background
	Threshold int
}

// DefaultOptions returns the stride and threshold used for scanned pages
func DefaultOptions() Options {
	return Options{
		Stride:    10,
		Threshold: 40,
	}
}

// WithStride returns options with a custom sampling stride
func (opts Options) WithStride(stride int) Options {
	opts.Stride = stride
	return opts
}

// WithThreshold returns options with a custom background threshold
func (opts Options) WithThreshold(threshold int) Options {
	opts.Threshold = threshold
	return opts
}

func (opts Options) normalized() Options {
	if opts.Stride < 1 {
		opts.Stride = 1
	}
	if opts.Threshold < 0 {
		opts.Threshold = 0
	}
	return opts
}
