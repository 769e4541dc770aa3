package token

// Options contains optional configuration for a Codec.
// NewOptions should be used to create instances of Options.
type Options struct {
	// Padding determines whether tokens carry trailing '=' padding.
	Padding bool
}

// Option defines a functional option for configuring Options.
// Options are applied in order, with later options overriding earlier ones.
type Option func(*Options) error

// NewOptions creates Options with optional configurations applied.
// Starts with default values, then applies options in order with later options overriding earlier ones.
func NewOptions(opt ...Option) (Options, error) {
	opts := Options{
		Padding: DefaultPadding(),
	}

	for _, o := range opt {
		if o == nil {
			continue
		}
		if err := o(&opts); err != nil {
			return Options{}, err
		}
	}

	return opts, nil
}

// WithPadding enables or disables '=' padding on encoded tokens.
// Decoding is strict: a padded codec rejects unpadded tokens and vice versa.
func WithPadding(enabled bool) Option {
	return func(o *Options) error {
		o.Padding = enabled
		return nil
	}
}

// DefaultPadding returns whether tokens are padded by default.
func DefaultPadding() bool {
	return true
}
