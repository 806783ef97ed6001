package bunquery

import "github.com/kartikbazzad/bunbase/bunquery/internal/query"

// Options represents evaluation options.
type Options = query.Options

// Option configures a single Filter, Compile or Match call.
type Option func(*Options)

// DefaultOptions returns options with CaseSensitive enabled.
func DefaultOptions() Options {
	return query.DefaultOptions()
}

// WithCaseSensitive controls case sensitivity of $regex and regex literals.
func WithCaseSensitive(on bool) Option {
	return func(o *Options) {
		o.CaseSensitive = on
	}
}

// WithOptions replaces the options wholesale.
func WithOptions(opts Options) Option {
	return func(o *Options) {
		*o = opts
	}
}

// ResolveOptions applies opts on top of DefaultOptions.
func ResolveOptions(opts ...Option) Options {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
