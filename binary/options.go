package binary

// Limits bounds resource consumption while decoding untrusted input. All
// decoding entry points accept functional options; the zero configuration
// uses DefaultLimits.
type Limits struct {
	// MaxItems caps every vector length before any allocation happens, so a
	// short input claiming a billion entries fails fast instead of exhausting
	// memory. It also caps byte vector and name lengths.
	MaxItems uint32

	// MaxNesting caps the depth of nested structured instructions.
	MaxNesting int

	// StrictIntegers rejects LEB128 encodings with redundant trailing bytes.
	// The binary format permits non-minimal encodings, so the default is to
	// accept them; strict mode is for tools that require canonical input.
	StrictIntegers bool
}

// DefaultLimits are the bounds applied when no option overrides them.
var DefaultLimits = Limits{
	MaxItems:   1_000_000,
	MaxNesting: 1_000,
}

// Option adjusts decoding behavior.
type Option func(*Limits)

// WithLimits replaces the whole limit set.
func WithLimits(l Limits) Option {
	return func(dst *Limits) { *dst = l }
}

// WithMaxItems caps vector lengths.
func WithMaxItems(n uint32) Option {
	return func(dst *Limits) { dst.MaxItems = n }
}

// WithMaxNesting caps structured instruction depth.
func WithMaxNesting(n int) Option {
	return func(dst *Limits) { dst.MaxNesting = n }
}

// WithStrictIntegers rejects non-minimal LEB128 encodings.
func WithStrictIntegers() Option {
	return func(dst *Limits) { dst.StrictIntegers = true }
}

func applyOptions(opts []Option) Limits {
	l := DefaultLimits
	for _, opt := range opts {
		opt(&l)
	}
	return l
}
