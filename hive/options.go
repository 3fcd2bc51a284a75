package hive

const (
	// DefaultMaxCellSize guards against absurd or hostile cell sizes.
	DefaultMaxCellSize = 64 << 20

	// DefaultMaxSubkeys bounds the flattened subkey list of a single key.
	DefaultMaxSubkeys = 1 << 20

	// DefaultMaxValues bounds the value list of a single key.
	DefaultMaxValues = 1 << 20
)

// Options controls safety limits applied while decoding.
type Options struct {
	// MaxCellSize is the largest cell the decoder will read.
	// Zero selects DefaultMaxCellSize.
	MaxCellSize int

	// MaxSubkeys is the largest subkey list accepted for one key.
	// Zero selects DefaultMaxSubkeys.
	MaxSubkeys int

	// MaxValues is the largest value list accepted for one key.
	// Zero selects DefaultMaxValues.
	MaxValues int
}

// DefaultOptions returns the conservative defaults.
func DefaultOptions() Options {
	return Options{
		MaxCellSize: DefaultMaxCellSize,
		MaxSubkeys:  DefaultMaxSubkeys,
		MaxValues:   DefaultMaxValues,
	}
}

func (o Options) withDefaults() Options {
	if o.MaxCellSize <= 0 {
		o.MaxCellSize = DefaultMaxCellSize
	}
	if o.MaxSubkeys <= 0 {
		o.MaxSubkeys = DefaultMaxSubkeys
	}
	if o.MaxValues <= 0 {
		o.MaxValues = DefaultMaxValues
	}
	return o
}
