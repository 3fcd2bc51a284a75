package registry

import (
	"log/slog"

	"github.com/joshuapare/regwalk/hive"
	"github.com/joshuapare/regwalk/internal/logger"
)

const (
	// DefaultMaxValueSize is the largest declared value size that is read.
	DefaultMaxValueSize = 100 << 20
	// DefaultMaxDepth bounds key nesting below the walk root.
	DefaultMaxDepth = 512
	// DefaultMaxNodes bounds the number of nodes a walk inserts.
	DefaultMaxNodes = 4_000_000
)

// Options tunes a walk. Zero fields take their defaults.
type Options struct {
	MaxValueSize int64 // values declaring more bytes are skipped
	MaxDepth     int   // subkeys deeper than this are not entered; the root is depth 0
	MaxNodes     int   // the walk stops once it has inserted this many nodes

	// Logger receives one record per issue. Defaults to logger.L.
	Logger *slog.Logger

	// Hive is passed to hive.Decode by Run.
	Hive hive.Options
}

// DefaultOptions returns the default limits.
func DefaultOptions() Options {
	return Options{
		MaxValueSize: DefaultMaxValueSize,
		MaxDepth:     DefaultMaxDepth,
		MaxNodes:     DefaultMaxNodes,
		Hive:         hive.DefaultOptions(),
	}
}

func (o Options) withDefaults() Options {
	if o.MaxValueSize <= 0 {
		o.MaxValueSize = DefaultMaxValueSize
	}
	if o.MaxDepth <= 0 {
		o.MaxDepth = DefaultMaxDepth
	}
	if o.MaxNodes <= 0 {
		o.MaxNodes = DefaultMaxNodes
	}
	if o.Logger == nil {
		o.Logger = logger.L
	}
	return o
}
