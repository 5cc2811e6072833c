package lineage

import (
	"io"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/lineagewalk/pkg/errors"
)

const (
	DefaultMaxDistance = 5 // Default hop ceiling
	MaxDistanceCeiling = 5 // Largest hop ceiling the oracle supports
	DefaultConcurrency = 1 // Sequential lookups, one object at a time
	MaxConcurrency     = 32 // Upper bound for Concurrency and RootConcurrency
)

// Options configures a lineage extraction.
type Options struct {
	Direction       Direction   // UPSTREAM (default) or DOWNSTREAM
	MaxDistance     int         // Hop ceiling, 1..5 (default: 5)
	Concurrency     int         // Parallel lookups within one round, 1..32 (default: 1)
	RootConcurrency int         // Independent roots explored in parallel, 1..32 (default: 1)
	Logger          *log.Logger // Progress and diagnostics (optional)
}

// WithDefaults returns a copy of Options with zero values replaced by defaults.
func (o Options) WithDefaults() Options {
	opts := o
	if opts.Direction == "" {
		opts.Direction = Upstream
	}
	if opts.MaxDistance == 0 {
		opts.MaxDistance = DefaultMaxDistance
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	if opts.RootConcurrency <= 0 {
		opts.RootConcurrency = 1
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	return opts
}

// Validate checks ranges. Call it on the result of WithDefaults.
func (o Options) Validate() error {
	if o.Direction != Upstream && o.Direction != Downstream {
		return errors.New(errors.ErrCodeInvalidInput, "invalid direction %q", o.Direction)
	}
	if o.MaxDistance < 1 || o.MaxDistance > MaxDistanceCeiling {
		return errors.New(errors.ErrCodeInvalidInput, "max distance %d out of range 1..%d", o.MaxDistance, MaxDistanceCeiling)
	}
	if o.Concurrency > MaxConcurrency {
		return errors.New(errors.ErrCodeInvalidInput, "concurrency %d exceeds %d", o.Concurrency, MaxConcurrency)
	}
	if o.RootConcurrency > MaxConcurrency {
		return errors.New(errors.ErrCodeInvalidInput, "root concurrency %d exceeds %d", o.RootConcurrency, MaxConcurrency)
	}
	return nil
}
