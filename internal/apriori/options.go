package apriori

import (
	"runtime"

	"gobasket/domain/basket"
	"gobasket/domain/core"
)

// Options configure a Miner
type Options struct {
	// MinSupport is the minimum itemset support, in (0, 1].
	MinSupport float64 `json:"min_support" yaml:"min_support"`
	// MinConfidence is the minimum rule confidence, in [0, 1].
	MinConfidence float64 `json:"min_confidence" yaml:"min_confidence"`
	// MaxSize caps itemset size. 0 means unbounded.
	MaxSize int `json:"max_size" yaml:"max_size"`
	// Workers bounds concurrent candidate counting. 0 means GOMAXPROCS.
	Workers int `json:"workers" yaml:"workers"`
	// Within restricts mining to transactions containing this entity.
	Within *basket.EntitySelector `json:"within,omitempty" yaml:"within,omitempty"`
}

// DefaultOptions returns thresholds suited to retail receipts
func DefaultOptions() Options {
	return Options{
		MinSupport:    0.01,
		MinConfidence: 0.2,
		MaxSize:       0,
		Workers:       runtime.GOMAXPROCS(0),
	}
}

// Validate checks thresholds. NaN fails every range check.
func (o Options) Validate() error {
	if !(o.MinSupport > 0 && o.MinSupport <= 1) {
		return core.NewInvalidThresholdError("min_support", o.MinSupport)
	}
	if !(o.MinConfidence >= 0 && o.MinConfidence <= 1) {
		return core.NewInvalidThresholdError("min_confidence", o.MinConfidence)
	}
	if o.MaxSize < 0 {
		return core.NewInvalidThresholdError("max_size", float64(o.MaxSize))
	}
	return nil
}

func (o Options) workers() int {
	if o.Workers > 0 {
		return o.Workers
	}
	return runtime.GOMAXPROCS(0)
}
