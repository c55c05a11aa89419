package catchunks

import (
	"time"

	"github.com/Tankmaster48/ndnd-catchunks/chunks/catchunks/segcache"
)

// PipelineKind selects a concrete Pipeline strategy.
type PipelineKind int

const (
	PipelineFixed PipelineKind = iota
	PipelineAIMD
	PipelineCUBIC
)

func (k PipelineKind) String() string {
	switch k {
	case PipelineFixed:
		return "fixed"
	case PipelineAIMD:
		return "aimd"
	case PipelineCUBIC:
		return "cubic"
	default:
		return "unknown"
	}
}

// Options gathers every tunable named in spec.md §6's CLI surface. A
// FetchSession is configured with one Options value; it is shared,
// read-only, by the discovery machine, the chosen pipeline, and the RTT
// estimator.
type Options struct {
	MustBeFresh        bool
	Lifetime           time.Duration
	MaxRetriesOnTimeoutOrNack int
	PipelineKind       PipelineKind
	DisableVersionDiscovery bool
	Convention         NamingConvention

	// Fixed pipeline.
	PipelineSize int

	// Adaptive pipelines (shared).
	IgnoreMarks     bool
	DisableCwa      bool
	InitCwnd        float64
	InitSsthresh    float64
	RtoCheckInterval time.Duration
	Rtt             RttEstimatorOptions

	// AIMD.
	AimdStep            float64
	AimdBeta            float64
	ResetCwndToInit     bool

	// CUBIC.
	CubicBeta      float64
	CubicC         float64
	FastConv       bool

	// Session.
	Timeout time.Duration // 0 = no overall deadline

	// Cache, if set, is consulted before every new-segment Interest and
	// populated with every segment fetched over the network, so a later
	// fetch of the same versioned name can resume without re-requesting
	// already-cached segments.
	Cache *segcache.Cache
}

// DefaultOptions returns the spec's defaults, with the CUBIC pipeline (the
// CLI's own default per spec.md §6).
func DefaultOptions() Options {
	return Options{
		MustBeFresh:               false,
		Lifetime:                  4 * time.Second,
		MaxRetriesOnTimeoutOrNack: 3,
		PipelineKind:              PipelineCUBIC,
		Convention:                TypedConvention{},
		PipelineSize:              1, // small default per spec.md §6; CLI may raise it
		InitCwnd:                  1,
		InitSsthresh:              8,
		RtoCheckInterval:          10 * time.Millisecond,
		Rtt:                       DefaultRttEstimatorOptions(),
		AimdStep:                  1,
		AimdBeta:                  0.5,
		CubicBeta:                 0.7,
		CubicC:                    0.4,
	}
}
