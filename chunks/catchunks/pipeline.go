package catchunks

import (
	"time"

	enc "github.com/Tankmaster48/ndnd-catchunks/std/encoding"
	"github.com/Tankmaster48/ndnd-catchunks/std/ndn"
)

// Pipeline drives per-segment Interest expression against a versioned
// content name, per spec.md §4.4. Run starts fetching from segment 0;
// Cancel tears down every in-flight Interest and timer.
type Pipeline interface {
	Run()
	Cancel()
}

// PipelineCallbacks is how a Pipeline reports progress to its FetchSession.
// onData is called once per distinct segment, in arbitrary arrival order;
// onFailure is called at most once, and only after the pipeline has
// internally decided a failure is fatal (spec.md §9's deferred-failure
// rule: a failure past FinalBlockID is never reported).
type PipelineCallbacks struct {
	OnData    func(seg uint64, data ndn.Data, raw enc.Wire)
	OnDone    func()
	OnFailure func(err error)

	// Optional tracing hooks for adaptive pipelines, wired to --log-cwnd /
	// --log-rtt. Either may be left nil.
	OnWindowSample func(cwnd, ssthresh float64)
	OnRttSample    func(seg uint64, rtt, rto time.Duration)

	// Optional counters for the verbose-mode completion summary
	// (spec.md §7). Adaptive pipelines call OnTimeout once per detected
	// timeout, OnRetransmit once per retransmitted Interest actually
	// sent, and OnCongestionMark once per congestion event (timeout or
	// congestion NACK). Any may be left nil.
	OnTimeout        func(seg uint64)
	OnRetransmit     func(seg uint64)
	OnCongestionMark func()
}

// NewPipeline builds the concrete strategy named by opts.PipelineKind.
func NewPipeline(engine ndn.Engine, versionedName enc.Name, opts Options, cb PipelineCallbacks) Pipeline {
	switch opts.PipelineKind {
	case PipelineFixed:
		return newFixedPipeline(engine, versionedName, opts, cb)
	case PipelineAIMD:
		return newAdaptivePipeline(engine, versionedName, opts, cb, newAimdWindow(opts))
	case PipelineCUBIC:
		return newAdaptivePipeline(engine, versionedName, opts, cb, newCubicWindow(opts))
	default:
		return newAdaptivePipeline(engine, versionedName, opts, cb, newCubicWindow(opts))
	}
}

func segmentName(versionedName enc.Name, conv NamingConvention, seg uint64) enc.Name {
	return conv.AppendSegment(versionedName, seg)
}

// classifyFailure decides, given current FinalBlockID knowledge, whether a
// segment failure is fatal now, should be deferred until FinalBlockID is
// learned, or is moot (the segment turned out to be past the real end).
//
// Returns (fatal, defer).
func classifyFailure(fb *finalBlockTracker, seg uint64) (fatal, shouldDefer bool) {
	if !fb.has {
		return false, true
	}
	return seg <= fb.lastSegmentNo, false
}
