package catchunks

import (
	enc "github.com/Tankmaster48/ndnd-catchunks/std/encoding"
	"github.com/Tankmaster48/ndnd-catchunks/std/ndn"
)

// fixedPipeline implements spec.md §4.4.1: a constant number of concurrent
// per-segment DataFetchers (opts.PipelineSize of them), each refilled with
// the next unfetched segment as soon as it completes.
type fixedPipeline struct {
	engine        ndn.Engine
	versionedName enc.Name
	opts          Options
	cb            PipelineCallbacks

	nextSegment uint64
	inFlight    map[uint64]*DataFetcher
	fb          finalBlockTracker
	deferred    deferredFailure
	cancelled   bool
	done        bool
}

func newFixedPipeline(engine ndn.Engine, versionedName enc.Name, opts Options, cb PipelineCallbacks) *fixedPipeline {
	return &fixedPipeline{
		engine:        engine,
		versionedName: versionedName,
		opts:          opts,
		cb:            cb,
		inFlight:      make(map[uint64]*DataFetcher),
	}
}

func (p *fixedPipeline) Run() {
	p.fillWindow()
}

func (p *fixedPipeline) Cancel() {
	p.cancelled = true
	for _, f := range p.inFlight {
		f.Cancel()
	}
	p.inFlight = make(map[uint64]*DataFetcher)
}

func (p *fixedPipeline) windowSize() int {
	if p.opts.PipelineSize < 1 {
		return 1
	}
	return p.opts.PipelineSize
}

// fillWindow issues new segment Interests until the window is full, the
// known end of content is reached, or a failure is blocking progress.
func (p *fixedPipeline) fillWindow() {
	if p.cancelled || p.deferred.has {
		return
	}
	for len(p.inFlight) < p.windowSize() {
		if p.fb.has && p.nextSegment > p.fb.lastSegmentNo {
			break
		}
		seg := p.nextSegment
		p.nextSegment++
		p.fetchSegment(seg)
	}
}

func (p *fixedPipeline) fetchSegment(seg uint64) {
	if p.opts.Cache != nil {
		if data, raw, ok := p.opts.Cache.Get(p.versionedName, seg); ok {
			p.onSegmentData(seg, data, raw)
			return
		}
	}

	name := segmentName(p.versionedName, p.opts.Convention, seg)
	fetcher := NewDataFetcher(p.engine, name, DataFetcherOptions{
		MaxNackRetries:    p.opts.MaxRetriesOnTimeoutOrNack,
		MaxTimeoutRetries: p.opts.MaxRetriesOnTimeoutOrNack,
		MustBeFresh:       p.opts.MustBeFresh,
		Lifetime:          p.opts.Lifetime,
	},
		func(data ndn.Data, raw enc.Wire) { p.onSegmentData(seg, data, raw) },
		func(err error) { p.onSegmentFailure(seg, err) },
	)
	p.inFlight[seg] = fetcher
	fetcher.Start()
}

func (p *fixedPipeline) onSegmentData(seg uint64, data ndn.Data, raw enc.Wire) {
	if p.cancelled {
		return
	}
	delete(p.inFlight, seg)

	if fb, ok := data.FinalBlockID().Get(); ok {
		if v, ok := p.opts.Convention.ToSegment(fb); ok {
			p.fb.Learn(v)
		}
	}

	p.cb.OnData(seg, data, raw)

	if p.deferred.has {
		if fatal := p.fb.resolveDeferred(&p.deferred); fatal {
			p.fail(p.deferred.reason)
			return
		}
		p.deferred = deferredFailure{}
	}

	p.fillWindow()
	p.checkDone()
}

func (p *fixedPipeline) checkDone() {
	if p.done || p.cancelled || p.deferred.has {
		return
	}
	if p.fb.has && p.nextSegment > p.fb.lastSegmentNo && len(p.inFlight) == 0 {
		p.done = true
		p.cb.OnDone()
	}
}

func (p *fixedPipeline) onSegmentFailure(seg uint64, err error) {
	if p.cancelled {
		return
	}
	delete(p.inFlight, seg)

	fatal, shouldDefer := classifyFailure(&p.fb, seg)
	switch {
	case fatal:
		p.fail(err)
	case shouldDefer:
		if !p.deferred.has {
			p.deferred = deferredFailure{has: true, segment: seg, reason: err}
		}
	default:
		// Moot: seg is past the real end of content, nothing to do.
	}
}

func (p *fixedPipeline) fail(err error) {
	p.Cancel()
	p.cb.OnFailure(err)
}
