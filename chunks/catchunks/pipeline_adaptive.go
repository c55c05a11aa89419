package catchunks

import (
	"time"

	enc "github.com/Tankmaster48/ndnd-catchunks/std/encoding"
	"github.com/Tankmaster48/ndnd-catchunks/std/ndn"
	"github.com/Tankmaster48/ndnd-catchunks/std/types/optional"
)

// windowController is the pluggable congestion-window math behind an
// adaptive pipeline: AIMD (spec.md §4.4.3) or CUBIC (§4.4.4).
type windowController interface {
	Cwnd() float64
	Ssthresh() float64
	Increase(rtt time.Duration, now time.Time)
	Decrease()
}

// adaptivePipeline implements spec.md §4.4.2: a single shared Interest
// budget (cwnd) governs how many segments may be outstanding at once, with
// one real-valued window shared across the whole fetch instead of a fixed
// per-segment fetcher count.
type adaptivePipeline struct {
	engine        ndn.Engine
	versionedName enc.Name
	opts          Options
	cb            PipelineCallbacks
	window        windowController
	rtt           *RttEstimator

	nextSegment uint64
	inFlight    map[uint64]*segmentRecord
	retxQueue   []uint64

	fb       finalBlockTracker
	deferred deferredFailure

	// CWA (conservative window adaptation, spec.md §4.4.2 invariant 2):
	// at most one window decrease per round-trip. recoveryPoint is the
	// highest segment number sent as of the last decrease; until a
	// segment numbered at or beyond it completes, further losses don't
	// trigger another decrease.
	highInterest  uint64
	recoveryPoint uint64
	hasRecovery   bool

	cancelled  bool
	done       bool
	cancelTick func() error
}

func newAdaptivePipeline(engine ndn.Engine, versionedName enc.Name, opts Options,
	cb PipelineCallbacks, window windowController) *adaptivePipeline {
	return &adaptivePipeline{
		engine:        engine,
		versionedName: versionedName,
		opts:          opts,
		cb:            cb,
		window:        window,
		rtt:           NewRttEstimator(opts.Rtt),
		inFlight:      make(map[uint64]*segmentRecord),
	}
}

func (p *adaptivePipeline) Run() {
	p.scheduleTick()
	p.fillPipe()
}

func (p *adaptivePipeline) Cancel() {
	p.cancelled = true
	if p.cancelTick != nil {
		p.cancelTick()
		p.cancelTick = nil
	}
	p.inFlight = make(map[uint64]*segmentRecord)
	p.retxQueue = nil
}

func (p *adaptivePipeline) scheduleTick() {
	interval := p.opts.RtoCheckInterval
	if interval <= 0 {
		interval = 10 * time.Millisecond
	}
	p.cancelTick = p.engine.Timer().Schedule(interval, p.checkRto)
}

// checkRto sweeps the in-flight map for segments past their RTO, queues
// them for retransmission, and reschedules itself.
func (p *adaptivePipeline) checkRto() {
	if p.cancelled {
		return
	}
	now := p.engine.Timer().Now()
	for seg, rec := range p.inFlight {
		if rec.state == InRetxQueue {
			continue
		}
		if now.Sub(rec.sentTime) < rec.rto {
			continue
		}
		p.onTimeout(seg)
	}
	p.scheduleTick()
}

// fillPipe sends new segment Interests, and drains the retransmission
// queue first, while nInFlight stays under the current window.
func (p *adaptivePipeline) fillPipe() {
	if p.cancelled || p.deferred.has {
		return
	}
	for len(p.retxQueue) > 0 && float64(len(p.inFlight)) <= p.window.Cwnd() {
		seg := p.retxQueue[0]
		p.retxQueue = p.retxQueue[1:]
		p.sendInterest(seg, true)
	}
	for float64(len(p.inFlight)) < p.window.Cwnd() {
		if p.fb.has && p.nextSegment > p.fb.lastSegmentNo {
			break
		}
		seg := p.nextSegment
		p.nextSegment++
		p.sendInterest(seg, false)
	}
}

func (p *adaptivePipeline) sendInterest(seg uint64, isRetx bool) {
	if !isRetx && p.opts.Cache != nil {
		if data, raw, ok := p.opts.Cache.Get(p.versionedName, seg); ok {
			p.onCacheHit(seg, data, raw)
			return
		}
	}

	name := segmentName(p.versionedName, p.opts.Convention, seg)
	spec := p.engine.Spec()
	interest, err := spec.MakeInterest(name, &ndn.InterestConfig{
		CanBePrefix: false,
		MustBeFresh: p.opts.MustBeFresh,
		Nonce:       optional.Some(nonceFromBytes(p.engine.Timer().Nonce())),
		Lifetime:    optional.Some(p.opts.Lifetime),
	}, nil, nil)
	if err != nil {
		p.fail(seg, ErrProtocolFatal{Reason: "failed to encode interest: " + err.Error()})
		return
	}
	if isRetx && p.cb.OnRetransmit != nil {
		p.cb.OnRetransmit(seg)
	}

	now := p.engine.Timer().Now()
	state := FirstTimeSent
	if isRetx {
		state = Retransmitted
	}
	rec, existed := p.inFlight[seg]
	if !existed {
		rec = &segmentRecord{}
		p.inFlight[seg] = rec
	}
	rec.state = state
	rec.sentTime = now
	rec.rto = p.rtt.Rto()
	if isRetx {
		rec.retxCount++
	}

	if seg > p.highInterest {
		p.highInterest = seg
	}

	err = p.engine.Express(interest, func(args ndn.ExpressCallbackArgs) {
		if p.cancelled {
			return
		}
		switch args.Result {
		case ndn.InterestResultData:
			p.onData(seg, args.Data, args.RawData)
		case ndn.InterestResultNack:
			p.onNack(seg, args.NackReason)
		case ndn.InterestResultTimeout:
			p.onTimeout(seg)
		default:
			p.fail(seg, ErrTransportFatal{Reason: "unexpected interest result"})
		}
	})
	if err != nil {
		p.onTimeout(seg)
	}
}

func (p *adaptivePipeline) onData(seg uint64, data ndn.Data, raw enc.Wire) {
	rec, ok := p.inFlight[seg]
	if !ok {
		return // duplicate arrival for an already-resolved segment
	}
	delete(p.inFlight, seg)

	if rec.state == FirstTimeSent {
		nExpected := (len(p.inFlight) + 1) / 2
		if nExpected < 1 {
			nExpected = 1
		}
		sample := p.engine.Timer().Now().Sub(rec.sentTime)
		p.rtt.AddMeasurement(sample, nExpected)
		if p.cb.OnRttSample != nil {
			p.cb.OnRttSample(seg, sample, p.rtt.Rto())
		}
	}

	if fb, ok := data.FinalBlockID().Get(); ok {
		if v, ok := p.opts.Convention.ToSegment(fb); ok {
			p.fb.Learn(v)
		}
	}

	if seg >= p.recoveryPoint {
		p.window.Increase(p.rtt.SmoothedRtt(), p.engine.Timer().Now())
	}
	if seg >= p.recoveryPoint {
		p.hasRecovery = false
	}
	if p.cb.OnWindowSample != nil {
		p.cb.OnWindowSample(p.window.Cwnd(), p.window.Ssthresh())
	}

	p.cb.OnData(seg, data, raw)

	if p.deferred.has {
		if fatal := p.fb.resolveDeferred(&p.deferred); fatal {
			p.fail(p.deferred.segment, p.deferred.reason)
			return
		}
		p.deferred = deferredFailure{}
	}

	p.fillPipe()
	p.checkDone()
}

// onCacheHit delivers a segment found in the local cache without any
// network round trip: it skips the RTT sample and window increase (there
// was no real congestion signal to learn from) but otherwise follows the
// same completion path as onData.
func (p *adaptivePipeline) onCacheHit(seg uint64, data ndn.Data, raw enc.Wire) {
	if fb, ok := data.FinalBlockID().Get(); ok {
		if v, ok := p.opts.Convention.ToSegment(fb); ok {
			p.fb.Learn(v)
		}
	}

	p.cb.OnData(seg, data, raw)

	if p.deferred.has {
		if fatal := p.fb.resolveDeferred(&p.deferred); fatal {
			p.fail(p.deferred.segment, p.deferred.reason)
			return
		}
		p.deferred = deferredFailure{}
	}

	p.fillPipe()
	p.checkDone()
}

func (p *adaptivePipeline) checkDone() {
	if p.done || p.cancelled || p.deferred.has {
		return
	}
	if p.fb.has && p.nextSegment > p.fb.lastSegmentNo && len(p.inFlight) == 0 && len(p.retxQueue) == 0 {
		p.done = true
		p.cb.OnDone()
	}
}

func (p *adaptivePipeline) onTimeout(seg uint64) {
	rec, ok := p.inFlight[seg]
	if !ok {
		return
	}
	if p.cb.OnTimeout != nil {
		p.cb.OnTimeout(seg)
	}
	p.markCongestionEvent()

	if p.opts.MaxRetriesOnTimeoutOrNack != UnlimitedRetries && rec.retxCount >= p.opts.MaxRetriesOnTimeoutOrNack {
		delete(p.inFlight, seg)
		p.fail(seg, ErrTransportFatal{Segment: seg, Reason: "timeout retries exhausted"})
		return
	}
	if rec.state != InRetxQueue {
		rec.state = InRetxQueue
		p.rtt.BackoffRto()
		p.retxQueue = append(p.retxQueue, seg)
	}
	p.fillPipe()
}

func (p *adaptivePipeline) onNack(seg uint64, reason ndn.NackReason) {
	switch reason {
	case ndn.NackReasonDuplicate:
		delete(p.inFlight, seg)
		p.sendInterest(seg, true)
	case ndn.NackReasonCongestion:
		p.onTimeout(seg)
	default:
		delete(p.inFlight, seg)
		p.fail(seg, ErrTransportFatal{Segment: seg, Reason: "nack: " + reasonString(reason)})
	}
}

// markCongestionEvent applies CWA: decrease the window at most once per
// round-trip, tracked via recoveryPoint.
func (p *adaptivePipeline) markCongestionEvent() {
	if p.cb.OnCongestionMark != nil {
		p.cb.OnCongestionMark()
	}
	if p.opts.DisableCwa {
		p.window.Decrease()
		return
	}
	if p.hasRecovery {
		return
	}
	p.hasRecovery = true
	p.recoveryPoint = p.highInterest
	p.window.Decrease()
}

func (p *adaptivePipeline) fail(seg uint64, err error) {
	fatal, shouldDefer := classifyFailure(&p.fb, seg)
	switch {
	case fatal:
		p.Cancel()
		p.cb.OnFailure(err)
	case shouldDefer:
		if !p.deferred.has {
			p.deferred = deferredFailure{has: true, segment: seg, reason: err}
		}
	default:
		p.fillPipe()
	}
}
