package catchunks

import (
	"io"
	"time"

	enc "github.com/Tankmaster48/ndnd-catchunks/std/encoding"
	"github.com/Tankmaster48/ndnd-catchunks/std/ndn"
)

// FetchSession is the top-level orchestrator (spec.md §4.6): it runs
// version discovery, then drives the chosen pipeline against the
// discovered versioned name, then feeds the reorder buffer until the
// content is fully delivered or the session fails.
type FetchSession struct {
	engine ndn.Engine
	opts   Options
	stats  *Stats

	discovery     *VersionDiscovery
	pipeline      Pipeline
	buffer        *ReorderBuffer
	traceLog      *TraceLog
	versionedName enc.Name

	onSuccess func(stats *Stats)
	onFailure func(err error)

	cancelTimeout func() error
	finished      bool
}

// NewFetchSession constructs a session against engine with opts. Call Run
// to start it.
func NewFetchSession(engine ndn.Engine, opts Options) *FetchSession {
	return &FetchSession{engine: engine, opts: opts}
}

// SetTraceLog attaches a sqlite trace sink for cwnd/RTT samples (wired to
// --log-cwnd/--log-rtt). Must be called before Run.
func (s *FetchSession) SetTraceLog(t *TraceLog) { s.traceLog = t }

// Run starts discovery against prefix; completed content bytes are
// written, in order, to sink; each Data is first checked by validator
// (pass NopValidator{} to skip validation). onSuccess fires once, with the
// accumulated Stats, on successful completion; onFailure fires once on any
// unrecoverable error.
func (s *FetchSession) Run(prefix enc.Name, sink io.Writer, validator Validator,
	onSuccess func(stats *Stats), onFailure func(err error)) {
	s.onSuccess = onSuccess
	s.onFailure = onFailure
	s.stats = NewStats(s.engine.Timer().Now())

	s.buffer = NewReorderBuffer(validator, sink, s.onBufferSuccess, s.onSessionFailure)

	if s.opts.Timeout > 0 {
		s.cancelTimeout = s.engine.Timer().Schedule(s.opts.Timeout, func() {
			s.onSessionFailure(ErrSessionTimeout{})
		})
	}

	s.discovery = NewVersionDiscovery(s.engine, prefix, DiscoverOptions{
		Disabled:                  s.opts.DisableVersionDiscovery,
		MaxRetriesOnTimeoutOrNack: s.opts.MaxRetriesOnTimeoutOrNack,
		Lifetime:                  s.opts.Lifetime,
		Convention:                s.opts.Convention,
	}, s.onDiscovered, s.onSessionFailure)
	s.discovery.Start()
}

func (s *FetchSession) onDiscovered(versionedName enc.Name) {
	if s.finished {
		return
	}
	s.discovery = nil
	s.versionedName = versionedName
	cb := PipelineCallbacks{
		OnData:    s.onSegmentData,
		OnDone:    s.buffer.OnPipelineDone,
		OnFailure: s.onSessionFailure,
		OnTimeout: func(seg uint64) { s.stats.Timeouts++ },
		OnRetransmit: func(seg uint64) { s.stats.Retransmissions++ },
		OnCongestionMark: func() { s.stats.CongestionMarks++ },
		OnRttSample: func(seg uint64, rtt, rto time.Duration) {
			s.stats.RecordRtt(rtt)
			if s.traceLog != nil {
				s.traceLog.LogRtt(s.engine.Timer().Now(), seg, rtt, rto)
			}
		},
	}
	if s.traceLog != nil {
		cb.OnWindowSample = func(cwnd, ssthresh float64) {
			s.traceLog.LogCwnd(s.engine.Timer().Now(), cwnd, ssthresh)
		}
	}
	s.pipeline = NewPipeline(s.engine, versionedName, s.opts, cb)
	s.pipeline.Run()
}

func (s *FetchSession) onSegmentData(seg uint64, data ndn.Data, raw enc.Wire) {
	s.stats.SegmentsReceived++
	for _, chunk := range data.Content() {
		s.stats.BytesReceived += int64(len(chunk))
	}
	if s.opts.Cache != nil {
		s.opts.Cache.Put(s.versionedName, seg, raw)
	}
	s.buffer.OnSegmentData(seg, data, raw)
}

func (s *FetchSession) onBufferSuccess() {
	if s.finished {
		return
	}
	s.finished = true
	s.teardown()
	s.stats.Finish(s.engine.Timer().Now())
	s.onSuccess(s.stats)
}

func (s *FetchSession) onSessionFailure(err error) {
	if s.finished {
		return
	}
	s.finished = true
	s.teardown()
	s.stats.Finish(s.engine.Timer().Now())
	s.onFailure(err)
}

// Cancel stops the session from outside: discovery if still running, else
// the pipeline, then tears down every owned handle. No further callbacks
// are delivered.
func (s *FetchSession) Cancel() {
	if s.finished {
		return
	}
	s.finished = true
	if s.discovery != nil {
		s.discovery.Cancel()
	}
	if s.pipeline != nil {
		s.pipeline.Cancel()
	}
	s.teardown()
}

// teardown follows spec.md §5's destruction order: cancel timers, cancel
// in-flight Interests, drop the reorder buffer, drop the pipeline, drop
// discovery.
func (s *FetchSession) teardown() {
	if s.cancelTimeout != nil {
		s.cancelTimeout()
		s.cancelTimeout = nil
	}
	if s.pipeline != nil {
		s.pipeline.Cancel()
	}
	s.buffer = nil
	s.pipeline = nil
	s.discovery = nil
}
