package catchunks

import "time"

// SegmentState is the lifecycle state of one in-flight segment record
// (spec.md §3's per-segment record). The merged ("newer code path")
// semantics apply: a segment leaves inFlight on Data arrival regardless of
// how many times it was retransmitted, so there is no separate
// "RetxReceived" state (spec.md §9, Open Question).
type SegmentState int

const (
	FirstTimeSent SegmentState = iota
	InRetxQueue
	Retransmitted
)

// segmentRecord tracks one outstanding segment Interest for the adaptive
// pipelines' shared in-flight map.
type segmentRecord struct {
	state        SegmentState
	sentTime     time.Time
	rto          time.Duration
	retxCount    int
	hasRttSample bool
}

// deferredFailure holds the single "is there a failure we haven't decided
// is fatal yet" triple from spec.md §3/§9: modeled as one value, not a
// queue, since only one deferred failure can be outstanding at a time
// (the first one seen blocks further progress until FinalBlockId is known).
type deferredFailure struct {
	has     bool
	segment uint64
	reason  error
}

// finalBlockTracker holds the FinalBlockId bookkeeping shared by every
// pipeline strategy: hasFinalBlockId and lastSegmentNo transition
// false->true (and unset->set) at most once per session.
type finalBlockTracker struct {
	has           bool
	lastSegmentNo uint64
}

// Learn records a FinalBlockId value the first time it is seen. Returns
// true if this call set it (a caller uses this to know whether to act on
// the now-known upper bound).
func (t *finalBlockTracker) Learn(seg uint64) bool {
	if t.has {
		return false
	}
	t.has = true
	t.lastSegmentNo = seg
	return true
}

// resolveDeferred decides whether a deferred failure is now fatal (the
// failed segment turned out to be part of the content) or moot (it was
// past the real end and so never existed).
func (t *finalBlockTracker) resolveDeferred(d *deferredFailure) (fatal bool) {
	if !d.has || !t.has {
		return false
	}
	return d.segment <= t.lastSegmentNo
}
