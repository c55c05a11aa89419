package catchunks

import "time"

// RttEstimatorOptions tunes the Jacobson/Karn RTT estimator.
type RttEstimatorOptions struct {
	Alpha                float64       // gain on sRtt, default 1/8
	Beta                 float64       // gain on rttVar, default 1/4
	K                     float64       // rttVar multiplier folded into rto, default 8
	InitialRto           time.Duration
	MinRto               time.Duration
	MaxRto               time.Duration
	RtoBackoffMultiplier float64 // default 2
}

// DefaultRttEstimatorOptions returns the spec's default tuning.
func DefaultRttEstimatorOptions() RttEstimatorOptions {
	return RttEstimatorOptions{
		Alpha:                1.0 / 8,
		Beta:                 1.0 / 4,
		K:                    8,
		InitialRto:           1 * time.Second,
		MinRto:               200 * time.Millisecond,
		MaxRto:               60 * time.Second,
		RtoBackoffMultiplier: 2,
	}
}

// RttEstimator maintains smoothed RTT, RTT variance, and an RTO estimate
// over a stream of round-trip samples, one per FetchSession.
type RttEstimator struct {
	opts RttEstimatorOptions

	sRtt    time.Duration
	rttVar  time.Duration
	rto     time.Duration
	hasInit bool
}

// NewRttEstimator constructs an estimator starting at InitialRto.
func NewRttEstimator(opts RttEstimatorOptions) *RttEstimator {
	return &RttEstimator{
		opts: opts,
		rto:  opts.InitialRto,
	}
}

// AddMeasurement feeds a fresh RTT sample r, measured while nExpectedSamples
// Interests were concurrently outstanding. Retransmitted segments must never
// be fed in (their measured RTT is ambiguous - Karn's algorithm).
func (e *RttEstimator) AddMeasurement(r time.Duration, nExpectedSamples int) {
	if nExpectedSamples < 1 {
		nExpectedSamples = 1
	}

	if !e.hasInit {
		e.sRtt = r
		e.rttVar = r / 2
		e.hasInit = true
	} else {
		alpha := e.opts.Alpha / float64(nExpectedSamples)
		beta := e.opts.Beta / float64(nExpectedSamples)

		diff := r - e.sRtt
		if diff < 0 {
			diff = -diff
		}
		e.rttVar = time.Duration(float64(e.rttVar) + beta*(float64(diff)-float64(e.rttVar)))
		e.sRtt = time.Duration(float64(e.sRtt) + alpha*(float64(r)-float64(e.sRtt)))
	}

	rto := e.sRtt + time.Duration(e.opts.K*float64(e.rttVar))
	e.rto = clampDuration(rto, e.opts.MinRto, e.opts.MaxRto)
}

// BackoffRto doubles (by RtoBackoffMultiplier) the current RTO after a
// loss/timeout event, clamped to MaxRto.
func (e *RttEstimator) BackoffRto() {
	e.rto = clampDuration(
		time.Duration(float64(e.rto)*e.opts.RtoBackoffMultiplier),
		e.opts.MinRto, e.opts.MaxRto)
}

func (e *RttEstimator) Rto() time.Duration      { return e.rto }
func (e *RttEstimator) SmoothedRtt() time.Duration { return e.sRtt }
func (e *RttEstimator) RttVar() time.Duration   { return e.rttVar }

func clampDuration(d, min, max time.Duration) time.Duration {
	if d < min {
		return min
	}
	if d > max {
		return max
	}
	return d
}
