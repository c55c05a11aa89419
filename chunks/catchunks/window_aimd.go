package catchunks

import (
	"math"
	"time"
)

// aimdWindow implements spec.md §4.4.3's additive-increase/
// multiplicative-decrease congestion window, modeled on RFC 5681.
type aimdWindow struct {
	opts     Options
	cwnd     float64
	ssthresh float64
}

func newAimdWindow(opts Options) *aimdWindow {
	return &aimdWindow{opts: opts, cwnd: opts.InitCwnd, ssthresh: opts.InitSsthresh}
}

func (w *aimdWindow) Cwnd() float64     { return w.cwnd }
func (w *aimdWindow) Ssthresh() float64 { return w.ssthresh }

func (w *aimdWindow) Increase(rtt time.Duration, now time.Time) {
	if w.cwnd < w.ssthresh {
		w.cwnd += 1 // slow start
		return
	}
	w.cwnd += w.opts.AimdStep / math.Floor(w.cwnd) // congestion avoidance
}

func (w *aimdWindow) Decrease() {
	w.ssthresh = math.Max(2.0, w.cwnd*w.opts.AimdBeta)
	if w.opts.ResetCwndToInit {
		w.cwnd = w.opts.InitCwnd
	} else {
		w.cwnd = w.ssthresh
	}
}
