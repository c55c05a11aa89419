package catchunks

import (
	"fmt"
	"time"
)

// Stats accumulates the per-session counters spec.md §7 requires for the
// verbose-mode completion summary.
type Stats struct {
	SegmentsReceived int
	Timeouts         int
	Retransmissions  int
	CongestionMarks  int
	BytesReceived    int64

	startTime time.Time
	endTime   time.Time

	minRtt time.Duration
	maxRtt time.Duration
	sumRtt time.Duration
	nRtt   int
}

// NewStats starts a stats run, stamping the start time.
func NewStats(now time.Time) *Stats {
	return &Stats{startTime: now}
}

func (s *Stats) Finish(now time.Time) { s.endTime = now }

// RecordRtt folds one RTT sample into the min/avg/max tracked by the
// summary.
func (s *Stats) RecordRtt(r time.Duration) {
	if s.nRtt == 0 || r < s.minRtt {
		s.minRtt = r
	}
	if r > s.maxRtt {
		s.maxRtt = r
	}
	s.sumRtt += r
	s.nRtt++
}

func (s *Stats) AvgRtt() time.Duration {
	if s.nRtt == 0 {
		return 0
	}
	return s.sumRtt / time.Duration(s.nRtt)
}

// Goodput reports bits/second delivered over the session's wall time.
func (s *Stats) Goodput() float64 {
	elapsed := s.endTime.Sub(s.startTime).Seconds()
	if elapsed <= 0 {
		return 0
	}
	return float64(s.BytesReceived*8) / elapsed
}

// Summary renders the verbose-mode completion line, picking an SI unit for
// goodput (bit/s, kbit/s, Mbit/s, Gbit/s).
func (s *Stats) Summary() string {
	return fmt.Sprintf(
		"segments=%d timeouts=%d retransmissions=%d congestion-marks=%d "+
			"rtt-min=%s rtt-avg=%s rtt-max=%s goodput=%s",
		s.SegmentsReceived, s.Timeouts, s.Retransmissions, s.CongestionMarks,
		s.minRtt, s.AvgRtt(), s.maxRtt, formatBitRate(s.Goodput()))
}

func formatBitRate(bps float64) string {
	units := []string{"bit/s", "kbit/s", "Mbit/s", "Gbit/s"}
	i := 0
	for bps >= 1000 && i < len(units)-1 {
		bps /= 1000
		i++
	}
	return fmt.Sprintf("%.2f %s", bps, units[i])
}
