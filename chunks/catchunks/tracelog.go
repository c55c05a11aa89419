package catchunks

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// TraceLog persists per-event cwnd/RTT samples to a SQLite database, for
// the `--log-cwnd`/`--log-rtt` CLI options (spec.md §6) to be plotted or
// queried after the fact instead of scraped from a text log.
type TraceLog struct {
	db *sql.DB
}

// OpenTraceLog opens the sqlite file at path, creating it if needed, and
// prepares its two tables. Rows already in an existing file are kept.
func OpenTraceLog(path string) (*TraceLog, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open trace log %s: %w", path, err)
	}
	schema := `
CREATE TABLE IF NOT EXISTS cwnd_trace (t_ms INTEGER, cwnd REAL, ssthresh REAL);
CREATE TABLE IF NOT EXISTS rtt_trace (t_ms INTEGER, segment INTEGER, rtt_ms REAL, rto_ms REAL);
`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to prepare trace log schema: %w", err)
	}
	return &TraceLog{db: db}, nil
}

func (t *TraceLog) Close() error { return t.db.Close() }

func (t *TraceLog) LogCwnd(at time.Time, cwnd, ssthresh float64) {
	_, _ = t.db.Exec("INSERT INTO cwnd_trace (t_ms, cwnd, ssthresh) VALUES (?, ?, ?)",
		at.UnixMilli(), cwnd, ssthresh)
}

func (t *TraceLog) LogRtt(at time.Time, segment uint64, rtt, rto time.Duration) {
	_, _ = t.db.Exec("INSERT INTO rtt_trace (t_ms, segment, rtt_ms, rto_ms) VALUES (?, ?, ?, ?)",
		at.UnixMilli(), segment, float64(rtt.Microseconds())/1000.0, float64(rto.Microseconds())/1000.0)
}
