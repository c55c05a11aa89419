package catchunks

import (
	"time"

	enc "github.com/Tankmaster48/ndnd-catchunks/std/encoding"
	"github.com/Tankmaster48/ndnd-catchunks/std/log"
	"github.com/Tankmaster48/ndnd-catchunks/std/ndn"
	"github.com/Tankmaster48/ndnd-catchunks/std/types/optional"
)

// UnlimitedRetries is the sentinel for "never give up" on a DataFetcher's
// retry ceilings.
const UnlimitedRetries = -1

// MaxCongestionBackoff bounds the exponential backoff after repeated
// congestion NACKs.
const MaxCongestionBackoff = 10 * time.Second

// DataFetcherOptions configures retry ceilings for one DataFetcher.
type DataFetcherOptions struct {
	MaxNackRetries    int
	MaxTimeoutRetries int
	MustBeFresh       bool
	Lifetime          time.Duration
}

// DataFetcher reliably fetches a single named Interest, retrying on
// timeout and on recoverable NACK reasons, with exponential backoff on
// congestion. At most one of onData/onFailure ever fires.
type DataFetcher struct {
	engine ndn.Engine
	name   enc.Name
	opts   DataFetcherOptions

	onData    func(data ndn.Data, raw enc.Wire)
	onFailure func(err error)

	timeoutCount    int
	nackCount       int
	congestionCount int

	running       bool
	cancelTimer   func() error
}

// NewDataFetcher creates a DataFetcher for name, but does not start it.
func NewDataFetcher(engine ndn.Engine, name enc.Name, opts DataFetcherOptions,
	onData func(data ndn.Data, raw enc.Wire), onFailure func(err error)) *DataFetcher {
	return &DataFetcher{
		engine:    engine,
		name:      name,
		opts:      opts,
		onData:    onData,
		onFailure: onFailure,
	}
}

// Start expresses the first Interest.
func (f *DataFetcher) Start() {
	f.running = true
	f.express()
}

// Cancel stops retrying and suppresses any future callback.
func (f *DataFetcher) Cancel() {
	if !f.running {
		return
	}
	f.running = false
	if f.cancelTimer != nil {
		f.cancelTimer()
		f.cancelTimer = nil
	}
}

func (f *DataFetcher) IsRunning() bool { return f.running }

func (f *DataFetcher) express() {
	spec := f.engine.Spec()
	interest, err := spec.MakeInterest(f.name, &ndn.InterestConfig{
		CanBePrefix: false,
		MustBeFresh: f.opts.MustBeFresh,
		Nonce:       optional.Some(nonceFromBytes(f.engine.Timer().Nonce())),
		Lifetime:    optional.Some(f.opts.Lifetime),
	}, nil, nil)
	if err != nil {
		f.fail(ErrProtocolFatal{Reason: "failed to encode interest: " + err.Error()})
		return
	}

	err = f.engine.Express(interest, func(args ndn.ExpressCallbackArgs) {
		if !f.running {
			return
		}
		switch args.Result {
		case ndn.InterestResultData:
			f.running = false
			f.onData(args.Data, args.RawData)
		case ndn.InterestResultNack:
			f.handleNack(args.NackReason)
		case ndn.InterestResultTimeout:
			f.handleTimeout()
		default:
			f.fail(ErrTransportFatal{Reason: "unexpected interest result"})
		}
	})
	if err != nil {
		log.Warn(f, "failed to express interest", "name", f.name, "err", err)
	}
}

func (f *DataFetcher) handleTimeout() {
	f.timeoutCount++
	if f.opts.MaxTimeoutRetries != UnlimitedRetries && f.timeoutCount > f.opts.MaxTimeoutRetries {
		f.fail(ErrTransportFatal{Reason: "timeout retries exhausted"})
		return
	}
	f.express()
}

func (f *DataFetcher) handleNack(reason ndn.NackReason) {
	switch reason {
	case ndn.NackReasonDuplicate:
		f.express()
	case ndn.NackReasonCongestion:
		f.nackCount++
		if f.opts.MaxNackRetries != UnlimitedRetries && f.nackCount > f.opts.MaxNackRetries {
			f.fail(ErrTransportFatal{Reason: "nack retries exhausted"})
			return
		}
		f.congestionCount++
		backoff := time.Duration(1<<uint(f.congestionCount)) * time.Millisecond
		if backoff > MaxCongestionBackoff {
			backoff = MaxCongestionBackoff
		}
		f.cancelTimer = f.engine.Timer().Schedule(backoff, func() {
			if f.running {
				f.express()
			}
		})
	default:
		f.fail(ErrTransportFatal{Reason: "nack: " + reasonString(reason)})
	}
}

func (f *DataFetcher) fail(err error) {
	if !f.running {
		return
	}
	f.running = false
	f.onFailure(err)
}

func (f *DataFetcher) String() string { return "data-fetcher" }

// nonceFromBytes packs a timer-supplied byte sequence (8 bytes from
// Timer.Nonce()) into a fresh uint64 Interest nonce.
func nonceFromBytes(b []byte) uint64 {
	var n uint64
	for i := 0; i < len(b) && i < 8; i++ {
		n = n<<8 | uint64(b[i])
	}
	return n
}

func reasonString(r ndn.NackReason) string {
	switch r {
	case ndn.NackReasonNoRoute:
		return "no-route"
	case ndn.NackReasonCongestion:
		return "congestion"
	case ndn.NackReasonDuplicate:
		return "duplicate"
	default:
		return "unspecified"
	}
}
