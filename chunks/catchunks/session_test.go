package catchunks_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/Tankmaster48/ndnd-catchunks/chunks/catchunks"
	enc "github.com/Tankmaster48/ndnd-catchunks/std/encoding"
	basic_engine "github.com/Tankmaster48/ndnd-catchunks/std/engine/basic"
	"github.com/Tankmaster48/ndnd-catchunks/std/engine/face"
	"github.com/Tankmaster48/ndnd-catchunks/std/ndn"
	"github.com/Tankmaster48/ndnd-catchunks/std/ndn/spec_2022"
	sig "github.com/Tankmaster48/ndnd-catchunks/std/security/signer"
	"github.com/Tankmaster48/ndnd-catchunks/std/types/optional"
	tu "github.com/Tankmaster48/ndnd-catchunks/std/utils/testutils"
	"github.com/stretchr/testify/require"
)

// executeSessionTest mirrors std/engine/basic's executeTest: a dummy face and
// a virtual timer give a FetchSession a fully deterministic network to run
// against, with no real I/O or wall-clock waiting.
func executeSessionTest(t *testing.T, main func(f *face.DummyFace, engine *basic_engine.Engine, timer *basic_engine.DummyTimer)) {
	tu.SetT(t)
	f := face.NewDummyFace()
	timer := basic_engine.NewDummyTimer()
	engine := basic_engine.NewEngine(f, timer)
	require.NoError(t, engine.Start())
	main(f, engine, timer)
	require.NoError(t, engine.Stop())
}

// consumeInterest pops one outgoing packet off the face and decodes it back
// as an Interest, returning its name and the raw wire (the latter is reused
// to build a matching Nack below).
func consumeInterest(t *testing.T, f *face.DummyFace) (enc.Name, enc.Buffer) {
	buf := tu.NoErr(f.Consume())
	pkt, _, err := spec_2022.ReadPacket(enc.NewBufferView(buf))
	require.NoError(t, err)
	require.NotNil(t, pkt.Interest)
	return pkt.Interest.Name(), buf
}

// feedNack wraps a previously-consumed Interest wire in a network Nack of
// the given reason and feeds it back through the face.
func feedNack(t *testing.T, f *face.DummyFace, raw enc.Buffer, reason ndn.NackReason) {
	pkt := &spec_2022.Packet{LpPacket: &spec_2022.LpPacket{
		Fragment: enc.Wire{raw},
		Nack:     &spec_2022.Nack{Reason: reason},
	}}
	encoder := spec_2022.PacketEncoder{}
	encoder.Init(pkt)
	wire := encoder.Encode(pkt)
	require.NoError(t, f.FeedPacket(wire.Join()))
}

// versionedTestName builds a versioned content name using the typed naming
// convention, so VersionDiscovery's hasTrailingVersion short-circuit applies
// and tests don't need to also simulate an RDR metadata round trip.
func versionedTestName(t *testing.T, s string, version uint64) enc.Name {
	base := tu.NoErr(enc.NameFromStr(s))
	return catchunks.TypedConvention{}.AppendVersion(base, version)
}

// segmentDataWire builds a signed Data packet for one segment of a
// versioned name, carrying a FinalBlockId as every Data of a real stream
// would, and feeds it through the face.
func segmentDataWire(t *testing.T, eng *basic_engine.Engine, versionedName enc.Name, seg uint64,
	content []byte, finalSegment uint64, contentType optional.Optional[ndn.ContentType]) enc.Buffer {
	name := catchunks.TypedConvention{}.AppendSegment(versionedName, seg)
	cfg := &ndn.DataConfig{
		FinalBlockID: optional.Some(enc.NewSegmentComponent(finalSegment)),
		ContentType:  contentType,
	}
	d, err := eng.Spec().MakeData(name, cfg, enc.Wire{content}, sig.NewTestSigner(enc.Name{}, 0))
	require.NoError(t, err)
	return d.Wire.Join()
}

// baseFixedOptions returns Options for a fixed-pipeline fetch with a given
// window size, short enough retries/lifetimes to keep tests fast.
func baseFixedOptions(windowSize int) catchunks.Options {
	opts := catchunks.DefaultOptions()
	opts.PipelineKind = catchunks.PipelineFixed
	opts.PipelineSize = windowSize
	opts.Lifetime = 2 * time.Second
	opts.MaxRetriesOnTimeoutOrNack = 3
	opts.Convention = catchunks.TypedConvention{}
	return opts
}

// Scenario (spec.md §8): one-segment content, fixed pipeline, successful
// fetch on the first Interest.
func TestFetchOneSegmentSuccess(t *testing.T) {
	executeSessionTest(t, func(f *face.DummyFace, engine *basic_engine.Engine, timer *basic_engine.DummyTimer) {
		versionedName := versionedTestName(t, "/test/data", 1)
		opts := baseFixedOptions(1)

		var sink bytes.Buffer
		var gotStats *catchunks.Stats
		var gotErr error

		session := catchunks.NewFetchSession(engine, opts)
		session.Run(versionedName, &sink, catchunks.NopValidator{},
			func(stats *catchunks.Stats) { gotStats = stats },
			func(err error) { gotErr = err },
		)

		name, _ := consumeInterest(t, f)
		require.True(t, name.Equal(catchunks.TypedConvention{}.AppendSegment(versionedName, 0)))

		dataWire := segmentDataWire(t, engine, versionedName, 0, []byte("hello"), 0, optional.None[ndn.ContentType]())
		require.NoError(t, f.FeedPacket(dataWire))

		require.NoError(t, gotErr)
		require.NotNil(t, gotStats)
		require.Equal(t, "hello", sink.String())
		require.Equal(t, 1, gotStats.SegmentsReceived)
	})
}

// Scenario (spec.md §8): multi-segment content delivered in order, fixed
// pipeline with a window of 1 (one outstanding segment at a time).
func TestFetchInOrderMultiSegment(t *testing.T) {
	executeSessionTest(t, func(f *face.DummyFace, engine *basic_engine.Engine, timer *basic_engine.DummyTimer) {
		versionedName := versionedTestName(t, "/test/data", 1)
		opts := baseFixedOptions(1)

		var sink bytes.Buffer
		var gotStats *catchunks.Stats
		var gotErr error

		session := catchunks.NewFetchSession(engine, opts)
		session.Run(versionedName, &sink, catchunks.NopValidator{},
			func(stats *catchunks.Stats) { gotStats = stats },
			func(err error) { gotErr = err },
		)

		contents := [][]byte{[]byte("AAA"), []byte("BBB"), []byte("CCC")}
		for seg, content := range contents {
			name, _ := consumeInterest(t, f)
			require.True(t, name.Equal(catchunks.TypedConvention{}.AppendSegment(versionedName, uint64(seg))))

			dataWire := segmentDataWire(t, engine, versionedName, uint64(seg), content, 2, optional.None[ndn.ContentType]())
			require.NoError(t, f.FeedPacket(dataWire))
		}

		require.NoError(t, gotErr)
		require.NotNil(t, gotStats)
		require.Equal(t, "AAABBBCCC", sink.String())
		require.Equal(t, 3, gotStats.SegmentsReceived)
	})
}

// Scenario (spec.md §8): multi-segment content delivered out of order; the
// fixed pipeline's window is wide enough (3) to have every segment
// in flight at once, and the reorder buffer must still only release bytes
// to the sink in strict segment order.
func TestFetchOutOfOrderMultiSegment(t *testing.T) {
	executeSessionTest(t, func(f *face.DummyFace, engine *basic_engine.Engine, timer *basic_engine.DummyTimer) {
		versionedName := versionedTestName(t, "/test/data", 1)
		opts := baseFixedOptions(3)

		var sink bytes.Buffer
		var gotStats *catchunks.Stats
		var gotErr error

		session := catchunks.NewFetchSession(engine, opts)
		session.Run(versionedName, &sink, catchunks.NopValidator{},
			func(stats *catchunks.Stats) { gotStats = stats },
			func(err error) { gotErr = err },
		)

		// All three Interests are sent up front.
		for seg := uint64(0); seg < 3; seg++ {
			name, _ := consumeInterest(t, f)
			require.True(t, name.Equal(catchunks.TypedConvention{}.AppendSegment(versionedName, seg)))
		}

		// Feed Data back out of order: 2, 0, 1. The reorder buffer only
		// drains contiguous runs starting at segment 0, so segment 2 is held
		// back until segment 1 (the last to arrive) fills the gap; segment 0
		// is written as soon as it arrives.
		order := []uint64{2, 0, 1}
		contents := map[uint64][]byte{0: []byte("AA"), 1: []byte("BB"), 2: []byte("CC")}
		for _, seg := range order {
			dataWire := segmentDataWire(t, engine, versionedName, seg, contents[seg], 2, optional.None[ndn.ContentType]())
			require.NoError(t, f.FeedPacket(dataWire))
		}

		require.NoError(t, gotErr)
		require.NotNil(t, gotStats)
		require.Equal(t, "AABBCC", sink.String())
		require.Equal(t, 3, gotStats.SegmentsReceived)
	})
}

// Scenario (spec.md §8): AIMD pipeline, a segment times out (detected by the
// adaptive pipeline's own RTO check, not the engine's Interest lifetime),
// gets retransmitted, and the fetch still completes successfully.
func TestFetchAimdTimeoutAndRetransmit(t *testing.T) {
	executeSessionTest(t, func(f *face.DummyFace, engine *basic_engine.Engine, timer *basic_engine.DummyTimer) {
		versionedName := versionedTestName(t, "/test/data", 1)

		opts := catchunks.DefaultOptions()
		opts.PipelineKind = catchunks.PipelineAIMD
		opts.Convention = catchunks.TypedConvention{}
		opts.Lifetime = 2 * time.Second
		opts.MaxRetriesOnTimeoutOrNack = 3
		opts.RtoCheckInterval = 10 * time.Millisecond
		opts.Rtt.InitialRto = 20 * time.Millisecond
		opts.Rtt.MinRto = 10 * time.Millisecond
		opts.Rtt.MaxRto = 1 * time.Second
		opts.InitCwnd = 1
		opts.InitSsthresh = 8

		var sink bytes.Buffer
		var gotStats *catchunks.Stats
		var gotErr error

		session := catchunks.NewFetchSession(engine, opts)
		session.Run(versionedName, &sink, catchunks.NopValidator{},
			func(stats *catchunks.Stats) { gotStats = stats },
			func(err error) { gotErr = err },
		)

		// Only segment 0 fits in the initial window (cwnd = 1).
		name0, _ := consumeInterest(t, f)
		require.True(t, name0.Equal(catchunks.TypedConvention{}.AppendSegment(versionedName, 0)))

		// Past the RTO (20ms) and the first RTO-check tick (10ms): the
		// adaptive pipeline detects the loss, applies its window decrease
		// and retransmits segment 0. From cwnd = 1 the AIMD decrease lands
		// on its floor of 2 (ssthresh = cwnd = 2), which also lets it start
		// segment 1.
		timer.MoveForward(40 * time.Millisecond)

		nameRetx, _ := consumeInterest(t, f)
		require.True(t, nameRetx.Equal(catchunks.TypedConvention{}.AppendSegment(versionedName, 0)))
		name1, _ := consumeInterest(t, f)
		require.True(t, name1.Equal(catchunks.TypedConvention{}.AppendSegment(versionedName, 1)))

		dataWire0 := segmentDataWire(t, engine, versionedName, 0, []byte("AA"), 1, optional.None[ndn.ContentType]())
		require.NoError(t, f.FeedPacket(dataWire0))

		dataWire1 := segmentDataWire(t, engine, versionedName, 1, []byte("BB"), 1, optional.None[ndn.ContentType]())
		require.NoError(t, f.FeedPacket(dataWire1))

		require.NoError(t, gotErr)
		require.NotNil(t, gotStats)
		require.Equal(t, "AABB", sink.String())
		require.Equal(t, 1, gotStats.Timeouts)
		require.Equal(t, 1, gotStats.Retransmissions)
		require.Equal(t, 1, gotStats.CongestionMarks)
	})
}

// Scenario (spec.md §8): repeated congestion NACKs on a segment whose
// FinalBlockId is already known exhaust the retry ceiling, and the session
// fails fatally instead of hanging on a deferred failure.
func TestFetchCongestionNackBackoffExhaustion(t *testing.T) {
	executeSessionTest(t, func(f *face.DummyFace, engine *basic_engine.Engine, timer *basic_engine.DummyTimer) {
		versionedName := versionedTestName(t, "/test/data", 1)

		opts := catchunks.DefaultOptions()
		opts.PipelineKind = catchunks.PipelineAIMD
		opts.Convention = catchunks.TypedConvention{}
		opts.Lifetime = 2 * time.Second
		opts.MaxRetriesOnTimeoutOrNack = 2
		opts.RtoCheckInterval = 10 * time.Millisecond
		opts.Rtt.InitialRto = 20 * time.Millisecond
		opts.Rtt.MinRto = 10 * time.Millisecond
		opts.Rtt.MaxRto = 1 * time.Second
		opts.InitCwnd = 1
		opts.InitSsthresh = 8

		var sink bytes.Buffer
		var gotStats *catchunks.Stats
		var gotErr error

		session := catchunks.NewFetchSession(engine, opts)
		session.Run(versionedName, &sink, catchunks.NopValidator{},
			func(stats *catchunks.Stats) { gotStats = stats },
			func(err error) { gotErr = err },
		)

		// Segment 0 succeeds right away, learning FinalBlockId = 1 and
		// opening the window enough to start segment 1.
		_, _ = consumeInterest(t, f)
		dataWire0 := segmentDataWire(t, engine, versionedName, 0, []byte("A"), 1, optional.None[ndn.ContentType]())
		require.NoError(t, f.FeedPacket(dataWire0))

		// Segment 1 is now in flight; hit it with congestion Nacks until
		// the retry ceiling is exceeded. Each resend bumps retxCount once,
		// so MaxRetriesOnTimeoutOrNack=2 allows two retransmissions and the
		// third Nack is fatal.
		_, raw1 := consumeInterest(t, f)
		feedNack(t, f, raw1, ndn.NackReasonCongestion)

		_, raw1retx := consumeInterest(t, f)
		feedNack(t, f, raw1retx, ndn.NackReasonCongestion)

		_, raw1retx2 := consumeInterest(t, f)
		feedNack(t, f, raw1retx2, ndn.NackReasonCongestion)

		require.Error(t, gotErr)
		require.IsType(t, catchunks.ErrTransportFatal{}, gotErr)
		require.Nil(t, gotStats)
		require.Equal(t, "A", sink.String())
	})
}

// Scenario (spec.md §8): an application-level Nack (ContentType = Nack) on
// an otherwise-successful Data arrival fails the fetch.
func TestFetchApplicationNack(t *testing.T) {
	executeSessionTest(t, func(f *face.DummyFace, engine *basic_engine.Engine, timer *basic_engine.DummyTimer) {
		versionedName := versionedTestName(t, "/test/data", 1)
		opts := baseFixedOptions(1)

		var sink bytes.Buffer
		var gotStats *catchunks.Stats
		var gotErr error

		session := catchunks.NewFetchSession(engine, opts)
		session.Run(versionedName, &sink, catchunks.NopValidator{},
			func(stats *catchunks.Stats) { gotStats = stats },
			func(err error) { gotErr = err },
		)

		name, _ := consumeInterest(t, f)
		require.True(t, name.Equal(catchunks.TypedConvention{}.AppendSegment(versionedName, 0)))

		dataWire := segmentDataWire(t, engine, versionedName, 0, nil, 0, optional.Some(ndn.ContentTypeNack))
		require.NoError(t, f.FeedPacket(dataWire))

		require.Error(t, gotErr)
		require.IsType(t, catchunks.ErrApplicationNack{}, gotErr)
		require.Nil(t, gotStats)
		require.Equal(t, "", sink.String())
	})
}
