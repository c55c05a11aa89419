package catchunks

import (
	"io"

	enc "github.com/Tankmaster48/ndnd-catchunks/std/encoding"
	"github.com/Tankmaster48/ndnd-catchunks/std/ndn"
)

// Validator checks a Data packet's signature before its content is
// trusted. The zero-effort NopValidator treats every Data as valid, per
// spec.md §6 ("a validator that accepts everything is valid
// configuration").
type Validator interface {
	Validate(data ndn.Data, onValid func(), onInvalid func(err error))
}

// NopValidator accepts every Data packet without inspection.
type NopValidator struct{}

func (NopValidator) Validate(data ndn.Data, onValid func(), onInvalid func(err error)) {
	onValid()
}

// ReorderBuffer accepts segments from a Pipeline in arbitrary arrival
// order, per spec.md §4.5: validates each, buffers it by segment number,
// and emits content bytes to the sink in strict segment order.
type ReorderBuffer struct {
	validator Validator
	sink      io.Writer

	onFailure func(err error)
	onSuccess func()

	buffered map[uint64]ndn.Data
	next     uint64

	pipelineDone bool
	finished     bool
}

// NewReorderBuffer constructs a buffer that writes delivered payload bytes
// to sink, in segment order, starting at segment 0.
func NewReorderBuffer(validator Validator, sink io.Writer, onSuccess func(), onFailure func(err error)) *ReorderBuffer {
	if validator == nil {
		validator = NopValidator{}
	}
	return &ReorderBuffer{
		validator: validator,
		sink:      sink,
		onSuccess: onSuccess,
		onFailure: onFailure,
		buffered:  make(map[uint64]ndn.Data),
	}
}

// OnSegmentData is wired as a Pipeline's PipelineCallbacks.OnData.
func (b *ReorderBuffer) OnSegmentData(seg uint64, data ndn.Data, raw enc.Wire) {
	if b.finished {
		return
	}
	b.validator.Validate(data, func() {
		b.acceptValid(seg, data)
	}, func(err error) {
		b.fail(ErrValidationFailure{Segment: seg, Reason: err.Error()})
	})
}

func (b *ReorderBuffer) acceptValid(seg uint64, data ndn.Data) {
	if b.finished {
		return
	}
	if ct, ok := data.ContentType().Get(); ok && ct == ndn.ContentTypeNack {
		b.fail(ErrApplicationNack{Segment: seg})
		return
	}
	b.buffered[seg] = data
	b.drain()
	b.checkComplete()
}

// drain writes every contiguous run of buffered segments starting at next.
func (b *ReorderBuffer) drain() {
	for {
		data, ok := b.buffered[b.next]
		if !ok {
			return
		}
		for _, chunk := range data.Content() {
			if _, err := b.sink.Write(chunk); err != nil {
				b.fail(ErrTransportFatal{Segment: b.next, Reason: "sink write failed: " + err.Error()})
				return
			}
		}
		delete(b.buffered, b.next)
		b.next++
	}
}

// OnPipelineDone is wired as a Pipeline's PipelineCallbacks.OnDone.
func (b *ReorderBuffer) OnPipelineDone() {
	b.pipelineDone = true
	b.checkComplete()
}

func (b *ReorderBuffer) checkComplete() {
	if b.finished || !b.pipelineDone || len(b.buffered) != 0 {
		return
	}
	b.finished = true
	b.onSuccess()
}

func (b *ReorderBuffer) fail(err error) {
	if b.finished {
		return
	}
	b.finished = true
	b.onFailure(err)
}
