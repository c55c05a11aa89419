package spec_2022

import (
	enc "github.com/Tankmaster48/ndnd-catchunks/std/encoding"
	"github.com/Tankmaster48/ndnd-catchunks/std/types/optional"
)

// Nack is the decoded NDNLPv2 Nack header.
type Nack struct {
	Reason NackReason
}

// LpPacket is the decoded NDNLPv2 link-layer frame wrapping an Interest or Data.
type LpPacket struct {
	Fragment       enc.Wire
	PitToken       []byte
	Nack           *Nack
	IncomingFaceId optional.Optional[uint64]
	NextHopFaceId  optional.Optional[uint64]
	FragIndex      optional.Optional[uint64]
	FragCount      optional.Optional[uint64]
}

// Packet is the result of parsing one outer TLV block: exactly one of
// Interest, Data, LpPacket is set.
type Packet struct {
	Interest *Interest
	Data     *Data
	LpPacket *LpPacket
}

// InterestContext carries parse-time metadata about a decoded Interest.
// ReadPacket does not compute a signature-covered region for Interests,
// so SigCovered is always nil.
type InterestContext struct {
	sigCovered enc.Wire
}

func (c InterestContext) SigCovered() enc.Wire { return c.sigCovered }

// DataContext carries parse-time metadata about a decoded Data packet.
type DataContext struct {
	sigCovered enc.Wire
}

func (c DataContext) SigCovered() enc.Wire { return c.sigCovered }

// ParseContext is returned alongside a Packet by ReadPacket.
type ParseContext struct {
	Interest_context InterestContext
	Data_context     DataContext
}

// ReadPacket parses one outer-level TLV block, dispatching on its type to
// Interest, Data, or an NDNLPv2 LpPacket wrapping either.
func ReadPacket(reader enc.WireView) (*Packet, *ParseContext, error) {
	typ, val, err := readTLV(&reader)
	if err != nil {
		return nil, nil, err
	}

	ctx := &ParseContext{}
	switch typ {
	case TypeInterest:
		view := enc.NewBufferView(val)
		it, err := readInterest(&view)
		if err != nil {
			return nil, nil, err
		}
		return &Packet{Interest: it}, ctx, nil
	case TypeData:
		view := enc.NewBufferView(val)
		d, sigCovered, err := readData(&view)
		if err != nil {
			return nil, nil, err
		}
		ctx.Data_context.sigCovered = sigCovered
		return &Packet{Data: d}, ctx, nil
	case TypeLpPacket:
		view := enc.NewBufferView(val)
		lp, err := readLpPacket(&view)
		if err != nil {
			return nil, nil, err
		}
		return &Packet{LpPacket: lp}, ctx, nil
	default:
		return nil, nil, enc.ErrFormat{Msg: "spec_2022: unknown outer packet type"}
	}
}

// readLpPacket decodes an NDNLPv2 frame's inner TLV elements.
func readLpPacket(r *tlvReader) (*LpPacket, error) {
	lp := &LpPacket{}
	for !r.IsEOF() {
		typ, val, err := readTLV(r)
		if err != nil {
			return nil, err
		}
		switch typ {
		case TypeLpFragment:
			lp.Fragment = enc.Wire{val}
		case TypeLpPitToken:
			lp.PitToken = val
		case TypeLpFragIndex:
			n, err := readNat(val)
			if err != nil {
				return nil, err
			}
			lp.FragIndex = optional.Some(n)
		case TypeLpFragCount:
			n, err := readNat(val)
			if err != nil {
				return nil, err
			}
			lp.FragCount = optional.Some(n)
		case TypeLpIncFaceId:
			n, err := readNat(val)
			if err != nil {
				return nil, err
			}
			lp.IncomingFaceId = optional.Some(n)
		case TypeLpNextHopFace:
			n, err := readNat(val)
			if err != nil {
				return nil, err
			}
			lp.NextHopFaceId = optional.Some(n)
		case TypeLpNack:
			nack, err := readLpNack(val)
			if err != nil {
				return nil, err
			}
			lp.Nack = nack
		}
	}
	return lp, nil
}

func readLpNack(val []byte) (*Nack, error) {
	view := enc.NewBufferView(val)
	nack := &Nack{Reason: NackReasonNone}
	for !view.IsEOF() {
		typ, sub, err := readTLV(&view)
		if err != nil {
			return nil, err
		}
		if typ == TypeLpNackReason {
			n, err := readNat(sub)
			if err != nil {
				return nil, err
			}
			nack.Reason = NackReason(n)
		}
	}
	return nack, nil
}

// PacketEncoder builds the NDNLPv2 wire form of a Packet's LpPacket
// (PitToken, Nack, IncomingFaceId, NextHopFaceId, Fragment).
type PacketEncoder struct{}

// Init exists to match the encoder/estimate-then-encode convention used
// elsewhere in this codebase; this encoder needs no pre-pass.
func (e *PacketEncoder) Init(pkt *Packet) {}

// Encode renders pkt.LpPacket to its wire form. Returns nil when pkt has no
// LpPacket: bare Interest and Data wires come from Spec.MakeInterest and
// Spec.MakeData instead.
func (e *PacketEncoder) Encode(pkt *Packet) enc.Wire {
	if pkt.LpPacket != nil {
		return encodeLpPacket(pkt.LpPacket)
	}
	if pkt.Interest != nil {
		return nil // Interest wires are produced directly by Spec.MakeInterest.
	}
	if pkt.Data != nil {
		return nil // Data wires are produced directly by Spec.MakeData.
	}
	return nil
}

func encodeLpPacket(lp *LpPacket) enc.Wire {
	var body []byte
	if lp.PitToken != nil {
		body = append(body, block(TypeLpPitToken, lp.PitToken)...)
	}
	if lp.Nack != nil {
		nackBody := block(TypeLpNackReason, nonNegative(uint64(lp.Nack.Reason)))
		body = append(body, block(TypeLpNack, nackBody)...)
	}
	if faceId, ok := lp.IncomingFaceId.Get(); ok {
		body = append(body, block(TypeLpIncFaceId, nonNegative(faceId))...)
	}
	if faceId, ok := lp.NextHopFaceId.Get(); ok {
		body = append(body, block(TypeLpNextHopFace, nonNegative(faceId))...)
	}
	var fragBuf []byte
	for _, b := range lp.Fragment {
		fragBuf = append(fragBuf, b...)
	}
	if fragBuf != nil {
		body = append(body, block(TypeLpFragment, fragBuf)...)
	}
	return enc.Wire{block(TypeLpPacket, body)}
}
