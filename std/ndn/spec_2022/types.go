// Package spec_2022 is a compact implementation of the NDN packet format
// (Interest, Data, Nack-over-LP) wire codec. The fetch engine never needs
// more than Name/MetaInfo/Content/Signature access, so this package does not
// attempt the full generality of a production TLV compiler - it hand-rolls
// encode/decode the way a small, focused consumer-side codec would.
package spec_2022

import (
	enc "github.com/Tankmaster48/ndnd-catchunks/std/encoding"
	"github.com/Tankmaster48/ndnd-catchunks/std/ndn"
)

// Packet-level TLV types (NDN packet format v0.3).
const (
	TypeInterest             enc.TLNum = 0x05
	TypeData                 enc.TLNum = 0x06
	TypeCanBePrefix          enc.TLNum = 0x21
	TypeMustBeFresh          enc.TLNum = 0x12
	TypeNonce                enc.TLNum = 0x0a
	TypeInterestLifetime     enc.TLNum = 0x0c
	TypeHopLimit             enc.TLNum = 0x22
	TypeApplicationParameter enc.TLNum = 0x24
	TypeMetaInfo             enc.TLNum = 0x14
	TypeContentType          enc.TLNum = 0x18
	TypeFreshnessPeriod      enc.TLNum = 0x19
	TypeFinalBlockId         enc.TLNum = 0x1a
	TypeContent              enc.TLNum = 0x15
	TypeSignatureInfo        enc.TLNum = 0x16
	TypeSignatureValue       enc.TLNum = 0x17
	TypeSignatureType        enc.TLNum = 0x1b
	TypeKeyLocator           enc.TLNum = 0x1c
	TypeKeyName              enc.TLNum = 0x07
)

// NDNLPv2 types used to carry link-layer metadata (PIT token, Nack, next/incoming face).
const (
	TypeLpPacket      enc.TLNum = 0x64
	TypeLpFragment    enc.TLNum = 0x50
	TypeLpFragIndex   enc.TLNum = 0x51
	TypeLpFragCount   enc.TLNum = 0x52
	TypeLpPitToken    enc.TLNum = 0x62
	TypeLpNack        enc.TLNum = 0x320
	TypeLpNackReason  enc.TLNum = 0x321
	TypeLpIncFaceId   enc.TLNum = 0x32c
	TypeLpNextHopFace enc.TLNum = 0x30a
)

// NackReason re-exports ndn.NackReason so wire-level code in this package
// does not need to import ndn under a different name just for this type.
type NackReason = ndn.NackReason

const (
	NackReasonNone       = ndn.NackReasonNone
	NackReasonCongestion = ndn.NackReasonCongestion
	NackReasonDuplicate  = ndn.NackReasonDuplicate
	NackReasonNoRoute    = ndn.NackReasonNoRoute
)
