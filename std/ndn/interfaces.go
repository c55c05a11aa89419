package ndn

import (
	"time"

	enc "github.com/Tankmaster48/ndnd-catchunks/std/encoding"
	"github.com/Tankmaster48/ndnd-catchunks/std/types/optional"
)

// ContentType is the MetaInfo ContentType field of a Data packet.
type ContentType uint64

const (
	ContentTypeBlob ContentType = 0
	ContentTypeLink ContentType = 1
	ContentTypeKey  ContentType = 2
	ContentTypeNack ContentType = 3
)

// SigType identifies the signature algorithm carried by a SignatureInfo.
type SigType uint64

const (
	SignatureNone            SigType = 0
	SignatureDigestSha256    SigType = 0
	SignatureSha256WithEcdsa SigType = 3
	SignatureHmacWithSha256  SigType = 4
	SignatureEd25519         SigType = 5
	// SignatureEmptyTest is a placeholder type used only by the in-memory
	// test signer; it never appears on the wire from a real peer.
	SignatureEmptyTest SigType = 200
)

// NackReason is the reason code carried by a Network Nack.
type NackReason uint64

const (
	NackReasonNone        NackReason = 0
	NackReasonCongestion  NackReason = 50
	NackReasonDuplicate   NackReason = 101
	NackReasonNoRoute     NackReason = 150
	NackReasonUnspecified NackReason = 0
)

// InterestResult is the outcome reported to an Express callback.
type InterestResult int

const (
	InterestResultNone InterestResult = iota
	InterestResultData
	InterestResultNack
	InterestResultTimeout
	InterestCancelled
	InterestResultError
)

// Returns a human-readable label for the result, used in log lines and ping-style tools.
func (r InterestResult) String() string {
	switch r {
	case InterestResultData:
		return "data"
	case InterestResultNack:
		return "nack"
	case InterestResultTimeout:
		return "timeout"
	case InterestCancelled:
		return "cancelled"
	case InterestResultError:
		return "error"
	default:
		return "none"
	}
}

// InterestConfig carries the caller-chosen fields of an outgoing Interest.
type InterestConfig struct {
	CanBePrefix bool
	MustBeFresh bool
	Nonce       optional.Optional[uint64]
	Lifetime    optional.Optional[time.Duration]
	HopLimit    optional.Optional[uint8]
	NextHopId   optional.Optional[uint64]

	// Signed-interest parameters, only used by the (unused) command protocol.
	SigNonce []byte
	SigTime  optional.Optional[time.Duration]
}

// DataConfig carries the caller-chosen fields of an outgoing Data.
type DataConfig struct {
	ContentType  optional.Optional[ContentType]
	Freshness    optional.Optional[time.Duration]
	FinalBlockID optional.Optional[enc.Component]
}

// Signature is the opaque, already-verified-or-not signature block on a packet.
// The fetch engine never interprets it; it only hands it to a Validator.
type Signature interface {
	SigType() SigType
	KeyName() enc.Name
	SigValue() []byte
}

// Signer produces signatures over an outgoing packet.
type Signer interface {
	Type() SigType
	KeyName() enc.Name
	KeyLocator() enc.Name
	EstimateSize() uint
	Sign(covered enc.Wire) ([]byte, error)
	Public() ([]byte, error)
}

// Interest is a parsed, inbound-or-outbound Interest.
type Interest interface {
	Name() enc.Name
	CanBePrefix() bool
	MustBeFresh() bool
	AppParam() enc.Wire
	Lifetime() optional.Optional[time.Duration]
}

// Data is a parsed, inbound Data packet.
type Data interface {
	Name() enc.Name
	ContentType() optional.Optional[ContentType]
	Freshness() optional.Optional[time.Duration]
	FinalBlockID() optional.Optional[enc.Component]
	Content() enc.Wire
	Signature() Signature
}

// EncodedInterest is the result of Spec.MakeInterest: wire bytes plus the
// resolved name (which may carry an implicit digest) and config used.
type EncodedInterest struct {
	Wire      enc.Wire
	FinalName enc.Name
	Config    *InterestConfig
}

// EncodedData is the result of Spec.MakeData.
type EncodedData struct {
	Wire enc.Wire
	Name enc.Name
}

// Spec is the wire codec collaborator: encoding of Interest and Data, and
// decoding of Data.
// The fetch engine treats it as an external dependency (see package spec_2022).
type Spec interface {
	MakeInterest(name enc.Name, cfg *InterestConfig, appParam enc.Wire, signer Signer) (*EncodedInterest, error)
	MakeData(name enc.Name, cfg *DataConfig, content enc.Wire, signer Signer) (*EncodedData, error)
	ReadData(reader enc.WireView) (Data, enc.Wire, error)
}

// ExpressCallbackArgs is delivered to the callback passed to Engine.Express.
type ExpressCallbackArgs struct {
	Result     InterestResult
	Data       Data
	RawData    enc.Wire
	SigCovered enc.Wire
	NackReason NackReason
	Error      error
}

type ExpressCallbackFunc func(args ExpressCallbackArgs)

// InterestHandlerArgs is delivered to a registered Interest handler (producer side).
type InterestHandlerArgs struct {
	Interest       Interest
	RawInterest    enc.Wire
	SigCovered     enc.Wire
	PitToken       []byte
	IncomingFaceId optional.Optional[uint64]
	Deadline       time.Time
	Reply          WireReplyFunc
}

type WireReplyFunc func(wire enc.Wire) error
type InterestHandler func(args InterestHandlerArgs)

// Timer abstracts wall-clock time, sleeping, and timer scheduling so that
// tests can run with a deterministic, manually-advanced clock.
type Timer interface {
	Now() time.Time
	Sleep(d time.Duration)
	Schedule(d time.Duration, f func()) func() error
	Nonce() []byte
}

// Face abstracts a transport connection to a forwarder.
type Face interface {
	IsLocal() bool
	IsRunning() bool
	Open() error
	Close() error
	Send(wire enc.Wire) error
	OnPacket(func(wire []byte))
	OnError(func(err error))
	String() string
}

// Engine is the top-level network handle: one PIT, one FIB, one face, one timer.
type Engine interface {
	EngineTrait() Engine
	String() string
	Spec() Spec
	Timer() Timer
	Face() Face
	Start() error
	Stop() error
	IsRunning() bool
	AttachHandler(prefix enc.Name, handler InterestHandler) error
	DetachHandler(prefix enc.Name) error
	Express(interest *EncodedInterest, callback ExpressCallbackFunc) error
	Post(task func())
}
