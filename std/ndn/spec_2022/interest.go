package spec_2022

import (
	"time"

	enc "github.com/Tankmaster48/ndnd-catchunks/std/encoding"
	"github.com/Tankmaster48/ndnd-catchunks/std/ndn"
	"github.com/Tankmaster48/ndnd-catchunks/std/types/optional"
)

// Interest is the decoded form of an Interest packet.
// Field names ending in V back the corresponding accessor method, mirroring
// the rest of this codec's "public field + interface method" convention.
type Interest struct {
	NameV        enc.Name
	CanBePrefixV bool
	MustBeFreshV bool
	NonceV       optional.Optional[uint64]
	LifetimeV    optional.Optional[time.Duration]
	AppParamV    enc.Wire
}

func (i *Interest) Name() enc.Name        { return i.NameV }
func (i *Interest) CanBePrefix() bool     { return i.CanBePrefixV }
func (i *Interest) MustBeFresh() bool     { return i.MustBeFreshV }
func (i *Interest) AppParam() enc.Wire    { return i.AppParamV }
func (i *Interest) Lifetime() optional.Optional[time.Duration] {
	return i.LifetimeV
}

// encodeInterest builds the wire bytes for an Interest from its name and config.
func encodeInterest(name enc.Name, cfg *ndn.InterestConfig, appParam enc.Wire) enc.Wire {
	var body enc.Wire
	body = append(body, block(TypeName, name.BytesInner()))

	if cfg.CanBePrefix {
		body = append(body, block(TypeCanBePrefix, nil))
	}
	if cfg.MustBeFresh {
		body = append(body, block(TypeMustBeFresh, nil))
	}
	if nonce, ok := cfg.Nonce.Get(); ok {
		nonceBuf := make(enc.Buffer, 4)
		nonceBuf[0] = byte(nonce >> 24)
		nonceBuf[1] = byte(nonce >> 16)
		nonceBuf[2] = byte(nonce >> 8)
		nonceBuf[3] = byte(nonce)
		body = append(body, block(TypeNonce, nonceBuf))
	}
	if lifetime, ok := cfg.Lifetime.Get(); ok {
		body = append(body, block(TypeInterestLifetime, nonNegative(uint64(lifetime.Milliseconds()))))
	}
	if len(appParam) > 0 {
		var paramLen int
		for _, b := range appParam {
			paramLen += len(b)
		}
		paramBuf := make(enc.Buffer, 0, paramLen)
		for _, b := range appParam {
			paramBuf = append(paramBuf, b...)
		}
		body = append(body, block(TypeApplicationParameter, paramBuf))
	}

	var total []byte
	for _, b := range body {
		total = append(total, b...)
	}
	return enc.Wire{block(TypeInterest, total)}
}

// readInterest decodes an Interest's inner TLV elements (Type/Length already consumed).
func readInterest(r *tlvReader) (*Interest, error) {
	name, err := r.ReadName()
	if err != nil {
		return nil, err
	}

	it := &Interest{NameV: name}
	for !r.IsEOF() {
		typ, val, err := readTLV(r)
		if err != nil {
			return nil, err
		}
		switch typ {
		case TypeCanBePrefix:
			it.CanBePrefixV = true
		case TypeMustBeFresh:
			it.MustBeFreshV = true
		case TypeNonce:
			if len(val) == 4 {
				n := uint64(val[0])<<24 | uint64(val[1])<<16 | uint64(val[2])<<8 | uint64(val[3])
				it.NonceV = optional.Some(n)
			}
		case TypeInterestLifetime:
			ms, err := readNat(val)
			if err != nil {
				return nil, err
			}
			it.LifetimeV = optional.Some(time.Duration(ms) * time.Millisecond)
		case TypeApplicationParameter:
			it.AppParamV = enc.Wire{val}
		}
	}
	return it, nil
}
