package spec_2022

import (
	"time"

	enc "github.com/Tankmaster48/ndnd-catchunks/std/encoding"
	"github.com/Tankmaster48/ndnd-catchunks/std/ndn"
	"github.com/Tankmaster48/ndnd-catchunks/std/types/optional"
)

// Signature is the decoded SignatureInfo+SignatureValue of a Data packet.
// The fetch engine treats it opaquely; only a Validator inspects it.
type Signature struct {
	SigTypeV  ndn.SigType
	KeyNameV  enc.Name
	SigValueV []byte
}

func (s *Signature) SigType() ndn.SigType { return s.SigTypeV }
func (s *Signature) KeyName() enc.Name    { return s.KeyNameV }
func (s *Signature) SigValue() []byte     { return s.SigValueV }

// Data is the decoded form of a Data packet.
type Data struct {
	NameV         enc.Name
	ContentTypeV  optional.Optional[ndn.ContentType]
	FreshnessV    optional.Optional[time.Duration]
	FinalBlockIdV optional.Optional[enc.Component]
	ContentV      enc.Wire
	SignatureV    *Signature
}

func (d *Data) Name() enc.Name   { return d.NameV }
func (d *Data) Content() enc.Wire { return d.ContentV }
func (d *Data) ContentType() optional.Optional[ndn.ContentType] {
	return d.ContentTypeV
}
func (d *Data) Freshness() optional.Optional[time.Duration] { return d.FreshnessV }
func (d *Data) FinalBlockID() optional.Optional[enc.Component] {
	return d.FinalBlockIdV
}
func (d *Data) Signature() ndn.Signature { return d.SignatureV }

// encodeData builds the wire bytes (and the signed-portion wire, for test
// introspection) for a Data packet with name, MetaInfo, and Content.
func encodeData(name enc.Name, cfg *ndn.DataConfig, content enc.Wire, signer ndn.Signer) (enc.Wire, enc.Wire, error) {
	var meta []byte
	if ct, ok := cfg.ContentType.Get(); ok {
		meta = append(meta, block(TypeContentType, nonNegative(uint64(ct)))...)
	}
	if fresh, ok := cfg.Freshness.Get(); ok {
		meta = append(meta, block(TypeFreshnessPeriod, nonNegative(uint64(fresh.Milliseconds())))...)
	}
	if fbid, ok := cfg.FinalBlockID.Get(); ok {
		meta = append(meta, block(TypeFinalBlockId, fbid.Bytes())...)
	}

	var contentBuf []byte
	for _, b := range content {
		contentBuf = append(contentBuf, b...)
	}

	var signedPortion []byte
	signedPortion = append(signedPortion, name.BytesInner()...)
	if meta != nil {
		signedPortion = append(signedPortion, block(TypeMetaInfo, meta)...)
	}
	if contentBuf != nil {
		signedPortion = append(signedPortion, block(TypeContent, contentBuf)...)
	}

	var sigInfo, sigValue []byte
	if signer != nil {
		sigInfo = append(sigInfo, block(TypeSignatureType, nonNegative(uint64(signer.Type())))...)
		if kn := signer.KeyLocator(); len(kn) > 0 {
			sigInfo = append(sigInfo, block(TypeKeyLocator, block(TypeKeyName, kn.BytesInner()))...)
		}
		covered := enc.Wire{signedPortion, block(TypeSignatureInfo, sigInfo)}
		sig, err := signer.Sign(covered)
		if err != nil {
			return nil, nil, err
		}
		sigValue = sig
	} else {
		sigInfo = append(sigInfo, block(TypeSignatureType, nonNegative(0))...)
	}

	var body []byte
	body = append(body, signedPortion...)
	body = append(body, block(TypeSignatureInfo, sigInfo)...)
	body = append(body, block(TypeSignatureValue, sigValue)...)

	wire := enc.Wire{block(TypeData, body)}
	return wire, enc.Wire{signedPortion, block(TypeSignatureInfo, sigInfo)}, nil
}

// readData decodes a Data's inner TLV elements (Type/Length already consumed).
// It returns the parsed Data and the wire range that was covered by the signature.
func readData(r *tlvReader) (*Data, enc.Wire, error) {
	start := r.Pos()
	name, err := r.ReadName()
	if err != nil {
		return nil, nil, err
	}

	d := &Data{NameV: name}
	sigCoveredEnd := -1
	for {
		if r.IsEOF() {
			break
		}
		typ, val, err := readTLV(r)
		if err != nil {
			return nil, nil, err
		}
		switch typ {
		case TypeMetaInfo:
			if err := readMetaInfo(d, val); err != nil {
				return nil, nil, err
			}
		case TypeContent:
			d.ContentV = enc.Wire{val}
		case TypeSignatureInfo:
			sig, err := readSignatureInfo(val)
			if err != nil {
				return nil, nil, err
			}
			d.SignatureV = sig
			sigCoveredEnd = r.Pos()
		case TypeSignatureValue:
			if d.SignatureV != nil {
				d.SignatureV.SigValueV = val
			}
		}
	}

	end := r.Pos()
	if sigCoveredEnd >= 0 {
		end = sigCoveredEnd
	}
	sigCovered := r.Range(start, end)
	return d, sigCovered, nil
}

func readMetaInfo(d *Data, val []byte) error {
	view := enc.NewBufferView(val)
	for !view.IsEOF() {
		typ, sub, err := readTLV(&view)
		if err != nil {
			return err
		}
		switch typ {
		case TypeContentType:
			ct, err := readNat(sub)
			if err != nil {
				return err
			}
			d.ContentTypeV = optional.Some(ndn.ContentType(ct))
		case TypeFreshnessPeriod:
			ms, err := readNat(sub)
			if err != nil {
				return err
			}
			d.FreshnessV = optional.Some(time.Duration(ms) * time.Millisecond)
		case TypeFinalBlockId:
			compView := enc.NewBufferView(sub)
			comp, err := compView.ReadComponent()
			if err != nil {
				return err
			}
			d.FinalBlockIdV = optional.Some(comp)
		}
	}
	return nil
}

func readSignatureInfo(val []byte) (*Signature, error) {
	view := enc.NewBufferView(val)
	sig := &Signature{}
	for !view.IsEOF() {
		typ, sub, err := readTLV(&view)
		if err != nil {
			return nil, err
		}
		if typ == TypeSignatureType {
			n, err := readNat(sub)
			if err != nil {
				return nil, err
			}
			sig.SigTypeV = ndn.SigType(n)
		}
	}
	return sig, nil
}
