package spec_2022

import (
	enc "github.com/Tankmaster48/ndnd-catchunks/std/encoding"
	"github.com/Tankmaster48/ndnd-catchunks/std/ndn"
)

// Spec implements ndn.Spec against the NDN Packet Format v0.3 TLV codec
// defined in this package. It carries no state; the zero value is ready to use.
type Spec struct{}

func (Spec) MakeInterest(name enc.Name, cfg *ndn.InterestConfig, appParam enc.Wire, signer ndn.Signer) (*ndn.EncodedInterest, error) {
	if cfg == nil {
		cfg = &ndn.InterestConfig{}
	}
	wire := encodeInterest(name, cfg, appParam)
	return &ndn.EncodedInterest{
		Wire:      wire,
		FinalName: name,
		Config:    cfg,
	}, nil
}

func (Spec) MakeData(name enc.Name, cfg *ndn.DataConfig, content enc.Wire, signer ndn.Signer) (*ndn.EncodedData, error) {
	if cfg == nil {
		cfg = &ndn.DataConfig{}
	}
	wire, _, err := encodeData(name, cfg, content, signer)
	if err != nil {
		return nil, err
	}
	return &ndn.EncodedData{
		Wire: wire,
		Name: name,
	}, nil
}

func (Spec) ReadData(reader enc.WireView) (ndn.Data, enc.Wire, error) {
	typ, val, err := readTLV(&reader)
	if err != nil {
		return nil, nil, err
	}
	if typ != TypeData {
		return nil, nil, enc.ErrFormat{Msg: "spec_2022: expected Data TLV"}
	}
	view := enc.NewBufferView(val)
	d, sigCovered, err := readData(&view)
	if err != nil {
		return nil, nil, err
	}
	return d, sigCovered, nil
}
