package spec_2022_test

import (
	"testing"
	"time"

	enc "github.com/Tankmaster48/ndnd-catchunks/std/encoding"
	"github.com/Tankmaster48/ndnd-catchunks/std/ndn"
	"github.com/Tankmaster48/ndnd-catchunks/std/ndn/spec_2022"
	sig "github.com/Tankmaster48/ndnd-catchunks/std/security/signer"
	"github.com/Tankmaster48/ndnd-catchunks/std/types/optional"
	tu "github.com/Tankmaster48/ndnd-catchunks/std/utils/testutils"
	"github.com/stretchr/testify/require"
)

func TestMakeDataBasic(t *testing.T) {
	tu.SetT(t)
	spec := spec_2022.Spec{}

	data, err := spec.MakeData(
		tu.NoErr(enc.NameFromStr("/local/ndn/prefix")),
		&ndn.DataConfig{
			ContentType: optional.Some(ndn.ContentTypeBlob),
		},
		enc.Wire{[]byte("01020304")},
		sig.NewSha256Signer(),
	)
	require.NoError(t, err)
	require.True(t, len(data.Wire.Join()) > 0)
	require.Equal(t, "/local/ndn/prefix", data.Name.String())
}

func TestMakeAndReadDataRoundTrip(t *testing.T) {
	tu.SetT(t)
	spec := spec_2022.Spec{}

	name := tu.NoErr(enc.NameFromStr("/ndnd/fetch/sample"))
	fbid := enc.NewSegmentComponent(7)

	encoded, err := spec.MakeData(
		name,
		&ndn.DataConfig{
			ContentType:  optional.Some(ndn.ContentTypeBlob),
			Freshness:    optional.Some(2 * time.Second),
			FinalBlockID: optional.Some(fbid),
		},
		enc.Wire{[]byte("hello segment")},
		sig.NewSha256Signer(),
	)
	require.NoError(t, err)

	data, _, err := spec.ReadData(enc.NewWireView(encoded.Wire))
	require.NoError(t, err)
	require.Equal(t, name.String(), data.Name().String())
	require.Equal(t, ndn.ContentTypeBlob, data.ContentType().Unwrap())
	require.Equal(t, 2*time.Second, data.Freshness().Unwrap())
	require.Equal(t, fbid, data.FinalBlockID().Unwrap())
	require.Equal(t, []byte("hello segment"), data.Content().Join())
	require.Equal(t, ndn.SignatureDigestSha256, data.Signature().SigType())
}

func TestMakeDataUnsigned(t *testing.T) {
	tu.SetT(t)
	spec := spec_2022.Spec{}

	encoded, err := spec.MakeData(
		tu.NoErr(enc.NameFromStr("/unsigned")),
		&ndn.DataConfig{ContentType: optional.Some(ndn.ContentTypeBlob)},
		nil,
		nil,
	)
	require.NoError(t, err)

	data, _, err := spec.ReadData(enc.NewWireView(encoded.Wire))
	require.NoError(t, err)
	require.Equal(t, "/unsigned", data.Name().String())
	require.True(t, data.Content() == nil)
}

func TestMakeIntBasic(t *testing.T) {
	tu.SetT(t)
	spec := spec_2022.Spec{}

	interest, err := spec.MakeInterest(
		tu.NoErr(enc.NameFromStr("/local/ndn/prefix")),
		&ndn.InterestConfig{
			Lifetime: optional.Some(4 * time.Second),
		},
		nil,
		nil,
	)
	require.NoError(t, err)
	require.Equal(t, "/local/ndn/prefix", interest.FinalName.String())
	require.True(t, len(interest.Wire.Join()) > 0)
}

func TestInterestRoundTrip(t *testing.T) {
	tu.SetT(t)
	spec := spec_2022.Spec{}

	encoded, err := spec.MakeInterest(
		tu.NoErr(enc.NameFromStr("/ndnd/fetch/sample/seg=3")),
		&ndn.InterestConfig{
			CanBePrefix: false,
			MustBeFresh: true,
			Lifetime:    optional.Some(2 * time.Second),
			Nonce:       optional.Some(uint64(0x01020304)),
		},
		nil,
		nil,
	)
	require.NoError(t, err)

	pkt, _, err := spec_2022.ReadPacket(enc.NewWireView(encoded.Wire))
	require.NoError(t, err)
	require.NotNil(t, pkt.Interest)
	require.Equal(t, "/ndnd/fetch/sample/seg=3", pkt.Interest.Name().String())
	require.True(t, pkt.Interest.MustBeFresh())
	require.False(t, pkt.Interest.CanBePrefix())
	require.Equal(t, 2*time.Second, pkt.Interest.Lifetime().Unwrap())
}

func TestReadPacketDispatch(t *testing.T) {
	tu.SetT(t)
	spec := spec_2022.Spec{}

	dataEnc, err := spec.MakeData(
		tu.NoErr(enc.NameFromStr("/a/b")),
		&ndn.DataConfig{ContentType: optional.Some(ndn.ContentTypeBlob)},
		nil,
		sig.NewSha256Signer(),
	)
	require.NoError(t, err)

	pkt, ctx, err := spec_2022.ReadPacket(enc.NewWireView(dataEnc.Wire))
	require.NoError(t, err)
	require.NotNil(t, pkt.Data)
	require.Nil(t, pkt.Interest)
	require.NotNil(t, ctx.Data_context.SigCovered())
}

func TestLpPacketEncodeDecode(t *testing.T) {
	tu.SetT(t)

	lp := &spec_2022.LpPacket{
		PitToken: []byte{1, 2, 3, 4},
		Fragment: enc.Wire{[]byte("inner-fragment")},
	}
	pkt := &spec_2022.Packet{LpPacket: lp}
	encoder := spec_2022.PacketEncoder{}
	encoder.Init(pkt)
	wire := encoder.Encode(pkt)
	require.NotNil(t, wire)

	decoded, _, err := spec_2022.ReadPacket(enc.NewWireView(wire))
	require.NoError(t, err)
	require.NotNil(t, decoded.LpPacket)
	require.Equal(t, []byte{1, 2, 3, 4}, decoded.LpPacket.PitToken)
	require.Equal(t, []byte("inner-fragment"), decoded.LpPacket.Fragment.Join())
}

func TestLpNackRoundTrip(t *testing.T) {
	tu.SetT(t)

	pkt := &spec_2022.Packet{LpPacket: &spec_2022.LpPacket{
		Nack:     &spec_2022.Nack{Reason: 50},
		Fragment: enc.Wire{[]byte("x")},
	}}
	encoder := spec_2022.PacketEncoder{}
	wire := encoder.Encode(pkt)

	decoded, _, err := spec_2022.ReadPacket(enc.NewWireView(wire))
	require.NoError(t, err)
	require.NotNil(t, decoded.LpPacket.Nack)
	require.Equal(t, spec_2022.NackReason(50), decoded.LpPacket.Nack.Reason)
}
