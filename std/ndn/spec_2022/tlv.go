package spec_2022

import enc "github.com/Tankmaster48/ndnd-catchunks/std/encoding"

// block builds a single TLV element (Type, Length, Value) as one contiguous
// buffer, given the pre-encoded value bytes.
func block(typ enc.TLNum, value []byte) enc.Buffer {
	l := enc.TLNum(len(value))
	buf := make(enc.Buffer, typ.EncodingLength()+l.EncodingLength()+len(value))
	p := typ.EncodeInto(buf)
	p += l.EncodeInto(buf[p:])
	copy(buf[p:], value)
	return buf
}

// nonNegative encodes an unsigned integer using the TLV natural-number rules.
func nonNegative(v uint64) []byte {
	return enc.Nat(v).Bytes()
}

// tlvReader is an alias of enc.WireView, named for its use while decoding.
type tlvReader = enc.WireView

// readTLV reads one (Type, Length, Value) element, returning the raw value bytes.
func readTLV(r *tlvReader) (typ enc.TLNum, val []byte, err error) {
	typ, err = r.ReadTLNum()
	if err != nil {
		return
	}
	length, err := r.ReadTLNum()
	if err != nil {
		return
	}
	val, err = r.ReadBuf(int(length))
	return
}

// readNat decodes a TLV natural number value into a uint64.
func readNat(val []byte) (uint64, error) {
	if len(val) == 0 {
		return 0, nil
	}
	n, _, err := enc.ParseNat(val)
	return uint64(n), err
}
