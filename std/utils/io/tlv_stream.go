package io

import (
	"bufio"
	"encoding/binary"
	"io"
)

// ReadTlvStream reads successive NDN TLV-framed packets (a 1/3/5/9-byte Type
// varint, then a matching Length varint, then Length bytes of Value) off r,
// invoking onFrame with the complete Type-Length-Value bytes of each frame.
// onFrame's return value controls whether to keep reading. bufReuse is
// currently unused (reserved for a future buffer-reuse optimization); pass
// nil.
func ReadTlvStream(r io.Reader, onFrame func(frame []byte) bool, bufReuse []byte) error {
	br := bufio.NewReaderSize(r, 65536)
	for {
		typeBytes, typeVal, err := readTlvVarNum(br)
		if err != nil {
			return err
		}
		lengthBytes, length, err := readTlvVarNum(br)
		if err != nil {
			return err
		}

		frame := make([]byte, 0, len(typeBytes)+len(lengthBytes)+int(length))
		frame = append(frame, typeBytes...)
		frame = append(frame, lengthBytes...)

		value := make([]byte, length)
		if _, err := io.ReadFull(br, value); err != nil {
			return err
		}
		frame = append(frame, value...)
		_ = typeVal

		if !onFrame(frame) {
			return nil
		}
	}
}

// readTlvVarNum reads one NDN TLV variable-length number (a Type or Length
// field) and returns both its raw encoded bytes and decoded value.
func readTlvVarNum(br *bufio.Reader) (raw []byte, val uint64, err error) {
	first, err := br.ReadByte()
	if err != nil {
		return nil, 0, err
	}

	switch {
	case first <= 0xfc:
		return []byte{first}, uint64(first), nil
	case first == 0xfd:
		rest := make([]byte, 2)
		if _, err := io.ReadFull(br, rest); err != nil {
			return nil, 0, err
		}
		return append([]byte{first}, rest...), uint64(binary.BigEndian.Uint16(rest)), nil
	case first == 0xfe:
		rest := make([]byte, 4)
		if _, err := io.ReadFull(br, rest); err != nil {
			return nil, 0, err
		}
		return append([]byte{first}, rest...), uint64(binary.BigEndian.Uint32(rest)), nil
	default: // 0xff
		rest := make([]byte, 8)
		if _, err := io.ReadFull(br, rest); err != nil {
			return nil, 0, err
		}
		return append([]byte{first}, rest...), binary.BigEndian.Uint64(rest), nil
	}
}
