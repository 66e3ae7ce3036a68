package record

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/coplib/orderengine/internal/model"
)

// All fixed-width numeric fields are written in host byte order per
// spec.md §4.J ("the log is not portable; this is documented"); dotted
// composite fields are separated by a single '.' byte, and the decoder
// asserts presence of each one, mirroring OrderCodec.cpp's restore path.

func putU32(buf []byte, v uint32) []byte {
	var b [4]byte
	binary.NativeEndian.PutUint32(b[:], v)
	return append(buf, b[:]...)
}

func putU64(buf []byte, v uint64) []byte {
	var b [8]byte
	binary.NativeEndian.PutUint64(b[:], v)
	return append(buf, b[:]...)
}

func putFloat64(buf []byte, v float64) []byte {
	return putU64(buf, math.Float64bits(v))
}

func putDot(buf []byte) []byte { return append(buf, '.') }

// putString writes a variable-length string as [len: u64][bytes].
func putString(buf []byte, s string) []byte {
	buf = putU64(buf, uint64(len(s)))
	return append(buf, s...)
}

// putIdT writes an IdT as its two fixed-width fields, no separator
// (the caller adds the dot).
func putIdT(buf []byte, id model.IdT) []byte {
	buf = putU64(buf, id.ID)
	buf = putU32(buf, id.Date)
	return buf
}

func getU32(buf []byte) (uint32, []byte, error) {
	if len(buf) < 4 {
		return 0, nil, fmt.Errorf("record: buffer too short for u32")
	}
	return binary.NativeEndian.Uint32(buf[:4]), buf[4:], nil
}

func getU64(buf []byte) (uint64, []byte, error) {
	if len(buf) < 8 {
		return 0, nil, fmt.Errorf("record: buffer too short for u64")
	}
	return binary.NativeEndian.Uint64(buf[:8]), buf[8:], nil
}

func getFloat64(buf []byte) (float64, []byte, error) {
	v, rest, err := getU64(buf)
	if err != nil {
		return 0, nil, err
	}
	return math.Float64frombits(v), rest, nil
}

func getIdT(buf []byte) (model.IdT, []byte, error) {
	id, rest, err := getU64(buf)
	if err != nil {
		return model.IdT{}, nil, err
	}
	date, rest2, err := getU32(rest)
	if err != nil {
		return model.IdT{}, nil, err
	}
	return model.IdT{ID: id, Date: date}, rest2, nil
}

func getString(buf []byte) (string, []byte, error) {
	n, rest, err := getU64(buf)
	if err != nil {
		return "", nil, err
	}
	if uint64(len(rest)) < n {
		return "", nil, fmt.Errorf("record: buffer too short for string of length %d", n)
	}
	return string(rest[:n]), rest[n:], nil
}

// expectDot asserts the next byte is '.', per the original's
// "decoder asserts presence of each '.'" rule (OrderCodec::decode).
func expectDot(buf []byte) ([]byte, error) {
	if len(buf) < 1 || buf[0] != '.' {
		return nil, fmt.Errorf("record: malformed composite record, expected '.' separator")
	}
	return buf[1:], nil
}
