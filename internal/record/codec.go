package record

import (
	"fmt"

	"github.com/coplib/orderengine/internal/model"
)

// EncodeInstrument mirrors InstrumentCodec::encode.
func EncodeInstrument(val model.Instrument) []byte {
	buf := make([]byte, 0, 64)
	buf = putString(buf, val.Symbol)
	buf = putDot(buf)
	buf = putString(buf, val.SecurityID)
	buf = putDot(buf)
	buf = putString(buf, val.SecurityIDSource)
	return buf
}

// DecodeInstrument mirrors InstrumentCodec::decode; id is the record's
// key, carried alongside the payload rather than re-encoded in it.
func DecodeInstrument(id model.IdT, buf []byte) (model.Instrument, error) {
	var out model.Instrument
	out.ID = id

	symbol, rest, err := getString(buf)
	if err != nil {
		return out, err
	}
	rest, err = expectDot(rest)
	if err != nil {
		return out, err
	}

	secID, rest, err := getString(rest)
	if err != nil {
		return out, err
	}
	rest, err = expectDot(rest)
	if err != nil {
		return out, err
	}

	secSrc, _, err := getString(rest)
	if err != nil {
		return out, err
	}

	out.Symbol = symbol
	out.SecurityID = secID
	out.SecurityIDSource = secSrc
	return out, nil
}

// EncodeAccount mirrors AccountCodec::encode.
func EncodeAccount(val model.Account) []byte {
	buf := make([]byte, 0, 64)
	buf = putString(buf, val.Account)
	buf = putDot(buf)
	buf = putString(buf, val.Firm)
	buf = putDot(buf)
	buf = putU32(buf, uint32(val.Type))
	return buf
}

// DecodeAccount mirrors AccountCodec::decode.
func DecodeAccount(id model.IdT, buf []byte) (model.Account, error) {
	var out model.Account
	out.ID = id

	account, rest, err := getString(buf)
	if err != nil {
		return out, err
	}
	rest, err = expectDot(rest)
	if err != nil {
		return out, err
	}

	firm, rest, err := getString(rest)
	if err != nil {
		return out, err
	}
	rest, err = expectDot(rest)
	if err != nil {
		return out, err
	}

	typ, _, err := getU32(rest)
	if err != nil {
		return out, err
	}

	out.Account = account
	out.Firm = firm
	out.Type = model.AccountType(typ)
	return out, nil
}

// EncodeClearing mirrors ClearingCodec::encode.
func EncodeClearing(val model.Clearing) []byte {
	return putString(nil, val.Firm)
}

// DecodeClearing mirrors ClearingCodec::decode.
func DecodeClearing(id model.IdT, buf []byte) (model.Clearing, error) {
	firm, _, err := getString(buf)
	if err != nil {
		return model.Clearing{}, err
	}
	return model.Clearing{ID: id, Firm: firm}, nil
}

// EncodeString mirrors StringTCodec::encode — a bare variable-length
// string record, used for standalone interned strings the original
// stored separately from their owning entity.
func EncodeString(s string) []byte {
	return putString(nil, s)
}

// DecodeString mirrors StringTCodec::decode.
func DecodeString(buf []byte) (string, error) {
	s, _, err := getString(buf)
	return s, err
}

// RawData is an opaque typed byte blob, mirroring RawDataEntry. Unlike
// the original's RawDataCodec::decode (which releases an auto_ptr<char>
// into a raw owning pointer the caller must remember to delete[]), Data
// is a plain owned []byte — Go's GC tracks its lifetime, resolving the
// ownership ambiguity spec.md §9 flags as an open question.
type RawData struct {
	ID   model.IdT
	Type RawDataType
	Data []byte
}

// EncodeRawData mirrors RawDataCodec::encode.
func EncodeRawData(val RawData) []byte {
	buf := make([]byte, 0, 32+len(val.Data))
	buf = putU32(buf, uint32(val.Type))
	buf = putDot(buf)
	buf = putU32(buf, uint32(len(val.Data)))
	buf = putDot(buf)
	buf = append(buf, val.Data...)
	return buf
}

// DecodeRawData mirrors RawDataCodec::decode, returning an owned copy of
// the payload bytes rather than a pointer into the shared decode buffer.
func DecodeRawData(id model.IdT, buf []byte) (RawData, error) {
	typ, rest, err := getU32(buf)
	if err != nil {
		return RawData{}, err
	}
	rest, err = expectDot(rest)
	if err != nil {
		return RawData{}, err
	}

	length, rest, err := getU32(rest)
	if err != nil {
		return RawData{}, err
	}
	rest, err = expectDot(rest)
	if err != nil {
		return RawData{}, err
	}

	if uint32(len(rest)) < length {
		return RawData{}, errShortRawData
	}
	data := append([]byte(nil), rest[:length]...)
	return RawData{ID: id, Type: RawDataType(typ), Data: data}, nil
}

var errShortRawData = fmt.Errorf("record: buffer too short for raw data payload")

// EncodeOrder mirrors OrderCodec::encode's dotted-composite shape,
// adapted to this engine's model.Order field set (the original's
// WideDataLazyRef indirections for instrument/account/clearing/
// destination collapse to this engine's plain IdT/string fields).
func EncodeOrder(o model.Order) []byte {
	buf := make([]byte, 0, 256)
	buf = putIdT(buf, o.InstrumentID)
	buf = putDot(buf)
	buf = putIdT(buf, o.AccountID)
	buf = putDot(buf)
	buf = putIdT(buf, o.ClearingID)
	buf = putDot(buf)
	buf = putString(buf, o.ClOrderID)
	buf = putDot(buf)
	buf = putString(buf, o.OrigClOrderID)
	buf = putDot(buf)
	buf = putString(buf, o.Source)
	buf = putDot(buf)
	buf = putString(buf, o.Destination)
	buf = putDot(buf)

	buf = putU32(buf, uint32(o.Side))
	buf = putDot(buf)
	buf = putU32(buf, uint32(o.Type))
	buf = putDot(buf)
	buf = putU32(buf, uint32(o.Status))
	buf = putDot(buf)
	buf = putU32(buf, uint32(o.TIF))
	buf = putDot(buf)
	buf = putU32(buf, uint32(o.Capacity))
	buf = putDot(buf)
	buf = putU32(buf, uint32(o.Currency))
	buf = putDot(buf)
	buf = putU32(buf, uint32(o.SettlType))
	buf = putDot(buf)

	buf = putFloat64(buf, o.Price)
	buf = putDot(buf)
	buf = putFloat64(buf, o.StopPx)
	buf = putDot(buf)
	buf = putFloat64(buf, o.AvgPx)
	buf = putDot(buf)
	buf = putFloat64(buf, o.DayAvgPx)
	buf = putDot(buf)

	buf = putU32(buf, o.MinQty)
	buf = putDot(buf)
	buf = putU32(buf, o.OrderQty)
	buf = putDot(buf)
	buf = putU32(buf, o.LeavesQty)
	buf = putDot(buf)
	buf = putU32(buf, o.CumQty)
	buf = putDot(buf)
	buf = putU32(buf, o.DayOrderQty)
	buf = putDot(buf)
	buf = putU32(buf, o.DayCumQty)
	buf = putDot(buf)

	buf = putU64(buf, o.ExpireTime)
	buf = putDot(buf)
	buf = putU64(buf, o.SettlDate)
	buf = putDot(buf)

	buf = putU32(buf, uint32(len(o.Executions)))
	for _, ex := range o.Executions {
		buf = putDot(buf)
		buf = putIdT(buf, ex)
	}
	return buf
}

// DecodeOrder mirrors OrderCodec::decode, asserting the '.' separator
// after each field in encode order.
func DecodeOrder(id model.IdT, buf []byte) (model.Order, error) {
	var o model.Order
	o.ID = id

	rest := buf
	var err error

	if o.InstrumentID, rest, err = getIdT(rest); err != nil {
		return o, err
	}
	if rest, err = expectDot(rest); err != nil {
		return o, err
	}
	if o.AccountID, rest, err = getIdT(rest); err != nil {
		return o, err
	}
	if rest, err = expectDot(rest); err != nil {
		return o, err
	}
	if o.ClearingID, rest, err = getIdT(rest); err != nil {
		return o, err
	}
	if rest, err = expectDot(rest); err != nil {
		return o, err
	}
	if o.ClOrderID, rest, err = getString(rest); err != nil {
		return o, err
	}
	if rest, err = expectDot(rest); err != nil {
		return o, err
	}
	if o.OrigClOrderID, rest, err = getString(rest); err != nil {
		return o, err
	}
	if rest, err = expectDot(rest); err != nil {
		return o, err
	}
	if o.Source, rest, err = getString(rest); err != nil {
		return o, err
	}
	if rest, err = expectDot(rest); err != nil {
		return o, err
	}
	if o.Destination, rest, err = getString(rest); err != nil {
		return o, err
	}
	if rest, err = expectDot(rest); err != nil {
		return o, err
	}

	var u32 uint32
	if u32, rest, err = getU32(rest); err != nil {
		return o, err
	}
	o.Side = model.Side(u32)
	if rest, err = expectDot(rest); err != nil {
		return o, err
	}
	if u32, rest, err = getU32(rest); err != nil {
		return o, err
	}
	o.Type = model.OrderType(u32)
	if rest, err = expectDot(rest); err != nil {
		return o, err
	}
	if u32, rest, err = getU32(rest); err != nil {
		return o, err
	}
	o.Status = model.OrderStatus(u32)
	if rest, err = expectDot(rest); err != nil {
		return o, err
	}
	if u32, rest, err = getU32(rest); err != nil {
		return o, err
	}
	o.TIF = model.TimeInForce(u32)
	if rest, err = expectDot(rest); err != nil {
		return o, err
	}
	if u32, rest, err = getU32(rest); err != nil {
		return o, err
	}
	o.Capacity = model.Capacity(u32)
	if rest, err = expectDot(rest); err != nil {
		return o, err
	}
	if u32, rest, err = getU32(rest); err != nil {
		return o, err
	}
	o.Currency = model.Currency(u32)
	if rest, err = expectDot(rest); err != nil {
		return o, err
	}
	if u32, rest, err = getU32(rest); err != nil {
		return o, err
	}
	o.SettlType = model.SettlType(u32)
	if rest, err = expectDot(rest); err != nil {
		return o, err
	}

	if o.Price, rest, err = getFloat64(rest); err != nil {
		return o, err
	}
	if rest, err = expectDot(rest); err != nil {
		return o, err
	}
	if o.StopPx, rest, err = getFloat64(rest); err != nil {
		return o, err
	}
	if rest, err = expectDot(rest); err != nil {
		return o, err
	}
	if o.AvgPx, rest, err = getFloat64(rest); err != nil {
		return o, err
	}
	if rest, err = expectDot(rest); err != nil {
		return o, err
	}
	if o.DayAvgPx, rest, err = getFloat64(rest); err != nil {
		return o, err
	}
	if rest, err = expectDot(rest); err != nil {
		return o, err
	}

	if o.MinQty, rest, err = getU32(rest); err != nil {
		return o, err
	}
	if rest, err = expectDot(rest); err != nil {
		return o, err
	}
	if o.OrderQty, rest, err = getU32(rest); err != nil {
		return o, err
	}
	if rest, err = expectDot(rest); err != nil {
		return o, err
	}
	if o.LeavesQty, rest, err = getU32(rest); err != nil {
		return o, err
	}
	if rest, err = expectDot(rest); err != nil {
		return o, err
	}
	if o.CumQty, rest, err = getU32(rest); err != nil {
		return o, err
	}
	if rest, err = expectDot(rest); err != nil {
		return o, err
	}
	if o.DayOrderQty, rest, err = getU32(rest); err != nil {
		return o, err
	}
	if rest, err = expectDot(rest); err != nil {
		return o, err
	}
	if o.DayCumQty, rest, err = getU32(rest); err != nil {
		return o, err
	}
	if rest, err = expectDot(rest); err != nil {
		return o, err
	}

	var u64 uint64
	if u64, rest, err = getU64(rest); err != nil {
		return o, err
	}
	o.ExpireTime = u64
	if rest, err = expectDot(rest); err != nil {
		return o, err
	}
	if u64, rest, err = getU64(rest); err != nil {
		return o, err
	}
	o.SettlDate = u64
	if rest, err = expectDot(rest); err != nil {
		return o, err
	}

	count, rest, err := getU32(rest)
	if err != nil {
		return o, err
	}
	o.Executions = make([]model.IdT, 0, count)
	for i := uint32(0); i < count; i++ {
		if rest, err = expectDot(rest); err != nil {
			return o, err
		}
		var ex model.IdT
		if ex, rest, err = getIdT(rest); err != nil {
			return o, err
		}
		o.Executions = append(o.Executions, ex)
	}

	return o, nil
}
