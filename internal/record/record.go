// Package record implements the Record Dispatcher & Codec Registry
// (spec.md §4.J): a single append-only byte log of length-prefixed
// [record_type][version][id][payload] frames (see Log), one codec per entity kind,
// and a dispatcher that replays the log into the book/storage
// collaborators on recovery.
package record

// Type enumerates the record kinds the log can hold, in the same order
// as the original's RECORDTYPE enum (StorageRecordDispatcher.cpp).
type Type uint32

const (
	TypeInvalid Type = iota
	TypeInstrument
	TypeString
	TypeAccount
	TypeClearing
	TypeRawData
	TypeExecution
	TypeExecutionList
	TypeOrder
)

func (t Type) String() string {
	switch t {
	case TypeInstrument:
		return "instrument"
	case TypeString:
		return "string"
	case TypeAccount:
		return "account"
	case TypeClearing:
		return "clearing"
	case TypeRawData:
		return "raw_data"
	case TypeExecution:
		return "execution"
	case TypeExecutionList:
		return "execution_list"
	case TypeOrder:
		return "order"
	default:
		return "invalid"
	}
}

// RawDataType enumerates the kinds of opaque byte payload RawData can
// carry, mirroring TypesDef.h's RawDataType.
type RawDataType uint32

const (
	RawDataInvalid RawDataType = iota
	RawDataString
	RawDataMessage
	RawDataXML
	RawDataBinary
)
