package record

import (
	"fmt"

	"github.com/coplib/orderengine/internal/book"
	"github.com/coplib/orderengine/internal/model"
)

// CodecVersion is the payload format version every Save method writes
// into its frame, mirroring the version out-param each Codec::encode in
// the original fills in (OrderCodec.h et al.). There is only one format;
// Replay reads the version back into Frame.Version but does not check it.
const CodecVersion uint32 = 1

// Dispatcher is the Record Dispatcher & Codec Registry (spec.md §4.J):
// it owns the append-only log, encodes each entity kind's Save call into
// a frame, and on Replay decodes frames back into the book/storage/
// catalog collaborators, mirroring StorageRecordDispatcher's dual
// save/onRecordLoaded role.
type Dispatcher struct {
	log     *Log
	orders  *book.Storage
	book    *book.OrderBook
	catalog *Catalog
}

// NewDispatcher wires a Dispatcher to its log and restore collaborators.
func NewDispatcher(log *Log, orders *book.Storage, ob *book.OrderBook, catalog *Catalog) *Dispatcher {
	return &Dispatcher{log: log, orders: orders, book: ob, catalog: catalog}
}

// SaveInstrument appends an instrument record.
func (d *Dispatcher) SaveInstrument(val model.Instrument) error {
	_, err := d.log.Append(TypeInstrument, CodecVersion, val.ID, EncodeInstrument(val))
	return err
}

// SaveAccount appends an account record.
func (d *Dispatcher) SaveAccount(val model.Account) error {
	_, err := d.log.Append(TypeAccount, CodecVersion, val.ID, EncodeAccount(val))
	return err
}

// SaveClearing appends a clearing record.
func (d *Dispatcher) SaveClearing(val model.Clearing) error {
	_, err := d.log.Append(TypeClearing, CodecVersion, val.ID, EncodeClearing(val))
	return err
}

// SaveString appends a standalone interned-string record keyed by id.
func (d *Dispatcher) SaveString(id model.IdT, val string) error {
	_, err := d.log.Append(TypeString, CodecVersion, id, EncodeString(val))
	return err
}

// SaveRawData appends an opaque raw-data record.
func (d *Dispatcher) SaveRawData(val RawData) error {
	_, err := d.log.Append(TypeRawData, CodecVersion, val.ID, EncodeRawData(val))
	return err
}

// SaveOrder appends an order record, mirroring
// StorageRecordDispatcher::save(const OrderEntry&).
func (d *Dispatcher) SaveOrder(o model.Order) error {
	_, err := d.log.Append(TypeOrder, CodecVersion, o.ID, EncodeOrder(o))
	return err
}

// apply decodes one frame and restores it into the matching
// collaborator, mirroring onRecordLoaded's switch over RecordType.
func (d *Dispatcher) apply(f Frame) error {
	switch f.Type {
	case TypeInstrument:
		val, err := DecodeInstrument(f.ID, f.Payload)
		if err != nil {
			return err
		}
		d.catalog.restoreInstrument(val)
	case TypeAccount:
		val, err := DecodeAccount(f.ID, f.Payload)
		if err != nil {
			return err
		}
		d.catalog.restoreAccount(val)
	case TypeClearing:
		val, err := DecodeClearing(f.ID, f.Payload)
		if err != nil {
			return err
		}
		d.catalog.restoreClearing(val)
	case TypeString:
		val, err := DecodeString(f.Payload)
		if err != nil {
			return err
		}
		d.catalog.restoreString(f.ID, val)
	case TypeRawData:
		val, err := DecodeRawData(f.ID, f.Payload)
		if err != nil {
			return err
		}
		d.catalog.restoreRawData(val)
	case TypeExecution, TypeExecutionList:
		// Not persisted independently: execution fills are replayed as
		// part of their owning order's Executions list, matching the
		// original's empty save(const ExecutionsT&) (asserts false —
		// it is never called on the save path either).
	case TypeOrder:
		o, err := DecodeOrder(f.ID, f.Payload)
		if err != nil {
			return err
		}
		d.book.Restore(&o)
		d.orders.Put(&o)
	default:
		return fmt.Errorf("record: invalid record type %d, unable to decode record", f.Type)
	}
	return nil
}

// Replay reads every frame from path in append order, restores each one
// into its collaborator, and reports the highest IdT observed across all
// record kinds — the Recovery/Replay module uses this to set the
// IdTGenerator's floor before resuming live ingest, so newly assigned
// ids never collide with anything restored from the log.
func Replay(path string, orders *book.Storage, ob *book.OrderBook, catalog *Catalog) (model.IdT, error) {
	frames, err := ReadAll(path)
	if err != nil {
		return model.IdT{}, err
	}

	d := NewDispatcher(nil, orders, ob, catalog)
	var highest model.IdT
	for _, f := range frames {
		if err := d.apply(f); err != nil {
			return highest, fmt.Errorf("record: replay frame at offset %d: %w", f.Offset, err)
		}
		if highest.Less(f.ID) {
			highest = f.ID
		}
	}
	return highest, nil
}
