// Package model defines the data-model entities the order-processing engine
// operates on: identifiers, the read/write-set tuples the dependency graph
// keys on, and the opaque trading entities (Order, Instrument, Account,
// Clearing, Execution).
package model

import "fmt"

// IdT is the composite primary key used throughout the engine: a numeric id
// paired with the business date it was assigned on. Total order is
// lexicographic on (ID, Date).
type IdT struct {
	ID   uint64
	Date uint32
}

// Zero is the IdT zero value; IsValid reports false for it.
var Zero = IdT{}

// IsValid reports whether both fields are non-zero, per spec.
func (id IdT) IsValid() bool {
	return id.ID != 0 && id.Date != 0
}

// Less implements the lexicographic (ID, Date) total order.
func (id IdT) Less(other IdT) bool {
	if id.ID != other.ID {
		return id.ID < other.ID
	}
	return id.Date < other.Date
}

func (id IdT) String() string {
	return fmt.Sprintf("%d.%d", id.ID, id.Date)
}

// TransactionId is an alias of IdT assigned monotonically by the
// IdTGenerator when a transaction is inserted into the Transaction Manager.
type TransactionId = IdT

// ObjectKind enumerates the entity kinds a transaction can touch.
type ObjectKind uint8

const (
	KindInvalid ObjectKind = iota
	KindOrder
	KindInstrument
	KindAccount
	KindClearing
	KindExecution
	KindExecutionList
)

func (k ObjectKind) String() string {
	switch k {
	case KindOrder:
		return "order"
	case KindInstrument:
		return "instrument"
	case KindAccount:
		return "account"
	case KindClearing:
		return "clearing"
	case KindExecution:
		return "execution"
	case KindExecutionList:
		return "execution_list"
	default:
		return "invalid"
	}
}

// ObjectInTransaction designates one entity a transaction reads or writes.
// It is the key the dependency graph uses to detect overlapping
// transactions.
type ObjectInTransaction struct {
	Kind ObjectKind
	Key  IdT
}

// MaxObjectsInTransaction bounds the fixed-capacity related-objects array,
// per spec (>= 8).
const MaxObjectsInTransaction = 8

// ObjectsInTransaction is a fixed-capacity array of objects a transaction
// touches, mirroring the original's stack-allocated ObjectsInTransaction.
type ObjectsInTransaction struct {
	items [MaxObjectsInTransaction]ObjectInTransaction
	size  int
}

// Add appends an object to the set. It panics on overflow: a transaction
// touching more than MaxObjectsInTransaction entities is a programming
// error, not a runtime condition callers recover from.
func (o *ObjectsInTransaction) Add(obj ObjectInTransaction) {
	if o.size >= MaxObjectsInTransaction {
		panic("model: ObjectsInTransaction capacity exceeded")
	}
	o.items[o.size] = obj
	o.size++
}

// Len reports how many objects are present.
func (o *ObjectsInTransaction) Len() int { return o.size }

// At returns the i'th object.
func (o *ObjectsInTransaction) At(i int) ObjectInTransaction { return o.items[i] }

// Slice returns the populated objects as a plain slice, for range-friendly
// call sites that don't need the fixed-capacity storage.
func (o *ObjectsInTransaction) Slice() []ObjectInTransaction {
	return append([]ObjectInTransaction(nil), o.items[:o.size]...)
}

// NewObjects builds an ObjectsInTransaction from a variadic list, primarily
// for tests and call sites building a transaction's read/write set inline.
func NewObjects(objs ...ObjectInTransaction) ObjectsInTransaction {
	var out ObjectsInTransaction
	for _, o := range objs {
		out.Add(o)
	}
	return out
}
