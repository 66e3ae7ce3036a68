// Package persistence implements the write-behind persistence path
// (spec.md §4.I): a single background worker draining a request queue
// into PostgreSQL via upserts, reconnecting with exponential backoff, and
// re-enqueueing on transient failure rather than dropping work.
package persistence

import "github.com/coplib/orderengine/internal/model"

// WriteRequest is the closed tagged union of entities the worker can
// persist, replacing the original's std::variant<InstrumentWrite,
// AccountWrite, ClearingWrite, OrderWrite>.
type WriteRequest interface {
	isWriteRequest()
}

// InstrumentWrite upserts one instrument row, keyed on symbol.
type InstrumentWrite struct {
	Symbol           string
	SecurityID       string
	SecurityIDSource string
}

func (InstrumentWrite) isWriteRequest() {}

// AccountWrite upserts one account row, keyed on account name.
type AccountWrite struct {
	Account string
	Firm    string
	Type    model.AccountType
}

func (AccountWrite) isWriteRequest() {}

// ClearingWrite upserts one clearing-firm row, keyed on firm name.
type ClearingWrite struct {
	Firm string
}

func (ClearingWrite) isWriteRequest() {}

// OrderWrite upserts one order row, keyed on (order_id, order_date). This
// engine keys every entity by IdT rather than by the original's
// human-readable symbol/account/firm name, so unlike PGWriteBehind.cpp's
// subselect-by-symbol foreign keys, the instrument/account/clearing
// columns here reference those entities' own (id, date) composite keys
// directly.
type OrderWrite struct {
	OrderID       uint64
	OrderDate     uint32
	ClOrderID     string
	OrigClOrderID string
	Source        string
	Destination   string

	InstrumentID model.IdT
	AccountID    model.IdT
	ClearingID   model.IdT

	Side      model.Side
	OrdType   model.OrderType
	Status    model.OrderStatus
	TIF       model.TimeInForce
	Capacity  model.Capacity
	Currency  model.Currency
	SettlType model.SettlType

	Price    float64
	StopPx   float64
	AvgPx    float64
	DayAvgPx float64

	MinQty      uint32
	OrderQty    uint32
	LeavesQty   uint32
	CumQty      uint32
	DayOrderQty uint32
	DayCumQty   uint32

	ExpireTime uint64
	SettlDate  uint64
}

func (OrderWrite) isWriteRequest() {}

// OrderWriteFromOrder builds an OrderWrite from a model.Order. Processor
// calls this indirectly (via Worker.EnqueueOrderWrite) with the order
// value it already holds; no additional lookup is required since every
// foreign key here is the referenced entity's own IdT.
func OrderWriteFromOrder(o model.Order) OrderWrite {
	return OrderWrite{
		OrderID:       o.ID.ID,
		OrderDate:     o.ID.Date,
		ClOrderID:     o.ClOrderID,
		OrigClOrderID: o.OrigClOrderID,
		Source:        o.Source,
		Destination:   o.Destination,
		InstrumentID:  o.InstrumentID,
		AccountID:     o.AccountID,
		ClearingID:    o.ClearingID,
		Side:          o.Side,
		OrdType:       o.Type,
		Status:        o.Status,
		TIF:           o.TIF,
		Capacity:      o.Capacity,
		Currency:      o.Currency,
		SettlType:     o.SettlType,
		Price:         o.Price,
		StopPx:        o.StopPx,
		AvgPx:         o.AvgPx,
		DayAvgPx:      o.DayAvgPx,
		MinQty:        o.MinQty,
		OrderQty:      o.OrderQty,
		LeavesQty:     o.LeavesQty,
		CumQty:        o.CumQty,
		DayOrderQty:   o.DayOrderQty,
		DayCumQty:     o.DayCumQty,
		ExpireTime:    o.ExpireTime,
		SettlDate:     o.SettlDate,
	}
}
