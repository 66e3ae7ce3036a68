package book

import (
	"sync"

	"github.com/coplib/orderengine/internal/model"
)

// Fill is one match produced by adding an aggressing order to a book.
type Fill struct {
	AggressorID model.IdT
	RestingID   model.IdT
	Price       float64
	Qty         uint32
}

// side holds one instrument's resting orders for one side, in
// price-time priority. Insertion is a linear scan; the book is not
// meant to be a high-performance matching engine, only a correct one —
// spec.md §5 treats the book as an opaque external collaborator.
type side struct {
	orders []*model.Order
	better func(a, b *model.Order) bool // strict priority order
}

func (s *side) insert(o *model.Order) {
	idx := len(s.orders)
	for i, existing := range s.orders {
		if s.better(o, existing) {
			idx = i
			break
		}
	}
	s.orders = append(s.orders, nil)
	copy(s.orders[idx+1:], s.orders[idx:])
	s.orders[idx] = o
}

func (s *side) remove(id model.IdT) bool {
	for i, o := range s.orders {
		if o.ID == id {
			s.orders = append(s.orders[:i], s.orders[i+1:]...)
			return true
		}
	}
	return false
}

func bidBetter(a, b *model.Order) bool { return a.Price > b.Price }
func askBetter(a, b *model.Order) bool { return a.Price < b.Price }

type book struct {
	bids side
	asks side
}

// OrderBook matches incoming orders against resting liquidity, one
// independent book per instrument.
type OrderBook struct {
	mu    sync.Mutex
	books map[model.IdT]*book
}

// NewOrderBook returns an empty multi-instrument order book.
func NewOrderBook() *OrderBook {
	return &OrderBook{books: make(map[model.IdT]*book)}
}

func (ob *OrderBook) bookFor(instrument model.IdT) *book {
	b, ok := ob.books[instrument]
	if !ok {
		b = &book{
			bids: side{better: bidBetter},
			asks: side{better: askBetter},
		}
		ob.books[instrument] = b
	}
	return b
}

// Add matches incoming against the opposite side of its instrument's
// book, mutating incoming and any resting orders it trades against
// in-place (CumQty/LeavesQty/Status), and returns every fill produced.
// Any unfilled limit quantity is left resting on the book; a market
// order's unfilled remainder is not added (spec.md doesn't model
// unmatched-market handling beyond "leaves booked or doesn't").
func (ob *OrderBook) Add(incoming *model.Order) []Fill {
	ob.mu.Lock()
	defer ob.mu.Unlock()

	b := ob.bookFor(incoming.InstrumentID)
	var opposite *side
	if incoming.Side == model.SideBuy {
		opposite = &b.asks
	} else {
		opposite = &b.bids
	}

	var fills []Fill
	for incoming.LeavesQty > 0 && len(opposite.orders) > 0 {
		resting := opposite.orders[0]
		if !crosses(incoming, resting) {
			break
		}

		qty := incoming.LeavesQty
		if resting.LeavesQty < qty {
			qty = resting.LeavesQty
		}
		price := resting.Price

		incoming.CumQty += qty
		incoming.LeavesQty -= qty
		resting.CumQty += qty
		resting.LeavesQty -= qty

		fills = append(fills, Fill{AggressorID: incoming.ID, RestingID: resting.ID, Price: price, Qty: qty})

		if resting.LeavesQty == 0 {
			resting.Status = model.OrderStatusFilled
			opposite.orders = opposite.orders[1:]
		} else {
			resting.Status = model.OrderStatusPartialFill
		}
	}

	switch {
	case incoming.LeavesQty == 0:
		incoming.Status = model.OrderStatusFilled
	case incoming.CumQty > 0:
		incoming.Status = model.OrderStatusPartialFill
	default:
		incoming.Status = model.OrderStatusNew
	}

	if incoming.LeavesQty > 0 && incoming.Type == model.OrderTypeLimit {
		if incoming.Side == model.SideBuy {
			b.bids.insert(incoming)
		} else {
			b.asks.insert(incoming)
		}
	}
	return fills
}

func crosses(incoming, resting *model.Order) bool {
	if incoming.Type == model.OrderTypeMarket {
		return true
	}
	if incoming.Side == model.SideBuy {
		return incoming.Price >= resting.Price
	}
	return incoming.Price <= resting.Price
}

// Restore re-inserts o into its instrument's book without matching it
// against resting liquidity, for recovery replay (spec.md §4.J: "order-
// book restore for orders"). Terminal or fully-filled orders, and
// non-limit orders, never rest on the book and are skipped.
func (ob *OrderBook) Restore(o *model.Order) {
	if o.Status.Terminal() || o.LeavesQty == 0 || o.Type != model.OrderTypeLimit {
		return
	}
	ob.mu.Lock()
	defer ob.mu.Unlock()
	b := ob.bookFor(o.InstrumentID)
	if o.Side == model.SideBuy {
		b.bids.insert(o)
	} else {
		b.asks.insert(o)
	}
}

// Cancel removes id from instrument's book, reporting whether it was
// resting there.
func (ob *OrderBook) Cancel(instrument model.IdT, id model.IdT) bool {
	ob.mu.Lock()
	defer ob.mu.Unlock()
	b, ok := ob.books[instrument]
	if !ok {
		return false
	}
	if b.bids.remove(id) {
		return true
	}
	return b.asks.remove(id)
}
