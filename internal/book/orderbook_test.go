package book

import (
	"testing"

	"github.com/coplib/orderengine/internal/model"
	"github.com/stretchr/testify/require"
)

func limitOrder(id uint64, side model.Side, price float64, qty uint32) *model.Order {
	return &model.Order{
		ID:           model.IdT{ID: id, Date: 1},
		InstrumentID: model.IdT{ID: 1, Date: 1},
		Side:         side,
		Type:         model.OrderTypeLimit,
		Price:        price,
		OrderQty:     qty,
		LeavesQty:    qty,
	}
}

// TestSimpleCross mirrors spec.md §8 scenario 1: resting sell @10 qty=100
// against an incoming buy @20 qty=50 leaves the sell PARTFILL and the
// buy FILLED with one fill of 50 @10.
func TestSimpleCross(t *testing.T) {
	ob := NewOrderBook()
	a := limitOrder(1, model.SideSell, 10.0, 100)
	b := limitOrder(2, model.SideBuy, 20.0, 50)

	require.Empty(t, ob.Add(a))
	fills := ob.Add(b)

	require.Len(t, fills, 1)
	require.Equal(t, Fill{AggressorID: b.ID, RestingID: a.ID, Price: 10.0, Qty: 50}, fills[0])
	require.Equal(t, model.OrderStatusPartialFill, a.Status)
	require.EqualValues(t, 50, a.LeavesQty)
	require.Equal(t, model.OrderStatusFilled, b.Status)
	require.EqualValues(t, 0, b.LeavesQty)
}

func TestNonCrossingOrdersBothRest(t *testing.T) {
	ob := NewOrderBook()
	bid := limitOrder(1, model.SideBuy, 9.0, 10)
	ask := limitOrder(2, model.SideSell, 10.0, 10)

	require.Empty(t, ob.Add(bid))
	require.Empty(t, ob.Add(ask))
	require.Equal(t, model.OrderStatusNew, bid.Status)
	require.Equal(t, model.OrderStatusNew, ask.Status)
}

func TestPriceTimePriorityFillsBestPriceFirst(t *testing.T) {
	ob := NewOrderBook()
	worse := limitOrder(1, model.SideSell, 11.0, 50)
	better := limitOrder(2, model.SideSell, 10.0, 50)
	ob.Add(worse)
	ob.Add(better)

	buy := limitOrder(3, model.SideBuy, 12.0, 50)
	fills := ob.Add(buy)
	require.Len(t, fills, 1)
	require.Equal(t, better.ID, fills[0].RestingID, "better-priced resting order must fill first")
}

func TestCancelRemovesRestingOrder(t *testing.T) {
	ob := NewOrderBook()
	o := limitOrder(1, model.SideBuy, 9.0, 10)
	ob.Add(o)
	require.True(t, ob.Cancel(o.InstrumentID, o.ID))
	require.False(t, ob.Cancel(o.InstrumentID, o.ID), "already removed")
}

func TestMarketOrderCrossesRegardlessOfPrice(t *testing.T) {
	ob := NewOrderBook()
	resting := limitOrder(1, model.SideSell, 999.0, 10)
	ob.Add(resting)

	market := &model.Order{
		ID:           model.IdT{ID: 2, Date: 1},
		InstrumentID: model.IdT{ID: 1, Date: 1},
		Side:         model.SideBuy,
		Type:         model.OrderTypeMarket,
		OrderQty:     10,
		LeavesQty:    10,
	}
	fills := ob.Add(market)
	require.Len(t, fills, 1)
	require.Equal(t, model.OrderStatusFilled, market.Status)
}
