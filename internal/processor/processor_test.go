package processor

import (
	"sync"
	"testing"

	"github.com/coplib/orderengine/internal/book"
	"github.com/coplib/orderengine/internal/metrics"
	"github.com/coplib/orderengine/internal/model"
	"github.com/coplib/orderengine/internal/queue"
	"github.com/coplib/orderengine/internal/runtime"
	"github.com/coplib/orderengine/internal/subscription"
	"github.com/coplib/orderengine/internal/txmgr"
	"github.com/luxfi/log"
	"github.com/stretchr/testify/require"
)

func newTestProcessor(t *testing.T) (*Processor, *queue.OutQueue, *book.Storage) {
	t.Helper()
	rt := runtime.New(runtime.Config{FixedDate: 20260101}, log.Root(), metrics.New())
	storage := book.NewStorage()
	ob := book.NewOrderBook()
	txns := txmgr.New(rt.IDGen)
	out := queue.NewOutQueue(64)
	subs := subscription.New(rt.IDGen)
	layer := subscription.NewLayer(rt.Log)
	p := New(rt, out, txns, storage, ob, subs, layer, nil)
	return p, out, storage
}

func instrument(id uint64) model.IdT { return model.IdT{ID: id, Date: 1} }

func newOrderEvent(clOrderID string, side model.Side, price float64, qty uint32, instr model.IdT) queue.OrderEvent {
	return queue.OrderEvent{Order: &model.Order{
		ClOrderID:    clOrderID,
		InstrumentID: instr,
		AccountID:    model.IdT{ID: 1, Date: 1},
		ClearingID:   model.IdT{ID: 1, Date: 1},
		Side:         side,
		Type:         model.OrderTypeLimit,
		Price:        price,
		OrderQty:     qty,
		LeavesQty:    qty,
	}}
}

func drainAllReady(p *Processor) int {
	n := 0
	for p.RunOneReady() {
		n++
	}
	return n
}

// TestSimpleCrossScenario mirrors spec.md §8 scenario 1.
func TestSimpleCrossScenario(t *testing.T) {
	p, out, storage := newTestProcessor(t)
	instr := instrument(1)

	p.OnEvent("src", newOrderEvent("A", model.SideSell, 10.0, 100, instr))
	p.OnEvent("src", newOrderEvent("B", model.SideBuy, 20.0, 50, instr))

	require.Equal(t, 2, drainAllReady(p))

	a, ok := storage.LocateByClOrderID("A")
	require.True(t, ok)
	require.Equal(t, model.OrderStatusPartialFill, a.Status)

	b, ok := storage.LocateByClOrderID("B")
	require.True(t, ok)
	require.Equal(t, model.OrderStatusFilled, b.Status)

	execReports := 0
	for {
		ev, ok := out.Pop()
		if !ok {
			break
		}
		if _, isExec := ev.Payload.(queue.ExecReportEvent); isExec {
			execReports++
		}
	}
	require.Equal(t, 2, execReports, "one exec report per leg")
}

// TestRunOneReadyConcurrentWorkersExecuteEachOrderOnce mirrors how Task
// Manager drives RunOneReady: several goroutines call it concurrently, the
// way TransactionWorkers does (internal/taskmanager). Every submitted
// order has a disjoint instrument/account/clearing read-write set, so all
// of them become roots at once; if two workers ever raced onto the same
// root, the order would be booked twice and LocateByClOrderID's duplicate
// check would reject its own transaction spuriously, or storage would
// observe more Put calls than orders submitted.
func TestRunOneReadyConcurrentWorkersExecuteEachOrderOnce(t *testing.T) {
	p, _, storage := newTestProcessor(t)
	const n = 50
	clOrderIDs := make([]string, n)
	for i := 0; i < n; i++ {
		clOrderIDs[i] = string(rune('A' + (i % 26)))
		clOrderIDs[i] += string(rune('0' + (i / 26)))
		instr := instrument(uint64(i + 1))
		ev := newOrderEvent(clOrderIDs[i], model.SideBuy, 10.0, 1, instr)
		ev.Order.AccountID = model.IdT{ID: uint64(i + 1), Date: 1}
		ev.Order.ClearingID = model.IdT{ID: uint64(i + 1), Date: 1}
		p.OnEvent("src", ev)
	}

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for p.RunOneReady() {
			}
		}()
	}
	wg.Wait()

	require.Equal(t, 0, p.txns.Len(), "every submitted transaction must finish exactly once")
	for _, clOrderID := range clOrderIDs {
		o, ok := storage.LocateByClOrderID(clOrderID)
		require.True(t, ok, "order %s must have been booked", clOrderID)
		require.Equal(t, model.OrderStatusNew, o.Status, "order %s must not have been rejected as a spurious duplicate", clOrderID)
	}
}

// TestDuplicateClOrderIdScenario mirrors spec.md §8 scenario 2.
func TestDuplicateClOrderIdScenario(t *testing.T) {
	p, out, storage := newTestProcessor(t)
	instr := instrument(1)

	p.OnEvent("src", newOrderEvent("DUP", model.SideBuy, 10.0, 10, instr))
	p.OnEvent("src", newOrderEvent("DUP", model.SideBuy, 10.0, 10, instr))

	require.Equal(t, 2, drainAllReady(p))

	first, ok := storage.LocateByClOrderID("DUP")
	require.True(t, ok)
	require.Equal(t, model.OrderStatusNew, first.Status)

	var rejects int
	for {
		ev, ok := out.Pop()
		if !ok {
			break
		}
		if _, isReject := ev.Payload.(queue.BusinessRejectEvent); isReject {
			rejects++
		}
	}
	require.Equal(t, 1, rejects)
}

// TestCancelAfterNewOrderOrdering mirrors spec.md §8 scenario 3: a cancel
// submitted immediately after a new-order for the same orderId from the
// same source must execute after the new-order transaction, reaching
// CANCELED rather than a missing-order reject.
func TestCancelAfterNewOrderOrdering(t *testing.T) {
	p, _, storage := newTestProcessor(t)
	instr := instrument(1)

	orderEvent := newOrderEvent("X", model.SideBuy, 10.0, 10, instr)
	// The order id is assigned inside submitOrder; capture it by peeking
	// the pointer before submission (OnEvent mutates the same pointer).
	orderPtr := orderEvent.Order

	p.OnEvent("src", orderEvent)
	cancelID := orderPtr.ID
	require.True(t, cancelID.IsValid())
	p.OnEvent("src", queue.OrderCancelEvent{OrderID: cancelID})

	require.Equal(t, 2, drainAllReady(p))

	o, ok := storage.Get(cancelID)
	require.True(t, ok)
	require.Equal(t, model.OrderStatusCanceled, o.Status)
}
