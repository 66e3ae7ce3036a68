// Package processor implements the Processor (spec.md §4.E): it drains
// the incoming queue building transactions with the right read/write
// set, submits them to the Transaction Manager, and — once a transaction
// becomes a root and a transaction worker hands it back — runs its body
// against the order book/storage, produces outbound events, publishes to
// the subscription layer, and enqueues a write-behind persistence
// request.
package processor

import (
	"github.com/coplib/orderengine/internal/book"
	"github.com/coplib/orderengine/internal/model"
	"github.com/coplib/orderengine/internal/queue"
	"github.com/coplib/orderengine/internal/runtime"
	"github.com/coplib/orderengine/internal/subscription"
	"github.com/coplib/orderengine/internal/txmgr"
)

// WriteBehindSink is the write-behind persistence queue's inbound edge,
// expressed as an interface here so this package does not need to import
// internal/persistence; internal/persistence.Worker implements it.
type WriteBehindSink interface {
	EnqueueOrderWrite(o model.Order)
}

// Processor is the component E state: storage, book, the transaction
// manager, and the out-bound fan-out paths.
type Processor struct {
	rt      *runtime.Runtime
	out     *queue.OutQueue
	txns    *txmgr.Manager
	storage *book.Storage
	book    *book.OrderBook
	subs    *subscription.Manager
	layer   *subscription.Layer
	persist WriteBehindSink
}

// New constructs a Processor. persist may be nil, in which case no
// write-behind requests are enqueued (useful for tests that only exercise
// matching/subscription behavior).
func New(rt *runtime.Runtime, out *queue.OutQueue, txns *txmgr.Manager, storage *book.Storage, ob *book.OrderBook, subs *subscription.Manager, layer *subscription.Layer, persist WriteBehindSink) *Processor {
	return &Processor{
		rt:      rt.With("processor"),
		out:     out,
		txns:    txns,
		storage: storage,
		book:    ob,
		subs:    subs,
		layer:   layer,
		persist: persist,
	}
}

// OnEvent implements queue.Processor: it is invoked by the incoming
// queue's pop/peek path with the dequeued event. It builds the
// appropriate transaction and submits it to the Transaction Manager;
// it never executes the transaction body itself (that happens once the
// transaction becomes a root — see RunOneReady).
func (p *Processor) OnEvent(source string, payload queue.EventVariant) {
	switch ev := payload.(type) {
	case queue.OrderEvent:
		p.submitOrder(source, ev.Order)
	case queue.OrderCancelEvent:
		p.submitCancel(source, ev.OrderID)
	case queue.OrderReplaceEvent:
		p.submitReplace(source, ev.OrigOrderID, ev.NewParams)
	case queue.OrderChangeStateEvent:
		p.submitChangeState(source, ev.OrderID, ev.State)
	case queue.ProcessEvent, queue.TimerEvent:
		// Internal gear-shifts and timers carry no order mutation of
		// their own in this engine; they exist as external interface
		// surface for callers that want to observe them, not as graph
		// work items.
	default:
		p.rt.Log.Warn("processor: unrecognized event variant")
	}
}

func (p *Processor) submitOrder(source string, o *model.Order) {
	if !o.ID.IsValid() {
		o.ID = p.rt.IDGen.Next()
	}
	o.Source = source
	objects := model.NewObjects(
		model.ObjectInTransaction{Kind: model.KindOrder, Key: o.ID},
		model.ObjectInTransaction{Kind: model.KindInstrument, Key: o.InstrumentID},
		model.ObjectInTransaction{Kind: model.KindAccount, Key: o.AccountID},
		model.ObjectInTransaction{Kind: model.KindClearing, Key: o.ClearingID},
	)
	t := &orderTxn{objects: objects, order: o, p: p}
	p.txns.Add(t)
}

func (p *Processor) submitCancel(source string, orderID model.IdT) {
	objects := model.NewObjects(model.ObjectInTransaction{Kind: model.KindOrder, Key: orderID})
	t := &cancelTxn{objects: objects, orderID: orderID, source: source, p: p}
	p.txns.Add(t)
}

func (p *Processor) submitReplace(source string, origOrderID model.IdT, newParams model.Order) {
	objects := model.NewObjects(model.ObjectInTransaction{Kind: model.KindOrder, Key: origOrderID})
	t := &replaceTxn{objects: objects, origOrderID: origOrderID, newParams: newParams, source: source, p: p}
	p.txns.Add(t)
}

func (p *Processor) submitChangeState(source string, orderID model.IdT, state model.OrderStatus) {
	objects := model.NewObjects(model.ObjectInTransaction{Kind: model.KindOrder, Key: orderID})
	t := &changeStateTxn{objects: objects, orderID: orderID, state: state, source: source, p: p}
	p.txns.Add(t)
}

// RunOneReady claims the next ready root from the Transaction Manager,
// executes its body, produces its outputs, and removes it from the
// graph. It reports false if no root transaction was available. This is
// the body the transaction-worker loop (Task Manager, §4.F) calls
// repeatedly, from TransactionWorkers goroutines concurrently; it uses
// ClaimReady rather than Iterator so a root is handed to exactly one
// worker instead of every worker racing onto the same smallest root.
func (p *Processor) RunOneReady() bool {
	id, t, ok := p.txns.ClaimReady()
	if !ok || t == nil {
		return false
	}
	succeeded := t.Execute()
	p.afterExecute(t, succeeded)
	p.txns.Remove(id)
	return true
}

func (p *Processor) afterExecute(t txmgr.Transaction, succeeded bool) {
	switch tx := t.(type) {
	case *orderTxn:
		p.afterOrder(tx, succeeded)
	case *cancelTxn:
		p.afterCancel(tx, succeeded)
	case *replaceTxn:
		p.afterReplace(tx, succeeded)
	case *changeStateTxn:
		p.afterChangeState(tx, succeeded)
	}
}

func (p *Processor) afterOrder(tx *orderTxn, succeeded bool) {
	if !succeeded {
		p.out.Push(tx.order.Source, queue.BusinessRejectEvent{OrderID: tx.order.ID, Reason: tx.rejectReason})
		p.rt.Metrics.TransactionsRejected.Inc()
		return
	}
	for _, f := range tx.fills {
		p.out.Push(tx.order.Source, queue.ExecReportEvent{Exec: &model.Execution{
			ID:      p.rt.IDGen.Next(),
			OrderID: f.AggressorID,
			Price:   f.Price,
			Qty:     f.Qty,
		}})

		restingSource := tx.order.Source
		resting, found := p.storage.Get(f.RestingID)
		if found {
			restingSource = resting.Source
		}
		p.out.Push(restingSource, queue.ExecReportEvent{Exec: &model.Execution{
			ID:      p.rt.IDGen.Next(),
			OrderID: f.RestingID,
			Price:   f.Price,
			Qty:     f.Qty,
		}})
		if found {
			p.publishAndPersist(resting)
		}
	}
	p.publishAndPersist(tx.order)
	p.rt.Metrics.TransactionsExecuted.Inc()
}

func (p *Processor) afterCancel(tx *cancelTxn, succeeded bool) {
	if !succeeded {
		p.out.Push(tx.source, queue.CancelRejectEvent{OrderID: tx.orderID, Reason: tx.rejectReason})
		p.rt.Metrics.TransactionsRejected.Inc()
		return
	}
	if o, found := p.storage.Get(tx.orderID); found {
		p.publishAndPersist(o)
	}
	p.rt.Metrics.TransactionsExecuted.Inc()
}

func (p *Processor) afterReplace(tx *replaceTxn, succeeded bool) {
	if !succeeded {
		p.out.Push(tx.source, queue.CancelRejectEvent{OrderID: tx.origOrderID, Reason: tx.rejectReason})
		p.rt.Metrics.TransactionsRejected.Inc()
		return
	}
	p.publishAndPersist(tx.replacement)
	p.rt.Metrics.TransactionsExecuted.Inc()
}

func (p *Processor) afterChangeState(tx *changeStateTxn, succeeded bool) {
	if !succeeded {
		p.out.Push(tx.source, queue.BusinessRejectEvent{OrderID: tx.orderID, Reason: tx.rejectReason})
		p.rt.Metrics.TransactionsRejected.Inc()
		return
	}
	if o, found := p.storage.Get(tx.orderID); found {
		p.publishAndPersist(o)
	}
	p.rt.Metrics.TransactionsExecuted.Inc()
}

func (p *Processor) publishAndPersist(o *model.Order) {
	matched := p.subs.GetSubscribers(o)
	p.layer.Process(o, matched)
	p.rt.Metrics.SubscriptionMatches.Add(float64(len(matched)))
	if p.persist != nil {
		p.persist.EnqueueOrderWrite(o.Clone())
	}
}
