package processor

import (
	"github.com/coplib/orderengine/internal/book"
	"github.com/coplib/orderengine/internal/model"
)

// orderTxn builds/matches a new order against the book. Execute reports
// false (a PreconditionFailure, spec.md §7) on a duplicate ClOrderID.
type orderTxn struct {
	id      model.TransactionId
	objects model.ObjectsInTransaction
	order   *model.Order
	p       *Processor

	fills        []book.Fill
	rejectReason string
}

func (t *orderTxn) ID() model.TransactionId { return t.id }
func (t *orderTxn) SetID(id model.TransactionId) { t.id = id }
func (t *orderTxn) RelatedObjects() model.ObjectsInTransaction { return t.objects }

func (t *orderTxn) Execute() bool {
	if _, dup := t.p.storage.LocateByClOrderID(t.order.ClOrderID); dup {
		t.rejectReason = "duplicate ClOrderID"
		return false
	}
	t.order.Status = model.OrderStatusReceivedNew
	t.fills = t.p.book.Add(t.order)
	t.p.storage.Put(t.order)
	return true
}

// cancelTxn cancels a resting order by id.
type cancelTxn struct {
	id      model.TransactionId
	objects model.ObjectsInTransaction
	orderID model.IdT
	source  string
	p       *Processor

	rejectReason string
}

func (t *cancelTxn) ID() model.TransactionId { return t.id }
func (t *cancelTxn) SetID(id model.TransactionId) { t.id = id }
func (t *cancelTxn) RelatedObjects() model.ObjectsInTransaction { return t.objects }

func (t *cancelTxn) Execute() bool {
	o, ok := t.p.storage.Get(t.orderID)
	if !ok {
		t.rejectReason = "unknown order"
		return false
	}
	if o.Status.Terminal() {
		t.rejectReason = "order already terminal"
		return false
	}
	if !t.p.book.Cancel(o.InstrumentID, o.ID) {
		t.rejectReason = "order not resting"
		return false
	}
	o.Status = model.OrderStatusCanceled
	o.LeavesQty = 0
	return true
}

// replaceTxn cancels origOrderID and books newParams as its replacement,
// preserving the original order id so downstream lookups by id still
// resolve (the Clone-then-replace is intentionally simple: a full
// cancel/replace that re-keys the order is out of scope here).
type replaceTxn struct {
	id          model.TransactionId
	objects     model.ObjectsInTransaction
	origOrderID model.IdT
	newParams   model.Order
	source      string
	p           *Processor

	replacement  *model.Order
	rejectReason string
}

func (t *replaceTxn) ID() model.TransactionId { return t.id }
func (t *replaceTxn) SetID(id model.TransactionId) { t.id = id }
func (t *replaceTxn) RelatedObjects() model.ObjectsInTransaction { return t.objects }

func (t *replaceTxn) Execute() bool {
	orig, ok := t.p.storage.Get(t.origOrderID)
	if !ok {
		t.rejectReason = "unknown original order"
		return false
	}
	if orig.Status.Terminal() {
		t.rejectReason = "original order already terminal"
		return false
	}
	t.p.book.Cancel(orig.InstrumentID, orig.ID)
	orig.Status = model.OrderStatusReplaced

	replacement := t.newParams
	replacement.ID = orig.ID
	replacement.OrigClOrderID = orig.ClOrderID
	replacement.Source = t.source
	replacement.Status = model.OrderStatusReceivedNew
	t.p.book.Add(&replacement)
	t.p.storage.Put(&replacement)
	t.replacement = &replacement
	return true
}

// changeStateTxn applies an operator-initiated status transition.
type changeStateTxn struct {
	id      model.TransactionId
	objects model.ObjectsInTransaction
	orderID model.IdT
	state   model.OrderStatus
	source  string
	p       *Processor

	rejectReason string
}

func (t *changeStateTxn) ID() model.TransactionId { return t.id }
func (t *changeStateTxn) SetID(id model.TransactionId) { t.id = id }
func (t *changeStateTxn) RelatedObjects() model.ObjectsInTransaction { return t.objects }

func (t *changeStateTxn) Execute() bool {
	o, ok := t.p.storage.Get(t.orderID)
	if !ok {
		t.rejectReason = "unknown order"
		return false
	}
	if o.Status.Terminal() {
		t.rejectReason = "order already terminal"
		return false
	}
	o.Status = t.state
	return true
}
