// Package queue implements the incoming (spec.md §4.C) and outgoing
// (§4.D) event queues. Event types collapse the original's per-event
// inheritance hierarchy into a single closed EventVariant interface with
// one payload struct per case (spec.md §9 "Deep inheritance in event
// types"); dispatch is a type switch inside Processor.OnEvent rather than
// a virtual-dispatch visitor.
package queue

import "github.com/coplib/orderengine/internal/model"

// EventVariant is the closed set of inbound event payloads.
type EventVariant interface{ isEvent() }

// OrderEvent carries a new order lifecycle start. Order is attached
// ownership transfers to the consumer on pop, per spec.md §3.
type OrderEvent struct{ Order *model.Order }

// OrderCancelEvent requests cancellation of an existing order by id.
type OrderCancelEvent struct{ OrderID model.IdT }

// OrderReplaceEvent requests a cancel/replace against OrigOrderID.
type OrderReplaceEvent struct {
	OrigOrderID model.IdT
	NewParams   model.Order
}

// OrderChangeStateEvent is an operator-initiated state transition.
type OrderChangeStateEvent struct {
	OrderID model.IdT
	State   model.OrderStatus
}

// ProcessEventType enumerates the internal gear-shift signals §6 names.
type ProcessEventType uint8

const (
	ProcessInvalid ProcessEventType = iota
	ProcessOnReplaceReceived
	ProcessOnOrderAccepted
	ProcessOnExecReplace
	ProcessOnReplaceRejected
)

// ProcessEvent is an internal state-machine gear-shift, not a client
// stimulus.
type ProcessEvent struct {
	Type ProcessEventType
	ID   model.IdT
}

// TimerEvent is a timer firing, identified by the timer's id.
type TimerEvent struct{ ID model.IdT }

func (OrderEvent) isEvent()            {}
func (OrderCancelEvent) isEvent()      {}
func (OrderReplaceEvent) isEvent()     {}
func (OrderChangeStateEvent) isEvent() {}
func (ProcessEvent) isEvent()          {}
func (TimerEvent) isEvent()            {}

// QueuedEvent pairs an event payload with the source that submitted it.
type QueuedEvent struct {
	Source  string
	Payload EventVariant
}

// Processor is the visitor an incoming queue dispatches popped/peeked
// events to.
type Processor interface {
	OnEvent(source string, payload EventVariant)
}

// Observer is notified at-least-once per push, per spec.md §4.C.
type Observer interface {
	OnNewEvent()
}

// OutEventVariant is the closed set of outbound event payloads.
type OutEventVariant interface{ isOutEvent() }

// ExecReportEvent reports a fill, partial fill, or acknowledgement.
type ExecReportEvent struct{ Exec *model.Execution }

// CancelRejectEvent rejects a cancel/replace request.
type CancelRejectEvent struct {
	OrderID model.IdT
	Reason  string
}

// BusinessRejectEvent is a generic application-level reject.
type BusinessRejectEvent struct {
	OrderID model.IdT
	Reason  string
}

func (ExecReportEvent) isOutEvent()      {}
func (CancelRejectEvent) isOutEvent()    {}
func (BusinessRejectEvent) isOutEvent()  {}

// QueuedOutEvent pairs an outbound event with its session target.
type QueuedOutEvent struct {
	Target  string
	Payload OutEventVariant
}
