package queue

import (
	"sync"
	"sync/atomic"
)

// InQueue is the incoming event queue (spec.md §4.C): a multi-producer,
// multi-consumer queue of QueuedEvent, backed by a buffered Go channel —
// the idiomatic stand-in for a lock-free MPMC queue, since nothing in the
// retrieved dependency pack offers one as a library. A small mutex guards
// only the single-slot peek ("pending") the channel itself cannot express.
type InQueue struct {
	ch   chan QueuedEvent
	size int64

	slotMu  sync.Mutex
	pending *QueuedEvent

	obsMu sync.Mutex
	obs   Observer
}

// NewInQueue returns an incoming queue with the given channel capacity.
// Capacity is a hint (spec.md's Config.InQueueCapacityHint); push never
// blocks indefinitely in practice because consumers drain continuously,
// but a full channel does apply backpressure to producers.
func NewInQueue(capacity int) *InQueue {
	return &InQueue{ch: make(chan QueuedEvent, capacity)}
}

// Attach installs obs as the queue's new-event observer, returning any
// previously attached observer.
func (q *InQueue) Attach(obs Observer) Observer {
	q.obsMu.Lock()
	defer q.obsMu.Unlock()
	prev := q.obs
	q.obs = obs
	return prev
}

// Detach removes the current observer.
func (q *InQueue) Detach() {
	q.obsMu.Lock()
	defer q.obsMu.Unlock()
	q.obs = nil
}

// Push enqueues an event from source and notifies the attached observer,
// per spec.md §4.C ("onNewEvent fires at least once per push").
func (q *InQueue) Push(source string, payload EventVariant) {
	q.ch <- QueuedEvent{Source: source, Payload: payload}
	atomic.AddInt64(&q.size, 1)

	q.obsMu.Lock()
	obs := q.obs
	q.obsMu.Unlock()
	if obs != nil {
		obs.OnNewEvent()
	}
}

// Top dispatches the head event to p without consuming it, pulling one
// element out of the channel into the pending slot if it is currently
// empty. It reports false if the queue has nothing to offer.
func (q *InQueue) Top(p Processor) bool {
	q.slotMu.Lock()
	defer q.slotMu.Unlock()
	if !q.fillPendingLocked() {
		return false
	}
	p.OnEvent(q.pending.Source, q.pending.Payload)
	return true
}

// Pop discards the head event — the pending slot if occupied, otherwise
// one element pulled straight from the channel — without dispatching it.
// It reports false if the queue was empty.
func (q *InQueue) Pop() bool {
	q.slotMu.Lock()
	defer q.slotMu.Unlock()
	if q.pending != nil {
		q.pending = nil
		atomic.AddInt64(&q.size, -1)
		return true
	}
	select {
	case <-q.ch:
		atomic.AddInt64(&q.size, -1)
		return true
	default:
		return false
	}
}

// PopWith atomically dispatches the head event to p and consumes it, so a
// caller never observes an event via Top that a concurrent Pop then
// discards out from under it.
func (q *InQueue) PopWith(p Processor) bool {
	q.slotMu.Lock()
	defer q.slotMu.Unlock()
	if !q.fillPendingLocked() {
		return false
	}
	ev := *q.pending
	q.pending = nil
	atomic.AddInt64(&q.size, -1)
	p.OnEvent(ev.Source, ev.Payload)
	return true
}

// fillPendingLocked ensures the pending slot holds an event, pulling one
// from the channel if necessary. Caller must hold slotMu.
func (q *InQueue) fillPendingLocked() bool {
	if q.pending != nil {
		return true
	}
	select {
	case ev := <-q.ch:
		q.pending = &ev
		return true
	default:
		return false
	}
}

// Size reports the approximate number of events currently queued,
// including one occupying the pending slot.
func (q *InQueue) Size() int64 { return atomic.LoadInt64(&q.size) }
