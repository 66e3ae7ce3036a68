// Package subscription implements the Subscription Manager (spec.md
// §4.G) — an indexed filter store of OrderFilter-backed subscriptions,
// split into global instrument-pinned and general buckets, with a
// per-handler list for bulk removal — and
// the Subscription Layer (§4.H), a stateless broadcaster over it.
package subscription

import (
	"sync"

	"github.com/coplib/orderengine/internal/filter"
	"github.com/coplib/orderengine/internal/model"
)

// SubscriberID identifies the downstream handler a subscription notifies.
type SubscriberID string

// Kind is the SubscriptionType the filter applies to. Only order-event
// subscriptions are modeled today; the enum stays open for future kinds
// (e.g. execution-report subscriptions) without changing the index shape.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindOrder
)

// Info is one registered subscription: a monotonic id, its owning
// handler, and the predicate it matches against.
type Info struct {
	ID        model.IdT
	Name      string
	Kind      Kind
	Predicate filter.Predicate
	Handler   SubscriberID
}

// Manager is the indexed filter store. Reads and writes serialize on a
// single coarse mutex, per spec.md §4.G and §9 ("leave this as an
// implementation choice" re: sharding); the lock is never held across a
// caller's predicate evaluation or the Layer's downstream callback.
type Manager struct {
	mu    sync.Mutex
	idGen *model.IDGenerator

	// Global indexes, each append-ordered (== ascending subscription id,
	// since ids are assigned monotonically immediately before insertion
	// under this same lock).
	byInstrument map[model.IdT][]*Info
	general      []*Info

	// perHandler supports O(1) bulk removal: dropping a handler's whole
	// entry here, plus the unlinking pass below, releases every
	// subscription it owns without a structure-wide scan.
	perHandler map[SubscriberID][]*Info
}

// New constructs an empty Manager, assigning subscription ids from idGen.
func New(idGen *model.IDGenerator) *Manager {
	return &Manager{
		idGen:        idGen,
		byInstrument: make(map[model.IdT][]*Info),
		perHandler:   make(map[SubscriberID][]*Info),
	}
}

// Add registers a subscription, returning its assigned id. If pred pins
// an instrument by equality (filter.PinnedInstrument), the subscription
// goes into that instrument's bucket; otherwise it joins the general
// bucket, matched against every instrument not otherwise covered.
func (m *Manager) Add(name string, kind Kind, pred filter.Predicate, handler SubscriberID) model.IdT {
	m.mu.Lock()
	defer m.mu.Unlock()

	info := &Info{
		ID:        m.idGen.Next(),
		Name:      name,
		Kind:      kind,
		Predicate: pred,
		Handler:   handler,
	}

	if pinned, ok := filter.PinnedInstrument(pred); ok {
		m.byInstrument[pinned] = append(m.byInstrument[pinned], info)
	} else {
		m.general = append(m.general, info)
	}
	m.perHandler[handler] = append(m.perHandler[handler], info)
	return info.ID
}

// RemoveSubscriptions empties handler's per-handler list and unlinks
// every subscription it owns from the bucket indexes, per spec.md §4.G
// "remove".
func (m *Manager) RemoveSubscriptions(handler SubscriberID) {
	m.mu.Lock()
	defer m.mu.Unlock()

	owned, exists := m.perHandler[handler]
	if !exists {
		return
	}
	delete(m.perHandler, handler)

	for _, info := range owned {
		if pinned, ok := filter.PinnedInstrument(info.Predicate); ok {
			m.byInstrument[pinned] = removeInfo(m.byInstrument[pinned], info)
			if len(m.byInstrument[pinned]) == 0 {
				delete(m.byInstrument, pinned)
			}
		} else {
			m.general = removeInfo(m.general, info)
		}
	}
}

func removeInfo(list []*Info, target *Info) []*Info {
	out := list[:0]
	for _, info := range list {
		if info != target {
			out = append(out, info)
		}
	}
	return out
}

// GetSubscribers returns, for order, the set of handlers whose
// subscription matches — at most once per handler, per spec.md §8
// "at-most-one per subscriber". Per handler: entries in the instrument
// bucket for order.InstrumentID are tried first, in ascending id order;
// the first predicate match wins and the general bucket is skipped for
// that handler. A handler with no instrument-bucket match (including one
// with no instrument-bucket entries at all) falls through to the general
// bucket, again taking the first match in ascending id order. This
// preserves the original's documented break-then-fallthrough shape
// (spec.md §9 open question (b)) rather than "fixing" it.
func (m *Manager) GetSubscribers(order *model.Order) []SubscriberID {
	m.mu.Lock()
	bucket := append([]*Info(nil), m.byInstrument[order.InstrumentID]...)
	general := append([]*Info(nil), m.general...)
	m.mu.Unlock()

	matched := make(map[SubscriberID]struct{})
	var out []SubscriberID

	for _, info := range bucket {
		if _, already := matched[info.Handler]; already {
			continue
		}
		if info.Predicate.Eval(order) {
			matched[info.Handler] = struct{}{}
			out = append(out, info.Handler)
		}
	}
	for _, info := range general {
		if _, already := matched[info.Handler]; already {
			continue
		}
		if info.Predicate.Eval(order) {
			matched[info.Handler] = struct{}{}
			out = append(out, info.Handler)
		}
	}
	return out
}
