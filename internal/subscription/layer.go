package subscription

import (
	"github.com/coplib/orderengine/internal/model"
	"github.com/ethereum/go-ethereum/event"
	"github.com/luxfi/log"
)

// MatchEvent is what the Layer broadcasts once per matched subscriber.
type MatchEvent struct {
	Order   *model.Order
	Handler SubscriberID
}

// Layer is the Subscription Layer (spec.md §4.H): a stateless
// broadcaster. It holds no subscriber state of its own — Manager owns
// that. Process waits until every subscribed channel has accepted the
// event, so a slow subscriber slows its caller; a feed send with no live
// listener is simply a no-op.
type Layer struct {
	feed event.Feed
	subs event.SubscriptionScope
	log  log.Logger
}

// NewLayer constructs a Subscription Layer logging through logger.
func NewLayer(logger log.Logger) *Layer {
	return &Layer{log: logger}
}

// Subscribe registers ch to receive every MatchEvent the layer sends.
// The returned Subscription must be tracked by the caller and closed on
// shutdown; Close also unregisters it here via SubscriptionScope.
func (l *Layer) Subscribe(ch chan<- MatchEvent) event.Subscription {
	return l.subs.Track(l.feed.Subscribe(ch))
}

// Process delivers order to each of the already-matched handlers.
// matched is expected to come straight from Manager.GetSubscribers: each
// entry is validated for a non-empty handler id before delivery; a
// feed send reaching zero listeners is logged at debug and skipped, not
// treated as an error — spec.md §4.H: "non-fatal errors logged and
// skipped; never throws".
func (l *Layer) Process(order *model.Order, matched []SubscriberID) {
	for _, handler := range matched {
		if handler == "" {
			l.log.Warn("subscription layer: skipping empty subscriber id")
			continue
		}
		if n := l.feed.Send(MatchEvent{Order: order, Handler: handler}); n == 0 {
			l.log.Debug("subscription layer: no listener for match", "handler", handler)
		}
	}
}

// Close unsubscribes every tracked subscription, per shutdown.
func (l *Layer) Close() {
	l.subs.Close()
}
