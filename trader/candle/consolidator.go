package candle

import (
	"fmt"
	"time"

	"github.com/lukehollenback/gander/trader/market"
)

//
// Handler is a candle close handler. It is executed synchronously, on the goroutine that delivered
// the observation which closed the candle out.
//
type Handler func(symbol market.Symbol, closed *Candle)

type subscription struct {
	id      string
	handler Handler
}

//
// Consolidator buckets a stream of price observations for a single instrument into candles of a
// fixed duration. Buckets are aligned on multiples of the duration (so a ten minute consolidator
// produces candles starting at :00, :10, :20, ...). Whenever an observation arrives at or after the
// end of the pending candle, the pending candle is closed out, handed to every subscribed handler,
// and a new candle is opened for the bucket the observation falls into.
//
// A Consolidator is not safe for concurrent use.
//
type Consolidator struct {
	period        time.Duration
	pending       *Candle
	pendingSymbol market.Symbol
	subscriptions []subscription
}

//
// NewConsolidator instantiates a consolidator producing candles of the specified duration.
//
func NewConsolidator(period time.Duration) (*Consolidator, error) {
	if period <= 0 {
		return nil, market.NewConfigError("consolidation period", "must be positive (got %s)", period)
	}

	return &Consolidator{
		period:        period,
		subscriptions: make([]subscription, 0, 1),
	}, nil
}

func (o *Consolidator) Period() time.Duration {
	return o.period
}

//
// Pending returns the candle that is currently being built, or nil if no observation has been
// consolidated yet.
//
func (o *Consolidator) Pending() *Candle {
	return o.pending
}

//
// Subscribe registers a candle close handler under the provided identifier. Subscribing again with
// an identifier that is already registered replaces its handler but keeps its dispatch position.
//
func (o *Consolidator) Subscribe(id string, handler Handler) {
	for i := range o.subscriptions {
		if o.subscriptions[i].id == id {
			o.subscriptions[i].handler = handler

			return
		}
	}

	o.subscriptions = append(o.subscriptions, subscription{id: id, handler: handler})
}

//
// Unsubscribe removes the candle close handler registered under the provided identifier. Unknown
// identifiers are ignored, so unsubscribing twice is harmless.
//
func (o *Consolidator) Unsubscribe(id string) {
	for i := range o.subscriptions {
		if o.subscriptions[i].id == id {
			o.subscriptions = append(o.subscriptions[:i], o.subscriptions[i+1:]...)

			return
		}
	}
}

// Subscribers returns the number of registered candle close handlers.
func (o *Consolidator) Subscribers() int {
	return len(o.subscriptions)
}

//
// Update consolidates the provided observation. Observations that predate the pending candle have
// already been accounted for by a closed-out candle and are rejected.
//
func (o *Consolidator) Update(obs market.Observation) error {
	//
	// Open the very first candle.
	//
	if o.pending == nil {
		o.open(obs)

		return nil
	}

	//
	// Validate that we are not trying to append to a historical, closed-out candle.
	//
	if obs.Time.Before(o.pending.Start()) {
		return fmt.Errorf(
			"cannot consolidate %s observation from %s into %s candle starting at %s",
			obs.Symbol, obs.Time, o.period, o.pending.Start(),
		)
	}

	//
	// Close out the pending candle if the observation crossed its boundary.
	//
	if !obs.Time.Before(o.pending.End()) {
		closed, symbol := o.pending, o.pendingSymbol

		o.open(obs)
		o.emit(symbol, closed)

		return nil
	}

	return o.pending.Append(obs.Time, obs.Price)
}

func (o *Consolidator) open(obs market.Observation) {
	o.pending = CreateCandle(obs.Time.Truncate(o.period), o.period, obs.Price)
	o.pendingSymbol = obs.Symbol
}

func (o *Consolidator) emit(symbol market.Symbol, closed *Candle) {
	//
	// Iterate over a snapshot so that handlers may unsubscribe themselves.
	//
	subs := make([]subscription, len(o.subscriptions))
	copy(subs, o.subscriptions)

	for _, sub := range subs {
		sub.handler(symbol, closed)
	}
}
