package candle

import (
	"errors"

	"github.com/lukehollenback/gander/trader/market"
)

//
// Router is the data source that consolidators are attached to. It routes each observation to the
// consolidators attached to the observation's instrument and nowhere else.
//
// A Router is not safe for concurrent use. It is owned by whichever goroutine delivers
// observations.
//
type Router struct {
	consolidators map[market.Symbol][]*Consolidator
}

//
// NewRouter instantiates a router with no attached consolidators.
//
func NewRouter() *Router {
	return &Router{
		consolidators: make(map[market.Symbol][]*Consolidator),
	}
}

//
// Attach starts routing observations for the provided instrument into the provided consolidator.
// Attaching the same consolidator twice has no additional effect.
//
func (o *Router) Attach(symbol market.Symbol, c *Consolidator) {
	for _, existing := range o.consolidators[symbol] {
		if existing == c {
			return
		}
	}

	o.consolidators[symbol] = append(o.consolidators[symbol], c)
}

//
// Detach stops routing observations for the provided instrument into the provided consolidator.
// Detaching a consolidator that is not attached is a no-op.
//
func (o *Router) Detach(symbol market.Symbol, c *Consolidator) {
	list := o.consolidators[symbol]

	for i, existing := range list {
		if existing == c {
			list = append(list[:i], list[i+1:]...)

			break
		}
	}

	if len(list) == 0 {
		delete(o.consolidators, symbol)
	} else {
		o.consolidators[symbol] = list
	}
}

// Attached returns the number of consolidators attached to the provided instrument.
func (o *Router) Attached(symbol market.Symbol) int {
	return len(o.consolidators[symbol])
}

//
// Route feeds the provided observation into every consolidator attached to its instrument. A
// consolidator that rejects the observation does not prevent the others from receiving it.
//
func (o *Router) Route(obs market.Observation) error {
	var errs []error

	//
	// Copy the slice first, since a candle close handler may detach a consolidator while we are
	// iterating.
	//
	targets := append([]*Consolidator(nil), o.consolidators[obs.Symbol]...)

	for _, c := range targets {
		if err := c.Update(obs); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
